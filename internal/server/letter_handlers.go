// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"strings"
	"time"

	"orgdesk/internal/models"

	"github.com/gofiber/fiber/v2"
)

func parseLetterDirection(raw string) (models.LetterDirection, bool) {
	switch models.LetterDirection(strings.ToLower(raw)) {
	case models.LetterDirectionIncoming:
		return models.LetterDirectionIncoming, true
	case models.LetterDirectionOutgoing:
		return models.LetterDirectionOutgoing, true
	}
	return "", false
}

// CreateLetter handles POST /api/letters
// Creating a letter opens a PENDING approval record for it.
func (s *Server) CreateLetter(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		Number     string     `json:"number"`
		Subject    string     `json:"subject"`
		Body       string     `json:"body"`
		Direction  string     `json:"direction"`
		Sender     string     `json:"sender"`
		Recipient  string     `json:"recipient"`
		ReceivedAt *time.Time `json:"received_at"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if strings.TrimSpace(req.Number) == "" || strings.TrimSpace(req.Subject) == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Number and subject are required"))
	}
	direction, ok := parseLetterDirection(req.Direction)
	if !ok {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Direction must be incoming or outgoing"))
	}

	letter := &models.Letter{
		Number:     strings.TrimSpace(req.Number),
		Subject:    strings.TrimSpace(req.Subject),
		Body:       req.Body,
		Direction:  direction,
		Sender:     req.Sender,
		Recipient:  req.Recipient,
		ReceivedAt: req.ReceivedAt,
		OwnerID:    userID,
	}
	if err := s.db.WithContext(c.UserContext()).Create(letter).Error; err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	approval, err := s.openApprovalForEntity(c.UserContext(), models.EntityTypeLetter, letter, letter.ID, userID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"letter":   letter,
		"approval": approval,
	})
}

// ListLetters handles GET /api/letters
func (s *Server) ListLetters(c *fiber.Ctx) error {
	page := parsePagination(c, 20)

	query := s.db.WithContext(c.UserContext()).Model(&models.Letter{})
	if raw := strings.TrimSpace(c.Query("direction")); raw != "" {
		direction, ok := parseLetterDirection(raw)
		if !ok {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Direction must be incoming or outgoing"))
		}
		query = query.Where("direction = ?", direction)
	}
	if ownerID := c.QueryInt("owner_id", 0); ownerID > 0 {
		query = query.Where("owner_id = ?", ownerID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	var letters []models.Letter
	if err := query.
		Preload("Owner").
		Order("created_at DESC").
		Limit(page.Limit).Offset(page.Offset).
		Find(&letters).Error; err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{"letters": letters, "total": total})
}

// GetLetter handles GET /api/letters/:id
func (s *Server) GetLetter(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var letter models.Letter
	lookupErr := s.db.WithContext(c.UserContext()).Preload("Owner").First(&letter, id).Error
	return respondEntityLookup(c, lookupError(lookupErr, "Letter", id), &letter)
}

// UpdateLetter handles PUT /api/letters/:id
func (s *Server) UpdateLetter(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var letter models.Letter
	if lookupErr := s.db.WithContext(c.UserContext()).First(&letter, id).Error; lookupErr != nil {
		return respondServiceError(c, lookupError(lookupErr, "Letter", id))
	}

	allowed, err := s.canManageEntity(c, letter.OwnerID)
	if err != nil {
		return respondServiceError(c, err)
	}
	if !allowed {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewUnauthorizedError("Not allowed to modify this letter"))
	}

	var req struct {
		Number     *string    `json:"number"`
		Subject    *string    `json:"subject"`
		Body       *string    `json:"body"`
		Direction  *string    `json:"direction"`
		Sender     *string    `json:"sender"`
		Recipient  *string    `json:"recipient"`
		ReceivedAt *time.Time `json:"received_at"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if req.Number != nil {
		if strings.TrimSpace(*req.Number) == "" {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Number cannot be empty"))
		}
		letter.Number = strings.TrimSpace(*req.Number)
	}
	if req.Subject != nil {
		if strings.TrimSpace(*req.Subject) == "" {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Subject cannot be empty"))
		}
		letter.Subject = strings.TrimSpace(*req.Subject)
	}
	if req.Body != nil {
		letter.Body = *req.Body
	}
	if req.Direction != nil {
		direction, ok := parseLetterDirection(*req.Direction)
		if !ok {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Direction must be incoming or outgoing"))
		}
		letter.Direction = direction
	}
	if req.Sender != nil {
		letter.Sender = *req.Sender
	}
	if req.Recipient != nil {
		letter.Recipient = *req.Recipient
	}
	if req.ReceivedAt != nil {
		letter.ReceivedAt = req.ReceivedAt
	}

	if err := s.db.WithContext(c.UserContext()).Save(&letter).Error; err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(letter)
}

// DeleteLetter handles DELETE /api/letters/:id
func (s *Server) DeleteLetter(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var letter models.Letter
	if lookupErr := s.db.WithContext(c.UserContext()).First(&letter, id).Error; lookupErr != nil {
		return respondServiceError(c, lookupError(lookupErr, "Letter", id))
	}

	allowed, err := s.canManageEntity(c, letter.OwnerID)
	if err != nil {
		return respondServiceError(c, err)
	}
	if !allowed {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewUnauthorizedError("Not allowed to delete this letter"))
	}

	if err := s.db.WithContext(c.UserContext()).Delete(&letter).Error; err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{"message": "Letter deleted"})
}
