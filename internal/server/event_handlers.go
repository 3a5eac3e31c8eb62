// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"strings"
	"time"

	"orgdesk/internal/models"

	"github.com/gofiber/fiber/v2"
)

// CreateEvent handles POST /api/events
// Creating an event opens a PENDING approval record for it.
func (s *Server) CreateEvent(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		Name        string    `json:"name"`
		Description string    `json:"description"`
		Location    string    `json:"location"`
		StartsAt    time.Time `json:"starts_at"`
		EndsAt      time.Time `json:"ends_at"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if strings.TrimSpace(req.Name) == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Name is required"))
	}
	if !req.EndsAt.IsZero() && !req.StartsAt.IsZero() && req.EndsAt.Before(req.StartsAt) {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Event cannot end before it starts"))
	}

	event := &models.Event{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Location:    req.Location,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		OwnerID:     userID,
	}
	if err := s.db.WithContext(c.UserContext()).Create(event).Error; err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	approval, err := s.openApprovalForEntity(c.UserContext(), models.EntityTypeEvent, event, event.ID, userID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"event":    event,
		"approval": approval,
	})
}

// ListEvents handles GET /api/events
func (s *Server) ListEvents(c *fiber.Ctx) error {
	page := parsePagination(c, 20)

	query := s.db.WithContext(c.UserContext()).Model(&models.Event{})
	if ownerID := c.QueryInt("owner_id", 0); ownerID > 0 {
		query = query.Where("owner_id = ?", ownerID)
	}
	if c.QueryBool("upcoming", false) {
		query = query.Where("starts_at > ?", time.Now())
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	var events []models.Event
	if err := query.
		Preload("Owner").
		Order("starts_at DESC").
		Limit(page.Limit).Offset(page.Offset).
		Find(&events).Error; err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{"events": events, "total": total})
}

// GetEvent handles GET /api/events/:id
func (s *Server) GetEvent(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var event models.Event
	lookupErr := s.db.WithContext(c.UserContext()).Preload("Owner").First(&event, id).Error
	return respondEntityLookup(c, lookupError(lookupErr, "Event", id), &event)
}

// UpdateEvent handles PUT /api/events/:id
func (s *Server) UpdateEvent(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var event models.Event
	if lookupErr := s.db.WithContext(c.UserContext()).First(&event, id).Error; lookupErr != nil {
		return respondServiceError(c, lookupError(lookupErr, "Event", id))
	}

	allowed, err := s.canManageEntity(c, event.OwnerID)
	if err != nil {
		return respondServiceError(c, err)
	}
	if !allowed {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewUnauthorizedError("Not allowed to modify this event"))
	}

	var req struct {
		Name        *string    `json:"name"`
		Description *string    `json:"description"`
		Location    *string    `json:"location"`
		StartsAt    *time.Time `json:"starts_at"`
		EndsAt      *time.Time `json:"ends_at"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Name cannot be empty"))
		}
		event.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.Location != nil {
		event.Location = *req.Location
	}
	if req.StartsAt != nil {
		event.StartsAt = *req.StartsAt
	}
	if req.EndsAt != nil {
		event.EndsAt = *req.EndsAt
	}
	if !event.EndsAt.IsZero() && !event.StartsAt.IsZero() && event.EndsAt.Before(event.StartsAt) {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Event cannot end before it starts"))
	}

	if err := s.db.WithContext(c.UserContext()).Save(&event).Error; err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(event)
}

// DeleteEvent handles DELETE /api/events/:id
func (s *Server) DeleteEvent(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var event models.Event
	if lookupErr := s.db.WithContext(c.UserContext()).First(&event, id).Error; lookupErr != nil {
		return respondServiceError(c, lookupError(lookupErr, "Event", id))
	}

	allowed, err := s.canManageEntity(c, event.OwnerID)
	if err != nil {
		return respondServiceError(c, err)
	}
	if !allowed {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewUnauthorizedError("Not allowed to delete this event"))
	}

	if err := s.db.WithContext(c.UserContext()).Delete(&event).Error; err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{"message": "Event deleted"})
}
