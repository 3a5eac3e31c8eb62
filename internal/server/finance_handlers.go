// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"strings"
	"time"

	"orgdesk/internal/models"

	"github.com/gofiber/fiber/v2"
)

func parseFinanceDirection(raw string) (models.FinanceDirection, bool) {
	switch models.FinanceDirection(strings.ToLower(raw)) {
	case models.FinanceDirectionIncome:
		return models.FinanceDirectionIncome, true
	case models.FinanceDirectionExpense:
		return models.FinanceDirectionExpense, true
	}
	return "", false
}

// CreateFinanceTransaction handles POST /api/finance
// Creating a transaction opens a PENDING approval record for it.
func (s *Server) CreateFinanceTransaction(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		Title       string    `json:"title"`
		Description string    `json:"description"`
		Direction   string    `json:"direction"`
		AmountCents int64     `json:"amount_cents"`
		OccurredAt  time.Time `json:"occurred_at"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if strings.TrimSpace(req.Title) == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Title is required"))
	}
	direction, ok := parseFinanceDirection(req.Direction)
	if !ok {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Direction must be income or expense"))
	}
	if req.AmountCents <= 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Amount must be positive"))
	}

	occurredAt := req.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	tx := &models.FinanceTransaction{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Direction:   direction,
		AmountCents: req.AmountCents,
		OccurredAt:  occurredAt,
		OwnerID:     userID,
	}
	if err := s.db.WithContext(c.UserContext()).Create(tx).Error; err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	approval, err := s.openApprovalForEntity(c.UserContext(), models.EntityTypeFinance, tx, tx.ID, userID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"transaction": tx,
		"approval":    approval,
	})
}

// ListFinanceTransactions handles GET /api/finance
func (s *Server) ListFinanceTransactions(c *fiber.Ctx) error {
	page := parsePagination(c, 20)

	query := s.db.WithContext(c.UserContext()).Model(&models.FinanceTransaction{})
	if raw := strings.TrimSpace(c.Query("direction")); raw != "" {
		direction, ok := parseFinanceDirection(raw)
		if !ok {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Direction must be income or expense"))
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

	var transactions []models.FinanceTransaction
	if err := query.
		Preload("Owner").
		Order("occurred_at DESC").
		Limit(page.Limit).Offset(page.Offset).
		Find(&transactions).Error; err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{"transactions": transactions, "total": total})
}

// GetFinanceSummary handles GET /api/finance/summary
// Returns income, expense, and net totals in cents over the whole ledger.
func (s *Server) GetFinanceSummary(c *fiber.Ctx) error {
	type row struct {
		Direction models.FinanceDirection
		Total     int64
	}
	var rows []row
	if err := s.db.WithContext(c.UserContext()).
		Model(&models.FinanceTransaction{}).
		Select("direction, COALESCE(SUM(amount_cents), 0) AS total").
		Group("direction").
		Scan(&rows).Error; err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	var income, expense int64
	for _, r := range rows {
		switch r.Direction {
		case models.FinanceDirectionIncome:
			income = r.Total
		case models.FinanceDirectionExpense:
			expense = r.Total
		}
	}

	return c.JSON(fiber.Map{
		"income_cents":  income,
		"expense_cents": expense,
		"net_cents":     income - expense,
	})
}

// GetFinanceTransaction handles GET /api/finance/:id
func (s *Server) GetFinanceTransaction(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var tx models.FinanceTransaction
	lookupErr := s.db.WithContext(c.UserContext()).Preload("Owner").First(&tx, id).Error
	return respondEntityLookup(c, lookupError(lookupErr, "Transaction", id), &tx)
}

// UpdateFinanceTransaction handles PUT /api/finance/:id
func (s *Server) UpdateFinanceTransaction(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var tx models.FinanceTransaction
	if lookupErr := s.db.WithContext(c.UserContext()).First(&tx, id).Error; lookupErr != nil {
		return respondServiceError(c, lookupError(lookupErr, "Transaction", id))
	}

	allowed, err := s.canManageEntity(c, tx.OwnerID)
	if err != nil {
		return respondServiceError(c, err)
	}
	if !allowed {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewUnauthorizedError("Not allowed to modify this transaction"))
	}

	var req struct {
		Title       *string    `json:"title"`
		Description *string    `json:"description"`
		Direction   *string    `json:"direction"`
		AmountCents *int64     `json:"amount_cents"`
		OccurredAt  *time.Time `json:"occurred_at"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Title cannot be empty"))
		}
		tx.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		tx.Description = *req.Description
	}
	if req.Direction != nil {
		direction, ok := parseFinanceDirection(*req.Direction)
		if !ok {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Direction must be income or expense"))
		}
		tx.Direction = direction
	}
	if req.AmountCents != nil {
		if *req.AmountCents <= 0 {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Amount must be positive"))
		}
		tx.AmountCents = *req.AmountCents
	}
	if req.OccurredAt != nil {
		tx.OccurredAt = *req.OccurredAt
	}

	if err := s.db.WithContext(c.UserContext()).Save(&tx).Error; err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(tx)
}

// DeleteFinanceTransaction handles DELETE /api/finance/:id
func (s *Server) DeleteFinanceTransaction(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var tx models.FinanceTransaction
	if lookupErr := s.db.WithContext(c.UserContext()).First(&tx, id).Error; lookupErr != nil {
		return respondServiceError(c, lookupError(lookupErr, "Transaction", id))
	}

	allowed, err := s.canManageEntity(c, tx.OwnerID)
	if err != nil {
		return respondServiceError(c, err)
	}
	if !allowed {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewUnauthorizedError("Not allowed to delete this transaction"))
	}

	if err := s.db.WithContext(c.UserContext()).Delete(&tx).Error; err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{"message": "Transaction deleted"})
}
