// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"strings"

	"orgdesk/internal/models"

	"github.com/gofiber/fiber/v2"
)

// CreateWorkProgram handles POST /api/work-programs
// Creating a work program opens a PENDING approval record for it.
func (s *Server) CreateWorkProgram(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Division    string `json:"division"`
		Period      string `json:"period"`
		BudgetCents int64  `json:"budget_cents"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if strings.TrimSpace(req.Name) == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Name is required"))
	}
	if req.BudgetCents < 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Budget cannot be negative"))
	}

	program := &models.WorkProgram{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Division:    req.Division,
		Period:      req.Period,
		BudgetCents: req.BudgetCents,
		OwnerID:     userID,
	}
	if err := s.db.WithContext(c.UserContext()).Create(program).Error; err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	approval, err := s.openApprovalForEntity(c.UserContext(), models.EntityTypeWorkProgram, program, program.ID, userID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"work_program": program,
		"approval":     approval,
	})
}

// ListWorkPrograms handles GET /api/work-programs
func (s *Server) ListWorkPrograms(c *fiber.Ctx) error {
	page := parsePagination(c, 20)

	query := s.db.WithContext(c.UserContext()).Model(&models.WorkProgram{})
	if division := strings.TrimSpace(c.Query("division")); division != "" {
		query = query.Where("division = ?", division)
	}
	if period := strings.TrimSpace(c.Query("period")); period != "" {
		query = query.Where("period = ?", period)
	}
	if ownerID := c.QueryInt("owner_id", 0); ownerID > 0 {
		query = query.Where("owner_id = ?", ownerID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	var programs []models.WorkProgram
	if err := query.
		Preload("Owner").
		Order("created_at DESC").
		Limit(page.Limit).Offset(page.Offset).
		Find(&programs).Error; err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{"work_programs": programs, "total": total})
}

// GetWorkProgram handles GET /api/work-programs/:id
func (s *Server) GetWorkProgram(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var program models.WorkProgram
	lookupErr := s.db.WithContext(c.UserContext()).Preload("Owner").First(&program, id).Error
	return respondEntityLookup(c, lookupError(lookupErr, "Work program", id), &program)
}

// UpdateWorkProgram handles PUT /api/work-programs/:id
func (s *Server) UpdateWorkProgram(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var program models.WorkProgram
	if lookupErr := s.db.WithContext(c.UserContext()).First(&program, id).Error; lookupErr != nil {
		return respondServiceError(c, lookupError(lookupErr, "Work program", id))
	}

	allowed, err := s.canManageEntity(c, program.OwnerID)
	if err != nil {
		return respondServiceError(c, err)
	}
	if !allowed {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewUnauthorizedError("Not allowed to modify this work program"))
	}

	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		Division    *string `json:"division"`
		Period      *string `json:"period"`
		BudgetCents *int64  `json:"budget_cents"`
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
		program.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		program.Description = *req.Description
	}
	if req.Division != nil {
		program.Division = *req.Division
	}
	if req.Period != nil {
		program.Period = *req.Period
	}
	if req.BudgetCents != nil {
		if *req.BudgetCents < 0 {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Budget cannot be negative"))
		}
		program.BudgetCents = *req.BudgetCents
	}

	if err := s.db.WithContext(c.UserContext()).Save(&program).Error; err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(program)
}

// DeleteWorkProgram handles DELETE /api/work-programs/:id
func (s *Server) DeleteWorkProgram(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var program models.WorkProgram
	if lookupErr := s.db.WithContext(c.UserContext()).First(&program, id).Error; lookupErr != nil {
		return respondServiceError(c, lookupError(lookupErr, "Work program", id))
	}

	allowed, err := s.canManageEntity(c, program.OwnerID)
	if err != nil {
		return respondServiceError(c, err)
	}
	if !allowed {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewUnauthorizedError("Not allowed to delete this work program"))
	}

	if err := s.db.WithContext(c.UserContext()).Delete(&program).Error; err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{"message": "Work program deleted"})
}
