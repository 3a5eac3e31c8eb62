// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"strings"

	"orgdesk/internal/models"

	"github.com/gofiber/fiber/v2"
)

// CreateDocument handles POST /api/documents
// Creating a document opens a PENDING approval record for it.
func (s *Server) CreateDocument(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		FileURL     string `json:"file_url"`
		Category    string `json:"category"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if strings.TrimSpace(req.Title) == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Title is required"))
	}

	doc := &models.Document{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		FileURL:     req.FileURL,
		Category:    req.Category,
		OwnerID:     userID,
	}
	if err := s.db.WithContext(c.UserContext()).Create(doc).Error; err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	approval, err := s.openApprovalForEntity(c.UserContext(), models.EntityTypeDocument, doc, doc.ID, userID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"document": doc,
		"approval": approval,
	})
}

// ListDocuments handles GET /api/documents
func (s *Server) ListDocuments(c *fiber.Ctx) error {
	page := parsePagination(c, 20)

	query := s.db.WithContext(c.UserContext()).Model(&models.Document{})
	if category := strings.TrimSpace(c.Query("category")); category != "" {
		query = query.Where("category = ?", category)
	}
	if ownerID := c.QueryInt("owner_id", 0); ownerID > 0 {
		query = query.Where("owner_id = ?", ownerID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	var docs []models.Document
	if err := query.
		Preload("Owner").
		Order("created_at DESC").
		Limit(page.Limit).Offset(page.Offset).
		Find(&docs).Error; err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{"documents": docs, "total": total})
}

// GetDocument handles GET /api/documents/:id
func (s *Server) GetDocument(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var doc models.Document
	lookupErr := s.db.WithContext(c.UserContext()).Preload("Owner").First(&doc, id).Error
	return respondEntityLookup(c, lookupError(lookupErr, "Document", id), &doc)
}

// UpdateDocument handles PUT /api/documents/:id
func (s *Server) UpdateDocument(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var doc models.Document
	if lookupErr := s.db.WithContext(c.UserContext()).First(&doc, id).Error; lookupErr != nil {
		return respondServiceError(c, lookupError(lookupErr, "Document", id))
	}

	allowed, err := s.canManageEntity(c, doc.OwnerID)
	if err != nil {
		return respondServiceError(c, err)
	}
	if !allowed {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewUnauthorizedError("Not allowed to modify this document"))
	}

	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		FileURL     *string `json:"file_url"`
		Category    *string `json:"category"`
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
		doc.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		doc.Description = *req.Description
	}
	if req.FileURL != nil {
		doc.FileURL = *req.FileURL
	}
	if req.Category != nil {
		doc.Category = *req.Category
	}

	if err := s.db.WithContext(c.UserContext()).Save(&doc).Error; err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(doc)
}

// DeleteDocument handles DELETE /api/documents/:id
func (s *Server) DeleteDocument(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var doc models.Document
	if lookupErr := s.db.WithContext(c.UserContext()).First(&doc, id).Error; lookupErr != nil {
		return respondServiceError(c, lookupError(lookupErr, "Document", id))
	}

	allowed, err := s.canManageEntity(c, doc.OwnerID)
	if err != nil {
		return respondServiceError(c, err)
	}
	if !allowed {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewUnauthorizedError("Not allowed to delete this document"))
	}

	if err := s.db.WithContext(c.UserContext()).Delete(&doc).Error; err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{"message": "Document deleted"})
}
