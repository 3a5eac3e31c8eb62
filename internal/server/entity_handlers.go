// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"log"

	"orgdesk/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func isRecordNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// canManageEntity reports whether the current user owns the entity or is an admin.
func (s *Server) canManageEntity(c *fiber.Ctx, ownerID uint) (bool, error) {
	user, err := s.currentUser(c)
	if err != nil {
		return false, err
	}
	return user.ID == ownerID || user.IsAdmin(), nil
}

// openApprovalForEntity opens a PENDING approval for a freshly created entity.
// On failure the entity is rolled back so the console never shows an entity
// without a review record.
func (s *Server) openApprovalForEntity(
	ctx context.Context,
	entityType models.ApprovalEntityType,
	entity interface{},
	entityID uint,
	requesterID uint,
) (*models.Approval, error) {
	approval, err := s.approvalService.OpenForEntity(ctx, entityType, entityID, requesterID)
	if err != nil {
		if delErr := s.db.WithContext(ctx).Delete(entity).Error; delErr != nil {
			log.Printf("failed to roll back %s %d after approval open error: %v",
				entityType, entityID, delErr)
		}
		return nil, err
	}
	return approval, nil
}

// respondEntityLookup writes the standard response for a single-entity fetch.
func respondEntityLookup(c *fiber.Ctx, err error, entity interface{}) error {
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(entity)
}

// lookupError converts a gorm First error into the standard application error.
func lookupError(err error, resource string, id uint) error {
	if err == nil {
		return nil
	}
	if isRecordNotFound(err) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}
