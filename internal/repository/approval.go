package repository

import (
	"context"
	"errors"

	"orgdesk/internal/cache"
	"orgdesk/internal/models"
	"orgdesk/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ApprovalFilter narrows List queries. Zero values mean no filtering.
type ApprovalFilter struct {
	Status      models.ApprovalStatus
	EntityType  models.ApprovalEntityType
	RequesterID uint
	Limit       int
	Offset      int
}

// ApprovalRepository defines persistence operations for approval records.
type ApprovalRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Approval, error)
	GetByIDWithParent(ctx context.Context, id uint) (*models.Approval, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.Approval, error)
	List(ctx context.Context, filter ApprovalFilter) ([]models.Approval, int64, error)
	Create(ctx context.Context, approval *models.Approval) error
	Mutate(ctx context.Context, id uint, fn func(a *models.Approval) error) (*models.Approval, error)
	CountByStatus(ctx context.Context) (map[models.ApprovalStatus]int64, error)
	CountByEntityType(ctx context.Context) (map[models.ApprovalEntityType]int64, error)
}

type approvalRepository struct {
	db      *gorm.DB
	metrics *observability.DatabaseMetrics
}

// NewApprovalRepository returns a new ApprovalRepository implementation.
func NewApprovalRepository(db *gorm.DB) ApprovalRepository {
	return &approvalRepository{db: db, metrics: observability.NewDatabaseMetrics()}
}

func (r *approvalRepository) GetByID(ctx context.Context, id uint) (*models.Approval, error) {
	var approval models.Approval
	key := cache.ApprovalKey(id)

	err := cache.Aside(ctx, key, &approval, cache.ApprovalTTL, func() error {
		if err := readDB(r.db).WithContext(ctx).First(&approval, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Approval", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &approval, nil
}

func (r *approvalRepository) GetByIDWithParent(ctx context.Context, id uint) (*models.Approval, error) {
	var approval models.Approval
	if err := readDB(r.db).WithContext(ctx).
		Preload("WorkProgram").
		Preload("Event").
		Preload("Finance").
		Preload("Document").
		Preload("Letter").
		Preload("Requester").
		First(&approval, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Approval", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &approval, nil
}

// GetByIDs loads the current state of the given approvals, preserving the
// order of ids in the result. Unknown ids are silently absent.
func (r *approvalRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.Approval, error) {
	if len(ids) == 0 {
		return []models.Approval{}, nil
	}

	var loaded []models.Approval
	if err := readDB(r.db).WithContext(ctx).Where("id IN ?", ids).Find(&loaded).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	byID := make(map[uint]models.Approval, len(loaded))
	for _, a := range loaded {
		byID[a.ID] = a
	}

	ordered := make([]models.Approval, 0, len(loaded))
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			ordered = append(ordered, a)
		}
	}
	return ordered, nil
}

func (r *approvalRepository) List(ctx context.Context, filter ApprovalFilter) ([]models.Approval, int64, error) {
	defer r.metrics.TrackQuery("list", "approvals")()
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	query := readDB(r.db).WithContext(ctx).Model(&models.Approval{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}
	if filter.RequesterID != 0 {
		query = query.Where("requester_id = ?", filter.RequesterID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var approvals []models.Approval
	if err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&approvals).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return approvals, total, nil
}

func (r *approvalRepository) Create(ctx context.Context, approval *models.Approval) error {
	if err := r.db.WithContext(ctx).Create(approval).Error; err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		return models.NewInternalError(err)
	}
	cache.Invalidate(ctx, cache.DashboardStatsKey)
	return nil
}

// Mutate loads the approval under a row lock, applies fn, and persists the
// result in one transaction. An error from fn rolls back the write and is
// returned unchanged.
func (r *approvalRepository) Mutate(ctx context.Context, id uint, fn func(a *models.Approval) error) (*models.Approval, error) {
	defer r.metrics.TrackQuery("mutate", "approvals")()
	var approval models.Approval

	txErr := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&approval, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Approval", id)
			}
			return models.NewInternalError(err)
		}

		if err := fn(&approval); err != nil {
			return err
		}

		if err := tx.Save(&approval).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})

	if txErr != nil {
		return nil, txErr
	}

	cache.InvalidateApproval(ctx, id)
	return &approval, nil
}

func (r *approvalRepository) CountByStatus(ctx context.Context) (map[models.ApprovalStatus]int64, error) {
	defer r.metrics.TrackQuery("count_by_status", "approvals")()
	type row struct {
		Status models.ApprovalStatus
		Count  int64
	}

	var rows []row
	if err := readDB(r.db).WithContext(ctx).
		Model(&models.Approval{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	counts := make(map[models.ApprovalStatus]int64, len(rows))
	for _, rw := range rows {
		counts[rw.Status] = rw.Count
	}
	return counts, nil
}

func (r *approvalRepository) CountByEntityType(ctx context.Context) (map[models.ApprovalEntityType]int64, error) {
	defer r.metrics.TrackQuery("count_by_entity_type", "approvals")()
	type row struct {
		EntityType models.ApprovalEntityType
		Count      int64
	}

	var rows []row
	if err := readDB(r.db).WithContext(ctx).
		Model(&models.Approval{}).
		Select("entity_type, count(*) as count").
		Group("entity_type").
		Scan(&rows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	counts := make(map[models.ApprovalEntityType]int64, len(rows))
	for _, rw := range rows {
		counts[rw.EntityType] = rw.Count
	}
	return counts, nil
}
