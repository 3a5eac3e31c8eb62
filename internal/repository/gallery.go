package repository

import (
	"context"
	"errors"

	"orgdesk/internal/models"

	"gorm.io/gorm"
)

// GalleryRepository defines persistence operations for gallery images.
type GalleryRepository interface {
	Create(ctx context.Context, image *models.GalleryImage) error
	GetByHash(ctx context.Context, hash string) (*models.GalleryImage, error)
	List(ctx context.Context, limit, offset int) ([]models.GalleryImage, int64, error)
	Delete(ctx context.Context, id uint) error
}

type galleryRepository struct {
	db *gorm.DB
}

// NewGalleryRepository returns a new GalleryRepository implementation.
func NewGalleryRepository(db *gorm.DB) GalleryRepository {
	return &galleryRepository{db: db}
}

func (r *galleryRepository) Create(ctx context.Context, image *models.GalleryImage) error {
	if err := r.db.WithContext(ctx).Create(image).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("Image already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *galleryRepository) GetByHash(ctx context.Context, hash string) (*models.GalleryImage, error) {
	var image models.GalleryImage
	if err := readDB(r.db).WithContext(ctx).Where("hash = ?", hash).First(&image).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Image", hash)
		}
		return nil, models.NewInternalError(err)
	}
	return &image, nil
}

func (r *galleryRepository) List(ctx context.Context, limit, offset int) ([]models.GalleryImage, int64, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	query := readDB(r.db).WithContext(ctx).Model(&models.GalleryImage{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var images []models.GalleryImage
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&images).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return images, total, nil
}

func (r *galleryRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.GalleryImage{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
