package models

import "time"

// GalleryImage is a processed image in the organization's gallery.
// Hash is the SHA-256 of the original upload and keys the stored files.
type GalleryImage struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Hash         string    `gorm:"size:64;uniqueIndex;not null" json:"hash"`
	Title        string    `gorm:"size:200" json:"title"`
	OriginalName string    `gorm:"size:255" json:"original_name"`
	ContentType  string    `gorm:"size:60" json:"content_type"`
	Path         string    `gorm:"size:500;not null" json:"path"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	Bytes        int64     `json:"bytes"`
	UploaderID   uint      `gorm:"not null;index" json:"uploader_id"`
	Uploader     *User     `gorm:"foreignKey:UploaderID" json:"uploader,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
