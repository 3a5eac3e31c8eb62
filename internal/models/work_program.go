package models

import (
	"time"

	"gorm.io/gorm"
)

// WorkProgram is a planned program of work for a division and period.
type WorkProgram struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"size:200;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Division    string         `gorm:"size:120;index" json:"division"`
	Period      string         `gorm:"size:40" json:"period"`
	BudgetCents int64          `json:"budget_cents"`
	OwnerID     uint           `gorm:"not null;index" json:"owner_id"`
	Owner       *User          `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}
