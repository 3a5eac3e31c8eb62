package models

import (
	"time"

	"gorm.io/gorm"
)

// FinanceDirection distinguishes income from expense transactions.
type FinanceDirection string

const (
	FinanceDirectionIncome  FinanceDirection = "income"
	FinanceDirectionExpense FinanceDirection = "expense"
)

// FinanceTransaction is a single income or expense entry in the ledger.
// AmountCents avoids floating-point money arithmetic.
type FinanceTransaction struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	Title       string           `gorm:"size:200;not null" json:"title"`
	Description string           `gorm:"type:text" json:"description"`
	Direction   FinanceDirection `gorm:"type:varchar(10);not null;index" json:"direction"`
	AmountCents int64            `gorm:"not null" json:"amount_cents"`
	OccurredAt  time.Time        `json:"occurred_at"`
	OwnerID     uint             `gorm:"not null;index" json:"owner_id"`
	Owner       *User            `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	DeletedAt   gorm.DeletedAt   `gorm:"index" json:"-"`
}
