package models

import (
	"time"

	"gorm.io/gorm"
)

// LetterDirection distinguishes incoming from outgoing correspondence.
type LetterDirection string

const (
	LetterDirectionIncoming LetterDirection = "incoming"
	LetterDirectionOutgoing LetterDirection = "outgoing"
)

// Letter is a piece of official correspondence tracked by the console.
type Letter struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	Number     string          `gorm:"size:80;not null" json:"number"`
	Subject    string          `gorm:"size:200;not null" json:"subject"`
	Body       string          `gorm:"type:text" json:"body"`
	Direction  LetterDirection `gorm:"type:varchar(10);not null;index" json:"direction"`
	Sender     string          `gorm:"size:200" json:"sender"`
	Recipient  string          `gorm:"size:200" json:"recipient"`
	ReceivedAt *time.Time      `json:"received_at,omitempty"`
	OwnerID    uint            `gorm:"not null;index" json:"owner_id"`
	Owner      *User           `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	DeletedAt  gorm.DeletedAt  `gorm:"index" json:"-"`
}
