package models

import (
	"time"

	"gorm.io/gorm"
)

// ApprovalStatus defines lifecycle states for approval records.
type ApprovalStatus string

const (
	// ApprovalStatusPending indicates the record is awaiting review.
	ApprovalStatusPending ApprovalStatus = "PENDING"
	// ApprovalStatusApproved indicates the request was accepted.
	ApprovalStatusApproved ApprovalStatus = "APPROVED"
	// ApprovalStatusRejected indicates the request was denied.
	ApprovalStatusRejected ApprovalStatus = "REJECTED"
	// ApprovalStatusCancelled indicates the request was sent back for revision.
	ApprovalStatusCancelled ApprovalStatus = "CANCELLED"
)

// IsTerminal reports whether the status is past PENDING.
func (s ApprovalStatus) IsTerminal() bool {
	switch s {
	case ApprovalStatusApproved, ApprovalStatusRejected, ApprovalStatusCancelled:
		return true
	}
	return false
}

// ApprovalEntityType discriminates which kind of business object an approval
// record governs.
type ApprovalEntityType string

const (
	EntityTypeWorkProgram ApprovalEntityType = "WORK_PROGRAM"
	EntityTypeEvent       ApprovalEntityType = "EVENT"
	EntityTypeFinance     ApprovalEntityType = "FINANCE"
	EntityTypeDocument    ApprovalEntityType = "DOCUMENT"
	EntityTypeLetter      ApprovalEntityType = "LETTER"
)

// Valid reports whether t is a known entity type.
func (t ApprovalEntityType) Valid() bool {
	switch t {
	case EntityTypeWorkProgram, EntityTypeEvent, EntityTypeFinance, EntityTypeDocument, EntityTypeLetter:
		return true
	}
	return false
}

// Approval is the record governing the review lifecycle of exactly one parent
// business entity. Exactly one parent reference is populated and it must match
// EntityType; BeforeSave enforces this.
type Approval struct {
	ID         uint               `gorm:"primaryKey" json:"id"`
	EntityType ApprovalEntityType `gorm:"type:varchar(20);not null;index" json:"entity_type"`

	WorkProgramID *uint `gorm:"index" json:"work_program_id,omitempty"`
	EventID       *uint `gorm:"index" json:"event_id,omitempty"`
	FinanceID     *uint `gorm:"index" json:"finance_id,omitempty"`
	DocumentID    *uint `gorm:"index" json:"document_id,omitempty"`
	LetterID      *uint `gorm:"index" json:"letter_id,omitempty"`

	WorkProgram *WorkProgram        `gorm:"foreignKey:WorkProgramID" json:"work_program,omitempty"`
	Event       *Event              `gorm:"foreignKey:EventID" json:"event,omitempty"`
	Finance     *FinanceTransaction `gorm:"foreignKey:FinanceID" json:"finance,omitempty"`
	Document    *Document           `gorm:"foreignKey:DocumentID" json:"document,omitempty"`
	Letter      *Letter             `gorm:"foreignKey:LetterID" json:"letter,omitempty"`

	Status      ApprovalStatus `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	Note        string         `gorm:"type:text" json:"note"`
	RequesterID uint           `gorm:"not null;index" json:"requester_id"`
	Requester   *User          `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// NewApproval constructs a PENDING approval for the given parent entity.
// The parent reference matching entityType must be the only one set.
func NewApproval(entityType ApprovalEntityType, parentID uint, requesterID uint) (*Approval, error) {
	if !entityType.Valid() {
		return nil, NewValidationError("unknown entity type")
	}
	if parentID == 0 {
		return nil, NewValidationError("parent entity ID is required")
	}
	a := &Approval{
		EntityType:  entityType,
		Status:      ApprovalStatusPending,
		RequesterID: requesterID,
	}
	switch entityType {
	case EntityTypeWorkProgram:
		a.WorkProgramID = &parentID
	case EntityTypeEvent:
		a.EventID = &parentID
	case EntityTypeFinance:
		a.FinanceID = &parentID
	case EntityTypeDocument:
		a.DocumentID = &parentID
	case EntityTypeLetter:
		a.LetterID = &parentID
	}
	return a, nil
}

// ParentID returns the populated parent reference for the approval's entity type.
func (a *Approval) ParentID() uint {
	var ref *uint
	switch a.EntityType {
	case EntityTypeWorkProgram:
		ref = a.WorkProgramID
	case EntityTypeEvent:
		ref = a.EventID
	case EntityTypeFinance:
		ref = a.FinanceID
	case EntityTypeDocument:
		ref = a.DocumentID
	case EntityTypeLetter:
		ref = a.LetterID
	}
	if ref == nil {
		return 0
	}
	return *ref
}

// BeforeSave validates the polymorphic parent association: exactly one parent
// reference populated, and it must match EntityType.
func (a *Approval) BeforeSave(_ *gorm.DB) error {
	if !a.EntityType.Valid() {
		return NewValidationError("unknown entity type")
	}

	populated := 0
	for _, ref := range []*uint{a.WorkProgramID, a.EventID, a.FinanceID, a.DocumentID, a.LetterID} {
		if ref != nil {
			populated++
		}
	}
	if populated != 1 {
		return NewValidationError("exactly one parent entity reference must be set")
	}
	if a.ParentID() == 0 {
		return NewValidationError("parent reference does not match entity type")
	}
	return nil
}
