// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// UserRole defines the authorization level of a console user.
type UserRole string

const (
	// UserRoleMember is a regular user who can submit entities for approval.
	UserRoleMember UserRole = "member"
	// UserRoleAdmin can act on approvals and manage all entities.
	UserRoleAdmin UserRole = "admin"
)

// User represents a console user.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"unique;not null" json:"username"`
	Email     string         `gorm:"unique;not null" json:"email"`
	Password  string         `gorm:"not null" json:"-"`
	FullName  string         `gorm:"size:120" json:"full_name"`
	Role      UserRole       `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	Avatar    string         `json:"avatar"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsAdmin reports whether the user can act on approvals.
func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}
