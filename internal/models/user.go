package models

import "time"

// User roles. Facilitators run their own workshop sessions; admins can
// additionally view any session and issue invitations.
const (
	RoleFacilitator = "facilitator"
	RoleAdmin       = "admin"
)

// User represents an application user (a workshop facilitator or admin).
type User struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"size:64;uniqueIndex;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	DisplayName  string `gorm:"size:64"`
	Role         string `gorm:"size:16;not null;default:facilitator"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	FailedLoginAttempts int        `gorm:"default:0"`
	LockedUntil         *time.Time `gorm:"index"`
	LastLoginAt         *time.Time
	LastLoginIP         string `gorm:"size:64"`
}

// IsAdmin reports whether the user holds the elevated viewing role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
