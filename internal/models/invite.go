package models

import "time"

// Invitation is a one-shot registration grant issued by an admin.
// Registration consumes it; the invitation fixes the granted role.
type Invitation struct {
	ID          uint   `gorm:"primaryKey"`
	Code        string `gorm:"size:64;uniqueIndex;not null"` // UUID
	Email       string `gorm:"size:255"`
	Role        string `gorm:"size:16;not null;default:facilitator"`
	CreatedByID uint   `gorm:"index;not null"`
	ExpiresAt   time.Time `gorm:"not null"`
	UsedAt      *time.Time
	UsedByID    *uint
	CreatedAt   time.Time
}

// Usable reports whether the invitation can still be redeemed at t.
func (i *Invitation) Usable(t time.Time) bool {
	return i.UsedAt == nil && t.Before(i.ExpiresAt)
}
