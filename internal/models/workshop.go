package models

import "time"

// SessionProfile is a profile draft submitted by a participant during a
// session. Profiles are deleted with the session in the LOBBY branch of
// delete, but survive abandonment of a RUNNING session.
type SessionProfile struct {
	ID        uint   `gorm:"primaryKey"`
	SessionID uint   `gorm:"index;not null"`
	ColorHex  string `gorm:"size:7;not null"` // author participant's color
	Content   string `gorm:"size:4096"`
	Draft     bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Round marks a phase of a running session. Round 1 opens when the
// session is promoted out of the lobby. Rounds survive abandonment.
type Round struct {
	ID        uint `gorm:"primaryKey"`
	SessionID uint `gorm:"index;not null"`
	Number    int  `gorm:"not null"`
	StartedAt time.Time
}
