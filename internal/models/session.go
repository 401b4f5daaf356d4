package models

import "time"

// Workshop session lifecycle states. Transitions only move forward:
// LOBBY -> RUNNING -> ENDED, with ABANDONED reachable from LOBBY or
// RUNNING. ENDED and ABANDONED are terminal.
const (
	StatusLobby     = "LOBBY"
	StatusRunning   = "RUNNING"
	StatusEnded     = "ENDED"
	StatusAbandoned = "ABANDONED"
)

// Session is a bounded-capacity workshop instance joined by a short code.
// The code is unique among all live sessions; it frees up only when the
// row is deleted (LOBBY-state delete).
type Session struct {
	ID              uint   `gorm:"primaryKey"`
	Code            string `gorm:"size:16;uniqueIndex;not null"`
	Status          string `gorm:"size:16;not null;default:LOBBY"`
	MaxParticipants int    `gorm:"not null"`
	CreatedByID     *uint  `gorm:"index"` // nullable: orphaned sessions keep running data
	CreatedAt       time.Time

	Participants []Participant `gorm:"constraint:OnDelete:CASCADE"`
}

// Terminal reports whether the session is in a final state.
func (s *Session) Terminal() bool {
	return s.Status == StatusEnded || s.Status == StatusAbandoned
}

// Participant is a joined attendee, identified within the session by
// color and optional display name. Rows exist only while the session
// allows participation.
type Participant struct {
	ID          uint   `gorm:"primaryKey"`
	SessionID   uint   `gorm:"index;not null"`
	ColorHex    string `gorm:"size:7;not null"` // "#RRGGBB", uppercased
	DisplayName string `gorm:"size:64"`
	JoinedAt    time.Time

	Tokens []SessionToken `gorm:"constraint:OnDelete:CASCADE"`
}

// SessionToken stores the digest of an issued participant credential.
// The raw token is returned to the caller once and never persisted.
// A token authorizes participant actions only while RevokedAt is null
// and ExpiresAt is in the future.
type SessionToken struct {
	ID            uint   `gorm:"primaryKey"`
	ParticipantID uint   `gorm:"index;not null"`
	TokenHash     string `gorm:"size:64;index;not null"`
	IssuedAt      time.Time
	ExpiresAt     time.Time  `gorm:"index;not null"`
	RevokedAt     *time.Time `gorm:"index"`
}
