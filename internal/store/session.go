// Package store holds the transactional primitives over session,
// participant and token rows. Every function takes an explicit *gorm.DB
// handle so the lifecycle engine can compose multi-step atomic sequences
// by passing the same transaction to each call.
package store

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aalbusoiu/workshop-platform/internal/models"

	"gorm.io/gorm"
)

// CreateSession inserts a new session row. It performs a single attempt;
// collision retry is the engine's job.
func CreateSession(db *gorm.DB, s *models.Session) error {
	return db.Create(s).Error
}

// IsCodeCollision reports whether err is a uniqueness violation on the
// session code column specifically. Other unique constraints must not be
// mistaken for code collisions, or unrelated bugs would be retried away.
func IsCodeCollision(err error) bool {
	if err == nil {
		return false
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) && !strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return false
	}
	return strings.Contains(err.Error(), "sessions.code")
}

// FindSessionByCode loads a session by its join code.
func FindSessionByCode(db *gorm.DB, code string) (*models.Session, error) {
	var s models.Session
	if err := db.Where("code = ?", code).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// FindSessionByID loads a session by primary key.
func FindSessionByID(db *gorm.DB, id uint) (*models.Session, error) {
	var s models.Session
	if err := db.First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// FindSessionByIDAndOwner loads a session scoped by both id and owner.
// A non-owner gets gorm.ErrRecordNotFound, indistinguishable from a
// missing row, so session ids cannot be enumerated.
func FindSessionByIDAndOwner(db *gorm.DB, id, ownerID uint) (*models.Session, error) {
	var s models.Session
	if err := db.Where("id = ? AND created_by_id = ?", id, ownerID).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// TransitionSessionStatus moves a session from one status to another.
// The update is guarded on the current status, so a transition committed
// by a concurrent caller cannot be overwritten: if the row no longer
// holds from, nothing changes and gorm.ErrRecordNotFound is returned.
func TransitionSessionStatus(db *gorm.DB, id uint, from, to string) error {
	res := db.Model(&models.Session{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteSessionCascade removes a session row together with all children:
// participants (and their tokens), profiles and rounds. Used by the LOBBY
// branch of delete; the transaction boundary is the caller's.
func DeleteSessionCascade(db *gorm.DB, sessionID uint) error {
	if err := DeleteSessionParticipants(db, sessionID); err != nil {
		return err
	}
	if err := db.Where("session_id = ?", sessionID).Delete(&models.SessionProfile{}).Error; err != nil {
		return fmt.Errorf("delete session profiles: %w", err)
	}
	if err := db.Where("session_id = ?", sessionID).Delete(&models.Round{}).Error; err != nil {
		return fmt.Errorf("delete session rounds: %w", err)
	}
	if err := db.Delete(&models.Session{}, sessionID).Error; err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteSessionParticipants removes every participant of a session and
// their tokens, leaving the session row and its profile/round data alone.
// Used directly by the RUNNING->ABANDONED branch of delete.
func DeleteSessionParticipants(db *gorm.DB, sessionID uint) error {
	var ids []uint
	if err := db.Model(&models.Participant{}).
		Where("session_id = ?", sessionID).
		Pluck("id", &ids).Error; err != nil {
		return fmt.Errorf("list participants: %w", err)
	}
	if len(ids) > 0 {
		if err := db.Where("participant_id IN ?", ids).Delete(&models.SessionToken{}).Error; err != nil {
			return fmt.Errorf("delete participant tokens: %w", err)
		}
		if err := db.Where("session_id = ?", sessionID).Delete(&models.Participant{}).Error; err != nil {
			return fmt.Errorf("delete participants: %w", err)
		}
	}
	return nil
}

// CountSessionProfiles returns the number of profile rows tied to a session.
func CountSessionProfiles(db *gorm.DB, sessionID uint) (int64, error) {
	var n int64
	err := db.Model(&models.SessionProfile{}).Where("session_id = ?", sessionID).Count(&n).Error
	return n, err
}

// CreateRound opens a numbered round for a session.
func CreateRound(db *gorm.DB, sessionID uint, number int) error {
	return db.Create(&models.Round{
		SessionID: sessionID,
		Number:    number,
		StartedAt: time.Now(),
	}).Error
}
