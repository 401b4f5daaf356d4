package store

import (
	"fmt"
	"time"

	"github.com/aalbusoiu/workshop-platform/internal/models"

	"gorm.io/gorm"
)

// CountParticipants returns the number of live participants in a session.
// Run inside the same transaction as the subsequent insert when enforcing
// capacity, or two racing joins can both pass the check.
func CountParticipants(db *gorm.DB, sessionID uint) (int64, error) {
	var n int64
	err := db.Model(&models.Participant{}).Where("session_id = ?", sessionID).Count(&n).Error
	return n, err
}

// CreateParticipant inserts a participant row for a session.
func CreateParticipant(db *gorm.DB, sessionID uint, colorHex, displayName string) (*models.Participant, error) {
	p := models.Participant{
		SessionID:   sessionID,
		ColorHex:    colorHex,
		DisplayName: displayName,
		JoinedAt:    time.Now(),
	}
	if err := db.Create(&p).Error; err != nil {
		return nil, fmt.Errorf("create participant: %w", err)
	}
	return &p, nil
}

// CreateSessionToken persists the digest of an issued credential.
func CreateSessionToken(db *gorm.DB, participantID uint, tokenHash string, expiresAt time.Time) (*models.SessionToken, error) {
	t := models.SessionToken{
		ParticipantID: participantID,
		TokenHash:     tokenHash,
		IssuedAt:      time.Now(),
		ExpiresAt:     expiresAt,
	}
	if err := db.Create(&t).Error; err != nil {
		return nil, fmt.Errorf("create session token: %w", err)
	}
	return &t, nil
}

// FindParticipantByToken resolves an active credential digest to its
// participant within the given session. Only non-revoked, non-expired
// tokens match; revoked, expired and unknown digests are all equally
// absent. Returns the participant and the matching token together.
func FindParticipantByToken(db *gorm.DB, tokenHash string, sessionID uint) (*models.Participant, *models.SessionToken, error) {
	var t models.SessionToken
	err := db.Joins("JOIN participants ON participants.id = session_tokens.participant_id").
		Where("session_tokens.token_hash = ?", tokenHash).
		Where("session_tokens.revoked_at IS NULL").
		Where("session_tokens.expires_at > ?", time.Now()).
		Where("participants.session_id = ?", sessionID).
		First(&t).Error
	if err != nil {
		return nil, nil, err
	}

	var p models.Participant
	if err := db.First(&p, t.ParticipantID).Error; err != nil {
		return nil, nil, err
	}
	return &p, &t, nil
}

// RevokeSessionToken marks a token revoked. Idempotent: RevokedAt is set
// only if still null, so a replayed revoke keeps the original timestamp.
func RevokeSessionToken(db *gorm.DB, tokenHash string) error {
	return db.Model(&models.SessionToken{}).
		Where("token_hash = ? AND revoked_at IS NULL", tokenHash).
		Update("revoked_at", time.Now()).Error
}

// DeleteParticipant removes a participant row and its tokens.
func DeleteParticipant(db *gorm.DB, participantID uint) error {
	if err := db.Where("participant_id = ?", participantID).Delete(&models.SessionToken{}).Error; err != nil {
		return fmt.Errorf("delete participant tokens: %w", err)
	}
	if err := db.Delete(&models.Participant{}, participantID).Error; err != nil {
		return fmt.Errorf("delete participant: %w", err)
	}
	return nil
}

// GetSessionParticipants lists a session's participants in join order.
func GetSessionParticipants(db *gorm.DB, sessionID uint) ([]models.Participant, error) {
	var out []models.Participant
	err := db.Where("session_id = ?", sessionID).Order("joined_at ASC, id ASC").Find(&out).Error
	return out, err
}

// CleanupExpiredSessionTokens deletes tokens that are expired, or revoked
// longer ago than the cutoff. Returns how many rows went away. Advisory
// housekeeping only: expired tokens are already inert for authorization.
func CleanupExpiredSessionTokens(db *gorm.DB, olderThan time.Time) (int64, error) {
	res := db.Where("expires_at <= ? OR (revoked_at IS NOT NULL AND revoked_at < ?)", time.Now(), olderThan).
		Delete(&models.SessionToken{})
	return res.RowsAffected, res.Error
}
