// Package session implements the workshop session lifecycle: creation
// with collision retry, the status state machine, capacity-bounded
// join/leave with participant credentials, and delete-or-abandon.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/aalbusoiu/workshop-platform/internal/models"
	"github.com/aalbusoiu/workshop-platform/internal/store"
	"github.com/aalbusoiu/workshop-platform/internal/token"
	"github.com/aalbusoiu/workshop-platform/internal/util"

	"gorm.io/gorm"
)

// maxCodeAttempts bounds the create-session collision retry loop.
const maxCodeAttempts = 5

// transitions is the full legal state table. Anything absent is
// forbidden regardless of caller privilege, including self-transitions.
var transitions = map[string][]string{
	models.StatusLobby:     {models.StatusRunning, models.StatusAbandoned},
	models.StatusRunning:   {models.StatusEnded, models.StatusAbandoned},
	models.StatusEnded:     {},
	models.StatusAbandoned: {},
}

// CanTransition reports whether from -> to is a legal status change.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Engine orchestrates session lifecycle operations over the store.
// Every multi-row mutation runs inside a single gorm transaction; no
// session or participant state is cached between calls.
type Engine struct {
	DB     *gorm.DB
	Issuer *token.Issuer

	CodeLength          int
	DefaultParticipants int
	MaxParticipants     int

	// GenerateCode defaults to util.GenerateCode; tests override it to
	// force collisions.
	GenerateCode func(length int) string
}

// NewEngine wires an engine with the configured limits.
func NewEngine(db *gorm.DB, issuer *token.Issuer, codeLength, defaultParticipants, maxParticipants int) *Engine {
	return &Engine{
		DB:                  db,
		Issuer:              issuer,
		CodeLength:          codeLength,
		DefaultParticipants: defaultParticipants,
		MaxParticipants:     maxParticipants,
		GenerateCode:        util.GenerateCode,
	}
}

// CreateSession creates a LOBBY session for the owner. Code collisions
// are retried with a fresh code up to maxCodeAttempts; exhaustion is a
// conflict. Any non-collision store error propagates without retry.
func (e *Engine) CreateSession(ownerID uint, maxParticipants int) (*models.Session, error) {
	if maxParticipants == 0 {
		maxParticipants = e.DefaultParticipants
	}
	if maxParticipants < 2 || maxParticipants > e.MaxParticipants {
		return nil, fmt.Errorf("%w: max participants must be between 2 and %d", ErrValidation, e.MaxParticipants)
	}

	var created *models.Session
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		s := &models.Session{
			Code:            e.GenerateCode(e.CodeLength),
			Status:          models.StatusLobby,
			MaxParticipants: maxParticipants,
			CreatedByID:     &ownerID,
		}
		err := store.CreateSession(e.DB, s)
		if err == nil {
			created = s
			break
		}
		if store.IsCodeCollision(err) {
			continue
		}
		return nil, fmt.Errorf("create session: %w", err)
	}
	if created == nil {
		return nil, ErrCodeExhausted
	}

	// best-effort audit, never fails the creation
	_ = e.DB.Create(&models.AuditLog{
		UserID: &ownerID,
		Action: fmt.Sprintf("session %d created with code %s", created.ID, created.Code),
	}).Error

	return created, nil
}

// UpdateStatus applies a state-machine transition on behalf of the owner.
// The lookup is owner-scoped, so non-owners see not-found. Lookup,
// legality check and the guarded update all run inside one transaction:
// a transition committed by a concurrent caller is never overwritten.
// Promoting out of the lobby opens round 1 in the same transaction.
func (e *Engine) UpdateStatus(sessionID, callerID uint, newStatus string) (*models.Session, error) {
	var updated *models.Session
	err := e.DB.Transaction(func(tx *gorm.DB) error {
		s, err := store.FindSessionByIDAndOwner(tx, sessionID, callerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSessionNotFound
			}
			return fmt.Errorf("find session: %w", err)
		}

		if !CanTransition(s.Status, newStatus) {
			return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, s.Status, newStatus)
		}

		// compare-and-set backstop: if the status moved since the read
		// above, the guard misses and the transition is rejected
		if err := store.TransitionSessionStatus(tx, s.ID, s.Status, newStatus); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, s.Status, newStatus)
			}
			return err
		}
		if s.Status == models.StatusLobby && newStatus == models.StatusRunning {
			if err := store.CreateRound(tx, s.ID, 1); err != nil {
				return err
			}
		}

		s.Status = newStatus
		updated = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// JoinRequest carries caller input for a join.
type JoinRequest struct {
	Code        string
	ColorHex    string
	DisplayName string
}

// JoinResult is returned to the joining caller. RawToken is handed out
// exactly once; only its hash is stored.
type JoinResult struct {
	SessionID     uint
	ParticipantID uint
	RawToken      string
	ExpiresAt     time.Time
}

// JoinByCode admits a participant into a LOBBY session. The capacity
// check, participant insert and token persist share one transaction so
// two racing joins cannot both take the last slot.
func (e *Engine) JoinByCode(req JoinRequest) (*JoinResult, error) {
	code := util.NormalizeCode(req.Code)
	if !util.IsValidCode(code, e.CodeLength) {
		return nil, fmt.Errorf("%w: malformed session code", ErrValidation)
	}
	color, err := util.NormalizeColor(req.ColorHex)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	name, err := util.NormalizeDisplayName(req.DisplayName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	s, err := store.FindSessionByCode(e.DB, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	if s.Status != models.StatusLobby {
		return nil, ErrNotAccepting
	}

	var result *JoinResult
	err = e.DB.Transaction(func(tx *gorm.DB) error {
		// re-read state inside the transaction; nothing outside it counts
		cur, err := store.FindSessionByID(tx, s.ID)
		if err != nil {
			return err
		}
		if cur.Status != models.StatusLobby {
			return ErrNotAccepting
		}

		count, err := store.CountParticipants(tx, cur.ID)
		if err != nil {
			return err
		}
		if count >= int64(cur.MaxParticipants) {
			return ErrSessionFull
		}

		p, err := store.CreateParticipant(tx, cur.ID, color, name)
		if err != nil {
			return err
		}

		issued, err := e.Issuer.Sign(cur.ID, p.ID)
		if err != nil {
			return err
		}
		if _, err := store.CreateSessionToken(tx, p.ID, issued.TokenHash, issued.ExpiresAt); err != nil {
			return err
		}

		result = &JoinResult{
			SessionID:     cur.ID,
			ParticipantID: p.ID,
			RawToken:      issued.RawToken,
			ExpiresAt:     issued.ExpiresAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Leave removes a participant from a LOBBY session, presenting the raw
// credential issued at join time. Token revoke and participant delete
// share one transaction, so a crash between them never leaves a usable
// token pointing at a deleted participant.
func (e *Engine) Leave(sessionID uint, rawToken string) error {
	hash := token.Hash(rawToken)
	return e.DB.Transaction(func(tx *gorm.DB) error {
		// status is read inside the transaction; a concurrent promotion
		// cannot slip between the check and the delete
		s, err := store.FindSessionByID(tx, sessionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSessionNotFound
			}
			return fmt.Errorf("find session: %w", err)
		}
		if s.Status != models.StatusLobby {
			return ErrForbidden
		}

		p, _, err := store.FindParticipantByToken(tx, hash, s.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// unknown, revoked and expired all produce the same error
				return ErrInvalidToken
			}
			return err
		}
		if err := store.RevokeSessionToken(tx, hash); err != nil {
			return err
		}
		return store.DeleteParticipant(tx, p.ID)
	})
}

// Details is a session summary with its live participant and profile
// counts.
type Details struct {
	Session          *models.Session
	ParticipantCount int64
	ProfileCount     int64
}

// GetDetails returns a session summary for its owner or an admin.
func (e *Engine) GetDetails(sessionID, callerID uint, callerRole string) (*Details, error) {
	s, err := e.visibleSession(sessionID, callerID, callerRole)
	if err != nil {
		return nil, err
	}
	participants, err := store.CountParticipants(e.DB, s.ID)
	if err != nil {
		return nil, fmt.Errorf("count participants: %w", err)
	}
	profiles, err := store.CountSessionProfiles(e.DB, s.ID)
	if err != nil {
		return nil, fmt.Errorf("count profiles: %w", err)
	}
	return &Details{Session: s, ParticipantCount: participants, ProfileCount: profiles}, nil
}

// GetParticipants returns the ordered participant list for the owner or
// an admin.
func (e *Engine) GetParticipants(sessionID, callerID uint, callerRole string) ([]models.Participant, error) {
	s, err := e.visibleSession(sessionID, callerID, callerRole)
	if err != nil {
		return nil, err
	}
	return store.GetSessionParticipants(e.DB, s.ID)
}

func (e *Engine) visibleSession(sessionID, callerID uint, callerRole string) (*models.Session, error) {
	s, err := store.FindSessionByID(e.DB, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	owned := s.CreatedByID != nil && *s.CreatedByID == callerID
	if !owned && callerRole != models.RoleAdmin {
		return nil, ErrForbidden
	}
	return s, nil
}

// DeleteOrAbandon removes a LOBBY session entirely (freeing its code for
// reuse), or abandons a RUNNING one: participants and tokens go away but
// the row and the profile/round data produced during the run survive.
// Terminal sessions are immutable.
func (e *Engine) DeleteOrAbandon(sessionID, ownerID uint) error {
	return e.DB.Transaction(func(tx *gorm.DB) error {
		// the branch depends on current status, so it must be read
		// inside the transaction: a session promoted to RUNNING by a
		// concurrent call must get the abandon branch, not the cascade
		s, err := store.FindSessionByIDAndOwner(tx, sessionID, ownerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSessionNotFound
			}
			return fmt.Errorf("find session: %w", err)
		}

		switch s.Status {
		case models.StatusLobby:
			return store.DeleteSessionCascade(tx, s.ID)
		case models.StatusRunning:
			if err := store.DeleteSessionParticipants(tx, s.ID); err != nil {
				return err
			}
			if err := store.TransitionSessionStatus(tx, s.ID, models.StatusRunning, models.StatusAbandoned); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrTerminalState
				}
				return err
			}
			return nil
		default:
			return ErrTerminalState
		}
	})
}

// SubmitProfile records a profile draft authored by the holder of a
// participant credential. Allowed while the session is LOBBY or RUNNING.
func (e *Engine) SubmitProfile(sessionID uint, rawToken, content string) (*models.SessionProfile, error) {
	s, err := store.FindSessionByID(e.DB, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	if s.Terminal() {
		return nil, ErrForbidden
	}

	claims, err := e.Issuer.Verify(rawToken)
	if err != nil || claims.SessionID != s.ID {
		return nil, ErrInvalidToken
	}

	var profile *models.SessionProfile
	err = e.DB.Transaction(func(tx *gorm.DB) error {
		p, _, err := store.FindParticipantByToken(tx, token.Hash(rawToken), s.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidToken
			}
			return err
		}
		profile = &models.SessionProfile{
			SessionID: s.ID,
			ColorHex:  p.ColorHex,
			Content:   content,
			Draft:     s.Status == models.StatusLobby,
		}
		return tx.Create(profile).Error
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// CleanupTokens sweeps expired tokens and tokens revoked longer ago than
// the grace period. Advisory housekeeping; authorization never depends
// on it.
func (e *Engine) CleanupTokens(revokedGrace time.Duration) (int64, error) {
	return store.CleanupExpiredSessionTokens(e.DB, time.Now().Add(-revokedGrace))
}
