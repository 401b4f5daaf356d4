// Package token issues and verifies participant credentials: short-lived
// signed tokens handed out at join time. Only a digest of the credential
// is ever persisted; the raw token is returned to the joining caller once.
package token

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers signature mismatch, malformed structure and
// expiry alike, so callers cannot distinguish why a credential failed.
var ErrInvalidToken = errors.New("invalid token")

// ParticipantClaims is the payload of a participant credential.
type ParticipantClaims struct {
	SessionID     uint `json:"session_id"`
	ParticipantID uint `json:"participant_id"`
	jwt.RegisteredClaims
}

// Issued is the result of signing a new credential.
type Issued struct {
	RawToken  string
	TokenHash string
	ExpiresAt time.Time
}

// Issuer signs and verifies participant credentials with a symmetric
// secret. Construct with NewIssuer, which validates configuration.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// NewIssuer builds an Issuer. A missing secret or non-positive TTL is a
// configuration error: the caller should treat it as fatal at startup.
func NewIssuer(secret string, ttlMinutes int) (*Issuer, error) {
	if secret == "" {
		return nil, fmt.Errorf("session token secret is not configured")
	}
	if ttlMinutes <= 0 {
		return nil, fmt.Errorf("session token ttl must be a positive number of minutes, got %d", ttlMinutes)
	}
	return &Issuer{
		secret: []byte(secret),
		ttl:    time.Duration(ttlMinutes) * time.Minute,
	}, nil
}

// Sign creates a credential scoped to (sessionID, participantID) and
// returns the raw token together with its storage hash and expiry.
func (i *Issuer) Sign(sessionID, participantID uint) (*Issued, error) {
	now := time.Now()
	expiresAt := now.Add(i.ttl)
	claims := &ParticipantClaims{
		SessionID:     sessionID,
		ParticipantID: participantID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return nil, fmt.Errorf("sign participant token: %w", err)
	}

	return &Issued{
		RawToken:  raw,
		TokenHash: Hash(raw),
		ExpiresAt: expiresAt,
	}, nil
}

// Verify parses and validates a raw credential. Any failure surfaces as
// ErrInvalidToken.
func (i *Issuer) Verify(raw string) (*ParticipantClaims, error) {
	tok, err := jwt.ParseWithClaims(raw, &ParticipantClaims{}, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := tok.Claims.(*ParticipantClaims)
	if !ok || !tok.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Hash returns the deterministic storage digest of a raw credential.
func Hash(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
