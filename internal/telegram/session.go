// Package telegram is the thin, intentionally shallow home for the
// Telegram front-end spec §1 names as an out-of-scope external
// collaborator (chat, balance, request queue). The only piece given
// concrete shape here is session authentication: a signed token
// identifying which Telegram chat a queued question belongs to, so a
// request can be matched back to its asker once the orchestrator
// finishes — everything else (the actual bot, balance ledger, queue
// storage) stays a documented boundary.
//
// Grounded on Mindburn-Labs-helm's internal/identity.TokenManager: a
// thin wrapper generating/validating a github.com/golang-jwt/jwt/v5
// token, trimmed from that package's full RSA/KeySet machinery down to
// a single HMAC secret (this front end has no multi-tenant signing-key
// rotation need, unlike the teacher sibling it's grounded on).
package telegram

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims identifies one queued Telegram chat's request session.
type SessionClaims struct {
	jwt.RegisteredClaims
	ChatID int64 `json:"chat_id"`
}

// SessionManager signs and validates request-queue session tokens for
// the Telegram front end.
type SessionManager struct {
	secret []byte
}

// NewSessionManager builds a SessionManager signing/validating tokens
// with secret (an HMAC key shared with no one outside this process).
func NewSessionManager(secret []byte) *SessionManager {
	return &SessionManager{secret: secret}
}

// Issue signs a session token for chatID valid for ttl.
func (m *SessionManager) Issue(chatID int64, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "cryptoasl/telegram",
		},
		ChatID: chatID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("telegram: sign session: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a session token, returning its claims.
func (m *SessionManager) Validate(tokenString string) (*SessionClaims, error) {
	var claims SessionClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("telegram: unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: validate session: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("telegram: session token is invalid")
	}
	return &claims, nil
}
