// Package tokens issues and validates the signed tokens used for sessions,
// email verification, and magic login links.
package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// SessionLifetime is how long an issued session token is accepted.
	SessionLifetime = 24 * time.Hour
	// RefreshWindow bounds how long after issuance a session token may still
	// be exchanged for a fresh one.
	RefreshWindow = 30 * 24 * time.Hour
	// RefreshFloor is the minimum age a session token must reach before it
	// can be refreshed. Younger tokens are rejected.
	RefreshFloor = 10 * time.Minute
	// VerificationLifetime is how long an emailed verification token stays valid.
	VerificationLifetime = 24 * time.Hour
)

const (
	purposeSession = "session"
	purposeVerify  = "verify"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	// ErrRefreshTooEarly is returned when a token younger than RefreshFloor
	// is offered for refresh.
	ErrRefreshTooEarly = errors.New("token not yet eligible for refresh")
	// ErrRefreshTooLate is returned when a token older than RefreshWindow is
	// offered for refresh.
	ErrRefreshTooLate = errors.New("token too old to refresh")
)

// Claims is the signed payload shared by session and verification tokens.
// Purpose keeps the short verification tokens from being replayed as sessions.
type Claims struct {
	UserID  uint   `json:"user_id"`
	Email   string `json:"email,omitempty"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// Manager signs and verifies tokens with a single HMAC secret.
type Manager struct {
	secret []byte
	now    func() time.Time
}

// NewManager creates a Manager signing with the given secret.
func NewManager(secret string) *Manager {
	return &Manager{secret: []byte(secret), now: time.Now}
}

// Issue creates a session token for the given identity.
func (m *Manager) Issue(userID uint, email string) (string, error) {
	return m.sign(Claims{
		UserID:  userID,
		Email:   email,
		Purpose: purposeSession,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(m.now()),
			ExpiresAt: jwt.NewNumericDate(m.now().Add(SessionLifetime)),
		},
	})
}

// Verify validates a session token and returns its claims.
func (m *Manager) Verify(tokenStr string) (*Claims, error) {
	claims, err := m.parse(tokenStr, true)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != purposeSession {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Refresh exchanges a session token for a fresh one carrying the same
// identity. The old token must be at least RefreshFloor old and no older
// than RefreshWindow; its expiry is otherwise ignored.
func (m *Manager) Refresh(oldToken string) (string, error) {
	claims, err := m.parse(oldToken, false)
	if err != nil {
		return "", err
	}
	if claims.Purpose != purposeSession || claims.IssuedAt == nil {
		return "", ErrInvalidToken
	}

	age := m.now().Sub(claims.IssuedAt.Time)
	if age < RefreshFloor {
		return "", ErrRefreshTooEarly
	}
	if age > RefreshWindow {
		return "", ErrRefreshTooLate
	}

	return m.Issue(claims.UserID, claims.Email)
}

// IssueVerification creates the short account verification token that is
// emailed after registration.
func (m *Manager) IssueVerification(userID uint) (string, error) {
	return m.sign(Claims{
		UserID:  userID,
		Purpose: purposeVerify,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(m.now()),
			ExpiresAt: jwt.NewNumericDate(m.now().Add(VerificationLifetime)),
		},
	})
}

// VerifyVerification validates an account verification token and returns the
// encoded user id.
func (m *Manager) VerifyVerification(tokenStr string) (uint, error) {
	claims, err := m.parse(tokenStr, true)
	if err != nil {
		return 0, err
	}
	if claims.Purpose != purposeVerify {
		return 0, ErrInvalidToken
	}
	return claims.UserID, nil
}

func (m *Manager) sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *Manager) parse(tokenStr string, validateExpiry bool) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithTimeFunc(m.now)}
	if !validateExpiry {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
