// Package token issues and verifies the signed bearer tokens used by the
// HTTP API and the websocket handshake.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	typeAccess  = "access"
	typeRefresh = "refresh"

	defaultAccessTTL  = time.Hour
	defaultRefreshTTL = 7 * 24 * time.Hour
)

// ErrInvalidToken indicates a token that failed signature, expiry, or claim
// validation. Callers treat every failure mode the same way.
var ErrInvalidToken = errors.New("invalid token")

// Pair bundles the access and refresh tokens issued together.
type Pair struct {
	Access  string
	Refresh string
}

type claims struct {
	jwt.RegisteredClaims
	UserID    int64  `json:"user_id"`
	TokenType string `json:"token_type"`
}

// Manager signs and verifies HS256 token pairs for authenticated users.
type Manager struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewManager builds a Manager from a shared signing secret.
func NewManager(secret, issuer string) (*Manager, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("token secret is required")
	}
	issuer = strings.TrimSpace(issuer)
	if issuer == "" {
		return nil, errors.New("token issuer is required")
	}
	return &Manager{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  defaultAccessTTL,
		refreshTTL: defaultRefreshTTL,
		now:        time.Now,
	}, nil
}

// IssuePair signs a fresh access/refresh token pair for a user.
func (m *Manager) IssuePair(userID int64) (Pair, error) {
	if m == nil {
		return Pair{}, errors.New("token manager is not configured")
	}
	access, err := m.sign(userID, typeAccess, m.accessTTL)
	if err != nil {
		return Pair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := m.sign(userID, typeRefresh, m.refreshTTL)
	if err != nil {
		return Pair{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return Pair{Access: access, Refresh: refresh}, nil
}

// Verify validates an access token and returns the user id it names.
func (m *Manager) Verify(raw string) (int64, error) {
	return m.verify(raw, typeAccess)
}

// Refresh validates a refresh token and issues a replacement pair.
func (m *Manager) Refresh(raw string) (Pair, error) {
	userID, err := m.verify(raw, typeRefresh)
	if err != nil {
		return Pair{}, err
	}
	return m.IssuePair(userID)
}

func (m *Manager) sign(userID int64, tokenType string, ttl time.Duration) (string, error) {
	now := m.now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:    userID,
		TokenType: tokenType,
	})
	return token.SignedString(m.secret)
}

func (m *Manager) verify(raw, wantType string) (int64, error) {
	if m == nil {
		return 0, errors.New("token manager is not configured")
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, ErrInvalidToken
	}

	var parsed claims
	_, err := jwt.ParseWithClaims(raw, &parsed, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(m.issuer),
		jwt.WithTimeFunc(func() time.Time { return m.now().UTC() }),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if parsed.TokenType != wantType {
		return 0, fmt.Errorf("%w: unexpected token type %q", ErrInvalidToken, parsed.TokenType)
	}
	if parsed.UserID <= 0 {
		return 0, fmt.Errorf("%w: missing user id", ErrInvalidToken)
	}
	return parsed.UserID, nil
}
