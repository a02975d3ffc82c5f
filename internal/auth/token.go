package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned for every kind of token failure: malformed
// input, bad signature, expiry, or a missing subject. Callers must not be
// able to tell which check failed.
var ErrInvalidToken = errors.New("invalid token")

// TokenManager mints and validates the signed tokens of the service. The
// signing secret and the token lifetimes are injected so that tests can
// run with their own keys.
type TokenManager struct {
	secretKey  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenManager creates a TokenManager with the given HMAC secret, the
// lifetime of access tokens and the lifetime of refresh tokens.
func NewTokenManager(secret string, accessTTL time.Duration, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		secretKey:  []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// CreateAccessToken produces a short-lived signed token whose subject is
// the user's email address.
func (m *TokenManager) CreateAccessToken(email string) (string, error) {
	return m.newToken(email, m.accessTTL)
}

// CreateRefreshToken produces a long-lived signed token whose subject is
// the user's email address. The random token ID guarantees that two
// refresh tokens minted for the same user within the same second still
// differ, so a rotation always replaces the stored value with a new one.
func (m *TokenManager) CreateRefreshToken(email string) (string, error) {
	return m.newToken(email, m.refreshTTL)
}

func (m *TokenManager) newToken(email string, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   email,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ID:        uuid.NewString(),
	})
	return token.SignedString(m.secretKey)
}

// Subject validates the token's signature and expiry and returns the
// embedded subject. Any failure is reported as ErrInvalidToken.
func (m *TokenManager) Subject(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secretKey, nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
