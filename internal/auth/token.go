package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/condo-admin/backend/internal/scope"
	"github.com/condo-admin/backend/internal/storage/models"
)

// DefaultTokenTTL is how long an issued token stays valid.
const DefaultTokenTTL = 24 * time.Hour

// TokenIssuer is the iss claim of every token this server signs.
const TokenIssuer = "condo-admin"

// Token errors
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

type claims struct {
	Role   models.Role `json:"role"`
	Cedula string      `json:"cedula,omitempty"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies HS256 JWTs carrying the principal.
type Tokens struct {
	secret []byte
	ttl    time.Duration

	// Now is the clock used for issuing and expiry checks.
	Now func() time.Time
}

// NewTokens creates a token signer. A non-positive ttl uses DefaultTokenTTL.
func NewTokens(secret string, ttl time.Duration) (*Tokens, error) {
	if len(secret) < 16 {
		return nil, errors.New("token secret must be at least 16 bytes")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, Now: time.Now}, nil
}

// Issue signs a token for p.
func (t *Tokens) Issue(p scope.Principal) (string, time.Time, error) {
	now := t.Now()
	expires := now.Add(t.ttl).UTC().Truncate(time.Second)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role:   p.Role,
		Cedula: p.Cedula,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    TokenIssuer,
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}
	return signed, expires, nil
}

// Verify checks a token's signature, issuer and expiry and returns its principal.
func (t *Tokens) Verify(token string) (scope.Principal, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.Now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return scope.Principal{}, ErrExpiredToken
	case err != nil:
		return scope.Principal{}, ErrInvalidToken
	}
	if c.Subject == "" || !c.Role.Valid() {
		return scope.Principal{}, ErrInvalidToken
	}

	return scope.Principal{ID: c.Subject, Role: c.Role, Cedula: c.Cedula}, nil
}
