package users

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/warp/remittance-engine/generic"
)

// Claims carried by a session token.
type Claims struct {
	UserID      string      `json:"uid"`
	Role        Role        `json:"role"`
	Permissions Permissions `json:"perms"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HMAC-signed session tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	clock  generic.Clock
}

func NewTokens(secret string, ttl time.Duration, clock generic.Clock) *Tokens {
	if clock == nil {
		clock = generic.SystemClock{}
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, clock: clock}
}

// Issue signs a token for u.
func (t *Tokens) Issue(u User) (string, time.Time, error) {
	now := t.clock.Now()
	exp := now.Add(t.ttl)
	claims := Claims{
		UserID:      u.ID,
		Role:        u.Role,
		Permissions: u.Permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify parses a token and returns its claims. Expiry is checked against
// the injected clock.
func (t *Tokens) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithoutClaimsValidation())
	_, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	})
	if err != nil {
		return nil, errors.Join(generic.ErrInvalidCredentials, err)
	}
	if claims.ExpiresAt == nil || !t.clock.Now().Before(claims.ExpiresAt.Time) {
		return nil, fmt.Errorf("%w: token expired", generic.ErrInvalidCredentials)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: token without user", generic.ErrInvalidCredentials)
	}
	return claims, nil
}
