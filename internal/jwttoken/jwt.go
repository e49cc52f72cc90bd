// Package jwttoken issues and validates the HS256 access tokens returned by
// login. A token carries the account ID as subject, the role claim recorded
// at issue time, and a JTI so logout can revoke it. Verification only proves
// the token is ours; the auth middleware reloads the identity and uses the
// persisted role, never the role claim.
package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"propmarket/pkg/domain"
	dErrors "propmarket/pkg/domain-errors"
)

// Claims are the JWT claims for access tokens.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TTL returns the remaining lifetime of the token, used as the revocation
// list entry's expiry on logout.
func (c *Claims) TTL(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return c.ExpiresAt.Time.Sub(now)
}

// Service signs and validates access tokens.
type Service struct {
	signingKey []byte
	issuer     string
	expiresIn  time.Duration
}

func New(signingKey string, issuer string, expiresIn time.Duration) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		expiresIn:  expiresIn,
	}
}

// Generate signs a token for the given account.
func (s *Service) Generate(accountID domain.AccountID, role domain.Role, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// Validate parses and verifies a token string.
func (s *Service) Validate(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}
