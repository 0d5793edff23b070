// Package claims defines the access-token claim set both backends encode
// and the helpers to read it back.
package claims

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dealgrid/dealgrid/internal/errs"
	"github.com/dealgrid/dealgrid/internal/model"
)

// Access is the JWT claim set carried by Dealgrid access tokens.
type Access struct {
	Email    string `json:"email,omitempty"`
	TenantID string `json:"tid,omitempty"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Parse decodes token claims without verifying the signature. Only for
// local display (whoami, expiry hints); never for authorization.
func Parse(raw string) (*model.Claims, error) {
	var ac Access
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &ac); err != nil {
		return nil, fmt.Errorf("parse access token: %w", err)
	}
	return toModel(&ac), nil
}

// ParseVerified checks the HS256 signature and standard validity claims,
// then returns the claim set. Expired or tampered tokens map to
// errs.ErrUnauthorized.
func ParseVerified(raw string, key []byte) (*model.Claims, error) {
	var ac Access
	_, err := jwt.ParseWithClaims(raw, &ac, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrUnauthorized, err)
	}
	return toModel(&ac), nil
}

func toModel(ac *Access) *model.Claims {
	c := &model.Claims{
		Subject:  ac.Subject,
		Email:    ac.Email,
		TenantID: ac.TenantID,
		Role:     ac.Role,
	}
	if ac.IssuedAt != nil {
		c.IssuedAt = ac.IssuedAt.Time
	}
	if ac.ExpiresAt != nil {
		c.ExpiresAt = ac.ExpiresAt.Time
	}
	return c
}
