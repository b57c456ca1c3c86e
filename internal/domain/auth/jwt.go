// Package auth provides authentication for the back office API. Tokens
// carry the actor's scope assignment; the API trusts the identity service
// that issued them.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"backoffice/internal/core/id"
	"backoffice/internal/core/principal"
)

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	Secret         string
	Issuer         string
	AccessTokenTTL time.Duration
}

// DefaultJWTConfig returns default JWT configuration.
func DefaultJWTConfig(secret string) JWTConfig {
	return JWTConfig{
		Secret:         secret,
		Issuer:         "backoffice",
		AccessTokenTTL: 15 * time.Minute,
	}
}

// Claims represents JWT claims. ScopeID names the tenant node the actor
// is assigned to; OrganizationID is carried alongside for COMPANY and
// DEPARTMENT actors so scope resolution does not need an extra lookup.
type Claims struct {
	jwt.RegisteredClaims
	UserID         string `json:"uid"`
	Scope          string `json:"scope"`
	ScopeID        string `json:"sid"`
	OrganizationID string `json:"org,omitempty"`
	Email          string `json:"email,omitempty"`
}

// JWTService handles JWT operations.
type JWTService struct {
	config JWTConfig
}

// NewJWTService creates a new JWT service.
func NewJWTService(config JWTConfig) *JWTService {
	return &JWTService{config: config}
}

// GenerateAccessToken generates a new access token.
func (s *JWTService) GenerateAccessToken(userID, email string, scope principal.Scope, scopeID id.ID, orgID *id.ID) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.config.AccessTokenTTL)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID:  userID,
		Scope:   string(scope),
		ScopeID: scopeID.String(),
		Email:   email,
	}
	if orgID != nil {
		claims.OrganizationID = orgID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// ValidateToken validates the JWT and builds the request principal.
func (s *JWTService) ValidateToken(tokenString string) (*principal.Principal, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	scopeID, err := id.Parse(claims.ScopeID)
	if err != nil {
		return nil, fmt.Errorf("invalid scope id claim: %w", err)
	}

	p, err := principal.New(claims.UserID, principal.Scope(claims.Scope), scopeID)
	if err != nil {
		return nil, fmt.Errorf("invalid scope claim: %w", err)
	}

	if claims.OrganizationID != "" && p.OrganizationID == nil {
		orgID, err := id.Parse(claims.OrganizationID)
		if err != nil {
			return nil, fmt.Errorf("invalid organization claim: %w", err)
		}
		p.OrganizationID = &orgID
	}

	return p, nil
}
