package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"merchant-acquirer/internal/core/domain"
	"merchant-acquirer/internal/core/ports"
)

// JWTTokenService implements ports.TokenService using HS256.
type JWTTokenService struct {
	secret []byte
	expiry time.Duration
	issuer string
}

// NewJWTTokenService creates a new JWT token service.
func NewJWTTokenService(secret string, expiry time.Duration, issuer string) *JWTTokenService {
	return &JWTTokenService{
		secret: []byte(secret),
		expiry: expiry,
		issuer: issuer,
	}
}

// Generate issues a signed token carrying the portal user's identity,
// DFSP membership and user type.
func (s *JWTTokenService) Generate(user *domain.PortalUser) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.expiry)
	claims := jwt.MapClaims{
		"sub":       user.ID,
		"user_type": string(user.UserType),
		"iat":       now.Unix(),
		"exp":       expiresAt.Unix(),
		"iss":       s.issuer,
	}
	if user.DFSPID != nil {
		claims["dfsp_id"] = *user.DFSPID
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}

	return signed, expiresAt, nil
}

// Validate parses and verifies a token, returning its claims.
func (s *JWTTokenService) Validate(tokenString string) (*ports.TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	sub, ok := claims["sub"].(float64)
	if !ok {
		return nil, fmt.Errorf("missing sub claim")
	}

	userType, ok := claims["user_type"].(string)
	if !ok {
		return nil, fmt.Errorf("missing user_type claim")
	}

	result := &ports.TokenClaims{
		UserID:   int64(sub),
		UserType: domain.UserType(userType),
	}
	if dfsp, ok := claims["dfsp_id"].(float64); ok {
		id := int64(dfsp)
		result.DFSPID = &id
	}

	return result, nil
}
