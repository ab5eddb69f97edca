package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"x402_gateway/internal/domain/entities"
	"x402_gateway/internal/usecase/interfaces"

	"github.com/golang-jwt/jwt/v5"
)

var ErrMissingSecret = errors.New("session secret not configured")

// JWTSessionProvider resolves HS256 bearer tokens carrying user_id (or sub),
// email and an optional role claim.
type JWTSessionProvider struct {
	secret []byte
}

var _ interfaces.ISessionProvider = (*JWTSessionProvider)(nil)

func NewJWTSessionProvider(secret string) *JWTSessionProvider {
	return &JWTSessionProvider{secret: []byte(secret)}
}

func (p *JWTSessionProvider) GetCurrentUser(_ context.Context, token string) (entities.User, error) {
	if len(p.secret) == 0 {
		return entities.User{}, fmt.Errorf("%w: %v", interfaces.ErrUnauthorized, ErrMissingSecret)
	}
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return entities.User{}, interfaces.ErrUnauthorized
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return entities.User{}, fmt.Errorf("%w: %v", interfaces.ErrUnauthorized, err)
	}

	user := entities.User{
		ID:    claimString(claims["user_id"]),
		Email: claimString(claims["email"]),
		Role:  claimString(claims["role"]),
	}
	if user.ID == "" {
		user.ID = claimString(claims["sub"])
	}
	if user.ID == "" {
		return entities.User{}, fmt.Errorf("%w: token has no subject", interfaces.ErrUnauthorized)
	}
	return user, nil
}

// IssueToken signs a session token; used by local tooling and tests.
func (p *JWTSessionProvider) IssueToken(user entities.User, ttl time.Duration) (string, error) {
	if len(p.secret) == 0 {
		return "", ErrMissingSecret
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    user.Role,
		"exp":     time.Now().Add(ttl).Unix(),
	})
	return token.SignedString(p.secret)
}

func claimString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}
