package auth

import (
	"context"
	"testing"
	"time"
	"x402_gateway/internal/domain/entities"
	"x402_gateway/internal/usecase/interfaces"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTSessionProvider(t *testing.T) {
	p := NewJWTSessionProvider("s3cret")
	ctx := context.Background()

	t.Run("valid token", func(t *testing.T) {
		tok, err := p.IssueToken(entities.User{ID: "42", Email: "ops@example.com", Role: "admin"}, time.Hour)
		require.NoError(t, err)

		u, err := p.GetCurrentUser(ctx, "Bearer "+tok)
		require.NoError(t, err)
		assert.Equal(t, entities.User{ID: "42", Email: "ops@example.com", Role: "admin"}, u)
	})

	t.Run("numeric user id", func(t *testing.T) {
		tok, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"user_id": 7, "email": "a@b.c", "exp": time.Now().Add(time.Hour).Unix(),
		}).SignedString([]byte("s3cret"))

		u, err := p.GetCurrentUser(ctx, tok)
		require.NoError(t, err)
		assert.Equal(t, "7", u.ID)
	})

	t.Run("expired", func(t *testing.T) {
		tok, _ := p.IssueToken(entities.User{ID: "42"}, -time.Minute)
		_, err := p.GetCurrentUser(ctx, tok)
		assert.ErrorIs(t, err, interfaces.ErrUnauthorized)
	})

	t.Run("wrong secret", func(t *testing.T) {
		tok, _ := NewJWTSessionProvider("other").IssueToken(entities.User{ID: "42"}, time.Hour)
		_, err := p.GetCurrentUser(ctx, tok)
		assert.ErrorIs(t, err, interfaces.ErrUnauthorized)
	})

	t.Run("missing token", func(t *testing.T) {
		_, err := p.GetCurrentUser(ctx, "  ")
		assert.ErrorIs(t, err, interfaces.ErrUnauthorized)
	})

	t.Run("unconfigured", func(t *testing.T) {
		_, err := NewJWTSessionProvider("").GetCurrentUser(ctx, "abc")
		assert.ErrorIs(t, err, interfaces.ErrUnauthorized)
	})
}
