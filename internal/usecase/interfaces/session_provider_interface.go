package interfaces

import (
	"context"
	"errors"
	"x402_gateway/internal/domain/entities"
)

var ErrUnauthorized = errors.New("unauthorized")

// ISessionProvider resolves the caller behind a bearer token.
type ISessionProvider interface {
	GetCurrentUser(ctx context.Context, token string) (entities.User, error)
}
