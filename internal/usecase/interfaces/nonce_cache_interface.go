package interfaces

import (
	"context"
	"time"
)

// INonceCache is a best-effort record of authorization nonces already accepted.
// It is not authoritative; the facilitator and the chain are.
type INonceCache interface {
	// Reserve returns false when key was already reserved and has not expired.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}
