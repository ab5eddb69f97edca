package interfaces

import (
	"context"
	"errors"
	"x402_gateway/internal/domain/x402"
)

// ErrFacilitatorUnreachable wraps transport failures, timeouts, 5xx answers
// and an open circuit breaker.
var ErrFacilitatorUnreachable = errors.New("facilitator unreachable")

// IFacilitatorGateway abstracts the external x402 facilitator.
type IFacilitatorGateway interface {
	Verify(ctx context.Context, req x402.FacilitatorRequest) (x402.VerifyResponse, error)
	Settle(ctx context.Context, req x402.FacilitatorRequest) (x402.SettleResponse, error)
	Supported(ctx context.Context) (x402.SupportedResponse, error)
}
