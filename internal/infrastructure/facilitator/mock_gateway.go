package facilitator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"x402_gateway/internal/domain/x402"
	"x402_gateway/internal/usecase/interfaces"

	"go.uber.org/zap"
)

// MockFacilitatorGateway accepts every proof and settles with a synthetic
// transaction hash. Enabled with FACILITATOR_MOCK for demos and local runs.
type MockFacilitatorGateway struct {
	logger *zap.Logger
}

var _ interfaces.IFacilitatorGateway = (*MockFacilitatorGateway)(nil)

func NewMockFacilitatorGateway(logger *zap.Logger) *MockFacilitatorGateway {
	logger.Warn("facilitator mock mode enabled; payments are not verified or settled on chain")
	return &MockFacilitatorGateway{logger: logger}
}

func (m *MockFacilitatorGateway) Verify(_ context.Context, req x402.FacilitatorRequest) (x402.VerifyResponse, error) {
	payer := req.PaymentPayload.Payload.Authorization.From
	m.logger.Debug("mock verify", zap.String("payer", payer), zap.String("network", req.PaymentPayload.Network))
	return x402.VerifyResponse{IsValid: true, Payer: payer}, nil
}

func (m *MockFacilitatorGateway) Settle(_ context.Context, req x402.FacilitatorRequest) (x402.SettleResponse, error) {
	auth := req.PaymentPayload.Payload.Authorization
	sum := sha256.Sum256([]byte(req.PaymentPayload.Network + "|" + auth.From + "|" + auth.Nonce))
	tx := "0x" + hex.EncodeToString(sum[:])
	m.logger.Debug("mock settle", zap.String("payer", auth.From), zap.String("transaction", tx))
	return x402.SettleResponse{
		Success:     true,
		Payer:       auth.From,
		Transaction: tx,
		Network:     req.PaymentPayload.Network,
	}, nil
}

func (m *MockFacilitatorGateway) Supported(context.Context) (x402.SupportedResponse, error) {
	names := x402.NetworkNames()
	kinds := make([]x402.SupportedKind, 0, len(names))
	for _, n := range names {
		kinds = append(kinds, x402.SupportedKind{X402Version: x402.Version, Scheme: x402.SchemeExact, Network: n})
	}
	return x402.SupportedResponse{Kinds: kinds}, nil
}
