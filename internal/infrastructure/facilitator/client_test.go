package facilitator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
	"x402_gateway/internal/domain/x402"
	"x402_gateway/internal/usecase/interfaces"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testRequest() x402.FacilitatorRequest {
	return x402.FacilitatorRequest{
		X402Version: x402.Version,
		PaymentPayload: x402.PaymentPayload{
			X402Version: x402.Version,
			Scheme:      x402.SchemeExact,
			Network:     "base-sepolia",
			Payload: x402.ExactPayload{
				Signature: "0xsig",
				Authorization: x402.Authorization{
					From: "0x857b06519E91e3A54538791bDbb0E22373e36b66", To: "0x209693Bc6afc0C5328bA36FaF03C514EF312287C",
					Value: "10000", ValidAfter: "0", ValidBefore: "9999999999", Nonce: "0x01",
				},
			},
		},
		PaymentRequirements: x402.PaymentRequirement{Scheme: x402.SchemeExact, Network: "base-sepolia", MaxAmountRequired: "10000"},
	}
}

func newTestGateway(t *testing.T, h http.HandlerFunc) *HTTPFacilitatorGateway {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	g := NewHTTPFacilitatorGateway(Config{URL: srv.URL, Timeout: time.Second, MaxFailures: 2, ResetTimeout: time.Minute}, zaptest.NewLogger(t))
	g.retryDelay = time.Millisecond
	return g
}

func TestVerify(t *testing.T) {
	t.Run("posts the facilitator envelope", func(t *testing.T) {
		g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/verify", r.URL.Path)
			var body map[string]json.RawMessage
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Contains(t, body, "x402Version")
			assert.Contains(t, body, "paymentPayload")
			assert.Contains(t, body, "paymentRequirements")
			_, _ = w.Write([]byte(`{"isValid":true,"payer":"0xabc"}`))
		})

		resp, err := g.Verify(context.Background(), testRequest())
		require.NoError(t, err)
		assert.True(t, resp.IsValid)
		assert.Equal(t, "0xabc", resp.Payer)
	})

	t.Run("4xx is a rejection, not an outage", func(t *testing.T) {
		g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"isValid":false,"invalidReason":"invalid_exact_evm_payload_signature"}`))
		})

		resp, err := g.Verify(context.Background(), testRequest())
		require.NoError(t, err)
		assert.False(t, resp.IsValid)
		assert.Equal(t, "invalid_exact_evm_payload_signature", resp.InvalidReason)
	})

	t.Run("5xx is unreachable and opens the breaker", func(t *testing.T) {
		var hits int32
		g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&hits, 1)
			w.WriteHeader(http.StatusBadGateway)
		})

		for i := 0; i < 3; i++ {
			_, err := g.Verify(context.Background(), testRequest())
			assert.ErrorIs(t, err, interfaces.ErrFacilitatorUnreachable)
		}
		assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
		assert.Equal(t, StateOpen, g.BreakerState())
	})

	t.Run("garbage body on 200", func(t *testing.T) {
		g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		})
		_, err := g.Verify(context.Background(), testRequest())
		assert.ErrorIs(t, err, interfaces.ErrFacilitatorUnreachable)
	})
}

func TestSettle(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/settle", r.URL.Path)
			_, _ = w.Write([]byte(`{"success":true,"transaction":"0xtx","network":"base-sepolia","payer":"0xabc"}`))
		})
		resp, err := g.Settle(context.Background(), testRequest())
		require.NoError(t, err)
		assert.True(t, resp.Success)
		assert.Equal(t, "0xtx", resp.Transaction)
	})

	t.Run("rejected", func(t *testing.T) {
		g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
		})
		resp, err := g.Settle(context.Background(), testRequest())
		require.NoError(t, err)
		assert.False(t, resp.Success)
		assert.Contains(t, resp.ErrorReason, "422")
	})

	t.Run("deadline", func(t *testing.T) {
		g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		})
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err := g.Settle(ctx, testRequest())
		assert.ErrorIs(t, err, interfaces.ErrFacilitatorUnreachable)
	})
}

func TestSupportedRetriesRateLimit(t *testing.T) {
	var hits int32
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"kinds":[{"x402Version":1,"scheme":"exact","network":"base-sepolia"}]}`))
	})

	resp, err := g.Supported(context.Background())
	require.NoError(t, err)
	require.Len(t, resp.Kinds, 1)
	assert.Equal(t, "base-sepolia", resp.Kinds[0].Network)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestMockFacilitatorGateway(t *testing.T) {
	m := NewMockFacilitatorGateway(zaptest.NewLogger(t))
	req := testRequest()

	v, err := m.Verify(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, v.IsValid)
	assert.Equal(t, req.PaymentPayload.Payload.Authorization.From, v.Payer)

	s1, _ := m.Settle(context.Background(), req)
	s2, _ := m.Settle(context.Background(), req)
	assert.True(t, s1.Success)
	assert.Len(t, s1.Transaction, 66)
	assert.Equal(t, s1.Transaction, s2.Transaction)

	sup, _ := m.Supported(context.Background())
	assert.Len(t, sup.Kinds, len(x402.NetworkNames()))
}
