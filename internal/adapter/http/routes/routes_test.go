package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	"x402_gateway/internal/domain/entities"
	"x402_gateway/internal/domain/x402"
	"x402_gateway/internal/infrastructure/auth"
	"x402_gateway/internal/infrastructure/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testPayTo     = "0x209693Bc6afc0C5328bA36FaF03C514EF312287C"
	testPayer     = "0x857b06519E91e3A54538791bDbb0E22373e36b66"
	testJWTSecret = "session-secret"
)

func testConfig() config.Config {
	return config.Config{
		Port:                "0",
		StoreBackend:        config.StoreMemory,
		FacilitatorMock:     true,
		FacilitatorURL:      "https://x402.org/facilitator",
		PayTo:               testPayTo,
		PayNetworks:         []string{"base-sepolia"},
		Price:               "$0.01",
		ResourceRootURL:     "https://api.example.com",
		ProtectedPathPrefix: "/v1/protected",
		WebhookSecret:       "whsec",
		DevSettleEnabled:    true,
		SessionJWTSecret:    testJWTSecret,
		EnqueueOnVerify:     true,
		ProcessInline:       true,
		SettleTimeout:       time.Second,
		ProcessingMaxAge:    time.Minute,
		NonceCacheTTL:       time.Hour,
	}
}

func newTestServer(t *testing.T) (*gin.Engine, *dependencies) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	deps, err := buildDependencies(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(deps.Close)
	return newRouter(cfg, deps, zap.NewNop()), deps
}

func paymentHeader(t *testing.T, nonce string) string {
	t.Helper()
	h, err := x402.EncodeHeader(x402.Envelope{PaymentPayload: x402.PaymentPayload{
		X402Version: x402.Version,
		Scheme:      x402.SchemeExact,
		Network:     "base-sepolia",
		Payload: x402.ExactPayload{
			Signature: "0xsig",
			Authorization: x402.Authorization{
				From:        testPayer,
				To:          testPayTo,
				Value:       "10000",
				ValidAfter:  "0",
				ValidBefore: "9999999999",
				Nonce:       nonce,
			},
		},
	}})
	require.NoError(t, err)
	return h
}

func TestRouter_PaidRequestFlow(t *testing.T) {
	r, _ := newTestServer(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/protected/report", nil))
	require.Equal(t, http.StatusPaymentRequired, w.Code)

	var challenge x402.PaymentRequired
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &challenge))
	require.Len(t, challenge.Accepts, 1)
	assert.Equal(t, "10000", challenge.Accepts[0].MaxAmountRequired)
	assert.Equal(t, "https://api.example.com/v1/protected/report", challenge.Accepts[0].Resource)

	req := httptest.NewRequest(http.MethodGet, "/v1/protected/report", nil)
	req.Header.Set(x402.HeaderPayment, paymentHeader(t, "0x01"))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	attemptID := w.Header().Get(x402.HeaderAttemptID)
	require.NotEmpty(t, attemptID)
	assert.Equal(t, testPayer, w.Header().Get(x402.HeaderPayer))

	// Same nonce again is a replay.
	req = httptest.NewRequest(http.MethodGet, "/v1/protected/report", nil)
	req.Header.Set(x402.HeaderPayment, paymentHeader(t, "0x01"))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusPaymentRequired, w.Code)

	token, err := auth.NewJWTSessionProvider(testJWTSecret).IssueToken(entities.User{ID: "ops-1"}, time.Minute)
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodGet, "/v1/settlements/"+attemptID, nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var s struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))
	assert.Equal(t, "settled", s.Status, "inline processing settles through the mock facilitator")
}

func TestRouter_DevAndWebhookRoutes(t *testing.T) {
	r, _ := newTestServer(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/dev/settle", bytes.NewBufferString(`{"payment_attempt_id":"attempt-42"}`)))
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"queued"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/dev/reconcile", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString(`{"some":"payload"}`)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"missing_signature"}`, w.Body.String())

	for _, path := range []string{"/health", "/v1/ping", "/metrics"} {
		w = httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}
