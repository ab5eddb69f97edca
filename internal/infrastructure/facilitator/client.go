package facilitator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
	"x402_gateway/internal/domain/x402"
	"x402_gateway/internal/infrastructure/metrics"
	"x402_gateway/internal/usecase/interfaces"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

const (
	DefaultURL     = "https://x402.org/facilitator"
	defaultTimeout = 10 * time.Second

	supportedRetries        = 3
	supportedRetryBaseDelay = 1 * time.Second

	maxResponseBody = 1 << 20
)

// errServerStatus marks a facilitator answer the breaker counts as a failure.
var errServerStatus = errors.New("facilitator server error")

type Config struct {
	URL          string
	Timeout      time.Duration
	MaxFailures  int
	ResetTimeout time.Duration
	HTTPClient   *http.Client
}

// HTTPFacilitatorGateway talks to an x402 facilitator over HTTP
// (POST /verify, POST /settle, GET /supported).
type HTTPFacilitatorGateway struct {
	url        string
	httpClient *http.Client
	breaker    *CircuitBreaker
	logger     *zap.Logger
	retryDelay time.Duration
}

var _ interfaces.IFacilitatorGateway = (*HTTPFacilitatorGateway)(nil)

func NewHTTPFacilitatorGateway(cfg Config, logger *zap.Logger) *HTTPFacilitatorGateway {
	url := cfg.URL
	if url == "" {
		url = DefaultURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &HTTPFacilitatorGateway{
		url:        url,
		httpClient: httpClient,
		breaker:    NewCircuitBreaker(cfg.MaxFailures, cfg.ResetTimeout),
		logger:     logger,
		retryDelay: supportedRetryBaseDelay,
	}
}

func (g *HTTPFacilitatorGateway) Verify(ctx context.Context, req x402.FacilitatorRequest) (x402.VerifyResponse, error) {
	status, body, err := g.call(ctx, "verify", http.MethodPost, "/verify", req)
	if err != nil {
		return x402.VerifyResponse{}, err
	}

	var resp x402.VerifyResponse
	if jErr := json.Unmarshal(body, &resp); jErr != nil && status == http.StatusOK {
		return x402.VerifyResponse{}, fmt.Errorf("%w: decode verify response: %v", interfaces.ErrFacilitatorUnreachable, jErr)
	}
	if status != http.StatusOK {
		// 4xx: the facilitator looked at the proof and refused it.
		resp.IsValid = false
		if resp.InvalidReason == "" {
			resp.InvalidReason = fmt.Sprintf("facilitator rejected verify (%d)", status)
		}
	}
	return resp, nil
}

func (g *HTTPFacilitatorGateway) Settle(ctx context.Context, req x402.FacilitatorRequest) (x402.SettleResponse, error) {
	status, body, err := g.call(ctx, "settle", http.MethodPost, "/settle", req)
	if err != nil {
		return x402.SettleResponse{}, err
	}

	var resp x402.SettleResponse
	if jErr := json.Unmarshal(body, &resp); jErr != nil && status == http.StatusOK {
		return x402.SettleResponse{}, fmt.Errorf("%w: decode settle response: %v", interfaces.ErrFacilitatorUnreachable, jErr)
	}
	if status != http.StatusOK {
		resp.Success = false
		if resp.ErrorReason == "" {
			resp.ErrorReason = fmt.Sprintf("facilitator rejected settle (%d)", status)
		}
	}
	return resp, nil
}

// Supported retries 429 answers with exponential backoff.
func (g *HTTPFacilitatorGateway) Supported(ctx context.Context) (x402.SupportedResponse, error) {
	var lastErr error
	for attempt := 0; attempt < supportedRetries; attempt++ {
		status, body, err := g.call(ctx, "supported", http.MethodGet, "/supported", nil)
		if err != nil {
			return x402.SupportedResponse{}, err
		}
		if status == http.StatusOK {
			var resp x402.SupportedResponse
			if err := json.Unmarshal(body, &resp); err != nil {
				return x402.SupportedResponse{}, fmt.Errorf("decode supported response: %w", err)
			}
			return resp, nil
		}

		lastErr = fmt.Errorf("facilitator supported failed (%d): %s", status, string(body))
		if status != http.StatusTooManyRequests || attempt == supportedRetries-1 {
			return x402.SupportedResponse{}, lastErr
		}

		delay := g.retryDelay * time.Duration(1<<uint(attempt))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return x402.SupportedResponse{}, ctx.Err()
		}
	}
	return x402.SupportedResponse{}, lastErr
}

// call performs one request through the breaker. Transport errors, 5xx and an
// open breaker come back wrapped in ErrFacilitatorUnreachable; any other
// status is returned to the caller with its body.
func (g *HTTPFacilitatorGateway) call(ctx context.Context, op, method, path string, payload any) (int, []byte, error) {
	ctx, span := otel.Tracer("facilitator").Start(ctx, "facilitator."+op)
	defer span.End()
	span.SetAttributes(attribute.String("facilitator.url", g.url))

	start := time.Now()
	var (
		status int
		body   []byte
	)
	err := g.breaker.Execute(ctx, func() error {
		var rErr error
		status, body, rErr = g.do(ctx, method, path, payload)
		if rErr != nil {
			return rErr
		}
		if status >= http.StatusInternalServerError {
			return fmt.Errorf("%w: %s returned %d", errServerStatus, path, status)
		}
		return nil
	})

	outcome := "ok"
	switch {
	case errors.Is(err, ErrCircuitOpen):
		outcome = "circuit_open"
	case err != nil:
		outcome = "error"
	case status != http.StatusOK:
		outcome = "rejected"
	}
	metrics.ObserveFacilitatorCall(op, outcome, time.Since(start).Seconds())
	span.SetAttributes(attribute.Int("http.status_code", status), attribute.String("facilitator.outcome", outcome))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		g.logger.Warn("facilitator call failed",
			zap.String("operation", op),
			zap.String("outcome", outcome),
			zap.Int("status", status),
			zap.Error(err),
		)
		return status, body, fmt.Errorf("%w: %s: %v", interfaces.ErrFacilitatorUnreachable, op, err)
	}
	return status, body, nil
}

func (g *HTTPFacilitatorGateway) do(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal %s request: %w", path, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.url+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("create %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s request failed: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read %s response: %w", path, err)
	}
	return resp.StatusCode, body, nil
}

// BreakerState exposes the breaker for health output.
func (g *HTTPFacilitatorGateway) BreakerState() State {
	return g.breaker.GetState()
}
