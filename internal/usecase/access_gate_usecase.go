package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"x402_gateway/internal/domain/entities"
	"x402_gateway/internal/domain/x402"
	"x402_gateway/internal/infrastructure/metrics"
	"x402_gateway/internal/usecase/interfaces"

	"go.uber.org/zap"
)

type GateState string

const (
	GateNoProof        GateState = "no_proof"
	GateProofPresented GateState = "proof_presented"
	GateVerified       GateState = "verified"
	GateDenied         GateState = "denied"
)

// Reasons written to the "error" field of gate responses.
const (
	ReasonPaymentRequired        = "X-PAYMENT header is required"
	ReasonMalformedHeader        = "malformed_header"
	ReasonInvalidShape           = "invalid_shape"
	ReasonUnsupportedRequirement = "unsupported_scheme_or_network"
	ReasonExpired                = "authorization_expired"
	ReasonRecipientMismatch      = "recipient_mismatch"
	ReasonAmountMismatch         = "amount_mismatch"
	ReasonNonceReplayed          = "nonce_already_used"
	ReasonFacilitatorUnreachable = "facilitator_unreachable"
	ReasonVerificationFailed     = "verification_failed"
)

const defaultNonceTTL = 24 * time.Hour

// GateDecision is the outcome of evaluating one request.
//
// HTTPStatus is 0 for Verified (the request passes through); otherwise it is
// 400 for malformed input, 402 for a missing or rejected proof and 502 when
// the facilitator cannot be reached.
type GateDecision struct {
	State        GateState
	HTTPStatus   int
	Reason       string
	Detail       string
	Requirements []x402.PaymentRequirement
	AttemptID    string
	Payer        string
	Settlement   *entities.Settlement
}

func (d GateDecision) Allowed() bool { return d.State == GateVerified }

// IAccessGateUseCase decides whether a request for resource may proceed given
// its X-PAYMENT header. A non-nil error means persistence failed.
type IAccessGateUseCase interface {
	Evaluate(ctx context.Context, resource, paymentHeader string) (GateDecision, error)
}

type AccessGateConfig struct {
	Price             string
	Networks          []string
	PayTo             string
	Asset             string
	Description       string
	MimeType          string
	FacilitatorURL    string
	MaxTimeoutSeconds int
	EnqueueOnVerify   bool
	NonceTTL          time.Duration
}

type AccessGateUseCase struct {
	cfg         AccessGateConfig
	facilitator interfaces.IFacilitatorGateway
	nonces      interfaces.INonceCache
	settlements interfaces.ISettlementRepository
	logger      *zap.Logger
	now         func() time.Time
}

var _ IAccessGateUseCase = (*AccessGateUseCase)(nil)

// NewAccessGateUseCase validates the pricing configuration once so that a bad
// PAY_TO or PRICE fails at startup instead of on every request.
func NewAccessGateUseCase(cfg AccessGateConfig, facilitator interfaces.IFacilitatorGateway, nonces interfaces.INonceCache, settlements interfaces.ISettlementRepository, logger *zap.Logger) (*AccessGateUseCase, error) {
	if cfg.NonceTTL <= 0 {
		cfg.NonceTTL = defaultNonceTTL
	}
	u := &AccessGateUseCase{
		cfg:         cfg,
		facilitator: facilitator,
		nonces:      nonces,
		settlements: settlements,
		logger:      logger,
		now:         time.Now,
	}
	if _, err := u.requirements("/"); err != nil {
		return nil, fmt.Errorf("payment requirements: %w", err)
	}
	return u, nil
}

func (u *AccessGateUseCase) requirements(resource string) ([]x402.PaymentRequirement, error) {
	return x402.BuildRequirements(x402.RequirementInput{
		Resource:          resource,
		Price:             u.cfg.Price,
		Networks:          u.cfg.Networks,
		PayTo:             u.cfg.PayTo,
		Asset:             u.cfg.Asset,
		Description:       u.cfg.Description,
		MimeType:          u.cfg.MimeType,
		FacilitatorURL:    u.cfg.FacilitatorURL,
		MaxTimeoutSeconds: u.cfg.MaxTimeoutSeconds,
	})
}

func (u *AccessGateUseCase) Evaluate(ctx context.Context, resource, paymentHeader string) (GateDecision, error) {
	accepts, err := u.requirements(resource)
	if err != nil {
		return GateDecision{}, err
	}

	if strings.TrimSpace(paymentHeader) == "" {
		return u.decide(GateDecision{State: GateNoProof, HTTPStatus: http.StatusPaymentRequired, Reason: ReasonPaymentRequired, Requirements: accepts}), nil
	}

	env, err := x402.DecodeHeader(paymentHeader)
	if err != nil {
		reason := ReasonMalformedHeader
		if errors.Is(err, x402.ErrInvalidShape) {
			reason = ReasonInvalidShape
		}
		return u.decide(GateDecision{State: GateDenied, HTTPStatus: http.StatusBadRequest, Reason: reason, Detail: err.Error()}), nil
	}

	payload := env.PaymentPayload
	auth := payload.Payload.Authorization
	denied := func(reason, detail string) GateDecision {
		return u.decide(GateDecision{State: GateDenied, HTTPStatus: http.StatusPaymentRequired, Reason: reason, Detail: detail, Requirements: accepts, Payer: auth.From})
	}

	req, ok := x402.FindRequirement(accepts, payload)
	if !ok {
		return denied(ReasonUnsupportedRequirement, fmt.Sprintf("scheme=%s network=%s", payload.Scheme, payload.Network)), nil
	}
	if x402.IsExpired(auth, u.now()) {
		return denied(ReasonExpired, fmt.Sprintf("validAfter=%s validBefore=%s", auth.ValidAfter, auth.ValidBefore)), nil
	}

	network, err := x402.LookupNetwork(req.Network)
	if err != nil {
		return denied(ReasonUnsupportedRequirement, err.Error()), nil
	}
	if !network.SameAddress(auth.To, req.PayTo) {
		return denied(ReasonRecipientMismatch, "authorization.to does not match payTo"), nil
	}
	if eq, err := x402.AmountEquals(auth.Value.String(), req.MaxAmountRequired); err != nil || !eq {
		return denied(ReasonAmountMismatch, fmt.Sprintf("value=%s required=%s", auth.Value, req.MaxAmountRequired)), nil
	}

	nonceKey := x402.NonceKey(req.Network, req.Asset, auth)
	reserved := false
	if u.nonces != nil {
		fresh, err := u.nonces.Reserve(ctx, nonceKey, u.cfg.NonceTTL)
		switch {
		case err != nil:
			u.logger.Warn("nonce cache unavailable; continuing", zap.Error(err))
		case !fresh:
			return denied(ReasonNonceReplayed, "nonce already presented"), nil
		default:
			reserved = true
		}
	}

	facReq := x402.FacilitatorRequest{X402Version: x402.Version, PaymentPayload: payload, PaymentRequirements: req}
	if u.facilitator == nil {
		u.releaseNonce(ctx, reserved, nonceKey)
		return u.decide(GateDecision{State: GateDenied, HTTPStatus: http.StatusBadGateway, Reason: ReasonFacilitatorUnreachable, Detail: "facilitator not configured"}), nil
	}
	verify, err := u.facilitator.Verify(ctx, facReq)
	if err != nil {
		u.logger.Error("facilitator verify failed", zap.String("payer", auth.From), zap.Error(err))
		u.releaseNonce(ctx, reserved, nonceKey)
		return u.decide(GateDecision{State: GateDenied, HTTPStatus: http.StatusBadGateway, Reason: ReasonFacilitatorUnreachable, Detail: err.Error()}), nil
	}
	if !verify.IsValid {
		reason := verify.InvalidReason
		if reason == "" {
			reason = ReasonVerificationFailed
		}
		return denied(reason, "facilitator rejected the payment"), nil
	}

	attemptID, err := x402.AttemptID(payload)
	if err != nil {
		return GateDecision{}, err
	}
	payer := verify.Payer
	if payer == "" {
		payer = auth.From
	}
	decision := GateDecision{State: GateVerified, AttemptID: attemptID, Payer: payer, Requirements: []x402.PaymentRequirement{req}}

	if u.cfg.EnqueueOnVerify && u.settlements != nil {
		body, err := json.Marshal(facReq)
		if err != nil {
			return GateDecision{}, err
		}
		s, err := u.settlements.Enqueue(ctx, attemptID, body)
		if err != nil {
			u.logger.Error("settlement enqueue failed", zap.String("payment_attempt_id", attemptID), zap.Error(err))
			return GateDecision{}, fmt.Errorf("enqueue settlement: %w", err)
		}
		decision.Settlement = &s
	}
	return u.decide(decision), nil
}

func (u *AccessGateUseCase) releaseNonce(ctx context.Context, reserved bool, key string) {
	if !reserved {
		return
	}
	if err := u.nonces.Release(ctx, key); err != nil {
		u.logger.Warn("nonce release failed", zap.Error(err))
	}
}

func (u *AccessGateUseCase) decide(d GateDecision) GateDecision {
	metrics.RecordGateDecision(string(d.State), d.Reason)
	if d.State == GateVerified {
		u.logger.Info("payment verified", zap.String("payment_attempt_id", d.AttemptID), zap.String("payer", d.Payer))
	} else if d.State == GateDenied {
		u.logger.Info("payment denied", zap.Int("status", d.HTTPStatus), zap.String("reason", d.Reason), zap.String("detail", d.Detail))
	}
	return d
}
