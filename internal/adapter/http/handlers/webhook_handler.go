package handlers

import (
	"errors"
	"net/http"
	response "x402_gateway/internal/adapter/http/dto/response"
	"x402_gateway/internal/domain/x402"
	"x402_gateway/internal/infrastructure/webhook"
	"x402_gateway/internal/usecase"
	"x402_gateway/pkg"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	errMissingSignature    = pkg.NewDomainErrorSimple("missing_signature", "", http.StatusUnauthorized)
	errInvalidSignature    = pkg.NewDomainErrorSimple("invalid_signature", "", http.StatusUnauthorized)
	errUnrecognizedPayload = pkg.NewDomainErrorSimple("unrecognized_payload", "", http.StatusBadRequest)
)

// WebhookHandler receives settlement results pushed by the facilitator.
type WebhookHandler struct {
	usecase usecase.ISettlementUseCase
	secret  []byte
	logger  *zap.Logger
}

func NewWebhookHandler(uc usecase.ISettlementUseCase, secret string, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{usecase: uc, secret: []byte(secret), logger: logger}
}

// ReceiveSettlement godoc
// @Summary      Facilitator settlement webhook
// @Description  Authenticated with X-Hub-Signature (HMAC-SHA256 of the raw body).
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        X-Hub-Signature  header  string  true  "sha256=<hex>"
// @Success      200  {object}  response.AckResponse
// @Failure      400  {object}  pkg.HTTPError
// @Failure      401  {object}  pkg.HTTPError
// @Failure      500  {object}  pkg.HTTPError
// @Router       /webhook [post]
func (h *WebhookHandler) ReceiveSettlement(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid request", http.StatusBadRequest).ToHTTPError())
		return
	}

	if err := webhook.Check(raw, c.GetHeader(webhook.SignatureHeader), h.secret); err != nil {
		appErr := errInvalidSignature
		if errors.Is(err, webhook.ErrMissingSignature) {
			appErr = errMissingSignature
		}
		if errors.Is(err, webhook.ErrMissingSecret) {
			h.logger.Error("webhook received but WEBHOOK_SECRET is not configured")
		}
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	ev, err := x402.ParseWebhookEvent(raw)
	if err != nil {
		h.logger.Warn("unrecognized webhook payload", zap.Error(err))
		c.JSON(errUnrecognizedPayload.HTTPStatus, errUnrecognizedPayload.ToHTTPError())
		return
	}

	s, err := h.usecase.ApplyWebhookResult(c.Request.Context(), ev)
	if err != nil {
		h.logger.Error("apply webhook result failed", zap.Error(err))
		appErr := pkg.NewDomainError("INTERNAL_ERROR", "An internal error occurred", err, http.StatusInternalServerError)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	h.logger.Info("webhook applied",
		zap.String("payment_attempt_id", s.PaymentAttemptID),
		zap.String("status", string(s.Status)),
	)
	c.JSON(http.StatusOK, response.AckResponse{OK: true})
}
