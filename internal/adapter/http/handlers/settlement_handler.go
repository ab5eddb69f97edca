package handlers

import (
	"errors"
	"net/http"
	request "x402_gateway/internal/adapter/http/dto/request"
	response "x402_gateway/internal/adapter/http/dto/response"
	"x402_gateway/internal/usecase"
	"x402_gateway/pkg"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	errDevSettleDisabled    = pkg.NewDomainErrorSimple("FORBIDDEN", "Dev settlement endpoints are disabled", http.StatusForbidden)
	errInvalidSettlePayload = pkg.NewDomainErrorSimple("INVALID_REQUEST", "payment_attempt_id is required", http.StatusBadRequest)
)

// SettlementHandler exposes the manual settlement trigger, reconciliation and
// the settlement read API.
//
// The dev routes are only served when DEV_SETTLE_ENABLED is on; reads require a
// session.
type SettlementHandler struct {
	usecase    usecase.ISettlementUseCase
	worker     usecase.ISettlementWorker
	devEnabled bool
	logger     *zap.Logger
}

func NewSettlementHandler(uc usecase.ISettlementUseCase, worker usecase.ISettlementWorker, devEnabled bool, logger *zap.Logger) *SettlementHandler {
	return &SettlementHandler{usecase: uc, worker: worker, devEnabled: devEnabled, logger: logger}
}

// ManualSettle godoc
// @Summary      Enqueue a settlement manually
// @Tags         dev
// @Accept       json
// @Produce      json
// @Param        payload  body      request.ManualSettleRequest  true  "Settlement trigger"
// @Success      202      {object}  response.ManualSettleResponse
// @Failure      400      {object}  pkg.HTTPError
// @Failure      403      {object}  pkg.HTTPError
// @Failure      500      {object}  pkg.HTTPError
// @Router       /v1/dev/settle [post]
func (h *SettlementHandler) ManualSettle(c *gin.Context) {
	if !h.devEnabled {
		c.JSON(errDevSettleDisabled.HTTPStatus, errDevSettleDisabled.ToHTTPError())
		return
	}

	var payload request.ManualSettleRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(errInvalidSettlePayload.HTTPStatus, errInvalidSettlePayload.ToHTTPError())
		return
	}
	attemptID := payload.ResolveAttemptID()
	if attemptID == "" {
		c.JSON(errInvalidSettlePayload.HTTPStatus, errInvalidSettlePayload.ToHTTPError())
		return
	}

	ctx := c.Request.Context()
	s, err := h.usecase.Enqueue(ctx, attemptID, payload.ResolveFacilitatorRequest())
	if err != nil {
		appErr := mapSettlementError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	if payload.ProcessNow && h.worker != nil {
		if _, _, err := h.worker.ProcessOne(ctx); err != nil {
			h.logger.Error("processNow failed", zap.String("payment_attempt_id", attemptID), zap.Error(err))
		}
		current, err := h.usecase.GetByAttemptID(ctx, attemptID)
		if err != nil {
			appErr := mapSettlementError(err)
			c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
			return
		}
		s = current
	}

	c.JSON(http.StatusAccepted, response.ManualSettleResponse{OK: true, Settlement: response.FromSettlement(s)})
}

// Reconcile godoc
// @Summary      Requeue settlements stuck in processing
// @Tags         dev
// @Produce      json
// @Success      200  {object}  response.ReconcileResponse
// @Failure      403  {object}  pkg.HTTPError
// @Failure      500  {object}  pkg.HTTPError
// @Router       /v1/dev/reconcile [post]
func (h *SettlementHandler) Reconcile(c *gin.Context) {
	if !h.devEnabled {
		c.JSON(errDevSettleDisabled.HTTPStatus, errDevSettleDisabled.ToHTTPError())
		return
	}

	n, err := h.worker.ReconcileStuck(c.Request.Context())
	if err != nil {
		appErr := mapSettlementError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	c.JSON(http.StatusOK, response.ReconcileResponse{OK: true, Requeued: n})
}

// GetSettlement godoc
// @Summary      Get a settlement by payment attempt id
// @Tags         settlements
// @Produce      json
// @Security     BearerAuth
// @Param        payment_attempt_id  path      string  true  "Payment attempt id"
// @Success      200                 {object}  response.SettlementResponse
// @Failure      401                 {object}  pkg.HTTPError
// @Failure      404                 {object}  pkg.HTTPError
// @Router       /v1/settlements/{payment_attempt_id} [get]
func (h *SettlementHandler) GetSettlement(c *gin.Context) {
	s, err := h.usecase.GetByAttemptID(c.Request.Context(), c.Param("payment_attempt_id"))
	if err != nil {
		appErr := mapSettlementError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	c.JSON(http.StatusOK, response.FromSettlement(s))
}

// ListSettlements godoc
// @Summary      List settlements
// @Tags         settlements
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "queued, processing, settled or failed"
// @Success      200     {object}  response.SettlementListResponse
// @Failure      400     {object}  pkg.HTTPError
// @Failure      401     {object}  pkg.HTTPError
// @Router       /v1/settlements [get]
func (h *SettlementHandler) ListSettlements(c *gin.Context) {
	list, err := h.usecase.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		appErr := mapSettlementError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	c.JSON(http.StatusOK, response.FromSettlements(list))
}

func mapSettlementError(err error) *pkg.AppError {
	switch {
	case errors.Is(err, usecase.ErrInvalidAttemptID):
		return pkg.NewDomainError("INVALID_REQUEST", "payment_attempt_id is required", err, http.StatusBadRequest)
	case errors.Is(err, usecase.ErrInvalidFacilitatorRequest):
		return pkg.NewDomainError("INVALID_REQUEST", "facilitator_request must be valid JSON", err, http.StatusBadRequest)
	case errors.Is(err, usecase.ErrInvalidStatusFilter):
		return pkg.NewDomainError("INVALID_STATUS", "status must be queued, processing, settled or failed", err, http.StatusBadRequest)
	case errors.Is(err, usecase.ErrSettlementNotFound):
		return pkg.NewDomainError("SETTLEMENT_NOT_FOUND", "Settlement not found", err, http.StatusNotFound)
	default:
		return pkg.NewDomainError("INTERNAL_ERROR", "An internal error occurred", err, http.StatusInternalServerError)
	}
}
