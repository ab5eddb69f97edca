package middleware

import (
	"net/http"
	"x402_gateway/internal/domain/x402"
	"x402_gateway/internal/usecase"
	"x402_gateway/pkg"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	ctxAttemptID = "x402.payment_attempt_id"
	ctxPayer     = "x402.payer"
)

type PaymentGateOptions struct {
	// ResourceRootURL prefixes the request path to form the resource URL.
	// Empty means scheme://host of the incoming request.
	ResourceRootURL string
	// Worker, when set, drives one ProcessOne after the protected handler returns.
	Worker usecase.ISettlementWorker
}

// PaymentGate protects the routes behind it with an x402 payment.
func PaymentGate(gate usecase.IAccessGateUseCase, opts PaymentGateOptions, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		resource := resourceURL(c, opts.ResourceRootURL)
		d, err := gate.Evaluate(c.Request.Context(), resource, c.GetHeader(x402.HeaderPayment))
		if err != nil {
			logger.Error("access gate failed", zap.String("resource", resource), zap.Error(err))
			appErr := pkg.NewDomainError("INTERNAL_ERROR", "An internal error occurred", err, http.StatusInternalServerError)
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToHTTPError())
			return
		}

		if !d.Allowed() {
			if d.HTTPStatus == http.StatusPaymentRequired {
				accepts := d.Requirements
				if accepts == nil {
					accepts = []x402.PaymentRequirement{}
				}
				c.AbortWithStatusJSON(http.StatusPaymentRequired, x402.PaymentRequired{
					X402Version: x402.Version,
					Error:       d.Reason,
					Accepts:     accepts,
				})
				return
			}
			appErr := pkg.NewDomainErrorSimple(d.Reason, d.Detail, d.HTTPStatus)
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToHTTPError())
			return
		}

		c.Set(ctxAttemptID, d.AttemptID)
		c.Set(ctxPayer, d.Payer)
		c.Header(x402.HeaderAttemptID, d.AttemptID)
		if d.Payer != "" {
			c.Header(x402.HeaderPayer, d.Payer)
		}

		c.Next()

		if opts.Worker != nil && d.Settlement != nil {
			if _, _, err := opts.Worker.ProcessOne(c.Request.Context()); err != nil {
				logger.Error("inline settlement failed", zap.String("payment_attempt_id", d.AttemptID), zap.Error(err))
			}
		}
	}
}

// PaymentAttemptID returns the attempt id stored by PaymentGate.
func PaymentAttemptID(c *gin.Context) string {
	return c.GetString(ctxAttemptID)
}

func PaymentPayer(c *gin.Context) string {
	return c.GetString(ctxPayer)
}

func resourceURL(c *gin.Context, root string) string {
	if root == "" {
		scheme := "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
		if fwd := c.GetHeader("X-Forwarded-Proto"); fwd != "" {
			scheme = fwd
		}
		root = scheme + "://" + c.Request.Host
	}
	return root + c.Request.URL.Path
}
