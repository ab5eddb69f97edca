package handlers

import (
	"net/http"
	"time"
	"x402_gateway/internal/adapter/http/middleware"

	"github.com/gin-gonic/gin"
)

type ResourceResponse struct {
	Resource         string    `json:"resource"`
	PaymentAttemptID string    `json:"payment_attempt_id"`
	Payer            string    `json:"payer,omitempty"`
	ServedAt         time.Time `json:"served_at"`
}

// ResourceHandler is the paid content served behind the payment gate.
type ResourceHandler struct {
	now func() time.Time
}

func NewResourceHandler() *ResourceHandler {
	return &ResourceHandler{now: func() time.Time { return time.Now().UTC() }}
}

// Serve godoc
// @Summary      Paid resource
// @Description  Requires an X-PAYMENT header; answers 402 with the accepted payment requirements otherwise.
// @Tags         protected
// @Produce      json
// @Param        X-PAYMENT  header    string  false  "base64 payment envelope"
// @Success      200        {object}  ResourceResponse
// @Failure      400        {object}  pkg.HTTPError
// @Failure      402        {object}  x402.PaymentRequired
// @Failure      502        {object}  pkg.HTTPError
// @Router       /v1/protected/{path} [get]
func (h *ResourceHandler) Serve(c *gin.Context) {
	c.JSON(http.StatusOK, ResourceResponse{
		Resource:         c.Request.URL.Path,
		PaymentAttemptID: middleware.PaymentAttemptID(c),
		Payer:            middleware.PaymentPayer(c),
		ServedAt:         h.now(),
	})
}
