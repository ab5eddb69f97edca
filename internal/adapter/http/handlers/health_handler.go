package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type HealthResponse struct {
	Status             string `json:"status"`
	Store              string `json:"store"`
	FacilitatorBreaker string `json:"facilitator_breaker,omitempty"`
}

// HealthHandler reports liveness plus the facilitator breaker state.
// breakerState is nil when the facilitator runs in mock mode.
type HealthHandler struct {
	store        string
	breakerState func() string
}

func NewHealthHandler(store string, breakerState func() string) *HealthHandler {
	return &HealthHandler{store: store, breakerState: breakerState}
}

// Health godoc
// @Summary  Service health
// @Tags     health
// @Produce  json
// @Success  200  {object}  HealthResponse
// @Router   /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	resp := HealthResponse{Status: "ok", Store: h.store}
	if h.breakerState != nil {
		resp.FacilitatorBreaker = h.breakerState()
		if resp.FacilitatorBreaker == "open" {
			resp.Status = "degraded"
		}
	}
	c.JSON(http.StatusOK, resp)
}

// Ping godoc
// @Summary  Ping
// @Tags     health
// @Produce  json
// @Success  200  {object}  map[string]string
// @Router   /v1/ping [get]
func (h *HealthHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}
