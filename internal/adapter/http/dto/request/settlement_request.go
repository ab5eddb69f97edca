package request

import (
	"encoding/json"
	"strings"
)

// ManualSettleRequest is the body of the dev settlement trigger.
//
// `facilitator_request` is stored as-is; when absent the worker applies a
// simulated success.
type ManualSettleRequest struct {
	PaymentAttemptID   string          `json:"payment_attempt_id"`
	FacilitatorRequest json.RawMessage `json:"facilitator_request,omitempty" swaggertype:"object"`
	ProcessNow         bool            `json:"processNow"`
}

func (r ManualSettleRequest) ResolveAttemptID() string {
	return strings.TrimSpace(r.PaymentAttemptID)
}

// ResolveFacilitatorRequest treats JSON null as absent.
func (r ManualSettleRequest) ResolveFacilitatorRequest() json.RawMessage {
	v := strings.TrimSpace(string(r.FacilitatorRequest))
	if v == "" || v == "null" {
		return nil
	}
	return r.FacilitatorRequest
}
