package response

import (
	"encoding/json"
	"time"
	"x402_gateway/internal/domain/entities"
)

type SettlementResponse struct {
	ID                  string          `json:"id"`
	PaymentAttemptID    string          `json:"payment_attempt_id"`
	Status              string          `json:"status"`
	FacilitatorRequest  json.RawMessage `json:"facilitator_request,omitempty" swaggertype:"object"`
	FacilitatorResponse json.RawMessage `json:"facilitator_response,omitempty" swaggertype:"object"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

type ManualSettleResponse struct {
	OK         bool               `json:"ok"`
	Settlement SettlementResponse `json:"settlement"`
}

type SettlementListResponse struct {
	Settlements []SettlementResponse `json:"settlements"`
	Count       int                  `json:"count"`
}

type ReconcileResponse struct {
	OK       bool `json:"ok"`
	Requeued int  `json:"requeued"`
}

type AckResponse struct {
	OK bool `json:"ok"`
}

func FromSettlement(s entities.Settlement) SettlementResponse {
	return SettlementResponse{
		ID:                  s.ID,
		PaymentAttemptID:    s.PaymentAttemptID,
		Status:              string(s.Status),
		FacilitatorRequest:  s.FacilitatorRequest,
		FacilitatorResponse: s.FacilitatorResponse,
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           s.UpdatedAt,
	}
}

func FromSettlements(list []entities.Settlement) SettlementListResponse {
	out := SettlementListResponse{Settlements: make([]SettlementResponse, 0, len(list))}
	for _, s := range list {
		out.Settlements = append(out.Settlements, FromSettlement(s))
	}
	out.Count = len(out.Settlements)
	return out
}
