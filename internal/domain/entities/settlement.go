package entities

import (
	"encoding/json"
	"time"
)

// SettlementStatus represents the lifecycle of a settlement.
//
// Transitions:
//   - queued -> processing (worker claim)
//   - queued|processing -> settled|failed (worker or webhook)
//   - processing -> queued (reconciliation of stuck rows)
//
// settled and failed are terminal.
type SettlementStatus string

const (
	SettlementStatusQueued     SettlementStatus = "queued"
	SettlementStatusProcessing SettlementStatus = "processing"
	SettlementStatusSettled    SettlementStatus = "settled"
	SettlementStatusFailed     SettlementStatus = "failed"
)

func (s SettlementStatus) IsTerminal() bool {
	return s == SettlementStatusSettled || s == SettlementStatusFailed
}

func (s SettlementStatus) IsValid() bool {
	switch s {
	case SettlementStatusQueued, SettlementStatusProcessing, SettlementStatusSettled, SettlementStatusFailed:
		return true
	}
	return false
}

// Settlement tracks turning one verified payment attempt into a finalized transfer.
//
// Storage model:
//   - unique key: payment_attempt_id (at most one row per attempt)
//   - FacilitatorRequest is opaque JSON; FacilitatorResponse is nil until finalized.
type Settlement struct {
	ID                  string           `json:"id"`
	PaymentAttemptID    string           `json:"payment_attempt_id"`
	FacilitatorRequest  json.RawMessage  `json:"facilitator_request"`
	FacilitatorResponse json.RawMessage  `json:"facilitator_response,omitempty"`
	Status              SettlementStatus `json:"status"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

type LogLevel string

const (
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// SettlementLog is one audit entry attached to a settlement.
type SettlementLog struct {
	ID           string          `json:"id"`
	SettlementID string          `json:"settlement_id"`
	Level        LogLevel        `json:"level"`
	Message      string          `json:"message"`
	Meta         map[string]any  `json:"meta,omitempty"`
	Response     json.RawMessage `json:"response,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}
