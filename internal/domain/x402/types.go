package x402

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	// Version is the protocol version carried in challenges and payloads.
	Version = 1

	SchemeExact = "exact"

	HeaderPayment   = "X-PAYMENT"
	HeaderAttemptID = "X-PAYMENT-ATTEMPT-ID"
	HeaderPayer     = "X-PAYMENT-PAYER"

	DefaultMimeType          = "application/json"
	DefaultMaxTimeoutSeconds = 60
)

// PaymentRequirement describes one accepted way to pay for a resource.
type PaymentRequirement struct {
	Scheme            string         `json:"scheme"`
	Network           string         `json:"network"`
	MaxAmountRequired string         `json:"maxAmountRequired"`
	Resource          string         `json:"resource"`
	Description       string         `json:"description"`
	MimeType          string         `json:"mimeType"`
	PayTo             string         `json:"payTo"`
	MaxTimeoutSeconds int            `json:"maxTimeoutSeconds"`
	Asset             string         `json:"asset"`
	FacilitatorURL    string         `json:"facilitatorUrl,omitempty"`
	Extra             map[string]any `json:"extra,omitempty"`
}

// PaymentRequired is the 402 response body.
type PaymentRequired struct {
	X402Version int                  `json:"x402Version"`
	Error       string               `json:"error,omitempty"`
	Accepts     []PaymentRequirement `json:"accepts"`
}

// Numeric is a decimal integer carried as a JSON string.
// Unmarshalling also accepts a bare JSON number.
type Numeric string

func (n *Numeric) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = Numeric(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("numeric field: %w", err)
	}
	*n = Numeric(num.String())
	return nil
}

func (n Numeric) String() string { return string(n) }

// Authorization is the EIP-3009 style transfer authorization signed by the buyer.
type Authorization struct {
	From        string  `json:"from"`
	To          string  `json:"to"`
	Value       Numeric `json:"value"`
	ValidAfter  Numeric `json:"validAfter"`
	ValidBefore Numeric `json:"validBefore"`
	Nonce       string  `json:"nonce"`
}

type ExactPayload struct {
	Signature     string        `json:"signature"`
	Authorization Authorization `json:"authorization"`
}

// PaymentPayload is the buyer's proof of payment.
type PaymentPayload struct {
	X402Version int          `json:"x402Version"`
	Scheme      string       `json:"scheme"`
	Network     string       `json:"network"`
	Payload     ExactPayload `json:"payload"`
}

// Envelope is what travels base64-encoded in the X-PAYMENT header.
type Envelope struct {
	PaymentPayload      PaymentPayload      `json:"paymentPayload"`
	PaymentRequirements *PaymentRequirement `json:"paymentRequirements,omitempty"`
}

type VerifyResponse struct {
	IsValid       bool   `json:"isValid"`
	InvalidReason string `json:"invalidReason,omitempty"`
	Payer         string `json:"payer,omitempty"`
}

type SettleResponse struct {
	Success     bool   `json:"success"`
	ErrorReason string `json:"errorReason,omitempty"`
	Payer       string `json:"payer,omitempty"`
	Transaction string `json:"transaction"`
	Network     string `json:"network"`
}

type SupportedKind struct {
	X402Version int            `json:"x402Version"`
	Scheme      string         `json:"scheme"`
	Network     string         `json:"network"`
	Extra       map[string]any `json:"extra,omitempty"`
}

type SupportedResponse struct {
	Kinds []SupportedKind `json:"kinds"`
}

// FacilitatorRequest is the body sent to the facilitator verify and settle endpoints,
// and the facilitator_request persisted with a settlement.
type FacilitatorRequest struct {
	X402Version         int                `json:"x402Version"`
	PaymentPayload      PaymentPayload     `json:"paymentPayload"`
	PaymentRequirements PaymentRequirement `json:"paymentRequirements"`
}
