package x402

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

var ErrUnrecognizedPayload = errors.New("unrecognized webhook payload")

// WebhookEvent is a facilitator callback. SettleResponse is optional; when it
// is absent the facilitator is reporting a successful settlement.
type WebhookEvent struct {
	PaymentPayload      PaymentPayload     `json:"paymentPayload"`
	PaymentRequirements PaymentRequirement `json:"paymentRequirements"`
	SettleResponse      *SettleResponse    `json:"settleResponse,omitempty"`
}

// Settled reports the outcome the event carries.
func (e WebhookEvent) Settled() bool {
	return e.SettleResponse == nil || e.SettleResponse.Success
}

const webhookSchemaJSON = `{
  "type": "object",
  "required": ["paymentPayload", "paymentRequirements"],
  "properties": {
    "paymentPayload": {
      "type": "object",
      "required": ["scheme", "network", "payload"],
      "properties": {
        "scheme": {"type": "string", "minLength": 1},
        "network": {"type": "string", "minLength": 1},
        "payload": {
          "type": "object",
          "required": ["signature", "authorization"],
          "properties": {
            "signature": {"type": "string", "minLength": 1},
            "authorization": {
              "type": "object",
              "required": ["from", "to", "value", "validBefore"],
              "properties": {
                "from": {"type": "string"},
                "to": {"type": "string"},
                "value": {"type": ["string", "integer"]},
                "validAfter": {"type": ["string", "integer"]},
                "validBefore": {"type": ["string", "integer"]},
                "nonce": {"type": "string"}
              }
            }
          }
        }
      }
    },
    "paymentRequirements": {
      "type": "object",
      "required": ["scheme", "network"],
      "properties": {
        "scheme": {"type": "string"},
        "network": {"type": "string"}
      }
    },
    "settleResponse": {
      "type": "object",
      "required": ["success"],
      "properties": {
        "success": {"type": "boolean"},
        "transaction": {"type": "string"},
        "errorReason": {"type": "string"},
        "network": {"type": "string"},
        "payer": {"type": "string"}
      }
    }
  }
}`

var webhookSchema = gojsonschema.NewStringLoader(webhookSchemaJSON)

// ParseWebhookEvent checks raw against the callback shape before decoding it.
// Signature verification must already have happened.
func ParseWebhookEvent(raw []byte) (WebhookEvent, error) {
	if !json.Valid(raw) {
		return WebhookEvent{}, fmt.Errorf("%w: body is not valid json", ErrUnrecognizedPayload)
	}
	result, err := gojsonschema.Validate(webhookSchema, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return WebhookEvent{}, fmt.Errorf("%w: %v", ErrUnrecognizedPayload, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, fmt.Sprintf("%s: %s", desc.Context().String(), desc.Description()))
		}
		return WebhookEvent{}, fmt.Errorf("%w: %s", ErrUnrecognizedPayload, strings.Join(msgs, "; "))
	}

	var ev WebhookEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return WebhookEvent{}, fmt.Errorf("%w: %v", ErrUnrecognizedPayload, err)
	}
	return ev, nil
}
