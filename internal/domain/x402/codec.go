package x402

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"
)

type DecodeErrorKind string

const (
	KindMalformedHeader DecodeErrorKind = "malformed_header"
	KindInvalidShape    DecodeErrorKind = "invalid_shape"
)

var (
	ErrMalformedHeader = errors.New("malformed payment header")
	ErrInvalidShape    = errors.New("invalid payment payload shape")
)

// DecodeError is the tagged failure returned by DecodeHeader.
type DecodeError struct {
	Kind   DecodeErrorKind
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *DecodeError) Is(target error) bool {
	switch target {
	case ErrMalformedHeader:
		return e.Kind == KindMalformedHeader
	case ErrInvalidShape:
		return e.Kind == KindInvalidShape
	}
	return false
}

func malformed(format string, args ...any) *DecodeError {
	return &DecodeError{Kind: KindMalformedHeader, Reason: fmt.Sprintf(format, args...)}
}

func invalidShape(format string, args ...any) *DecodeError {
	return &DecodeError{Kind: KindInvalidShape, Reason: fmt.Sprintf(format, args...)}
}

// EncodeHeader returns base64(JSON(env)). Field order is fixed by the struct
// definitions and map keys are sorted, so equal envelopes encode to equal bytes.
func EncodeHeader(env Envelope) (string, error) {
	b, err := json.Marshal(env)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// DecodeHeader parses an X-PAYMENT value. It accepts the full envelope or a
// bare payment payload. Any failure is a *DecodeError.
func DecodeHeader(header string) (Envelope, error) {
	raw, err := decodeBase64(strings.TrimSpace(header))
	if err != nil {
		return Envelope{}, err
	}
	if !json.Valid(raw) {
		return Envelope{}, malformed("header is not valid json")
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return Envelope{}, invalidShape("header is not a json object")
	}

	var env Envelope
	if _, ok := top["paymentPayload"]; ok {
		if err := json.Unmarshal(raw, &env); err != nil {
			return Envelope{}, invalidShape("envelope: %v", err)
		}
	} else {
		if err := json.Unmarshal(raw, &env.PaymentPayload); err != nil {
			return Envelope{}, invalidShape("payload: %v", err)
		}
	}

	if err := validatePayload(env.PaymentPayload); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

func decodeBase64(s string) ([]byte, error) {
	if s == "" {
		return nil, malformed("empty header")
	}
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.URLEncoding, base64.RawStdEncoding, base64.RawURLEncoding} {
		if b, err := enc.DecodeString(s); err == nil {
			return b, nil
		}
	}
	return nil, malformed("header is not valid base64")
}

func validatePayload(p PaymentPayload) error {
	if strings.TrimSpace(p.Payload.Signature) == "" {
		return invalidShape("payload.signature is required")
	}
	a := p.Payload.Authorization
	switch {
	case strings.TrimSpace(a.From) == "":
		return invalidShape("payload.authorization.from is required")
	case strings.TrimSpace(a.To) == "":
		return invalidShape("payload.authorization.to is required")
	case a.Value == "":
		return invalidShape("payload.authorization.value is required")
	case a.ValidBefore == "":
		return invalidShape("payload.authorization.validBefore is required")
	}
	if _, ok := parseUnsigned(a.Value); !ok {
		return invalidShape("payload.authorization.value is not an unsigned integer")
	}
	if _, ok := parseUnsigned(a.ValidBefore); !ok {
		return invalidShape("payload.authorization.validBefore is not an unsigned integer")
	}
	if a.ValidAfter != "" {
		if _, ok := parseUnsigned(a.ValidAfter); !ok {
			return invalidShape("payload.authorization.validAfter is not an unsigned integer")
		}
	}
	return nil
}

func parseUnsigned(n Numeric) (*big.Int, bool) {
	v, ok := new(big.Int).SetString(string(n), 10)
	if !ok || v.Sign() < 0 {
		return nil, false
	}
	return v, true
}

// IsExpired reports whether now falls outside [validAfter, validBefore].
// Unparseable bounds count as expired.
func IsExpired(a Authorization, now time.Time) bool {
	before, ok := parseUnsigned(a.ValidBefore)
	if !ok {
		return true
	}
	after := big.NewInt(0)
	if a.ValidAfter != "" {
		if after, ok = parseUnsigned(a.ValidAfter); !ok {
			return true
		}
	}
	ts := big.NewInt(now.Unix())
	return ts.Cmp(before) > 0 || ts.Cmp(after) < 0
}

// AttemptID derives the settlement key for a payment: hex(sha256(JSON(payload))).
// A retried identical header maps to the same id.
func AttemptID(p PaymentPayload) (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// NonceKey scopes a nonce to payer, asset and network.
func NonceKey(network, asset string, a Authorization) string {
	return strings.ToLower(network) + "|" + strings.ToLower(asset) + "|" + strings.ToLower(a.From) + "|" + a.Nonce
}
