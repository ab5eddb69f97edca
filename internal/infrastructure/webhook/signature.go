package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

const (
	SignatureHeader = "X-Hub-Signature"
	signaturePrefix = "sha256="
)

var (
	ErrMissingSignature = errors.New("missing signature")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrMissingSecret    = errors.New("webhook secret not configured")
)

// Sign returns the header value for body: "sha256=<hex hmac>".
func Sign(body, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// Check authenticates rawBody against the X-Hub-Signature value.
// It fails closed: an empty secret never validates.
func Check(rawBody []byte, header string, secret []byte) error {
	header = strings.TrimSpace(header)
	if header == "" {
		return ErrMissingSignature
	}
	if len(secret) == 0 {
		return ErrMissingSecret
	}
	if len(header) < len(signaturePrefix) || !strings.EqualFold(header[:len(signaturePrefix)], signaturePrefix) {
		return ErrInvalidSignature
	}
	got, err := hex.DecodeString(header[len(signaturePrefix):])
	if err != nil {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(rawBody)
	if !hmac.Equal(got, mac.Sum(nil)) {
		return ErrInvalidSignature
	}
	return nil
}

func Verify(rawBody []byte, header string, secret []byte) bool {
	return Check(rawBody, header, secret) == nil
}
