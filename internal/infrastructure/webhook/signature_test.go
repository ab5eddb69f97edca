package webhook

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheck(t *testing.T) {
	body := []byte(`{"some":"payload"}`)
	secret := []byte("whsec_test")
	sig := Sign(body, secret)

	cases := []struct {
		name   string
		body   []byte
		header string
		secret []byte
		want   error
	}{
		{"valid", body, sig, secret, nil},
		{"valid upper-case hex", body, "sha256=" + strings.ToUpper(strings.TrimPrefix(sig, "sha256=")), secret, nil},
		{"missing header", body, "", secret, ErrMissingSignature},
		{"missing secret", body, sig, nil, ErrMissingSecret},
		{"wrong secret", body, sig, []byte("other"), ErrInvalidSignature},
		{"body re-serialized", []byte(`{"some": "payload"}`), sig, secret, ErrInvalidSignature},
		{"no prefix", body, strings.TrimPrefix(sig, "sha256="), secret, ErrInvalidSignature},
		{"sha1 prefix", body, "sha1=" + strings.TrimPrefix(sig, "sha256="), secret, ErrInvalidSignature},
		{"not hex", body, "sha256=zzzz", secret, ErrInvalidSignature},
		{"truncated", body, sig[:len(sig)-2], secret, ErrInvalidSignature},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Check(tc.body, tc.header, tc.secret)
			if tc.want == nil {
				assert.NoError(t, err)
				assert.True(t, Verify(tc.body, tc.header, tc.secret))
				return
			}
			assert.ErrorIs(t, err, tc.want)
			assert.False(t, Verify(tc.body, tc.header, tc.secret))
		})
	}
}
