package monnify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"PAID", "settled"},
		{"OVERPAID", "settled"},
		{"FAILED", "failed"},
		{"EXPIRED", "failed"},
		{"CANCELLED", "failed"},
		{"PENDING", "pending"},
		{"PARTIALLY_PAID", "pending"},
		{"", "pending"},
		{"SOMETHING_NEW", "pending"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeStatus(tt.in))
		})
	}
}

func TestSignature(t *testing.T) {
	body := []byte(`{"eventType":"SUCCESSFUL_TRANSACTION"}`)
	sig := Signature(body, []byte("secret"))

	assert.Len(t, sig, 128)
	assert.True(t, VerifySignature(body, sig, "secret"))
	assert.False(t, VerifySignature(body, sig, "wrong"))
	assert.False(t, VerifySignature([]byte("{}"), sig, "secret"))
}
