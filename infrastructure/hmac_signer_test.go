package infrastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHMACSigner_Verify(t *testing.T) {
	t.Parallel()

	signer := NewHMACSigner("secret")
	payload := DepositSignaturePayload("order_1", "pay_1")
	valid := signer.Sign(payload)

	tests := []struct {
		name      string
		signer    *HMACSigner
		payload   []byte
		signature string
		expected  bool
	}{
		{name: "valid signature", signer: signer, payload: payload, signature: valid, expected: true},
		{name: "tampered payload", signer: signer, payload: DepositSignaturePayload("order_1", "pay_2"), signature: valid, expected: false},
		{name: "wrong secret", signer: NewHMACSigner("other"), payload: payload, signature: valid, expected: false},
		{name: "not hex", signer: signer, payload: payload, signature: "zz-not-hex", expected: false},
		{name: "empty signature", signer: signer, payload: payload, signature: "", expected: false},
		{name: "empty secret", signer: NewHMACSigner(""), payload: payload, signature: NewHMACSigner("").Sign(payload), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.signer.Verify(tt.payload, tt.signature))
		})
	}
}

func TestHMACSigner_SignIsDeterministic(t *testing.T) {
	t.Parallel()

	signer := NewHMACSigner("secret")
	first := signer.Sign([]byte("body"))
	assert.Equal(t, first, signer.Sign([]byte("body")))
	assert.Len(t, first, 64)
	assert.NotEqual(t, first, signer.Sign([]byte("body2")))
}
