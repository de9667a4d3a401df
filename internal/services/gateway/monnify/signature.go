package monnify

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
)

// Signature computes the hash Monnify sends in monnify-signature:
// hex HMAC-SHA512 of the raw body under the client secret.
func Signature(body, secret []byte) string {
	mac := hmac.New(sha512.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature compares in constant time.
func VerifySignature(body []byte, signature, secret string) bool {
	expected := Signature(body, []byte(secret))
	return hmac.Equal([]byte(signature), []byte(expected))
}
