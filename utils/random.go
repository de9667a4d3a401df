package utils

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
	"strings"
)

const (
	// ReferencePrefix is shared by ticket ids and provider references.
	ReferencePrefix = "SPTX-TX-"

	refDigits  = 8
	refLetters = 2
)

// GenerateReference returns an identifier of the form SPTX-TX- followed
// by a 10-character payload: 8 random digits with 2 random uppercase
// letters interleaved at random positions. The payload is legible and
// non-sequential but not a uniqueness guarantee; that comes from the
// unique index on the payment reference.
func GenerateReference() (string, error) {
	digits := make([]byte, refDigits)
	for i := range digits {
		n, err := randInt(10)
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + n)
	}

	letters := make([]byte, refLetters)
	for i := range letters {
		n, err := randInt(26)
		if err != nil {
			return "", err
		}
		letters[i] = byte('A' + n)
	}

	// pos1 in [0,8), pos2 in [pos1+1, 8]; pos2 == 8 inserts at the end.
	p, err := randInt(refDigits)
	if err != nil {
		return "", err
	}
	pos1 := int(p)
	q, err := randInt(int64(refDigits - pos1))
	if err != nil {
		return "", err
	}
	pos2 := pos1 + 1 + int(q)

	var b strings.Builder
	b.WriteString(ReferencePrefix)
	b.Write(digits[:pos1])
	b.WriteByte(letters[0])
	b.Write(digits[pos1:pos2])
	b.WriteByte(letters[1])
	b.Write(digits[pos2:])
	return b.String(), nil
}

// MustGenerateReference panics if the runtime random source fails.
func MustGenerateReference() string {
	ref, err := GenerateReference()
	if err != nil {
		panic(err)
	}
	return ref
}

func randInt(max int64) (int64, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(max))
	if err != nil {
		return 0, err
	}
	return n.Int64(), nil
}

// GenerateCode returns an uppercase hex string of n random bytes, used
// for request ids sent to gateways.
func GenerateCode(n int) (string, error) {
	byt := make([]byte, n)
	if _, err := rand.Read(byt); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(byt)), nil
}
