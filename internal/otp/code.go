package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const codeLength = 6

// GenerateCode returns length uniformly random decimal digits.
func GenerateCode(length int) (string, error) {
	var sb strings.Builder
	sb.Grow(length)

	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to read random digit: %w", err)
		}
		sb.WriteByte(byte('0' + n.Int64()))
	}

	return sb.String(), nil
}
