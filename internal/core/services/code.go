package services

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"tablestakes/internal/core/domain"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewSessionCode returns a random 6-character uppercase alphanumeric code
func NewSessionCode() (string, error) {
	buf := make([]byte, domain.CodeLength)
	limit := big.NewInt(int64(len(codeAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generate session code: %w", err)
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
