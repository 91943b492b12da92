package random

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

// NewServerSeed returns a hex-encoded seed of byteLen random bytes.
func NewServerSeed(byteLen int) (string, error) {
	const op = "lib.random.NewServerSeed"

	buf := make([]byte, byteLen)

	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return hex.EncodeToString(buf), nil
}

// NewLottoNumber returns a numeric string of exactly digits decimal digits.
// Leading zeros are allowed, the value is a string on purpose.
func NewLottoNumber(digits int) (string, error) {
	const op = "lib.random.NewLottoNumber"

	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)

	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return fmt.Sprintf("%0*d", digits, n), nil
}
