package codegen

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// DefaultLength gives roughly 62^9 possible codes, enough that collisions are
// handled by an insert-retry rather than a reservation scheme.
const DefaultLength = 9

// Generator produces short codes. Uniqueness is not guaranteed here; the
// store's primary-key constraint is the arbiter and callers retry on conflict.
type Generator interface {
	Generate(length int) (string, error)
}

type secureGenerator struct{}

// NewSecure returns a Generator backed by crypto/rand. Codes must not be
// enumerable, so a seeded PRNG is not acceptable here.
func NewSecure() Generator {
	return secureGenerator{}
}

func (secureGenerator) Generate(length int) (string, error) {
	if length <= 0 {
		length = DefaultLength
	}

	buf := make([]byte, length)
	max := big.NewInt(int64(len(alphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("codegen: read random: %w", err)
		}
		buf[i] = alphabet[n.Int64()]
	}
	return string(buf), nil
}
