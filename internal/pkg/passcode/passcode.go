package passcode

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// Length is the number of decimal digits in every code.
//
// The width is load-bearing: the spoken script, the stored digest, and the
// login form all assume codes of exactly this length.
const Length = 6

// Generator mints fixed-length numeric verification codes.
type Generator interface {
	// Generate returns a fresh Length-digit decimal code.
	Generate() string
}

// Numeric generates codes using crypto/rand.
type Numeric struct{}

// NewNumeric returns a Numeric code generator.
func NewNumeric() *Numeric {
	return &Numeric{}
}

const digits = "0123456789"

// Generate returns a Length-digit decimal string.
//
// It panics if the random source fails; see the package doc.
func (n *Numeric) Generate() string {
	var sb strings.Builder
	sb.Grow(Length)

	for range Length {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			panic("passcode: random source unavailable: " + err.Error())
		}
		sb.WriteByte(digits[idx.Int64()])
	}

	return sb.String()
}
