package util

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/cloakledger/cloak/crypto/hash/poseidon"
)

// RandomBytes generates a random byte slice of length n.
func RandomBytes(n int) []byte {
	b := make([]byte, n)
	_, err := rand.Read(b)
	if err != nil {
		panic(err)
	}
	return b
}

// Random32 generates a random 32-byte array.
func Random32() [32]byte {
	var bytes [32]byte
	copy(bytes[:], RandomBytes(32))
	return bytes
}

// RandomHex generates a random hex string of length n.
func RandomHex(n int) string {
	return fmt.Sprintf("%x", RandomBytes(n))
}

// RandomFieldElement generates a random element of the BN254 scalar field.
// Used for note uniqueness nonces and blinding factors.
func RandomFieldElement() *big.Int {
	return poseidon.BytesToFF(RandomBytes(32))
}

// TrimHex trims the '0x' prefix from a hex string.
func TrimHex(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
