// Package poseidon provides the hashing used for note commitments,
// nullifiers and shield secret hashes. All hashes are poseidon over the
// BN254 scalar field; arbitrary byte strings are first reduced into the
// field.
package poseidon

import (
	"fmt"
	"math/big"

	"github.com/iden3/go-iden3-crypto/poseidon"
)

// chunkSize is the widest poseidon permutation go-iden3-crypto supports.
const chunkSize = 16

// baseField is the BN254 scalar field order.
var baseField, _ = new(big.Int).SetString("21888242871839275222246405745257275088548364400416034343698204186575808495617", 10)

// MultiPoseidon hashes an arbitrary number of field elements by chunking
// them into poseidon permutations of up to 16 inputs and hashing the chunk
// hashes together.
func MultiPoseidon(inputs ...*big.Int) (*big.Int, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no inputs provided")
	} else if len(inputs) > 256 {
		return nil, fmt.Errorf("too many inputs")
	}
	hashes := []*big.Int{}
	chunk := []*big.Int{}
	for _, input := range inputs {
		if len(chunk) == chunkSize {
			hash, err := poseidon.Hash(chunk)
			if err != nil {
				return nil, err
			}
			hashes = append(hashes, hash)
			chunk = []*big.Int{}
		}
		chunk = append(chunk, input)
	}
	if len(chunk) > 0 {
		hash, err := poseidon.Hash(chunk)
		if err != nil {
			return nil, err
		}
		hashes = append(hashes, hash)
	}
	if len(hashes) == 1 {
		return hashes[0], nil
	}
	return poseidon.Hash(hashes)
}

// BigToFF returns the finite field representation of the provided big.Int,
// using euclidean modulus over the BN254 scalar field.
func BigToFF(iv *big.Int) *big.Int {
	z := big.NewInt(0)
	if c := iv.Cmp(baseField); c == 0 {
		return z
	} else if c != 1 && iv.Cmp(z) != -1 {
		return iv
	}
	return z.Mod(iv, baseField)
}

// BytesToFF interprets b as a big-endian integer and reduces it into the
// field. Used to feed addresses and identifiers into poseidon.
func BytesToFF(b []byte) *big.Int {
	return BigToFF(new(big.Int).SetBytes(b))
}
