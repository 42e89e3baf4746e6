package poseidon

import (
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestMultiPoseidon(t *testing.T) {
	c := qt.New(t)

	// deterministic for the same inputs
	a, err := MultiPoseidon(big.NewInt(1), big.NewInt(2), big.NewInt(3))
	c.Assert(err, qt.IsNil)
	b, err := MultiPoseidon(big.NewInt(1), big.NewInt(2), big.NewInt(3))
	c.Assert(err, qt.IsNil)
	c.Assert(a.Cmp(b), qt.Equals, 0)

	// sensitive to input order
	d, err := MultiPoseidon(big.NewInt(3), big.NewInt(2), big.NewInt(1))
	c.Assert(err, qt.IsNil)
	c.Assert(a.Cmp(d), qt.Not(qt.Equals), 0)

	// no inputs is an error
	_, err = MultiPoseidon()
	c.Assert(err, qt.IsNotNil)

	// more than one chunk still hashes
	inputs := make([]*big.Int, 40)
	for i := range inputs {
		inputs[i] = big.NewInt(int64(i))
	}
	_, err = MultiPoseidon(inputs...)
	c.Assert(err, qt.IsNil)
}

func TestBigToFF(t *testing.T) {
	c := qt.New(t)

	c.Assert(BigToFF(new(big.Int).Set(baseField)).Sign(), qt.Equals, 0)
	small := big.NewInt(42)
	c.Assert(BigToFF(small).Cmp(small), qt.Equals, 0)
	over := new(big.Int).Add(baseField, big.NewInt(7))
	c.Assert(BigToFF(over).Cmp(big.NewInt(7)), qt.Equals, 0)
}
