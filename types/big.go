package types

import (
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"
)

// BigInt wraps math/big.Int with decimal-string JSON marshaling and
// byte-slice CBOR marshaling, so it can travel through both the HTTP API
// and the deterministic artifact encoding.
type BigInt big.Int

// MathBigInt converts b to a *big.Int.
func (b *BigInt) MathBigInt() *big.Int {
	return (*big.Int)(b)
}

// SetBigInt sets b to the value of i and returns b.
func (b *BigInt) SetBigInt(i *big.Int) *BigInt {
	(*big.Int)(b).Set(i)
	return b
}

func (b *BigInt) String() string {
	return (*big.Int)(b).String()
}

func (b *BigInt) MarshalJSON() ([]byte, error) {
	return []byte(`"` + b.String() + `"`), nil
}

func (b *BigInt) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if _, ok := (*big.Int)(b).SetString(s, 10); !ok {
		return fmt.Errorf("cannot parse big integer %q", s)
	}
	return nil
}

func (b *BigInt) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal((*big.Int)(b).Bytes())
}

func (b *BigInt) UnmarshalCBOR(data []byte) error {
	var buf []byte
	if err := cbor.Unmarshal(data, &buf); err != nil {
		return err
	}
	(*big.Int)(b).SetBytes(buf)
	return nil
}
