// Package authwit implements the authorization-witness protocol: a
// principal signs a message hash binding (designated caller, ledger
// identity, operation selector, ordered arguments), and the designated
// caller presents the signature to act on the principal's behalf exactly
// once. Consumption bookkeeping lives in the state package; this package
// covers hashing, signing and verification.
package authwit

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/cloakledger/cloak/crypto/hash/poseidon"
	"github.com/cloakledger/cloak/types"
)

// Witness is the signature artifact a delegated caller presents. It is
// bound to one exact message hash and consumed at most once.
type Witness struct {
	Signature types.HexBytes `json:"signature" cbor:"0,keyasint"`
}

// MessageHash computes the digest a witness must sign: a MiMC hash over
// the designated caller, the ledger identity, the operation selector and
// the ordered argument list. Any change to any input yields an unrelated
// digest, so a witness authorizes one exact action on one ledger.
func MessageHash(caller common.Address, ledgerID types.HexBytes, selector string, args []*big.Int) *big.Int {
	h := mimc.NewMiMC()
	writeField(h, poseidon.BytesToFF(caller.Bytes()))
	writeField(h, poseidon.BytesToFF(ledgerID))
	writeField(h, poseidon.BytesToFF(ethcrypto.Keccak256([]byte(selector))))
	for _, arg := range args {
		writeField(h, poseidon.BigToFF(arg))
	}
	return new(big.Int).SetBytes(h.Sum(nil))
}

// writeField feeds a reduced field element into the MiMC state. The hash
// only accepts canonical 32-byte field encodings.
func writeField(h interface{ Write([]byte) (int, error) }, v *big.Int) {
	var el fr.Element
	el.SetBigInt(v)
	b := el.Bytes()
	h.Write(b[:]) //nolint:errcheck
}

// Verify checks that the witness signature over msgHash recovers to the
// principal's address.
func (w *Witness) Verify(msgHash *big.Int, principal common.Address) error {
	if w == nil || len(w.Signature) == 0 {
		return fmt.Errorf("empty witness")
	}
	digest := digestBytes(msgHash)
	pub, err := ethcrypto.SigToPub(digest, w.Signature)
	if err != nil {
		return fmt.Errorf("cannot recover witness signer: %w", err)
	}
	if ethcrypto.PubkeyToAddress(*pub) != principal {
		return fmt.Errorf("witness not authorized by principal %s", principal)
	}
	return nil
}

// digestBytes left-pads the message hash to the 32 bytes secp256k1
// signing expects.
func digestBytes(msgHash *big.Int) []byte {
	digest := make([]byte, 32)
	msgHash.FillBytes(digest)
	return digest
}
