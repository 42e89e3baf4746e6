// Package note implements the private value records of the ledger: value
// notes, transparent shield notes and escrow notes. Each note kind has its
// own serialization, commitment and nullifier derivation, selected through
// a closed per-kind table.
package note

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cloakledger/cloak/crypto/hash/poseidon"
	"github.com/cloakledger/cloak/types"
	"github.com/cloakledger/cloak/util"
)

// Kind tags the closed set of note variants.
type Kind uint8

const (
	// KindValue is a spendable private balance note.
	KindValue Kind = 1
	// KindTransparent is a public amount pending private redemption,
	// claimable by whoever knows the secret behind its secret hash.
	KindTransparent Kind = 2
	// KindEscrow is value held for later release by a designated
	// settlement owner.
	KindEscrow Kind = 3
)

func (k Kind) String() string {
	switch k {
	case KindValue:
		return "value"
	case KindTransparent:
		return "transparent"
	case KindEscrow:
		return "escrow"
	}
	return fmt.Sprintf("unknown(%d)", uint8(k))
}

// Header domain-separates commitments across note kinds, storage slots and
// ledger deployments. Two notes with identical bodies but different headers
// commit to different values.
type Header struct {
	LedgerID types.HexBytes `cbor:"0,keyasint"`
	Nonce    *types.BigInt  `cbor:"1,keyasint"`
	Slot     uint64         `cbor:"2,keyasint"`
}

// Note is the tagged union of the three note kinds. Owner is the note owner
// for value notes and the settlement owner for escrow notes; SecretHash is
// set only on transparent notes; Blinding only on value and escrow notes.
type Note struct {
	Kind       Kind           `cbor:"0,keyasint"`
	Header     Header         `cbor:"1,keyasint"`
	Amount     uint64         `cbor:"2,keyasint"`
	Owner      common.Address `cbor:"3,keyasint,omitempty"`
	SecretHash *types.BigInt  `cbor:"4,keyasint,omitempty"`
	Blinding   *types.BigInt  `cbor:"5,keyasint,omitempty"`
}

// codec holds the per-kind serialization and spending-key derivation. The
// table is closed: adding a kind means adding an entry here.
type codec struct {
	// fields returns the note body as field elements, in commitment order.
	fields func(n *Note) []*big.Int
	// spendKey returns the nullifier key material. The secret argument is
	// only consulted for transparent notes, where spending requires the
	// revealed preimage instead of stored blinding.
	spendKey func(n *Note, secret *big.Int) (*big.Int, error)
}

var codecs = map[Kind]codec{
	KindValue: {
		fields: func(n *Note) []*big.Int {
			return []*big.Int{
				new(big.Int).SetUint64(n.Amount),
				poseidon.BytesToFF(n.Owner.Bytes()),
				n.Blinding.MathBigInt(),
			}
		},
		spendKey: func(n *Note, _ *big.Int) (*big.Int, error) {
			if n.Blinding == nil {
				return nil, fmt.Errorf("value note has no blinding factor")
			}
			return n.Blinding.MathBigInt(), nil
		},
	},
	KindTransparent: {
		fields: func(n *Note) []*big.Int {
			return []*big.Int{
				new(big.Int).SetUint64(n.Amount),
				n.SecretHash.MathBigInt(),
			}
		},
		spendKey: func(n *Note, secret *big.Int) (*big.Int, error) {
			if secret == nil {
				return nil, fmt.Errorf("transparent note requires the revealed secret")
			}
			return secret, nil
		},
	},
	KindEscrow: {
		fields: func(n *Note) []*big.Int {
			return []*big.Int{
				new(big.Int).SetUint64(n.Amount),
				poseidon.BytesToFF(n.Owner.Bytes()),
				n.Blinding.MathBigInt(),
			}
		},
		spendKey: func(n *Note, _ *big.Int) (*big.Int, error) {
			if n.Blinding == nil {
				return nil, fmt.Errorf("escrow note has no blinding factor")
			}
			return n.Blinding.MathBigInt(), nil
		},
	},
}

// NewValue builds a value note for owner with a fresh uniqueness nonce and
// blinding factor.
func NewValue(ledgerID types.HexBytes, owner common.Address, amount uint64) *Note {
	return &Note{
		Kind: KindValue,
		Header: Header{
			LedgerID: ledgerID,
			Nonce:    (*types.BigInt)(util.RandomFieldElement()),
			Slot:     types.SlotPrivateBalances,
		},
		Amount:   amount,
		Owner:    owner,
		Blinding: (*types.BigInt)(util.RandomFieldElement()),
	}
}

// NewTransparent builds a pending-shield note claimable with the preimage
// of secretHash.
func NewTransparent(ledgerID types.HexBytes, amount uint64, secretHash *big.Int) *Note {
	return &Note{
		Kind: KindTransparent,
		Header: Header{
			LedgerID: ledgerID,
			Nonce:    (*types.BigInt)(util.RandomFieldElement()),
			Slot:     types.SlotPendingShields,
		},
		Amount:     amount,
		SecretHash: (*types.BigInt)(secretHash),
	}
}

// NewEscrow builds an escrow note releasable by settlementOwner. The fresh
// blinding factor is the only handle to locate the note later.
func NewEscrow(ledgerID types.HexBytes, settlementOwner common.Address, amount uint64) *Note {
	return &Note{
		Kind: KindEscrow,
		Header: Header{
			LedgerID: ledgerID,
			Nonce:    (*types.BigInt)(util.RandomFieldElement()),
			Slot:     types.SlotEscrows,
		},
		Amount:   amount,
		Owner:    settlementOwner,
		Blinding: (*types.BigInt)(util.RandomFieldElement()),
	}
}

// Commitment derives the note's one-way commitment from its kind tag,
// header and body fields.
func (n *Note) Commitment() (*big.Int, error) {
	cd, ok := codecs[n.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown note kind %d", n.Kind)
	}
	inputs := []*big.Int{
		new(big.Int).SetUint64(uint64(n.Kind)),
		new(big.Int).SetUint64(n.Header.Slot),
		poseidon.BytesToFF(n.Header.LedgerID),
		n.Header.Nonce.MathBigInt(),
	}
	inputs = append(inputs, cd.fields(n)...)
	return poseidon.MultiPoseidon(inputs...)
}

// Nullifier derives the note's nullifier from its commitment and the
// kind-specific spending key material. For transparent notes the secret
// argument must be the revealed preimage of the note's secret hash; other
// kinds ignore it.
func (n *Note) Nullifier(secret *big.Int) (*big.Int, error) {
	cd, ok := codecs[n.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown note kind %d", n.Kind)
	}
	cm, err := n.Commitment()
	if err != nil {
		return nil, err
	}
	key, err := cd.spendKey(n, secret)
	if err != nil {
		return nil, err
	}
	return poseidon.MultiPoseidon(cm, key)
}

// SecretHash derives the hash a shield secret must match to redeem a
// transparent note.
func SecretHash(secret *big.Int) (*big.Int, error) {
	return poseidon.MultiPoseidon(poseidon.BigToFF(secret))
}
