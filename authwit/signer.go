package authwit

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/cloakledger/cloak/types"
	"github.com/cloakledger/cloak/util"
)

// SignKeys holds a secp256k1 keypair identifying a ledger principal.
// The keccak-derived address of the public key is the principal's account
// address.
type SignKeys struct {
	Public  ecdsa.PublicKey
	Private ecdsa.PrivateKey
}

// NewSignKeys creates an empty SignKeys; call Generate or AddHexKey before
// using it.
func NewSignKeys() *SignKeys {
	return &SignKeys{}
}

// Generate creates a fresh random keypair.
func (s *SignKeys) Generate() error {
	key, err := ethcrypto.GenerateKey()
	if err != nil {
		return err
	}
	s.Private = *key
	s.Public = key.PublicKey
	return nil
}

// AddHexKey imports a hex-encoded private key.
func (s *SignKeys) AddHexKey(privHex string) error {
	key, err := ethcrypto.HexToECDSA(util.TrimHex(privHex))
	if err != nil {
		return err
	}
	s.Private = *key
	s.Public = key.PublicKey
	return nil
}

// HexString returns the compressed public key and the private key as hex
// strings, without the 0x prefix.
func (s *SignKeys) HexString() (string, string) {
	pub := hex.EncodeToString(s.PublicKey())
	priv := hex.EncodeToString(ethcrypto.FromECDSA(&s.Private))
	return pub, priv
}

// PublicKey returns the compressed public key bytes.
func (s *SignKeys) PublicKey() []byte {
	return ethcrypto.CompressPubkey(&s.Public)
}

// Address returns the account address derived from the public key.
func (s *SignKeys) Address() common.Address {
	return ethcrypto.PubkeyToAddress(s.Public)
}

// AddressString returns the checksummed string form of Address.
func (s *SignKeys) AddressString() string {
	return s.Address().String()
}

// Sign produces a witness signature over a precomputed message hash.
func (s *SignKeys) Sign(msgHash *big.Int) (*Witness, error) {
	if s.Private.D == nil {
		return nil, fmt.Errorf("no private key available")
	}
	sig, err := ethcrypto.Sign(digestBytes(msgHash), &s.Private)
	if err != nil {
		return nil, err
	}
	return &Witness{Signature: sig}, nil
}

// Authorize builds the message hash for the given action and signs it,
// producing a witness that lets caller perform exactly that action on this
// principal's behalf.
func (s *SignKeys) Authorize(caller common.Address, ledgerID types.HexBytes, selector string, args []*big.Int) (*Witness, error) {
	return s.Sign(MessageHash(caller, ledgerID, selector, args))
}
