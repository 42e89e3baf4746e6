// Package notelog delivers note plaintexts to their intended recipients
// through an encrypted log. The ledger hands a serialized note and a
// recipient address to the registry; if the recipient registered an
// encryption key, the payload is ECIES-encrypted to it and emitted on the
// configured sink. Note discovery by the recipient's client is outside
// this package.
package notelog

import (
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/crypto/ecies"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

var pfxEncryptionKeys = []byte("ek/")

// Sink receives ECIES-encrypted payloads addressed to a recipient's
// registered public key. Implementations transport or persist them;
// failures propagate to the emitting operation.
type Sink interface {
	Emit(recipient *ecies.PublicKey, ciphertext []byte) error
}

// Registry stores the encryption public keys accounts registered for
// receiving note plaintexts.
type Registry struct {
	db db.Database
}

// NewRegistry creates a registry over the passed database.
func NewRegistry(database db.Database) *Registry {
	return &Registry{db: database}
}

// Register stores the compressed secp256k1 public key addr wants note
// plaintexts encrypted to.
func (r *Registry) Register(addr common.Address, compressedPubKey []byte) error {
	if _, err := ethcrypto.DecompressPubkey(compressedPubKey); err != nil {
		return fmt.Errorf("invalid encryption key: %w", err)
	}
	wTx := prefixeddb.NewPrefixedWriteTx(r.db.WriteTx(), pfxEncryptionKeys)
	if err := wTx.Set(addr.Bytes(), compressedPubKey); err != nil {
		return err
	}
	return wTx.Commit()
}

// PublicKey returns the encryption key registered by addr, or ok=false
// when none is registered.
func (r *Registry) PublicKey(addr common.Address) (*ecies.PublicKey, bool, error) {
	data, err := prefixeddb.NewPrefixedReader(r.db, pfxEncryptionKeys).Get(addr.Bytes())
	if errors.Is(err, db.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	pub, err := ethcrypto.DecompressPubkey(data)
	if err != nil {
		return nil, false, fmt.Errorf("corrupt encryption key for %s: %w", addr, err)
	}
	return ecies.ImportECDSAPublic(pub), true, nil
}

// Encrypt seals a payload to the recipient's key.
func Encrypt(recipient *ecies.PublicKey, payload []byte) ([]byte, error) {
	return ecies.Encrypt(rand.Reader, recipient, payload, nil, nil)
}

// MemorySink captures emitted ciphertexts in memory. Used by tests and by
// deployments that scrape the log out-of-band.
type MemorySink struct {
	entries []Entry
}

// Entry is one emitted ciphertext.
type Entry struct {
	Recipient  *ecies.PublicKey
	Ciphertext []byte
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (m *MemorySink) Emit(recipient *ecies.PublicKey, ciphertext []byte) error {
	m.entries = append(m.entries, Entry{Recipient: recipient, Ciphertext: ciphertext})
	return nil
}

// Entries returns everything emitted so far.
func (m *MemorySink) Entries() []Entry {
	return m.entries
}
