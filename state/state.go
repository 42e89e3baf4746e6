// Package state persists the ledger: the commitment and nullifier merkle
// trees, public account balances, the admin and minter roles, total supply,
// the unspent note indexes and the authorization-witness consumption set.
//
// All mutations happen inside a batch (a single database write
// transaction): StartBatch opens it, EndBatch commits it, DiscardBatch
// drops it. An operation that fails mid-way discards the batch, so either
// every state change of an operation is applied or none is.
package state

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"

	"github.com/vocdoni/arbo"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"

	"github.com/cloakledger/cloak/types"
)

// treeKeyLen is the byte length of commitment and nullifier tree keys.
const treeKeyLen = 32

// hashFunc is the hash function used in the commitment and nullifier trees.
var hashFunc = arbo.HashFunctionPoseidon

// Database key prefixes. The commitment and nullifier trees own their
// prefix entirely; the rest are flat key-value namespaces.
var (
	pfxCommitmentTree = []byte("ct/")
	pfxNullifierTree  = []byte("nt/")
	pfxAccounts       = []byte("ac/")
	pfxValueNotes     = []byte("vn/")
	pfxShieldNotes    = []byte("sn/")
	pfxEscrowSeq      = []byte("es/")
	pfxEscrowNotes    = []byte("en/")
	pfxAuthWitnesses  = []byte("aw/")
	pfxMeta           = []byte("md/")
)

var (
	keyLedgerID  = []byte("ledgerId")
	keyEscrowSeq = []byte("escrowSeq")
)

// State is the persisted ledger state handle. It is not safe for
// concurrent use; the ledger serializes operations on top of it.
type State struct {
	db          db.Database
	ledgerID    types.HexBytes
	commitments *arbo.Tree
	nullifiers  *arbo.Tree
	dbTx        db.WriteTx
}

// New opens (or creates) the ledger state stored in the passed database.
// The ledger identity is persisted on first open and must match on every
// later one, since it is bound into every note commitment.
func New(database db.Database, ledgerID types.HexBytes) (*State, error) {
	if len(ledgerID) != types.LedgerIDLen {
		return nil, fmt.Errorf("ledger id must be %d bytes", types.LedgerIDLen)
	}
	commitments, err := arbo.NewTree(arbo.Config{
		Database:     prefixeddb.NewPrefixedDatabase(database, pfxCommitmentTree),
		MaxLevels:    types.CommitmentTreeMaxLevels,
		HashFunction: hashFunc,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot open commitment tree: %w", err)
	}
	nullifiers, err := arbo.NewTree(arbo.Config{
		Database:     prefixeddb.NewPrefixedDatabase(database, pfxNullifierTree),
		MaxLevels:    types.NullifierTreeMaxLevels,
		HashFunction: hashFunc,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot open nullifier tree: %w", err)
	}
	s := &State{
		db:          database,
		ledgerID:    ledgerID,
		commitments: commitments,
		nullifiers:  nullifiers,
	}
	meta := prefixeddb.NewPrefixedReader(database, pfxMeta)
	stored, err := meta.Get(keyLedgerID)
	switch {
	case err == nil:
		if !bytes.Equal(stored, ledgerID) {
			return nil, fmt.Errorf("database belongs to ledger %x, not %x", stored, ledgerID)
		}
	case errors.Is(err, db.ErrKeyNotFound):
		wTx := prefixeddb.NewPrefixedWriteTx(database.WriteTx(), pfxMeta)
		if err := wTx.Set(keyLedgerID, ledgerID); err != nil {
			return nil, err
		}
		if err := wTx.Commit(); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}
	return s, nil
}

// LedgerID returns the ledger deployment identity.
func (s *State) LedgerID() types.HexBytes {
	return s.ledgerID
}

// Close closes the underlying database; no more operations can be done
// after this.
func (s *State) Close() error {
	if s.dbTx != nil {
		s.dbTx.Discard()
		s.dbTx = nil
	}
	return s.db.Close()
}

// StartBatch opens the write transaction all following mutations are
// staged on.
func (s *State) StartBatch() error {
	if s.dbTx != nil {
		return fmt.Errorf("batch already open")
	}
	s.dbTx = s.db.WriteTx()
	return nil
}

// EndBatch atomically commits every staged mutation.
func (s *State) EndBatch() error {
	if s.dbTx == nil {
		return fmt.Errorf("no open batch")
	}
	tx := s.dbTx
	s.dbTx = nil
	return tx.Commit()
}

// DiscardBatch drops every staged mutation.
func (s *State) DiscardBatch() {
	if s.dbTx != nil {
		s.dbTx.Discard()
		s.dbTx = nil
	}
}

// reader returns the view reads should go through: the open batch when
// there is one (so an operation observes its own staged writes), the
// database otherwise.
func (s *State) reader() db.Reader {
	if s.dbTx != nil {
		return s.dbTx
	}
	return s.db
}

// writeTx returns the open batch or an error when no batch is open. Every
// mutating method goes through it.
func (s *State) writeTx() (db.WriteTx, error) {
	if s.dbTx == nil {
		return nil, fmt.Errorf("need to StartBatch() first")
	}
	return s.dbTx, nil
}

// treeKey encodes a field element as a tree key, using the same
// little-endian layout arbo uses internally.
func treeKey(v *big.Int) []byte {
	return arbo.BigIntToBytes(treeKeyLen, v)
}

// InsertCommitment appends a note commitment to the write-once commitment
// set. Commitments are never removed, only shadowed by their nullifier.
func (s *State) InsertCommitment(cm *big.Int) error {
	wTx, err := s.writeTx()
	if err != nil {
		return err
	}
	treeTx := prefixeddb.NewPrefixedWriteTx(wTx, pfxCommitmentTree)
	if err := s.commitments.AddWithTx(treeTx, treeKey(cm), []byte{1}); err != nil {
		if errors.Is(err, arbo.ErrKeyAlreadyExists) {
			return fmt.Errorf("commitment %x already present", cm)
		}
		return err
	}
	return nil
}

// HasCommitment reports whether cm is present in the commitment set.
func (s *State) HasCommitment(cm *big.Int) (bool, error) {
	_, _, err := s.commitments.GetWithTx(prefixeddb.NewPrefixedReader(s.reader(), pfxCommitmentTree), treeKey(cm))
	if errors.Is(err, arbo.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// InsertNullifier marks a note spent. A nullifier can be accepted exactly
// once; a second insertion fails with ErrAlreadySpent. This check is the
// system's only double-spend defense.
func (s *State) InsertNullifier(nf *big.Int) error {
	wTx, err := s.writeTx()
	if err != nil {
		return err
	}
	spent, err := s.HasNullifier(nf)
	if err != nil {
		return err
	}
	if spent {
		return ErrAlreadySpent
	}
	treeTx := prefixeddb.NewPrefixedWriteTx(wTx, pfxNullifierTree)
	if err := s.nullifiers.AddWithTx(treeTx, treeKey(nf), []byte{1}); err != nil {
		if errors.Is(err, arbo.ErrKeyAlreadyExists) {
			return ErrAlreadySpent
		}
		return err
	}
	return nil
}

// HasNullifier reports whether nf is present in the nullifier set.
func (s *State) HasNullifier(nf *big.Int) (bool, error) {
	_, _, err := s.nullifiers.GetWithTx(prefixeddb.NewPrefixedReader(s.reader(), pfxNullifierTree), treeKey(nf))
	if errors.Is(err, arbo.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CommitmentRoot returns the commitment tree root, for consumption by the
// external proof system.
func (s *State) CommitmentRoot() (*big.Int, error) {
	root, err := s.commitments.Root()
	if err != nil {
		return nil, err
	}
	return arbo.BytesToBigInt(root), nil
}

// NullifierRoot returns the nullifier tree root.
func (s *State) NullifierRoot() (*big.Int, error) {
	root, err := s.nullifiers.Root()
	if err != nil {
		return nil, err
	}
	return arbo.BytesToBigInt(root), nil
}

// ConsumeAuthWitness marks the witness for msgHash consumed. The check and
// the mark happen on the same batch, so a witness can authorize at most
// one operation even under interleaved attempts.
func (s *State) ConsumeAuthWitness(msgHash *big.Int) error {
	wTx, err := s.writeTx()
	if err != nil {
		return err
	}
	key := make([]byte, 32)
	msgHash.FillBytes(key)
	awReader := prefixeddb.NewPrefixedReader(s.reader(), pfxAuthWitnesses)
	if _, err := awReader.Get(key); err == nil {
		return fmt.Errorf("%w: witness already consumed", ErrUnauthorized)
	} else if !errors.Is(err, db.ErrKeyNotFound) {
		return err
	}
	return prefixeddb.NewPrefixedWriteTx(wTx, pfxAuthWitnesses).Set(key, []byte{1})
}
