package state

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fxamacker/cbor/v2"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"

	"github.com/cloakledger/cloak/note"
	"github.com/cloakledger/cloak/types"
)

// The note indexes cache the plaintext of unspent notes so the ledger can
// select notes to spend and answer balance queries. They are derived data:
// the commitment and nullifier sets remain the sole arbiters of note
// validity, and index entries are deleted as soon as the note's nullifier
// is inserted.

// escrowRecord is the stored form of an unspent escrow note, carrying its
// insertion sequence for oldest-first pagination.
type escrowRecord struct {
	Seq  uint64     `cbor:"0,keyasint"`
	Note *note.Note `cbor:"1,keyasint"`
}

// EscrowEntry is the paginated view of an unspent escrow note.
type EscrowEntry struct {
	Owner          common.Address `json:"owner"`
	Amount         uint64         `json:"amount"`
	BlindingFactor *types.BigInt  `json:"blindingFactor"`
}

func encodeNote(n *note.Note) ([]byte, error) {
	encOpts := cbor.CoreDetEncOptions()
	em, err := encOpts.EncMode()
	if err != nil {
		return nil, fmt.Errorf("encode note: %w", err)
	}
	return em.Marshal(n)
}

func decodeNote(data []byte) (*note.Note, error) {
	n := &note.Note{}
	if err := cbor.Unmarshal(data, n); err != nil {
		return nil, fmt.Errorf("decode note: %w", err)
	}
	return n, nil
}

func fieldKey(v *big.Int) []byte {
	key := make([]byte, 32)
	v.FillBytes(key)
	return key
}

// AddNote inserts the note's commitment into the commitment set and
// indexes its plaintext for later selection.
func (s *State) AddNote(n *note.Note) error {
	cm, err := n.Commitment()
	if err != nil {
		return err
	}
	if err := s.InsertCommitment(cm); err != nil {
		return err
	}
	wTx, err := s.writeTx()
	if err != nil {
		return err
	}
	data, err := encodeNote(n)
	if err != nil {
		return err
	}
	switch n.Kind {
	case note.KindValue:
		key := append(n.Owner.Bytes(), fieldKey(cm)...)
		return prefixeddb.NewPrefixedWriteTx(wTx, pfxValueNotes).Set(key, data)
	case note.KindTransparent:
		key := append(fieldKey(n.SecretHash.MathBigInt()), fieldKey(cm)...)
		return prefixeddb.NewPrefixedWriteTx(wTx, pfxShieldNotes).Set(key, data)
	case note.KindEscrow:
		return s.indexEscrow(wTx, n)
	}
	return fmt.Errorf("unknown note kind %d", n.Kind)
}

func (s *State) indexEscrow(wTx db.WriteTx, n *note.Note) error {
	seq, err := s.nextEscrowSeq(wTx)
	if err != nil {
		return err
	}
	record, err := encodeEscrowRecord(&escrowRecord{Seq: seq, Note: n})
	if err != nil {
		return err
	}
	blinding := fieldKey(n.Blinding.MathBigInt())
	if err := prefixeddb.NewPrefixedWriteTx(wTx, pfxEscrowNotes).Set(blinding, record); err != nil {
		return err
	}
	return prefixeddb.NewPrefixedWriteTx(wTx, pfxEscrowSeq).Set(encodeUint64(seq), blinding)
}

func encodeEscrowRecord(r *escrowRecord) ([]byte, error) {
	encOpts := cbor.CoreDetEncOptions()
	em, err := encOpts.EncMode()
	if err != nil {
		return nil, err
	}
	return em.Marshal(r)
}

func (s *State) nextEscrowSeq(wTx db.WriteTx) (uint64, error) {
	meta := prefixeddb.NewPrefixedReader(s.reader(), pfxMeta)
	var seq uint64
	data, err := meta.Get(keyEscrowSeq)
	switch {
	case err == nil:
		seq = binary.BigEndian.Uint64(data)
	case errors.Is(err, db.ErrKeyNotFound):
		seq = 0
	default:
		return 0, err
	}
	if err := prefixeddb.NewPrefixedWriteTx(wTx, pfxMeta).Set(keyEscrowSeq, encodeUint64(seq+1)); err != nil {
		return 0, err
	}
	return seq, nil
}

// SpendNote inserts the note's nullifier (failing with ErrAlreadySpent on
// a double spend) and drops its index entry. For transparent notes the
// secret must be the revealed preimage of the note's secret hash.
func (s *State) SpendNote(n *note.Note, secret *big.Int) error {
	nf, err := n.Nullifier(secret)
	if err != nil {
		return err
	}
	if err := s.InsertNullifier(nf); err != nil {
		return err
	}
	wTx, err := s.writeTx()
	if err != nil {
		return err
	}
	cm, err := n.Commitment()
	if err != nil {
		return err
	}
	switch n.Kind {
	case note.KindValue:
		key := append(n.Owner.Bytes(), fieldKey(cm)...)
		return prefixeddb.NewPrefixedWriteTx(wTx, pfxValueNotes).Delete(key)
	case note.KindTransparent:
		key := append(fieldKey(n.SecretHash.MathBigInt()), fieldKey(cm)...)
		return prefixeddb.NewPrefixedWriteTx(wTx, pfxShieldNotes).Delete(key)
	case note.KindEscrow:
		blinding := fieldKey(n.Blinding.MathBigInt())
		record, err := prefixeddb.NewPrefixedReader(s.reader(), pfxEscrowNotes).Get(blinding)
		if err != nil {
			return err
		}
		var stored escrowRecord
		if err := cbor.Unmarshal(record, &stored); err != nil {
			return err
		}
		if err := prefixeddb.NewPrefixedWriteTx(wTx, pfxEscrowNotes).Delete(blinding); err != nil {
			return err
		}
		return prefixeddb.NewPrefixedWriteTx(wTx, pfxEscrowSeq).Delete(encodeUint64(stored.Seq))
	}
	return fmt.Errorf("unknown note kind %d", n.Kind)
}

// UnspentValueNotes returns the unspent value notes of owner in index key
// order.
func (s *State) UnspentValueNotes(owner common.Address) ([]*note.Note, error) {
	var notes []*note.Note
	var iterErr error
	err := prefixeddb.NewPrefixedReader(s.reader(), pfxValueNotes).Iterate(owner.Bytes(), func(_, v []byte) bool {
		n, err := decodeNote(v)
		if err != nil {
			iterErr = err
			return false
		}
		notes = append(notes, n)
		return true
	})
	if err != nil {
		return nil, err
	}
	if iterErr != nil {
		return nil, iterErr
	}
	return notes, nil
}

// PrivateBalanceOf returns the sum of owner's unspent value note amounts.
// It is an aggregate over the note store, not a stored counter.
func (s *State) PrivateBalanceOf(owner common.Address) (uint64, error) {
	notes, err := s.UnspentValueNotes(owner)
	if err != nil {
		return 0, err
	}
	var balance uint64
	for _, n := range notes {
		balance += n.Amount
	}
	return balance, nil
}

// FindShieldNote locates an unspent pending-shield note matching the
// amount and secret hash, failing with ErrShieldNotFound when none exists.
func (s *State) FindShieldNote(amount uint64, secretHash *big.Int) (*note.Note, error) {
	var found *note.Note
	var iterErr error
	err := prefixeddb.NewPrefixedReader(s.reader(), pfxShieldNotes).Iterate(fieldKey(secretHash), func(_, v []byte) bool {
		n, err := decodeNote(v)
		if err != nil {
			iterErr = err
			return false
		}
		if n.Amount == amount {
			found = n
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if iterErr != nil {
		return nil, iterErr
	}
	if found == nil {
		return nil, ErrShieldNotFound
	}
	return found, nil
}

// FindEscrowNote locates an unspent escrow note by its blinding factor,
// failing with ErrEscrowNotFound when none exists.
func (s *State) FindEscrowNote(blindingFactor *big.Int) (*note.Note, error) {
	data, err := prefixeddb.NewPrefixedReader(s.reader(), pfxEscrowNotes).Get(fieldKey(blindingFactor))
	if errors.Is(err, db.ErrKeyNotFound) {
		return nil, ErrEscrowNotFound
	}
	if err != nil {
		return nil, err
	}
	var stored escrowRecord
	if err := cbor.Unmarshal(data, &stored); err != nil {
		return nil, err
	}
	return stored.Note, nil
}

// ListEscrows returns up to EscrowPageSize unspent escrow entries starting
// at offset, oldest first.
func (s *State) ListEscrows(offset int) ([]EscrowEntry, error) {
	reader := s.reader()
	escrows := prefixeddb.NewPrefixedReader(reader, pfxEscrowNotes)
	var entries []EscrowEntry
	var iterErr error
	skipped := 0
	err := prefixeddb.NewPrefixedReader(reader, pfxEscrowSeq).Iterate(nil, func(_, blinding []byte) bool {
		if skipped < offset {
			skipped++
			return true
		}
		if len(entries) == types.EscrowPageSize {
			return false
		}
		data, err := escrows.Get(blinding)
		if err != nil {
			iterErr = err
			return false
		}
		var stored escrowRecord
		if err := cbor.Unmarshal(data, &stored); err != nil {
			iterErr = err
			return false
		}
		entries = append(entries, EscrowEntry{
			Owner:          stored.Note.Owner,
			Amount:         stored.Note.Amount,
			BlindingFactor: stored.Note.Blinding,
		})
		return true
	})
	if err != nil {
		return nil, err
	}
	if iterErr != nil {
		return nil, iterErr
	}
	return entries, nil
}

// UnspentValueTotal sums every unspent value note amount across all
// owners. Used by supply conservation checks.
func (s *State) UnspentValueTotal() (uint64, error) {
	return s.sumIndex(pfxValueNotes)
}

// PendingShieldTotal sums every unspent pending-shield note amount.
func (s *State) PendingShieldTotal() (uint64, error) {
	return s.sumIndex(pfxShieldNotes)
}

// EscrowTotal sums every unspent escrow note amount.
func (s *State) EscrowTotal() (uint64, error) {
	var total uint64
	var iterErr error
	err := prefixeddb.NewPrefixedReader(s.reader(), pfxEscrowNotes).Iterate(nil, func(_, v []byte) bool {
		var stored escrowRecord
		if err := cbor.Unmarshal(v, &stored); err != nil {
			iterErr = err
			return false
		}
		total += stored.Note.Amount
		return true
	})
	if err != nil {
		return 0, err
	}
	if iterErr != nil {
		return 0, iterErr
	}
	return total, nil
}

func (s *State) sumIndex(prefix []byte) (uint64, error) {
	var total uint64
	var iterErr error
	err := prefixeddb.NewPrefixedReader(s.reader(), prefix).Iterate(nil, func(_, v []byte) bool {
		n, err := decodeNote(v)
		if err != nil {
			iterErr = err
			return false
		}
		total += n.Amount
		return true
	})
	if err != nil {
		return 0, err
	}
	if iterErr != nil {
		return 0, iterErr
	}
	return total, nil
}
