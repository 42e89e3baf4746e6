package state

import (
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/ethereum/go-ethereum/common"
	"go.vocdoni.io/dvote/db/metadb"

	"github.com/cloakledger/cloak/note"
	"github.com/cloakledger/cloak/types"
	"github.com/cloakledger/cloak/util"
)

var (
	testAdmin = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	testOwner = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
)

func newTestState(t *testing.T) *State {
	t.Helper()
	s, err := New(metadb.NewTest(t), types.HexBytes(util.RandomBytes(types.LedgerIDLen)))
	qt.Assert(t, err, qt.IsNil)
	return s
}

func TestInitialize(t *testing.T) {
	c := qt.New(t)
	s := newTestState(t)

	initialized, err := s.Initialized()
	c.Assert(err, qt.IsNil)
	c.Assert(initialized, qt.IsFalse)

	c.Assert(s.StartBatch(), qt.IsNil)
	c.Assert(s.Initialize(testAdmin), qt.IsNil)
	c.Assert(s.EndBatch(), qt.IsNil)

	admin, err := s.Admin()
	c.Assert(err, qt.IsNil)
	c.Assert(admin, qt.Equals, testAdmin)

	minter, err := s.IsMinter(testAdmin)
	c.Assert(err, qt.IsNil)
	c.Assert(minter, qt.IsTrue)

	supply, err := s.TotalSupply()
	c.Assert(err, qt.IsNil)
	c.Assert(supply, qt.Equals, uint64(0))

	// the initializer is one-time
	c.Assert(s.StartBatch(), qt.IsNil)
	c.Assert(s.Initialize(testOwner), qt.IsNotNil)
	s.DiscardBatch()
}

func TestBatchAtomicity(t *testing.T) {
	c := qt.New(t)
	s := newTestState(t)

	c.Assert(s.StartBatch(), qt.IsNil)
	c.Assert(s.CreditPublic(testOwner, 100), qt.IsNil)
	s.DiscardBatch()

	// discarded writes are not visible
	balance, err := s.PublicBalanceOf(testOwner)
	c.Assert(err, qt.IsNil)
	c.Assert(balance, qt.Equals, uint64(0))

	// mutations outside a batch are rejected
	c.Assert(s.CreditPublic(testOwner, 100), qt.IsNotNil)

	c.Assert(s.StartBatch(), qt.IsNil)
	c.Assert(s.CreditPublic(testOwner, 100), qt.IsNil)
	// an open batch observes its own staged writes
	balance, err = s.PublicBalanceOf(testOwner)
	c.Assert(err, qt.IsNil)
	c.Assert(balance, qt.Equals, uint64(100))
	c.Assert(s.EndBatch(), qt.IsNil)

	balance, err = s.PublicBalanceOf(testOwner)
	c.Assert(err, qt.IsNil)
	c.Assert(balance, qt.Equals, uint64(100))
}

func TestCheckedArithmetic(t *testing.T) {
	c := qt.New(t)
	s := newTestState(t)

	c.Assert(s.StartBatch(), qt.IsNil)
	defer s.DiscardBatch()

	c.Assert(s.CreditPublic(testOwner, ^uint64(0)), qt.IsNil)
	c.Assert(s.CreditPublic(testOwner, 1), qt.ErrorIs, ErrOverflow)
	c.Assert(s.DebitPublic(testOwner, ^uint64(0)), qt.IsNil)
	c.Assert(s.DebitPublic(testOwner, 1), qt.ErrorIs, ErrInsufficientBalance)

	c.Assert(s.AddSupply(^uint64(0)), qt.IsNil)
	c.Assert(s.AddSupply(1), qt.ErrorIs, ErrOverflow)
	c.Assert(s.SubSupply(^uint64(0)), qt.IsNil)
	c.Assert(s.SubSupply(1), qt.ErrorIs, ErrInsufficientBalance)
}

func TestNoteLifecycle(t *testing.T) {
	c := qt.New(t)
	s := newTestState(t)

	n := note.NewValue(s.LedgerID(), testOwner, 40)
	cm, err := n.Commitment()
	c.Assert(err, qt.IsNil)

	c.Assert(s.StartBatch(), qt.IsNil)
	c.Assert(s.AddNote(n), qt.IsNil)
	c.Assert(s.EndBatch(), qt.IsNil)

	has, err := s.HasCommitment(cm)
	c.Assert(err, qt.IsNil)
	c.Assert(has, qt.IsTrue)

	balance, err := s.PrivateBalanceOf(testOwner)
	c.Assert(err, qt.IsNil)
	c.Assert(balance, qt.Equals, uint64(40))

	// spend it
	c.Assert(s.StartBatch(), qt.IsNil)
	c.Assert(s.SpendNote(n, nil), qt.IsNil)
	c.Assert(s.EndBatch(), qt.IsNil)

	balance, err = s.PrivateBalanceOf(testOwner)
	c.Assert(err, qt.IsNil)
	c.Assert(balance, qt.Equals, uint64(0))

	// the commitment stays; only the nullifier shadows it
	has, err = s.HasCommitment(cm)
	c.Assert(err, qt.IsNil)
	c.Assert(has, qt.IsTrue)
	nf, err := n.Nullifier(nil)
	c.Assert(err, qt.IsNil)
	spent, err := s.HasNullifier(nf)
	c.Assert(err, qt.IsNil)
	c.Assert(spent, qt.IsTrue)

	// spending twice is a nullifier collision
	c.Assert(s.StartBatch(), qt.IsNil)
	c.Assert(s.SpendNote(n, nil), qt.ErrorIs, ErrAlreadySpent)
	s.DiscardBatch()
}

func TestShieldNoteLookup(t *testing.T) {
	c := qt.New(t)
	s := newTestState(t)

	secret := big.NewInt(42424242)
	secretHash, err := note.SecretHash(secret)
	c.Assert(err, qt.IsNil)

	c.Assert(s.StartBatch(), qt.IsNil)
	c.Assert(s.AddNote(note.NewTransparent(s.LedgerID(), 75, secretHash)), qt.IsNil)
	c.Assert(s.EndBatch(), qt.IsNil)

	found, err := s.FindShieldNote(75, secretHash)
	c.Assert(err, qt.IsNil)
	c.Assert(found.Amount, qt.Equals, uint64(75))

	// wrong amount or wrong hash miss
	_, err = s.FindShieldNote(76, secretHash)
	c.Assert(err, qt.ErrorIs, ErrShieldNotFound)
	_, err = s.FindShieldNote(75, big.NewInt(1))
	c.Assert(err, qt.ErrorIs, ErrShieldNotFound)

	total, err := s.PendingShieldTotal()
	c.Assert(err, qt.IsNil)
	c.Assert(total, qt.Equals, uint64(75))

	// once spent the note disappears from the pool
	c.Assert(s.StartBatch(), qt.IsNil)
	c.Assert(s.SpendNote(found, secret), qt.IsNil)
	c.Assert(s.EndBatch(), qt.IsNil)
	_, err = s.FindShieldNote(75, secretHash)
	c.Assert(err, qt.ErrorIs, ErrShieldNotFound)
}

func TestEscrowPagination(t *testing.T) {
	c := qt.New(t)
	s := newTestState(t)

	var notes []*note.Note
	c.Assert(s.StartBatch(), qt.IsNil)
	for i := 0; i < 23; i++ {
		n := note.NewEscrow(s.LedgerID(), testOwner, uint64(i+1))
		c.Assert(s.AddNote(n), qt.IsNil)
		notes = append(notes, n)
	}
	c.Assert(s.EndBatch(), qt.IsNil)

	page, err := s.ListEscrows(0)
	c.Assert(err, qt.IsNil)
	c.Assert(page, qt.HasLen, types.EscrowPageSize)
	// oldest first
	c.Assert(page[0].Amount, qt.Equals, uint64(1))
	c.Assert(page[9].Amount, qt.Equals, uint64(10))

	page, err = s.ListEscrows(20)
	c.Assert(err, qt.IsNil)
	c.Assert(page, qt.HasLen, 3)
	c.Assert(page[2].Amount, qt.Equals, uint64(23))

	page, err = s.ListEscrows(23)
	c.Assert(err, qt.IsNil)
	c.Assert(page, qt.HasLen, 0)

	// settling the second note removes it from the listing
	c.Assert(s.StartBatch(), qt.IsNil)
	c.Assert(s.SpendNote(notes[1], nil), qt.IsNil)
	c.Assert(s.EndBatch(), qt.IsNil)
	page, err = s.ListEscrows(0)
	c.Assert(err, qt.IsNil)
	c.Assert(page[1].Amount, qt.Equals, uint64(3))

	_, err = s.FindEscrowNote(notes[1].Blinding.MathBigInt())
	c.Assert(err, qt.ErrorIs, ErrEscrowNotFound)
}

func TestConsumeAuthWitness(t *testing.T) {
	c := qt.New(t)
	s := newTestState(t)

	msg := util.RandomFieldElement()
	c.Assert(s.StartBatch(), qt.IsNil)
	c.Assert(s.ConsumeAuthWitness(msg), qt.IsNil)
	// same batch, second consumption fails
	c.Assert(s.ConsumeAuthWitness(msg), qt.ErrorIs, ErrUnauthorized)
	c.Assert(s.EndBatch(), qt.IsNil)

	c.Assert(s.StartBatch(), qt.IsNil)
	c.Assert(s.ConsumeAuthWitness(msg), qt.ErrorIs, ErrUnauthorized)
	s.DiscardBatch()
}

func TestLedgerIDMismatch(t *testing.T) {
	c := qt.New(t)

	database := metadb.NewTest(t)
	id := types.HexBytes(util.RandomBytes(types.LedgerIDLen))
	_, err := New(database, id)
	c.Assert(err, qt.IsNil)

	// reopening with the same id works, another id is rejected
	_, err = New(database, id)
	c.Assert(err, qt.IsNil)
	_, err = New(database, types.HexBytes(util.RandomBytes(types.LedgerIDLen)))
	c.Assert(err, qt.IsNotNil)
}
