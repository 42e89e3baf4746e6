// Package ledger implements the public operation surface of the
// confidential token ledger: public and private mints, shielding and
// unshielding, transfers, burns and the escrow lifecycle. Operations
// compose the state, authwit and notelog packages and run atomically: a
// ledger-wide mutex serializes them and each one executes inside a single
// state batch that commits in full or not at all.
package ledger

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.vocdoni.io/dvote/log"

	"github.com/cloakledger/cloak/authwit"
	"github.com/cloakledger/cloak/crypto/hash/poseidon"
	"github.com/cloakledger/cloak/note"
	"github.com/cloakledger/cloak/notelog"
	"github.com/cloakledger/cloak/state"
	"github.com/cloakledger/cloak/types"
	"go.vocdoni.io/dvote/db"
)

// Operation selectors, bound into authorization-witness message hashes.
// Stable wire identifiers; renaming one invalidates outstanding witnesses.
const (
	SelectorTransferPublic = "transfer_public"
	SelectorBurnPublic     = "burn_public"
	SelectorShield         = "shield"
	SelectorUnshield       = "unshield"
	SelectorTransfer       = "transfer"
	SelectorBurn           = "burn"
	SelectorEscrow         = "escrow"
	SelectorSettleEscrow   = "settle_escrow"
)

// Config carries the dependencies a Ledger needs.
type Config struct {
	DB       db.Database
	LedgerID types.HexBytes
	// Admin is the address the one-time initializer installs as admin
	// and first minter. Ignored when the database is already
	// initialized.
	Admin common.Address
	// Sink receives encrypted escrow note broadcasts. Defaults to an
	// in-memory sink.
	Sink notelog.Sink
}

// Ledger is the confidential token ledger. All methods are safe for
// concurrent use; operations are serialized and atomic.
type Ledger struct {
	mu       sync.Mutex
	st       *state.State
	registry *notelog.Registry
	sink     notelog.Sink
}

// New opens the ledger over the configured database, running the one-time
// initializer if the state is fresh.
func New(cfg Config) (*Ledger, error) {
	st, err := state.New(cfg.DB, cfg.LedgerID)
	if err != nil {
		return nil, err
	}
	initialized, err := st.Initialized()
	if err != nil {
		return nil, err
	}
	if !initialized {
		if err := st.StartBatch(); err != nil {
			return nil, err
		}
		if err := st.Initialize(cfg.Admin); err != nil {
			st.DiscardBatch()
			return nil, err
		}
		if err := st.EndBatch(); err != nil {
			return nil, err
		}
		log.Infow("ledger initialized", "admin", cfg.Admin.String(), "ledgerId", cfg.LedgerID.String())
	}
	sink := cfg.Sink
	if sink == nil {
		sink = notelog.NewMemorySink()
	}
	return &Ledger{
		st:       st,
		registry: notelog.NewRegistry(cfg.DB),
		sink:     sink,
	}, nil
}

// Close releases the underlying state.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.st.Close()
}

// Registry returns the encryption-key registry accounts use to receive
// note broadcasts.
func (l *Ledger) Registry() *notelog.Registry {
	return l.registry
}

// call is one nested call on an operation's call stack.
type call struct {
	name string
	fn   func() error
}

// opContext collects the nested calls an operation enqueues. They run
// after the initiating call's own logic, in declaration order, inside the
// same batch; a nested failure aborts the whole operation.
type opContext struct {
	stack []call
}

func (o *opContext) enqueue(name string, fn func() error) {
	o.stack = append(o.stack, call{name: name, fn: fn})
}

func (o *opContext) run() error {
	for _, c := range o.stack {
		if err := c.fn(); err != nil {
			return fmt.Errorf("%s: %w", c.name, err)
		}
	}
	return nil
}

// runOp executes one top-level operation atomically: the op body first,
// then its call stack, all on one batch. Any failure discards the batch so
// no partial effects survive.
func (l *Ledger) runOp(op func(ctx *opContext) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.st.StartBatch(); err != nil {
		return err
	}
	ctx := &opContext{}
	err := op(ctx)
	if err == nil {
		err = ctx.run()
	}
	if err != nil {
		l.st.DiscardBatch()
		return err
	}
	return l.st.EndBatch()
}

// authorize validates that caller may act for principal on the action
// described by (selector, args). Direct calls need no witness but must
// carry the zero sentinel nonce; delegated calls need a valid witness from
// the principal, consumed on the spot.
func (l *Ledger) authorize(caller, principal common.Address, selector string, nonce uint64, args []*big.Int, w *authwit.Witness) error {
	if caller == principal {
		if nonce != types.ZeroNonce {
			return fmt.Errorf("%w: nonce must be zero on non-delegated calls", state.ErrInvalidNonce)
		}
		return nil
	}
	msg := authwit.MessageHash(caller, l.st.LedgerID(), selector, args)
	if w == nil {
		return fmt.Errorf("%w: missing witness for delegated call", state.ErrUnauthorized)
	}
	if err := w.Verify(msg, principal); err != nil {
		return fmt.Errorf("%w: %v", state.ErrUnauthorized, err)
	}
	return l.st.ConsumeAuthWitness(msg)
}

// requireAdmin fails unless caller is the current admin.
func (l *Ledger) requireAdmin(caller common.Address) error {
	admin, err := l.st.Admin()
	if err != nil {
		return err
	}
	if caller != admin {
		return fmt.Errorf("%w: caller %s is not admin", state.ErrUnauthorized, caller)
	}
	return nil
}

// requireMinter fails unless caller holds minter rights.
func (l *Ledger) requireMinter(caller common.Address) error {
	minter, err := l.st.IsMinter(caller)
	if err != nil {
		return err
	}
	if !minter {
		return fmt.Errorf("%w: caller %s is not a minter", state.ErrUnauthorized, caller)
	}
	return nil
}

// addPrivate issues a fresh value note for owner.
func (l *Ledger) addPrivate(owner common.Address, amount uint64) error {
	return l.st.AddNote(note.NewValue(l.st.LedgerID(), owner, amount))
}

// subtractPrivate spends owner's value notes to cover amount, greedily
// selecting unspent notes and re-issuing any remainder as a change note
// back to owner.
func (l *Ledger) subtractPrivate(owner common.Address, amount uint64) error {
	notes, err := l.st.UnspentValueNotes(owner)
	if err != nil {
		return err
	}
	var selected []*note.Note
	var total uint64
	for _, n := range notes {
		if total >= amount {
			break
		}
		selected = append(selected, n)
		total += n.Amount
	}
	if total < amount {
		return fmt.Errorf("%w: private balance of %s", state.ErrInsufficientBalance, owner)
	}
	for _, n := range selected {
		if err := l.st.SpendNote(n, nil); err != nil {
			return err
		}
	}
	if change := total - amount; change > 0 {
		return l.addPrivate(owner, change)
	}
	return nil
}

// addrField reduces an address into the hash field for message hashing.
func addrField(a common.Address) *big.Int {
	return poseidon.BytesToFF(a.Bytes())
}

func uintField(v uint64) *big.Int {
	return new(big.Int).SetUint64(v)
}
