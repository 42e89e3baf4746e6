package ledger

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fxamacker/cbor/v2"
	"go.vocdoni.io/dvote/log"

	"github.com/cloakledger/cloak/authwit"
	"github.com/cloakledger/cloak/note"
	"github.com/cloakledger/cloak/notelog"
	"github.com/cloakledger/cloak/state"
	"github.com/cloakledger/cloak/types"
)

// EscrowArgs is the ordered argument list bound into an escrow witness
// message hash.
func EscrowArgs(from, settlementOwner common.Address, amount, nonce uint64) []*big.Int {
	return []*big.Int{addrField(from), addrField(settlementOwner), uintField(amount), uintField(nonce)}
}

// Escrow spends amount from from's private notes into an escrow note held
// for settlementOwner. It returns the note's blinding factor, the only
// handle to locate the note later short of decrypting a broadcast log.
func (l *Ledger) Escrow(caller, from, settlementOwner common.Address, amount, nonce uint64, w *authwit.Witness) (*types.BigInt, error) {
	var blinding *types.BigInt
	err := l.runOp(func(_ *opContext) error {
		if err := l.authorize(caller, from, SelectorEscrow, nonce, EscrowArgs(from, settlementOwner, amount, nonce), w); err != nil {
			return err
		}
		if err := l.subtractPrivate(from, amount); err != nil {
			return err
		}
		n := note.NewEscrow(l.st.LedgerID(), settlementOwner, amount)
		if err := l.st.AddNote(n); err != nil {
			return err
		}
		blinding = n.Blinding
		return nil
	})
	if err != nil {
		return nil, err
	}
	return blinding, nil
}

// SettleEscrowArgs is the ordered argument list bound into a settle_escrow
// witness message hash.
func SettleEscrowArgs(settlementOwner, recipient common.Address, blindingFactor *big.Int, nonce uint64) []*big.Int {
	return []*big.Int{addrField(settlementOwner), addrField(recipient), blindingFactor, uintField(nonce)}
}

// SettleEscrow releases the escrow note identified by blindingFactor to
// recipient's private balance. Only the note's settlement owner (or a
// caller it authorized) may settle it; the stored owner is re-checked as
// defense in depth against hash collision misuse.
func (l *Ledger) SettleEscrow(caller, settlementOwner, recipient common.Address, blindingFactor *big.Int, nonce uint64, w *authwit.Witness) error {
	return l.runOp(func(ctx *opContext) error {
		if err := l.authorize(caller, settlementOwner, SelectorSettleEscrow, nonce, SettleEscrowArgs(settlementOwner, recipient, blindingFactor, nonce), w); err != nil {
			return err
		}
		n, err := l.st.FindEscrowNote(blindingFactor)
		if err != nil {
			return err
		}
		if n.Owner != settlementOwner {
			return fmt.Errorf("%w: escrow note is not owned by %s", state.ErrUnauthorized, settlementOwner)
		}
		if err := l.st.SpendNote(n, nil); err != nil {
			return err
		}
		ctx.enqueue("credit recipient", func() error {
			return l.addPrivate(recipient, n.Amount)
		})
		return nil
	})
}

// BroadcastEscrowNoteFor emits the escrow note identified by
// blindingFactor to up to four recipients through the encrypted log. It is
// an informational fan-out, not a state mutation: empty recipient slots
// and recipients without a registered encryption key are skipped silently.
func (l *Ledger) BroadcastEscrowNoteFor(recipients [types.BroadcastRecipients]common.Address, blindingFactor *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	n, err := l.st.FindEscrowNote(blindingFactor)
	if err != nil {
		return err
	}
	payload, err := cbor.Marshal(n)
	if err != nil {
		return err
	}
	for _, recipient := range recipients {
		if recipient == (common.Address{}) {
			continue
		}
		pub, ok, err := l.registry.PublicKey(recipient)
		if err != nil {
			return err
		}
		if !ok {
			log.Debugw("skipping broadcast recipient without encryption key", "recipient", recipient.String())
			continue
		}
		ciphertext, err := notelog.Encrypt(pub, payload)
		if err != nil {
			return err
		}
		if err := l.sink.Emit(pub, ciphertext); err != nil {
			return err
		}
	}
	return nil
}
