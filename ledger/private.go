package ledger

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cloakledger/cloak/authwit"
	"github.com/cloakledger/cloak/note"
)

// MintPrivate mints amount as a pending-shield note redeemable with the
// preimage of secretHash, increasing total supply. Only approved minters
// may call it. Returns the minted amount.
func (l *Ledger) MintPrivate(caller common.Address, amount uint64, secretHash *big.Int) (uint64, error) {
	err := l.runOp(func(_ *opContext) error {
		if err := l.requireMinter(caller); err != nil {
			return err
		}
		if err := l.st.AddSupply(amount); err != nil {
			return err
		}
		return l.st.AddNote(note.NewTransparent(l.st.LedgerID(), amount, secretHash))
	})
	if err != nil {
		return 0, err
	}
	return amount, nil
}

// RedeemShield claims a pending-shield note matching (amount,
// hash(secret)) and credits to's private balance. Anyone knowing the
// secret may redeem; the nullifier is derived from the revealed secret so
// redemption without the preimage is impossible.
func (l *Ledger) RedeemShield(to common.Address, amount uint64, secret *big.Int) error {
	return l.runOp(func(_ *opContext) error {
		secretHash, err := note.SecretHash(secret)
		if err != nil {
			return err
		}
		n, err := l.st.FindShieldNote(amount, secretHash)
		if err != nil {
			return err
		}
		if err := l.st.SpendNote(n, secret); err != nil {
			return err
		}
		return l.addPrivate(to, amount)
	})
}

// ShieldArgs is the ordered argument list bound into a shield witness
// message hash.
func ShieldArgs(from common.Address, amount uint64, secretHash *big.Int, nonce uint64) []*big.Int {
	return []*big.Int{addrField(from), uintField(amount), secretHash, uintField(nonce)}
}

// Shield moves amount from from's public balance into a pending-shield
// note redeemable with the preimage of secretHash.
func (l *Ledger) Shield(caller, from common.Address, amount uint64, secretHash *big.Int, nonce uint64, w *authwit.Witness) error {
	return l.runOp(func(_ *opContext) error {
		if err := l.authorize(caller, from, SelectorShield, nonce, ShieldArgs(from, amount, secretHash, nonce), w); err != nil {
			return err
		}
		if err := l.st.DebitPublic(from, amount); err != nil {
			return err
		}
		return l.st.AddNote(note.NewTransparent(l.st.LedgerID(), amount, secretHash))
	})
}

// UnshieldArgs is the ordered argument list bound into an unshield witness
// message hash.
func UnshieldArgs(from, to common.Address, amount, nonce uint64) []*big.Int {
	return []*big.Int{addrField(from), addrField(to), uintField(amount), uintField(nonce)}
}

// Unshield spends amount from from's private notes and credits to's
// public balance. The public credit is a nested call, executed after the
// private spend on the same batch.
func (l *Ledger) Unshield(caller, from, to common.Address, amount, nonce uint64, w *authwit.Witness) error {
	return l.runOp(func(ctx *opContext) error {
		if err := l.authorize(caller, from, SelectorUnshield, nonce, UnshieldArgs(from, to, amount, nonce), w); err != nil {
			return err
		}
		if err := l.subtractPrivate(from, amount); err != nil {
			return err
		}
		ctx.enqueue("credit public balance", func() error {
			return l.st.CreditPublic(to, amount)
		})
		return nil
	})
}

// TransferArgs is the ordered argument list bound into a transfer witness
// message hash.
func TransferArgs(from, to common.Address, amount, nonce uint64) []*big.Int {
	return []*big.Int{addrField(from), addrField(to), uintField(amount), uintField(nonce)}
}

// Transfer moves amount between private balances.
func (l *Ledger) Transfer(caller, from, to common.Address, amount, nonce uint64, w *authwit.Witness) error {
	return l.runOp(func(_ *opContext) error {
		if err := l.authorize(caller, from, SelectorTransfer, nonce, TransferArgs(from, to, amount, nonce), w); err != nil {
			return err
		}
		if err := l.subtractPrivate(from, amount); err != nil {
			return err
		}
		return l.addPrivate(to, amount)
	})
}

// BurnArgs is the ordered argument list bound into a burn witness message
// hash.
func BurnArgs(from common.Address, amount, nonce uint64) []*big.Int {
	return []*big.Int{addrField(from), uintField(amount), uintField(nonce)}
}

// Burn destroys amount from from's private balance, decreasing total
// supply through a nested call.
func (l *Ledger) Burn(caller, from common.Address, amount, nonce uint64, w *authwit.Witness) error {
	return l.runOp(func(ctx *opContext) error {
		if err := l.authorize(caller, from, SelectorBurn, nonce, BurnArgs(from, amount, nonce), w); err != nil {
			return err
		}
		if err := l.subtractPrivate(from, amount); err != nil {
			return err
		}
		ctx.enqueue("decrease total supply", func() error {
			return l.st.SubSupply(amount)
		})
		return nil
	})
}
