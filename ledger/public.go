package ledger

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.vocdoni.io/dvote/log"

	"github.com/cloakledger/cloak/authwit"
)

// SetAdmin reassigns the admin role. Only the current admin may call it.
func (l *Ledger) SetAdmin(caller, newAdmin common.Address) error {
	return l.runOp(func(_ *opContext) error {
		if err := l.requireAdmin(caller); err != nil {
			return err
		}
		if err := l.st.SetAdmin(newAdmin); err != nil {
			return err
		}
		log.Infow("admin reassigned", "from", caller.String(), "to", newAdmin.String())
		return nil
	})
}

// SetMinter grants or revokes minter rights. Only the admin may call it.
func (l *Ledger) SetMinter(caller, minter common.Address, approved bool) error {
	return l.runOp(func(_ *opContext) error {
		if err := l.requireAdmin(caller); err != nil {
			return err
		}
		if err := l.st.SetMinter(minter, approved); err != nil {
			return err
		}
		log.Infow("minter updated", "minter", minter.String(), "approved", approved)
		return nil
	})
}

// MintPublic mints amount into to's public balance, increasing total
// supply. Only approved minters may call it. Returns the minted amount.
func (l *Ledger) MintPublic(caller, to common.Address, amount uint64) (uint64, error) {
	err := l.runOp(func(_ *opContext) error {
		if err := l.requireMinter(caller); err != nil {
			return err
		}
		if err := l.st.CreditPublic(to, amount); err != nil {
			return err
		}
		return l.st.AddSupply(amount)
	})
	if err != nil {
		return 0, err
	}
	return amount, nil
}

// TransferPublicArgs is the ordered argument list bound into a
// transfer_public witness message hash.
func TransferPublicArgs(from, to common.Address, amount, nonce uint64) []*big.Int {
	return []*big.Int{addrField(from), addrField(to), uintField(amount), uintField(nonce)}
}

// TransferPublic moves amount between public balances. Delegated callers
// need a witness from `from`.
func (l *Ledger) TransferPublic(caller, from, to common.Address, amount, nonce uint64, w *authwit.Witness) error {
	return l.runOp(func(_ *opContext) error {
		if err := l.authorize(caller, from, SelectorTransferPublic, nonce, TransferPublicArgs(from, to, amount, nonce), w); err != nil {
			return err
		}
		if err := l.st.DebitPublic(from, amount); err != nil {
			return err
		}
		return l.st.CreditPublic(to, amount)
	})
}

// BurnPublicArgs is the ordered argument list bound into a burn_public
// witness message hash.
func BurnPublicArgs(from common.Address, amount, nonce uint64) []*big.Int {
	return []*big.Int{addrField(from), uintField(amount), uintField(nonce)}
}

// BurnPublic destroys amount from from's public balance, decreasing total
// supply.
func (l *Ledger) BurnPublic(caller, from common.Address, amount, nonce uint64, w *authwit.Witness) error {
	return l.runOp(func(_ *opContext) error {
		if err := l.authorize(caller, from, SelectorBurnPublic, nonce, BurnPublicArgs(from, amount, nonce), w); err != nil {
			return err
		}
		if err := l.st.DebitPublic(from, amount); err != nil {
			return err
		}
		return l.st.SubSupply(amount)
	})
}
