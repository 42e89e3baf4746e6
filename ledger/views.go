package ledger

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cloakledger/cloak/state"
	"github.com/cloakledger/cloak/types"
)

// Read-only views. They take the same lock operations do, so a view never
// observes a half-applied operation.

// Admin returns the current admin address.
func (l *Ledger) Admin() (common.Address, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.st.Admin()
}

// IsMinter reports whether addr holds minter rights.
func (l *Ledger) IsMinter(addr common.Address) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.st.IsMinter(addr)
}

// TotalSupply returns the current total supply.
func (l *Ledger) TotalSupply() (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.st.TotalSupply()
}

// BalanceOfPublic returns addr's public balance.
func (l *Ledger) BalanceOfPublic(addr common.Address) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.st.PublicBalanceOf(addr)
}

// BalanceOfPrivate returns the sum of addr's unspent value notes.
func (l *Ledger) BalanceOfPrivate(addr common.Address) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.st.PrivateBalanceOf(addr)
}

// GetEscrows returns up to ten unspent escrow entries starting at offset,
// oldest first.
func (l *Ledger) GetEscrows(offset int) ([]state.EscrowEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.st.ListEscrows(offset)
}

// LedgerID returns the ledger deployment identity witnesses must be bound
// to.
func (l *Ledger) LedgerID() types.HexBytes {
	return l.st.LedgerID()
}

// CommitmentRoot returns the commitment tree root for the external proof
// system.
func (l *Ledger) CommitmentRoot() (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.st.CommitmentRoot()
}

// NullifierRoot returns the nullifier tree root.
func (l *Ledger) NullifierRoot() (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.st.NullifierRoot()
}
