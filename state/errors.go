package state

import "errors"

// Error kinds reported by ledger operations. Every failure aborts the
// current batch; no partial effects survive.
var (
	// ErrUnauthorized covers admin, minter and authorization-witness
	// check failures.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidNonce is returned when a non-delegated call carries a
	// nonce other than the zero sentinel.
	ErrInvalidNonce = errors.New("invalid nonce")
	// ErrInsufficientBalance is returned on public or private balance
	// underflow.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrOverflow is returned when a supply or balance addition would
	// overflow.
	ErrOverflow = errors.New("overflow")
	// ErrShieldNotFound is returned when no unspent pending-shield note
	// matches a redemption.
	ErrShieldNotFound = errors.New("shield note not found")
	// ErrEscrowNotFound is returned when no unspent escrow note matches
	// a blinding factor.
	ErrEscrowNotFound = errors.New("escrow note not found")
	// ErrAlreadySpent is returned on a nullifier collision, i.e. a
	// double-spend attempt.
	ErrAlreadySpent = errors.New("note already spent")
)
