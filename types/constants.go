package types

const (
	// CommitmentTreeMaxLevels is the maximum number of levels in the
	// commitment merkle tree. Keys are 32-byte field element encodings.
	CommitmentTreeMaxLevels = 256
	// NullifierTreeMaxLevels is the maximum number of levels in the
	// nullifier merkle tree.
	NullifierTreeMaxLevels = 256
	// LedgerIDLen is the length in bytes of a ledger deployment identity.
	LedgerIDLen = 32
	// EscrowPageSize is the number of escrow entries returned per page.
	EscrowPageSize = 10
	// BroadcastRecipients is the fixed fan-out of an escrow note broadcast.
	BroadcastRecipients = 4
	// ZeroNonce is the sentinel nonce for non-delegated calls.
	ZeroNonce = uint64(0)
)

// Storage slots. Note headers bind commitments to a slot, so these values
// are part of the persisted format and must never be renumbered.
const (
	SlotAdmin           = uint64(1)
	SlotMinters         = uint64(2)
	SlotPrivateBalances = uint64(3)
	SlotTotalSupply     = uint64(4)
	SlotPendingShields  = uint64(5)
	SlotPublicBalances  = uint64(6)
	SlotEscrows         = uint64(7)
)
