package api

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/cloakledger/cloak/authwit"
	"github.com/cloakledger/cloak/state"
	"github.com/cloakledger/cloak/types"
)

// TxRequest is the common body of state-changing requests. Caller is the
// authenticated identity the execution environment attributes the request
// to; when it differs from From (or SettlementOwner, for escrow
// settlements) the request must carry a Witness signed by the principal.
type TxRequest struct {
	Caller          common.Address `json:"caller"`
	From            common.Address `json:"from,omitempty"`
	To              common.Address `json:"to,omitempty"`
	SettlementOwner common.Address `json:"settlementOwner,omitempty"`
	Amount          uint64         `json:"amount"`
	Nonce           uint64         `json:"nonce,omitempty"`
	SecretHash      *types.BigInt  `json:"secretHash,omitempty"`
	Secret          *types.BigInt  `json:"secret,omitempty"`
	BlindingFactor  *types.BigInt  `json:"blindingFactor,omitempty"`
	Witness         types.HexBytes `json:"witness,omitempty"`
}

// witness converts the optional signature bytes into a Witness, nil when
// the request carries none.
func (t *TxRequest) witness() *authwit.Witness {
	if len(t.Witness) == 0 {
		return nil
	}
	return &authwit.Witness{Signature: t.Witness}
}

// AdminRequest reassigns the admin role.
type AdminRequest struct {
	Caller   common.Address `json:"caller"`
	NewAdmin common.Address `json:"newAdmin"`
}

// MinterRequest grants or revokes minter rights for the address in the URL.
type MinterRequest struct {
	Caller   common.Address `json:"caller"`
	Approved bool           `json:"approved"`
}

// KeyRequest registers the encryption public key note broadcasts to the
// address in the URL are sealed with.
type KeyRequest struct {
	PublicKey types.HexBytes `json:"publicKey"`
}

// BroadcastRequest fans an escrow note out to up to four recipients.
type BroadcastRequest struct {
	Recipients     []common.Address `json:"recipients"`
	BlindingFactor *types.BigInt    `json:"blindingFactor"`
}

// InfoResponse is the ledger identity and tree roots view.
type InfoResponse struct {
	LedgerID       types.HexBytes `json:"ledgerId"`
	CommitmentRoot *types.BigInt  `json:"commitmentRoot"`
	NullifierRoot  *types.BigInt  `json:"nullifierRoot"`
}

// AdminResponse is the current admin address.
type AdminResponse struct {
	Admin common.Address `json:"admin"`
}

// MinterResponse reports an address' minter rights.
type MinterResponse struct {
	Address  common.Address `json:"address"`
	Approved bool           `json:"approved"`
}

// SupplyResponse is the total token supply.
type SupplyResponse struct {
	TotalSupply uint64 `json:"totalSupply"`
}

// BalanceResponse is a public or private balance view.
type BalanceResponse struct {
	Address common.Address `json:"address"`
	Balance uint64         `json:"balance"`
}

// AmountResponse reports the amount an operation minted.
type AmountResponse struct {
	Amount uint64 `json:"amount"`
}

// EscrowResponse returns the blinding factor of a freshly created escrow
// note, the only handle to settle it later.
type EscrowResponse struct {
	BlindingFactor *types.BigInt `json:"blindingFactor"`
}

// EscrowListResponse is one page of unspent escrow notes, oldest first.
type EscrowListResponse struct {
	Offset  int                 `json:"offset"`
	Escrows []state.EscrowEntry `json:"escrows"`
}
