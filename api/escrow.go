package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cloakledger/cloak/types"
)

// escrows returns one page of unspent escrow notes, oldest first
// GET /escrows?offset=N
func (a *API) escrows(w http.ResponseWriter, r *http.Request) {
	offset := 0
	if raw := r.URL.Query().Get("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			ErrMalformedParam.Withf("offset must be a non-negative integer").Write(w)
			return
		}
		offset = parsed
	}
	entries, err := a.ledger.GetEscrows(offset)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	httpWriteJSON(w, EscrowListResponse{Offset: offset, Escrows: entries})
}

// newEscrow locks private value into an escrow note and returns its
// blinding factor
// POST /escrows
func (a *API) newEscrow(w http.ResponseWriter, r *http.Request) {
	req := &TxRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	blinding, err := a.ledger.Escrow(req.Caller, req.From, req.SettlementOwner, req.Amount, req.Nonce, req.witness())
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	httpWriteJSON(w, EscrowResponse{BlindingFactor: blinding})
}

// settleEscrow releases an escrow note to a recipient's private balance
// POST /escrows/settle
func (a *API) settleEscrow(w http.ResponseWriter, r *http.Request) {
	req := &TxRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if req.BlindingFactor == nil {
		ErrMalformedBody.Withf("missing blindingFactor").Write(w)
		return
	}
	if err := a.ledger.SettleEscrow(req.Caller, req.SettlementOwner, req.To, req.BlindingFactor.MathBigInt(), req.Nonce, req.witness()); err != nil {
		writeLedgerError(w, err)
		return
	}
	httpWriteOK(w)
}

// broadcastEscrow fans an escrow note out to up to four recipients through
// the encrypted note log
// POST /escrows/broadcast
func (a *API) broadcastEscrow(w http.ResponseWriter, r *http.Request) {
	req := &BroadcastRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if req.BlindingFactor == nil {
		ErrMalformedBody.Withf("missing blindingFactor").Write(w)
		return
	}
	if len(req.Recipients) > types.BroadcastRecipients {
		ErrMalformedBody.Withf("at most %d recipients", types.BroadcastRecipients).Write(w)
		return
	}
	var recipients [types.BroadcastRecipients]common.Address
	copy(recipients[:], req.Recipients)
	if err := a.ledger.BroadcastEscrowNoteFor(recipients, req.BlindingFactor.MathBigInt()); err != nil {
		writeLedgerError(w, err)
		return
	}
	httpWriteOK(w)
}
