package api

import (
	"encoding/json"
	"net/http"
)

// mintPublic mints into a public balance
// POST /mint/public
func (a *API) mintPublic(w http.ResponseWriter, r *http.Request) {
	req := &TxRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	minted, err := a.ledger.MintPublic(req.Caller, req.To, req.Amount)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	httpWriteJSON(w, AmountResponse{Amount: minted})
}

// transferPublic moves value between public balances
// POST /transfers/public
func (a *API) transferPublic(w http.ResponseWriter, r *http.Request) {
	req := &TxRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if err := a.ledger.TransferPublic(req.Caller, req.From, req.To, req.Amount, req.Nonce, req.witness()); err != nil {
		writeLedgerError(w, err)
		return
	}
	httpWriteOK(w)
}

// burnPublic destroys value from a public balance
// POST /burn/public
func (a *API) burnPublic(w http.ResponseWriter, r *http.Request) {
	req := &TxRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if err := a.ledger.BurnPublic(req.Caller, req.From, req.Amount, req.Nonce, req.witness()); err != nil {
		writeLedgerError(w, err)
		return
	}
	httpWriteOK(w)
}
