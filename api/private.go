package api

import (
	"encoding/json"
	"net/http"
)

// mintPrivate mints a pending-shield note redeemable with the preimage of
// the request's secret hash
// POST /mint/private
func (a *API) mintPrivate(w http.ResponseWriter, r *http.Request) {
	req := &TxRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if req.SecretHash == nil {
		ErrMalformedBody.Withf("missing secretHash").Write(w)
		return
	}
	minted, err := a.ledger.MintPrivate(req.Caller, req.Amount, req.SecretHash.MathBigInt())
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	httpWriteJSON(w, AmountResponse{Amount: minted})
}

// shield moves public value into a pending-shield note
// POST /shield
func (a *API) shield(w http.ResponseWriter, r *http.Request) {
	req := &TxRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if req.SecretHash == nil {
		ErrMalformedBody.Withf("missing secretHash").Write(w)
		return
	}
	if err := a.ledger.Shield(req.Caller, req.From, req.Amount, req.SecretHash.MathBigInt(), req.Nonce, req.witness()); err != nil {
		writeLedgerError(w, err)
		return
	}
	httpWriteOK(w)
}

// redeemShield claims a pending-shield note by revealing its secret
// POST /shield/redeem
func (a *API) redeemShield(w http.ResponseWriter, r *http.Request) {
	req := &TxRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if req.Secret == nil {
		ErrMalformedBody.Withf("missing secret").Write(w)
		return
	}
	if err := a.ledger.RedeemShield(req.To, req.Amount, req.Secret.MathBigInt()); err != nil {
		writeLedgerError(w, err)
		return
	}
	httpWriteOK(w)
}

// unshield moves private value back to a public balance
// POST /unshield
func (a *API) unshield(w http.ResponseWriter, r *http.Request) {
	req := &TxRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if err := a.ledger.Unshield(req.Caller, req.From, req.To, req.Amount, req.Nonce, req.witness()); err != nil {
		writeLedgerError(w, err)
		return
	}
	httpWriteOK(w)
}

// transferPrivate moves value between private balances
// POST /transfers/private
func (a *API) transferPrivate(w http.ResponseWriter, r *http.Request) {
	req := &TxRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if err := a.ledger.Transfer(req.Caller, req.From, req.To, req.Amount, req.Nonce, req.witness()); err != nil {
		writeLedgerError(w, err)
		return
	}
	httpWriteOK(w)
}

// burnPrivate destroys value from a private balance
// POST /burn/private
func (a *API) burnPrivate(w http.ResponseWriter, r *http.Request) {
	req := &TxRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if err := a.ledger.Burn(req.Caller, req.From, req.Amount, req.Nonce, req.witness()); err != nil {
		writeLedgerError(w, err)
		return
	}
	httpWriteOK(w)
}
