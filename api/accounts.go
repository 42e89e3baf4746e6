package api

import (
	"encoding/json"
	"net/http"
)

// info returns the ledger identity and tree roots
// GET /info
func (a *API) info(w http.ResponseWriter, _ *http.Request) {
	commitmentRoot, err := a.ledger.CommitmentRoot()
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	nullifierRoot, err := a.ledger.NullifierRoot()
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	httpWriteJSON(w, InfoResponse{
		LedgerID:       a.ledger.LedgerID(),
		CommitmentRoot: bigIntJSON(commitmentRoot),
		NullifierRoot:  bigIntJSON(nullifierRoot),
	})
}

// admin returns the current admin address
// GET /admin
func (a *API) admin(w http.ResponseWriter, _ *http.Request) {
	admin, err := a.ledger.Admin()
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	httpWriteJSON(w, AdminResponse{Admin: admin})
}

// setAdmin reassigns the admin role
// POST /admin
func (a *API) setAdmin(w http.ResponseWriter, r *http.Request) {
	req := &AdminRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if err := a.ledger.SetAdmin(req.Caller, req.NewAdmin); err != nil {
		writeLedgerError(w, err)
		return
	}
	httpWriteOK(w)
}

// minter reports the minter rights of the address in the URL
// GET /minters/{address}
func (a *API) minter(w http.ResponseWriter, r *http.Request) {
	addr, ok := urlAddress(r)
	if !ok {
		ErrMalformedAddress.Write(w)
		return
	}
	approved, err := a.ledger.IsMinter(addr)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	httpWriteJSON(w, MinterResponse{Address: addr, Approved: approved})
}

// setMinter grants or revokes minter rights for the address in the URL
// POST /minters/{address}
func (a *API) setMinter(w http.ResponseWriter, r *http.Request) {
	addr, ok := urlAddress(r)
	if !ok {
		ErrMalformedAddress.Write(w)
		return
	}
	req := &MinterRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if err := a.ledger.SetMinter(req.Caller, addr, req.Approved); err != nil {
		writeLedgerError(w, err)
		return
	}
	httpWriteOK(w)
}

// supply returns the total token supply
// GET /supply
func (a *API) supply(w http.ResponseWriter, _ *http.Request) {
	supply, err := a.ledger.TotalSupply()
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	httpWriteJSON(w, SupplyResponse{TotalSupply: supply})
}

// publicBalance returns the public balance of the address in the URL
// GET /balances/public/{address}
func (a *API) publicBalance(w http.ResponseWriter, r *http.Request) {
	addr, ok := urlAddress(r)
	if !ok {
		ErrMalformedAddress.Write(w)
		return
	}
	balance, err := a.ledger.BalanceOfPublic(addr)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	httpWriteJSON(w, BalanceResponse{Address: addr, Balance: balance})
}

// privateBalance returns the private balance of the address in the URL
// GET /balances/private/{address}
func (a *API) privateBalance(w http.ResponseWriter, r *http.Request) {
	addr, ok := urlAddress(r)
	if !ok {
		ErrMalformedAddress.Write(w)
		return
	}
	balance, err := a.ledger.BalanceOfPrivate(addr)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	httpWriteJSON(w, BalanceResponse{Address: addr, Balance: balance})
}

// registerKey registers the encryption key of the address in the URL
// POST /keys/{address}
func (a *API) registerKey(w http.ResponseWriter, r *http.Request) {
	addr, ok := urlAddress(r)
	if !ok {
		ErrMalformedAddress.Write(w)
		return
	}
	req := &KeyRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if err := a.ledger.Registry().Register(addr, req.PublicKey); err != nil {
		ErrMalformedKey.WithErr(err).Write(w)
		return
	}
	httpWriteOK(w)
}
