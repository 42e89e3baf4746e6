package api

import (
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"go.vocdoni.io/dvote/log"

	"github.com/cloakledger/cloak/state"
	"github.com/cloakledger/cloak/types"
)

// httpWriteJSON helper function allows to write a JSON response.
func httpWriteJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	jdata, err := json.Marshal(data)
	if err != nil {
		ErrMarshalingServerJSONFailed.WithErr(err).Write(w)
		return
	}
	n, err := w.Write(jdata)
	if err != nil {
		log.Warnw("failed to write http response", "error", err)
	}
	if _, err := w.Write([]byte("\n")); err != nil {
		log.Warnw("failed to write on response", "error", err)
	}
	log.Debugw("api response", "bytes", n, "data", strings.ReplaceAll(string(jdata), "\"", ""))
}

// httpWriteOK helper function allows to write an OK response.
func httpWriteOK(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("\n")); err != nil {
		log.Warnw("failed to write on response", "error", err)
	}
}

// writeLedgerError maps the stable ledger error values to their API codes.
// Anything unrecognized is a server fault.
func writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, state.ErrUnauthorized):
		ErrUnauthorizedCaller.WithErr(err).Write(w)
	case errors.Is(err, state.ErrInvalidNonce):
		ErrInvalidNonce.WithErr(err).Write(w)
	case errors.Is(err, state.ErrInsufficientBalance):
		ErrInsufficientBalance.WithErr(err).Write(w)
	case errors.Is(err, state.ErrOverflow):
		ErrAmountOverflow.WithErr(err).Write(w)
	case errors.Is(err, state.ErrShieldNotFound):
		ErrShieldNoteNotFound.WithErr(err).Write(w)
	case errors.Is(err, state.ErrEscrowNotFound):
		ErrEscrowNoteNotFound.WithErr(err).Write(w)
	case errors.Is(err, state.ErrAlreadySpent):
		ErrNoteAlreadySpent.WithErr(err).Write(w)
	default:
		ErrGenericInternalServerError.WithErr(err).Write(w)
	}
}

// bigIntJSON wraps a big.Int into its JSON-marshalable form.
func bigIntJSON(v *big.Int) *types.BigInt {
	return (*types.BigInt)(v)
}

// urlAddress extracts and validates the address URL parameter.
func urlAddress(r *http.Request) (common.Address, bool) {
	raw := chi.URLParam(r, AddressURLParam)
	if !common.IsHexAddress(raw) {
		return common.Address{}, false
	}
	return common.HexToAddress(raw), true
}
