//nolint:lll
package api

import (
	"fmt"
	"net/http"
)

// The custom Error type satisfies the error interface.
// Error() returns a human-readable description of the error.
//
// Error codes in the 40001-49999 range are the client's fault,
// and they return HTTP Status 400, 401, 404 or 409, whatever is most appropriate.
//
// Error codes 50001-59999 are the server's fault
// and they return HTTP Status 500 or 503, or something else if appropriate.
//
// NEVER change any of the current error codes, only append new errors after
// the current last 4XXXX or 5XXXX. Codes that disappear from this list must
// not be reused.
var (
	ErrResourceNotFound    = Error{Code: 40001, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("resource not found")}
	ErrMalformedBody       = Error{Code: 40004, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed JSON body")}
	ErrMalformedAddress    = Error{Code: 40005, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed address")}
	ErrMalformedParam      = Error{Code: 40006, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed query parameter")}
	ErrUnauthorizedCaller  = Error{Code: 40007, HTTPstatus: http.StatusUnauthorized, Err: fmt.Errorf("caller not authorized")}
	ErrInvalidNonce        = Error{Code: 40008, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid nonce")}
	ErrInsufficientBalance = Error{Code: 40009, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("insufficient balance")}
	ErrAmountOverflow      = Error{Code: 40010, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("amount overflow")}
	ErrShieldNoteNotFound  = Error{Code: 40011, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("no matching pending shield note")}
	ErrEscrowNoteNotFound  = Error{Code: 40012, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("no matching escrow note")}
	ErrNoteAlreadySpent    = Error{Code: 40013, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("note already spent")}
	ErrMalformedKey        = Error{Code: 40014, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed encryption key")}

	ErrMarshalingServerJSONFailed = Error{Code: 50001, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("marshaling (server-side) JSON failed")}
	ErrGenericInternalServerError = Error{Code: 50002, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("internal server error")}
)
