package httpx

import (
	"errors"
	"net/http"

	"github.com/dialadrink/ledger/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807. The
// specific error kind is always surfaced; a failed approval is never
// downgraded to a silent success.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrInvalidActor):
		Problem(w, http.StatusBadRequest, "Invalid Actor", err.Error())
	case errors.Is(err, shared.ErrInvalidAmount):
		Problem(w, http.StatusBadRequest, "Invalid Amount", err.Error())
	case errors.Is(err, shared.ErrMissingReason):
		Problem(w, http.StatusBadRequest, "Missing Reason", err.Error())
	case errors.Is(err, shared.ErrInvalidStateTransition):
		Problem(w, http.StatusConflict, "Invalid State Transition", err.Error())
	case errors.Is(err, shared.ErrDuplicateOrderClaim):
		Problem(w, http.StatusConflict, "Duplicate Order Claim", err.Error())
	case errors.Is(err, shared.ErrStorageUnavailable):
		w.Header().Set("Retry-After", "1")
		Problem(w, http.StatusServiceUnavailable, "Storage Unavailable", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
