package httpx

import (
	"net/http"

	"github.com/academe-hq/academe/internal/shared"
)

// statusFor maps error kinds to HTTP statuses. This is the only place the
// mapping lives.
func statusFor(kind shared.Kind) int {
	switch kind {
	case shared.KindValidation, shared.KindInvalidID:
		return http.StatusBadRequest
	case shared.KindUnauthorized:
		return http.StatusUnauthorized
	case shared.KindPermissionDenied:
		return http.StatusForbidden
	case shared.KindNotFound:
		return http.StatusNotFound
	case shared.KindDuplicate:
		return http.StatusConflict
	case shared.KindCapacityFull:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes the error envelope for err. Unexpected errors collapse
// to a generic internal message so diagnostics never leak.
func RespondError(w http.ResponseWriter, err error) {
	kind := shared.KindOf(err)
	message := err.Error()
	if kind == shared.KindInternal {
		message = "internal error"
	}
	JSON(w, statusFor(kind), Envelope{OK: false, Code: string(kind), Message: message})
}
