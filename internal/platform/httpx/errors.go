package httpx

import (
	"errors"
	"net/http"

	"github.com/kantine/kantine-web/internal/backend"
)

// RespondError maps API client errors to RFC7807 responses.
func RespondError(w http.ResponseWriter, err error) {
	title, detail := backend.Describe(err)
	switch {
	case errors.Is(err, backend.ErrUnauthorized):
		Problem(w, http.StatusUnauthorized, title, detail)
	case errors.Is(err, backend.ErrForbidden):
		Problem(w, http.StatusForbidden, title, detail)
	case errors.Is(err, backend.ErrNotFound):
		Problem(w, http.StatusNotFound, title, detail)
	case errors.Is(err, backend.ErrConflict):
		Problem(w, http.StatusConflict, title, detail)
	case errors.Is(err, backend.ErrUnavailable):
		Problem(w, http.StatusBadGateway, title, detail)
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
