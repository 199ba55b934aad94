package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors matched by APIError.Is according to the response status.
var (
	ErrUnauthorized = errors.New("backend: unauthorized")
	ErrForbidden    = errors.New("backend: forbidden")
	ErrNotFound     = errors.New("backend: not found")
	ErrConflict     = errors.New("backend: conflict")
	ErrLocked       = errors.New("backend: account locked")
	ErrValidation   = errors.New("backend: validation failed")
	ErrUnsupported  = errors.New("backend: unsupported media type")
	// ErrUnavailable covers transport failures and gateway errors.
	ErrUnavailable = errors.New("backend: unavailable")
)

// APIError is the decoded error body of a non-2xx API response.
type APIError struct {
	Status      string          `json:"status"`
	StatusCode  int             `json:"status_code"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Details     json.RawMessage `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Title == "" {
		return fmt.Sprintf("backend: status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend: status %d: %s: %s", e.StatusCode, e.Title, e.Description)
}

// Is maps the status code onto the package sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrConflict:
		return e.StatusCode == http.StatusConflict
	case ErrLocked:
		return e.StatusCode == http.StatusLocked
	case ErrValidation:
		return e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusUnprocessableEntity
	case ErrUnsupported:
		return e.StatusCode == http.StatusUnsupportedMediaType
	case ErrUnavailable:
		return e.StatusCode == http.StatusBadGateway || e.StatusCode == http.StatusServiceUnavailable || e.StatusCode == http.StatusGatewayTimeout
	}
	return false
}

// DetailText renders Details for display; plain JSON strings are unquoted.
func (e *APIError) DetailText() string {
	if len(e.Details) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(e.Details, &s); err == nil {
		return s
	}
	return string(e.Details)
}

func decodeAPIError(res *http.Response, body []byte) *APIError {
	apiErr := &APIError{}
	if len(body) > 0 {
		_ = json.Unmarshal(body, apiErr)
	}
	apiErr.StatusCode = res.StatusCode
	if apiErr.Status == "" {
		apiErr.Status = http.StatusText(res.StatusCode)
	}
	return apiErr
}

// Describe returns a German title and message for err suitable for the
// feedback store. API errors keep their own wording.
func Describe(err error) (title, message string) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Title != "" {
		return apiErr.Title, apiErr.Description
	}
	switch {
	case errors.Is(err, ErrUnavailable):
		return "Server nicht erreichbar", "Der Server konnte nicht erreicht werden. Bitte später erneut versuchen."
	case errors.Is(err, ErrUnauthorized):
		return "Nicht angemeldet", "Bitte melden Sie sich erneut an."
	case errors.Is(err, ErrForbidden):
		return "Nicht autorisiert", "Sie haben keinen Zugriff auf diese Funktion."
	case errors.Is(err, ErrNotFound):
		return "Nicht gefunden", "Der angeforderte Eintrag existiert nicht."
	}
	return "Fehler", "Ein unerwarteter Fehler ist aufgetreten."
}
