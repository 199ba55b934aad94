// Package feedback holds the transient UI-state records pages use to show
// banners, snackbars and dialogs. Each record is a single slot: a new write
// replaces whatever is currently displayed.
package feedback

import (
	"time"

	"github.com/kantine/kantine-web/internal/roles"
)

// Presentation surfaces.
const (
	TypeBanner   = "banner"
	TypeSnackbar = "snackbar"
	TypeDialog   = "dialog"
)

// Outcome statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ErrorState is the error store record.
type ErrorState struct {
	Message string    `json:"message"`
	Type    string    `json:"type"`
	Show    bool      `json:"show"`
	SetAt   time.Time `json:"set_at,omitempty"`
}

// SetError replaces the current error. An empty type selects the snackbar.
func (s *ErrorState) SetError(message, typ string) {
	if typ == "" {
		typ = TypeSnackbar
	}
	s.Message = message
	s.Type = typ
	s.Show = true
	s.SetAt = now()
}

// ClearError resets the record.
func (s *ErrorState) ClearError() {
	*s = ErrorState{}
}

// FeedbackState is the feedback store record.
type FeedbackState struct {
	Status  string    `json:"status"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	Type    string    `json:"type"`
	Show    bool      `json:"show"`
	SetAt   time.Time `json:"set_at,omitempty"`
}

// SetFeedback replaces the current feedback. An empty type selects the snackbar.
func (s *FeedbackState) SetFeedback(status, typ, title, message string) {
	if typ == "" {
		typ = TypeSnackbar
	}
	s.Status = status
	s.Type = typ
	s.Title = title
	s.Message = message
	s.Show = true
	s.SetAt = now()
}

// ClearFeedback resets the record.
func (s *FeedbackState) ClearFeedback() {
	*s = FeedbackState{}
}

// Succeeded reports whether the feedback announces a success.
func (s FeedbackState) Succeeded() bool {
	return s.Status == StatusSuccess
}

// AppState is the persisted app store: who is signed in and drawer state.
type AppState struct {
	Role       roles.Role `json:"role"`
	Username   string     `json:"username"`
	DrawerOpen bool       `json:"drawer_open"`
}

// SignIn records the identity shown in the navigation.
func (s *AppState) SignIn(username string, role roles.Role) {
	s.Username = username
	s.Role = role
}

// SignOut clears the identity.
func (s *AppState) SignOut() {
	*s = AppState{}
}

// Authenticated reports whether an identity is recorded.
func (s AppState) Authenticated() bool {
	return s.Role.Valid()
}

// expired reports whether a record set at setAt outlived ttl.
func expired(setAt time.Time, ttl time.Duration) bool {
	if ttl <= 0 || setAt.IsZero() {
		return false
	}
	return now().Sub(setAt) >= ttl
}

var now = time.Now
