package auth

import (
	"errors"
	"net/http"

	"github.com/kantine/kantine-web/internal/roles"
)

var (
	// ErrInvalidCredentials means the API rejected username or password.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrAccountLocked means the account was blocked after failed attempts.
	ErrAccountLocked = errors.New("auth: account locked")
)

// Identity is the signed-in user as reported by the API at login.
type Identity struct {
	Username string
	Role     roles.Role
	// Cookies are the API's token cookies to hand to the browser.
	Cookies []*http.Cookie
}
