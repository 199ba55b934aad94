package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/kantine/kantine-web/internal/backend"
	"github.com/kantine/kantine-web/internal/roles"
)

// API is the part of the backend client authentication needs.
type API interface {
	Login(ctx context.Context, username, password string) (backend.User, []*http.Cookie, error)
	Logout(ctx context.Context, creds backend.Credentials) ([]*http.Cookie, error)
}

// ClaimInvalidator drops cached guard claims.
type ClaimInvalidator interface {
	Invalidate(ctx context.Context, creds backend.Credentials) error
}

// Service wraps authentication against the remote API.
type Service struct {
	api    API
	claims ClaimInvalidator
}

// NewService constructs a new Service. claims may be nil.
func NewService(api API, claims ClaimInvalidator) *Service {
	return &Service{api: api, claims: claims}
}

// Authenticate signs in with username and password.
func (s *Service) Authenticate(ctx context.Context, username, password string) (Identity, error) {
	user, cookies, err := s.api.Login(ctx, username, password)
	switch {
	case errors.Is(err, backend.ErrUnauthorized):
		return Identity{}, ErrInvalidCredentials
	case errors.Is(err, backend.ErrLocked):
		return Identity{}, ErrAccountLocked
	case err != nil:
		return Identity{}, err
	}
	role, err := roles.Parse(user.UserGroup)
	if err != nil {
		return Identity{}, fmt.Errorf("auth: login of %s: %w", user.Username, err)
	}
	return Identity{Username: user.Username, Role: role, Cookies: cookies}, nil
}

// SignOut ends the API session. The returned cookies expire the browser's
// tokens; they are produced locally when the API cannot be reached.
func (s *Service) SignOut(ctx context.Context, creds backend.Credentials) ([]*http.Cookie, error) {
	var invalidateErr error
	if s.claims != nil {
		if err := s.claims.Invalidate(ctx, creds); err != nil {
			invalidateErr = fmt.Errorf("auth: invalidate claim: %w", err)
		}
	}
	cookies, err := s.api.Logout(ctx, creds)
	if err == nil && len(cookies) > 0 {
		return cookies, invalidateErr
	}
	expired := make([]*http.Cookie, 0, 3)
	for _, name := range []string{backend.AuthTokenCookie, backend.RefreshTokenCookie, backend.UserGroupCookie} {
		expired = append(expired, &http.Cookie{Name: name, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	}
	return expired, errors.Join(invalidateErr, err)
}
