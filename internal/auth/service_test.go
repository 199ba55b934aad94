package auth_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kantine/kantine-web/internal/auth"
	"github.com/kantine/kantine-web/internal/backend"
)

type stubAPI struct {
	logoutCookies []*http.Cookie
	logoutErr     error
}

func (s stubAPI) Login(context.Context, string, string) (backend.User, []*http.Cookie, error) {
	return backend.User{}, nil, nil
}

func (s stubAPI) Logout(context.Context, backend.Credentials) ([]*http.Cookie, error) {
	return s.logoutCookies, s.logoutErr
}

type failingClaims struct{ calls int }

func (f *failingClaims) Invalidate(context.Context, backend.Credentials) error {
	f.calls++
	return errors.New("redis down")
}

func TestSignOutReportsClaimInvalidationFailure(t *testing.T) {
	claims := &failingClaims{}
	api := stubAPI{logoutCookies: []*http.Cookie{{Name: backend.AuthTokenCookie, MaxAge: -1}}}
	svc := auth.NewService(api, claims)

	cookies, err := svc.SignOut(context.Background(), backend.Credentials{AuthToken: "a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis down")
	assert.Equal(t, 1, claims.calls)
	require.Len(t, cookies, 1)
	assert.Equal(t, backend.AuthTokenCookie, cookies[0].Name)
}

func TestSignOutJoinsLogoutAndClaimErrors(t *testing.T) {
	logoutErr := errors.New("api down")
	svc := auth.NewService(stubAPI{logoutErr: logoutErr}, &failingClaims{})

	cookies, err := svc.SignOut(context.Background(), backend.Credentials{})
	require.Error(t, err)
	assert.ErrorIs(t, err, logoutErr)
	assert.Contains(t, err.Error(), "redis down")
	assert.Len(t, cookies, 3)
}
