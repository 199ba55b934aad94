package navigation

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kantine/kantine-web/internal/backend"
	"github.com/kantine/kantine-web/internal/roles"
)

type stubIdentifier struct {
	group   string
	cookies []*http.Cookie
	err     error
	calls   int
}

func (s *stubIdentifier) IsLoggedIn(ctx context.Context, creds backend.Credentials) (backend.User, []*http.Cookie, error) {
	s.calls++
	if s.err != nil {
		return backend.User{}, nil, s.err
	}
	return backend.User{Username: "anna", UserGroup: s.group}, s.cookies, nil
}

var signedIn = backend.Credentials{AuthToken: "tok", RefreshToken: "ref"}

func newGuard(id *stubIdentifier) *Guard {
	return NewGuard(RemoteClaims{API: id}, nil, nil)
}

func TestDecideMatchingRoleProceeds(t *testing.T) {
	guard := newGuard(&stubIdentifier{group: "gruppenleitung"})
	decision := guard.Decide(context.Background(), Route{Path: "/gruppenleitung", Role: roles.Gruppenleitung}, signedIn)
	assert.True(t, decision.Proceed)
	assert.Equal(t, ReasonGranted, decision.Reason)
	assert.Equal(t, roles.Gruppenleitung, decision.Claim.Role)
}

func TestDecideOtherRoleDenied(t *testing.T) {
	guard := newGuard(&stubIdentifier{group: "kuechenpersonal"})
	decision := guard.Decide(context.Background(), Route{Path: "/verwaltung/standorte", Role: roles.Verwaltung}, signedIn)
	assert.False(t, decision.Proceed)
	assert.Equal(t, DeniedPath, decision.Location)
	assert.Equal(t, ReasonRoleMismatch, decision.Reason)
}

func TestDecideFailureDenies(t *testing.T) {
	for name, id := range map[string]*stubIdentifier{
		"unavailable":  {err: backend.ErrUnavailable},
		"unauthorized": {err: &backend.APIError{StatusCode: http.StatusUnauthorized}},
		"unknown tag":  {group: "koch"},
	} {
		t.Run(name, func(t *testing.T) {
			decision := newGuard(id).Decide(context.Background(), Route{Path: "/standortleitung", Role: roles.Standortleitung}, signedIn)
			assert.False(t, decision.Proceed)
			assert.Equal(t, DeniedPath, decision.Location)
			assert.Equal(t, ReasonClaimFailed, decision.Reason)
		})
	}
}

func TestDecideWithoutCredentialsGoesToLogin(t *testing.T) {
	id := &stubIdentifier{group: "verwaltung"}
	decision := newGuard(id).Decide(context.Background(), Route{Path: "/verwaltung/gruppen", Role: roles.Verwaltung}, backend.Credentials{})
	assert.Equal(t, LoginPath, decision.Location)
	assert.Zero(t, id.calls)
}

func TestDecidePublicSkipsCheck(t *testing.T) {
	id := &stubIdentifier{err: errors.New("boom")}
	decision := newGuard(id).Decide(context.Background(), Route{Path: LoginPath, Public: true}, signedIn)
	assert.True(t, decision.Proceed)
	assert.Zero(t, id.calls)
}

func TestDecideLoginRedirectsToLanding(t *testing.T) {
	guard := newGuard(&stubIdentifier{group: "standortleitung"})
	decision := guard.DecideLogin(context.Background(), signedIn)
	assert.False(t, decision.Proceed)
	assert.Equal(t, "/standortleitung", decision.Location)

	anonymous := newGuard(&stubIdentifier{err: backend.ErrUnauthorized}).DecideLogin(context.Background(), signedIn)
	assert.True(t, anonymous.Proceed)
}

func TestMiddleware(t *testing.T) {
	id := &stubIdentifier{
		group:   "kuechenpersonal",
		cookies: []*http.Cookie{{Name: backend.AuthTokenCookie, Value: "rotated"}},
	}
	reg := prometheus.NewRegistry()
	guard := NewGuard(RemoteClaims{API: id}, nil, reg)
	table := MustTable(DefaultRoutes()...)

	var seen roles.Role
	handler := guard.Middleware(table)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RoleFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	serve := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.AddCookie(&http.Cookie{Name: backend.AuthTokenCookie, Value: "tok"})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	rec := serve("/kuechenpersonal")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, roles.Kuechenpersonal, seen)
	require.Len(t, rec.Result().Cookies(), 1)
	assert.Equal(t, "rotated", rec.Result().Cookies()[0].Value)

	rec = serve("/verwaltung/mitarbeiter")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, DeniedPath, rec.Header().Get("Location"))

	rec = serve(LoginPath)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/kuechenpersonal", rec.Header().Get("Location"))

	seen = ""
	rec = serve("/nicht-vorhanden")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, seen)

	assert.Equal(t, float64(1), testutil.ToFloat64(guard.decisions.WithLabelValues(ReasonRoleMismatch)))
}

func TestRequireRole(t *testing.T) {
	guard := newGuard(&stubIdentifier{group: "gruppenleitung"})
	handler := guard.RequireRole(roles.Verwaltung)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))
	req := httptest.NewRequest(http.MethodPost, "/verwaltung/gruppen", nil)
	req.AddCookie(&http.Cookie{Name: backend.AuthTokenCookie, Value: "tok"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, DeniedPath, rec.Header().Get("Location"))
}
