// Package pagetest wires the pieces page handler tests need: a Redis-backed
// session via miniredis, the real template engine, and an API client
// pointed at an httptest server.
package pagetest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/kantine/kantine-web/internal/backend"
	"github.com/kantine/kantine-web/internal/feedback"
	"github.com/kantine/kantine-web/internal/navigation"
	"github.com/kantine/kantine-web/internal/roles"
	"github.com/kantine/kantine-web/internal/shared"
	"github.com/kantine/kantine-web/internal/view"
)

const sessionCookie = "kantine_session"

// UserID is the id of the signed-in test user.
const UserID = "0b6f2d3e-4c5a-4d7e-8f90-a1b2c3d4e5f6"

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("KANTINE_TEST_MODE") == "" {
			_ = os.Setenv("KANTINE_TEST_MODE", "1")
		}
	})
}

// Env is one test's page environment. It keeps the session cookie between
// requests like a browser would.
type Env struct {
	t        *testing.T
	Redis    *miniredis.Miniredis
	Sessions *shared.SessionManager
	CSRF     *shared.CSRFManager
	Stores   *feedback.Stores
	Pages    *view.Pages
	cookie   *http.Cookie
}

// New builds an Env.
func New(t *testing.T) *Env {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	engine, err := view.NewEngine(nil)
	require.NoError(t, err)

	env := &Env{
		t:        t,
		Redis:    mr,
		Sessions: shared.NewSessionManager(client, sessionCookie, "secret", time.Hour, false),
		CSRF:     shared.NewCSRFManager("csrf"),
		Stores:   feedback.NewStores(0),
	}
	env.Pages = &view.Pages{
		Engine: engine,
		Stores: env.Stores,
		CSRF:   env.CSRF,
		Table:  navigation.MustTable(navigation.DefaultRoutes()...),
	}
	return env
}

// API starts a fake remote API and returns a client for it.
func (e *Env) API(handler http.Handler) *backend.Client {
	e.t.Helper()
	srv := httptest.NewServer(handler)
	e.t.Cleanup(srv.Close)
	client, err := backend.NewClient(srv.URL, backend.WithHTTPClient(srv.Client()), backend.WithRegisterer(prometheus.NewRegistry()))
	require.NoError(e.t, err)
	return client
}

// Get builds a GET request signed in as role.
func (e *Env) Get(path string, role roles.Role) *http.Request {
	return e.As(httptest.NewRequest(http.MethodGet, path, nil), role)
}

// PostForm builds a urlencoded POST request signed in as role.
func (e *Env) PostForm(path string, form url.Values, role roles.Role) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.As(req, role)
}

// As signs an arbitrary request in as role. An empty role leaves it anonymous.
func (e *Env) As(req *http.Request, role roles.Role) *http.Request {
	if role == "" {
		return req
	}
	req.AddCookie(&http.Cookie{Name: backend.AuthTokenCookie, Value: "tok"})
	req.AddCookie(&http.Cookie{Name: backend.UserGroupCookie, Value: role.String()})
	claim := navigation.Claim{Role: role, UserID: UserID, Username: "test-" + role.String()}
	return req.WithContext(navigation.ContextWithClaim(req.Context(), claim))
}

// Serve runs h behind the session middleware and remembers the session cookie.
func (e *Env) Serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	e.t.Helper()
	if e.cookie != nil {
		req.AddCookie(e.cookie)
	}
	rec := httptest.NewRecorder()
	shared.SessionMiddleware(e.Sessions, nil)(h).ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie {
			if c.MaxAge < 0 {
				e.cookie = nil
			} else {
				e.cookie = c
			}
		}
	}
	return rec
}

// Session loads the current session for assertions.
func (e *Env) Session() *shared.Session {
	e.t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if e.cookie != nil {
		req.AddCookie(e.cookie)
	}
	sess, err := e.Sessions.Load(context.Background(), req)
	require.NoError(e.t, err)
	return sess
}

// Feedback returns the pending feedback record without consuming it.
func (e *Env) Feedback() feedback.FeedbackState {
	return e.Stores.Feedback(e.Session())
}

// Error returns the pending error record without consuming it.
func (e *Env) Error() feedback.ErrorState {
	return e.Stores.Error(e.Session())
}
