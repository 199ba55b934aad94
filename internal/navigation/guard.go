package navigation

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kantine/kantine-web/internal/backend"
	"github.com/kantine/kantine-web/internal/roles"
)

// Decision reasons, also used as metric labels.
const (
	ReasonPublic        = "public"
	ReasonGranted       = "granted"
	ReasonNoCredentials = "no_credentials"
	ReasonClaimFailed   = "claim_failed"
	ReasonRoleMismatch  = "role_mismatch"
	ReasonAnonymous     = "anonymous"
	ReasonSignedIn      = "signed_in"
)

// Decision is the outcome of a guard check: proceed, or redirect to Location.
type Decision struct {
	Proceed  bool
	Location string
	Reason   string
	Claim    Claim
}

// Guard checks the visitor's role claim against the route being opened. A
// failed claim lookup always denies.
type Guard struct {
	claims    ClaimSource
	logger    *slog.Logger
	decisions *prometheus.CounterVec
}

// NewGuard builds a Guard. reg may be nil to skip metrics.
func NewGuard(claims ClaimSource, logger *slog.Logger, reg prometheus.Registerer) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Guard{claims: claims, logger: logger}
	if reg != nil {
		counter := prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kantine_guard_decisions_total",
			Help: "Navigation guard decisions by outcome.",
		}, []string{"reason"})
		if err := reg.Register(counter); err == nil {
			g.decisions = counter
		} else if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			g.decisions = already.ExistingCollector.(*prometheus.CounterVec)
		}
	}
	return g
}

// Decide resolves a navigation to route.
func (g *Guard) Decide(ctx context.Context, route Route, creds backend.Credentials) Decision {
	if route.Public {
		return g.record(Decision{Proceed: true, Reason: ReasonPublic})
	}
	if creds.Empty() {
		return g.record(Decision{Location: LoginPath, Reason: ReasonNoCredentials})
	}
	claim, err := g.claims.Claim(ctx, creds)
	if err != nil {
		if errors.Is(err, ErrNoCredentials) {
			return g.record(Decision{Location: LoginPath, Reason: ReasonNoCredentials})
		}
		g.logger.Warn("guard claim failed", slog.String("path", route.Path), slog.Any("error", err))
		return g.record(Decision{Location: DeniedPath, Reason: ReasonClaimFailed})
	}
	if route.Role != "" && claim.Role != route.Role {
		g.logger.Info("guard role mismatch",
			slog.String("path", route.Path),
			slog.String("required", route.Role.String()),
			slog.String("claim", claim.Role.String()))
		return g.record(Decision{Location: DeniedPath, Reason: ReasonRoleMismatch, Claim: claim})
	}
	return g.record(Decision{Proceed: true, Reason: ReasonGranted, Claim: claim})
}

// DecideLogin is the inverse check for the login page: a signed-in visitor is
// sent to their landing page instead of seeing the form.
func (g *Guard) DecideLogin(ctx context.Context, creds backend.Credentials) Decision {
	if creds.Empty() {
		return g.record(Decision{Proceed: true, Reason: ReasonAnonymous})
	}
	claim, err := g.claims.Claim(ctx, creds)
	if err != nil {
		return g.record(Decision{Proceed: true, Reason: ReasonAnonymous})
	}
	return g.record(Decision{Location: claim.Role.Landing(), Reason: ReasonSignedIn, Claim: claim})
}

// Middleware guards every request whose path is in table. Paths outside the
// table pass through untouched.
func (g *Guard) Middleware(table *Table) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, ok := table.Lookup(r.URL.Path)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			creds := backend.CredentialsFromRequest(r)
			var decision Decision
			if route.Path == LoginPath && (r.Method == http.MethodGet || r.Method == http.MethodHead) {
				decision = g.DecideLogin(r.Context(), creds)
			} else {
				decision = g.Decide(r.Context(), route, creds)
			}
			g.apply(w, r, next, decision)
		})
	}
}

// RequireRole guards action endpoints that are not pages of the table. A claim
// already granted by Middleware for the same role is reused.
func (g *Guard) RequireRole(role roles.Role) func(http.Handler) http.Handler {
	route := Route{Path: "(action)", Role: role}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if claim, ok := ClaimFromContext(r.Context()); ok && claim.Role == role {
				next.ServeHTTP(w, r)
				return
			}
			g.apply(w, r, next, g.Decide(r.Context(), route, backend.CredentialsFromRequest(r)))
		})
	}
}

func (g *Guard) apply(w http.ResponseWriter, r *http.Request, next http.Handler, decision Decision) {
	backend.Relay(w, decision.Claim.Cookies)
	if !decision.Proceed {
		http.Redirect(w, r, decision.Location, http.StatusSeeOther)
		return
	}
	if decision.Claim.Role != "" {
		r = r.WithContext(ContextWithClaim(r.Context(), decision.Claim))
	}
	next.ServeHTTP(w, r)
}

func (g *Guard) record(d Decision) Decision {
	if g.decisions != nil {
		g.decisions.WithLabelValues(d.Reason).Inc()
	}
	return d
}

type claimContextKey struct{}

// ContextWithClaim stores the resolved claim in context.
func ContextWithClaim(ctx context.Context, claim Claim) context.Context {
	return context.WithValue(ctx, claimContextKey{}, claim)
}

// ClaimFromContext returns the claim the guard resolved for this request.
func ClaimFromContext(ctx context.Context) (Claim, bool) {
	claim, ok := ctx.Value(claimContextKey{}).(Claim)
	return claim, ok
}

// RoleFromContext returns the role the guard granted, if any.
func RoleFromContext(ctx context.Context) roles.Role {
	claim, _ := ClaimFromContext(ctx)
	return claim.Role
}
