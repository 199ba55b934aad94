// Package navigation decides, before a page renders, whether the visitor may
// see it. Every guarded page is one row of a declarative route table; a single
// guard consults the table instead of each page repeating its own role check.
package navigation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kantine/kantine-web/internal/roles"
)

// Well-known paths.
const (
	LoginPath  = "/login"
	DeniedPath = "/zugriff-verweigert"
)

// ErrDuplicateRoute is returned when two routes share a path.
var ErrDuplicateRoute = errors.New("navigation: duplicate route")

// Route is one page of the application.
type Route struct {
	Path string
	// Name is the navigation label.
	Name string
	// Role required to view the page. Empty means any signed-in role.
	Role roles.Role
	// Public pages skip the guard entirely.
	Public bool
	// Hidden pages are reachable but not listed in the navigation drawer.
	Hidden bool
}

// Table is an immutable set of routes keyed by path.
type Table struct {
	routes []Route
	byPath map[string]int
}

// NewTable validates and indexes routes.
func NewTable(routes ...Route) (*Table, error) {
	t := &Table{byPath: make(map[string]int, len(routes))}
	for _, route := range routes {
		path := normalize(route.Path)
		if path == "" || !strings.HasPrefix(path, "/") {
			return nil, fmt.Errorf("navigation: invalid path %q", route.Path)
		}
		if route.Role != "" && !route.Role.Valid() {
			return nil, fmt.Errorf("navigation: route %s: %w", path, roles.ErrUnknownRole)
		}
		if _, exists := t.byPath[path]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRoute, path)
		}
		route.Path = path
		t.byPath[path] = len(t.routes)
		t.routes = append(t.routes, route)
	}
	return t, nil
}

// MustTable is NewTable for static tables known to be valid.
func MustTable(routes ...Route) *Table {
	t, err := NewTable(routes...)
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup finds the route registered for path. A trailing slash is ignored.
func (t *Table) Lookup(path string) (Route, bool) {
	idx, ok := t.byPath[normalize(path)]
	if !ok {
		return Route{}, false
	}
	return t.routes[idx], true
}

// Routes returns a copy of all routes in registration order.
func (t *Table) Routes() []Route {
	out := make([]Route, len(t.routes))
	copy(out, t.routes)
	return out
}

// ForRole lists the visible, non-public routes the role may open.
func (t *Table) ForRole(role roles.Role) []Route {
	var out []Route
	for _, route := range t.routes {
		if route.Public || route.Hidden {
			continue
		}
		if route.Role == "" || route.Role == role {
			out = append(out, route)
		}
	}
	return out
}

func normalize(path string) string {
	path = strings.TrimSpace(path)
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}

// DefaultRoutes is the application's route table.
func DefaultRoutes() []Route {
	return []Route{
		{Path: "/", Public: true, Hidden: true},
		{Path: LoginPath, Name: "Anmelden", Public: true},
		{Path: DeniedPath, Name: "Zugriff verweigert", Public: true},

		{Path: "/verwaltung/benutzer/uebersicht", Name: "Benutzerübersicht", Role: roles.Verwaltung},
		{Path: "/verwaltung/benutzer/neu", Name: "Neuer Benutzer", Role: roles.Verwaltung},
		{Path: "/verwaltung/mitarbeiter", Name: "Mitarbeiter", Role: roles.Verwaltung},
		{Path: "/verwaltung/mitarbeiter/csv-upload", Name: "CSV-Upload", Role: roles.Verwaltung},
		{Path: "/verwaltung/standorte", Name: "Standorte", Role: roles.Verwaltung},
		{Path: "/verwaltung/gruppen", Name: "Gruppen", Role: roles.Verwaltung},

		{Path: "/gruppenleitung", Name: "Bestellungen", Role: roles.Gruppenleitung},
		{Path: "/standortleitung", Name: "Standortübersicht", Role: roles.Standortleitung},

		{Path: "/kuechenpersonal", Name: "Ausgabe", Role: roles.Kuechenpersonal},
		{Path: "/kuechenpersonal/scan", Name: "QR-Scan", Role: roles.Kuechenpersonal, Hidden: true},
	}
}
