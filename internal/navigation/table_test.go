package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kantine/kantine-web/internal/roles"
)

func TestDefaultRoutesBuild(t *testing.T) {
	table, err := NewTable(DefaultRoutes()...)
	require.NoError(t, err)

	route, ok := table.Lookup("/verwaltung/benutzer/uebersicht/")
	require.True(t, ok)
	assert.Equal(t, roles.Verwaltung, route.Role)

	route, ok = table.Lookup(LoginPath)
	require.True(t, ok)
	assert.True(t, route.Public)

	_, ok = table.Lookup("/verwaltung/uebersicht")
	assert.False(t, ok)
}

func TestDuplicateRouteRejected(t *testing.T) {
	_, err := NewTable(
		Route{Path: "/gruppenleitung", Role: roles.Gruppenleitung},
		Route{Path: "/gruppenleitung/", Role: roles.Standortleitung},
	)
	assert.ErrorIs(t, err, ErrDuplicateRoute)
}

func TestInvalidRoutesRejected(t *testing.T) {
	_, err := NewTable(Route{Path: "gruppenleitung"})
	assert.Error(t, err)

	_, err = NewTable(Route{Path: "/x", Role: roles.Role("koch")})
	assert.ErrorIs(t, err, roles.ErrUnknownRole)

	assert.Panics(t, func() {
		MustTable(Route{Path: "/a"}, Route{Path: "/a"})
	})
}

func TestForRoleListsVisibleRoutes(t *testing.T) {
	table := MustTable(DefaultRoutes()...)

	var paths []string
	for _, route := range table.ForRole(roles.Kuechenpersonal) {
		paths = append(paths, route.Path)
	}
	assert.Equal(t, []string{"/kuechenpersonal"}, paths)

	assert.Len(t, table.ForRole(roles.Verwaltung), 6)
	assert.Len(t, table.Routes(), len(DefaultRoutes()))
}
