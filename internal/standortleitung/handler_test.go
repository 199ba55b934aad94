package standortleitung_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kantine/kantine-web/internal/roles"
	"github.com/kantine/kantine-web/internal/standortleitung"
	"github.com/kantine/kantine-web/internal/testing/pagetest"
	_ "github.com/kantine/kantine-web/testing"
)

func newRouter(t *testing.T, api *http.ServeMux) (http.Handler, *pagetest.Env) {
	t.Helper()
	env := pagetest.New(t)
	handler := standortleitung.NewHandler(nil, env.API(api), env.Pages)
	r := chi.NewRouter()
	r.Route("/standortleitung", handler.MountRoutes)
	return r, env
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestOverviewShowsOwnLocations(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/locations", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]any{
			{"id": "l1", "location_name": "Werk Nord", "user_id_location_leader": pagetest.UserID},
			{"id": "l2", "location_name": "Werk Süd", "user_id_location_leader": "other"},
		})
	})
	mux.HandleFunc("GET /api/all_groups_with_locations", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]any{
			{
				"id":           "g1",
				"group_name":   "Schreinerei",
				"location_id":  "l1",
				"group_leader": map[string]any{"id": "u9", "first_name": "Paul", "last_name": "Kern"},
				"employees":    []map[string]any{{"id": "e1", "first_name": "Ida", "last_name": "Lang", "employee_number": 3}},
			},
			{"id": "g2", "group_name": "Gärtnerei", "location_id": "l2"},
		})
	})
	router, env := newRouter(t, mux)

	res := env.Serve(router, env.Get("/standortleitung", roles.Standortleitung))
	require.Equal(t, http.StatusOK, res.Code)
	body := res.Body.String()
	assert.Contains(t, body, "Werk Nord")
	assert.Contains(t, body, "Schreinerei")
	assert.Contains(t, body, "Paul Kern")
	assert.Contains(t, body, "Ida Lang")
	assert.NotContains(t, body, "Werk Süd")
	assert.NotContains(t, body, "Gärtnerei")
}

func TestOverviewShowsAPIFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/locations", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	mux.HandleFunc("GET /api/all_groups_with_locations", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]any{})
	})
	router, env := newRouter(t, mux)

	res := env.Serve(router, env.Get("/standortleitung", roles.Standortleitung))
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "Server nicht erreichbar")
}
