package verwaltung_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kantine/kantine-web/internal/backend"
	"github.com/kantine/kantine-web/internal/feedback"
	"github.com/kantine/kantine-web/internal/roles"
	"github.com/kantine/kantine-web/internal/testing/pagetest"
	"github.com/kantine/kantine-web/internal/verwaltung"
	_ "github.com/kantine/kantine-web/testing"
)

const locationID = "3f0e7a52-1c9a-4b8e-9d1f-0a2b3c4d5e6f"

func newRouter(t *testing.T, api *http.ServeMux) (http.Handler, *pagetest.Env) {
	t.Helper()
	env := pagetest.New(t)
	handler := verwaltung.NewHandler(nil, env.API(api), env.Pages)
	r := chi.NewRouter()
	r.Route("/verwaltung", handler.MountRoutes)
	return r, env
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func directoryAPI() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/users", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]any{
			{"id": "u1", "username": "zoe", "first_name": "Zoe", "last_name": "Zimmer", "user_group": "verwaltung", "location_id": locationID},
			{"id": "u2", "username": "jan", "first_name": "Jan", "last_name": "Ärger", "user_group": "gruppenleitung"},
		})
	})
	mux.HandleFunc("GET /api/locations", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]any{{"id": locationID, "location_name": "Werk Nord"}})
	})
	return mux
}

func TestUsersOverview(t *testing.T) {
	router, env := newRouter(t, directoryAPI())

	res := env.Serve(router, env.Get("/verwaltung/benutzer/uebersicht", roles.Verwaltung))
	require.Equal(t, http.StatusOK, res.Code)
	body := res.Body.String()
	assert.Contains(t, body, "Werk Nord")
	assert.Contains(t, body, "Ärger")
	assert.Less(t, bytes.Index(res.Body.Bytes(), []byte("Ärger")), bytes.Index(res.Body.Bytes(), []byte("Zimmer")))
}

func TestUsersOverviewShowsAPIFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	router, env := newRouter(t, mux)

	res := env.Serve(router, env.Get("/verwaltung/benutzer/uebersicht", roles.Verwaltung))
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "Server nicht erreichbar")
}

func TestUsersOverviewExpiredSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	router, env := newRouter(t, mux)

	res := env.Serve(router, env.Get("/verwaltung/benutzer/uebersicht", roles.Verwaltung))
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/login", res.Header().Get("Location"))
}

func TestLegacyOverviewRedirects(t *testing.T) {
	router, env := newRouter(t, directoryAPI())
	res := env.Serve(router, env.Get("/verwaltung/uebersicht", roles.Verwaltung))
	assert.Equal(t, http.StatusMovedPermanently, res.Code)
	assert.Equal(t, "/verwaltung/benutzer/uebersicht", res.Header().Get("Location"))
}

func TestCreateUserValidation(t *testing.T) {
	router, env := newRouter(t, directoryAPI())

	form := url.Values{"username": {"neu"}, "password": {"kurz"}, "user_group": {"koch"}}
	res := env.Serve(router, env.PostForm("/verwaltung/benutzer/neu", form, roles.Verwaltung))
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
	assert.Contains(t, res.Body.String(), "Mindestens 8 Zeichen")
	assert.Contains(t, res.Body.String(), "Ungültige Auswahl")
	assert.NotContains(t, res.Body.String(), `value="kurz"`)
}

func TestCreateUser(t *testing.T) {
	mux := directoryAPI()
	var created backend.NewUser
	mux.HandleFunc("POST /api/users", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&created))
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, map[string]string{"id": "u3"})
	})
	router, env := newRouter(t, mux)

	form := url.Values{
		"username":    {"kueche1"},
		"password":    {"sehrgeheim"},
		"user_group":  {"kuechenpersonal"},
		"location_id": {locationID},
	}
	res := env.Serve(router, env.PostForm("/verwaltung/benutzer/neu", form, roles.Verwaltung))
	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/verwaltung/benutzer/uebersicht", res.Header().Get("Location"))
	assert.Equal(t, "kuechenpersonal", created.UserGroup)
	assert.Equal(t, locationID, created.LocationID)

	fb := env.Feedback()
	assert.Equal(t, feedback.StatusSuccess, fb.Status)
	assert.Equal(t, "Benutzer angelegt", fb.Title)
}

func TestCreateUserConflict(t *testing.T) {
	mux := directoryAPI()
	mux.HandleFunc("POST /api/users", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})
	router, env := newRouter(t, mux)

	form := url.Values{"username": {"zoe"}, "password": {"sehrgeheim"}, "user_group": {"verwaltung"}}
	res := env.Serve(router, env.PostForm("/verwaltung/benutzer/neu", form, roles.Verwaltung))
	assert.Equal(t, http.StatusConflict, res.Code)
	assert.Contains(t, res.Body.String(), "Nutzername bereits vergeben")
}

func csvRequest(t *testing.T, env *pagetest.Env, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, _ = io.WriteString(part, content)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/verwaltung/mitarbeiter/csv-upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return env.As(req, roles.Verwaltung)
}

func TestCSVUploadRejectsExtension(t *testing.T) {
	router, env := newRouter(t, directoryAPI())
	res := env.Serve(router, csvRequest(t, env, "liste.xlsx", "x"))
	assert.Equal(t, http.StatusUnsupportedMediaType, res.Code)
	assert.Contains(t, res.Body.String(), "Falsches Dateiformat")
}

func TestCSVUploadReportsRows(t *testing.T) {
	router, env := newRouter(t, directoryAPI())
	content := "first_name,last_name,employee_number,group_name,location_name\nAnna,Meier,17,Montage,Werk Nord\n,Berg,x,Montage,Werk Nord\n"
	res := env.Serve(router, csvRequest(t, env, "liste.csv", content))
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
	assert.Contains(t, res.Body.String(), "Zeile 3")
}

func TestCSVUploadForwardsValidFile(t *testing.T) {
	mux := directoryAPI()
	var forwarded string
	mux.HandleFunc("POST /api/employees_csv", func(w http.ResponseWriter, r *http.Request) {
		file, _, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)
		forwarded = string(data)
		writeJSON(w, map[string]string{"message": "2 Mitarbeiter angelegt"})
	})
	router, env := newRouter(t, mux)

	content := "first_name;last_name;employee_number;group_name;location_name\nAnna;Meier;17;Montage;Werk Nord\nJan;Berg;18;Montage;Werk Nord\n"
	res := env.Serve(router, csvRequest(t, env, "liste.csv", content))
	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/verwaltung/mitarbeiter", res.Header().Get("Location"))
	assert.Equal(t, content, forwarded)
	assert.Equal(t, "2 Mitarbeiter angelegt", env.Feedback().Message)
}

func TestEmployeesPageAndQRCode(t *testing.T) {
	mux := directoryAPI()
	mux.HandleFunc("GET /api/employees", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]any{{
			"id": "6f1c2a4e-8d3b-4b7a-9c1e-2f5d6a7b8c9d", "first_name": "Ali", "last_name": "Kaya",
			"employee_number": 17, "group": map[string]any{"id": "g1", "group_name": "Montage"},
		}})
	})
	router, env := newRouter(t, mux)

	res := env.Serve(router, env.Get("/verwaltung/mitarbeiter", roles.Verwaltung))
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "Kaya")
	assert.Contains(t, res.Body.String(), "Montage")

	res = env.Serve(router, env.Get("/verwaltung/mitarbeiter/6f1c2a4e-8d3b-4b7a-9c1e-2f5d6a7b8c9d/qrcode.png", roles.Verwaltung))
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "image/png", res.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(res.Body.Bytes(), []byte("\x89PNG")))
}

func TestCreateGroupValidation(t *testing.T) {
	mux := directoryAPI()
	mux.HandleFunc("GET /api/all_groups_with_locations", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []any{})
	})
	router, env := newRouter(t, mux)

	form := url.Values{"group_name": {"Montage"}, "user_id_group_leader": {"kein-uuid"}}
	res := env.Serve(router, env.PostForm("/verwaltung/gruppen", form, roles.Verwaltung))
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
	assert.Contains(t, res.Body.String(), "Ungültige Auswahl")
}

func TestCreateLocation(t *testing.T) {
	mux := directoryAPI()
	var created backend.NewLocation
	mux.HandleFunc("POST /api/locations", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&created))
		writeJSON(w, map[string]string{"id": "l2", "location_name": created.LocationName})
	})
	router, env := newRouter(t, mux)

	form := url.Values{"location_name": {"Werk Süd"}, "user_id_location_leader": {locationID}}
	res := env.Serve(router, env.PostForm("/verwaltung/standorte", form, roles.Verwaltung))
	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "Werk Süd", created.LocationName)
	assert.Equal(t, "Standort angelegt", env.Feedback().Title)
}
