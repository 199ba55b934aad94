package view

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kantine/kantine-web/internal/components"
	"github.com/kantine/kantine-web/internal/feedback"
	"github.com/kantine/kantine-web/internal/navigation"
	"github.com/kantine/kantine-web/internal/roles"
)

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine(nil)
	assert.NoError(t, err, "Templates should parse without error")
	assert.NotNil(t, engine)
}

func TestRenderLayoutWithNavAndNotices(t *testing.T) {
	engine, err := NewEngine(func(name string) string { return "/static/b42/" + name })
	require.NoError(t, err)

	table := navigation.MustTable(navigation.DefaultRoutes()...)
	app := feedback.AppState{Role: roles.Verwaltung, Username: "anna"}
	rec := httptest.NewRecorder()
	err = engine.Render(rec, "pages/denied.html", TemplateData{
		Title:       "Zugriff verweigert",
		CSRFToken:   "tok",
		App:         app,
		Nav:         table.ForRole(roles.Verwaltung),
		CurrentPath: "/verwaltung/gruppen",
		Notices: []components.Notice{
			{Kind: feedback.StatusError, Type: feedback.TypeBanner, Message: "Server nicht erreichbar"},
			{Kind: feedback.StatusSuccess, Type: feedback.TypeSnackbar, Title: "Gespeichert"},
		},
	})
	require.NoError(t, err)
	body := rec.Body.String()
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, body, `href="/static/b42/css/app.css"`)
	assert.Contains(t, body, `class="notice banner error"`)
	assert.Contains(t, body, `class="notice snackbar success"`)
	assert.Contains(t, body, `<a href="/verwaltung/gruppen" class="active" aria-current="page">Gruppen</a>`)
	assert.NotContains(t, body, "/kuechenpersonal")
	assert.Contains(t, body, `action="/logout"`)
}

func TestRenderStatusWritesNothingOnError(t *testing.T) {
	engine, err := NewEngine(nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	err = engine.RenderStatus(rec, http.StatusTeapot, "pages/missing.html", TemplateData{})
	assert.Error(t, err)
	assert.Zero(t, rec.Body.Len())
	assert.Empty(t, rec.Header().Get("Content-Type"))
}

func TestComponentRendersQRCode(t *testing.T) {
	engine, err := NewEngine(nil)
	require.NoError(t, err)

	html, err := engine.component(components.UserQRCode{QRValue: "6f1c2a4e-8d3b-4b7a-9c1e-2f5d6a7b8c9d"})
	require.NoError(t, err)
	assert.Contains(t, string(html), `src="data:image/png;base64,`)
}
