package view

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/kantine/kantine-web/internal/components"
	"github.com/kantine/kantine-web/internal/feedback"
	"github.com/kantine/kantine-web/internal/navigation"
	"github.com/kantine/kantine-web/web"
)

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Notices     []components.Notice
	App         feedback.AppState
	Nav         []navigation.Route
	CurrentPath string
	Data        any
}

// AssetFunc maps a static file name to its served URL.
type AssetFunc func(name string) string

// NewEngine parses templates at build-time. asset may be nil, in which case
// files are linked unversioned below /static/.
func NewEngine(asset AssetFunc) (*Engine, error) {
	if asset == nil {
		asset = func(name string) string { return "/static/" + strings.TrimPrefix(name, "/") }
	}
	e := &Engine{}
	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02.01.2006 15:04")
		},
		"asset": func(name string) string { return asset(name) },
		"active": func(current, path string) bool {
			return current == path || strings.HasPrefix(current, path+"/")
		},
		"component": e.component,
		"qrImage": func(q components.UserQRCode) template.URL {
			return template.URL(q.DataURI())
		},
	}
	tpl, err := template.New("root").Funcs(funcMap).ParseFS(web.Templates, "templates/layouts/*.html", "templates/partials/*.html", "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	e.templates = tpl
	return e, nil
}

func (e *Engine) component(c components.Component) (template.HTML, error) {
	var buf bytes.Buffer
	if err := e.templates.ExecuteTemplate(&buf, c.Template(), c); err != nil {
		return "", err
	}
	// Output of an html/template execution is already escaped.
	return template.HTML(buf.String()), nil
}

// Render executes a named template with TemplateData and a 200 status.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	return e.RenderStatus(w, http.StatusOK, name, data)
}

// RenderStatus executes a named template into a buffer and writes it with
// status. Nothing is written when execution fails.
func (e *Engine) RenderStatus(w http.ResponseWriter, status int, name string, data TemplateData) error {
	if e == nil || e.templates == nil {
		return fmt.Errorf("template engine not initialised")
	}
	var buf bytes.Buffer
	if err := e.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
