// Package reload recovers browsers that run a stale asset bundle after a
// deploy. Assets are versioned under /static/{build}/; a request for another
// build triggers exactly one full page reload, tracked by a cookie.
package reload

import (
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// CookieName marks that a reload has already been attempted.
	CookieName = "dynamic-reload"
	// HeaderName carries the page the client should reload.
	HeaderName = "X-Reload"
	// StorageKey is the localStorage key the client script guards with.
	StorageKey = "vuetify:dynamic-reload"
	// Prefix is the mount point of versioned assets.
	Prefix = "/static/"
)

// Guard serves versioned assets and answers stale ones.
type Guard struct {
	build  string
	logger *slog.Logger
	files  http.Handler
}

// New serves assets from files under the given build id.
func New(build string, files fs.FS, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	if build == "" {
		build = "dev"
	}
	return &Guard{
		build:  build,
		logger: logger,
		files:  http.FileServer(http.FS(files)),
	}
}

// Build returns the current build id.
func (g *Guard) Build() string { return g.build }

// Asset returns the versioned URL of a static file, e.g. Asset("js/app.js").
func (g *Guard) Asset(name string) string {
	return Prefix + g.build + "/" + strings.TrimPrefix(name, "/")
}

// ServeHTTP handles everything below Prefix.
func (g *Guard) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, Prefix)
	build, file, ok := strings.Cut(rest, "/")
	if !ok || file == "" {
		http.NotFound(w, r)
		return
	}
	if build != g.build {
		g.stale(w, r, build)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	r2 := r.Clone(r.Context())
	r2.URL.Path = "/" + file
	r2.URL.RawPath = ""
	g.files.ServeHTTP(w, r2)
}

// stale answers a request for another build. A HEAD request is the client's
// check after a failed import and never touches the marker; the client
// guards its single reload in localStorage.
func (g *Guard) stale(w http.ResponseWriter, r *http.Request, build string) {
	if r.Method == http.MethodHead {
		w.Header().Set(HeaderName, reloadTarget(r))
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusConflict)
		return
	}
	if _, err := r.Cookie(CookieName); err == nil {
		g.logger.Error("stale asset after reload",
			slog.String("path", r.URL.Path),
			slog.String("requested_build", build),
			slog.String("build", g.build))
		http.NotFound(w, r)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "1",
		Path:     "/",
		MaxAge:   int((5 * time.Minute).Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
	w.Header().Set(HeaderName, reloadTarget(r))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusConflict)
}

// reloadTarget is the same-origin page that requested the asset, or "/".
// An asset referer (a module importing another) also falls back to "/".
func reloadTarget(r *http.Request) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Path == "" || (ref.Host != "" && ref.Host != r.Host) || strings.HasPrefix(ref.Path, Prefix) {
		return "/"
	}
	if ref.RawQuery != "" {
		return ref.Path + "?" + ref.RawQuery
	}
	return ref.Path
}

// Ready clears the reload marker once a page has rendered successfully.
func Ready(w http.ResponseWriter, r *http.Request) {
	if _, err := r.Cookie(CookieName); err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		SameSite: http.SameSiteLaxMode,
	})
}

// Middleware calls Ready for every successful HTML response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || strings.HasPrefix(r.URL.Path, Prefix) {
			next.ServeHTTP(w, r)
			return
		}
		if _, err := r.Cookie(CookieName); err != nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(&readyWriter{ResponseWriter: w, req: r}, r)
	})
}

type readyWriter struct {
	http.ResponseWriter
	req         *http.Request
	wroteHeader bool
}

func (w *readyWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.wroteHeader = true
		if status == http.StatusOK && strings.HasPrefix(w.Header().Get("Content-Type"), "text/html") {
			Ready(w.ResponseWriter, w.req)
		}
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *readyWriter) Write(p []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(p)
}

func (w *readyWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
