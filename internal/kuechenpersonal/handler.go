// Package kuechenpersonal serves the kitchen's hand-out pages: scanning a
// person's QR code, showing today's order and marking it handed out.
package kuechenpersonal

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kantine/kantine-web/internal/backend"
	"github.com/kantine/kantine-web/internal/components"
	"github.com/kantine/kantine-web/internal/feedback"
	"github.com/kantine/kantine-web/internal/navigation"
	"github.com/kantine/kantine-web/internal/shared"
	"github.com/kantine/kantine-web/internal/view"
)

const scanPath = "/kuechenpersonal/scan"

// API is the part of the backend client the kitchen uses.
type API interface {
	DailyOrderForPerson(ctx context.Context, creds backend.Credentials, personID string) (backend.DailyOrder, error)
	MarkHandedOut(ctx context.Context, creds backend.Credentials, orderID string) (backend.DailyOrder, error)
}

// Handler wires the kitchen pages.
type Handler struct {
	logger *slog.Logger
	api    API
	pages  *view.Pages
	// actions guards POST endpoints outside the route table.
	actions func(http.Handler) http.Handler
}

// NewHandler constructs a Handler instance. actions may be nil when the
// caller guards the routes itself.
func NewHandler(logger *slog.Logger, api API, pages *view.Pages, actions func(http.Handler) http.Handler) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if actions == nil {
		actions = func(next http.Handler) http.Handler { return next }
	}
	return &Handler{logger: logger, api: api, pages: pages, actions: actions}
}

// MountRoutes registers the pages below /kuechenpersonal.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.showLanding)
	r.Get("/scan", h.showScanner)
	r.With(h.actions).Post("/scan", h.handleScan)
	r.With(h.actions).Post("/ausgabe/{orderID}", h.handleOut)
}

type landingPage struct {
	Username string
}

type scanPage struct {
	Scan  components.ScannedOrder
	Today components.UserTodaysOrder
}

func (h *Handler) showLanding(w http.ResponseWriter, r *http.Request) {
	claim, _ := navigation.ClaimFromContext(r.Context())
	h.pages.Render(w, r, view.Page{
		Name:  "pages/kuechenpersonal.html",
		Title: "Ausgabe",
		Data:  landingPage{Username: claim.Username},
	})
}

func (h *Handler) showScanner(w http.ResponseWriter, r *http.Request) {
	h.pages.Render(w, r, view.Page{Name: "pages/kuechenpersonal_scan.html", Title: "QR-Scan", Data: scanPage{}})
}

func (h *Handler) handleScan(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	scan := components.ScannedOrder{Data: []components.ScanResult{{RawValue: r.PostFormValue("raw_value")}}}
	sess := shared.SessionFromContext(r.Context())
	render := func(status int) {
		h.pages.Render(w, r, view.Page{
			Status: status,
			Name:   "pages/kuechenpersonal_scan.html",
			Title:  "QR-Scan",
			Data:   scanPage{Scan: scan, Today: components.UserTodaysOrder{Order: scan.Order}},
		})
	}

	personID, err := scan.PersonID()
	if err != nil {
		scan.Error = "Ungültiger QR-Code"
		h.pages.Stores.SetError(sess, scan.Error, feedback.TypeBanner)
		render(http.StatusUnprocessableEntity)
		return
	}

	order, err := h.api.DailyOrderForPerson(r.Context(), backend.CredentialsFromRequest(r), personID.String())
	switch {
	case err == nil:
		scan.Order = &order
		render(http.StatusOK)
	case errors.Is(err, backend.ErrNotFound):
		scan.Error = "Keine Bestellung für heute"
		render(http.StatusOK)
	case errors.Is(err, backend.ErrUnauthorized):
		http.Redirect(w, r, navigation.LoginPath, http.StatusSeeOther)
	default:
		h.logger.Error("daily order lookup", slog.String("person_id", personID.String()), slog.Any("error", err))
		title, message := backend.Describe(err)
		scan.Error = title
		h.pages.Stores.SetError(sess, title+": "+message, feedback.TypeBanner)
		render(http.StatusBadGateway)
	}
}

func (h *Handler) handleOut(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	order, err := h.api.MarkHandedOut(r.Context(), backend.CredentialsFromRequest(r), orderID)
	if err != nil {
		h.logger.Warn("mark handed out", slog.String("order_id", orderID), slog.Any("error", err))
		title, message := backend.Describe(err)
		h.pages.Redirect(w, r, scanPath, feedback.StatusError, title, message)
		return
	}
	h.pages.Redirect(w, r, scanPath, feedback.StatusSuccess, "Ausgegeben",
		components.UserTodaysOrder{Order: &order}.Summary()+" wurde ausgegeben.")
}
