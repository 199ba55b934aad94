// Package gruppenleitung serves the group leader's order page.
package gruppenleitung

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/kantine/kantine-web/internal/backend"
	"github.com/kantine/kantine-web/internal/components"
	"github.com/kantine/kantine-web/internal/feedback"
	"github.com/kantine/kantine-web/internal/navigation"
	"github.com/kantine/kantine-web/internal/shared"
	"github.com/kantine/kantine-web/internal/view"
)

const pagePath = "/gruppenleitung"

// DefaultStopHour closes same-day orders at 08:00.
const DefaultStopHour = 8

// API is the part of the backend client the order page uses.
type API interface {
	ListGroupsWithLocations(ctx context.Context, creds backend.Credentials) ([]backend.Group, error)
	CreateOrders(ctx context.Context, creds backend.Credentials, orders []backend.OrderRequest) error
}

// Options tune the order window.
type Options struct {
	// StopHour is 1-23; zero selects DefaultStopHour.
	StopHour int
	// Now defaults to time.Now.
	Now func() time.Time
}

// Handler wires the group leader pages.
type Handler struct {
	logger    *slog.Logger
	api       API
	pages     *view.Pages
	validator *validator.Validate
	stopHour  int
	now       func() time.Time
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, api API, pages *view.Pages, opts Options) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.StopHour <= 0 || opts.StopHour > 23 {
		opts.StopHour = DefaultStopHour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Handler{
		logger:    logger,
		api:       api,
		pages:     pages,
		validator: shared.NewValidator(),
		stopHour:  opts.StopHour,
		now:       opts.Now,
	}
}

// MountRoutes registers the pages below /gruppenleitung.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.showOrders)
	r.Post("/bestellungen", h.submitOrders)
}

type orderGroup struct {
	Card       components.GroupCard
	LocationID string
}

type ordersPage struct {
	Groups    []orderGroup
	Calendar  components.CalendarDialog
	Dishes    components.Dropdown
	Orderable bool
	MinDate   string
}

func (h *Handler) showOrders(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	calendar := components.CalendarDialog{
		StopHour:   h.stopHour,
		Date:       r.URL.Query().Get("datum"),
		ShowDialog: r.URL.Query().Has("kalender"),
	}
	if calendar.Date == "" {
		calendar.Date = calendar.MinDate(now)
	}

	groups, err := h.ownGroups(r)
	if err != nil {
		h.logger.Error("load groups", slog.Any("error", err))
		if errors.Is(err, backend.ErrUnauthorized) {
			http.Redirect(w, r, navigation.LoginPath, http.StatusSeeOther)
			return
		}
		title, message := backend.Describe(err)
		h.pages.Stores.SetError(shared.SessionFromContext(r.Context()), title+": "+message, feedback.TypeBanner)
	}
	page := ordersPage{
		Calendar:  calendar,
		Dishes:    components.Dropdown{Items: []string{backend.MainDishRed, backend.MainDishBlue}, MenuName: "Hauptgericht", MenuIcon: "mdi-food"},
		Orderable: calendar.Orderable(now),
		MinDate:   calendar.MinDate(now),
	}
	for _, g := range groups {
		page.Groups = append(page.Groups, orderGroup{Card: components.GroupCardFrom(g), LocationID: string(g.LocationID)})
		page.Calendar.Groups = append(page.Calendar.Groups, g.GroupName)
	}
	h.pages.Render(w, r, view.Page{Name: "pages/gruppenleitung.html", Title: "Bestellungen", Data: page})
}

// ownGroups lists the groups the signed-in user leads or stands in for.
func (h *Handler) ownGroups(r *http.Request) ([]backend.Group, error) {
	groups, err := h.api.ListGroupsWithLocations(r.Context(), backend.CredentialsFromRequest(r))
	if err != nil {
		return nil, err
	}
	claim, _ := navigation.ClaimFromContext(r.Context())
	var own []backend.Group
	for _, g := range groups {
		if leads(claim, g.UserIDGroupLeader, g.GroupLeader) || leads(claim, g.UserIDReplacement, g.GroupLeaderReplacement) {
			own = append(own, g)
		}
	}
	return own, nil
}

func leads(claim navigation.Claim, id backend.ID, ref *backend.UserRef) bool {
	if claim.UserID != "" && string(id) == claim.UserID {
		return true
	}
	return ref != nil && claim.Username != "" && ref.Username == claim.Username
}

type orderForm struct {
	Date       string      `form:"date" validate:"required,datetime=2006-01-02"`
	LocationID string      `form:"location_id" validate:"required"`
	Lines      []orderLine `form:"lines" validate:"dive"`
}

type orderLine struct {
	PersonID string `form:"person_id" validate:"required,uuid"`
	MainDish string `form:"main_dish" validate:"omitempty,oneof=rot blau"`
	Salad    bool   `form:"salad_option"`
}

func (h *Handler) submitOrders(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := orderForm{
		Date:       strings.TrimSpace(r.PostFormValue("date")),
		LocationID: r.PostFormValue("location_id"),
	}
	back := pagePath + "?datum=" + url.QueryEscape(form.Date)
	for _, personID := range r.PostForm["person_id"] {
		line := orderLine{
			PersonID: personID,
			MainDish: r.PostFormValue("main_dish_" + personID),
			Salad:    r.PostFormValue("salad_"+personID) != "",
		}
		if line.MainDish == "" && !line.Salad {
			continue
		}
		form.Lines = append(form.Lines, line)
	}

	if err := h.validator.Struct(form); err != nil {
		h.logger.Info("invalid order form", slog.Any("error", err))
		h.pages.RedirectError(w, r, back, "Bestellung ungültig: bitte Datum und Gerichte prüfen")
		return
	}
	if !(components.CalendarDialog{StopHour: h.stopHour, Date: form.Date}).Orderable(h.now()) {
		h.pages.RedirectError(w, r, pagePath, "Bestellschluss für "+form.Date+" ist vorbei")
		return
	}
	if len(form.Lines) == 0 {
		h.pages.RedirectError(w, r, back, "Keine Bestellung ausgewählt")
		return
	}

	orders := make([]backend.OrderRequest, 0, len(form.Lines))
	for _, line := range form.Lines {
		orders = append(orders, backend.OrderRequest{
			PersonID:    line.PersonID,
			LocationID:  form.LocationID,
			Date:        form.Date,
			MainDish:    line.MainDish,
			SaladOption: line.Salad,
		})
	}
	if err := h.api.CreateOrders(r.Context(), backend.CredentialsFromRequest(r), orders); err != nil {
		h.logger.Warn("create orders", slog.Any("error", err))
		title, message := backend.Describe(err)
		h.pages.Redirect(w, r, back, feedback.StatusError, title, message)
		return
	}
	h.pages.Redirect(w, r, back, feedback.StatusSuccess, "Bestellung gespeichert",
		"Bestellung für "+form.Date+" wurde übermittelt.")
}
