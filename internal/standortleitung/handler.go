// Package standortleitung serves the location leader's overview.
package standortleitung

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/kantine/kantine-web/internal/backend"
	"github.com/kantine/kantine-web/internal/components"
	"github.com/kantine/kantine-web/internal/feedback"
	"github.com/kantine/kantine-web/internal/navigation"
	"github.com/kantine/kantine-web/internal/shared"
	"github.com/kantine/kantine-web/internal/view"
)

// API is the part of the backend client the overview uses.
type API interface {
	ListLocations(ctx context.Context, creds backend.Credentials) ([]backend.Location, error)
	ListGroupsWithLocations(ctx context.Context, creds backend.Credentials) ([]backend.Group, error)
}

// Handler wires the location leader pages.
type Handler struct {
	logger *slog.Logger
	api    API
	pages  *view.Pages
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, api API, pages *view.Pages) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, api: api, pages: pages}
}

// MountRoutes registers the pages below /standortleitung.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.showOverview)
}

type locationSection struct {
	Card   components.LocationCard
	Groups []components.GroupCard
}

type overviewPage struct {
	Locations []locationSection
}

// Employees counts the people across all shown groups.
func (p overviewPage) Employees() int {
	n := 0
	for _, loc := range p.Locations {
		for _, g := range loc.Groups {
			n += len(g.Employees)
		}
	}
	return n
}

func (h *Handler) showOverview(w http.ResponseWriter, r *http.Request) {
	creds := backend.CredentialsFromRequest(r)
	var (
		locations []backend.Location
		groups    []backend.Group
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		locations, err = h.api.ListLocations(ctx, creds)
		return err
	})
	g.Go(func() error {
		var err error
		groups, err = h.api.ListGroupsWithLocations(ctx, creds)
		return err
	})
	if err := g.Wait(); err != nil {
		h.logger.Error("load location overview", slog.Any("error", err))
		if errors.Is(err, backend.ErrUnauthorized) {
			http.Redirect(w, r, navigation.LoginPath, http.StatusSeeOther)
			return
		}
		title, message := backend.Describe(err)
		h.pages.Stores.SetError(shared.SessionFromContext(r.Context()), title+": "+message, feedback.TypeBanner)
	}

	claim, _ := navigation.ClaimFromContext(r.Context())
	h.pages.Render(w, r, view.Page{
		Name:  "pages/standortleitung.html",
		Title: "Standortübersicht",
		Data:  overview(claim, locations, groups),
	})
}

// overview keeps the locations led by claim, each with its groups.
func overview(claim navigation.Claim, locations []backend.Location, groups []backend.Group) overviewPage {
	var page overviewPage
	for _, loc := range locations {
		if !ledBy(claim, loc) {
			continue
		}
		section := locationSection{Card: components.LocationCardFrom(loc)}
		for _, g := range groups {
			if g.LocationID == loc.ID || (g.Location != nil && g.Location.ID == loc.ID) {
				section.Groups = append(section.Groups, components.GroupCardFrom(g))
			}
		}
		page.Locations = append(page.Locations, section)
	}
	return page
}

func ledBy(claim navigation.Claim, loc backend.Location) bool {
	if claim.UserID != "" && string(loc.UserIDLocationLeader) == claim.UserID {
		return true
	}
	return loc.LocationLeader != nil && claim.Username != "" && loc.LocationLeader.Username == claim.Username
}
