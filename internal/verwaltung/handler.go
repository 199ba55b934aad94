// Package verwaltung serves the administration area: user accounts,
// employees, locations and groups.
package verwaltung

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/kantine/kantine-web/internal/backend"
	"github.com/kantine/kantine-web/internal/components"
	"github.com/kantine/kantine-web/internal/csvimport"
	"github.com/kantine/kantine-web/internal/feedback"
	"github.com/kantine/kantine-web/internal/navigation"
	"github.com/kantine/kantine-web/internal/roles"
	"github.com/kantine/kantine-web/internal/shared"
	"github.com/kantine/kantine-web/internal/view"
)

const (
	usersPath     = "/verwaltung/benutzer/uebersicht"
	newUserPath   = "/verwaltung/benutzer/neu"
	employeesPath = "/verwaltung/mitarbeiter"
	csvUploadPath = "/verwaltung/mitarbeiter/csv-upload"
	locationsPath = "/verwaltung/standorte"
	groupsPath    = "/verwaltung/gruppen"
)

// API is the part of the backend client the administration pages use.
type API interface {
	ListUsers(ctx context.Context, creds backend.Credentials) ([]backend.User, error)
	CreateUser(ctx context.Context, creds backend.Credentials, user backend.NewUser) (backend.ID, error)
	ListEmployees(ctx context.Context, creds backend.Credentials) ([]backend.Employee, error)
	CreateEmployee(ctx context.Context, creds backend.Credentials, employee backend.NewEmployee) (backend.Employee, error)
	UploadEmployeesCSV(ctx context.Context, creds backend.Credentials, filename string, content io.Reader) (backend.Message, error)
	ListLocations(ctx context.Context, creds backend.Credentials) ([]backend.Location, error)
	CreateLocation(ctx context.Context, creds backend.Credentials, location backend.NewLocation) (backend.Location, error)
	ListGroupsWithLocations(ctx context.Context, creds backend.Credentials) ([]backend.Group, error)
	CreateGroup(ctx context.Context, creds backend.Credentials, group backend.NewGroup) (backend.Message, error)
}

// Handler wires the administration pages.
type Handler struct {
	logger    *slog.Logger
	api       API
	pages     *view.Pages
	csv       *csvimport.Validator
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, api API, pages *view.Pages) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		api:       api,
		pages:     pages,
		csv:       csvimport.New(),
		validator: shared.NewValidator(),
	}
}

// MountRoutes registers the pages below /verwaltung.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/uebersicht", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, usersPath, http.StatusMovedPermanently)
	})
	r.Get("/benutzer/uebersicht", h.showUsers)
	r.Get("/benutzer/neu", h.showNewUser)
	r.Post("/benutzer/neu", h.createUser)
	r.Get("/mitarbeiter", h.showEmployees)
	r.Post("/mitarbeiter", h.createEmployee)
	r.Get("/mitarbeiter/{id}/qrcode.png", h.employeeQRCode)
	r.Get("/mitarbeiter/csv-upload", h.showCSVUpload)
	r.Post("/mitarbeiter/csv-upload", h.uploadCSV)
	r.Get("/standorte", h.showLocations)
	r.Post("/standorte", h.createLocation)
	r.Get("/gruppen", h.showGroups)
	r.Post("/gruppen", h.createGroup)
}

// loadFailed records a failed API read for the page about to render. It
// returns true when the visitor must sign in again instead.
func (h *Handler) loadFailed(w http.ResponseWriter, r *http.Request, what string, err error) bool {
	h.logger.Error("load "+what, slog.Any("error", err))
	if errors.Is(err, backend.ErrUnauthorized) {
		http.Redirect(w, r, navigation.LoginPath, http.StatusSeeOther)
		return true
	}
	title, message := backend.Describe(err)
	h.pages.Stores.SetError(shared.SessionFromContext(r.Context()), title+": "+message, feedback.TypeBanner)
	return false
}

// saveFailed redirects back to the form with the API's explanation.
func (h *Handler) saveFailed(w http.ResponseWriter, r *http.Request, location, what string, err error) {
	h.logger.Warn("save "+what, slog.Any("error", err))
	title, message := backend.Describe(err)
	h.pages.Redirect(w, r, location, feedback.StatusError, title, message)
}

type usersPage struct {
	Table components.UserTable
}

func (h *Handler) showUsers(w http.ResponseWriter, r *http.Request) {
	creds := backend.CredentialsFromRequest(r)
	var (
		users     []backend.User
		locations []backend.Location
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		users, err = h.api.ListUsers(ctx, creds)
		return err
	})
	g.Go(func() error {
		var err error
		locations, err = h.api.ListLocations(ctx, creds)
		return err
	})
	if err := g.Wait(); err != nil {
		if h.loadFailed(w, r, "users", err) {
			return
		}
	}
	h.pages.Render(w, r, view.Page{
		Name:  "pages/verwaltung_users.html",
		Title: "Benutzerübersicht",
		Data:  usersPage{Table: components.NewUserTable(users, locations)},
	})
}

type newUserForm struct {
	FirstName  string `form:"first_name" validate:"omitempty,max=64"`
	LastName   string `form:"last_name" validate:"omitempty,max=64"`
	Username   string `form:"username" validate:"required,min=1,max=50"`
	Password   string `form:"password" validate:"required,min=8,max=150"`
	UserGroup  string `form:"user_group" validate:"required,oneof=verwaltung gruppenleitung standortleitung kuechenpersonal"`
	LocationID string `form:"location_id" validate:"omitempty,uuid"`
}

type newUserPage struct {
	Form      newUserForm
	Errors    map[string]string
	Roles     []roles.Role
	Locations []backend.Location
}

func (h *Handler) showNewUser(w http.ResponseWriter, r *http.Request) {
	h.renderNewUser(w, r, http.StatusOK, newUserForm{UserGroup: roles.Gruppenleitung.String()}, nil)
}

func (h *Handler) renderNewUser(w http.ResponseWriter, r *http.Request, status int, form newUserForm, errs map[string]string) {
	locations, err := h.api.ListLocations(r.Context(), backend.CredentialsFromRequest(r))
	if err != nil && h.loadFailed(w, r, "locations", err) {
		return
	}
	form.Password = ""
	h.pages.Render(w, r, view.Page{
		Status: status,
		Name:   "pages/verwaltung_user_new.html",
		Title:  "Neuer Benutzer",
		Data:   newUserPage{Form: form, Errors: errs, Roles: roles.All(), Locations: locations},
	})
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := newUserForm{
		FirstName:  strings.TrimSpace(r.PostFormValue("first_name")),
		LastName:   strings.TrimSpace(r.PostFormValue("last_name")),
		Username:   strings.TrimSpace(r.PostFormValue("username")),
		Password:   r.PostFormValue("password"),
		UserGroup:  r.PostFormValue("user_group"),
		LocationID: r.PostFormValue("location_id"),
	}
	if errs := shared.ValidationMessages(h.validator.Struct(form)); errs != nil {
		h.renderNewUser(w, r, http.StatusUnprocessableEntity, form, errs)
		return
	}
	_, err := h.api.CreateUser(r.Context(), backend.CredentialsFromRequest(r), backend.NewUser{
		FirstName:  form.FirstName,
		LastName:   form.LastName,
		Username:   form.Username,
		Password:   form.Password,
		UserGroup:  form.UserGroup,
		LocationID: form.LocationID,
	})
	if err != nil {
		if errors.Is(err, backend.ErrConflict) {
			h.renderNewUser(w, r, http.StatusConflict, form, map[string]string{"username": "Nutzername bereits vergeben"})
			return
		}
		h.saveFailed(w, r, newUserPath, "user", err)
		return
	}
	h.pages.Redirect(w, r, usersPath, feedback.StatusSuccess, "Benutzer angelegt", "Benutzer "+form.Username+" wurde angelegt.")
}

type employeeRow struct {
	components.EmployeeRow
	Group  string
	QRCode components.UserQRCode
}

type newEmployeeForm struct {
	FirstName      string `form:"first_name" validate:"required,max=64"`
	LastName       string `form:"last_name" validate:"required,max=64"`
	EmployeeNumber int    `form:"employee_number" validate:"gt=0"`
	GroupName      string `form:"group_name" validate:"required,max=64"`
	LocationName   string `form:"location_name" validate:"required,max=64"`
}

type employeesPage struct {
	Employees []employeeRow
	Form      newEmployeeForm
	Errors    map[string]string
}

func (h *Handler) showEmployees(w http.ResponseWriter, r *http.Request) {
	h.renderEmployees(w, r, http.StatusOK, newEmployeeForm{}, nil)
}

func (h *Handler) renderEmployees(w http.ResponseWriter, r *http.Request, status int, form newEmployeeForm, errs map[string]string) {
	employees, err := h.api.ListEmployees(r.Context(), backend.CredentialsFromRequest(r))
	if err != nil && h.loadFailed(w, r, "employees", err) {
		return
	}
	rows := make([]employeeRow, 0, len(employees))
	for _, e := range employees {
		row := employeeRow{
			EmployeeRow: components.EmployeeRow{
				ID:             string(e.ID),
				FirstName:      e.FirstName,
				LastName:       e.LastName,
				EmployeeNumber: e.EmployeeNumber,
			},
			QRCode: components.UserQRCode{QRValue: string(e.ID)},
		}
		if e.Group != nil {
			row.Group = e.Group.GroupName
		}
		rows = append(rows, row)
	}
	h.pages.Render(w, r, view.Page{
		Status: status,
		Name:   "pages/verwaltung_employees.html",
		Title:  "Mitarbeiter",
		Data:   employeesPage{Employees: rows, Form: form, Errors: errs},
	})
}

func (h *Handler) createEmployee(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	number, _ := strconv.Atoi(strings.TrimSpace(r.PostFormValue("employee_number")))
	form := newEmployeeForm{
		FirstName:      strings.TrimSpace(r.PostFormValue("first_name")),
		LastName:       strings.TrimSpace(r.PostFormValue("last_name")),
		EmployeeNumber: number,
		GroupName:      strings.TrimSpace(r.PostFormValue("group_name")),
		LocationName:   strings.TrimSpace(r.PostFormValue("location_name")),
	}
	if errs := shared.ValidationMessages(h.validator.Struct(form)); errs != nil {
		h.renderEmployees(w, r, http.StatusUnprocessableEntity, form, errs)
		return
	}
	_, err := h.api.CreateEmployee(r.Context(), backend.CredentialsFromRequest(r), backend.NewEmployee(form))
	if err != nil {
		h.saveFailed(w, r, employeesPath, "employee", err)
		return
	}
	h.pages.Redirect(w, r, employeesPath, feedback.StatusSuccess, "Mitarbeiter angelegt",
		form.FirstName+" "+form.LastName+" wurde angelegt.")
}

func (h *Handler) employeeQRCode(w http.ResponseWriter, r *http.Request) {
	png, err := components.UserQRCode{QRValue: chi.URLParam(r, "id")}.PNG(components.DefaultQRSize)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=86400")
	_, _ = w.Write(png)
}

type csvUploadPage struct {
	Columns  []string
	Filename string
	Problem  string
	Errors   []csvimport.RowError
}

func (h *Handler) showCSVUpload(w http.ResponseWriter, r *http.Request) {
	h.renderCSVUpload(w, r, http.StatusOK, csvUploadPage{})
}

func (h *Handler) renderCSVUpload(w http.ResponseWriter, r *http.Request, status int, data csvUploadPage) {
	data.Columns = csvimport.Columns
	h.pages.Render(w, r, view.Page{
		Status: status,
		Name:   "pages/verwaltung_csv_upload.html",
		Title:  "CSV-Upload",
		Data:   data,
	})
}

func (h *Handler) uploadCSV(w http.ResponseWriter, r *http.Request) {
	if r.MultipartForm == nil {
		r.Body = http.MaxBytesReader(w, r.Body, shared.MaxUploadBytes)
		if err := r.ParseMultipartForm(shared.MaxUploadBytes); err != nil {
			h.renderCSVUpload(w, r, http.StatusRequestEntityTooLarge, csvUploadPage{Problem: "Datei zu groß oder unlesbar"})
			return
		}
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		h.renderCSVUpload(w, r, http.StatusBadRequest, csvUploadPage{Problem: "Bitte eine Datei auswählen"})
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		h.renderCSVUpload(w, r, http.StatusBadRequest, csvUploadPage{Problem: "Datei konnte nicht gelesen werden"})
		return
	}

	page := csvUploadPage{Filename: header.Filename}
	report, err := h.csv.Validate(header.Filename, data)
	switch {
	case errors.Is(err, csvimport.ErrUnsupportedFormat):
		page.Problem = "Falsches Dateiformat: nur .csv-Dateien sind erlaubt"
		h.renderCSVUpload(w, r, http.StatusUnsupportedMediaType, page)
		return
	case errors.Is(err, csvimport.ErrEmpty):
		page.Problem = "Die Datei enthält keine Mitarbeiter"
		h.renderCSVUpload(w, r, http.StatusUnprocessableEntity, page)
		return
	case errors.Is(err, csvimport.ErrHeader):
		page.Problem = "Kopfzeile muss lauten: " + strings.Join(csvimport.Columns, ",")
		h.renderCSVUpload(w, r, http.StatusUnprocessableEntity, page)
		return
	case err != nil:
		page.Problem = "Die Datei enthält fehlerhafte Zeilen"
		page.Errors = report.Errors
		h.renderCSVUpload(w, r, http.StatusUnprocessableEntity, page)
		return
	}

	msg, err := h.api.UploadEmployeesCSV(r.Context(), backend.CredentialsFromRequest(r), header.Filename, bytes.NewReader(data))
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, backend.ErrUnsupported) {
			status = http.StatusUnsupportedMediaType
		}
		h.logger.Warn("upload employees csv", slog.Any("error", err))
		title, message := backend.Describe(err)
		page.Problem = title + ": " + message
		h.renderCSVUpload(w, r, status, page)
		return
	}
	message := msg.Message
	if message == "" {
		message = strconv.Itoa(len(report.Rows)) + " Mitarbeiter importiert."
	}
	h.pages.Redirect(w, r, employeesPath, feedback.StatusSuccess, "CSV importiert", message)
}

type newLocationForm struct {
	LocationName string `form:"location_name" validate:"required,max=64"`
	LeaderID     string `form:"user_id_location_leader" validate:"required,uuid"`
}

type locationsPage struct {
	Cards   []components.LocationCard
	Leaders []components.UserCard
	Form    newLocationForm
	Errors  map[string]string
}

func (h *Handler) showLocations(w http.ResponseWriter, r *http.Request) {
	h.renderLocations(w, r, http.StatusOK, newLocationForm{}, nil)
}

func (h *Handler) renderLocations(w http.ResponseWriter, r *http.Request, status int, form newLocationForm, errs map[string]string) {
	creds := backend.CredentialsFromRequest(r)
	var (
		users     []backend.User
		locations []backend.Location
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		users, err = h.api.ListUsers(ctx, creds)
		return err
	})
	g.Go(func() error {
		var err error
		locations, err = h.api.ListLocations(ctx, creds)
		return err
	})
	if err := g.Wait(); err != nil && h.loadFailed(w, r, "locations", err) {
		return
	}
	page := locationsPage{Form: form, Errors: errs, Leaders: leaders(users, roles.Standortleitung)}
	for _, loc := range locations {
		page.Cards = append(page.Cards, components.LocationCardFrom(loc))
	}
	h.pages.Render(w, r, view.Page{Status: status, Name: "pages/verwaltung_locations.html", Title: "Standorte", Data: page})
}

func (h *Handler) createLocation(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := newLocationForm{
		LocationName: strings.TrimSpace(r.PostFormValue("location_name")),
		LeaderID:     r.PostFormValue("user_id_location_leader"),
	}
	if errs := shared.ValidationMessages(h.validator.Struct(form)); errs != nil {
		h.renderLocations(w, r, http.StatusUnprocessableEntity, form, errs)
		return
	}
	_, err := h.api.CreateLocation(r.Context(), backend.CredentialsFromRequest(r), backend.NewLocation{
		LocationName:         form.LocationName,
		UserIDLocationLeader: form.LeaderID,
	})
	if err != nil {
		h.saveFailed(w, r, locationsPath, "location", err)
		return
	}
	h.pages.Redirect(w, r, locationsPath, feedback.StatusSuccess, "Standort angelegt", form.LocationName+" wurde angelegt.")
}

type newGroupForm struct {
	GroupName     string `form:"group_name" validate:"required,max=64"`
	LeaderID      string `form:"user_id_group_leader" validate:"required,uuid"`
	ReplacementID string `form:"user_id_replacement" validate:"omitempty,uuid,nefield=LeaderID"`
	LocationID    string `form:"location_id" validate:"required,uuid"`
}

type groupsPage struct {
	Cards     []components.GroupCard
	Leaders   []components.UserCard
	Locations []components.LocationCard
	Form      newGroupForm
	Errors    map[string]string
}

func (h *Handler) showGroups(w http.ResponseWriter, r *http.Request) {
	h.renderGroups(w, r, http.StatusOK, newGroupForm{}, nil)
}

func (h *Handler) renderGroups(w http.ResponseWriter, r *http.Request, status int, form newGroupForm, errs map[string]string) {
	creds := backend.CredentialsFromRequest(r)
	var (
		users     []backend.User
		locations []backend.Location
		groups    []backend.Group
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		users, err = h.api.ListUsers(ctx, creds)
		return err
	})
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
	if err := g.Wait(); err != nil && h.loadFailed(w, r, "groups", err) {
		return
	}
	page := groupsPage{Form: form, Errors: errs, Leaders: leaders(users, roles.Gruppenleitung)}
	for _, grp := range groups {
		page.Cards = append(page.Cards, components.GroupCardFrom(grp))
	}
	for _, loc := range locations {
		page.Locations = append(page.Locations, components.LocationCardFrom(loc))
	}
	h.pages.Render(w, r, view.Page{Status: status, Name: "pages/verwaltung_groups.html", Title: "Gruppen", Data: page})
}

func (h *Handler) createGroup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := newGroupForm{
		GroupName:     strings.TrimSpace(r.PostFormValue("group_name")),
		LeaderID:      r.PostFormValue("user_id_group_leader"),
		ReplacementID: r.PostFormValue("user_id_replacement"),
		LocationID:    r.PostFormValue("location_id"),
	}
	if errs := shared.ValidationMessages(h.validator.Struct(form)); errs != nil {
		h.renderGroups(w, r, http.StatusUnprocessableEntity, form, errs)
		return
	}
	_, err := h.api.CreateGroup(r.Context(), backend.CredentialsFromRequest(r), backend.NewGroup{
		GroupName:         form.GroupName,
		UserIDGroupLeader: form.LeaderID,
		UserIDReplacement: form.ReplacementID,
		LocationID:        form.LocationID,
	})
	if err != nil {
		h.saveFailed(w, r, groupsPath, "group", err)
		return
	}
	h.pages.Redirect(w, r, groupsPath, feedback.StatusSuccess, "Gruppe angelegt", form.GroupName+" wurde angelegt.")
}

// leaders returns cards for the users holding role, sorted like the user table.
func leaders(users []backend.User, role roles.Role) []components.UserCard {
	var filtered []backend.User
	for _, u := range users {
		if parsed, err := roles.Parse(u.UserGroup); err == nil && parsed == role && !u.Blocked {
			filtered = append(filtered, u)
		}
	}
	table := components.NewUserTable(filtered, nil)
	cards := make([]components.UserCard, 0, len(table.Users))
	for _, row := range table.Users {
		cards = append(cards, components.UserCard{
			ID:        row.ID,
			Username:  row.Username,
			Role:      row.Role,
			FirstName: row.FirstName,
			LastName:  row.LastName,
		})
	}
	return cards
}
