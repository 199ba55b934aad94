package components

import (
	"bytes"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kantine/kantine-web/internal/backend"
	"github.com/kantine/kantine-web/internal/feedback"
	"github.com/kantine/kantine-web/internal/roles"
)

func TestUserCardProps(t *testing.T) {
	card := UserCard{
		ID:         "1",
		Blocked:    false,
		Username:   "test",
		Role:       roles.Verwaltung,
		FirstName:  "Max",
		LastName:   "Mustermann",
		LocationID: "2",
		IsFixed:    true,
	}
	assert.Equal(t, card, card.Props())
	assert.Equal(t, "Max Mustermann", card.FullName())
	assert.Equal(t, "components/user_card", card.Template())
}

func TestUserCardFrom(t *testing.T) {
	card := UserCardFrom(backend.User{ID: "9", Username: "kueche", UserGroup: "Kuechenpersonal", Blocked: true})
	assert.Equal(t, roles.Kuechenpersonal, card.Role)
	assert.True(t, card.Blocked)
	assert.Equal(t, "9", card.ID)
}

func TestNewUserTableSortsGerman(t *testing.T) {
	table := NewUserTable([]backend.User{
		{ID: "1", LastName: "Zimmer", FirstName: "Uta", LocationID: "l1"},
		{ID: "2", LastName: "Ärger", FirstName: "Jan"},
		{ID: "3", LastName: "Arnold", FirstName: "Eva"},
	}, []backend.Location{{ID: "l1", LocationName: "Nord"}})

	var names []string
	for _, row := range table.Users {
		names = append(names, row.LastName)
	}
	assert.Equal(t, []string{"Ärger", "Arnold", "Zimmer"}, names)
	assert.Equal(t, "Nord", table.Users[2].LocationName)
	assert.Equal(t, table, table.Props())
	assert.False(t, table.Empty())
	assert.True(t, UserTable{}.Empty())
}

func TestGroupCardFrom(t *testing.T) {
	card := GroupCardFrom(backend.Group{
		ID:          "g1",
		GroupName:   "Montage",
		GroupLeader: &backend.UserRef{FirstName: "Lea", LastName: "Brandt"},
		Location:    &backend.Location{LocationName: "Werk 1"},
		Employees:   []backend.EmployeeRef{{ID: "e1", FirstName: "Ali", LastName: "Kaya", EmployeeNumber: 17}},
	})
	assert.Equal(t, "Lea Brandt", card.GroupLeader)
	assert.Equal(t, "Werk 1", card.Location)
	require.Len(t, card.Employees, 1)
	assert.Equal(t, 17, card.Employees[0].EmployeeNumber)
	assert.Equal(t, card, card.Props())

	empty := GroupCard{GroupLeader: "1234", Employees: []EmployeeRow{}}
	assert.Equal(t, empty, empty.Props())
}

func TestLocationCardFrom(t *testing.T) {
	card := LocationCardFrom(backend.Location{ID: "l1", LocationName: "Süd"})
	assert.Equal(t, LocationCard{ID: "l1", Name: "Süd"}, card.Props())
}

func TestCalendarDialog(t *testing.T) {
	dialog := CalendarDialog{StopHour: 8, Groups: []string{"gruppe1, gruppe2"}, Date: "2024-12-24", ShowDialog: true}
	assert.Equal(t, dialog, dialog.Props())

	loc := time.UTC
	assert.True(t, dialog.Orderable(time.Date(2024, 12, 24, 7, 59, 0, 0, loc)))
	assert.False(t, dialog.Orderable(time.Date(2024, 12, 24, 8, 0, 0, 0, loc)))
	assert.True(t, dialog.Orderable(time.Date(2024, 12, 23, 20, 0, 0, 0, loc)))
	assert.False(t, dialog.Orderable(time.Date(2024, 12, 25, 6, 0, 0, 0, loc)))
	assert.False(t, CalendarDialog{StopHour: 8, Date: "heute"}.Orderable(time.Now()))

	assert.Equal(t, "2024-12-25", dialog.MinDate(time.Date(2024, 12, 24, 9, 0, 0, 0, loc)))
	assert.Equal(t, "2024-12-24", dialog.MinDate(time.Date(2024, 12, 24, 6, 0, 0, 0, loc)))
}

func TestDropdownProps(t *testing.T) {
	menu := Dropdown{Items: []string{"test1", "test2"}, MenuName: "testGericht", MenuIcon: "testIcon"}
	assert.Equal(t, menu, menu.Props())
}

func TestScannedOrder(t *testing.T) {
	scan := ScannedOrder{Data: []ScanResult{{RawValue: "123"}}}
	assert.Equal(t, []ScanResult{{RawValue: "123"}}, scan.Props())
	_, err := scan.PersonID()
	assert.ErrorIs(t, err, ErrInvalidQRCode)

	_, err = ScannedOrder{}.PersonID()
	assert.ErrorIs(t, err, ErrInvalidQRCode)

	id, err := ScannedOrder{Data: []ScanResult{{RawValue: " 6f1c2a4e-8d3b-4b7a-9c1e-2f5d6a7b8c9d\n"}}}.PersonID()
	require.NoError(t, err)
	assert.Equal(t, "6f1c2a4e-8d3b-4b7a-9c1e-2f5d6a7b8c9d", id.String())
}

func TestUserTodaysOrderSummary(t *testing.T) {
	assert.Equal(t, "keine Bestellung", UserTodaysOrder{}.Summary())
	assert.Nil(t, UserTodaysOrder{}.Props())

	red := backend.MainDishRed
	order := &backend.DailyOrder{MainDish: &red, SaladOption: true}
	assert.Equal(t, "Hauptgericht rot mit Salat", UserTodaysOrder{Order: order}.Summary())
	assert.Equal(t, "Salat", UserTodaysOrder{Order: &backend.DailyOrder{Nothing: true, SaladOption: true}}.Summary())
	assert.Equal(t, "nichts bestellt", UserTodaysOrder{Order: &backend.DailyOrder{Nothing: true}}.Summary())
}

func TestUserQRCode(t *testing.T) {
	code := UserQRCode{QRValue: "123"}
	assert.Equal(t, "123", code.Props())

	data, err := code.PNG(128)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 128, img.Bounds().Dx())

	assert.True(t, strings.HasPrefix(code.DataURI(), "data:image/png;base64,"))

	_, err = UserQRCode{}.PNG(0)
	assert.ErrorIs(t, err, ErrEmptyQRValue)
	assert.Empty(t, UserQRCode{}.DataURI())
}

func TestNotices(t *testing.T) {
	var errState feedback.ErrorState
	errState.SetError("Server nicht erreichbar", feedback.TypeBanner)
	var fb feedback.FeedbackState
	fb.SetFeedback(feedback.StatusSuccess, "", "Gespeichert", "Benutzer angelegt")

	notices := Notices(errState, fb)
	require.Len(t, notices, 2)
	assert.Equal(t, "components/banner", notices[0].Template())
	assert.Equal(t, feedback.StatusError, notices[0].Kind)
	assert.Equal(t, "components/snackbar", notices[1].Template())
	assert.Equal(t, "Gespeichert", notices[1].Title)

	assert.Empty(t, Notices(feedback.ErrorState{}, feedback.FeedbackState{}))
}
