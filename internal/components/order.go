package components

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kantine/kantine-web/internal/backend"
)

// DateLayout is the wire and form format of order dates.
const DateLayout = "2006-01-02"

// ErrInvalidQRCode is returned when a scanned value is not a person id.
var ErrInvalidQRCode = errors.New("components: invalid qr code")

// CalendarDialog lets a group leader pick the date to order for.
type CalendarDialog struct {
	// StopHour is the hour of day after which orders for that same day close.
	StopHour   int
	Groups     []string
	Date       string
	ShowDialog bool
}

// Props returns the dialog's input.
func (d CalendarDialog) Props() CalendarDialog { return d }

// Template implements Component.
func (CalendarDialog) Template() string { return "components/calendar_dialog" }

// Orderable reports whether orders for Date are still accepted at now. Past
// dates are closed, and today closes at StopHour.
func (d CalendarDialog) Orderable(now time.Time) bool {
	date, err := time.ParseInLocation(DateLayout, d.Date, now.Location())
	if err != nil {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch {
	case date.Before(today):
		return false
	case date.Equal(today):
		return now.Hour() < d.StopHour
	}
	return true
}

// MinDate is the earliest date a group leader can still pick at now.
func (d CalendarDialog) MinDate(now time.Time) string {
	if now.Hour() >= d.StopHour {
		now = now.AddDate(0, 0, 1)
	}
	return now.Format(DateLayout)
}

// Dropdown is a labelled menu of choices.
type Dropdown struct {
	Items    []string
	MenuName string
	MenuIcon string
}

// Props returns the menu's input.
func (d Dropdown) Props() Dropdown { return d }

// Template implements Component.
func (Dropdown) Template() string { return "components/dropdown" }

// ScanResult is one value decoded by the browser's QR scanner.
type ScanResult struct {
	RawValue string
}

// ScannedOrder shows the order resolved from a scanned QR code.
type ScannedOrder struct {
	Data  []ScanResult
	Order *backend.DailyOrder
	// Error is a user-facing message when no order could be resolved.
	Error string
}

// Props returns the scan input.
func (s ScannedOrder) Props() []ScanResult { return s.Data }

// Template implements Component.
func (ScannedOrder) Template() string { return "components/scanned_order" }

// PersonID parses the first scanned value as a person UUID.
func (s ScannedOrder) PersonID() (uuid.UUID, error) {
	if len(s.Data) == 0 {
		return uuid.Nil, ErrInvalidQRCode
	}
	id, err := uuid.Parse(strings.TrimSpace(s.Data[0].RawValue))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, ErrInvalidQRCode
	}
	return id, nil
}

// UserTodaysOrder summarises a person's order for today.
type UserTodaysOrder struct {
	Order *backend.DailyOrder
}

// Props returns the order.
func (u UserTodaysOrder) Props() *backend.DailyOrder { return u.Order }

// Template implements Component.
func (UserTodaysOrder) Template() string { return "components/todays_order" }

// Summary is the one-line German description of the order.
func (u UserTodaysOrder) Summary() string {
	if u.Order == nil {
		return "keine Bestellung"
	}
	if u.Order.Nothing || u.Order.Dish() == "" {
		if u.Order.SaladOption {
			return "Salat"
		}
		return "nichts bestellt"
	}
	summary := "Hauptgericht " + u.Order.Dish()
	if u.Order.SaladOption {
		summary += " mit Salat"
	}
	return summary
}
