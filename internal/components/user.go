package components

import (
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/kantine/kantine-web/internal/backend"
	"github.com/kantine/kantine-web/internal/roles"
)

// UserCard shows one account.
type UserCard struct {
	ID         string
	Blocked    bool
	Username   string
	Role       roles.Role
	FirstName  string
	LastName   string
	LocationID string
	// IsFixed pins the card open on the overview page.
	IsFixed bool
}

// UserCardFrom maps an API user onto a card.
func UserCardFrom(u backend.User) UserCard {
	role, _ := roles.Parse(u.UserGroup)
	return UserCard{
		ID:         string(u.ID),
		Blocked:    u.Blocked,
		Username:   u.Username,
		Role:       role,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		LocationID: string(u.LocationID),
	}
}

// Props returns the card's input.
func (c UserCard) Props() UserCard { return c }

// Template implements Component.
func (UserCard) Template() string { return "components/user_card" }

// FullName joins first and last name.
func (c UserCard) FullName() string {
	return joinName(c.FirstName, c.LastName)
}

// UserRow is one line of the user table.
type UserRow struct {
	ID           string
	Username     string
	FirstName    string
	LastName     string
	Role         roles.Role
	LocationName string
	Blocked      bool
	LastLogin    time.Time
}

// UserTable lists accounts.
type UserTable struct {
	Users []UserRow
}

// NewUserTable builds rows for users, resolves location names and sorts the
// rows by last and first name using German collation, so "Ärger" sorts next
// to "Arnold" rather than after "Zimmer".
func NewUserTable(users []backend.User, locations []backend.Location) UserTable {
	names := make(map[backend.ID]string, len(locations))
	for _, loc := range locations {
		names[loc.ID] = loc.LocationName
	}
	rows := make([]UserRow, 0, len(users))
	for _, u := range users {
		role, _ := roles.Parse(u.UserGroup)
		rows = append(rows, UserRow{
			ID:           string(u.ID),
			Username:     u.Username,
			FirstName:    u.FirstName,
			LastName:     u.LastName,
			Role:         role,
			LocationName: names[u.LocationID],
			Blocked:      u.Blocked,
			LastLogin:    u.LastLogin.Time,
		})
	}
	SortUserRows(rows)
	return UserTable{Users: rows}
}

// SortUserRows orders rows in place by last name, then first name, then username.
func SortUserRows(rows []UserRow) {
	col := collate.New(language.German, collate.IgnoreCase)
	sort.SliceStable(rows, func(i, j int) bool {
		if c := col.CompareString(rows[i].LastName, rows[j].LastName); c != 0 {
			return c < 0
		}
		if c := col.CompareString(rows[i].FirstName, rows[j].FirstName); c != 0 {
			return c < 0
		}
		return rows[i].Username < rows[j].Username
	})
}

// Props returns the table's input.
func (t UserTable) Props() UserTable { return t }

// Template implements Component.
func (UserTable) Template() string { return "components/user_table" }

// Empty reports whether there are no rows.
func (t UserTable) Empty() bool { return len(t.Users) == 0 }

func joinName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	}
	return first + " " + last
}
