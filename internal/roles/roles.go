package roles

import (
	"errors"
	"fmt"
	"strings"
)

// Role is the user group tag issued by the canteen API. The string form is
// what the API returns in `user_group` and what the session persists.
type Role string

const (
	Verwaltung      Role = "verwaltung"
	Gruppenleitung  Role = "gruppenleitung"
	Standortleitung Role = "standortleitung"
	Kuechenpersonal Role = "kuechenpersonal"
)

// ErrUnknownRole is returned when a tag does not name one of the four roles.
var ErrUnknownRole = errors.New("roles: unknown role tag")

var landing = map[Role]string{
	Verwaltung:      "/verwaltung/benutzer/uebersicht",
	Gruppenleitung:  "/gruppenleitung",
	Standortleitung: "/standortleitung",
	Kuechenpersonal: "/kuechenpersonal",
}

var labels = map[Role]string{
	Verwaltung:      "Verwaltung",
	Gruppenleitung:  "Gruppenleitung",
	Standortleitung: "Standortleitung",
	Kuechenpersonal: "Küchenpersonal",
}

// All returns every role in display order.
func All() []Role {
	return []Role{Verwaltung, Standortleitung, Gruppenleitung, Kuechenpersonal}
}

// Parse normalises a raw tag into a Role.
func Parse(raw string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := landing[role]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, raw)
	}
	return role, nil
}

// Valid reports whether r is one of the known tags.
func (r Role) Valid() bool {
	_, ok := landing[r]
	return ok
}

// Landing returns the default page for the role. Unknown roles land on the login page.
func (r Role) Landing() string {
	if path, ok := landing[r]; ok {
		return path
	}
	return "/login"
}

// Label returns the German display name.
func (r Role) Label() string {
	if label, ok := labels[r]; ok {
		return label
	}
	return string(r)
}

func (r Role) String() string { return string(r) }
