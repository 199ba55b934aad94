package components

import "github.com/kantine/kantine-web/internal/backend"

// EmployeeRow is one employee listed on a group card.
type EmployeeRow struct {
	ID             string
	FirstName      string
	LastName       string
	EmployeeNumber int
}

// FullName joins first and last name.
func (e EmployeeRow) FullName() string { return joinName(e.FirstName, e.LastName) }

// GroupCard shows a group with its leader and employees.
type GroupCard struct {
	ID          string
	GroupLeader string
	Employees   []EmployeeRow
	GroupName   string
	Location    string
}

// GroupCardFrom maps an API group onto a card.
func GroupCardFrom(g backend.Group) GroupCard {
	card := GroupCard{ID: string(g.ID), GroupName: g.GroupName}
	if g.GroupLeader != nil {
		card.GroupLeader = g.GroupLeader.FullName()
	}
	if g.Location != nil {
		card.Location = g.Location.LocationName
	}
	card.Employees = make([]EmployeeRow, 0, len(g.Employees))
	for _, e := range g.Employees {
		card.Employees = append(card.Employees, EmployeeRow{
			ID:             string(e.ID),
			FirstName:      e.FirstName,
			LastName:       e.LastName,
			EmployeeNumber: e.EmployeeNumber,
		})
	}
	return card
}

// Props returns the card's input.
func (c GroupCard) Props() GroupCard { return c }

// Template implements Component.
func (GroupCard) Template() string { return "components/group_card" }

// LocationCard shows a location and its leader.
type LocationCard struct {
	ID     string
	Name   string
	Leader string
}

// LocationCardFrom maps an API location onto a card.
func LocationCardFrom(l backend.Location) LocationCard {
	card := LocationCard{ID: string(l.ID), Name: l.LocationName}
	if l.LocationLeader != nil {
		card.Leader = l.LocationLeader.FullName()
	}
	return card
}

// Props returns the card's input.
func (c LocationCard) Props() LocationCard { return c }

// Template implements Component.
func (LocationCard) Template() string { return "components/location_card" }
