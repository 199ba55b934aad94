package backend

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// ID accepts both string and numeric identifiers; the API mixes UUIDs and
// integer keys depending on the resource.
type ID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Timestamp decodes the API's "timestamp" format: seconds since epoch, possibly fractional.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) || len(data) == 0 {
		t.Time = time.Time{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			t.Time = time.Time{}
			return nil
		}
		if parsed, err := time.Parse(time.RFC3339, s); err == nil {
			t.Time = parsed
			return nil
		}
		data = []byte(s)
	}
	secs, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	whole, frac := math.Modf(secs)
	t.Time = time.Unix(int64(whole), int64(frac*1e9)).UTC()
	return nil
}

// User mirrors the API's full user schema.
type User struct {
	ID         ID        `json:"id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Username   string    `json:"username"`
	UserGroup  string    `json:"user_group"`
	LocationID ID        `json:"location_id,omitempty"`
	Created    Timestamp `json:"created"`
	LastLogin  Timestamp `json:"last_login"`
	Blocked    bool      `json:"blocked"`
}

// NewUser is the payload for creating a user account.
type NewUser struct {
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	UserGroup  string `json:"user_group"`
	LocationID string `json:"location_id,omitempty"`
}

// UserRef is the nested base form of a user.
type UserRef struct {
	ID        ID     `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	UserGroup string `json:"user_group"`
}

// FullName joins first and last name.
func (u UserRef) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Location mirrors the API's location schema.
type Location struct {
	ID                   ID       `json:"id"`
	LocationName         string   `json:"location_name"`
	UserIDLocationLeader ID       `json:"user_id_location_leader,omitempty"`
	LocationLeader       *UserRef `json:"location_leader,omitempty"`
}

// NewLocation is the payload for creating a location.
type NewLocation struct {
	LocationName         string `json:"location_name"`
	UserIDLocationLeader string `json:"user_id_location_leader"`
}

// EmployeeRef is the base form of an employee.
type EmployeeRef struct {
	ID             ID     `json:"id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	EmployeeNumber int    `json:"employee_number"`
}

// Employee is the nested employee form including its group.
type Employee struct {
	EmployeeRef
	GroupID ID        `json:"group_id,omitempty"`
	Group   *Group    `json:"group,omitempty"`
	Created Timestamp `json:"created"`
}

// NewEmployee is the payload for creating an employee.
type NewEmployee struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	EmployeeNumber int    `json:"employee_number"`
	GroupName      string `json:"group_name"`
	LocationName   string `json:"location_name"`
}

// Group mirrors the API's nested group schema.
type Group struct {
	ID                     ID            `json:"id"`
	GroupName              string        `json:"group_name"`
	UserIDGroupLeader      ID            `json:"user_id_group_leader,omitempty"`
	UserIDReplacement      ID            `json:"user_id_replacement,omitempty"`
	LocationID             ID            `json:"location_id,omitempty"`
	GroupLeader            *UserRef      `json:"group_leader,omitempty"`
	GroupLeaderReplacement *UserRef      `json:"group_leader_replacement,omitempty"`
	Location               *Location     `json:"location,omitempty"`
	Employees              []EmployeeRef `json:"employees,omitempty"`
}

// NewGroup is the payload for creating a group.
type NewGroup struct {
	GroupName         string `json:"group_name"`
	UserIDGroupLeader string `json:"user_id_group_leader"`
	UserIDReplacement string `json:"user_id_replacement,omitempty"`
	LocationID        string `json:"location_id"`
}

// Main dishes offered per day.
const (
	MainDishRed  = "rot"
	MainDishBlue = "blau"
)

// DailyOrder is today's order of one person as seen by kitchen staff.
type DailyOrder struct {
	ID          ID      `json:"id"`
	PersonID    ID      `json:"person_id"`
	LocationID  ID      `json:"location_id"`
	Date        string  `json:"date"`
	Nothing     bool    `json:"nothing"`
	MainDish    *string `json:"main_dish"`
	SaladOption bool    `json:"salad_option"`
	HandedOut   bool    `json:"handed_out"`
}

// Dish returns the ordered main dish or an empty string.
func (o DailyOrder) Dish() string {
	if o.MainDish == nil {
		return ""
	}
	return *o.MainDish
}

// OrderRequest is one entry of a group leader's order submission.
type OrderRequest struct {
	PersonID    string `json:"person_id"`
	LocationID  string `json:"location_id"`
	Date        string `json:"date"`
	MainDish    string `json:"main_dish,omitempty"`
	SaladOption bool   `json:"salad_option"`
}

// Message is the API's generic acknowledgement body.
type Message struct {
	Message string `json:"message"`
}
