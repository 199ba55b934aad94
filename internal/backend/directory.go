package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// ListUsers returns all user accounts.
func (c *Client) ListUsers(ctx context.Context, creds Credentials) ([]User, error) {
	var users []User
	_, err := c.do(ctx, call{endpoint: "users_list", method: http.MethodGet, path: "/api/users", creds: creds, out: &users})
	return users, err
}

// CreateUser creates a user account and returns its id.
func (c *Client) CreateUser(ctx context.Context, creds Credentials, user NewUser) (ID, error) {
	body, err := jsonBody(user)
	if err != nil {
		return "", err
	}
	var created struct {
		ID ID `json:"id"`
	}
	_, err = c.do(ctx, call{
		endpoint:    "users_create",
		method:      http.MethodPost,
		path:        "/api/users",
		creds:       creds,
		body:        body,
		contentType: "application/json",
		out:         &created,
	})
	return created.ID, err
}

// ListEmployees returns the employees visible to the caller.
func (c *Client) ListEmployees(ctx context.Context, creds Credentials) ([]Employee, error) {
	var employees []Employee
	_, err := c.do(ctx, call{endpoint: "employees_list", method: http.MethodGet, path: "/api/employees", creds: creds, out: &employees})
	return employees, err
}

// CreateEmployee creates a single employee.
func (c *Client) CreateEmployee(ctx context.Context, creds Credentials, employee NewEmployee) (Employee, error) {
	body, err := jsonBody(employee)
	if err != nil {
		return Employee{}, err
	}
	var created Employee
	_, err = c.do(ctx, call{
		endpoint:    "employees_create",
		method:      http.MethodPost,
		path:        "/api/employees",
		creds:       creds,
		body:        body,
		contentType: "application/json",
		out:         &created,
	})
	return created, err
}

// UploadEmployeesCSV forwards a CSV file for bulk creation.
func (c *Client) UploadEmployeesCSV(ctx context.Context, creds Credentials, filename string, content io.Reader) (Message, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return Message{}, fmt.Errorf("backend: build csv upload: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return Message{}, fmt.Errorf("backend: copy csv upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return Message{}, fmt.Errorf("backend: close csv upload: %w", err)
	}
	var msg Message
	_, err = c.do(ctx, call{
		endpoint:    "employees_csv",
		method:      http.MethodPost,
		path:        "/api/employees_csv",
		creds:       creds,
		body:        &buf,
		contentType: mw.FormDataContentType(),
		out:         &msg,
	})
	return msg, err
}

// ListLocations returns all locations.
func (c *Client) ListLocations(ctx context.Context, creds Credentials) ([]Location, error) {
	var locations []Location
	_, err := c.do(ctx, call{endpoint: "locations_list", method: http.MethodGet, path: "/api/locations", creds: creds, out: &locations})
	return locations, err
}

// CreateLocation creates a location.
func (c *Client) CreateLocation(ctx context.Context, creds Credentials, location NewLocation) (Location, error) {
	body, err := jsonBody(location)
	if err != nil {
		return Location{}, err
	}
	var created Location
	_, err = c.do(ctx, call{
		endpoint:    "locations_create",
		method:      http.MethodPost,
		path:        "/api/locations",
		creds:       creds,
		body:        body,
		contentType: "application/json",
		out:         &created,
	})
	return created, err
}

// ListGroupsWithLocations returns every group with its resolved location,
// leaders and employees.
func (c *Client) ListGroupsWithLocations(ctx context.Context, creds Credentials) ([]Group, error) {
	var groups []Group
	_, err := c.do(ctx, call{endpoint: "groups_list", method: http.MethodGet, path: "/api/all_groups_with_locations", creds: creds, out: &groups})
	return groups, err
}

// CreateGroup creates a group.
func (c *Client) CreateGroup(ctx context.Context, creds Credentials, group NewGroup) (Message, error) {
	body, err := jsonBody(group)
	if err != nil {
		return Message{}, err
	}
	var msg Message
	_, err = c.do(ctx, call{
		endpoint:    "groups_create",
		method:      http.MethodPost,
		path:        "/api/create_group",
		creds:       creds,
		body:        body,
		contentType: "application/json",
		out:         &msg,
	})
	return msg, err
}
