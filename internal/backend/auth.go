package backend

import (
	"context"
	"net/http"
)

// IsLoggedIn asks the API who the credentials belong to. The returned cookies
// carry refreshed tokens when the API rotated them.
func (c *Client) IsLoggedIn(ctx context.Context, creds Credentials) (User, []*http.Cookie, error) {
	var user User
	cookies, err := c.do(ctx, call{
		endpoint: "is_logged_in",
		method:   http.MethodGet,
		path:     "/api/is-logged-in",
		creds:    creds,
		out:      &user,
	})
	if err != nil {
		return User{}, cookies, err
	}
	return user, cookies, nil
}

// Login exchanges username and password for API cookies.
func (c *Client) Login(ctx context.Context, username, password string) (User, []*http.Cookie, error) {
	body, err := jsonBody(map[string]string{"username": username, "password": password})
	if err != nil {
		return User{}, nil, err
	}
	var user User
	cookies, err := c.do(ctx, call{
		endpoint:    "login",
		method:      http.MethodPost,
		path:        "/api/login",
		body:        body,
		contentType: "application/json",
		out:         &user,
	})
	if err != nil {
		return User{}, cookies, err
	}
	return user, cookies, nil
}

// Logout invalidates the refresh token. The returned cookies expire the
// browser's API cookies.
func (c *Client) Logout(ctx context.Context, creds Credentials) ([]*http.Cookie, error) {
	return c.do(ctx, call{
		endpoint: "logout",
		method:   http.MethodPost,
		path:     "/api/logout",
		creds:    creds,
	})
}
