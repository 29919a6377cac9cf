package api

import (
	"context"
	"net/http"
)

// Credentials is the body of the register and login endpoints.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register calls POST /auth/register and returns the raw decoded response.
func (c *Client) Register(ctx context.Context, creds Credentials) (any, error) {
	return c.postCredentials(ctx, "/auth/register", creds)
}

// Login calls POST /auth/login and returns the raw decoded response.
func (c *Client) Login(ctx context.Context, creds Credentials) (any, error) {
	return c.postCredentials(ctx, "/auth/login", creds)
}

func (c *Client) postCredentials(ctx context.Context, path string, creds Credentials) (any, error) {
	res, err := c.Request(ctx, path, RequestOpts{Method: http.MethodPost, Body: creds})
	if err != nil {
		return nil, err
	}
	return res.Value(), nil
}

// Value returns the decoded JSON body, the raw text, or nil for an empty response.
func (r *Result) Value() any {
	if r.JSON != nil {
		return r.JSON
	}
	if r.Text != "" {
		return r.Text
	}
	return nil
}
