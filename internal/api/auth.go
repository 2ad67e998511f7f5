package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/erazemk/scannerlog/internal/model"
)

// Login exchanges a username and password for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (*model.Token, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	resp, err := c.doRequest(ctx, OpLogin, http.MethodPost, "/token", "", form, nil)
	if err != nil {
		return nil, err
	}

	var token model.Token
	if err := decode(OpLogin, resp, &token); err != nil {
		return nil, err
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("api: %s: response has no access token", OpLogin)
	}
	return &token, nil
}

// Register creates a new account. It does not log in.
func (c *Client) Register(ctx context.Context, req model.UserCreate) (*model.User, error) {
	resp, err := c.doRequest(ctx, OpRegister, http.MethodPost, "/register", "", req, nil)
	if err != nil {
		return nil, err
	}

	var user model.User
	if err := decode(OpRegister, resp, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CurrentUser returns the profile the token belongs to.
func (c *Client) CurrentUser(ctx context.Context, token string) (*model.User, error) {
	resp, err := c.doRequest(ctx, OpCurrentUser, http.MethodGet, "/users/me", token, nil, nil)
	if err != nil {
		return nil, err
	}

	var user model.User
	if err := decode(OpCurrentUser, resp, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
