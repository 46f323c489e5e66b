package client

import (
	"context"
	"time"

	"github.com/trezcool/darasa/core/user"
)

type (
	Token struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}

	UserQuery struct {
		Search      string    `url:"search,omitempty"`
		Roles       []string  `url:"role,omitempty"`
		IsActive    *bool     `url:"is_active,omitempty"`
		CreatedFrom time.Time `url:"created_from,omitempty"`
		CreatedTo   time.Time `url:"created_to,omitempty"`
		Ordering    string    `url:"ordering,omitempty"`
		Page
	}
)

// Login exchanges credentials for a token. It does not change the token of c.
func (c *Client) Login(ctx context.Context, username, password string) (Token, error) {
	var tk Token
	err := c.post(ctx, apiPath("login", "access-token"), map[string]string{"username": username, "password": password}, &tk)
	return tk, err
}

func (c *Client) TestToken(ctx context.Context) (user.User, error) {
	var usr user.User
	err := c.post(ctx, apiPath("login", "test-token"), nil, &usr)
	return usr, err
}

func (c *Client) RefreshToken(ctx context.Context) (Token, error) {
	var tk Token
	err := c.post(ctx, apiPath("login", "refresh-token"), nil, &tk)
	return tk, err
}

func (c *Client) RecoverPassword(ctx context.Context, email string) (Message, error) {
	var msg Message
	err := c.post(ctx, apiPath("password-recovery", email), nil, &msg)
	return msg, err
}

func (c *Client) ResetPassword(ctx context.Context, data user.ResetUserPassword) (Message, error) {
	var msg Message
	err := c.post(ctx, apiPath("reset-password"), data, &msg)
	return msg, err
}

// Me

func (c *Client) Me(ctx context.Context) (user.User, error) {
	var usr user.User
	err := c.get(ctx, apiPath("users", "me"), nil, &usr)
	return usr, err
}

func (c *Client) UpdateMe(ctx context.Context, data user.UpdateMe) (user.User, error) {
	var usr user.User
	err := c.patch(ctx, apiPath("users", "me"), data, &usr)
	return usr, err
}

func (c *Client) UpdatePassword(ctx context.Context, data user.UpdatePassword) (Message, error) {
	var msg Message
	err := c.patch(ctx, apiPath("users", "me", "password"), data, &msg)
	return msg, err
}

func (c *Client) DeleteMe(ctx context.Context) error {
	return c.delete(ctx, apiPath("users", "me"), nil, nil)
}

// Users (admin)

func (c *Client) Users(ctx context.Context, q UserQuery) (List[user.User], error) {
	var list List[user.User]
	err := c.get(ctx, apiPath("users"), q, &list)
	return list, err
}

func (c *Client) User(ctx context.Context, id string) (user.User, error) {
	var usr user.User
	err := c.get(ctx, apiPath("users", id), nil, &usr)
	return usr, err
}

func (c *Client) CreateUser(ctx context.Context, data user.NewUser) (user.User, error) {
	var usr user.User
	err := c.post(ctx, apiPath("users"), data, &usr)
	return usr, err
}

func (c *Client) UpdateUser(ctx context.Context, id string, data user.UpdateUser) (user.User, error) {
	var usr user.User
	err := c.put(ctx, apiPath("users", id), data, &usr)
	return usr, err
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.delete(ctx, apiPath("users", id), nil, nil)
}

func (c *Client) DeleteUsers(ctx context.Context, ids ...string) error {
	q := struct {
		IDs []string `url:"id"`
	}{IDs: ids}
	return c.delete(ctx, apiPath("users"), q, nil)
}

func (c *Client) Roles(ctx context.Context) ([]user.Role, error) {
	var roles []user.Role
	err := c.get(ctx, apiPath("users", "roles"), nil, &roles)
	return roles, err
}
