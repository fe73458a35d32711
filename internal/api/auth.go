package api

import (
	"github.com/studyhub/client/internal/models"
)

// Register creates an account and stores the returned token
func (c *Client) Register(req models.RegisterRequest) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := c.post("/auth/register", req, &resp); err != nil {
		return nil, err
	}
	if resp.Token != "" {
		if err := c.session.Save(resp.Token, &models.User{Email: resp.Email}); err != nil {
			return nil, err
		}
	}
	return &resp, nil
}

// Login authenticates and stores the returned token
func (c *Client) Login(email, password string) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := c.post("/auth/authenticate", models.LoginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	if resp.Token != "" {
		if err := c.session.Save(resp.Token, &models.User{Email: resp.Email}); err != nil {
			return nil, err
		}
	}
	return &resp, nil
}

// Logout discards the stored session
func (c *Client) Logout() error {
	return c.session.Clear()
}
