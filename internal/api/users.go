package api

import (
	"fmt"
	"net/url"

	"github.com/studyhub/client/internal/models"
)

// Profile returns the caller's profile
func (c *Client) Profile() (*models.User, error) {
	var user models.User
	if err := c.get("/users/profile", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// User returns another user's profile
func (c *Client) User(userID int64) (*models.User, error) {
	var user models.User
	if err := c.get(fmt.Sprintf("/users/%d", userID), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile updates the caller's profile
func (c *Client) UpdateProfile(user models.User) (*models.User, error) {
	var updated models.User
	if err := c.put("/users/profile", user, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Stats returns the caller's statistics
func (c *Client) Stats() (*models.UserStats, error) {
	var stats models.UserStats
	if err := c.get("/users/profile/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// StatsFor returns another user's statistics
func (c *Client) StatsFor(userID int64) (*models.UserStats, error) {
	var stats models.UserStats
	if err := c.get(fmt.Sprintf("/users/%d/stats", userID), nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// SearchUsers searches users by name or email
func (c *Client) SearchUsers(query string) ([]models.User, error) {
	var users []models.User
	return users, c.get("/users/search", url.Values{"q": {query}}, &users)
}
