package api

import (
	"net/url"
	"strconv"

	"github.com/studyhub/client/internal/models"
)

// ChatHistory returns the private conversation with another user
func (c *Client) ChatHistory(userID int64, limit int) ([]models.ChatMessage, error) {
	query := url.Values{"userId": {strconv.FormatInt(userID, 10)}}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var msgs []models.ChatMessage
	return msgs, c.get("/messages", query, &msgs)
}

// SendMessage sends a chat message over REST. This is the fallback path
// the UI takes when the realtime socket is down.
func (c *Client) SendMessage(payload models.SendMessagePayload) (*models.ChatMessage, error) {
	var msg models.ChatMessage
	if err := c.post("/messages", payload, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Notifications returns a page of the caller's notifications
func (c *Client) Notifications(page, size int) ([]models.Notification, error) {
	query := url.Values{
		"page": {strconv.Itoa(page)},
		"size": {strconv.Itoa(size)},
	}
	var resp struct {
		Content []models.Notification `json:"content"`
	}
	if err := c.get("/notifications", query, &resp); err != nil {
		return nil, err
	}
	return resp.Content, nil
}

// UnreadCount returns the caller's unread notification count
func (c *Client) UnreadCount() (int, error) {
	var resp struct {
		Count int `json:"count"`
	}
	if err := c.get("/notifications/unread-count", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// MarkNotificationRead marks one notification as read
func (c *Client) MarkNotificationRead(notificationID string) error {
	return c.put("/notifications/"+url.PathEscape(notificationID)+"/read", nil, nil)
}

// MarkAllNotificationsRead marks every notification as read
func (c *Client) MarkAllNotificationsRead() error {
	return c.put("/notifications/read-all", nil, nil)
}
