package api

import (
	"fmt"
	"net/url"

	"github.com/studyhub/client/internal/models"
)

// Posts returns the main feed
func (c *Client) Posts() ([]models.Post, error) {
	var posts []models.Post
	return posts, c.get("/posts", nil, &posts)
}

// CreatePost publishes a new post
func (c *Client) CreatePost(post models.Post) (*models.Post, error) {
	var created models.Post
	if err := c.post("/posts", post, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// PostsByCategory filters the feed by category
func (c *Client) PostsByCategory(category string) ([]models.Post, error) {
	var posts []models.Post
	return posts, c.get("/posts/category/"+url.PathEscape(category), nil, &posts)
}

// PostsByUser returns a user's posts
func (c *Client) PostsByUser(userID int64) ([]models.Post, error) {
	var posts []models.Post
	return posts, c.get(fmt.Sprintf("/posts/user/%d", userID), nil, &posts)
}

// SearchPosts searches post content
func (c *Client) SearchPosts(query string) ([]models.Post, error) {
	var posts []models.Post
	return posts, c.get("/posts/search", url.Values{"q": {query}}, &posts)
}

// ToggleLike likes or unlikes a post
func (c *Client) ToggleLike(postID int64) (*models.Post, error) {
	var post models.Post
	if err := c.post(fmt.Sprintf("/posts/%d/like", postID), nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// ToggleSave saves or unsaves a post
func (c *Client) ToggleSave(postID int64) (*models.Post, error) {
	var post models.Post
	if err := c.post(fmt.Sprintf("/posts/%d/save", postID), nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}
