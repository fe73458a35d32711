package api

import (
	"fmt"
	"net/url"

	"github.com/studyhub/client/internal/models"
)

// Groups returns all study groups
func (c *Client) Groups() ([]models.StudyGroup, error) {
	var groups []models.StudyGroup
	return groups, c.get("/groups", nil, &groups)
}

// CreateGroup creates a new study group
func (c *Client) CreateGroup(group models.StudyGroup) (*models.StudyGroup, error) {
	var created models.StudyGroup
	if err := c.post("/groups", group, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// GroupsBySubject filters groups by subject
func (c *Client) GroupsBySubject(subject string) ([]models.StudyGroup, error) {
	var groups []models.StudyGroup
	return groups, c.get("/groups/subject/"+url.PathEscape(subject), nil, &groups)
}

// MyGroups returns the groups the caller belongs to
func (c *Client) MyGroups() ([]models.StudyGroup, error) {
	var groups []models.StudyGroup
	return groups, c.get("/groups/my-groups", nil, &groups)
}

// SearchGroups searches groups by name
func (c *Client) SearchGroups(query string) ([]models.StudyGroup, error) {
	var groups []models.StudyGroup
	return groups, c.get("/groups/search", url.Values{"q": {query}}, &groups)
}

// Group returns one study group
func (c *Client) Group(groupID int64) (*models.StudyGroup, error) {
	var group models.StudyGroup
	if err := c.get(fmt.Sprintf("/groups/%d", groupID), nil, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

// JoinGroup joins a study group
func (c *Client) JoinGroup(groupID int64) error {
	return c.post(fmt.Sprintf("/groups/%d/join", groupID), nil, nil)
}

// LeaveGroup leaves a study group
func (c *Client) LeaveGroup(groupID int64) error {
	return c.post(fmt.Sprintf("/groups/%d/leave", groupID), nil, nil)
}

// DeleteGroup deletes a study group the caller owns
func (c *Client) DeleteGroup(groupID int64) error {
	return c.delete(fmt.Sprintf("/groups/%d", groupID))
}

// GroupMembers lists a group's members
func (c *Client) GroupMembers(groupID int64) ([]models.User, error) {
	var members []models.User
	return members, c.get(fmt.Sprintf("/groups/%d/members", groupID), nil, &members)
}
