package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/crm-nexus/nexus/agents"
	"github.com/crm-nexus/nexus/users"
)

var _ agents.API = (*Client)(nil)

// Agents lists CRM agents, paged. Requires an authenticated client.
func (c *Client) Agents(ctx context.Context, page, limit int) (*agents.Page, error) {
	return c.agentPage(ctx, "/users/crm-agents", page, limit)
}

// PendingAgents lists agents that have registered but are not approved.
func (c *Client) PendingAgents(ctx context.Context, page, limit int) (*agents.Page, error) {
	return c.agentPage(ctx, "/users/crm-agents/pending", page, limit)
}

func (c *Client) agentPage(ctx context.Context, path string, page, limit int) (*agents.Page, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))

	var result agents.Page
	if err := c.do(ctx, http.MethodGet, path, query, nil, &result, ""); err != nil {
		return nil, err
	}
	return &result, nil
}

// ApproveAgent marks the agent as approved.
func (c *Client) ApproveAgent(ctx context.Context, agentID string) error {
	return c.do(ctx, http.MethodPost, "/users/"+agentID+"/approve", nil, nil, nil, "")
}

// UpdateProfile mutates the user's profile fields.
func (c *Client) UpdateProfile(ctx context.Context, userID string, update agents.ProfileUpdate) (*users.User, error) {
	var updated users.User
	if err := c.do(ctx, http.MethodPost, "/users/"+userID+"/update-profile", nil, update, &updated, ""); err != nil {
		return nil, err
	}
	return &updated, nil
}
