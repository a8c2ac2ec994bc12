package api

import (
	"context"
	"net/http"

	"github.com/crm-nexus/nexus/pipeline"
)

var _ pipeline.API = (*Client)(nil)

// Opportunities fetches every opportunity belonging to the current agent.
// The endpoint is unpaged.
func (c *Client) Opportunities(ctx context.Context) ([]pipeline.Opportunity, error) {
	var opportunities []pipeline.Opportunity
	if err := c.do(ctx, http.MethodGet, "/opportunities", nil, nil, &opportunities, ""); err != nil {
		return nil, err
	}
	return opportunities, nil
}

// OpportunityUpdate is a partial opportunity mutation; nil fields are left
// untouched by the backend.
type OpportunityUpdate struct {
	Name              *string               `json:"name,omitempty"`
	Service           *string               `json:"service,omitempty"`
	PipelineStage     *pipeline.Stage       `json:"pipelineStage,omitempty"`
	Temperature       *pipeline.Temperature `json:"temperature,omitempty"`
	EstAnnualPremium  *float64              `json:"estAnnualPremium,omitempty"`
	OpportunityAmount *float64              `json:"opportunityAmount,omitempty"`
}

// UpdateOpportunity applies a partial update.
func (c *Client) UpdateOpportunity(ctx context.Context, opportunityID string, update OpportunityUpdate) (*pipeline.Opportunity, error) {
	var updated pipeline.Opportunity
	if err := c.do(ctx, http.MethodPatch, "/opportunities/"+opportunityID, nil, update, &updated, ""); err != nil {
		return nil, err
	}
	return &updated, nil
}

// UpdateOpportunityStage is the drag-and-drop transition: an update that
// only touches the pipeline stage.
func (c *Client) UpdateOpportunityStage(ctx context.Context, opportunityID string, stage pipeline.Stage) (*pipeline.Opportunity, error) {
	return c.UpdateOpportunity(ctx, opportunityID, OpportunityUpdate{PipelineStage: &stage})
}
