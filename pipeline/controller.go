package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// API is the opportunity endpoint surface the controller depends on.
type API interface {
	Opportunities(ctx context.Context) ([]Opportunity, error)
	UpdateOpportunityStage(ctx context.Context, id string, stage Stage) (*Opportunity, error)
}

// Controller holds the authoritative in-memory opportunity list for the
// current agent and applies stage transitions optimistically.
type Controller struct {
	api     API
	log     zerolog.Logger
	nowTime func() time.Time

	mu            sync.Mutex
	opportunities []Opportunity
}

// ControllerOption defines a function type to modify the Controller instance.
type ControllerOption func(*Controller)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ControllerOption {
	return func(c *Controller) {
		c.nowTime = nowFunc
	}
}

func WithLogger(log zerolog.Logger) ControllerOption {
	return func(c *Controller) {
		c.log = log
	}
}

func NewController(api API, options ...ControllerOption) (*Controller, error) {
	if api == nil {
		return nil, errors.New("[NewController] api is required")
	}
	c := &Controller{
		api:     api,
		log:     zerolog.Nop(),
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// Load fetches the full opportunity list. There is no pagination; the
// backend returns everything belonging to the agent at once.
func (c *Controller) Load(ctx context.Context) ([]Opportunity, error) {
	opportunities, err := c.api.Opportunities(ctx)
	if err != nil {
		return nil, errors.Wrap(err, LoadErr.Error())
	}

	c.mu.Lock()
	c.opportunities = opportunities
	c.mu.Unlock()

	c.log.Debug().Int("count", len(opportunities)).Msg("Opportunities loaded")
	return c.snapshot(), nil
}

// Opportunities returns a copy of the current list in fetch order.
func (c *Controller) Opportunities() []Opportunity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Board returns the stage-grouped view of the current list.
func (c *Controller) Board() []Column {
	return GroupByStage(c.Opportunities())
}

// FilteredBoard applies the filter spec and groups the result by stage.
// The authoritative list is untouched.
func (c *Controller) FilteredBoard(spec FilterSpec) []Column {
	return GroupByStage(ApplyFilters(spec, c.Opportunities(), c.nowTime()))
}

// MoveToStage applies the transition to the in-memory copy first, then
// tells the server. A server rejection reverts the local stage so the
// board reconciles instead of drifting.
func (c *Controller) MoveToStage(ctx context.Context, opportunityID string, newStage Stage) error {
	if !newStage.Valid() {
		return errors.Wrap(UnknownStageErr, string(newStage))
	}

	c.mu.Lock()
	idx := c.indexLocked(opportunityID)
	if idx < 0 {
		c.mu.Unlock()
		return errors.Wrap(OpportunityNotFoundErr, opportunityID)
	}
	previous := c.opportunities[idx].PipelineStage
	if c.opportunities[idx].IsLocked {
		c.mu.Unlock()
		return errors.Wrap(OpportunityLockedErr, opportunityID)
	}
	if previous.Terminal() && newStage != previous {
		c.mu.Unlock()
		return errors.Wrap(StageTerminalErr, string(previous))
	}
	c.opportunities[idx].PipelineStage = newStage
	c.mu.Unlock()

	if newStage == previous {
		return nil
	}

	updated, err := c.api.UpdateOpportunityStage(ctx, opportunityID, newStage)
	if err != nil {
		c.revertStage(opportunityID, newStage, previous)
		c.log.Warn().Err(err).
			Str("opportunity_id", opportunityID).
			Str("stage", string(newStage)).
			Msg("Stage move rejected, reverted")
		return errors.Wrap(err, "[Controller.MoveToStage] UpdateOpportunityStage")
	}

	if updated != nil {
		c.mu.Lock()
		if idx := c.indexLocked(opportunityID); idx >= 0 {
			c.opportunities[idx] = *updated
		}
		c.mu.Unlock()
	}
	return nil
}

// revertStage undoes the optimistic write after a server rejection. It
// only reverts while the opportunity still holds the optimistic stage; a
// Load that finished during the round trip already carries server truth
// and must not be overwritten with the stale previous value.
func (c *Controller) revertStage(opportunityID string, from, to Stage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if idx := c.indexLocked(opportunityID); idx >= 0 && c.opportunities[idx].PipelineStage == from {
		c.opportunities[idx].PipelineStage = to
	}
}

func (c *Controller) indexLocked(opportunityID string) int {
	for i := range c.opportunities {
		if c.opportunities[i].ID == opportunityID {
			return i
		}
	}
	return -1
}

func (c *Controller) snapshot() []Opportunity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() []Opportunity {
	out := make([]Opportunity, len(c.opportunities))
	copy(out, c.opportunities)
	return out
}
