package pipeline_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/crm-nexus/nexus/pipeline"
)

type fakeOpportunityAPI struct {
	opportunitiesFn func(ctx context.Context) ([]pipeline.Opportunity, error)
	updateStageFn   func(ctx context.Context, id string, stage pipeline.Stage) (*pipeline.Opportunity, error)

	updateCalls atomic.Int32
}

func (f *fakeOpportunityAPI) Opportunities(ctx context.Context) ([]pipeline.Opportunity, error) {
	return f.opportunitiesFn(ctx)
}

func (f *fakeOpportunityAPI) UpdateOpportunityStage(ctx context.Context, id string, stage pipeline.Stage) (*pipeline.Opportunity, error) {
	f.updateCalls.Add(1)
	return f.updateStageFn(ctx, id, stage)
}

func loadedController(t *testing.T, opportunities []pipeline.Opportunity) (*pipeline.Controller, *fakeOpportunityAPI) {
	t.Helper()

	fakeAPI := &fakeOpportunityAPI{
		opportunitiesFn: func(ctx context.Context) ([]pipeline.Opportunity, error) {
			return opportunities, nil
		},
	}
	controller, err := pipeline.NewController(fakeAPI, pipeline.WithNowTime(func() time.Time { return filterNow }))
	require.NoError(t, err)

	_, err = controller.Load(context.Background())
	require.NoError(t, err)
	return controller, fakeAPI
}

func stageOf(t *testing.T, controller *pipeline.Controller, id string) pipeline.Stage {
	t.Helper()
	for _, o := range controller.Opportunities() {
		if o.ID == id {
			return o.PipelineStage
		}
	}
	t.Fatalf("opportunity %s not found", id)
	return ""
}

func TestController_Load(t *testing.T) {
	t.Run("returns a snapshot decoupled from internal state", func(t *testing.T) {
		controller, _ := loadedController(t, boardFixture())

		snapshot := controller.Opportunities()
		snapshot[0].PipelineStage = pipeline.StageLost

		require.NotEqual(t, pipeline.StageLost, stageOf(t, controller, snapshot[0].ID))
	})

	t.Run("propagates fetch failures", func(t *testing.T) {
		fakeAPI := &fakeOpportunityAPI{
			opportunitiesFn: func(ctx context.Context) ([]pipeline.Opportunity, error) {
				return nil, context.DeadlineExceeded
			},
		}
		controller, err := pipeline.NewController(fakeAPI)
		require.NoError(t, err)

		_, err = controller.Load(context.Background())
		require.Error(t, err)
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestController_MoveToStage(t *testing.T) {
	t.Run("accepted move keeps the server's updated copy", func(t *testing.T) {
		controller, fakeAPI := loadedController(t, []pipeline.Opportunity{
			{ID: "opp-1", PipelineStage: pipeline.StageLeadsInterest},
		})
		fakeAPI.updateStageFn = func(ctx context.Context, id string, stage pipeline.Stage) (*pipeline.Opportunity, error) {
			return &pipeline.Opportunity{ID: id, PipelineStage: stage, UpdatedAt: filterNow}, nil
		}

		err := controller.MoveToStage(context.Background(), "opp-1", pipeline.StageProspectQuote)
		require.NoError(t, err)
		require.Equal(t, pipeline.StageProspectQuote, stageOf(t, controller, "opp-1"))
		require.Equal(t, filterNow, controller.Opportunities()[0].UpdatedAt)
	})

	t.Run("optimistic stage is visible while the server call is in flight", func(t *testing.T) {
		controller, fakeAPI := loadedController(t, []pipeline.Opportunity{
			{ID: "opp-1", PipelineStage: pipeline.StageLeadsInterest},
		})

		entered := make(chan struct{})
		release := make(chan struct{})
		fakeAPI.updateStageFn = func(ctx context.Context, id string, stage pipeline.Stage) (*pipeline.Opportunity, error) {
			close(entered)
			<-release
			return nil, nil
		}

		done := make(chan error, 1)
		go func() {
			done <- controller.MoveToStage(context.Background(), "opp-1", pipeline.StageProspectQuote)
		}()

		<-entered
		require.Equal(t, pipeline.StageProspectQuote, stageOf(t, controller, "opp-1"))

		close(release)
		require.NoError(t, <-done)
	})

	t.Run("rejected move reverts to the previous stage", func(t *testing.T) {
		controller, fakeAPI := loadedController(t, []pipeline.Opportunity{
			{ID: "opp-1", PipelineStage: pipeline.StageUnderwriting},
		})
		fakeAPI.updateStageFn = func(ctx context.Context, id string, stage pipeline.Stage) (*pipeline.Opportunity, error) {
			return nil, context.DeadlineExceeded
		}

		err := controller.MoveToStage(context.Background(), "opp-1", pipeline.StageWonInForce)
		require.Error(t, err)
		require.Equal(t, pipeline.StageUnderwriting, stageOf(t, controller, "opp-1"))
	})

	t.Run("rejected move does not clobber a reload that finished mid-flight", func(t *testing.T) {
		controller, fakeAPI := loadedController(t, []pipeline.Opportunity{
			{ID: "opp-1", PipelineStage: pipeline.StageLeadsInterest},
		})

		entered := make(chan struct{})
		release := make(chan struct{})
		fakeAPI.updateStageFn = func(ctx context.Context, id string, stage pipeline.Stage) (*pipeline.Opportunity, error) {
			close(entered)
			<-release
			return nil, context.DeadlineExceeded
		}

		done := make(chan error, 1)
		go func() {
			done <- controller.MoveToStage(context.Background(), "opp-1", pipeline.StageProspectQuote)
		}()

		// While the move is in flight the server moves the deal elsewhere
		// and a reload picks that up.
		<-entered
		fakeAPI.opportunitiesFn = func(ctx context.Context) ([]pipeline.Opportunity, error) {
			return []pipeline.Opportunity{{ID: "opp-1", PipelineStage: pipeline.StageUnderwriting}}, nil
		}
		_, err := controller.Load(context.Background())
		require.NoError(t, err)

		close(release)
		require.Error(t, <-done)

		require.Equal(t, pipeline.StageUnderwriting, stageOf(t, controller, "opp-1"),
			"revert must not overwrite freshly loaded server truth")
	})

	t.Run("unknown stage is refused before any network call", func(t *testing.T) {
		controller, fakeAPI := loadedController(t, []pipeline.Opportunity{
			{ID: "opp-1", PipelineStage: pipeline.StageLeadsInterest},
		})

		err := controller.MoveToStage(context.Background(), "opp-1", pipeline.Stage("SIDEWAYS"))
		require.ErrorIs(t, err, pipeline.UnknownStageErr)
		require.Zero(t, fakeAPI.updateCalls.Load())
	})

	t.Run("unknown opportunity is refused", func(t *testing.T) {
		controller, _ := loadedController(t, boardFixture())

		err := controller.MoveToStage(context.Background(), "missing", pipeline.StageProspectQuote)
		require.ErrorIs(t, err, pipeline.OpportunityNotFoundErr)
	})

	t.Run("locked opportunity cannot move", func(t *testing.T) {
		controller, fakeAPI := loadedController(t, []pipeline.Opportunity{
			{ID: "opp-1", PipelineStage: pipeline.StageLeadsInterest, IsLocked: true},
		})

		err := controller.MoveToStage(context.Background(), "opp-1", pipeline.StageProspectQuote)
		require.ErrorIs(t, err, pipeline.OpportunityLockedErr)
		require.Zero(t, fakeAPI.updateCalls.Load())
	})

	t.Run("terminal stages refuse moves out", func(t *testing.T) {
		for _, terminal := range []pipeline.Stage{pipeline.StageWonInForce, pipeline.StageLost} {
			controller, fakeAPI := loadedController(t, []pipeline.Opportunity{
				{ID: "opp-1", PipelineStage: terminal},
			})

			err := controller.MoveToStage(context.Background(), "opp-1", pipeline.StageLeadsInterest)
			require.ErrorIs(t, err, pipeline.StageTerminalErr)
			require.Equal(t, terminal, stageOf(t, controller, "opp-1"))
			require.Zero(t, fakeAPI.updateCalls.Load())
		}
	})

	t.Run("no-op move skips the network", func(t *testing.T) {
		controller, fakeAPI := loadedController(t, []pipeline.Opportunity{
			{ID: "opp-1", PipelineStage: pipeline.StageProspectQuote},
		})

		err := controller.MoveToStage(context.Background(), "opp-1", pipeline.StageProspectQuote)
		require.NoError(t, err)
		require.Zero(t, fakeAPI.updateCalls.Load())
	})
}

func TestController_FilteredBoard(t *testing.T) {
	t.Run("filters the view without touching the authoritative list", func(t *testing.T) {
		controller, _ := loadedController(t, boardFixture())

		columns := controller.FilteredBoard(pipeline.FilterSpec{Interests: []string{"HOT"}})
		require.Len(t, columns, 6)
		for _, col := range columns {
			for _, o := range col.Opportunities {
				require.Equal(t, pipeline.TemperatureHot, o.Temperature)
			}
		}

		require.Len(t, controller.Opportunities(), 25)
	})
}
