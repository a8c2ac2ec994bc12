package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/crm-nexus/nexus/pipeline"
)

var (
	filterAccountTypes []string
	filterServices     []string
	filterInterests    []string
	filterDaysOpen     int
	filterMaxClosing   string
	boardWatch         bool
	boardWatchInterval time.Duration
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Sales opportunity pipeline",
}

var pipelineBoardCmd = &cobra.Command{
	Use:   "board",
	Short: "Show the kanban board",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		if err := a.restore(cmd.Context()); err != nil {
			return err
		}

		controller, err := pipeline.NewController(a.authedClient(), pipeline.WithLogger(a.log))
		if err != nil {
			return err
		}
		if _, err := controller.Load(cmd.Context()); err != nil {
			return errors.Wrap(err, "retry with 'nexus pipeline board'")
		}

		spec := pipeline.FilterSpec{
			AccountTypes:    filterAccountTypes,
			Services:        filterServices,
			Interests:       filterInterests,
			DaysOpenCeiling: filterDaysOpen,
		}
		if filterMaxClosing != "" {
			maxClosing, err := time.Parse("2006-01-02", filterMaxClosing)
			if err != nil {
				return errors.Wrap(err, "--max-closing-date must be YYYY-MM-DD")
			}
			spec.MaxClosingDate = maxClosing
		}

		fmt.Println(renderBoard(controller.FilteredBoard(spec)))
		if !boardWatch {
			return nil
		}

		// Watch mode keeps the process alive, so the session manager's
		// background refresh keeps the token valid between reloads.
		a.manager.StartAutoRefresh(cmd.Context())
		ticker := time.NewTicker(boardWatchInterval)
		defer ticker.Stop()
		for {
			select {
			case <-cmd.Context().Done():
				return nil
			case <-ticker.C:
				if _, err := controller.Load(cmd.Context()); err != nil {
					a.log.Warn().Err(err).Msg("Board reload failed")
					continue
				}
				fmt.Println(renderBoard(controller.FilteredBoard(spec)))
			}
		}
	},
}

var pipelineMoveCmd = &cobra.Command{
	Use:   "move <opportunity-id> <stage>",
	Short: "Move an opportunity to another stage",
	Long: "Stages: leads, quote, app-signed, underwriting, won, lost.\n" +
		"Won and lost are terminal; deals cannot be moved back out of them.",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		stage, err := parseStage(args[1])
		if err != nil {
			return err
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		if err := a.restore(cmd.Context()); err != nil {
			return err
		}

		controller, err := pipeline.NewController(a.authedClient(), pipeline.WithLogger(a.log))
		if err != nil {
			return err
		}
		if _, err := controller.Load(cmd.Context()); err != nil {
			return err
		}
		if err := controller.MoveToStage(cmd.Context(), args[0], stage); err != nil {
			return err
		}

		fmt.Printf("Moved %s to %s.\n", args[0], stage.Title())
		return nil
	},
}

// parseStage accepts either the wire value or the short CLI alias.
func parseStage(raw string) (pipeline.Stage, error) {
	if stage := pipeline.Stage(strings.ToUpper(raw)); stage.Valid() {
		return stage, nil
	}
	switch strings.ToLower(raw) {
	case "leads", "interest":
		return pipeline.StageLeadsInterest, nil
	case "quote", "prospect":
		return pipeline.StageProspectQuote, nil
	case "app-signed", "signed":
		return pipeline.StageAppSigned, nil
	case "underwriting":
		return pipeline.StageUnderwriting, nil
	case "won":
		return pipeline.StageWonInForce, nil
	case "lost":
		return pipeline.StageLost, nil
	}
	return "", errors.Wrap(pipeline.UnknownStageErr, raw)
}

func init() {
	pipelineCmd.AddCommand(pipelineBoardCmd)
	pipelineCmd.AddCommand(pipelineMoveCmd)

	pipelineBoardCmd.Flags().StringSliceVar(&filterAccountTypes, "account-type", nil, "account types (Individual, Business, Employees)")
	pipelineBoardCmd.Flags().StringSliceVar(&filterServices, "service", nil, "services (Life Insurance, Annuity, Medicare)")
	pipelineBoardCmd.Flags().StringSliceVar(&filterInterests, "interest", nil, "interest levels (Hot, Warm, Cold)")
	pipelineBoardCmd.Flags().IntVar(&filterDaysOpen, "days-open", 0, "only deals open at most this many days")
	pipelineBoardCmd.Flags().StringVar(&filterMaxClosing, "max-closing-date", "", "only deals closing on or before this date (YYYY-MM-DD)")
	pipelineBoardCmd.Flags().BoolVar(&boardWatch, "watch", false, "redraw the board periodically")
	pipelineBoardCmd.Flags().DurationVar(&boardWatchInterval, "watch-interval", 30*time.Second, "redraw cadence in watch mode")
}
