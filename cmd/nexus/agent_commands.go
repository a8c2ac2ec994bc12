package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crm-nexus/nexus/agents"
)

var (
	agentsPage  int
	agentsLimit int
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "Agent administration (admin only)",
}

var agentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List CRM agents",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listAgents(cmd, false)
	},
}

var agentsPendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List agents awaiting approval",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listAgents(cmd, true)
	},
}

var agentsApproveCmd = &cobra.Command{
	Use:   "approve <agent-id>",
	Short: "Approve a pending agent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		if err := a.restore(cmd.Context()); err != nil {
			return err
		}

		service, err := agents.NewService(a.authedClient(), agents.WithLogger(a.log))
		if err != nil {
			return err
		}
		if err := service.Approve(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println("Agent approved.")
		return nil
	},
}

func listAgents(cmd *cobra.Command, pendingOnly bool) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	if err := a.restore(cmd.Context()); err != nil {
		return err
	}

	service, err := agents.NewService(a.authedClient(), agents.WithLogger(a.log))
	if err != nil {
		return err
	}

	var page *agents.Page
	if pendingOnly {
		page, err = service.Pending(cmd.Context(), agentsPage, agentsLimit)
	} else {
		page, err = service.List(cmd.Context(), agentsPage, agentsLimit)
	}
	if err != nil {
		return err
	}

	for _, agent := range page.Data {
		approved := " "
		if agent.IsApproved {
			approved = "✓"
		}
		fmt.Printf("%s %-30s %-30s %s\n", approved, agent.FullName(), agent.Email, agent.ID)
	}
	fmt.Printf("Page %d of %d agents", page.Current, page.Total)
	if page.HasNextPage {
		fmt.Printf(" (more with --page %d)", page.Current+1)
	}
	fmt.Println()
	return nil
}

var (
	onboardState    string
	onboardLicense  string
	onboardLicNum   string
	onboardYears    int
	onboardProducts []string
	onboardCompany  string
)

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Complete the agent onboarding steps",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		if err := a.restore(cmd.Context()); err != nil {
			return err
		}

		// The license type chosen at signup seeds the wizard.
		seed, err := a.bridge.Load()
		if err != nil {
			a.log.Warn().Err(err).Msg("Failed to read license bridge")
		}
		license := onboardLicense
		if license == "" {
			license = seed
		}

		wizard := agents.NewWizard(seed)
		if err := wizard.SubmitLicense(license); err != nil {
			return err
		}
		if err := wizard.SubmitRegion(onboardState, onboardLicNum); err != nil {
			return err
		}
		if err := wizard.SubmitHistory(onboardYears, onboardCompany); err != nil {
			return err
		}
		if err := wizard.SubmitProducts(onboardProducts); err != nil {
			return err
		}

		service, err := agents.NewService(a.authedClient(), agents.WithLogger(a.log))
		if err != nil {
			return err
		}
		user := a.manager.CurrentUser()
		if _, err := service.FinishOnboarding(cmd.Context(), user.ID, wizard); err != nil {
			return err
		}

		if err := a.bridge.Clear(); err != nil {
			a.log.Warn().Err(err).Msg("Failed to clear license bridge")
		}
		fmt.Println("Onboarding complete.")
		return nil
	},
}

func init() {
	agentsCmd.AddCommand(agentsListCmd)
	agentsCmd.AddCommand(agentsPendingCmd)
	agentsCmd.AddCommand(agentsApproveCmd)

	agentsCmd.PersistentFlags().IntVar(&agentsPage, "page", 1, "page number")
	agentsCmd.PersistentFlags().IntVar(&agentsLimit, "limit", agents.DefaultPageLimit, "page size")

	onboardCmd.Flags().StringVar(&onboardLicense, "license-type", "", "primary license type (defaults to the signup choice)")
	onboardCmd.Flags().StringVar(&onboardState, "state", "", "resident state")
	onboardCmd.Flags().StringVar(&onboardLicNum, "license-number", "", "license number")
	onboardCmd.Flags().IntVar(&onboardYears, "years-licensed", 0, "years licensed")
	onboardCmd.Flags().StringSliceVar(&onboardProducts, "products", nil, "prior products sold")
	onboardCmd.Flags().StringVar(&onboardCompany, "company", "", "current company")
}
