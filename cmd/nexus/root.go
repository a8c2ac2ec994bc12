package main

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/crm-nexus/nexus/api"
	"github.com/crm-nexus/nexus/internal/config"
	"github.com/crm-nexus/nexus/session"
	"github.com/crm-nexus/nexus/session/store"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "nexus",
	Short: "CRM Nexus command line client",
	Long:  "Lead and opportunity management for CRM Nexus agents and admins.",
	RunE: func(cmd *cobra.Command, args []string) error {
		displayAppname(config.New().GetAppName())
		return cmd.Help()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(forgotPasswordCmd)
	rootCmd.AddCommand(resetPasswordCmd)
	rootCmd.AddCommand(onboardCmd)
	rootCmd.AddCommand(agentsCmd)
	rootCmd.AddCommand(pipelineCmd)
	rootCmd.AddCommand(lookupsCmd)
}

// app wires the client, storage tiers, and session manager for a command
// invocation.
type app struct {
	cfg     config.Config
	log     zerolog.Logger
	client  *api.Client
	manager *session.Manager
	bridge  *store.LicenseBridge
}

func newApp() (*app, error) {
	cfg := config.New()

	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	client := api.New(cfg, api.WithLogger(log))

	tiers := store.Tiers{
		Persistent: store.NewFileStore(cfg.GetDataFolder()),
		Ephemeral:  store.NewMemoryStore(),
	}
	manager, err := session.NewManager(client, tiers, cfg, session.WithLogger(log))
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:     cfg,
		log:     log,
		client:  client,
		manager: manager,
		bridge:  store.NewLicenseBridge(cfg.GetDataFolder()),
	}, nil
}

// restore rebuilds the stored session and fails the command when nobody
// is logged in.
func (a *app) restore(ctx context.Context) error {
	sess, err := a.manager.Restore(ctx)
	if err != nil {
		return errors.Wrap(err, "session restore failed, try 'nexus login'")
	}
	if sess == nil {
		return errors.New("not logged in, run 'nexus login' first")
	}
	return nil
}

// authedClient returns an API client whose requests carry the session's
// bearer token.
func (a *app) authedClient() *api.Client {
	return a.client.WithTokenSource(a.manager)
}
