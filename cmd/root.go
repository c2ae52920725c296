// Package cmd defines and implements the CLI commands for the crawler
// executable.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arenastats/ranked-crawler/internal/app"
	"github.com/arenastats/ranked-crawler/internal/config"
	"github.com/arenastats/ranked-crawler/internal/crawler"
	"github.com/arenastats/ranked-crawler/internal/gameapi"
	"github.com/arenastats/ranked-crawler/internal/logging"
	"github.com/arenastats/ranked-crawler/internal/progress"
)

var cfgFile string

// appKeyType is the key type for storing the App in the command context.
type appKeyType string

const appKey appKeyType = "app"

// App is the slice of the service container commands consume. Tests inject
// a mock through newApp.
type App interface {
	Close(ctx context.Context)
	Config() config.Config
	Logger() *zap.Logger
	API() *gameapi.Client
	Sink() crawler.Sink
	Hub() *progress.Hub
}

// newApp is the application factory; tests replace it with a mock factory.
var newApp = func(ctx context.Context) (App, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	logging.InitLogger(cfg.Logging.Development)
	return app.New(ctx, cfg)
}

// newRootCmd creates and configures the root command. The service container
// is built in PersistentPreRunE and injected into the command context so
// subcommands stay free of construction logic.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ranked-crawler",
		Short: "Crawls ranked ladders and match histories into a relational store.",
		Long: `ranked-crawler walks the ranked ladder tier by tier, samples seed
players, pulls their recent match histories, and streams full match payloads
into a relational store. Follow-up passes prune unlinked players and enrich
every stored player with account identity and current league standing.`,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := newApp(cmd.Context())
			if err != nil {
				return fmt.Errorf("initialize application services: %w", err)
			}
			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			cmd.SetContext(ctx)
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(App); ok && appInstance != nil {
				appInstance.Close(cmd.Context())
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional; env vars with the CRAWLER_ prefix also work)")

	cmd.AddCommand(newCrawlCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		logging.L.Fatal("command execution failed", zap.Error(err))
	}
}
