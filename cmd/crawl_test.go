package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arenastats/ranked-crawler/internal/app"
	"github.com/arenastats/ranked-crawler/internal/config"
)

func testConfig() config.Config {
	return config.Config{
		API: config.APIConfig{
			BaseURL:        "https://api.example.com",
			Key:            "test-key",
			TimeoutSeconds: 5,
			MaxAttempts:    1,
		},
		Crawler: config.CrawlerConfig{
			Region:               "global",
			MatchIDsPerPlayer:    20,
			ParticipantsPerMatch: 8,
			PrimaryQueue:         "RANKED",
			SeedPages:            1,
		},
		DB:      config.DBConfig{Provider: "memory"},
		Metrics: config.MetricsConfig{Enabled: false},
	}
}

// withMemoryApp swaps the app factory for one backed by the in-memory sink
// so command validation can run without config files or a database.
func withMemoryApp(t *testing.T) {
	t.Helper()
	original := newApp
	newApp = func(ctx context.Context) (App, error) {
		return app.New(ctx, testConfig())
	}
	t.Cleanup(func() { newApp = original })
}

func executeCommand(t *testing.T, args ...string) error {
	t.Helper()
	cmd := newRootCmd()
	cmd.SetArgs(args)
	return cmd.ExecuteContext(context.Background())
}

func TestCrawlRejectsUnknownTier(t *testing.T) {
	withMemoryApp(t)

	err := executeCommand(t, "crawl", "obsidian")
	require.Error(t, err)
	require.Contains(t, err.Error(), "obsidian")
}

func TestCrawlRejectsZeroMatchGoal(t *testing.T) {
	withMemoryApp(t)

	err := executeCommand(t, "crawl", "gold", "--match-goal", "0")
	require.Error(t, err)
	require.Contains(t, err.Error(), "--match-goal")
}

func TestCrawlRejectsBadToggle(t *testing.T) {
	withMemoryApp(t)

	err := executeCommand(t, "crawl", "gold", "--account-enrichment", "maybe")
	require.Error(t, err)
	require.Contains(t, err.Error(), "--account-enrichment")
}

func TestCrawlRequiresTierArgument(t *testing.T) {
	withMemoryApp(t)

	err := executeCommand(t, "crawl")
	require.Error(t, err)
}

func TestParseToggle(t *testing.T) {
	t.Parallel()

	on, err := parseToggle("x", "on")
	require.NoError(t, err)
	require.True(t, on)

	off, err := parseToggle("x", "off")
	require.NoError(t, err)
	require.False(t, off)

	_, err = parseToggle("x", "sometimes")
	require.Error(t, err)
}
