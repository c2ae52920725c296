// Package app_test contains unit tests for the service container.
package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arenastats/ranked-crawler/internal/app"
	"github.com/arenastats/ranked-crawler/internal/config"
)

func memoryConfig() config.Config {
	return config.Config{
		API: config.APIConfig{
			BaseURL:        "https://api.example.com",
			Key:            "test-key",
			TimeoutSeconds: 5,
			CallDelayMs:    0,
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

func TestNewWithMemorySink(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a, err := app.New(ctx, memoryConfig())
	require.NoError(t, err)
	defer a.Close(ctx)

	require.NotNil(t, a.Logger())
	require.NotNil(t, a.API())
	require.NotNil(t, a.Sink())
	require.NotNil(t, a.Hub())
	require.Equal(t, "memory", a.Config().DB.Provider)
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	t.Parallel()

	cfg := memoryConfig()
	cfg.DB.Provider = "sqlite"

	_, err := app.New(context.Background(), cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "sqlite")
}

func TestNewRejectsBrokenAPIConfig(t *testing.T) {
	t.Parallel()

	cfg := memoryConfig()
	cfg.API.Key = ""

	_, err := app.New(context.Background(), cfg)
	require.Error(t, err)
}

func TestCloseIsIdempotentPerService(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a, err := app.New(ctx, memoryConfig())
	require.NoError(t, err)

	a.Close(ctx)
	// A second close must not panic; the hub ignores repeat shutdowns.
	a.Close(ctx)
}
