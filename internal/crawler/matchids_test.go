package crawler

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arenastats/ranked-crawler/internal/gameapi"
)

func TestCollectDedupsSharedMatches(t *testing.T) {
	t.Parallel()

	// Two players who queued together share a lobby; the shared id must
	// appear once.
	histories := map[string][]string{
		"p1": {"m1", "m2", "shared"},
		"p2": {"m3", "shared"},
	}
	api := &fakeAPI{
		matchIDs: func(_ context.Context, playerID string, count int) ([]string, error) {
			require.Equal(t, 20, count)
			return histories[playerID], nil
		},
	}
	collector := NewMatchIDCollector(api, 20, zap.NewNop())

	ids, err := collector.Collect(context.Background(), []string{"p1", "p2"})
	require.NoError(t, err)
	require.Len(t, ids, 4)
	require.Contains(t, ids, "shared")
}

func TestCollectRejectsEmptySeedSet(t *testing.T) {
	t.Parallel()

	collector := NewMatchIDCollector(&fakeAPI{}, 20, zap.NewNop())

	_, err := collector.Collect(context.Background(), nil)
	require.ErrorIs(t, err, ErrEmptySeedSet)
}

func TestCollectSkipsFailedPlayers(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		matchIDs: func(_ context.Context, playerID string, _ int) ([]string, error) {
			if playerID == "broken" {
				return nil, errors.New("upstream hiccup")
			}
			return []string{"m-" + playerID}, nil
		},
	}
	collector := NewMatchIDCollector(api, 20, zap.NewNop())

	ids, err := collector.Collect(context.Background(), []string{"p1", "broken", "p2"})
	require.NoError(t, err)
	require.Len(t, ids, 2)
}

func TestCollectRateLimitReturnsPartialAndAborts(t *testing.T) {
	t.Parallel()

	var calls int
	api := &fakeAPI{
		matchIDs: func(_ context.Context, playerID string, _ int) ([]string, error) {
			calls++
			if playerID == "p2" {
				return nil, fmt.Errorf("budget gone: %w", gameapi.ErrRateLimitExceeded)
			}
			return []string{"m-" + playerID}, nil
		},
	}
	collector := NewMatchIDCollector(api, 20, zap.NewNop())

	ids, err := collector.Collect(context.Background(), []string{"p1", "p2", "p3"})
	require.ErrorIs(t, err, gameapi.ErrRateLimitExceeded)
	require.Len(t, ids, 1)
	// p3 is never attempted once the budget is exhausted.
	require.Equal(t, 2, calls)
}

func TestCollectDefaultsPerPlayerCap(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		matchIDs: func(_ context.Context, _ string, count int) ([]string, error) {
			require.Equal(t, MatchesPerPlayer, count)
			return nil, nil
		},
	}
	collector := NewMatchIDCollector(api, 0, zap.NewNop())

	_, err := collector.Collect(context.Background(), []string{"p1"})
	require.NoError(t, err)
}
