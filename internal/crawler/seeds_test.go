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

func TestSeedHighTierStampsTierLabel(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		leagueList: func(_ context.Context, tier string) (gameapi.LeagueList, error) {
			require.Equal(t, "CHALLENGER", tier)
			return gameapi.LeagueList{
				Tier: "CHALLENGER",
				Entries: []gameapi.LeagueEntry{
					{PlayerID: "p1", LeaguePoints: 1200},
					{PlayerID: "p2", LeaguePoints: 1100},
				},
			}, nil
		},
	}
	collector := NewSeedCollector(api, zap.NewNop())

	tier, err := ClassifyTier("challenger")
	require.NoError(t, err)

	entries, err := collector.Fetch(context.Background(), tier, nil, nil)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		require.Equal(t, "CHALLENGER", e.Tier)
	}
}

func TestSeedLowTierWalksDivisionsAndPages(t *testing.T) {
	t.Parallel()

	var calls []string
	api := &fakeAPI{
		leagueEntries: func(_ context.Context, tier, division string, page int) ([]gameapi.LeagueEntry, error) {
			calls = append(calls, fmt.Sprintf("%s/%s/%d", tier, division, page))
			return []gameapi.LeagueEntry{entry(division+"-p", "diamond", 50)}, nil
		},
	}
	collector := NewSeedCollector(api, zap.NewNop())

	tier, err := ClassifyTier("diamond")
	require.NoError(t, err)

	entries, err := collector.Fetch(context.Background(), tier, []string{"I", "II"}, []int{1, 2})
	require.NoError(t, err)
	require.Len(t, entries, 4)
	require.Equal(t, []string{
		"DIAMOND/I/1", "DIAMOND/I/2",
		"DIAMOND/II/1", "DIAMOND/II/2",
	}, calls)
	for _, e := range entries {
		require.Equal(t, "DIAMOND", e.Tier)
	}
}

func TestSeedLowTierSkipsFailedPage(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		leagueEntries: func(_ context.Context, _, _ string, page int) ([]gameapi.LeagueEntry, error) {
			if page == 1 {
				return nil, errors.New("boom")
			}
			return []gameapi.LeagueEntry{entry(fmt.Sprintf("p%d", page), "GOLD", 10)}, nil
		},
	}
	collector := NewSeedCollector(api, zap.NewNop())

	tier, err := ClassifyTier("gold")
	require.NoError(t, err)

	entries, err := collector.Fetch(context.Background(), tier, []string{"I"}, []int{1, 2})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "p2", entries[0].PlayerID)
}

func TestSeedLowTierEmptyPageEndsDivision(t *testing.T) {
	t.Parallel()

	var calls int
	api := &fakeAPI{
		leagueEntries: func(_ context.Context, _, division string, page int) ([]gameapi.LeagueEntry, error) {
			calls++
			if division == "I" && page >= 2 {
				return nil, nil
			}
			if division == "II" {
				return nil, nil
			}
			return []gameapi.LeagueEntry{entry(fmt.Sprintf("%s-%d", division, page), "GOLD", 10)}, nil
		},
	}
	collector := NewSeedCollector(api, zap.NewNop())

	tier, err := ClassifyTier("gold")
	require.NoError(t, err)

	entries, err := collector.Fetch(context.Background(), tier, []string{"I", "II"}, []int{1, 2, 3})
	require.NoError(t, err)
	// Division I yields page 1 then stops at the empty page 2; division II
	// stops immediately. Page 3 of division I is never requested.
	require.Len(t, entries, 1)
	require.Equal(t, 3, calls)
}

func TestSeedLowTierAutoPagesUntilEmpty(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		leagueEntries: func(_ context.Context, _, division string, page int) ([]gameapi.LeagueEntry, error) {
			if page > 3 {
				return nil, nil
			}
			return []gameapi.LeagueEntry{entry(fmt.Sprintf("%s-%d", division, page), "GOLD", 10)}, nil
		},
	}
	collector := NewSeedCollector(api, zap.NewNop())

	tier, err := ClassifyTier("gold")
	require.NoError(t, err)

	entries, err := collector.Fetch(context.Background(), tier, []string{"I"}, nil)
	require.NoError(t, err)
	require.Len(t, entries, 3)
}

func TestSeedLowTierRateLimitAborts(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		leagueEntries: func(_ context.Context, _, _ string, page int) ([]gameapi.LeagueEntry, error) {
			if page == 2 {
				return nil, fmt.Errorf("page 2: %w", gameapi.ErrRateLimitExceeded)
			}
			return []gameapi.LeagueEntry{entry(fmt.Sprintf("p%d", page), "GOLD", 10)}, nil
		},
	}
	collector := NewSeedCollector(api, zap.NewNop())

	tier, err := ClassifyTier("gold")
	require.NoError(t, err)

	entries, err := collector.Fetch(context.Background(), tier, []string{"I"}, []int{1, 2, 3})
	require.ErrorIs(t, err, gameapi.ErrRateLimitExceeded)
	require.Len(t, entries, 1)
}
