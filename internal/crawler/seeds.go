package crawler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/arenastats/ranked-crawler/internal/gameapi"
)

// SeedCollector fetches ladder entries for a tier and normalizes them into
// a common shape regardless of which upstream sub-protocol served them.
type SeedCollector struct {
	api    API
	logger *zap.Logger
}

// NewSeedCollector builds a SeedCollector.
func NewSeedCollector(api API, logger *zap.Logger) *SeedCollector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SeedCollector{api: api, logger: logger}
}

// Fetch returns the ladder entries for one tier. High tiers are a single
// unpaginated call whose entries lack a tier label; it is stamped on here.
// Low tiers iterate the divisions x pages cross product; a failed page is
// logged and skipped, and an empty page ends that division's page loop
// without halting the remaining divisions.
func (c *SeedCollector) Fetch(ctx context.Context, tier Tier, divisions []string, pages []int) ([]gameapi.LeagueEntry, error) {
	switch tier.Class {
	case TierClassHigh:
		return c.fetchHighTier(ctx, tier)
	case TierClassLow:
		return c.fetchLowTier(ctx, tier, divisions, pages)
	default:
		return nil, fmt.Errorf("unknown tier class %d", tier.Class)
	}
}

func (c *SeedCollector) fetchHighTier(ctx context.Context, tier Tier) ([]gameapi.LeagueEntry, error) {
	list, err := c.api.LeagueList(ctx, tier.Name)
	if err != nil {
		return nil, fmt.Errorf("fetch %s ladder: %w", tier.Name, err)
	}
	label := strings.ToUpper(tier.Name)
	entries := make([]gameapi.LeagueEntry, 0, len(list.Entries))
	for _, entry := range list.Entries {
		entry.Tier = label
		entries = append(entries, entry)
	}
	c.logger.Info("collected high-tier seeds",
		zap.String("tier", label),
		zap.Int("entries", len(entries)),
	)
	return entries, nil
}

func (c *SeedCollector) fetchLowTier(ctx context.Context, tier Tier, divisions []string, pages []int) ([]gameapi.LeagueEntry, error) {
	if len(divisions) == 0 {
		divisions = Divisions
	}
	label := strings.ToUpper(tier.Name)
	var entries []gameapi.LeagueEntry
	var err error
	for _, division := range divisions {
		if len(pages) > 0 {
			entries, err = c.fetchFixedPages(ctx, tier, division, pages, label, entries)
		} else {
			entries, err = c.fetchUntilEmpty(ctx, tier, division, label, entries)
		}
		if err != nil {
			return entries, err
		}
	}
	c.logger.Info("collected low-tier seeds",
		zap.String("tier", label),
		zap.Int("entries", len(entries)),
	)
	return entries, nil
}

// fetchFixedPages walks an explicit page list; a failed page is skipped,
// an empty one ends the division early. An exhausted rate budget aborts.
func (c *SeedCollector) fetchFixedPages(ctx context.Context, tier Tier, division string, pages []int, label string, entries []gameapi.LeagueEntry) ([]gameapi.LeagueEntry, error) {
	for _, page := range pages {
		batch, err := c.api.LeagueEntries(ctx, tier.Name, division, page)
		if err != nil {
			if errors.Is(err, gameapi.ErrRateLimitExceeded) {
				return entries, fmt.Errorf("fetch %s %s page %d: %w", label, division, page, err)
			}
			c.logger.Warn("skipping failed ladder page",
				zap.String("tier", label),
				zap.String("division", division),
				zap.Int("page", page),
				zap.Error(err),
			)
			continue
		}
		if len(batch) == 0 {
			break
		}
		entries = appendNormalized(entries, batch, label)
	}
	return entries, nil
}

// fetchUntilEmpty pages from 1 upward until the upstream returns an empty
// page. A failed page ends the division because the page cursor cannot be
// trusted past an error; an exhausted rate budget aborts.
func (c *SeedCollector) fetchUntilEmpty(ctx context.Context, tier Tier, division, label string, entries []gameapi.LeagueEntry) ([]gameapi.LeagueEntry, error) {
	for page := 1; ; page++ {
		batch, err := c.api.LeagueEntries(ctx, tier.Name, division, page)
		if err != nil {
			if errors.Is(err, gameapi.ErrRateLimitExceeded) {
				return entries, fmt.Errorf("fetch %s %s page %d: %w", label, division, page, err)
			}
			c.logger.Warn("ending division after failed ladder page",
				zap.String("tier", label),
				zap.String("division", division),
				zap.Int("page", page),
				zap.Error(err),
			)
			return entries, nil
		}
		if len(batch) == 0 {
			return entries, nil
		}
		entries = appendNormalized(entries, batch, label)
	}
}

func appendNormalized(entries, batch []gameapi.LeagueEntry, label string) []gameapi.LeagueEntry {
	for _, entry := range batch {
		entry.Tier = strings.ToUpper(entry.Tier)
		if entry.Tier == "" {
			entry.Tier = label
		}
		entries = append(entries, entry)
	}
	return entries
}
