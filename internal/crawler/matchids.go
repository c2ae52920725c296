package crawler

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/arenastats/ranked-crawler/internal/gameapi"
)

// MatchIDCollector merges the recent match-id lists of a set of players
// into one deduplicated set.
type MatchIDCollector struct {
	api       API
	perPlayer int
	logger    *zap.Logger
}

// NewMatchIDCollector builds a collector fetching perPlayer ids per call
// (the upstream caps this at MatchesPerPlayer).
func NewMatchIDCollector(api API, perPlayer int, logger *zap.Logger) *MatchIDCollector {
	if perPlayer <= 0 {
		perPlayer = MatchesPerPlayer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MatchIDCollector{api: api, perPlayer: perPlayer, logger: logger}
}

// Collect returns the union of recent match ids over all given players.
// Players who co-played a lobby contribute the shared id exactly once. A
// failed per-player fetch is logged and skipped; only an exhausted rate
// limit aborts the collection, since every further call would burn the same
// budget. An empty input set is rejected with ErrEmptySeedSet.
func (c *MatchIDCollector) Collect(ctx context.Context, playerIDs []string) (map[string]struct{}, error) {
	if len(playerIDs) == 0 {
		return nil, ErrEmptySeedSet
	}
	matchIDs := make(map[string]struct{})
	for _, playerID := range playerIDs {
		ids, err := c.api.MatchIDs(ctx, playerID, c.perPlayer)
		if err != nil {
			if errors.Is(err, gameapi.ErrRateLimitExceeded) {
				return matchIDs, fmt.Errorf("collect match ids for %s: %w", idPrefix(playerID), err)
			}
			c.logger.Warn("skipping player match-id fetch",
				zap.String("player", idPrefix(playerID)),
				zap.Error(err),
			)
			continue
		}
		for _, id := range ids {
			matchIDs[id] = struct{}{}
		}
	}
	c.logger.Info("collected match ids",
		zap.Int("players", len(playerIDs)),
		zap.Int("unique_matches", len(matchIDs)),
	)
	return matchIDs, nil
}

// idPrefix truncates opaque identifiers for log lines.
func idPrefix(id string) string {
	if len(id) <= 12 {
		return id
	}
	return id[:12]
}
