package crawler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/arenastats/ranked-crawler/internal/gameapi"
)

// Enricher runs the two optional per-player enrichment passes: account
// identity and current league standing. Both stream each fetched record to
// a persistence callback immediately, isolating per-player failures.
type Enricher struct {
	api          API
	primaryQueue string
	logger       *zap.Logger
}

// NewEnricher builds an Enricher filtering league entries to primaryQueue.
func NewEnricher(api API, primaryQueue string, logger *zap.Logger) *Enricher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enricher{api: api, primaryQueue: strings.ToUpper(primaryQueue), logger: logger}
}

// EnrichAccounts resolves the display identity for every id. A missing
// account is a silent skip (no write); any other failure is logged and the
// id is skipped. Returns the count of ids enriched and persisted.
func (e *Enricher) EnrichAccounts(
	ctx context.Context,
	playerIDs []string,
	onRecord func(ctx context.Context, account gameapi.Account) error,
) (int, error) {
	succeeded := 0
	for _, playerID := range playerIDs {
		account, err := e.api.Account(ctx, playerID)
		if err != nil {
			switch {
			case errors.Is(err, gameapi.ErrRateLimitExceeded):
				return succeeded, fmt.Errorf("enrich account %s: %w", idPrefix(playerID), err)
			case errors.Is(err, gameapi.ErrNotFound):
				e.logger.Debug("no account for player", zap.String("player", idPrefix(playerID)))
			default:
				e.logger.Warn("skipping account enrichment",
					zap.String("player", idPrefix(playerID)),
					zap.Error(err),
				)
			}
			continue
		}
		if account.PlayerID == "" {
			account.PlayerID = playerID
		}
		if err := onRecord(ctx, account); err != nil {
			e.logger.Error("persisting account failed",
				zap.String("player", idPrefix(playerID)),
				zap.Error(err),
			)
			continue
		}
		succeeded++
	}
	e.logger.Info("account enrichment finished",
		zap.Int("players", len(playerIDs)),
		zap.Int("enriched", succeeded),
	)
	return succeeded, nil
}

// EnrichLeagues resolves the current league standing for every id,
// filtering the upstream queue entries to exactly the primary ranked queue.
// A player with no primary-queue entry is skipped with a warning rather
// than written with defaults. Returns the count of ids enriched and
// persisted.
func (e *Enricher) EnrichLeagues(
	ctx context.Context,
	playerIDs []string,
	onRecord func(ctx context.Context, entry gameapi.LeagueEntry) error,
) (int, error) {
	succeeded := 0
	for _, playerID := range playerIDs {
		entries, err := e.api.LeagueByPlayer(ctx, playerID)
		if err != nil {
			switch {
			case errors.Is(err, gameapi.ErrRateLimitExceeded):
				return succeeded, fmt.Errorf("enrich league %s: %w", idPrefix(playerID), err)
			case errors.Is(err, gameapi.ErrNotFound):
				e.logger.Debug("no league entries for player", zap.String("player", idPrefix(playerID)))
			default:
				e.logger.Warn("skipping league enrichment",
					zap.String("player", idPrefix(playerID)),
					zap.Error(err),
				)
			}
			continue
		}
		entry, ok := e.primaryEntry(entries)
		if !ok {
			e.logger.Warn("player has no primary ranked queue entry",
				zap.String("player", idPrefix(playerID)),
				zap.Int("queues", len(entries)),
			)
			continue
		}
		if entry.PlayerID == "" {
			entry.PlayerID = playerID
		}
		entry.Tier = strings.ToUpper(entry.Tier)
		if err := onRecord(ctx, entry); err != nil {
			e.logger.Error("persisting league standing failed",
				zap.String("player", idPrefix(playerID)),
				zap.Error(err),
			)
			continue
		}
		succeeded++
	}
	e.logger.Info("league enrichment finished",
		zap.Int("players", len(playerIDs)),
		zap.Int("enriched", succeeded),
	)
	return succeeded, nil
}

func (e *Enricher) primaryEntry(entries []gameapi.LeagueEntry) (gameapi.LeagueEntry, bool) {
	for _, entry := range entries {
		if strings.ToUpper(entry.QueueType) == e.primaryQueue {
			return entry, true
		}
	}
	return gameapi.LeagueEntry{}, false
}
