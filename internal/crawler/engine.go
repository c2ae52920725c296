package crawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arenastats/ranked-crawler/internal/gameapi"
	"github.com/arenastats/ranked-crawler/internal/progress"
)

// EngineConfig carries the per-run knobs for a crawl.
type EngineConfig struct {
	// Tiers is the set of ladder bands to seed from.
	Tiers []Tier
	// MatchGoal is the target number of matches per tier; it drives how
	// many seed players get sampled.
	MatchGoal int
	// Divisions limits low-tier paging; empty means all four.
	Divisions []string
	// Pages limits low-tier paging; empty means page until exhausted.
	Pages []int
	// AccountEnrichment toggles the display-identity pass.
	AccountEnrichment bool
	// LeagueEnrichment toggles the league-standing pass.
	LeagueEnrichment bool
	// RankedSampling picks seed players by league points instead of
	// uniformly at random.
	RankedSampling bool
	// Region is stamped on every stored match.
	Region string
	// MatchIDsPerPlayer caps the history fetch per seed player.
	MatchIDsPerPlayer int
	// ParticipantsPerMatch is the expected roster size; mismatches are
	// rejected during streaming.
	ParticipantsPerMatch int
	// PrimaryQueue filters league enrichment to one queue type.
	PrimaryQueue string
}

// Summary aggregates the counts a run produced.
type Summary struct {
	RunID            uuid.UUID
	SeedPlayers      int
	SampledPlayers   int
	MatchIDs         int
	MatchesStored    int
	OrphansDeleted   int64
	AccountsEnriched int
	LeaguesEnriched  int
	Elapsed          time.Duration
}

// Engine wires the pipeline stages into a full crawl run: per tier it seeds,
// samples, persists seed standings, collects match ids, and streams match
// payloads into storage; then a single cross-tier pass reconciles orphans
// and enriches every stored player.
type Engine struct {
	api     API
	sink    Sink
	sampler *Sampler
	emitter progress.Emitter
	logger  *zap.Logger
	cfg     EngineConfig
}

// NewEngine assembles an Engine. A nil emitter disables telemetry; a nil
// sampler gets a time-seeded default.
func NewEngine(api API, sink Sink, sampler *Sampler, emitter progress.Emitter, logger *zap.Logger, cfg EngineConfig) *Engine {
	if sampler == nil {
		sampler = NewSampler(nil)
	}
	if emitter == nil {
		emitter = progress.NopEmitter{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		api:     api,
		sink:    sink,
		sampler: sampler,
		emitter: emitter,
		logger:  logger,
		cfg:     cfg,
	}
}

// Run executes the crawl. An exhausted upstream rate budget aborts the run;
// the returned Summary reflects whatever completed before the abort. All
// other per-item failures are skipped inside the stages.
func (e *Engine) Run(ctx context.Context) (Summary, error) {
	runUUID, err := uuid.NewV7()
	if err != nil {
		runUUID = uuid.New()
	}
	runID := progress.UUIDToBytes(runUUID)
	started := time.Now()
	summary := Summary{RunID: runUUID}

	api := InstrumentAPI(e.api, e.emitter, runID)
	logger := e.logger.With(zap.String("run", runUUID.String()))

	e.emitRun(runID, progress.StageRunStart, 0)
	logger.Info("crawl run starting",
		zap.Int("tiers", len(e.cfg.Tiers)),
		zap.Int("match_goal", e.cfg.MatchGoal),
		zap.String("region", e.cfg.Region),
	)

	finish := func(runErr error) (Summary, error) {
		summary.Elapsed = time.Since(started)
		if runErr != nil {
			e.emitRun(runID, progress.StageRunError, summary.Elapsed)
			logger.Error("crawl run aborted", zap.Error(runErr), zap.Duration("elapsed", summary.Elapsed))
			return summary, runErr
		}
		e.emitRun(runID, progress.StageRunDone, summary.Elapsed)
		logger.Info("crawl run finished",
			zap.Int("matches_stored", summary.MatchesStored),
			zap.Int64("orphans_deleted", summary.OrphansDeleted),
			zap.Duration("elapsed", summary.Elapsed),
		)
		return summary, nil
	}

	for _, tier := range e.cfg.Tiers {
		if err := e.crawlTier(ctx, api, logger, runID, tier, &summary); err != nil {
			return finish(err)
		}
	}

	deleted, err := NewOrphanReconciler(e.sink, logger).Reconcile(ctx)
	if err != nil {
		return finish(fmt.Errorf("reconcile orphans: %w", err))
	}
	summary.OrphansDeleted = deleted
	e.emitPhase(runID, "reconcile", "", deleted)

	if e.cfg.AccountEnrichment || e.cfg.LeagueEnrichment {
		if err := e.enrichAll(ctx, api, logger, runID, &summary); err != nil {
			return finish(err)
		}
	}

	return finish(nil)
}

// crawlTier runs the seed -> sample -> persist -> match-id -> stream chain
// for a single tier, accumulating counts into summary.
func (e *Engine) crawlTier(
	ctx context.Context,
	api API,
	logger *zap.Logger,
	runID [16]byte,
	tier Tier,
	summary *Summary,
) error {
	logger = logger.With(zap.String("tier", tier.Name))

	seeds, err := NewSeedCollector(api, logger).Fetch(ctx, tier, e.cfg.Divisions, e.cfg.Pages)
	if err != nil {
		if errors.Is(err, gameapi.ErrRateLimitExceeded) {
			return fmt.Errorf("seed tier %s: %w", tier.Name, err)
		}
		logger.Warn("skipping tier after seed failure", zap.Error(err))
		return nil
	}
	summary.SeedPlayers += len(seeds)
	e.emitPhase(runID, "seed", tier.Name, int64(len(seeds)))
	if len(seeds) == 0 {
		logger.Warn("tier produced no seed players")
		return nil
	}

	var sampled []gameapi.LeagueEntry
	if e.cfg.RankedSampling {
		sampled = e.sampler.SelectTop(seeds, e.cfg.MatchGoal)
	} else {
		sampled = e.sampler.Select(seeds, e.cfg.MatchGoal)
	}
	summary.SampledPlayers += len(sampled)
	e.emitPhase(runID, "sample", tier.Name, int64(len(sampled)))

	playerIDs := make([]string, 0, len(sampled))
	persisted := int64(0)
	for _, entry := range sampled {
		record := PlayerRecordFromEntry(entry)
		if err := e.sink.UpsertPlayer(ctx, record); err != nil {
			logger.Warn("skipping seed player persist",
				zap.String("player", idPrefix(record.ID)),
				zap.Error(err),
			)
			continue
		}
		persisted++
		playerIDs = append(playerIDs, record.ID)
	}
	e.emitPersist(runID, "player", persisted)
	if len(playerIDs) == 0 {
		logger.Warn("no seed players persisted for tier")
		return nil
	}

	matchIDs, err := NewMatchIDCollector(api, e.cfg.MatchIDsPerPlayer, logger).Collect(ctx, playerIDs)
	summary.MatchIDs += len(matchIDs)
	e.emitPhase(runID, "match_ids", tier.Name, int64(len(matchIDs)))
	if err != nil {
		return fmt.Errorf("collect match ids for tier %s: %w", tier.Name, err)
	}

	stored, err := NewMatchStreamer(api, e.cfg.ParticipantsPerMatch, logger).
		Stream(ctx, matchIDs, e.persistMatch(runID))
	summary.MatchesStored += stored
	e.emitPhase(runID, "matches", tier.Name, int64(stored))
	if err != nil {
		return fmt.Errorf("stream matches for tier %s: %w", tier.Name, err)
	}
	return nil
}

// persistMatch returns the streaming callback that writes one match and its
// roster. Ordering matters for referential integrity: the match row and
// every participant stub must exist before any link row.
func (e *Engine) persistMatch(runID [16]byte) func(ctx context.Context, result MatchResult) error {
	return func(ctx context.Context, result MatchResult) error {
		match := MatchRecord{
			ID:      result.MatchID,
			Payload: result.RawPayload,
			Region:  e.cfg.Region,
		}
		if err := e.sink.InsertMatch(ctx, match); err != nil {
			return fmt.Errorf("insert match: %w", err)
		}
		for _, playerID := range result.ParticipantIDs {
			if err := e.sink.UpsertPlayerStub(ctx, playerID); err != nil {
				return fmt.Errorf("upsert participant stub %s: %w", idPrefix(playerID), err)
			}
		}
		for _, playerID := range result.ParticipantIDs {
			if err := e.sink.LinkPlayerMatch(ctx, playerID, result.MatchID); err != nil {
				return fmt.Errorf("link participant %s: %w", idPrefix(playerID), err)
			}
		}
		e.emitPersist(runID, "match", 1)
		e.emitPersist(runID, "link", int64(len(result.ParticipantIDs)))
		return nil
	}
}

// enrichAll runs the cross-tier enrichment passes over every stored player,
// including the stubs the match stream snowballed in.
func (e *Engine) enrichAll(
	ctx context.Context,
	api API,
	logger *zap.Logger,
	runID [16]byte,
	summary *Summary,
) error {
	playerIDs, err := e.sink.ListPlayerIDs(ctx)
	if err != nil {
		return fmt.Errorf("list players for enrichment: %w", err)
	}
	enricher := NewEnricher(api, e.cfg.PrimaryQueue, logger)

	if e.cfg.AccountEnrichment {
		enriched, err := enricher.EnrichAccounts(ctx, playerIDs, func(ctx context.Context, account gameapi.Account) error {
			return e.sink.UpdatePlayerAccount(ctx, account.PlayerID, account.GameName, account.Discriminator)
		})
		summary.AccountsEnriched = enriched
		e.emitPhase(runID, "enrich_account", "", int64(enriched))
		if err != nil {
			return err
		}
	}

	if e.cfg.LeagueEnrichment {
		enriched, err := enricher.EnrichLeagues(ctx, playerIDs, func(ctx context.Context, entry gameapi.LeagueEntry) error {
			return e.sink.UpsertPlayer(ctx, PlayerRecordFromEntry(entry))
		})
		summary.LeaguesEnriched = enriched
		e.emitPhase(runID, "enrich_league", "", int64(enriched))
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) emitRun(runID [16]byte, stage progress.Stage, dur time.Duration) {
	e.emitter.Emit(progress.Event{
		RunID: runID,
		TS:    time.Now().UTC(),
		Stage: stage,
		Dur:   dur,
	})
}

func (e *Engine) emitPhase(runID [16]byte, phase, tier string, count int64) {
	e.emitter.Emit(progress.Event{
		RunID: runID,
		TS:    time.Now().UTC(),
		Stage: progress.StagePhaseDone,
		Phase: phase,
		Tier:  tier,
		Count: count,
	})
}

func (e *Engine) emitPersist(runID [16]byte, entity string, count int64) {
	if count <= 0 {
		return
	}
	e.emitter.Emit(progress.Event{
		RunID:  runID,
		TS:     time.Now().UTC(),
		Stage:  progress.StagePersistDone,
		Entity: entity,
		Count:  count,
	})
}
