package crawler

import (
	"context"
	"errors"
	"time"

	"github.com/arenastats/ranked-crawler/internal/gameapi"
	"github.com/arenastats/ranked-crawler/internal/progress"
)

// instrumentedAPI wraps an API and emits a FETCH_DONE progress event per call.
// Components downstream stay unaware of telemetry.
type instrumentedAPI struct {
	inner   API
	emitter progress.Emitter
	runID   [16]byte
}

// InstrumentAPI decorates api with progress emission for the given run. A nil
// emitter returns api unchanged.
func InstrumentAPI(api API, emitter progress.Emitter, runID [16]byte) API {
	if emitter == nil {
		return api
	}
	return &instrumentedAPI{inner: api, emitter: emitter, runID: runID}
}

func (a *instrumentedAPI) emit(endpoint progress.Endpoint, start time.Time, err error) {
	a.emitter.Emit(progress.Event{
		RunID:    a.runID,
		TS:       time.Now().UTC(),
		Stage:    progress.StageFetchDone,
		Endpoint: endpoint,
		Outcome:  classifyOutcome(err),
		Dur:      time.Since(start),
	})
}

func classifyOutcome(err error) progress.Outcome {
	switch {
	case err == nil:
		return progress.OutcomeOK
	case errors.Is(err, gameapi.ErrNotFound):
		return progress.OutcomeNotFound
	case errors.Is(err, gameapi.ErrRateLimitExceeded):
		return progress.OutcomeRateLimited
	default:
		var verr *gameapi.ValidationError
		if errors.As(err, &verr) {
			return progress.OutcomeInvalid
		}
		return progress.OutcomeError
	}
}

func (a *instrumentedAPI) LeagueList(ctx context.Context, tier string) (gameapi.LeagueList, error) {
	start := time.Now()
	list, err := a.inner.LeagueList(ctx, tier)
	a.emit(progress.EndpointLeagueList, start, err)
	return list, err
}

func (a *instrumentedAPI) LeagueEntries(ctx context.Context, tier, division string, page int) ([]gameapi.LeagueEntry, error) {
	start := time.Now()
	entries, err := a.inner.LeagueEntries(ctx, tier, division, page)
	a.emit(progress.EndpointLeagueEntries, start, err)
	return entries, err
}

func (a *instrumentedAPI) MatchIDs(ctx context.Context, playerID string, count int) ([]string, error) {
	start := time.Now()
	ids, err := a.inner.MatchIDs(ctx, playerID, count)
	a.emit(progress.EndpointMatchIDs, start, err)
	return ids, err
}

func (a *instrumentedAPI) MatchDetail(ctx context.Context, matchID string) ([]byte, gameapi.Match, error) {
	start := time.Now()
	raw, match, err := a.inner.MatchDetail(ctx, matchID)
	a.emit(progress.EndpointMatch, start, err)
	return raw, match, err
}

func (a *instrumentedAPI) Account(ctx context.Context, playerID string) (gameapi.Account, error) {
	start := time.Now()
	account, err := a.inner.Account(ctx, playerID)
	a.emit(progress.EndpointAccount, start, err)
	return account, err
}

func (a *instrumentedAPI) LeagueByPlayer(ctx context.Context, playerID string) ([]gameapi.LeagueEntry, error) {
	start := time.Now()
	entries, err := a.inner.LeagueByPlayer(ctx, playerID)
	a.emit(progress.EndpointLeagueByPlayer, start, err)
	return entries, err
}
