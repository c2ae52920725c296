// Package progress defines the event stream emitted by the crawl pipeline.
package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage denotes the type of milestone represented by an Event.
type Stage string

// Supported progress stages.
const (
	StageRunStart    Stage = "RUN_START"
	StageRunDone     Stage = "RUN_DONE"
	StageRunError    Stage = "RUN_ERROR"
	StagePhaseDone   Stage = "PHASE_DONE"
	StageFetchDone   Stage = "FETCH_DONE"
	StagePersistDone Stage = "PERSIST_DONE"
)

// Endpoint labels which upstream endpoint a fetch event hit.
type Endpoint string

// Upstream endpoint kinds.
const (
	EndpointLeagueList     Endpoint = "league_list"
	EndpointLeagueEntries  Endpoint = "league_entries"
	EndpointMatchIDs       Endpoint = "match_ids"
	EndpointMatch          Endpoint = "match"
	EndpointAccount        Endpoint = "account"
	EndpointLeagueByPlayer Endpoint = "league_by_player"
)

// Outcome is the coarse result grouping for fetch events.
type Outcome string

// Supported fetch outcomes.
const (
	OutcomeOK          Outcome = "ok"
	OutcomeNotFound    Outcome = "not_found"
	OutcomeInvalid     Outcome = "invalid"
	OutcomeRateLimited Outcome = "rate_limited"
	OutcomeError       Outcome = "error"
)

// Event captures a single component of crawl progress.
type Event struct {
	// RunID uniquely identifies a pipeline run using the 16-byte UUID form.
	RunID [16]byte
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage denotes which milestone occurred.
	Stage Stage
	// Phase scopes PHASE_DONE events to a pipeline phase (seed, sample,
	// match_ids, matches, reconcile, enrich_account, enrich_league).
	Phase string
	// Tier optionally scopes seed-phase events to a ladder band.
	Tier string
	// Endpoint labels fetch events with the upstream endpoint kind.
	Endpoint Endpoint
	// Outcome groups fetch results.
	Outcome Outcome
	// Entity labels persist events (player, match, link).
	Entity string
	// Count carries the item count for phase and persist events.
	Count int64
	// Dur captures execution latency for fetches and run completions.
	Dur time.Duration
	// Note lets emitters attach low-volume debug context (e.g. error text).
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.RunID == [16]byte{} {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageRunStart, StageRunDone, StageRunError:
	case StagePhaseDone:
		if e.Phase == "" {
			return errors.New("phase done requires phase")
		}
	case StageFetchDone:
		if e.Endpoint == "" {
			return errors.New("fetch done requires endpoint")
		}
		if e.Outcome == "" {
			return errors.New("fetch done requires outcome")
		}
	case StagePersistDone:
		if e.Entity == "" {
			return errors.New("persist done requires entity")
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}

// RunUUID converts the binary run ID to uuid.UUID.
func (e Event) RunUUID() uuid.UUID {
	return uuid.UUID(e.RunID)
}

// UUIDToBytes encodes a uuid.UUID into the Event form.
func UUIDToBytes(id uuid.UUID) [16]byte {
	var dest [16]byte
	copy(dest[:], id[:])
	return dest
}
