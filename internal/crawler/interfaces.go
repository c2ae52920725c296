package crawler

import (
	"context"
	"errors"

	"github.com/arenastats/ranked-crawler/internal/gameapi"
)

// ErrEmptySeedSet reports a match-id collection attempted over zero players.
// It is fatal to the call it guards.
var ErrEmptySeedSet = errors.New("empty seed player set")

// API is the slice of the upstream client the pipeline consumes. Satisfied
// by *gameapi.Client; tests substitute fakes.
type API interface {
	LeagueList(ctx context.Context, tier string) (gameapi.LeagueList, error)
	LeagueEntries(ctx context.Context, tier, division string, page int) ([]gameapi.LeagueEntry, error)
	MatchIDs(ctx context.Context, playerID string, count int) ([]string, error)
	MatchDetail(ctx context.Context, matchID string) ([]byte, gameapi.Match, error)
	Account(ctx context.Context, playerID string) (gameapi.Account, error)
	LeagueByPlayer(ctx context.Context, playerID string) ([]gameapi.LeagueEntry, error)
}

// Sink persists crawl output. All write operations are idempotent upserts;
// callers rely on that for at-most-once semantics across overlapping runs.
// The write-ordering invariant is the caller's job: a match row and every
// participant stub must exist before the corresponding links are created.
type Sink interface {
	// UpsertPlayer writes full league data for a player. It never touches
	// the account-identity columns.
	UpsertPlayer(ctx context.Context, player PlayerRecord) error

	// UpsertPlayerStub ensures a player row exists for the identifier,
	// without overwriting anything an earlier write produced.
	UpsertPlayerStub(ctx context.Context, playerID string) error

	// InsertMatch stores a match exactly once; replays are no-ops.
	InsertMatch(ctx context.Context, match MatchRecord) error

	// LinkPlayerMatch records a participant link; replays are no-ops.
	LinkPlayerMatch(ctx context.Context, playerID, matchID string) error

	// UpdatePlayerAccount sets the display identity for a player.
	UpdatePlayerAccount(ctx context.Context, playerID, gameName, discriminator string) error

	// ListPlayerIDs returns every known player identifier.
	ListPlayerIDs(ctx context.Context) ([]string, error)

	// DeleteOrphanPlayers removes players with no match links and returns
	// the count removed.
	DeleteOrphanPlayers(ctx context.Context) (int64, error)

	// Close releases the sink's resources.
	Close()
}
