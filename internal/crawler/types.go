// Package crawler implements the ranked-telemetry crawl pipeline: seed
// collection, sampling, match-id discovery, streaming match persistence,
// orphan reconciliation, and the enrichment passes.
package crawler

import (
	"github.com/arenastats/ranked-crawler/internal/gameapi"
)

// PlayerRecord is the persisted form of a player. A record starts life as a
// stub (identifier only) when first observed as a match participant; seed
// persistence and league enrichment fill the remaining fields. Stub defaults
// are not authoritative league data until an enrichment write lands.
type PlayerRecord struct {
	ID            string
	GameName      string
	Discriminator string
	Tier          string
	Division      string
	LeaguePoints  int
	Wins          int
	Losses        int
	Veteran       bool
	Inactive      bool
	FreshBlood    bool
	HotStreak     bool
}

// MatchRecord is the persisted form of a match. Payload is the complete raw
// upstream document; Processed is reserved for downstream consumers and is
// never mutated by the crawler.
type MatchRecord struct {
	ID        string
	Payload   []byte
	Region    string
	Processed bool
}

// MatchResult is handed to the persistence callback for each successfully
// fetched and parsed match.
type MatchResult struct {
	MatchID        string
	RawPayload     []byte
	ParticipantIDs []string
}

// PlayerRecordFromEntry converts a ladder entry into its persisted form.
func PlayerRecordFromEntry(entry gameapi.LeagueEntry) PlayerRecord {
	return PlayerRecord{
		ID:           entry.PlayerID,
		Tier:         entry.Tier,
		Division:     entry.Division,
		LeaguePoints: entry.LeaguePoints,
		Wins:         entry.Wins,
		Losses:       entry.Losses,
		Veteran:      entry.Veteran,
		Inactive:     entry.Inactive,
		FreshBlood:   entry.FreshBlood,
		HotStreak:    entry.HotStreak,
	}
}
