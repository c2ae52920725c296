// Package memory provides an in-memory crawl sink for tests and dry runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/arenastats/ranked-crawler/internal/crawler"
)

type playerRow struct {
	record        crawler.PlayerRecord
	gameName      string
	discriminator string
	hasLeague     bool
}

// Store keeps players, matches, and links in process memory. It implements
// crawler.Sink with the same idempotency guarantees as the Postgres store.
type Store struct {
	mu      sync.Mutex
	players map[string]*playerRow
	matches map[string]crawler.MatchRecord
	links   map[string]map[string]struct{} // player id -> match ids
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		players: make(map[string]*playerRow),
		matches: make(map[string]crawler.MatchRecord),
		links:   make(map[string]map[string]struct{}),
	}
}

// UpsertPlayer writes league data, preserving any account identity already set.
func (s *Store) UpsertPlayer(_ context.Context, player crawler.PlayerRecord) error {
	if player.ID == "" {
		return fmt.Errorf("player id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.players[player.ID]
	if !ok {
		row = &playerRow{}
		s.players[player.ID] = row
	}
	row.record = player
	row.hasLeague = true
	return nil
}

// UpsertPlayerStub inserts a bare row only if the player is unknown.
func (s *Store) UpsertPlayerStub(_ context.Context, playerID string) error {
	if playerID == "" {
		return fmt.Errorf("player id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[playerID]; !ok {
		s.players[playerID] = &playerRow{record: crawler.PlayerRecord{ID: playerID}}
	}
	return nil
}

// InsertMatch stores a match once; replays are no-ops.
func (s *Store) InsertMatch(_ context.Context, match crawler.MatchRecord) error {
	if match.ID == "" {
		return fmt.Errorf("match id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.matches[match.ID]; !ok {
		s.matches[match.ID] = match
	}
	return nil
}

// LinkPlayerMatch records a participant link; replays are no-ops.
func (s *Store) LinkPlayerMatch(_ context.Context, playerID, matchID string) error {
	if playerID == "" || matchID == "" {
		return fmt.Errorf("player id and match id are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.links[playerID]
	if !ok {
		set = make(map[string]struct{})
		s.links[playerID] = set
	}
	set[matchID] = struct{}{}
	return nil
}

// UpdatePlayerAccount sets display identity for an existing player.
func (s *Store) UpdatePlayerAccount(_ context.Context, playerID, gameName, discriminator string) error {
	if playerID == "" {
		return fmt.Errorf("player id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.players[playerID]
	if !ok {
		return nil
	}
	row.gameName = gameName
	row.discriminator = discriminator
	return nil
}

// ListPlayerIDs returns every known player identifier in sorted order.
func (s *Store) ListPlayerIDs(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.players))
	for id := range s.players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// DeleteOrphanPlayers removes players that no link references.
func (s *Store) DeleteOrphanPlayers(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for id := range s.players {
		if len(s.links[id]) == 0 {
			delete(s.players, id)
			deleted++
		}
	}
	return deleted, nil
}

// Close implements crawler.Sink; it performs no action.
func (s *Store) Close() {}

// Player returns the stored row for id, for test assertions.
func (s *Store) Player(id string) (crawler.PlayerRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.players[id]
	if !ok {
		return crawler.PlayerRecord{}, false
	}
	record := row.record
	record.GameName = row.gameName
	record.Discriminator = row.discriminator
	return record, true
}

// Match returns the stored match for id, for test assertions.
func (s *Store) Match(id string) (crawler.MatchRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	match, ok := s.matches[id]
	return match, ok
}

// MatchCount reports how many matches are stored.
func (s *Store) MatchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.matches)
}

// Links returns the match ids linked to a player, for test assertions.
func (s *Store) Links(playerID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.links[playerID]))
	for id := range s.links[playerID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
