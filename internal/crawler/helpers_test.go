package crawler

import (
	"context"
	"fmt"
	"sync"

	"github.com/arenastats/ranked-crawler/internal/gameapi"
)

// fakeAPI scripts upstream responses per endpoint. Unset funcs fail the
// call loudly so tests only exercise the endpoints they script.
type fakeAPI struct {
	leagueList     func(ctx context.Context, tier string) (gameapi.LeagueList, error)
	leagueEntries  func(ctx context.Context, tier, division string, page int) ([]gameapi.LeagueEntry, error)
	matchIDs       func(ctx context.Context, playerID string, count int) ([]string, error)
	matchDetail    func(ctx context.Context, matchID string) ([]byte, gameapi.Match, error)
	account        func(ctx context.Context, playerID string) (gameapi.Account, error)
	leagueByPlayer func(ctx context.Context, playerID string) ([]gameapi.LeagueEntry, error)
}

func (f *fakeAPI) LeagueList(ctx context.Context, tier string) (gameapi.LeagueList, error) {
	if f.leagueList == nil {
		return gameapi.LeagueList{}, fmt.Errorf("unexpected LeagueList(%s)", tier)
	}
	return f.leagueList(ctx, tier)
}

func (f *fakeAPI) LeagueEntries(ctx context.Context, tier, division string, page int) ([]gameapi.LeagueEntry, error) {
	if f.leagueEntries == nil {
		return nil, fmt.Errorf("unexpected LeagueEntries(%s,%s,%d)", tier, division, page)
	}
	return f.leagueEntries(ctx, tier, division, page)
}

func (f *fakeAPI) MatchIDs(ctx context.Context, playerID string, count int) ([]string, error) {
	if f.matchIDs == nil {
		return nil, fmt.Errorf("unexpected MatchIDs(%s,%d)", playerID, count)
	}
	return f.matchIDs(ctx, playerID, count)
}

func (f *fakeAPI) MatchDetail(ctx context.Context, matchID string) ([]byte, gameapi.Match, error) {
	if f.matchDetail == nil {
		return nil, gameapi.Match{}, fmt.Errorf("unexpected MatchDetail(%s)", matchID)
	}
	return f.matchDetail(ctx, matchID)
}

func (f *fakeAPI) Account(ctx context.Context, playerID string) (gameapi.Account, error) {
	if f.account == nil {
		return gameapi.Account{}, fmt.Errorf("unexpected Account(%s)", playerID)
	}
	return f.account(ctx, playerID)
}

func (f *fakeAPI) LeagueByPlayer(ctx context.Context, playerID string) ([]gameapi.LeagueEntry, error) {
	if f.leagueByPlayer == nil {
		return nil, fmt.Errorf("unexpected LeagueByPlayer(%s)", playerID)
	}
	return f.leagueByPlayer(ctx, playerID)
}

// fakeSink records every write in call order, letting tests assert both
// content and the match-before-stub-before-link ordering invariant.
type fakeSink struct {
	mu       sync.Mutex
	ops      []string
	players  map[string]PlayerRecord
	stubs    map[string]struct{}
	matches  map[string]MatchRecord
	links    map[string][]string
	accounts map[string][2]string

	failUpsertPlayer map[string]error
}

func newFakeSink() *fakeSink {
	return &fakeSink{
		players:  make(map[string]PlayerRecord),
		stubs:    make(map[string]struct{}),
		matches:  make(map[string]MatchRecord),
		links:    make(map[string][]string),
		accounts: make(map[string][2]string),
	}
}

func (s *fakeSink) record(op string) {
	s.ops = append(s.ops, op)
}

func (s *fakeSink) UpsertPlayer(_ context.Context, player PlayerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failUpsertPlayer[player.ID]; err != nil {
		return err
	}
	s.record("player:" + player.ID)
	s.players[player.ID] = player
	return nil
}

func (s *fakeSink) UpsertPlayerStub(_ context.Context, playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("stub:" + playerID)
	s.stubs[playerID] = struct{}{}
	return nil
}

func (s *fakeSink) InsertMatch(_ context.Context, match MatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("match:" + match.ID)
	if _, ok := s.matches[match.ID]; !ok {
		s.matches[match.ID] = match
	}
	return nil
}

func (s *fakeSink) LinkPlayerMatch(_ context.Context, playerID, matchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("link:" + playerID + ":" + matchID)
	s.links[playerID] = append(s.links[playerID], matchID)
	return nil
}

func (s *fakeSink) UpdatePlayerAccount(_ context.Context, playerID, gameName, discriminator string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("account:" + playerID)
	s.accounts[playerID] = [2]string{gameName, discriminator}
	return nil
}

func (s *fakeSink) ListPlayerIDs(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.players)+len(s.stubs))
	seen := make(map[string]struct{})
	for id := range s.players {
		ids = append(ids, id)
		seen[id] = struct{}{}
	}
	for id := range s.stubs {
		if _, ok := seen[id]; !ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *fakeSink) DeleteOrphanPlayers(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("reconcile")
	var deleted int64
	for id := range s.players {
		if len(s.links[id]) == 0 {
			delete(s.players, id)
			delete(s.stubs, id)
			deleted++
		}
	}
	for id := range s.stubs {
		if len(s.links[id]) == 0 {
			delete(s.stubs, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *fakeSink) Close() {}

func entry(playerID, tier string, points int) gameapi.LeagueEntry {
	return gameapi.LeagueEntry{
		PlayerID:     playerID,
		Tier:         tier,
		QueueType:    "RANKED",
		LeaguePoints: points,
	}
}
