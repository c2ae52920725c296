package crawler

import (
	"math/rand"
	"sort"
	"time"

	"github.com/arenastats/ranked-crawler/internal/gameapi"
)

// MatchesPerPlayer is the upstream cap on match ids returned per player,
// and therefore the divisor for sizing a sample to a match goal.
const MatchesPerPlayer = 20

// Sampler selects a bounded subset of candidate seed players sized to a
// match-collection goal.
type Sampler struct {
	rng *rand.Rand
}

// NewSampler builds a Sampler. A nil rng gets a time-seeded source; tests
// inject a fixed seed to make count and uniqueness assertions stable.
func NewSampler(rng *rand.Rand) *Sampler {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Sampler{rng: rng}
}

// Select returns a uniform random sample of playersNeeded(matchGoal)
// entries. When the goal asks for at least the whole input, the input is
// returned unchanged. Otherwise the slice is shuffled in place with an
// unbiased Fisher-Yates pass and the first N elements are returned.
func (s *Sampler) Select(players []gameapi.LeagueEntry, matchGoal int) []gameapi.LeagueEntry {
	needed := playersNeeded(matchGoal)
	if needed >= len(players) {
		return players
	}
	for i := len(players) - 1; i > 0; i-- {
		j := s.rng.Intn(i + 1)
		players[i], players[j] = players[j], players[i]
	}
	return players[:needed]
}

// SelectTop is the ranked variant: descending league points, top N. Used
// when reproducible high-skill sampling beats uniform coverage.
func (s *Sampler) SelectTop(players []gameapi.LeagueEntry, matchGoal int) []gameapi.LeagueEntry {
	needed := playersNeeded(matchGoal)
	if needed >= len(players) {
		return players
	}
	sorted := append([]gameapi.LeagueEntry(nil), players...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].LeaguePoints > sorted[j].LeaguePoints
	})
	return sorted[:needed]
}

func playersNeeded(matchGoal int) int {
	if matchGoal <= 0 {
		return 0
	}
	return (matchGoal + MatchesPerPlayer - 1) / MatchesPerPlayer
}
