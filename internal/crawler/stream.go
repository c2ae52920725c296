package crawler

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/arenastats/ranked-crawler/internal/gameapi"
)

// MatchStreamer fetches full match payloads one id at a time and hands each
// parsed match to a persistence callback immediately. The whole point of
// this component is that the batch is never materialized: peak memory stays
// at one match regardless of how large the id set grows.
type MatchStreamer struct {
	api          API
	participants int
	logger       *zap.Logger
}

// NewMatchStreamer builds a streamer expecting participants players per
// match (0 disables the count check).
func NewMatchStreamer(api API, participants int, logger *zap.Logger) *MatchStreamer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MatchStreamer{api: api, participants: participants, logger: logger}
}

// Stream fetches every id in matchIDs and invokes onMatch for each
// successfully parsed payload. Malformed payloads, missing matches, and
// per-match persistence failures are logged and skipped; an exhausted rate
// limit aborts the stream. Returns the count of matches for which both
// fetch and persistence succeeded.
func (s *MatchStreamer) Stream(
	ctx context.Context,
	matchIDs map[string]struct{},
	onMatch func(ctx context.Context, result MatchResult) error,
) (int, error) {
	succeeded := 0
	for matchID := range matchIDs {
		raw, match, err := s.api.MatchDetail(ctx, matchID)
		if err != nil {
			if errors.Is(err, gameapi.ErrRateLimitExceeded) {
				return succeeded, fmt.Errorf("stream match %s: %w", idPrefix(matchID), err)
			}
			s.logger.Warn("skipping match fetch",
				zap.String("match", idPrefix(matchID)),
				zap.Error(err),
			)
			continue
		}
		if s.participants > 0 && len(match.Metadata.Participants) != s.participants {
			s.logger.Warn("skipping match with unexpected participant count",
				zap.String("match", idPrefix(matchID)),
				zap.Int("participants", len(match.Metadata.Participants)),
				zap.Int("expected", s.participants),
			)
			continue
		}
		result := MatchResult{
			MatchID:        match.Metadata.MatchID,
			RawPayload:     raw,
			ParticipantIDs: match.Metadata.Participants,
		}
		if err := onMatch(ctx, result); err != nil {
			s.logger.Error("persisting match failed",
				zap.String("match", idPrefix(matchID)),
				zap.Error(err),
			)
			continue
		}
		succeeded++
	}
	s.logger.Info("streamed matches",
		zap.Int("requested", len(matchIDs)),
		zap.Int("stored", succeeded),
	)
	return succeeded, nil
}
