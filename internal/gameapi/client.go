package gameapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const authHeader = "X-Api-Key"

// Config holds the settings for the API client.
type Config struct {
	BaseURL         string
	Key             string
	Timeout         time.Duration
	CallDelay       time.Duration
	MaxAttempts     int
	FallbackBackoff time.Duration
}

// Client issues rate-limited, retrying calls against the upstream API.
// Pacing is enforced before every request via a token bucket sized to one
// request per CallDelay, keeping the steady-state rate under the upstream
// budget no matter which endpoint is being hit.
type Client struct {
	httpClient      *http.Client
	baseURL         string
	key             string
	limiter         *rate.Limiter
	maxAttempts     int
	fallbackBackoff time.Duration
	logger          *zap.Logger

	// lastRetryAfter carries the most recent throttle hint between doOnce
	// and the retry loop. The client is used sequentially, so a plain field
	// is fine.
	lastRetryAfter time.Duration

	// pause is swapped out in tests to avoid real sleeps.
	pause func(ctx context.Context, d time.Duration) error
}

// NewClient builds a Client from config.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("api base url is required")
	}
	if cfg.Key == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	fallback := cfg.FallbackBackoff
	if fallback <= 0 {
		fallback = 5 * time.Second
	}
	limit := rate.Inf
	if cfg.CallDelay > 0 {
		limit = rate.Every(cfg.CallDelay)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		httpClient:      &http.Client{Timeout: timeout},
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		key:             cfg.Key,
		limiter:         rate.NewLimiter(limit, 1),
		maxAttempts:     maxAttempts,
		fallbackBackoff: fallback,
		logger:          logger,
		pause:           pauseTimer,
	}, nil
}

// get performs one rate-limited GET with bounded retry on throttling.
// A 429 response is retried after the hinted wait (fallback if absent);
// any other failure propagates immediately. Exhausting every attempt wraps
// the last throttle into ErrRateLimitExceeded.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	var lastStatus int
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		body, status, err := c.doOnce(ctx, path)
		if err != nil {
			return nil, err
		}

		switch {
		case status == http.StatusTooManyRequests:
			lastStatus = status
			delay := c.retryAfter()
			c.logger.Warn("throttled by upstream, backing off",
				zap.String("path", path),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
			)
			if err := c.pause(ctx, delay); err != nil {
				return nil, fmt.Errorf("throttle backoff: %w", err)
			}
		case status == http.StatusNotFound:
			return nil, fmt.Errorf("GET %s: %w", path, ErrNotFound)
		case status >= 300:
			return nil, fmt.Errorf("GET %s: unexpected status %d", path, status)
		default:
			return body, nil
		}
	}
	return nil, fmt.Errorf("GET %s: status %d after %d attempts: %w",
		path, lastStatus, c.maxAttempts, ErrRateLimitExceeded)
}

func (c *Client) doOnce(ctx context.Context, path string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request for %s: %w", path, err)
	}
	req.Header.Set(authHeader, c.key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusTooManyRequests {
		c.lastRetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"), c.fallbackBackoff)
		return nil, resp.StatusCode, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read body for %s: %w", path, err)
	}
	return body, resp.StatusCode, nil
}

func (c *Client) retryAfter() time.Duration {
	if c.lastRetryAfter > 0 {
		return c.lastRetryAfter
	}
	return c.fallbackBackoff
}

func parseRetryAfter(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	secs, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || secs <= 0 {
		return fallback
	}
	return time.Duration(secs) * time.Second
}

func pauseTimer(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// LeagueList fetches the unpaginated ladder for a high-tier band.
func (c *Client) LeagueList(ctx context.Context, tier string) (LeagueList, error) {
	path := "/league/v1/" + url.PathEscape(strings.ToLower(tier))
	body, err := c.get(ctx, path)
	if err != nil {
		return LeagueList{}, err
	}
	var list LeagueList
	if err := json.Unmarshal(body, &list); err != nil {
		return LeagueList{}, NewValidationError("league_list", "decode: %v", err)
	}
	return list, nil
}

// LeagueEntries fetches one page of low-tier ladder entries.
func (c *Client) LeagueEntries(ctx context.Context, tier, division string, page int) ([]LeagueEntry, error) {
	path := fmt.Sprintf("/league/v1/entries/%s/%s?page=%d",
		url.PathEscape(strings.ToUpper(tier)), url.PathEscape(division), page)
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	var entries []LeagueEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, NewValidationError("league_entries", "decode: %v", err)
	}
	return entries, nil
}

// MatchIDs fetches the recent match-id list for a player.
func (c *Client) MatchIDs(ctx context.Context, playerID string, count int) ([]string, error) {
	path := fmt.Sprintf("/match/v1/matches/by-id/%s/ids?count=%d", url.PathEscape(playerID), count)
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(body, &ids); err != nil {
		return nil, NewValidationError("match_ids", "decode: %v", err)
	}
	return ids, nil
}

// MatchDetail fetches a full match payload, returning both the raw document
// (persisted verbatim) and the typed view the pipeline needs.
func (c *Client) MatchDetail(ctx context.Context, matchID string) ([]byte, Match, error) {
	path := "/match/v1/matches/" + url.PathEscape(matchID)
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, Match{}, err
	}
	var match Match
	if err := json.Unmarshal(body, &match); err != nil {
		return nil, Match{}, NewValidationError("match", "decode: %v", err)
	}
	if match.Metadata.MatchID == "" {
		return nil, Match{}, NewValidationError("match", "missing match id")
	}
	if len(match.Metadata.Participants) == 0 {
		return nil, Match{}, NewValidationError("match", "missing participants")
	}
	return body, match, nil
}

// Account resolves the display identity for a player id.
func (c *Client) Account(ctx context.Context, playerID string) (Account, error) {
	path := "/account/v1/accounts/by-id/" + url.PathEscape(playerID)
	body, err := c.get(ctx, path)
	if err != nil {
		return Account{}, err
	}
	var account Account
	if err := json.Unmarshal(body, &account); err != nil {
		return Account{}, NewValidationError("account", "decode: %v", err)
	}
	return account, nil
}

// LeagueByPlayer fetches all queue entries for a player. Callers filter to
// the primary ranked queue.
func (c *Client) LeagueByPlayer(ctx context.Context, playerID string) ([]LeagueEntry, error) {
	path := "/league/v1/by-id/" + url.PathEscape(playerID)
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	var entries []LeagueEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, NewValidationError("league_by_player", "decode: %v", err)
	}
	return entries, nil
}
