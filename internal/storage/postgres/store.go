// Package postgres provides the Postgres-backed crawl sink.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arenastats/ranked-crawler/internal/crawler"
)

// StoreConfig controls the Postgres connection pool.
type StoreConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pgxIface interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	Close()
}

// Store implements crawler.Sink on top of the players, matches, and
// player_matches tables (see schema.sql).
type Store struct {
	pool pgxIface
}

// NewStore creates a Postgres-backed Store using the provided config.
func NewStore(ctx context.Context, cfg StoreConfig) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

// NewStoreWithPool constructs a Store from an existing pool (primarily for
// testing).
func NewStoreWithPool(pool pgxIface) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// UpsertPlayer writes a player's league standing. On conflict it refreshes
// every league column but deliberately leaves game_name and tag_line alone:
// those belong to the account enrichment pass.
func (s *Store) UpsertPlayer(ctx context.Context, player crawler.PlayerRecord) error {
	if player.ID == "" {
		return fmt.Errorf("player id is required")
	}
	const query = `
INSERT INTO players (
	id, tier, division, league_points, wins, losses,
	veteran, inactive, fresh_blood, hot_streak, updated_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,now()
)
ON CONFLICT (id) DO UPDATE SET
	tier = EXCLUDED.tier,
	division = EXCLUDED.division,
	league_points = EXCLUDED.league_points,
	wins = EXCLUDED.wins,
	losses = EXCLUDED.losses,
	veteran = EXCLUDED.veteran,
	inactive = EXCLUDED.inactive,
	fresh_blood = EXCLUDED.fresh_blood,
	hot_streak = EXCLUDED.hot_streak,
	updated_at = now()`
	args := []any{
		player.ID,
		player.Tier,
		player.Division,
		player.LeaguePoints,
		player.Wins,
		player.Losses,
		player.Veteran,
		player.Inactive,
		player.FreshBlood,
		player.HotStreak,
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert player: %w", err)
	}
	return nil
}

// UpsertPlayerStub ensures a bare player row exists. Existing rows are left
// untouched so snowballed stubs never clobber seeded or enriched data.
func (s *Store) UpsertPlayerStub(ctx context.Context, playerID string) error {
	if playerID == "" {
		return fmt.Errorf("player id is required")
	}
	const query = `
INSERT INTO players (id, updated_at) VALUES ($1, now())
ON CONFLICT (id) DO NOTHING`
	if _, err := s.pool.Exec(ctx, query, playerID); err != nil {
		return fmt.Errorf("upsert player stub: %w", err)
	}
	return nil
}

// InsertMatch stores the raw match payload once; replays are no-ops.
func (s *Store) InsertMatch(ctx context.Context, match crawler.MatchRecord) error {
	if match.ID == "" {
		return fmt.Errorf("match id is required")
	}
	const query = `
INSERT INTO matches (id, payload, region, processed, inserted_at)
VALUES ($1,$2,$3,$4,now())
ON CONFLICT (id) DO NOTHING`
	if _, err := s.pool.Exec(ctx, query, match.ID, match.Payload, match.Region, match.Processed); err != nil {
		return fmt.Errorf("insert match: %w", err)
	}
	return nil
}

// LinkPlayerMatch records one participant row; replays are no-ops.
func (s *Store) LinkPlayerMatch(ctx context.Context, playerID, matchID string) error {
	if playerID == "" || matchID == "" {
		return fmt.Errorf("player id and match id are required")
	}
	const query = `
INSERT INTO player_matches (player_id, match_id) VALUES ($1,$2)
ON CONFLICT (player_id, match_id) DO NOTHING`
	if _, err := s.pool.Exec(ctx, query, playerID, matchID); err != nil {
		return fmt.Errorf("link player match: %w", err)
	}
	return nil
}

// UpdatePlayerAccount sets display identity for an existing player.
func (s *Store) UpdatePlayerAccount(ctx context.Context, playerID, gameName, discriminator string) error {
	if playerID == "" {
		return fmt.Errorf("player id is required")
	}
	const query = `
UPDATE players SET game_name = $2, tag_line = $3, updated_at = now()
WHERE id = $1`
	if _, err := s.pool.Exec(ctx, query, playerID, gameName, discriminator); err != nil {
		return fmt.Errorf("update player account: %w", err)
	}
	return nil
}

// ListPlayerIDs returns every known player identifier.
func (s *Store) ListPlayerIDs(ctx context.Context) ([]string, error) {
	const query = `SELECT id FROM players ORDER BY id`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan player id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate players: %w", err)
	}
	return ids, nil
}

// DeleteOrphanPlayers removes players that no stored match references and
// returns the count removed.
func (s *Store) DeleteOrphanPlayers(ctx context.Context) (int64, error) {
	const query = `
DELETE FROM players
WHERE NOT EXISTS (
	SELECT 1 FROM player_matches pm WHERE pm.player_id = players.id
)`
	tag, err := s.pool.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("delete orphan players: %w", err)
	}
	return tag.RowsAffected(), nil
}
