package postgres

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/arenastats/ranked-crawler/internal/crawler"
)

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	store, err := NewStoreWithPool(mock)
	require.NoError(t, err)
	return store, mock
}

func TestUpsertPlayerWritesLeagueColumns(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	player := crawler.PlayerRecord{
		ID:           "player-1",
		Tier:         "DIAMOND",
		Division:     "II",
		LeaguePoints: 75,
		Wins:         120,
		Losses:       98,
		HotStreak:    true,
	}

	mock.ExpectExec(`INSERT INTO players`).
		WithArgs(
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
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.UpsertPlayer(context.Background(), player))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertPlayerRejectsEmptyID(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	err := store.UpsertPlayer(context.Background(), crawler.PlayerRecord{})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertPlayerStubDoesNothingOnConflict(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO players \(id, updated_at\)`).
		WithArgs("player-2").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	require.NoError(t, store.UpsertPlayerStub(context.Background(), "player-2"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertMatchStoresPayload(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	match := crawler.MatchRecord{
		ID:      "match-1",
		Payload: []byte(`{"metadata":{"matchId":"match-1"}}`),
		Region:  "americas",
	}

	mock.ExpectExec(`INSERT INTO matches`).
		WithArgs(match.ID, match.Payload, match.Region, match.Processed).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.InsertMatch(context.Background(), match))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLinkPlayerMatch(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO player_matches`).
		WithArgs("player-1", "match-1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.LinkPlayerMatch(context.Background(), "player-1", "match-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePlayerAccount(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE players SET game_name`).
		WithArgs("player-1", "SunsetRaider", "NA1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, store.UpdatePlayerAccount(context.Background(), "player-1", "SunsetRaider", "NA1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListPlayerIDs(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	rows := pgxmock.NewRows([]string{"id"}).
		AddRow("player-1").
		AddRow("player-2")
	mock.ExpectQuery(`SELECT id FROM players`).WillReturnRows(rows)

	ids, err := store.ListPlayerIDs(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"player-1", "player-2"}, ids)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteOrphanPlayersReturnsCount(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	mock.ExpectExec(`DELETE FROM players`).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	deleted, err := store.DeleteOrphanPlayers(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(3), deleted)
	require.NoError(t, mock.ExpectationsWereMet())
}
