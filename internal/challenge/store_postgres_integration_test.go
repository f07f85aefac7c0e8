//go:build integration

package challenge

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	id "warden/pkg/domain"
)

const challengesDDL = `
CREATE TABLE challenges (
	id           TEXT PRIMARY KEY,
	guild_id     TEXT NOT NULL,
	user_id      TEXT NOT NULL,
	type         TEXT NOT NULL,
	data         TEXT[] NOT NULL DEFAULT '{}',
	answer_hash  TEXT NOT NULL DEFAULT '',
	attempts     INT NOT NULL DEFAULT 0,
	max_attempts INT NOT NULL,
	completed    BOOLEAN NOT NULL DEFAULT FALSE,
	failed       BOOLEAN NOT NULL DEFAULT FALSE,
	expires_at   TIMESTAMPTZ,
	created_at   TIMESTAMPTZ NOT NULL
)`

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("warden_test"),
		tcpostgres.WithUsername("warden"),
		tcpostgres.WithPassword("warden"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.ExecContext(ctx, challengesDDL)
	require.NoError(t, err)
	return db
}

func TestPostgresStore(t *testing.T) {
	db := newTestDB(t)
	store := NewPostgresStore(db)
	ctx := context.Background()

	guild := id.GuildID("200000000000000001")
	user := id.UserID("300000000000000001")
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	rec := &Record{
		ID:          "chal-pg-1",
		GuildID:     guild,
		UserID:      user,
		Type:        TypeEmojiSequence,
		Data:        []string{"🍎", "🌵", "🎲", "🚀"},
		MaxAttempts: 3,
		ExpiresAt:   now.Add(3 * time.Minute),
		CreatedAt:   now,
	}
	require.NoError(t, store.Create(ctx, rec))

	t.Run("latest returns the active record", func(t *testing.T) {
		got, err := store.Latest(ctx, guild, user, now)
		require.NoError(t, err)
		require.NotNil(t, got)
		require.Equal(t, rec.ID, got.ID)
		require.Equal(t, rec.Data, got.Data)
		require.True(t, got.ExpiresAt.Equal(rec.ExpiresAt))
	})

	t.Run("latest skips expired records", func(t *testing.T) {
		got, err := store.Latest(ctx, guild, user, now.Add(5*time.Minute))
		require.NoError(t, err)
		require.Nil(t, got)
	})

	t.Run("update persists attempt state", func(t *testing.T) {
		rec.Attempts = 2
		require.NoError(t, store.Update(ctx, rec))

		got, err := store.Latest(ctx, guild, user, now)
		require.NoError(t, err)
		require.NotNil(t, got)
		require.Equal(t, 2, got.Attempts)
	})

	t.Run("latest skips terminal records", func(t *testing.T) {
		rec.Failed = true
		require.NoError(t, store.Update(ctx, rec))

		got, err := store.Latest(ctx, guild, user, now)
		require.NoError(t, err)
		require.Nil(t, got)
	})

	t.Run("null expiry means no expiry", func(t *testing.T) {
		forever := &Record{
			ID:          "chal-pg-2",
			GuildID:     guild,
			UserID:      user,
			Type:        TypeButtonClick,
			MaxAttempts: 1,
			CreatedAt:   now,
		}
		require.NoError(t, store.Create(ctx, forever))

		got, err := store.Latest(ctx, guild, user, now.Add(100*24*time.Hour))
		require.NoError(t, err)
		require.NotNil(t, got)
		require.Equal(t, forever.ID, got.ID)
		require.True(t, got.ExpiresAt.IsZero())
	})

	t.Run("mark expired fails overdue records", func(t *testing.T) {
		overdue := &Record{
			ID:          "chal-pg-3",
			GuildID:     guild,
			UserID:      id.UserID("300000000000000002"),
			Type:        TypeEmojiReaction,
			Data:        []string{"🍀"},
			MaxAttempts: 1,
			ExpiresAt:   now.Add(2 * time.Minute),
			CreatedAt:   now,
		}
		require.NoError(t, store.Create(ctx, overdue))

		touched, err := store.MarkExpired(ctx, now.Add(10*time.Minute))
		require.NoError(t, err)
		require.Equal(t, 1, touched)

		got, err := store.Latest(ctx, overdue.GuildID, overdue.UserID, now)
		require.NoError(t, err)
		require.Nil(t, got)
	})
}
