package challenge

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	id "warden/pkg/domain"
)

// PostgresStore persists challenge records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, rec *Record) error {
	query := `
		INSERT INTO challenges (id, guild_id, user_id, type, data, answer_hash,
			attempts, max_attempts, completed, failed, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.GuildID.String(), rec.UserID.String(), string(rec.Type),
		pq.StringArray(rec.Data), rec.AnswerHash,
		rec.Attempts, rec.MaxAttempts, rec.Completed, rec.Failed,
		nullableTime(rec.ExpiresAt), rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create challenge: %w", err)
	}
	return nil
}

func (s *PostgresStore) Latest(ctx context.Context, guildID id.GuildID, userID id.UserID, now time.Time) (*Record, error) {
	query := `
		SELECT id, guild_id, user_id, type, data, answer_hash,
		       attempts, max_attempts, completed, failed, expires_at, created_at
		FROM challenges
		WHERE guild_id = $1 AND user_id = $2
		  AND NOT completed AND NOT failed
		  AND (expires_at IS NULL OR expires_at > $3)
		ORDER BY created_at DESC
		LIMIT 1
	`
	rec, err := scanChallenge(s.db.QueryRowContext(ctx, query, guildID.String(), userID.String(), now))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("latest challenge: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) Update(ctx context.Context, rec *Record) error {
	query := `
		UPDATE challenges
		SET attempts = $2, completed = $3, failed = $4
		WHERE id = $1
	`
	_, err := s.db.ExecContext(ctx, query, rec.ID, rec.Attempts, rec.Completed, rec.Failed)
	if err != nil {
		return fmt.Errorf("update challenge: %w", err)
	}
	return nil
}

func (s *PostgresStore) MarkExpired(ctx context.Context, now time.Time) (int, error) {
	query := `
		UPDATE challenges
		SET failed = TRUE
		WHERE NOT completed AND NOT failed
		  AND expires_at IS NOT NULL AND expires_at <= $1
	`
	result, err := s.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("mark expired challenges: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark expired rows affected: %w", err)
	}
	return int(rows), nil
}

type challengeRow interface {
	Scan(dest ...any) error
}

func scanChallenge(row challengeRow) (*Record, error) {
	var (
		rec       Record
		guild     string
		user      string
		typ       string
		data      pq.StringArray
		expiresAt sql.NullTime
	)
	err := row.Scan(&rec.ID, &guild, &user, &typ, &data, &rec.AnswerHash,
		&rec.Attempts, &rec.MaxAttempts, &rec.Completed, &rec.Failed,
		&expiresAt, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	rec.GuildID = id.GuildID(guild)
	rec.UserID = id.UserID(user)
	rec.Type = Type(typ)
	rec.Data = data
	if expiresAt.Valid {
		rec.ExpiresAt = expiresAt.Time
	}
	return &rec, nil
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
