package audit

import (
	"context"
	"database/sql"
	"fmt"

	id "warden/pkg/domain"
)

// PostgresStore persists audit events in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	query := `
		INSERT INTO audit_events (id, occurred_at, guild_id, user_id, action, reason, detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		event.ID, event.Timestamp, event.GuildID.String(), event.UserID.String(),
		event.Action, event.Reason, event.Detail,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, guildID id.GuildID, userID id.UserID) ([]Event, error) {
	query := `
		SELECT id, occurred_at, guild_id, user_id, action, reason, detail
		FROM audit_events
		WHERE guild_id = $1 AND user_id = $2
		ORDER BY occurred_at
	`
	rows, err := s.db.QueryContext(ctx, query, guildID.String(), userID.String())
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var guild, user string
		if err := rows.Scan(&e.ID, &e.Timestamp, &guild, &user, &e.Action, &e.Reason, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.GuildID = id.GuildID(guild)
		e.UserID = id.UserID(user)
		events = append(events, e)
	}
	return events, rows.Err()
}
