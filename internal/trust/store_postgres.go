package trust

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	id "warden/pkg/domain"
)

// PostgresIncidentStore persists incident counters in PostgreSQL.
type PostgresIncidentStore struct {
	db *sql.DB
}

func NewPostgresIncidentStore(db *sql.DB) *PostgresIncidentStore {
	return &PostgresIncidentStore{db: db}
}

func (s *PostgresIncidentStore) Increment(ctx context.Context, guildID id.GuildID, userID id.UserID, spamLike bool, now time.Time) (*IncidentRecord, error) {
	spamDelta := 0
	if spamLike {
		spamDelta = 1
	}
	query := `
		INSERT INTO member_incidents (guild_id, user_id, recent_incidents, spam_flags, last_incident_at)
		VALUES ($1, $2, 1, $3, $4)
		ON CONFLICT (guild_id, user_id) DO UPDATE SET
			recent_incidents = member_incidents.recent_incidents + 1,
			spam_flags = member_incidents.spam_flags + $3,
			last_incident_at = $4
		RETURNING guild_id, user_id, recent_incidents, spam_flags, last_incident_at
	`
	rec, err := scanIncident(s.db.QueryRowContext(ctx, query, guildID.String(), userID.String(), spamDelta, now))
	if err != nil {
		return nil, fmt.Errorf("increment incident: %w", err)
	}
	return rec, nil
}

func (s *PostgresIncidentStore) Get(ctx context.Context, guildID id.GuildID, userID id.UserID) (*IncidentRecord, error) {
	query := `
		SELECT guild_id, user_id, recent_incidents, spam_flags, last_incident_at
		FROM member_incidents
		WHERE guild_id = $1 AND user_id = $2
	`
	rec, err := scanIncident(s.db.QueryRowContext(ctx, query, guildID.String(), userID.String()))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get incident record: %w", err)
	}
	return rec, nil
}

func (s *PostgresIncidentStore) DecayOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	query := `
		UPDATE member_incidents
		SET recent_incidents = recent_incidents - 1
		WHERE recent_incidents > 0 AND last_incident_at < $1
	`
	result, err := s.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("decay incidents: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("decay incidents rows affected: %w", err)
	}
	return int(rows), nil
}

// PostgresModerationSource reads warning/strike counts and verification
// status from the moderation table. Members with no row score as clean.
type PostgresModerationSource struct {
	db *sql.DB
}

func NewPostgresModerationSource(db *sql.DB) *PostgresModerationSource {
	return &PostgresModerationSource{db: db}
}

func (s *PostgresModerationSource) Moderation(ctx context.Context, guildID id.GuildID, userID id.UserID) (int, int, bool, error) {
	query := `
		SELECT warnings, strikes, verified
		FROM member_moderation
		WHERE guild_id = $1 AND user_id = $2
	`
	var (
		warnings int
		strikes  int
		verified bool
	)
	err := s.db.QueryRowContext(ctx, query, guildID.String(), userID.String()).
		Scan(&warnings, &strikes, &verified)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, 0, false, nil
		}
		return 0, 0, false, fmt.Errorf("get moderation record: %w", err)
	}
	return warnings, strikes, verified, nil
}

type incidentRow interface {
	Scan(dest ...any) error
}

func scanIncident(row incidentRow) (*IncidentRecord, error) {
	var rec IncidentRecord
	var guild, user string
	if err := row.Scan(&guild, &user, &rec.RecentIncidents, &rec.SpamFlags, &rec.LastIncidentAt); err != nil {
		return nil, err
	}
	rec.GuildID = id.GuildID(guild)
	rec.UserID = id.UserID(user)
	return &rec, nil
}
