package guildconfig

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	id "warden/pkg/domain"
)

// PostgresStore persists guild settings in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, guildID id.GuildID) (Settings, error) {
	query := `
		SELECT guild_id, verified_role_id, unverified_role_id, verification_channel_id,
		       trusted_role_ids, quarantine_role_name
		FROM guild_settings
		WHERE guild_id = $1
	`
	var (
		cfg        Settings
		guild      string
		verified   sql.NullString
		unverified sql.NullString
		channel    sql.NullString
		trusted    pq.StringArray
		roleName   sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, guildID.String()).
		Scan(&guild, &verified, &unverified, &channel, &trusted, &roleName)
	if err != nil {
		if err == sql.ErrNoRows {
			return Settings{GuildID: guildID}, nil
		}
		return Settings{}, fmt.Errorf("get guild settings: %w", err)
	}
	cfg.GuildID = id.GuildID(guild)
	cfg.VerifiedRoleID = id.RoleID(verified.String)
	cfg.UnverifiedRoleID = id.RoleID(unverified.String)
	cfg.VerificationChannelID = id.ChannelID(channel.String)
	cfg.QuarantineRoleName = roleName.String
	for _, r := range trusted {
		cfg.TrustedRoleIDs = append(cfg.TrustedRoleIDs, id.RoleID(r))
	}
	return cfg, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, settings Settings) error {
	query := `
		INSERT INTO guild_settings (guild_id, verified_role_id, unverified_role_id,
			verification_channel_id, trusted_role_ids, quarantine_role_name)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (guild_id) DO UPDATE SET
			verified_role_id = EXCLUDED.verified_role_id,
			unverified_role_id = EXCLUDED.unverified_role_id,
			verification_channel_id = EXCLUDED.verification_channel_id,
			trusted_role_ids = EXCLUDED.trusted_role_ids,
			quarantine_role_name = EXCLUDED.quarantine_role_name
	`
	trusted := make(pq.StringArray, 0, len(settings.TrustedRoleIDs))
	for _, r := range settings.TrustedRoleIDs {
		trusted = append(trusted, r.String())
	}
	_, err := s.db.ExecContext(ctx, query,
		settings.GuildID.String(),
		settings.VerifiedRoleID.String(),
		settings.UnverifiedRoleID.String(),
		settings.VerificationChannelID.String(),
		trusted,
		settings.QuarantineRoleName,
	)
	if err != nil {
		return fmt.Errorf("upsert guild settings: %w", err)
	}
	return nil
}
