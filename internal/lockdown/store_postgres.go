package lockdown

import (
	"context"
	"database/sql"
	"fmt"

	"warden/internal/permission"
	id "warden/pkg/domain"
)

// PostgresStore persists role permission backups in PostgreSQL. The batch
// upsert runs in a single transaction so a partial write can never leave a
// guild with half a backup set.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) UpsertAll(ctx context.Context, backups []Backup) error {
	if len(backups) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin backup tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO role_permission_backups (guild_id, role_id, permissions, backed_up_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (guild_id, role_id) DO UPDATE SET
			permissions = EXCLUDED.permissions,
			backed_up_at = EXCLUDED.backed_up_at
	`
	for _, b := range backups {
		_, err := tx.ExecContext(ctx, query,
			b.GuildID.String(), b.RoleID.String(), int64(b.Permissions), b.BackedUpAt)
		if err != nil {
			return fmt.Errorf("upsert backup for role %s: %w", b.RoleID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit backup tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByGuild(ctx context.Context, guildID id.GuildID) ([]Backup, error) {
	query := `
		SELECT guild_id, role_id, permissions, backed_up_at
		FROM role_permission_backups
		WHERE guild_id = $1
		ORDER BY role_id
	`
	rows, err := s.db.QueryContext(ctx, query, guildID.String())
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	defer rows.Close()

	var out []Backup
	for rows.Next() {
		var (
			b     Backup
			guild string
			role  string
			perms int64
		)
		if err := rows.Scan(&guild, &role, &perms, &b.BackedUpAt); err != nil {
			return nil, fmt.Errorf("scan backup: %w", err)
		}
		b.GuildID = id.GuildID(guild)
		b.RoleID = id.RoleID(role)
		b.Permissions = permission.Set(perms)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate backups: %w", err)
	}
	return out, nil
}
