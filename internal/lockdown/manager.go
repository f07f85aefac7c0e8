package lockdown

import (
	"context"
	"errors"
	"log/slog"

	"warden/internal/audit"
	"warden/internal/guildconfig"
	"warden/internal/host"
	"warden/internal/permission"
	"warden/internal/platform/metrics"
	"warden/pkg/derrors"
	id "warden/pkg/domain"
	"warden/pkg/requestcontext"
)

// AuditPublisher emits audit events for lockdown and quarantine actions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Manager applies and reverses guild-wide permission lockdowns.
type Manager struct {
	backups   BackupStore
	platform  host.API
	guilds    guildconfig.Store
	publisher AuditPublisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

type Option func(*Manager)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(m *Manager) { m.publisher = publisher }
}

func WithMetrics(met *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = met }
}

func New(backups BackupStore, platform host.API, guilds guildconfig.Store, opts ...Option) (*Manager, error) {
	if backups == nil {
		return nil, errors.New("backup store is required")
	}
	if platform == nil {
		return nil, errors.New("platform API is required")
	}
	if guilds == nil {
		return nil, errors.New("guild config store is required")
	}
	mgr := &Manager{
		backups:  backups,
		platform: platform,
		guilds:   guilds,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(mgr)
	}
	return mgr, nil
}

// ApplyLockdown strips the destructive permission set from every role not in
// the whitelist. Original bitmasks are backed up first in one transaction;
// the live permission mutations that follow are independent per-role
// operations, so one platform failure never aborts the rest. Re-running
// before a restore overwrites the backups with already-clamped state, which
// is surfaced as a warning rather than rejected.
func (m *Manager) ApplyLockdown(ctx context.Context, guildID id.GuildID, whitelist []id.RoleID) ([]RoleOutcome, error) {
	now := requestcontext.Now(ctx)

	roles, err := m.platform.GuildRoles(ctx, guildID)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeExternal, "fetch guild roles")
	}

	keep := make(map[id.RoleID]bool, len(whitelist))
	for _, rid := range whitelist {
		keep[rid] = true
	}

	var affected []host.Role
	backups := make([]Backup, 0, len(roles))
	for _, r := range roles {
		if keep[r.ID] || r.Managed || !r.Permissions.HasAny(permission.Destructive) {
			continue
		}
		affected = append(affected, r)
		backups = append(backups, Backup{
			GuildID:     guildID,
			RoleID:      r.ID,
			Permissions: r.Permissions,
			BackedUpAt:  now,
		})
	}

	if prior, err := m.backups.ListByGuild(ctx, guildID); err == nil && len(prior) > 0 {
		m.logger.WarnContext(ctx, "overwriting existing lockdown backups",
			"guild_id", guildID, "prior_backups", len(prior))
	}
	if err := m.backups.UpsertAll(ctx, backups); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "write permission backups")
	}

	outcomes := make([]RoleOutcome, 0, len(affected))
	for _, r := range affected {
		clamped := r.Permissions.Clamp(permission.Destructive)
		err := m.platform.SetRolePermissions(ctx, guildID, r.ID, clamped)
		if err != nil {
			m.logger.ErrorContext(ctx, "role clamp failed",
				"guild_id", guildID, "role_id", r.ID, "error", err)
		}
		outcomes = append(outcomes, RoleOutcome{RoleID: r.ID, Err: err})
	}

	if m.metrics != nil {
		m.metrics.LockdownsApplied.Inc()
	}
	m.logger.InfoContext(ctx, "lockdown applied",
		"guild_id", guildID, "roles_clamped", len(affected)-Failed(outcomes), "roles_failed", Failed(outcomes))
	m.audit(ctx, guildID, "", audit.ActionLockdownApplied, "")

	return outcomes, nil
}

// RestorePermissions reapplies every backed-up bitmask for the guild,
// independently per role. Backups are left in place so a restore can be
// retried after partial platform failures.
func (m *Manager) RestorePermissions(ctx context.Context, guildID id.GuildID) ([]RoleOutcome, error) {
	backups, err := m.backups.ListByGuild(ctx, guildID)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "read permission backups")
	}

	outcomes := make([]RoleOutcome, 0, len(backups))
	for _, b := range backups {
		err := m.platform.SetRolePermissions(ctx, guildID, b.RoleID, b.Permissions)
		if err != nil {
			m.logger.ErrorContext(ctx, "role restore failed",
				"guild_id", guildID, "role_id", b.RoleID, "error", err)
		}
		outcomes = append(outcomes, RoleOutcome{RoleID: b.RoleID, Err: err})
	}

	m.logger.InfoContext(ctx, "permissions restored",
		"guild_id", guildID, "roles_restored", len(backups)-Failed(outcomes), "roles_failed", Failed(outcomes))
	m.audit(ctx, guildID, "", audit.ActionLockdownRestored, "")

	return outcomes, nil
}

// QuarantineMember strips every destructive-permission role the member holds
// and applies a dedicated zero-permission quarantine role, creating it when
// the guild has none. Individual role mutations are best-effort.
func (m *Manager) QuarantineMember(ctx context.Context, guildID id.GuildID, userID id.UserID) error {
	member, err := m.platform.Member(ctx, guildID, userID)
	if err != nil {
		return derrors.Wrap(err, derrors.CodeExternal, "fetch member")
	}
	roles, err := m.platform.GuildRoles(ctx, guildID)
	if err != nil {
		return derrors.Wrap(err, derrors.CodeExternal, "fetch guild roles")
	}
	byID := host.IndexRoles(roles)

	for _, rid := range member.RoleIDs {
		r, ok := byID[rid]
		if !ok || !r.Permissions.HasAny(permission.Destructive) {
			continue
		}
		if err := m.platform.RemoveMemberRole(ctx, guildID, userID, rid); err != nil {
			m.logger.WarnContext(ctx, "role strip failed",
				"guild_id", guildID, "user_id", userID, "role_id", rid, "error", err)
		}
	}

	quarantine, err := m.ensureQuarantineRole(ctx, guildID, roles)
	if err != nil {
		m.logger.ErrorContext(ctx, "quarantine role unavailable",
			"guild_id", guildID, "user_id", userID, "error", err)
	} else if err := m.platform.AddMemberRole(ctx, guildID, userID, quarantine.ID); err != nil {
		m.logger.WarnContext(ctx, "quarantine role grant failed",
			"guild_id", guildID, "user_id", userID, "role_id", quarantine.ID, "error", err)
	}

	if m.metrics != nil {
		m.metrics.MembersQuarantined.Inc()
	}
	m.logger.InfoContext(ctx, "member quarantined", "guild_id", guildID, "user_id", userID)
	m.audit(ctx, guildID, userID, audit.ActionMemberQuarantined, "")

	return nil
}

func (m *Manager) ensureQuarantineRole(ctx context.Context, guildID id.GuildID, roles []host.Role) (*host.Role, error) {
	cfg, err := m.guilds.Get(ctx, guildID)
	if err != nil {
		return nil, err
	}
	name := cfg.QuarantineRole()
	for _, r := range roles {
		if r.Name == name {
			return &r, nil
		}
	}
	return m.platform.CreateRole(ctx, guildID, name, 0)
}

func (m *Manager) audit(ctx context.Context, guildID id.GuildID, userID id.UserID, action, detail string) {
	if m.publisher == nil {
		return
	}
	if err := m.publisher.Emit(ctx, audit.Event{
		GuildID: guildID,
		UserID:  userID,
		Action:  action,
		Detail:  detail,
	}); err != nil {
		m.logger.WarnContext(ctx, "audit emit failed", "action", action, "error", err)
	}
}
