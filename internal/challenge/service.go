// Package challenge runs the verification state machines that stand between
// a suspicious joiner and guild access. Difficulty is selected from a risk
// score, each variant carries its own TTL and attempt budget, and the web
// captcha variant uses a commit/reveal token so the secret is never stored
// in the clear.
package challenge

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	mrand "math/rand/v2"
	"slices"
	"time"

	"github.com/google/uuid"

	"warden/internal/audit"
	"warden/internal/guildconfig"
	"warden/internal/host"
	"warden/internal/platform/metrics"
	"warden/pkg/derrors"
	id "warden/pkg/domain"
	"warden/pkg/requestcontext"
)

// reactionOptionCount is how many emoji choices a reaction challenge shows,
// correct answer included.
const reactionOptionCount = 4

// AuditPublisher emits audit events for challenge lifecycle transitions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service issues and verifies challenges.
type Service struct {
	store     Store
	guilds    guildconfig.Store
	platform  host.RoleAPI
	signer    *TokenSigner
	baseURL   string
	publisher AuditPublisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithCaptcha configures web-captcha session signing and the public page URL.
func WithCaptcha(signer *TokenSigner, baseURL string) Option {
	return func(s *Service) {
		s.signer = signer
		s.baseURL = baseURL
	}
}

func New(store Store, guilds guildconfig.Store, platform host.RoleAPI, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("challenge store is required")
	}
	if guilds == nil {
		return nil, errors.New("guild config store is required")
	}
	if platform == nil {
		return nil, errors.New("platform API is required")
	}
	svc := &Service{
		store:    store,
		guilds:   guilds,
		platform: platform,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// StartVerification issues a challenge whose difficulty matches the given
// risk score. Any previous non-terminal challenge for the member is failed
// first, preserving the at-most-one-active invariant.
func (s *Service) StartVerification(ctx context.Context, guildID id.GuildID, userID id.UserID, risk int) (*Issued, error) {
	now := requestcontext.Now(ctx)

	existing, err := s.store.Latest(ctx, guildID, userID, now)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "load active challenge")
	}
	if existing != nil {
		existing.Failed = true
		if err := s.store.Update(ctx, existing); err != nil {
			return nil, derrors.Wrap(err, derrors.CodeInternal, "supersede active challenge")
		}
	}

	issued, err := s.build(guildID, userID, TypeForRisk(risk), now)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, &issued.Record); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "create challenge")
	}

	if s.metrics != nil {
		s.metrics.ChallengesIssued.WithLabelValues(string(issued.Record.Type)).Inc()
	}
	s.logger.InfoContext(ctx, "challenge issued",
		"guild_id", guildID, "user_id", userID,
		"type", issued.Record.Type, "risk", risk)
	s.audit(ctx, guildID, userID, audit.ActionChallengeIssued, string(issued.Record.Type))

	return issued, nil
}

func (s *Service) build(guildID id.GuildID, userID id.UserID, typ Type, now time.Time) (*Issued, error) {
	rec := Record{
		ID:          uuid.NewString(),
		GuildID:     guildID,
		UserID:      userID,
		Type:        typ,
		MaxAttempts: 1,
		CreatedAt:   now,
	}
	issued := &Issued{}

	switch typ {
	case TypeButtonClick:
		// Nothing to prepare: clicking is the answer.

	case TypeEmojiReaction:
		correct := palette[mrand.IntN(len(palette))]
		rec.Data = []string{correct}
		rec.ExpiresAt = now.Add(reactionTTL)
		issued.Options = pickOptions(correct, reactionOptionCount)

	case TypeEmojiSequence:
		seq := pickSequence(sequenceLength)
		rec.Data = seq
		rec.MaxAttempts = sequenceMaxAttempts
		rec.ExpiresAt = now.Add(sequenceTTL)
		issued.Sequence = slices.Clone(seq)

	case TypeWebCaptcha:
		token, err := newRevealToken()
		if err != nil {
			return nil, derrors.Wrap(err, derrors.CodeInternal, "generate captcha token")
		}
		rec.AnswerHash = HashAnswer(token)
		rec.ExpiresAt = now.Add(captchaTTL)
		issued.RevealToken = token
		if s.signer != nil {
			session, err := s.signer.Mint(guildID, userID, rec.ID, rec.ExpiresAt)
			if err != nil {
				return nil, derrors.Wrap(err, derrors.CodeInternal, "mint captcha session")
			}
			issued.CaptchaURL = s.baseURL + "?session=" + session
		}

	default:
		return nil, derrors.Newf(derrors.CodeInvalidInput, "unknown challenge type %q", typ)
	}

	issued.Record = rec
	return issued, nil
}

// VerifyChallenge checks a submitted answer against the member's most recent
// active challenge. Persistence failures degrade to a failed outcome rather
// than raising into the command layer.
func (s *Service) VerifyChallenge(ctx context.Context, guildID id.GuildID, userID id.UserID, answer []string) VerifyResult {
	now := requestcontext.Now(ctx)

	rec, err := s.store.Latest(ctx, guildID, userID, now)
	if err != nil {
		s.logger.ErrorContext(ctx, "challenge lookup failed",
			"guild_id", guildID, "user_id", userID, "error", err)
		return VerifyResult{Status: StatusFailed, Reason: "verification unavailable"}
	}
	if rec == nil {
		return VerifyResult{Status: StatusNone, Reason: "no active challenge"}
	}

	rec.Attempts++
	if rec.Attempts > rec.MaxAttempts {
		rec.Failed = true
		s.update(ctx, rec)
		s.fail(ctx, rec)
		return VerifyResult{Status: StatusFailed, Reason: "max attempts exceeded"}
	}

	if s.answerCorrect(rec, answer) {
		rec.Completed = true
		s.update(ctx, rec)
		s.grantAccess(ctx, guildID, userID)
		if s.metrics != nil {
			s.metrics.ChallengesCompleted.WithLabelValues(string(rec.Type)).Inc()
		}
		s.logger.InfoContext(ctx, "challenge completed",
			"guild_id", guildID, "user_id", userID, "type", rec.Type, "attempts", rec.Attempts)
		s.audit(ctx, guildID, userID, audit.ActionChallengeCompleted, string(rec.Type))
		return VerifyResult{Status: StatusCompleted}
	}

	left := rec.MaxAttempts - rec.Attempts
	if left <= 0 {
		rec.Failed = true
		s.update(ctx, rec)
		s.fail(ctx, rec)
		return VerifyResult{Status: StatusFailed, Reason: "max attempts exceeded"}
	}
	s.update(ctx, rec)
	return VerifyResult{Status: StatusRejected, Reason: "wrong answer", AttemptsLeft: left}
}

func (s *Service) answerCorrect(rec *Record, answer []string) bool {
	switch rec.Type {
	case TypeButtonClick:
		return true
	case TypeEmojiReaction:
		return len(answer) == 1 && len(rec.Data) == 1 && answer[0] == rec.Data[0]
	case TypeEmojiSequence:
		return slices.Equal(answer, rec.Data)
	case TypeWebCaptcha:
		return len(answer) == 1 && HashAnswer(answer[0]) == rec.AnswerHash
	default:
		return false
	}
}

// grantAccess swaps the configured unverified role for the verified one.
// Role mutations are best-effort: failures are logged, never raised, and the
// challenge stays completed either way.
func (s *Service) grantAccess(ctx context.Context, guildID id.GuildID, userID id.UserID) {
	cfg, err := s.guilds.Get(ctx, guildID)
	if err != nil {
		s.logger.ErrorContext(ctx, "guild config lookup failed, roles not updated",
			"guild_id", guildID, "user_id", userID, "error", err)
		return
	}
	if cfg.VerifiedRoleID != "" {
		if err := s.platform.AddMemberRole(ctx, guildID, userID, cfg.VerifiedRoleID); err != nil {
			s.logger.WarnContext(ctx, "verified role grant failed",
				"guild_id", guildID, "user_id", userID, "role_id", cfg.VerifiedRoleID, "error", err)
		}
	}
	if cfg.UnverifiedRoleID != "" {
		if err := s.platform.RemoveMemberRole(ctx, guildID, userID, cfg.UnverifiedRoleID); err != nil {
			s.logger.WarnContext(ctx, "unverified role removal failed",
				"guild_id", guildID, "user_id", userID, "role_id", cfg.UnverifiedRoleID, "error", err)
		}
	}
}

func (s *Service) update(ctx context.Context, rec *Record) {
	if err := s.store.Update(ctx, rec); err != nil {
		s.logger.ErrorContext(ctx, "challenge update failed",
			"challenge_id", rec.ID, "error", err)
	}
}

func (s *Service) fail(ctx context.Context, rec *Record) {
	if s.metrics != nil {
		s.metrics.ChallengesFailed.WithLabelValues(string(rec.Type)).Inc()
	}
	s.logger.InfoContext(ctx, "challenge failed",
		"guild_id", rec.GuildID, "user_id", rec.UserID, "type", rec.Type)
	s.audit(ctx, rec.GuildID, rec.UserID, audit.ActionChallengeFailed, string(rec.Type))
}

func (s *Service) audit(ctx context.Context, guildID id.GuildID, userID id.UserID, action, detail string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Emit(ctx, audit.Event{
		GuildID: guildID,
		UserID:  userID,
		Action:  action,
		Detail:  detail,
	}); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", action, "error", err)
	}
}

// SweepExpired marks every expired non-terminal challenge as failed.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	touched, err := s.store.MarkExpired(ctx, requestcontext.Now(ctx))
	if err != nil {
		return 0, derrors.Wrap(err, derrors.CodeInternal, "sweep expired challenges")
	}
	if touched > 0 {
		s.logger.InfoContext(ctx, "expired challenges swept", "count", touched)
	}
	return touched, nil
}

// RunSweep runs the expiry sweep on an interval until the context is
// canceled.
func (s *Service) RunSweep(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.SweepExpired(ctx); err != nil {
				s.logger.ErrorContext(ctx, "challenge sweep failed", "error", err)
			}
		}
	}
}

// HashAnswer returns the hex SHA-256 digest used for commit/reveal answers.
func HashAnswer(answer string) string {
	sum := sha256.Sum256([]byte(answer))
	return hex.EncodeToString(sum[:])
}

func newRevealToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// pickOptions returns n distinct palette emoji including correct, shuffled.
func pickOptions(correct string, n int) []string {
	options := []string{correct}
	perm := mrand.Perm(len(palette))
	for _, i := range perm {
		if len(options) == n {
			break
		}
		if palette[i] != correct {
			options = append(options, palette[i])
		}
	}
	mrand.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
	return options
}

// pickSequence returns an ordered sequence of n distinct palette emoji.
func pickSequence(n int) []string {
	perm := mrand.Perm(len(palette))
	seq := make([]string, 0, n)
	for _, i := range perm[:n] {
		seq = append(seq, palette[i])
	}
	return seq
}
