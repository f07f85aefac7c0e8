package challenge

import (
	"time"

	id "warden/pkg/domain"
)

// Type identifies a challenge variant, ordered by difficulty.
type Type string

const (
	TypeButtonClick   Type = "button_click"
	TypeEmojiReaction Type = "emoji_reaction"
	TypeEmojiSequence Type = "emoji_sequence"
	TypeWebCaptcha    Type = "web_captcha"
)

// IsValid checks if the challenge type is one of the supported variants.
func (t Type) IsValid() bool {
	switch t {
	case TypeButtonClick, TypeEmojiReaction, TypeEmojiSequence, TypeWebCaptcha:
		return true
	}
	return false
}

// TypeForRisk selects the challenge difficulty for a 0-100 risk score. The
// ladder is strictly ordered: riskier joiners get harder challenges.
func TypeForRisk(risk int) Type {
	switch {
	case risk >= 80:
		return TypeWebCaptcha
	case risk >= 60:
		return TypeEmojiSequence
	case risk >= 40:
		return TypeEmojiReaction
	default:
		return TypeButtonClick
	}
}

// Variant parameters. Button clicks never expire on their own; the sweep
// ignores zero expiries.
const (
	reactionTTL = 120 * time.Second
	sequenceTTL = 180 * time.Second
	captchaTTL  = 600 * time.Second

	sequenceLength      = 4
	sequenceMaxAttempts = 3
)

// Record is one issued challenge. Terminal states are Completed or Failed;
// at most one non-terminal record exists per (guild,user) at a time, and
// verification always operates on the most recently created one.
type Record struct {
	ID          string
	GuildID     id.GuildID
	UserID      id.UserID
	Type        Type
	Data        []string // expected emoji (reaction) or ordered sequence
	AnswerHash  string   // hex SHA-256 of the reveal token, web_captcha only
	Attempts    int
	MaxAttempts int
	Completed   bool
	Failed      bool
	ExpiresAt   time.Time // zero means no expiry
	CreatedAt   time.Time
}

// Terminal reports whether the record has reached a final state.
func (r *Record) Terminal() bool { return r.Completed || r.Failed }

// ExpiredAt reports whether the record's TTL has elapsed at the given time.
func (r *Record) ExpiredAt(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && now.After(r.ExpiresAt)
}

// Issued is what StartVerification hands back to the command layer: the
// stored record plus everything needed to present the challenge.
type Issued struct {
	Record Record
	// Options are the emoji choices to show for reaction challenges,
	// correct answer included, shuffled.
	Options []string
	// Sequence is the ordered emoji sequence to show for sequence
	// challenges.
	Sequence []string
	// CaptchaURL is the signed out-of-band URL for web captcha challenges.
	CaptchaURL string
	// RevealToken is the secret the captcha flow must return; only its
	// SHA-256 digest is persisted.
	RevealToken string
}

// VerifyStatus is the outcome of a verification attempt.
type VerifyStatus string

const (
	// StatusCompleted: the answer was correct and access was granted.
	StatusCompleted VerifyStatus = "completed"
	// StatusRejected: wrong answer, attempts remain.
	StatusRejected VerifyStatus = "rejected"
	// StatusFailed: the challenge reached a terminal failure.
	StatusFailed VerifyStatus = "failed"
	// StatusNone: no active challenge to verify against.
	StatusNone VerifyStatus = "none"
)

// VerifyResult reports a verification attempt's outcome.
type VerifyResult struct {
	Status       VerifyStatus
	Reason       string
	AttemptsLeft int
}

// palette is the fixed emoji pool challenges draw from.
var palette = []string{
	"🍎", "🍌", "🍇", "🍓", "🍊", "🍋", "🥝", "🍒",
	"🐶", "🐱", "🦊", "🐼", "🐸", "🦁", "🐧", "🐢",
}
