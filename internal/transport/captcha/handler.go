// Package captcha exposes the web-captcha completion callback. The captcha
// page posts the revealed token together with the signed session it was
// issued with; the handler resolves the session back to a challenge and runs
// the normal verification path.
package captcha

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"warden/internal/challenge"
	"warden/internal/gateway"
	"warden/pkg/derrors"
	id "warden/pkg/domain"
)

// Verifier is the slice of the challenge service the handler needs.
type Verifier interface {
	VerifyChallenge(ctx context.Context, guildID id.GuildID, userID id.UserID, answer []string) challenge.VerifyResult
}

// RateLimiter guards the callback against submission floods. Answers count
// against the member's verify budget just like in-platform attempts.
type RateLimiter interface {
	CheckRateLimit(ctx context.Context, userID id.UserID, category gateway.Category) gateway.RateLimitResult
}

// Handler wires the captcha callback to the challenge service.
type Handler struct {
	verifier Verifier
	limiter  RateLimiter
	signer   *challenge.TokenSigner
	logger   *slog.Logger
}

func New(verifier Verifier, limiter RateLimiter, signer *challenge.TokenSigner, logger *slog.Logger) *Handler {
	return &Handler{
		verifier: verifier,
		limiter:  limiter,
		signer:   signer,
		logger:   logger,
	}
}

// Register mounts the captcha endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/captcha/verify", h.HandleVerify)
}

// VerifyRequest is the captcha page's callback payload.
type VerifyRequest struct {
	Session string `json:"session"`
	Answer  string `json:"answer"`
}

// VerifyResponse reports the challenge outcome to the captcha page.
type VerifyResponse struct {
	Status       string `json:"status"`
	Reason       string `json:"reason,omitempty"`
	AttemptsLeft int    `json:"attempts_left,omitempty"`
}

// HandleVerify handles POST /captcha/verify.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, VerifyResponse{Status: "error", Reason: "malformed request body"})
		return
	}

	claims, err := h.signer.Parse(req.Session)
	if err != nil {
		h.logger.InfoContext(ctx, "captcha session rejected", "error", err)
		status := http.StatusBadRequest
		if derrors.CodeOf(err) != derrors.CodeInvalidInput {
			status = http.StatusInternalServerError
		}
		writeJSON(w, status, VerifyResponse{Status: "error", Reason: "invalid or expired session"})
		return
	}

	if h.limiter != nil {
		if rl := h.limiter.CheckRateLimit(ctx, id.UserID(claims.UserID), gateway.CategoryVerify); !rl.Allowed {
			h.logger.InfoContext(ctx, "captcha callback rate limited",
				"guild_id", claims.GuildID, "user_id", claims.UserID)
			writeJSON(w, http.StatusTooManyRequests, VerifyResponse{Status: "error", Reason: "rate limited"})
			return
		}
	}

	result := h.verifier.VerifyChallenge(ctx,
		id.GuildID(claims.GuildID), id.UserID(claims.UserID), []string{req.Answer})

	h.logger.InfoContext(ctx, "captcha callback handled",
		"guild_id", claims.GuildID, "user_id", claims.UserID, "status", result.Status)

	writeJSON(w, http.StatusOK, VerifyResponse{
		Status:       string(result.Status),
		Reason:       result.Reason,
		AttemptsLeft: result.AttemptsLeft,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
