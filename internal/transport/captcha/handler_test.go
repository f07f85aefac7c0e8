package captcha

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warden/internal/challenge"
	"warden/internal/gateway"
	"warden/internal/platform/logger"
	id "warden/pkg/domain"
)

type stubVerifier struct {
	result  challenge.VerifyResult
	guildID id.GuildID
	userID  id.UserID
	answer  []string
}

func (s *stubVerifier) VerifyChallenge(_ context.Context, guildID id.GuildID, userID id.UserID, answer []string) challenge.VerifyResult {
	s.guildID = guildID
	s.userID = userID
	s.answer = answer
	return s.result
}

type stubLimiter struct {
	allowed bool
	userID  id.UserID
	calls   int
}

func (s *stubLimiter) CheckRateLimit(_ context.Context, userID id.UserID, _ gateway.Category) gateway.RateLimitResult {
	s.userID = userID
	s.calls++
	return gateway.RateLimitResult{Allowed: s.allowed}
}

func setup(result challenge.VerifyResult) (*chi.Mux, *stubVerifier, *challenge.TokenSigner) {
	verifier := &stubVerifier{result: result}
	signer := challenge.NewTokenSigner("handler-test-key")
	h := New(verifier, &stubLimiter{allowed: true}, signer, logger.Discard())

	r := chi.NewRouter()
	h.Register(r)
	return r, verifier, signer
}

func post(t *testing.T, r http.Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/captcha/verify", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandleVerify(t *testing.T) {
	router, verifier, signer := setup(challenge.VerifyResult{Status: challenge.StatusCompleted})

	session, err := signer.Mint(id.GuildID("200000000000000001"), id.UserID("300000000000000001"),
		"chal-1", time.Now().Add(10*time.Minute))
	require.NoError(t, err)

	rec := post(t, router, VerifyRequest{Session: session, Answer: "the-revealed-token"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp VerifyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "completed", resp.Status)

	assert.Equal(t, id.GuildID("200000000000000001"), verifier.guildID)
	assert.Equal(t, id.UserID("300000000000000001"), verifier.userID)
	assert.Equal(t, []string{"the-revealed-token"}, verifier.answer)
}

func TestHandleVerifyRejection(t *testing.T) {
	router, _, signer := setup(challenge.VerifyResult{
		Status:       challenge.StatusRejected,
		Reason:       "wrong answer",
		AttemptsLeft: 2,
	})

	session, err := signer.Mint(id.GuildID("1"), id.UserID("2"), "chal-2", time.Now().Add(time.Minute))
	require.NoError(t, err)

	rec := post(t, router, VerifyRequest{Session: session, Answer: "wrong"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp VerifyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "rejected", resp.Status)
	assert.Equal(t, 2, resp.AttemptsLeft)
}

func TestHandleVerifyBadSession(t *testing.T) {
	router, verifier, _ := setup(challenge.VerifyResult{Status: challenge.StatusCompleted})

	rec := post(t, router, VerifyRequest{Session: "garbage", Answer: "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, verifier.answer, "verifier must not run without a valid session")
}

func TestHandleVerifyMalformedBody(t *testing.T) {
	router, _, _ := setup(challenge.VerifyResult{})

	req := httptest.NewRequest(http.MethodPost, "/captcha/verify", bytes.NewReader([]byte("{nope")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleVerifyRateLimited(t *testing.T) {
	verifier := &stubVerifier{result: challenge.VerifyResult{Status: challenge.StatusCompleted}}
	limiter := &stubLimiter{allowed: false}
	signer := challenge.NewTokenSigner("handler-test-key")
	h := New(verifier, limiter, signer, logger.Discard())

	router := chi.NewRouter()
	h.Register(router)

	session, err := signer.Mint(id.GuildID("200000000000000001"), id.UserID("300000000000000001"),
		"chal-3", time.Now().Add(time.Minute))
	require.NoError(t, err)

	rec := post(t, router, VerifyRequest{Session: session, Answer: "x"})
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	var resp VerifyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "rate limited", resp.Reason)

	assert.Equal(t, id.UserID("300000000000000001"), limiter.userID,
		"limit must key on the session's user, not request contents")
	assert.Empty(t, verifier.answer, "verifier must not run for a rate-limited caller")
}

func TestHandleVerifyNoLimiterConfigured(t *testing.T) {
	verifier := &stubVerifier{result: challenge.VerifyResult{Status: challenge.StatusCompleted}}
	signer := challenge.NewTokenSigner("handler-test-key")
	h := New(verifier, nil, signer, logger.Discard())

	router := chi.NewRouter()
	h.Register(router)

	session, err := signer.Mint(id.GuildID("1"), id.UserID("2"), "chal-4", time.Now().Add(time.Minute))
	require.NoError(t, err)

	rec := post(t, router, VerifyRequest{Session: session, Answer: "x"})
	assert.Equal(t, http.StatusOK, rec.Code)
}
