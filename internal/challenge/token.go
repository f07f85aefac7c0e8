package challenge

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"warden/pkg/derrors"
	id "warden/pkg/domain"
)

// SessionClaims bind a web-captcha session to a specific challenge so the
// out-of-band flow cannot be replayed against another member's verification.
type SessionClaims struct {
	GuildID     string `json:"gid"`
	UserID      string `json:"uid"`
	ChallengeID string `json:"cid"`
	jwt.RegisteredClaims
}

// TokenSigner mints and parses captcha session tokens. The reveal token
// itself stays out of the JWT; the claims only identify the challenge.
type TokenSigner struct {
	key []byte
}

func NewTokenSigner(key string) *TokenSigner {
	return &TokenSigner{key: []byte(key)}
}

// Mint signs a session token for a captcha challenge.
func (s *TokenSigner) Mint(guildID id.GuildID, userID id.UserID, challengeID string, expiresAt time.Time) (string, error) {
	claims := SessionClaims{
		GuildID:     guildID.String(),
		UserID:      userID.String(),
		ChallengeID: challengeID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "warden",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign captcha session: %w", err)
	}
	return signed, nil
}

// Parse validates a session token and returns its claims.
func (s *TokenSigner) Parse(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.key, nil
	})
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInvalidInput, "invalid captcha session token")
	}
	if !token.Valid {
		return nil, derrors.New(derrors.CodeInvalidInput, "invalid captcha session token")
	}
	return claims, nil
}
