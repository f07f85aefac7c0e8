package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnowflakeIsValid(t *testing.T) {
	cases := []struct {
		name  string
		in    string
		valid bool
	}{
		{"seventeen digits", "12345678901234567", true},
		{"twenty digits", "12345678901234567890", true},
		{"sixteen digits too short", "1234567890123456", false},
		{"twenty one digits too long", "123456789012345678901", false},
		{"empty", "", false},
		{"letters rejected", "12345678901234567a", false},
		{"injection attempt rejected", "123456789012345678;", false},
		{"twenty digits at uint64 max", "18446744073709551615", true},
		{"twenty digits past uint64 max", "99999999999999999999", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.valid, Snowflake(tc.in).IsValid())
		})
	}
}

func TestSnowflakeCreatedAt(t *testing.T) {
	// 175928847299117063 >> 22 = 41944705796 ms past the platform epoch.
	id := UserID("175928847299117063")
	want := time.UnixMilli(1420070400000 + 41944705796).UTC()
	assert.Equal(t, want, id.CreatedAt())

	assert.True(t, Snowflake("bad").CreatedAt().IsZero())
	assert.True(t, Snowflake("99999999999999999999").CreatedAt().IsZero(),
		"values past uint64 must not wrap into a bogus timestamp")
}

func TestParseUserID(t *testing.T) {
	id, err := ParseUserID("175928847299117063")
	require.NoError(t, err)
	assert.Equal(t, UserID("175928847299117063"), id)

	_, err = ParseUserID("not-a-snowflake")
	assert.Error(t, err)
}

func TestTrustLevelForScore(t *testing.T) {
	assert.Equal(t, TrustUntrusted, TrustLevelForScore(0))
	assert.Equal(t, TrustUntrusted, TrustLevelForScore(25))
	assert.Equal(t, TrustLow, TrustLevelForScore(26))
	assert.Equal(t, TrustLow, TrustLevelForScore(50))
	assert.Equal(t, TrustNormal, TrustLevelForScore(51))
	assert.Equal(t, TrustNormal, TrustLevelForScore(75))
	assert.Equal(t, TrustHigh, TrustLevelForScore(76))
	assert.Equal(t, TrustHigh, TrustLevelForScore(100))
}
