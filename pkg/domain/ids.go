// Package domain holds value types shared across the security core: platform
// identifiers and the trust level enum. Identifiers are validated snowflakes;
// construct them via the Parse functions at trust boundaries, direct casting
// bypasses validation.
package domain

import (
	"strconv"
	"time"

	"warden/pkg/derrors"
)

// Snowflake is a host platform identifier: a 64-bit integer rendered as a
// 17-20 digit decimal string, with the creation timestamp in the upper bits.
type Snowflake string

// platformEpoch is the millisecond timestamp the host platform counts
// snowflake time from.
const platformEpoch = 1420070400000

// IsValid reports whether the value matches the platform identifier format:
// 17-20 decimal digits that fit in 64 bits. A 20-digit string can exceed the
// uint64 range, so length alone is not enough.
func (s Snowflake) IsValid() bool {
	if len(s) < 17 || len(s) > 20 {
		return false
	}
	_, err := strconv.ParseUint(string(s), 10, 64)
	return err == nil
}

func (s Snowflake) String() string { return string(s) }

// CreatedAt extracts the creation time embedded in the identifier. Returns
// the zero time for malformed values.
func (s Snowflake) CreatedAt() time.Time {
	if len(s) < 17 || len(s) > 20 {
		return time.Time{}
	}
	n, err := strconv.ParseUint(string(s), 10, 64)
	if err != nil {
		return time.Time{}
	}
	ms := int64(n>>22) + platformEpoch
	return time.UnixMilli(ms).UTC()
}

// Typed identifiers. They share the snowflake format but are distinct types
// so a role ID cannot be passed where a user ID is expected.
type (
	GuildID   Snowflake
	UserID    Snowflake
	RoleID    Snowflake
	ChannelID Snowflake
)

func (id GuildID) String() string   { return string(id) }
func (id UserID) String() string    { return string(id) }
func (id RoleID) String() string    { return string(id) }
func (id ChannelID) String() string { return string(id) }

func (id GuildID) IsValid() bool   { return Snowflake(id).IsValid() }
func (id UserID) IsValid() bool    { return Snowflake(id).IsValid() }
func (id RoleID) IsValid() bool    { return Snowflake(id).IsValid() }
func (id ChannelID) IsValid() bool { return Snowflake(id).IsValid() }

// CreatedAt extracts the account creation time from a user ID.
func (id UserID) CreatedAt() time.Time { return Snowflake(id).CreatedAt() }

// ParseGuildID constructs a GuildID from external input.
func ParseGuildID(s string) (GuildID, error) {
	if !Snowflake(s).IsValid() {
		return "", derrors.New(derrors.CodeInvalidInput, "invalid guild id")
	}
	return GuildID(s), nil
}

// ParseUserID constructs a UserID from external input.
func ParseUserID(s string) (UserID, error) {
	if !Snowflake(s).IsValid() {
		return "", derrors.New(derrors.CodeInvalidInput, "invalid user id")
	}
	return UserID(s), nil
}

// ParseRoleID constructs a RoleID from external input.
func ParseRoleID(s string) (RoleID, error) {
	if !Snowflake(s).IsValid() {
		return "", derrors.New(derrors.CodeInvalidInput, "invalid role id")
	}
	return RoleID(s), nil
}
