package auth

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AuthUser is the locally-owned identity record: accounts that live in
// this service rather than in one of the upstream systems of record.
type AuthUser struct {
	bun.BaseModel  `bun:"table:auth_users,alias:au"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username       string     `bun:"username,notnull,unique" json:"username,omitempty"`
	PasswordHash   string     `bun:"password_hash" json:"password_hash,omitempty"`
	FirstName      string     `bun:"first_name" json:"first_name,omitempty"`
	LastName       string     `bun:"last_name" json:"last_name,omitempty"`
	Email          string     `bun:"email" json:"email,omitempty"`
	EmailVerified  bool       `bun:"is_email_verified" json:"is_email_verified,omitempty"`
	Mobile         string     `bun:"mobile" json:"mobile,omitempty"`
	MobileVerified bool       `bun:"is_mobile_verified" json:"is_mobile_verified,omitempty"`
	Authorities    []string   `bun:"authorities,type:jsonb" json:"authorities,omitempty"`
	Enabled        bool       `bun:"enabled" json:"enabled,omitempty"`
	Locked         bool       `bun:"locked" json:"locked,omitempty"`
	PasswordExpiry *time.Time `bun:"password_expiry,nullzero" json:"password_expiry,omitempty"`
	LastLoggedIn   *time.Time `bun:"last_logged_in,nullzero" json:"last_logged_in,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// DisplayName renders the name carried into tokens.
func (u *AuthUser) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// Record detaches the row into the backend-neutral snapshot the
// dispatcher consumes. The returned value shares nothing with the row.
func (u *AuthUser) Record(now time.Time) *UserRecord {
	record := &UserRecord{
		Username:       strings.ToUpper(u.Username),
		DisplayName:    u.DisplayName(),
		UserID:         u.ID.String(),
		PasswordRecord: u.PasswordHash,
		Scheme:         SchemeBcrypt,
		Authorities:    append([]string(nil), u.Authorities...),
		Enabled:        u.Enabled,
		Locked:         u.Locked,
	}
	if u.EmailVerified {
		record.VerifiedEmail = u.Email
	}
	if u.MobileVerified {
		record.VerifiedMobile = u.Mobile
	}
	if u.PasswordExpiry != nil && u.PasswordExpiry.Before(now) {
		record.Expired = true
	}
	return record
}

// UserRetry is one row of the relational retry counter table, mirroring
// the legacy USER_RETRIES layout: username key, current count.
type UserRetry struct {
	bun.BaseModel `bun:"table:user_retries,alias:ur"`
	Username      string `bun:"username,pk" json:"username,omitempty"`
	RetryCount    int    `bun:"retry_count,notnull" json:"retry_count,omitempty"`
}
