package auth

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// AuthSource identifies the system of record an identity came from.
type AuthSource string

const (
	SourceNomis   AuthSource = "nomis"
	SourceAuth    AuthSource = "auth"
	SourceDelius  AuthSource = "delius"
	SourceOasys   AuthSource = "oasys"
	SourceAzureAD AuthSource = "azuread"
	SourceNone    AuthSource = "none"
)

// ParseAuthSource maps a claim value to a known source, defaulting to
// SourceNone for anything unrecognized.
func ParseAuthSource(value string) AuthSource {
	switch AuthSource(value) {
	case SourceNomis, SourceAuth, SourceDelius, SourceOasys, SourceAzureAD:
		return AuthSource(value)
	default:
		return SourceNone
	}
}

// LockStatus is the account status written back to a backend when the
// retry threshold is exceeded. Backends translate these to their own
// status codes.
type LockStatus string

const (
	StatusLocked      LockStatus = "locked"
	StatusGraceLocked LockStatus = "grace_locked"
	StatusOpen        LockStatus = "open"
)

// UserRecord is the raw identity snapshot a backend hands back from a
// lookup. It is a detached value: mutating it after the fact has no
// effect on the backing store.
type UserRecord struct {
	Username       string
	DisplayName    string
	UserID         string
	PasswordRecord string
	Scheme         Scheme
	Authorities    []string
	Enabled        bool
	Locked         bool
	Expired        bool
	InGracePeriod  bool
	RetryCount     int
	VerifiedEmail  string
	VerifiedMobile string
}

// Clone returns a defensive copy so callers can hold on to a record
// without sharing slice state with the backend.
func (r *UserRecord) Clone() *UserRecord {
	if r == nil {
		return nil
	}
	out := *r
	out.Authorities = append([]string(nil), r.Authorities...)
	return &out
}

// IdentityBackend is the contract each system of record implements.
// Lookup receives an already upper-cased username and returns
// ErrIdentityNotFound when no account exists.
type IdentityBackend interface {
	Source() AuthSource
	Lookup(ctx context.Context, usernameUpper string) (*UserRecord, error)
	SetLockedStatus(ctx context.Context, usernameUpper string, status LockStatus) error
}

// SaltedHasher is an optional backend capability. The Oracle password
// scheme hashes with a primitive only the backing database provides, so
// verification has to call back into the store.
type SaltedHasher interface {
	HashWithSalt(ctx context.Context, rawPassword, salt string) (string, error)
}

// RetryCounterStore keeps the per-username count of consecutive failed
// attempts. Keys are upper-cased usernames. There is deliberately no
// compare-and-swap: concurrent writers race and the last write wins.
type RetryCounterStore interface {
	Get(ctx context.Context, usernameUpper string) (int, bool, error)
	Put(ctx context.Context, usernameUpper string, count int) error
}

// CredentialVerifier compares a presented password against a stored
// backend record. Malformed or unrecognized records verify false; they
// never panic or surface an error past this boundary.
type CredentialVerifier interface {
	Matches(ctx context.Context, rawPassword string, record *UserRecord) bool
}

// Authenticator holds methods to deal with authentication
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*Principal, error)
	LoadPrincipal(ctx context.Context, username string) (*Principal, error)
}

// TokenIssuer mints signed claim tokens for authenticated principals.
type TokenIssuer interface {
	Issue(ctx context.Context, principal *Principal) (string, error)
}

// TokenReader parses and verifies a token back into a principal. An
// expired token returns (nil, nil): the caller should treat the user as
// unauthenticated, not as an error condition.
type TokenReader interface {
	Read(tokenString string) (*Principal, error)
}

// ExternalIDMapper resolves an external identifier pair (type + id) to
// an internal username.
type ExternalIDMapper interface {
	Username(ctx context.Context, idType, id string) (string, error)
}

// Config holds auth options
type Config interface {
	GetProvider() AuthSource
	GetLockThreshold() int
	GetTokenExpiration() time.Duration
	GetIssuer() string
	GetSavedRequestCookieName() string
	GetMfaRoles() []string
	GetJWKSEndpoint() string
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
