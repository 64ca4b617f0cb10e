package auth

import (
	"context"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Scheme names a password hashing scheme. Selection is driven by the
// stored record's prefix tag or by which backend produced it, never by
// the password content itself.
type Scheme string

const (
	SchemeBcrypt Scheme = "bcrypt"
	SchemeSHA1   Scheme = "sha1"
	SchemeOracle Scheme = "oracle"
)

const (
	bcryptTag = "{bcrypt}"
	sha1Tag   = "{sha1}"
	oracleTag = "{oracle}"
)

// Oracle packed password records keep hash and salt as fixed-offset
// substrings of one combined field. The offsets are backend magic and
// are kept as-is rather than generalized.
const (
	oracleHashStart = 2
	oracleHashEnd   = 42
	oracleSaltEnd   = 62
)

// DelegatingVerifier routes verification to the scheme implied by the
// stored record. Unknown or malformed records verify false.
type DelegatingVerifier struct {
	oracle SaltedHasher
	logger Logger
}

var _ CredentialVerifier = (*DelegatingVerifier)(nil)

// NewDelegatingVerifier builds the standard verifier chain. The hasher
// may be nil when no Oracle-backed store is configured; Oracle records
// then simply never match.
func NewDelegatingVerifier(hasher SaltedHasher) *DelegatingVerifier {
	return &DelegatingVerifier{
		oracle: hasher,
		logger: defLogger{},
	}
}

func (v *DelegatingVerifier) WithLogger(logger Logger) *DelegatingVerifier {
	if logger != nil {
		v.logger = logger
	}
	return v
}

// Matches resolves the scheme from the record and compares. Errors from
// the underlying primitives are logged and swallowed: the caller only
// ever sees a failed match.
func (v *DelegatingVerifier) Matches(ctx context.Context, rawPassword string, record *UserRecord) bool {
	if record == nil || record.PasswordRecord == "" {
		return false
	}

	stored := record.PasswordRecord
	scheme := record.Scheme
	switch {
	case strings.HasPrefix(stored, bcryptTag):
		scheme = SchemeBcrypt
		stored = strings.TrimPrefix(stored, bcryptTag)
	case strings.HasPrefix(stored, sha1Tag):
		scheme = SchemeSHA1
		stored = strings.TrimPrefix(stored, sha1Tag)
	case strings.HasPrefix(stored, oracleTag):
		scheme = SchemeOracle
		stored = strings.TrimPrefix(stored, oracleTag)
	}

	switch scheme {
	case SchemeBcrypt:
		return matchBcrypt(rawPassword, stored)
	case SchemeSHA1:
		return matchSHA1(rawPassword, stored)
	case SchemeOracle:
		return v.matchOracle(ctx, rawPassword, stored)
	default:
		v.logger.Debug("verifier: record with unknown scheme for %s", record.Username)
		return false
	}
}

func matchBcrypt(rawPassword, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(rawPassword)) == nil
}

// matchSHA1 handles the generic legacy scheme: an unsalted hex SHA-1
// digest of the raw password.
func matchSHA1(rawPassword, storedHex string) bool {
	digest := sha1.Sum([]byte(rawPassword))
	computed := hex.EncodeToString(digest[:])
	return subtle.ConstantTimeCompare([]byte(strings.ToLower(storedHex)), []byte(computed)) == 1
}

// matchOracle splits the packed field at the fixed offsets and delegates
// the salted hash to the backend, which owns the algorithm.
func (v *DelegatingVerifier) matchOracle(ctx context.Context, rawPassword, stored string) bool {
	if v.oracle == nil {
		v.logger.Debug("verifier: oracle record but no salted hasher configured")
		return false
	}
	if len(stored) < oracleSaltEnd {
		return false
	}

	hash := stored[oracleHashStart:oracleHashEnd]
	salt := stored[oracleHashEnd:oracleSaltEnd]

	computed, err := v.oracle.HashWithSalt(ctx, rawPassword, salt)
	if err != nil {
		v.logger.Error("verifier: backend hash call failed: %v", err)
		return false
	}

	return subtle.ConstantTimeCompare([]byte(strings.ToUpper(computed)), []byte(strings.ToUpper(hash))) == 1
}

// HashPassword generates a tagged bcrypt record for the locally-owned
// auth store.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrMissingCredentials
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost())
	if err != nil {
		return "", err
	}
	return bcryptTag + string(h), nil
}
