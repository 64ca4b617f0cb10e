package auth

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeMissingCredentials = "MISSING_CREDENTIALS"
	TextCodeBadCredentials     = "BAD_CREDENTIALS"
	TextCodeAccountLocked      = "ACCOUNT_LOCKED"
	TextCodeAccountExpired     = "ACCOUNT_EXPIRED"
	TextCodeMfaRequired        = "MFA_REQUIRED"
	TextCodeMfaUnavailable     = "MFA_UNAVAILABLE"
	TextCodeAccessDenied       = "ACCESS_DENIED"
)

// ErrMissingCredentials is returned when the username or password is blank.
var ErrMissingCredentials = goerrors.New("missing credentials", goerrors.CategoryBadInput).
	WithTextCode(TextCodeMissingCredentials).
	WithCode(goerrors.CodeBadRequest)

// ErrBadCredentials is returned when verification fails and the account
// is still under the lockout threshold.
var ErrBadCredentials = goerrors.New("bad credentials", goerrors.CategoryAuth).
	WithTextCode(TextCodeBadCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrAccountLocked is returned when the account is locked, either from a
// prior lock or because this attempt pushed it over the threshold.
var ErrAccountLocked = goerrors.New("account locked", goerrors.CategoryAuth).
	WithTextCode(TextCodeAccountLocked).
	WithCode(goerrors.CodeUnauthorized)

// ErrAccountExpired is returned when the backend reports expired
// credentials. Distinct from a lock so change-password flows can react.
var ErrAccountExpired = goerrors.New("account expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeAccountExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrMfaRequired is returned after a successful password check when the
// authority set demands a second factor. Not a failure as such: the
// caller redirects to the second factor instead of completing login.
var ErrMfaRequired = goerrors.New("mfa required", goerrors.CategoryAuth).
	WithTextCode(TextCodeMfaRequired).
	WithCode(goerrors.CodeUnauthorized)

// ErrMfaUnavailable is returned when a second factor is required but the
// account has no verified channel to deliver it.
var ErrMfaUnavailable = goerrors.New("mfa unavailable", goerrors.CategoryAuth).
	WithTextCode(TextCodeMfaUnavailable).
	WithCode(goerrors.CodeUnauthorized)

// ErrAccessDenied is returned by external identity resolution when an
// external identifier is present but unresolved, malformed, or blank.
var ErrAccessDenied = goerrors.New("access denied", goerrors.CategoryAuthz).
	WithTextCode(TextCodeAccessDenied).
	WithCode(goerrors.CodeForbidden)

// ErrIdentityNotFound is the error backends return for unknown usernames
var ErrIdentityNotFound = errors.New("identity not found")

// IsLockedError reports whether err represents a locked account.
func IsLockedError(err error) bool {
	return hasTextCode(err, TextCodeAccountLocked)
}

// IsBadCredentialsError reports whether err represents a failed
// verification under the threshold.
func IsBadCredentialsError(err error) bool {
	return hasTextCode(err, TextCodeBadCredentials)
}

// IsMfaError reports whether err is either of the MFA outcomes.
func IsMfaError(err error) bool {
	return hasTextCode(err, TextCodeMfaRequired) || hasTextCode(err, TextCodeMfaUnavailable)
}

func hasTextCode(err error, code string) bool {
	var structured *goerrors.Error
	if goerrors.As(err, &structured) {
		return structured.TextCode == code
	}
	return false
}
