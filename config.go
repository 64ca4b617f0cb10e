package auth

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// Settings is a plain-value Config implementation for hosts that build
// configuration from flags, files, or the environment.
type Settings struct {
	Provider               AuthSource
	LockThreshold          int
	TokenExpiration        time.Duration
	Issuer                 string
	SavedRequestCookieName string
	MfaRoles               []string
	JWKSEndpoint           string
}

var _ Config = Settings{}

// Validate checks the settings are usable before anything is wired up.
func (s Settings) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Provider, validation.Required, validation.In(
			SourceNomis, SourceAuth, SourceDelius, SourceOasys,
		)),
		validation.Field(&s.LockThreshold, validation.Min(0)),
		validation.Field(&s.Issuer, validation.Required),
		validation.Field(&s.JWKSEndpoint, is.URL),
	)
}

func (s Settings) GetProvider() AuthSource {
	return s.Provider
}

func (s Settings) GetLockThreshold() int {
	if s.LockThreshold <= 0 {
		return DefaultLockThreshold
	}
	return s.LockThreshold
}

func (s Settings) GetTokenExpiration() time.Duration {
	if s.TokenExpiration <= 0 {
		return DefaultTokenExpiration
	}
	return s.TokenExpiration
}

func (s Settings) GetIssuer() string {
	return s.Issuer
}

func (s Settings) GetSavedRequestCookieName() string {
	if s.SavedRequestCookieName == "" {
		return DefaultSavedRequestCookie
	}
	return s.SavedRequestCookieName
}

func (s Settings) GetMfaRoles() []string {
	return append([]string(nil), s.MfaRoles...)
}

func (s Settings) GetJWKSEndpoint() string {
	return s.JWKSEndpoint
}
