package auth_test

import (
	"testing"
	"time"

	auth "github.com/ministryofjustice/hmpps-auth-go"
	"github.com/stretchr/testify/assert"
)

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name     string
		settings auth.Settings
		wantErr  bool
	}{
		{
			name: "valid",
			settings: auth.Settings{
				Provider: auth.SourceNomis,
				Issuer:   "http://localhost:8080/auth/issuer",
			},
		},
		{
			name:     "missing provider",
			settings: auth.Settings{Issuer: "http://localhost:8080"},
			wantErr:  true,
		},
		{
			name: "federated source is not a provider",
			settings: auth.Settings{
				Provider: auth.SourceAzureAD,
				Issuer:   "http://localhost:8080",
			},
			wantErr: true,
		},
		{
			name:     "missing issuer",
			settings: auth.Settings{Provider: auth.SourceNomis},
			wantErr:  true,
		},
		{
			name: "bad jwks endpoint",
			settings: auth.Settings{
				Provider:     auth.SourceNomis,
				Issuer:       "http://localhost:8080",
				JWKSEndpoint: "::not a url::",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.settings.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSettingsDefaults(t *testing.T) {
	s := auth.Settings{Provider: auth.SourceNomis, Issuer: "http://localhost:8080"}

	assert.Equal(t, auth.DefaultLockThreshold, s.GetLockThreshold())
	assert.Equal(t, auth.DefaultTokenExpiration, s.GetTokenExpiration())
	assert.Equal(t, auth.DefaultSavedRequestCookie, s.GetSavedRequestCookieName())
	assert.Empty(t, s.GetMfaRoles())
}

func TestSettingsOverrides(t *testing.T) {
	s := auth.Settings{
		Provider:               auth.SourceDelius,
		Issuer:                 "http://localhost:8080",
		LockThreshold:          5,
		TokenExpiration:        30 * time.Minute,
		SavedRequestCookieName: "returnpath",
		MfaRoles:               []string{"MFA"},
	}

	assert.Equal(t, auth.SourceDelius, s.GetProvider())
	assert.Equal(t, 5, s.GetLockThreshold())
	assert.Equal(t, 30*time.Minute, s.GetTokenExpiration())
	assert.Equal(t, "returnpath", s.GetSavedRequestCookieName())
	assert.Equal(t, []string{"MFA"}, s.GetMfaRoles())
}
