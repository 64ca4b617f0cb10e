package auth_test

import (
	"context"
	"errors"
	"testing"

	auth "github.com/ministryofjustice/hmpps-auth-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestExternalResolveByIDPair(t *testing.T) {
	mapper := &MockExternalIDMapper{}
	mapper.On("Username", mock.Anything, "CRN", "X123456").Return("bob", nil)

	authn := &MockAuthenticator{}
	principal := auth.NewExternalPrincipal(auth.SourceDelius, "bob", "Bob Builder", []string{"PROBATION"})
	authn.On("LoadPrincipal", mock.Anything, "bob").Return(principal, nil)

	resolver := auth.NewExternalIdentityResolver(mapper, authn)
	params := map[string]string{
		auth.ParamUserIDType: "CRN",
		auth.ParamUserID:     "X123456",
	}

	got, err := resolver.Resolve(context.Background(), params, false)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "BOB", got.Username())

	mapper.AssertExpectations(t)
	authn.AssertExpectations(t)
}

func TestExternalResolveIncompletePair(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]string
	}{
		{"type without id", map[string]string{auth.ParamUserIDType: "CRN"}},
		{"id without type", map[string]string{auth.ParamUserID: "X123456"}},
		{"blank id", map[string]string{auth.ParamUserIDType: "CRN", auth.ParamUserID: "  "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapper := &MockExternalIDMapper{}
			resolver := auth.NewExternalIdentityResolver(mapper, &MockAuthenticator{})

			got, err := resolver.Resolve(context.Background(), tt.params, false)
			assert.Nil(t, got)
			assert.ErrorIs(t, err, auth.ErrAccessDenied)

			// incomplete pairs never reach the mapper
			mapper.AssertNotCalled(t, "Username", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestExternalResolveUnmatchedID(t *testing.T) {
	mapper := &MockExternalIDMapper{}
	mapper.On("Username", mock.Anything, "CRN", "X999999").Return("", errors.New("no match"))

	resolver := auth.NewExternalIdentityResolver(mapper, &MockAuthenticator{})
	params := map[string]string{
		auth.ParamUserIDType: "CRN",
		auth.ParamUserID:     "X999999",
	}

	got, err := resolver.Resolve(context.Background(), params, false)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, auth.ErrAccessDenied)
}

func TestExternalResolveMappedUserMissing(t *testing.T) {
	mapper := &MockExternalIDMapper{}
	mapper.On("Username", mock.Anything, "CRN", "X123456").Return("bob", nil)

	authn := &MockAuthenticator{}
	authn.On("LoadPrincipal", mock.Anything, "bob").Return(nil, auth.ErrIdentityNotFound)

	resolver := auth.NewExternalIdentityResolver(mapper, authn)
	params := map[string]string{
		auth.ParamUserIDType: "CRN",
		auth.ParamUserID:     "X123456",
	}

	got, err := resolver.Resolve(context.Background(), params, false)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, auth.ErrAccessDenied)
}

func TestExternalResolveByUsername(t *testing.T) {
	authn := &MockAuthenticator{}
	principal := auth.NewExternalPrincipal(auth.SourceAuth, "bob", "Bob", []string{"USER"})
	authn.On("LoadPrincipal", mock.Anything, "bob").Return(principal, nil)

	resolver := auth.NewExternalIdentityResolver(&MockExternalIDMapper{}, authn)
	params := map[string]string{auth.ParamUsername: "bob"}

	got, err := resolver.Resolve(context.Background(), params, false)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "BOB", got.Username())
	assert.Equal(t, []string{"ROLE_USER"}, got.Authorities())
}

func TestExternalResolveUsernameUnchecked(t *testing.T) {
	authn := &MockAuthenticator{}
	resolver := auth.NewExternalIdentityResolver(&MockExternalIDMapper{}, authn)
	params := map[string]string{auth.ParamUsername: "bob"}

	got, err := resolver.Resolve(context.Background(), params, true)
	require.NoError(t, err)
	require.NotNil(t, got)

	// a trusted proxy gets a bare principal with no authorities
	assert.Equal(t, "BOB", got.Username())
	assert.Equal(t, auth.SourceNone, got.Source())
	assert.Empty(t, got.Authorities())

	authn.AssertNotCalled(t, "LoadPrincipal", mock.Anything, mock.Anything)
}

func TestExternalResolveNoParams(t *testing.T) {
	resolver := auth.NewExternalIdentityResolver(&MockExternalIDMapper{}, &MockAuthenticator{})

	for _, params := range []map[string]string{nil, {}, {auth.ParamUsername: "   "}} {
		got, err := resolver.Resolve(context.Background(), params, false)
		assert.Nil(t, got)
		assert.NoError(t, err)
	}
}

func TestExternalResolveEmitsEvent(t *testing.T) {
	authn := &MockAuthenticator{}
	principal := auth.NewExternalPrincipal(auth.SourceAuth, "bob", "Bob", nil)
	authn.On("LoadPrincipal", mock.Anything, "bob").Return(principal, nil)

	sink := &capturingSink{}
	resolver := auth.NewExternalIdentityResolver(&MockExternalIDMapper{}, authn).
		WithActivitySink(sink)

	_, err := resolver.Resolve(context.Background(), map[string]string{auth.ParamUsername: "bob"}, false)
	require.NoError(t, err)

	require.Len(t, sink.events, 1)
	assert.Equal(t, auth.ActivityEventExternalResolve, sink.last().EventType)
	assert.Equal(t, "BOB", sink.last().Username)
}

func TestElevateScopes(t *testing.T) {
	tests := []struct {
		name   string
		scopes []string
		want   []string
	}{
		{"empty", nil, []string{"proxy-user"}},
		{"adds to existing", []string{"read", "write"}, []string{"proxy-user", "read", "write"}},
		{"already elevated", []string{"read", "proxy-user"}, []string{"proxy-user", "read"}},
		{"dedupes and trims", []string{" read ", "read", ""}, []string{"proxy-user", "read"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, auth.ElevateScopes(tt.scopes))
		})
	}
}
