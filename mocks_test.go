package auth_test

import (
	"context"

	auth "github.com/ministryofjustice/hmpps-auth-go"
	"github.com/stretchr/testify/mock"
)

// MockIdentityBackend implements auth.IdentityBackend
type MockIdentityBackend struct {
	mock.Mock
	source auth.AuthSource
}

func NewMockIdentityBackend(source auth.AuthSource) *MockIdentityBackend {
	return &MockIdentityBackend{source: source}
}

func (m *MockIdentityBackend) Source() auth.AuthSource {
	if m.source == "" {
		return auth.SourceNomis
	}
	return m.source
}

func (m *MockIdentityBackend) Lookup(ctx context.Context, usernameUpper string) (*auth.UserRecord, error) {
	args := m.Called(ctx, usernameUpper)
	record, _ := args.Get(0).(*auth.UserRecord)
	return record, args.Error(1)
}

func (m *MockIdentityBackend) SetLockedStatus(ctx context.Context, usernameUpper string, status auth.LockStatus) error {
	args := m.Called(ctx, usernameUpper, status)
	return args.Error(0)
}

// MockSaltedHasher implements auth.SaltedHasher
type MockSaltedHasher struct {
	mock.Mock
}

func (m *MockSaltedHasher) HashWithSalt(ctx context.Context, rawPassword, salt string) (string, error) {
	args := m.Called(ctx, rawPassword, salt)
	return args.String(0), args.Error(1)
}

// MockExternalIDMapper implements auth.ExternalIDMapper
type MockExternalIDMapper struct {
	mock.Mock
}

func (m *MockExternalIDMapper) Username(ctx context.Context, idType, id string) (string, error) {
	args := m.Called(ctx, idType, id)
	return args.String(0), args.Error(1)
}

// MockAuthenticator implements auth.Authenticator
type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Authenticate(ctx context.Context, username, password string) (*auth.Principal, error) {
	args := m.Called(ctx, username, password)
	principal, _ := args.Get(0).(*auth.Principal)
	return principal, args.Error(1)
}

func (m *MockAuthenticator) LoadPrincipal(ctx context.Context, username string) (*auth.Principal, error) {
	args := m.Called(ctx, username)
	principal, _ := args.Get(0).(*auth.Principal)
	return principal, args.Error(1)
}

// staticVerifier accepts exactly one password, whatever the record says.
type staticVerifier struct {
	password string
}

func (v staticVerifier) Matches(_ context.Context, rawPassword string, _ *auth.UserRecord) bool {
	return rawPassword == v.password
}

// capturingSink collects activity events for assertions.
type capturingSink struct {
	events []auth.ActivityEvent
}

func (c *capturingSink) Record(_ context.Context, event auth.ActivityEvent) error {
	c.events = append(c.events, event)
	return nil
}

func (c *capturingSink) last() auth.ActivityEvent {
	if len(c.events) == 0 {
		return auth.ActivityEvent{}
	}
	return c.events[len(c.events)-1]
}
