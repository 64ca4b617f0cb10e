package auth_test

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	auth "github.com/ministryofjustice/hmpps-auth-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrincipalContextRoundTrip(t *testing.T) {
	principal := auth.NewExternalPrincipal(auth.SourceAuth, "bob", "Bob", []string{"USER"})
	ctx := auth.WithContext(context.Background(), principal)

	got, ok := auth.FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "BOB", got.Username())

	_, ok = auth.FromContext(context.Background())
	assert.False(t, ok)
}

func TestClaimsContextRoundTrip(t *testing.T) {
	claims := &auth.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "BOB"},
	}
	ctx := auth.WithClaimsContext(context.Background(), claims)

	got, ok := auth.GetClaims(ctx)
	require.True(t, ok)
	assert.Equal(t, "BOB", got.Username())

	_, ok = auth.GetClaims(context.Background())
	assert.False(t, ok)
}

func TestContextHasAuthority(t *testing.T) {
	principal := auth.NewExternalPrincipal(auth.SourceAuth, "bob", "Bob", []string{"ADMIN"})
	ctx := auth.WithContext(context.Background(), principal)

	assert.True(t, auth.HasAuthority(ctx, "ADMIN"))
	assert.True(t, auth.HasAuthority(ctx, "ROLE_ADMIN"))
	assert.False(t, auth.HasAuthority(ctx, "USER"))
	assert.False(t, auth.HasAuthority(context.Background(), "ADMIN"))

	var nilPrincipal *auth.Principal
	assert.False(t, auth.HasAuthority(auth.WithContext(context.Background(), nilPrincipal), "ADMIN"))
}
