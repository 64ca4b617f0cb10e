package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenClaims is the claim set carried by issued tokens. A fresh random
// jti is stamped on every issuance, so no two tokens are identical even
// for back-to-back logins.
type TokenClaims struct {
	jwt.RegisteredClaims
	Authorities string `json:"authorities,omitempty"`
	Name        string `json:"name,omitempty"`
	AuthSource  string `json:"auth_source,omitempty"`
	UserID      string `json:"user_id,omitempty"`
	Scope       string `json:"scope,omitempty"`
}

// Username returns the subject claim.
func (c *TokenClaims) Username() string {
	return c.RegisteredClaims.Subject
}

// DisplayName returns the name claim, falling back to the subject so
// tokens minted before the claim existed still resolve.
func (c *TokenClaims) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.RegisteredClaims.Subject
}

// User returns the user_id claim with the same legacy fallback.
func (c *TokenClaims) User() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.RegisteredClaims.Subject
}

// AuthorityList parses the comma-joined authorities claim.
func (c *TokenClaims) AuthorityList() []string {
	return SplitAuthorities(c.Authorities)
}

// Source maps the auth_source claim, defaulting to none.
func (c *TokenClaims) Source() AuthSource {
	return ParseAuthSource(c.AuthSource)
}

// Scopes parses the space-separated scope claim.
func (c *TokenClaims) Scopes() []string {
	return splitScopes(c.Scope)
}

// Expires returns the expiration time
func (c *TokenClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// Principal rebuilds the principal the claims describe.
func (c *TokenClaims) Principal() *Principal {
	return &Principal{
		username:    c.Username(),
		displayName: c.DisplayName(),
		userID:      c.User(),
		authorities: c.AuthorityList(),
		source:      c.Source(),
		enabled:     true,
	}
}

// ensureTokenID stamps a random jti when none is present.
func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims.ID == "" {
		claims.ID = uuid.New().String()
	}
}
