package auth

import (
	"sort"
	"strings"
)

// Principal is the verified identity produced by an authentication
// attempt. It is built fresh per attempt from a backend record and never
// mutated afterwards; the authority slice is always a private copy so a
// cached principal cannot leak edits back into a backend record.
type Principal struct {
	username           string
	displayName        string
	userID             string
	authorities        []string
	source             AuthSource
	enabled            bool
	locked             bool
	credentialsExpired bool
}

// NewPrincipal builds a principal from a detached backend record.
func NewPrincipal(source AuthSource, record *UserRecord) *Principal {
	if record == nil {
		return nil
	}
	return &Principal{
		username:           strings.ToUpper(strings.TrimSpace(record.Username)),
		displayName:        record.DisplayName,
		userID:             record.UserID,
		authorities:        normalizeAuthorities(record.Authorities),
		source:             source,
		enabled:            record.Enabled,
		locked:             record.Locked,
		credentialsExpired: record.Expired,
	}
}

// NewExternalPrincipal builds a principal for an identity that was
// authenticated outside this service, e.g. a federated OIDC login or a
// trusted client acting as a user. It carries whatever the external
// party asserted and nothing more.
func NewExternalPrincipal(source AuthSource, username, displayName string, authorities []string) *Principal {
	return &Principal{
		username:    strings.ToUpper(strings.TrimSpace(username)),
		displayName: displayName,
		authorities: normalizeAuthorities(authorities),
		source:      source,
		enabled:     true,
	}
}

func (p *Principal) Username() string    { return p.username }
func (p *Principal) DisplayName() string { return p.displayName }
func (p *Principal) Source() AuthSource  { return p.source }
func (p *Principal) Enabled() bool       { return p.enabled }
func (p *Principal) Locked() bool        { return p.locked }

// CredentialsExpired reports whether the backend flagged the credentials
// as expired at lookup time.
func (p *Principal) CredentialsExpired() bool { return p.credentialsExpired }

// UserID returns the backend's explicit id, falling back to the username
// when the backend has no separate identifier.
func (p *Principal) UserID() string {
	if p.userID != "" {
		return p.userID
	}
	return p.username
}

// Authorities returns a copy of the authority set.
func (p *Principal) Authorities() []string {
	return append([]string(nil), p.authorities...)
}

// HasAuthority checks membership in the authority set. The comparison is
// prefix-insensitive: "MFA" matches "ROLE_MFA".
func (p *Principal) HasAuthority(authority string) bool {
	want := EnsureRolePrefix(authority)
	for _, a := range p.authorities {
		if a == want {
			return true
		}
	}
	return false
}

// normalizeAuthorities copies, prefixes, dedupes and sorts an authority
// list so two principals with the same roles compare equal.
func normalizeAuthorities(authorities []string) []string {
	if len(authorities) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(authorities))
	out := make([]string, 0, len(authorities))
	for _, a := range authorities {
		a = EnsureRolePrefix(strings.TrimSpace(a))
		if a == rolePrefix || a == "" {
			continue
		}
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}
