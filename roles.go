package auth

import "strings"

// rolePrefix is applied to every authority before it reaches a token.
// Relying services match on the prefixed form.
const rolePrefix = "ROLE_"

// EnsureRolePrefix returns the authority with the standard role prefix,
// leaving already-prefixed values alone.
func EnsureRolePrefix(authority string) string {
	authority = strings.TrimSpace(authority)
	if authority == "" {
		return ""
	}
	if strings.HasPrefix(authority, rolePrefix) {
		return authority
	}
	return rolePrefix + authority
}

// StripRolePrefix removes the standard role prefix if present.
func StripRolePrefix(authority string) string {
	return strings.TrimPrefix(authority, rolePrefix)
}

// JoinAuthorities renders an authority set as the comma-joined claim
// value carried in tokens.
func JoinAuthorities(authorities []string) string {
	return strings.Join(normalizeAuthorities(authorities), ",")
}

// SplitAuthorities parses the comma-joined claim value back into an
// authority set, skipping blanks.
func SplitAuthorities(claim string) []string {
	if strings.TrimSpace(claim) == "" {
		return nil
	}
	return normalizeAuthorities(strings.Split(claim, ","))
}

// UnionAuthorities merges authority sets, deduped and sorted. Used when
// a client-credential token acts on behalf of a user: the token carries
// both the client's and the user's authorities.
func UnionAuthorities(sets ...[]string) []string {
	var merged []string
	for _, set := range sets {
		merged = append(merged, set...)
	}
	return normalizeAuthorities(merged)
}
