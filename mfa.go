package auth

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// defaultMfaRegion is used to parse verified mobile numbers that were
// stored without a country prefix.
const defaultMfaRegion = "GB"

// MfaPolicy decides whether an authority set demands a second factor
// and whether the account has a channel to deliver one. The policy only
// gates; running the second factor itself belongs to the caller.
type MfaPolicy struct {
	roles  map[string]struct{}
	region string
}

// NewMfaPolicy builds a policy requiring a second factor for any
// principal holding one of the given roles.
func NewMfaPolicy(roles []string) *MfaPolicy {
	set := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		role = EnsureRolePrefix(strings.TrimSpace(role))
		if role != "" {
			set[role] = struct{}{}
		}
	}
	return &MfaPolicy{roles: set, region: defaultMfaRegion}
}

// WithRegion overrides the default region used to parse stored mobile numbers.
func (p *MfaPolicy) WithRegion(region string) *MfaPolicy {
	if region != "" {
		p.region = region
	}
	return p
}

// RequiredFor reports whether any authority in the set is MFA-gated.
func (p *MfaPolicy) RequiredFor(authorities []string) bool {
	if len(p.roles) == 0 {
		return false
	}
	for _, a := range authorities {
		if _, ok := p.roles[EnsureRolePrefix(strings.TrimSpace(a))]; ok {
			return true
		}
	}
	return false
}

// HasVerifiedChannel reports whether the account has somewhere to send
// a second factor: a verified email address or a verified mobile number
// that parses as dialable.
func (p *MfaPolicy) HasVerifiedChannel(record *UserRecord) bool {
	if record == nil {
		return false
	}
	if strings.TrimSpace(record.VerifiedEmail) != "" {
		return true
	}

	mobile := strings.TrimSpace(record.VerifiedMobile)
	if mobile == "" {
		return false
	}
	parsed, err := phonenumbers.Parse(mobile, p.region)
	if err != nil {
		return false
	}
	return phonenumbers.IsValidNumber(parsed)
}
