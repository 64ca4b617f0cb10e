package auth

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

// Request parameter names for client-credential flows acting as a user.
const (
	ParamUserIDType = "user_id_type"
	ParamUserID     = "user_id"
	ParamUsername   = "username"
)

// ScopeProxyUser is the fixed scope added to a client-credential token
// once an end-user identity has been merged into it.
const ScopeProxyUser = "proxy-user"

// externalIDPair is the external identifier a client supplies when it
// wants its token to act as a specific user.
type externalIDPair struct {
	IDType string
	ID     string
}

func (p externalIDPair) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.IDType, validation.Required),
		validation.Field(&p.ID, validation.Required),
	)
}

// ExternalIdentityResolver maps client-credential request parameters to
// an end-user principal. Only machine-to-machine flows use it.
type ExternalIdentityResolver struct {
	mapper       ExternalIDMapper
	auth         Authenticator
	activitySink ActivitySink
	logger       Logger
	now          func() time.Time
}

// NewExternalIdentityResolver builds a resolver over an external id
// mapping and a principal lookup.
func NewExternalIdentityResolver(mapper ExternalIDMapper, auth Authenticator) *ExternalIdentityResolver {
	return &ExternalIdentityResolver{
		mapper:       mapper,
		auth:         auth,
		activitySink: noopActivitySink{},
		logger:       defLogger{},
		now:          time.Now,
	}
}

func (r *ExternalIdentityResolver) WithLogger(logger Logger) *ExternalIdentityResolver {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// WithActivitySink configures the sink receiving resolve events.
func (r *ExternalIdentityResolver) WithActivitySink(sink ActivitySink) *ExternalIdentityResolver {
	r.activitySink = normalizeActivitySink(sink)
	return r
}

// Resolve inspects the request parameters for an identity to act as.
// A (nil, nil) result means no identity was requested and the grant
// proceeds as a plain client-credential token. skipIdentityCheck marks
// a trusted proxy client allowed to assert a bare username without a
// lookup.
func (r *ExternalIdentityResolver) Resolve(ctx context.Context, params map[string]string, skipIdentityCheck bool) (*Principal, error) {
	idType := strings.TrimSpace(params[ParamUserIDType])
	id := strings.TrimSpace(params[ParamUserID])

	if idType != "" || id != "" {
		return r.resolveExternalID(ctx, externalIDPair{IDType: idType, ID: id})
	}

	username := strings.TrimSpace(params[ParamUsername])
	if username == "" {
		return nil, nil
	}

	if skipIdentityCheck {
		// Trusted proxy: take the username at face value, carrying no
		// authorities of its own.
		principal := NewExternalPrincipal(SourceNone, username, username, nil)
		r.emit(ctx, principal.Username(), "unchecked")
		return principal, nil
	}

	principal, err := r.auth.LoadPrincipal(ctx, username)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return nil, ErrAccessDenied
		}
		return nil, err
	}
	r.emit(ctx, principal.Username(), "username")
	return principal, nil
}

func (r *ExternalIdentityResolver) resolveExternalID(ctx context.Context, pair externalIDPair) (*Principal, error) {
	if err := pair.Validate(); err != nil {
		r.logger.Debug("external resolve: incomplete identifier pair: %v", err)
		return nil, ErrAccessDenied
	}

	username, err := r.mapper.Username(ctx, pair.IDType, pair.ID)
	if err != nil || strings.TrimSpace(username) == "" {
		return nil, ErrAccessDenied
	}

	principal, err := r.auth.LoadPrincipal(ctx, username)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return nil, ErrAccessDenied
		}
		return nil, err
	}
	r.emit(ctx, principal.Username(), pair.IDType)
	return principal, nil
}

func (r *ExternalIdentityResolver) emit(ctx context.Context, username, via string) {
	event := ActivityEvent{
		EventType:  ActivityEventExternalResolve,
		Username:   username,
		Source:     SourceNone,
		Reason:     via,
		OccurredAt: r.now(),
	}
	if err := r.activitySink.Record(ctx, event); err != nil {
		r.logger.Error("external resolve: failed to record activity event: %v", err)
	}
}

// ElevateScopes returns the scope set with the proxy-user scope added,
// deduped and sorted.
func ElevateScopes(scopes []string) []string {
	return joinAndDedupeScopes(append(append([]string(nil), scopes...), ScopeProxyUser))
}

func joinAndDedupeScopes(scopes []string) []string {
	seen := make(map[string]struct{}, len(scopes))
	out := make([]string, 0, len(scopes))
	for _, s := range scopes {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func joinScopes(scopes []string) string {
	return strings.Join(joinAndDedupeScopes(scopes), " ")
}

func splitScopes(claim string) []string {
	if strings.TrimSpace(claim) == "" {
		return nil
	}
	return joinAndDedupeScopes(strings.Fields(claim))
}
