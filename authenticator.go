package auth

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Dispatcher orchestrates one authentication attempt: normalize the
// credentials, read the configured backend, verify the password, feed
// the lockout state machine, and hand back an immutable principal. The
// backend is fixed at construction time; which store serves a
// deployment is configuration, never a per-request decision.
type Dispatcher struct {
	backend      IdentityBackend
	verifier     CredentialVerifier
	lockout      *Lockout
	mfa          *MfaPolicy
	activitySink ActivitySink
	logger       Logger
	now          func() time.Time
}

var _ Authenticator = (*Dispatcher)(nil)

// NewDispatcher wires the authentication decision engine together.
func NewDispatcher(backend IdentityBackend, verifier CredentialVerifier, lockout *Lockout) *Dispatcher {
	return &Dispatcher{
		backend:      backend,
		verifier:     verifier,
		lockout:      lockout,
		activitySink: noopActivitySink{},
		logger:       defLogger{},
		now:          time.Now,
	}
}

func (d *Dispatcher) WithLogger(logger Logger) *Dispatcher {
	if logger != nil {
		d.logger = logger
	}
	return d
}

// WithActivitySink configures the sink receiving the per-attempt audit event.
func (d *Dispatcher) WithActivitySink(sink ActivitySink) *Dispatcher {
	d.activitySink = normalizeActivitySink(sink)
	return d
}

// WithMfaPolicy enables second-factor gating for the configured roles.
func (d *Dispatcher) WithMfaPolicy(policy *MfaPolicy) *Dispatcher {
	d.mfa = policy
	return d
}

// Authenticate verifies the presented credentials and returns the
// resulting principal. Every call emits exactly one activity event,
// success or failure, tagged with the username and outcome reason.
func (d *Dispatcher) Authenticate(ctx context.Context, username, password string) (*Principal, error) {
	username = strings.ToUpper(strings.TrimSpace(username))

	if username == "" || strings.TrimSpace(password) == "" {
		return nil, d.fail(ctx, username, ErrMissingCredentials)
	}

	record, err := d.backend.Lookup(ctx, username)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			// Unknown accounts answer the same as a wrong password so
			// callers cannot probe for usernames.
			return nil, d.fail(ctx, username, ErrBadCredentials)
		}
		d.logger.Error("authenticate: backend lookup failed for %s: %v", username, err)
		return nil, d.fail(ctx, username, err)
	}
	record = record.Clone()

	if record.Locked {
		return nil, d.fail(ctx, username, ErrAccountLocked)
	}
	if !record.Enabled {
		return nil, d.fail(ctx, username, ErrBadCredentials)
	}

	if !d.verifier.Matches(ctx, password, record) {
		_, locked, err := d.lockout.OnFailure(ctx, d.backend, record)
		if err != nil {
			d.logger.Error("authenticate: lockout bookkeeping failed for %s: %v", username, err)
			return nil, d.fail(ctx, username, err)
		}
		if locked {
			return nil, d.fail(ctx, username, ErrAccountLocked)
		}
		return nil, d.fail(ctx, username, ErrBadCredentials)
	}

	if err := d.lockout.OnSuccess(ctx, username); err != nil {
		d.logger.Error("authenticate: retry counter reset failed for %s: %v", username, err)
		return nil, d.fail(ctx, username, err)
	}

	if record.Expired {
		return nil, d.fail(ctx, username, ErrAccountExpired)
	}

	if d.mfa != nil && d.mfa.RequiredFor(record.Authorities) {
		if !d.mfa.HasVerifiedChannel(record) {
			return nil, d.fail(ctx, username, ErrMfaUnavailable)
		}
		// Credentials are good: the caller redirects to the second
		// factor rather than completing login here.
		return nil, d.fail(ctx, username, ErrMfaRequired)
	}

	principal := NewPrincipal(d.backend.Source(), record)

	d.emit(ctx, ActivityEvent{
		EventType:  ActivityEventAuthenticateSuccess,
		Username:   username,
		Source:     d.backend.Source(),
		OccurredAt: d.now(),
	})

	return principal, nil
}

// LoadPrincipal fetches a principal without any password check. Used by
// external identity resolution for trusted client-credential flows.
func (d *Dispatcher) LoadPrincipal(ctx context.Context, username string) (*Principal, error) {
	username = strings.ToUpper(strings.TrimSpace(username))
	if username == "" {
		return nil, ErrIdentityNotFound
	}

	record, err := d.backend.Lookup(ctx, username)
	if err != nil {
		return nil, err
	}

	return NewPrincipal(d.backend.Source(), record.Clone()), nil
}

// fail records the single failure event for this attempt and passes the
// error through for the caller.
func (d *Dispatcher) fail(ctx context.Context, username string, cause error) error {
	reason := cause.Error()
	d.emit(ctx, ActivityEvent{
		EventType:  ActivityEventAuthenticateFailure,
		Username:   username,
		Source:     d.backend.Source(),
		Reason:     reason,
		OccurredAt: d.now(),
	})
	return cause
}

func (d *Dispatcher) emit(ctx context.Context, event ActivityEvent) {
	if err := d.activitySink.Record(ctx, event); err != nil {
		d.logger.Error("authenticate: failed to record activity event: %v", err)
	}
}
