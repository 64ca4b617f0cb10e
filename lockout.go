package auth

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// DefaultLockThreshold is the number of consecutive failures that locks
// an account when no threshold is configured.
const DefaultLockThreshold = 3

// Lockout is the retry/lockout state machine. An account moves
// Active(count) -> Active(count+1) -> ... -> Locked; Locked is terminal
// until an out-of-band administrative unlock. Counter writes are plain
// puts with no compare-and-swap, so a success racing a failure is
// resolved by whichever write lands last.
type Lockout struct {
	store        RetryCounterStore
	threshold    int
	activitySink ActivitySink
	logger       Logger
	now          func() time.Time
}

// LockoutOption customizes lockout behavior.
type LockoutOption func(*Lockout)

// WithLockoutThreshold overrides the failure count that triggers a lock.
func WithLockoutThreshold(threshold int) LockoutOption {
	return func(l *Lockout) {
		if threshold > 0 {
			l.threshold = threshold
		}
	}
}

// WithLockoutActivitySink sets the sink used to publish lock events.
func WithLockoutActivitySink(sink ActivitySink) LockoutOption {
	return func(l *Lockout) {
		l.activitySink = normalizeActivitySink(sink)
	}
}

// WithLockoutClock injects a custom clock (useful for tests).
func WithLockoutClock(clock func() time.Time) LockoutOption {
	return func(l *Lockout) {
		if clock != nil {
			l.now = clock
		}
	}
}

// WithLockoutLogger overrides the logger used for sink failures.
func WithLockoutLogger(logger Logger) LockoutOption {
	return func(l *Lockout) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLockout builds the state machine around a counter store.
func NewLockout(store RetryCounterStore, opts ...LockoutOption) *Lockout {
	l := &Lockout{
		store:        store,
		threshold:    DefaultLockThreshold,
		activitySink: noopActivitySink{},
		logger:       defLogger{},
		now:          time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// OnFailure records a failed attempt for the account in record. When no
// local counter exists yet it is seeded from the backend's legacy count
// plus one; otherwise the local counter wins and is incremented. If the
// new count reaches the threshold the backend account is locked (with a
// grace-aware status) and the local counter resets to zero so a later
// unlock starts fresh. Returns the new count and whether a lock fired.
func (l *Lockout) OnFailure(ctx context.Context, backend IdentityBackend, record *UserRecord) (int, bool, error) {
	if record == nil {
		return 0, false, goerrors.New("lockout requires a user record", goerrors.CategoryBadInput)
	}
	// Counter keys are upper-cased usernames. Backends may hand records
	// back in stored case, so normalize here rather than trusting them;
	// otherwise a mixed-case record splits its counter from the reset
	// the dispatcher writes on success.
	username := strings.ToUpper(strings.TrimSpace(record.Username))

	count, exists, err := l.store.Get(ctx, username)
	if err != nil {
		return 0, false, err
	}
	if exists {
		count++
	} else {
		count = record.RetryCount + 1
	}

	if count < l.threshold {
		if err := l.store.Put(ctx, username, count); err != nil {
			return 0, false, err
		}
		return count, false, nil
	}

	status := StatusLocked
	if record.InGracePeriod {
		status = StatusGraceLocked
	}
	if err := backend.SetLockedStatus(ctx, username, status); err != nil {
		return count, false, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to lock account")
	}
	if err := l.store.Put(ctx, username, 0); err != nil {
		return count, true, err
	}

	l.record(ctx, ActivityEvent{
		EventType:  ActivityEventAccountLocked,
		Username:   username,
		Source:     backend.Source(),
		Reason:     string(status),
		OccurredAt: l.now(),
	})

	return count, true, nil
}

// OnSuccess unconditionally writes the counter to zero, whatever its
// prior value.
func (l *Lockout) OnSuccess(ctx context.Context, usernameUpper string) error {
	return l.store.Put(ctx, usernameUpper, 0)
}

func (l *Lockout) record(ctx context.Context, event ActivityEvent) {
	if err := l.activitySink.Record(ctx, event); err != nil {
		l.logger.Error("lockout: failed to record activity event: %v", err)
	}
}
