package auth

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventAuthenticateSuccess ActivityEventType = "auth.authenticate.success"
	ActivityEventAuthenticateFailure ActivityEventType = "auth.authenticate.failure"
	ActivityEventAccountLocked       ActivityEventType = "auth.account.locked"
	ActivityEventExternalResolve     ActivityEventType = "auth.external.resolve"
	ActivityEventTokenIssued         ActivityEventType = "auth.token.issued"
)

// ActivityEvent captures audit-friendly information about an action.
// Every authentication attempt emits exactly one success or failure
// event, tagged with the username and outcome reason.
type ActivityEvent struct {
	EventType  ActivityEventType
	Username   string
	Source     AuthSource
	Reason     string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}
