package domain

import (
	"context"
	"time"
)

// GlucoseSource serves CGM readings for a user inside a time window. Both
// bounds are inclusive and readings come back ordered by time ascending.
type GlucoseSource interface {
	ReadingsInRange(ctx context.Context, userID UserID, start, end time.Time) ([]Reading, error)
}

// EventStore is the read side of event persistence.
type EventStore interface {
	// GetByUserID returns the user's events inside the window, newest
	// first. A nil eventType means all variants.
	GetByUserID(ctx context.Context, userID UserID, eventType *EventType, start, end time.Time) ([]Event, error)
	// GetByID returns the event or a not-found error.
	GetByID(ctx context.Context, id EventID) (*Event, error)
	// CountByUserID counts the user's events inside the window, optionally
	// narrowed to one variant.
	CountByUserID(ctx context.Context, userID UserID, start, end time.Time, eventType *EventType) (int64, error)
	// GetPaged returns one page of the user's events inside the window,
	// newest first. Pages are 1-based.
	GetPaged(ctx context.Context, userID UserID, start, end time.Time, page, pageSize int) ([]Event, error)
}

// EventWriter persists a freshly constructed event together with its audit
// record in one atomic write.
type EventWriter interface {
	Save(ctx context.Context, event Event, record AuditRecord) error
}
