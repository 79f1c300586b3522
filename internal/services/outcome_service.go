package services

import (
	"context"
	"time"

	"github.com/vladimiradmaev/glucolog/internal/domain"
	apperrors "github.com/vladimiradmaev/glucolog/internal/errors"
)

const (
	// outcomeOffset is how long after a meal its glucose outcome is read.
	outcomeOffset = 120 * time.Minute
	// outcomeWindow is the search tolerance around the target time. Any
	// reading inside it is acceptable and the nearest one wins.
	outcomeWindow = 15 * time.Minute
)

// Outcome is the CGM reading matched to a food event two hours later.
// Approximate is true when no reading fell inside the tolerance window,
// which is a normal answer rather than an error; ReadingTime then falls
// back to the target time itself.
type Outcome struct {
	EventID     domain.EventID
	TargetTime  time.Time
	ReadingTime time.Time
	Reading     *domain.Reading
	Approximate bool
	Message     string
}

// OutcomeService answers what happened to glucose after a meal.
type OutcomeService struct {
	store   domain.EventStore
	glucose domain.GlucoseSource
}

func NewOutcomeService(store domain.EventStore, glucose domain.GlucoseSource) *OutcomeService {
	return &OutcomeService{
		store:   store,
		glucose: glucose,
	}
}

// MatchOutcome finds the reading nearest to eventTime+120min within ±15min.
// Ties go to the earlier reading. Only food events have outcomes.
func (s *OutcomeService) MatchOutcome(ctx context.Context, eventID, userID string) (*Outcome, error) {
	uid, err := domain.NewUserID(userID)
	if err != nil {
		return nil, err
	}
	if eventID == "" {
		return nil, apperrors.NewValidationError("event id is required")
	}

	event, err := s.store.GetByID(ctx, domain.EventID(eventID))
	if err != nil {
		return nil, err
	}
	if event.UserID() != uid {
		return nil, apperrors.ErrForbidden
	}
	if event.Type() != domain.EventTypeFood {
		return nil, apperrors.ErrEventInvalidType
	}

	target := event.EventTime().Add(outcomeOffset)
	readings, err := s.glucose.ReadingsInRange(ctx, uid, target.Add(-outcomeWindow), target.Add(outcomeWindow))
	if err != nil {
		return nil, err
	}

	best, found := nearestReading(readings, target)
	if !found {
		return &Outcome{
			EventID:     event.ID(),
			TargetTime:  target,
			ReadingTime: target,
			Approximate: true,
			Message:     "No reading available",
		}, nil
	}
	return &Outcome{
		EventID:     event.ID(),
		TargetTime:  target,
		ReadingTime: best.Time,
		Reading:     &best,
		Message:     "Outcome recorded",
	}, nil
}

func nearestReading(readings []domain.Reading, target time.Time) (domain.Reading, bool) {
	var best domain.Reading
	found := false
	for _, reading := range readings {
		if !found || closerToTarget(reading, best, target) {
			best = reading
			found = true
		}
	}
	return best, found
}

// closerToTarget reports whether candidate beats current: strictly nearer to
// the target, or equally near but earlier.
func closerToTarget(candidate, current domain.Reading, target time.Time) bool {
	candidateDiff := absDuration(candidate.Time.Sub(target))
	currentDiff := absDuration(current.Time.Sub(target))
	if candidateDiff != currentDiff {
		return candidateDiff < currentDiff
	}
	return candidate.Time.Before(current.Time)
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
