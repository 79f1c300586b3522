package services

import (
	"context"
	"testing"
	"time"

	"github.com/vladimiradmaev/glucolog/internal/domain"
	apperrors "github.com/vladimiradmaev/glucolog/internal/errors"
)

var testNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func fixedClock(at time.Time) domain.Clock {
	return domain.ClockFunc(func() time.Time { return at })
}

// stubStorage implements EventStorage in memory. Counters record what the
// service touched; listFn overrides GetByUserID when set.
type stubStorage struct {
	listFn func(ctx context.Context, userID domain.UserID, eventType *domain.EventType, start, end time.Time) ([]domain.Event, error)

	events  []domain.Event
	paged   []domain.Event
	byID    *domain.Event
	count   int64
	listErr error
	saveErr error

	saved         []domain.Event
	records       []domain.AuditRecord
	listCalls     int
	pagedCalls    int
	countCalls    int
	lastEventType *domain.EventType
	lastPage      int
	lastPageSize  int
	lastStart     time.Time
	lastEnd       time.Time
}

func (s *stubStorage) Save(ctx context.Context, event domain.Event, record domain.AuditRecord) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, event)
	s.records = append(s.records, record)
	return nil
}

func (s *stubStorage) GetByUserID(ctx context.Context, userID domain.UserID, eventType *domain.EventType, start, end time.Time) ([]domain.Event, error) {
	s.listCalls++
	s.lastEventType = eventType
	s.lastStart, s.lastEnd = start, end
	if s.listFn != nil {
		return s.listFn(ctx, userID, eventType, start, end)
	}
	return s.events, s.listErr
}

func (s *stubStorage) GetByID(ctx context.Context, id domain.EventID) (*domain.Event, error) {
	if s.byID == nil {
		return nil, apperrors.ErrEventNotFound
	}
	return s.byID, nil
}

func (s *stubStorage) CountByUserID(ctx context.Context, userID domain.UserID, start, end time.Time, eventType *domain.EventType) (int64, error) {
	s.countCalls++
	return s.count, nil
}

func (s *stubStorage) GetPaged(ctx context.Context, userID domain.UserID, start, end time.Time, page, pageSize int) ([]domain.Event, error) {
	s.pagedCalls++
	s.lastPage, s.lastPageSize = page, pageSize
	s.lastStart, s.lastEnd = start, end
	return s.paged, s.listErr
}

// stubGlucose implements domain.GlucoseSource. fn overrides the canned
// answer when set.
type stubGlucose struct {
	fn       func(ctx context.Context, userID domain.UserID, start, end time.Time) ([]domain.Reading, error)
	readings []domain.Reading
	err      error

	calls     int
	lastStart time.Time
	lastEnd   time.Time
}

func (s *stubGlucose) ReadingsInRange(ctx context.Context, userID domain.UserID, start, end time.Time) ([]domain.Reading, error) {
	s.calls++
	s.lastStart, s.lastEnd = start, end
	if s.fn != nil {
		return s.fn(ctx, userID, start, end)
	}
	return s.readings, s.err
}

func foodEventAt(t *testing.T, userID string, eventTime time.Time) domain.Event {
	t.Helper()
	uid, err := domain.NewUserID(userID)
	if err != nil {
		t.Fatalf("user id: %v", err)
	}
	carbs, err := domain.NewCarbohydrate(45)
	if err != nil {
		t.Fatalf("carbs: %v", err)
	}
	tag, err := domain.NewMealTagID(3)
	if err != nil {
		t.Fatalf("meal tag: %v", err)
	}
	event, _, err := domain.NewFoodEvent(fixedClock(testNow), domain.EventMeta{
		UserID:    uid,
		EventTime: eventTime,
		Source:    domain.SourceManual,
	}, domain.FoodPayload{Carbs: carbs, MealTag: tag, Absorption: domain.AbsorptionNormal})
	if err != nil {
		t.Fatalf("build food event: %v", err)
	}
	return event
}

func insulinEventAt(t *testing.T, userID string, eventTime time.Time) domain.Event {
	t.Helper()
	uid, err := domain.NewUserID(userID)
	if err != nil {
		t.Fatalf("user id: %v", err)
	}
	dose, err := domain.ParseInsulinDose("4.5")
	if err != nil {
		t.Fatalf("dose: %v", err)
	}
	event, _, err := domain.NewInsulinEvent(fixedClock(testNow), domain.EventMeta{
		UserID:    uid,
		EventTime: eventTime,
		Source:    domain.SourceManual,
	}, domain.InsulinPayload{Type: domain.InsulinFast, Dose: dose})
	if err != nil {
		t.Fatalf("build insulin event: %v", err)
	}
	return event
}
