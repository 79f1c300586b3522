package services

import (
	"context"
	"time"

	"github.com/vladimiradmaev/glucolog/internal/domain"
	apperrors "github.com/vladimiradmaev/glucolog/internal/errors"
	"github.com/vladimiradmaev/glucolog/internal/logger"
	"github.com/vladimiradmaev/glucolog/internal/utils"
)

// EventStorage joins the read and write sides the event repository provides.
type EventStorage interface {
	domain.EventStore
	domain.EventWriter
}

// EventService validates raw input, builds diary events through the domain
// factories and persists them together with their audit records.
type EventService struct {
	storage EventStorage
	clock   domain.Clock
}

func NewEventService(storage EventStorage, clock domain.Clock) *EventService {
	return &EventService{
		storage: storage,
		clock:   clock,
	}
}

// LogFoodInput carries raw food event input. Source defaults to manual.
type LogFoodInput struct {
	UserID        string
	EventTime     time.Time
	CarbGrams     int
	MealTagID     int64
	Absorption    string
	Note          string
	Source        string
	CorrelationID string
	CausationID   string
}

func (s *EventService) LogFood(ctx context.Context, input LogFoodInput) (domain.Event, error) {
	meta, err := s.buildMeta(input.UserID, input.EventTime, input.Source, input.Note, input.CorrelationID, input.CausationID)
	if err != nil {
		return domain.Event{}, err
	}
	carbs, err := domain.NewCarbohydrate(input.CarbGrams)
	if err != nil {
		return domain.Event{}, err
	}
	tag, err := domain.NewMealTagID(input.MealTagID)
	if err != nil {
		return domain.Event{}, err
	}
	hint, err := domain.ParseAbsorptionHint(input.Absorption)
	if err != nil {
		return domain.Event{}, err
	}

	event, record, err := domain.NewFoodEvent(s.clock, meta, domain.FoodPayload{
		Carbs:      carbs,
		MealTag:    tag,
		Absorption: hint,
	})
	if err != nil {
		return domain.Event{}, err
	}
	return s.persist(ctx, event, record)
}

// LogInsulinInput carries raw insulin event input. DoseUnits is a decimal
// string such as "10.5" so exactness never depends on float parsing.
type LogInsulinInput struct {
	UserID        string
	EventTime     time.Time
	InsulinType   string
	DoseUnits     string
	Preparation   string
	Delivery      string
	Timing        string
	Note          string
	Source        string
	CorrelationID string
	CausationID   string
}

func (s *EventService) LogInsulin(ctx context.Context, input LogInsulinInput) (domain.Event, error) {
	meta, err := s.buildMeta(input.UserID, input.EventTime, input.Source, input.Note, input.CorrelationID, input.CausationID)
	if err != nil {
		return domain.Event{}, err
	}
	insulinType, err := domain.ParseInsulinType(input.InsulinType)
	if err != nil {
		return domain.Event{}, err
	}
	dose, err := domain.ParseInsulinDose(input.DoseUnits)
	if err != nil {
		return domain.Event{}, err
	}
	preparation, err := domain.NewInsulinAnnotation(input.Preparation)
	if err != nil {
		return domain.Event{}, err
	}
	delivery, err := domain.NewInsulinAnnotation(input.Delivery)
	if err != nil {
		return domain.Event{}, err
	}
	timing, err := domain.NewInsulinAnnotation(input.Timing)
	if err != nil {
		return domain.Event{}, err
	}

	event, record, err := domain.NewInsulinEvent(s.clock, meta, domain.InsulinPayload{
		Type:        insulinType,
		Dose:        dose,
		Preparation: preparation,
		Delivery:    delivery,
		Timing:      timing,
	})
	if err != nil {
		return domain.Event{}, err
	}
	return s.persist(ctx, event, record)
}

// LogExerciseInput carries raw exercise event input.
type LogExerciseInput struct {
	UserID          string
	EventTime       time.Time
	ExerciseTypeID  int64
	DurationMinutes int
	Intensity       string
	Note            string
	Source          string
	CorrelationID   string
	CausationID     string
}

func (s *EventService) LogExercise(ctx context.Context, input LogExerciseInput) (domain.Event, error) {
	meta, err := s.buildMeta(input.UserID, input.EventTime, input.Source, input.Note, input.CorrelationID, input.CausationID)
	if err != nil {
		return domain.Event{}, err
	}
	kind, err := domain.NewExerciseTypeID(input.ExerciseTypeID)
	if err != nil {
		return domain.Event{}, err
	}
	duration, err := domain.NewExerciseDuration(input.DurationMinutes)
	if err != nil {
		return domain.Event{}, err
	}
	intensity, err := domain.ParseIntensity(input.Intensity)
	if err != nil {
		return domain.Event{}, err
	}

	event, record, err := domain.NewExerciseEvent(s.clock, meta, domain.ExercisePayload{
		Type:      kind,
		Duration:  duration,
		Intensity: intensity,
	})
	if err != nil {
		return domain.Event{}, err
	}
	return s.persist(ctx, event, record)
}

// LogNoteInput carries raw note event input. The text is the payload, so
// there is no separate note field.
type LogNoteInput struct {
	UserID        string
	EventTime     time.Time
	Text          string
	Source        string
	CorrelationID string
	CausationID   string
}

func (s *EventService) LogNote(ctx context.Context, input LogNoteInput) (domain.Event, error) {
	meta, err := s.buildMeta(input.UserID, input.EventTime, input.Source, "", input.CorrelationID, input.CausationID)
	if err != nil {
		return domain.Event{}, err
	}
	text, err := domain.NewNoteText(input.Text)
	if err != nil {
		return domain.Event{}, err
	}

	event, record, err := domain.NewNoteEvent(s.clock, meta, text)
	if err != nil {
		return domain.Event{}, err
	}
	return s.persist(ctx, event, record)
}

// GetEvent returns one event after checking it belongs to the caller.
func (s *EventService) GetEvent(ctx context.Context, eventID, userID string) (*domain.Event, error) {
	uid, err := domain.NewUserID(userID)
	if err != nil {
		return nil, err
	}
	if eventID == "" {
		return nil, apperrors.NewValidationError("event id is required")
	}
	event, err := s.storage.GetByID(ctx, domain.EventID(eventID))
	if err != nil {
		return nil, err
	}
	if event.UserID() != uid {
		return nil, apperrors.ErrForbidden
	}
	return event, nil
}

// ListEventsInput narrows a history listing. A zero window means the default
// history window, a zero page the first page.
type ListEventsInput struct {
	UserID    string
	EventType string
	From      time.Time
	To        time.Time
	Page      int
	PageSize  int
}

// EventView pairs an event with its history summary line.
type EventView struct {
	Event   domain.Event
	Summary string
}

// EventPage is one page of a user's history, newest first.
type EventPage struct {
	Events   []EventView
	Total    int64
	Page     int
	PageSize int
}

func (s *EventService) ListEvents(ctx context.Context, input ListEventsInput) (*EventPage, error) {
	userID, err := domain.NewUserID(input.UserID)
	if err != nil {
		return nil, err
	}
	from, to := utils.HistoryWindow(input.From, input.To, s.clock.Now())
	page, pageSize := utils.NormalizePage(input.Page, input.PageSize)

	var (
		events []domain.Event
		total  int64
	)
	if input.EventType != "" {
		eventType, err := domain.ParseEventType(input.EventType)
		if err != nil {
			return nil, err
		}
		all, err := s.storage.GetByUserID(ctx, userID, &eventType, from, to)
		if err != nil {
			return nil, err
		}
		total = int64(len(all))
		events = pageSlice(all, page, pageSize)
	} else {
		total, err = s.storage.CountByUserID(ctx, userID, from, to, nil)
		if err != nil {
			return nil, err
		}
		events, err = s.storage.GetPaged(ctx, userID, from, to, page, pageSize)
		if err != nil {
			return nil, err
		}
	}

	views := make([]EventView, 0, len(events))
	for _, event := range events {
		views = append(views, EventView{Event: event, Summary: domain.HistorySummary(event)})
	}
	return &EventPage{Events: views, Total: total, Page: page, PageSize: pageSize}, nil
}

func (s *EventService) buildMeta(userID string, eventTime time.Time, source, note, correlationID, causationID string) (domain.EventMeta, error) {
	uid, err := domain.NewUserID(userID)
	if err != nil {
		return domain.EventMeta{}, err
	}
	src := domain.SourceManual
	if source != "" {
		src, err = domain.ParseEventSource(source)
		if err != nil {
			return domain.EventMeta{}, err
		}
	}
	noteText, err := domain.NewOptionalNoteText(note)
	if err != nil {
		return domain.EventMeta{}, err
	}
	return domain.EventMeta{
		UserID:        uid,
		EventTime:     eventTime,
		Source:        src,
		Note:          noteText,
		CorrelationID: correlationID,
		CausationID:   causationID,
	}, nil
}

func (s *EventService) persist(ctx context.Context, event domain.Event, record domain.AuditRecord) (domain.Event, error) {
	if err := s.storage.Save(ctx, event, record); err != nil {
		return domain.Event{}, err
	}
	logger.Info("Event logged",
		"event_id", event.ID().String(),
		"user_id", event.UserID().Value(),
		"type", event.Type().String(),
	)
	return event, nil
}

func pageSlice(events []domain.Event, page, pageSize int) []domain.Event {
	start := (page - 1) * pageSize
	if start >= len(events) {
		return nil
	}
	end := start + pageSize
	if end > len(events) {
		end = len(events)
	}
	return events[start:end]
}
