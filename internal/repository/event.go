package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/vladimiradmaev/glucolog/internal/database"
	"github.com/vladimiradmaev/glucolog/internal/domain"
	apperrors "github.com/vladimiradmaev/glucolog/internal/errors"
)

// EventRepository persists events and their audit records in PostgreSQL.
type EventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Save writes the event header, its variant detail row and the audit outbox
// entry in one transaction, so an event can never appear without its trace.
func (r *EventRepository) Save(ctx context.Context, event domain.Event, record domain.AuditRecord) error {
	row := toEventRecord(event)
	entry, err := toAuditEntry(record)
	if err != nil {
		return err
	}
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		return apperrors.NewDatabaseError(err)
	}
	return nil
}

// GetByUserID returns the user's events inside the window, newest first,
// optionally narrowed to one variant.
func (r *EventRepository) GetByUserID(ctx context.Context, userID domain.UserID, eventType *domain.EventType, start, end time.Time) ([]domain.Event, error) {
	var rows []database.EventRecord
	q := r.eventQuery(ctx, userID, eventType, start, end)
	if err := q.Order("event_time DESC").Find(&rows).Error; err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	return toDomainEvents(rows)
}

// GetByID returns the event or a not-found error.
func (r *EventRepository) GetByID(ctx context.Context, id domain.EventID) (*domain.Event, error) {
	var row database.EventRecord
	err := r.withDetails(r.db.WithContext(ctx)).Where("id = ?", id.String()).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrEventNotFound
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	event, err := toDomainEvent(row)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// CountByUserID counts the user's events inside the window.
func (r *EventRepository) CountByUserID(ctx context.Context, userID domain.UserID, start, end time.Time, eventType *domain.EventType) (int64, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&database.EventRecord{}).
		Where("user_id = ? AND event_time >= ? AND event_time <= ?", userID.Value(), start, end)
	if eventType != nil {
		q = q.Where("event_type = ?", eventType.String())
	}
	if err := q.Count(&count).Error; err != nil {
		return 0, apperrors.NewDatabaseError(err)
	}
	return count, nil
}

// GetPaged returns one page of the user's events inside the window, newest
// first. Pages are 1-based.
func (r *EventRepository) GetPaged(ctx context.Context, userID domain.UserID, start, end time.Time, page, pageSize int) ([]domain.Event, error) {
	var rows []database.EventRecord
	q := r.eventQuery(ctx, userID, nil, start, end)
	err := q.Order("event_time DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	return toDomainEvents(rows)
}

func (r *EventRepository) eventQuery(ctx context.Context, userID domain.UserID, eventType *domain.EventType, start, end time.Time) *gorm.DB {
	q := r.withDetails(r.db.WithContext(ctx)).
		Where("user_id = ? AND event_time >= ? AND event_time <= ?", userID.Value(), start, end)
	if eventType != nil {
		q = q.Where("event_type = ?", eventType.String())
	}
	return q
}

func (r *EventRepository) withDetails(q *gorm.DB) *gorm.DB {
	return q.Preload("Food").Preload("Insulin").Preload("Exercise").Preload("NoteBody")
}

func toEventRecord(event domain.Event) database.EventRecord {
	note, _ := event.Note()
	row := database.EventRecord{
		ID:        event.ID().String(),
		UserID:    event.UserID().Value(),
		EventType: event.Type().String(),
		EventTime: event.EventTime(),
		CreatedAt: event.CreatedAt(),
		Source:    event.Source().String(),
		Note:      note.Value(),
	}
	switch p := event.Payload().(type) {
	case domain.FoodPayload:
		row.Food = &database.FoodDetail{
			EventID:        row.ID,
			CarbGrams:      p.Carbs.Grams(),
			MealTagID:      p.MealTag.Value(),
			AbsorptionHint: p.Absorption.String(),
		}
	case domain.InsulinPayload:
		row.Insulin = &database.InsulinDetail{
			EventID:       row.ID,
			InsulinType:   p.Type.String(),
			DoseHalfUnits: p.Dose.HalfUnits(),
			Preparation:   p.Preparation.Value(),
			Delivery:      p.Delivery.Value(),
			Timing:        p.Timing.Value(),
		}
	case domain.ExercisePayload:
		row.Exercise = &database.ExerciseDetail{
			EventID:         row.ID,
			ExerciseTypeID:  p.Type.Value(),
			DurationMinutes: p.Duration.Minutes(),
			Intensity:       p.Intensity.String(),
		}
	case domain.NotePayload:
		row.NoteBody = &database.NoteDetail{
			EventID: row.ID,
			Text:    p.Text.Value(),
		}
	}
	return row
}

func toAuditEntry(record domain.AuditRecord) (database.AuditEntry, error) {
	payload, err := json.Marshal(record.Payload)
	if err != nil {
		return database.AuditEntry{}, apperrors.NewInternalError(err)
	}
	return database.AuditEntry{
		ID:            record.ID,
		Action:        record.Action,
		EventID:       record.EventID.String(),
		UserID:        record.UserID,
		OccurredAt:    record.OccurredAt,
		CorrelationID: record.CorrelationID,
		CausationID:   record.CausationID,
		Payload:       payload,
	}, nil
}

func toDomainEvents(rows []database.EventRecord) ([]domain.Event, error) {
	events := make([]domain.Event, 0, len(rows))
	for _, row := range rows {
		event, err := toDomainEvent(row)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

func toDomainEvent(row database.EventRecord) (domain.Event, error) {
	userID, err := domain.NewUserID(row.UserID)
	if err != nil {
		return domain.Event{}, corruptEvent(row.ID, err)
	}
	source, err := domain.ParseEventSource(row.Source)
	if err != nil {
		return domain.Event{}, corruptEvent(row.ID, err)
	}
	note, err := domain.NewOptionalNoteText(row.Note)
	if err != nil {
		return domain.Event{}, corruptEvent(row.ID, err)
	}
	payload, err := toDomainPayload(row)
	if err != nil {
		return domain.Event{}, err
	}
	return domain.RestoreEvent(domain.EventID(row.ID), userID, row.EventTime, row.CreatedAt, source, note, payload)
}

func toDomainPayload(row database.EventRecord) (domain.EventPayload, error) {
	switch domain.EventType(row.EventType) {
	case domain.EventTypeFood:
		if row.Food == nil {
			return nil, corruptEvent(row.ID, errors.New("missing food detail row"))
		}
		carbs, err := domain.NewCarbohydrate(row.Food.CarbGrams)
		if err != nil {
			return nil, corruptEvent(row.ID, err)
		}
		tag, err := domain.NewMealTagID(row.Food.MealTagID)
		if err != nil {
			return nil, corruptEvent(row.ID, err)
		}
		hint, err := domain.ParseAbsorptionHint(row.Food.AbsorptionHint)
		if err != nil {
			return nil, corruptEvent(row.ID, err)
		}
		return domain.FoodPayload{Carbs: carbs, MealTag: tag, Absorption: hint}, nil
	case domain.EventTypeInsulin:
		if row.Insulin == nil {
			return nil, corruptEvent(row.ID, errors.New("missing insulin detail row"))
		}
		insulinType, err := domain.ParseInsulinType(row.Insulin.InsulinType)
		if err != nil {
			return nil, corruptEvent(row.ID, err)
		}
		dose, err := domain.InsulinDoseFromHalfUnits(row.Insulin.DoseHalfUnits)
		if err != nil {
			return nil, corruptEvent(row.ID, err)
		}
		preparation, err := domain.NewInsulinAnnotation(row.Insulin.Preparation)
		if err != nil {
			return nil, corruptEvent(row.ID, err)
		}
		delivery, err := domain.NewInsulinAnnotation(row.Insulin.Delivery)
		if err != nil {
			return nil, corruptEvent(row.ID, err)
		}
		timing, err := domain.NewInsulinAnnotation(row.Insulin.Timing)
		if err != nil {
			return nil, corruptEvent(row.ID, err)
		}
		return domain.InsulinPayload{
			Type:        insulinType,
			Dose:        dose,
			Preparation: preparation,
			Delivery:    delivery,
			Timing:      timing,
		}, nil
	case domain.EventTypeExercise:
		if row.Exercise == nil {
			return nil, corruptEvent(row.ID, errors.New("missing exercise detail row"))
		}
		kind, err := domain.NewExerciseTypeID(row.Exercise.ExerciseTypeID)
		if err != nil {
			return nil, corruptEvent(row.ID, err)
		}
		duration, err := domain.NewExerciseDuration(row.Exercise.DurationMinutes)
		if err != nil {
			return nil, corruptEvent(row.ID, err)
		}
		intensity, err := domain.ParseIntensity(row.Exercise.Intensity)
		if err != nil {
			return nil, corruptEvent(row.ID, err)
		}
		return domain.ExercisePayload{Type: kind, Duration: duration, Intensity: intensity}, nil
	case domain.EventTypeNote:
		if row.NoteBody == nil {
			return nil, corruptEvent(row.ID, errors.New("missing note detail row"))
		}
		text, err := domain.NewNoteText(row.NoteBody.Text)
		if err != nil {
			return nil, corruptEvent(row.ID, err)
		}
		return domain.NotePayload{Text: text}, nil
	default:
		return nil, corruptEvent(row.ID, errors.New("unknown event type "+row.EventType))
	}
}

func corruptEvent(id string, err error) error {
	return apperrors.Wrap(err, apperrors.ErrorTypeDatabase, "CORRUPT_EVENT", "Stored event failed validation").
		WithContext("event_id", id)
}
