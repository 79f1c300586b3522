package domain

import (
	"time"

	"github.com/google/uuid"

	apperrors "github.com/vladimiradmaev/glucolog/internal/errors"
)

// EventMeta carries the inputs shared by every event variant. Note is
// optional and must stay empty for note events, whose text travels in the
// payload.
type EventMeta struct {
	UserID        UserID
	EventTime     time.Time
	Source        EventSource
	Note          NoteText
	CorrelationID string
	CausationID   string
}

// NewFoodEvent builds a food event and its audit record. The value objects
// inside the payload are trusted, everything else is checked here.
func NewFoodEvent(clock Clock, meta EventMeta, payload FoodPayload) (Event, AuditRecord, error) {
	now := clock.Now()
	if err := validateMeta(meta, now); err != nil {
		return Event{}, AuditRecord{}, err
	}
	if payload.MealTag.IsZero() {
		return Event{}, AuditRecord{}, apperrors.ErrInvalidMealTag
	}
	if !payload.Absorption.Valid() {
		return Event{}, AuditRecord{}, apperrors.ErrInvalidEnum
	}
	event := newEvent(meta, payload, now)
	record := newAuditRecord(event, meta, now, FoodLogged{
		CarbGrams:      payload.Carbs.Grams(),
		MealTagID:      payload.MealTag.Value(),
		AbsorptionHint: payload.Absorption.String(),
		Note:           meta.Note.Value(),
		Source:         event.Source().String(),
		EventTime:      event.EventTime(),
	})
	return event, record, nil
}

// NewInsulinEvent builds an insulin event and its audit record.
func NewInsulinEvent(clock Clock, meta EventMeta, payload InsulinPayload) (Event, AuditRecord, error) {
	now := clock.Now()
	if err := validateMeta(meta, now); err != nil {
		return Event{}, AuditRecord{}, err
	}
	if !payload.Type.Valid() {
		return Event{}, AuditRecord{}, apperrors.ErrInvalidEnum
	}
	event := newEvent(meta, payload, now)
	record := newAuditRecord(event, meta, now, InsulinLogged{
		InsulinType: payload.Type.String(),
		DoseUnits:   payload.Dose.String(),
		Preparation: payload.Preparation.Value(),
		Delivery:    payload.Delivery.Value(),
		Timing:      payload.Timing.Value(),
		Note:        meta.Note.Value(),
		Source:      event.Source().String(),
		EventTime:   event.EventTime(),
	})
	return event, record, nil
}

// NewExerciseEvent builds an exercise event and its audit record.
func NewExerciseEvent(clock Clock, meta EventMeta, payload ExercisePayload) (Event, AuditRecord, error) {
	now := clock.Now()
	if err := validateMeta(meta, now); err != nil {
		return Event{}, AuditRecord{}, err
	}
	if payload.Type.IsZero() {
		return Event{}, AuditRecord{}, apperrors.ErrInvalidExerciseType
	}
	if payload.Duration.Minutes() == 0 {
		return Event{}, AuditRecord{}, apperrors.ErrInvalidExerciseDuration
	}
	if !payload.Intensity.Valid() {
		return Event{}, AuditRecord{}, apperrors.ErrInvalidEnum
	}
	event := newEvent(meta, payload, now)
	record := newAuditRecord(event, meta, now, ExerciseLogged{
		ExerciseTypeID:  payload.Type.Value(),
		DurationMinutes: payload.Duration.Minutes(),
		Intensity:       payload.Intensity.String(),
		Note:            meta.Note.Value(),
		Source:          event.Source().String(),
		EventTime:       event.EventTime(),
	})
	return event, record, nil
}

// NewNoteEvent builds a standalone note event. The text is the payload, so
// the shared note slot in meta must be empty.
func NewNoteEvent(clock Clock, meta EventMeta, text NoteText) (Event, AuditRecord, error) {
	now := clock.Now()
	if err := validateMeta(meta, now); err != nil {
		return Event{}, AuditRecord{}, err
	}
	if text.IsZero() {
		return Event{}, AuditRecord{}, apperrors.ErrInvalidNoteText
	}
	if !meta.Note.IsZero() {
		return Event{}, AuditRecord{}, apperrors.NewValidationError("note events carry their text in the payload")
	}
	event := newEvent(meta, NotePayload{Text: text}, now)
	record := newAuditRecord(event, meta, now, NoteLogged{
		Text:      text.Value(),
		Source:    event.Source().String(),
		EventTime: event.EventTime(),
	})
	return event, record, nil
}

func validateMeta(meta EventMeta, now time.Time) error {
	if meta.UserID.IsZero() {
		return apperrors.ErrInvalidUserID
	}
	if meta.EventTime.IsZero() {
		return apperrors.NewValidationError("event time is required")
	}
	if meta.EventTime.After(now) {
		return apperrors.ErrEventTimeInFuture
	}
	if !meta.Source.Valid() {
		return apperrors.ErrInvalidEnum
	}
	return nil
}

func newEvent(meta EventMeta, payload EventPayload, now time.Time) Event {
	return Event{
		id:        NewEventID(),
		userID:    meta.UserID,
		eventTime: meta.EventTime,
		createdAt: now,
		source:    meta.Source,
		note:      meta.Note,
		payload:   payload,
	}
}

// newAuditRecord stamps correlation ids: a missing correlation id falls back
// to the record's own id, a missing causation id to the correlation id.
func newAuditRecord(event Event, meta EventMeta, now time.Time, payload AuditPayload) AuditRecord {
	id := uuid.NewString()
	correlation := meta.CorrelationID
	if correlation == "" {
		correlation = id
	}
	causation := meta.CausationID
	if causation == "" {
		causation = correlation
	}
	return AuditRecord{
		ID:            id,
		Action:        payload.AuditAction(),
		EventID:       event.ID(),
		UserID:        event.UserID().Value(),
		OccurredAt:    now,
		CorrelationID: correlation,
		CausationID:   causation,
		Payload:       payload,
	}
}
