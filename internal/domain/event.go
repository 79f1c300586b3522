package domain

import (
	"time"

	"github.com/google/uuid"

	apperrors "github.com/vladimiradmaev/glucolog/internal/errors"
)

// EventID uniquely identifies a logged event.
type EventID string

func NewEventID() EventID { return EventID(uuid.NewString()) }

func (id EventID) String() string { return string(id) }
func (id EventID) IsZero() bool   { return id == "" }

// Event is a single entry in a person's diabetes diary. Exactly one payload
// variant is attached, and every field is fixed at construction time.
type Event struct {
	id        EventID
	userID    UserID
	eventTime time.Time
	createdAt time.Time
	source    EventSource
	note      NoteText
	payload   EventPayload
}

// EventPayload is the closed set of variant data blocks. Only the four
// payload types in this package implement it, so a type switch over them
// covers every case.
type EventPayload interface {
	EventType() EventType
	isEventPayload()
}

// FoodPayload describes eaten carbohydrates.
type FoodPayload struct {
	Carbs      Carbohydrate
	MealTag    MealTagID
	Absorption AbsorptionHint
}

func (FoodPayload) EventType() EventType { return EventTypeFood }
func (FoodPayload) isEventPayload()      {}

// InsulinPayload describes an administered dose.
type InsulinPayload struct {
	Type        InsulinType
	Dose        InsulinDose
	Preparation InsulinAnnotation
	Delivery    InsulinAnnotation
	Timing      InsulinAnnotation
}

func (InsulinPayload) EventType() EventType { return EventTypeInsulin }
func (InsulinPayload) isEventPayload()      {}

// ExercisePayload describes physical activity.
type ExercisePayload struct {
	Type      ExerciseTypeID
	Duration  ExerciseDuration
	Intensity Intensity
}

func (ExercisePayload) EventType() EventType { return EventTypeExercise }
func (ExercisePayload) isEventPayload()      {}

// NotePayload carries a standalone diary remark.
type NotePayload struct {
	Text NoteText
}

func (NotePayload) EventType() EventType { return EventTypeNote }
func (NotePayload) isEventPayload()      {}

func (e Event) ID() EventID           { return e.id }
func (e Event) UserID() UserID        { return e.userID }
func (e Event) EventTime() time.Time  { return e.eventTime }
func (e Event) CreatedAt() time.Time  { return e.createdAt }
func (e Event) Source() EventSource   { return e.source }
func (e Event) Type() EventType       { return e.payload.EventType() }
func (e Event) Payload() EventPayload { return e.payload }

// Note returns the optional comment that sits next to the payload. Note
// events keep this slot empty and carry their text in the payload instead.
func (e Event) Note() (NoteText, bool) { return e.note, !e.note.IsZero() }

func (e Event) FoodDetails() (FoodPayload, bool) {
	p, ok := e.payload.(FoodPayload)
	return p, ok
}

func (e Event) InsulinDetails() (InsulinPayload, bool) {
	p, ok := e.payload.(InsulinPayload)
	return p, ok
}

func (e Event) ExerciseDetails() (ExercisePayload, bool) {
	p, ok := e.payload.(ExercisePayload)
	return p, ok
}

func (e Event) NoteDetails() (NotePayload, bool) {
	p, ok := e.payload.(NotePayload)
	return p, ok
}

// RestoreEvent reassembles a previously persisted event. Creation-time
// checks are skipped because stored events already passed them, but the
// identity fields and the payload must be present.
func RestoreEvent(id EventID, userID UserID, eventTime, createdAt time.Time, source EventSource, note NoteText, payload EventPayload) (Event, error) {
	if id.IsZero() || userID.IsZero() || payload == nil {
		return Event{}, apperrors.New(apperrors.ErrorTypeDatabase, "CORRUPT_EVENT", "Stored event is missing identity or payload")
	}
	return Event{
		id:        id,
		userID:    userID,
		eventTime: eventTime,
		createdAt: createdAt,
		source:    source,
		note:      note,
		payload:   payload,
	}, nil
}
