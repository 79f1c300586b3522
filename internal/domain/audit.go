package domain

import "time"

// Audit actions emitted by the event factories.
const (
	ActionFoodLogged     = "event.food.created"
	ActionInsulinLogged  = "event.insulin.created"
	ActionExerciseLogged = "event.exercise.created"
	ActionNoteLogged     = "event.note.created"
)

// AuditRecord is an immutable trace of a domain change. Factories return it
// next to the new entity so the caller can persist both in one transaction;
// nothing in the domain layer writes it out as a side effect.
type AuditRecord struct {
	ID            string
	Action        string
	EventID       EventID
	UserID        string
	OccurredAt    time.Time
	CorrelationID string
	CausationID   string
	Payload       AuditPayload
}

// AuditPayload is the flat, serialization-ready detail block of a record.
type AuditPayload interface {
	AuditAction() string
	isAuditPayload()
}

// FoodLogged captures a food event for the audit trail.
type FoodLogged struct {
	CarbGrams      int       `json:"carb_grams"`
	MealTagID      int64     `json:"meal_tag_id"`
	AbsorptionHint string    `json:"absorption_hint"`
	Note           string    `json:"note,omitempty"`
	Source         string    `json:"source"`
	EventTime      time.Time `json:"event_time"`
}

func (FoodLogged) AuditAction() string { return ActionFoodLogged }
func (FoodLogged) isAuditPayload()     {}

// InsulinLogged captures an insulin event for the audit trail. DoseUnits is
// the exact decimal rendering, e.g. "10.5".
type InsulinLogged struct {
	InsulinType string    `json:"insulin_type"`
	DoseUnits   string    `json:"dose_units"`
	Preparation string    `json:"preparation,omitempty"`
	Delivery    string    `json:"delivery,omitempty"`
	Timing      string    `json:"timing,omitempty"`
	Note        string    `json:"note,omitempty"`
	Source      string    `json:"source"`
	EventTime   time.Time `json:"event_time"`
}

func (InsulinLogged) AuditAction() string { return ActionInsulinLogged }
func (InsulinLogged) isAuditPayload()     {}

// ExerciseLogged captures an exercise event for the audit trail.
type ExerciseLogged struct {
	ExerciseTypeID  int64     `json:"exercise_type_id"`
	DurationMinutes int       `json:"duration_minutes"`
	Intensity       string    `json:"intensity"`
	Note            string    `json:"note,omitempty"`
	Source          string    `json:"source"`
	EventTime       time.Time `json:"event_time"`
}

func (ExerciseLogged) AuditAction() string { return ActionExerciseLogged }
func (ExerciseLogged) isAuditPayload()     {}

// NoteLogged captures a note event for the audit trail.
type NoteLogged struct {
	Text      string    `json:"text"`
	Source    string    `json:"source"`
	EventTime time.Time `json:"event_time"`
}

func (NoteLogged) AuditAction() string { return ActionNoteLogged }
func (NoteLogged) isAuditPayload()     {}
