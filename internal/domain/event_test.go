package domain

import (
	"errors"
	"testing"
	"time"

	apperrors "github.com/vladimiradmaev/glucolog/internal/errors"
)

var testNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func fixedClock(at time.Time) Clock {
	return ClockFunc(func() time.Time { return at })
}

func testMeta(t *testing.T) EventMeta {
	t.Helper()
	userID, err := NewUserID("user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return EventMeta{
		UserID:    userID,
		EventTime: testNow.Add(-time.Hour),
		Source:    SourceManual,
	}
}

func testFoodPayload(t *testing.T) FoodPayload {
	t.Helper()
	carbs, err := NewCarbohydrate(45)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tag, err := NewMealTagID(3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return FoodPayload{Carbs: carbs, MealTag: tag, Absorption: AbsorptionNormal}
}

func TestNewFoodEvent(t *testing.T) {
	meta := testMeta(t)
	note, err := NewNoteText("pasta with sauce")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	meta.Note = note

	event, record, err := NewFoodEvent(fixedClock(testNow), meta, testFoodPayload(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if event.ID().IsZero() {
		t.Errorf("expected a generated event id")
	}
	if event.UserID() != meta.UserID {
		t.Errorf("expected user %v, got %v", meta.UserID, event.UserID())
	}
	if !event.EventTime().Equal(meta.EventTime) {
		t.Errorf("expected event time %v, got %v", meta.EventTime, event.EventTime())
	}
	if !event.CreatedAt().Equal(testNow) {
		t.Errorf("expected created at %v, got %v", testNow, event.CreatedAt())
	}
	if event.Type() != EventTypeFood {
		t.Errorf("expected food event, got %s", event.Type())
	}
	if got, ok := event.Note(); !ok || got.Value() != "pasta with sauce" {
		t.Errorf("expected attached note, got %q ok=%v", got.Value(), ok)
	}
	food, ok := event.FoodDetails()
	if !ok {
		t.Fatalf("expected food details")
	}
	if food.Carbs.Grams() != 45 || food.MealTag.Value() != 3 || food.Absorption != AbsorptionNormal {
		t.Errorf("unexpected food payload: %+v", food)
	}

	if record.Action != ActionFoodLogged {
		t.Errorf("expected action %q, got %q", ActionFoodLogged, record.Action)
	}
	if record.EventID != event.ID() {
		t.Errorf("expected audit record to reference event %s, got %s", event.ID(), record.EventID)
	}
	if record.UserID != "user-1" {
		t.Errorf("expected audit user user-1, got %s", record.UserID)
	}
	if !record.OccurredAt.Equal(event.CreatedAt()) {
		t.Errorf("expected audit time to match created at")
	}
	payload, ok := record.Payload.(FoodLogged)
	if !ok {
		t.Fatalf("expected FoodLogged payload, got %T", record.Payload)
	}
	if payload.CarbGrams != 45 || payload.MealTagID != 3 || payload.AbsorptionHint != "normal" {
		t.Errorf("unexpected audit payload: %+v", payload)
	}
	if payload.Note != "pasta with sauce" {
		t.Errorf("expected note in audit payload, got %q", payload.Note)
	}
}

func TestNewFoodEventValidation(t *testing.T) {
	clock := fixedClock(testNow)
	good := testFoodPayload(t)

	tests := []struct {
		name    string
		meta    func(EventMeta) EventMeta
		payload func(FoodPayload) FoodPayload
		want    error
	}{
		{
			name: "missing user",
			meta: func(m EventMeta) EventMeta { m.UserID = UserID{}; return m },
			want: apperrors.ErrInvalidUserID,
		},
		{
			name: "missing event time",
			meta: func(m EventMeta) EventMeta { m.EventTime = time.Time{}; return m },
			want: apperrors.NewValidationError("event time is required"),
		},
		{
			name: "future event time",
			meta: func(m EventMeta) EventMeta { m.EventTime = testNow.Add(time.Second); return m },
			want: apperrors.ErrEventTimeInFuture,
		},
		{
			name: "unknown source",
			meta: func(m EventMeta) EventMeta { m.Source = EventSource("guessed"); return m },
			want: apperrors.ErrInvalidEnum,
		},
		{
			name:    "missing meal tag",
			payload: func(p FoodPayload) FoodPayload { p.MealTag = MealTagID{}; return p },
			want:    apperrors.ErrInvalidMealTag,
		},
		{
			name:    "unknown absorption hint",
			payload: func(p FoodPayload) FoodPayload { p.Absorption = AbsorptionHint("instant"); return p },
			want:    apperrors.ErrInvalidEnum,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := testMeta(t)
			if tt.meta != nil {
				meta = tt.meta(meta)
			}
			payload := good
			if tt.payload != nil {
				payload = tt.payload(payload)
			}
			_, _, err := NewFoodEvent(clock, meta, payload)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestEventTimeBoundary(t *testing.T) {
	clock := fixedClock(testNow)

	meta := testMeta(t)
	meta.EventTime = testNow
	if _, _, err := NewFoodEvent(clock, meta, testFoodPayload(t)); err != nil {
		t.Fatalf("expected event time equal to now to pass, got %v", err)
	}

	meta.EventTime = testNow.Add(time.Second)
	if _, _, err := NewFoodEvent(clock, meta, testFoodPayload(t)); !errors.Is(err, apperrors.ErrEventTimeInFuture) {
		t.Fatalf("expected future timestamp error, got %v", err)
	}
}

func TestNewInsulinEvent(t *testing.T) {
	dose, err := ParseInsulinDose("10.5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	timing, err := NewInsulinAnnotation("15 minutes before meal")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	event, record, err := NewInsulinEvent(fixedClock(testNow), testMeta(t), InsulinPayload{
		Type:   InsulinFast,
		Dose:   dose,
		Timing: timing,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.Type() != EventTypeInsulin {
		t.Errorf("expected insulin event, got %s", event.Type())
	}
	payload, ok := record.Payload.(InsulinLogged)
	if !ok {
		t.Fatalf("expected InsulinLogged payload, got %T", record.Payload)
	}
	if payload.DoseUnits != "10.5" {
		t.Errorf("expected exact dose 10.5, got %q", payload.DoseUnits)
	}
	if payload.InsulinType != "fast" {
		t.Errorf("expected fast insulin, got %q", payload.InsulinType)
	}
	if payload.Timing != "15 minutes before meal" || payload.Preparation != "" {
		t.Errorf("unexpected annotations: %+v", payload)
	}

	bad := InsulinPayload{Type: InsulinType("medium"), Dose: dose}
	if _, _, err := NewInsulinEvent(fixedClock(testNow), testMeta(t), bad); !errors.Is(err, apperrors.ErrInvalidEnum) {
		t.Fatalf("expected enum validation error, got %v", err)
	}
}

func TestNewExerciseEvent(t *testing.T) {
	kind, err := NewExerciseTypeID(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	duration, err := NewExerciseDuration(40)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	good := ExercisePayload{Type: kind, Duration: duration, Intensity: IntensityModerate}

	event, record, err := NewExerciseEvent(fixedClock(testNow), testMeta(t), good)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.Type() != EventTypeExercise {
		t.Errorf("expected exercise event, got %s", event.Type())
	}
	payload, ok := record.Payload.(ExerciseLogged)
	if !ok {
		t.Fatalf("expected ExerciseLogged payload, got %T", record.Payload)
	}
	if payload.ExerciseTypeID != 2 || payload.DurationMinutes != 40 || payload.Intensity != "moderate" {
		t.Errorf("unexpected audit payload: %+v", payload)
	}

	tests := []struct {
		name    string
		payload ExercisePayload
		want    error
	}{
		{"missing type", ExercisePayload{Duration: duration, Intensity: IntensityLight}, apperrors.ErrInvalidExerciseType},
		{"missing duration", ExercisePayload{Type: kind, Intensity: IntensityLight}, apperrors.ErrInvalidExerciseDuration},
		{"unknown intensity", ExercisePayload{Type: kind, Duration: duration, Intensity: Intensity("extreme")}, apperrors.ErrInvalidEnum},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := NewExerciseEvent(fixedClock(testNow), testMeta(t), tt.payload); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestNewNoteEvent(t *testing.T) {
	text, err := NewNoteText("  feeling low after the walk  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	event, record, err := NewNoteEvent(fixedClock(testNow), testMeta(t), text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.Type() != EventTypeNote {
		t.Errorf("expected note event, got %s", event.Type())
	}
	if _, ok := event.Note(); ok {
		t.Errorf("expected the shared note slot to stay empty on note events")
	}
	details, ok := event.NoteDetails()
	if !ok {
		t.Fatalf("expected note details")
	}
	if details.Text.Value() != "feeling low after the walk" {
		t.Errorf("expected trimmed text, got %q", details.Text.Value())
	}
	payload, ok := record.Payload.(NoteLogged)
	if !ok {
		t.Fatalf("expected NoteLogged payload, got %T", record.Payload)
	}
	if payload.Text != "feeling low after the walk" {
		t.Errorf("unexpected audit text %q", payload.Text)
	}

	if _, _, err := NewNoteEvent(fixedClock(testNow), testMeta(t), NoteText{}); !errors.Is(err, apperrors.ErrInvalidNoteText) {
		t.Fatalf("expected note validation error, got %v", err)
	}

	meta := testMeta(t)
	meta.Note = text
	if _, _, err := NewNoteEvent(fixedClock(testNow), meta, text); err == nil {
		t.Fatalf("expected rejection when the shared note slot is set on a note event")
	}
}

func TestEventIdentitiesAreDistinct(t *testing.T) {
	clock := fixedClock(testNow)
	meta := testMeta(t)
	payload := testFoodPayload(t)

	first, _, err := NewFoodEvent(clock, meta, payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, _, err := NewFoodEvent(clock, meta, payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.ID() == second.ID() {
		t.Errorf("expected distinct ids for separately created events")
	}
	if first.Payload() != second.Payload() {
		t.Errorf("expected identical payloads for identical inputs")
	}
}

func TestAuditCorrelationDefaults(t *testing.T) {
	meta := testMeta(t)
	_, record, err := NewFoodEvent(fixedClock(testNow), meta, testFoodPayload(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.CorrelationID != record.ID {
		t.Errorf("expected correlation id to default to the record id")
	}
	if record.CausationID != record.CorrelationID {
		t.Errorf("expected causation id to default to the correlation id")
	}

	meta.CorrelationID = "corr-1"
	_, record, err = NewFoodEvent(fixedClock(testNow), meta, testFoodPayload(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.CorrelationID != "corr-1" || record.CausationID != "corr-1" {
		t.Errorf("expected causation to follow the provided correlation id, got %+v", record)
	}

	meta.CausationID = "cause-9"
	_, record, err = NewFoodEvent(fixedClock(testNow), meta, testFoodPayload(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.CorrelationID != "corr-1" || record.CausationID != "cause-9" {
		t.Errorf("expected provided ids to be kept, got %+v", record)
	}
}

func TestRestoreEvent(t *testing.T) {
	meta := testMeta(t)
	original, _, err := NewInsulinEvent(fixedClock(testNow), meta, InsulinPayload{Type: InsulinLong, Dose: InsulinDose{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	note, _ := original.Note()
	restored, err := RestoreEvent(original.ID(), original.UserID(), original.EventTime(), original.CreatedAt(), original.Source(), note, original.Payload())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if restored.ID() != original.ID() || restored.Type() != original.Type() {
		t.Errorf("expected restored event to match the original")
	}

	if _, err := RestoreEvent("", original.UserID(), original.EventTime(), original.CreatedAt(), original.Source(), note, original.Payload()); err == nil {
		t.Errorf("expected restore to fail without an id")
	}
	if _, err := RestoreEvent(original.ID(), UserID{}, original.EventTime(), original.CreatedAt(), original.Source(), note, original.Payload()); err == nil {
		t.Errorf("expected restore to fail without a user")
	}
	if _, err := RestoreEvent(original.ID(), original.UserID(), original.EventTime(), original.CreatedAt(), original.Source(), note, nil); err == nil {
		t.Errorf("expected restore to fail without a payload")
	}
}
