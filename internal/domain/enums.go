package domain

import apperrors "github.com/vladimiradmaev/glucolog/internal/errors"

// EventType discriminates the event variants.
type EventType string

const (
	EventTypeFood     EventType = "food"
	EventTypeInsulin  EventType = "insulin"
	EventTypeExercise EventType = "exercise"
	EventTypeNote     EventType = "note"
)

func (t EventType) Valid() bool {
	switch t {
	case EventTypeFood, EventTypeInsulin, EventTypeExercise, EventTypeNote:
		return true
	}
	return false
}

func (t EventType) String() string { return string(t) }

func ParseEventType(value string) (EventType, error) {
	t := EventType(value)
	if !t.Valid() {
		return "", apperrors.ErrEventInvalidType
	}
	return t, nil
}

// EventSource records how an event entered the system.
type EventSource string

const (
	SourceManual   EventSource = "manual"
	SourceImported EventSource = "imported"
)

func (s EventSource) Valid() bool {
	return s == SourceManual || s == SourceImported
}

func (s EventSource) String() string { return string(s) }

func ParseEventSource(value string) (EventSource, error) {
	s := EventSource(value)
	if !s.Valid() {
		return "", apperrors.ErrInvalidEnum
	}
	return s, nil
}

// AbsorptionHint is a coarse guess at how fast a meal raises glucose.
type AbsorptionHint string

const (
	AbsorptionRapid  AbsorptionHint = "rapid"
	AbsorptionNormal AbsorptionHint = "normal"
	AbsorptionSlow   AbsorptionHint = "slow"
	AbsorptionOther  AbsorptionHint = "other"
)

func (h AbsorptionHint) Valid() bool {
	switch h {
	case AbsorptionRapid, AbsorptionNormal, AbsorptionSlow, AbsorptionOther:
		return true
	}
	return false
}

func (h AbsorptionHint) String() string { return string(h) }

func ParseAbsorptionHint(value string) (AbsorptionHint, error) {
	h := AbsorptionHint(value)
	if !h.Valid() {
		return "", apperrors.ErrInvalidEnum
	}
	return h, nil
}

// InsulinType separates bolus from basal insulin.
type InsulinType string

const (
	InsulinFast InsulinType = "fast"
	InsulinLong InsulinType = "long"
)

func (t InsulinType) Valid() bool {
	return t == InsulinFast || t == InsulinLong
}

func (t InsulinType) String() string { return string(t) }

func ParseInsulinType(value string) (InsulinType, error) {
	t := InsulinType(value)
	if !t.Valid() {
		return "", apperrors.ErrInvalidEnum
	}
	return t, nil
}

// Intensity grades how hard a workout was.
type Intensity string

const (
	IntensityLight    Intensity = "light"
	IntensityModerate Intensity = "moderate"
	IntensityVigorous Intensity = "vigorous"
)

func (i Intensity) Valid() bool {
	switch i {
	case IntensityLight, IntensityModerate, IntensityVigorous:
		return true
	}
	return false
}

func (i Intensity) String() string { return string(i) }

func ParseIntensity(value string) (Intensity, error) {
	i := Intensity(value)
	if !i.Valid() {
		return "", apperrors.ErrInvalidEnum
	}
	return i, nil
}
