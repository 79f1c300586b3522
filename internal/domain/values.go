package domain

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	apperrors "github.com/vladimiradmaev/glucolog/internal/errors"
)

const (
	maxCarbGrams        = 300
	maxInsulinUnits     = 100
	maxExerciseMinutes  = 300
	maxNoteRunes        = 500
	maxAnnotationRunes  = 200
	maxGlucoseMgdl      = 1000
	halfUnitDenominator = 2
)

// Carbohydrate is an amount of carbohydrates in whole grams, 0 to 300
// inclusive.
type Carbohydrate struct {
	grams int
}

func NewCarbohydrate(grams int) (Carbohydrate, error) {
	if grams < 0 || grams > maxCarbGrams {
		return Carbohydrate{}, apperrors.ErrInvalidCarbohydrate
	}
	return Carbohydrate{grams: grams}, nil
}

func (c Carbohydrate) Grams() int { return c.grams }

// InsulinDose is an insulin amount in units, 0 to 100 inclusive, restricted
// to exact half-unit steps. It stores half units internally so that equal
// doses compare equal with plain ==.
type InsulinDose struct {
	halfUnits int64
}

func NewInsulinDose(units decimal.Decimal) (InsulinDose, error) {
	if units.IsNegative() || units.GreaterThan(decimal.NewFromInt(maxInsulinUnits)) {
		return InsulinDose{}, apperrors.ErrInvalidInsulinDose
	}
	doubled := units.Mul(decimal.NewFromInt(halfUnitDenominator))
	if !doubled.IsInteger() {
		return InsulinDose{}, apperrors.ErrInvalidInsulinDose
	}
	return InsulinDose{halfUnits: doubled.IntPart()}, nil
}

// ParseInsulinDose builds a dose from its decimal string form, e.g. "10.5".
func ParseInsulinDose(value string) (InsulinDose, error) {
	units, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return InsulinDose{}, apperrors.ErrInvalidInsulinDose
	}
	return NewInsulinDose(units)
}

// NewInsulinDoseFromFloat converts a float input such as a deserialized JSON
// number. The half-unit check still applies after conversion.
func NewInsulinDoseFromFloat(units float64) (InsulinDose, error) {
	return NewInsulinDose(decimal.NewFromFloat(units))
}

// InsulinDoseFromHalfUnits restores a dose persisted in half units.
func InsulinDoseFromHalfUnits(halfUnits int64) (InsulinDose, error) {
	if halfUnits < 0 || halfUnits > maxInsulinUnits*halfUnitDenominator {
		return InsulinDose{}, apperrors.ErrInvalidInsulinDose
	}
	return InsulinDose{halfUnits: halfUnits}, nil
}

// HalfUnits exposes the internal representation for exact persistence.
func (d InsulinDose) HalfUnits() int64 { return d.halfUnits }

func (d InsulinDose) Units() decimal.Decimal {
	return decimal.NewFromInt(d.halfUnits).Div(decimal.NewFromInt(halfUnitDenominator))
}

func (d InsulinDose) String() string { return d.Units().String() }

// ExerciseDuration is a workout length in whole minutes, 1 to 300 inclusive.
type ExerciseDuration struct {
	minutes int
}

func NewExerciseDuration(minutes int) (ExerciseDuration, error) {
	if minutes < 1 || minutes > maxExerciseMinutes {
		return ExerciseDuration{}, apperrors.ErrInvalidExerciseDuration
	}
	return ExerciseDuration{minutes: minutes}, nil
}

func (d ExerciseDuration) Minutes() int { return d.minutes }

// NoteText is trimmed free text, 1 to 500 runes after trimming. The zero
// value stands for an absent note.
type NoteText struct {
	value string
}

func NewNoteText(text string) (NoteText, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || utf8.RuneCountInString(trimmed) > maxNoteRunes {
		return NoteText{}, apperrors.ErrInvalidNoteText
	}
	return NoteText{value: trimmed}, nil
}

// NewOptionalNoteText treats blank input as no note instead of an error.
func NewOptionalNoteText(text string) (NoteText, error) {
	if strings.TrimSpace(text) == "" {
		return NoteText{}, nil
	}
	return NewNoteText(text)
}

func (n NoteText) Value() string  { return n.value }
func (n NoteText) String() string { return n.value }
func (n NoteText) IsZero() bool   { return n.value == "" }

// InsulinAnnotation is an optional short remark on how a dose was prepared,
// delivered or timed, up to 200 runes after trimming. The zero value stands
// for an absent annotation.
type InsulinAnnotation struct {
	value string
}

func NewInsulinAnnotation(text string) (InsulinAnnotation, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return InsulinAnnotation{}, nil
	}
	if utf8.RuneCountInString(trimmed) > maxAnnotationRunes {
		return InsulinAnnotation{}, apperrors.ErrInvalidAnnotation
	}
	return InsulinAnnotation{value: trimmed}, nil
}

func (a InsulinAnnotation) Value() string { return a.value }
func (a InsulinAnnotation) IsZero() bool  { return a.value == "" }

// TirRange is a target glucose corridor in mg/dL. Bounds are inclusive,
// the lower bound must stay strictly below the upper one and both must fit
// 0 to 1000.
type TirRange struct {
	lower int
	upper int
}

func NewTirRange(lower, upper int) (TirRange, error) {
	if lower < 0 || upper > maxGlucoseMgdl || lower >= upper {
		return TirRange{}, apperrors.ErrInvalidTirRange
	}
	return TirRange{lower: lower, upper: upper}, nil
}

// DefaultTirRange is the widely used 70-180 mg/dL consensus target.
func DefaultTirRange() TirRange {
	return TirRange{lower: 70, upper: 180}
}

func (r TirRange) Lower() int { return r.lower }
func (r TirRange) Upper() int { return r.upper }

func (r TirRange) Contains(mgdl int) bool { return mgdl >= r.lower && mgdl <= r.upper }
func (r TirRange) Below(mgdl int) bool    { return mgdl < r.lower }
func (r TirRange) Above(mgdl int) bool    { return mgdl > r.upper }

// UserID identifies the account an event belongs to.
type UserID struct {
	value string
}

func NewUserID(value string) (UserID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return UserID{}, apperrors.ErrInvalidUserID
	}
	return UserID{value: trimmed}, nil
}

func (id UserID) Value() string  { return id.value }
func (id UserID) String() string { return id.value }
func (id UserID) IsZero() bool   { return id.value == "" }

// MealTagID references a meal category record.
type MealTagID struct {
	value int64
}

func NewMealTagID(value int64) (MealTagID, error) {
	if value <= 0 {
		return MealTagID{}, apperrors.ErrInvalidMealTag
	}
	return MealTagID{value: value}, nil
}

func (id MealTagID) Value() int64 { return id.value }
func (id MealTagID) IsZero() bool { return id.value == 0 }

// ExerciseTypeID references an exercise kind record.
type ExerciseTypeID struct {
	value int64
}

func NewExerciseTypeID(value int64) (ExerciseTypeID, error) {
	if value <= 0 {
		return ExerciseTypeID{}, apperrors.ErrInvalidExerciseType
	}
	return ExerciseTypeID{value: value}, nil
}

func (id ExerciseTypeID) Value() int64 { return id.value }
func (id ExerciseTypeID) IsZero() bool { return id.value == 0 }
