package domain

import "fmt"

// Display limits for note text, counted in runes.
const (
	historyNoteMax  = 50
	historyNoteKeep = 47
	tooltipNoteMax  = 30
	tooltipNoteKeep = 27
)

// HistorySummary renders the one-line label shown in event history listings.
// Note text longer than 50 characters is cut to 47 plus an ellipsis.
func HistorySummary(e Event) string {
	return summarize(e, historyNoteMax, historyNoteKeep)
}

// TooltipSummary renders the short label shown on chart markers. Note text
// longer than 30 characters is cut to 27 plus an ellipsis.
func TooltipSummary(e Event) string {
	return summarize(e, tooltipNoteMax, tooltipNoteKeep)
}

func summarize(e Event, noteMax, noteKeep int) string {
	switch p := e.Payload().(type) {
	case FoodPayload:
		return fmt.Sprintf("%dg carbs", p.Carbs.Grams())
	case InsulinPayload:
		return fmt.Sprintf("%sU %s", p.Dose.String(), p.Type)
	case ExercisePayload:
		return fmt.Sprintf("%dmin exercise", p.Duration.Minutes())
	case NotePayload:
		return truncateRunes(p.Text.Value(), noteMax, noteKeep)
	default:
		return ""
	}
}

// truncateRunes shortens s to keep runes plus an ellipsis once it exceeds
// max runes. Counting runes keeps multi-byte text intact.
func truncateRunes(s string, max, keep int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:keep]) + "..."
}
