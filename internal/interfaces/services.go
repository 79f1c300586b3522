package interfaces

import (
	"context"

	"github.com/vladimiradmaev/glucolog/internal/domain"
	"github.com/vladimiradmaev/glucolog/internal/services"
)

// EventLoggerInterface defines the contract for diary event operations
type EventLoggerInterface interface {
	LogFood(ctx context.Context, input services.LogFoodInput) (domain.Event, error)
	LogInsulin(ctx context.Context, input services.LogInsulinInput) (domain.Event, error)
	LogExercise(ctx context.Context, input services.LogExerciseInput) (domain.Event, error)
	LogNote(ctx context.Context, input services.LogNoteInput) (domain.Event, error)
	GetEvent(ctx context.Context, eventID, userID string) (*domain.Event, error)
	ListEvents(ctx context.Context, input services.ListEventsInput) (*services.EventPage, error)
}

// OutcomeMatcherInterface defines the contract for post-event glucose lookups
type OutcomeMatcherInterface interface {
	MatchOutcome(ctx context.Context, eventID, userID string) (*services.Outcome, error)
}

// AnalyticsInterface defines the contract for time-in-range and chart assembly
type AnalyticsInterface interface {
	TimeInRange(ctx context.Context, userID string, hours int) (*services.TirReport, error)
	Chart(ctx context.Context, userID string, hours int) (*services.Chart, error)
}

// CarbEstimatorInterface defines the contract for AI carbohydrate estimation
type CarbEstimatorInterface interface {
	EstimateCarbs(ctx context.Context, photoURL string, weightGrams float64) (*services.CarbEstimate, error)
}

var (
	_ EventLoggerInterface    = (*services.EventService)(nil)
	_ OutcomeMatcherInterface = (*services.OutcomeService)(nil)
	_ AnalyticsInterface      = (*services.AnalyticsService)(nil)
	_ CarbEstimatorInterface  = (*services.EstimationService)(nil)
)
