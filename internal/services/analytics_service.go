package services

import (
	"context"
	"errors"
	"time"

	"github.com/vladimiradmaev/glucolog/internal/domain"
)

// AnalyticsService computes time-in-range reports and assembles chart data.
// Both operations accept the same duration selector and always end now.
type AnalyticsService struct {
	glucose domain.GlucoseSource
	store   domain.EventStore
	target  domain.TirRange
	clock   domain.Clock
}

func NewAnalyticsService(glucose domain.GlucoseSource, store domain.EventStore, target domain.TirRange, clock domain.Clock) *AnalyticsService {
	return &AnalyticsService{
		glucose: glucose,
		store:   store,
		target:  target,
		clock:   clock,
	}
}

// TirReport is a time-in-range summary over one of the supported windows.
type TirReport struct {
	From   time.Time
	To     time.Time
	Hours  int
	Target domain.TirRange
	Stats  domain.TirStats
}

// TimeInRange computes the report for one of the supported window sizes,
// ending now, against the configured target range.
func (s *AnalyticsService) TimeInRange(ctx context.Context, userID string, hours int) (*TirReport, error) {
	uid, err := domain.NewUserID(userID)
	if err != nil {
		return nil, err
	}
	window, err := domain.ChartDuration(hours)
	if err != nil {
		return nil, err
	}
	to := s.clock.Now()
	from := to.Add(-window)

	readings, err := s.glucose.ReadingsInRange(ctx, uid, from, to)
	if err != nil {
		return nil, err
	}
	return &TirReport{
		From:   from,
		To:     to,
		Hours:  hours,
		Target: s.target,
		Stats:  domain.ComputeTimeInRange(readings, s.target),
	}, nil
}

// ChartMarker is an event pinned onto the glucose curve.
type ChartMarker struct {
	Event   domain.Event
	Tooltip string
}

// Chart is the glucose curve for a window plus the events inside it.
type Chart struct {
	Start    time.Time
	End      time.Time
	Hours    int
	Readings []domain.Reading
	Markers  []ChartMarker
}

// Chart builds the chart for one of the supported window sizes, ending now.
// Readings and events are fetched concurrently; if either fetch fails the
// whole chart fails and the other fetch is cancelled.
func (s *AnalyticsService) Chart(ctx context.Context, userID string, hours int) (*Chart, error) {
	uid, err := domain.NewUserID(userID)
	if err != nil {
		return nil, err
	}
	window, err := domain.ChartDuration(hours)
	if err != nil {
		return nil, err
	}
	end := s.clock.Now()
	start := end.Add(-window)

	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		readings []domain.Reading
		events   []domain.Event
	)
	errc := make(chan error, 2)
	go func() {
		var err error
		readings, err = s.glucose.ReadingsInRange(fetchCtx, uid, start, end)
		if err != nil {
			cancel()
		}
		errc <- err
	}()
	go func() {
		var err error
		events, err = s.store.GetByUserID(fetchCtx, uid, nil, start, end)
		if err != nil {
			cancel()
		}
		errc <- err
	}()

	var firstErr error
	for i := 0; i < 2; i++ {
		err := <-errc
		if err == nil {
			continue
		}
		// Keep the failure that started it all, not the cancellation it
		// caused in the sibling fetch.
		if firstErr == nil || (errors.Is(firstErr, context.Canceled) && !errors.Is(err, context.Canceled)) {
			firstErr = err
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}

	markers := make([]ChartMarker, 0, len(events))
	for _, event := range events {
		markers = append(markers, ChartMarker{Event: event, Tooltip: domain.TooltipSummary(event)})
	}
	return &Chart{
		Start:    start,
		End:      end,
		Hours:    hours,
		Readings: readings,
		Markers:  markers,
	}, nil
}
