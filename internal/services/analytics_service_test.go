package services

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/vladimiradmaev/glucolog/internal/domain"
	apperrors "github.com/vladimiradmaev/glucolog/internal/errors"
)

func newAnalytics(glucose *stubGlucose, storage *stubStorage) *AnalyticsService {
	return NewAnalyticsService(glucose, storage, domain.DefaultTirRange(), fixedClock(testNow))
}

func TestTimeInRangeComputesBuckets(t *testing.T) {
	glucose := &stubGlucose{readings: []domain.Reading{
		{Time: testNow.Add(-3 * time.Hour), Value: 65},
		{Time: testNow.Add(-2 * time.Hour), Value: 100},
		{Time: testNow.Add(-time.Hour), Value: 250},
	}}
	svc := newAnalytics(glucose, &stubStorage{})

	report, err := svc.TimeInRange(context.Background(), "user-1", 24)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Hours != 24 || !report.To.Equal(testNow) || !report.From.Equal(testNow.Add(-24*time.Hour)) {
		t.Errorf("expected a 24h window ending now, got %v..%v", report.From, report.To)
	}
	if report.Target != domain.DefaultTirRange() {
		t.Errorf("expected the configured target range, got %d-%d", report.Target.Lower(), report.Target.Upper())
	}
	if report.Stats.Total != 3 || report.Stats.InRange != 1 || report.Stats.Below != 1 || report.Stats.Above != 1 {
		t.Errorf("expected 3/1/1/1 buckets, got %+v", report.Stats)
	}
	if math.Abs(report.Stats.Percentage-100.0/3.0) > 1e-9 {
		t.Errorf("expected percentage near 33.33, got %f", report.Stats.Percentage)
	}
	if !glucose.lastStart.Equal(report.From) || !glucose.lastEnd.Equal(report.To) {
		t.Errorf("expected the report window to reach the source")
	}
}

func TestTimeInRangeUsesConfiguredTarget(t *testing.T) {
	glucose := &stubGlucose{readings: []domain.Reading{
		{Time: testNow.Add(-time.Hour), Value: 170},
	}}
	target, err := domain.NewTirRange(80, 160)
	if err != nil {
		t.Fatalf("target range: %v", err)
	}
	svc := NewAnalyticsService(glucose, &stubStorage{}, target, fixedClock(testNow))

	report, err := svc.TimeInRange(context.Background(), "user-1", 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Target != target {
		t.Errorf("expected 80-160 target, got %d-%d", report.Target.Lower(), report.Target.Upper())
	}
	if report.Stats.Above != 1 {
		t.Errorf("expected 170 to land above a 80-160 target, got %+v", report.Stats)
	}
}

func TestTimeInRangeRejectsUnsupportedDuration(t *testing.T) {
	glucose := &stubGlucose{}
	svc := newAnalytics(glucose, &stubStorage{})

	for _, hours := range []int{0, 2, 7, 48} {
		_, err := svc.TimeInRange(context.Background(), "user-1", hours)
		if !errors.Is(err, apperrors.ErrInvalidRange) {
			t.Errorf("hours %d: expected invalid range error, got %v", hours, err)
		}
	}
	if glucose.calls != 0 {
		t.Errorf("expected validation to run before any fetch, got %d calls", glucose.calls)
	}
}

func TestTimeInRangePropagatesSourceFailure(t *testing.T) {
	srcErr := apperrors.NewUpstreamError(errors.New("egv service unavailable"), "dexcom")
	svc := newAnalytics(&stubGlucose{err: srcErr}, &stubStorage{})

	_, err := svc.TimeInRange(context.Background(), "user-1", 24)
	if !errors.Is(err, apperrors.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestChartRejectsUnsupportedDuration(t *testing.T) {
	glucose := &stubGlucose{}
	storage := &stubStorage{}
	svc := newAnalytics(glucose, storage)

	for _, hours := range []int{0, 2, 6, 7, 48, -1} {
		_, err := svc.Chart(context.Background(), "user-1", hours)
		if !errors.Is(err, apperrors.ErrInvalidRange) {
			t.Errorf("hours %d: expected invalid range error, got %v", hours, err)
		}
	}
	if glucose.calls != 0 || storage.listCalls != 0 {
		t.Errorf("expected validation to run before any fetch, got %d/%d calls", glucose.calls, storage.listCalls)
	}
}

func TestChartAssemblesReadingsAndMarkers(t *testing.T) {
	glucose := &stubGlucose{readings: []domain.Reading{
		{Time: testNow.Add(-2 * time.Hour), Value: 110, Trend: "flat"},
		{Time: testNow.Add(-time.Hour), Value: 132, Trend: "fortyFiveUp"},
	}}
	event := foodEventAt(t, "user-1", testNow.Add(-90*time.Minute))
	storage := &stubStorage{events: []domain.Event{event}}
	svc := newAnalytics(glucose, storage)

	chart, err := svc.Chart(context.Background(), "user-1", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if chart.Hours != 3 || !chart.End.Equal(testNow) || !chart.Start.Equal(testNow.Add(-3*time.Hour)) {
		t.Errorf("expected a 3h window ending now, got %v..%v", chart.Start, chart.End)
	}
	if len(chart.Readings) != 2 {
		t.Errorf("expected 2 readings, got %d", len(chart.Readings))
	}
	if len(chart.Markers) != 1 {
		t.Fatalf("expected 1 marker, got %d", len(chart.Markers))
	}
	if chart.Markers[0].Tooltip != "45g carbs" {
		t.Errorf("expected tooltip '45g carbs', got %q", chart.Markers[0].Tooltip)
	}
	if storage.lastEventType != nil {
		t.Errorf("expected all event variants on the chart, got filter %v", *storage.lastEventType)
	}
	if !glucose.lastStart.Equal(chart.Start) || !glucose.lastEnd.Equal(chart.End) {
		t.Errorf("expected the chart window to reach the source")
	}
}

func TestChartFailsWhenEitherFetchFails(t *testing.T) {
	srcErr := apperrors.NewUpstreamError(errors.New("egv service unavailable"), "dexcom")
	glucose := &stubGlucose{err: srcErr}
	storage := &stubStorage{events: []domain.Event{foodEventAt(t, "user-1", testNow.Add(-time.Hour))}}
	svc := newAnalytics(glucose, storage)

	_, err := svc.Chart(context.Background(), "user-1", 3)
	if !errors.Is(err, apperrors.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestChartSurfacesCauseNotCancellation(t *testing.T) {
	dbErr := apperrors.NewDatabaseError(errors.New("connection reset"))
	glucose := &stubGlucose{fn: func(ctx context.Context, userID domain.UserID, start, end time.Time) ([]domain.Reading, error) {
		// Hold the readings fetch until the failing events fetch cancels it.
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	storage := &stubStorage{listErr: dbErr}
	svc := newAnalytics(glucose, storage)

	_, err := svc.Chart(context.Background(), "user-1", 3)
	if !errors.Is(err, apperrors.ErrDatabaseError) {
		t.Fatalf("expected the database failure to surface, got %v", err)
	}
	if errors.Is(err, context.Canceled) {
		t.Errorf("expected the cause rather than the induced cancellation")
	}
	if glucose.calls != 1 {
		t.Errorf("expected the readings fetch to have started, got %d calls", glucose.calls)
	}
}
