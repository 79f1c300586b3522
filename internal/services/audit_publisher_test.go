package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/vladimiradmaev/glucolog/internal/config"
	"github.com/vladimiradmaev/glucolog/internal/database"
)

type stubOutbox struct {
	entries []database.AuditEntry
	listErr error
	markErr error

	marked    []string
	lastLimit int
}

func (s *stubOutbox) Unpublished(ctx context.Context, limit int) ([]database.AuditEntry, error) {
	s.lastLimit = limit
	if s.listErr != nil {
		return nil, s.listErr
	}
	if len(s.entries) > limit {
		return s.entries[:limit], nil
	}
	return s.entries, nil
}

func (s *stubOutbox) MarkPublished(ctx context.Context, id string, at time.Time) error {
	if s.markErr != nil {
		return s.markErr
	}
	s.marked = append(s.marked, id)
	return nil
}

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	s, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(s.Close)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func auditEntry(id string, occurredAt time.Time) database.AuditEntry {
	return database.AuditEntry{
		ID:            id,
		Action:        "event.food.created",
		EventID:       "event-" + id,
		UserID:        "user-1",
		OccurredAt:    occurredAt,
		CorrelationID: id,
		CausationID:   id,
		Payload:       []byte(`{"carb_grams":45}`),
	}
}

func testAuditConfig() config.AuditConfig {
	return config.AuditConfig{Stream: "audit-records", PollInterval: 5 * time.Second, BatchSize: 10}
}

func TestAuditPublisherPublishesInOrder(t *testing.T) {
	client := newTestRedis(t)
	outbox := &stubOutbox{entries: []database.AuditEntry{
		auditEntry("a1", testNow.Add(-2*time.Minute)),
		auditEntry("a2", testNow.Add(-time.Minute)),
	}}
	publisher := NewAuditPublisher(outbox, client, testAuditConfig(), fixedClock(testNow))

	if err := publisher.PublishPending(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	messages, err := client.XRange(context.Background(), "audit-records", "-", "+").Result()
	if err != nil {
		t.Fatalf("failed to read stream: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 stream entries, got %d", len(messages))
	}
	if messages[0].Values["id"] != "a1" || messages[1].Values["id"] != "a2" {
		t.Errorf("expected entries in occurrence order, got %v then %v", messages[0].Values["id"], messages[1].Values["id"])
	}
	if messages[0].Values["action"] != "event.food.created" {
		t.Errorf("expected action field on stream entry, got %v", messages[0].Values["action"])
	}
	if messages[0].Values["payload"] != `{"carb_grams":45}` {
		t.Errorf("expected raw payload on stream entry, got %v", messages[0].Values["payload"])
	}
	if len(outbox.marked) != 2 || outbox.marked[0] != "a1" || outbox.marked[1] != "a2" {
		t.Errorf("expected both entries marked published in order, got %v", outbox.marked)
	}
	if outbox.lastLimit != 10 {
		t.Errorf("expected configured batch size 10, got %d", outbox.lastLimit)
	}
}

func TestAuditPublisherEmptyOutboxIsNoop(t *testing.T) {
	client := newTestRedis(t)
	publisher := NewAuditPublisher(&stubOutbox{}, client, testAuditConfig(), fixedClock(testNow))

	if err := publisher.PublishPending(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	length, err := client.XLen(context.Background(), "audit-records").Result()
	if err != nil {
		t.Fatalf("failed to read stream length: %v", err)
	}
	if length != 0 {
		t.Errorf("expected empty stream, got %d entries", length)
	}
}

func TestAuditPublisherStopsOnMarkFailure(t *testing.T) {
	client := newTestRedis(t)
	outbox := &stubOutbox{
		entries: []database.AuditEntry{
			auditEntry("a1", testNow.Add(-2*time.Minute)),
			auditEntry("a2", testNow.Add(-time.Minute)),
		},
		markErr: errors.New("update failed"),
	}
	publisher := NewAuditPublisher(outbox, client, testAuditConfig(), fixedClock(testNow))

	if err := publisher.PublishPending(context.Background()); err == nil {
		t.Fatalf("expected the mark failure to surface")
	}
	length, err := client.XLen(context.Background(), "audit-records").Result()
	if err != nil {
		t.Fatalf("failed to read stream length: %v", err)
	}
	if length != 1 {
		t.Errorf("expected the cycle to stop after the first entry, got %d published", length)
	}
}

func TestAuditPublisherRunStopsOnCancel(t *testing.T) {
	client := newTestRedis(t)
	cfg := testAuditConfig()
	cfg.PollInterval = 10 * time.Millisecond
	publisher := NewAuditPublisher(&stubOutbox{}, client, cfg, fixedClock(testNow))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		publisher.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher did not stop after context cancel")
	}
}

func TestAuditPublisherDefaults(t *testing.T) {
	publisher := NewAuditPublisher(&stubOutbox{}, nil, config.AuditConfig{Stream: "audit-records"}, fixedClock(testNow))
	if publisher.interval != 5*time.Second {
		t.Errorf("expected default poll interval 5s, got %v", publisher.interval)
	}
	if publisher.batch != 100 {
		t.Errorf("expected default batch size 100, got %d", publisher.batch)
	}
}
