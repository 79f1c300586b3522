package services

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vladimiradmaev/glucolog/internal/config"
	"github.com/vladimiradmaev/glucolog/internal/database"
	"github.com/vladimiradmaev/glucolog/internal/domain"
	apperrors "github.com/vladimiradmaev/glucolog/internal/errors"
	"github.com/vladimiradmaev/glucolog/internal/logger"
)

// AuditOutbox is the slice of the audit repository the publisher needs.
type AuditOutbox interface {
	Unpublished(ctx context.Context, limit int) ([]database.AuditEntry, error)
	MarkPublished(ctx context.Context, id string, at time.Time) error
}

// AuditPublisher drains the audit outbox into a Redis stream. Entries are
// published in occurrence order and marked only after XADD succeeds, so a
// crash between the two can replay an entry but never lose one.
type AuditPublisher struct {
	outbox   AuditOutbox
	redis    *redis.Client
	stream   string
	interval time.Duration
	batch    int
	clock    domain.Clock
	errs     *apperrors.Handler
}

func NewAuditPublisher(outbox AuditOutbox, client *redis.Client, cfg config.AuditConfig, clock domain.Clock) *AuditPublisher {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 100
	}
	return &AuditPublisher{
		outbox:   outbox,
		redis:    client,
		stream:   cfg.Stream,
		interval: interval,
		batch:    batch,
		clock:    clock,
		errs:     apperrors.NewHandler(logger.GetLogger()),
	}
}

// Run polls the outbox on every tick until the context ends.
func (p *AuditPublisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	logger.Info("Audit publisher started", "stream", p.stream, "interval", p.interval)
	for {
		select {
		case <-ctx.Done():
			logger.Info("Audit publisher stopped")
			return
		case <-ticker.C:
			if err := p.PublishPending(ctx); err != nil && !errors.Is(err, context.Canceled) {
				p.errs.Handle(ctx, err)
			}
		}
	}
}

// PublishPending pushes at most one batch of unpublished entries. The cycle
// stops at the first failure so no entry is skipped over.
func (p *AuditPublisher) PublishPending(ctx context.Context) error {
	entries, err := p.outbox.Unpublished(ctx, p.batch)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := p.publish(ctx, entry); err != nil {
			return err
		}
		if err := p.outbox.MarkPublished(ctx, entry.ID, p.clock.Now()); err != nil {
			return err
		}
	}
	if len(entries) > 0 {
		logger.Info("Published audit records", "count", len(entries), "stream", p.stream)
	}
	return nil
}

func (p *AuditPublisher) publish(ctx context.Context, entry database.AuditEntry) error {
	err := p.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"id":             entry.ID,
			"action":         entry.Action,
			"event_id":       entry.EventID,
			"user_id":        entry.UserID,
			"occurred_at":    entry.OccurredAt.UTC().Format(time.RFC3339Nano),
			"correlation_id": entry.CorrelationID,
			"causation_id":   entry.CausationID,
			"payload":        string(entry.Payload),
		},
	}).Err()
	if err != nil {
		return apperrors.NewUpstreamError(err, "redis")
	}
	return nil
}
