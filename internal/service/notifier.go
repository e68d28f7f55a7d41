package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-timetable-api/internal/models"
	"github.com/noah-isme/campus-timetable-api/pkg/jobs"
)

// Notifier is told about committed timetable mutations. Implementations must
// not block the caller on delivery.
type Notifier interface {
	Notify(ctx context.Context, change models.SlotChange) error
}

// NopNotifier discards changes.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(context.Context, models.SlotChange) error { return nil }

type changePublisher interface {
	Publish(ctx context.Context, change models.SlotChange) (int64, error)
}

const slotChangeJob = "timetable.slot_change"

// QueueNotifier hands changes to a background worker pool that publishes
// them, retrying failed deliveries.
type QueueNotifier struct {
	queue     *jobs.Queue
	publisher changePublisher
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewQueueNotifier builds a notifier; call Start before use and Stop on shutdown.
func NewQueueNotifier(publisher changePublisher, metrics *MetricsService, cfg jobs.QueueConfig) *QueueNotifier {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	n := &QueueNotifier{publisher: publisher, metrics: metrics, logger: cfg.Logger}
	n.queue = jobs.NewQueue("timetable-notifications", n.deliver, cfg)
	return n
}

// Start launches the delivery workers.
func (n *QueueNotifier) Start(ctx context.Context) {
	n.queue.Start(ctx)
}

// Stop waits for the workers to exit.
func (n *QueueNotifier) Stop() {
	n.queue.Stop()
}

// Notify enqueues change for delivery.
func (n *QueueNotifier) Notify(_ context.Context, change models.SlotChange) error {
	if change.OccurredAt.IsZero() {
		change.OccurredAt = time.Now().UTC()
	}
	if err := n.queue.Enqueue(jobs.Job{Type: slotChangeJob, Payload: change}); err != nil {
		n.metrics.RecordNotification("dropped")
		return err
	}
	return nil
}

func (n *QueueNotifier) deliver(ctx context.Context, job jobs.Job) error {
	change, ok := job.Payload.(models.SlotChange)
	if !ok {
		n.logger.Error("unexpected notification payload", zap.String("job_id", job.ID), zap.String("type", fmt.Sprintf("%T", job.Payload)))
		return nil
	}
	receivers, err := n.publisher.Publish(ctx, change)
	if err != nil {
		n.metrics.RecordNotification("failed")
		return err
	}
	n.metrics.RecordNotification("published")
	n.logger.Debug("slot change published",
		zap.String("action", string(change.Action)),
		zap.String("course_id", change.CourseID),
		zap.Int("semester", change.Semester),
		zap.Int64("receivers", receivers),
	)
	return nil
}
