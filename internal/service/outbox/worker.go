package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/ichad17/retro-configurator/internal/domain"
)

const (
	defaultPollInterval   = 1 * time.Second
	defaultBatchSize      = 100
	defaultMaxAttempts    = 3
	defaultRetryBaseDelay = 50 * time.Millisecond

	// maxRetryDelay ограничивает exponential backoff внутри одного цикла,
	// чтобы медленный брокер не растягивал цикл на минуты.
	maxRetryDelay = 10 * time.Second
)

var (
	outboxPublishAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "retroconf_outbox_publish_attempts_total",
		Help: "Total number of outbox publish attempts grouped by result.",
	}, []string{"result"})
	outboxPendingRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "retroconf_outbox_pending_records",
		Help: "Current number of pending records in transactional outbox.",
	})
	outboxOldestPendingAge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "retroconf_outbox_oldest_pending_age_seconds",
		Help: "Age in seconds of the oldest pending outbox record.",
	})
)

// Значения label result для retroconf_outbox_publish_attempts_total.
const (
	resultSent      = "sent"
	resultRetry     = "retry_error"
	resultFailed    = "failed"
	resultDLQFailed = "dlq_failed"
)

// Worker переносит pending-записи из transactional outbox в брокер.
// Публикация ретраится с exponential backoff; исчерпав попытки, воркер
// помечает запись failed и отдаёт событие в DLQ вместе с причиной.
type Worker struct {
	queue      domain.OutboxRepository
	publisher  domain.OutboxPublisher
	deadLetter domain.DeadLetterPublisher
	logger     *log.Entry

	pollInterval time.Duration
	batchSize    int
	maxAttempts  int
	baseDelay    time.Duration
}

// Option настраивает Worker.
type Option func(*Worker)

// WithLogger задаёт logger для воркера.
func WithLogger(logger *log.Entry) Option {
	return func(w *Worker) { w.logger = logger }
}

// WithDeadLetterPublisher задаёт приёмник событий, исчерпавших retry.
func WithDeadLetterPublisher(publisher domain.DeadLetterPublisher) Option {
	return func(w *Worker) { w.deadLetter = publisher }
}

// WithPollInterval задаёт частоту опроса outbox.
func WithPollInterval(interval time.Duration) Option {
	return func(w *Worker) { w.pollInterval = interval }
}

// WithBatchSize задаёт размер батча из outbox.
func WithBatchSize(batchSize int) Option {
	return func(w *Worker) { w.batchSize = batchSize }
}

// WithMaxAttempts задаёт число попыток публикации перед failed/DLQ.
func WithMaxAttempts(maxAttempts int) Option {
	return func(w *Worker) { w.maxAttempts = maxAttempts }
}

// WithRetryBaseDelay задаёт базовый delay для exponential backoff.
func WithRetryBaseDelay(delay time.Duration) Option {
	return func(w *Worker) { w.baseDelay = delay }
}

// NewWorker создаёт outbox worker.
func NewWorker(queue domain.OutboxRepository, publisher domain.OutboxPublisher, options ...Option) *Worker {
	w := &Worker{
		queue:        queue,
		publisher:    publisher,
		pollInterval: defaultPollInterval,
		batchSize:    defaultBatchSize,
		maxAttempts:  defaultMaxAttempts,
		baseDelay:    defaultRetryBaseDelay,
	}
	for _, option := range options {
		option(w)
	}

	if w.logger == nil {
		w.logger = log.WithField("component", "outbox-worker")
	}
	if w.pollInterval <= 0 {
		w.pollInterval = defaultPollInterval
	}
	if w.batchSize <= 0 {
		w.batchSize = defaultBatchSize
	}
	if w.maxAttempts <= 0 {
		w.maxAttempts = defaultMaxAttempts
	}
	if w.baseDelay < 0 {
		w.baseDelay = 0
	}

	return w
}

// Run опрашивает outbox с интервалом pollInterval до отмены ctx.
func (w *Worker) Run(ctx context.Context) {
	if w.queue == nil || w.publisher == nil {
		w.logger.Warn("outbox worker is disabled: repo or publisher is nil")
		return
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.Sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep выполняет один цикл: вычитывает батч pending-записей и публикует их.
// Возвращает число доставленных и окончательно проваленных записей.
func (w *Worker) Sweep(ctx context.Context) (sent, failed int) {
	if ctx.Err() != nil {
		return 0, 0
	}

	w.reportBacklog()

	batch, err := w.queue.PullPending(w.batchSize)
	if err != nil {
		w.logger.WithError(err).Warn("failed to pull pending outbox messages")
		return 0, 0
	}
	if len(batch) == 0 {
		return 0, 0
	}

	for _, event := range batch {
		if ctx.Err() != nil {
			break
		}

		attempts, err := w.deliver(ctx, event)
		if err == nil {
			sent++
			if markErr := w.queue.MarkSent(event.ID); markErr != nil {
				w.logger.WithError(markErr).WithField("outbox_id", event.ID).Warn("failed to mark outbox as sent")
			}
			continue
		}

		failed++
		outboxPublishAttempts.WithLabelValues(resultFailed).Inc()
		w.logger.WithError(err).WithFields(log.Fields{
			"outbox_id":  event.ID,
			"event_type": event.EventType,
			"attempts":   attempts,
		}).Error("outbox publish failed, sending to dead letter queue")

		w.sendToDeadLetter(event, err, attempts)
		if markErr := w.queue.MarkFailed(event.ID); markErr != nil {
			w.logger.WithError(markErr).WithField("outbox_id", event.ID).Warn("failed to mark outbox as failed")
		}
	}

	w.reportBacklog()
	return sent, failed
}

// deliver публикует событие, ретраясь до maxAttempts раз.
// Возвращает число сделанных попыток и последнюю ошибку.
func (w *Worker) deliver(ctx context.Context, event domain.OutboxMessage) (int, error) {
	var lastErr error

	for attempt := 1; ; attempt++ {
		err := w.publisher.Publish(event)
		if err == nil {
			outboxPublishAttempts.WithLabelValues(resultSent).Inc()
			return attempt, nil
		}
		lastErr = err
		outboxPublishAttempts.WithLabelValues(resultRetry).Inc()

		if attempt >= w.maxAttempts {
			return attempt, fmt.Errorf("publish failed after %d attempts: %w", attempt, lastErr)
		}

		if delay := w.retryDelay(attempt); delay > 0 {
			select {
			case <-ctx.Done():
				return attempt, ctx.Err()
			case <-time.After(delay):
			}
		}
	}
}

// retryDelay считает паузу после попытки attempt: baseDelay * 2^(attempt-1),
// не больше maxRetryDelay.
func (w *Worker) retryDelay(attempt int) time.Duration {
	if w.baseDelay <= 0 {
		return 0
	}

	delay := w.baseDelay
	for i := 1; i < attempt && delay < maxRetryDelay; i++ {
		delay *= 2
	}
	if delay > maxRetryDelay {
		return maxRetryDelay
	}
	return delay
}

func (w *Worker) sendToDeadLetter(event domain.OutboxMessage, cause error, attempts int) {
	if w.deadLetter == nil {
		return
	}

	if err := w.deadLetter.PublishFailed(event, cause, attempts); err != nil {
		outboxPublishAttempts.WithLabelValues(resultDLQFailed).Inc()
		w.logger.WithError(err).WithField("outbox_id", event.ID).Warn("failed to publish to dead letter queue")
	}
}

func (w *Worker) reportBacklog() {
	stats, err := w.queue.Stats()
	if err != nil {
		w.logger.WithError(err).Warn("failed to collect outbox backlog stats")
		return
	}

	outboxPendingRecords.Set(float64(stats.PendingCount))

	age := 0.0
	if stats.PendingCount > 0 && !stats.OldestPendingAt.IsZero() {
		if since := time.Since(stats.OldestPendingAt).Seconds(); since > 0 {
			age = since
		}
	}
	outboxOldestPendingAge.Set(age)
}
