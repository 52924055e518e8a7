package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentService описывает взаимодействие с платёжным провайдером.
// Завершение заказа НЕ ожидает подтверждения оплаты: ядро этот порт
// не вызывает, он существует только как внешняя граница.
type PaymentService interface {
	// CreateIntent создаёт платёжное намерение и возвращает его идентификатор.
	CreateIntent(amount decimal.Decimal, currency string) (string, error)
	// Confirm проверяет, подтверждён ли платёж провайдером.
	Confirm(intentID string) (bool, error)
}

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}

// DeadLetterPublisher принимает события, которые не удалось опубликовать
// после всех retry, вместе с причиной и числом сделанных попыток.
type DeadLetterPublisher interface {
	PublishFailed(event OutboxMessage, cause error, attempts int) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}

// IdempotencyRepository хранит состояние обработки запросов по idempotency-key.
type IdempotencyRepository interface {
	CreateProcessing(key, requestHash string, expiresAt time.Time) (IdempotencyRecord, error)
	Get(key string) (IdempotencyRecord, error)
	MarkDone(key string, responseBody []byte, httpStatus int) error
	MarkFailed(key string, responseBody []byte, httpStatus int) error
	DeleteExpired(before time.Time, limit int) (int, error)
}

// Типы событий жизненного цикла заказа.
const (
	AggregateTypeOrder = "order"

	EventTypeOrderCreated   = "order.created"
	EventTypeOrderCompleted = "order.completed"
	EventTypeOrderCancelled = "order.cancelled"
)

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}
