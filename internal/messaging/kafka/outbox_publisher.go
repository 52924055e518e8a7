package kafka

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/IBM/sarama"

	"github.com/ichad17/retro-configurator/internal/domain"
)

// eventEnvelope — формат события заказа на проводе: outbox-запись плюс момент
// публикации. Payload уже сериализован на стороне сервиса заказов.
type eventEnvelope struct {
	ID            string          `json:"id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	PublishedAt   time.Time       `json:"published_at"`
}

func newEventEnvelope(event domain.OutboxMessage) eventEnvelope {
	return eventEnvelope{
		ID:            event.ID,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		EventType:     event.EventType,
		Payload:       json.RawMessage(event.Payload),
		PublishedAt:   time.Now().UTC(),
	}
}

// partitionKey держит все события одного заказа в одной партиции,
// иначе consumer может увидеть cancelled раньше created.
func partitionKey(event domain.OutboxMessage) string {
	if event.AggregateID != "" {
		return event.AggregateID
	}
	return event.ID
}

// OutboxTopicPublisher публикует outbox-сообщения в заданный Kafka-топик.
type OutboxTopicPublisher struct {
	producer *Producer
	topic    string
}

// NewOutboxPublisher создаёт Kafka-паблишер для transactional outbox.
func NewOutboxPublisher(producer *Producer, topic string) domain.OutboxPublisher {
	if topic == "" {
		topic = TopicOrderEvents
	}
	return &OutboxTopicPublisher{
		producer: producer,
		topic:    topic,
	}
}

func (p *OutboxTopicPublisher) Publish(event domain.OutboxMessage) error {
	if p == nil || p.producer == nil {
		return fmt.Errorf("kafka outbox publisher is not initialized")
	}
	return p.producer.PublishJSON(p.topic, partitionKey(event), newEventEnvelope(event))
}

// DeadLetterPublisher отправляет недоставленные события заказов в DLQ-топик.
// Причина сбоя, число попыток и исходный топик уходят в заголовки, тело
// остаётся тем же envelope — DLQ-сообщение можно переиграть без изменений.
type DeadLetterPublisher struct {
	producer    *Producer
	sourceTopic string
}

// NewDeadLetterPublisher создаёт DLQ-паблишер для событий из sourceTopic.
func NewDeadLetterPublisher(producer *Producer, sourceTopic string) *DeadLetterPublisher {
	if sourceTopic == "" {
		sourceTopic = TopicOrderEvents
	}
	return &DeadLetterPublisher{
		producer:    producer,
		sourceTopic: sourceTopic,
	}
}

func (p *DeadLetterPublisher) PublishFailed(event domain.OutboxMessage, cause error, attempts int) error {
	if p == nil || p.producer == nil {
		return fmt.Errorf("kafka dead letter publisher is not initialized")
	}

	value, err := json.Marshal(newEventEnvelope(event))
	if err != nil {
		return fmt.Errorf("marshal dead letter envelope: %w", err)
	}

	errorMessage := ""
	if cause != nil {
		errorMessage = cause.Error()
	}
	headers := []sarama.RecordHeader{
		{Key: []byte(HeaderRetryCount), Value: []byte(strconv.Itoa(attempts))},
		{Key: []byte(HeaderOriginalTopic), Value: []byte(p.sourceTopic)},
		{Key: []byte(HeaderErrorMessage), Value: []byte(errorMessage)},
		{Key: []byte(HeaderFailedAt), Value: []byte(time.Now().UTC().Format(time.RFC3339Nano))},
	}

	return p.producer.Publish(TopicDeadLetterQueue, partitionKey(event), value, headers)
}

var (
	_ domain.OutboxPublisher     = (*OutboxTopicPublisher)(nil)
	_ domain.DeadLetterPublisher = (*DeadLetterPublisher)(nil)
)
