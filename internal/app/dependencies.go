package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/ichad17/retro-configurator/internal/domain"
	"github.com/ichad17/retro-configurator/internal/messaging/kafka"
	"github.com/ichad17/retro-configurator/internal/service/payment"
	"github.com/ichad17/retro-configurator/internal/storage/memory"
	"github.com/ichad17/retro-configurator/internal/storage/postgres"
)

// Dependencies содержит собранные зависимости приложения.
// Store и Producer равны nil в режимах без postgres и без kafka.
type Dependencies struct {
	Orders      domain.OrderRepository
	Outbox      domain.OutboxRepository
	Idempotency domain.IdempotencyRepository
	Payments    domain.PaymentService

	Store      *postgres.Store
	Producer   *kafka.Producer
	Publisher  domain.OutboxPublisher
	DeadLetter domain.DeadLetterPublisher

	Logger *log.Entry
}

// NewDependencies собирает хранилище и внешние интеграции по конфигурации.
// Postgres-режим прогоняет миграции до готовности; отказ kafka-брокеров
// фатален только если брокеры заданы явно.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	deps := &Dependencies{
		// NOTE: платёжный провайдер пока всегда mock; реальный клиент
		// подключается здесь, когда появится интеграция.
		Payments: payment.NewMockService(),
		Logger:   logger,
	}

	if cfg.PostgresDSN != "" {
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}

		deps.Store = store
		deps.Orders = postgres.NewOrderRepository(store)
		deps.Outbox = postgres.NewOutboxRepository(store)
		deps.Idempotency = postgres.NewIdempotencyRepository(store)
		logger.Info("using postgres storage")
	} else {
		deps.Orders = memory.NewOrderRepository()
		deps.Outbox = memory.NewOutboxRepository()
		deps.Idempotency = memory.NewIdempotencyRepository()
		logger.Info("using in-memory storage")
	}

	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("connect kafka: %w", err)
		}

		topic := cfg.OrderTopic
		if topic == "" {
			topic = kafka.TopicOrderEvents
		}

		deps.Producer = producer
		deps.Publisher = kafka.NewOutboxPublisher(producer, topic)
		deps.DeadLetter = kafka.NewDeadLetterPublisher(producer, topic)
		logger.WithFields(log.Fields{
			"brokers": cfg.KafkaBrokers,
			"topic":   topic,
		}).Info("kafka producer initialized")
	}

	return deps, nil
}

// Close освобождает внешние ресурсы в обратном порядке инициализации.
func (d *Dependencies) Close() {
	if d.Producer != nil {
		if err := d.Producer.Close(); err != nil {
			d.Logger.WithError(err).Warn("failed to close kafka producer")
		}
		d.Producer = nil
	}
	if d.Store != nil {
		if err := d.Store.Close(); err != nil {
			d.Logger.WithError(err).Warn("failed to close postgres store")
		}
		d.Store = nil
	}
}
