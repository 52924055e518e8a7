package order

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ichad17/retro-configurator/internal/domain"
	"github.com/ichad17/retro-configurator/internal/metrics"
)

// Имена операций для метрик и логов.
const (
	opCreate   = "create"
	opList     = "list"
	opComplete = "complete"
	opCancel   = "cancel"
	opDelete   = "delete"
)

// Service — оркестратор жизненного цикла заказов поверх репозитория.
// Все доменные ошибки пробрасываются наверх типизированными; всё,
// что не является доменной ошибкой, считается отказом хранилища.
type Service struct {
	repo    domain.OrderRepository
	outbox  domain.OutboxRepository
	metrics *metrics.OrderMetrics
	logger  *log.Entry
}

// NewService конструирует сервис. Outbox и метрики опциональны.
func NewService(repo domain.OrderRepository, outbox domain.OutboxRepository, orderMetrics *metrics.OrderMetrics, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.WithField("component", "order-service")
	}
	return &Service{
		repo:    repo,
		outbox:  outbox,
		metrics: orderMetrics,
		logger:  logger,
	}
}

// CreateOrder валидирует вход, создаёт заказ и сохраняет его.
// Публикация события — после успешной записи, последняя ступень операции.
func (s *Service) CreateOrder(cfg *domain.ConsoleConfig, customerEmail string) (domain.Order, error) {
	started := time.Now()

	if cfg == nil {
		return domain.Order{}, domain.ErrConfigurationRequired
	}
	if strings.TrimSpace(customerEmail) == "" {
		return domain.Order{}, domain.ErrCustomerEmailRequired
	}

	order, err := domain.NewOrder(*cfg, customerEmail)
	if err != nil {
		return domain.Order{}, err
	}

	if err := s.repo.Create(order); err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Error("failed to create order")
		s.recordFailure(opCreate)
		return domain.Order{}, s.storageError(err)
	}

	s.enqueueEvent(domain.EventTypeOrderCreated, order)
	s.recordSuccess(opCreate, started)
	if s.metrics != nil {
		s.metrics.RecordOrderCreated()
	}

	s.logger.WithFields(log.Fields{
		"order_id":    order.ID,
		"total_price": order.TotalPrice.String(),
	}).Info("order created")

	return order, nil
}

// GetOrder возвращает заказ по идентификатору.
func (s *Service) GetOrder(id string) (domain.Order, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Order{}, domain.ErrOrderIDRequired
	}

	order, err := s.repo.Get(id)
	if err != nil {
		return domain.Order{}, s.storageError(err)
	}
	return order, nil
}

// ListOrders возвращает заказы от новых к старым.
func (s *Service) ListOrders(limit int) ([]domain.Order, error) {
	orders, err := s.repo.List(limit)
	if err != nil {
		s.logger.WithError(err).Error("failed to list orders")
		s.recordFailure(opList)
		return nil, s.storageError(err)
	}
	return orders, nil
}

// ListOrdersByEmail возвращает заказы клиента с точным совпадением email.
func (s *Service) ListOrdersByEmail(email string, limit int) ([]domain.Order, error) {
	if strings.TrimSpace(email) == "" {
		return nil, domain.ErrCustomerEmailRequired
	}

	orders, err := s.repo.ListByEmail(email, limit)
	if err != nil {
		s.logger.WithError(err).WithField("customer_email", email).Error("failed to list orders by email")
		s.recordFailure(opList)
		return nil, s.storageError(err)
	}
	return orders, nil
}

// CompleteOrder переводит заказ в completed и возвращает обновлённое состояние.
func (s *Service) CompleteOrder(id string) (domain.Order, error) {
	started := time.Now()

	order, err := s.loadOrder(id, opComplete)
	if err != nil {
		return domain.Order{}, err
	}

	if err := order.MarkCompleted(); err != nil {
		return domain.Order{}, err
	}

	order, err = s.saveOrder(order, opComplete)
	if err != nil {
		return domain.Order{}, err
	}

	s.enqueueEvent(domain.EventTypeOrderCompleted, order)
	s.recordSuccess(opComplete, started)
	if s.metrics != nil {
		s.metrics.RecordOrderCompleted()
	}

	s.logger.WithField("order_id", order.ID).Info("order completed")
	return order, nil
}

// CancelOrder переводит заказ в cancelled и возвращает обновлённое состояние.
func (s *Service) CancelOrder(id string) (domain.Order, error) {
	started := time.Now()

	order, err := s.loadOrder(id, opCancel)
	if err != nil {
		return domain.Order{}, err
	}

	if err := order.Cancel(); err != nil {
		return domain.Order{}, err
	}

	order, err = s.saveOrder(order, opCancel)
	if err != nil {
		return domain.Order{}, err
	}

	s.enqueueEvent(domain.EventTypeOrderCancelled, order)
	s.recordSuccess(opCancel, started)
	if s.metrics != nil {
		s.metrics.RecordOrderCancelled()
	}

	s.logger.WithField("order_id", order.ID).Info("order cancelled")
	return order, nil
}

// DeleteOrder удаляет заказ. Административная операция: отсутствие записи
// не считается ошибкой, доменные правила переходов не применяются.
func (s *Service) DeleteOrder(id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.ErrOrderIDRequired
	}

	if err := s.repo.Delete(id); err != nil {
		s.logger.WithError(err).WithField("order_id", id).Error("failed to delete order")
		s.recordFailure(opDelete)
		return s.storageError(err)
	}
	return nil
}

func (s *Service) loadOrder(id, operation string) (domain.Order, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Order{}, domain.ErrOrderIDRequired
	}

	order, err := s.repo.Get(id)
	if err == nil {
		return order, nil
	}

	s.logger.WithError(err).WithFields(log.Fields{
		"operation": operation,
		"order_id":  id,
	}).Warn("failed to load order")

	return domain.Order{}, s.storageError(err)
}

// saveOrder сохраняет заказ и возвращает записанное состояние:
// репозиторий инкрементирует Version при успешной записи, поэтому
// возвращаемая копия пригодна для последующего Save без конфликта.
func (s *Service) saveOrder(order domain.Order, operation string) (domain.Order, error) {
	if err := s.repo.Save(order); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"operation": operation,
			"order_id":  order.ID,
		}).Error("failed to save order")
		s.recordFailure(operation)
		return domain.Order{}, s.storageError(err)
	}

	order.Version++
	return order, nil
}

// storageError пропускает доменные sentinel-ошибки как есть, а инфраструктурные
// заворачивает в ErrStorageUnavailable.
func (s *Service) storageError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrOrderVersionConflict),
		errors.Is(err, domain.ErrStorageUnavailable):
		return err
	default:
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
}

// orderEventPayload — тело события жизненного цикла заказа.
type orderEventPayload struct {
	OrderID       string    `json:"order_id"`
	CustomerEmail string    `json:"customer_email"`
	Status        string    `json:"status"`
	StatusCode    int       `json:"status_code"`
	TotalPrice    string    `json:"total_price"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// enqueueEvent кладёт событие в outbox. Ошибка публикации не валит операцию:
// заказ уже сохранён, событие доставится следующим циклом либо потеряется
// с warn-логом.
func (s *Service) enqueueEvent(eventType string, order domain.Order) {
	if s.outbox == nil {
		return
	}

	payload, err := json.Marshal(orderEventPayload{
		OrderID:       order.ID,
		CustomerEmail: order.CustomerEmail,
		Status:        string(order.Status),
		StatusCode:    order.Status.Code(),
		TotalPrice:    order.TotalPrice.String(),
		OccurredAt:    order.UpdatedAt,
	})
	if err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Warn("failed to marshal order event")
		return
	}

	msg := domain.OutboxMessage{
		AggregateType: domain.AggregateTypeOrder,
		AggregateID:   order.ID,
		EventType:     eventType,
		Payload:       payload,
	}
	if _, err := s.outbox.Enqueue(msg); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"order_id":   order.ID,
			"event_type": eventType,
		}).Warn("failed to enqueue order event")
		return
	}

	if s.metrics != nil {
		s.metrics.RecordOutboxEvent()
	}
}

func (s *Service) recordFailure(operation string) {
	if s.metrics != nil {
		s.metrics.RecordOperationFailed(operation)
	}
}

func (s *Service) recordSuccess(operation string, started time.Time) {
	if s.metrics != nil {
		s.metrics.RecordOperationDuration(operation, time.Since(started))
	}
}
