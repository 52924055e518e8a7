package domain

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus описывает жизненный цикл заказа на консоль.
type OrderStatus string

const (
	// OrderStatusPending — заказ создан и ожидает завершения или отмены.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusProcessing зарезервирован в перечне статусов, но ни один
	// переход его не порождает. Не добавлять переходы без подтверждения
	// требований.
	OrderStatusProcessing OrderStatus = "processing"
	// OrderStatusCompleted — заказ завершён; терминальный статус.
	OrderStatusCompleted OrderStatus = "completed"
	// OrderStatusCancelled — заказ отменён до завершения; терминальный статус.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Числовые коды статусов на внешней границе (API, события).
const (
	StatusCodePending    = 1
	StatusCodeProcessing = 2
	StatusCodeCompleted  = 3
	StatusCodeCancelled  = 4
)

// Доплаты к базовой цене консоли.
var (
	controllerPrice = decimal.New(3999, -2)
	colorPremium    = decimal.New(2999, -2)
	hdmiPrice       = decimal.New(4999, -2)
)

// Code возвращает числовой код статуса для внешних контрактов.
func (s OrderStatus) Code() int {
	switch s {
	case OrderStatusPending:
		return StatusCodePending
	case OrderStatusProcessing:
		return StatusCodeProcessing
	case OrderStatusCompleted:
		return StatusCodeCompleted
	case OrderStatusCancelled:
		return StatusCodeCancelled
	default:
		return 0
	}
}

// StatusFromCode восстанавливает статус по числовому коду.
func StatusFromCode(code int) (OrderStatus, bool) {
	switch code {
	case StatusCodePending:
		return OrderStatusPending, true
	case StatusCodeProcessing:
		return OrderStatusProcessing, true
	case StatusCodeCompleted:
		return OrderStatusCompleted, true
	case StatusCodeCancelled:
		return OrderStatusCancelled, true
	default:
		return "", false
	}
}

// Valid проверяет, что статус относится к поддерживаемым значениям.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusCompleted, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// Order — сущность заказа. Конфигурация принадлежит заказу целиком
// (композиция по значению), цена фиксируется один раз при создании.
type Order struct {
	ID            string
	Configuration ConsoleConfig
	TotalPrice    decimal.Decimal
	Status        OrderStatus
	CustomerEmail string
	Version       int64
	CreatedAt     time.Time
	CompletedAt   *time.Time
	UpdatedAt     time.Time
}

// NewOrder создаёт заказ: присваивает id, валидирует email,
// вычисляет итоговую цену и ставит статус pending. Конфигурация
// перепроверяется целиком: собранный вручную ConsoleConfig не должен
// просочиться в заказ мимо инвариантов NewConsoleConfig.
func NewOrder(cfg ConsoleConfig, customerEmail string) (Order, error) {
	if strings.TrimSpace(customerEmail) == "" {
		return Order{}, ErrCustomerEmailRequired
	}
	if !isValidEmail(customerEmail) {
		return Order{}, ErrCustomerEmailInvalid
	}

	cfg, err := NewConsoleConfig(cfg.ConsoleType, cfg.NumberOfControllers,
		cfg.HDMISupport, cfg.CustomColor, cfg.ColorHex)
	if err != nil {
		return Order{}, err
	}

	total, err := CalculateTotalPrice(cfg)
	if err != nil {
		return Order{}, err
	}

	now := time.Now().UTC()
	return Order{
		ID:            uuid.NewString(),
		Configuration: cfg,
		TotalPrice:    total,
		Status:        OrderStatusPending,
		CustomerEmail: customerEmail,
		Version:       0,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// CalculateTotalPrice — детерминированная функция цены:
// base(consoleType) + colorPremium + n*controllerPrice + hdmiPrice.
func CalculateTotalPrice(cfg ConsoleConfig) (decimal.Decimal, error) {
	base, err := cfg.ConsoleType.BasePrice()
	if err != nil {
		return decimal.Decimal{}, err
	}

	total := base.Add(controllerPrice.Mul(decimal.NewFromInt(int64(cfg.NumberOfControllers))))
	if cfg.CustomColor {
		total = total.Add(colorPremium)
	}
	if cfg.HDMISupport {
		total = total.Add(hdmiPrice)
	}
	return total, nil
}

// MarkCompleted переводит заказ pending -> completed и фиксирует CompletedAt.
func (o *Order) MarkCompleted() error {
	if o.Status == OrderStatusCompleted {
		return ErrOrderAlreadyCompleted
	}
	if o.Status == OrderStatusCancelled {
		return ErrCompleteCancelledOrder
	}

	now := time.Now().UTC()
	o.Status = OrderStatusCompleted
	o.CompletedAt = &now
	o.UpdatedAt = now
	return nil
}

// Cancel переводит заказ pending -> cancelled. CompletedAt остаётся пустым.
func (o *Order) Cancel() error {
	if o.Status == OrderStatusCompleted {
		return ErrCancelCompletedOrder
	}
	if o.Status == OrderStatusCancelled {
		return ErrOrderAlreadyCancelled
	}

	o.Status = OrderStatusCancelled
	o.UpdatedAt = time.Now().UTC()
	return nil
}

// isValidEmail требует единственный адрес вида local@domain: парсер должен
// вернуть ровно ту же строку (display name и списки адресов отбрасываются).
func isValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
