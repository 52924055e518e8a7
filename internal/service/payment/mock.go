package payment

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ichad17/retro-configurator/internal/domain"
)

// MockService — конфигурируемая заглушка PaymentService для тестов
// и локального окружения без платёжного провайдера.
type MockService struct {
	IntentID  string
	IntentErr error

	Confirmed  bool
	ConfirmErr error

	CreateCalls  int
	ConfirmCalls int
}

// NewMockService возвращает mock с успешным сценарием по умолчанию.
func NewMockService() *MockService {
	return &MockService{
		IntentID:  "intent-mock",
		Confirmed: true,
	}
}

// CreateIntent возвращает заранее настроенный идентификатор и считает вызовы.
func (m *MockService) CreateIntent(amount decimal.Decimal, currency string) (string, error) {
	m.CreateCalls++
	if m.IntentErr != nil {
		return "", m.IntentErr
	}
	if amount.IsNegative() || amount.IsZero() {
		return "", fmt.Errorf("payment amount must be positive, got %s", amount)
	}
	return m.IntentID, nil
}

// Confirm возвращает настроенный результат и считает вызовы.
func (m *MockService) Confirm(intentID string) (bool, error) {
	m.ConfirmCalls++
	if m.ConfirmErr != nil {
		return false, m.ConfirmErr
	}
	return m.Confirmed, nil
}

var _ domain.PaymentService = (*MockService)(nil)
