package domain

import "errors"

var (
	// Ошибка недопустимого количества контроллеров (вне диапазона 1..4).
	ErrControllerCountInvalid = errors.New("number of controllers must be between 1 and 4")
	// Ошибка отсутствующего цвета при выбранной кастомной покраске.
	ErrColorHexRequired = errors.New("color hex is required when custom color is selected")
	// Ошибка формата цвета (не 6 hex-символов).
	ErrColorHexInvalid = errors.New("invalid hex color format")
	// ErrUnknownConsoleType — тип консоли вне закрытого перечня.
	ErrUnknownConsoleType = errors.New("unknown console type")
	// Ошибка отсутствующего email клиента.
	ErrCustomerEmailRequired = errors.New("customer email is required")
	// Ошибка формата email клиента.
	ErrCustomerEmailInvalid = errors.New("invalid email format")
	// Ошибка отсутствующей конфигурации при создании заказа.
	ErrConfigurationRequired = errors.New("configuration is required")
	// Ошибка отсутствующего идентификатора заказа.
	ErrOrderIDRequired = errors.New("order id is required")

	// ErrOrderAlreadyCompleted — повторное завершение уже завершённого заказа.
	ErrOrderAlreadyCompleted = errors.New("order is already completed")
	// ErrOrderAlreadyCancelled — повторная отмена уже отменённого заказа.
	ErrOrderAlreadyCancelled = errors.New("order is already cancelled")
	// ErrCompleteCancelledOrder — запрет перехода cancelled -> completed.
	ErrCompleteCancelledOrder = errors.New("cannot complete a cancelled order")
	// ErrCancelCompletedOrder — запрет перехода completed -> cancelled.
	ErrCancelCompletedOrder = errors.New("cannot cancel a completed order")

	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderVersionConflict сигнализирует о конфликте версий при сохранении.
	ErrOrderVersionConflict = errors.New("order version conflict")
	// ErrStorageUnavailable — обобщённая ошибка недоступности хранилища.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// Ошибки idempotency-слоя.
	ErrIdempotencyKeyRequired         = errors.New("idempotency key is required")
	ErrIdempotencyRequestHashRequired = errors.New("idempotency request hash is required")
	ErrIdempotencyKeyAlreadyExists    = errors.New("idempotency key already exists")
	ErrIdempotencyHashMismatch        = errors.New("idempotency key is already used with different request payload")
	ErrIdempotencyKeyNotFound         = errors.New("idempotency key not found")

	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// IsValidationError проверяет, относится ли ошибка к некорректному входу.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrControllerCountInvalid) ||
		errors.Is(err, ErrColorHexRequired) ||
		errors.Is(err, ErrColorHexInvalid) ||
		errors.Is(err, ErrUnknownConsoleType) ||
		errors.Is(err, ErrCustomerEmailRequired) ||
		errors.Is(err, ErrCustomerEmailInvalid) ||
		errors.Is(err, ErrConfigurationRequired) ||
		errors.Is(err, ErrOrderIDRequired)
}

// IsInvalidTransition проверяет, является ли ошибка нарушением графа переходов.
func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrOrderAlreadyCompleted) ||
		errors.Is(err, ErrOrderAlreadyCancelled) ||
		errors.Is(err, ErrCompleteCancelledOrder) ||
		errors.Is(err, ErrCancelCompletedOrder)
}

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrOrderVersionConflict)
}
