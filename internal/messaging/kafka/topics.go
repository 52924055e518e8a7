package kafka

// Топики сервиса.
const (
	// TopicOrderEvents — основной поток событий жизненного цикла заказа.
	TopicOrderEvents = "retroconf.order.events"
	// TopicDeadLetterQueue принимает события, которые не удалось доставить
	// после всех retry воркера.
	TopicDeadLetterQueue = "retroconf.dlq"
)

// Заголовки DLQ-сообщений: по ним разбирают причину сбоя и переигрывают
// событие обратно в исходный топик.
const (
	HeaderRetryCount    = "x-retry-count"
	HeaderOriginalTopic = "x-original-topic"
	HeaderErrorMessage  = "x-error-message"
	HeaderFailedAt      = "x-failed-at"
)
