package domain

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create сохраняет новый заказ. Возвращает ошибку, если запись с таким ID уже существует.
	Create(order Order) error
	// Get возвращает заказ по идентификатору или ErrOrderNotFound, если его нет.
	Get(id string) (Order, error)
	// List возвращает заказы от новых к старым с опциональным ограничением на количество.
	List(limit int) ([]Order, error)
	// ListByEmail возвращает заказы клиента с точным совпадением email, от новых к старым.
	ListByEmail(email string, limit int) ([]Order, error)
	// Save применяет обновления к заказу с учётом optimistic locking.
	Save(order Order) error
	// Delete удаляет заказ; отсутствие записи не считается ошибкой.
	// Административная операция, доменные правила на неё не распространяются.
	Delete(id string) error
}
