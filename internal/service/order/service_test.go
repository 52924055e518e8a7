package order_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ichad17/retro-configurator/internal/domain"
	"github.com/ichad17/retro-configurator/internal/service/order"
	"github.com/ichad17/retro-configurator/internal/storage/memory"
)

func newService(t *testing.T) (*order.Service, domain.OrderRepository, domain.OutboxRepository) {
	t.Helper()
	repo := memory.NewOrderRepository()
	outbox := memory.NewOutboxRepository()
	return order.NewService(repo, outbox, nil, nil), repo, outbox
}

func validConfig(t *testing.T) domain.ConsoleConfig {
	t.Helper()
	cfg, err := domain.NewConsoleConfig(domain.ConsoleTypeNES, 2, false, false, "")
	if err != nil {
		t.Fatalf("test setup failed: %v", err)
	}
	return cfg
}

func TestService_CreateOrder(t *testing.T) {
	svc, repo, outbox := newService(t)
	cfg := validConfig(t)

	created, err := svc.CreateOrder(&cfg, "user@example.com")
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if created.ID == "" {
		t.Fatal("order id must be assigned")
	}
	if created.Status != domain.OrderStatusPending {
		t.Fatalf("new order must be pending, got %s", created.Status)
	}
	// NES + два контроллера: 199.99 + 2*39.99.
	if want := decimal.New(27997, -2); !created.TotalPrice.Equal(want) {
		t.Fatalf("unexpected total price: got %s want %s", created.TotalPrice, want)
	}

	stored, err := repo.Get(created.ID)
	if err != nil {
		t.Fatalf("created order must be persisted: %v", err)
	}
	if stored.CustomerEmail != "user@example.com" {
		t.Fatalf("unexpected stored email: %s", stored.CustomerEmail)
	}

	pending, err := outbox.PullPending(10)
	if err != nil {
		t.Fatalf("pull outbox: %v", err)
	}
	if len(pending) != 1 || pending[0].EventType != domain.EventTypeOrderCreated {
		t.Fatalf("expected one order.created event, got %+v", pending)
	}
	if pending[0].AggregateID != created.ID {
		t.Fatalf("event must reference the order: %+v", pending[0])
	}
}

func TestService_CreateOrderValidation(t *testing.T) {
	svc, _, _ := newService(t)
	cfg := validConfig(t)

	if _, err := svc.CreateOrder(nil, "user@example.com"); !errors.Is(err, domain.ErrConfigurationRequired) {
		t.Fatalf("expected ErrConfigurationRequired, got %v", err)
	}
	if _, err := svc.CreateOrder(&cfg, "   "); !errors.Is(err, domain.ErrCustomerEmailRequired) {
		t.Fatalf("expected ErrCustomerEmailRequired, got %v", err)
	}
	if _, err := svc.CreateOrder(&cfg, "not-an-email"); !errors.Is(err, domain.ErrCustomerEmailInvalid) {
		t.Fatalf("expected ErrCustomerEmailInvalid, got %v", err)
	}

	bad := cfg
	bad.NumberOfControllers = 5
	if _, err := svc.CreateOrder(&bad, "user@example.com"); !errors.Is(err, domain.ErrControllerCountInvalid) {
		t.Fatalf("expected ErrControllerCountInvalid, got %v", err)
	}
}

func TestService_GetOrder(t *testing.T) {
	svc, _, _ := newService(t)
	cfg := validConfig(t)

	created, err := svc.CreateOrder(&cfg, "user@example.com")
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	got, err := svc.GetOrder(created.ID)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if got.ID != created.ID {
		t.Fatalf("unexpected order: %+v", got)
	}

	if _, err := svc.GetOrder(""); !errors.Is(err, domain.ErrOrderIDRequired) {
		t.Fatalf("expected ErrOrderIDRequired, got %v", err)
	}
	if _, err := svc.GetOrder("missing"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestService_ListOrders(t *testing.T) {
	svc, _, _ := newService(t)
	cfg := validConfig(t)

	for _, email := range []string{"a@example.com", "b@example.com", "a@example.com"} {
		if _, err := svc.CreateOrder(&cfg, email); err != nil {
			t.Fatalf("create order failed: %v", err)
		}
	}

	all, err := svc.ListOrders(0)
	if err != nil {
		t.Fatalf("list orders failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 orders, got %d", len(all))
	}

	byEmail, err := svc.ListOrdersByEmail("a@example.com", 0)
	if err != nil {
		t.Fatalf("list by email failed: %v", err)
	}
	if len(byEmail) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(byEmail))
	}

	if _, err := svc.ListOrdersByEmail("  ", 0); !errors.Is(err, domain.ErrCustomerEmailRequired) {
		t.Fatalf("expected ErrCustomerEmailRequired, got %v", err)
	}
}

func TestService_CompleteOrder(t *testing.T) {
	svc, repo, outbox := newService(t)
	cfg := validConfig(t)

	created, err := svc.CreateOrder(&cfg, "user@example.com")
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	completed, err := svc.CompleteOrder(created.ID)
	if err != nil {
		t.Fatalf("complete order failed: %v", err)
	}
	if completed.Status != domain.OrderStatusCompleted || completed.CompletedAt == nil {
		t.Fatalf("unexpected completed order: %+v", completed)
	}

	stored, err := repo.Get(created.ID)
	if err != nil {
		t.Fatalf("get stored order: %v", err)
	}
	if stored.Status != domain.OrderStatusCompleted {
		t.Fatalf("completion not persisted: %s", stored.Status)
	}

	// Повторное завершение — ошибка перехода.
	if _, err := svc.CompleteOrder(created.ID); !errors.Is(err, domain.ErrOrderAlreadyCompleted) {
		t.Fatalf("expected ErrOrderAlreadyCompleted, got %v", err)
	}

	pending, err := outbox.PullPending(10)
	if err != nil {
		t.Fatalf("pull outbox: %v", err)
	}
	if len(pending) != 2 || pending[1].EventType != domain.EventTypeOrderCompleted {
		t.Fatalf("expected created+completed events, got %+v", pending)
	}
}

func TestService_CompleteOrderReturnsPersistedVersion(t *testing.T) {
	svc, repo, _ := newService(t)
	cfg := validConfig(t)

	created, err := svc.CreateOrder(&cfg, "user@example.com")
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	completed, err := svc.CompleteOrder(created.ID)
	if err != nil {
		t.Fatalf("complete order failed: %v", err)
	}

	stored, err := repo.Get(created.ID)
	if err != nil {
		t.Fatalf("get stored order: %v", err)
	}
	if completed.Version != stored.Version {
		t.Fatalf("returned version %d must match persisted %d", completed.Version, stored.Version)
	}

	// Возвращённое состояние пригодно для следующей записи без конфликта.
	if err := repo.Save(completed); err != nil {
		t.Fatalf("save of returned order must not conflict: %v", err)
	}
}

func TestService_CancelOrder(t *testing.T) {
	svc, _, _ := newService(t)
	cfg := validConfig(t)

	created, err := svc.CreateOrder(&cfg, "user@example.com")
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	cancelled, err := svc.CancelOrder(created.ID)
	if err != nil {
		t.Fatalf("cancel order failed: %v", err)
	}
	if cancelled.Status != domain.OrderStatusCancelled {
		t.Fatalf("unexpected cancelled order: %+v", cancelled)
	}

	if _, err := svc.CancelOrder(created.ID); !errors.Is(err, domain.ErrOrderAlreadyCancelled) {
		t.Fatalf("expected ErrOrderAlreadyCancelled, got %v", err)
	}
	if _, err := svc.CompleteOrder(created.ID); !errors.Is(err, domain.ErrCompleteCancelledOrder) {
		t.Fatalf("expected ErrCompleteCancelledOrder, got %v", err)
	}
}

func TestService_CancelCompletedOrder(t *testing.T) {
	svc, _, _ := newService(t)
	cfg := validConfig(t)

	created, err := svc.CreateOrder(&cfg, "user@example.com")
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if _, err := svc.CompleteOrder(created.ID); err != nil {
		t.Fatalf("complete order failed: %v", err)
	}

	if _, err := svc.CancelOrder(created.ID); !errors.Is(err, domain.ErrCancelCompletedOrder) {
		t.Fatalf("expected ErrCancelCompletedOrder, got %v", err)
	}
}

func TestService_DeleteOrder(t *testing.T) {
	svc, repo, _ := newService(t)
	cfg := validConfig(t)

	created, err := svc.CreateOrder(&cfg, "user@example.com")
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	if err := svc.DeleteOrder(created.ID); err != nil {
		t.Fatalf("delete order failed: %v", err)
	}
	if _, err := repo.Get(created.ID); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("order must be deleted, got %v", err)
	}

	// Удаление отсутствующего заказа — no-op.
	if err := svc.DeleteOrder(created.ID); err != nil {
		t.Fatalf("delete must be idempotent: %v", err)
	}
	if err := svc.DeleteOrder(" "); !errors.Is(err, domain.ErrOrderIDRequired) {
		t.Fatalf("expected ErrOrderIDRequired, got %v", err)
	}
}

func TestService_StorageFailureIsWrapped(t *testing.T) {
	svc := order.NewService(&failingRepo{}, nil, nil, nil)
	cfg := validConfig(t)

	if _, err := svc.CreateOrder(&cfg, "user@example.com"); !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
	if _, err := svc.ListOrders(0); !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
}

func TestService_CreateWithoutOutbox(t *testing.T) {
	// Outbox опционален: сервис без него работает и не паникует.
	svc := order.NewService(memory.NewOrderRepository(), nil, nil, nil)
	cfg := validConfig(t)

	if _, err := svc.CreateOrder(&cfg, "user@example.com"); err != nil {
		t.Fatalf("create order failed: %v", err)
	}
}

type failingRepo struct{}

func (f *failingRepo) Create(domain.Order) error { return errors.New("connection refused") }
func (f *failingRepo) Get(string) (domain.Order, error) {
	return domain.Order{}, errors.New("connection refused")
}
func (f *failingRepo) List(int) ([]domain.Order, error) {
	return nil, errors.New("connection refused")
}
func (f *failingRepo) ListByEmail(string, int) ([]domain.Order, error) {
	return nil, errors.New("connection refused")
}
func (f *failingRepo) Save(domain.Order) error { return errors.New("connection refused") }
func (f *failingRepo) Delete(string) error     { return errors.New("connection refused") }

var _ domain.OrderRepository = (*failingRepo)(nil)
