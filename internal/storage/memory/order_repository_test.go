package memory_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ichad17/retro-configurator/internal/domain"
	"github.com/ichad17/retro-configurator/internal/storage/memory"
)

// helper для создания заказа с заданным временем создания.
func makeOrder(t *testing.T, email string, createdAt time.Time) domain.Order {
	t.Helper()
	cfg, err := domain.NewConsoleConfig(domain.ConsoleTypeNES, 1, false, false, "")
	if err != nil {
		t.Fatalf("test setup failed: %v", err)
	}
	order, err := domain.NewOrder(cfg, email)
	if err != nil {
		t.Fatalf("test setup failed: %v", err)
	}
	order.CreatedAt = createdAt
	order.UpdatedAt = createdAt
	return order
}

func TestOrderRepository_RoundTrip(t *testing.T) {
	repo := memory.NewOrderRepository()
	order := makeOrder(t, "user@example.com", time.Now().UTC())

	if err := repo.Create(order); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	loaded, err := repo.Get(order.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	if loaded.ID != order.ID ||
		loaded.Configuration != order.Configuration ||
		!loaded.TotalPrice.Equal(order.TotalPrice) ||
		loaded.Status != order.Status ||
		!loaded.CreatedAt.Equal(order.CreatedAt) ||
		loaded.CompletedAt != nil ||
		loaded.CustomerEmail != order.CustomerEmail {
		t.Fatalf("round trip mismatch: %+v vs %+v", loaded, order)
	}
}

func TestOrderRepository_GetMissing(t *testing.T) {
	repo := memory.NewOrderRepository()
	if _, err := repo.Get("missing"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestOrderRepository_CreateDuplicate(t *testing.T) {
	repo := memory.NewOrderRepository()
	order := makeOrder(t, "user@example.com", time.Now().UTC())

	if err := repo.Create(order); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := repo.Create(order); !errors.Is(err, domain.ErrOrderVersionConflict) {
		t.Fatalf("expected ErrOrderVersionConflict, got %v", err)
	}
}

func TestOrderRepository_ListNewestFirst(t *testing.T) {
	repo := memory.NewOrderRepository()
	base := time.Now().UTC()

	// Три заказа с возрастающим created_at.
	var ids []string
	for i := 0; i < 3; i++ {
		order := makeOrder(t, "user@example.com", base.Add(time.Duration(i)*time.Minute))
		if err := repo.Create(order); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		ids = append(ids, order.ID)
	}

	orders, err := repo.List(0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(orders) != 3 {
		t.Fatalf("expected 3 orders, got %d", len(orders))
	}
	for i, want := range []string{ids[2], ids[1], ids[0]} {
		if orders[i].ID != want {
			t.Fatalf("order %d out of place: got %s want %s", i, orders[i].ID, want)
		}
	}

	limited, err := repo.List(2)
	if err != nil {
		t.Fatalf("list with limit failed: %v", err)
	}
	if len(limited) != 2 || limited[0].ID != ids[2] {
		t.Fatalf("limit not applied: %d orders", len(limited))
	}
}

func TestOrderRepository_ListByEmail(t *testing.T) {
	repo := memory.NewOrderRepository()
	base := time.Now().UTC()

	for i := 0; i < 2; i++ {
		order := makeOrder(t, "alice@example.com", base.Add(time.Duration(i)*time.Minute))
		if err := repo.Create(order); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}
	other := makeOrder(t, "bob@example.com", base)
	if err := repo.Create(other); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	orders, err := repo.ListByEmail("alice@example.com", 0)
	if err != nil {
		t.Fatalf("list by email failed: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(orders))
	}
	for _, order := range orders {
		if order.CustomerEmail != "alice@example.com" {
			t.Fatalf("foreign order in selection: %s", order.CustomerEmail)
		}
	}
	if orders[0].CreatedAt.Before(orders[1].CreatedAt) {
		t.Fatal("orders must be sorted newest first")
	}

	// Совпадение точное, регистр значим.
	none, err := repo.ListByEmail("ALICE@example.com", 0)
	if err != nil {
		t.Fatalf("list by email failed: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("email match must be exact, got %d orders", len(none))
	}
}

func TestOrderRepository_SaveVersioning(t *testing.T) {
	repo := memory.NewOrderRepository()
	order := makeOrder(t, "user@example.com", time.Now().UTC())

	if err := repo.Create(order); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := order.MarkCompleted(); err != nil {
		t.Fatalf("transition failed: %v", err)
	}
	if err := repo.Save(order); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := repo.Get(order.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if loaded.Status != domain.OrderStatusCompleted || loaded.CompletedAt == nil {
		t.Fatalf("saved state lost: %+v", loaded)
	}
	if loaded.Version != order.Version+1 {
		t.Fatalf("version must be incremented: got %d", loaded.Version)
	}

	// Повторная запись с устаревшей версией — конфликт.
	if err := repo.Save(order); !errors.Is(err, domain.ErrOrderVersionConflict) {
		t.Fatalf("expected ErrOrderVersionConflict, got %v", err)
	}

	// Save по несуществующему ID — not found.
	missing := makeOrder(t, "user@example.com", time.Now().UTC())
	if err := repo.Save(missing); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestOrderRepository_Delete(t *testing.T) {
	repo := memory.NewOrderRepository()
	order := makeOrder(t, "user@example.com", time.Now().UTC())

	if err := repo.Create(order); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := repo.Delete(order.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := repo.Get(order.ID); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("order must be gone, got %v", err)
	}

	// Повторное удаление — no-op.
	if err := repo.Delete(order.ID); err != nil {
		t.Fatalf("delete must be idempotent: %v", err)
	}
}

func TestOrderRepository_ConcurrentCreate(t *testing.T) {
	repo := memory.NewOrderRepository()

	orders := make([]domain.Order, 10)
	for i := range orders {
		orders[i] = makeOrder(t, fmt.Sprintf("user%d@example.com", i), time.Now().UTC())
	}

	done := make(chan error, len(orders))
	for _, order := range orders {
		go func(o domain.Order) {
			done <- repo.Create(o)
		}(order)
	}
	for range orders {
		if err := <-done; err != nil {
			t.Fatalf("concurrent create failed: %v", err)
		}
	}

	stored, err := repo.List(0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(stored) != len(orders) {
		t.Fatalf("expected %d orders, got %d", len(orders), len(stored))
	}
}
