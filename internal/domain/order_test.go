package domain_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ichad17/retro-configurator/internal/domain"
)

// helper для создания валидной конфигурации.
func makeConfig(t *testing.T) domain.ConsoleConfig {
	t.Helper()
	cfg, err := domain.NewConsoleConfig(domain.ConsoleTypeNES, 2, false, false, "")
	if err != nil {
		t.Fatalf("test setup failed: %v", err)
	}
	return cfg
}

func makeOrder(t *testing.T) domain.Order {
	t.Helper()
	order, err := domain.NewOrder(makeConfig(t), "user@example.com")
	if err != nil {
		t.Fatalf("test setup failed: %v", err)
	}
	return order
}

func TestNewOrder_Ok(t *testing.T) {
	order := makeOrder(t)

	if order.ID == "" {
		t.Fatal("order id must be assigned")
	}
	if order.Status != domain.OrderStatusPending {
		t.Fatalf("new order must be pending, got %s", order.Status)
	}
	if order.CreatedAt.IsZero() {
		t.Fatal("created_at must be set")
	}
	if order.CompletedAt != nil {
		t.Fatal("completed_at must be empty for a new order")
	}
	// NES + 2 контроллера: 199.99 + 79.98 = 279.97.
	if want := decimal.New(27997, -2); !order.TotalPrice.Equal(want) {
		t.Fatalf("total price mismatch: got %s want %s", order.TotalPrice, want)
	}
}

func TestNewOrder_EmailErrors(t *testing.T) {
	cases := []struct {
		name  string
		email string
		want  error
	}{
		{name: "empty", email: "", want: domain.ErrCustomerEmailRequired},
		{name: "whitespace", email: "   ", want: domain.ErrCustomerEmailRequired},
		{name: "no at sign", email: "not-an-email", want: domain.ErrCustomerEmailInvalid},
		{name: "display name", email: "User <user@example.com>", want: domain.ErrCustomerEmailInvalid},
		{name: "two addresses", email: "a@example.com, b@example.com", want: domain.ErrCustomerEmailInvalid},
		{name: "missing local part", email: "@example.com", want: domain.ErrCustomerEmailInvalid},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := domain.NewOrder(makeConfig(t), tc.email)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestNewOrder_RevalidatesConfiguration(t *testing.T) {
	// Конфигурация, собранная вручную в обход NewConsoleConfig,
	// не должна превратиться в заказ.
	cases := []struct {
		name string
		cfg  domain.ConsoleConfig
		want error
	}{
		{
			name: "five controllers",
			cfg:  domain.ConsoleConfig{ConsoleType: domain.ConsoleTypeNES, NumberOfControllers: 5},
			want: domain.ErrControllerCountInvalid,
		},
		{
			name: "unknown console type",
			cfg:  domain.ConsoleConfig{ConsoleType: domain.ConsoleType(99), NumberOfControllers: 1},
			want: domain.ErrUnknownConsoleType,
		},
		{
			name: "custom color without hex",
			cfg:  domain.ConsoleConfig{ConsoleType: domain.ConsoleTypeSNES, NumberOfControllers: 1, CustomColor: true},
			want: domain.ErrColorHexRequired,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := domain.NewOrder(tc.cfg, "user@example.com")
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestCalculateTotalPrice(t *testing.T) {
	cases := []struct {
		name        string
		consoleType domain.ConsoleType
		controllers int
		hdmi        bool
		customColor bool
		want        string
	}{
		{name: "nes base", consoleType: domain.ConsoleTypeNES, controllers: 1, want: "239.98"},
		{name: "nes two pads", consoleType: domain.ConsoleTypeNES, controllers: 2, want: "279.97"},
		{name: "snes hdmi", consoleType: domain.ConsoleTypeSNES, controllers: 1, hdmi: true, want: "339.97"},
		{name: "genesis color", consoleType: domain.ConsoleTypeGenesis, controllers: 1, customColor: true, want: "299.97"},
		{name: "n64 full", consoleType: domain.ConsoleTypeN64, controllers: 4, hdmi: true, customColor: true, want: "539.93"},
		{name: "playstation max pads", consoleType: domain.ConsoleTypePlayStation, controllers: 4, want: "509.95"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			colorHex := ""
			if tc.customColor {
				colorHex = "AABBCC"
			}
			cfg, err := domain.NewConsoleConfig(tc.consoleType, tc.controllers, tc.hdmi, tc.customColor, colorHex)
			if err != nil {
				t.Fatalf("unexpected config error: %v", err)
			}

			total, err := domain.CalculateTotalPrice(cfg)
			if err != nil {
				t.Fatalf("unexpected pricing error: %v", err)
			}
			if want := decimal.RequireFromString(tc.want); !total.Equal(want) {
				t.Fatalf("total mismatch: got %s want %s", total, want)
			}
		})
	}
}

func TestCalculateTotalPrice_UnknownType(t *testing.T) {
	// Защитная ветка: через NewConsoleConfig такой конфиг не собрать.
	cfg := domain.ConsoleConfig{ConsoleType: domain.ConsoleType(99), NumberOfControllers: 1}
	if _, err := domain.CalculateTotalPrice(cfg); !errors.Is(err, domain.ErrUnknownConsoleType) {
		t.Fatalf("expected ErrUnknownConsoleType, got %v", err)
	}
}

func TestOrder_MarkCompleted(t *testing.T) {
	order := makeOrder(t)

	if err := order.MarkCompleted(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.Status != domain.OrderStatusCompleted {
		t.Fatalf("status must be completed, got %s", order.Status)
	}
	if order.CompletedAt == nil {
		t.Fatal("completed_at must be set")
	}
	if order.CompletedAt.Before(order.CreatedAt) {
		t.Fatal("completed_at must not precede created_at")
	}

	// Повторное завершение.
	if err := order.MarkCompleted(); !errors.Is(err, domain.ErrOrderAlreadyCompleted) {
		t.Fatalf("expected ErrOrderAlreadyCompleted, got %v", err)
	}
	// Отмена завершённого заказа.
	if err := order.Cancel(); !errors.Is(err, domain.ErrCancelCompletedOrder) {
		t.Fatalf("expected ErrCancelCompletedOrder, got %v", err)
	}
}

func TestOrder_Cancel(t *testing.T) {
	order := makeOrder(t)

	if err := order.Cancel(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.Status != domain.OrderStatusCancelled {
		t.Fatalf("status must be cancelled, got %s", order.Status)
	}
	if order.CompletedAt != nil {
		t.Fatal("cancel must not set completed_at")
	}

	// Повторная отмена.
	if err := order.Cancel(); !errors.Is(err, domain.ErrOrderAlreadyCancelled) {
		t.Fatalf("expected ErrOrderAlreadyCancelled, got %v", err)
	}
	// Завершение отменённого заказа.
	if err := order.MarkCompleted(); !errors.Is(err, domain.ErrCompleteCancelledOrder) {
		t.Fatalf("expected ErrCompleteCancelledOrder, got %v", err)
	}
}

func TestOrderStatus_Codes(t *testing.T) {
	cases := []struct {
		status domain.OrderStatus
		code   int
	}{
		{domain.OrderStatusPending, 1},
		{domain.OrderStatusProcessing, 2},
		{domain.OrderStatusCompleted, 3},
		{domain.OrderStatusCancelled, 4},
	}

	for _, tc := range cases {
		if got := tc.status.Code(); got != tc.code {
			t.Fatalf("code mismatch for %s: got %d want %d", tc.status, got, tc.code)
		}
		back, ok := domain.StatusFromCode(tc.code)
		if !ok || back != tc.status {
			t.Fatalf("round trip failed for code %d: got %s ok=%v", tc.code, back, ok)
		}
		if !tc.status.Valid() {
			t.Fatalf("status %s must be valid", tc.status)
		}
	}

	if _, ok := domain.StatusFromCode(0); ok {
		t.Fatal("code 0 must not map to a status")
	}
	if domain.OrderStatus("shipped").Valid() {
		t.Fatal("unknown status must be invalid")
	}
}
