package payment

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestMockService(t *testing.T) {
	mock := NewMockService()
	if mock == nil {
		t.Fatal("expected non-nil mock")
	}

	intentID, err := mock.CreateIntent(decimal.New(19999, -2), "USD")
	if err != nil {
		t.Fatalf("unexpected create intent error: %v", err)
	}
	if intentID != "intent-mock" {
		t.Fatalf("unexpected intent id: %s", intentID)
	}

	confirmed, err := mock.Confirm(intentID)
	if err != nil {
		t.Fatalf("unexpected confirm error: %v", err)
	}
	if !confirmed {
		t.Fatal("expected confirmed payment")
	}

	if _, err := mock.CreateIntent(decimal.Zero, "USD"); err == nil {
		t.Fatal("expected error for non-positive amount")
	}

	mock.IntentErr = errors.New("provider down")
	mock.ConfirmErr = errors.New("provider down")

	if _, err := mock.CreateIntent(decimal.New(100, 0), "USD"); err == nil {
		t.Fatal("expected create intent error")
	}
	if _, err := mock.Confirm("intent-mock"); err == nil {
		t.Fatal("expected confirm error")
	}

	if mock.CreateCalls != 3 || mock.ConfirmCalls != 2 {
		t.Fatalf("unexpected call counters: create=%d confirm=%d", mock.CreateCalls, mock.ConfirmCalls)
	}
}
