package domain

import (
	"errors"
	"testing"
)

func TestNewLineItem(t *testing.T) {
	item, err := NewLineItem("Licença mensal", "100.00", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := item.TotalValue.StringFixed(2); got != "300.00" {
		t.Errorf("total = %s, want 300.00", got)
	}
	if got := item.UnitValue.StringFixed(2); got != "100.00" {
		t.Errorf("unit value = %s, want 100.00", got)
	}
}

func TestNewLineItemRoundsTotal(t *testing.T) {
	item, err := NewLineItem("Hora avulsa", "0.335", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 0.335 * 3 = 1.005, rounded half away from zero at 2 places.
	if got := item.TotalValue.String(); got != "1.01" {
		t.Errorf("total = %s, want 1.01", got)
	}
}

func TestNewLineItemDefaultsQuantity(t *testing.T) {
	item, err := NewLineItem("Visita técnica", "250.00", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.Quantity != 1 {
		t.Errorf("quantity = %d, want 1", item.Quantity)
	}
	if got := item.TotalValue.StringFixed(2); got != "250.00" {
		t.Errorf("total = %s, want 250.00", got)
	}
}

func TestNewLineItemTrimsName(t *testing.T) {
	item, err := NewLineItem("  Setup  ", "10", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.Name != "Setup" {
		t.Errorf("name = %q, want %q", item.Name, "Setup")
	}
}

func TestNewLineItemValidation(t *testing.T) {
	cases := []struct {
		name      string
		itemName  string
		unitValue string
		quantity  int
		wantErr   error
	}{
		{"blank name", "   ", "10.00", 1, ErrLineItemName},
		{"empty value", "Item", "", 1, ErrLineItemValue},
		{"non numeric value", "Item", "abc", 1, ErrLineItemValue},
		{"zero value", "Item", "0", 1, ErrLineItemValue},
		{"negative value", "Item", "-5.00", 1, ErrLineItemValue},
		{"negative quantity", "Item", "10.00", -2, ErrLineItemQuantity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewLineItem(tc.itemName, tc.unitValue, tc.quantity)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestRemoveLineItem(t *testing.T) {
	items := []LineItem{{Name: "a"}, {Name: "b"}, {Name: "c"}}

	got := RemoveLineItem(items, 1)
	if len(got) != 2 || got[0].Name != "a" || got[1].Name != "c" {
		t.Fatalf("unexpected result after removal: %+v", got)
	}

	if got := RemoveLineItem(items, -1); len(got) != 3 {
		t.Error("negative index must be a no-op")
	}
	if got := RemoveLineItem(items, 3); len(got) != 3 {
		t.Error("out-of-range index must be a no-op")
	}
	if got := RemoveLineItem(nil, 0); got != nil {
		t.Error("removing from empty list must be a no-op")
	}
}
