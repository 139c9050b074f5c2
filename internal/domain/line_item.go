package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Line item validation errors.
var (
	ErrLineItemName     = errors.New("line item name required")
	ErrLineItemValue    = errors.New("line item unit value must be positive")
	ErrLineItemQuantity = errors.New("line item quantity must be positive")
)

// LineItem is a billable product/service entry on a SaaS/Product contract.
// TotalValue is computed once when the item is created and never recomputed,
// even if a later revision of the catalog would price the item differently.
type LineItem struct {
	ID         string
	ContractID string
	Name       string
	UnitValue  decimal.Decimal
	Quantity   int
	TotalValue decimal.Decimal
	CreatedAt  time.Time
}

// NewLineItem validates the inputs and builds an item with its frozen total
// (unit value times quantity, rounded to 2 decimal places). An unset
// quantity of zero defaults to one; negative quantities are rejected.
// Invalid input returns an error and no item, leaving any target list
// unchanged.
func NewLineItem(name, unitValue string, quantity int) (LineItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return LineItem{}, ErrLineItemName
	}
	value, err := decimal.NewFromString(strings.TrimSpace(unitValue))
	if err != nil || !value.IsPositive() {
		return LineItem{}, ErrLineItemValue
	}
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		return LineItem{}, ErrLineItemQuantity
	}
	return LineItem{
		Name:       name,
		UnitValue:  value,
		Quantity:   quantity,
		TotalValue: value.Mul(decimal.NewFromInt(int64(quantity))).Round(2),
	}, nil
}

// RemoveLineItem drops the item at the given index, preserving the relative
// order of the remaining items. Out-of-range indexes are a no-op.
func RemoveLineItem(items []LineItem, index int) []LineItem {
	if index < 0 || index >= len(items) {
		return items
	}
	result := make([]LineItem, 0, len(items)-1)
	result = append(result, items[:index]...)
	result = append(result, items[index+1:]...)
	return result
}
