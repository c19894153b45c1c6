// Package cart computes cart totals and compares the content of a cart
// against what was expected to be in it.
package cart

import (
	"fmt"
	"purchase-automation/lib/price"
)

// TaxRate is the french VAT applied on top of the subtotal.
const TaxRate = 0.20

type Item struct {
	// ID is the shop's product id when the page exposes one, otherwise the
	// normalized product name.
	ID         string
	Name       string
	Price      float64
	Quantity   int
	TotalPrice float64
}

type Totals struct {
	Subtotal float64
	TaxRate  float64
	Taxes    float64
	Total    float64
}

// CalculateTotals sums price * quantity over the items and adds VAT, every
// amount is rounded to cents. Items with a zero quantity count once.
func CalculateTotals(items []Item) Totals {
	subtotal := 0.0
	for _, item := range items {
		quantity := item.Quantity
		if quantity == 0 {
			quantity = 1
		}
		subtotal += item.Price * float64(quantity)
	}
	taxes := subtotal * TaxRate
	return Totals{
		Subtotal: price.Round(subtotal),
		TaxRate:  TaxRate,
		Taxes:    price.Round(taxes),
		Total:    price.Round(subtotal + taxes),
	}
}

type DifferenceKind string

const (
	DifferenceMissing  DifferenceKind = "missing"
	DifferenceQuantity DifferenceKind = "quantity"
	DifferencePrice    DifferenceKind = "price"
	DifferenceExtra    DifferenceKind = "extra"
)

type Difference struct {
	Kind     DifferenceKind
	ItemID   string
	Name     string
	Expected string
	Actual   string
}

func (d Difference) String() string {
	switch d.Kind {
	case DifferenceMissing:
		return fmt.Sprintf("item %s not found in cart", d.Name)
	case DifferenceExtra:
		return fmt.Sprintf("unexpected item in cart: %s", d.Name)
	default:
		return fmt.Sprintf(
			"wrong %s for item %s: expected %s, found %s",
			d.Kind, d.Name, d.Expected, d.Actual,
		)
	}
}

// Verify compares the actual content of a cart with the expected one,
// items are matched by ID. It returns every difference found, a cart
// matches when there are none.
func Verify(expected, actual []Item) []Difference {
	var diffs []Difference

	byID := make(map[string]Item, len(actual))
	for _, item := range actual {
		if _, ok := byID[item.ID]; !ok {
			byID[item.ID] = item
		}
	}
	expectedIDs := make(map[string]bool, len(expected))

	for _, want := range expected {
		expectedIDs[want.ID] = true

		got, ok := byID[want.ID]
		if !ok {
			diffs = append(diffs, Difference{
				Kind:   DifferenceMissing,
				ItemID: want.ID,
				Name:   want.Name,
			})
			continue
		}
		if want.Quantity != got.Quantity {
			diffs = append(diffs, Difference{
				Kind:     DifferenceQuantity,
				ItemID:   want.ID,
				Name:     want.Name,
				Expected: fmt.Sprint(want.Quantity),
				Actual:   fmt.Sprint(got.Quantity),
			})
		}
		if !price.Equal(want.Price, got.Price) {
			diffs = append(diffs, Difference{
				Kind:     DifferencePrice,
				ItemID:   want.ID,
				Name:     want.Name,
				Expected: price.French.Format(want.Price),
				Actual:   price.French.Format(got.Price),
			})
		}
	}

	// only the first row of an expected item is matched, repeated rows are extra
	matched := make(map[string]bool, len(expected))
	for _, got := range actual {
		if expectedIDs[got.ID] && !matched[got.ID] {
			matched[got.ID] = true
			continue
		}
		diffs = append(diffs, Difference{
			Kind:   DifferenceExtra,
			ItemID: got.ID,
			Name:   got.Name,
		})
	}

	return diffs
}
