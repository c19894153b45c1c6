package pages

import (
	"context"
	"fmt"
	"purchase-automation/internal/cart"
	"purchase-automation/lib/htmlutil"
	"purchase-automation/lib/price"
	"purchase-automation/lib/textutil"

	"github.com/PuerkitoBio/goquery"
)

const (
	report_cart_items    = "cart_page.items"
	report_cart_total    = "cart_page.total"
	report_cart_quantity = "cart_page.update-quantity"
	report_cart_checkout = "cart_page.proceed-to-checkout"
)

// productIDAttributes are the attributes a cart row may carry its product
// id in.
var productIDAttributes = []string{"data-product-id", "data-id", "data-ref"}

type Cart struct {
	*Base
}

func NewCart(base *Base) Cart {
	return Cart{Base: base}
}

func (c Cart) Open(ctx context.Context) error {
	return c.Navigate(ctx, c.site.CartURL)
}

// IsEmpty reports whether the cart shows its empty message or has no rows.
func (c Cart) IsEmpty(ctx context.Context) bool {
	selectors := c.site.Selectors
	if selectors.CartEmpty != "" && c.IsVisible(ctx, selectors.CartEmpty, 0) {
		return true
	}
	count, err := c.page.Count(ctx, selectors.CartItem)
	return err == nil && count == 0
}

func quantityOf(row *goquery.Selection, selector string) int {
	el := row.Find(selector).First()
	if el.Length() == 0 {
		return 1
	}
	text, ok := el.Attr("value")
	if !ok {
		text = htmlutil.Text(el)
	}
	n, ok := textutil.FirstInt(text)
	if !ok {
		return 1
	}
	return n
}

func (c Cart) rows(ctx context.Context) (*goquery.Selection, error) {
	if c.IsEmpty(ctx) {
		return &goquery.Selection{}, nil
	}
	err := c.WaitForSelector(ctx, c.site.Selectors.CartItem, c.site.Timeouts.PageLoad.Duration())
	if err != nil {
		return nil, err
	}
	doc, err := c.Document(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Find(c.site.Selectors.CartItem), nil
}

// Items reads the rows of the cart.
func (c Cart) Items(ctx context.Context) ([]cart.Item, error) {
	ctx, span := tracer.Start(ctx, "Cart:Items")
	defer span.End()

	rows, err := c.rows(ctx)
	if err != nil {
		span.RecordError(err)
		c.tel.ReportBroken(report_cart_items, err)
		c.TakeScreenshot(ctx, "get_cart_items_error")
		return nil, err
	}

	selectors := c.site.Selectors
	items := make([]cart.Item, 0, rows.Length())
	rows.Each(func(i int, row *goquery.Selection) {
		name := htmlutil.Text(row.Find(selectors.CartItemName).First())
		if name == "" {
			name = unknownProductName
		}
		amount, err := priceOf(row, selectors.CartItemPriceEuros, selectors.CartItemPriceCents)
		if err != nil {
			c.tel.ReportWarning(report_cart_items, "parse price", i, name, err)
		}
		quantity := quantityOf(row, selectors.CartItemQuantity)

		id := textutil.NormalizeName(name)
		for _, attr := range productIDAttributes {
			if value, ok := row.Attr(attr); ok && value != "" {
				id = value
				break
			}
		}

		items = append(items, cart.Item{
			ID:         id,
			Name:       name,
			Price:      amount,
			Quantity:   quantity,
			TotalPrice: price.Round(amount * float64(quantity)),
		})
	})
	return items, nil
}

// Total reads the total amount shown by the cart.
func (c Cart) Total(ctx context.Context) (float64, error) {
	text := c.GetText(ctx, c.site.Selectors.CartTotal, "")
	if text == "" {
		return 0, fmt.Errorf("%w: %s", ErrElementNotFound, c.site.Selectors.CartTotal)
	}
	total, err := price.Parse(text)
	if err != nil {
		c.tel.ReportWarning(report_cart_total, text, err)
		return 0, err
	}
	return total, nil
}

// UpdateQuantity clicks the +/- buttons of the row at `index` until it
// holds `quantity` items, it returns whether the cart shows the new
// quantity afterwards.
func (c Cart) UpdateQuantity(ctx context.Context, index, quantity int) (bool, error) {
	ctx, span := tracer.Start(ctx, "Cart:UpdateQuantity")
	defer span.End()

	items, err := c.Items(ctx)
	if err != nil {
		return false, err
	}
	if index < 0 || index >= len(items) {
		err = fmt.Errorf("%w: item %d of %d", ErrIndexOutOfRange, index, len(items))
		c.tel.ReportWarning(report_cart_quantity, err)
		return false, err
	}

	current := items[index].Quantity
	if current == quantity {
		return true, nil
	}
	button := c.site.Selectors.CartItemIncrease
	clicks := quantity - current
	if clicks < 0 {
		button = c.site.Selectors.CartItemDecrease
		clicks = -clicks
	}
	// one +/- pair per row
	selector := c.site.Selectors.CartItem + " " + button
	for range clicks {
		err = c.ClickNth(ctx, selector, index, false)
		if err != nil {
			c.tel.ReportBroken(report_cart_quantity, err)
			c.TakeScreenshot(ctx, "update_quantity_error")
			return false, err
		}
		err = c.Pause(ctx)
		if err != nil {
			return false, err
		}
	}
	err = c.WaitForNavigation(ctx, c.site.Timeouts.AddToCart.Duration())
	if err != nil {
		return false, err
	}

	items, err = c.Items(ctx)
	if err != nil {
		return false, err
	}
	return index < len(items) && items[index].Quantity == quantity, nil
}

// ProceedToCheckout leaves the cart for the first checkout step. The
// checkout page is returned even when the click failed so the caller can
// inspect where the browser ended up.
func (c Cart) ProceedToCheckout(ctx context.Context) (Checkout, error) {
	ctx, span := tracer.Start(ctx, "Cart:ProceedToCheckout")
	defer span.End()

	err := c.Click(ctx, c.site.Selectors.ProceedToCheckout)
	if err == nil {
		err = c.WaitForNavigation(ctx, c.site.Timeouts.CheckoutStep.Duration())
	}
	if err != nil {
		span.RecordError(err)
		c.tel.ReportBroken(report_cart_checkout, err)
		c.TakeScreenshot(ctx, "proceed_to_checkout_error")
	}
	return NewCheckout(c.Base), err
}
