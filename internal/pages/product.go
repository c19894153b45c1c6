package pages

import (
	"context"
	"fmt"
	"purchase-automation/lib/htmlutil"
	"strconv"

	"go.opentelemetry.io/otel/codes"
)

const (
	report_product_info        = "product_page.info"
	report_product_price       = "product_page.parse-price"
	report_product_add_to_cart = "product_page.add-to-cart"
	report_product_go_to_cart  = "product_page.go-to-cart"
)

type ProductInfo struct {
	Name         string
	Price        float64
	Availability string
	URL          string
	Reference    string
}

type Product struct {
	*Base
}

func NewProduct(base *Base) Product {
	return Product{Base: base}
}

// Info reads the product shown on the page. A product without a readable
// price is returned with a zero price.
func (p Product) Info(ctx context.Context) (ProductInfo, error) {
	ctx, span := tracer.Start(ctx, "Product:Info")
	defer span.End()

	selectors := p.site.Selectors
	err := p.WaitForSelector(ctx, selectors.ProductTitle, p.site.Timeouts.PageLoad.Duration())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "product title not found")
		p.tel.ReportBroken(report_product_info, p.URL(), err)
		return ProductInfo{URL: p.URL()}, err
	}
	doc, err := p.Document(ctx)
	if err != nil {
		return ProductInfo{URL: p.URL()}, err
	}

	info := ProductInfo{
		Name:         htmlutil.Text(doc.Find(selectors.ProductTitle)),
		Availability: AvailabilityUnavailable,
		URL:          p.URL(),
		Reference:    htmlutil.Text(doc.Find(selectors.ProductReference)),
	}
	info.Price, err = priceOf(doc.Selection, selectors.ProductPriceEuros, selectors.ProductPriceCents)
	if err != nil {
		p.tel.ReportWarning(report_product_price, info.Name, err)
	}
	if p.addToCartButton(ctx) != "" {
		info.Availability = AvailabilityInStock
	}
	return info, nil
}

// addToCartButton returns the visible add to cart button, regular or
// pre-order, or "" when the product cannot be bought.
func (p Product) addToCartButton(ctx context.Context) string {
	selectors := p.site.Selectors
	if p.IsVisible(ctx, selectors.AddToCart, 0) {
		return selectors.AddToCart
	}
	if selectors.AddToCartPreorder != "" && p.IsVisible(ctx, selectors.AddToCartPreorder, 0) {
		return selectors.AddToCartPreorder
	}
	return ""
}

// AddToCart adds `quantity` items to the cart, it returns true once the
// shop confirmed the addition.
func (p Product) AddToCart(ctx context.Context, quantity int) (bool, error) {
	ctx, span := tracer.Start(ctx, "Product:AddToCart")
	defer span.End()

	button := p.addToCartButton(ctx)
	if button == "" {
		p.tel.ReportWarning(report_product_add_to_cart, "no add to cart button, the product is probably unavailable", p.URL())
		return false, fmt.Errorf("%w: add to cart button", ErrElementNotFound)
	}

	quantityInput := p.site.Selectors.ProductQuantity
	if quantity > 1 && quantityInput != "" && p.IsVisible(ctx, quantityInput, 0) {
		err := p.Fill(ctx, quantityInput, strconv.Itoa(quantity))
		if err != nil {
			p.tel.ReportBroken(report_product_add_to_cart, err)
			return false, err
		}
	}

	err := p.Click(ctx, button)
	if err != nil {
		span.RecordError(err)
		p.tel.ReportBroken(report_product_add_to_cart, err)
		p.TakeScreenshot(ctx, "add_to_cart_error")
		return false, err
	}
	err = p.Pause(ctx)
	if err != nil {
		return false, err
	}

	ok := p.IsVisible(ctx, p.site.Selectors.AddToCartConfirmed, p.site.Timeouts.AddToCart.Duration())
	if !ok {
		p.tel.ReportWarning(report_product_add_to_cart, "addition was not confirmed")
	}
	return ok, nil
}

// GoToCart opens the cart through the "view cart" button of the
// confirmation, falling back to the cart url.
func (p Product) GoToCart(ctx context.Context) (Cart, error) {
	cart := NewCart(p.Base)
	viewCart := p.site.Selectors.ViewCart
	if viewCart == "" || !p.IsVisible(ctx, viewCart, 0) {
		return cart, cart.Open(ctx)
	}

	err := p.Click(ctx, viewCart)
	if err == nil {
		err = p.WaitForNavigation(ctx, 0)
	}
	if err != nil {
		if isContextErr(err) {
			return cart, err
		}
		p.tel.ReportWarning(report_product_go_to_cart, err)
		return cart, cart.Open(ctx)
	}
	return cart, nil
}
