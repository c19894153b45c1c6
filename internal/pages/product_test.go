package pages

import (
	"context"
	"purchase-automation/internal/browser/browsertest"
	"purchase-automation/internal/site"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func openProduct(t *testing.T, page *browsertest.Page, url string) Product {
	base := newTestBaseOnly(t, page)
	require.NoError(t, base.Navigate(context.Background(), url))
	return NewProduct(base)
}

func TestProductInfo(t *testing.T) {
	ctx := context.Background()
	product := openProduct(t, newShop(), productURL)

	info, err := product.Info(ctx)
	require.NoError(t, err)
	require.Equal(t, ProductInfo{
		Name:         "LEGO City Le commissariat de police",
		Price:        49.99,
		Availability: AvailabilityInStock,
		URL:          productURL,
		Reference:    "Réf. 60316",
	}, info)

	product = openProduct(t, newShop(), site.KingJouet.CartURL)
	info, err = product.Info(ctx)
	require.ErrorIs(t, err, ErrElementNotFound)
	require.Equal(t, site.KingJouet.CartURL, info.URL)
}

func TestProductAddToCart(t *testing.T) {
	ctx := context.Background()
	selectors := site.KingJouet.Selectors

	t.Run("confirmed", func(t *testing.T) {
		page := newShop()
		page.On(selectors.AddToCart, browsertest.Replace(productAddedHTML))
		page.On(selectors.ViewCart, browsertest.NavigateTo(site.KingJouet.CartURL))
		product := openProduct(t, page, productURL)

		ok, err := product.AddToCart(ctx, 2)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "2", page.Fills()[selectors.ProductQuantity])

		cart, err := product.GoToCart(ctx)
		require.NoError(t, err)
		require.Equal(t, site.KingJouet.CartURL, cart.URL())
		require.Contains(t, page.Log(), "click "+selectors.ViewCart+"#0")
	})

	t.Run("not confirmed", func(t *testing.T) {
		page := newShop()
		product := openProduct(t, page, productURL)

		ok, err := product.AddToCart(ctx, 1)
		require.NoError(t, err)
		require.False(t, ok)
		require.NotContains(t, page.Fills(), selectors.ProductQuantity)

		// without the confirmation the cart is reached through its url
		cart, err := product.GoToCart(ctx)
		require.NoError(t, err)
		require.Equal(t, site.KingJouet.CartURL, cart.URL())
	})

	t.Run("pre-order", func(t *testing.T) {
		page := newShop()
		page.SetRoute(productURL, strings.Replace(
			productHTML,
			`<button id="addToCartWebBtn">`,
			`<button id="addToCartPrecoBtn">`,
			1,
		))
		page.On(selectors.AddToCartPreorder, browsertest.Replace(productAddedHTML))
		product := openProduct(t, page, productURL)

		ok, err := product.AddToCart(ctx, 1)
		require.NoError(t, err)
		require.True(t, ok)
		require.Contains(t, page.Log(), "click "+selectors.AddToCartPreorder+"#0")
	})

	t.Run("unavailable", func(t *testing.T) {
		product := openProduct(t, newShop(), site.KingJouet.CartURL)
		ok, err := product.AddToCart(ctx, 1)
		require.ErrorIs(t, err, ErrElementNotFound)
		require.False(t, ok)
	})
}
