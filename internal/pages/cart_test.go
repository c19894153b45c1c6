package pages

import (
	"context"
	"purchase-automation/internal/browser/browsertest"
	"purchase-automation/internal/cart"
	"purchase-automation/internal/site"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func openCart(t *testing.T, page *browsertest.Page) Cart {
	c := NewCart(newTestBaseOnly(t, page))
	require.NoError(t, c.Open(context.Background()))
	return c
}

func TestCartItems(t *testing.T) {
	ctx := context.Background()
	c := openCart(t, newShop())

	require.False(t, c.IsEmpty(ctx))
	items, err := c.Items(ctx)
	require.NoError(t, err)
	require.Equal(t, []cart.Item{
		{
			ID:         "60316",
			Name:       "LEGO City Le commissariat de police",
			Price:      49.99,
			Quantity:   2,
			TotalPrice: 99.98,
		},
		{
			ID:         "puzzle1000piècesparis",
			Name:       "Puzzle 1000 pièces Paris",
			Price:      12.9,
			Quantity:   1,
			TotalPrice: 12.9,
		},
	}, items)

	total, err := c.Total(ctx)
	require.NoError(t, err)
	require.InDelta(t, 112.88, total, 1e-9)
}

func TestCartEmpty(t *testing.T) {
	ctx := context.Background()
	page := newShop()
	page.SetRoute(site.KingJouet.CartURL, `<html><body>
		<div class="panier-vide">Votre panier est vide</div>
	</body></html>`)
	c := openCart(t, page)

	require.True(t, c.IsEmpty(ctx))
	items, err := c.Items(ctx)
	require.NoError(t, err)
	require.Empty(t, items)

	_, err = c.Total(ctx)
	require.ErrorIs(t, err, ErrElementNotFound)
}

func TestCartUpdateQuantity(t *testing.T) {
	ctx := context.Background()
	selectors := site.KingJouet.Selectors
	increase := selectors.CartItem + " " + selectors.CartItemIncrease

	page := newShop()
	page.On(increase, browsertest.Replace(strings.Replace(
		cartHTML,
		`<input class="px-2" value="1">`,
		`<input class="px-2" value="3">`,
		1,
	)))
	c := openCart(t, page)

	ok, err := c.UpdateQuantity(ctx, 0, 2)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = c.UpdateQuantity(ctx, 1, 3)
	require.NoError(t, err)
	require.True(t, ok)
	clicks := 0
	for _, entry := range page.Log() {
		if entry == "click "+increase+"#1" {
			clicks++
		}
	}
	require.Equal(t, 2, clicks)

	// the decrease button does nothing on this page
	ok, err = c.UpdateQuantity(ctx, 0, 1)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = c.UpdateQuantity(ctx, 5, 1)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestCartProceedToCheckout(t *testing.T) {
	ctx := context.Background()
	page := newShop()
	page.On(site.KingJouet.Selectors.ProceedToCheckout, browsertest.NavigateTo(deliveryURL))
	c := openCart(t, page)

	checkout, err := c.ProceedToCheckout(ctx)
	require.NoError(t, err)
	require.Equal(t, StepDelivery, checkout.Step())
}
