package pages

import (
	"context"
	"purchase-automation/internal/browser/browsertest"
	"purchase-automation/internal/site"
	"purchase-automation/internal/telemetry/telemetrytest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func openCheckout(t *testing.T, page *browsertest.Page, url string) (Checkout, *telemetrytest.Recorder) {
	base, tel := newTestBase(t, page)
	require.NoError(t, base.Navigate(context.Background(), url))
	return NewCheckout(base), tel
}

func TestStepOf(t *testing.T) {
	steps := site.KingJouet.CheckoutSteps
	testCases := []struct {
		url      string
		expected Step
	}{
		{"https://www.king-jouet.com/exec/commande/identification.aspx", StepIdentification},
		{deliveryURL, StepDelivery},
		{"https://www.king-jouet.com/exec/commande/PAIEMENT.aspx?x=1", StepPayment},
		{confirmationURL, StepConfirmation},
		{site.KingJouet.CartURL, StepUnknown},
		{"", StepUnknown},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.expected, stepOf(tc.url, steps), tc.url)
	}

	require.Equal(t, StepUnknown, stepOf(deliveryURL, site.CheckoutSteps{}))
}

func TestCheckoutDelivery(t *testing.T) {
	ctx := context.Background()
	selectors := site.KingJouet.Selectors

	page := newShop()
	page.On(selectors.ProceedToCheckout, browsertest.NavigateTo(paymentURL))

	checkout, _ := openCheckout(t, page, paymentURL)
	_, err := checkout.SelectDeliveryOption(ctx, 0)
	require.ErrorIs(t, err, ErrWrongStep)

	checkout, _ = openCheckout(t, page, deliveryURL)
	_, err = checkout.SelectDeliveryOption(ctx, 2)
	require.ErrorIs(t, err, ErrIndexOutOfRange)

	ok, err := checkout.SelectDeliveryOption(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, StepPayment, checkout.Step())
	require.Contains(t, page.Log(), "click "+selectors.DeliveryOptions+"#1")
}

func TestCheckoutPayment(t *testing.T) {
	ctx := context.Background()
	selectors := site.KingJouet.Selectors
	card := Card{
		Owner:        "Jane Doe",
		Number:       "4111111111111111",
		Expiry:       "03/30",
		SecurityCode: "737",
	}

	page := newShop()
	page.On(selectors.PlaceOrder, browsertest.NavigateTo(confirmationURL))

	checkout, _ := openCheckout(t, page, deliveryURL)
	require.ErrorIs(t, checkout.FillPaymentInfo(ctx, card), ErrWrongStep)
	_, err := checkout.PlaceOrder(ctx)
	require.ErrorIs(t, err, ErrWrongStep)

	checkout, tel := openCheckout(t, page, paymentURL)
	require.NoError(t, checkout.FillPaymentInfo(ctx, card))
	require.Equal(t, map[string]string{
		selectors.CardOwner:        "Jane Doe",
		selectors.CardNumber:       "4111111111111111",
		selectors.CardExpiry:       "03/30",
		selectors.CardSecurityCode: "737",
	}, page.Fills())
	require.NotContains(t, tel.Dump(), "4111111111111111")
	require.NotContains(t, tel.Dump(), "737")
	require.Equal(t, "", checkout.OrderNumber(ctx))
	require.False(t, checkout.IsOrderConfirmed())

	ok, err := checkout.PlaceOrder(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, checkout.IsOrderConfirmed())
	require.Equal(t, "004512789", checkout.OrderNumber(ctx))
}

func TestCheckoutGoToHome(t *testing.T) {
	ctx := context.Background()
	page := newShop()
	page.On(site.KingJouet.Selectors.Logo, browsertest.NavigateTo(homeURL))
	checkout, _ := openCheckout(t, page, confirmationURL)

	home, err := checkout.GoToHome(ctx)
	require.NoError(t, err)
	require.Equal(t, homeURL, home.URL())
	require.True(t, strings.HasSuffix(page.Log()[len(page.Log())-1], homeURL))
}
