package pages

import (
	"context"
	"fmt"
	"purchase-automation/internal/site"
	"purchase-automation/lib/textutil"
	"strings"
)

const (
	report_checkout_delivery = "checkout_page.select-delivery"
	report_checkout_payment  = "checkout_page.fill-payment"
	report_checkout_place    = "checkout_page.place-order"
)

type Step string

const (
	StepIdentification Step = "identification"
	StepDelivery       Step = "delivery"
	StepPayment        Step = "payment"
	StepConfirmation   Step = "confirmation"
	StepUnknown        Step = "unknown"
)

// Card is the payment information typed into the payment step.
type Card struct {
	Owner        string
	Number       string
	Expiry       string
	SecurityCode string
}

type Checkout struct {
	*Base
}

func NewCheckout(base *Base) Checkout {
	return Checkout{Base: base}
}

// Step derives the current checkout step from the url.
func (c Checkout) Step() Step {
	return stepOf(c.URL(), c.site.CheckoutSteps)
}

func stepOf(url string, fragments site.CheckoutSteps) Step {
	url = strings.ToLower(url)
	steps := []struct {
		fragment string
		step     Step
	}{
		{fragments.Identification, StepIdentification},
		{fragments.Delivery, StepDelivery},
		{fragments.Payment, StepPayment},
		{fragments.Confirmation, StepConfirmation},
	}
	for _, s := range steps {
		if s.fragment != "" && strings.Contains(url, strings.ToLower(s.fragment)) {
			return s.step
		}
	}
	return StepUnknown
}

func (c Checkout) requireStep(step Step) error {
	current := c.Step()
	if current != step {
		return fmt.Errorf("%w: on %s, expected %s", ErrWrongStep, current, step)
	}
	return nil
}

// SelectDeliveryOption picks the delivery option at `index` and moves on,
// it returns true once the payment step is reached.
func (c Checkout) SelectDeliveryOption(ctx context.Context, index int) (bool, error) {
	ctx, span := tracer.Start(ctx, "Checkout:SelectDeliveryOption")
	defer span.End()

	err := c.requireStep(StepDelivery)
	if err != nil {
		c.tel.ReportWarning(report_checkout_delivery, err)
		return false, err
	}

	selectors := c.site.Selectors
	count, err := c.page.Count(ctx, selectors.DeliveryOptions)
	if err != nil {
		return false, err
	}
	if index < 0 || index >= count {
		err = fmt.Errorf("%w: delivery option %d of %d", ErrIndexOutOfRange, index, count)
		c.tel.ReportWarning(report_checkout_delivery, err)
		return false, err
	}

	err = c.ClickNth(ctx, selectors.DeliveryOptions, index, false)
	if err != nil {
		span.RecordError(err)
		c.tel.ReportBroken(report_checkout_delivery, err)
		return false, err
	}
	err = c.Pause(ctx)
	if err != nil {
		return false, err
	}
	err = c.Click(ctx, selectors.ProceedToCheckout)
	if err != nil {
		span.RecordError(err)
		c.tel.ReportBroken(report_checkout_delivery, err)
		return false, err
	}
	err = c.WaitForNavigation(ctx, c.site.Timeouts.CheckoutStep.Duration())
	if err != nil {
		return false, err
	}
	return c.Step() == StepPayment, nil
}

// FillPaymentInfo types the card into the payment form, the card number
// and security code never reach the logs.
func (c Checkout) FillPaymentInfo(ctx context.Context, card Card) error {
	ctx, span := tracer.Start(ctx, "Checkout:FillPaymentInfo")
	defer span.End()

	err := c.requireStep(StepPayment)
	if err != nil {
		c.tel.ReportWarning(report_checkout_payment, err)
		return err
	}

	selectors := c.site.Selectors
	fields := []struct {
		selector string
		value    string
		secret   bool
	}{
		{selectors.CardOwner, card.Owner, false},
		{selectors.CardNumber, card.Number, true},
		{selectors.CardExpiry, card.Expiry, false},
		{selectors.CardSecurityCode, card.SecurityCode, true},
	}
	for i, f := range fields {
		if i > 0 {
			err = c.Pause(ctx)
			if err != nil {
				return err
			}
		}
		if f.secret {
			err = c.FillSecret(ctx, f.selector, f.value)
		} else {
			err = c.Fill(ctx, f.selector, f.value)
		}
		if err != nil {
			span.RecordError(err)
			c.tel.ReportBroken(report_checkout_payment, f.selector, err)
			c.TakeScreenshot(ctx, "fill_payment_info_error")
			return err
		}
	}
	return nil
}

// PlaceOrder submits the order. This buys the cart for real.
func (c Checkout) PlaceOrder(ctx context.Context) (bool, error) {
	ctx, span := tracer.Start(ctx, "Checkout:PlaceOrder")
	defer span.End()

	err := c.requireStep(StepPayment)
	if err != nil {
		c.tel.ReportWarning(report_checkout_place, err)
		return false, err
	}
	err = c.Click(ctx, c.site.Selectors.PlaceOrder)
	if err != nil {
		span.RecordError(err)
		c.tel.ReportBroken(report_checkout_place, err)
		c.TakeScreenshot(ctx, "place_order_error")
		return false, err
	}
	err = c.WaitForNavigation(ctx, c.site.Timeouts.CheckoutStep.Duration())
	if err != nil {
		return false, err
	}
	return c.IsOrderConfirmed(), nil
}

func (c Checkout) IsOrderConfirmed() bool {
	return c.Step() == StepConfirmation
}

// OrderNumber reads the order number from the confirmation page, "" when
// there is none.
func (c Checkout) OrderNumber(ctx context.Context) string {
	if !c.IsOrderConfirmed() {
		return ""
	}
	selector := c.site.Selectors.OrderNumber
	if !c.IsVisible(ctx, selector, 0) {
		return ""
	}
	return textutil.FirstDigits(c.GetText(ctx, selector, ""))
}

func (c Checkout) GoToHome(ctx context.Context) (Home, error) {
	return goHome(ctx, c.Base)
}
