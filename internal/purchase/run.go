package purchase

import (
	"context"
	"errors"
	"fmt"
	"purchase-automation/internal/cart"
	"purchase-automation/internal/config"
	"purchase-automation/internal/db"
	"purchase-automation/internal/pages"
	"purchase-automation/internal/site"
	"purchase-automation/lib/price"
	"purchase-automation/lib/textutil"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Run buys a single product in its own browser session. The returned
// result is always filled in, even when an error is returned.
func (r Runner) Run(ctx context.Context, req Request) (Result, error) {
	req = req.normalized()

	ctx, span := tracer.Start(ctx, "Runner:Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("site", req.Product.Site),
		attribute.String("product", req.Product.ID),
		attribute.Bool("place_order", req.PlaceOrder),
	)

	result := Result{
		RunID:     uuid.NewString(),
		Site:      req.Product.Site,
		Product:   req.Product.ID,
		Quantity:  req.Product.Quantity,
		StartedAt: r.opts.Clock.Now(),
	}

	s, ok := r.sites.Lookup(req.Product.Site)
	if !ok {
		err := fmt.Errorf("%w: %q", ErrUnknownSite, req.Product.Site)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		result.Status = db.StatusFailed
		result.Err = err
		result.FinishedAt = r.opts.Clock.Now()
		return result, err
	}
	result.Site = s.Name

	// runs are recorded even when ctx is already cancelled
	err := r.history.start(context.WithoutCancel(ctx), result, req)
	if err != nil {
		r.tel.ReportBroken(report_history, "CreateRun", result.RunID, err)
	}
	r.tel.ReportDebug(
		"run started",
		"run", result.RunID,
		"site", s.Name,
		"product", req.Product.ID,
		"place_order", req.PlaceOrder,
	)

	x := &run{Runner: r, req: req, site: s, result: &result}
	err = x.execute(ctx)

	result.FinishedAt = r.opts.Clock.Now()
	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		result.Status = db.StatusFailed
		result.Err = err
	case req.PlaceOrder:
		result.Status = db.StatusSucceeded
	default:
		result.Status = db.StatusDryRun
	}

	done := context.WithoutCancel(ctx)
	err = r.history.finish(done, result)
	if err != nil {
		r.tel.ReportBroken(report_history, "FinishRun", result.RunID, err)
	}
	r.notify(done, result)
	r.tel.ReportCount(report_run_finished, 1)
	r.tel.ReportDebug(
		"run finished",
		"run", result.RunID,
		"status", result.Status,
		"step", result.Step,
		"duration", result.Duration(),
	)

	return result, result.Err
}

// run is the state of a single purchase while it goes through its steps.
type run struct {
	Runner
	req    Request
	site   site.Site
	result *Result
	base   *pages.Base
	steps  int
}

func (x *run) record(ctx context.Context, name string, ok bool, detail, screenshot string) {
	idx := x.steps
	x.steps++
	err := x.history.step(
		context.WithoutCancel(ctx),
		x.result.RunID, idx, name, ok, detail, screenshot,
		x.opts.Clock.Now(),
	)
	if err != nil {
		x.tel.ReportBroken(report_history, "AddRunStep", x.result.RunID, name, err)
	}
}

// step runs one named step of the funnel, it is traced and recorded in
// the history with a screenshot when it fails.
func (x *run) step(ctx context.Context, name string, fn func(ctx context.Context) (string, error)) error {
	ctx, span := tracer.Start(ctx, "step:"+name)
	defer span.End()

	x.result.Step = name
	detail, err := fn(ctx)
	if err == nil {
		x.tel.ReportDebug("step done", "run", x.result.RunID, "step", name, "detail", detail)
		x.record(ctx, name, true, detail, "")
		return nil
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	x.tel.ReportWarning(report_run_step, x.result.RunID, name, err)

	screenshot := ""
	if x.base != nil && ctx.Err() == nil {
		path, shotErr := x.base.TakeScreenshot(ctx, "failed_"+name)
		if shotErr == nil {
			screenshot = path
		}
	}
	x.record(ctx, name, false, err.Error(), screenshot)
	return fmt.Errorf("%s: %w", name, err)
}

// expectedCartID is how the cart identifies the product: by reference
// when the product page shows one, by name otherwise.
func expectedCartID(info pages.ProductInfo) string {
	if digits := textutil.FirstDigits(info.Reference); digits != "" {
		return digits
	}
	return textutil.NormalizeName(info.Name)
}

func (x *run) execute(ctx context.Context) error {
	session, err := x.launcher.NewSession(ctx, x.sessionOptions(x.site))
	if err != nil {
		err = fmt.Errorf("open browser session: %w", err)
		x.tel.ReportBroken(report_session, err)
		return err
	}
	defer func() {
		err := session.Close()
		if err != nil {
			x.tel.ReportWarning(report_session, "close", err)
		}
	}()
	x.base = pages.NewBase(session.Page(), x.site, x.root, x.opts.Pages)

	home := pages.NewHome(x.base)
	err = x.step(ctx, StepOpenHome, func(ctx context.Context) (string, error) {
		err := home.Open(ctx)
		return home.URL(), err
	})
	if err != nil {
		return err
	}

	if err := x.login(ctx, &home); err != nil {
		return err
	}

	product := x.req.Product

	var search pages.Search
	err = x.step(ctx, StepSearch, func(ctx context.Context) (string, error) {
		var err error
		search, err = home.Search(ctx, product.Keyword)
		if err != nil {
			return "", err
		}
		found, err := search.Products(ctx, 0)
		if err != nil {
			return "", err
		}
		if len(found) == 0 {
			return "", ErrNoResults
		}
		return fmt.Sprintf("%d results for %q", len(found), product.Keyword), nil
	})
	if err != nil {
		return err
	}

	var productPage pages.Product
	err = x.step(ctx, StepChooseResult, func(ctx context.Context) (string, error) {
		index := 0
		if product.Name != "" {
			best, err := search.BestMatch(ctx, product.Name)
			if err == nil && best >= 0 {
				index = best
			}
		}
		var err error
		productPage, err = search.OpenProduct(ctx, index)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("result %d: %s", index, productPage.URL()), nil
	})
	if err != nil {
		return err
	}

	var info pages.ProductInfo
	err = x.step(ctx, StepProductInfo, func(ctx context.Context) (string, error) {
		var err error
		info, err = productPage.Info(ctx)
		if err != nil {
			return "", err
		}
		x.result.ProductName = info.Name
		x.result.Price = info.Price
		return fmt.Sprintf("%s, %s, %s", info.Name, price.French.Format(info.Price), info.Availability), nil
	})
	if err != nil {
		return err
	}

	if product.MaxPrice > 0 {
		err = x.step(ctx, StepPriceCheck, func(ctx context.Context) (string, error) {
			limit := price.French.Format(product.MaxPrice)
			actual := price.French.Format(info.Price)
			if info.Price > product.MaxPrice && !price.Equal(info.Price, product.MaxPrice) {
				return "", fmt.Errorf("%w: %s is above %s", ErrPriceAboveLimit, actual, limit)
			}
			return fmt.Sprintf("%s within %s", actual, limit), nil
		})
		if err != nil {
			return err
		}
	}

	err = x.step(ctx, StepAddToCart, func(ctx context.Context) (string, error) {
		ok, err := productPage.AddToCart(ctx, product.Quantity)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("add to cart: %w", ErrNotConfirmed)
		}
		return fmt.Sprintf("%d added", product.Quantity), nil
	})
	if err != nil {
		return err
	}

	var cartPage pages.Cart
	err = x.step(ctx, StepOpenCart, func(ctx context.Context) (string, error) {
		var err error
		cartPage, err = productPage.GoToCart(ctx)
		return cartPage.URL(), err
	})
	if err != nil {
		return err
	}

	err = x.step(ctx, StepVerifyCart, func(ctx context.Context) (string, error) {
		return x.verifyCart(ctx, cartPage, info)
	})
	if err != nil {
		return err
	}

	var checkout pages.Checkout
	err = x.step(ctx, StepCheckout, func(ctx context.Context) (string, error) {
		var err error
		checkout, err = cartPage.ProceedToCheckout(ctx)
		return string(checkout.Step()), err
	})
	if err != nil {
		return err
	}

	err = x.step(ctx, StepDelivery, func(ctx context.Context) (string, error) {
		option := x.opts.Data.DeliveryOption
		ok, err := checkout.SelectDeliveryOption(ctx, option)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("payment step not reached, on %s: %w", checkout.Step(), ErrNotConfirmed)
		}
		return fmt.Sprintf("option %d", option), nil
	})
	if err != nil {
		return err
	}

	err = x.step(ctx, StepPayment, func(ctx context.Context) (string, error) {
		card := x.opts.Data.PaymentCard()
		if card.Number == "" {
			return "", errors.New("no payment card configured")
		}
		return "card of " + card.Owner, checkout.FillPaymentInfo(ctx, card)
	})
	if err != nil {
		return err
	}

	if !x.req.PlaceOrder {
		x.tel.ReportDebug("dry run, the order is not placed", "run", x.result.RunID)
		return nil
	}

	return x.step(ctx, StepPlaceOrder, func(ctx context.Context) (string, error) {
		ok, err := checkout.PlaceOrder(ctx)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("place order: %w", ErrNotConfirmed)
		}
		x.result.OrderNumber = checkout.OrderNumber(ctx)
		return "order " + x.result.OrderNumber, nil
	})
}

// credentials prefers the login configured for the site over the test
// user.
func (x *run) credentials() (config.Credentials, bool) {
	if x.opts.Credentials != nil {
		creds, ok := x.opts.Credentials(x.site.Name)
		if ok {
			return creds, true
		}
	}
	user := x.opts.Data.User
	if user.Email != "" && user.Password != "" {
		return config.Credentials{Email: user.Email, Password: user.Password}, true
	}
	return config.Credentials{}, false
}

func (x *run) login(ctx context.Context, home *pages.Home) error {
	creds, ok := x.credentials()
	if !ok {
		x.tel.ReportDebug("no credentials, continuing as a guest", "site", x.site.Name)
		return nil
	}

	return x.step(ctx, StepLogin, func(ctx context.Context) (string, error) {
		login, err := home.GoToLogin(ctx)
		if err != nil {
			return "", err
		}
		ok, err := login.Login(ctx, creds.Email, creds.Password)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("login as %s: %w", creds.Email, ErrNotConfirmed)
		}
		*home, err = login.GoToHome(ctx)
		return creds.Email, err
	})
}

// verifyCart checks the cart holds the product, differences with what
// was added are reported but do not stop the run.
func (x *run) verifyCart(ctx context.Context, cartPage pages.Cart, info pages.ProductInfo) (string, error) {
	items, err := cartPage.Items(ctx)
	if err != nil {
		return "", err
	}
	if len(items) == 0 {
		return "", ErrEmptyCart
	}

	x.result.Totals = cart.CalculateTotals(items)
	expected := []cart.Item{{
		ID:       expectedCartID(info),
		Name:     info.Name,
		Price:    info.Price,
		Quantity: x.req.Product.Quantity,
	}}
	x.result.Differences = cart.Verify(expected, items)
	for _, d := range x.result.Differences {
		x.tel.ReportWarning(report_cart_difference, x.result.RunID, d.String())
	}

	return fmt.Sprintf(
		"%d items, total %s, %d differences",
		len(items), price.French.Format(x.result.Totals.Total), len(x.result.Differences),
	), nil
}
