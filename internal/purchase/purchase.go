// Package purchase drives a site through its whole purchase funnel, from
// the home page to the order confirmation, and keeps the history of runs.
package purchase

import (
	"context"
	"errors"
	"fmt"
	"purchase-automation/internal/assert"
	"purchase-automation/internal/browser"
	"purchase-automation/internal/cart"
	"purchase-automation/internal/chrono"
	"purchase-automation/internal/config"
	"purchase-automation/internal/pages"
	"purchase-automation/internal/site"
	"purchase-automation/internal/telemetry"
	"purchase-automation/lib/price"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("purchase_automation.purchase")

var (
	ErrUnknownSite     = errors.New("unknown site")
	ErrPriceAboveLimit = errors.New("price above limit")
	ErrEmptyCart       = errors.New("cart is empty")
	ErrNoResults       = errors.New("search returned no results")
	ErrNotConfirmed    = errors.New("not confirmed by the site")
)

const (
	report_run_step        = "purchase.run-step"
	report_run_finished    = "purchase.run-finished"
	report_history         = "purchase.history"
	report_session         = "purchase.session"
	report_cart_difference = "purchase.cart-difference"
	report_notify          = "purchase.notify"
)

// names of the steps recorded in the run history
const (
	StepOpenHome     = "open_home"
	StepLogin        = "login"
	StepSearch       = "search"
	StepChooseResult = "choose_result"
	StepProductInfo  = "product_info"
	StepPriceCheck   = "price_check"
	StepAddToCart    = "add_to_cart"
	StepOpenCart     = "open_cart"
	StepVerifyCart   = "verify_cart"
	StepCheckout     = "checkout"
	StepDelivery     = "delivery"
	StepPayment      = "payment"
	StepPlaceOrder   = "place_order"
)

type Request struct {
	Product Product
	// PlaceOrder must be set for the order to actually be placed, runs
	// stop after filling the payment form otherwise.
	PlaceOrder bool
}

func (r Request) normalized() Request {
	r.Product.ID = strings.TrimSpace(r.Product.ID)
	if strings.TrimSpace(r.Product.Keyword) == "" {
		r.Product.Keyword = r.Product.ID
	}
	if r.Product.Quantity <= 0 {
		r.Product.Quantity = 1
	}
	return r
}

type Result struct {
	RunID   string
	Site    string
	Product string
	Status  string
	// Step is the last step reached, the failing one when Err is set.
	Step        string
	ProductName string
	Price       float64
	Quantity    int
	Totals      cart.Totals
	Differences []cart.Difference
	OrderNumber string
	Err         error
	StartedAt   time.Time
	FinishedAt  time.Time
}

func (r Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Summary is the plain text body of the notification sent for the run.
func (r Result) Summary() string {
	var out strings.Builder
	fmt.Fprintf(&out, "run %s on %s: %s\n", r.RunID, r.Site, r.Status)
	fmt.Fprintf(&out, "product: %s", r.Product)
	if r.ProductName != "" {
		fmt.Fprintf(&out, " (%s, %s)", r.ProductName, price.French.Format(r.Price))
	}
	fmt.Fprintf(&out, "\nquantity: %d\n", r.Quantity)
	if r.Totals.Total > 0 {
		fmt.Fprintf(&out, "cart total: %s\n", price.French.Format(r.Totals.Total))
	}
	for _, d := range r.Differences {
		fmt.Fprintf(&out, "cart difference: %s\n", d)
	}
	if r.OrderNumber != "" {
		fmt.Fprintf(&out, "order number: %s\n", r.OrderNumber)
	}
	fmt.Fprintf(&out, "last step: %s\n", r.Step)
	if r.Err != nil {
		fmt.Fprintf(&out, "error: %v\n", r.Err)
	}
	fmt.Fprintf(&out, "duration: %s\n", r.Duration().Round(time.Millisecond))
	return out.String()
}

type Notifier interface {
	Notify(ctx context.Context, subject, message string) error
}

type Options struct {
	Pages           pages.Options
	RunMode         config.RunMode
	MaxParallelRuns int
	Data            TestData
	// Credentials returns the login of a site, runs continue as a guest
	// when it is nil or reports no login.
	Credentials func(siteName string) (config.Credentials, bool)
	Clock       chrono.TimeAPI
}

type Runner struct {
	launcher browser.Launcher
	sites    *site.Registry
	history  History
	notifier Notifier
	root     telemetry.API
	tel      telemetry.API
	opts     Options
}

func NewRunner(
	launcher browser.Launcher,
	sites *site.Registry,
	history History,
	notifier Notifier,
	tel telemetry.API,
	opts Options,
) Runner {
	assert.NotNil(launcher)
	assert.NotNil(sites)
	assert.NotNil(notifier)
	assert.NotNil(tel)

	if opts.Clock == nil {
		opts.Clock = chrono.NewStandardTime()
	}
	if opts.Pages.Clock == nil {
		opts.Pages.Clock = opts.Clock
	}
	if opts.RunMode == "" {
		opts.RunMode = config.Sequential
	}
	if opts.MaxParallelRuns <= 0 {
		opts.MaxParallelRuns = config.DefaultParallelRun
	}

	return Runner{
		launcher: launcher,
		sites:    sites,
		history:  history,
		notifier: notifier,
		root:     tel,
		tel:      telemetry.NewScopedAPI("purchase", tel),
		opts:     opts,
	}
}

func (r Runner) sessionOptions(s site.Site) browser.SessionOptions {
	return browser.SessionOptions{
		ViewportWidth:  s.Viewport.Width,
		ViewportHeight: s.Viewport.Height,
		UserAgent:      s.UserAgent,
		Locale:         s.Locale,
		DefaultTimeout: r.opts.Pages.DefaultTimeout,
	}
}

func (r Runner) notify(ctx context.Context, result Result) {
	subject := fmt.Sprintf("[%s] %s %s", result.Status, result.Site, result.Product)
	err := r.notifier.Notify(ctx, subject, result.Summary())
	if err != nil {
		r.tel.ReportWarning(report_notify, result.RunID, err)
	}
}
