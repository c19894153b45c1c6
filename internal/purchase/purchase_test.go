package purchase

import (
	"context"
	"errors"
	"purchase-automation/internal/browser/browsertest"
	"purchase-automation/internal/cart"
	"purchase-automation/internal/chrono"
	"purchase-automation/internal/config"
	"purchase-automation/internal/db"
	"purchase-automation/internal/humanize"
	"purchase-automation/internal/pages"
	"purchase-automation/internal/pages/pagestest"
	"purchase-automation/internal/site"
	"purchase-automation/internal/telemetry/telemetrytest"
	"purchase-automation/lib/fakedata"
	"purchase-automation/lib/testutil"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 5, 1, 14, 30, 0, 0, time.UTC)

var testData = TestData{
	Card: fakedata.Card{
		Owner:        "Jane Doe",
		Number:       "4111111111111111",
		Expiry:       "03/30",
		SecurityCode: "737",
	},
	DeliveryOption: 1,
}

var legoCity = Product{
	ID:       "60316",
	Site:     "kingjouet",
	Keyword:  "lego",
	Name:     "LEGO City commissariat",
	Quantity: 2,
	MaxPrice: 60,
}

type notification struct {
	subject string
	message string
}

type recordingNotifier struct {
	mutex sync.Mutex
	sent  []notification
	err   error
}

func (n *recordingNotifier) Notify(_ context.Context, subject, message string) error {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	n.sent = append(n.sent, notification{subject: subject, message: message})
	return n.err
}

func (n *recordingNotifier) Sent() []notification {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	return append([]notification(nil), n.sent...)
}

type fixture struct {
	runner   Runner
	launcher *browsertest.Launcher
	history  History
	notifier *recordingNotifier
	tel      *telemetrytest.Recorder
}

func setup(t *testing.T, opts Options) fixture {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "purchase",
		DbSchema: db.Schema,
	})
	t.Cleanup(cleanup)

	launcher := &browsertest.Launcher{NewPage: pagestest.NewFunnel}
	history := NewHistory(db.New(res.DB), db.NewMakeTx(res.DB))
	notifier := &recordingNotifier{}
	tel := &telemetrytest.Recorder{}

	opts.Pages.ScreenshotDir = t.TempDir()
	opts.Pages.Pacer = humanize.NoPacer{}
	opts.Clock = chrono.FixedTime(testNow)
	if opts.Data.Card.Number == "" {
		opts.Data = testData
	}

	return fixture{
		runner:   NewRunner(launcher, site.NewRegistry(), history, notifier, tel, opts),
		launcher: launcher,
		history:  history,
		notifier: notifier,
		tel:      tel,
	}
}

func stepNames(steps []db.RunStep) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.Name
	}
	return out
}

func TestRunDryRun(t *testing.T) {
	ctx := context.Background()
	f := setup(t, Options{})

	result, err := f.runner.Run(ctx, Request{Product: legoCity})
	require.NoError(t, err)
	require.Equal(t, db.StatusDryRun, result.Status)
	require.Equal(t, StepPayment, result.Step)
	require.Equal(t, "kingjouet", result.Site)
	require.Equal(t, "LEGO City Le commissariat de police", result.ProductName)
	require.Equal(t, 49.99, result.Price)
	require.Equal(t, "", result.OrderNumber)
	require.InDelta(t, 112.88, result.Totals.Subtotal, 1e-9)

	// the puzzle already sat in the cart
	require.Len(t, result.Differences, 1)
	require.Equal(t, cart.DifferenceExtra, result.Differences[0].Kind)

	pagesOpened := f.launcher.Pages()
	require.Len(t, pagesOpened, 1)
	page := pagesOpened[0]
	require.True(t, page.Closed())
	require.Equal(t, "2", page.Fills()[site.KingJouet.Selectors.ProductQuantity])
	require.Equal(t, "4111111111111111", page.Fills()[site.KingJouet.Selectors.CardNumber])
	for _, entry := range page.Log() {
		require.NotEqual(t, "click "+site.KingJouet.Selectors.PlaceOrder+"#0", entry)
	}
	require.Contains(t, page.Log(), "click "+site.KingJouet.Selectors.DeliveryOptions+"#1")

	run, steps, err := f.history.Run(ctx, result.RunID)
	require.NoError(t, err)
	require.Equal(t, db.StatusDryRun, run.Status)
	require.Equal(t, "60316", run.Product)
	require.Equal(t, "lego", run.Keyword)
	require.EqualValues(t, 2, run.Quantity)
	require.True(t, run.FinishedAt.Valid)
	require.Equal(t, []string{
		StepOpenHome,
		StepSearch,
		StepChooseResult,
		StepProductInfo,
		StepPriceCheck,
		StepAddToCart,
		StepOpenCart,
		StepVerifyCart,
		StepCheckout,
		StepDelivery,
		StepPayment,
	}, stepNames(steps))
	for _, s := range steps {
		require.True(t, s.Ok, s.Name)
	}

	sent := f.notifier.Sent()
	require.Len(t, sent, 1)
	require.Equal(t, "[dry_run] kingjouet 60316", sent[0].subject)
	require.Contains(t, sent[0].message, "cart difference")
	require.NotContains(t, f.tel.Dump(), "4111111111111111")
}

func TestRunPlacesOrder(t *testing.T) {
	ctx := context.Background()
	f := setup(t, Options{})

	result, err := f.runner.Run(ctx, Request{Product: legoCity, PlaceOrder: true})
	require.NoError(t, err)
	require.Equal(t, db.StatusSucceeded, result.Status)
	require.Equal(t, StepPlaceOrder, result.Step)
	require.Equal(t, "004512789", result.OrderNumber)

	run, _, err := f.history.Run(ctx, result.RunID)
	require.NoError(t, err)
	require.Equal(t, "004512789", run.OrderNumber)
	require.True(t, run.PlaceOrder)
}

func TestRunPriceAboveLimit(t *testing.T) {
	ctx := context.Background()
	f := setup(t, Options{})

	product := legoCity
	product.MaxPrice = 20
	result, err := f.runner.Run(ctx, Request{Product: product, PlaceOrder: true})
	require.ErrorIs(t, err, ErrPriceAboveLimit)
	require.Equal(t, db.StatusFailed, result.Status)
	require.Equal(t, StepPriceCheck, result.Step)

	page := f.launcher.Pages()[0]
	require.NotContains(t, page.Log(), "click "+site.KingJouet.Selectors.AddToCart+"#0")
	require.True(t, page.Closed())

	run, steps, err := f.history.Run(ctx, result.RunID)
	require.NoError(t, err)
	require.Equal(t, db.StatusFailed, run.Status)
	require.Equal(t, StepPriceCheck, run.Step)
	require.Contains(t, run.Error, "price above limit")

	last := steps[len(steps)-1]
	require.Equal(t, StepPriceCheck, last.Name)
	require.False(t, last.Ok)
	require.True(t, strings.HasSuffix(last.Screenshot, ".png"), last.Screenshot)
	require.True(t, f.tel.Has(telemetrytest.Warning, report_run_step))

	sent := f.notifier.Sent()
	require.Len(t, sent, 1)
	require.Equal(t, "[failed] kingjouet 60316", sent[0].subject)
}

func TestRunUnknownSite(t *testing.T) {
	f := setup(t, Options{})

	result, err := f.runner.Run(context.Background(), Request{Product: Product{ID: "1", Site: "nowhere"}})
	require.ErrorIs(t, err, ErrUnknownSite)
	require.Equal(t, db.StatusFailed, result.Status)
	require.Empty(t, f.launcher.Pages())

	runs, err := f.history.Recent(context.Background(), "", 10)
	require.NoError(t, err)
	require.Empty(t, runs)
}

func TestRunEmptyCart(t *testing.T) {
	ctx := context.Background()
	f := setup(t, Options{})
	f.launcher.NewPage = func() *browsertest.Page {
		page := pagestest.NewFunnel()
		page.SetRoute(site.KingJouet.CartURL, `<html><body><div class="panier-vide">Votre panier est vide</div></body></html>`)
		return page
	}

	result, err := f.runner.Run(ctx, Request{Product: legoCity})
	require.ErrorIs(t, err, ErrEmptyCart)
	require.Equal(t, StepVerifyCart, result.Step)
}

func TestRunLogsIn(t *testing.T) {
	ctx := context.Background()
	selectors := site.KingJouet.Selectors

	t.Run("configured credentials", func(t *testing.T) {
		f := setup(t, Options{
			Credentials: func(siteName string) (config.Credentials, bool) {
				require.Equal(t, "kingjouet", siteName)
				return config.Credentials{Email: "jane@example.com", Password: "hunter2"}, true
			},
		})
		result, err := f.runner.Run(ctx, Request{Product: legoCity})
		require.NoError(t, err)

		page := f.launcher.Pages()[0]
		require.Equal(t, "jane@example.com", page.Fills()[selectors.EmailInput])
		require.Equal(t, "hunter2", page.Fills()[selectors.PasswordInput])

		_, steps, err := f.history.Run(ctx, result.RunID)
		require.NoError(t, err)
		require.Equal(t, StepLogin, steps[1].Name)
		require.Equal(t, "jane@example.com", steps[1].Detail)
	})

	t.Run("test user", func(t *testing.T) {
		data := testData
		data.User = Identity{Email: "buyer@example.com", Password: "secret"}
		f := setup(t, Options{Data: data})
		_, err := f.runner.Run(ctx, Request{Product: legoCity})
		require.NoError(t, err)
		require.Equal(t, "buyer@example.com", f.launcher.Pages()[0].Fills()[selectors.EmailInput])
	})

	t.Run("guest", func(t *testing.T) {
		f := setup(t, Options{})
		_, err := f.runner.Run(ctx, Request{Product: legoCity})
		require.NoError(t, err)
		require.NotContains(t, f.launcher.Pages()[0].Fills(), selectors.EmailInput)
	})
}

func TestRunPicksBestMatch(t *testing.T) {
	ctx := context.Background()
	f := setup(t, Options{})

	product := Product{ID: "puzzle", Site: "King Jouet", Name: "puzzle paris 1000"}
	result, err := f.runner.Run(ctx, Request{Product: product})
	require.NoError(t, err)
	require.Equal(t, "puzzle", f.launcher.Pages()[0].Fills()[site.KingJouet.Selectors.SearchInput])
	require.Equal(t, 1, result.Quantity)

	page := f.launcher.Pages()[0]
	require.Contains(t, page.Log(), "goto "+pagestest.PuzzleURL)
}

func TestRunNotifierFailureIsReported(t *testing.T) {
	f := setup(t, Options{})
	f.notifier.err = errors.New("smtp unreachable")

	_, err := f.runner.Run(context.Background(), Request{Product: legoCity})
	require.NoError(t, err)
	require.True(t, f.tel.Has(telemetrytest.Warning, report_notify))
}

func TestRunCancelled(t *testing.T) {
	f := setup(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := f.runner.Run(ctx, Request{Product: legoCity})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, db.StatusFailed, result.Status)

	// the outcome is stored even though the context is gone
	run, _, err := f.history.Run(context.Background(), result.RunID)
	require.NoError(t, err)
	require.Equal(t, db.StatusFailed, run.Status)
}

func TestRunAll(t *testing.T) {
	ctx := context.Background()
	requests := Requests([]Product{legoCity, legoCity, legoCity, legoCity, legoCity}, false)

	t.Run("sequential", func(t *testing.T) {
		f := setup(t, Options{RunMode: config.Sequential})
		results, err := f.runner.RunAll(ctx, requests)
		require.NoError(t, err)
		require.Len(t, results, 5)
		require.Equal(t, 1, f.launcher.MaxActive())
		for _, r := range results {
			require.Equal(t, db.StatusDryRun, r.Status)
		}
	})

	t.Run("parallel", func(t *testing.T) {
		f := setup(t, Options{RunMode: config.Parallel, MaxParallelRuns: 2})
		results, err := f.runner.RunAll(ctx, requests)
		require.NoError(t, err)
		require.Len(t, results, 5)
		require.LessOrEqual(t, f.launcher.MaxActive(), 2)
		require.Equal(t, 0, f.launcher.Active())
		require.Len(t, f.launcher.Pages(), 5)

		runs, err := f.history.Recent(ctx, "kingjouet", 10)
		require.NoError(t, err)
		require.Len(t, runs, 5)
	})

	t.Run("errors are joined", func(t *testing.T) {
		f := setup(t, Options{RunMode: config.Parallel})
		mixed := append(Requests([]Product{{ID: "x", Site: "nowhere"}}, false), requests[0])
		results, err := f.runner.RunAll(ctx, mixed)
		require.ErrorIs(t, err, ErrUnknownSite)
		require.Equal(t, db.StatusFailed, results[0].Status)
		require.Equal(t, db.StatusDryRun, results[1].Status)
	})

	for _, mode := range []config.RunMode{config.Sequential, config.Parallel} {
		t.Run("cancelled "+string(mode), func(t *testing.T) {
			f := setup(t, Options{RunMode: mode})
			cancelled, cancel := context.WithCancel(ctx)
			cancel()

			results, err := f.runner.RunAll(cancelled, requests[:2])
			require.ErrorIs(t, err, context.Canceled)
			for _, r := range results {
				require.NotEmpty(t, r.RunID)
				require.Equal(t, db.StatusFailed, r.Status)
			}
			require.Equal(t, 0, f.launcher.Active())

			runs, err := f.history.Recent(ctx, "kingjouet", 10)
			require.NoError(t, err)
			require.Len(t, runs, 2)
			for _, run := range runs {
				require.Equal(t, db.StatusFailed, run.Status)
			}
			require.Len(t, f.notifier.Sent(), 2)
		})
	}
}

func TestResultSummary(t *testing.T) {
	result := Result{
		RunID:       "run-1",
		Site:        "kingjouet",
		Product:     "60316",
		Status:      db.StatusFailed,
		Step:        StepPriceCheck,
		ProductName: "LEGO City",
		Price:       1234.5,
		Quantity:    1,
		Err:         ErrPriceAboveLimit,
		StartedAt:   testNow,
		FinishedAt:  testNow.Add(1500 * time.Millisecond),
	}
	summary := result.Summary()
	require.Contains(t, summary, "run run-1 on kingjouet: failed")
	require.Contains(t, summary, "LEGO City, 1 234,50 €")
	require.Contains(t, summary, "last step: price_check")
	require.Contains(t, summary, "error: price above limit")
	require.Contains(t, summary, "duration: 1.5s")
}

func TestExpectedCartID(t *testing.T) {
	require.Equal(t, "60316", expectedCartID(pages.ProductInfo{Reference: "Réf. 60316", Name: "LEGO"}))
	require.Equal(t, "legocity", expectedCartID(pages.ProductInfo{Name: "LEGO City"}))
}
