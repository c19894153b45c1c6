package pages

import (
	"purchase-automation/internal/browser/browsertest"
	"purchase-automation/internal/chrono"
	"purchase-automation/internal/humanize"
	"purchase-automation/internal/pages/pagestest"
	"purchase-automation/internal/site"
	"purchase-automation/internal/telemetry/telemetrytest"
	"testing"
	"time"
)

var (
	productHTML      = pagestest.ProductHTML
	productAddedHTML = pagestest.ProductAddedHTML
	cartHTML         = pagestest.CartHTML
)

const (
	homeURL         = pagestest.HomeURL
	searchURL       = pagestest.SearchURL
	productURL      = pagestest.ProductURL
	puzzleURL       = pagestest.PuzzleURL
	accountURL      = pagestest.AccountURL
	deliveryURL     = pagestest.DeliveryURL
	paymentURL      = pagestest.PaymentURL
	confirmationURL = pagestest.ConfirmationURL
)

var testNow = time.Date(2024, 5, 1, 14, 30, 0, 0, time.UTC)

func newShop() *browsertest.Page {
	return pagestest.NewShop()
}

func newTestBase(t testing.TB, page *browsertest.Page) (*Base, *telemetrytest.Recorder) {
	tel := &telemetrytest.Recorder{}
	base := NewBase(page, site.KingJouet, tel, Options{
		ScreenshotDir: t.TempDir(),
		Pacer:         humanize.NoPacer{},
		Clock:         chrono.FixedTime(testNow),
	})
	return base, tel
}

func newTestBaseOnly(t testing.TB, page *browsertest.Page) *Base {
	base, _ := newTestBase(t, page)
	return base
}
