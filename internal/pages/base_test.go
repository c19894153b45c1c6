package pages

import (
	"context"
	"errors"
	"path/filepath"
	"purchase-automation/internal/browser"
	"purchase-automation/internal/humanize"
	"purchase-automation/internal/site"
	"purchase-automation/internal/telemetry/telemetrytest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNavigate(t *testing.T) {
	ctx := context.Background()
	page := newShop()
	base, tel := newTestBase(t, page)

	require.NoError(t, base.Navigate(ctx, "/exec/panier.aspx"))
	require.Equal(t, site.KingJouet.CartURL, base.URL())

	require.Error(t, base.Navigate(ctx, "/does-not-exist"))
	require.True(t, tel.Has(telemetrytest.Broken, report_base_navigate), tel.Dump())

	// a slow page is still usable
	page.Slow(searchURL)
	require.NoError(t, base.Navigate(ctx, searchURL))
	require.Equal(t, searchURL, base.URL())
	require.True(t, tel.Has(telemetrytest.Warning, report_base_navigate), tel.Dump())
	require.Len(t, page.Screenshots(), 1)
	require.Equal(t, "navigation_timeout_20240501_143000.png", filepath.Base(page.Screenshots()[0]))
}

func TestWaitForSelector(t *testing.T) {
	ctx := context.Background()
	page := newShop()
	base, _ := newTestBase(t, page)
	require.NoError(t, base.Navigate(ctx, homeURL))

	require.NoError(t, base.WaitForSelector(ctx, "#algoliaSearch", 0))

	err := base.WaitForSelector(ctx, "input:nth-child(9)", time.Second)
	require.ErrorIs(t, err, ErrElementNotFound)
	require.Len(t, page.Screenshots(), 1)
	require.Equal(
		t,
		"element_not_found_input_nth-child(9)_20240501_143000.png",
		filepath.Base(page.Screenshots()[0]),
	)
}

func TestClickRetries(t *testing.T) {
	ctx := context.Background()
	selector := site.KingJouet.Selectors.AccountLink

	t.Run("succeeds within the attempts", func(t *testing.T) {
		page := newShop()
		base, tel := newTestBase(t, page)
		require.NoError(t, base.Navigate(ctx, homeURL))

		page.FailTimes(selector, 2)
		require.NoError(t, base.Click(ctx, selector))
		require.Contains(t, page.Log(), "click "+selector+"#0")
		require.Equal(t, 2, countDebug(tel, "retrying"))
		require.Empty(t, page.Screenshots())
	})

	t.Run("gives up after the attempts", func(t *testing.T) {
		page := newShop()
		base, tel := newTestBase(t, page)
		require.NoError(t, base.Navigate(ctx, homeURL))

		page.FailTimes(selector, 4)
		err := base.Click(ctx, selector)
		require.Error(t, err)
		require.Contains(t, err.Error(), "after 3 attempts")
		require.True(t, tel.Has(telemetrytest.Broken, report_base_click))

		// exactly three attempts consumed three failures
		require.Error(t, page.Click(ctx, selector, browser.ClickOptions{}))
		require.NoError(t, page.Click(ctx, selector, browser.ClickOptions{}))

		require.Len(t, page.Screenshots(), 1)
		require.True(t, strings.HasPrefix(
			filepath.Base(page.Screenshots()[0]),
			"click_failed_.kj-icon-compte1_",
		))
	})

	t.Run("cancelled context is not retried", func(t *testing.T) {
		page := newShop()
		base, _ := newTestBase(t, page)
		require.NoError(t, base.Navigate(ctx, homeURL))

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		err := base.Click(cancelled, selector)
		require.True(t, errors.Is(err, context.Canceled), err)
		require.Empty(t, page.Screenshots())
	})
}

// countDebug counts the debug reports whose message contains `part`.
func countDebug(tel *telemetrytest.Recorder, part string) int {
	n := 0
	for _, r := range tel.Reports(telemetrytest.Debug) {
		if strings.Contains(r.ID, part) {
			n++
		}
	}
	return n
}

func TestFillMasksPasswords(t *testing.T) {
	ctx := context.Background()
	page := newShop()
	base, tel := newTestBase(t, page)
	require.NoError(t, base.Navigate(ctx, site.KingJouet.LoginURL))

	require.NoError(t, base.Fill(ctx, "#login-email-input", "jane@example.com"))
	require.NoError(t, base.Fill(ctx, "#login-password-input", "hunter2"))
	require.NoError(t, base.FillSecret(ctx, "#login-email-input", "4242"))

	require.Equal(t, "hunter2", page.Fills()["#login-password-input"])

	var logged []any
	for _, r := range tel.Reports(telemetrytest.Debug) {
		if strings.HasSuffix(r.ID, "fill") {
			logged = append(logged, r.Params[1])
		}
	}
	require.Equal(t, []any{"jane@example.com", "*******", "****"}, logged)
}

func TestHumanTyping(t *testing.T) {
	ctx := context.Background()
	page := newShop()
	tel := &telemetrytest.Recorder{}
	base := NewBase(page, site.KingJouet, tel, Options{
		ScreenshotDir: t.TempDir(),
		HumanTyping:   true,
		Pacer:         humanize.NoPacer{},
	})
	require.NoError(t, base.Navigate(ctx, homeURL))

	require.NoError(t, base.Fill(ctx, "#algoliaSearch", "lego city"))
	require.Equal(t, "lego city", page.Typed("#algoliaSearch"))
	require.Equal(t, "", page.Fills()["#algoliaSearch"])
}

func TestSelectOption(t *testing.T) {
	ctx := context.Background()
	page := newShop()
	base, _ := newTestBase(t, page)
	require.NoError(t, base.Navigate(ctx, searchURL))

	require.NoError(t, base.SelectOption(ctx, "#orderBySelect", "prix-croissant"))
	require.Equal(t, []string{"prix-croissant"}, page.Selected("#orderBySelect"))

	require.Error(t, base.SelectOption(ctx, "#missing", "x"))
}

func TestReadHelpers(t *testing.T) {
	ctx := context.Background()
	page := newShop()
	base, _ := newTestBase(t, page)
	require.NoError(t, base.Navigate(ctx, productURL))

	require.Equal(t, "LEGO City Le commissariat de police", base.GetText(ctx, ".product-name h1", "none"))
	require.Equal(t, "none", base.GetText(ctx, ".nothing", "none"))
	require.Equal(t, "1", base.GetAttribute(ctx, "#quantity", "value", "0"))
	require.Equal(t, "0", base.GetAttribute(ctx, "#quantity", "data-max", "0"))

	require.True(t, base.IsVisible(ctx, "#addToCartWebBtn", 0))
	require.False(t, base.IsVisible(ctx, ".success-message", 0))
}

func TestWaitUntil(t *testing.T) {
	ctx := context.Background()
	base, _ := newTestBase(t, newShop())

	calls := 0
	ok := base.WaitUntil(ctx, func(context.Context) bool {
		calls++
		return calls == 3
	}, time.Second, time.Millisecond)
	require.True(t, ok)
	require.Equal(t, 3, calls)

	ok = base.WaitUntil(ctx, func(context.Context) bool { return false }, 20*time.Millisecond, 5*time.Millisecond)
	require.False(t, ok)
}

func TestWaitForURL(t *testing.T) {
	ctx := context.Background()
	page := newShop()
	base, tel := newTestBase(t, page)
	require.NoError(t, base.Navigate(ctx, deliveryURL))

	require.NoError(t, base.WaitForURL(ctx, "**/commande/*.aspx", 0))
	require.Empty(t, page.Screenshots())

	require.NoError(t, base.WaitForURL(ctx, "**/confirmation.aspx", 0))
	require.True(t, tel.Has(telemetrytest.Warning, report_base_wait_url))
	require.Len(t, page.Screenshots(), 1)
}

func TestTakeScreenshot(t *testing.T) {
	ctx := context.Background()
	page := newShop()
	base, _ := newTestBase(t, page)
	require.NoError(t, base.Navigate(ctx, productURL))

	path, err := base.TakeScreenshot(ctx, "")
	require.NoError(t, err)
	require.Equal(t, "screenshot_20240501_143000.png", filepath.Base(path))

	path, err = base.ScreenshotElement(ctx, ".product-name h1", "title")
	require.NoError(t, err)
	require.Equal(t, "title_20240501_143000.png", filepath.Base(path))

	_, err = base.ScreenshotElement(ctx, ".success-message", "hidden")
	require.Error(t, err)
}

func TestScreenshotName(t *testing.T) {
	require.Equal(t, "click_failed_a_b_c", screenshotName("click_failed", "a:b c"))
	require.Equal(t, "element_not_found_.list___li", screenshotName("element_not_found", ".list > li"))
}
