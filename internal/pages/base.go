// Package pages implements the page objects of a shop's purchase funnel on
// top of browser.Page. Every page shares a Base, which holds the retry,
// screenshot and pacing policy of a session.
package pages

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"purchase-automation/internal/assert"
	"purchase-automation/internal/browser"
	"purchase-automation/internal/chrono"
	"purchase-automation/internal/humanize"
	"purchase-automation/internal/site"
	"purchase-automation/internal/telemetry"
	"purchase-automation/lib/htmlutil"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/avast/retry-go/v4"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("purchase_automation.pages")

var (
	ErrElementNotFound = errors.New("element not found")
	ErrWrongStep       = errors.New("not on the expected checkout step")
	ErrIndexOutOfRange = errors.New("index out of range")
)

const (
	report_base_navigate      = "base_page.navigate"
	report_base_wait_selector = "base_page.wait-for-selector"
	report_base_wait_load     = "base_page.wait-for-navigation"
	report_base_wait_url      = "base_page.wait-for-url"
	report_base_click         = "base_page.click"
	report_base_fill          = "base_page.fill"
	report_base_select        = "base_page.select-option"
	report_base_screenshot    = "base_page.screenshot"
	report_base_read_document = "base_page.read-document"
)

type Options struct {
	// ScreenshotDir is where screenshots are written, it defaults to
	// "screenshots".
	ScreenshotDir string
	// RetryCount is the number of attempts made by retried actions, it
	// defaults to 3.
	RetryCount uint
	// RetryDelayMin and RetryDelayMax bound the pause between attempts,
	// they default to 0.5s and 2s.
	RetryDelayMin time.Duration
	RetryDelayMax time.Duration
	// SettleDelay is waited between scrolling to an element and clicking
	// it, it defaults to 0.5s.
	SettleDelay time.Duration
	// DefaultTimeout is used by waits without a timeout, it defaults to
	// 30s.
	DefaultTimeout time.Duration
	// VisibleTimeout is used by visibility checks without a timeout, it
	// defaults to 5s.
	VisibleTimeout time.Duration
	// PollInterval is the interval of WaitUntil, it defaults to 1s.
	PollInterval time.Duration
	// HumanTyping types text key by key, with typos, instead of filling
	// inputs at once.
	HumanTyping bool

	// Pacer defaults to a humanize.RandomPacer.
	Pacer humanize.Pacer
	// Clock defaults to chrono.StandardTime.
	Clock chrono.TimeAPI
}

func (o Options) withDefaults() Options {
	if o.ScreenshotDir == "" {
		o.ScreenshotDir = "screenshots"
	}
	if o.RetryCount == 0 {
		o.RetryCount = 3
	}
	if o.RetryDelayMin == 0 && o.RetryDelayMax == 0 {
		o.RetryDelayMin = 500 * time.Millisecond
		o.RetryDelayMax = 2 * time.Second
	}
	if o.SettleDelay == 0 {
		o.SettleDelay = 500 * time.Millisecond
	}
	if o.DefaultTimeout == 0 {
		o.DefaultTimeout = 30 * time.Second
	}
	if o.VisibleTimeout == 0 {
		o.VisibleTimeout = 5 * time.Second
	}
	if o.PollInterval == 0 {
		o.PollInterval = time.Second
	}
	if o.Pacer == nil {
		o.Pacer = humanize.NewRandomPacer(nil)
	}
	if o.Clock == nil {
		o.Clock = chrono.NewStandardTime()
	}
	return o
}

// Base holds the actions every page object is built from.
type Base struct {
	page browser.Page
	site site.Site
	opts Options
	tel  telemetry.API
}

func NewBase(page browser.Page, s site.Site, tel telemetry.API, opts Options) *Base {
	assert.NotNil(page)
	assert.NotNil(tel)
	assert.NotEmptyStr(s.BaseURL)

	return &Base{
		page: page,
		site: s,
		opts: opts.withDefaults(),
		tel:  telemetry.NewScopedAPI(s.Name, tel),
	}
}

func (b *Base) Page() browser.Page {
	return b.page
}

func (b *Base) Site() site.Site {
	return b.site
}

func (b *Base) URL() string {
	return b.page.URL()
}

func (b *Base) timeout(t time.Duration) time.Duration {
	if t <= 0 {
		return b.opts.DefaultTimeout
	}
	return t
}

var unsafeNameChars = strings.NewReplacer(
	":", "_", "/", "_", "\\", "_", " ", "_", ">", "_",
	"[", "_", "]", "_", "*", "_", "?", "_", "\"", "_", "'", "_",
)

// screenshotName turns a selector into a name usable in a file name.
func screenshotName(prefix, selector string) string {
	return prefix + "_" + unsafeNameChars.Replace(selector)
}

func maskValue(selector, value string) string {
	if strings.Contains(strings.ToLower(selector), "password") {
		return strings.Repeat("*", len(value))
	}
	return value
}

// Pause waits a random time between the site's action delays.
func (b *Base) Pause(ctx context.Context) error {
	return b.opts.Pacer.Pause(ctx, b.site.Delays.ActionMin.Duration(), b.site.Delays.ActionMax.Duration())
}

// Navigate goes to `url`, relative urls are resolved against the site's
// base url. A navigation timeout only produces a warning and a screenshot
// since the page may still be usable.
func (b *Base) Navigate(ctx context.Context, url string) error {
	return b.NavigateUntil(ctx, url, browser.LoadStateNetworkIdle)
}

func (b *Base) NavigateUntil(ctx context.Context, url string, state browser.LoadState) error {
	full := b.site.Resolve(url)
	b.tel.ReportDebug("navigate", full)

	err := b.page.Goto(ctx, full, state, b.site.Timeouts.PageLoad.Duration())
	if errors.Is(err, browser.ErrTimeout) {
		b.tel.ReportWarning(report_base_navigate, full, err)
		b.TakeScreenshot(ctx, "navigation_timeout")
		return nil
	}
	if err != nil {
		b.tel.ReportBroken(report_base_navigate, full, err)
		return err
	}
	return nil
}

// WaitForSelector waits for the element to be visible, a screenshot is
// taken when it never shows up.
func (b *Base) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	err := b.page.WaitForSelector(ctx, selector, b.timeout(timeout))
	if err == nil {
		return nil
	}
	b.tel.ReportWarning(report_base_wait_selector, selector, err)
	b.TakeScreenshot(ctx, screenshotName("element_not_found", selector))
	if errors.Is(err, browser.ErrTimeout) {
		return fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}
	return err
}

// WaitForNavigation waits for the page to settle, a timeout is only a
// warning.
func (b *Base) WaitForNavigation(ctx context.Context, timeout time.Duration) error {
	err := b.page.WaitForLoadState(ctx, browser.LoadStateNetworkIdle, b.timeout(timeout))
	if errors.Is(err, browser.ErrTimeout) {
		b.tel.ReportWarning(report_base_wait_load, b.page.URL(), err)
		b.TakeScreenshot(ctx, "navigation_wait_timeout")
		return nil
	}
	return err
}

// WaitForURL waits for the url to match a glob pattern, a timeout is only
// a warning.
func (b *Base) WaitForURL(ctx context.Context, pattern string, timeout time.Duration) error {
	err := b.page.WaitForURL(ctx, pattern, b.timeout(timeout))
	if errors.Is(err, browser.ErrTimeout) {
		b.tel.ReportWarning(report_base_wait_url, pattern, b.page.URL())
		b.TakeScreenshot(ctx, "url_wait_timeout")
		return nil
	}
	return err
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (b *Base) retryDelay(_ uint, _ error, _ *retry.Config) time.Duration {
	return b.opts.Pacer.Between(b.opts.RetryDelayMin, b.opts.RetryDelayMax)
}

// Retry runs fn until it succeeds, up to the configured number of
// attempts, pausing a random time between attempts. Context errors are
// never retried.
func (b *Base) Retry(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	return retry.Do(
		func() error {
			return fn(ctx)
		},
		retry.Context(ctx),
		retry.Attempts(b.opts.RetryCount),
		retry.DelayType(b.retryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !isContextErr(err)
		}),
		retry.OnRetry(func(n uint, err error) {
			b.tel.ReportDebug("retrying", name, n+1, b.opts.RetryCount, err)
		}),
	)
}

// Click clicks the first element matching the selector, see ClickNth.
func (b *Base) Click(ctx context.Context, selector string) error {
	return b.ClickNth(ctx, selector, 0, false)
}

// ClickNth waits for the nth element, scrolls it into view and clicks it.
// Failed attempts are retried, a screenshot is taken after the last one.
func (b *Base) ClickNth(ctx context.Context, selector string, nth int, force bool) error {
	err := b.Retry(ctx, "click "+selector, func(ctx context.Context) error {
		if !force && nth == 0 {
			err := b.page.WaitForSelector(ctx, selector, b.opts.DefaultTimeout)
			if err != nil {
				return err
			}
		}
		err := b.page.ScrollIntoView(ctx, selector, nth, b.opts.DefaultTimeout)
		if err != nil {
			return err
		}
		err = b.opts.Pacer.Pause(ctx, b.opts.SettleDelay, b.opts.SettleDelay)
		if err != nil {
			return err
		}
		return b.page.Click(ctx, selector, browser.ClickOptions{Nth: nth, Force: force})
	})
	if err != nil {
		b.tel.ReportBroken(report_base_click, selector, nth, err)
		if !isContextErr(err) {
			b.TakeScreenshot(ctx, screenshotName("click_failed", selector))
		}
		return fmt.Errorf("click %s failed after %d attempts: %w", selector, b.opts.RetryCount, err)
	}
	return nil
}

// Fill sets the value of an input. Values of password inputs are masked in
// logs.
func (b *Base) Fill(ctx context.Context, selector, value string) error {
	return b.fill(ctx, selector, value, maskValue(selector, value))
}

// FillSecret is Fill for values which must never be logged.
func (b *Base) FillSecret(ctx context.Context, selector, value string) error {
	return b.fill(ctx, selector, value, strings.Repeat("*", len(value)))
}

func (b *Base) fill(ctx context.Context, selector, value, logged string) error {
	b.tel.ReportDebug("fill", selector, logged)
	err := b.Retry(ctx, "fill "+selector, func(ctx context.Context) error {
		err := b.page.WaitForSelector(ctx, selector, b.opts.DefaultTimeout)
		if err != nil {
			return err
		}
		if !b.opts.HumanTyping {
			return b.page.Fill(ctx, selector, value, b.opts.DefaultTimeout)
		}
		err = b.page.Fill(ctx, selector, "", b.opts.DefaultTimeout)
		if err != nil {
			return err
		}
		return b.typeLikeHuman(ctx, selector, value)
	})
	if err != nil {
		b.tel.ReportBroken(report_base_fill, selector, err)
		if !isContextErr(err) {
			b.TakeScreenshot(ctx, screenshotName("fill_failed", selector))
		}
		return fmt.Errorf("fill %s failed after %d attempts: %w", selector, b.opts.RetryCount, err)
	}
	return nil
}

func (b *Base) typeLikeHuman(ctx context.Context, selector, value string) error {
	opts := humanize.DefaultTypingOptions
	opts.DelayMin = b.site.Delays.TypingMin.Duration()
	opts.DelayMax = b.site.Delays.TypingMax.Duration()

	for _, key := range humanize.PlanTyping(value, opts, b.opts.Pacer) {
		var err error
		if key.Backspace {
			err = b.page.Press(ctx, selector, "Backspace")
		} else {
			err = b.page.Type(ctx, selector, string(key.Char), 0)
		}
		if err != nil {
			return err
		}
		err = b.opts.Pacer.Pause(ctx, key.Delay, key.Delay)
		if err != nil {
			return err
		}
	}
	return nil
}

// SelectOption selects options of a <select> by value or label.
func (b *Base) SelectOption(ctx context.Context, selector string, values ...string) error {
	err := b.Retry(ctx, "select "+selector, func(ctx context.Context) error {
		err := b.page.WaitForSelector(ctx, selector, b.opts.DefaultTimeout)
		if err != nil {
			return err
		}
		return b.page.SelectOption(ctx, selector, values, b.opts.DefaultTimeout)
	})
	if err != nil {
		b.tel.ReportBroken(report_base_select, selector, values, err)
		if !isContextErr(err) {
			b.TakeScreenshot(ctx, screenshotName("select_failed", selector))
		}
		return fmt.Errorf("select %s failed after %d attempts: %w", selector, b.opts.RetryCount, err)
	}
	return nil
}

// IsVisible reports whether the element is visible within the timeout, a
// zero timeout uses the short visibility timeout.
func (b *Base) IsVisible(ctx context.Context, selector string, timeout time.Duration) bool {
	if timeout <= 0 {
		timeout = b.opts.VisibleTimeout
	}
	return b.page.IsVisible(ctx, selector, timeout)
}

// WaitUntil polls the condition until it holds or the timeout elapses.
func (b *Base) WaitUntil(ctx context.Context, condition func(ctx context.Context) bool, timeout, interval time.Duration) bool {
	if interval <= 0 {
		interval = b.opts.PollInterval
	}
	deadline := time.Now().Add(b.timeout(timeout))
	for {
		if condition(ctx) {
			return true
		}
		if ctx.Err() != nil || !time.Now().Before(deadline) {
			return false
		}
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-timer.C:
		}
	}
}

func (b *Base) screenshotPath(name string) string {
	if name == "" {
		name = "screenshot"
	}
	return filepath.Join(
		b.opts.ScreenshotDir,
		fmt.Sprintf("%s_%s.png", name, chrono.Stamp(b.opts.Clock.Now())),
	)
}

// TakeScreenshot saves a full page screenshot named
// `<name>_<YYYYMMDD_HHMMSS>.png`, failing to do so is only a warning.
func (b *Base) TakeScreenshot(ctx context.Context, name string) (string, error) {
	path := b.screenshotPath(name)
	// a cancelled action still deserves its screenshot
	err := b.page.Screenshot(context.WithoutCancel(ctx), path, true)
	if err != nil {
		b.tel.ReportWarning(report_base_screenshot, path, err)
		return "", err
	}
	b.tel.ReportDebug("screenshot saved", path)
	return path, nil
}

// ScreenshotElement saves a screenshot of a single element.
func (b *Base) ScreenshotElement(ctx context.Context, selector, name string) (string, error) {
	path := b.screenshotPath(name)
	err := b.page.ScreenshotElement(ctx, selector, path)
	if err != nil {
		b.tel.ReportWarning(report_base_screenshot, selector, path, err)
		return "", err
	}
	return path, nil
}

// Document returns the current page parsed for reading.
func (b *Base) Document(ctx context.Context) (*goquery.Document, error) {
	content, err := b.page.Content(ctx)
	if err != nil {
		b.tel.ReportWarning(report_base_read_document, b.page.URL(), err)
		return nil, err
	}
	return htmlutil.Parse(content)
}

// GetText returns the cleaned text of the first element matching the
// selector, or `def` when there is none or it is empty.
func (b *Base) GetText(ctx context.Context, selector, def string) string {
	doc, err := b.Document(ctx)
	if err != nil {
		return def
	}
	text := htmlutil.Text(doc.Find(selector))
	if text == "" {
		return def
	}
	return text
}

// GetAttribute returns an attribute of the first element matching the
// selector, or `def` when there is none.
func (b *Base) GetAttribute(ctx context.Context, selector, attribute, def string) string {
	doc, err := b.Document(ctx)
	if err != nil {
		return def
	}
	value, ok := doc.Find(selector).First().Attr(attribute)
	if !ok || value == "" {
		return def
	}
	return value
}
