package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

type BrowserType string

const (
	Chromium BrowserType = "chromium"
	Firefox  BrowserType = "firefox"
	WebKit   BrowserType = "webkit"
)

type LaunchOptions struct {
	Type     BrowserType
	Headless bool
	// UserDataDir keeps cookies and storage between runs when set, every
	// session then shares the same persistent context.
	UserDataDir string
	// SlowMo slows every browser operation down, it helps when watching a
	// headed run.
	SlowMo time.Duration
	// Install downloads the browser binaries when they are missing.
	Install bool
}

// PlaywrightLauncher launches a single browser process and hands out one
// browser context per session.
type PlaywrightLauncher struct {
	opts    LaunchOptions
	pw      *playwright.Playwright
	browser playwright.Browser

	mutex      sync.Mutex
	persistent playwright.BrowserContext
}

func LaunchPlaywright(opts LaunchOptions) (*PlaywrightLauncher, error) {
	if opts.Type == "" {
		opts.Type = Chromium
	}
	if opts.Install {
		err := playwright.Install(&playwright.RunOptions{
			Browsers: []string{string(opts.Type)},
			Verbose:  false,
		})
		if err != nil {
			return nil, fmt.Errorf("install playwright: %w", err)
		}
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}
	launcher := &PlaywrightLauncher{opts: opts, pw: pw}
	if opts.UserDataDir != "" {
		return launcher, nil
	}

	browserType, err := launcher.browserType()
	if err != nil {
		pw.Stop()
		return nil, err
	}
	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	}
	if opts.SlowMo > 0 {
		launchOpts.SlowMo = playwright.Float(float64(opts.SlowMo.Milliseconds()))
	}
	launcher.browser, err = browserType.Launch(launchOpts)
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("launch %s: %w", opts.Type, err)
	}
	slog.Debug("browser launched", "type", opts.Type, "headless", opts.Headless)
	return launcher, nil
}

func (l *PlaywrightLauncher) browserType() (playwright.BrowserType, error) {
	switch l.opts.Type {
	case Chromium:
		return l.pw.Chromium, nil
	case Firefox:
		return l.pw.Firefox, nil
	case WebKit:
		return l.pw.WebKit, nil
	}
	return nil, fmt.Errorf("unknown browser type %q", l.opts.Type)
}

func (l *PlaywrightLauncher) NewSession(ctx context.Context, opts SessionOptions) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var bctx playwright.BrowserContext
	var err error
	owned := true
	if l.opts.UserDataDir != "" {
		bctx, err = l.persistentContext(opts)
		owned = false
	} else {
		bctx, err = l.browser.NewContext(playwright.BrowserNewContextOptions{
			Viewport:  viewport(opts),
			UserAgent: optionalString(opts.UserAgent),
			Locale:    optionalString(opts.Locale),
		})
	}
	if err != nil {
		return nil, fmt.Errorf("new browser context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		if owned {
			bctx.Close()
		}
		return nil, fmt.Errorf("new page: %w", err)
	}
	if opts.DefaultTimeout > 0 {
		page.SetDefaultTimeout(float64(opts.DefaultTimeout.Milliseconds()))
	}

	return &playwrightSession{
		bctx:  bctx,
		owned: owned,
		page:  &playwrightPage{page: page},
	}, nil
}

func (l *PlaywrightLauncher) persistentContext(opts SessionOptions) (playwright.BrowserContext, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if l.persistent != nil {
		return l.persistent, nil
	}

	browserType, err := l.browserType()
	if err != nil {
		return nil, err
	}
	err = os.MkdirAll(l.opts.UserDataDir, 0777)
	if err != nil {
		return nil, err
	}
	launchOpts := playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless:  playwright.Bool(l.opts.Headless),
		Viewport:  viewport(opts),
		UserAgent: optionalString(opts.UserAgent),
		Locale:    optionalString(opts.Locale),
	}
	if l.opts.SlowMo > 0 {
		launchOpts.SlowMo = playwright.Float(float64(l.opts.SlowMo.Milliseconds()))
	}
	l.persistent, err = browserType.LaunchPersistentContext(l.opts.UserDataDir, launchOpts)
	return l.persistent, err
}

func (l *PlaywrightLauncher) Close() error {
	var errs []error
	l.mutex.Lock()
	if l.persistent != nil {
		errs = append(errs, l.persistent.Close())
	}
	l.mutex.Unlock()
	if l.browser != nil {
		errs = append(errs, l.browser.Close())
	}
	errs = append(errs, l.pw.Stop())
	return errors.Join(errs...)
}

func viewport(opts SessionOptions) *playwright.Size {
	if opts.ViewportWidth == 0 || opts.ViewportHeight == 0 {
		return nil
	}
	return &playwright.Size{Width: opts.ViewportWidth, Height: opts.ViewportHeight}
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return playwright.String(s)
}

type playwrightSession struct {
	bctx  playwright.BrowserContext
	owned bool
	page  *playwrightPage
}

func (s *playwrightSession) Page() Page {
	return s.page
}

func (s *playwrightSession) Close() error {
	err := s.page.Close()
	if s.owned {
		err = errors.Join(err, s.bctx.Close())
	}
	return err
}

type playwrightPage struct {
	page playwright.Page
}

// wrapErr makes playwright timeouts match ErrTimeout.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%s: %w: %w", op, ErrTimeout, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func ms(d time.Duration) *float64 {
	if d <= 0 {
		return nil
	}
	return playwright.Float(float64(d.Milliseconds()))
}

func waitUntil(state LoadState) *playwright.WaitUntilState {
	switch state {
	case LoadStateLoad:
		return playwright.WaitUntilStateLoad
	case LoadStateDOMContentLoaded:
		return playwright.WaitUntilStateDomcontentloaded
	}
	return playwright.WaitUntilStateNetworkidle
}

func loadState(state LoadState) *playwright.LoadState {
	switch state {
	case LoadStateLoad:
		return playwright.LoadStateLoad
	case LoadStateDOMContentLoaded:
		return playwright.LoadStateDomcontentloaded
	}
	return playwright.LoadStateNetworkidle
}

func (p *playwrightPage) Goto(ctx context.Context, url string, state LoadState, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: waitUntil(state),
		Timeout:   ms(timeout),
	})
	return wrapErr("goto "+url, err)
}

func (p *playwrightPage) WaitForLoadState(ctx context.Context, state LoadState, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := p.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   loadState(state),
		Timeout: ms(timeout),
	})
	return wrapErr("wait for load state", err)
}

func (p *playwrightPage) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := p.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: ms(timeout),
	})
	return wrapErr("wait for "+selector, err)
}

func (p *playwrightPage) WaitForURL(ctx context.Context, pattern string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := p.page.WaitForURL(pattern, playwright.PageWaitForURLOptions{
		Timeout: ms(timeout),
	})
	return wrapErr("wait for url "+pattern, err)
}

func (p *playwrightPage) URL() string {
	return p.page.URL()
}

func (p *playwrightPage) Content(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	content, err := p.page.Content()
	return content, wrapErr("content", err)
}

func (p *playwrightPage) Click(ctx context.Context, selector string, opts ClickOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := p.page.Locator(selector).Nth(opts.Nth).Click(playwright.LocatorClickOptions{
		Force:   playwright.Bool(opts.Force),
		Timeout: ms(opts.Timeout),
	})
	return wrapErr("click "+selector, err)
}

func (p *playwrightPage) Fill(ctx context.Context, selector, value string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := p.page.Locator(selector).First().Fill(value, playwright.LocatorFillOptions{
		Timeout: ms(timeout),
	})
	return wrapErr("fill "+selector, err)
}

func (p *playwrightPage) Type(ctx context.Context, selector, text string, delay time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := p.page.Locator(selector).First().PressSequentially(text, playwright.LocatorPressSequentiallyOptions{
		Delay: playwright.Float(float64(delay.Milliseconds())),
	})
	return wrapErr("type into "+selector, err)
}

func (p *playwrightPage) Press(ctx context.Context, selector, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := p.page.Locator(selector).First().Press(key)
	return wrapErr("press "+key, err)
}

func (p *playwrightPage) SelectOption(ctx context.Context, selector string, values []string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.Locator(selector).First().SelectOption(
		playwright.SelectOptionValues{Values: &values},
		playwright.LocatorSelectOptionOptions{Timeout: ms(timeout)},
	)
	return wrapErr("select option "+strings.Join(values, ","), err)
}

func (p *playwrightPage) ScrollIntoView(ctx context.Context, selector string, nth int, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := p.page.Locator(selector).Nth(nth).ScrollIntoViewIfNeeded(playwright.LocatorScrollIntoViewIfNeededOptions{
		Timeout: ms(timeout),
	})
	return wrapErr("scroll to "+selector, err)
}

func (p *playwrightPage) IsVisible(ctx context.Context, selector string, timeout time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	err := p.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	return err == nil
}

func (p *playwrightPage) Count(ctx context.Context, selector string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n, err := p.page.Locator(selector).Count()
	return n, wrapErr("count "+selector, err)
}

func (p *playwrightPage) Screenshot(ctx context.Context, path string, fullPage bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.MkdirAll(filepath.Dir(path), 0777)
	if err != nil {
		return err
	}
	_, err = p.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(fullPage),
	})
	return wrapErr("screenshot", err)
}

func (p *playwrightPage) ScreenshotElement(ctx context.Context, selector, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.MkdirAll(filepath.Dir(path), 0777)
	if err != nil {
		return err
	}
	_, err = p.page.Locator(selector).First().Screenshot(playwright.LocatorScreenshotOptions{
		Path: playwright.String(path),
	})
	return wrapErr("screenshot "+selector, err)
}

func (p *playwrightPage) Close() error {
	return p.page.Close()
}
