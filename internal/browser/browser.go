// Package browser is the narrow surface of a real browser that page
// objects drive. It is implemented on top of playwright, and in memory by
// the browsertest package.
package browser

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout is wrapped by every error caused by a timeout elapsing.
var ErrTimeout = errors.New("timeout elapsed")

type LoadState string

const (
	LoadStateLoad             LoadState = "load"
	LoadStateDOMContentLoaded LoadState = "domcontentloaded"
	LoadStateNetworkIdle      LoadState = "networkidle"
)

type ClickOptions struct {
	// Nth selects the nth element matching the selector, starting at 0.
	Nth     int
	Force   bool
	Timeout time.Duration
}

// Page is a single browser tab. Selectors are css selectors, every method
// that waits takes a timeout, a zero timeout uses the page default.
type Page interface {
	Goto(ctx context.Context, url string, waitUntil LoadState, timeout time.Duration) error
	WaitForLoadState(ctx context.Context, state LoadState, timeout time.Duration) error
	// WaitForSelector waits for the first matching element to be visible.
	WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error
	WaitForURL(ctx context.Context, pattern string, timeout time.Duration) error
	URL() string
	// Content returns the html of the whole page.
	Content(ctx context.Context) (string, error)

	Click(ctx context.Context, selector string, opts ClickOptions) error
	Fill(ctx context.Context, selector, value string, timeout time.Duration) error
	// Type sends keystrokes one by one to the element, waiting `delay`
	// between them.
	Type(ctx context.Context, selector, text string, delay time.Duration) error
	// Press sends a single key, ex. "Backspace", to the element.
	Press(ctx context.Context, selector, key string) error
	SelectOption(ctx context.Context, selector string, values []string, timeout time.Duration) error
	ScrollIntoView(ctx context.Context, selector string, nth int, timeout time.Duration) error

	// IsVisible reports whether the element becomes visible within the
	// timeout, it never fails.
	IsVisible(ctx context.Context, selector string, timeout time.Duration) bool
	Count(ctx context.Context, selector string) (int, error)

	Screenshot(ctx context.Context, path string, fullPage bool) error
	ScreenshotElement(ctx context.Context, selector, path string) error

	Close() error
}

// Session is an isolated browser context (cookies, storage) with a page
// opened in it.
type Session interface {
	Page() Page
	Close() error
}

type SessionOptions struct {
	ViewportWidth  int
	ViewportHeight int
	UserAgent      string
	Locale         string
	DefaultTimeout time.Duration
}

// Launcher creates sessions, it is safe for concurrent use.
type Launcher interface {
	NewSession(ctx context.Context, opts SessionOptions) (Session, error)
	Close() error
}
