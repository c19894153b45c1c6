// Package browsertest implements browser.Page over static html documents,
// so page objects can be tested without a browser.
package browsertest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"purchase-automation/internal/browser"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
)

var _ browser.Page = (*Page)(nil)

// Action runs when a selector registered with Page.On is clicked. Actions
// run with the page locked, they must not call the methods of Page.
type Action func(p *Page) error

// NavigateTo is an Action which loads another route, as clicking a link
// or submitting a form would.
func NavigateTo(url string) Action {
	return func(p *Page) error {
		return p.load(url)
	}
}

// Replace is an Action which swaps the current document without changing
// the url, as a script updating the page would.
func Replace(html string) Action {
	return func(p *Page) error {
		p.html = html
		return nil
	}
}

// Hide is an Action which hides the elements matching `selector`, as
// dismissing a banner would.
func Hide(selector string) Action {
	return func(p *Page) error {
		doc, err := p.document()
		if err != nil {
			return err
		}
		doc.Find(selector).SetAttr("hidden", "")
		html, err := doc.Html()
		if err != nil {
			return err
		}
		p.html = html
		return nil
	}
}

// ByURL runs the action registered for the url the page is on, as a
// button shared by several pages would. It does nothing on other urls.
func ByURL(actions map[string]Action) Action {
	return func(p *Page) error {
		action, ok := actions[p.url]
		if !ok {
			return nil
		}
		return action(p)
	}
}

// Sequence runs actions in order, stopping at the first error.
func Sequence(actions ...Action) Action {
	return func(p *Page) error {
		for _, a := range actions {
			if err := a(p); err != nil {
				return err
			}
		}
		return nil
	}
}

// Page is an in-memory browser.Page. Routes map absolute urls to html,
// elements are visible unless they or an ancestor is `hidden` or has an
// inline `display: none`.
type Page struct {
	mutex    sync.Mutex
	routes   map[string]string
	url      string
	html     string
	actions  map[string]Action
	failures map[string]int
	slow     map[string]bool

	fills       map[string]string
	typed       map[string]string
	selected    map[string][]string
	log         []string
	screenshots []string
	closed      bool
}

func NewPage(routes map[string]string) *Page {
	return &Page{
		routes:   routes,
		actions:  map[string]Action{},
		failures: map[string]int{},
		slow:     map[string]bool{},
		fills:    map[string]string{},
		typed:    map[string]string{},
		selected: map[string][]string{},
	}
}

// On registers what happens when `selector` is clicked.
func (p *Page) On(selector string, action Action) *Page {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.actions[selector] = action
	return p
}

// FailTimes makes the next `n` interactions with `selector` fail.
func (p *Page) FailTimes(selector string, n int) *Page {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.failures[selector] = n
	return p
}

// Slow makes navigating to `url` time out after the document is loaded.
func (p *Page) Slow(url string) *Page {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.slow[url] = true
	return p
}

// SetRoute adds or replaces a route, it does not reload the current page.
func (p *Page) SetRoute(url, html string) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.routes[url] = html
}

// Fills returns the last value filled into each selector.
func (p *Page) Fills() map[string]string {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	out := make(map[string]string, len(p.fills))
	for k, v := range p.fills {
		out[k] = v
	}
	return out
}

// Typed returns the text typed into a selector, backspaces applied.
func (p *Page) Typed(selector string) string {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.typed[selector]
}

func (p *Page) Selected(selector string) []string {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.selected[selector]
}

// Log returns the interactions in order, ex. "click #buy", "goto https://...".
func (p *Page) Log() []string {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return append([]string(nil), p.log...)
}

func (p *Page) Screenshots() []string {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return append([]string(nil), p.screenshots...)
}

func (p *Page) Closed() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.closed
}

// load must be called with the mutex held.
func (p *Page) load(url string) error {
	html, ok := p.routes[url]
	if !ok {
		return fmt.Errorf("goto %s: net::ERR_NAME_NOT_RESOLVED", url)
	}
	p.url = url
	p.html = html
	p.log = append(p.log, "goto "+url)
	return nil
}

func (p *Page) document() (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(p.html))
}

func hidden(sel *goquery.Selection) bool {
	return sel.Closest(`[hidden], [style*="display:none"], [style*="display: none"]`).Length() > 0
}

// find must be called with the mutex held.
func (p *Page) find(selector string) (*goquery.Selection, error) {
	doc, err := p.document()
	if err != nil {
		return nil, err
	}
	return doc.Find(selector), nil
}

func (p *Page) visible(selector string, nth int) bool {
	sel, err := p.find(selector)
	if err != nil || nth >= sel.Length() {
		return false
	}
	return !hidden(sel.Eq(nth))
}

func (p *Page) consumeFailure(selector string) error {
	if p.failures[selector] > 0 {
		p.failures[selector]--
		return fmt.Errorf("element %s is not attached to the DOM", selector)
	}
	return nil
}

func timeoutErr(op string) error {
	return fmt.Errorf("%s: %w", op, browser.ErrTimeout)
}

func (p *Page) Goto(ctx context.Context, url string, _ browser.LoadState, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()
	err := p.load(url)
	if err != nil {
		return err
	}
	if p.slow[url] {
		return timeoutErr("goto " + url)
	}
	return nil
}

func (p *Page) WaitForLoadState(ctx context.Context, _ browser.LoadState, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.slow[p.url] {
		return timeoutErr("wait for load state")
	}
	return nil
}

func (p *Page) WaitForSelector(ctx context.Context, selector string, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if !p.visible(selector, 0) {
		return timeoutErr("wait for " + selector)
	}
	return nil
}

var globToken = regexp.MustCompile(`\*\*|\*|\?`)

// globRegex converts a playwright url glob into a regexp.
func globRegex(pattern string) *regexp.Regexp {
	var out strings.Builder
	out.WriteString("^")
	last := 0
	for _, loc := range globToken.FindAllStringIndex(pattern, -1) {
		out.WriteString(regexp.QuoteMeta(pattern[last:loc[0]]))
		switch pattern[loc[0]:loc[1]] {
		case "**":
			out.WriteString(".*")
		case "*":
			out.WriteString("[^/]*")
		case "?":
			out.WriteString(".")
		}
		last = loc[1]
	}
	out.WriteString(regexp.QuoteMeta(pattern[last:]))
	out.WriteString("$")
	return regexp.MustCompile(out.String())
}

func (p *Page) WaitForURL(ctx context.Context, pattern string, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if !globRegex(pattern).MatchString(p.url) {
		return timeoutErr("wait for url " + pattern)
	}
	return nil
}

func (p *Page) URL() string {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.url
}

func (p *Page) Content(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.html, nil
}

func (p *Page) Click(ctx context.Context, selector string, opts browser.ClickOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if err := p.consumeFailure(selector); err != nil {
		return err
	}
	sel, err := p.find(selector)
	if err != nil {
		return err
	}
	if opts.Nth >= sel.Length() || (!opts.Force && hidden(sel.Eq(opts.Nth))) {
		return timeoutErr("click " + selector)
	}
	p.log = append(p.log, fmt.Sprintf("click %s#%d", selector, opts.Nth))

	action, ok := p.actions[selector]
	if !ok {
		return nil
	}
	return action(p)
}

func (p *Page) Fill(ctx context.Context, selector, value string, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if err := p.consumeFailure(selector); err != nil {
		return err
	}
	if !p.visible(selector, 0) {
		return timeoutErr("fill " + selector)
	}
	p.fills[selector] = value
	p.log = append(p.log, "fill "+selector)
	return nil
}

func (p *Page) Type(ctx context.Context, selector, text string, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if !p.visible(selector, 0) {
		return timeoutErr("type into " + selector)
	}
	p.typed[selector] += text
	return nil
}

func (p *Page) Press(ctx context.Context, selector, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if !p.visible(selector, 0) {
		return timeoutErr("press " + key)
	}
	if key == "Backspace" {
		typed := []rune(p.typed[selector])
		if len(typed) > 0 {
			p.typed[selector] = string(typed[:len(typed)-1])
		}
		return nil
	}
	p.typed[selector] += key
	return nil
}

func (p *Page) SelectOption(ctx context.Context, selector string, values []string, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if err := p.consumeFailure(selector); err != nil {
		return err
	}
	if !p.visible(selector, 0) {
		return timeoutErr("select option " + selector)
	}
	p.selected[selector] = values
	return nil
}

func (p *Page) ScrollIntoView(ctx context.Context, selector string, nth int, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()
	sel, err := p.find(selector)
	if err != nil {
		return err
	}
	if nth >= sel.Length() {
		return timeoutErr("scroll to " + selector)
	}
	return nil
}

func (p *Page) IsVisible(ctx context.Context, selector string, _ time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.visible(selector, 0)
}

func (p *Page) Count(ctx context.Context, selector string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()
	sel, err := p.find(selector)
	if err != nil {
		return 0, err
	}
	return sel.Length(), nil
}

func (p *Page) writeScreenshot(path string) error {
	err := os.MkdirAll(filepath.Dir(path), 0777)
	if err != nil {
		return err
	}
	err = os.WriteFile(path, []byte("screenshot of "+p.url), 0644)
	if err != nil {
		return err
	}
	p.screenshots = append(p.screenshots, path)
	return nil
}

func (p *Page) Screenshot(ctx context.Context, path string, _ bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.writeScreenshot(path)
}

func (p *Page) ScreenshotElement(ctx context.Context, selector, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if !p.visible(selector, 0) {
		return timeoutErr("screenshot " + selector)
	}
	return p.writeScreenshot(path)
}

func (p *Page) Close() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.closed {
		return errors.New("page already closed")
	}
	p.closed = true
	return nil
}
