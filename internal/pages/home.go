package pages

import "context"

const (
	report_home_cookie_consent = "home_page.cookie-consent"
	report_home_close_popup    = "home_page.close-popup"
	report_home_search         = "home_page.search"
	report_home_login          = "home_page.go-to-login"
)

// maxPopups bounds ClosePopups, a close button still visible after that
// many clicks is not going away.
const maxPopups = 3

type Home struct {
	*Base
}

func NewHome(base *Base) Home {
	return Home{Base: base}
}

// Open goes to the home page, accepts the cookie banner and closes popups.
func (h Home) Open(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Home:Open")
	defer span.End()

	err := h.Navigate(ctx, h.site.BaseURL)
	if err != nil {
		return err
	}
	h.HandleCookieConsent(ctx)
	h.ClosePopups(ctx)
	return nil
}

// HandleCookieConsent accepts the cookie banner, it returns true when there
// was one.
func (h Home) HandleCookieConsent(ctx context.Context) bool {
	selector := h.site.Selectors.CookieAccept
	if selector == "" || !h.IsVisible(ctx, selector, 0) {
		h.tel.ReportDebug("no cookie banner")
		return false
	}
	err := h.Click(ctx, selector)
	if err != nil {
		h.tel.ReportWarning(report_home_cookie_consent, err)
		return false
	}
	_ = h.Pause(ctx)
	return true
}

// ClosePopups closes the popups covering the page and returns how many
// were closed.
func (h Home) ClosePopups(ctx context.Context) int {
	selector := h.site.Selectors.PopupClose
	if selector == "" {
		return 0
	}
	count := 0
	for count < maxPopups && h.IsVisible(ctx, selector, 0) {
		err := h.Click(ctx, selector)
		if err != nil {
			h.tel.ReportWarning(report_home_close_popup, err)
			break
		}
		count++
		if h.Pause(ctx) != nil {
			break
		}
	}
	return count
}

// Search types the keyword in the search bar and submits it.
func (h Home) Search(ctx context.Context, keyword string) (Search, error) {
	ctx, span := tracer.Start(ctx, "Home:Search")
	defer span.End()

	selectors := h.site.Selectors
	err := h.WaitForSelector(ctx, selectors.SearchInput, 0)
	if err != nil {
		h.tel.ReportBroken(report_home_search, keyword, err)
		return Search{}, err
	}
	err = h.Fill(ctx, selectors.SearchInput, keyword)
	if err != nil {
		h.tel.ReportBroken(report_home_search, keyword, err)
		return Search{}, err
	}
	err = h.Pause(ctx)
	if err != nil {
		return Search{}, err
	}

	if selectors.SearchButton != "" && h.IsVisible(ctx, selectors.SearchButton, 0) {
		err = h.Click(ctx, selectors.SearchButton)
	} else {
		err = h.page.Press(ctx, selectors.SearchInput, "Enter")
	}
	if err != nil {
		h.tel.ReportBroken(report_home_search, keyword, err)
		return Search{}, err
	}
	err = h.WaitForNavigation(ctx, h.site.Timeouts.SearchResults.Duration())
	if err != nil {
		return Search{}, err
	}
	return NewSearch(h.Base), nil
}

// GoToLogin opens the login page through the account link, falling back
// to the login url.
func (h Home) GoToLogin(ctx context.Context) (Login, error) {
	err := h.Click(ctx, h.site.Selectors.AccountLink)
	if err == nil {
		err = h.WaitForNavigation(ctx, 0)
	}
	if err != nil {
		if isContextErr(err) {
			return Login{}, err
		}
		h.tel.ReportWarning(report_home_login, err)
		login := NewLogin(h.Base)
		return login, login.Open(ctx)
	}
	return NewLogin(h.Base), nil
}

func (h Home) GoToCart(ctx context.Context) (Cart, error) {
	cart := NewCart(h.Base)
	return cart, cart.Open(ctx)
}

// IsLoggedIn looks for the marker only shown to logged in users.
func (h Home) IsLoggedIn(ctx context.Context) bool {
	if h.site.Selectors.LoggedIn == "" {
		return false
	}
	return h.IsVisible(ctx, h.site.Selectors.LoggedIn, 0)
}
