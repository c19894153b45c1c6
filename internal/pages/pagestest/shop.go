// Package pagestest serves a saved copy of the King Jouet purchase funnel
// through browsertest pages.
package pagestest

import (
	"fmt"
	"purchase-automation/internal/browser/browsertest"
	"purchase-automation/internal/site"
	"strings"

	_ "embed"
)

//go:embed home.html
var HomeHTML string

//go:embed search.html
var SearchHTML string

//go:embed product.html
var ProductHTML string

//go:embed cart.html
var CartHTML string

//go:embed checkout.html
var CheckoutHTML string

// ProductAddedHTML is the product page once the add to cart confirmation
// shows up.
var ProductAddedHTML = strings.Replace(
	ProductHTML,
	`<div class="success-message" hidden>`,
	`<div class="success-message">`,
	1,
)

const LoginHTML = `<html><body>
<input id="login-email-input">
<input id="login-password-input" type="password">
<button class="btn btn-orange btn-process">Se connecter</button>
</body></html>`

const AccountHTML = `<html><body>
<a id="logo_header" href="/">King Jouet</a>
<span class="kj-icon-compte1 connected">Bonjour</span>
</body></html>`

const (
	HomeURL         = "https://www.king-jouet.com"
	SearchURL       = "https://www.king-jouet.com/resultats.htm?q=lego"
	ProductURL      = "https://www.king-jouet.com/jeux-jouets/lego/lego-city-le-commissariat-de-police.htm"
	PuzzleURL       = "https://www.king-jouet.com/jeux-jouets/puzzles/puzzle-1000-pieces.htm"
	AccountURL      = "https://www.king-jouet.com/my/"
	DeliveryURL     = "https://www.king-jouet.com/exec/commande/livraison.aspx"
	PaymentURL      = "https://www.king-jouet.com/exec/commande/paiement.aspx"
	ConfirmationURL = "https://www.king-jouet.com/exec/commande/confirmation.aspx"
)

// NewShop serves every page of the funnel, clicking does nothing.
func NewShop() *browsertest.Page {
	return browsertest.NewPage(map[string]string{
		HomeURL:                 HomeHTML,
		site.KingJouet.LoginURL: LoginHTML,
		AccountURL:              AccountHTML,
		SearchURL:               SearchHTML,
		ProductURL:              ProductHTML,
		PuzzleURL:               ProductHTML,
		site.KingJouet.CartURL:  CartHTML,
		DeliveryURL:             CheckoutHTML,
		PaymentURL:              CheckoutHTML,
		ConfirmationURL:         CheckoutHTML,
	})
}

// ResultLink is the selector of the link of the search result at `index`.
func ResultLink(index int) string {
	selectors := site.KingJouet.Selectors
	return fmt.Sprintf("%s:nth-child(%d) %s", selectors.ResultItem, index+1, selectors.ResultLink)
}

// NewFunnel is NewShop with the buttons wired, so a purchase can go from
// the home page to the order confirmation.
func NewFunnel() *browsertest.Page {
	selectors := site.KingJouet.Selectors
	page := NewShop()
	page.On(selectors.CookieAccept, browsertest.Hide("#onetrust-banner-sdk"))
	page.On(selectors.PopupClose, browsertest.Hide(".popup"))
	page.On(selectors.AccountLink, browsertest.NavigateTo(site.KingJouet.LoginURL))
	page.On(selectors.LoginButton, browsertest.NavigateTo(AccountURL))
	page.On(selectors.Logo, browsertest.NavigateTo(HomeURL))
	page.On(selectors.SearchButton, browsertest.NavigateTo(SearchURL))
	page.On(ResultLink(0), browsertest.NavigateTo(ProductURL))
	page.On(ResultLink(2), browsertest.NavigateTo(PuzzleURL))
	page.On(selectors.AddToCart, browsertest.Replace(ProductAddedHTML))
	page.On(selectors.ViewCart, browsertest.NavigateTo(site.KingJouet.CartURL))
	page.On(selectors.ProceedToCheckout, browsertest.ByURL(map[string]browsertest.Action{
		site.KingJouet.CartURL: browsertest.NavigateTo(DeliveryURL),
		DeliveryURL:            browsertest.NavigateTo(PaymentURL),
	}))
	page.On(selectors.PlaceOrder, browsertest.NavigateTo(ConfirmationURL))
	return page
}
