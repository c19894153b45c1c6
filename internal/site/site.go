// Package site holds what differs between shops: urls, css selectors,
// timeouts and pacing. Sites are data, page objects stay generic.
package site

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"dario.cat/mergo"
)

// Millis is a duration written as milliseconds in configuration files.
type Millis int64

func (m Millis) Duration() time.Duration {
	return time.Duration(m) * time.Millisecond
}

// Seconds is a duration written as (fractional) seconds in configuration
// files.
type Seconds float64

func (s Seconds) Duration() time.Duration {
	return time.Duration(float64(s) * float64(time.Second))
}

type Selectors struct {
	CookieAccept string `json:"cookie_accept"`
	PopupClose   string `json:"popup_close"`
	Logo         string `json:"logo"`
	AccountLink  string `json:"account_link"`
	// LoggedIn is only present on pages when a user is logged in.
	LoggedIn string `json:"logged_in"`

	SearchInput  string `json:"search_input"`
	SearchButton string `json:"search_button"`

	SearchStats        string `json:"search_stats"`
	ResultList         string `json:"result_list"`
	ResultItem         string `json:"result_item"`
	ResultName         string `json:"result_name"`
	ResultPriceEuros   string `json:"result_price_euros"`
	ResultPriceCents   string `json:"result_price_cents"`
	ResultAvailability string `json:"result_availability"`
	ResultLink         string `json:"result_link"`
	SortDropdown       string `json:"sort_dropdown"`
	ProductTitle       string `json:"product_title"`
	ProductPriceEuros  string `json:"product_price_euros"`
	ProductPriceCents  string `json:"product_price_cents"`
	ProductReference   string `json:"product_reference"`
	AddToCart          string `json:"add_to_cart"`
	AddToCartPreorder  string `json:"add_to_cart_preorder"`
	ProductQuantity    string `json:"product_quantity"`
	AddToCartConfirmed string `json:"add_to_cart_confirmed"`
	ViewCart           string `json:"view_cart"`
	CartItems          string `json:"cart_items"`
	CartItem           string `json:"cart_item"`
	CartItemName       string `json:"cart_item_name"`
	CartItemPriceEuros string `json:"cart_item_price_euros"`
	CartItemPriceCents string `json:"cart_item_price_cents"`
	CartItemQuantity   string `json:"cart_item_quantity"`
	CartItemIncrease   string `json:"cart_item_increase"`
	CartItemDecrease   string `json:"cart_item_decrease"`
	CartTotal          string `json:"cart_total"`
	CartEmpty          string `json:"cart_empty"`
	ProceedToCheckout  string `json:"proceed_to_checkout"`
	EmailInput         string `json:"email_input"`
	PasswordInput      string `json:"password_input"`
	LoginButton        string `json:"login_button"`
	DeliveryOptions    string `json:"delivery_options"`
	CardOwner          string `json:"card_owner"`
	CardNumber         string `json:"card_number"`
	CardExpiry         string `json:"card_expiry"`
	CardSecurityCode   string `json:"card_security_code"`
	PlaceOrder         string `json:"place_order"`
	OrderNumber        string `json:"order_number"`
}

type Timeouts struct {
	PageLoad      Millis `json:"page_load"`
	SearchResults Millis `json:"search_results"`
	AddToCart     Millis `json:"add_to_cart"`
	CheckoutStep  Millis `json:"checkout_step"`
}

// Delays bound the random pauses taken between actions and keystrokes.
type Delays struct {
	ActionMin Seconds `json:"action_min"`
	ActionMax Seconds `json:"action_max"`
	TypingMin Seconds `json:"typing_min"`
	TypingMax Seconds `json:"typing_max"`
}

type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// CheckoutSteps are url fragments identifying each checkout step.
type CheckoutSteps struct {
	Identification string `json:"identification"`
	Delivery       string `json:"delivery"`
	Payment        string `json:"payment"`
	Confirmation   string `json:"confirmation"`
}

type Site struct {
	Name        string `json:"name"`
	BaseURL     string `json:"base_url"`
	LoginURL    string `json:"login_url"`
	SearchURL   string `json:"search_url"`
	CartURL     string `json:"cart_url"`
	CheckoutURL string `json:"checkout_url"`

	Selectors     Selectors     `json:"selectors"`
	Timeouts      Timeouts      `json:"timeouts"`
	Delays        Delays        `json:"delays"`
	Viewport      Viewport      `json:"viewport"`
	UserAgent     string        `json:"user_agent"`
	Locale        string        `json:"locale"`
	CheckoutSteps CheckoutSteps `json:"checkout_steps"`
}

// Resolve joins a url relative to the base url, absolute urls are
// returned unchanged.
func (s Site) Resolve(ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	base, err := url.Parse(s.BaseURL)
	if err != nil {
		return s.BaseURL + ref
	}
	target, err := url.Parse(ref)
	if err != nil {
		return s.BaseURL + ref
	}
	return base.ResolveReference(target).String()
}

func (s Site) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("site has no name")
	}
	if _, err := url.ParseRequestURI(s.BaseURL); err != nil {
		return fmt.Errorf("site %s: invalid base url %q: %w", s.Name, s.BaseURL, err)
	}
	if s.Delays.ActionMax < s.Delays.ActionMin || s.Delays.TypingMax < s.Delays.TypingMin {
		return fmt.Errorf("site %s: delay maximums must not be below their minimums", s.Name)
	}
	return nil
}

// Key normalizes a site name so "King Jouet", "king-jouet" and
// "kingjouet" designate the same site.
func Key(name string) string {
	name = strings.ToLower(name)
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_', '.', '\t':
			return -1
		}
		return r
	}, name)
}

type Registry struct {
	sites map[string]Site
}

// NewRegistry returns a registry holding the built-in sites.
func NewRegistry() *Registry {
	r := &Registry{sites: map[string]Site{}}
	r.sites[Key(KingJouet.Name)] = KingJouet
	return r
}

// Merge overlays configured sites onto the registry. Fields left empty in
// a configured site keep the built-in value, unknown sites are added.
func (r *Registry) Merge(configured map[string]Site) error {
	for name, override := range configured {
		if override.Name == "" {
			override.Name = name
		}
		merged, ok := r.sites[Key(name)]
		if !ok {
			merged = Site{}
		}
		err := mergo.Merge(&merged, override, mergo.WithOverride)
		if err != nil {
			return fmt.Errorf("merge site %s: %w", name, err)
		}
		err = merged.Validate()
		if err != nil {
			return err
		}
		r.sites[Key(name)] = merged
	}
	return nil
}

func (r *Registry) Lookup(name string) (Site, bool) {
	s, ok := r.sites[Key(name)]
	return s, ok
}

// Names returns the names of every registered site, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.sites))
	for _, s := range r.sites {
		out = append(out, s.Name)
	}
	sort.Strings(out)
	return out
}
