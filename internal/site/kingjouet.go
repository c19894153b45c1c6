package site

// KingJouet is https://www.king-jouet.com, a french toy shop. Search
// results are rendered by algolia, payment fields belong to adyen.
var KingJouet = Site{
	Name:        "kingjouet",
	BaseURL:     "https://www.king-jouet.com",
	LoginURL:    "https://www.king-jouet.com/exec/login.aspx?ReturnUrl=%2fmy%2f",
	SearchURL:   "https://www.king-jouet.com/resultats.htm",
	CartURL:     "https://www.king-jouet.com/exec/panier.aspx",
	CheckoutURL: "https://www.king-jouet.com/exec/commande/identification.aspx",

	Selectors: Selectors{
		CookieAccept: "#onetrust-accept-btn-handler",
		PopupClose:   ".popup-close",
		Logo:         "#logo_header",
		AccountLink:  ".kj-icon-compte1",
		LoggedIn:     ".kj-icon-compte1.connected",

		SearchInput:  "#algoliaSearch",
		SearchButton: ".btn.btn-orange.py-3.w-full",

		SearchStats:        ".ais-Stats-text",
		ResultList:         ".ais-Hits-list.list-articles",
		ResultItem:         ".ais-Hits-list.list-articles > li",
		ResultName:         ".product-libelle",
		ResultPriceEuros:   ".font-bold.text-xl",
		ResultPriceCents:   ".cents",
		ResultAvailability: ".dispo",
		ResultLink:         "a",
		SortDropdown:       "#orderBySelect",

		ProductTitle:       ".product-name h1",
		ProductPriceEuros:  ".prix.text-2xl",
		ProductPriceCents:  ".prix .cents",
		ProductReference:   ".reference",
		AddToCart:          "#addToCartWebBtn",
		AddToCartPreorder:  "#addToCartPrecoBtn",
		ProductQuantity:    "#quantity",
		AddToCartConfirmed: ".success-message",
		ViewCart:           ".view-cart-button",

		CartItems:          ".relative.divide-y",
		CartItem:           ".panier-article-row",
		CartItemName:       ".product-libelle",
		CartItemPriceEuros: ".prix",
		CartItemPriceCents: ".cents",
		CartItemQuantity:   ".px-2",
		CartItemIncrease:   ".btn-circle.btn-process.increase",
		CartItemDecrease:   ".btn-circle.btn-process.decrease",
		CartTotal:          ".attribut-value.text-right.font-bold",
		CartEmpty:          ".panier-vide",
		ProceedToCheckout:  "#btn_confirmation_pc",

		EmailInput:    "#login-email-input",
		PasswordInput: "#login-password-input",
		LoginButton:   ".btn.btn-orange.btn-process",

		DeliveryOptions:  ".relative.w-fulls",
		CardOwner:        "#cardHolderName",
		CardNumber:       "#encryptedCardNumber",
		CardExpiry:       "#encryptedExpiryDate",
		CardSecurityCode: "#encryptedSecurityCode",
		PlaceOrder:       "#btn_confirmation",
		OrderNumber:      ".order-number",
	},

	Timeouts: Timeouts{
		PageLoad:      30000,
		SearchResults: 10000,
		AddToCart:     5000,
		CheckoutStep:  15000,
	},
	Delays: Delays{
		ActionMin: 1,
		ActionMax: 3,
		TypingMin: 0.05,
		TypingMax: 0.15,
	},
	Viewport:  Viewport{Width: 1280, Height: 800},
	UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	Locale:    "fr-FR",
	CheckoutSteps: CheckoutSteps{
		Identification: "identification",
		Delivery:       "livraison",
		Payment:        "paiement",
		Confirmation:   "confirmation",
	},
}
