package locator

// Names of the built-in catalog entries.
const (
	MenuGrocery         = "menu.grocery"
	MenuDrinks          = "menu.drinks"
	MenuDrinksJuice     = "menu.drinks.juice"
	MenuDrinksCoffee    = "menu.drinks.coffee"
	MenuHomeBeautyBaby  = "menu.homeBeautyBaby"
	MenuJoeFresh        = "menu.joeFresh"
	MenuDiscover        = "menu.discover"
	SearchField         = "search.field"
	SearchClear         = "search.clear"
	SearchButton        = "search.button"
	PageTitle           = "page.title"
	PageHeading         = "page.heading"
	ProductCard         = "product.card"
	ProductTitle        = "product.title"
	ProductImage        = "product.image"
	PriceRegular        = "price.regular"
	PriceNonMember      = "price.nonMember"
	PriceSale           = "price.sale"
	PaginationPage      = "pagination.page"
	SortMenu            = "sort.menu"
	SortOption          = "sort.option"
	BrandFilter         = "filter.brand"
	FooterWeeklyFlyer   = "footer.weeklyFlyer"
	FooterContactUs     = "footer.contactUs"
	ContactHeader       = "contact.header"
	RapidLogo           = "popup.rapidLogo"
	AddressAutocomplete = "popup.address"
	AddressFirstOption  = "popup.address.first"
	AddressContinue     = "popup.continue"
	NoServiceTitle      = "popup.noService"
	NoServiceGoBack     = "popup.goBack"
)

// Default returns the catalog for the grocery storefront the tool targets.
func Default() *Catalog {
	return New(
		Spec{MenuGrocery, XPath, `//button[@data-code="xp-455-food-departments"]`},
		Spec{MenuDrinks, CSS, `a[href$="L2-Drinks"]`},
		Spec{MenuDrinksJuice, CSS, `a[href$="L3-Drinks-Juice"]`},
		Spec{MenuDrinksCoffee, CSS, `a[href$="L3-Drinks-Coffee"]`},
		Spec{MenuHomeBeautyBaby, CSS, `a[href$="L1-Home-Beauty-Baby"]`},
		Spec{MenuJoeFresh, CSS, `a[href$="L1-JoeFresh"]`},
		Spec{MenuDiscover, CSS, `a[href$="L1-Discover"]`},
		Spec{SearchField, CSS, `input[placeholder="Search for product"]`},
		Spec{SearchClear, CSS, `input[title="Clear Search"]`},
		Spec{SearchButton, CSS, `button[title="Submit Search"]`},
		Spec{PageTitle, Class, `page-title__title`},
		Spec{PageHeading, CSS, `h1[data-testid="heading"]`},
		Spec{ProductCard, CSS, `div.chakra-linkbox`},
		Spec{ProductTitle, CSS, `h3[data-testid="product-title"]`},
		Spec{ProductImage, CSS, `img.chakra-image`},
		Spec{PriceRegular, CSS, `span[data-testid="regular-price"] > span`},
		Spec{PriceNonMember, CSS, `span[data-testid="non-members-price"] > span`},
		Spec{PriceSale, CSS, `span[data-testid="sale-price"] > span`},
		Spec{PaginationPage, CSS, `a[aria-label="Page %d"]`},
		Spec{SortMenu, CSS, `button[aria-labelledby="sort-by menu-button-:r1:"]`},
		Spec{SortOption, CSS, `button[data-testid="menu-item"][data-index="%d"]`},
		Spec{BrandFilter, CSS, `input[name="%s"]`},
		Spec{FooterWeeklyFlyer, CSS, `a[data-track-link-name="weekly-flyer"]`},
		Spec{FooterContactUs, CSS, `a[data-track-link-name="about-us:contact-us"]`},
		Spec{ContactHeader, Class, `contact-us-page__header__title`},
		Spec{RapidLogo, CSS, `a[data-track-link-name="pc-express-rapid"]`},
		Spec{AddressAutocomplete, CSS, `input[id="addressAutocomplete"]`},
		Spec{AddressFirstOption, CSS, `.address-autocomplete__address-list li:nth-child(1)`},
		Spec{AddressContinue, CSS, `button.address-autocomplete-modal__button-continue`},
		Spec{NoServiceTitle, CSS, `h1.no-serviceability__title`},
		Spec{NoServiceGoBack, CSS, `a.no-serviceability__go-back-button`},
	)
}
