package browsertest

import (
	"fmt"
	"strings"
)

// Storefront paths, relative to BaseURL
const (
	HomePath      = "/"
	JuicePath     = "/food/drinks/juice/c/28230?navid=flyout-L3-Drinks-Juice"
	CoffeePath    = "/food/drinks/coffee/c/28228?navid=flyout-L3-Drinks-Coffee"
	BrandPath     = "/food/drinks/juice/c/28230?productBrand=SUND"
	FlyerPath     = "/print-flyer"
	ContactPath   = "/contact-us"
	RapidPath     = "/?modal=pcx-rapid"
	AddressPath   = "/?modal=pcx-rapid&address=401-sunset-ave"
	NoServicePath = "/no-service"
)

// NoServiceMessage is shown when the picked address is outside the
// delivery area.
const NoServiceMessage = "We’re sorry but it looks like we’re not available in your area yet."

// StorefrontOptions sizes the generated storefront
type StorefrontOptions struct {
	JuicePages   int
	JuicePerPage int
	CoffeeCards  int
	// OmitBrandPage leaves the filtered juice page out, so the brand filter
	// navigates nowhere.
	OmitBrandPage bool
}

// DefaultStorefront has three pages of eight juices and six coffees
func DefaultStorefront() StorefrontOptions {
	return StorefrontOptions{JuicePages: 3, JuicePerPage: 8, CoffeeCards: 6}
}

const siteHeader = `<header>
<button type="button" data-code="xp-455-food-departments">Grocery</button>
<nav class="flyout">
<a href="/food/drinks/c/28000?navid=flyout-L2-Drinks">Drinks</a>
<a href="/food/drinks/juice/c/28230?navid=flyout-L3-Drinks-Juice">Juice</a>
<a href="/food/drinks/coffee/c/28228?navid=flyout-L3-Drinks-Coffee">Coffee</a>
<a href="/home-beauty-baby/c/27985?navid=flyout-L1-Home-Beauty-Baby">Home, Beauty &amp; Baby</a>
<a href="/joe-fresh/c/27988?navid=flyout-L1-JoeFresh">Joe Fresh</a>
<a href="/discover/c/27990?navid=flyout-L1-Discover">Discover</a>
</nav>
<form action="/search" class="search-bar">
<input name="search-bar" placeholder="Search for product" value="">
<input type="reset" title="Clear Search">
<button type="submit" title="Submit Search">Search</button>
</form>
<a data-track-link-name="pc-express-rapid" href="/?modal=pcx-rapid">PC Express Rapid</a>
</header>
`

const siteFooter = `
<a data-track-link-name="weekly-flyer" href="/print-flyer">Weekly Flyer</a>
<a data-track-link-name="about-us:contact-us" href="/contact-us">Contact Us</a>
`

const sortControls = `<div class="sort-by">
<button type="button" aria-labelledby="sort-by menu-button-:r1:">Sort By</button>
<button type="button" data-testid="menu-item" data-index="0">Relevance</button>
<button type="button" data-testid="menu-item" data-index="1">Price Low to High</button>
<button type="button" data-testid="menu-item" data-index="2">Price High to Low</button>
</div>
<div class="filters">
<input type="checkbox" name="Sunny Delight" onclick="location.href='/food/drinks/juice/c/28230?productBrand=SUND'">
<input type="checkbox" name="Tropicana">
</div>
`

func page(title, body string) string {
	return "<!DOCTYPE html>\n<html><head><title>" + title + "</title></head><body>\n" +
		siteHeader + body + "\n<footer>" + siteFooter + "</footer>\n</body></html>"
}

func addressModal(enabled bool) string {
	continueAttrs := ` disabled`
	if enabled {
		continueAttrs = ` onclick="location.href='/no-service'"`
	}
	return `<div role="dialog" class="address-autocomplete-modal">
<input id="addressAutocomplete" value="">
<ul class="address-autocomplete__address-list">
<li onclick="location.href='/?modal=pcx-rapid&amp;address=401-sunset-ave'">401 Sunset Ave, Windsor, ON</li>
<li>401 Sunset Ave, Toronto, ON</li>
</ul>
<button type="button" class="address-autocomplete-modal__button-continue"` + continueAttrs + `>Continue</button>
</div>`
}

// Storefront renders a small grocery site covering the menus, category
// grids, search, footer pages and the delivery popup.
func Storefront(opts StorefrontOptions) map[string]string {
	pages := map[string]string{
		BaseURL + HomePath:    page("Home", `<h1 data-testid="heading">Groceries</h1>`),
		BaseURL + FlyerPath:   page("Flyer", `<h1 data-testid="heading">Flyer Items</h1>`),
		BaseURL + ContactPath: page("Contact", `<h1 class="contact-us-page__header__title">Contact Us</h1>`),
		BaseURL + RapidPath:   page("Home", `<h1 data-testid="heading">Groceries</h1>`+addressModal(false)),
		BaseURL + AddressPath: page("Home", `<h1 data-testid="heading">Groceries</h1>`+addressModal(true)),
	}
	pages[BaseURL+NoServicePath] = page("Unavailable", `<h1 class="no-serviceability__title">`+NoServiceMessage+`</h1>
<a class="no-serviceability__go-back-button" href="/">Return to Zehrs</a>`)

	for _, term := range []string{"milk & cream", "coffee"} {
		q := strings.NewReplacer(" ", "+", "&", "%26").Replace(term)
		pages[BaseURL+"/search?search-bar="+q] = page("Search",
			`<h1 class="page-title__title">Results for "`+strings.ReplaceAll(term, "&", "&amp;")+`"</h1>`)
	}

	juiceLinks := make(map[int]string, opts.JuicePages)
	for n := 1; n <= opts.JuicePages; n++ {
		juiceLinks[n] = fmt.Sprintf("%s&page=%d", JuicePath, n)
	}
	for n := 1; n <= opts.JuicePages; n++ {
		body := Listing{
			Heading:   "Juice",
			Cards:     Cards(fmt.Sprintf("Juice p%d", n), opts.JuicePerPage),
			PageLinks: juiceLinks,
			Header:    siteHeader + sortControls,
			Footer:    siteFooter,
		}.Render()
		pages[fmt.Sprintf("%s%s&page=%d", BaseURL, JuicePath, n)] = body
		if n == 1 {
			pages[BaseURL+JuicePath] = body
		}
	}
	if !opts.OmitBrandPage {
		pages[BaseURL+BrandPath] = Listing{
			Heading: "Juice",
			Cards:   Cards("Sunny D", 2),
			Header:  siteHeader,
			Footer:  siteFooter,
		}.Render()
	}
	pages[BaseURL+CoffeePath] = Listing{
		Heading: "Coffee",
		Cards:   Cards("Coffee", opts.CoffeeCards),
		Header:  siteHeader,
		Footer:  siteFooter,
	}.Render()
	return pages
}
