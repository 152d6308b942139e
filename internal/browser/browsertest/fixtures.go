// Package browsertest renders storefront pages for the static driver.
package browsertest

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/law-makers/shelfscan/internal/browser"
)

// BaseURL is the origin used by fixtures
const BaseURL = "https://shop.test"

// Card is one product tile. Empty price fields render as empty tiers;
// Omit* fields leave the tier out entirely.
type Card struct {
	Name      string
	Regular   string
	NonMember string
	Sale      string
	Image     string

	OmitTitle     bool
	OmitRegular   bool
	OmitNonMember bool
	OmitSale      bool
}

// Listing is one page of a category grid
type Listing struct {
	Heading string
	Cards   []Card
	// PageLinks maps page numbers to hrefs for the pagination control. An
	// empty href renders a control that goes nowhere.
	PageLinks map[int]string
	// HideHeading renders the heading with the hidden attribute.
	HideHeading bool
	// Header and Footer are raw HTML placed around the grid.
	Header string
	Footer string
}

// Render returns the HTML for l
func (l Listing) Render() string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html><head><title>")
	b.WriteString(html.EscapeString(l.Heading))
	b.WriteString("</title></head><body>\n")
	b.WriteString(l.Header)
	if l.HideHeading {
		fmt.Fprintf(&b, "<h1 data-testid=\"heading\" hidden>%s</h1>\n", html.EscapeString(l.Heading))
	} else {
		fmt.Fprintf(&b, "<h1 data-testid=\"heading\">%s</h1>\n", html.EscapeString(l.Heading))
	}
	b.WriteString("<div class=\"product-grid\">\n")
	for _, c := range l.Cards {
		b.WriteString(c.Render())
	}
	b.WriteString("</div>\n<nav class=\"pagination\">\n")

	pages := make([]int, 0, len(l.PageLinks))
	for n := range l.PageLinks {
		pages = append(pages, n)
	}
	sort.Ints(pages)
	for _, n := range pages {
		if href := l.PageLinks[n]; href != "" {
			fmt.Fprintf(&b, "<a aria-label=\"Page %d\" href=\"%s\">%d</a>\n", n, html.EscapeString(href), n)
		} else {
			fmt.Fprintf(&b, "<a aria-label=\"Page %d\">%d</a>\n", n, n)
		}
	}
	b.WriteString("</nav>\n<footer style=\"position: sticky\">footer")
	b.WriteString(l.Footer)
	b.WriteString("</footer>\n</body></html>")
	return b.String()
}

// Render returns the HTML for one card
func (c Card) Render() string {
	var b strings.Builder
	b.WriteString("<div class=\"chakra-linkbox\">\n")
	if c.Image != "" {
		fmt.Fprintf(&b, "  <img class=\"chakra-image\" src=\"%s\" alt=\"\">\n", html.EscapeString(c.Image))
	}
	if !c.OmitTitle {
		fmt.Fprintf(&b, "  <h3 data-testid=\"product-title\">%s</h3>\n", html.EscapeString(c.Name))
	}
	tier := func(testID, price string, omit bool) {
		if omit {
			return
		}
		fmt.Fprintf(&b, "  <span data-testid=\"%s\"><span>%s</span></span>\n", testID, html.EscapeString(price))
	}
	tier("regular-price", c.Regular, c.OmitRegular)
	tier("non-members-price", c.NonMember, c.OmitNonMember)
	tier("sale-price", c.Sale, c.OmitSale)
	b.WriteString("</div>\n")
	return b.String()
}

// Cards returns n cards named prefix-1..prefix-n with regular prices
func Cards(prefix string, n int) []Card {
	out := make([]Card, n)
	for i := range out {
		out[i] = Card{
			Name:    fmt.Sprintf("%s %d", prefix, i+1),
			Regular: fmt.Sprintf("$%d.99", i+1),
			Image:   fmt.Sprintf("/img/%s-%d.png", strings.ToLower(prefix), i+1),
		}
	}
	return out
}

// Category renders a paginated category at BaseURL+path with pages pages of
// perPage cards each. Each page links to every page of the category.
func Category(path, heading string, pages, perPage int) map[string]string {
	links := make(map[int]string, pages)
	for n := 1; n <= pages; n++ {
		links[n] = fmt.Sprintf("%s?page=%d", path, n)
	}
	out := make(map[string]string, pages+1)
	for n := 1; n <= pages; n++ {
		l := Listing{
			Heading:   heading,
			Cards:     Cards(fmt.Sprintf("%s p%d", heading, n), perPage),
			PageLinks: links,
		}
		out[fmt.Sprintf("%s%s?page=%d", BaseURL, path, n)] = l.Render()
	}
	out[BaseURL+path] = out[fmt.Sprintf("%s%s?page=1", BaseURL, path)]
	return out
}

// NewDriver returns a static driver over the merged page sets
func NewDriver(sets ...map[string]string) *browser.Static {
	pages := make(map[string]string)
	for _, set := range sets {
		for u, body := range set {
			pages[u] = body
		}
	}
	return browser.NewStatic(pages)
}
