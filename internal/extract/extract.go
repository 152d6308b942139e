// Package extract turns a product card into a Listing.
package extract

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/law-makers/shelfscan/internal/browser"
	"github.com/law-makers/shelfscan/internal/engine"
	"github.com/law-makers/shelfscan/internal/locator"
	urlutil "github.com/law-makers/shelfscan/internal/utils/url"
	"github.com/law-makers/shelfscan/pkg/models"
)

// PriceTiers is the probe order for a card's price. The first tier with
// non-empty text wins.
var PriceTiers = []string{
	locator.PriceRegular,
	locator.PriceNonMember,
	locator.PriceSale,
}

// Extractor reads listings out of product cards. It never mutates the page.
type Extractor struct {
	driver  browser.Driver
	catalog *locator.Catalog
}

// New creates an Extractor
func New(driver browser.Driver, catalog *locator.Catalog) *Extractor {
	return &Extractor{driver: driver, catalog: catalog}
}

// Extract reads name, price and image from card. A missing or empty name is
// a MISSING_FIELD error; an absent price or image yields "".
func (x *Extractor) Extract(ctx context.Context, card browser.Element) (models.Listing, error) {
	name, err := x.text(ctx, card, locator.ProductTitle)
	if err != nil {
		return models.Listing{}, err
	}
	if name == "" {
		return models.Listing{}, engine.MissingField("name")
	}

	price, err := x.Price(ctx, card)
	if err != nil {
		return models.Listing{}, err
	}

	image, err := x.image(ctx, card)
	if err != nil {
		return models.Listing{}, err
	}

	return models.Listing{Name: name, Price: price, ImageURL: image}, nil
}

// Price probes each tier in PriceTiers order
func (x *Extractor) Price(ctx context.Context, card browser.Element) (string, error) {
	for _, tier := range PriceTiers {
		p, err := x.text(ctx, card, tier)
		if err != nil {
			return "", err
		}
		if p != "" {
			log.Trace().Str("tier", tier).Str("price", p).Msg("Price resolved")
			return p, nil
		}
	}
	return "", nil
}

// text returns the trimmed text of the first match of name inside card, or
// "" when nothing matches.
func (x *Extractor) text(ctx context.Context, card browser.Element, name string) (string, error) {
	el, err := x.probe(ctx, card, name)
	if err != nil || el == nil {
		return "", err
	}
	t, err := x.driver.Text(ctx, el)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(t), nil
}

func (x *Extractor) image(ctx context.Context, card browser.Element) (string, error) {
	el, err := x.probe(ctx, card, locator.ProductImage)
	if err != nil || el == nil {
		return "", err
	}
	src, ok, err := x.driver.Attribute(ctx, el, "src")
	if err != nil || !ok {
		return "", err
	}
	base, err := x.driver.CurrentURL(ctx)
	if err != nil {
		return "", err
	}
	return urlutil.ResolveURL(base, src), nil
}

// probe looks up name within card without waiting. NoSuchElement is
// absorbed into a nil element.
func (x *Extractor) probe(ctx context.Context, card browser.Element, name string) (browser.Element, error) {
	spec, err := x.catalog.Resolve(name)
	if err != nil {
		return nil, err
	}
	el, err := x.driver.Locate(ctx, spec, browser.Within(card), browser.WithoutWait())
	if errors.Is(err, engine.ErrNoSuchElement) {
		return nil, nil
	}
	return el, err
}
