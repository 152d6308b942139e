package scenario

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/law-makers/shelfscan/internal/engine"
	"github.com/law-makers/shelfscan/internal/interact"
	"github.com/law-makers/shelfscan/internal/locator"
	"github.com/law-makers/shelfscan/internal/retry"
	urlutil "github.com/law-makers/shelfscan/internal/utils/url"
	"github.com/law-makers/shelfscan/pkg/models"
)

// Category paths on the storefront, relative to the base URL
const (
	JuicePath  = "/food/drinks/juice/c/28230?navid=flyout-L3-Drinks-Juice"
	CoffeePath = "/food/drinks/coffee/c/28228?navid=flyout-L3-Drinks-Coffee"
)

// Export files written by the scrape scenarios
const (
	SinglePageExport = "products_page1.csv"
	MultiPageExport  = "products_pages123.csv"
	CategoryExport   = "products_dif_cat.csv"
)

// NoServiceMessage is the text the delivery popup shows for an address
// outside the service area.
const NoServiceMessage = "We’re sorry but it looks like we’re not available in your area yet."

// Sort option indexes in the sort-by menu
const (
	SortPriceLowToHigh = 1
	SortPriceHighToLow = 2
)

// Default returns the registry of built-in scenarios
func Default() *Registry {
	return NewRegistry(
		Scenario{"menu-interact", "Open the grocery menu and hover through its sections", menuInteract},
		Scenario{"product-page-interact", "Open Juice from the menu, sort it and filter by brand", productPageInteract},
		Scenario{"footer-interact", "Follow the weekly flyer and contact footer links", footerInteract},
		Scenario{"scrape-products", "Export the first page of the juice category", scrapeProducts},
		Scenario{"scrape-multi-pages", "Export pages 1-3 of the juice category", scrapeMultiPages},
		Scenario{"scrape-categories", "Export the juice and coffee categories", scrapeCategories},
		Scenario{"search-products", "Search for two terms and check the results title", searchProducts},
		Scenario{"handle-popup", "Walk the delivery address popup to the no-service page", handlePopup},
	)
}

func openGroceryMenu(ctx context.Context, in *interact.Interactor) error {
	if err := in.Click(ctx, interact.NativeClick, locator.MenuGrocery); err != nil {
		return err
	}
	return in.Settle(ctx)
}

func menuInteract(ctx context.Context, env *Env) error {
	in := env.In
	if err := openGroceryMenu(ctx, in); err != nil {
		return err
	}
	for _, name := range []string{
		locator.MenuDrinks,
		locator.MenuDrinksJuice,
		locator.MenuDrinksCoffee,
		locator.MenuHomeBeautyBaby,
		locator.MenuJoeFresh,
		locator.MenuDiscover,
	} {
		if _, err := in.Hover(ctx, name); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func productPageInteract(ctx context.Context, env *Env) error {
	in := env.In
	if err := openGroceryMenu(ctx, in); err != nil {
		return err
	}
	if _, err := in.Hover(ctx, locator.MenuDrinks); err != nil {
		return err
	}
	if err := in.Click(ctx, interact.NativeClick, locator.MenuDrinksJuice); err != nil {
		return err
	}
	if err := in.Settle(ctx); err != nil {
		return err
	}
	if err := headingContains(ctx, in, "juice"); err != nil {
		return err
	}

	for _, idx := range []int{SortPriceLowToHigh, SortPriceHighToLow} {
		if err := sortBy(ctx, in, idx); err != nil {
			return fmt.Errorf("sort option %d: %w", idx, err)
		}
	}

	filter, err := in.Hover(ctx, locator.BrandFilter, "Sunny Delight")
	if err != nil {
		return err
	}
	if err := in.Activate(ctx, filter, interact.ScriptClick); err != nil {
		return err
	}
	if err := in.Settle(ctx); err != nil {
		return err
	}
	return urlContains(ctx, in, "productBrand=SUND")
}

func sortBy(ctx context.Context, in *interact.Interactor, index int) error {
	menu, err := in.Hover(ctx, locator.SortMenu)
	if err != nil {
		return err
	}
	if err := in.Activate(ctx, menu, interact.NativeClick); err != nil {
		return err
	}
	if err := in.Settle(ctx); err != nil {
		return err
	}
	option, err := in.Hover(ctx, locator.SortOption, index)
	if err != nil {
		return err
	}
	if err := in.Activate(ctx, option, interact.NativeClick); err != nil {
		return err
	}
	return in.Settle(ctx)
}

func footerInteract(ctx context.Context, env *Env) error {
	in := env.In
	if err := followFooter(ctx, in, locator.FooterWeeklyFlyer); err != nil {
		return err
	}
	if err := headingContains(ctx, in, "flyer items"); err != nil {
		return err
	}
	if err := followFooter(ctx, in, locator.FooterContactUs); err != nil {
		return err
	}
	_, err := in.Find(ctx, locator.ContactHeader)
	return err
}

// followFooter hovers a footer link and script-clicks it; footer links sit
// under a sticky bar that swallows native clicks.
func followFooter(ctx context.Context, in *interact.Interactor, name string) error {
	link, err := in.Hover(ctx, name)
	if err != nil {
		return err
	}
	if err := in.Activate(ctx, link, interact.ScriptClick); err != nil {
		return err
	}
	return in.Settle(ctx)
}

func scrapeProducts(ctx context.Context, env *Env) error {
	_, err := env.Scrape(ctx, SinglePageExport, models.Target{CategoryURL: env.URL(JuicePath), Pages: 1})
	return err
}

func scrapeMultiPages(ctx context.Context, env *Env) error {
	_, err := env.Scrape(ctx, MultiPageExport, models.Target{CategoryURL: env.URL(JuicePath), Pages: 3})
	return err
}

func scrapeCategories(ctx context.Context, env *Env) error {
	_, err := env.Scrape(ctx, CategoryExport,
		models.Target{CategoryURL: env.URL(JuicePath), Pages: 1},
		models.Target{CategoryURL: env.URL(CoffeePath), Pages: 1},
	)
	return err
}

func searchProducts(ctx context.Context, env *Env) error {
	in := env.In
	for i, term := range []string{"milk & cream", "coffee"} {
		if i > 0 {
			if err := in.Click(ctx, interact.NativeClick, locator.SearchClear); err != nil {
				return err
			}
			if err := in.Settle(ctx); err != nil {
				return err
			}
		}
		if err := search(ctx, in, term); err != nil {
			return fmt.Errorf("search %q: %w", term, err)
		}
	}
	return nil
}

func search(ctx context.Context, in *interact.Interactor, term string) error {
	field, err := in.Find(ctx, locator.SearchField)
	if err != nil {
		return err
	}
	if err := in.Type(ctx, field, term); err != nil {
		return err
	}
	if err := in.Click(ctx, interact.NativeClick, locator.SearchButton); err != nil {
		return err
	}
	if err := in.Settle(ctx); err != nil {
		return err
	}
	title, err := in.VisibleText(ctx, locator.PageTitle)
	if err != nil {
		return err
	}
	if !containsFold(title, term) {
		return engine.CheckFailed("results title %q does not mention %q", title, term)
	}
	return nil
}

func handlePopup(ctx context.Context, env *Env) error {
	in := env.In
	if err := in.Click(ctx, interact.ScriptClick, locator.RapidLogo); err != nil {
		return err
	}
	if err := in.Settle(ctx); err != nil {
		return err
	}

	address, err := in.Find(ctx, locator.AddressAutocomplete)
	if err != nil {
		return err
	}
	if err := in.Type(ctx, address, "401 Sunset Ave"); err != nil {
		return err
	}
	if err := in.Settle(ctx); err != nil {
		return err
	}
	if err := in.Click(ctx, interact.ScriptClick, locator.AddressFirstOption); err != nil {
		return err
	}
	if err := in.Settle(ctx); err != nil {
		return err
	}

	next, err := in.Find(ctx, locator.AddressContinue)
	if err != nil {
		return err
	}
	if err := waitFor(ctx, in, "continue button to be enabled", func() (bool, error) {
		return in.Driver().IsEnabled(ctx, next)
	}); err != nil {
		return err
	}
	if err := in.Activate(ctx, next, interact.NativeClick); err != nil {
		return err
	}
	if err := in.Settle(ctx); err != nil {
		return err
	}

	title, err := in.Find(ctx, locator.NoServiceTitle)
	if err != nil {
		return err
	}
	if err := waitFor(ctx, in, "no-service message", func() (bool, error) {
		text, err := in.ReadText(ctx, title)
		return containsFold(text, NoServiceMessage), err
	}); err != nil {
		return err
	}

	if err := in.Click(ctx, interact.NativeClick, locator.NoServiceGoBack); err != nil {
		return err
	}
	return in.Settle(ctx)
}

// waitFor polls cond for the interaction wait timeout. Expiry is a failed
// checkpoint.
func waitFor(ctx context.Context, in *interact.Interactor, what string, cond func() (bool, error)) error {
	t := in.Timeouts()
	err := retry.Until(ctx, t.Wait, t.PollInterval, cond)
	if errors.Is(err, context.DeadlineExceeded) {
		return engine.CheckFailed("timed out waiting for %s", what)
	}
	return err
}

func headingContains(ctx context.Context, in *interact.Interactor, want string) error {
	heading, err := in.VisibleText(ctx, locator.PageHeading)
	if err != nil {
		return err
	}
	if !containsFold(heading, want) {
		return engine.CheckFailed("heading %q does not contain %q", heading, want)
	}
	return nil
}

func urlContains(ctx context.Context, in *interact.Interactor, want string) error {
	u, err := in.Driver().CurrentURL(ctx)
	if err != nil {
		return err
	}
	if !strings.Contains(u, want) {
		return engine.CheckFailed("url %s does not contain %s", urlutil.StripFragment(u), want)
	}
	return nil
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
