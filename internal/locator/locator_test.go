package locator

import (
	"errors"
	"testing"

	"github.com/law-makers/shelfscan/internal/engine"
)

func TestResolveUnknown(t *testing.T) {
	c := Default()
	_, err := c.Resolve("no.such.locator")
	if !errors.Is(err, engine.ErrUnknownLocator) {
		t.Fatalf("expected ErrUnknownLocator, got %v", err)
	}
	if !engine.IsCode(err, engine.ErrCodeUnknownLocator) {
		t.Fatalf("expected code %s", engine.ErrCodeUnknownLocator)
	}
}

func TestDefaultCatalogComplete(t *testing.T) {
	c := Default()
	for _, name := range []string{
		MenuGrocery, PageHeading, ProductCard, ProductTitle, ProductImage,
		PriceRegular, PriceNonMember, PriceSale, PaginationPage, SearchField,
	} {
		s, err := c.Resolve(name)
		if err != nil {
			t.Fatalf("resolve %s: %v", name, err)
		}
		if s.Name != name || s.Expression == "" {
			t.Fatalf("bad spec for %s: %+v", name, s)
		}
	}
	names := c.Names()
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("names not sorted: %v", names)
		}
	}
	if c.Len() != len(names) {
		t.Fatalf("Len %d != %d names", c.Len(), len(names))
	}
}

func TestResolveWithTemplate(t *testing.T) {
	c := Default()
	s, err := c.ResolveWith(PaginationPage, 3)
	if err != nil {
		t.Fatal(err)
	}
	if s.Expression != `a[aria-label="Page 3"]` {
		t.Fatalf("unexpected expression %q", s.Expression)
	}
	tmpl, _ := c.Resolve(PaginationPage)
	if !tmpl.IsTemplate() || s.IsTemplate() {
		t.Fatal("template detection wrong")
	}
	if tmpl.Expression != `a[aria-label="Page %d"]` {
		t.Fatal("ResolveWith must not mutate the catalog")
	}

	brand, _ := c.ResolveWith(BrandFilter, "Sunny Delight")
	if brand.Expression != `input[name="Sunny Delight"]` {
		t.Fatalf("unexpected brand expression %q", brand.Expression)
	}
}

func TestMergeOverrides(t *testing.T) {
	base := Default()
	merged := base.Merge(Spec{Name: ProductCard, Strategy: XPath, Expression: `//article`})

	s, _ := merged.Resolve(ProductCard)
	if s.Strategy != XPath || s.Expression != `//article` {
		t.Fatalf("override not applied: %+v", s)
	}
	orig, _ := base.Resolve(ProductCard)
	if orig.Strategy != CSS {
		t.Fatal("Merge must not modify the receiver")
	}
	if merged.Len() != base.Len() {
		t.Fatalf("override of an existing name must not add entries")
	}
}

func TestCSSSelector(t *testing.T) {
	tests := []struct {
		spec Spec
		want string
		ok   bool
	}{
		{Spec{"a", CSS, "div.x"}, "div.x", true},
		{Spec{"b", Class, "page-title__title"}, ".page-title__title", true},
		{Spec{"c", Class, "a  b"}, ".a.b", true},
		{Spec{"d", XPath, "//h1"}, "//h1", false},
	}
	for _, tt := range tests {
		got, ok := tt.spec.CSSSelector()
		if got != tt.want || ok != tt.ok {
			t.Errorf("%s: got (%q, %v), want (%q, %v)", tt.spec.Name, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseStrategy(t *testing.T) {
	tests := map[string]Strategy{"": CSS, "CSS": CSS, "xpath": XPath, "XPath": XPath, "class": Class, "className": Class}
	for in, want := range tests {
		got, err := ParseStrategy(in)
		if err != nil || got != want {
			t.Errorf("ParseStrategy(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseStrategy("id"); err == nil {
		t.Error("expected error for unknown strategy")
	}
}
