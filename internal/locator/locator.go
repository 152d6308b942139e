// Package locator maps semantic element names to selector expressions.
//
// A Catalog never touches the page. It only describes patterns; element
// lookup happens in the browser driver, so every entry can be re-resolved
// after a navigation.
package locator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/law-makers/shelfscan/internal/engine"
)

// Strategy selects how an expression is interpreted by the driver
type Strategy int

const (
	CSS Strategy = iota
	XPath
	Class
)

// String returns the string representation of the strategy
func (s Strategy) String() string {
	switch s {
	case CSS:
		return "css"
	case XPath:
		return "xpath"
	case Class:
		return "class"
	default:
		return "unknown"
	}
}

// ParseStrategy parses a strategy name case-insensitively
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "css", "":
		return CSS, nil
	case "xpath":
		return XPath, nil
	case "class", "classname":
		return Class, nil
	}
	return CSS, fmt.Errorf("unknown locator strategy %q", s)
}

// Spec is an immutable selector definition.
type Spec struct {
	Name       string
	Strategy   Strategy
	Expression string
}

// String renders the spec for logs and error messages
func (s Spec) String() string {
	return fmt.Sprintf("%s(%s)", s.Strategy, s.Expression)
}

// IsTemplate reports whether the expression needs arguments
func (s Spec) IsTemplate() bool {
	return strings.Contains(s.Expression, "%d") || strings.Contains(s.Expression, "%s")
}

// CSSSelector converts the spec to a CSS selector. XPath specs have no CSS
// equivalent and are returned unchanged with ok=false.
func (s Spec) CSSSelector() (string, bool) {
	switch s.Strategy {
	case CSS:
		return s.Expression, true
	case Class:
		return "." + strings.Join(strings.Fields(s.Expression), "."), true
	}
	return s.Expression, false
}

// Catalog is a read-only set of named specs
type Catalog struct {
	specs map[string]Spec
}

// New builds a catalog from specs. Later duplicates replace earlier ones.
func New(specs ...Spec) *Catalog {
	c := &Catalog{specs: make(map[string]Spec, len(specs))}
	for _, s := range specs {
		c.specs[s.Name] = s
	}
	return c
}

// Resolve returns the spec registered under name.
func (c *Catalog) Resolve(name string) (Spec, error) {
	s, ok := c.specs[name]
	if !ok {
		return Spec{}, engine.UnknownLocator(name)
	}
	return s, nil
}

// ResolveWith resolves a templated spec and fills its verbs with args.
func (c *Catalog) ResolveWith(name string, args ...interface{}) (Spec, error) {
	s, err := c.Resolve(name)
	if err != nil {
		return Spec{}, err
	}
	if len(args) == 0 {
		return s, nil
	}
	s.Expression = fmt.Sprintf(s.Expression, args...)
	return s, nil
}

// Merge returns a new catalog with overrides applied on top of c
func (c *Catalog) Merge(overrides ...Spec) *Catalog {
	merged := make([]Spec, 0, len(c.specs)+len(overrides))
	for _, s := range c.specs {
		merged = append(merged, s)
	}
	return New(append(merged, overrides...)...)
}

// Names returns all registered names in sorted order
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.specs))
	for n := range c.specs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of specs
func (c *Catalog) Len() int {
	return len(c.specs)
}
