// internal/browser/static.go
package browser

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/dop251/goja"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"

	"github.com/law-makers/shelfscan/internal/engine"
	"github.com/law-makers/shelfscan/internal/locator"
	urlutil "github.com/law-makers/shelfscan/internal/utils/url"
)

// Static is an offline driver over captured HTML documents keyed by URL.
//
// It models the parts of a browser the engine depends on: link following,
// GET form submission, inline onclick handlers (run with goja), visibility
// from the hidden attribute and inline styles, and hit-testing through the
// inert attribute and pointer-events:none. Page content never changes on
// its own, so lookups do not wait. Static is not safe for concurrent use.
type Static struct {
	pages      map[string]string
	doc        *goquery.Document
	url        string
	generation uint64
	hovered    *html.Node
	history    []string
	closed     bool
}

type staticElement struct {
	node *html.Node
	gen  uint64
	desc string
}

func (e *staticElement) Generation() uint64 { return e.gen }
func (e *staticElement) String() string     { return e.desc }

// NewStatic creates a driver serving pages, a map of absolute URL to HTML.
// The driver starts on about:blank.
func NewStatic(pages map[string]string) *Static {
	s := &Static{pages: make(map[string]string, len(pages)), url: "about:blank"}
	for u, body := range pages {
		s.pages[u] = body
	}
	s.doc, _ = goquery.NewDocumentFromReader(strings.NewReader("<html><head></head><body></body></html>"))
	return s
}

// AddPage registers or replaces the document served for u
func (s *Static) AddPage(u, body string) {
	s.pages[u] = body
}

// History returns every URL loaded so far, in order
func (s *Static) History() []string {
	out := make([]string, len(s.history))
	copy(out, s.history)
	return out
}

// Hovered returns the element last hovered, or nil
func (s *Static) Hovered() *html.Node { return s.hovered }

func (s *Static) Generation() uint64 { return s.generation }

func (s *Static) element(el Element) (*staticElement, error) {
	if s.closed {
		return nil, engine.NewEngineError(engine.ErrCodeBrowserCrash, "driver is closed", nil)
	}
	se, ok := el.(*staticElement)
	if !ok || se == nil {
		return nil, fmt.Errorf("element %v was not produced by the static driver", el)
	}
	if se.gen != s.generation {
		return nil, engine.StaleElement(se.gen, s.generation)
	}
	return se, nil
}

func (s *Static) find(spec locator.Spec, o LocateOptions) ([]*html.Node, error) {
	root := s.doc.Nodes[0]
	if o.Scope != nil {
		se, err := s.element(o.Scope)
		if err != nil {
			return nil, err
		}
		root = se.node
	}

	if sel, ok := spec.CSSSelector(); ok {
		return goquery.NewDocumentFromNode(root).Find(sel).Nodes, nil
	}
	nodes, err := htmlquery.QueryAll(root, spec.Expression)
	if err != nil {
		return nil, fmt.Errorf("invalid xpath for %s: %w", spec.Name, err)
	}
	return nodes, nil
}

func (s *Static) wrap(spec locator.Spec, nodes []*html.Node) []Element {
	out := make([]Element, 0, len(nodes))
	for i, n := range nodes {
		out = append(out, &staticElement{node: n, gen: s.generation, desc: fmt.Sprintf("%s[%d]", spec.Name, i)})
	}
	return out
}

func (s *Static) Locate(ctx context.Context, spec locator.Spec, opts ...LocateOption) (Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	nodes, err := s.find(spec, ApplyLocateOptions(0, opts...))
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, engine.NoSuchElement(spec.String())
	}
	return s.wrap(spec, nodes[:1])[0], nil
}

func (s *Static) LocateAll(ctx context.Context, spec locator.Spec, opts ...LocateOption) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	nodes, err := s.find(spec, ApplyLocateOptions(0, opts...))
	if err != nil {
		return nil, err
	}
	return s.wrap(spec, nodes), nil
}

// Click performs a native click: the element must be visible and must not
// sit under an inert or pointer-events:none subtree.
func (s *Static) Click(ctx context.Context, el Element) error {
	se, err := s.element(el)
	if err != nil {
		return err
	}
	if !visible(se.node) || !hitTestable(se.node) {
		return engine.NotInteractable(se.desc)
	}
	if hasAttr(se.node, "disabled") {
		return nil
	}
	return s.activate(ctx, se.node)
}

func (s *Static) Hover(ctx context.Context, el Element) error {
	se, err := s.element(el)
	if err != nil {
		return err
	}
	if !visible(se.node) {
		return engine.NotInteractable(se.desc)
	}
	s.hovered = se.node
	if code, ok := attr(se.node, "onmouseover"); ok {
		nav, _, err := s.runHandler(se.node, code)
		if err != nil {
			return err
		}
		if nav != "" {
			return s.Navigate(ctx, nav)
		}
	}
	return nil
}

// SendKeys appends text to the value of an input element
func (s *Static) SendKeys(ctx context.Context, el Element, text string) error {
	se, err := s.element(el)
	if err != nil {
		return err
	}
	if !visible(se.node) {
		return engine.NotInteractable(se.desc)
	}
	cur, _ := attr(se.node, "value")
	setAttr(se.node, "value", cur+text)
	return nil
}

// Text returns the normalized text of a visible element, "" otherwise.
func (s *Static) Text(ctx context.Context, el Element) (string, error) {
	se, err := s.element(el)
	if err != nil {
		return "", err
	}
	if !visible(se.node) {
		return "", nil
	}
	return strings.Join(strings.Fields(goquery.NewDocumentFromNode(se.node).Text()), " "), nil
}

// Attribute returns an attribute value; src and href are resolved against
// the current URL the way the DOM properties are.
func (s *Static) Attribute(ctx context.Context, el Element, name string) (string, bool, error) {
	se, err := s.element(el)
	if err != nil {
		return "", false, err
	}
	v, ok := attr(se.node, name)
	if !ok {
		return "", false, nil
	}
	if name == "src" || name == "href" {
		v = urlutil.ResolveURL(s.url, v)
	}
	return v, true, nil
}

func (s *Static) IsVisible(ctx context.Context, el Element) (bool, error) {
	se, err := s.element(el)
	if err != nil {
		return false, err
	}
	return visible(se.node), nil
}

func (s *Static) IsEnabled(ctx context.Context, el Element) (bool, error) {
	se, err := s.element(el)
	if err != nil {
		return false, err
	}
	return !hasAttr(se.node, "disabled"), nil
}

// Navigate loads a captured page. Fragments are ignored when looking up the
// document but kept in the current URL.
func (s *Static) Navigate(ctx context.Context, u string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.closed {
		return engine.NewEngineError(engine.ErrCodeBrowserCrash, "driver is closed", nil)
	}
	body, ok := s.pages[u]
	if !ok {
		body, ok = s.pages[urlutil.StripFragment(u)]
	}
	if !ok {
		return fmt.Errorf("static: no captured page for %s", u)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("static: parse %s: %w", u, err)
	}
	s.doc = doc
	s.url = u
	s.hovered = nil
	s.generation++
	s.history = append(s.history, u)
	log.Debug().Str("url", u).Uint64("generation", s.generation).Msg("Static page loaded")
	return nil
}

func (s *Static) CurrentURL(ctx context.Context) (string, error) {
	return s.url, nil
}

func (s *Static) Snapshot(ctx context.Context) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, s.doc.Nodes[0]); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *Static) Quit() error {
	s.closed = true
	return nil
}

// ExecuteScript runs src as a function body in a fresh goja runtime.
// Element arguments become objects exposing click, getAttribute,
// hasAttribute, innerText and tagName; click bypasses hit-testing.
func (s *Static) ExecuteScript(ctx context.Context, src string, args ...interface{}) (interface{}, error) {
	if s.closed {
		return nil, engine.NewEngineError(engine.ErrCodeBrowserCrash, "driver is closed", nil)
	}
	vm, nav := s.newRuntime(ctx)

	jsArgs := make([]interface{}, 0, len(args))
	for _, a := range args {
		if el, ok := a.(Element); ok {
			se, err := s.element(el)
			if err != nil {
				return nil, err
			}
			jsArgs = append(jsArgs, s.jsElement(ctx, vm, se.node))
			continue
		}
		jsArgs = append(jsArgs, a)
	}
	if err := vm.Set("__args", vm.NewArray(jsArgs...)); err != nil {
		return nil, err
	}

	v, err := vm.RunString("(function(){\n" + src + "\n}).apply(null, __args)")
	if err != nil {
		return nil, fmt.Errorf("script error: %w", err)
	}
	if *nav != "" {
		if err := s.Navigate(ctx, *nav); err != nil {
			return nil, err
		}
	}
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, nil
	}
	return v.Export(), nil
}

// newRuntime returns a goja runtime with a minimal window/location surface.
// Assignments to location are recorded in the returned string.
func (s *Static) newRuntime(ctx context.Context) (*goja.Runtime, *string) {
	vm := goja.New()
	nav := new(string)

	loc := vm.NewObject()
	_ = loc.DefineAccessorProperty("href",
		vm.ToValue(func(goja.FunctionCall) goja.Value { return vm.ToValue(s.url) }),
		vm.ToValue(func(call goja.FunctionCall) goja.Value {
			*nav = urlutil.ResolveURL(s.url, call.Argument(0).String())
			return goja.Undefined()
		}),
		goja.FLAG_TRUE, goja.FLAG_TRUE)
	assign := func(call goja.FunctionCall) goja.Value {
		*nav = urlutil.ResolveURL(s.url, call.Argument(0).String())
		return goja.Undefined()
	}
	_ = loc.Set("assign", assign)
	_ = loc.Set("replace", assign)
	_ = loc.Set("reload", func(goja.FunctionCall) goja.Value {
		*nav = s.url
		return goja.Undefined()
	})
	_ = loc.Set("toString", func(goja.FunctionCall) goja.Value { return vm.ToValue(s.url) })

	noop := func(goja.FunctionCall) goja.Value { return goja.Undefined() }
	console := vm.NewObject()
	_ = console.Set("log", noop)
	_ = console.Set("error", noop)

	document := vm.NewObject()
	_ = document.Set("location", loc)
	_ = document.Set("querySelector", func(call goja.FunctionCall) goja.Value {
		sel := s.doc.Find(call.Argument(0).String())
		if sel.Length() == 0 {
			return goja.Null()
		}
		return s.jsElement(ctx, vm, sel.Nodes[0])
	})

	_ = vm.Set("window", vm.GlobalObject())
	_ = vm.Set("self", vm.GlobalObject())
	_ = vm.Set("location", loc)
	_ = vm.Set("document", document)
	_ = vm.Set("console", console)
	_ = vm.Set("scrollTo", noop)
	_ = vm.Set("scrollBy", noop)
	return vm, nav
}

func (s *Static) jsElement(ctx context.Context, vm *goja.Runtime, n *html.Node) *goja.Object {
	obj := vm.NewObject()
	_ = obj.Set("tagName", strings.ToUpper(n.Data))
	_ = obj.Set("click", func(goja.FunctionCall) goja.Value {
		if hasAttr(n, "disabled") {
			return goja.Undefined()
		}
		if err := s.activate(ctx, n); err != nil {
			panic(vm.NewGoError(err))
		}
		return goja.Undefined()
	})
	_ = obj.Set("getAttribute", func(call goja.FunctionCall) goja.Value {
		if v, ok := attr(n, call.Argument(0).String()); ok {
			return vm.ToValue(v)
		}
		return goja.Null()
	})
	_ = obj.Set("hasAttribute", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(hasAttr(n, call.Argument(0).String()))
	})
	_ = obj.Set("scrollIntoView", func(goja.FunctionCall) goja.Value { return goja.Undefined() })
	_ = obj.Set("focus", func(goja.FunctionCall) goja.Value { return goja.Undefined() })
	_ = obj.DefineAccessorProperty("innerText",
		vm.ToValue(func(goja.FunctionCall) goja.Value {
			return vm.ToValue(strings.Join(strings.Fields(goquery.NewDocumentFromNode(n).Text()), " "))
		}), nil, goja.FLAG_TRUE, goja.FLAG_TRUE)
	_ = obj.DefineAccessorProperty("disabled",
		vm.ToValue(func(goja.FunctionCall) goja.Value { return vm.ToValue(hasAttr(n, "disabled")) }),
		nil, goja.FLAG_TRUE, goja.FLAG_TRUE)
	return obj
}

// runHandler runs an inline event handler body with `this` bound to n.
// It returns a pending navigation and whether the default was prevented.
func (s *Static) runHandler(n *html.Node, code string) (string, bool, error) {
	ctx := context.Background()
	vm, nav := s.newRuntime(ctx)
	prevented := false
	event := vm.NewObject()
	_ = event.Set("preventDefault", func(goja.FunctionCall) goja.Value {
		prevented = true
		return goja.Undefined()
	})
	_ = event.Set("stopPropagation", func(goja.FunctionCall) goja.Value { return goja.Undefined() })
	_ = vm.Set("__this", s.jsElement(ctx, vm, n))
	_ = vm.Set("__event", event)

	v, err := vm.RunString("(function(event){\n" + code + "\n}).call(__this, __event)")
	if err != nil {
		return "", false, fmt.Errorf("handler error: %w", err)
	}
	if v != nil && !goja.IsUndefined(v) && !goja.IsNull(v) {
		if b, ok := v.Export().(bool); ok && !b {
			prevented = true
		}
	}
	return *nav, prevented, nil
}

// activate dispatches a click on n: inline handlers from n up to the root
// run first, then the default action of the nearest actionable ancestor.
func (s *Static) activate(ctx context.Context, n *html.Node) error {
	gen := s.generation

	if tagIs(n, "input") && inputType(n) == "checkbox" {
		if hasAttr(n, "checked") {
			removeAttr(n, "checked")
		} else {
			setAttr(n, "checked", "")
		}
	}

	prevented := false
	for cur := n; cur != nil && cur.Type == html.ElementNode; cur = cur.Parent {
		code, ok := attr(cur, "onclick")
		if !ok {
			continue
		}
		nav, stop, err := s.runHandler(cur, code)
		if err != nil {
			return err
		}
		if nav != "" {
			return s.Navigate(ctx, nav)
		}
		if stop {
			prevented = true
		}
	}
	if prevented || s.generation != gen {
		return nil
	}

	for cur := n; cur != nil && cur.Type == html.ElementNode; cur = cur.Parent {
		switch {
		case tagIs(cur, "a"):
			href, ok := attr(cur, "href")
			if !ok {
				return nil
			}
			return s.follow(ctx, href)
		case tagIs(cur, "button"):
			switch t, _ := attr(cur, "type"); strings.ToLower(t) {
			case "button":
				return nil
			case "reset":
				s.resetForm(cur)
				return nil
			}
			return s.submit(ctx, cur)
		case tagIs(cur, "input"):
			switch inputType(cur) {
			case "submit", "image":
				return s.submit(ctx, cur)
			case "reset":
				s.resetForm(cur)
			}
			return nil
		}
	}
	return nil
}

func (s *Static) follow(ctx context.Context, href string) error {
	href = strings.TrimSpace(href)
	switch {
	case strings.HasPrefix(href, "javascript:"):
		nav, _, err := s.runHandler(s.doc.Nodes[0], strings.TrimPrefix(href, "javascript:"))
		if err != nil || nav == "" {
			return err
		}
		return s.Navigate(ctx, nav)
	case strings.HasPrefix(href, "#"):
		// same-document navigation keeps the DOM but invalidates handles
		s.url = urlutil.StripFragment(s.url) + href
		s.generation++
		return nil
	}
	return s.Navigate(ctx, urlutil.ResolveURL(s.url, href))
}

func (s *Static) submit(ctx context.Context, from *html.Node) error {
	form := closest(from, "form")
	if form == nil {
		return nil
	}
	action, _ := attr(form, "action")
	target := s.url
	if action != "" {
		target = urlutil.ResolveURL(s.url, action)
	}
	u, err := url.Parse(urlutil.StripFragment(target))
	if err != nil {
		return fmt.Errorf("static: form action %q: %w", action, err)
	}

	values := url.Values{}
	goquery.NewDocumentFromNode(form).Find("input[name], textarea[name], select[name]").Each(func(_ int, sel *goquery.Selection) {
		n := sel.Nodes[0]
		if hasAttr(n, "disabled") {
			return
		}
		name, _ := attr(n, "name")
		switch inputType(n) {
		case "submit", "reset", "button", "image":
			return
		case "checkbox", "radio":
			if !hasAttr(n, "checked") {
				return
			}
			v, ok := attr(n, "value")
			if !ok {
				v = "on"
			}
			values.Add(name, v)
			return
		}
		v, _ := attr(n, "value")
		values.Add(name, v)
	})
	if name, ok := attr(from, "name"); ok && name != "" {
		v, _ := attr(from, "value")
		values.Add(name, v)
	}
	u.RawQuery = values.Encode()
	return s.Navigate(ctx, u.String())
}

func (s *Static) resetForm(from *html.Node) {
	form := closest(from, "form")
	if form == nil {
		return
	}
	goquery.NewDocumentFromNode(form).Find("input, textarea").Each(func(_ int, sel *goquery.Selection) {
		n := sel.Nodes[0]
		switch inputType(n) {
		case "submit", "reset", "button", "image", "hidden":
			return
		case "checkbox", "radio":
			removeAttr(n, "checked")
			return
		}
		setAttr(n, "value", "")
	})
}

// LoadStatic builds a Static driver from a snapshot directory written by a
// Recorder.
func LoadStatic(dir string) (*Static, error) {
	m, err := ReadManifest(dir)
	if err != nil {
		return nil, err
	}
	pages, err := m.Load(dir)
	if err != nil {
		return nil, err
	}
	log.Info().Str("dir", dir).Int("pages", len(pages)).Msg("Loaded snapshot set for replay")
	return NewStatic(pages), nil
}

// DOM helpers

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

func hasAttr(n *html.Node, key string) bool {
	_, ok := attr(n, key)
	return ok
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			continue
		}
		kept = append(kept, a)
	}
	n.Attr = kept
}

func tagIs(n *html.Node, tag string) bool {
	return n.Type == html.ElementNode && n.Data == tag
}

func inputType(n *html.Node) string {
	if !tagIs(n, "input") {
		return ""
	}
	t, _ := attr(n, "type")
	if t == "" {
		return "text"
	}
	return strings.ToLower(t)
}

func closest(n *html.Node, tag string) *html.Node {
	for cur := n; cur != nil; cur = cur.Parent {
		if tagIs(cur, tag) {
			return cur
		}
	}
	return nil
}

func inlineStyle(n *html.Node) map[string]string {
	raw, ok := attr(n, "style")
	if !ok {
		return nil
	}
	out := make(map[string]string)
	for _, decl := range strings.Split(raw, ";") {
		k, v, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		out[strings.ToLower(strings.TrimSpace(k))] = strings.ToLower(strings.TrimSpace(v))
	}
	return out
}

var invisibleTags = map[string]bool{
	"head": true, "script": true, "style": true, "template": true, "noscript": true, "title": true, "meta": true,
}

// visible walks n and its ancestors looking for anything that removes it
// from rendering.
func visible(n *html.Node) bool {
	if inputType(n) == "hidden" {
		return false
	}
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type != html.ElementNode {
			continue
		}
		if invisibleTags[cur.Data] || hasAttr(cur, "hidden") {
			return false
		}
		style := inlineStyle(cur)
		if style["display"] == "none" || style["visibility"] == "hidden" {
			return false
		}
	}
	return true
}

// hitTestable reports whether a pointer event at n would reach it
func hitTestable(n *html.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type != html.ElementNode {
			continue
		}
		if hasAttr(cur, "inert") || inlineStyle(cur)["pointer-events"] == "none" {
			return false
		}
	}
	return true
}

var _ Driver = (*Static)(nil)
var _ Driver = (*Chrome)(nil)
