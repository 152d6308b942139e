// internal/browser/chromedp.go
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/shelfscan/internal/engine"
	"github.com/law-makers/shelfscan/internal/locator"
)

// ChromeOptions configures the Chrome driver
type ChromeOptions struct {
	Headless     bool
	ChromePath   string
	UserAgent    string
	Proxy        string
	WindowWidth  int
	WindowHeight int
	ImplicitWait time.Duration
	PollInterval time.Duration
	ExtraArgs    []chromedp.ExecAllocatorOption

	// Headers are sent with every request the tab makes.
	Headers map[string]string
}

// Chrome drives a single Chrome tab through chromedp
type Chrome struct {
	allocCtx     context.Context
	allocCancel  context.CancelFunc
	tabCtx       context.Context
	tabCancel    context.CancelFunc
	implicitWait time.Duration
	pollInterval time.Duration
	generation   atomic.Uint64
	closed       atomic.Bool
}

type chromeElement struct {
	node *cdp.Node
	gen  uint64
	desc string
}

func (e *chromeElement) Generation() uint64 { return e.gen }
func (e *chromeElement) String() string     { return e.desc }

// NewChrome launches a browser and opens one tab. The tab lives until Quit.
func NewChrome(opts ChromeOptions) (*Chrome, error) {
	if opts.WindowWidth <= 0 || opts.WindowHeight <= 0 {
		opts.WindowWidth, opts.WindowHeight = 1920, 1080
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 100 * time.Millisecond
	}

	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-breakpad", true),
		chromedp.Flag("disable-client-side-phishing-detection", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-hang-monitor", true),
		chromedp.Flag("disable-popup-blocking", true),
		chromedp.Flag("disable-prompt-on-repost", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("force-color-profile", "srgb"),
		chromedp.Flag("metrics-recording-only", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("remote-allow-origins", "*"),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),
		chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight),
	}

	if path := FindChrome(opts.ChromePath); path != "" {
		allocOpts = append([]chromedp.ExecAllocatorOption{chromedp.ExecPath(path)}, allocOpts...)
	}
	if opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", "new"))
	} else {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.Proxy != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(opts.Proxy))
	}
	allocOpts = append(allocOpts, opts.ExtraArgs...)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	c := &Chrome{
		allocCtx:     allocCtx,
		allocCancel:  allocCancel,
		tabCtx:       tabCtx,
		tabCancel:    tabCancel,
		implicitWait: opts.ImplicitWait,
		pollInterval: opts.PollInterval,
	}

	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		switch e := ev.(type) {
		case *page.EventFrameNavigated:
			if e.Frame.ParentID == "" {
				c.generation.Add(1)
			}
		case *page.EventNavigatedWithinDocument:
			c.generation.Add(1)
		}
	})

	startup := []chromedp.Action{chromedp.Navigate("about:blank")}
	if len(opts.Headers) > 0 {
		h := make(network.Headers, len(opts.Headers))
		for k, v := range opts.Headers {
			h[k] = v
		}
		startup = append([]chromedp.Action{network.Enable(), network.SetExtraHTTPHeaders(h)}, startup...)
	}

	// Starts the browser process
	if err := chromedp.Run(tabCtx, startup...); err != nil {
		tabCancel()
		allocCancel()
		return nil, engine.NewEngineError(engine.ErrCodeBrowserCrash, "failed to start chrome", err)
	}

	log.Debug().Bool("headless", opts.Headless).Dur("implicit_wait", opts.ImplicitWait).Msg("Chrome driver ready")
	return c, nil
}

// run executes actions on the tab, bounded by the caller's context
func (c *Chrome) run(ctx context.Context, actions ...chromedp.Action) error {
	if c.closed.Load() {
		return engine.NewEngineError(engine.ErrCodeBrowserCrash, "driver is closed", nil)
	}
	runCtx, cancel := mergeDeadline(c.tabCtx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

// mergeDeadline derives from the tab context (which carries the chromedp
// executor) while honoring the caller's deadline and cancellation.
func mergeDeadline(tab, caller context.Context) (context.Context, context.CancelFunc) {
	var ctx context.Context
	var cancel context.CancelFunc
	if dl, ok := caller.Deadline(); ok {
		ctx, cancel = context.WithDeadline(tab, dl)
	} else {
		ctx, cancel = context.WithCancel(tab)
	}
	stop := context.AfterFunc(caller, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func (c *Chrome) Generation() uint64 { return c.generation.Load() }

func (c *Chrome) element(el Element) (*chromeElement, error) {
	ce, ok := el.(*chromeElement)
	if !ok || ce == nil {
		return nil, fmt.Errorf("element %v was not produced by the chrome driver", el)
	}
	if cur := c.Generation(); ce.gen != cur {
		return nil, engine.StaleElement(ce.gen, cur)
	}
	return ce, nil
}

// query builds the node lookup for spec. chromedp's XPath search cannot be
// scoped to a node, so scoped XPath runs document.evaluate from the scope.
// Scoped CSS does the same when the scope has no frontend node id.
func (c *Chrome) query(spec locator.Spec, scope *chromeElement) func(context.Context) ([]*cdp.Node, error) {
	sel, isCSS := spec.CSSSelector()
	quoted, _ := json.Marshal(sel)
	switch {
	case scope != nil && !isCSS:
		collect := fmt.Sprintf(`function(){
			const r = document.evaluate(%s, this, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
			const out = [];
			for (let i = 0; i < r.snapshotLength; i++) {
				const n = r.snapshotItem(i);
				if (n.nodeType === Node.ELEMENT_NODE) out.push(n);
			}
			return out;
		}`, quoted)
		return func(ctx context.Context) ([]*cdp.Node, error) {
			return c.scopedNodes(ctx, scope, collect)
		}
	case scope != nil && scope.node.NodeID == 0:
		collect := fmt.Sprintf(`function(){ return Array.from(this.querySelectorAll(%s)); }`, quoted)
		return func(ctx context.Context) ([]*cdp.Node, error) {
			return c.scopedNodes(ctx, scope, collect)
		}
	}

	opts := []chromedp.QueryOption{chromedp.AtLeast(0)}
	if isCSS {
		opts = append(opts, chromedp.ByQueryAll)
		if scope != nil {
			opts = append(opts, chromedp.FromNode(scope.node))
		}
	} else {
		opts = append(opts, chromedp.BySearch)
	}
	return func(ctx context.Context) ([]*cdp.Node, error) {
		var nodes []*cdp.Node
		err := c.run(ctx, chromedp.Nodes(sel, &nodes, opts...))
		return nodes, err
	}
}

// scopedNodes calls collect with `this` bound to scope and describes every
// node in the array it returns.
func (c *Chrome) scopedNodes(ctx context.Context, scope *chromeElement, collect string) ([]*cdp.Node, error) {
	var nodes []*cdp.Node
	err := c.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := dom.ResolveNode().WithBackendNodeID(scope.node.BackendNodeID).Do(ctx)
		if err != nil {
			return engine.NewEngineError(engine.ErrCodeStaleElement, "node no longer in document", err)
		}
		list, exc, err := runtime.CallFunctionOn(collect).WithObjectID(obj.ObjectID).Do(ctx)
		if err != nil {
			return err
		}
		if exc != nil {
			return fmt.Errorf("script exception: %s", exc.Text)
		}
		defer func() { _ = runtime.ReleaseObject(list.ObjectID).Do(ctx) }()

		for i := 0; ; i++ {
			item, exc, err := runtime.CallFunctionOn(fmt.Sprintf("function(){ return this[%d]; }", i)).
				WithObjectID(list.ObjectID).
				Do(ctx)
			if err != nil {
				return err
			}
			if exc != nil {
				return fmt.Errorf("script exception: %s", exc.Text)
			}
			// undefined past the end of the array
			if item.ObjectID == "" {
				return nil
			}
			n, err := dom.DescribeNode().WithObjectID(item.ObjectID).Do(ctx)
			if err != nil {
				return err
			}
			nodes = append(nodes, n)
		}
	}))
	return nodes, err
}

// LocateAll returns every match without waiting.
func (c *Chrome) LocateAll(ctx context.Context, spec locator.Spec, opts ...LocateOption) ([]Element, error) {
	o := ApplyLocateOptions(0, opts...)
	return c.locate(ctx, spec, o)
}

func (c *Chrome) locate(ctx context.Context, spec locator.Spec, o LocateOptions) ([]Element, error) {
	var scope *chromeElement
	if o.Scope != nil {
		s, err := c.element(o.Scope)
		if err != nil {
			return nil, err
		}
		scope = s
	}
	query := c.query(spec, scope)

	deadline := time.Now().Add(o.ImplicitWait)
	for {
		gen := c.Generation()
		nodes, err := query(ctx)
		if err != nil {
			return nil, fmt.Errorf("chromedp: locate %s: %w", spec, err)
		}
		if len(nodes) > 0 || !time.Now().Before(deadline) {
			out := make([]Element, 0, len(nodes))
			for i, n := range nodes {
				out = append(out, &chromeElement{node: n, gen: gen, desc: fmt.Sprintf("%s[%d]", spec.Name, i)})
			}
			return out, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

// Locate returns the first match, waiting up to the implicit wait.
func (c *Chrome) Locate(ctx context.Context, spec locator.Spec, opts ...LocateOption) (Element, error) {
	o := ApplyLocateOptions(c.implicitWait, opts...)
	els, err := c.locate(ctx, spec, o)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, engine.NoSuchElement(spec.String())
	}
	return els[0], nil
}

// callOn invokes fn (a JS function expression) with `this` bound to el
// and decodes its return value into out.
func (c *Chrome) callOn(ctx context.Context, el Element, fn string, out interface{}) error {
	ce, err := c.element(el)
	if err != nil {
		return err
	}
	return c.callFunction(ctx, fn, []*chromeElement{ce}, out)
}

func (c *Chrome) callFunction(ctx context.Context, fn string, nodes []*chromeElement, out interface{}) error {
	return c.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		args := make([]*runtime.CallArgument, 0, len(nodes))
		var thisID runtime.RemoteObjectID
		for _, n := range nodes {
			obj, err := dom.ResolveNode().WithBackendNodeID(n.node.BackendNodeID).Do(ctx)
			if err != nil {
				return engine.NewEngineError(engine.ErrCodeStaleElement, "node no longer in document", err)
			}
			if thisID == "" {
				thisID = obj.ObjectID
			}
			args = append(args, &runtime.CallArgument{ObjectID: obj.ObjectID})
		}
		res, exc, err := runtime.CallFunctionOn(fn).
			WithObjectID(thisID).
			WithArguments(args).
			WithReturnByValue(true).
			WithAwaitPromise(true).
			Do(ctx)
		if err != nil {
			return err
		}
		if exc != nil {
			return fmt.Errorf("script exception: %s", exc.Text)
		}
		if out == nil || res == nil || len(res.Value) == 0 {
			return nil
		}
		return json.Unmarshal([]byte(res.Value), out)
	}))
}

// center scrolls the node into view and returns its content box center
func (c *Chrome) center(ctx context.Context, ce *chromeElement) (float64, float64, error) {
	var x, y float64
	err := c.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		id := ce.node.BackendNodeID
		if err := dom.ScrollIntoViewIfNeeded().WithBackendNodeID(id).Do(ctx); err != nil {
			return engine.NewEngineError(engine.ErrCodeStaleElement, "node no longer in document", err)
		}
		box, err := dom.GetBoxModel().WithBackendNodeID(id).Do(ctx)
		if err != nil {
			return err
		}
		q := box.Content
		if len(q) < 8 {
			return engine.NotInteractable(ce.desc)
		}
		x = (q[0] + q[2] + q[4] + q[6]) / 4
		y = (q[1] + q[3] + q[5] + q[7]) / 4
		return nil
	}))
	return x, y, err
}

// Click dispatches a real mouse click at the element center. It fails with
// engine.ErrNotInteractable when another element would receive the click.
func (c *Chrome) Click(ctx context.Context, el Element) error {
	ce, err := c.element(el)
	if err != nil {
		return err
	}
	x, y, err := c.center(ctx, ce)
	if err != nil {
		return err
	}
	var hit bool
	fn := fmt.Sprintf(`function(){ const e = document.elementFromPoint(%f, %f); return !!e && (e === this || this.contains(e)); }`, x, y)
	if err := c.callOn(ctx, el, fn, &hit); err != nil {
		return err
	}
	if !hit {
		return engine.NotInteractable(ce.desc)
	}
	return c.run(ctx, chromedp.MouseClickXY(x, y))
}

// Hover moves the pointer over the element center
func (c *Chrome) Hover(ctx context.Context, el Element) error {
	ce, err := c.element(el)
	if err != nil {
		return err
	}
	x, y, err := c.center(ctx, ce)
	if err != nil {
		return err
	}
	return c.run(ctx, chromedp.MouseEvent(input.MouseMoved, x, y))
}

func (c *Chrome) SendKeys(ctx context.Context, el Element, text string) error {
	ce, err := c.element(el)
	if err != nil {
		return err
	}
	return c.run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			return dom.Focus().WithBackendNodeID(ce.node.BackendNodeID).Do(ctx)
		}),
		chromedp.KeyEvent(text),
	)
}

func (c *Chrome) Text(ctx context.Context, el Element) (string, error) {
	var s string
	err := c.callOn(ctx, el, `function(){ return (this.innerText || this.textContent || "").trim(); }`, &s)
	return s, err
}

// Attribute reads an attribute. For src and href the resolved property is
// returned, matching what the page itself would load.
func (c *Chrome) Attribute(ctx context.Context, el Element, name string) (string, bool, error) {
	quoted, _ := json.Marshal(name)
	fn := fmt.Sprintf(`function(){
		const n = %s;
		const v = this.getAttribute(n);
		if (v === null) return null;
		if ((n === "src" || n === "href") && typeof this[n] === "string" && this[n] !== "") return this[n];
		return v;
	}`, quoted)
	var v *string
	if err := c.callOn(ctx, el, fn, &v); err != nil {
		return "", false, err
	}
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

func (c *Chrome) IsVisible(ctx context.Context, el Element) (bool, error) {
	var visible bool
	err := c.callOn(ctx, el, `function(){
		if (!this.isConnected) return false;
		const s = window.getComputedStyle(this);
		if (s.visibility === "hidden" || s.display === "none" || s.opacity === "0") return false;
		return !!(this.offsetWidth || this.offsetHeight || this.getClientRects().length);
	}`, &visible)
	return visible, err
}

func (c *Chrome) IsEnabled(ctx context.Context, el Element) (bool, error) {
	var enabled bool
	err := c.callOn(ctx, el, `function(){ return !this.disabled; }`, &enabled)
	return enabled, err
}

func (c *Chrome) Navigate(ctx context.Context, url string) error {
	log.Debug().Str("url", url).Msg("Navigating")
	err := c.run(ctx, chromedp.Navigate(url))
	c.generation.Add(1)
	if err != nil {
		return fmt.Errorf("chromedp: navigate %s: %w", url, err)
	}
	return nil
}

func (c *Chrome) CurrentURL(ctx context.Context) (string, error) {
	var u string
	err := c.run(ctx, chromedp.Location(&u))
	return u, err
}

// ExecuteScript wraps src in a function whose `arguments` holds args.
// Element arguments are passed as live nodes; everything else is inlined as
// a JSON literal.
func (c *Chrome) ExecuteScript(ctx context.Context, src string, args ...interface{}) (interface{}, error) {
	var nodes []*chromeElement
	slots := make([]string, 0, len(args))
	for _, a := range args {
		if el, ok := a.(Element); ok {
			ce, err := c.element(el)
			if err != nil {
				return nil, err
			}
			slots = append(slots, fmt.Sprintf("els[%d]", len(nodes)))
			nodes = append(nodes, ce)
			continue
		}
		lit, err := json.Marshal(a)
		if err != nil {
			return nil, fmt.Errorf("script argument %v: %w", a, err)
		}
		slots = append(slots, string(lit))
	}
	body := fmt.Sprintf(`const args = [%s]; const r = (function(){ %s }).apply(null, args); return r === undefined ? null : r;`,
		strings.Join(slots, ", "), src)

	var out interface{}
	if len(nodes) == 0 {
		expr := "(function(){ const els = []; " + body + " })()"
		if err := c.run(ctx, chromedp.Evaluate(expr, &out)); err != nil {
			return nil, err
		}
		return out, nil
	}
	fn := "function(){ const els = Array.prototype.slice.call(arguments); " + body + " }"
	if err := c.callFunction(ctx, fn, nodes, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Snapshot returns the serialized DOM of the current page
func (c *Chrome) Snapshot(ctx context.Context) (string, error) {
	var html string
	err := c.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

// Quit closes the tab and the browser process
func (c *Chrome) Quit() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.tabCancel()
	c.allocCancel()
	log.Debug().Msg("Chrome driver closed")
	return nil
}
