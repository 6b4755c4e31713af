package outscope

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
)

// RouterGroup is the flat aggregate router: procedures keyed by their
// dot-joined contract key path ("planet.list"), or by binding name for
// leaves that do not resolve against the root contract. Flat keys make the
// merge of many controllers unambiguous: disjoint keys coexist, an exact
// key collision means the later registration wins.
type RouterGroup map[string]*Procedure

// RouteEntry is one HTTP binding produced by registration.
type RouteEntry struct {
	Method    string
	Path      string
	Key       string
	Procedure *Procedure
}

// supportedMethod reports whether m is one of the five verbs routes may
// declare.
func supportedMethod(m string) bool {
	switch m {
	case "GET", "POST", "PUT", "DELETE", "PATCH":
		return true
	}
	return false
}

// routePaths derives the URL paths for a binding: the RPC-style path built
// from the resolved contract key path first, then the contract-declared
// REST path, deduplicated by exact match.
func routePaths(prefix string, contractPath []string, declared string) []string {
	var paths []string
	if len(contractPath) > 0 {
		paths = append(paths, prefix+"/"+strings.Join(contractPath, "/"))
	}
	if rest := prefix + declared; !slices.Contains(paths, rest) {
		paths = append(paths, rest)
	}
	return paths
}

// routeMethods returns the HTTP methods a path binds under: the declared
// method, plus a POST alias when the declared method differs. RPC-style
// clients always call via POST regardless of the contract's REST verb, so
// the alias keeps every procedure reachable for them.
func routeMethods(declared string) []string {
	if declared == "POST" {
		return []string{"POST"}
	}
	return []string{declared, "POST"}
}

// pendingRoute is a fully-composed binding awaiting phase two of Register.
type pendingRoute struct {
	key     string
	proc    *Procedure
	entries []RouteEntry
}

// Register registers every binding of ctrl: resolves each contract leaf
// against the root contract tree, composes the interceptor pipeline,
// derives REST and RPC-style routes, and binds them into the router. It
// returns the controller's subtree of the aggregate router.
//
// Registration is fail-fast and atomic: every binding is validated and
// composed before any route is bound, so a configuration error leaves the
// app untouched. Errors cover unnamed or handler-less bindings, contract
// groups bound as routes, missing or malformed route metadata, and
// unsupported HTTP methods.
func (a *App) Register(ctrl *Controller) (RouterGroup, error) {
	if ctrl == nil {
		return nil, errors.New("register: not a controller (nil)")
	}
	if ctrl.name == "" {
		return nil, errors.New("register: not a controller (no name)")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.frozen {
		return nil, fmt.Errorf("register %s: route table is frozen", ctrl.name)
	}
	if err := a.initPlugins(); err != nil {
		return nil, fmt.Errorf("register %s: %w", ctrl.name, err)
	}

	if len(ctrl.bindings) == 0 {
		a.log().Warn("controller has no bindings", slog.String("controller", ctrl.name))
		return RouterGroup{}, nil
	}

	// Phase one: validate and compose every binding. No routes are bound
	// until the whole controller is known to be well-formed.
	pending := make([]pendingRoute, 0, len(ctrl.bindings))
	for _, b := range ctrl.bindings {
		pr, err := a.compose(ctrl, b)
		if err != nil {
			return nil, err
		}
		pending = append(pending, pr)
	}

	// Phase two: bind.
	group := make(RouterGroup, len(pending))
	for _, pr := range pending {
		if _, exists := a.procedures[pr.key]; exists {
			a.log().Warn("duplicate route key",
				slog.String("controller", ctrl.name),
				slog.String("key", pr.key))
		}
		a.procedures[pr.key] = pr.proc
		group[pr.key] = pr.proc

		for _, e := range pr.entries {
			if a.routeBound(e.Method, e.Path) {
				a.log().Warn("duplicate route binding",
					slog.String("controller", ctrl.name),
					slog.String("method", e.Method),
					slog.String("path", e.Path))
			}
			a.router.MethodFunc(e.Method, e.Path, a.endpoint(pr.proc))
			a.routes = append(a.routes, e)
		}
	}
	return group, nil
}

// MustRegister is Register that panics on error, for use in main functions
// where a registration failure should abort startup.
func (a *App) MustRegister(ctrl *Controller) RouterGroup {
	group, err := a.Register(ctrl)
	if err != nil {
		panic("outscope: " + err.Error())
	}
	return group
}

// compose validates one binding and builds its procedure and route entries.
func (a *App) compose(ctrl *Controller, b *Binding) (pendingRoute, error) {
	fail := func(format string, args ...any) (pendingRoute, error) {
		msg := fmt.Sprintf(format, args...)
		return pendingRoute{}, fmt.Errorf("register %s.%s: %s", ctrl.name, b.name, msg)
	}

	if b.name == "" {
		return pendingRoute{}, fmt.Errorf("register %s: binding has no name", ctrl.name)
	}
	if b.handler == nil {
		return fail("no handler bound")
	}
	if b.contract == nil {
		return fail("no contract bound")
	}
	if !b.contract.IsLeaf() {
		return fail("contract %s is a group, not a route", b.contract.describe())
	}

	method, path := b.contract.Method(), b.contract.Path()
	if method == "" || path == "" {
		return fail("missing route metadata")
	}
	if path[0] != '/' {
		return fail("route path %q must begin with '/'", path)
	}
	if !supportedMethod(method) {
		return fail("unsupported HTTP method %q", method)
	}

	// Resolve the leaf's key path against the root contract. A leaf that
	// is not reachable from the root registers standalone: REST path only,
	// keyed by binding name.
	var contractPath []string
	if a.contract != nil {
		resolved, ok := a.contract.PathOf(b.contract)
		if ok {
			contractPath = resolved
		} else {
			a.log().Warn("contract not reachable from root contract",
				slog.String("controller", ctrl.name),
				slog.String("binding", b.name),
				slog.String("contract", b.contract.describe()))
		}
	}

	base := a.base
	if base == nil {
		if len(contractPath) > 0 {
			base = NewImplementer(a.contract)
		} else {
			base = NewImplementer(b.contract)
		}
	}

	// Interceptors attach before navigation so every binding under the
	// same scope shares the controller pipeline.
	impl := base.Use(ctrl.interceptors...)
	switch {
	case len(contractPath) > 0:
		var err error
		if impl, err = impl.At(contractPath...); err != nil {
			return fail("%v", err)
		}
	case !impl.Contract().same(b.contract):
		// No key path, but the implementer is scoped elsewhere (a base
		// covering a subtree the root contract cannot see). Fall back to
		// an identity search inside the implementer scope; when that
		// fails too, the top-level scope is used as-is and handler
		// binding decides whether it is acceptable.
		if leaf := findLeaf(impl.Contract(), b.contract); leaf != nil {
			impl = impl.scopedTo(leaf)
		}
	}

	proc, err := impl.Handler(b.handler)
	if err != nil {
		return fail("%v", err)
	}

	key := strings.Join(contractPath, ".")
	if key == "" {
		key = b.name
	}
	proc.info = &CallInfo{
		Procedure:  key,
		Controller: ctrl.name,
		Method:     method,
		Path:       path,
	}

	var entries []RouteEntry
	for _, p := range routePaths(a.prefix, contractPath, path) {
		for _, m := range routeMethods(method) {
			entries = append(entries, RouteEntry{Method: m, Path: p, Key: key, Procedure: proc})
		}
	}
	return pendingRoute{key: key, proc: proc, entries: entries}, nil
}

// routeBound reports whether a method/path pair is already registered.
// Callers must hold a.mu.
func (a *App) routeBound(method, path string) bool {
	for _, e := range a.routes {
		if e.Method == method && e.Path == path {
			return true
		}
	}
	return false
}

// RouteTable derives the HTTP bindings a contract tree would register
// under prefix, without composing handlers: for every route leaf, the
// RPC-style path, the REST path, and POST aliases, exactly as Register
// computes them. Malformed leaves (missing or unsupported route metadata)
// are reported as errors.
func RouteTable(root *Contract, prefix string) ([]RouteEntry, error) {
	if root == nil {
		return nil, errors.New("route table: nil contract")
	}
	var entries []RouteEntry
	var walk func(node *Contract, path []string) error
	walk = func(node *Contract, path []string) error {
		if node.IsLeaf() {
			method, declared := node.Method(), node.Path()
			key := strings.Join(path, ".")
			if method == "" || declared == "" {
				return fmt.Errorf("route table: %s: missing route metadata", key)
			}
			if !supportedMethod(method) {
				return fmt.Errorf("route table: %s: unsupported HTTP method %q", key, method)
			}
			for _, p := range routePaths(prefix, path, declared) {
				for _, m := range routeMethods(method) {
					entries = append(entries, RouteEntry{Method: m, Path: p, Key: key})
				}
			}
			return nil
		}
		for _, e := range node.Entries() {
			if strings.HasPrefix(e.Name, internalMarker) {
				continue
			}
			if err := walk(e.Contract, append(path, e.Name)); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(root, nil); err != nil {
		return nil, err
	}
	return entries, nil
}
