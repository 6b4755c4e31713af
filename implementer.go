package outscope

import (
	"fmt"
	"strings"
)

// Implementer is a contract scope that can be progressively specialized
// with interceptors and finally bound to a handler, producing a Procedure.
// Implementers are immutable values: Use and At return new Implementers and
// never modify the receiver, so a partially-specialized Implementer can be
// shared between bindings.
type Implementer struct {
	scope        *Contract
	interceptors []UnaryInterceptor
}

// NewImplementer returns an Implementer scoped to the given contract node,
// which may be a group or a route leaf.
func NewImplementer(c *Contract) *Implementer {
	if c == nil {
		panic("outscope: NewImplementer called with nil contract")
	}
	return &Implementer{scope: c}
}

// Contract returns the contract node this Implementer is scoped to.
func (im *Implementer) Contract() *Contract { return im.scope }

// Use returns a new Implementer with the interceptors appended to the
// pipeline. Interceptors run in the order they were added, ahead of any
// interceptors attached to the handler itself.
func (im *Implementer) Use(interceptors ...UnaryInterceptor) *Implementer {
	if len(interceptors) == 0 {
		return im
	}
	combined := make([]UnaryInterceptor, 0, len(im.interceptors)+len(interceptors))
	combined = append(combined, im.interceptors...)
	combined = append(combined, interceptors...)
	return &Implementer{scope: im.scope, interceptors: combined}
}

// At navigates the contract scope along the given key path, carrying the
// accumulated pipeline. A key missing at any step is a configuration error.
func (im *Implementer) At(path ...string) (*Implementer, error) {
	scope := im.scope
	for i, key := range path {
		child := scope.Child(key)
		if child == nil {
			return nil, fmt.Errorf("contract path %q not found in implementer", strings.Join(path[:i+1], "."))
		}
		scope = child
	}
	if scope == im.scope {
		return im, nil
	}
	return &Implementer{scope: scope, interceptors: im.interceptors}, nil
}

// scopedTo returns an Implementer scoped to node with the same pipeline.
// Registration uses it when a leaf was located by identity search rather
// than by key-path navigation.
func (im *Implementer) scopedTo(node *Contract) *Implementer {
	if node == im.scope {
		return im
	}
	return &Implementer{scope: node, interceptors: im.interceptors}
}

// Handler binds h as the terminal handler of this scope and returns the
// composed Procedure. The scope must be a route leaf; binding a handler to
// a contract group is a configuration error.
func (im *Implementer) Handler(h Handler) (*Procedure, error) {
	if h == nil {
		return nil, fmt.Errorf("no handler for contract %s", im.scope.describe())
	}
	if !im.scope.IsLeaf() {
		return nil, fmt.Errorf("contract %s is a group and cannot take a handler", im.scope.describe())
	}
	pipeline := make([]UnaryInterceptor, 0, len(im.interceptors)+len(h.pipeline()))
	pipeline = append(pipeline, im.interceptors...)
	pipeline = append(pipeline, h.pipeline()...)
	return newProcedure(im.scope, h, pipeline), nil
}
