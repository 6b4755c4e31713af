package outscope

// Controller is an ordered collection of contract-to-handler bindings that
// registers as a unit. It replaces annotation-driven discovery with a plain
// value assembled by ordinary calls: construct it, attach controller-wide
// interceptors with Use, declare bindings with Handle, then pass it to
// App.Register.
//
//	planets := outscope.NewController("planet").
//	    Use(requireAuth).
//	    Handle("list", contract.Child("planet").Child("list"), outscope.Unary(svc.List)).
//	    Handle("create", contract.Child("planet").Child("create"), outscope.Unary(svc.Create))
type Controller struct {
	name         string
	interceptors []UnaryInterceptor
	bindings     []*Binding
}

// Binding associates one contract leaf with one handler under a name local
// to the controller. The name doubles as the route key when the leaf cannot
// be resolved against the root contract tree.
type Binding struct {
	name     string
	contract *Contract
	handler  Handler
}

// NewController creates an empty controller.
func NewController(name string) *Controller {
	return &Controller{name: name}
}

// Name returns the controller's name.
func (c *Controller) Name() string { return c.name }

// Use appends controller-level interceptors. They run for every binding of
// this controller, ahead of any interceptors attached to individual
// handlers; a handler interceptor writing the same context key as a
// controller interceptor shadows it for that binding.
func (c *Controller) Use(interceptors ...UnaryInterceptor) *Controller {
	c.interceptors = append(c.interceptors, interceptors...)
	return c
}

// Handle appends a binding of a contract leaf to a handler. Bindings
// register in the order they were declared. Validation happens at
// registration time, not here, so controllers can be assembled before the
// contract tree is complete.
func (c *Controller) Handle(name string, contract *Contract, handler Handler) *Controller {
	c.bindings = append(c.bindings, &Binding{
		name:     name,
		contract: contract,
		handler:  handler,
	})
	return c
}

// Bindings returns the controller's bindings in declaration order.
func (c *Controller) Bindings() []*Binding {
	out := make([]*Binding, len(c.bindings))
	copy(out, c.bindings)
	return out
}

// Name returns the binding's local name.
func (b *Binding) Name() string { return b.name }

// Contract returns the bound contract leaf.
func (b *Binding) Contract() *Contract { return b.contract }
