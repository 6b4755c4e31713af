package outscope

import (
	"context"
	"encoding/json"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
)

var (
	validate      = validator.New()
	schemaDecoder = schema.NewDecoder()
)

func init() {
	schemaDecoder.IgnoreUnknownKeys(true)
}

// Handler is the interface for terminal request handlers. It is exported so
// users can pass handlers to Controller.Handle and Implementer.Handler, but
// sealed so that handlers can only be created with Unary or Raw.
type Handler interface {
	invoke(ctx context.Context, in *RequestInput) (any, error)
	pipeline() []UnaryInterceptor
	meta() handlerMeta
}

// handlerMeta is the runtime metadata of a handler, consumed by the
// documentation generator.
type handlerMeta struct {
	requestType  reflect.Type
	responseType reflect.Type
	cacheTTL     time.Duration
}

// UnaryHandler is a typed handler for a Request/Response pair. Input is
// decoded from the request per the method convention: path and query
// parameters first, then — for body-carrying methods — the JSON body on
// top, so a body field wins over a query parameter of the same name. The
// decoded value is validated with struct tags before the function runs.
type UnaryHandler[Req any, Res any] struct {
	fn           func(context.Context, Req) (Res, error)
	interceptors []UnaryInterceptor
	cacheTTL     time.Duration
}

// Unary creates a typed handler from a function.
//
//	contract.Route("GET", "/planets/{id}")
//	outscope.Unary(func(ctx context.Context, req *GetPlanetRequest) (*Planet, error) { ... })
func Unary[Req any, Res any](fn func(context.Context, Req) (Res, error)) *UnaryHandler[Req, Res] {
	return &UnaryHandler[Req, Res]{fn: fn}
}

// WithUnaryInterceptor adds an interceptor to this handler. Handler
// interceptors run after controller interceptors.
func (h *UnaryHandler[Req, Res]) WithUnaryInterceptor(i UnaryInterceptor) *UnaryHandler[Req, Res] {
	h.interceptors = append(h.interceptors, i)
	return h
}

// Cache sets the cache TTL advertised on responses via Cache-Control.
func (h *UnaryHandler[Req, Res]) Cache(d time.Duration) *UnaryHandler[Req, Res] {
	h.cacheTTL = d
	return h
}

func (h *UnaryHandler[Req, Res]) pipeline() []UnaryInterceptor { return h.interceptors }

func (h *UnaryHandler[Req, Res]) meta() handlerMeta {
	var req Req
	var res Res
	return handlerMeta{
		requestType:  reflect.TypeOf(req),
		responseType: reflect.TypeOf(res),
		cacheTTL:     h.cacheTTL,
	}
}

func (h *UnaryHandler[Req, Res]) invoke(ctx context.Context, in *RequestInput) (any, error) {
	var req Req

	// schema/json decoding needs a pointer to the concrete struct. When
	// Req is itself a pointer type, allocate the element and decode into
	// that. The Convert keeps named pointer types such as Empty intact.
	target := any(&req)
	var ptr reflect.Value
	rt := reflect.TypeOf(req)
	if rt != nil && rt.Kind() == reflect.Pointer {
		ptr = reflect.New(rt.Elem())
		target = ptr.Interface()
	}

	if err := decodeInput(target, in); err != nil {
		return nil, err
	}

	if ptr.IsValid() {
		req = ptr.Convert(rt).Interface().(Req)
	}
	return h.fn(ctx, req)
}

// decodeInput fills target from the request input and validates it.
// Path and query parameters are applied first, the normalized body second,
// matching the merge precedence of RequestInput.Merged.
func decodeInput(target any, in *RequestInput) error {
	if vals := in.Values(); len(vals) > 0 && isStructPointer(target) {
		if err := schemaDecoder.Decode(target, vals); err != nil {
			return Errorf(CodeBadRequest, "failed to decode parameters: %v", err)
		}
	}
	if raw := in.normalizedRaw(); len(raw) > 0 {
		if err := json.Unmarshal(raw, target); err != nil {
			return Errorf(CodeBadRequest, "failed to decode body: %v", err)
		}
	}
	return validateStruct(target)
}

// isStructPointer reports whether v is a non-nil pointer to a struct, the
// only shape the query decoder accepts.
func isStructPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && !rv.IsNil() && rv.Elem().Kind() == reflect.Struct
}

// validateStruct runs struct-tag validation when v points at a struct;
// other request shapes (maps, slices, scalars) pass through unvalidated.
func validateStruct(v any) error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	return validate.Struct(v)
}

// RawHandler is an untyped handler receiving the merged request input as a
// map. Use it when the input shape is dynamic; typed handlers should be
// preferred.
type RawHandler struct {
	fn           func(context.Context, map[string]any) (any, error)
	interceptors []UnaryInterceptor
	cacheTTL     time.Duration
}

// Raw creates an untyped handler from a function. The map passed to fn is
// the merged input of RequestInput.Merged with the client envelope already
// stripped.
func Raw(fn func(ctx context.Context, input map[string]any) (any, error)) *RawHandler {
	return &RawHandler{fn: fn}
}

// WithUnaryInterceptor adds an interceptor to this handler.
func (h *RawHandler) WithUnaryInterceptor(i UnaryInterceptor) *RawHandler {
	h.interceptors = append(h.interceptors, i)
	return h
}

// Cache sets the cache TTL advertised on responses via Cache-Control.
func (h *RawHandler) Cache(d time.Duration) *RawHandler {
	h.cacheTTL = d
	return h
}

func (h *RawHandler) pipeline() []UnaryInterceptor { return h.interceptors }

func (h *RawHandler) meta() handlerMeta {
	return handlerMeta{
		requestType: reflect.TypeOf(map[string]any(nil)),
		cacheTTL:    h.cacheTTL,
	}
}

func (h *RawHandler) invoke(ctx context.Context, in *RequestInput) (any, error) {
	return h.fn(ctx, in.Merged())
}

// Procedure is the terminal, fully-composed unit produced by binding a
// handler to a contract leaf: the leaf, the interceptor pipeline fixed at
// registration time, and the terminal handler. Procedures are created by
// Implementer.Handler, normally through App.Register.
type Procedure struct {
	contract *Contract
	handler  Handler
	info     *CallInfo

	// interceptors is the fixed pipeline: controller interceptors, then
	// handler interceptors, in registration order. Global interceptors
	// are prepended per call.
	interceptors []UnaryInterceptor
	terminal     HandlerFunc
}

func newProcedure(contract *Contract, h Handler, pipeline []UnaryInterceptor) *Procedure {
	p := &Procedure{
		contract:     contract,
		handler:      h,
		interceptors: pipeline,
	}
	p.terminal = func(ctx context.Context, reqAny any) (any, error) {
		in, ok := reqAny.(*RequestInput)
		if !ok {
			return nil, Errorf(CodeInternal, "interceptor replaced the request with a non-input value")
		}
		return p.handler.invoke(ctx, in)
	}
	return p
}

// Contract returns the contract leaf this procedure implements.
func (p *Procedure) Contract() *Contract { return p.contract }

// Info returns the call metadata passed to interceptors. It is nil until
// the procedure has been registered with an App.
func (p *Procedure) Info() *CallInfo { return p.info }

// RequestType returns the reflect type of the handler's request value, or
// nil when the handler is untyped.
func (p *Procedure) RequestType() reflect.Type { return p.handler.meta().requestType }

// ResponseType returns the reflect type of the handler's response value, or
// nil when the handler is untyped.
func (p *Procedure) ResponseType() reflect.Type { return p.handler.meta().responseType }

// CacheTTL returns the handler's advertised cache TTL.
func (p *Procedure) CacheTTL() time.Duration { return p.handler.meta().cacheTTL }

// call runs the procedure: global interceptors, then the fixed pipeline,
// then the terminal handler.
func (p *Procedure) call(ctx context.Context, in *RequestInput, globals []UnaryInterceptor) (any, error) {
	interceptors := p.interceptors
	if len(globals) > 0 {
		combined := make([]UnaryInterceptor, 0, len(globals)+len(p.interceptors))
		combined = append(combined, globals...)
		combined = append(combined, p.interceptors...)
		interceptors = combined
	}
	chain := chainInterceptors(interceptors)
	if chain == nil {
		return p.terminal(ctx, in)
	}
	return chain(ctx, in, p.info, p.terminal)
}
