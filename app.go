package outscope

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

// App is the central router for contract-bound procedures. It manages
// controller registration, interceptors, middleware, plugins, and error
// handling. Use Handler() to get an http.Handler for http.ListenAndServe,
// or Serve() for a managed server with plugin lifecycle and graceful
// shutdown.
//
// All registration happens during single-threaded startup; once Handler or
// Serve has been called the route table is frozen and further registration
// fails.
type App struct {
	mu     sync.RWMutex
	frozen bool

	router   chi.Router
	contract *Contract
	base     *Implementer
	prefix   string

	procedures RouterGroup
	routes     []RouteEntry

	errorTransformer   ErrorTransformer
	maskInternalErrors bool
	interceptors       []UnaryInterceptor
	middlewares        []func(http.Handler) http.Handler
	logger             *slog.Logger
	maxRequestBodySize uint64

	plugins      []Plugin
	initializedN int
}

// DefaultPrefix is the URL prefix routes register under unless overridden
// with WithPrefix.
const DefaultPrefix = "/api"

func NewApp() *App {
	a := &App{
		router:             chi.NewRouter(),
		prefix:             DefaultPrefix,
		procedures:         make(RouterGroup),
		maxRequestBodySize: 1 << 20, // 1MB default
	}
	a.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, NewError(CodeNotFound, "route not found"), a.logger)
	})
	a.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, Errorf(CodeMethodNotSupported, "method %s not allowed for %s", r.Method, r.URL.Path), a.logger)
	})
	return a
}

// WithContract sets the root contract tree. Registration resolves every
// binding's leaf against this tree to derive its key path; attaching the
// tree assigns each reachable node its interned dot-joined identifier.
// It returns the app for chaining.
func (a *App) WithContract(root *Contract) *App {
	if root == nil {
		panic("outscope: WithContract called with nil contract")
	}
	root.assignIDs("")
	a.contract = root
	return a
}

// WithBase sets the base implementer composition starts from, letting
// callers pre-attach interceptors below the global level but above every
// controller. Setting a base also adopts its contract scope as the root
// contract when none is configured yet.
func (a *App) WithBase(base *Implementer) *App {
	if base == nil {
		panic("outscope: WithBase called with nil implementer")
	}
	a.base = base
	if a.contract == nil {
		a.WithContract(base.Contract())
	}
	return a
}

// WithPrefix sets the URL prefix for all registered routes. The default is
// DefaultPrefix; an empty string registers routes at the root.
func (a *App) WithPrefix(prefix string) *App {
	if prefix != "" && prefix[0] != '/' {
		prefix = "/" + prefix
	}
	for len(prefix) > 0 && prefix[len(prefix)-1] == '/' {
		prefix = prefix[:len(prefix)-1]
	}
	a.prefix = prefix
	return a
}

// WithErrorTransformer adds a custom error transformer.
// It returns the app for chaining.
func (a *App) WithErrorTransformer(fn ErrorTransformer) *App {
	a.errorTransformer = fn
	return a
}

// WithMaskInternalErrors enables masking of internal error messages.
// This is useful in production to avoid leaking sensitive information.
// The original error is still available to interceptors and logging.
func (a *App) WithMaskInternalErrors() *App {
	a.maskInternalErrors = true
	return a
}

// WithUnaryInterceptor adds a global interceptor.
//
// Interceptor execution order:
//  1. Global interceptors (added via App.WithUnaryInterceptor)
//  2. Controller interceptors (added via Controller.Use)
//  3. Handler interceptors (added via WithUnaryInterceptor on the handler)
//  4. Handler function
//
// Within each level, interceptors execute in the order they were added.
func (a *App) WithUnaryInterceptor(i UnaryInterceptor) *App {
	a.interceptors = append(a.interceptors, i)
	return a
}

// WithMiddleware adds an HTTP middleware to wrap the app.
// Middleware is applied in the order added (first added is outermost).
func (a *App) WithMiddleware(mw func(http.Handler) http.Handler) *App {
	a.middlewares = append(a.middlewares, mw)
	return a
}

// WithLogger sets a custom logger for the app.
// If not set, slog.Default() will be used.
func (a *App) WithLogger(logger *slog.Logger) *App {
	a.logger = logger
	return a
}

// WithMaxRequestBodySize sets the maximum request body size in bytes.
// A value of 0 means no limit. Default is 1MB (1 << 20).
func (a *App) WithMaxRequestBodySize(size uint64) *App {
	a.maxRequestBodySize = size
	return a
}

// WithPlugin attaches a plugin. Plugins must be attached before the first
// controller registers so their Init hooks can still shape the app.
func (a *App) WithPlugin(p Plugin) *App {
	if p == nil {
		panic("outscope: WithPlugin called with nil plugin")
	}
	a.plugins = append(a.plugins, p)
	return a
}

// Contract returns the root contract tree, or nil when none is configured.
func (a *App) Contract() *Contract { return a.contract }

// Prefix returns the URL prefix routes register under.
func (a *App) Prefix() string { return a.prefix }

// Procedures returns the aggregate router: every registered procedure by
// its flat route key.
func (a *App) Procedures() RouterGroup {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(RouterGroup, len(a.procedures))
	for k, p := range a.procedures {
		out[k] = p
	}
	return out
}

// Routes returns every HTTP binding in registration order.
func (a *App) Routes() []RouteEntry {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]RouteEntry, len(a.routes))
	copy(out, a.routes)
	return out
}

// log returns the configured logger, falling back to slog.Default.
func (a *App) log() *slog.Logger {
	if a.logger != nil {
		return a.logger
	}
	return slog.Default()
}

// initPlugins runs Init on plugins that have not been initialized yet.
// Callers must hold a.mu.
func (a *App) initPlugins() error {
	for ; a.initializedN < len(a.plugins); a.initializedN++ {
		p := a.plugins[a.initializedN]
		init, ok := p.(Initializer)
		if !ok {
			continue
		}
		if err := init.Init(a); err != nil {
			return fmt.Errorf("plugin %s: init: %w", p.Name(), err)
		}
	}
	return nil
}

// Handler freezes the route table and returns an http.Handler including
// all configured middleware, for use with http.ListenAndServe or other
// HTTP servers.
//
// Example:
//
//	app := outscope.NewApp().WithMiddleware(cors)
//	http.ListenAndServe(":8080", app.Handler())
func (a *App) Handler() http.Handler {
	a.mu.Lock()
	a.frozen = true
	a.mu.Unlock()

	var h http.Handler = a.router
	// Apply middleware in reverse order so first added is outermost
	for i := len(a.middlewares) - 1; i >= 0; i-- {
		h = a.middlewares[i](h)
	}
	return h
}

// Serve runs the app on addr with the full plugin lifecycle: Init hooks
// (if not already run), Ready hooks after the route table freezes, Start
// hooks once the listener is accepting, and Shutdown hooks — in reverse
// order — during graceful shutdown when ctx is canceled.
func (a *App) Serve(ctx context.Context, addr string) error {
	a.mu.Lock()
	err := a.initPlugins()
	a.mu.Unlock()
	if err != nil {
		return err
	}

	h := a.Handler()

	for _, p := range a.plugins {
		if hook, ok := p.(ReadyHook); ok {
			if err := hook.Ready(a); err != nil {
				return fmt.Errorf("plugin %s: ready: %w", p.Name(), err)
			}
		}
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	for _, p := range a.plugins {
		if hook, ok := p.(StartHook); ok {
			if err := hook.Start(ctx, a); err != nil {
				ln.Close()
				return fmt.Errorf("plugin %s: start: %w", p.Name(), err)
			}
		}
	}

	a.log().Info("listening", slog.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	errs := []error{srv.Shutdown(shCtx)}
	for i := len(a.plugins) - 1; i >= 0; i-- {
		if hook, ok := a.plugins[i].(ShutdownHook); ok {
			if err := hook.Shutdown(shCtx, a); err != nil {
				errs = append(errs, fmt.Errorf("plugin %s: shutdown: %w", a.plugins[i].Name(), err))
			}
		}
	}
	return errors.Join(errs...)
}

// endpoint builds the http.HandlerFunc dispatching to p.
func (a *App) endpoint(p *Procedure) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				stack := debug.Stack()
				a.log().Error("PANIC recovered",
					slog.Any("panic", rec),
					slog.String("stack", string(stack)))
				writeError(w, NewError(CodeInternal, fmt.Sprintf("internal server error (panic): %v", rec)), a.logger)
			}
		}()

		if a.maxRequestBodySize > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, int64(a.maxRequestBodySize))
		}

		in, err := NewRequestInput(r)
		if err != nil {
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) {
				writeError(w, Errorf(CodePayloadTooLarge, "request body exceeds %d bytes", mbe.Limit), a.logger)
			} else {
				writeError(w, Errorf(CodeBadRequest, "failed to read request body: %v", err), a.logger)
			}
			return
		}

		ctx := newContext(r.Context(), w, r, p.info)
		res, err := p.call(ctx, in, a.interceptors)
		if err != nil {
			a.handleError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if ttl := p.CacheTTL(); ttl > 0 {
			w.Header().Set("Cache-Control", fmt.Sprintf("max-age=%d", int(ttl.Seconds())))
		}
		if err := encodeJSON(w, res); err != nil {
			// Response may be partially written, nothing we can do.
			a.log().Error("failed to encode response",
				slog.String("procedure", p.info.Procedure),
				slog.Any("error", err))
		}
	}
}

func (a *App) handleError(w http.ResponseWriter, err error) {
	var svcErr *Error
	if a.errorTransformer != nil {
		svcErr = a.errorTransformer(err)
	}
	if svcErr == nil {
		svcErr = DefaultErrorTransformer(err)
	}
	if a.maskInternalErrors && svcErr.Code == CodeInternal {
		svcErr = NewError(CodeInternal, "internal server error")
	}
	writeError(w, svcErr, a.logger)
}
