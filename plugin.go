package outscope

import "context"

// Plugin is a named extension attached to an App with WithPlugin. A plugin
// participates in the app lifecycle by implementing any of the optional
// hook interfaces below; a plugin implementing none of them is valid and
// simply travels with the app (useful for grouping configuration).
//
// Hook order: Init runs before the first controller registers, Ready after
// the route table is frozen, Start once the listener is accepting, and
// Shutdown — in reverse plugin order — after in-flight requests drain.
type Plugin interface {
	Name() string
}

// Initializer is implemented by plugins that need to configure the App
// before any controller registers, e.g. attaching interceptors or HTTP
// middleware. An error aborts registration.
type Initializer interface {
	Init(app *App) error
}

// ReadyHook is implemented by plugins that run after the route table is
// frozen, when the full set of procedures is known.
type ReadyHook interface {
	Ready(app *App) error
}

// StartHook is implemented by plugins that run once the app is serving.
// The context is the serve context and is canceled on shutdown.
type StartHook interface {
	Start(ctx context.Context, app *App) error
}

// ShutdownHook is implemented by plugins that release resources during
// graceful shutdown. Hooks run in reverse registration order, after the
// server has stopped accepting requests and in-flight requests finished.
type ShutdownHook interface {
	Shutdown(ctx context.Context, app *App) error
}
