package outscope

import (
	"context"
	"net/http"
)

type contextKey struct {
	name string
}

var (
	requestKey  = &contextKey{"request"}
	writerKey   = &contextKey{"writer"}
	callInfoKey = &contextKey{"call_info"}
)

// CallInfo contains metadata about the procedure handling the current
// request. Interceptors receive it as an argument; handlers can recover it
// from the context with CallInfoFromContext.
type CallInfo struct {
	// Procedure is the flat route key, e.g. "planet.list".
	Procedure string
	// Controller is the name of the controller the procedure belongs to.
	Controller string
	// Method is the HTTP method declared in the contract, e.g. "GET".
	Method string
	// Path is the route path declared in the contract, e.g. "/planets/{id}".
	Path string
}

// RequestFromContext returns the HTTP request from the context.
// It returns nil when the handler was not invoked through an App.
func RequestFromContext(ctx context.Context) *http.Request {
	if r, ok := ctx.Value(requestKey).(*http.Request); ok {
		return r
	}
	return nil
}

// SetHeader sets an HTTP response header.
// It requires that the handler was invoked through an App.
func SetHeader(ctx context.Context, key, value string) {
	if w, ok := ctx.Value(writerKey).(http.ResponseWriter); ok {
		w.Header().Set(key, value)
	}
}

// CallInfoFromContext returns the call metadata of the current procedure.
func CallInfoFromContext(ctx context.Context) (*CallInfo, bool) {
	if info, ok := ctx.Value(callInfoKey).(*CallInfo); ok {
		return info, true
	}
	return nil, false
}

func newContext(ctx context.Context, w http.ResponseWriter, r *http.Request, info *CallInfo) context.Context {
	ctx = context.WithValue(ctx, writerKey, w)
	ctx = context.WithValue(ctx, requestKey, r)
	ctx = context.WithValue(ctx, callInfoKey, info)
	return ctx
}
