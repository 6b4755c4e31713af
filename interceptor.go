package outscope

import (
	"context"
)

// HandlerFunc represents the next handler in an interceptor chain.
// It is passed to [UnaryInterceptor] functions to invoke the next interceptor
// or the final handler.
type HandlerFunc func(ctx context.Context, req any) (res any, err error)

// UnaryInterceptor is a hook that wraps procedure execution.
//
//	func loggingInterceptor(ctx context.Context, req any, info *outscope.CallInfo, handler outscope.HandlerFunc) (any, error) {
//	    start := time.Now()
//	    res, err := handler(ctx, req)
//	    log.Printf("%s took %v", info.Procedure, time.Since(start))
//	    return res, err
//	}
//
// The handler parameter is the next link in the chain. Interceptors can:
//   - Inspect/modify the request before calling handler
//   - Inspect/modify the response after calling handler
//   - Short-circuit by returning an error without calling handler
//   - Add values to context using context.WithValue
//
// req is the raw *RequestInput before decoding; interceptors run ahead of
// request decoding so the chain observes exactly what arrived on the wire.
// Values added to the context by an outer interceptor are visible to inner
// interceptors and the handler; an inner interceptor writing the same key
// shadows the outer value.
type UnaryInterceptor func(ctx context.Context, req any, info *CallInfo, handler HandlerFunc) (res any, err error)

// chainInterceptors combines multiple interceptors into a single one.
// The first interceptor in the slice is the outer-most one (runs first).
func chainInterceptors(interceptors []UnaryInterceptor) UnaryInterceptor {
	if len(interceptors) == 0 {
		return nil
	}
	if len(interceptors) == 1 {
		return interceptors[0]
	}
	return func(ctx context.Context, req any, info *CallInfo, handler HandlerFunc) (any, error) {
		// Chain: i[0] -> i[1] -> ... -> handler
		chain := handler
		for i := len(interceptors) - 1; i >= 0; i-- {
			current := interceptors[i]
			next := chain
			chain = func(ctx context.Context, req any) (any, error) {
				return current(ctx, req, info, next)
			}
		}
		return chain(ctx, req)
	}
}
