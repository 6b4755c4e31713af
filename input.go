package outscope

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
)

// RequestInput is the raw request payload handed to the interceptor chain
// before decoding. It captures the router path parameters, the query string
// and, for body-carrying methods, the request body with the client envelope
// already stripped (see Normalize).
//
// Input extraction follows the HTTP method of the request as it arrived:
// GET and DELETE draw from path and query parameters only and never consult
// the body; every other method additionally parses the body as JSON. A body
// that fails to parse is treated as absent, not as an error.
type RequestInput struct {
	method string
	params map[string]string
	query  url.Values
	body   []byte

	norm       []byte
	parsed     any
	parsedDone bool
}

// NewRequestInput extracts the input of r. The body is read in full for
// body-carrying methods, so the caller should bound r.Body (for example
// with http.MaxBytesReader) beforehand; a read failure is returned as-is.
func NewRequestInput(r *http.Request) (*RequestInput, error) {
	in := &RequestInput{
		method: r.Method,
		params: routeParams(r),
		query:  r.URL.Query(),
	}

	switch r.Method {
	case http.MethodGet, http.MethodDelete:
		// Read methods never consult the body.
	default:
		if r.Body != nil {
			body, err := io.ReadAll(r.Body)
			if err != nil {
				return nil, err
			}
			in.body = body
			in.norm = normalizeRaw(body)
		}
	}
	return in, nil
}

// routeParams collects the router's path parameters for r.
func routeParams(r *http.Request) map[string]string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return nil
	}
	params := make(map[string]string, len(rctx.URLParams.Keys))
	for i, key := range rctx.URLParams.Keys {
		if key == "*" {
			continue
		}
		params[key] = rctx.URLParams.Values[i]
	}
	return params
}

// Method returns the HTTP method of the request as it arrived, which for a
// procedure called through its POST alias differs from the contract method.
func (in *RequestInput) Method() string { return in.method }

// Params returns the router path parameters. The returned map is shared;
// treat it as read-only.
func (in *RequestInput) Params() map[string]string { return in.params }

// Query returns the parsed query string.
func (in *RequestInput) Query() url.Values { return in.query }

// Body returns the raw request body, or nil when the method does not carry
// one.
func (in *RequestInput) Body() []byte { return in.body }

// Values merges path parameters and query parameters into url.Values with
// query winning on key collision. This is the decode source for struct
// handlers.
func (in *RequestInput) Values() url.Values {
	merged := make(url.Values, len(in.params)+len(in.query))
	for k, v := range in.params {
		merged[k] = []string{v}
	}
	for k, vs := range in.query {
		merged[k] = vs
	}
	return merged
}

// NormalizedBody returns the parsed request body with the client envelope
// stripped, or nil when there is no body or it is not valid JSON.
func (in *RequestInput) NormalizedBody() any {
	if !in.parsedDone {
		in.parsedDone = true
		if len(in.norm) > 0 {
			var v any
			if err := json.Unmarshal(in.norm, &v); err == nil {
				in.parsed = v
			}
		}
	}
	return in.parsed
}

// normalizedRaw returns the normalized body bytes for typed decoding, or
// nil when the request carries no body.
func (in *RequestInput) normalizedRaw() []byte { return in.norm }

// Merged returns the full merged input as a map: path parameters, then
// query parameters (first value per key), then — for body-carrying
// methods — the keys of a JSON object body. Later sources win on key
// collision, so body beats query beats path.
func (in *RequestInput) Merged() map[string]any {
	merged := make(map[string]any, len(in.params)+len(in.query))
	for k, v := range in.params {
		merged[k] = v
	}
	for k, vs := range in.query {
		if len(vs) > 0 {
			merged[k] = vs[0]
		}
	}
	if body, ok := in.NormalizedBody().(map[string]any); ok {
		for k, v := range body {
			merged[k] = v
		}
	}
	return merged
}

// Normalize strips the RPC client envelope from a decoded value: an object
// holding exactly one key named "json" is replaced by that key's value,
// repeatedly, until the shape no longer matches. Any other value is
// returned unchanged, which makes Normalize idempotent.
func Normalize(v any) any {
	for {
		m, ok := v.(map[string]any)
		if !ok || len(m) != 1 {
			return v
		}
		inner, ok := m["json"]
		if !ok {
			return v
		}
		v = inner
	}
}

// normalizeRaw is Normalize over raw JSON bytes, unwrapping without a full
// decode so the payload reaches the typed decoder byte-for-byte.
func normalizeRaw(raw []byte) []byte {
	for {
		var m map[string]json.RawMessage
		if err := json.Unmarshal(raw, &m); err != nil {
			return raw
		}
		inner, ok := m["json"]
		if !ok || len(m) != 1 {
			return raw
		}
		raw = inner
	}
}
