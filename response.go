package outscope

import "encoding/json"

// Empty represents a void request or response.
// Use this for operations that don't return meaningful data.
// The zero value is nil, which serializes to JSON null.
//
// Example:
//
//	func DeletePlanet(ctx context.Context, req *DeletePlanetRequest) (outscope.Empty, error) {
//	    // ... delete planet
//	    return nil, nil
//	}
type Empty *struct{}

// encodeJSON writes v as a JSON document. Successful handler results are
// written as plain JSON with no wrapper object, so clients consume exactly
// what the handler returned.
func encodeJSON(w jsonWriter, v any) error {
	return json.NewEncoder(w).Encode(v)
}

// jsonWriter is satisfied by http.ResponseWriter and allows testing.
type jsonWriter interface {
	Write([]byte) (int, error)
}
