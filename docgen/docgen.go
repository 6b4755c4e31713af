// Package docgen generates OpenAPI 3 documents from a registered outscope
// app or from a standalone route table.
//
// When generating from an App, request and response schemas are derived
// from the handlers' Go types via reflection. When generating from a bare
// route table (e.g. in the CLI, where no handlers exist), the document
// describes paths and operations only.
package docgen

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/zee-sandev/outscope"
)

// Config holds the configuration for document generation.
type Config struct {
	// Title is the API title. Defaults to "API".
	Title string

	// Version is the API version. Defaults to "0.0.1".
	Version string

	// Description is an optional API description.
	Description string

	// ServerURL, when set, is added as the document's single server.
	ServerURL string
}

// applyDefaults returns a copy of cfg with defaults filled in.
func applyDefaults(cfg *Config) *Config {
	result := Config{}
	if cfg != nil {
		result = *cfg
	}
	if result.Title == "" {
		result.Title = "API"
	}
	if result.Version == "" {
		result.Version = "0.0.1"
	}
	return &result
}

// Generate builds an OpenAPI document for all routes registered on app,
// including request and response schemas reflected from the handlers.
func Generate(app *outscope.App, cfg *Config) (*openapi3.T, error) {
	if app == nil {
		return nil, fmt.Errorf("docgen: app is nil")
	}
	return FromRoutes(app.Routes(), cfg)
}

// FromRoutes builds an OpenAPI document from a route table. Entries with a
// nil Procedure (e.g. from outscope.RouteTable) produce operations without
// body or response schemas.
func FromRoutes(routes []outscope.RouteEntry, cfg *Config) (*openapi3.T, error) {
	cfg = applyDefaults(cfg)

	spec := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       cfg.Title,
			Version:     cfg.Version,
			Description: cfg.Description,
		},
		Components: &openapi3.Components{
			Schemas: make(openapi3.Schemas),
		},
		Paths: &openapi3.Paths{},
	}
	if cfg.ServerURL != "" {
		spec.Servers = openapi3.Servers{&openapi3.Server{URL: cfg.ServerURL}}
	}

	sg := newSchemaGenerator(spec.Components.Schemas)
	opIDs := make(map[string]bool)

	for _, route := range routes {
		op := buildOperation(route, sg, opIDs)

		pathItem := spec.Paths.Find(route.Path)
		if pathItem == nil {
			pathItem = &openapi3.PathItem{}
			spec.Paths.Set(route.Path, pathItem)
		}
		pathItem.SetOperation(route.Method, op)
	}

	return spec, nil
}

// buildOperation converts one route entry into an OpenAPI operation.
func buildOperation(route outscope.RouteEntry, sg *schemaGenerator, opIDs map[string]bool) *openapi3.Operation {
	op := openapi3.NewOperation()
	op.OperationID = uniqueOperationID(opIDs, route.Key, route.Method)
	op.Tags = operationTags(route)

	var reqType, resType reflect.Type
	var cacheTTL time.Duration
	if route.Procedure != nil {
		reqType = route.Procedure.RequestType()
		resType = route.Procedure.ResponseType()
		cacheTTL = route.Procedure.CacheTTL()
		if c := route.Procedure.Contract(); c != nil && c.IsLeaf() {
			op.Summary = c.Summary()
			if tags := c.Tags(); len(tags) > 0 {
				op.Tags = tags
			}
		}
	}

	pathParams := pathParamNames(route.Path)
	for _, name := range pathParams {
		param := openapi3.NewPathParameter(name).WithSchema(openapi3.NewStringSchema())
		op.AddParameter(param)
	}

	// Mirror the runtime input convention: GET and DELETE read from path
	// and query, everything else carries a JSON body.
	switch route.Method {
	case "GET", "DELETE":
		addQueryParameters(op, reqType, pathParams, sg)
	default:
		if ref := sg.generate(reqType); ref != nil {
			body := openapi3.NewRequestBody().WithJSONSchemaRef(ref)
			op.RequestBody = &openapi3.RequestBodyRef{Value: body}
		}
	}

	success := openapi3.NewResponse().WithDescription("Success")
	if ref := sg.generate(resType); ref != nil {
		success = success.WithJSONSchemaRef(ref)
	}
	if cacheTTL > 0 {
		success.Headers = openapi3.Headers{
			"Cache-Control": &openapi3.HeaderRef{Value: &openapi3.Header{
				Parameter: openapi3.Parameter{Schema: openapi3.NewStringSchema().NewRef()},
			}},
		}
	}
	op.AddResponse(200, success)
	op.AddResponse(0, openapi3.NewResponse().
		WithDescription("Error").
		WithJSONSchemaRef(sg.errorSchema()))

	return op
}

// uniqueOperationID derives an operation id from the route key, suffixing
// the HTTP method and a counter when aliases collide.
func uniqueOperationID(seen map[string]bool, key, method string) string {
	base := strings.ReplaceAll(key, ".", "_")
	id := base
	if seen[id] {
		id = base + "_" + strings.ToLower(method)
	}
	for i := 2; seen[id]; i++ {
		id = fmt.Sprintf("%s_%s_%d", base, strings.ToLower(method), i)
	}
	seen[id] = true
	return id
}

// operationTags groups operations by the first segment of the flat key,
// e.g. "planet.list" is tagged "planet".
func operationTags(route outscope.RouteEntry) []string {
	if route.Key == "" {
		return nil
	}
	segment, _, _ := strings.Cut(route.Key, ".")
	if segment == "" {
		return nil
	}
	return []string{segment}
}

// pathParamNames extracts the parameter names from a path template,
// e.g. "/planets/{id}" yields ["id"].
func pathParamNames(path string) []string {
	var names []string
	for _, seg := range strings.Split(path, "/") {
		if len(seg) > 1 && strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			names = append(names, seg[1:len(seg)-1])
		}
	}
	return names
}

// addQueryParameters derives query parameters from the request struct's
// fields, skipping those already bound as path parameters.
func addQueryParameters(op *openapi3.Operation, reqType reflect.Type, pathParams []string, sg *schemaGenerator) {
	t := reqType
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return
	}

	bound := make(map[string]bool, len(pathParams))
	for _, name := range pathParams {
		bound[name] = true
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name := queryFieldName(field)
		if name == "" || bound[name] {
			continue
		}
		param := openapi3.NewQueryParameter(name)
		if ref := sg.generate(field.Type); ref != nil {
			param.Schema = ref
		}
		if strings.Contains(field.Tag.Get("validate"), "required") {
			param = param.WithRequired(true)
		}
		op.AddParameter(param)
	}
}

// queryFieldName resolves the wire name of a struct field, preferring the
// schema tag (the query decoder's) over the json tag.
func queryFieldName(field reflect.StructField) string {
	for _, tag := range []string{"schema", "json"} {
		if v, ok := field.Tag.Lookup(tag); ok {
			name, _, _ := strings.Cut(v, ",")
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
	}
	return field.Name
}
