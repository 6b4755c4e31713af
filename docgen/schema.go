package docgen

import (
	"reflect"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
)

var timeType = reflect.TypeOf(time.Time{})

// schemaGenerator turns Go types into OpenAPI schema definitions. Named
// struct types are registered under components/schemas and referenced;
// everything else is inlined.
type schemaGenerator struct {
	// defs is the document's components/schemas map, shared with the spec.
	defs openapi3.Schemas

	// cache stores refs for types we've already processed, avoiding
	// re-computation and handling recursive types.
	cache map[reflect.Type]*openapi3.SchemaRef
}

func newSchemaGenerator(defs openapi3.Schemas) *schemaGenerator {
	return &schemaGenerator{
		defs:  defs,
		cache: make(map[reflect.Type]*openapi3.SchemaRef),
	}
}

// generate creates a schema reference for t, or nil when t is nil.
func (sg *schemaGenerator) generate(t reflect.Type) *openapi3.SchemaRef {
	if t == nil {
		return nil
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t == timeType {
		return openapi3.NewDateTimeSchema().NewRef()
	}

	if ref, ok := sg.cache[t]; ok {
		return ref
	}

	if t.Kind() == reflect.Struct && t.Name() != "" {
		name := sanitizeTypeName(t.Name())
		ref := &openapi3.SchemaRef{Ref: "#/components/schemas/" + name}
		// Cache before building so recursive types resolve to the ref.
		sg.cache[t] = ref
		sg.defs[name] = &openapi3.SchemaRef{Value: sg.buildSchema(t)}
		return ref
	}

	return &openapi3.SchemaRef{Value: sg.buildSchema(t)}
}

// buildSchema does the actual work of converting a type to a schema.
func (sg *schemaGenerator) buildSchema(t reflect.Type) *openapi3.Schema {
	switch t.Kind() {
	case reflect.String:
		return openapi3.NewStringSchema()
	case reflect.Bool:
		return openapi3.NewBoolSchema()
	case reflect.Int64, reflect.Uint64:
		return openapi3.NewInt64Schema()
	case reflect.Int32, reflect.Uint32:
		return openapi3.NewInt32Schema()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Uint, reflect.Uint8, reflect.Uint16:
		return openapi3.NewIntegerSchema()
	case reflect.Float32, reflect.Float64:
		return openapi3.NewFloat64Schema()
	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return openapi3.NewBytesSchema()
		}
		schema := openapi3.NewArraySchema()
		schema.Items = sg.generate(t.Elem())
		return schema
	case reflect.Map:
		schema := openapi3.NewObjectSchema()
		schema.AdditionalProperties = openapi3.AdditionalProperties{Schema: sg.generate(t.Elem())}
		return schema
	case reflect.Struct:
		return sg.schemaForStruct(t)
	case reflect.Interface:
		return openapi3.NewSchema()
	default:
		schema := openapi3.NewObjectSchema()
		schema.Description = "Unsupported type: " + t.String()
		return schema
	}
}

func (sg *schemaGenerator) schemaForStruct(t reflect.Type) *openapi3.Schema {
	schema := openapi3.NewObjectSchema()
	sg.addStructFields(schema, t)
	return schema
}

func (sg *schemaGenerator) addStructFields(schema *openapi3.Schema, t reflect.Type) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		name, _, _ := strings.Cut(jsonTag, ",")
		if name == "-" {
			continue
		}

		// Untagged embedded structs are flattened, matching encoding/json.
		if field.Anonymous && name == "" {
			ft := field.Type
			for ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				sg.addStructFields(schema, ft)
				continue
			}
		}

		if name == "" {
			name = field.Name
		}

		schema.WithPropertyRef(name, sg.generate(field.Type))
		if strings.Contains(field.Tag.Get("validate"), "required") {
			schema.Required = append(schema.Required, name)
		}
	}
}

// errorSchema registers the app's error envelope under components/schemas
// and returns a reference to it.
func (sg *schemaGenerator) errorSchema() *openapi3.SchemaRef {
	if _, ok := sg.defs["Error"]; !ok {
		schema := openapi3.NewObjectSchema().
			WithProperty("code", openapi3.NewStringSchema()).
			WithProperty("message", openapi3.NewStringSchema()).
			WithProperty("details", openapi3.NewObjectSchema().WithAnyAdditionalProperties())
		schema.Required = []string{"code", "message"}
		sg.defs["Error"] = &openapi3.SchemaRef{Value: schema}
	}
	return &openapi3.SchemaRef{Ref: "#/components/schemas/Error"}
}

// sanitizeTypeName flattens generic instantiation names into identifiers,
// e.g. "Pair[int, string]" becomes "Pair_int_string".
func sanitizeTypeName(name string) string {
	result := strings.ReplaceAll(name, ".", "_")
	result = strings.ReplaceAll(result, "/", "_")
	result = strings.ReplaceAll(result, "[", "_")
	result = strings.ReplaceAll(result, "]", "")
	result = strings.ReplaceAll(result, ",", "_")
	result = strings.ReplaceAll(result, " ", "")
	result = strings.ReplaceAll(result, "*", "Ptr")
	return result
}
