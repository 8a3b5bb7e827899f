// Package swagger builds an OpenAPI 2 document from the routes collected in a
// handler.Registry. Besides the success schema, every operation documents the
// plain-text error responses the translator can produce for it.
package swagger

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/go-openapi/spec"
	"github.com/google/uuid"
	"github.com/platform-smith-labs/japi-errors/core"
	"github.com/platform-smith-labs/japi-errors/handler"
)

// Info holds the general API information of the document
type Info struct {
	Title       string
	Description string
	Version     string
	Host        string
	BasePath    string
	Schemes     []string
}

// DefaultInfo returns the document information used by GenerateSpec
func DefaultInfo() Info {
	return Info{
		Title:       "API",
		Description: "Errors are answered with a text/plain body carrying the client-facing message",
		Version:     "1.0.0",
		Host:        "localhost:8080",
		BasePath:    "/",
		Schemes:     []string{"http", "https"},
	}
}

const (
	mimeJSON      = "application/json"
	mimeMultipart = "multipart/form-data"

	apiErrorDefinition = "APIError"
)

var (
	uuidType      = reflect.TypeOf(uuid.UUID{})
	emptyType     = reflect.TypeOf(struct{}{})
	pathParamExpr = regexp.MustCompile(`\{([^}:]+)(?::[^}]*)?\}`)
)

// GenerateSpec creates an OpenAPI spec from the routes of registry using reflection
func GenerateSpec(registry *handler.Registry) *spec.Swagger {
	return GenerateSpecWithInfo(registry, DefaultInfo())
}

// GenerateSpecWithInfo creates an OpenAPI spec with custom document information
func GenerateSpecWithInfo(registry *handler.Registry, info Info) *spec.Swagger {
	swagger := &spec.Swagger{
		SwaggerProps: spec.SwaggerProps{
			Swagger: "2.0",
			Info: &spec.Info{
				InfoProps: spec.InfoProps{
					Title:       info.Title,
					Description: info.Description,
					Version:     info.Version,
				},
			},
			Host:        info.Host,
			BasePath:    info.BasePath,
			Schemes:     info.Schemes,
			Paths:       &spec.Paths{Paths: make(map[string]spec.PathItem)},
			Definitions: spec.Definitions{apiErrorDefinition: apiErrorSchema()},
		},
	}

	// Group routes by path to handle multiple HTTP methods for the same path
	routesByPath := make(map[string][]handler.PendingRoute)
	for _, route := range registry.GetRoutes() {
		routesByPath[route.Path] = append(routesByPath[route.Path], route)
	}

	for path, routes := range routesByPath {
		var item spec.PathItem
		for _, route := range routes {
			setOperation(&item, route.Method, generateOperation(route, swagger.Definitions))
		}
		swagger.Paths.Paths[path] = item
	}

	return swagger
}

// GenerateJSON returns the OpenAPI spec of registry as indented JSON
func GenerateJSON(registry *handler.Registry) ([]byte, error) {
	return GenerateJSONWithInfo(registry, DefaultInfo())
}

// GenerateJSONWithInfo returns the OpenAPI spec with custom document information as JSON
func GenerateJSONWithInfo(registry *handler.Registry, info Info) ([]byte, error) {
	doc, err := json.MarshalIndent(GenerateSpecWithInfo(registry, info), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling swagger document: %w", err)
	}
	return doc, nil
}

func setOperation(item *spec.PathItem, method string, op *spec.Operation) {
	switch strings.ToUpper(method) {
	case http.MethodGet:
		item.Get = op
	case http.MethodPost:
		item.Post = op
	case http.MethodPut:
		item.Put = op
	case http.MethodDelete:
		item.Delete = op
	case http.MethodPatch:
		item.Patch = op
	case http.MethodHead:
		item.Head = op
	case http.MethodOptions:
		item.Options = op
	}
}

// handlerTypes extracts ParamTypeT, BodyTypeT and ResponseBodyT from the
// TypedHandler stored in a route
func handlerTypes(route handler.PendingRoute) (params, body, response reflect.Type, ok bool) {
	typ := reflect.TypeOf(route.Handler)
	if typ == nil || typ.Kind() != reflect.Struct {
		return nil, nil, nil, false
	}

	field, found := typ.FieldByName("handler")
	if !found || field.Type.Kind() != reflect.Func || field.Type.NumIn() == 0 || field.Type.NumOut() < 2 {
		return nil, nil, nil, false
	}

	ctxType := field.Type.In(0)
	params = nullableValueType(ctxType, "Params")
	body = nullableValueType(ctxType, "Body")
	return params, body, field.Type.Out(0), true
}

// nullableValueType returns T of a Nullable[T] field of HandlerContext
func nullableValueType(ctxType reflect.Type, name string) reflect.Type {
	field, ok := ctxType.FieldByName(name)
	if !ok || field.Type.Kind() != reflect.Struct || field.Type.NumField() == 0 {
		return nil
	}
	return field.Type.Field(0).Type
}

func generateOperation(route handler.PendingRoute, definitions spec.Definitions) *spec.Operation {
	op := spec.NewOperation(operationID(route)).
		WithSummary(generateSummary(route)).
		WithDescription(generateDescription(route)).
		WithTags(generateTags(route)...).
		WithProduces(mimeJSON, core.ContentTypeText)

	params, body, response, ok := handlerTypes(route)

	parsesParams := hasMiddleware(route, "ParseParams")
	if ok && parsesParams && isDocumentable(params) {
		addParameters(op, params)
	}
	addMissingPathParams(op, route.Path)

	switch {
	case hasMiddleware(route, "ParseCSV"), hasMiddleware(route, "ParseJSON"):
		op.WithConsumes(mimeMultipart)
		op.AddParam(spec.FileParam("file").AsRequired().WithDescription(uploadDescription(route)))
	case hasMiddleware(route, "ParseBody") && ok && isDocumentable(body):
		op.WithConsumes(mimeJSON)
		name := definitionName(body)
		op.AddParam(spec.BodyParam("body", schemaFor(body, definitions)).
			AsRequired().
			WithDescription(fmt.Sprintf("%s request body", name)))
	}

	addSuccessResponse(op, route, response, definitions)
	addErrorResponses(op, route)

	return op
}

func isDocumentable(t reflect.Type) bool {
	return t != nil && t != emptyType
}

func hasMiddleware(route handler.PendingRoute, name string) bool {
	for _, mw := range route.MiddlewareNames {
		if mw == name {
			return true
		}
	}
	return false
}

func uploadDescription(route handler.PendingRoute) string {
	if hasMiddleware(route, "ParseCSV") {
		return "CSV file (.csv)"
	}
	return "JSON file (.json)"
}

// addParameters creates parameters from struct fields with param/query tags
func addParameters(op *spec.Operation, structType reflect.Type) {
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)

		// Embedded structs without a json tag promote their parameters
		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			if tag := field.Tag.Get("json"); tag == "" || tag == "-" {
				addParameters(op, field.Type)
				continue
			}
		}

		var param *spec.Parameter
		if name := field.Tag.Get("param"); name != "" {
			param = spec.PathParam(name)
		} else if name := field.Tag.Get("query"); name != "" {
			param = spec.QueryParam(name)
			if !isRequired(field) {
				param.AsOptional()
			} else {
				param.AsRequired()
			}
		} else {
			continue
		}

		if field.Type.Kind() == reflect.Slice && field.Type != uuidType {
			elem := field.Type.Elem()
			param.CollectionOf(spec.NewItems().Typed(swaggerType(elem), swaggerFormat(elem)), "multi")
		} else {
			param.Typed(swaggerType(field.Type), swaggerFormat(field.Type))
		}
		op.AddParam(param.WithDescription(fieldDescription(field)))
	}
}

// addMissingPathParams documents path placeholders no params struct declared,
// since Swagger 2 requires every path template variable to be a parameter
func addMissingPathParams(op *spec.Operation, path string) {
	for _, match := range pathParamExpr.FindAllStringSubmatch(path, -1) {
		name := match[1]
		declared := false
		for _, p := range op.Parameters {
			if p.In == "path" && p.Name == name {
				declared = true
				break
			}
		}
		if !declared {
			op.AddParam(spec.PathParam(name).Typed("string", ""))
		}
	}
}

func addSuccessResponse(op *spec.Operation, route handler.PendingRoute, response reflect.Type, definitions spec.Definitions) {
	status := http.StatusOK
	if strings.EqualFold(route.Method, http.MethodPost) {
		status = http.StatusCreated
	}

	resp := spec.NewResponse().WithDescription(http.StatusText(status))
	if isDocumentable(response) {
		resp.WithSchema(schemaFor(response, definitions))
	}
	op.RespondsWith(status, resp)
}

// addErrorResponses documents the translator responses a route can produce.
// Bodies are plain text, so each response is a string schema. Routes with
// path parameters address a resource and can answer 404.
func addErrorResponses(op *spec.Operation, route handler.PendingRoute) {
	var badRequest []string
	if hasMiddleware(route, "ParseParams") {
		badRequest = append(badRequest,
			core.TypeMismatchMessage,
			"<parameter>"+core.MissingParameterMessage,
		)
	}
	if hasMiddleware(route, "ParseBody") || hasMiddleware(route, "ParseCSV") || hasMiddleware(route, "ParseJSON") {
		badRequest = append(badRequest, core.JSONTypeMismatchMessage)
	}
	if hasMiddleware(route, "ParseParams") || hasMiddleware(route, "ParseBody") ||
		hasMiddleware(route, "ParseCSV") || hasMiddleware(route, "ParseJSON") {
		badRequest = append(badRequest, "constraint violation messages joined with ';'")
	}
	badRequest = append(badRequest, "illegal argument or state message")

	op.RespondsWith(http.StatusBadRequest, spec.NewResponse().
		WithDescription(http.StatusText(http.StatusBadRequest)+": "+strings.Join(badRequest, " | ")).
		WithSchema(spec.StringProperty()))

	if pathParamExpr.MatchString(route.Path) {
		op.RespondsWith(http.StatusNotFound, spec.NewResponse().
			WithDescription(http.StatusText(http.StatusNotFound)+": message naming the missing resource").
			WithSchema(spec.StringProperty()))
	}

	op.RespondsWith(http.StatusInternalServerError, spec.NewResponse().
		WithDescription(http.StatusText(http.StatusInternalServerError)).
		WithSchema(spec.RefSchema("#/definitions/"+apiErrorDefinition)))
}

func apiErrorSchema() spec.Schema {
	apiErr := new(spec.Schema).Typed("object", "").
		SetProperty("code", *spec.Int64Property()).
		SetProperty("message", *spec.StringProperty()).
		SetProperty("detail", *spec.StringProperty()).
		WithRequired("code", "message")
	return *new(spec.Schema).Typed("object", "").
		SetProperty("error", *apiErr).
		WithRequired("error")
}

// schemaFor returns the schema of t, registering named structs as definitions
func schemaFor(t reflect.Type, definitions spec.Definitions) *spec.Schema {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	switch {
	case t == uuidType || t.String() == "time.Time":
		return new(spec.Schema).Typed(swaggerType(t), swaggerFormat(t))
	case t.Kind() == reflect.Slice || t.Kind() == reflect.Array:
		return spec.ArrayProperty(schemaFor(t.Elem(), definitions))
	case t.Kind() == reflect.Map:
		return spec.MapProperty(schemaFor(t.Elem(), definitions))
	case t.Kind() == reflect.Struct:
		name := definitionName(t)
		if name == "" {
			return structSchema(t, definitions)
		}
		if _, exists := definitions[name]; !exists {
			// Placeholder first so recursive types terminate
			definitions[name] = spec.Schema{}
			definitions[name] = *structSchema(t, definitions)
		}
		return spec.RefSchema("#/definitions/" + name)
	default:
		return new(spec.Schema).Typed(swaggerType(t), swaggerFormat(t))
	}
}

func definitionName(t reflect.Type) string {
	name := t.Name()
	// Instantiated generic types carry their type arguments in the name
	if i := strings.IndexByte(name, '['); i != -1 {
		name = name[:i]
	}
	return name
}

// structSchema creates an object schema from the json-tagged fields of a struct
func structSchema(t reflect.Type, definitions spec.Definitions) *spec.Schema {
	schema := new(spec.Schema).Typed("object", "")
	schema.Properties = make(spec.SchemaProperties)

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("json")

		// Embedded structs without a json tag are flattened, parent fields win
		if field.Anonymous && field.Type.Kind() == reflect.Struct && (tag == "" || tag == "-") {
			embedded := structSchema(field.Type, definitions)
			for name, prop := range embedded.Properties {
				if _, exists := schema.Properties[name]; !exists {
					schema.Properties[name] = prop
				}
			}
			for _, name := range embedded.Required {
				if !contains(schema.Required, name) {
					schema.Required = append(schema.Required, name)
				}
			}
			continue
		}

		if tag == "" || tag == "-" || !field.IsExported() {
			continue
		}

		name := strings.Split(tag, ",")[0]
		if name == "" {
			name = field.Name
		}

		prop := schemaFor(field.Type, definitions)
		if prop.Ref.String() == "" {
			prop.WithDescription(fieldDescription(field))
			addConstraints(prop, field)
		}
		schema.SetProperty(name, *prop)

		if isRequired(field) {
			schema.AddRequired(name)
		}
	}

	sort.Strings(schema.Required)
	return schema
}

// addConstraints maps validate rules onto schema validations
func addConstraints(schema *spec.Schema, field reflect.StructField) {
	typ := swaggerType(field.Type)
	isString := typ == "string"
	isArray := typ == "array"

	for _, rule := range strings.Split(field.Tag.Get("validate"), ",") {
		key, value, _ := strings.Cut(strings.TrimSpace(rule), "=")
		switch key {
		case "min", "gte":
			if n, err := strconv.ParseFloat(value, 64); err == nil {
				if isString {
					schema.WithMinLength(int64(n))
				} else if isArray {
					schema.WithMinItems(int64(n))
				} else {
					schema.WithMinimum(n, false)
				}
			}
		case "max", "lte":
			if n, err := strconv.ParseFloat(value, 64); err == nil {
				if isString {
					schema.WithMaxLength(int64(n))
				} else if isArray {
					schema.WithMaxItems(int64(n))
				} else {
					schema.WithMaximum(n, false)
				}
			}
		case "gt":
			if n, err := strconv.ParseFloat(value, 64); err == nil && !isString && !isArray {
				schema.WithMinimum(n, true)
			}
		case "lt":
			if n, err := strconv.ParseFloat(value, 64); err == nil && !isString && !isArray {
				schema.WithMaximum(n, true)
			}
		case "oneof":
			values := strings.Fields(value)
			enum := make([]any, len(values))
			for i, v := range values {
				enum[i] = v
			}
			schema.WithEnum(enum...)
		case "email", "uuid", "url":
			schema.Format = key
		}
	}
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

// Helper functions

func operationID(route handler.PendingRoute) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(route.Method))
	for _, part := range strings.Split(strings.Trim(route.Path, "/"), "/") {
		part = strings.Trim(pathParamExpr.ReplaceAllString(part, "By${1}"), "{}")
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]) + part[1:])
	}
	return b.String()
}

func generateSummary(route handler.PendingRoute) string {
	if route.RouteInfo.Summary != "" {
		return route.RouteInfo.Summary
	}

	parts := strings.Split(strings.Trim(route.Path, "/"), "/")
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i] != "" && !strings.HasPrefix(parts[i], "{") {
			return fmt.Sprintf("%s %s", verbFromMethod(route.Method), parts[i])
		}
	}
	return fmt.Sprintf("%s %s", strings.ToUpper(route.Method), route.Path)
}

func generateDescription(route handler.PendingRoute) string {
	if route.RouteInfo.Description != "" {
		return route.RouteInfo.Description
	}
	return fmt.Sprintf("%s endpoint for %s", strings.ToUpper(route.Method), route.Path)
}

func generateTags(route handler.PendingRoute) []string {
	if len(route.RouteInfo.Tags) > 0 {
		return route.RouteInfo.Tags
	}

	// Skip parameters and common prefixes
	for _, part := range strings.Split(strings.Trim(route.Path, "/"), "/") {
		if part != "" && !strings.HasPrefix(part, "{") && part != "api" && part != "v1" {
			return []string{part}
		}
	}
	return []string{"api"}
}

func fieldDescription(field reflect.StructField) string {
	if desc := field.Tag.Get("description"); desc != "" {
		return desc
	}
	return ""
}

func verbFromMethod(method string) string {
	switch strings.ToUpper(method) {
	case http.MethodGet:
		return "Get"
	case http.MethodPost:
		return "Create"
	case http.MethodPut:
		return "Update"
	case http.MethodDelete:
		return "Delete"
	case http.MethodPatch:
		return "Patch"
	default:
		return strings.ToUpper(method)
	}
}

func isRequired(field reflect.StructField) bool {
	for _, rule := range strings.Split(field.Tag.Get("validate"), ",") {
		if rule == "dive" {
			return false
		}
		if rule == "required" {
			return true
		}
	}
	return false
}

func swaggerType(t reflect.Type) string {
	if t == uuidType || t.String() == "time.Time" || t.String() == "time.Duration" {
		return "string"
	}

	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Array, reflect.Slice:
		return "array"
	case reflect.Struct, reflect.Map:
		return "object"
	default:
		return "string"
	}
}

func swaggerFormat(t reflect.Type) string {
	switch {
	case t == uuidType:
		return "uuid"
	case t.String() == "time.Time":
		return "date-time"
	case t.String() == "time.Duration":
		return "duration"
	}

	switch t.Kind() {
	case reflect.Int32:
		return "int32"
	case reflect.Int64:
		return "int64"
	case reflect.Float32:
		return "float"
	case reflect.Float64:
		return "double"
	default:
		return ""
	}
}
