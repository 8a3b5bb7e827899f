package handler

import (
	"context"
	"log/slog"
	"net/http"
	"reflect"
	"regexp"
	"runtime"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/platform-smith-labs/japi-errors/core"
)

// HandlerContext contains application dependencies and request-scoped data
// ParamTypeT represents the type of parameters (URL/query params)
// BodyTypeT represents the type of request body
type HandlerContext[ParamTypeT any, BodyTypeT any] struct {
	// Request context (propagated from r.Context())
	Context context.Context

	Logger *slog.Logger

	// Request-scoped data
	Params    Nullable[ParamTypeT]
	Body      Nullable[BodyTypeT]
	BodyRaw   Nullable[[]byte]
	Headers   Nullable[http.Header]
	RequestID Nullable[string]
}

// Handler represents a generic handler function that receives typed context and returns response data
type Handler[ParamTypeT any, BodyTypeT any, ResponseBodyT any] func(ctx HandlerContext[ParamTypeT, BodyTypeT], w http.ResponseWriter, r *http.Request) (ResponseBodyT, error)

// Middleware represents a function that wraps a Handler and can enrich the context
type Middleware[ParamTypeT any, BodyTypeT any, ResponseBodyT any] func(Handler[ParamTypeT, BodyTypeT, ResponseBodyT]) Handler[ParamTypeT, BodyTypeT, ResponseBodyT]

// RouteInfo holds route metadata for automatic registration
type RouteInfo struct {
	Method      string   // HTTP method (GET, POST, PUT, DELETE, etc.)
	Path        string   // Route path pattern
	Summary     string   // Optional: Brief description for Swagger (auto-generated if empty)
	Description string   // Optional: Detailed description for Swagger (auto-generated if empty)
	Tags        []string // Optional: Tags for grouping in Swagger UI
}

// AdaptableHandler knows how to create an adapted http.HandlerFunc
type AdaptableHandler interface {
	Adapt(translator *core.Translator, logger *slog.Logger) http.HandlerFunc
}

// TypedHandler wraps any Handler type and implements AdaptableHandler
type TypedHandler[ParamTypeT any, BodyTypeT any, ResponseBodyT any] struct {
	handler Handler[ParamTypeT, BodyTypeT, ResponseBodyT]
}

// Adapt converts the typed handler to http.HandlerFunc using AdaptHandler
func (th TypedHandler[ParamTypeT, BodyTypeT, ResponseBodyT]) Adapt(translator *core.Translator, logger *slog.Logger) http.HandlerFunc {
	return AdaptHandler(translator, logger, th.handler)
}

// PendingRoute stores route information for handlers that need to be registered later
type PendingRoute struct {
	Method          string
	Path            string
	Handler         AdaptableHandler
	RouteInfo       RouteInfo
	MiddlewareNames []string // Names of middleware functions applied to this route
}

// Registry collects routes declared with MakeHandler until they are mounted on a router
type Registry struct {
	mu     sync.RWMutex
	routes []PendingRoute
}

// NewRegistry creates an empty route registry
func NewRegistry() *Registry {
	return &Registry{routes: make([]PendingRoute, 0)}
}

// MakeHandler creates a handler with automatic route registration and middleware composition
// Usage: MakeHandler(reg, RouteInfo{Method: "POST", Path: "/api/v1/endpoint"}, baseHandler, middleware...)
// Execution order: first middleware -> ... -> last middleware -> baseHandler
func MakeHandler[ParamTypeT any, BodyTypeT any, ResponseBodyT any](
	registry *Registry,
	routeInfo RouteInfo,
	baseHandler Handler[ParamTypeT, BodyTypeT, ResponseBodyT],
	middleware ...Middleware[ParamTypeT, BodyTypeT, ResponseBodyT],
) Handler[ParamTypeT, BodyTypeT, ResponseBodyT] {
	handler := baseHandler

	middlewareNames := make([]string, len(middleware))
	for i, mw := range middleware {
		middlewareNames[i] = getMiddlewareName(mw)
	}

	// Fold from the end so middleware[0] is the outermost wrapper
	for i := len(middleware) - 1; i >= 0; i-- {
		handler = middleware[i](handler)
	}

	registry.mu.Lock()
	registry.routes = append(registry.routes, PendingRoute{
		Method:          routeInfo.Method,
		Path:            routeInfo.Path,
		Handler:         TypedHandler[ParamTypeT, BodyTypeT, ResponseBodyT]{handler: handler},
		RouteInfo:       routeInfo,
		MiddlewareNames: middlewareNames,
	})
	registry.mu.Unlock()

	return handler
}

// RegisterRoutes mounts every collected route on the chi router. All of them
// report errors through the given translator.
func (reg *Registry) RegisterRoutes(r chi.Router, translator *core.Translator, logger *slog.Logger) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	for _, route := range reg.routes {
		r.Method(strings.ToUpper(route.Method), route.Path, route.Handler.Adapt(translator, logger))
	}
}

// GetRoutes returns a copy of all collected routes for reflection/documentation
func (reg *Registry) GetRoutes() []PendingRoute {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	routes := make([]PendingRoute, len(reg.routes))
	copy(routes, reg.routes)
	return routes
}

var genericFuncName = regexp.MustCompile(`\.([A-Za-z_][A-Za-z0-9_]*)\[`)

// getMiddlewareName extracts the function name from a middleware function using reflection
func getMiddlewareName[ParamTypeT any, BodyTypeT any, ResponseBodyT any](middleware Middleware[ParamTypeT, BodyTypeT, ResponseBodyT]) string {
	funcForPC := runtime.FuncForPC(reflect.ValueOf(middleware).Pointer())
	if funcForPC == nil {
		return "unknown"
	}

	// For generic functions the format is: package.path.FunctionName[generics...]
	fullName := funcForPC.Name()
	if matches := genericFuncName.FindStringSubmatch(fullName); len(matches) > 1 {
		return matches[1]
	}

	lastName := fullName[strings.LastIndex(fullName, ".")+1:]
	if bracketIndex := strings.Index(lastName, "["); bracketIndex != -1 {
		lastName = lastName[:bracketIndex]
	}
	if lastName != "" && lastName != "]" {
		return lastName
	}

	return "unknown"
}
