package swagger

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/platform-smith-labs/japi-errors/handler"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/swaggo/swag"
)

// Document is a swag.Swagger backed by a route registry. The JSON is
// generated on every read so routes added after setup are included.
type Document struct {
	registry *handler.Registry
	info     Info
}

// NewDocument creates a Document for registry
func NewDocument(registry *handler.Registry, info Info) *Document {
	return &Document{registry: registry, info: info}
}

// ReadDoc returns the document as JSON, or an empty object if it cannot be generated
func (d *Document) ReadDoc() string {
	doc, err := GenerateJSONWithInfo(d.registry, d.info)
	if err != nil {
		slog.Error("Failed to generate API specification", "error", err)
		return "{}"
	}
	return string(doc)
}

// documents maps swag instance names to the Document currently served under them.
// swag.Register panics on a second registration, so each name is registered
// once with an instance that reads from this map.
var documents sync.Map

type instance string

func (i instance) ReadDoc() string {
	if doc, ok := documents.Load(string(i)); ok {
		return doc.(*Document).ReadDoc()
	}
	return "{}"
}

// register serves doc under the swag instance name, replacing a previous document
func register(name string, doc *Document) {
	if _, loaded := documents.Swap(name, doc); !loaded {
		swag.Register(name, instance(name))
	}
}

// instanceName derives the swag instance name from the mount path
func instanceName(basePath string) string {
	if basePath == "" {
		return swag.Name
	}
	return swag.Name + basePath
}

// SetupSwaggerUI registers Swagger documentation routes on the provided router.
// It creates two endpoints:
//   - GET /swagger.json - Returns the OpenAPI specification as JSON
//   - GET /swagger/* - Serves the interactive Swagger UI
//
// Example usage:
//
//	r := router.NewChiRouter(translator)
//	registry.RegisterRoutes(r, translator, logger)
//	swagger.SetupSwaggerUI(r, registry)
func SetupSwaggerUI(r chi.Router, registry *handler.Registry) {
	SetupSwaggerUIWithPath(r, "", registry)
}

// SetupSwaggerUIWithPath registers Swagger documentation routes with a custom base path prefix.
//
// Example usage:
//
//	swagger.SetupSwaggerUIWithPath(r, "/api/docs", registry) // Routes: /api/docs/swagger.json, /api/docs/swagger/*
func SetupSwaggerUIWithPath(r chi.Router, basePath string, registry *handler.Registry) {
	SetupSwaggerUIWithInfo(r, basePath, registry, DefaultInfo())
}

// SetupSwaggerUIWithInfo registers Swagger documentation routes with custom
// document information. The document is also registered with swag, so the
// UI's doc.json and swag.ReadDoc serve the same JSON.
func SetupSwaggerUIWithInfo(r chi.Router, basePath string, registry *handler.Registry, info Info) {
	// Normalize basePath: remove trailing slash to prevent double slashes
	basePath = strings.TrimSuffix(basePath, "/")

	name := instanceName(basePath)
	doc := NewDocument(registry, info)
	register(name, doc)

	r.Get(basePath+"/swagger.json", func(w http.ResponseWriter, r *http.Request) {
		spec, err := GenerateJSONWithInfo(registry, info)
		if err != nil {
			slog.Error("Failed to generate API specification", "error", err)
			http.Error(w, "Failed to generate API specification", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(spec)
	})

	r.Get(basePath+"/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(basePath+"/swagger.json"),
		httpSwagger.InstanceName(name),
	))
}
