package router

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/platform-smith-labs/japi-errors/core"
)

// NewChiRouter creates a new Chi router with standard middleware whose
// unknown routes are answered by the translator:
// 404 "The requested resource was not found".
//
// SECURITY WARNING: CORS is configured to DENY ALL origins by default.
// You MUST explicitly configure allowed origins for your application to
// accept cross-origin requests, see NewChiRouterWithCORS.
//
// A nil translator uses core.DefaultTranslator().
func NewChiRouter(translator *core.Translator) chi.Router {
	return NewChiRouterWithCORS(translator, []string{})
}

// NewChiRouterWithCORS creates a new Chi router with explicitly allowed origins.
//
// Example:
//
//	r := router.NewChiRouterWithCORS(translator, []string{"http://localhost:3000"})
//
// WARNING: Never use []string{"*"} in production as it allows any origin.
func NewChiRouterWithCORS(translator *core.Translator, allowedOrigins []string) chi.Router {
	r := chi.NewRouter()

	// Chi built-in middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "X-Request-ID"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.NotFound(NotFoundHandler(translator))

	return r
}

// NotFoundHandler reports every request it receives as a NoResourceError
func NotFoundHandler(translator *core.Translator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		core.HandleError(translator, w, r, core.NoResource(r.Method, r.URL.Path))
	}
}

// Static serves the files of fsys under prefix. Paths that do not name a
// regular file, directories included, are reported as a NoResourceError.
//
// Example:
//
//	//go:embed public
//	var public embed.FS
//	sub, _ := fs.Sub(public, "public")
//	router.Static(r, translator, "/assets", sub)
func Static(r chi.Router, translator *core.Translator, prefix string, fsys fs.FS) {
	prefix = strings.TrimSuffix(prefix, "/")

	r.Get(prefix+"/*", func(w http.ResponseWriter, req *http.Request) {
		name := chi.URLParam(req, "*")
		if name == "" || !fs.ValidPath(name) {
			core.HandleError(translator, w, req, core.NoResource(req.Method, req.URL.Path))
			return
		}

		f, err := fsys.Open(name)
		if err != nil {
			core.HandleError(translator, w, req, core.NoResource(req.Method, req.URL.Path))
			return
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil || info.IsDir() {
			core.HandleError(translator, w, req, core.NoResource(req.Method, req.URL.Path))
			return
		}

		// ServeContent never redirects, so .../index.html is served as a file
		content, ok := f.(io.ReadSeeker)
		if !ok {
			data, err := io.ReadAll(f)
			if err != nil {
				core.HandleError(translator, w, req, fmt.Errorf("reading %s: %w", name, err))
				return
			}
			content = bytes.NewReader(data)
		}
		http.ServeContent(w, req, info.Name(), info.ModTime(), content)
	})
}

// AdaptErrorHandler adapts a core.HandlerFunc to work with Chi, sending its
// errors through the given translator
func AdaptErrorHandler(translator *core.Translator, handler core.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := handler(w, r); err != nil {
			core.HandleError(translator, w, r, err)
		}
	}
}
