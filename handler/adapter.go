package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/platform-smith-labs/japi-errors/core"
)

// AdaptHandler converts Handler[ParamTypeT, BodyTypeT, ResponseBodyT] to http.HandlerFunc.
//
// This is the centralized error hook of the framework: every error a typed
// handler or its middleware returns goes through the translator. Errors the
// translator does not recognize fall back to core.Fallback.
//
// Parameters:
//   - translator: Translator for handler errors (nil uses core.DefaultTranslator())
//   - logger: Logger instance to inject into handler context
//   - handler: The typed handler to adapt
//
// Example:
//
//	handler := MakeHandler(reg, RouteInfo{Method: "GET", Path: "/users/{id}"}, getUser, typed.ParseParams)
//	r.Get("/users/{id}", AdaptHandler(translator, logger, handler))
func AdaptHandler[ParamTypeT any, BodyTypeT any, ResponseBodyT any](
	translator *core.Translator,
	logger *slog.Logger,
	handler Handler[ParamTypeT, BodyTypeT, ResponseBodyT],
) http.HandlerFunc {
	if translator == nil {
		translator = core.DefaultTranslator()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := HandlerContext[ParamTypeT, BodyTypeT]{
			Context:   r.Context(),
			Logger:    logger,
			RequestID: Nil[string](),
		}

		_, err := handler(ctx, w, r)
		if err == nil {
			// Response writing is delegated to middleware (e.g., ResponseJSON)
			return
		}

		if errors.Is(err, context.Canceled) {
			// Client disconnected - don't write response
			logger.Info("Request cancelled by client", "path", r.URL.Path)
			return
		}
		if errors.Is(err, context.DeadlineExceeded) {
			core.Fallback(w, r, core.NewAPIError(http.StatusGatewayTimeout, "Request timeout"))
			return
		}

		core.HandleError(translator, w, r, err)
	}
}
