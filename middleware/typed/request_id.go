package typed

import (
	"log/slog"
	"net/http"

	"github.com/platform-smith-labs/japi-errors/handler"
	httpMiddleware "github.com/platform-smith-labs/japi-errors/middleware/http"
)

// WithRequestID enriches HandlerContext with the request ID.
//
// The ID set by http.WithRequestID (or chi's middleware.RequestID) is stored
// in ctx.RequestID and added to ctx.Logger as request_id, so the error record
// written for a failed request can be correlated with the access log.
//
// Dependencies: http.WithRequestID or chi middleware.RequestID applied on the router
// Context modifications: Sets ctx.RequestID, enriches ctx.Logger
// Use: Apply via MakeHandler(..., WithRequestID, WithLogging)
func WithRequestID[ParamTypeT any, BodyTypeT any, ResponseBodyT any](
	next handler.Handler[ParamTypeT, BodyTypeT, ResponseBodyT],
) handler.Handler[ParamTypeT, BodyTypeT, ResponseBodyT] {
	return func(ctx handler.HandlerContext[ParamTypeT, BodyTypeT], w http.ResponseWriter, r *http.Request) (ResponseBodyT, error) {
		if requestID := httpMiddleware.GetRequestID(r); requestID != "" {
			ctx.RequestID = handler.NewNullable(requestID)
			ctx.Logger = ctx.Logger.With(slog.String("request_id", requestID))
		}

		return next(ctx, w, r)
	}
}
