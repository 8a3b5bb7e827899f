package typed

import (
	"net/http"
	"time"

	"github.com/platform-smith-labs/japi-errors/handler"
)

// WithLogging creates structured logging middleware for typed handlers.
//
// It should be the FIRST middleware in the MakeHandler list so it wraps all
// the others. Failed requests are logged at info level with the error text;
// the translator writes the error-level record for the response itself.
//
// Dependencies: ctx.Logger from HandlerContext
// Use: Apply via MakeHandler(..., WithLogging, ParseBody, ResponseJSON)
func WithLogging[ParamTypeT any, BodyTypeT any, ResponseBodyT any](
	next handler.Handler[ParamTypeT, BodyTypeT, ResponseBodyT],
) handler.Handler[ParamTypeT, BodyTypeT, ResponseBodyT] {
	return func(ctx handler.HandlerContext[ParamTypeT, BodyTypeT], w http.ResponseWriter, r *http.Request) (ResponseBodyT, error) {
		startTime := time.Now()

		ctx.Logger.Info("HTTP Request",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		)

		response, err := next(ctx, w, r)

		fields := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(startTime).Milliseconds(),
		}
		if err != nil {
			ctx.Logger.Info("HTTP Response Error", append(fields, "error", err.Error())...)
		} else {
			ctx.Logger.Info("HTTP Response Success", fields...)
		}

		return response, err
	}
}
