package typed

import (
	"net/http"

	"github.com/platform-smith-labs/japi-errors/core"
	"github.com/platform-smith-labs/japi-errors/handler"
)

// ResponseJSON handles writing successful responses as JSON.
//
// The response is written once every middleware listed after it, and the
// handler, have returned. Errors pass through untouched so the adapter can
// hand them to the translator.
// Status is 201 for POST and 200 otherwise.
//
// Use: Apply via MakeHandler(reg, info, myHandler, ParseParams, ResponseJSON)
func ResponseJSON[ParamTypeT any, BodyTypeT any, ResponseBodyT any](next handler.Handler[ParamTypeT, BodyTypeT, ResponseBodyT]) handler.Handler[ParamTypeT, BodyTypeT, ResponseBodyT] {
	return func(ctx handler.HandlerContext[ParamTypeT, BodyTypeT], w http.ResponseWriter, r *http.Request) (ResponseBodyT, error) {
		responseData, err := next(ctx, w, r)
		if err != nil {
			return responseData, err
		}

		statusCode := http.StatusOK
		if r.Method == http.MethodPost {
			statusCode = http.StatusCreated
		}

		if err := core.JSON(w, statusCode, responseData); err != nil {
			ctx.Logger.Error("Failed to write JSON response", "error", err.Error(), "path", r.URL.Path)
			return responseData, core.NewAPIError(http.StatusInternalServerError, "Failed to write response")
		}

		return responseData, nil
	}
}
