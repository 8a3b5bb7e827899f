package typed

import (
	"encoding/json"
	"net/http"

	"github.com/platform-smith-labs/japi-errors/core"
	"github.com/platform-smith-labs/japi-errors/handler"
)

// ParseJSON extracts and validates a JSON file from multipart form data.
//
// Unlike ParseBody, the JSON document arrives as an uploaded file (field
// name: "file") and is decoded into BodyTypeT. Error kinds match ParseCSV:
// undecodable uploads are core.MalformedBodyError, constraint failures are
// core.ValidationError.
//
// Context modifications: Sets ctx.Body with parsed JSON data
// Use: Apply via MakeHandler(..., ParseJSON, ...)
func ParseJSON[ParamTypeT any, BodyTypeT any, ResponseBodyT any](next handler.Handler[ParamTypeT, BodyTypeT, ResponseBodyT]) handler.Handler[ParamTypeT, BodyTypeT, ResponseBodyT] {
	return func(ctx handler.HandlerContext[ParamTypeT, BodyTypeT], w http.ResponseWriter, r *http.Request) (ResponseBodyT, error) {
		var zeroResponse ResponseBodyT

		file, err := uploadedFile(r, ".json")
		if err != nil {
			return zeroResponse, err
		}
		defer file.Close()

		var data BodyTypeT
		if err := json.NewDecoder(file).Decode(&data); err != nil {
			return zeroResponse, core.MalformedBody(err)
		}

		if err := validateValue(data, "body"); err != nil {
			return zeroResponse, err
		}

		ctx.Body = handler.NewNullable(data)
		return next(ctx, w, r)
	}
}
