package typed

import (
	"errors"
	"net/http"
	"reflect"

	"github.com/gocarina/gocsv"
	"github.com/platform-smith-labs/japi-errors/core"
	"github.com/platform-smith-labs/japi-errors/handler"
)

var errEmptyCSV = errors.New("CSV file is empty or contains no valid data rows")

// ParseCSV extracts and validates a CSV file from multipart form data.
//
// The file (field name: "file") is unmarshalled with gocsv into BodyTypeT,
// which should be a slice of row structs, and every row is validated.
//
// Errors:
//   - form or file missing, CSV not decodable, no rows: core.MalformedBodyError
//   - file without .csv extension: core.IllegalArgumentError
//   - row validation failure: core.ValidationError whose fields are prefixed with
//     the row index, e.g. "[0].email"
//
// Context modifications: Sets ctx.Body with parsed CSV data
// Use: Apply via MakeHandler(..., ParseCSV, ...)
//
// Example:
//
//	type CSVRow struct {
//	    Name  string `csv:"name" validate:"required"`
//	    Email string `csv:"email" validate:"required,email"`
//	}
//	// BodyTypeT should be []CSVRow
//	handler := MakeHandler(reg, info, importHandler, ParseCSV, ResponseJSON)
func ParseCSV[ParamTypeT any, BodyTypeT any, ResponseBodyT any](next handler.Handler[ParamTypeT, BodyTypeT, ResponseBodyT]) handler.Handler[ParamTypeT, BodyTypeT, ResponseBodyT] {
	return func(ctx handler.HandlerContext[ParamTypeT, BodyTypeT], w http.ResponseWriter, r *http.Request) (ResponseBodyT, error) {
		var zeroResponse ResponseBodyT

		file, err := uploadedFile(r, ".csv")
		if err != nil {
			return zeroResponse, err
		}
		defer file.Close()

		var rows BodyTypeT
		if err := gocsv.Unmarshal(file, &rows); err != nil {
			return zeroResponse, core.MalformedBody(err)
		}

		if v := reflect.ValueOf(rows); v.Kind() == reflect.Slice && v.Len() == 0 {
			return zeroResponse, core.MalformedBody(errEmptyCSV)
		}

		if err := validateValue(rows, "body"); err != nil {
			return zeroResponse, err
		}

		ctx.Body = handler.NewNullable(rows)
		return next(ctx, w, r)
	}
}
