// Package typed provides generic typed middleware that works with Handler[ParamTypeT, BodyTypeT, ResponseBodyT].
// These middleware decode and validate the request and report every problem
// as one of the core error kinds, so the translator can answer it.
// Use: Apply via MakeHandler composition
package typed

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/platform-smith-labs/japi-errors/core"
	"github.com/platform-smith-labs/japi-errors/handler"
)

var (
	uuidType     = reflect.TypeOf(uuid.UUID{})
	durationType = reflect.TypeOf(time.Duration(0))

	errUnsupportedType = errors.New("unsupported field type")
	errBodyRequired    = errors.New("request body is required")
)

// ParseParams extracts and validates URL path parameters and query parameters.
//
// Fields are populated from struct tags: `param:"name"` for chi path params,
// `query:"name"` for query params. Query fields of slice type collect every
// occurrence of the parameter. Fields of embedded structs are bound as if
// they were declared on the params struct.
//
// `validate:"required"` means the parameter must be present. The remaining
// validate rules apply to supplied values only, so an absent optional
// parameter is never validated and a present `0` or `false` is accepted.
//
// Errors:
//   - required parameter absent: core.MissingParameterError
//   - value not convertible to the field type: core.TypeMismatchError
//   - validate tag failure after conversion: core.ValidationError (source "params")
//
// Context modifications: Sets ctx.Params
// Use: Apply via MakeHandler(..., ParseParams, ...)
//
// Example:
//
//	type UserParams struct {
//	    ID   int    `param:"id" validate:"required"`
//	    Sort string `query:"sort"`
//	}
//	handler := MakeHandler(reg, info, myHandler, ParseParams, ResponseJSON)
func ParseParams[ParamTypeT any, BodyTypeT any, ResponseBodyT any](next handler.Handler[ParamTypeT, BodyTypeT, ResponseBodyT]) handler.Handler[ParamTypeT, BodyTypeT, ResponseBodyT] {
	return func(ctx handler.HandlerContext[ParamTypeT, BodyTypeT], w http.ResponseWriter, r *http.Request) (ResponseBodyT, error) {
		var zeroResponse ResponseBodyT

		if !expectsData[ParamTypeT]() {
			ctx.Params = handler.Nil[ParamTypeT]()
			return next(ctx, w, r)
		}

		var params ParamTypeT
		verr := core.NewValidationError("params")
		if err := bindParams(reflect.ValueOf(&params).Elem(), r, r.URL.Query(), verr); err != nil {
			return zeroResponse, err
		}
		if len(verr.Violations) > 0 {
			return zeroResponse, verr
		}

		ctx.Params = handler.NewNullable(params)
		return next(ctx, w, r)
	}
}

// ParseBody extracts and validates JSON request body.
//
// Errors:
//   - body absent, unreadable, not valid JSON, or a field of the wrong JSON type:
//     core.MalformedBodyError
//   - validate tag failure: core.ValidationError (source "body")
//
// Context modifications: Sets ctx.Body and ctx.BodyRaw
// Use: Apply via MakeHandler(..., ParseBody, ...)
//
// Example:
//
//	type CreateUserBody struct {
//	    Name string `json:"name" validate:"required"`
//	    Age  int    `json:"age" validate:"gt=0"`
//	}
//	handler := MakeHandler(reg, info, myHandler, ParseBody, ResponseJSON)
func ParseBody[ParamTypeT any, BodyTypeT any, ResponseBodyT any](next handler.Handler[ParamTypeT, BodyTypeT, ResponseBodyT]) handler.Handler[ParamTypeT, BodyTypeT, ResponseBodyT] {
	return func(ctx handler.HandlerContext[ParamTypeT, BodyTypeT], w http.ResponseWriter, r *http.Request) (ResponseBodyT, error) {
		var zeroResponse ResponseBodyT

		var rawBody []byte
		if r.Body != nil && r.Body != http.NoBody {
			var err error
			rawBody, err = io.ReadAll(r.Body)
			if err != nil {
				return zeroResponse, core.MalformedBody(fmt.Errorf("reading body: %w", err))
			}
		}

		if len(rawBody) > 0 {
			ctx.BodyRaw = handler.NewNullable(rawBody)
		} else {
			ctx.BodyRaw = handler.Nil[[]byte]()
		}

		if !expectsData[BodyTypeT]() {
			ctx.Body = handler.Nil[BodyTypeT]()
			return next(ctx, w, r)
		}

		if len(bytes.TrimSpace(rawBody)) == 0 {
			return zeroResponse, core.MalformedBody(errBodyRequired)
		}

		var body BodyTypeT
		if err := json.NewDecoder(bytes.NewReader(rawBody)).Decode(&body); err != nil {
			return zeroResponse, core.MalformedBody(err)
		}

		if err := validateValue(body, "body"); err != nil {
			return zeroResponse, err
		}

		ctx.Body = handler.NewNullable(body)
		return next(ctx, w, r)
	}
}

// ParseHeaders captures all HTTP request headers.
//
// Context modifications: Sets ctx.Headers
// Use: Apply via MakeHandler(..., ParseHeaders, ...)
func ParseHeaders[ParamTypeT any, BodyTypeT any, ResponseBodyT any](next handler.Handler[ParamTypeT, BodyTypeT, ResponseBodyT]) handler.Handler[ParamTypeT, BodyTypeT, ResponseBodyT] {
	return func(ctx handler.HandlerContext[ParamTypeT, BodyTypeT], w http.ResponseWriter, r *http.Request) (ResponseBodyT, error) {
		ctx.Headers = handler.NewNullable(r.Header)
		return next(ctx, w, r)
	}
}

// Helper functions

// bindParams fills the param and query fields of val, descending into
// embedded structs, and collects the violations of the supplied values
func bindParams(val reflect.Value, r *http.Request, query url.Values, verr *core.ValidationError) error {
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)

		if isEmbeddedParams(fieldType) {
			if err := bindParams(field, r, query, verr); err != nil {
				return err
			}
			continue
		}

		var values []string
		var name string
		if tag := fieldType.Tag.Get("param"); tag != "" {
			name = tag
			if v := chi.URLParam(r, tag); v != "" {
				values = []string{v}
			}
		} else if tag := fieldType.Tag.Get("query"); tag != "" {
			name = tag
			values = nonEmptyValues(query[tag])
		} else {
			continue
		}

		if len(values) == 0 {
			if isRequired(fieldType) {
				return core.MissingParameter(name)
			}
			continue
		}

		if err := setField(field, values); err != nil {
			if errors.Is(err, errUnsupportedType) {
				return fmt.Errorf("parameter '%s': %w", name, err)
			}
			return core.TypeMismatch(name, strings.Join(values, ","), fieldType.Type.String(), err)
		}

		if err := validateParam(field.Interface(), fieldType, name, verr); err != nil {
			return err
		}
	}
	return nil
}

// isEmbeddedParams reports whether field is an embedded struct whose fields
// are promoted as parameters
func isEmbeddedParams(field reflect.StructField) bool {
	if !field.Anonymous || field.Type.Kind() != reflect.Struct {
		return false
	}
	if field.Tag.Get("param") != "" || field.Tag.Get("query") != "" {
		return false
	}
	tag := field.Tag.Get("json")
	return tag == "" || tag == "-"
}

// expectsData reports whether T carries data (anything but an empty struct)
func expectsData[T any]() bool {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	return typ.Kind() != reflect.Struct || typ.NumField() > 0
}

// isRequired checks if a field is marked as required in validation tags.
// Rules after dive apply to elements and are not considered.
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

func nonEmptyValues(values []string) []string {
	out := values[:0:0]
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// setField converts the raw parameter values into the field
func setField(field reflect.Value, values []string) error {
	if !field.CanSet() {
		return fmt.Errorf("%w: unexported field", errUnsupportedType)
	}

	if field.Kind() == reflect.Slice {
		slice := reflect.MakeSlice(field.Type(), len(values), len(values))
		for i, v := range values {
			if err := setScalar(slice.Index(i), v); err != nil {
				return err
			}
		}
		field.Set(slice)
		return nil
	}

	return setScalar(field, values[0])
}

// setScalar sets a single value from its string form
func setScalar(field reflect.Value, value string) error {
	switch field.Type() {
	case uuidType:
		parsed, err := uuid.Parse(value)
		if err != nil {
			return err
		}
		field.Set(reflect.ValueOf(parsed))
		return nil
	case durationType:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		field.SetInt(int64(parsed))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		intVal, err := strconv.ParseInt(value, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetInt(intVal)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		uintVal, err := strconv.ParseUint(value, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetUint(uintVal)
	case reflect.Float32, reflect.Float64:
		floatVal, err := strconv.ParseFloat(value, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetFloat(floatVal)
	case reflect.Bool:
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(boolVal)
	default:
		return fmt.Errorf("%w: %s", errUnsupportedType, field.Type())
	}

	return nil
}
