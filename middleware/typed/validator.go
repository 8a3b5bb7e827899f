// Package typed validator configuration
// This file contains the global validator instance and the conversion of its
// errors into core.ValidationError violations.
package typed

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/platform-smith-labs/japi-errors/core"
)

// Global validator instance for middleware
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report field names the way the client wrote them
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "param", "query", "csv"} {
			name := strings.Split(fld.Tag.Get(tag), ",")[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return toSnakeCase(fld.Name)
	})

	return v
}

// customMessages holds the default messages of constraints added with RegisterValidation
var customMessages sync.Map

// RegisterValidation adds a custom validate tag whose failures are reported
// with message, unless the field carries its own message tag.
// Call it during initialization, before requests are served.
//
// Example:
//
//	typed.RegisterValidation("sku", func(fl validator.FieldLevel) bool {
//	    return skuPattern.MatchString(fl.Field().String())
//	}, "must be a valid SKU")
func RegisterValidation(tag string, fn validator.Func, message string) error {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		return fmt.Errorf("registering validation %q: %w", tag, err)
	}
	customMessages.Store(tag, message)
	return nil
}

var snakeBoundary = regexp.MustCompile("([a-z0-9])([A-Z])")

// toSnakeCase converts PascalCase/camelCase to snake_case
func toSnakeCase(str string) string {
	return strings.ToLower(snakeBoundary.ReplaceAllString(str, "${1}_${2}"))
}

// validateValue validates a struct, or each struct element of a slice or array.
// It returns nil, a *core.ValidationError, or the validator's own error when
// the value cannot be validated at all.
func validateValue(value any, source string) error {
	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Struct:
		verr := core.NewValidationError(source)
		if err := collectViolations(verr, rv, ""); err != nil {
			return err
		}
		return nonEmpty(verr)
	case reflect.Slice, reflect.Array:
		verr := core.NewValidationError(source)
		for i := 0; i < rv.Len(); i++ {
			elem := rv.Index(i)
			for elem.Kind() == reflect.Ptr && !elem.IsNil() {
				elem = elem.Elem()
			}
			if elem.Kind() != reflect.Struct {
				continue
			}
			if err := collectViolations(verr, elem, fmt.Sprintf("[%d]", i)); err != nil {
				return err
			}
		}
		return nonEmpty(verr)
	default:
		return nil
	}
}

// validateParam applies the validate rules of one supplied URL parameter.
// Presence was already checked by the caller, so required is not applied
// again to the converted value.
func validateParam(value any, field reflect.StructField, name string, verr *core.ValidationError) error {
	rules := paramRules(field.Tag.Get("validate"))
	if rules == "" {
		return nil
	}

	err := validate.Var(value, rules)
	if err == nil {
		return nil
	}

	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("validating parameter '%s': %w", name, err)
	}

	for _, fe := range fieldErrors {
		message := field.Tag.Get("message")
		if message == "" {
			message = defaultMessage(fe)
		}
		verr.Add(name+fe.Namespace(), message)
	}
	return nil
}

// paramRules drops the top-level required rule from a validate tag. Rules
// after dive belong to the elements and are kept as written.
func paramRules(tag string) string {
	rules := strings.Split(tag, ",")
	kept := make([]string, 0, len(rules))
	for i, rule := range rules {
		if rule == "dive" {
			kept = append(kept, rules[i:]...)
			break
		}
		if rule != "" && rule != "required" {
			kept = append(kept, rule)
		}
	}
	return strings.Join(kept, ",")
}

func nonEmpty(verr *core.ValidationError) error {
	if len(verr.Violations) == 0 {
		return nil
	}
	return verr
}

// collectViolations validates one struct and appends its violations in the
// order the validator reports them (declaration order of the fields)
func collectViolations(verr *core.ValidationError, rv reflect.Value, prefix string) error {
	err := validate.Struct(rv.Interface())
	if err == nil {
		return nil
	}

	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("validating %s: %w", rv.Type(), err)
	}

	for _, fe := range fieldErrors {
		field := trimRoot(fe.Namespace())
		if prefix != "" {
			field = prefix + "." + field
		}
		verr.Add(field, violationMessage(rv.Type(), fe))
	}
	return nil
}

// trimRoot drops the struct name the validator puts in front of every namespace
func trimRoot(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i != -1 {
		return namespace[i+1:]
	}
	return namespace
}

// violationMessage returns the message tag of the failing field if it has one,
// otherwise the default message of the failed constraint
func violationMessage(root reflect.Type, fe validator.FieldError) string {
	if msg := messageTag(root, fe.StructNamespace()); msg != "" {
		return msg
	}
	return defaultMessage(fe)
}

// messageTag walks a struct namespace such as "Order.Items[0].Name" down to
// the field and returns its `message` tag
func messageTag(root reflect.Type, namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) < 2 {
		return ""
	}

	typ := root
	for i, part := range parts[1:] {
		indexed := false
		if bracket := strings.IndexByte(part, '['); bracket != -1 {
			part = part[:bracket]
			indexed = true
		}

		for typ.Kind() == reflect.Ptr {
			typ = typ.Elem()
		}
		if typ.Kind() != reflect.Struct {
			return ""
		}

		field, ok := typ.FieldByName(part)
		if !ok {
			return ""
		}
		if i == len(parts)-2 && !indexed {
			return field.Tag.Get("message")
		}

		typ = field.Type
		if indexed {
			for typ.Kind() == reflect.Ptr || typ.Kind() == reflect.Slice ||
				typ.Kind() == reflect.Array || typ.Kind() == reflect.Map {
				typ = typ.Elem()
			}
		}
	}
	return ""
}

// defaultMessage converts a failed constraint into its default client-facing message
func defaultMessage(fe validator.FieldError) string {
	if msg, ok := customMessages.Load(fe.Tag()); ok {
		return msg.(string)
	}

	param := fe.Param()
	sized := isSized(fe.Kind())

	switch fe.Tag() {
	case "required", "required_if", "required_unless", "required_with", "required_without":
		if fe.Kind() == reflect.String {
			return "must not be blank"
		}
		return "must not be null"
	case "gt":
		if param == "0" && !sized {
			return "must be positive"
		}
		return "must be greater than " + param
	case "gte":
		if param == "0" && !sized {
			return "must be positive or zero"
		}
		return "must be greater than or equal to " + param
	case "lt":
		if param == "0" && !sized {
			return "must be negative"
		}
		return "must be less than " + param
	case "lte":
		if param == "0" && !sized {
			return "must be negative or zero"
		}
		return "must be less than or equal to " + param
	case "min":
		if sized {
			return "size must be at least " + param
		}
		return "must be greater than or equal to " + param
	case "max":
		if sized {
			return "size must be at most " + param
		}
		return "must be less than or equal to " + param
	case "len":
		if sized {
			return "size must be " + param
		}
		return "must be equal to " + param
	case "email":
		return "must be a well-formed email address"
	case "uuid", "uuid4", "uuid_rfc4122", "uuid4_rfc4122":
		return "must be a valid UUID"
	case "url", "uri", "http_url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of [" + param + "]"
	case "eqfield":
		return "must match " + param
	case "alphanum":
		return "must contain only letters and digits"
	case "datetime":
		return "must match the format " + param
	default:
		return "is invalid"
	}
}

func isSized(kind reflect.Kind) bool {
	switch kind {
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map:
		return true
	}
	return false
}
