package handler

// Nullable represents an optional request-scoped value in HandlerContext.
//
// Middleware populates the value; handlers that run behind that middleware
// call Value() directly. Values that may legitimately be absent are read with
// HasValue(), TryValue() or ValueOr().
type Nullable[T any] struct {
	value    T
	hasValue bool
}

// NewNullable creates a Nullable containing the given value.
func NewNullable[T any](value T) Nullable[T] {
	return Nullable[T]{value: value, hasValue: true}
}

// Nil returns an empty Nullable with no value.
func Nil[T any]() Nullable[T] {
	return Nullable[T]{}
}

// HasValue returns true if the Nullable contains a value.
func (n Nullable[T]) HasValue() bool {
	return n.hasValue
}

// Value returns the contained value.
//
// Panics if HasValue() is false: a missing value means the middleware that
// should have set it was not applied to the route.
func (n Nullable[T]) Value() T {
	if !n.hasValue {
		panic("japi-errors: attempted to access Nullable value when HasValue is false")
	}
	return n.value
}

// TryValue returns the contained value and whether it exists. It never panics.
func (n Nullable[T]) TryValue() (T, bool) {
	return n.value, n.hasValue
}

// ValueOrDefault returns the value if present, otherwise the zero value for T.
func (n Nullable[T]) ValueOrDefault() T {
	return n.value
}

// ValueOr returns the value if present, otherwise defaultValue.
func (n Nullable[T]) ValueOr(defaultValue T) T {
	if n.hasValue {
		return n.value
	}
	return defaultValue
}
