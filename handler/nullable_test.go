package handler

import (
	"testing"

	"github.com/google/uuid"
)

// TestNullable verifies the optional value accessors
func TestNullable(t *testing.T) {
	t.Run("value present", func(t *testing.T) {
		id := uuid.New()
		n := NewNullable(id)

		if !n.HasValue() {
			t.Error("Expected HasValue() to be true")
		}
		if n.Value() != id {
			t.Errorf("Expected UUID %s, got %s", id, n.Value())
		}
		if v, ok := n.TryValue(); !ok || v != id {
			t.Error("Expected TryValue to return the value")
		}
		if n.ValueOr(uuid.Nil) != id {
			t.Error("Expected ValueOr to ignore the default")
		}
	})

	t.Run("value absent", func(t *testing.T) {
		n := Nil[int]()

		if n.HasValue() {
			t.Error("Expected HasValue() to be false")
		}
		if _, ok := n.TryValue(); ok {
			t.Error("Expected TryValue ok to be false")
		}
		if n.ValueOrDefault() != 0 {
			t.Errorf("Expected zero default, got %d", n.ValueOrDefault())
		}
		if n.ValueOr(10) != 10 {
			t.Errorf("Expected 10, got %d", n.ValueOr(10))
		}
	})

	t.Run("Value panics when absent", func(t *testing.T) {
		defer func() {
			r := recover()
			if r == nil {
				t.Fatal("Expected Value() to panic on empty Nullable")
			}
			expected := "japi-errors: attempted to access Nullable value when HasValue is false"
			if msg, _ := r.(string); msg != expected {
				t.Errorf("Expected panic message %q, got %v", expected, r)
			}
		}()

		_ = Nil[string]().Value()
	})
}
