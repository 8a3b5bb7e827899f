package typed

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/platform-smith-labs/japi-errors/core"
	"github.com/platform-smith-labs/japi-errors/handler"
)

type contactRow struct {
	Name  string `csv:"name" validate:"required"`
	Email string `csv:"email" validate:"required,email"`
}

type settingsFile struct {
	Theme string `json:"theme" validate:"oneof=light dark"`
}

func multipartRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	part.Write([]byte(content))
	mw.Close()

	req := httptest.NewRequest("POST", "/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func importContacts(ctx handler.HandlerContext[struct{}, []contactRow], w http.ResponseWriter, r *http.Request) (int, error) {
	return len(ctx.Body.Value()), nil
}

// TestParseCSV verifies CSV uploads map to the right error kinds
func TestParseCSV(t *testing.T) {
	h := ParseCSV(importContacts)

	t.Run("valid rows", func(t *testing.T) {
		req := multipartRequest(t, "contacts.csv", "name,email\nada,ada@example.com\nalan,alan@example.com\n")
		n, err := h(handler.HandlerContext[struct{}, []contactRow]{Context: req.Context()}, httptest.NewRecorder(), req)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if n != 2 {
			t.Errorf("Expected 2 rows, got %d", n)
		}
	})

	t.Run("row violations carry the row index", func(t *testing.T) {
		req := multipartRequest(t, "contacts.csv", "name,email\nada,ada@example.com\n,not-an-email\n")
		_, err := h(handler.HandlerContext[struct{}, []contactRow]{Context: req.Context()}, httptest.NewRecorder(), req)

		verr, ok := err.(*core.ValidationError)
		if !ok {
			t.Fatalf("Expected *core.ValidationError, got %T: %v", err, err)
		}
		if len(verr.Violations) != 2 {
			t.Fatalf("Expected 2 violations, got %v", verr.Violations)
		}
		if verr.Violations[0].Field != "[1].name" || verr.Violations[0].Message != "must not be blank" {
			t.Errorf("Unexpected first violation: %+v", verr.Violations[0])
		}
		if verr.Violations[1].Message != "must be a well-formed email address" {
			t.Errorf("Unexpected second violation: %+v", verr.Violations[1])
		}
	})

	t.Run("header only is malformed", func(t *testing.T) {
		req := multipartRequest(t, "contacts.csv", "name,email\n")
		_, err := h(handler.HandlerContext[struct{}, []contactRow]{Context: req.Context()}, httptest.NewRecorder(), req)
		if _, ok := err.(*core.MalformedBodyError); !ok {
			t.Errorf("Expected *core.MalformedBodyError, got %T", err)
		}
	})

	t.Run("wrong extension is an illegal argument", func(t *testing.T) {
		req := multipartRequest(t, "contacts.txt", "name,email\n")
		_, err := h(handler.HandlerContext[struct{}, []contactRow]{Context: req.Context()}, httptest.NewRecorder(), req)
		iae, ok := err.(*core.IllegalArgumentError)
		if !ok {
			t.Fatalf("Expected *core.IllegalArgumentError, got %T", err)
		}
		if iae.Message != "File must be a .csv file" {
			t.Errorf("Unexpected message %q", iae.Message)
		}
	})

	t.Run("missing file field is malformed", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/import", nil)
		_, err := h(handler.HandlerContext[struct{}, []contactRow]{Context: req.Context()}, httptest.NewRecorder(), req)
		if _, ok := err.(*core.MalformedBodyError); !ok {
			t.Errorf("Expected *core.MalformedBodyError, got %T", err)
		}
	})
}

// TestParseJSON verifies JSON file uploads
func TestParseJSON(t *testing.T) {
	h := ParseJSON(func(ctx handler.HandlerContext[struct{}, settingsFile], w http.ResponseWriter, r *http.Request) (string, error) {
		return ctx.Body.Value().Theme, nil
	})

	t.Run("valid document", func(t *testing.T) {
		req := multipartRequest(t, "settings.json", `{"theme":"dark"}`)
		theme, err := h(handler.HandlerContext[struct{}, settingsFile]{Context: req.Context()}, httptest.NewRecorder(), req)
		if err != nil || theme != "dark" {
			t.Errorf("Expected (dark, nil), got (%q, %v)", theme, err)
		}
	})

	t.Run("constraint failure", func(t *testing.T) {
		req := multipartRequest(t, "settings.json", `{"theme":"neon"}`)
		_, err := h(handler.HandlerContext[struct{}, settingsFile]{Context: req.Context()}, httptest.NewRecorder(), req)
		verr, ok := err.(*core.ValidationError)
		if !ok {
			t.Fatalf("Expected *core.ValidationError, got %T", err)
		}
		if msgs := verr.Messages(); len(msgs) != 1 || msgs[0] != "must be one of [light dark]" {
			t.Errorf("Unexpected messages %v", msgs)
		}
	})

	t.Run("broken document", func(t *testing.T) {
		req := multipartRequest(t, "settings.json", `{"theme":`)
		_, err := h(handler.HandlerContext[struct{}, settingsFile]{Context: req.Context()}, httptest.NewRecorder(), req)
		if _, ok := err.(*core.MalformedBodyError); !ok {
			t.Errorf("Expected *core.MalformedBodyError, got %T", err)
		}
	})
}
