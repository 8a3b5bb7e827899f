package dberr

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/georgysavva/scany/v2/dbscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/platform-smith-labs/japi-errors/core"
)

func uniquePgErr() *pgconn.PgError {
	return &pgconn.PgError{
		Severity:       "ERROR",
		Code:           UniqueViolation,
		Message:        `duplicate key value violates unique constraint "users_email_key"`,
		Detail:         "Key (email)=(ada@example.com) already exists.",
		ConstraintName: "users_email_key",
	}
}

func fkPqErr() *pq.Error {
	return &pq.Error{
		Severity:   "ERROR",
		Code:       ForeignKeyViolation,
		Message:    `insert or update on table "orders" violates foreign key constraint "orders_user_id_fkey"`,
		Constraint: "orders_user_id_fkey",
	}
}

// TestRules verifies database errors translate once the rules are added
func TestRules(t *testing.T) {
	translator := core.NewTranslator(slog.New(slog.NewTextHandler(io.Discard, nil)), core.WithRules(Rules()...))

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"sql no rows", fmt.Errorf("loading user: %w", sql.ErrNoRows), http.StatusNotFound, core.ResourceNotFoundMessage},
		{"pgx no rows", pgx.ErrNoRows, http.StatusNotFound, core.ResourceNotFoundMessage},
		{"scany not found", dbscan.ErrNotFound, http.StatusNotFound, core.ResourceNotFoundMessage},
		{"pgx unique violation", fmt.Errorf("insert user: %w", uniquePgErr()), http.StatusBadRequest, "Key (email)=(ada@example.com) already exists."},
		{"pq foreign key without detail", fkPqErr(), http.StatusBadRequest, fkPqErr().Message},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			if !translator.Handle(w, httptest.NewRequest("GET", "/users/1", nil), tt.err) {
				t.Fatalf("Expected %v to be handled", tt.err)
			}
			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if w.Body.String() != tt.wantBody {
				t.Errorf("Expected body %q, got %q", tt.wantBody, w.Body.String())
			}
		})
	}
}

// TestRules_NotDefault verifies the default table ignores database errors
func TestRules_NotDefault(t *testing.T) {
	translator := core.NewTranslator(slog.New(slog.NewTextHandler(io.Discard, nil)))

	for _, err := range []error{sql.ErrNoRows, uniquePgErr()} {
		if _, _, ok := translator.Translate(err); ok {
			t.Errorf("Expected %v to be unmatched without dberr rules", err)
		}
	}
}

// TestRules_OtherSQLState verifies errors outside class 23 are left alone
func TestRules_OtherSQLState(t *testing.T) {
	translator := core.NewTranslator(nil, core.WithRules(Rules()...))

	err := &pgconn.PgError{Code: "42P01", Message: `relation "users" does not exist`}
	if _, _, ok := translator.Translate(err); ok {
		t.Error("Expected undefined-table error to be unmatched")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !IsUniqueViolation(uniquePgErr(), "email") {
		t.Error("Expected unique violation on email constraint")
	}
	if IsUniqueViolation(uniquePgErr(), "username") {
		t.Error("Expected no match for other constraint")
	}
	if IsUniqueViolation(fkPqErr(), "") {
		t.Error("Expected foreign key error not to be a unique violation")
	}
	if IsUniqueViolation(errors.New("plain"), "") {
		t.Error("Expected plain error not to be a unique violation")
	}
}

func TestIsForeignKeyViolation(t *testing.T) {
	if !IsForeignKeyViolation(fmt.Errorf("wrapped: %w", fkPqErr()), "orders_user_id") {
		t.Error("Expected foreign key violation through wrapping")
	}
	if IsForeignKeyViolation(uniquePgErr(), "") {
		t.Error("Expected unique violation not to be a foreign key violation")
	}
}
