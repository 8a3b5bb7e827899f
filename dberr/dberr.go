// Package dberr provides opt-in translator rules for errors raised by
// PostgreSQL drivers (pgx, lib/pq) and the scany row scanners.
//
// The rules are not part of the default table. Add them explicitly:
//
//	translator := core.NewTranslator(logger, core.WithRules(dberr.Rules()...))
package dberr

import (
	"errors"
	"net/http"
	"strings"

	"github.com/georgysavva/scany/v2/dbscan"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/platform-smith-labs/japi-errors/core"
)

// SQLSTATE codes of the integrity constraint violation class
const (
	ClassIntegrityConstraint = "23"
	NotNullViolation         = "23502"
	ForeignKeyViolation      = "23503"
	UniqueViolation          = "23505"
	CheckViolation           = "23514"
)

// Kinds reported by the rules of this package
const (
	KindNoRows              core.Kind = "db_no_rows"
	KindConstraintViolation core.Kind = "db_constraint_violation"
)

// ConstraintViolation is the driver-independent view of an integrity
// constraint violation
type ConstraintViolation struct {
	Code       string
	Constraint string
	Message    string
	Detail     string
}

// ClientMessage returns the detail line, or the message when the driver sent no detail
func (v ConstraintViolation) ClientMessage() string {
	if v.Detail != "" {
		return v.Detail
	}
	return v.Message
}

// Rules returns the database rules, meant for core.WithRules:
//   - no rows from database/sql, pgx or scany: 404 "The requested resource was not found"
//   - SQLSTATE class 23 from pgx or lib/pq: 400 with the driver's detail line
func Rules() []core.Rule {
	return []core.Rule{
		{Kind: KindNoRows, Match: matchNoRows},
		{Kind: KindConstraintViolation, Match: matchConstraintViolation},
	}
}

func matchNoRows(err error) (core.ErrorReport, bool) {
	if !IsNoRows(err) {
		return core.ErrorReport{}, false
	}
	return core.ErrorReport{Message: core.ResourceNotFoundMessage, Status: http.StatusNotFound}, true
}

func matchConstraintViolation(err error) (core.ErrorReport, bool) {
	v, ok := AsConstraintViolation(err)
	if !ok {
		return core.ErrorReport{}, false
	}
	msg := v.ClientMessage()
	if msg == "" {
		msg = http.StatusText(http.StatusBadRequest)
	}
	return core.ErrorReport{Message: msg, Status: http.StatusBadRequest}, true
}

// IsNoRows reports whether err means a query found no row
func IsNoRows(err error) bool {
	return sqlscan.NotFound(err) || pgxscan.NotFound(err) || dbscan.NotFound(err)
}

// AsConstraintViolation extracts an integrity constraint violation from a
// pgx or lib/pq error anywhere in err's chain
func AsConstraintViolation(err error) (ConstraintViolation, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, ClassIntegrityConstraint) {
		return ConstraintViolation{
			Code:       pgErr.Code,
			Constraint: pgErr.ConstraintName,
			Message:    pgErr.Message,
			Detail:     pgErr.Detail,
		}, true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && strings.HasPrefix(string(pqErr.Code), ClassIntegrityConstraint) {
		return ConstraintViolation{
			Code:       string(pqErr.Code),
			Constraint: pqErr.Constraint,
			Message:    pqErr.Message,
			Detail:     pqErr.Detail,
		}, true
	}

	return ConstraintViolation{}, false
}

// IsUniqueViolation checks if err is a unique constraint violation on a
// constraint whose name contains constraintName
func IsUniqueViolation(err error, constraintName string) bool {
	return isViolation(err, UniqueViolation, constraintName)
}

// IsForeignKeyViolation checks if err is a foreign key violation on a
// constraint whose name contains constraintName
func IsForeignKeyViolation(err error, constraintName string) bool {
	return isViolation(err, ForeignKeyViolation, constraintName)
}

func isViolation(err error, code, constraintName string) bool {
	v, ok := AsConstraintViolation(err)
	if !ok || v.Code != code {
		return false
	}
	return strings.Contains(v.Constraint, constraintName)
}
