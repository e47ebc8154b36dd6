package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// ErrorDump is the server-side view of an error; it is logged, never returned to clients.
type ErrorDump struct {
	TopMessage string   `json:"top_message"`
	Code       Code     `json:"code,omitempty"`
	Chain      []string `json:"chain,omitempty"`

	PGCode       string `json:"pg_code,omitempty"`
	PGConstraint string `json:"pg_constraint,omitempty"`
	PGTable      string `json:"pg_table,omitempty"`
	PGDetail     string `json:"pg_detail,omitempty"`
	PGMessage    string `json:"pg_message,omitempty"`
}

// pgFailure is the driver-neutral part of a Postgres error. gorm's postgres
// driver surfaces pgx errors; lib/pq appears when callers use database/sql directly.
type pgFailure struct {
	code, constraint, table, detail, message string
}

func postgresFailure(err error) (pgFailure, bool) {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgFailure{pgxErr.Code, pgxErr.ConstraintName, pgxErr.TableName, pgxErr.Detail, pgxErr.Message}, true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pgFailure{string(pqErr.Code), pqErr.Constraint, pqErr.Table, pqErr.Detail, pqErr.Message}, true
	}
	return pgFailure{}, false
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}
	d := ErrorDump{TopMessage: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}
	if pg, ok := postgresFailure(err); ok {
		d.PGCode, d.PGConstraint, d.PGTable, d.PGDetail, d.PGMessage = pg.code, pg.constraint, pg.table, pg.detail, pg.message
	}
	return d
}

// Fields flattens the dump into log fields, skipping empty Postgres attributes.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{
		"error":       d.TopMessage,
		"error_chain": d.Chain,
	}
	if d.Code != "" {
		fields["error_code"] = d.Code
	}
	for k, v := range map[string]string{
		"pg_code":       d.PGCode,
		"pg_constraint": d.PGConstraint,
		"pg_table":      d.PGTable,
		"pg_detail":     d.PGDetail,
		"pg_message":    d.PGMessage,
	} {
		if v != "" {
			fields[k] = v
		}
	}
	return fields
}

// PGCode returns the SQLSTATE carried by err, if any.
func PGCode(err error) string {
	pg, _ := postgresFailure(err)
	return pg.code
}
