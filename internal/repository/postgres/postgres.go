// Package postgres implements the repositories on PostgreSQL with pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/AkshatJain-webdev/Natours/internal/query"
	"github.com/AkshatJain-webdev/Natours/pkg/database"
	apperrors "github.com/AkshatJain-webdev/Natours/pkg/errors"
)

// errNoDocument is returned by every lookup that matches nothing.
var errNoDocument = apperrors.NoDocument("document")

// translate maps pgx errors onto application errors. resource names the
// entity in reference errors.
func translate(err error, resource, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return errNoDocument
	}
	if value, ok := database.IsUniqueViolation(err); ok {
		return apperrors.Duplicate(value)
	}
	if database.IsForeignKeyViolation(err) {
		return apperrors.InvalidInput(fmt.Sprintf("Invalid reference on %s", resource))
	}
	return fmt.Errorf("%s: %w", op, err)
}

// selectStatement assembles a SELECT from its rendered parts. Empty parts
// are dropped.
func selectStatement(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n")
}

// count runs SELECT COUNT(*) over from with the filters of q. Pagination
// and ordering are ignored.
func count(ctx context.Context, db database.DBTX, op, from string, q *query.Query) (n int, err error) {
	where, args := q.Where(0)
	stmt := selectStatement("SELECT COUNT(*)", from, where)

	ctx, end := database.TraceQuery(ctx, op, stmt)
	defer func() { end(err) }()

	if err = db.QueryRow(ctx, stmt, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// execAffecting runs stmt and reports NotFound when no row was touched.
func execAffecting(ctx context.Context, db database.DBTX, op, resource, stmt string, args ...any) (err error) {
	ctx, end := database.TraceQuery(ctx, op, stmt)
	defer func() { end(err) }()

	ct, err := db.Exec(ctx, stmt, args...)
	if err != nil {
		return translate(err, resource, op)
	}
	if ct.RowsAffected() == 0 {
		return errNoDocument
	}
	return nil
}
