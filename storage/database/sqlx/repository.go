// Package sqlxrepos implements the core repositories on top of jmoiron/sqlx.
// Queries are written with `?` placeholders and rebound for the driver in use (postgres or sqlite).
package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/trezcool/darasa/core"
)

const pqUniqueViolation = "23505"

// trapNoRowsErr maps the "no rows" error to the domain's not found error
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

// where accumulates AND-ed conditions and their arguments.
type where struct {
	clauses []string
	args    []interface{}
}

func (w *where) add(clause string, args ...interface{}) {
	w.clauses = append(w.clauses, "("+clause+")")
	w.args = append(w.args, args...)
}

// anyOf adds `clause` once per value, OR-ed together
func (w *where) anyOf(clause string, values ...interface{}) {
	if len(values) == 0 {
		return
	}
	parts := make([]string, 0, len(values))
	for range values {
		parts = append(parts, clause)
	}
	w.add(strings.Join(parts, " OR "), values...)
}

func (w where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

func likeArg(s string) string {
	return "%" + strings.ToLower(s) + "%"
}

// prepare expands IN (?) slices then rebinds the query for the executor's driver.
func prepare(ex core.DBExecutor, query string, args ...interface{}) (string, []interface{}, error) {
	q, args, err := sqlx.In(query, args...)
	if err != nil {
		return "", nil, errors.Wrap(err, "expanding query")
	}
	return ex.Rebind(q), args, nil
}

func get(ctx context.Context, ex core.DBExecutor, dest interface{}, query string, args ...interface{}) error {
	q, args, err := prepare(ex, query, args...)
	if err != nil {
		return err
	}
	return sqlx.GetContext(ctx, ex, dest, q, args...)
}

func selectAll(ctx context.Context, ex core.DBExecutor, dest interface{}, query string, args ...interface{}) error {
	q, args, err := prepare(ex, query, args...)
	if err != nil {
		return err
	}
	return sqlx.SelectContext(ctx, ex, dest, q, args...)
}

func exec(ctx context.Context, ex core.DBExecutor, query string, args ...interface{}) (int, error) {
	q, args, err := prepare(ex, query, args...)
	if err != nil {
		return 0, err
	}
	res, err := ex.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func exists(ctx context.Context, ex core.DBExecutor, query string, args ...interface{}) (bool, error) {
	var found int
	err := get(ctx, ex, &found, "SELECT 1 WHERE EXISTS ("+query+")", args...)
	if errors.Cause(err) == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// queryPage returns one page of `SELECT columns FROM table` along with the total count of matching rows.
func queryPage[T any](ctx context.Context, ex core.DBExecutor, columns, table string, w where, orderBy string, page core.Pagination) ([]T, int, error) {
	var count int
	if err := get(ctx, ex, &count, "SELECT COUNT(*) FROM "+table+w.String(), w.args...); err != nil {
		return nil, 0, errors.Wrapf(err, "counting %s", table)
	}

	items := make([]T, 0)
	if count == 0 {
		return items, 0, nil
	}
	args := append(append([]interface{}(nil), w.args...), page.Limit, page.Skip)
	q, args, err := prepare(ex, "SELECT "+columns+" FROM "+table+w.String()+orderBy+" LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, 0, err
	}
	if err = sqlx.SelectContext(ctx, ex, &items, q, args...); err != nil {
		return nil, 0, errors.Wrapf(err, "querying %s", table)
	}
	return items, count, nil
}
