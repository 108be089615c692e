package runtime

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Row is implemented by generated row models. Fields returns pointers to the
// struct fields in column order, for use with (*sql.Rows).Scan.
type Row interface {
	Fields() []any
}

// Table describes a table or view whose rows scan into T.
type Table[T any] struct {
	ctx     *DataContext
	schema  string
	name    string
	columns []string
}

// NewTable returns a descriptor for schema.name with the given columns.
func NewTable[T any](dc *DataContext, schema, name string, columns ...string) *Table[T] {
	return &Table[T]{ctx: dc, schema: schema, name: name, columns: columns}
}

func (t *Table[T]) Schema() string { return t.schema }
func (t *Table[T]) Name() string { return t.name }

// Columns returns the column names in declaration order.
func (t *Table[T]) Columns() []string {
	return append([]string(nil), t.columns...)
}

// QualifiedName returns the quoted "schema"."name".
func (t *Table[T]) QualifiedName() string {
	return QualifiedName(t.schema, t.name)
}

// SelectSQL returns a SELECT over every column, with where appended verbatim
// when non-empty.
func (t *Table[T]) SelectSQL(where string) string {
	cols := "*"
	if len(t.columns) > 0 {
		quoted := make([]string, len(t.columns))
		for i, c := range t.columns {
			quoted[i] = pq.QuoteIdentifier(c)
		}

		cols = strings.Join(quoted, ", ")
	}

	query := "SELECT " + cols + " FROM " + t.QualifiedName()
	if where != "" {
		query += " WHERE " + where
	}

	return query
}

// Query runs SelectSQL(where) and returns the raw rows.
func (t *Table[T]) Query(ctx context.Context, where string, args ...any) (*sql.Rows, error) {
	db, err := t.ctx.DB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, t.SelectSQL(where), args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", t.QualifiedName(), err)
	}

	return rows, nil
}

// Where returns the rows matching where, scanned into T. *T must implement Row.
func (t *Table[T]) Where(ctx context.Context, where string, args ...any) ([]T, error) {
	rows, err := t.Query(ctx, where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T

	for rows.Next() {
		var row T

		r, ok := any(&row).(Row)
		if !ok {
			return nil, fmt.Errorf("runtime: %T does not implement Row", &row)
		}

		err := rows.Scan(r.Fields()...)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", t.QualifiedName(), err)
		}

		out = append(out, row)
	}

	return out, rows.Err()
}

// All returns every row.
func (t *Table[T]) All(ctx context.Context) ([]T, error) {
	return t.Where(ctx, "")
}

// Count returns the number of rows.
func (t *Table[T]) Count(ctx context.Context) (int64, error) {
	db, err := t.ctx.DB()
	if err != nil {
		return 0, err
	}

	var n int64

	err = db.QueryRowContext(ctx, "SELECT count(*) FROM "+t.QualifiedName()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting %s: %w", t.QualifiedName(), err)
	}

	return n, nil
}
