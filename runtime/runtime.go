// Package runtime is the support library generated data contexts build on.
//
// A generated type embeds *DataContext and is created through a constructor
// that forwards its (dataProvider, connectionString) arguments to New.
package runtime

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/lib/pq"
)

// ErrNoDataProvider is returned when a DataContext has no data provider.
var ErrNoDataProvider = errors.New("runtime: no data provider")

// DataProvider opens database handles for one kind of database.
type DataProvider interface {
	// Name identifies the database, e.g. "postgres".
	Name() string

	// Open returns a handle for connectionString. It must not block on
	// network I/O; connections are established on first use.
	Open(connectionString string) (*sql.DB, error)

	// Placeholder returns the bind parameter marker for the n-th argument,
	// counting from 1.
	Placeholder(n int) string
}

// DataContext is the base of every generated data context.
type DataContext struct {
	dataProvider     DataProvider
	connectionString string

	once sync.Once
	db   *sql.DB
	err  error
}

// New returns a DataContext for connectionString. No connection is opened
// until the first query.
func New(dataProvider DataProvider, connectionString string) *DataContext {
	return &DataContext{dataProvider: dataProvider, connectionString: connectionString}
}

// DataProvider returns the provider passed to New.
func (c *DataContext) DataProvider() DataProvider { return c.dataProvider }

// ConnectionString returns the connection string passed to New.
func (c *DataContext) ConnectionString() string { return c.connectionString }

// DB returns the underlying handle, opening it on first use.
func (c *DataContext) DB() (*sql.DB, error) {
	c.once.Do(func() {
		if c.dataProvider == nil {
			c.err = ErrNoDataProvider
			return
		}

		c.db, c.err = c.dataProvider.Open(c.connectionString)
		if c.err != nil {
			c.err = fmt.Errorf("runtime: opening %s database: %w", c.dataProvider.Name(), c.err)
		}
	})

	return c.db, c.err
}

// Close closes the handle if it was opened.
func (c *DataContext) Close() error {
	if c.db == nil {
		return nil
	}

	return c.db.Close()
}

// CallFunction calls a scalar function and scans its result into dest.
func (c *DataContext) CallFunction(ctx context.Context, dest any, schema, name string, args ...any) error {
	db, err := c.DB()
	if err != nil {
		return err
	}

	query := "SELECT " + c.callExpr(schema, name, len(args))

	err = db.QueryRowContext(ctx, query, args...).Scan(dest)
	if err != nil {
		return fmt.Errorf("calling %s: %w", QualifiedName(schema, name), err)
	}

	return nil
}

// QueryFunction calls a set-returning function. The caller closes the rows.
func (c *DataContext) QueryFunction(ctx context.Context, schema, name string, args ...any) (*sql.Rows, error) {
	db, err := c.DB()
	if err != nil {
		return nil, err
	}

	query := "SELECT * FROM " + c.callExpr(schema, name, len(args))

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", QualifiedName(schema, name), err)
	}

	return rows, nil
}

// CallProcedure invokes a stored procedure.
func (c *DataContext) CallProcedure(ctx context.Context, schema, name string, args ...any) error {
	db, err := c.DB()
	if err != nil {
		return err
	}

	query := "CALL " + c.callExpr(schema, name, len(args))

	_, err = db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("calling %s: %w", QualifiedName(schema, name), err)
	}

	return nil
}

func (c *DataContext) callExpr(schema, name string, n int) string {
	return QualifiedName(schema, name) + "(" + c.placeholders(1, n) + ")"
}

func (c *DataContext) placeholders(from, n int) string {
	marks := make([]string, n)
	for i := range marks {
		if c.dataProvider != nil {
			marks[i] = c.dataProvider.Placeholder(from + i)
		} else {
			marks[i] = "?"
		}
	}

	return strings.Join(marks, ", ")
}

// QualifiedName quotes and joins schema and name. An empty schema is omitted.
func QualifiedName(schema, name string) string {
	if schema == "" {
		return pq.QuoteIdentifier(name)
	}

	return pq.QuoteIdentifier(schema) + "." + pq.QuoteIdentifier(name)
}

// MethodNames lists the methods DataContext contributes to generated types,
// plus the embedded field's own name. Generated members must not reuse them.
var MethodNames = []string{
	"CallFunction",
	"CallProcedure",
	"Close",
	"ConnectionString",
	"DB",
	"DataContext",
	"DataProvider",
	"QueryFunction",
}
