package runtime_test

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"strconv"
	"sync"

	"github.com/rlch/dbctx/runtime"
)

const fakeDriverName = "dbctx-runtime-fake"

func init() {
	sql.Register(fakeDriverName, fakeSQLDriver{})
}

// fixture is the canned result every query against one DSN returns, plus
// the statements that were run.
type fixture struct {
	mu      sync.Mutex
	columns []string
	rows    [][]driver.Value
	queries []string
	args    [][]driver.Value
}

func (f *fixture) record(query string, args []driver.Value) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.queries = append(f.queries, query)
	f.args = append(f.args, args)
}

func (f *fixture) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.queries...)
}

var (
	fixturesMu sync.Mutex
	fixtures   = map[string]*fixture{}
)

func newFixture(dsn string, columns []string, rows ...[]driver.Value) *fixture {
	f := &fixture{columns: columns, rows: rows}

	fixturesMu.Lock()
	fixtures[dsn] = f
	fixturesMu.Unlock()

	return f
}

type fakeSQLDriver struct{}

func (fakeSQLDriver) Open(dsn string) (driver.Conn, error) {
	fixturesMu.Lock()
	f, ok := fixtures[dsn]
	fixturesMu.Unlock()

	if !ok {
		return nil, errors.New("fake: unknown dsn " + dsn)
	}

	return &fakeConn{f: f}, nil
}

type fakeConn struct{ f *fixture }

func (c *fakeConn) Prepare(query string) (driver.Stmt, error) {
	return &fakeStmt{f: c.f, query: query}, nil
}

func (c *fakeConn) Close() error { return nil }
func (c *fakeConn) Begin() (driver.Tx, error) { return nil, errors.New("fake: no transactions") }

type fakeStmt struct {
	f     *fixture
	query string
}

func (s *fakeStmt) Close() error { return nil }
func (s *fakeStmt) NumInput() int { return -1 }

func (s *fakeStmt) Exec(args []driver.Value) (driver.Result, error) {
	s.f.record(s.query, args)
	return driver.RowsAffected(0), nil
}

func (s *fakeStmt) Query(args []driver.Value) (driver.Rows, error) {
	s.f.record(s.query, args)
	return &fakeRows{columns: s.f.columns, rows: s.f.rows}, nil
}

type fakeRows struct {
	columns []string
	rows    [][]driver.Value
	i       int
}

func (r *fakeRows) Columns() []string { return r.columns }
func (r *fakeRows) Close() error { return nil }

func (r *fakeRows) Next(dest []driver.Value) error {
	if r.i >= len(r.rows) {
		return io.EOF
	}

	copy(dest, r.rows[r.i])
	r.i++

	return nil
}

// fakeProvider opens the fake driver and uses $n placeholders.
type fakeProvider struct {
	mu      sync.Mutex
	opened  int
	openErr error
}

func (p *fakeProvider) Name() string { return "fake" }
func (p *fakeProvider) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

func (p *fakeProvider) Open(connectionString string) (*sql.DB, error) {
	p.mu.Lock()
	p.opened++
	p.mu.Unlock()

	if p.openErr != nil {
		return nil, p.openErr
	}

	return sql.Open(fakeDriverName, connectionString)
}

var _ runtime.DataProvider = (*fakeProvider)(nil)
