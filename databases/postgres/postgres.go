// Package postgres provides the dbctx driver for PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/rlch/dbctx"
	"github.com/rlch/dbctx/runtime"
)

// ErrNoConfig is returned when the config has no postgres section.
var ErrNoConfig = errors.New("postgres: no postgres configuration")

// Import paths generated code may use.
const (
	ModulePath  = "github.com/rlch/dbctx"
	PackagePath = ModulePath + "/databases/postgres"
)

//nolint:gochecknoinits // Driver self-registration pattern
func init() {
	dbctx.RegisterDriver(dbctx.DatabasePostgres, func(logger *zap.Logger) dbctx.Driver {
		return New(logger)
	})
}

// Driver implements dbctx.Driver for PostgreSQL. Pools are shared between
// builds with the same connection string until ClearPools.
type Driver struct {
	logger *zap.Logger

	mu    sync.Mutex
	pools map[string]*pgxpool.Pool
}

// New returns a driver with no open pools.
func New(logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Driver{logger: logger, pools: make(map[string]*pgxpool.Pool)}
}

// Name returns the driver identifier.
func (d *Driver) Name() string {
	return dbctx.DatabasePostgres
}

// Describe returns the display name, else "host - database", else the
// driver title when only a URI is configured.
func (d *Driver) Describe(cfg *dbctx.Config) string {
	title := dbctx.KnownDatabases[dbctx.DatabasePostgres].Title

	pg := cfg.Postgres
	if pg == nil {
		return title
	}

	if pg.DisplayName != "" {
		return pg.DisplayName
	}

	if pg.URI == "" {
		host := pg.Host
		if host == "" {
			host = dbctx.DefaultPostgresHost
		}

		return host + " - " + pg.Database
	}

	return title
}

// ConnectionString resolves the connection string for cfg.
func (d *Driver) ConnectionString(cfg *dbctx.Config) (string, error) {
	if cfg.Postgres == nil {
		return "", ErrNoConfig
	}

	return cfg.Postgres.ConnectionString()
}

// Open acquires a pooled connection. Objects are limited by the config's
// include expression and schema list.
func (d *Driver) Open(ctx context.Context, cfg *dbctx.Config) (dbctx.Connection, error) {
	connString, err := d.ConnectionString(cfg)
	if err != nil {
		return nil, err
	}

	filter, err := dbctx.NewFilter(cfg.Generate.Include, cfg.Generate.Schemas)
	if err != nil {
		return nil, err
	}

	pool, err := d.pool(ctx, connString)
	if err != nil {
		return nil, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("postgres: acquiring connection: %w", err)
	}

	return newConnection(NewCatalog(conn), filter, d.logger, conn.Release), nil
}

func (d *Driver) pool(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if pool, ok := d.pools[connString]; ok {
		return pool, nil
	}

	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("postgres: parsing connection string: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("postgres: creating pool: %w", err)
	}

	d.pools[connString] = pool
	d.logger.Debug("pool created", zap.String("host", config.ConnConfig.Host), zap.String("database", config.ConnConfig.Database))

	return pool, nil
}

// ClearPools closes and forgets every pool.
func (d *Driver) ClearPools() {
	d.mu.Lock()
	pools := d.pools
	d.pools = make(map[string]*pgxpool.Pool)
	d.mu.Unlock()

	for _, pool := range pools {
		pool.Close()
	}

	d.logger.Debug("pools cleared", zap.Int("count", len(pools)))
}

// ConstructorParameters describes the generated constructor.
func (d *Driver) ConstructorParameters() []dbctx.ParameterDescriptor {
	return dbctx.ConstructorParameters(dbctx.DataContextBase)
}

// ConstructorArguments returns a DataProvider and the connection string.
func (d *Driver) ConstructorArguments(cfg *dbctx.Config) ([]any, error) {
	connString, err := d.ConnectionString(cfg)
	if err != nil {
		return nil, err
	}

	return []any{NewDataProvider(), connString}, nil
}

// Dependencies returns the modules generated code needs.
func (d *Driver) Dependencies() []string {
	return []string{ModulePath, "github.com/jackc/pgx/v5", importPQ}
}

// Imports returns the packages generated code may refer to.
func (d *Driver) Imports() []string {
	return []string{dbctx.RuntimeImportPath, PackagePath, importPQ, importJSON, importTime, "database/sql", "context"}
}

// Connection is an acquired connection with its catalog. The catalog is read
// once, on the first call to Providers.
type Connection struct {
	catalog Catalog
	filter  *dbctx.Filter
	logger  *zap.Logger

	schema *Schema

	release   func()
	closeOnce sync.Once
}

func newConnection(catalog Catalog, filter *dbctx.Filter, logger *zap.Logger, release func()) *Connection {
	return &Connection{catalog: catalog, filter: filter, logger: logger, release: release}
}

// Schema loads the catalog if it has not been loaded yet.
func (c *Connection) Schema(ctx context.Context) (*Schema, error) {
	if c.schema != nil {
		return c.schema, nil
	}

	s, err := LoadSchema(ctx, c.catalog)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("catalog loaded",
		zap.Int("server_version", s.ServerVersion),
		zap.Int("tables", len(s.Tables)),
		zap.Int("views", len(s.Views)),
		zap.Int("routines", len(s.Routines)),
		zap.Int("enums", len(s.Enums)),
	)

	c.schema = s

	return s, nil
}

// Providers returns the providers that apply to this database.
func (c *Connection) Providers(ctx context.Context) ([]dbctx.Provider, error) {
	s, err := c.Schema(ctx)
	if err != nil {
		return nil, err
	}

	var providers []dbctx.Provider

	if len(s.Enums) > 0 {
		providers = append(providers, &enumsProvider{enums: s.Enums, filter: c.filter})
	}

	providers = append(providers,
		newTablesProvider(s.Tables, c.filter),
		newViewsProvider(s.Views, c.filter),
		&routinesProvider{routines: s.Routines, procedures: s.SupportsProcedures(), filter: c.filter},
	)

	return providers, nil
}

// Close releases the connection back to its pool. It is safe to call twice.
func (c *Connection) Close() error {
	c.closeOnce.Do(func() {
		if c.release != nil {
			c.release()
		}
	})

	return nil
}

// DataProvider implements runtime.DataProvider over pgx's database/sql driver.
type DataProvider struct{}

// NewDataProvider returns the data provider generated contexts are built with.
func NewDataProvider() *DataProvider {
	return &DataProvider{}
}

func (*DataProvider) Name() string { return dbctx.DatabasePostgres }

// Open parses connectionString and returns a handle. No connection is made.
func (*DataProvider) Open(connectionString string) (*sql.DB, error) {
	config, err := pgx.ParseConfig(connectionString)
	if err != nil {
		return nil, fmt.Errorf("postgres: parsing connection string: %w", err)
	}

	return stdlib.OpenDB(*config), nil
}

// Placeholder returns $n.
func (*DataProvider) Placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

// Compile-time interface checks.
var (
	_ dbctx.Driver         = (*Driver)(nil)
	_ dbctx.Connection     = (*Connection)(nil)
	_ runtime.DataProvider = (*DataProvider)(nil)
)
