package postgres

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
)

// Relation types as reported by information_schema.tables.
const (
	relationTable = "BASE TABLE"
	relationView  = "VIEW"
)

// Routine kinds as reported by pg_proc.prokind.
const (
	kindFunction  = "f"
	kindProcedure = "p"
)

// procedureVersion is the first server_version_num with procedures.
const procedureVersion = 110000

// Relation is a table or view.
type Relation struct {
	Schema string `db:"schema"`
	Name   string `db:"name"`
	Type   string `db:"type"`
}

// Column is a column of a relation.
type Column struct {
	Schema    string `db:"schema"`
	Table     string `db:"table_name"`
	Name      string `db:"name"`
	Position  int32  `db:"position"`
	DataType  string `db:"data_type"`
	UDTSchema string `db:"udt_schema"`
	UDTName   string `db:"udt_name"`
	Nullable  bool   `db:"nullable"`
}

// KeyColumn is a column of a primary key.
type KeyColumn struct {
	Schema string `db:"schema"`
	Table  string `db:"table_name"`
	Column string `db:"column_name"`
}

// Routine is a function or procedure. ReturnSchema and ReturnUDT locate the
// return type in pg_type.
type Routine struct {
	Schema       string `db:"schema"`
	Name         string `db:"name"`
	OID          int64  `db:"oid"`
	Kind         string `db:"kind"`
	ReturnsSet   bool   `db:"returns_set"`
	ReturnType   string `db:"return_type"`
	ReturnSchema string `db:"return_schema"`
	ReturnUDT    string `db:"return_udt"`
}

// SpecificName is the name information_schema uses for the routine.
func (r Routine) SpecificName() string {
	return r.Name + "_" + strconv.FormatInt(r.OID, 10)
}

// RoutineParameter is a parameter of a routine.
type RoutineParameter struct {
	Schema       string `db:"schema"`
	SpecificName string `db:"specific_name"`
	Position     int32  `db:"position"`
	Name         string `db:"name"`
	Mode         string `db:"mode"`
	DataType     string `db:"data_type"`
	UDTSchema    string `db:"udt_schema"`
	UDTName      string `db:"udt_name"`
}

// EnumValue is one label of an enum type.
type EnumValue struct {
	Schema string `db:"schema"`
	Name   string `db:"name"`
	Label  string `db:"label"`
}

// Catalog reads schema metadata. Every method returns rows in a stable order.
type Catalog interface {
	ServerVersion(ctx context.Context) (int, error)
	Relations(ctx context.Context) ([]Relation, error)
	Columns(ctx context.Context) ([]Column, error)
	PrimaryKeys(ctx context.Context) ([]KeyColumn, error)
	Routines(ctx context.Context, serverVersion int) ([]Routine, error)
	RoutineParameters(ctx context.Context) ([]RoutineParameter, error)
	Enums(ctx context.Context) ([]EnumValue, error)
}

// querier is satisfied by *pgx.Conn, *pgxpool.Conn and *pgxpool.Pool.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewCatalog returns a Catalog reading from q.
func NewCatalog(q querier) Catalog {
	return &pgxCatalog{q: q}
}

type pgxCatalog struct {
	q querier
}

const userSchemas = `NOT IN ('pg_catalog', 'information_schema') AND %[1]s NOT LIKE 'pg\_toast%%' AND %[1]s NOT LIKE 'pg\_temp\_%%'`

func excludeSystem(column string) string {
	return column + " " + fmt.Sprintf(userSchemas, column)
}

func (c *pgxCatalog) ServerVersion(ctx context.Context) (int, error) {
	var v int

	err := c.q.QueryRow(ctx, `SELECT current_setting('server_version_num')::int`).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("reading server version: %w", err)
	}

	return v, nil
}

func (c *pgxCatalog) Relations(ctx context.Context) ([]Relation, error) {
	query := `
SELECT table_schema::text AS schema, table_name::text AS name, table_type::text AS type
FROM information_schema.tables
WHERE ` + excludeSystem("table_schema") + `
  AND table_type IN ('BASE TABLE', 'VIEW')
ORDER BY table_schema, table_name`

	return collect[Relation](ctx, c.q, "relations", query)
}

func (c *pgxCatalog) Columns(ctx context.Context) ([]Column, error) {
	query := `
SELECT c.table_schema::text AS schema, c.table_name::text AS table_name,
       c.column_name::text AS name, c.ordinal_position::int4 AS position,
       c.data_type::text AS data_type, c.udt_schema::text AS udt_schema,
       c.udt_name::text AS udt_name, (c.is_nullable = 'YES') AS nullable
FROM information_schema.columns c
WHERE ` + excludeSystem("c.table_schema") + `
ORDER BY c.table_schema, c.table_name, c.ordinal_position`

	return collect[Column](ctx, c.q, "columns", query)
}

func (c *pgxCatalog) PrimaryKeys(ctx context.Context) ([]KeyColumn, error) {
	query := `
SELECT kcu.table_schema::text AS schema, kcu.table_name::text AS table_name,
       kcu.column_name::text AS column_name
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON kcu.constraint_schema = tc.constraint_schema
 AND kcu.constraint_name = tc.constraint_name
 AND kcu.table_name = tc.table_name
WHERE tc.constraint_type = 'PRIMARY KEY'
  AND ` + excludeSystem("kcu.table_schema") + `
ORDER BY kcu.table_schema, kcu.table_name, kcu.ordinal_position`

	return collect[KeyColumn](ctx, c.q, "primary keys", query)
}

func (c *pgxCatalog) Routines(ctx context.Context, serverVersion int) ([]Routine, error) {
	kind, where := `'f'::text`, `NOT p.proisagg AND NOT p.proiswindow`
	if serverVersion >= procedureVersion {
		kind, where = `p.prokind::text`, `p.prokind IN ('f', 'p')`
	}

	query := `
SELECT n.nspname::text AS schema, p.proname::text AS name, p.oid::int8 AS oid,
       ` + kind + ` AS kind, p.proretset AS returns_set,
       format_type(p.prorettype, NULL) AS return_type,
       tn.nspname::text AS return_schema, t.typname::text AS return_udt
FROM pg_catalog.pg_proc p
JOIN pg_catalog.pg_namespace n ON n.oid = p.pronamespace
JOIN pg_catalog.pg_type t ON t.oid = p.prorettype
JOIN pg_catalog.pg_namespace tn ON tn.oid = t.typnamespace
WHERE ` + excludeSystem("n.nspname") + `
  AND ` + where + `
  AND NOT EXISTS (
    SELECT 1 FROM pg_catalog.pg_depend d
    WHERE d.classid = 'pg_catalog.pg_proc'::regclass AND d.objid = p.oid AND d.deptype = 'e'
  )
ORDER BY n.nspname, p.proname, p.oid`

	return collect[Routine](ctx, c.q, "routines", query)
}

func (c *pgxCatalog) RoutineParameters(ctx context.Context) ([]RoutineParameter, error) {
	query := `
SELECT p.specific_schema::text AS schema, p.specific_name::text AS specific_name,
       p.ordinal_position::int4 AS position, coalesce(p.parameter_name::text, '') AS name,
       coalesce(p.parameter_mode::text, 'IN') AS mode, p.data_type::text AS data_type,
       p.udt_schema::text AS udt_schema, p.udt_name::text AS udt_name
FROM information_schema.parameters p
WHERE ` + excludeSystem("p.specific_schema") + `
ORDER BY p.specific_schema, p.specific_name, p.ordinal_position`

	return collect[RoutineParameter](ctx, c.q, "routine parameters", query)
}

func (c *pgxCatalog) Enums(ctx context.Context) ([]EnumValue, error) {
	query := `
SELECT n.nspname::text AS schema, t.typname::text AS name, e.enumlabel::text AS label
FROM pg_catalog.pg_enum e
JOIN pg_catalog.pg_type t ON t.oid = e.enumtypid
JOIN pg_catalog.pg_namespace n ON n.oid = t.typnamespace
WHERE ` + excludeSystem("n.nspname") + `
ORDER BY n.nspname, t.typname, e.enumsortorder`

	return collect[EnumValue](ctx, c.q, "enums", query)
}

func collect[T any](ctx context.Context, q querier, what, query string) ([]T, error) {
	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", what, err)
	}

	out, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", what, err)
	}

	return out, nil
}
