//nolint:testpackage
package postgres

import "context"

// fakeCatalog serves fixed rows.
type fakeCatalog struct {
	version   int
	relations []Relation
	columns   []Column
	keys      []KeyColumn
	routines  []Routine
	params    []RoutineParameter
	enums     []EnumValue

	err   error
	loads int
}

func (c *fakeCatalog) ServerVersion(context.Context) (int, error) {
	c.loads++
	return c.version, c.err
}

func (c *fakeCatalog) Relations(context.Context) ([]Relation, error) { return c.relations, nil }
func (c *fakeCatalog) Columns(context.Context) ([]Column, error) { return c.columns, nil }
func (c *fakeCatalog) PrimaryKeys(context.Context) ([]KeyColumn, error) { return c.keys, nil }
func (c *fakeCatalog) Enums(context.Context) ([]EnumValue, error) { return c.enums, nil }

func (c *fakeCatalog) RoutineParameters(context.Context) ([]RoutineParameter, error) {
	return c.params, nil
}

func (c *fakeCatalog) Routines(_ context.Context, version int) ([]Routine, error) {
	var out []Routine

	for _, r := range c.routines {
		if r.Kind == kindProcedure && version < procedureVersion {
			continue
		}

		out = append(out, r)
	}

	return out, nil
}

func col(schema, table, name, udt string, position int32, nullable bool) Column {
	dataType := "USER-DEFINED"
	if _, ok := scalarTypes[udt]; ok {
		dataType = udt
	}

	if len(udt) > 0 && udt[0] == '_' {
		dataType = "ARRAY"
	}

	return Column{
		Schema: schema, Table: table, Name: name, Position: position,
		DataType: dataType, UDTSchema: "pg_catalog", UDTName: udt, Nullable: nullable,
	}
}

// shopCatalog is a small schema with every kind of object.
func shopCatalog() *fakeCatalog {
	status := col("public", "orders", "status", "order_status", 3, false)
	status.UDTSchema = "public"

	return &fakeCatalog{
		version: 160002,
		relations: []Relation{
			{Schema: "public", Name: "orders", Type: relationTable},
			{Schema: "public", Name: "order_totals", Type: relationView},
			{Schema: "sales", Name: "customers", Type: relationTable},
		},
		columns: []Column{
			col("public", "order_totals", "total", "numeric", 1, true),
			col("public", "orders", "id", "int4", 1, false),
			col("public", "orders", "placed_at", "timestamptz", 2, true),
			status,
			col("public", "orders", "tags", "_text", 4, true),
			col("sales", "customers", "customer_id", "uuid", 1, false),
			col("sales", "customers", "profile", "jsonb", 2, true),
		},
		keys: []KeyColumn{
			{Schema: "public", Table: "orders", Column: "id"},
		},
		routines: []Routine{
			{Schema: "public", Name: "add", OID: 100, Kind: kindFunction, ReturnType: "integer", ReturnSchema: "pg_catalog", ReturnUDT: "int4"},
			{Schema: "public", Name: "add", OID: 101, Kind: kindFunction, ReturnType: "numeric", ReturnSchema: "pg_catalog", ReturnUDT: "numeric"},
			{Schema: "public", Name: "archive", OID: 102, Kind: kindProcedure, ReturnType: "void", ReturnSchema: "pg_catalog", ReturnUDT: "void"},
			{Schema: "public", Name: "audit", OID: 103, Kind: kindFunction, ReturnType: "trigger", ReturnSchema: "pg_catalog", ReturnUDT: "trigger"},
			{Schema: "public", Name: "recent", OID: 104, Kind: kindFunction, ReturnsSet: true, ReturnType: "SETOF orders", ReturnSchema: "public", ReturnUDT: "orders"},
		},
		params: []RoutineParameter{
			{Schema: "public", SpecificName: "add_100", Position: 1, Name: "a", Mode: "IN", DataType: "integer", UDTName: "int4"},
			{Schema: "public", SpecificName: "add_100", Position: 2, Name: "b", Mode: "IN", DataType: "integer", UDTName: "int4"},
			{Schema: "public", SpecificName: "add_101", Position: 1, Name: "a", Mode: "IN", DataType: "numeric", UDTName: "numeric"},
			{Schema: "public", SpecificName: "add_101", Position: 2, Name: "b", Mode: "IN", DataType: "numeric", UDTName: "numeric"},
			{Schema: "public", SpecificName: "archive_102", Position: 1, Name: "before", Mode: "IN", DataType: "timestamp with time zone", UDTName: "timestamptz"},
			{Schema: "public", SpecificName: "recent_104", Position: 1, Name: "", Mode: "IN", DataType: "integer", UDTName: "int4"},
		},
		enums: []EnumValue{
			{Schema: "public", Name: "order_status", Label: "pending"},
			{Schema: "public", Name: "order_status", Label: "shipped"},
		},
	}
}

// awkwardCatalog names objects and parameters after identifiers generated
// code already uses.
func awkwardCatalog() *fakeCatalog {
	return &fakeCatalog{
		version: 160002,
		relations: []Relation{
			{Schema: "public", Name: "data_context", Type: relationTable},
		},
		columns: []Column{
			col("public", "data_context", "id", "int4", 1, false),
			col("public", "data_context", "time", "timestamptz", 2, true),
		},
		routines: []Routine{
			{Schema: "public", Name: "score", OID: 300, Kind: kindFunction, ReturnType: "integer", ReturnSchema: "pg_catalog", ReturnUDT: "int4"},
			{Schema: "public", Name: "stamp", OID: 301, Kind: kindFunction, ReturnType: "timestamp with time zone", ReturnSchema: "pg_catalog", ReturnUDT: "timestamptz"},
			{Schema: "public", Name: "tags", OID: 302, Kind: kindFunction, ReturnType: "text[]", ReturnSchema: "pg_catalog", ReturnUDT: "_text"},
			{Schema: "public", Name: "touch", OID: 303, Kind: kindFunction, ReturnType: "void", ReturnSchema: "pg_catalog", ReturnUDT: "void"},
		},
		params: []RoutineParameter{
			{Schema: "public", SpecificName: "score_300", Position: 1, Name: "result", Mode: "IN", DataType: "integer", UDTName: "int4"},
			{Schema: "public", SpecificName: "score_300", Position: 2, Name: "err", Mode: "IN", DataType: "integer", UDTName: "int4"},
			{Schema: "public", SpecificName: "stamp_301", Position: 1, Name: "time", Mode: "IN", DataType: "integer", UDTName: "int4"},
			{Schema: "public", SpecificName: "stamp_301", Position: 2, Name: "int32", Mode: "IN", DataType: "integer", UDTName: "int4"},
			{Schema: "public", SpecificName: "tags_302", Position: 1, Name: "pq", Mode: "IN", DataType: "text", UDTName: "text"},
			{Schema: "public", SpecificName: "tags_302", Position: 2, Name: "db", Mode: "IN", DataType: "text", UDTName: "text"},
			{Schema: "public", SpecificName: "touch_303", Position: 1, Name: "new", Mode: "IN", DataType: "boolean", UDTName: "bool"},
			{Schema: "public", SpecificName: "touch_303", Position: 2, Name: "any", Mode: "IN", DataType: "boolean", UDTName: "bool"},
		},
	}
}
