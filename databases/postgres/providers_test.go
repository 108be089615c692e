//nolint:testpackage
package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rlch/dbctx"
)

func build(t *testing.T, catalog Catalog, filter *dbctx.Filter) (*dbctx.FinalizedType, *dbctx.ExplorerItem, error) {
	t.Helper()

	conn := newConnection(catalog, filter, zaptest.NewLogger(t), nil)
	target := dbctx.NewTypeBuilder("db", "Shop", dbctx.DataContextBase)

	return dbctx.NewBuilder().BuildSchema(context.Background(), conn, target)
}

func texts(items []*dbctx.ExplorerItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Text
	}

	return out
}

func TestBuildShopSchema(t *testing.T) {
	t.Parallel()

	typ, tree, err := build(t, shopCatalog(), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"Orders", "SalesCustomers", "OrderTotals", "Add", "Add2", "Archive", "Recent"}, typ.MemberNames())
	assert.Equal(t, []string{
		"context",
		"database/sql",
		"encoding/json",
		"github.com/lib/pq",
		"github.com/rlch/dbctx/runtime",
		"time",
	}, typ.Imports)

	assert.Equal(t, []string{"Enums", "Tables", "Views", "Routines"}, texts(tree.Children))
	assert.Equal(t, []string{"orders", "sales.customers"}, texts(tree.Children[1].Children))
	assert.Equal(t, []string{
		"add(a int4, b int4)",
		"add(a numeric, b numeric)",
		"archive(before timestamptz)",
		"recent(int4)",
	}, texts(tree.Children[3].Children))
}

func TestEnumModel(t *testing.T) {
	t.Parallel()

	typ, _, err := build(t, shopCatalog(), nil)
	require.NoError(t, err)

	want := dbctx.Model{
		Name:       "OrderStatus",
		Doc:        "OrderStatus is the order_status enum.",
		Underlying: "string",
		Values: []dbctx.ModelValue{
			{Name: "OrderStatusPending", Value: `"pending"`},
			{Name: "OrderStatusShipped", Value: `"shipped"`},
		},
		Provider: ProviderEnums,
	}

	if diff := cmp.Diff(want, typ.Models[0]); diff != "" {
		t.Errorf("enum model mismatch (-want +got):\n%s", diff)
	}
}

func TestTableMember(t *testing.T) {
	t.Parallel()

	typ, tree, err := build(t, shopCatalog(), nil)
	require.NoError(t, err)

	orders, ok := typ.Member("Orders")
	require.True(t, ok)

	assert.Equal(t, ProviderTables, orders.Provider)
	assert.Empty(t, orders.Params)
	assert.Equal(t, []string{"*runtime.Table[OrdersRow]"}, orders.Results)
	assert.Equal(t, `return runtime.NewTable[OrdersRow](db.DataContext, "public", "orders", "id", "placed_at", "status", "tags")`, orders.Body)

	wantFields := []dbctx.Field{
		{Name: "ID", Type: "int32", Column: "id"},
		{Name: "PlacedAt", Type: "*time.Time", Column: "placed_at"},
		{Name: "Status", Type: "OrderStatus", Column: "status"},
		{Name: "Tags", Type: "[]string", Column: "tags", Scan: "pq.Array"},
	}

	if diff := cmp.Diff(wantFields, typ.Models[1].Fields); diff != "" {
		t.Errorf("row fields mismatch (-want +got):\n%s", diff)
	}

	item := dbctx.Find(tree, "orders")
	require.NotNil(t, item)
	assert.Equal(t, "Orders", item.Member)
	assert.Equal(t, "db.Orders()", item.Snippet)
	assert.Equal(t, []string{"id (int4)", "placed_at (timestamptz, null)", "status (order_status)", "tags (text[], null)"}, texts(item.Children))
	assert.Equal(t, dbctx.IconKey, item.Children[0].Icon)
	assert.Equal(t, dbctx.IconColumn, item.Children[1].Icon)

	customers, ok := typ.Member("SalesCustomers")
	require.True(t, ok)
	assert.Equal(t, []string{"*runtime.Table[SalesCustomersRow]"}, customers.Results)
}

func TestRoutineMembers(t *testing.T) {
	t.Parallel()

	typ, tree, err := build(t, shopCatalog(), nil)
	require.NoError(t, err)

	tests := []struct {
		name    string
		params  []dbctx.Param
		results []string
		body    string
	}{
		{
			name:    "Add",
			params:  []dbctx.Param{{Name: "ctx", Type: "context.Context"}, {Name: "a", Type: "int32"}, {Name: "b", Type: "int32"}},
			results: []string{"int32", "error"},
			body:    "var result int32\nerr := db.CallFunction(ctx, &result, \"public\", \"add\", a, b)\nreturn result, err",
		},
		{
			name:    "Add2",
			params:  []dbctx.Param{{Name: "ctx", Type: "context.Context"}, {Name: "a", Type: "string"}, {Name: "b", Type: "string"}},
			results: []string{"string", "error"},
			body:    "var result string\nerr := db.CallFunction(ctx, &result, \"public\", \"add\", a, b)\nreturn result, err",
		},
		{
			name:    "Archive",
			params:  []dbctx.Param{{Name: "ctx", Type: "context.Context"}, {Name: "before", Type: "time.Time"}},
			results: []string{"error"},
			body:    `return db.CallProcedure(ctx, "public", "archive", before)`,
		},
		{
			name:    "Recent",
			params:  []dbctx.Param{{Name: "ctx", Type: "context.Context"}, {Name: "arg1", Type: "int32"}},
			results: []string{"*sql.Rows", "error"},
			body:    `return db.QueryFunction(ctx, "public", "recent", arg1)`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m, ok := typ.Member(tt.name)
			require.True(t, ok)

			assert.Equal(t, ProviderRoutines, m.Provider)
			assert.Equal(t, tt.params, m.Params)
			assert.Equal(t, tt.results, m.Results)
			assert.Equal(t, tt.body, m.Body)
		})
	}

	archive := dbctx.Find(tree, "archive(before timestamptz)")
	require.NotNil(t, archive)
	assert.Equal(t, dbctx.IconProcedure, archive.Icon)
	assert.Equal(t, "db.Archive(ctx, before)", archive.Snippet)

	assert.Nil(t, dbctx.Find(tree, "audit()"))
}

func TestProceduresNeedServer11(t *testing.T) {
	t.Parallel()

	catalog := shopCatalog()
	catalog.version = 100012

	typ, _, err := build(t, catalog, nil)
	require.NoError(t, err)

	assert.NotContains(t, typ.MemberNames(), "Archive")
	assert.Contains(t, typ.MemberNames(), "Add")
}

func TestProvidersApplicability(t *testing.T) {
	t.Parallel()

	names := func(catalog *fakeCatalog) []string {
		providers, err := newConnection(catalog, nil, zaptest.NewLogger(t), nil).Providers(context.Background())
		require.NoError(t, err)

		out := make([]string, len(providers))
		for i, p := range providers {
			out[i] = p.Name()
		}

		return out
	}

	assert.Equal(t, []string{ProviderEnums, ProviderTables, ProviderViews, ProviderRoutines}, names(shopCatalog()))
	assert.Equal(t, []string{ProviderTables, ProviderViews, ProviderRoutines}, names(&fakeCatalog{version: 160000}))
}

func TestEmptyDatabase(t *testing.T) {
	t.Parallel()

	typ, tree, err := build(t, &fakeCatalog{version: 160000}, nil)
	require.NoError(t, err)

	assert.Empty(t, typ.Members)
	assert.Equal(t, []string{"Tables", "Views", "Routines"}, texts(tree.Children))

	for _, category := range tree.Children {
		assert.Empty(t, category.Children)
	}
}

func TestFilterLimitsObjects(t *testing.T) {
	t.Parallel()

	filter, err := dbctx.NewFilter(`kind != "procedure" && name != "recent"`, []string{"public"})
	require.NoError(t, err)

	typ, _, err := build(t, shopCatalog(), filter)
	require.NoError(t, err)

	assert.Equal(t, []string{"Orders", "OrderTotals", "Add", "Add2"}, typ.MemberNames())
}

func TestExcludedEnumMapsToAny(t *testing.T) {
	t.Parallel()

	filter, err := dbctx.NewFilter(`kind != "enum"`, nil)
	require.NoError(t, err)

	typ, _, err := build(t, shopCatalog(), filter)
	require.NoError(t, err)

	require.Equal(t, "OrdersRow", typ.Models[0].Name)
	assert.Equal(t, "any", typ.Models[0].Fields[2].Type)
}

func TestTableAndFunctionConflict(t *testing.T) {
	t.Parallel()

	catalog := shopCatalog()
	catalog.routines = append(catalog.routines, Routine{
		Schema: "public", Name: "orders", OID: 200, Kind: kindFunction,
		ReturnType: "bigint", ReturnSchema: "pg_catalog", ReturnUDT: "int8",
	})

	_, _, err := build(t, catalog, nil)

	var conflict *dbctx.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "Orders", conflict.Name)
	assert.Equal(t, ProviderTables, conflict.Existing)
	assert.Equal(t, ProviderRoutines, conflict.Incoming)
}

func TestReservedMemberNames(t *testing.T) {
	t.Parallel()

	catalog := &fakeCatalog{
		version:   160000,
		relations: []Relation{{Schema: "public", Name: "close", Type: relationTable}},
		columns: []Column{
			col("public", "close", "fields", "text", 1, false),
			col("public", "close", "Fields", "text", 2, false),
		},
	}

	typ, _, err := build(t, catalog, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"Close_"}, typ.MemberNames())
	assert.Equal(t, "CloseRow", typ.Models[0].Name)
	assert.Equal(t, "Fields2", typ.Models[0].Fields[0].Name)
	assert.Equal(t, "Fields3", typ.Models[0].Fields[1].Name)
}

func TestCatalogFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")

	_, _, err := build(t, &fakeCatalog{err: boom}, nil)
	assert.ErrorIs(t, err, dbctx.ErrIntrospectionFailed)
	assert.ErrorIs(t, err, boom)
}

func TestCatalogLoadedOnce(t *testing.T) {
	t.Parallel()

	catalog := shopCatalog()
	conn := newConnection(catalog, nil, zaptest.NewLogger(t), nil)

	for range 3 {
		_, err := conn.Providers(context.Background())
		require.NoError(t, err)
	}

	assert.Equal(t, 1, catalog.loads)
}

func TestRoutineParametersAvoidBodyIdentifiers(t *testing.T) {
	t.Parallel()

	typ, _, err := build(t, awkwardCatalog(), nil)
	require.NoError(t, err)

	tests := []struct {
		member string
		params []string
		body   string
	}{
		{
			member: "Score",
			params: []string{"ctx", "result2", "err2"},
			body:   "var result int32\nerr := db.CallFunction(ctx, &result, \"public\", \"score\", result2, err2)\nreturn result, err",
		},
		{
			member: "Stamp",
			params: []string{"ctx", "time2", "int322"},
			body:   "var result time.Time\nerr := db.CallFunction(ctx, &result, \"public\", \"stamp\", time2, int322)\nreturn result, err",
		},
		{
			member: "Tags",
			params: []string{"ctx", "pq2", "db2"},
			body:   "var result []string\nerr := db.CallFunction(ctx, pq.Array(&result), \"public\", \"tags\", pq2, db2)\nreturn result, err",
		},
		{
			member: "Touch",
			params: []string{"ctx", "new2", "any2"},
			body:   `return db.CallFunction(ctx, new(any), "public", "touch", new2, any2)`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.member, func(t *testing.T) {
			t.Parallel()

			m, ok := typ.Member(tt.member)
			require.True(t, ok)

			names := make([]string, len(m.Params))
			for i, p := range m.Params {
				names[i] = p.Name
			}

			assert.Equal(t, tt.params, names)
			assert.Equal(t, tt.body, m.Body)
		})
	}
}

func TestTableNamedLikeEmbeddedField(t *testing.T) {
	t.Parallel()

	typ, tree, err := build(t, awkwardCatalog(), nil)
	require.NoError(t, err)

	m, ok := typ.Member("DataContext_")
	require.True(t, ok)
	assert.Equal(t, []string{"*runtime.Table[DataContextRow]"}, m.Results)

	_, ok = typ.Member("DataContext")
	assert.False(t, ok)

	item := dbctx.Find(tree, "data_context")
	require.NotNil(t, item)
	assert.Equal(t, "DataContext_", item.Member)
}

func TestPackageLevelNameConflicts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		catalog  func() *fakeCatalog
		wantKind string
		wantName string
		existing string
		incoming string
	}{
		{
			name: "enum named like the data context",
			catalog: func() *fakeCatalog {
				return &fakeCatalog{
					version: 160000,
					enums:   []EnumValue{{Schema: "public", Name: "shop", Label: "open"}},
				}
			},
			wantKind: "model",
			wantName: "Shop",
			existing: "type Shop",
			incoming: ProviderEnums,
		},
		{
			name: "enum label producing a row model name",
			catalog: func() *fakeCatalog {
				return &fakeCatalog{
					version:   160000,
					enums:     []EnumValue{{Schema: "public", Name: "mood", Label: "row"}},
					relations: []Relation{{Schema: "public", Name: "mood", Type: relationTable}},
					columns:   []Column{col("public", "mood", "id", "int4", 1, false)},
				}
			},
			wantKind: "model",
			wantName: "MoodRow",
			existing: ProviderEnums,
			incoming: ProviderTables,
		},
		{
			name: "enum label producing the constructor name",
			catalog: func() *fakeCatalog {
				return &fakeCatalog{
					version: 160000,
					enums:   []EnumValue{{Schema: "public", Name: "new", Label: "shop"}},
				}
			},
			wantKind: "constant",
			wantName: "NewShop",
			existing: "constructor NewShop",
			incoming: ProviderEnums,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := build(t, tt.catalog(), nil)
			require.ErrorIs(t, err, dbctx.ErrConflictingMember)

			var conflict *dbctx.ConflictError
			require.True(t, errors.As(err, &conflict))
			assert.Equal(t, tt.wantKind, conflict.Kind)
			assert.Equal(t, tt.wantName, conflict.Name)
			assert.Equal(t, tt.existing, conflict.Existing)
			assert.Equal(t, tt.incoming, conflict.Incoming)
		})
	}
}
