package postgres

import "strings"

// goType is the Go rendering of a database type.
type goType struct {
	// Expr is the Go type expression.
	Expr string
	// Import is a package Expr refers to, if any.
	Import string
	// Scan wraps the destination when scanning, e.g. "pq.Array".
	Scan string
}

const (
	importTime = "time"
	importJSON = "encoding/json"
	importPQ   = "github.com/lib/pq"
)

var scalarTypes = map[string]goType{
	"bool":        {Expr: "bool"},
	"int2":        {Expr: "int16"},
	"int4":        {Expr: "int32"},
	"int8":        {Expr: "int64"},
	"oid":         {Expr: "uint32"},
	"float4":      {Expr: "float32"},
	"float8":      {Expr: "float64"},
	"numeric":     {Expr: "string"},
	"money":       {Expr: "string"},
	"text":        {Expr: "string"},
	"varchar":     {Expr: "string"},
	"bpchar":      {Expr: "string"},
	"char":        {Expr: "string"},
	"name":        {Expr: "string"},
	"citext":      {Expr: "string"},
	"xml":         {Expr: "string"},
	"uuid":        {Expr: "string"},
	"inet":        {Expr: "string"},
	"cidr":        {Expr: "string"},
	"macaddr":     {Expr: "string"},
	"macaddr8":    {Expr: "string"},
	"time":        {Expr: "string"},
	"timetz":      {Expr: "string"},
	"interval":    {Expr: "string"},
	"bit":         {Expr: "string"},
	"varbit":      {Expr: "string"},
	"tsvector":    {Expr: "string"},
	"tsquery":     {Expr: "string"},
	"bytea":       {Expr: "[]byte"},
	"date":        {Expr: "time.Time", Import: importTime},
	"timestamp":   {Expr: "time.Time", Import: importTime},
	"timestamptz": {Expr: "time.Time", Import: importTime},
	"json":        {Expr: "json.RawMessage", Import: importJSON},
	"jsonb":       {Expr: "json.RawMessage", Import: importJSON},
}

// arrayTypes are the element types pq.Array scans natively.
var arrayTypes = map[string]string{
	"bool":   "[]bool",
	"int2":   "[]int32",
	"int4":   "[]int32",
	"int8":   "[]int64",
	"float4": "[]float32",
	"float8": "[]float64",
	"bytea":  "[][]byte",
}

// typeMapper maps column and parameter types to Go. enumModel resolves
// enum types that were generated as models.
type typeMapper struct {
	enumModel func(schema, name string) (string, bool)
}

func (m typeMapper) mapType(dataType, udtSchema, udtName string, nullable bool) goType {
	if dataType == "ARRAY" {
		elem := strings.TrimPrefix(udtName, "_")

		expr, ok := arrayTypes[elem]
		if !ok {
			expr = "[]string"
		}

		return goType{Expr: expr, Import: importPQ, Scan: "pq.Array"}
	}

	t, ok := scalarTypes[udtName]
	if !ok && m.enumModel != nil {
		if name, found := m.enumModel(udtSchema, udtName); found {
			t, ok = goType{Expr: name}, true
		}
	}

	if !ok {
		return goType{Expr: "any"}
	}

	if nullable && nullableByPointer(t.Expr) {
		t.Expr = "*" + t.Expr
	}

	return t
}

// nullableByPointer reports whether NULL needs a pointer; slices and any
// already have a nil value.
func nullableByPointer(expr string) bool {
	return expr != "any" && !strings.HasPrefix(expr, "[]") && expr != "json.RawMessage"
}
