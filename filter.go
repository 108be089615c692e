package dbctx

import (
	"fmt"
	"slices"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Object kinds seen by filters.
const (
	ObjectTable     = "table"
	ObjectView      = "view"
	ObjectFunction  = "function"
	ObjectProcedure = "procedure"
	ObjectEnum      = "enum"
)

// ObjectInfo is the environment an include expression is evaluated against.
type ObjectInfo struct {
	Schema string `expr:"schema"`
	Name   string `expr:"name"`
	Kind   string `expr:"kind"`
}

// Filter selects schema objects. The zero value and a nil *Filter accept everything.
type Filter struct {
	source  string
	program *vm.Program
	schemas []string
}

// NewFilter compiles an include expression over ObjectInfo, e.g.
//
//	schema == "public" && kind in ["table", "view"]
//
// and restricts matches to schemas when it is non-empty. Empty include
// accepts every object.
func NewFilter(include string, schemas []string) (*Filter, error) {
	f := &Filter{source: include, schemas: slices.Clone(schemas)}

	if include == "" {
		return f, nil
	}

	program, err := expr.Compile(include, expr.Env(ObjectInfo{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFilter, err)
	}

	f.program = program

	return f, nil
}

// Match reports whether obj is selected.
func (f *Filter) Match(obj ObjectInfo) (bool, error) {
	if f == nil {
		return true, nil
	}

	if len(f.schemas) > 0 && !slices.Contains(f.schemas, obj.Schema) {
		return false, nil
	}

	if f.program == nil {
		return true, nil
	}

	out, err := expr.Run(f.program, obj)
	if err != nil {
		return false, fmt.Errorf("evaluating %q for %s.%s: %w", f.source, obj.Schema, obj.Name, err)
	}

	ok, _ := out.(bool)

	return ok, nil
}

// String returns the include expression.
func (f *Filter) String() string {
	if f == nil {
		return ""
	}

	return f.source
}
