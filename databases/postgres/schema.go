package postgres

import (
	"context"
	"fmt"
)

// Table is a relation with its columns.
type Table struct {
	Relation
	Columns    []Column
	PrimaryKey []string
}

// IsKey reports whether column is part of the primary key.
func (t *Table) IsKey(column string) bool {
	for _, k := range t.PrimaryKey {
		if k == column {
			return true
		}
	}

	return false
}

// Function is a routine with its parameters.
type Function struct {
	Routine
	Params []RoutineParameter
}

// IsProcedure reports whether the routine is a procedure.
func (f *Function) IsProcedure() bool {
	return f.Kind == kindProcedure
}

// Inputs returns the parameters a caller passes.
func (f *Function) Inputs() []RoutineParameter {
	var in []RoutineParameter

	for _, p := range f.Params {
		if p.Mode != "OUT" {
			in = append(in, p)
		}
	}

	return in
}

// HasOutputs reports whether the routine declares OUT or INOUT parameters.
func (f *Function) HasOutputs() bool {
	for _, p := range f.Params {
		if p.Mode == "OUT" || p.Mode == "INOUT" {
			return true
		}
	}

	return false
}

// Enum is an enum type with its labels in sort order.
type Enum struct {
	Schema string
	Name   string
	Labels []string
}

// Schema is everything a build needs from the catalog.
type Schema struct {
	ServerVersion int
	Tables        []*Table
	Views         []*Table
	Routines      []*Function
	Enums         []*Enum
}

// SupportsProcedures reports whether the server has CREATE PROCEDURE.
func (s *Schema) SupportsProcedures() bool {
	return s.ServerVersion >= procedureVersion
}

// LoadSchema reads the catalog once and groups its rows.
func LoadSchema(ctx context.Context, c Catalog) (*Schema, error) {
	version, err := c.ServerVersion(ctx)
	if err != nil {
		return nil, err
	}

	relations, err := c.Relations(ctx)
	if err != nil {
		return nil, err
	}

	columns, err := c.Columns(ctx)
	if err != nil {
		return nil, err
	}

	keys, err := c.PrimaryKeys(ctx)
	if err != nil {
		return nil, err
	}

	routines, err := c.Routines(ctx, version)
	if err != nil {
		return nil, err
	}

	params, err := c.RoutineParameters(ctx)
	if err != nil {
		return nil, err
	}

	enums, err := c.Enums(ctx)
	if err != nil {
		return nil, err
	}

	s := &Schema{ServerVersion: version}

	byName := make(map[string]*Table, len(relations))

	for _, r := range relations {
		t := &Table{Relation: r}
		byName[qualify(r.Schema, r.Name)] = t

		switch r.Type {
		case relationTable:
			s.Tables = append(s.Tables, t)
		case relationView:
			s.Views = append(s.Views, t)
		}
	}

	for _, col := range columns {
		if t, ok := byName[qualify(col.Schema, col.Table)]; ok {
			t.Columns = append(t.Columns, col)
		}
	}

	for _, k := range keys {
		if t, ok := byName[qualify(k.Schema, k.Table)]; ok {
			t.PrimaryKey = append(t.PrimaryKey, k.Column)
		}
	}

	bySpecific := make(map[string]*Function, len(routines))

	for _, r := range routines {
		if r.Kind == kindProcedure && version < procedureVersion {
			continue
		}

		f := &Function{Routine: r}
		bySpecific[qualify(r.Schema, r.SpecificName())] = f
		s.Routines = append(s.Routines, f)
	}

	for _, p := range params {
		if f, ok := bySpecific[qualify(p.Schema, p.SpecificName)]; ok {
			f.Params = append(f.Params, p)
		}
	}

	var last *Enum

	for _, e := range enums {
		if last == nil || last.Schema != e.Schema || last.Name != e.Name {
			last = &Enum{Schema: e.Schema, Name: e.Name}
			s.Enums = append(s.Enums, last)
		}

		last.Labels = append(last.Labels, e.Label)
	}

	return s, nil
}

func qualify(schema, name string) string {
	return fmt.Sprintf("%s.%s", schema, name)
}
