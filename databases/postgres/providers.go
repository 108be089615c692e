package postgres

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/rlch/dbctx"
	"github.com/rlch/dbctx/runtime"
)

// Provider names and priorities.
const (
	ProviderEnums    = "enums"
	ProviderTables   = "tables"
	ProviderViews    = "views"
	ProviderRoutines = "routines"

	PriorityEnums    = 5
	PriorityTables   = 10
	PriorityViews    = 20
	PriorityRoutines = 30
)

const defaultSchema = "public"

// skipReturns are return types of functions that cannot be called from SQL.
var skipReturns = []string{
	"trigger", "event_trigger", "internal", "language_handler", "fdw_handler",
	"index_am_handler", "tsm_handler", "table_am_handler",
}

// objectName is the Go name of a schema object: the bare name in public,
// prefixed with the schema elsewhere.
func objectName(schema, name string) string {
	if schema == defaultSchema {
		return dbctx.Identifier(name)
	}

	return dbctx.Identifier(schema, name)
}

// memberName is objectName, moved out of the way of DataContext's methods.
func memberName(schema, name string) string {
	n := objectName(schema, name)
	if slices.Contains(runtime.MethodNames, n) {
		n += "_"
	}

	return n
}

func displayName(schema, name string) string {
	if schema == defaultSchema {
		return name
	}

	return schema + "." + name
}

// bodyIdentifiers are the names routine bodies refer to: locals, builtins
// and imported packages. Parameters must not shadow them.
var bodyIdentifiers = []string{
	"ctx", "err", "result", "new", "any",
	"bool", "string", "int16", "int32", "int64", "uint32", "float32", "float64", "byte",
	"context", "sql", "json", "time", "pq", "runtime",
}

func uniqueName(used map[string]bool, name string) string {
	candidate := name
	for i := 2; used[candidate]; i++ {
		candidate = name + strconv.Itoa(i)
	}

	used[candidate] = true

	return candidate
}

// typeText renders a catalog type for display, e.g. "text[]".
func typeText(dataType, udtName string) string {
	if dataType == "ARRAY" {
		return strings.TrimPrefix(udtName, "_") + "[]"
	}

	return udtName
}

// enumResolver maps enum types to the models the enums provider registered.
func enumResolver(target dbctx.Target) func(schema, name string) (string, bool) {
	return func(schema, name string) (string, bool) {
		n := objectName(schema, name)
		return n, target.HasModel(n)
	}
}

// enumsProvider generates a string type with constants per enum.
type enumsProvider struct {
	enums  []*Enum
	filter *dbctx.Filter
}

func (p *enumsProvider) Name() string { return ProviderEnums }
func (p *enumsProvider) Priority() int { return PriorityEnums }

func (p *enumsProvider) Contribute(_ context.Context, target dbctx.Target) (*dbctx.ExplorerItem, error) {
	category := dbctx.NewCategory("Enums", dbctx.IconEnum)

	for _, e := range p.enums {
		ok, err := p.filter.Match(dbctx.ObjectInfo{Schema: e.Schema, Name: e.Name, Kind: dbctx.ObjectEnum})
		if err != nil {
			return nil, err
		}

		if !ok {
			continue
		}

		name := objectName(e.Schema, e.Name)
		used := map[string]bool{name: true}

		model := dbctx.Model{
			Name:       name,
			Doc:        fmt.Sprintf("%s is the %s enum.", name, displayName(e.Schema, e.Name)),
			Underlying: "string",
		}

		item := &dbctx.ExplorerItem{
			Text:    displayName(e.Schema, e.Name),
			Kind:    dbctx.KindObject,
			Icon:    dbctx.IconEnum,
			Tooltip: fmt.Sprintf("enum %s (%d values)", displayName(e.Schema, e.Name), len(e.Labels)),
		}

		for _, label := range e.Labels {
			model.Values = append(model.Values, dbctx.ModelValue{
				Name:  uniqueName(used, name+dbctx.Identifier(label)),
				Value: strconv.Quote(label),
			})

			item.Add(&dbctx.ExplorerItem{Text: label, Kind: dbctx.KindProperty, Icon: dbctx.IconValue})
		}

		err = target.AddModel(model)
		if err != nil {
			return nil, err
		}

		category.Add(item)
	}

	return category, nil
}

// relationProvider exposes tables or views as runtime.Table members.
type relationProvider struct {
	name      string
	priority  int
	kind      string
	category  string
	icon      dbctx.ExplorerIcon
	relations []*Table
	filter    *dbctx.Filter
}

func newTablesProvider(tables []*Table, filter *dbctx.Filter) *relationProvider {
	return &relationProvider{
		name:      ProviderTables,
		priority:  PriorityTables,
		kind:      dbctx.ObjectTable,
		category:  "Tables",
		icon:      dbctx.IconTable,
		relations: tables,
		filter:    filter,
	}
}

func newViewsProvider(views []*Table, filter *dbctx.Filter) *relationProvider {
	return &relationProvider{
		name:      ProviderViews,
		priority:  PriorityViews,
		kind:      dbctx.ObjectView,
		category:  "Views",
		icon:      dbctx.IconView,
		relations: views,
		filter:    filter,
	}
}

func (p *relationProvider) Name() string { return p.name }
func (p *relationProvider) Priority() int { return p.priority }

func (p *relationProvider) Contribute(_ context.Context, target dbctx.Target) (*dbctx.ExplorerItem, error) {
	category := dbctx.NewCategory(p.category, p.icon)
	mapper := typeMapper{enumModel: enumResolver(target)}

	for _, rel := range p.relations {
		ok, err := p.filter.Match(dbctx.ObjectInfo{Schema: rel.Schema, Name: rel.Name, Kind: p.kind})
		if err != nil {
			return nil, err
		}

		if !ok {
			continue
		}

		item, err := p.contribute(target, mapper, rel)
		if err != nil {
			return nil, err
		}

		category.Add(item)
	}

	return category, nil
}

func (p *relationProvider) contribute(target dbctx.Target, mapper typeMapper, rel *Table) (*dbctx.ExplorerItem, error) {
	member := memberName(rel.Schema, rel.Name)
	model := objectName(rel.Schema, rel.Name) + "Row"
	display := displayName(rel.Schema, rel.Name)
	recv := target.Receiver()

	// Fields is the method generated row models use for scanning.
	used := map[string]bool{"Fields": true}
	fields := make([]dbctx.Field, 0, len(rel.Columns))
	columns := make([]string, 0, len(rel.Columns))

	item := &dbctx.ExplorerItem{
		Text:    display,
		Kind:    dbctx.KindObject,
		Icon:    p.icon,
		Member:  member,
		Snippet: recv + "." + member + "()",
		Tooltip: fmt.Sprintf("%s %s (%d columns)", p.kind, display, len(rel.Columns)),
	}

	for _, col := range rel.Columns {
		t := mapper.mapType(col.DataType, col.UDTSchema, col.UDTName, col.Nullable)
		target.Import(t.Import)

		fields = append(fields, dbctx.Field{
			Name:   uniqueName(used, dbctx.Identifier(col.Name)),
			Type:   t.Expr,
			Column: col.Name,
			Scan:   t.Scan,
		})
		columns = append(columns, strconv.Quote(col.Name))

		text := col.Name + " (" + typeText(col.DataType, col.UDTName)
		if col.Nullable {
			text += ", null"
		}

		icon := dbctx.IconColumn
		if rel.IsKey(col.Name) {
			icon = dbctx.IconKey
		}

		item.Add(&dbctx.ExplorerItem{Text: text + ")", Kind: dbctx.KindProperty, Icon: icon, Tooltip: t.Expr})
	}

	err := target.AddModel(dbctx.Model{
		Name:   model,
		Doc:    fmt.Sprintf("%s is a row of %s.", model, display),
		Fields: fields,
	})
	if err != nil {
		return nil, err
	}

	args := []string{recv + ".DataContext", strconv.Quote(rel.Schema), strconv.Quote(rel.Name)}
	args = append(args, columns...)

	err = target.AddMember(dbctx.Member{
		Name:    member,
		Doc:     fmt.Sprintf("%s returns the %s %s.", member, display, p.kind),
		Results: []string{"*runtime.Table[" + model + "]"},
		Body:    fmt.Sprintf("return runtime.NewTable[%s](%s)", model, strings.Join(args, ", ")),
	})
	if err != nil {
		return nil, err
	}

	return item, nil
}

// routinesProvider exposes functions and procedures as methods.
type routinesProvider struct {
	routines   []*Function
	procedures bool
	filter     *dbctx.Filter
}

func (p *routinesProvider) Name() string { return ProviderRoutines }
func (p *routinesProvider) Priority() int { return PriorityRoutines }

func (p *routinesProvider) Contribute(_ context.Context, target dbctx.Target) (*dbctx.ExplorerItem, error) {
	category := dbctx.NewCategory("Routines", dbctx.IconRoutine)
	mapper := typeMapper{enumModel: enumResolver(target)}
	taken := make(map[string]bool)

	for _, f := range p.routines {
		kind := dbctx.ObjectFunction
		if f.IsProcedure() {
			if !p.procedures {
				continue
			}

			kind = dbctx.ObjectProcedure
		} else if slices.Contains(skipReturns, f.ReturnUDT) {
			continue
		}

		ok, err := p.filter.Match(dbctx.ObjectInfo{Schema: f.Schema, Name: f.Name, Kind: kind})
		if err != nil {
			return nil, err
		}

		if !ok {
			continue
		}

		// Overloads share a base name and are numbered in catalog order.
		name := uniqueName(taken, memberName(f.Schema, f.Name))

		member, item := routineMember(target, mapper, f, name, kind)

		err = target.AddMember(member)
		if err != nil {
			return nil, err
		}

		category.Add(item)
	}

	return category, nil
}

func routineMember(target dbctx.Target, mapper typeMapper, f *Function, name, kind string) (dbctx.Member, *dbctx.ExplorerItem) {
	recv := target.Receiver()
	display := displayName(f.Schema, f.Name)

	target.Import("context")

	params := []dbctx.Param{{Name: "ctx", Type: "context.Context"}}
	used := map[string]bool{recv: true}
	for _, n := range bodyIdentifiers {
		used[n] = true
	}
	callArgs := []string{strconv.Quote(f.Schema), strconv.Quote(f.Name)}
	signature := make([]string, 0, len(f.Params))

	item := &dbctx.ExplorerItem{
		Kind:   dbctx.KindObject,
		Icon:   dbctx.IconRoutine,
		Member: name,
	}

	for i, in := range f.Inputs() {
		raw := in.Name
		if raw == "" {
			raw = "arg" + strconv.Itoa(i+1)
		}

		argName := uniqueName(used, dbctx.LocalIdentifier(raw))
		t := mapper.mapType(in.DataType, in.UDTSchema, in.UDTName, false)

		if t.Scan == "" {
			target.Import(t.Import)
		}

		params = append(params, dbctx.Param{Name: argName, Type: t.Expr})
		callArgs = append(callArgs, argName)
	}

	for _, p := range f.Params {
		text := strings.TrimSpace(p.Name + " " + typeText(p.DataType, p.UDTName))
		if p.Mode != "IN" {
			text = p.Mode + " " + text
		}

		signature = append(signature, text)
		item.Add(&dbctx.ExplorerItem{Text: text, Kind: dbctx.KindProperty, Icon: dbctx.IconParameter})
	}

	call := strings.Join(callArgs, ", ")
	member := dbctx.Member{
		Name:   name,
		Doc:    fmt.Sprintf("%s calls the %s %s.", name, kind, display),
		Params: params,
	}

	switch {
	case f.IsProcedure():
		item.Icon = dbctx.IconProcedure
		member.Results = []string{"error"}
		member.Body = fmt.Sprintf("return %s.CallProcedure(ctx, %s)", recv, call)

	case f.ReturnsSet || f.HasOutputs() || f.ReturnUDT == "record":
		target.Import("database/sql")

		member.Results = []string{"*sql.Rows", "error"}
		member.Body = fmt.Sprintf("return %s.QueryFunction(ctx, %s)", recv, call)

	case f.ReturnUDT == "void":
		member.Results = []string{"error"}
		member.Body = fmt.Sprintf("return %s.CallFunction(ctx, new(any), %s)", recv, call)

	default:
		dataType := ""
		if strings.HasSuffix(f.ReturnType, "[]") {
			dataType = "ARRAY"
		}

		t := mapper.mapType(dataType, f.ReturnSchema, f.ReturnUDT, false)
		target.Import(t.Import)

		dest := "&result"
		if t.Scan != "" {
			dest = t.Scan + "(&result)"
		}

		member.Results = []string{t.Expr, "error"}
		member.Body = fmt.Sprintf("var result %s\nerr := %s.CallFunction(ctx, %s, %s)\nreturn result, err", t.Expr, recv, dest, call)
	}

	item.Text = display + "(" + strings.Join(signature, ", ") + ")"
	item.Tooltip = kind + " " + display
	if !f.IsProcedure() {
		item.Tooltip += " returns " + f.ReturnType
	}

	snippet := make([]string, 0, len(params))
	for _, p := range params {
		snippet = append(snippet, p.Name)
	}

	item.Snippet = recv + "." + name + "(" + strings.Join(snippet, ", ") + ")"

	return member, item
}
