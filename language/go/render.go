package golang

import (
	"fmt"
	"go/format"
	"path"
	"strconv"
	"strings"

	"github.com/rlch/dbctx"
)

// Header is the first line of every generated file.
const Header = "// Code generated by dbctx. DO NOT EDIT."

// Render returns the formatted Go source for typ in package packageName.
// source, if set, is recorded below the header.
func Render(typ *dbctx.FinalizedType, packageName, source string) ([]byte, error) {
	r := &renderer{typ: typ}

	r.line(Header)

	if source != "" {
		r.line("// Source: " + source)
	}

	r.line("")
	r.line("package " + packageName)
	r.imports()

	for _, m := range typ.Models {
		r.model(m)
	}

	r.context()

	for _, m := range typ.Members {
		r.member(m)
	}

	src, err := format.Source([]byte(r.b.String()))
	if err != nil {
		return nil, fmt.Errorf("golang: formatting %s: %w", typ.QualifiedName(), err)
	}

	return src, nil
}

type renderer struct {
	typ *dbctx.FinalizedType
	b   strings.Builder
}

func (r *renderer) line(s string) {
	r.b.WriteString(s)
	r.b.WriteByte('\n')
}

func (r *renderer) printf(format string, args ...any) {
	fmt.Fprintf(&r.b, format, args...)
}

func (r *renderer) doc(text string) {
	if text == "" {
		return
	}

	for _, l := range strings.Split(text, "\n") {
		r.line("// " + l)
	}
}

func (r *renderer) imports() {
	if len(r.typ.Imports) == 0 {
		return
	}

	r.line("")
	r.line("import (")

	for _, imp := range r.typ.Imports {
		if imp == r.typ.Base.ImportPath && path.Base(imp) != r.typ.Base.PackageName {
			r.printf("\t%s %q\n", r.typ.Base.PackageName, imp)
			continue
		}

		r.printf("\t%q\n", imp)
	}

	r.line(")")
}

func (r *renderer) model(m dbctx.Model) {
	r.line("")
	r.doc(m.Doc)

	if m.IsEnum() {
		r.printf("type %s %s\n", m.Name, m.Underlying)

		if len(m.Values) == 0 {
			return
		}

		r.line("")
		r.line("const (")

		for _, v := range m.Values {
			r.printf("\t%s %s = %s\n", v.Name, m.Name, v.Value)
		}

		r.line(")")

		return
	}

	r.printf("type %s struct {\n", m.Name)

	for _, f := range m.Fields {
		if f.Doc != "" {
			r.printf("\t// %s\n", f.Doc)
		}

		tag := ""
		if f.Column != "" && !strings.Contains(f.Column, "`") {
			tag = " `db:" + strconv.Quote(f.Column) + "`"
		}

		r.printf("\t%s %s%s\n", f.Name, f.Type, tag)
	}

	r.line("}")

	r.line("")
	r.line("// Fields returns pointers to the fields in column order.")
	r.printf("func (r *%s) Fields() []any {\n", m.Name)

	dests := make([]string, len(m.Fields))
	for i, f := range m.Fields {
		dests[i] = "&r." + f.Name
		if f.Scan != "" {
			dests[i] = f.Scan + "(" + dests[i] + ")"
		}
	}

	r.printf("\treturn []any{%s}\n", strings.Join(dests, ", "))
	r.line("}")
}

func (r *renderer) context() {
	t := r.typ
	base := t.Base

	r.line("")
	r.printf("// %s is a data context generated from the database schema.\n", t.Name)
	r.printf("type %s struct {\n\t*%s\n}\n", t.Name, base.Qualified())

	r.line("")
	r.printf("// %s returns a %s. It passes its arguments to %s.%s unchanged.\n",
		t.Constructor.Name, t.Name, base.PackageName, base.Constructor)
	r.printf("func %s(%s) *%s {\n", t.Constructor.Name, params(t.Constructor.Params), t.Name)
	r.printf("\treturn &%s{%s: %s.%s(%s)}\n", t.Name, base.Name, base.PackageName, base.Constructor,
		strings.Join(t.Constructor.Forward, ", "))
	r.line("}")
}

func (r *renderer) member(m dbctx.Member) {
	r.line("")
	r.doc(m.Doc)
	r.printf("func (%s *%s) %s(%s)%s {\n", dbctx.DefaultReceiver, r.typ.Name, m.Name, params(m.Params), results(m.Results))

	for _, l := range strings.Split(m.Body, "\n") {
		r.line("\t" + l)
	}

	r.line("}")
}

func params(ps []dbctx.Param) string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name + " " + p.Type
	}

	return strings.Join(out, ", ")
}

func results(rs []string) string {
	switch len(rs) {
	case 0:
		return ""
	case 1:
		return " " + rs[0]
	default:
		return " (" + strings.Join(rs, ", ") + ")"
	}
}
