package dbctx

import (
	"fmt"
	"slices"
	"sort"
)

// Param is a named, typed parameter of a member or constructor.
type Param struct {
	Name string `yaml:"name"`
	// Type is a Go type expression, e.g. "string" or "runtime.DataProvider".
	Type string `yaml:"type"`
}

// Member is a method exposed by the generated data context.
type Member struct {
	// Name is the exported method name. Unique within a type.
	Name string
	Doc  string

	// Params and Results form the method signature.
	Params  []Param
	Results []string

	// Body holds the Go statements implementing the member. They may refer to
	// the receiver by the name returned from Target.Receiver.
	Body string

	// Provider is the provider that registered the member.
	Provider string
}

// Field is a field of a row model.
type Field struct {
	Name string
	Type string
	// Column is the database column the field maps to.
	Column string
	// Scan, if set, wraps the field's address when scanning, e.g. "pq.Array".
	Scan string
	Doc  string
}

// ModelValue is a named constant of an enum model.
type ModelValue struct {
	Name  string
	Value string
}

// Model is a package-level type that members expose: either a row struct
// (Fields) or a named type over Underlying with constant Values.
type Model struct {
	Name       string
	Doc        string
	Fields     []Field
	Underlying string
	Values     []ModelValue

	Provider string
}

// IsEnum reports whether the model renders as a named type with constants.
func (m Model) IsEnum() bool {
	return m.Underlying != ""
}

// BaseType describes the type every generated data context embeds and the
// constructor the generated constructor forwards to.
type BaseType struct {
	// ImportPath is the package the base type lives in.
	ImportPath string
	// PackageName is the name generated code uses to refer to ImportPath.
	PackageName string
	Name        string
	Constructor string
	Params      []Param
}

// Qualified returns the base type as referenced from generated code.
func (b BaseType) Qualified() string {
	return b.PackageName + "." + b.Name
}

// RuntimeImportPath is the import path of the runtime package.
const RuntimeImportPath = "github.com/rlch/dbctx/runtime"

// DataContextBase describes runtime.DataContext, the default base type.
var DataContextBase = BaseType{
	ImportPath:  RuntimeImportPath,
	PackageName: "runtime",
	Name:        "DataContext",
	Constructor: "New",
	Params: []Param{
		{Name: "dataProvider", Type: "runtime.DataProvider"},
		{Name: "connectionString", Type: "string"},
	},
}

// constructorParams are the parameter names every base constructor must take, in order.
var constructorParams = []string{"dataProvider", "connectionString"}

// Constructor is the finalized constructor of a generated type. Its body
// passes Forward, in order, to the base constructor and does nothing else.
type Constructor struct {
	Name    string
	Params  []Param
	Forward []string
}

// FinalizedType is the immutable output of a TypeBuilder.
type FinalizedType struct {
	Package     string
	Name        string
	Base        BaseType
	Members     []Member
	Models      []Model
	Imports     []string
	Constructor Constructor
}

// QualifiedName returns "package.Name".
func (t *FinalizedType) QualifiedName() string {
	if t.Package == "" {
		return t.Name
	}

	return t.Package + "." + t.Name
}

// Member returns the member with the given name.
func (t *FinalizedType) Member(name string) (Member, bool) {
	for _, m := range t.Members {
		if m.Name == name {
			return m, true
		}
	}

	return Member{}, false
}

// Clone returns a deep copy of t.
func (t *FinalizedType) Clone() *FinalizedType {
	c := *t
	c.Base.Params = slices.Clone(t.Base.Params)
	c.Imports = slices.Clone(t.Imports)
	c.Constructor.Params = slices.Clone(t.Constructor.Params)
	c.Constructor.Forward = slices.Clone(t.Constructor.Forward)

	c.Members = slices.Clone(t.Members)
	for i := range c.Members {
		c.Members[i].Params = slices.Clone(c.Members[i].Params)
		c.Members[i].Results = slices.Clone(c.Members[i].Results)
	}

	c.Models = slices.Clone(t.Models)
	for i := range c.Models {
		c.Models[i].Fields = slices.Clone(c.Models[i].Fields)
		c.Models[i].Values = slices.Clone(c.Models[i].Values)
	}

	return &c
}

// MemberNames returns member names in registration order.
func (t *FinalizedType) MemberNames() []string {
	names := make([]string, len(t.Members))
	for i, m := range t.Members {
		names[i] = m.Name
	}

	return names
}

// DefaultReceiver is the receiver name member bodies use.
const DefaultReceiver = "db"

// TypeBuilder accumulates the members of a generated type. It is not safe
// for concurrent use; independent builds need independent builders.
type TypeBuilder struct {
	pkg  string
	name string
	base BaseType

	members     []Member
	memberIndex map[string]int
	models      []Model
	modelIndex  map[string]int
	imports     map[string]struct{}

	// names maps every package-level identifier of the rendered file (models,
	// enum constants, the type and its constructor) to its owner.
	names map[string]string

	// conflict is the first conflict seen, kept even if the caller drops the error.
	conflict  *ConflictError
	finalized *FinalizedType
}

// NewTypeBuilder starts a type named pkg.name embedding base.
func NewTypeBuilder(pkg, name string, base BaseType) *TypeBuilder {
	return &TypeBuilder{
		pkg:         pkg,
		name:        name,
		base:        base,
		memberIndex: make(map[string]int),
		modelIndex:  make(map[string]int),
		imports:     make(map[string]struct{}),
		names: map[string]string{
			name:         "type " + name,
			"New" + name: "constructor New" + name,
		},
	}
}

// TypeName returns the unqualified name of the type being built.
func (b *TypeBuilder) TypeName() string {
	return b.name
}

// Receiver returns the receiver name member bodies refer to.
func (b *TypeBuilder) Receiver() string {
	return DefaultReceiver
}

// Finalized reports whether Finalize has succeeded.
func (b *TypeBuilder) Finalized() bool {
	return b.finalized != nil
}

// HasMember reports whether a member with the given name is registered.
func (b *TypeBuilder) HasMember(name string) bool {
	_, ok := b.memberIndex[name]
	return ok
}

// HasModel reports whether a model with the given name is registered.
func (b *TypeBuilder) HasModel(name string) bool {
	_, ok := b.modelIndex[name]
	return ok
}

// AddMember registers a member.
func (b *TypeBuilder) AddMember(m Member) error {
	if b.finalized != nil {
		return ErrAlreadyFinalized
	}

	if m.Name == "" {
		return fmt.Errorf("%w: member without name from %q", ErrInvalidMember, m.Provider)
	}

	if i, ok := b.memberIndex[m.Name]; ok {
		return b.recordConflict("member", m.Name, b.members[i].Provider, m.Provider)
	}

	if m.Name == b.base.Name {
		return b.recordConflict("member", m.Name, "embedded "+b.base.Qualified(), m.Provider)
	}

	m.Params = slices.Clone(m.Params)
	m.Results = slices.Clone(m.Results)

	b.memberIndex[m.Name] = len(b.members)
	b.members = append(b.members, m)

	return nil
}

// AddModel registers a model.
func (b *TypeBuilder) AddModel(m Model) error {
	if b.finalized != nil {
		return ErrAlreadyFinalized
	}

	if m.Name == "" {
		return fmt.Errorf("%w: model without name from %q", ErrInvalidMember, m.Provider)
	}

	if owner, ok := b.names[m.Name]; ok {
		return b.recordConflict("model", m.Name, owner, m.Provider)
	}

	// Enum values render as package-level constants next to the model.
	constants := make(map[string]bool, len(m.Values))
	for _, v := range m.Values {
		if owner, ok := b.names[v.Name]; ok {
			return b.recordConflict("constant", v.Name, owner, m.Provider)
		}

		if v.Name == m.Name || constants[v.Name] {
			return b.recordConflict("constant", v.Name, m.Provider, m.Provider)
		}

		constants[v.Name] = true
	}

	m.Fields = slices.Clone(m.Fields)
	m.Values = slices.Clone(m.Values)

	b.modelIndex[m.Name] = len(b.models)
	b.models = append(b.models, m)

	b.names[m.Name] = m.Provider
	for name := range constants {
		b.names[name] = m.Provider
	}

	return nil
}

// Import records an import path generated code needs.
func (b *TypeBuilder) Import(path string) {
	if b.finalized != nil || path == "" {
		return
	}

	b.imports[path] = struct{}{}
}

// Conflict returns the first conflict recorded by AddMember or AddModel.
func (b *TypeBuilder) Conflict() *ConflictError {
	return b.conflict
}

func (b *TypeBuilder) recordConflict(kind, name, existing, incoming string) error {
	err := &ConflictError{Kind: kind, Name: name, Existing: existing, Incoming: incoming}
	if b.conflict == nil {
		b.conflict = err
	}

	return err
}

// Finalize freezes the builder and returns the finished type with a
// constructor forwarding (dataProvider, connectionString) to the base.
// It succeeds at most once. The result is the caller's copy.
func (b *TypeBuilder) Finalize() (*FinalizedType, error) {
	if b.finalized != nil {
		return nil, ErrAlreadyFinalized
	}

	if len(b.base.Params) != len(constructorParams) {
		return nil, fmt.Errorf("%w: %s has %d parameters", ErrInvalidBase, b.base.Qualified(), len(b.base.Params))
	}

	params := make([]Param, len(b.base.Params))
	forward := make([]string, len(b.base.Params))

	for i, p := range b.base.Params {
		if p.Name != constructorParams[i] {
			return nil, fmt.Errorf("%w: parameter %d of %s is %q", ErrInvalidBase, i, b.base.Qualified(), p.Name)
		}

		params[i] = p
		forward[i] = p.Name
	}

	b.Import(b.base.ImportPath)

	imports := make([]string, 0, len(b.imports))
	for path := range b.imports {
		imports = append(imports, path)
	}

	sort.Strings(imports)

	base := b.base
	base.Params = slices.Clone(b.base.Params)

	b.finalized = &FinalizedType{
		Package: b.pkg,
		Name:    b.name,
		Base:    base,
		Members: slices.Clone(b.members),
		Models:  slices.Clone(b.models),
		Imports: imports,
		Constructor: Constructor{
			Name:    "New" + b.name,
			Params:  params,
			Forward: forward,
		},
	}

	return b.finalized.Clone(), nil
}

// Type returns a copy of the finalized type, or false before Finalize.
func (b *TypeBuilder) Type() (*FinalizedType, bool) {
	if b.finalized == nil {
		return nil, false
	}

	return b.finalized.Clone(), true
}

// For returns a view of the builder that stamps provider on everything it registers.
func (b *TypeBuilder) For(provider string) Target {
	return &scopedTarget{b: b, provider: provider}
}

type scopedTarget struct {
	b        *TypeBuilder
	provider string
}

func (s *scopedTarget) AddMember(m Member) error {
	m.Provider = s.provider
	return s.b.AddMember(m)
}

func (s *scopedTarget) AddModel(m Model) error {
	m.Provider = s.provider
	return s.b.AddModel(m)
}

func (s *scopedTarget) Import(path string) { s.b.Import(path) }
func (s *scopedTarget) HasMember(name string) bool { return s.b.HasMember(name) }
func (s *scopedTarget) HasModel(name string) bool { return s.b.HasModel(name) }
func (s *scopedTarget) TypeName() string { return s.b.TypeName() }
func (s *scopedTarget) Receiver() string { return s.b.Receiver() }

// Compile-time interface checks.
var (
	_ Target = (*TypeBuilder)(nil)
	_ Target = (*scopedTarget)(nil)
)
