package dbctx_test

import (
	"context"
	"errors"

	"github.com/rlch/dbctx"
)

var errBoom = errors.New("test: boom")

// fakeProvider registers one member per name and returns a category item
// listing them.
type fakeProvider struct {
	name     string
	priority int
	members  []string
	err      error

	// swallow drops AddMember errors, like a careless provider would.
	swallow bool
	// nilItem makes Contribute return no item.
	nilItem bool
	// association overrides the member the first child points at.
	association string

	calls *[]string
}

func (p *fakeProvider) Name() string { return p.name }
func (p *fakeProvider) Priority() int { return p.priority }

func (p *fakeProvider) Contribute(_ context.Context, target dbctx.Target) (*dbctx.ExplorerItem, error) {
	if p.calls != nil {
		*p.calls = append(*p.calls, p.name)
	}

	if p.err != nil {
		return nil, p.err
	}

	category := dbctx.NewCategory(p.name, dbctx.IconTable)

	for i, name := range p.members {
		err := target.AddMember(dbctx.Member{
			Name:    name,
			Results: []string{"string"},
			Body:    "return \"" + name + "\"",
		})
		if err != nil && !p.swallow {
			return nil, err
		}

		member := name
		if i == 0 && p.association != "" {
			member = p.association
		}

		category.Add(&dbctx.ExplorerItem{
			Text:   name,
			Kind:   dbctx.KindObject,
			Icon:   dbctx.IconTable,
			Member: member,
		})
	}

	if p.nilItem {
		return nil, nil
	}

	return category, nil
}

// fakeConn hands out a fixed provider list and records Close calls.
type fakeConn struct {
	providers   []dbctx.Provider
	discoverErr error
	closed      int
}

func (c *fakeConn) Providers(context.Context) ([]dbctx.Provider, error) {
	if c.discoverErr != nil {
		return nil, c.discoverErr
	}

	return c.providers, nil
}

func (c *fakeConn) Close() error {
	c.closed++
	return nil
}

// fakeDriver opens fakeConn values.
type fakeDriver struct {
	conn    *fakeConn
	openErr error
	cleared int
}

func (d *fakeDriver) Name() string { return "fake" }
func (d *fakeDriver) Describe(*dbctx.Config) string { return "fake database" }
func (d *fakeDriver) ClearPools() { d.cleared++ }
func (d *fakeDriver) Dependencies() []string { return []string{dbctx.RuntimeImportPath} }
func (d *fakeDriver) Imports() []string { return nil }
func (d *fakeDriver) ConnectionString(*dbctx.Config) (string, error) {
	return "fake://", nil
}

func (d *fakeDriver) Open(context.Context, *dbctx.Config) (dbctx.Connection, error) {
	if d.openErr != nil {
		return nil, d.openErr
	}

	return d.conn, nil
}

func (d *fakeDriver) ConstructorParameters() []dbctx.ParameterDescriptor {
	return dbctx.ConstructorParameters(dbctx.DataContextBase)
}

func (d *fakeDriver) ConstructorArguments(*dbctx.Config) ([]any, error) {
	return []any{nil, "fake://"}, nil
}

func newTarget() *dbctx.TypeBuilder {
	return dbctx.NewTypeBuilder("db", "Shop", dbctx.DataContextBase)
}

func childTexts(item *dbctx.ExplorerItem) []string {
	texts := make([]string, len(item.Children))
	for i, child := range item.Children {
		texts[i] = child.Text
	}

	return texts
}
