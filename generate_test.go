package dbctx_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rlch/dbctx"
)

func TestGenerate(t *testing.T) {
	t.Parallel()

	conn := &fakeConn{providers: []dbctx.Provider{
		&fakeProvider{name: "tables", priority: 10, members: []string{"Orders"}},
	}}
	cfg := &dbctx.Config{Generate: dbctx.GenerateConfig{Type: "Shop"}}

	res, err := dbctx.Generate(context.Background(), &fakeDriver{conn: conn}, cfg, dbctx.GenerateOptions{Package: "db"})
	require.NoError(t, err)

	assert.Equal(t, "db.Shop", res.Type.QualifiedName())
	assert.Equal(t, []string{"Orders"}, res.Type.MemberNames())
	assert.Equal(t, "fake database", res.Description)
	assert.Equal(t, []string{"tables"}, childTexts(res.Tree))
	assert.Equal(t, 1, conn.closed)
}

func TestGenerateTypeNameFallback(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		option string
		config string
		want   string
	}{
		{name: "option", option: "Opt", config: "Cfg", want: "Opt"},
		{name: "config", config: "Cfg", want: "Cfg"},
		{name: "default", want: dbctx.DefaultTypeName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := &dbctx.Config{Generate: dbctx.GenerateConfig{Type: tt.config}}
			res, err := dbctx.Generate(context.Background(), &fakeDriver{conn: &fakeConn{}}, cfg,
				dbctx.GenerateOptions{Package: "db", TypeName: tt.option})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Type.Name)
		})
	}
}

func TestGenerateClosesConnectionOnFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		providers []dbctx.Provider
		want      error
	}{
		{
			name:      "introspection failure",
			providers: []dbctx.Provider{&fakeProvider{name: "tables", err: errBoom}},
			want:      dbctx.ErrIntrospectionFailed,
		},
		{
			name: "conflict",
			providers: []dbctx.Provider{
				&fakeProvider{name: "tables", priority: 1, members: []string{"Orders"}},
				&fakeProvider{name: "views", priority: 2, members: []string{"Orders"}},
			},
			want: dbctx.ErrConflictingMember,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			conn := &fakeConn{providers: tt.providers}

			res, err := dbctx.Generate(context.Background(), &fakeDriver{conn: conn}, &dbctx.Config{}, dbctx.GenerateOptions{})
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, 1, conn.closed)
		})
	}
}

func TestGenerateConnectionError(t *testing.T) {
	t.Parallel()

	_, err := dbctx.Generate(context.Background(), &fakeDriver{openErr: errBoom}, &dbctx.Config{}, dbctx.GenerateOptions{})

	assert.ErrorIs(t, err, dbctx.ErrConnectionFailed)
	assert.ErrorIs(t, err, errBoom)

	var cerr *dbctx.ConnectionError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "fake", cerr.Driver)
}
