package dbctx

import (
	"context"

	"go.uber.org/zap"
)

// GenerateOptions configures Generate.
type GenerateOptions struct {
	// Package is the package the generated type will live in.
	Package string
	// TypeName defaults to cfg.Generate.Type, then DefaultTypeName.
	TypeName string
	// Base defaults to DataContextBase.
	Base   *BaseType
	Logger *zap.Logger
}

// Result is the output of Generate.
type Result struct {
	Type *FinalizedType
	Tree *ExplorerItem
	// Description is the driver's description of the connection.
	Description string
}

// Generate opens a connection through d, builds the schema and closes the
// connection again, whether the build succeeds or not.
func Generate(ctx context.Context, d Driver, cfg *Config, opts GenerateOptions) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	typeName := firstNonEmpty(opts.TypeName, cfg.Generate.Type, DefaultTypeName)

	base := DataContextBase
	if opts.Base != nil {
		base = *opts.Base
	}

	description := d.Describe(cfg)

	conn, err := d.Open(ctx, cfg)
	if err != nil {
		return nil, &ConnectionError{Driver: d.Name(), Err: err}
	}

	defer func() {
		if err := conn.Close(); err != nil {
			logger.Warn("closing connection", zap.String("driver", d.Name()), zap.Error(err))
		}
	}()

	logger.Debug("connection opened", zap.String("driver", d.Name()), zap.String("connection", description))

	target := NewTypeBuilder(opts.Package, typeName, base)

	typ, tree, err := NewBuilder(WithLogger(logger)).BuildSchema(ctx, conn, target)
	if err != nil {
		return nil, err
	}

	return &Result{Type: typ, Tree: tree, Description: description}, nil
}
