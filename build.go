package dbctx

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
)

// discoveryProvider names the provider slot used when provider discovery itself fails.
const discoveryProvider = "discovery"

// Builder drives providers against a TypeBuilder.
type Builder struct {
	logger *zap.Logger
}

// BuildOption configures a Builder.
type BuildOption func(*Builder)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) BuildOption {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBuilder creates a Builder with the given options.
func NewBuilder(opts ...BuildOption) *Builder {
	b := &Builder{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Build runs every provider conn offers, lowest priority first, against
// target and returns the assembled explorer tree. It neither finalizes
// target nor closes conn.
func (b *Builder) Build(ctx context.Context, conn Connection, target *TypeBuilder) (*ExplorerItem, error) {
	if target.Finalized() {
		return nil, ErrAlreadyFinalized
	}

	providers, err := conn.Providers(ctx)
	if err != nil {
		return nil, &IntrospectionError{Provider: discoveryProvider, Err: err}
	}

	sort.SliceStable(providers, func(i, j int) bool {
		return providers[i].Priority() < providers[j].Priority()
	})

	items := make([]*ExplorerItem, 0, len(providers))

	for _, p := range providers {
		item, err := b.contribute(ctx, p, target)
		if err != nil {
			return nil, err
		}

		items = append(items, item)
	}

	// Associations are checked once every provider has run.
	for i, item := range items {
		for _, name := range Associations(item) {
			if !target.HasMember(name) {
				return nil, &IntrospectionError{
					Provider: providers[i].Name(),
					Priority: providers[i].Priority(),
					Err:      fmt.Errorf("%w: %q", ErrUnknownMember, name),
				}
			}
		}
	}

	return AssembleTree(target.TypeName(), items), nil
}

func (b *Builder) contribute(ctx context.Context, p Provider, target *TypeBuilder) (*ExplorerItem, error) {
	start := time.Now()
	before := len(target.members)

	item, err := p.Contribute(ctx, target.For(p.Name()))

	// A conflict wins over whatever the provider returned: it may have
	// dropped the error, or wrapped it.
	if conflict := target.Conflict(); conflict != nil {
		return nil, conflict
	}

	var conflict *ConflictError
	if errors.As(err, &conflict) {
		return nil, conflict
	}

	if err != nil {
		return nil, &IntrospectionError{Provider: p.Name(), Priority: p.Priority(), Err: err}
	}

	if item == nil {
		return nil, &IntrospectionError{Provider: p.Name(), Priority: p.Priority(), Err: ErrNoExplorerItem}
	}

	b.logger.Debug("provider contributed",
		zap.String("provider", p.Name()),
		zap.Int("priority", p.Priority()),
		zap.Int("members", len(target.members)-before),
		zap.Duration("elapsed", time.Since(start)))

	return item, nil
}

// BuildSchema builds and finalizes target. On any error no type is returned.
func (b *Builder) BuildSchema(ctx context.Context, conn Connection, target *TypeBuilder) (*FinalizedType, *ExplorerItem, error) {
	tree, err := b.Build(ctx, conn, target)
	if err != nil {
		return nil, nil, err
	}

	typ, err := target.Finalize()
	if err != nil {
		return nil, nil, err
	}

	b.logger.Info("schema built",
		zap.String("type", typ.QualifiedName()),
		zap.Int("members", len(typ.Members)),
		zap.Int("models", len(typ.Models)),
		zap.Int("categories", len(tree.Children)))

	return typ, tree, nil
}
