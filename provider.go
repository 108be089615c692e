package dbctx

import "context"

// Provider introspects one category of schema object. It registers members
// and models on a Target and describes what it found as an explorer subtree.
type Provider interface {
	// Name identifies the provider in diagnostics and conflict reports.
	Name() string

	// Priority orders providers; lower runs first.
	Priority() int

	// Contribute registers members on target and returns the provider's
	// explorer subtree.
	Contribute(ctx context.Context, target Target) (*ExplorerItem, error)
}

// Target is the view of a TypeBuilder handed to providers.
type Target interface {
	AddMember(m Member) error
	AddModel(m Model) error
	Import(path string)
	HasMember(name string) bool
	HasModel(name string) bool
	TypeName() string
	Receiver() string
}

// Connection is an open database handle that knows which providers apply to it.
type Connection interface {
	// Providers returns fresh provider instances for one build, in discovery order.
	Providers(ctx context.Context) ([]Provider, error)

	// Close releases the connection.
	Close() error
}
