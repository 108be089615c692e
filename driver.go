package dbctx

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// ParameterDescriptor describes one parameter of the generated constructor
// for hosts that instantiate the generated type.
type ParameterDescriptor struct {
	Name string
	// Type is the Go type the argument must satisfy.
	Type string
}

// Driver is the boundary between a host and a database: it opens
// connections and describes how to instantiate generated types.
type Driver interface {
	// Name returns the driver identifier (e.g., "postgres").
	Name() string

	// Describe returns a short description of the connection for display.
	Describe(cfg *Config) string

	// ConnectionString resolves the connection string for cfg.
	ConnectionString(cfg *Config) (string, error)

	// Open acquires a connection. The caller must close it.
	Open(ctx context.Context, cfg *Config) (Connection, error)

	// ClearPools drops every pooled connection the driver holds.
	ClearPools()

	// ConstructorParameters describes the generated constructor's parameters.
	ConstructorParameters() []ParameterDescriptor

	// ConstructorArguments returns argument values matching ConstructorParameters.
	ConstructorArguments(cfg *Config) ([]any, error)

	// Dependencies returns module paths generated code depends on.
	Dependencies() []string

	// Imports returns packages generated code may refer to.
	Imports() []string
}

// DriverFactory creates a Driver.
type DriverFactory func(logger *zap.Logger) Driver

var (
	driversMu sync.RWMutex
	drivers   = make(map[string]DriverFactory)
)

// RegisterDriver registers a driver factory by name.
// Panics if the name is already registered.
func RegisterDriver(name string, factory DriverFactory) {
	driversMu.Lock()
	defer driversMu.Unlock()

	if _, exists := drivers[name]; exists {
		panic(fmt.Sprintf("dbctx: driver already registered: %s", name))
	}

	drivers[name] = factory
}

// NewDriver creates a driver instance by name.
func NewDriver(name string, logger *zap.Logger) (Driver, error) {
	driversMu.RLock()
	factory, ok := drivers[name]
	driversMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s (available: %v)", ErrUnknownDriver, name, RegisteredDrivers())
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return factory(logger), nil
}

// RegisteredDrivers returns the sorted names of all registered drivers.
func RegisteredDrivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()

	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// ConstructorParameters derives parameter descriptors from a base type.
func ConstructorParameters(base BaseType) []ParameterDescriptor {
	params := make([]ParameterDescriptor, len(base.Params))
	for i, p := range base.Params {
		params[i] = ParameterDescriptor{Name: p.Name, Type: p.Type}
	}

	return params
}
