// Package language provides interfaces for rendering generated data contexts.
//
// Each target language implements the Language interface to turn a
// finalized type into source files.
package language

import (
	"sort"
	"sync"

	"github.com/rlch/dbctx"
)

// Language represents a target language for code generation.
type Language interface {
	// Name returns the language identifier (e.g., "go").
	Name() string

	// InferPackageName determines the appropriate package/module name for a directory.
	// Each language implements this with its own conventions (e.g., Go uses go/build).
	InferPackageName(dir string) (string, error)

	// Generate produces source files from the given context.
	// Returns a map of filename to content.
	Generate(ctx *GenerateContext) (map[string][]byte, error)
}

// GenerateContext provides information needed for code generation.
type GenerateContext struct {
	// Type is the finalized data context.
	Type *dbctx.FinalizedType

	// Tree is the explorer tree built alongside Type. May be nil.
	Tree *dbctx.ExplorerItem

	// Description names the database the type was generated from.
	Description string

	// OutputDir is the directory where files will be written.
	OutputDir string

	// PackageName is the package/module name for generated code.
	// If empty, the language should infer it from OutputDir.
	PackageName string

	// FileName overrides the language's default output file name.
	FileName string
}

var (
	mu        sync.RWMutex
	languages = make(map[string]Language)
)

// Register registers a language by name.
func Register(lang Language) {
	mu.Lock()
	defer mu.Unlock()

	languages[lang.Name()] = lang
}

// Get returns a language by name, or nil if not registered.
func Get(name string) Language { //nolint:ireturn
	mu.RLock()
	defer mu.RUnlock()

	return languages[name]
}

// RegisteredLanguages returns the sorted names of all registered languages.
func RegisteredLanguages() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(languages))
	for name := range languages {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
