// Package golang renders generated data contexts as Go source.
//
// The output is a single file holding the models, a struct embedding the
// base type, a constructor that forwards (dataProvider, connectionString)
// to the base constructor, and one method per member:
//
//	type Shop struct {
//		*runtime.DataContext
//	}
//
//	func NewShop(dataProvider runtime.DataProvider, connectionString string) *Shop {
//		return &Shop{DataContext: runtime.New(dataProvider, connectionString)}
//	}
package golang

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rlch/dbctx"
	"github.com/rlch/dbctx/language"
)

// ErrNoType is returned when Generate is called without a finalized type.
var ErrNoType = errors.New("golang: no type to generate")

// DefaultFileName is the name of the generated file.
const DefaultFileName = "dbctx.go"

// GoLanguage implements language.Language for Go code generation.
type GoLanguage struct{}

// Name returns "go".
func (g *GoLanguage) Name() string {
	return dbctx.LangGo
}

// InferPackageName determines the Go package name for a directory.
func (g *GoLanguage) InferPackageName(dir string) (string, error) {
	return InferPackageName(dir)
}

// Generate renders ctx.Type into a single Go file.
func (g *GoLanguage) Generate(ctx *language.GenerateContext) (map[string][]byte, error) {
	if ctx.Type == nil {
		return nil, ErrNoType
	}

	packageName := ctx.PackageName
	if packageName == "" {
		packageName = ctx.Type.Package
	}

	if packageName == "" {
		var err error
		packageName, err = g.InferPackageName(ctx.OutputDir)
		if err != nil {
			packageName = SanitizePackageName(ctx.OutputDir)
		}

		// Warn if folder name was a Go keyword
		if IsKeyword(filepath.Base(ctx.OutputDir)) {
			fmt.Fprintf(os.Stderr, "warning: folder %q is a Go keyword, using %q as package name\n",
				filepath.Base(ctx.OutputDir), packageName)
		}
	}

	src, err := Render(ctx.Type, packageName, ctx.Description)
	if err != nil {
		return nil, err
	}

	fileName := ctx.FileName
	if fileName == "" {
		fileName = DefaultFileName
	}

	return map[string][]byte{fileName: src}, nil
}

// New creates a new Go language generator.
func New() *GoLanguage {
	return &GoLanguage{}
}

//nolint:gochecknoinits // Registration pattern requires init.
func init() {
	language.Register(New())
}
