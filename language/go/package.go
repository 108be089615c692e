package golang

import (
	"go/build"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// InferPackageName returns the package name of the Go files in dir, looking
// first through go/build, then at any package clause (for files hidden by
// build tags), and finally falling back to the sanitized directory name.
// A directory that does not exist yet gets the fallback.
func InferPackageName(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	if pkg, err := build.ImportDir(abs, 0); err == nil && pkg.Name != "" {
		return pkg.Name, nil
	}

	if name := packageClause(abs); name != "" {
		return name, nil
	}

	return SanitizePackageName(filepath.Base(abs)), nil
}

// SanitizePackageName lower-cases name and drops everything that is not a
// letter, digit or underscore:
//
//	"my-package" -> "mypackage"
//	"123start"   -> "pkg123start"
//	"type"       -> "typepkg"
func SanitizePackageName(name string) string {
	var b strings.Builder

	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(unicode.ToLower(r))
		}
	}

	result := b.String()

	if result == "" || unicode.IsDigit(rune(result[0])) {
		result = "pkg" + result
	}

	if IsKeyword(result) {
		result += "pkg"
	}

	return result
}

// IsKeyword returns true if name is a Go keyword.
func IsKeyword(name string) bool {
	return token.Lookup(name).IsKeyword()
}

// packageClause returns the package of the first non-test .go file in dir.
func packageClause(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}

	fset := token.NewFileSet()

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}

		f, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.PackageClauseOnly)
		if err == nil && f.Name != nil && f.Name.Name != "" {
			return f.Name.Name
		}
	}

	return ""
}
