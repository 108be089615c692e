package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/rlch/dbctx"
	"github.com/rlch/dbctx/language"
)

// ErrUnknownLanguage is returned when no language is registered for --lang.
var ErrUnknownLanguage = errors.New("unknown language")

func generateFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "type",
			Aliases: []string{"t"},
			Usage:   "name of the generated type (default: " + dbctx.DefaultTypeName + ")",
		},
		&cli.StringFlag{
			Name:  "include",
			Usage: `expression selecting objects, e.g. 'schema == "public"'`,
		},
		&cli.StringSliceFlag{
			Name:    "schema",
			Aliases: []string{"s"},
			Usage:   "schema to introspect (repeatable)",
		},
	}
}

func generateCommand() *cli.Command {
	return &cli.Command{
		Name:    "generate",
		Aliases: []string{"gen"},
		Usage:   "Generate a data context from the database schema",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "lang",
				Aliases: []string{"l"},
				Usage:   "target language (go)",
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "output directory (default: directory of .dbctx.yaml)",
			},
			&cli.StringFlag{
				Name:    "package",
				Aliases: []string{"p"},
				Usage:   "Go package name (default: directory name)",
			},
			&cli.StringFlag{
				Name:  "file",
				Usage: "output file name",
			},
		}, generateFlags()...),
		Action: runGenerate,
	}
}

func runGenerate(ctx context.Context, cmd *cli.Command) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	langName := firstNonEmpty(s.cfg.Generate.Lang, dbctx.LanguageForDatabase(s.cfg.DatabaseName()), dbctx.LangGo)

	lang := language.Get(langName)
	if lang == nil {
		return fmt.Errorf("%w: %s (available: %v)", ErrUnknownLanguage, langName, language.RegisteredLanguages())
	}

	outDir := outputDir(cmd.String("out"), s.cfg.Generate.Out, s.configDir)

	packageName := s.cfg.Generate.Package
	if packageName == "" {
		packageName, err = lang.InferPackageName(outDir)
		if err != nil {
			s.logger.Debug("inferring package name", zap.String("dir", outDir), zap.Error(err))
		}
	}

	result, err := s.generate(ctx, packageName)
	if err != nil {
		return fmt.Errorf("generating %s: %w", s.driver.Describe(s.cfg), err)
	}

	files, err := lang.Generate(&language.GenerateContext{
		Type:        result.Type,
		Tree:        result.Tree,
		Description: result.Description,
		OutputDir:   outDir,
		PackageName: packageName,
		FileName:    cmd.String("file"),
	})
	if err != nil {
		return fmt.Errorf("rendering %s: %w", result.Type.QualifiedName(), err)
	}

	paths, err := writeFiles(outDir, files)
	if err != nil {
		return err
	}

	for _, p := range paths {
		fmt.Printf("wrote %s\n", p)
	}

	s.logger.Debug("generated",
		zap.String("type", result.Type.QualifiedName()),
		zap.Int("members", len(result.Type.Members)),
		zap.Int("models", len(result.Type.Models)),
	)

	return nil
}

// outputDir prefers the flag, then the configured directory relative to the
// config file, then the config directory itself.
func outputDir(flagOut, cfgOut, configDir string) string {
	switch {
	case flagOut != "":
		return flagOut
	case cfgOut == "":
		return configDir
	case filepath.IsAbs(cfgOut):
		return cfgOut
	default:
		return filepath.Join(configDir, cfgOut)
	}
}

// writeFiles writes files into dir, in name order, and returns their paths.
func writeFiles(dir string, files map[string][]byte) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec // G301: generated source directory
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}

	names := make([]string, 0, len(files))
	for name, content := range files {
		if content != nil {
			names = append(names, name)
		}
	}

	sort.Strings(names)

	paths := make([]string, 0, len(names))

	for _, name := range names {
		outPath := filepath.Join(dir, name)

		err := os.WriteFile(outPath, files[name], 0o644) //nolint:gosec // G306: output file permissions are fine
		if err != nil {
			return nil, fmt.Errorf("writing %s: %w", outPath, err)
		}

		paths = append(paths, outPath)
	}

	return paths, nil
}
