package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/rlch/dbctx"
	"github.com/rlch/dbctx/explorer"
)

func exploreCommand() *cli.Command {
	return &cli.Command{
		Name:   "explore",
		Usage:  "Browse the schema tree interactively",
		Flags:  generateFlags(),
		Action: runExplore,
	}
}

func runExplore(ctx context.Context, cmd *cli.Command) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	description := s.driver.Describe(s.cfg)

	build := func(ctx context.Context) (*dbctx.ExplorerItem, error) {
		result, err := s.generate(ctx, "")
		if err != nil {
			return nil, err
		}

		return result.Tree, nil
	}

	tree, err := explorer.Run(ctx, build, explorer.WithLabel("introspecting "+description))
	if err != nil {
		return fmt.Errorf("exploring %s: %w", description, err)
	}

	s.logger.Debug("explorer closed", zap.Int("items", countItems(tree)))

	return nil
}

func describeCommand() *cli.Command {
	return &cli.Command{
		Name:  "describe",
		Usage: "Print the schema tree and generated constructor",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "format",
				Usage: "output format (tree, yaml)",
				Value: "tree",
			},
		}, generateFlags()...),
		Action: runDescribe,
	}
}

func runDescribe(ctx context.Context, cmd *cli.Command) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	result, err := s.generate(ctx, "")
	if err != nil {
		return fmt.Errorf("describing %s: %w", s.driver.Describe(s.cfg), err)
	}

	switch format := cmd.String("format"); format {
	case "yaml":
		data, err := dbctx.NewSnapshot(result.Type, result.Tree).YAML()
		if err != nil {
			return fmt.Errorf("encoding snapshot: %w", err)
		}

		_, err = os.Stdout.Write(data)

		return err

	case "tree":
		styles := explorer.PlainStyles()
		if isatty.IsTerminal(os.Stdout.Fd()) {
			styles = explorer.DefaultStyles()
		}

		fmt.Println(result.Description)

		if err := writeHostInfo(os.Stdout, s.driver, s.cfg, result.Type.Constructor.Name); err != nil {
			return err
		}

		fmt.Println()

		return explorer.Render(os.Stdout, result.Tree, styles)

	default:
		return fmt.Errorf("unknown format %q (available: tree, yaml)", format)
	}
}

// writeHostInfo prints what a host needs to compile against and instantiate
// the generated type. Arguments are shown by type only.
func writeHostInfo(w io.Writer, d dbctx.Driver, cfg *dbctx.Config, constructor string) error {
	args, err := d.ConstructorArguments(cfg)
	if err != nil {
		return fmt.Errorf("resolving constructor arguments: %w", err)
	}

	params := d.ConstructorParameters()

	var b strings.Builder

	b.WriteString(constructorSignature(constructor, params) + "\n")

	for i, p := range params {
		arg := "(none)"
		if i < len(args) {
			arg = fmt.Sprintf("%T", args[i])
		}

		fmt.Fprintf(&b, "  %s: %s\n", p.Name, arg)
	}

	fmt.Fprintf(&b, "dependencies: %s\n", strings.Join(d.Dependencies(), ", "))
	fmt.Fprintf(&b, "imports: %s\n", strings.Join(d.Imports(), ", "))

	_, err = io.WriteString(w, b.String())

	return err
}

func constructorSignature(name string, params []dbctx.ParameterDescriptor) string {
	sig := name + "("

	for i, p := range params {
		if i > 0 {
			sig += ", "
		}

		sig += p.Name + " " + p.Type
	}

	return sig + ")"
}

func countItems(root *dbctx.ExplorerItem) int {
	n := 0

	dbctx.Walk(root, func(*dbctx.ExplorerItem, int) bool {
		n++
		return true
	})

	return n
}
