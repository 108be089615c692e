// Command dbctx generates typed data contexts from a live database schema.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	// Register drivers and languages.
	_ "github.com/rlch/dbctx/databases/postgres"
	_ "github.com/rlch/dbctx/language/go"
)

func main() {
	app := &cli.Command{
		Name:  "dbctx",
		Usage: "Generate typed data contexts from a database schema",
		Flags: append([]cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to .dbctx.yaml (default: nearest in parent directories)",
			},
		}, connectionFlags()...),
		Commands: []*cli.Command{
			generateCommand(),
			exploreCommand(),
			describeCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// newLogger writes development-formatted logs to stderr.
func newLogger(debug bool) (*zap.Logger, error) {
	config := zap.NewDevelopmentConfig()
	config.OutputPaths = []string{"stderr"}
	config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)

	if debug {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}

	return logger, nil
}
