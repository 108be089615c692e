package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/rlch/dbctx"
)

// ErrNoDatabase is returned when neither flags nor config select a database.
var ErrNoDatabase = errors.New("no database specified (use --uri, --dbname or a postgres section in .dbctx.yaml)")

func connectionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "uri",
			Usage:   "postgres connection URI",
			Sources: cli.EnvVars("DBCTX_URI"),
		},
		&cli.StringFlag{
			Name:  "host",
			Usage: "postgres host",
		},
		&cli.IntFlag{
			Name:  "port",
			Usage: "postgres port",
		},
		&cli.StringFlag{
			Name:  "dbname",
			Usage: "postgres database name",
		},
		&cli.StringFlag{
			Name:    "user",
			Aliases: []string{"u"},
			Usage:   "postgres user",
			Sources: cli.EnvVars("DBCTX_USER"),
		},
		&cli.StringFlag{
			Name:    "password",
			Usage:   "postgres password",
			Sources: cli.EnvVars("DBCTX_PASSWORD"),
		},
		&cli.StringFlag{
			Name:  "sslmode",
			Usage: "postgres sslmode",
		},
	}
}

// overrides are settings given on the command line. They win over the
// config file.
type overrides struct {
	URI      string
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string

	Lang    string
	Out     string
	Package string
	Type    string
	Include string
	Schemas []string
}

func overridesFromCommand(cmd *cli.Command) overrides {
	return overrides{
		URI:      cmd.String("uri"),
		Host:     cmd.String("host"),
		Port:     int(cmd.Int("port")),
		Database: cmd.String("dbname"),
		User:     cmd.String("user"),
		Password: cmd.String("password"),
		SSLMode:  cmd.String("sslmode"),
		Lang:     cmd.String("lang"),
		Out:      cmd.String("out"),
		Package:  cmd.String("package"),
		Type:     cmd.String("type"),
		Include:  cmd.String("include"),
		Schemas:  cmd.StringSlice("schema"),
	}
}

func (o overrides) connection() bool {
	return o.URI != "" || o.Host != "" || o.Port != 0 || o.Database != "" ||
		o.User != "" || o.Password != "" || o.SSLMode != ""
}

// apply layers o over cfg.
func (o overrides) apply(cfg *dbctx.Config) {
	if o.connection() && cfg.Postgres == nil {
		cfg.Postgres = &dbctx.PostgresConfig{}
	}

	if pg := cfg.Postgres; pg != nil {
		pg.URI = firstNonEmpty(o.URI, pg.URI)
		pg.Host = firstNonEmpty(o.Host, pg.Host)
		pg.Database = firstNonEmpty(o.Database, pg.Database)
		pg.User = firstNonEmpty(o.User, pg.User)
		pg.Password = firstNonEmpty(o.Password, pg.Password)
		pg.SSLMode = firstNonEmpty(o.SSLMode, pg.SSLMode)

		if o.Port != 0 {
			pg.Port = o.Port
		}
	}

	g := &cfg.Generate
	g.Lang = firstNonEmpty(o.Lang, g.Lang)
	g.Out = firstNonEmpty(o.Out, g.Out)
	g.Package = firstNonEmpty(o.Package, g.Package)
	g.Type = firstNonEmpty(o.Type, g.Type)
	g.Include = firstNonEmpty(o.Include, g.Include)

	if len(o.Schemas) > 0 {
		g.Schemas = o.Schemas
	}
}

// loadConfigWithDir loads the config at path, or the nearest one walking up
// from startDir, and returns the directory it was found in. A missing config
// is not an error: an empty one rooted at startDir is returned.
func loadConfigWithDir(path, startDir string) (*dbctx.Config, string, error) {
	if path != "" {
		cfg, err := dbctx.LoadConfigFile(path)
		if err != nil {
			return nil, "", err
		}

		return cfg, filepath.Dir(path), nil
	}

	found, err := dbctx.FindConfig(startDir)
	if errors.Is(err, dbctx.ErrConfigNotFound) {
		return &dbctx.Config{}, startDir, nil
	}

	if err != nil {
		return nil, "", err
	}

	cfg, err := dbctx.LoadConfigFile(found)
	if err != nil {
		return nil, "", err
	}

	return cfg, filepath.Dir(found), nil
}

// session holds what every command needs: a logger, the layered config and
// the driver selected by it.
type session struct {
	logger    *zap.Logger
	cfg       *dbctx.Config
	configDir string
	driver    dbctx.Driver
}

func openSession(cmd *cli.Command) (*session, error) {
	logger, err := newLogger(cmd.Bool("debug"))
	if err != nil {
		return nil, err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting cwd: %w", err)
	}

	cfg, configDir, err := loadConfigWithDir(cmd.String("config"), cwd)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	overridesFromCommand(cmd).apply(cfg)

	dbName := cfg.DatabaseName()
	if dbName == "" {
		return nil, ErrNoDatabase
	}

	driver, err := dbctx.NewDriver(dbName, logger)
	if err != nil {
		return nil, err
	}

	logger.Debug("session opened",
		zap.String("driver", dbName),
		zap.String("config_dir", configDir),
		zap.String("connection", driver.Describe(cfg)),
	)

	return &session{logger: logger, cfg: cfg, configDir: configDir, driver: driver}, nil
}

// generate builds the schema for the session's database.
func (s *session) generate(ctx context.Context, packageName string) (*dbctx.Result, error) {
	return dbctx.Generate(ctx, s.driver, s.cfg, dbctx.GenerateOptions{
		Package: packageName,
		Logger:  s.logger,
	})
}

func (s *session) Close() {
	s.driver.ClearPools()
	_ = s.logger.Sync()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
