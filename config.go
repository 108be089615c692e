package dbctx

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the .dbctx.yaml configuration file.
type Config struct {
	// Database-specific configuration. The presence of a database section
	// selects the driver.
	Postgres *PostgresConfig `yaml:"postgres,omitempty"`

	// Generate config for code generation
	Generate GenerateConfig `yaml:"generate,omitempty"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	Database string `yaml:"database,omitempty"`
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`
	SSLMode  string `yaml:"sslmode,omitempty"`
	// Alternative: connection string
	URI string `yaml:"uri,omitempty"`

	// DisplayName overrides the generated connection description.
	DisplayName string `yaml:"display_name,omitempty"`
}

// Connection defaults.
const (
	DefaultPostgresHost    = "localhost"
	DefaultPostgresPort    = 5432
	DefaultPostgresSSLMode = "disable"
)

// ConnectionString returns the URI if set, otherwise a key/value DSN built
// from the individual settings.
func (c *PostgresConfig) ConnectionString() (string, error) {
	if c.URI != "" {
		return c.URI, nil
	}

	if c.Database == "" {
		return "", ErrNoDatabaseName
	}

	host := firstNonEmpty(c.Host, DefaultPostgresHost)
	port := c.Port
	if port == 0 {
		port = DefaultPostgresPort
	}

	pairs := []string{
		"host=" + quoteDSN(host),
		"port=" + strconv.Itoa(port),
		"dbname=" + quoteDSN(c.Database),
	}

	if c.User != "" {
		pairs = append(pairs, "user="+quoteDSN(c.User))
	}

	if c.Password != "" {
		pairs = append(pairs, "password="+quoteDSN(c.Password))
	}

	pairs = append(pairs, "sslmode="+firstNonEmpty(c.SSLMode, DefaultPostgresSSLMode))

	return strings.Join(pairs, " "), nil
}

// quoteDSN quotes a key/value DSN value when it contains spaces, quotes or backslashes.
func quoteDSN(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}

	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)

	return "'" + r.Replace(v) + "'"
}

// DatabaseName returns the configured database name, or empty if none.
func (c *Config) DatabaseName() string {
	switch {
	case c.Postgres != nil:
		return DatabasePostgres
	default:
		return ""
	}
}

// GenerateConfig holds settings for the generate command.
type GenerateConfig struct {
	// Language target (e.g., "go")
	Lang string `yaml:"lang,omitempty"`

	// Output directory for generated files
	Out string `yaml:"out,omitempty"`

	// Package name for generated code (Go-specific)
	Package string `yaml:"package,omitempty"`

	// Type is the name of the generated data context type.
	Type string `yaml:"type,omitempty"`

	// Include is an expression selecting schema objects, e.g.
	// `schema == "public" && !(name startsWith "_")`.
	Include string `yaml:"include,omitempty"`

	// Schemas restricts introspection to the listed schemas.
	Schemas []string `yaml:"schemas,omitempty"`
}

// DefaultTypeName is used when no type name is configured.
const DefaultTypeName = "DB"

// DefaultConfigNames are the filenames we search for.
var DefaultConfigNames = []string{".dbctx.yaml", ".dbctx.yml", "dbctx.yaml", "dbctx.yml"}

// LoadConfig finds and loads the nearest .dbctx.yaml walking up from dir.
func LoadConfig(dir string) (*Config, error) {
	path, err := FindConfig(dir)
	if err != nil {
		return nil, err
	}

	return LoadConfigFile(path)
}

// FindConfig searches for a config file starting from dir and walking up.
func FindConfig(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	for dir := absDir; ; {
		for _, name := range DefaultConfigNames {
			path := filepath.Join(dir, name)

			_, err := os.Stat(path)
			if err == nil {
				return path, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrConfigNotFound
		}

		dir = parent
	}
}

// LoadConfigFile loads a config from a specific path. Values of the form
// ${VAR} are expanded from the environment.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	var cfg Config

	err = yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return &cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
