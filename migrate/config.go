package migrate

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/schemacol/schemacol/dialect"
	"github.com/schemacol/schemacol/errs"
)

// Config is the migration tool's file configuration.
//
// Example schemacol.yaml:
//
//	dialect: postgres
//	schema: public
//	script_dir: migrations
//	type_prefix: coltype.
type Config struct {
	// Dialect names the target engine: postgres, mysql or sqlite.
	Dialect string `yaml:"dialect"`

	// Schema is the namespace to introspect ("public" on Postgres, the
	// database name on MySQL).
	Schema string `yaml:"schema"`

	// ScriptDir is where generated DDL scripts are written.
	ScriptDir string `yaml:"script_dir"`

	// TypePrefix overrides the package qualifier in rendered column-type
	// expressions, for callers that import coltype under another alias.
	TypePrefix string `yaml:"type_prefix"`
}

// DefaultConfig returns the defaults LoadConfig fills gaps with.
func DefaultConfig() *Config {
	return &Config{
		Dialect:   string(dialect.Postgres),
		Schema:    "public",
		ScriptDir: "migrations",
	}
}

// LoadConfig reads a YAML config file and validates it.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.KindConfiguration, fmt.Sprintf("reading config %s", path), err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errs.Wrap(errs.KindConfiguration, fmt.Sprintf("parsing config %s", path), err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	if !dialect.Dialect(c.Dialect).Valid() {
		return errs.Configuration(fmt.Sprintf("unknown dialect %q", c.Dialect))
	}
	if c.Schema == "" {
		return errs.Configuration("schema must not be empty")
	}
	return nil
}

// DialectName returns the configured dialect.
func (c *Config) DialectName() dialect.Dialect {
	return dialect.Dialect(c.Dialect)
}
