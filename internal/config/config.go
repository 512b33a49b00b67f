package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Database DatabaseConfig `json:"database" yaml:"database" mapstructure:"database"`
	Tables   []TableConfig  `json:"tables" yaml:"tables" mapstructure:"tables"`
	Batch    int            `json:"batch" yaml:"batch" mapstructure:"batch"`
}

type DatabaseConfig struct {
	Provider    string `json:"provider" yaml:"provider" mapstructure:"provider"`
	Host        string `json:"host" yaml:"host" mapstructure:"host"`
	Port        int    `json:"port" yaml:"port" mapstructure:"port"`
	Name        string `json:"name" yaml:"name" mapstructure:"name"`
	User        string `json:"user" yaml:"user" mapstructure:"user"`
	Password    string `json:"password" yaml:"password" mapstructure:"password"`
	PasswordEnv string `json:"password_env" yaml:"password_env" mapstructure:"password_env"`
}

type TableConfig struct {
	Name     string         `json:"name" yaml:"name" mapstructure:"name"`
	RowCount int            `json:"row_count" yaml:"row_count" mapstructure:"row_count"`
	Columns  []ColumnConfig `json:"columns" yaml:"columns" mapstructure:"columns"`
}

// ColumnConfig constrains generation for one column. When Values is
// non-empty it wins over the range bounds.
type ColumnConfig struct {
	Name     string        `json:"name" yaml:"name" mapstructure:"name"`
	MinValue *float64      `json:"min_value" yaml:"min_value" mapstructure:"min_value"`
	MaxValue *float64      `json:"max_value" yaml:"max_value" mapstructure:"max_value"`
	Values   []interface{} `json:"values" yaml:"values" mapstructure:"values"`
}

const (
	DefaultRowCount = 50
	DefaultBatch    = 100
)

// Load reads the run configuration from a JSON or YAML file, applies
// defaults and validates it.
func Load(path string) (*Config, error) {
	var cfg Config

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	default:
		v := viper.New()
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := v.Unmarshal(&cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Database.Provider == "" {
		c.Database.Provider = "postgresql"
	}
	if c.Database.Host == "" {
		c.Database.Host = "localhost"
	}
	if c.Database.Port == 0 {
		switch c.Database.Provider {
		case "mysql":
			c.Database.Port = 3306
		case "sqlite", "sqlite3":
			// file based, no port
		default:
			c.Database.Port = 5432
		}
	}
	if c.Database.Password == "" && c.Database.PasswordEnv != "" {
		c.Database.Password = os.Getenv(c.Database.PasswordEnv)
	}
	if c.Batch <= 0 {
		c.Batch = DefaultBatch
	}
	for i := range c.Tables {
		if c.Tables[i].RowCount == 0 {
			c.Tables[i].RowCount = DefaultRowCount
		}
	}
}

func (c *Config) Validate() error {
	supported := []string{"postgresql", "postgres", "mysql", "sqlite", "sqlite3"}
	ok := false
	for _, p := range supported {
		if c.Database.Provider == p {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("unsupported database provider: %s. Supported providers: %v", c.Database.Provider, supported)
	}

	if c.Database.Name == "" {
		return fmt.Errorf("database name cannot be empty")
	}

	for _, t := range c.Tables {
		if t.Name == "" {
			return fmt.Errorf("table config with empty name")
		}
		if t.RowCount < 0 {
			return fmt.Errorf("table %s: row_count must be greater than zero, got %d", t.Name, t.RowCount)
		}
		for _, col := range t.Columns {
			if col.Name == "" {
				return fmt.Errorf("table %s: column config with empty name", t.Name)
			}
		}
	}
	return nil
}

// Table returns the configuration for the named table, if any.
func (c *Config) Table(name string) (TableConfig, bool) {
	for _, t := range c.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return TableConfig{}, false
}

// RowCount returns the configured row count for the table, defaulting
// to DefaultRowCount when the table has no entry.
func (c *Config) RowCount(table string) int {
	if t, ok := c.Table(table); ok {
		return t.RowCount
	}
	return DefaultRowCount
}

// ColumnConfigs returns the per-column overrides for the table keyed by
// column name.
func (c *Config) ColumnConfigs(table string) map[string]ColumnConfig {
	t, ok := c.Table(table)
	if !ok {
		return nil
	}
	m := make(map[string]ColumnConfig, len(t.Columns))
	for _, col := range t.Columns {
		m[col.Name] = col
	}
	return m
}

// IsLocal reports whether the target database runs on the local host.
// File-backed sqlite databases are always local.
func (d DatabaseConfig) IsLocal() bool {
	switch d.Provider {
	case "sqlite", "sqlite3":
		return true
	}
	switch strings.ToLower(d.Host) {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

// URL builds the driver connection string for the configured provider.
func (d DatabaseConfig) URL() string {
	switch d.Provider {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
			d.User, d.Password, d.Host, d.Port, d.Name)
	case "sqlite", "sqlite3":
		return d.Name
	default:
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(d.User, d.Password),
			Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
			Path:   d.Name,
		}
		q := u.Query()
		q.Set("sslmode", "disable")
		u.RawQuery = q.Encode()
		return u.String()
	}
}
