package entretien

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config consolidates settings for the engine and its collaborators
type Config struct {
	Database DatabaseConfig `json:"database" yaml:"database"`
	Tables   TableNames     `json:"tables" yaml:"tables"`
	Metadata MetadataConfig `json:"metadata" yaml:"metadata"`
	Server   ServerConfig   `json:"server" yaml:"server"`
	Logging  LoggingConfig  `json:"logging" yaml:"logging"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Host            string        `json:"host" yaml:"host"`
	Port            int           `json:"port" yaml:"port"`
	Database        string        `json:"database" yaml:"database"`
	Username        string        `json:"username" yaml:"username"`
	Password        string        `json:"password" yaml:"password"`
	SSLMode         string        `json:"sslMode" yaml:"sslMode"`
	ClientEncoding  string        `json:"clientEncoding" yaml:"clientEncoding"`
	MaxConnections  int           `json:"maxConnections" yaml:"maxConnections"`
	MaxIdleConns    int           `json:"maxIdleConns" yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `json:"connMaxLifetime" yaml:"connMaxLifetime"`
	ConnMaxIdleTime time.Duration `json:"connMaxIdleTime" yaml:"connMaxIdleTime"`
	Timeout         time.Duration `json:"timeout" yaml:"timeout"`
}

// TableNames locates the parent and child tables and their linkage columns.
type TableNames struct {
	Namespace    string `json:"namespace" yaml:"namespace"`
	Parent       string `json:"parent" yaml:"parent"`
	Demande      string `json:"demande" yaml:"demande"`
	Solution     string `json:"solution" yaml:"solution"`
	ParentKey    string `json:"parentKey" yaml:"parentKey"`
	PositionKey  string `json:"positionKey" yaml:"positionKey"`
	NatureColumn string `json:"natureColumn" yaml:"natureColumn"`
}

// Folded returns t with every identifier lower-cased, the way Postgres folds
// unquoted names. The catalog stores the folded form, and statements quote
// whatever is configured, so both must agree.
func (t TableNames) Folded() TableNames {
	return TableNames{
		Namespace:    strings.ToLower(t.Namespace),
		Parent:       strings.ToLower(t.Parent),
		Demande:      strings.ToLower(t.Demande),
		Solution:     strings.ToLower(t.Solution),
		ParentKey:    strings.ToLower(t.ParentKey),
		PositionKey:  strings.ToLower(t.PositionKey),
		NatureColumn: strings.ToLower(t.NatureColumn),
	}
}

// Child returns the table backing a sub-list.
func (t TableNames) Child(kind ChildKind) string {
	if kind == ChildSolution {
		return t.Solution
	}
	return t.Demande
}

// ExcludedColumns are linkage columns never shown to users.
func (t TableNames) ExcludedColumns() map[string]struct{} {
	return map[string]struct{}{
		t.ParentKey:   {},
		t.PositionKey: {},
	}
}

// MetadataConfig controls introspection caching
type MetadataConfig struct {
	CacheTTL  time.Duration `json:"cacheTTL" yaml:"cacheTTL"`
	CacheSize int           `json:"cacheSize" yaml:"cacheSize"`
}

type ServerConfig struct {
	Port string `json:"port" yaml:"port"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "MD",
			Username:        "postgres",
			SSLMode:         "disable",
			MaxConnections:  10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 30 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
			Timeout:         10 * time.Second,
		},
		Tables: TableNames{
			Namespace:    "public",
			Parent:       "entretien",
			Demande:      "demande",
			Solution:     "solution",
			ParentKey:    "num",
			PositionKey:  "pos",
			NatureColumn: "nature",
		},
		Metadata: MetadataConfig{
			CacheTTL:  60 * time.Second,
			CacheSize: 32,
		},
		Server: ServerConfig{
			Port: "8080",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig reads a YAML file over the defaults. An empty path returns the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides connection and server settings from the environment.
func (c *Config) ApplyEnv() {
	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnvInt("DB_PORT", c.Database.Port)
	c.Database.Database = getEnv("DB_NAME", c.Database.Database)
	c.Database.Username = getEnv("DB_USER", c.Database.Username)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.SSLMode = getEnv("DB_SSL_MODE", c.Database.SSLMode)
	c.Database.ClientEncoding = getEnv("DB_CLIENT_ENCODING", c.Database.ClientEncoding)
	c.Database.MaxConnections = getEnvInt("DB_MAX_CONNECTIONS", c.Database.MaxConnections)
	c.Tables.Namespace = getEnv("DB_SCHEMA", c.Tables.Namespace)
	c.Metadata.CacheTTL = time.Duration(getEnvInt("METADATA_CACHE_TTL_SECONDS", int(c.Metadata.CacheTTL/time.Second))) * time.Second
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
}

// ConnString renders a postgres:// URL for pgxpool.ParseConfig.
func (d DatabaseConfig) ConnString() string {
	var user *url.Userinfo
	if d.Password != "" {
		user = url.UserPassword(d.Username, d.Password)
	} else {
		user = url.User(d.Username)
	}
	u := &url.URL{
		Scheme: "postgres",
		User:   user,
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   "/" + d.Database,
	}
	q := url.Values{}
	if d.SSLMode != "" {
		q.Set("sslmode", d.SSLMode)
	}
	if d.ClientEncoding != "" {
		q.Set("client_encoding", d.ClientEncoding)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Validate validates the configuration and folds table identifiers to lower case.
func (c *Config) Validate() error {
	c.Tables = c.Tables.Folded()
	if c.Database.MaxConnections <= 0 {
		return &ConfigError{Field: "database.maxConnections", Message: "must be greater than 0"}
	}
	if c.Tables.Parent == "" {
		return &ConfigError{Field: "tables.parent", Message: "cannot be empty"}
	}
	if c.Tables.Demande == "" || c.Tables.Solution == "" {
		return &ConfigError{Field: "tables.demande/solution", Message: "cannot be empty"}
	}
	if c.Tables.ParentKey == "" {
		return &ConfigError{Field: "tables.parentKey", Message: "cannot be empty"}
	}
	if c.Tables.PositionKey == "" {
		return &ConfigError{Field: "tables.positionKey", Message: "cannot be empty"}
	}
	if c.Tables.NatureColumn == "" {
		return &ConfigError{Field: "tables.natureColumn", Message: "cannot be empty"}
	}
	if c.Metadata.CacheTTL < 0 {
		return &ConfigError{Field: "metadata.cacheTTL", Message: "cannot be negative"}
	}
	return nil
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ConfigError) Error() string {
	return "config validation error for field '" + e.Field + "': " + e.Message
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
