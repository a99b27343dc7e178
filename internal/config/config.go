package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	CurrentVersion = 1
	DefaultPath    = "~/.milldesk/milldesk.yaml"
)

// Config is the top-level configuration.
type Config struct {
	Version  int                    `yaml:"version"`
	Stores   map[string]StoreConfig `yaml:"stores"`
	LLM      LLMConfig              `yaml:"llm"`
	Guard    GuardConfig            `yaml:"guard,omitempty"`
	Pipeline PipelineConfig         `yaml:"pipeline,omitempty"`
	Audit    AuditConfig            `yaml:"audit,omitempty"`
	Logging  LogConfig              `yaml:"logging,omitempty"`
}

// StoreConfig defines one named backing database ("mill"). The set of
// configured stores is closed: a query can only ever target one of these
// entries, never an arbitrary connection string.
type StoreConfig struct {
	Type           string `yaml:"type"` // postgresql or oracle
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Database       string `yaml:"database"`
	Schema         string `yaml:"schema,omitempty"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	SSL            bool   `yaml:"ssl,omitempty"`
	MaxConnections int    `yaml:"max_connections,omitempty"` // default 4, max 20
}

// LLMConfig defines the SQL synthesizer backend.
type LLMConfig struct {
	Model          string `yaml:"model,omitempty"`           // default claude-sonnet-4-5
	APIKey         string `yaml:"api_key,omitempty"`         // falls back to ANTHROPIC_API_KEY
	MaxTokens      int64  `yaml:"max_tokens,omitempty"`      // default 1024
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty"` // default 30
}

// GuardConfig defines the read-only SQL policy.
type GuardConfig struct {
	AllowedTables []string `yaml:"allowed_tables,omitempty"` // default AttendanceReport
}

// PipelineConfig defines per-stage timeouts.
type PipelineConfig struct {
	DescribeTimeoutSeconds int `yaml:"describe_timeout_seconds,omitempty"` // default 5
	ExecuteTimeoutSeconds  int `yaml:"execute_timeout_seconds,omitempty"`  // default 30
}

// AuditConfig defines the audit trail destinations.
type AuditConfig struct {
	Directory     string `yaml:"directory,omitempty"` // default ~/.milldesk/audit/
	MongoURI      string `yaml:"mongo_uri,omitempty"`
	MongoDatabase string `yaml:"mongo_database,omitempty"` // default milldesk
}

// LogConfig defines logging settings.
type LogConfig struct {
	Level     string `yaml:"level,omitempty"`     // debug, info, warn, error
	Directory string `yaml:"directory,omitempty"` // default ~/.milldesk/logs/
}

// Load reads and parses the config file from the given path.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	path = ExpandHome(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentVersion)
	}

	if len(cfg.Stores) == 0 {
		return nil, fmt.Errorf("no stores configured")
	}

	if err := cfg.resolveSecrets(); err != nil {
		return nil, fmt.Errorf("resolving secrets: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

// Save writes the config to the given path.
func (c *Config) Save(path string) error {
	if path == "" {
		path = DefaultPath
	}
	path = ExpandHome(path)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(path, data, 0o600)
}

// Store looks up a store by identifier, case-insensitively.
func (c *Config) Store(name string) (StoreConfig, bool) {
	s, ok := c.Stores[strings.ToLower(name)]
	return s, ok
}

// StoreNames returns the sorted identifiers of all configured stores.
func (c *Config) StoreNames() []string {
	names := make([]string, 0, len(c.Stores))
	for name := range c.Stores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Config) applyDefaults() {
	// Store identifiers are matched case-insensitively everywhere.
	lowered := make(map[string]StoreConfig, len(c.Stores))
	for name, s := range c.Stores {
		if s.MaxConnections == 0 {
			s.MaxConnections = 4
		}
		if s.MaxConnections > 20 {
			s.MaxConnections = 20
		}
		lowered[strings.ToLower(name)] = s
	}
	c.Stores = lowered

	if c.LLM.Model == "" {
		c.LLM.Model = "claude-sonnet-4-5"
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 1024
	}
	if c.LLM.TimeoutSeconds == 0 {
		c.LLM.TimeoutSeconds = 30
	}
	if len(c.Guard.AllowedTables) == 0 {
		c.Guard.AllowedTables = []string{"AttendanceReport"}
	}
	if c.Pipeline.DescribeTimeoutSeconds == 0 {
		c.Pipeline.DescribeTimeoutSeconds = 5
	}
	if c.Pipeline.ExecuteTimeoutSeconds == 0 {
		c.Pipeline.ExecuteTimeoutSeconds = 30
	}
	if c.Audit.Directory == "" {
		c.Audit.Directory = ExpandHome("~/.milldesk/audit/")
	}
	if c.Audit.MongoDatabase == "" {
		c.Audit.MongoDatabase = "milldesk"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Directory == "" {
		c.Logging.Directory = ExpandHome("~/.milldesk/logs/")
	}
}

var secretPattern = regexp.MustCompile(`\$\{(ENV|VAULT|AWS_SM):([^}]+)\}`)

func (c *Config) resolveSecrets() error {
	for name, s := range c.Stores {
		pw, err := ResolveValue(s.Password)
		if err != nil {
			return fmt.Errorf("store %s password: %w", name, err)
		}
		s.Password = pw
		c.Stores[name] = s
	}

	var err error
	c.LLM.APIKey, err = ResolveValue(c.LLM.APIKey)
	if err != nil {
		return fmt.Errorf("llm api key: %w", err)
	}
	c.Audit.MongoURI, err = ResolveValue(c.Audit.MongoURI)
	if err != nil {
		return fmt.Errorf("audit mongo uri: %w", err)
	}
	return nil
}

// ResolveValue resolves secret references in a string value.
func ResolveValue(val string) (string, error) {
	matches := secretPattern.FindStringSubmatch(val)
	if matches == nil {
		return val, nil
	}

	provider := matches[1]
	ref := matches[2]

	switch provider {
	case "ENV":
		v := os.Getenv(ref)
		if v == "" {
			return "", fmt.Errorf("environment variable %s not set", ref)
		}
		return v, nil
	case "VAULT":
		return resolveVault(ref)
	case "AWS_SM":
		return resolveAWSSecretsManager(ref)
	default:
		return "", fmt.Errorf("unknown secrets provider: %s", provider)
	}
}

// ExpandHome expands ~ to the user's home directory.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
