// Package config loads server configuration from YAML with environment
// variable expansion, defaults, and schema validation.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"github.com/currentslabs/currents"
	"github.com/currentslabs/currents/models"
)

// DefaultPath is where Load looks when no path is given.
const DefaultPath = "currents.yaml"

// Config is the root configuration for the currents server.
type Config struct {
	Server  ServerConfig  `yaml:"server" json:"server"`
	Model   ModelConfig   `yaml:"model" json:"model"`
	Tools   ToolsConfig   `yaml:"tools" json:"tools"`
	Agent   AgentConfig   `yaml:"agent" json:"agent"`
	Store   StoreConfig   `yaml:"store" json:"store"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

type ServerConfig struct {
	Host        string   `yaml:"host" json:"host"`
	Port        int      `yaml:"port" json:"port"`
	CORSOrigins []string `yaml:"cors_origins" json:"cors_origins"`
}

// Addr returns the host:port pair the HTTP server binds to.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type ModelConfig struct {
	APIKey      string  `yaml:"api_key" json:"api_key"`
	Name        string  `yaml:"name" json:"name"`
	BaseURL     string  `yaml:"base_url" json:"base_url"`
	Temperature float64 `yaml:"temperature" json:"temperature"`
	MaxTokens   int     `yaml:"max_tokens" json:"max_tokens"`
}

type ToolsConfig struct {
	Tavily TavilyConfig `yaml:"tavily" json:"tavily"`
	Trends TrendsConfig `yaml:"trends" json:"trends"`

	// TimeoutSeconds bounds every tool dispatch.
	TimeoutSeconds int `yaml:"timeout_seconds" json:"timeout_seconds"`
}

// Timeout returns the per-dispatch tool timeout as a duration.
func (t ToolsConfig) Timeout() time.Duration {
	return time.Duration(t.TimeoutSeconds) * time.Second
}

type TavilyConfig struct {
	APIKey string `yaml:"api_key" json:"api_key"`
}

type TrendsConfig struct {
	URL            string `yaml:"url" json:"url"`
	TimeoutSeconds int    `yaml:"timeout_seconds" json:"timeout_seconds"`
}

// Timeout returns the trends call timeout as a duration.
func (t TrendsConfig) Timeout() time.Duration {
	return time.Duration(t.TimeoutSeconds) * time.Second
}

type AgentConfig struct {
	MaxIterations  int `yaml:"max_iterations" json:"max_iterations"`
	TimeoutSeconds int `yaml:"timeout_seconds" json:"timeout_seconds"`
	HistoryWindow  int `yaml:"history_window" json:"history_window"`
}

// Timeout returns the agent run timeout as a duration.
func (a AgentConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

type StoreConfig struct {
	Driver string `yaml:"driver" json:"driver"`
	Path   string `yaml:"path" json:"path"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// SlogLevel converts the configured level name to a slog.Level. Unknown
// names fall back to info.
func (l LoggingConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load reads the configuration file at path, expands ${VAR} references,
// applies defaults and environment fallbacks, and validates the result.
//
// With an empty path, Load reads DefaultPath if it exists and otherwise
// runs on defaults and environment variables alone. An explicit path
// that does not exist is an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"http://localhost:3000"}
	}
	if cfg.Model.APIKey == "" {
		cfg.Model.APIKey = os.Getenv("GROQ_API_KEY")
	}
	if cfg.Model.Name == "" {
		cfg.Model.Name = currents.DefaultModel
	}
	if cfg.Model.BaseURL == "" {
		cfg.Model.BaseURL = models.GroqBaseURL
	}
	if cfg.Model.Temperature == 0 {
		cfg.Model.Temperature = models.DefaultTemperature
	}
	if cfg.Model.MaxTokens == 0 {
		cfg.Model.MaxTokens = models.DefaultMaxTokens
	}
	if cfg.Tools.Tavily.APIKey == "" {
		cfg.Tools.Tavily.APIKey = os.Getenv("TAVILY_API_KEY")
	}
	if cfg.Tools.Trends.URL == "" {
		cfg.Tools.Trends.URL = os.Getenv("MCP_URL")
	}
	if cfg.Tools.Trends.URL == "" {
		cfg.Tools.Trends.URL = "http://mcp:5000"
	}
	if cfg.Tools.Trends.TimeoutSeconds == 0 {
		cfg.Tools.Trends.TimeoutSeconds = 10
	}
	if cfg.Tools.TimeoutSeconds == 0 {
		cfg.Tools.TimeoutSeconds = int(currents.DefaultToolTimeout / time.Second)
	}
	if cfg.Agent.MaxIterations == 0 {
		cfg.Agent.MaxIterations = currents.DefaultMaxIterations
	}
	if cfg.Agent.TimeoutSeconds == 0 {
		cfg.Agent.TimeoutSeconds = int(currents.DefaultLoopTimeout / time.Second)
	}
	if cfg.Agent.HistoryWindow == 0 {
		cfg.Agent.HistoryWindow = currents.DefaultHistoryWindow
	}
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = "memory"
	}
	if cfg.Store.Driver == "sqlite" && cfg.Store.Path == "" {
		cfg.Store.Path = "currents.db"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

var configSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"server": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"host": map[string]any{"type": "string", "minLength": 1},
				"port": map[string]any{"type": "integer", "minimum": 1, "maximum": 65535},
				"cors_origins": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "string"},
				},
			},
		},
		"model": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name":        map[string]any{"type": "string", "minLength": 1},
				"base_url":    map[string]any{"type": "string", "minLength": 1},
				"temperature": map[string]any{"type": "number", "minimum": 0, "maximum": 2},
				"max_tokens":  map[string]any{"type": "integer", "minimum": 1},
			},
		},
		"tools": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"trends": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"url":             map[string]any{"type": "string", "minLength": 1},
						"timeout_seconds": map[string]any{"type": "integer", "minimum": 1},
					},
				},
				"timeout_seconds": map[string]any{"type": "integer", "minimum": 1},
			},
		},
		"agent": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"max_iterations":  map[string]any{"type": "integer", "minimum": 1},
				"timeout_seconds": map[string]any{"type": "integer", "minimum": 1},
				"history_window":  map[string]any{"type": "integer", "minimum": 0},
			},
		},
		"store": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"driver": map[string]any{"enum": []any{"memory", "sqlite"}},
			},
		},
		"logging": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"level":  map[string]any{"enum": []any{"debug", "info", "warn", "warning", "error"}},
				"format": map[string]any{"enum": []any{"json", "text"}},
			},
		},
	},
}

// Validate checks the configuration against its JSON schema. API keys
// are not required here; commands that talk to providers call
// ValidateSecrets as well.
func (c *Config) Validate() error {
	compiled, err := compileSchema(configSchema)
	if err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	encoded, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	instance, err := jsonschema.UnmarshalJSON(strings.NewReader(string(encoded)))
	if err != nil {
		return fmt.Errorf("decode config: %w", err)
	}

	if err := compiled.Validate(instance); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// ValidateSecrets ensures the API keys needed to reach external
// providers are present.
func (c *Config) ValidateSecrets() error {
	if c.Model.APIKey == "" {
		return fmt.Errorf("model api key is required (set model.api_key or GROQ_API_KEY)")
	}
	if c.Tools.Tavily.APIKey == "" {
		return fmt.Errorf("tavily api key is required (set tools.tavily.api_key or TAVILY_API_KEY)")
	}
	return nil
}

func compileSchema(raw map[string]any) (*jsonschema.Schema, error) {
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	data, err := jsonschema.UnmarshalJSON(strings.NewReader(string(encoded)))
	if err != nil {
		return nil, err
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("config.json", data); err != nil {
		return nil, err
	}
	return compiler.Compile("config.json")
}
