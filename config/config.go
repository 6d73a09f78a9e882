// Package config defines the explicit configuration of a supportmesh
// deployment. Configuration is loaded once, validated eagerly, and injected
// into components; nothing reads the environment at call time.
package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/supportmesh/core"
)

// Model providers accepted in ModelConfig.Provider.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderMock      = "mock"
)

// Store drivers accepted in StoreConfig.Driver.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// ModelConfig selects and parameterizes one model role.
type ModelConfig struct {
	Provider    string  `yaml:"provider"`
	Name        string  `yaml:"name"`
	APIKey      string  `yaml:"api_key"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int64   `yaml:"max_tokens"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// StoreConfig selects the conversation store backend.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// ModelsConfig assigns a model to each role. Safety is optional; when its
// provider is empty the lexicon checker is used instead of a model.
type ModelsConfig struct {
	Routing   ModelConfig `yaml:"routing"`
	Synthesis ModelConfig `yaml:"synthesis"`
	Safety    ModelConfig `yaml:"safety"`
}

// LanguagesConfig names the bilingual finalizer languages.
type LanguagesConfig struct {
	Primary   string `yaml:"primary"`
	Secondary string `yaml:"secondary"`
}

// Config is the full deployment configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Models      ModelsConfig      `yaml:"models"`
	ToolServers map[string]string `yaml:"tool_servers"`
	Transport   string            `yaml:"transport"`
	Caps        map[string]int    `yaml:"caps"`
	Store       StoreConfig       `yaml:"store"`
	Languages   LanguagesConfig   `yaml:"languages"`
	// MemoryWindow is the number of stored messages recalled into agent
	// synthesis prompts.
	MemoryWindow int    `yaml:"memory_window"`
	LogLevel     string `yaml:"log_level"`
}

// Default returns a configuration with every optional field filled in.
// Tool server addresses and model credentials still have to be provided.
func Default() *Config {
	return &Config{
		Server:    ServerConfig{Addr: ":8080"},
		Transport: "sse",
		Caps: map[string]int{
			string(core.AgentDocumentQA): 2,
			string(core.AgentSentiment):  1,
			string(core.AgentEmail):      1,
			string(core.AgentTech):       2,
		},
		Store:        StoreConfig{Driver: StoreMemory},
		Languages:    LanguagesConfig{Primary: "Spanish", Secondary: "English"},
		MemoryWindow: 10,
		LogLevel:     "info",
	}
}

// Load reads the YAML file at path, expands ${VAR} references from the
// environment (after loading a .env file if one exists), applies defaults,
// and validates the result.
func Load(path string) (*Config, error) {
	// Missing .env is fine; explicit env vars still apply.
	_ = godotenv.Load()

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	expanded := os.ExpandEnv(string(raw))

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for wiring errors. It fails fast so a
// bad deployment never reaches the first conversation.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("config: server.addr must not be empty")
	}
	if c.Transport != "sse" && c.Transport != "streamable-http" {
		return fmt.Errorf("config: transport must be sse or streamable-http, got %q", c.Transport)
	}

	if err := validateModel("models.routing", c.Models.Routing, true); err != nil {
		return err
	}
	if err := validateModel("models.synthesis", c.Models.Synthesis, true); err != nil {
		return err
	}
	if err := validateModel("models.safety", c.Models.Safety, false); err != nil {
		return err
	}

	for _, name := range core.AgentNames() {
		if c.ToolServers[string(name)] == "" {
			return fmt.Errorf("config: tool_servers.%s must not be empty", name)
		}
	}
	for name := range c.ToolServers {
		if _, err := core.ParseAgentName(name); err != nil {
			return fmt.Errorf("config: tool_servers: %w", err)
		}
	}

	for name, limit := range c.Caps {
		if _, err := core.ParseAgentName(name); err != nil {
			return fmt.Errorf("config: caps: %w", err)
		}
		if limit <= 0 {
			return fmt.Errorf("config: caps.%s must be positive, got %d", name, limit)
		}
	}

	switch c.Store.Driver {
	case StoreMemory:
	case StoreSQLite:
		if c.Store.DSN == "" {
			return fmt.Errorf("config: store.dsn is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("config: store.driver must be memory or sqlite, got %q", c.Store.Driver)
	}

	if c.Languages.Primary == "" || c.Languages.Secondary == "" {
		return fmt.Errorf("config: languages.primary and languages.secondary must not be empty")
	}
	if c.MemoryWindow <= 0 {
		return fmt.Errorf("config: memory_window must be positive, got %d", c.MemoryWindow)
	}
	return nil
}

func validateModel(field string, mc ModelConfig, required bool) error {
	if mc.Provider == "" {
		if required {
			return fmt.Errorf("config: %s.provider must not be empty", field)
		}
		return nil
	}
	switch mc.Provider {
	case ProviderOpenAI, ProviderAnthropic:
		if mc.Name == "" {
			return fmt.Errorf("config: %s.name must not be empty", field)
		}
		if mc.APIKey == "" {
			return fmt.Errorf("config: %s.api_key must not be empty", field)
		}
	case ProviderMock:
	default:
		return fmt.Errorf("config: %s.provider must be openai, anthropic, or mock, got %q", field, mc.Provider)
	}
	return nil
}

// AgentCaps converts the cap map to typed agent names. Agents absent from
// the map fall back to the defaults.
func (c *Config) AgentCaps() map[core.AgentName]int {
	caps := map[core.AgentName]int{
		core.AgentDocumentQA: 2,
		core.AgentSentiment:  1,
		core.AgentEmail:      1,
		core.AgentTech:       2,
	}
	for name, limit := range c.Caps {
		caps[core.AgentName(name)] = limit
	}
	return caps
}
