package config

import (
	ai "github.com/spetersoncode/cellmate"
	"github.com/spetersoncode/cellmate/agent"
	"github.com/spetersoncode/cellmate/provider"
)

// Config is the merged configuration.
type Config struct {
	// DefaultProvider is used by sessions created without a provider.
	DefaultProvider string `yaml:"default_provider"`
	// MaxTurns bounds model turns per generation.
	MaxTurns int `yaml:"max_turns"`
	// CommandsRequiringApproval lists tool names that always need approval.
	CommandsRequiringApproval []string `yaml:"commands_requiring_approval"`
	// SystemPrompt replaces the built-in base prompt when set.
	SystemPrompt string `yaml:"system_prompt,omitempty"`

	SkillsDir string `yaml:"skills_dir"`
	// StateDir holds state.yaml and the session history files.
	StateDir string `yaml:"state_dir"`

	Providers provider.Config `yaml:"providers"`
	// Models holds per-provider model overrides keyed by provider id.
	Models map[string]ai.ModelOptions `yaml:"models,omitempty"`

	MCPServers []MCPServer `yaml:"mcp_servers,omitempty"`

	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
}

// MCPServer describes an MCP server whose tools are registered at startup.
// Exactly one of Command and URL is set.
type MCPServer struct {
	Name    string   `yaml:"name"`
	Command string   `yaml:"command,omitempty"`
	Args    []string `yaml:"args,omitempty"`
	Env     []string `yaml:"env,omitempty"`
	URL     string   `yaml:"url,omitempty"`
	// Prefix namespaces the server's tools locally.
	Prefix string `yaml:"prefix,omitempty"`
	// RequireApproval gates every tool from this server.
	RequireApproval bool `yaml:"require_approval,omitempty"`
}

// ServerConfig configures `cellmate serve`.
type ServerConfig struct {
	Addr string `yaml:"addr"`
	// AllowOrigin is sent as Access-Control-Allow-Origin.
	AllowOrigin string `yaml:"allow_origin,omitempty"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// ModelOptions returns the model overrides for providerID.
func (c *Config) ModelOptions(providerID string) ai.ModelOptions {
	return c.Models[providerID]
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DefaultProvider:           ai.ProviderAnthropic.String(),
		MaxTurns:                  agent.DefaultMaxTurns,
		CommandsRequiringApproval: []string{"run_cell", "execute_code", "delete_cell"},
		SkillsDir:                 "~/.cellmate/skills",
		StateDir:                  "~/.cellmate",
		Server:                    ServerConfig{Addr: "127.0.0.1:8765"},
		Log:                       LogConfig{Level: "info", Format: "text"},
	}
}
