package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/spetersoncode/cellmate"
)

func TestValidate(t *testing.T) {
	hot := 3.0

	tests := []struct {
		name    string
		mutate  func(*Config)
		problem string
	}{
		{"unknown provider", func(c *Config) { c.DefaultProvider = "mistral" }, "default_provider"},
		{"zero turns", func(c *Config) { c.MaxTurns = 0 }, "max_turns"},
		{"blank approval command", func(c *Config) { c.CommandsRequiringApproval = []string{" "} }, "commands_requiring_approval[0]"},
		{"model for unknown provider", func(c *Config) { c.Models = map[string]ai.ModelOptions{"mistral": {}} }, "models.mistral"},
		{"temperature out of range", func(c *Config) {
			c.Models = map[string]ai.ModelOptions{"openai": {Temperature: &hot}}
		}, "temperature"},
		{"mcp server without transport", func(c *Config) {
			c.MCPServers = []MCPServer{{Name: "nb"}}
		}, "exactly one of command or url"},
		{"mcp server with both transports", func(c *Config) {
			c.MCPServers = []MCPServer{{Name: "nb", Command: "bridge", URL: "http://localhost"}}
		}, "exactly one of command or url"},
		{"duplicate mcp names", func(c *Config) {
			c.MCPServers = []MCPServer{{Name: "nb", Command: "a"}, {Name: "nb", Command: "b"}}
		}, "duplicated"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"missing addr", func(c *Config) { c.Server.Addr = "" }, "server.addr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
			assert.Contains(t, err.Error(), tt.problem)
		})
	}

	t.Run("defaults are valid", func(t *testing.T) {
		assert.NoError(t, Default().Validate())
	})
}
