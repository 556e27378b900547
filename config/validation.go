package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	ai "github.com/spetersoncode/cellmate"
)


// ValidationError lists every problem found in a configuration.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "config: invalid configuration: " + strings.Join(e.Problems, "; ")
}

// Validate checks the configuration and returns a *ValidationError
// describing every invalid field.
func (c *Config) Validate() error {
	var errs []string

	if !isKnownProvider(c.DefaultProvider) {
		errs = append(errs, fmt.Sprintf("default_provider %q is not one of %s",
			c.DefaultProvider, strings.Join(providerNames(), ", ")))
	}
	if c.MaxTurns < 1 {
		errs = append(errs, "max_turns must be >= 1")
	}
	for i, name := range c.CommandsRequiringApproval {
		if strings.TrimSpace(name) == "" {
			errs = append(errs, fmt.Sprintf("commands_requiring_approval[%d] is empty", i))
		}
	}

	for id, m := range c.Models {
		if !isKnownProvider(id) {
			errs = append(errs, fmt.Sprintf("models.%s: unknown provider", id))
		}
		if m.MaxTokens < 0 {
			errs = append(errs, fmt.Sprintf("models.%s.max_tokens must be >= 0", id))
		}
		if m.ContextWindow < 0 {
			errs = append(errs, fmt.Sprintf("models.%s.context_window must be >= 0", id))
		}
		if m.Temperature != nil && (*m.Temperature < 0 || *m.Temperature > 2) {
			errs = append(errs, fmt.Sprintf("models.%s.temperature must be between 0 and 2", id))
		}
	}

	seen := make(map[string]bool)
	for i, s := range c.MCPServers {
		label := fmt.Sprintf("mcp_servers[%d]", i)
		if s.Name == "" {
			errs = append(errs, label+".name is required")
		} else if seen[s.Name] {
			errs = append(errs, fmt.Sprintf("%s.name %q is duplicated", label, s.Name))
		}
		seen[s.Name] = true
		if (s.Command == "") == (s.URL == "") {
			errs = append(errs, label+" needs exactly one of command or url")
		}
	}

	if c.Server.Addr == "" {
		errs = append(errs, "server.addr is required")
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		errs = append(errs, fmt.Sprintf("log.level %q is invalid", c.Log.Level))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Sprintf("log.format %q must be text or json", c.Log.Format))
	}

	if len(errs) > 0 {
		return &ValidationError{Problems: errs}
	}
	return nil
}

// IsValidationError reports whether err is a *ValidationError.
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func isKnownProvider(id string) bool {
	for _, p := range ai.Providers() {
		if p.String() == id {
			return true
		}
	}
	return false
}

func providerNames() []string {
	var names []string
	for _, p := range ai.Providers() {
		names = append(names, p.String())
	}
	return names
}
