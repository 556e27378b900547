package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"
)

// StateFile holds state written back by the application.
const StateFile = "state.yaml"

type state struct {
	// nil means no selection was ever saved
	SelectedTools *[]string `yaml:"selected_tools,omitempty"`
}

// Settings serves a loaded Config to sessions and persists the tool
// selection to state.yaml in the state directory.
type Settings struct {
	cfg *Config
	fs  FileSystem

	mu    sync.Mutex
	state state
}

// NewSettings reads any saved state for cfg. A missing state file is not
// an error.
func NewSettings(cfg *Config, fsys FileSystem) (*Settings, error) {
	if fsys == nil {
		fsys = OSFileSystem{}
	}
	s := &Settings{cfg: cfg, fs: fsys}

	data, err := fsys.ReadFile(s.statePath())
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("config: read state: %w", err)
	default:
		if err := yaml.Unmarshal(data, &s.state); err != nil {
			return nil, fmt.Errorf("config: parse state: %w", err)
		}
	}
	return s, nil
}

// Config returns the configuration being served.
func (s *Settings) Config() *Config { return s.cfg }

func (s *Settings) CommandsRequiringApproval() []string {
	return slices.Clone(s.cfg.CommandsRequiringApproval)
}

func (s *Settings) MaxTurns() int { return s.cfg.MaxTurns }

func (s *Settings) DefaultProvider() string { return s.cfg.DefaultProvider }

func (s *Settings) SelectedTools() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.SelectedTools == nil {
		return nil
	}
	out := slices.Clone(*s.state.SelectedTools)
	if out == nil {
		out = []string{}
	}
	return out
}

// SaveSelectedTools records names and rewrites the state file.
func (s *Settings) SaveSelectedTools(names []string) error {
	selected := slices.Clone(names)
	if selected == nil {
		selected = []string{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.state
	next.SelectedTools = &selected

	data, err := yaml.Marshal(next)
	if err != nil {
		return fmt.Errorf("config: encode state: %w", err)
	}
	if err := s.fs.MkdirAll(s.cfg.StateDir, 0o755); err != nil {
		return fmt.Errorf("config: create state dir: %w", err)
	}
	if err := s.fs.WriteFile(s.statePath(), data, 0o644); err != nil {
		return fmt.Errorf("config: write state: %w", err)
	}
	s.state = next
	return nil
}

func (s *Settings) statePath() string {
	return filepath.Join(s.cfg.StateDir, StateFile)
}
