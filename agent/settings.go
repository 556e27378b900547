package agent

import (
	"slices"
	"sync"
)

// DefaultMaxTurns bounds the model turns of one generation when settings
// do not say otherwise.
const DefaultMaxTurns = 25

// Settings is the read-only configuration view a session consults at the
// start of every generation.
type Settings interface {
	// CommandsRequiringApproval lists tool names that always need approval.
	CommandsRequiringApproval() []string
	// MaxTurns bounds model turns per generation. Values below 1 mean DefaultMaxTurns.
	MaxTurns() int
	// DefaultProvider is used for sessions created without a provider.
	DefaultProvider() string
	// SelectedTools returns the persisted tool selection, or nil if none was saved.
	SelectedTools() []string
	// SaveSelectedTools persists a tool selection.
	SaveSelectedTools(names []string) error
}

// StaticSettings is an in-memory Settings.
type StaticSettings struct {
	ApprovalCommands []string
	Turns            int
	Provider         string

	mu       sync.Mutex
	selected []string
}

func (s *StaticSettings) CommandsRequiringApproval() []string {
	return slices.Clone(s.ApprovalCommands)
}

func (s *StaticSettings) MaxTurns() int {
	return s.Turns
}

func (s *StaticSettings) DefaultProvider() string {
	return s.Provider
}

func (s *StaticSettings) SelectedTools() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.selected)
}

func (s *StaticSettings) SaveSelectedTools(names []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = slices.Clone(names)
	if s.selected == nil {
		s.selected = []string{}
	}
	return nil
}

func maxTurns(s Settings) int {
	if n := s.MaxTurns(); n > 0 {
		return n
	}
	return DefaultMaxTurns
}
