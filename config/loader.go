package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// Dir is the settings directory name under the home and project directories.
	Dir = ".cellmate"
	// File is the settings file name.
	File = "config.yaml"
)

// FileSystem abstracts file access for testability.
type FileSystem interface {
	UserHomeDir() (string, error)
	Getwd() (string, error)
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte, perm os.FileMode) error
	MkdirAll(path string, perm os.FileMode) error
}

// OSFileSystem implements FileSystem with the os package.
type OSFileSystem struct{}

func (OSFileSystem) UserHomeDir() (string, error) { return os.UserHomeDir() }
func (OSFileSystem) Getwd() (string, error) { return os.Getwd() }
func (OSFileSystem) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }
func (OSFileSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}
func (OSFileSystem) WriteFile(path string, data []byte, perm os.FileMode) error {
	return os.WriteFile(path, data, perm)
}

// Loader reads and merges configuration files.
type Loader struct {
	fs    FileSystem
	extra []string
}

// NewLoader creates a Loader using the real filesystem.
func NewLoader() *Loader {
	return &Loader{fs: OSFileSystem{}}
}

// NewLoaderWithFS creates a Loader with a custom filesystem.
func NewLoaderWithFS(fs FileSystem) *Loader {
	return &Loader{fs: fs}
}

// WithFile adds a file read after the user and project files.
func (l *Loader) WithFile(path string) *Loader {
	l.extra = append(l.extra, path)
	return l
}

// Paths returns the files Load reads, in order.
func (l *Loader) Paths() []string {
	var paths []string
	if home, err := l.fs.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, Dir, File))
	}
	if wd, err := l.fs.Getwd(); err == nil {
		paths = append(paths, filepath.Join(wd, Dir, File))
	}
	return append(paths, l.extra...)
}

// Load decodes each existing file over Default in order and validates the
// result. Missing files are skipped; a file that exists but cannot be read
// or parsed is an error. Leading ~ in directory settings is expanded.
func (l *Loader) Load() (*Config, error) {
	cfg := Default()

	seen := make(map[string]bool)
	for _, path := range l.Paths() {
		if seen[path] {
			continue
		}
		seen[path] = true

		data, err := l.fs.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.SkillsDir = l.expandHome(cfg.SkillsDir)
	cfg.StateDir = l.expandHome(cfg.StateDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := l.fs.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// Load is a convenience function using the default loader.
func Load() (*Config, error) {
	return NewLoader().Load()
}
