// Package skill loads reusable instruction bundles from disk.
//
// A skill is a directory holding a SKILL.md file with YAML front matter
// (name and description) followed by Markdown instructions. Any other files
// in the directory are resources the model can read on demand.
//
//	skills/
//	  plot-data/
//	    SKILL.md
//	    templates/line.py
package skill

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// FileName is the manifest file that marks a directory as a skill.
const FileName = "SKILL.md"

var (
	// ErrSkillNotFound is returned when no skill has the requested name.
	ErrSkillNotFound = errors.New("skill: not found")
	// ErrResourceNotFound is returned when a skill has no such resource.
	ErrResourceNotFound = errors.New("skill: resource not found")
	// ErrInvalidPath is returned for resource paths that leave the skill directory.
	ErrInvalidPath = errors.New("skill: invalid resource path")
)

// Summary is the short form of a skill listed in the system prompt.
type Summary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Skill is a fully loaded skill.
type Skill struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Instructions string   `json:"instructions"`
	Resources    []string `json:"resources"`
	dir          string
}

// Summary returns the name and description of s.
func (s Skill) Summary() Summary {
	return Summary{Name: s.Name, Description: s.Description}
}

type frontMatter struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Library is a loaded collection of skills. It is safe for concurrent use.
type Library struct {
	fsys fs.FS

	mu     sync.RWMutex
	byName map[string]Skill
}

// LoadDir loads skills from a directory on disk. A missing directory yields
// an empty library.
func LoadDir(dir string) (*Library, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return Empty(), nil
	}
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Empty(), nil
		}
		return nil, fmt.Errorf("stat skills dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("skills dir %s is not a directory", dir)
	}
	return Load(os.DirFS(dir))
}

// Empty returns a library with no skills.
func Empty() *Library {
	return &Library{byName: map[string]Skill{}}
}

// Load loads every skill found one level below the root of fsys.
func Load(fsys fs.FS) (*Library, error) {
	l := &Library{fsys: fsys}
	if err := l.Reload(); err != nil {
		return nil, err
	}
	return l, nil
}

// Reload rescans the library's file system.
func (l *Library) Reload() error {
	if l.fsys == nil {
		return nil
	}
	manifests, err := doublestar.Glob(l.fsys, "*/"+FileName)
	if err != nil {
		return fmt.Errorf("discover skills: %w", err)
	}
	sort.Strings(manifests)

	byName := make(map[string]Skill, len(manifests))
	for _, manifest := range manifests {
		s, err := parse(l.fsys, manifest)
		if err != nil {
			return err
		}
		key := NormalizeName(s.Name)
		if _, exists := byName[key]; exists {
			return fmt.Errorf("duplicate skill name %q in %s", key, manifest)
		}
		byName[key] = s
	}

	l.mu.Lock()
	l.byName = byName
	l.mu.Unlock()
	return nil
}

func parse(fsys fs.FS, manifest string) (Skill, error) {
	data, err := fs.ReadFile(fsys, manifest)
	if err != nil {
		return Skill{}, fmt.Errorf("read skill %s: %w", manifest, err)
	}
	content := strings.ReplaceAll(string(data), "\r\n", "\n")

	metaText, body, ok := splitFrontMatter(content)
	if !ok {
		return Skill{}, fmt.Errorf("skill %s missing front matter", manifest)
	}
	var meta frontMatter
	if err := yaml.Unmarshal([]byte(metaText), &meta); err != nil {
		return Skill{}, fmt.Errorf("parse skill front matter %s: %w", manifest, err)
	}
	if strings.TrimSpace(meta.Name) == "" {
		return Skill{}, fmt.Errorf("skill %s missing name front matter", manifest)
	}
	if strings.TrimSpace(meta.Description) == "" {
		return Skill{}, fmt.Errorf("skill %s missing description front matter", manifest)
	}

	dir := path.Dir(manifest)
	resources, err := listResources(fsys, dir)
	if err != nil {
		return Skill{}, err
	}

	return Skill{
		Name:         strings.TrimSpace(meta.Name),
		Description:  strings.TrimSpace(meta.Description),
		Instructions: strings.TrimSpace(body),
		Resources:    resources,
		dir:          dir,
	}, nil
}

func listResources(fsys fs.FS, dir string) ([]string, error) {
	matches, err := doublestar.Glob(fsys, dir+"/**")
	if err != nil {
		return nil, fmt.Errorf("list resources of %s: %w", dir, err)
	}
	var out []string
	for _, m := range matches {
		rel := strings.TrimPrefix(m, dir+"/")
		if m == dir || rel == FileName {
			continue
		}
		info, err := fs.Stat(fsys, m)
		if err != nil || info.IsDir() {
			continue
		}
		out = append(out, rel)
	}
	sort.Strings(out)
	return out, nil
}

func splitFrontMatter(content string) (string, string, bool) {
	lines := strings.Split(content, "\n")
	if len(lines) < 3 || strings.TrimSpace(lines[0]) != "---" {
		return "", content, false
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return strings.Join(lines[1:i], "\n"), strings.Join(lines[i+1:], "\n"), true
		}
	}
	return "", content, false
}

// NormalizeName normalizes a skill name for lookups.
func NormalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.Join(strings.Fields(strings.ReplaceAll(name, "_", "-")), "-")
}

// ListSkills returns summaries of skills whose name or description contains
// query, case-insensitively, sorted by name. An empty query lists everything.
func (l *Library) ListSkills(query string) []Summary {
	q := strings.ToLower(strings.TrimSpace(query))

	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Summary, 0, len(l.byName))
	for _, s := range l.byName {
		if q != "" &&
			!strings.Contains(strings.ToLower(s.Name), q) &&
			!strings.Contains(strings.ToLower(s.Description), q) {
			continue
		}
		out = append(out, s.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// GetSkill returns the named skill.
func (l *Library) GetSkill(name string) (Skill, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s, ok := l.byName[NormalizeName(name)]
	if !ok {
		return Skill{}, false
	}
	s.Resources = append([]string(nil), s.Resources...)
	return s, true
}

// GetResource reads one resource file of the named skill. resourcePath is
// relative to the skill directory.
func (l *Library) GetResource(name, resourcePath string) (string, error) {
	s, ok := l.GetSkill(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrSkillNotFound, name)
	}
	clean := path.Clean(strings.TrimPrefix(resourcePath, "./"))
	if !fs.ValidPath(clean) || clean == "." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, resourcePath)
	}

	found := false
	for _, r := range s.Resources {
		if r == clean {
			found = true
			break
		}
	}
	if !found {
		return "", fmt.Errorf("%w: %s/%s", ErrResourceNotFound, s.Name, clean)
	}

	data, err := fs.ReadFile(l.fsys, path.Join(s.dir, clean))
	if err != nil {
		return "", fmt.Errorf("read resource %s/%s: %w", s.Name, clean, err)
	}
	return string(data), nil
}

// MatchResources returns the resources of the named skill that match a
// doublestar pattern such as "templates/**/*.py".
func (l *Library) MatchResources(name, pattern string) ([]string, error) {
	s, ok := l.GetSkill(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSkillNotFound, name)
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("skill: bad pattern %q", pattern)
	}
	var out []string
	for _, r := range s.Resources {
		if ok, _ := doublestar.Match(pattern, r); ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// Len returns the number of loaded skills.
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.byName)
}
