package skill

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	ai "github.com/spetersoncode/cellmate"
	"github.com/spetersoncode/cellmate/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const plotSkill = `---
name: plot-data
description: Draw charts from dataframes
---
# Plotting

Use matplotlib and label every axis.
`

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"plot-data/SKILL.md":               {Data: []byte(plotSkill)},
		"plot-data/templates/line.py":      {Data: []byte("plt.plot(x, y)\n")},
		"plot-data/templates/bar/basic.py": {Data: []byte("plt.bar(x, y)\n")},
		"clean-data/SKILL.md": {Data: []byte(`---
name: clean_data
description: Remove duplicate rows
---
Call drop_duplicates.
`)},
		"notes.md": {Data: []byte("not a skill")},
	}
}

func TestLoad(t *testing.T) {
	lib, err := Load(testFS())
	require.NoError(t, err)
	assert.Equal(t, 2, lib.Len())

	s, ok := lib.GetSkill("plot-data")
	require.True(t, ok)
	assert.Equal(t, "Draw charts from dataframes", s.Description)
	assert.Equal(t, "# Plotting\n\nUse matplotlib and label every axis.", s.Instructions)
	assert.Equal(t, []string{"templates/bar/basic.py", "templates/line.py"}, s.Resources)

	_, ok = lib.GetSkill("Clean Data")
	assert.True(t, ok, "lookup normalizes case, spaces and underscores")
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		fsys fstest.MapFS
	}{
		{"missing front matter", fstest.MapFS{"a/SKILL.md": {Data: []byte("# no meta\n")}}},
		{"missing description", fstest.MapFS{"a/SKILL.md": {Data: []byte("---\nname: a\n---\nbody\n")}}},
		{"bad yaml", fstest.MapFS{"a/SKILL.md": {Data: []byte("---\nname: [\n---\nbody\n")}}},
		{"duplicate names", fstest.MapFS{
			"a/SKILL.md": {Data: []byte("---\nname: x\ndescription: d\n---\n")},
			"b/SKILL.md": {Data: []byte("---\nname: X\ndescription: d\n---\n")},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.fsys)
			assert.Error(t, err)
		})
	}
}

func TestLoadDir(t *testing.T) {
	t.Run("missing directory is empty", func(t *testing.T) {
		lib, err := LoadDir(filepath.Join(t.TempDir(), "nope"))
		require.NoError(t, err)
		assert.Equal(t, 0, lib.Len())
		assert.Empty(t, lib.ListSkills(""))
	})

	t.Run("reads skills from disk", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "plot-data"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "plot-data", FileName), []byte(plotSkill), 0o644))

		lib, err := LoadDir(dir)
		require.NoError(t, err)
		assert.Equal(t, []Summary{{Name: "plot-data", Description: "Draw charts from dataframes"}}, lib.ListSkills(""))
	})

	t.Run("file instead of directory", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "skills")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
		_, err := LoadDir(file)
		assert.Error(t, err)
	})
}

func TestListSkills(t *testing.T) {
	lib, err := Load(testFS())
	require.NoError(t, err)

	all := lib.ListSkills("")
	require.Len(t, all, 2)
	assert.Equal(t, "clean_data", all[0].Name)
	assert.Equal(t, "plot-data", all[1].Name)

	assert.Equal(t, []Summary{{Name: "plot-data", Description: "Draw charts from dataframes"}}, lib.ListSkills("CHART"))
	assert.Empty(t, lib.ListSkills("spreadsheet"))
}

func TestGetResource(t *testing.T) {
	lib, err := Load(testFS())
	require.NoError(t, err)

	content, err := lib.GetResource("plot-data", "./templates/line.py")
	require.NoError(t, err)
	assert.Equal(t, "plt.plot(x, y)\n", content)

	_, err = lib.GetResource("plot-data", "../clean-data/SKILL.md")
	assert.ErrorIs(t, err, ErrInvalidPath)

	_, err = lib.GetResource("plot-data", "SKILL.md")
	assert.ErrorIs(t, err, ErrResourceNotFound)

	_, err = lib.GetResource("missing", "a.txt")
	assert.ErrorIs(t, err, ErrSkillNotFound)
}

func TestMatchResources(t *testing.T) {
	lib, err := Load(testFS())
	require.NoError(t, err)

	got, err := lib.MatchResources("plot-data", "templates/**/*.py")
	require.NoError(t, err)
	assert.Equal(t, []string{"templates/bar/basic.py", "templates/line.py"}, got)

	got, err = lib.MatchResources("plot-data", "templates/*.py")
	require.NoError(t, err)
	assert.Equal(t, []string{"templates/line.py"}, got)

	_, err = lib.MatchResources("plot-data", "[")
	assert.Error(t, err)
}

func TestTools(t *testing.T) {
	lib, err := Load(testFS())
	require.NoError(t, err)
	registry := tool.NewRegistry().Add(Tools(lib)...)

	result, err := registry.Execute(context.Background(), ai.ToolCall{
		ID:        "c1",
		Name:      "load_skill",
		Arguments: `{"name":"plot-data"}`,
	})
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, result.Content, "Use matplotlib")
	assert.Contains(t, result.Content, "- templates/line.py")

	result, err = registry.Execute(context.Background(), ai.ToolCall{
		ID:        "c2",
		Name:      "read_skill_resource",
		Arguments: `{"name":"plot-data","path":"templates/line.py"}`,
	})
	require.NoError(t, err)
	assert.Equal(t, "plt.plot(x, y)\n", result.Content)

	result, err = registry.Execute(context.Background(), ai.ToolCall{
		ID:        "c3",
		Name:      "load_skill",
		Arguments: `{"name":"nope"}`,
	})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}
