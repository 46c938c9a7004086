package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/groundhog/internal/store"
)

func writeLoadBundle(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	bundlePath := filepath.Join(tmpDir, "bundle.cue")
	require.NoError(t, os.WriteFile(bundlePath, []byte(content), 0644))
	return bundlePath
}

func TestLoadBundleIntoDatabase(t *testing.T) {
	bundlePath := writeLoadBundle(t, `
graph: facts: [
	["Inheritance", ["Concept", "cat"], ["Concept", "animal"]],
	["Inheritance", ["Concept", "dog"], ["Concept", "animal"]],
]
`)
	dbPath := filepath.Join(t.TempDir(), "facts.db")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewLoadCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--db", dbPath, bundlePath})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	// Two links plus three distinct concepts
	assert.Contains(t, output, "✓ Loaded 2 fact(s) (5 term(s))")
	assert.Contains(t, output, dbPath)
	assert.Contains(t, output, "Database now holds 5 term(s)")

	// Reopen the database and verify the terms persisted
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	count, err := st.CountTerms(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	g, err := st.LoadGraph(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, g.Len())
}

func TestLoadIsIdempotent(t *testing.T) {
	bundlePath := writeLoadBundle(t, `
graph: facts: [
	["Member", ["Concept", "rex"], ["Concept", "dogs"]],
]
`)
	dbPath := filepath.Join(t.TempDir(), "facts.db")

	for i := 0; i < 2; i++ {
		buf := &bytes.Buffer{}
		rootOpts := &RootOptions{Format: "text"}
		cmd := NewLoadCommand(rootOpts)
		cmd.SetOut(buf)
		cmd.SetErr(buf)
		cmd.SetArgs([]string{"--db", dbPath, bundlePath})

		err := cmd.Execute()
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "Database now holds 3 term(s)")
	}
}

func TestLoadMergesBundles(t *testing.T) {
	first := writeLoadBundle(t, `
graph: facts: [
	["Inheritance", ["Concept", "cat"], ["Concept", "animal"]],
	["Inheritance", ["Concept", "dog"], ["Concept", "animal"]],
]
`)
	second := writeLoadBundle(t, `
graph: facts: [
	["Inheritance", ["Concept", "fish"], ["Concept", "animal"]],
]
`)
	dbPath := filepath.Join(t.TempDir(), "facts.db")

	for _, bundlePath := range []string{first, second} {
		buf := &bytes.Buffer{}
		rootOpts := &RootOptions{Format: "text"}
		cmd := NewLoadCommand(rootOpts)
		cmd.SetOut(buf)
		cmd.SetErr(buf)
		cmd.SetArgs([]string{"--db", dbPath, bundlePath})
		require.NoError(t, cmd.Execute())
	}

	// Shared (Concept animal) is stored once across both loads
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	count, err := st.CountTerms(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, count)
}

func TestLoadJSONOutput(t *testing.T) {
	bundlePath := writeLoadBundle(t, `
graph: facts: [
	["Member", ["Concept", "rex"], ["Concept", "dogs"]],
]
`)
	dbPath := filepath.Join(t.TempDir(), "facts.db")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewLoadCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--db", dbPath, bundlePath})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	dataMap, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(1), dataMap["facts"])
	assert.Equal(t, float64(3), dataMap["terms"])
	assert.Equal(t, float64(3), dataMap["total_terms"])
	assert.Equal(t, dbPath, dataMap["database"])
}

func TestLoadMissingDatabaseFlag(t *testing.T) {
	bundlePath := writeLoadBundle(t, `
graph: facts: [["Member", ["Concept", "rex"], ["Concept", "dogs"]]]
`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewLoadCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{bundlePath}) // Missing --db flag

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
	assert.Contains(t, err.Error(), "db")
}

func TestLoadCompileError(t *testing.T) {
	bundlePath := writeLoadBundle(t, `
graph: facts: [["Bogus", "x"]]
`)
	dbPath := filepath.Join(t.TempDir(), "facts.db")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewLoadCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--db", dbPath, bundlePath})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "Bogus")

	// Nothing should have been written
	_, statErr := os.Stat(dbPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestLoadNonExistentBundle(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "facts.db")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewLoadCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--db", dbPath, "/nonexistent/bundle.cue"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "not found")
}
