package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/groundhog/internal/compiler"
)

func TestValidateValidBundle(t *testing.T) {
	tmpDir := t.TempDir()

	bundle := `
graph: facts: [["Inheritance", ["Concept", "cat"], ["Concept", "animal"]]]

queries: animals: {
	vars: ["$x"]
	find: [["Inheritance", "$x", ["Concept", "animal"]]]
}
`
	bundlePath := filepath.Join(tmpDir, "bundle.cue")
	err := os.WriteFile(bundlePath, []byte(bundle), 0644)
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{bundlePath})

	err = cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "✓ Bundle valid")
}

func TestValidateValidBundleJSON(t *testing.T) {
	tmpDir := t.TempDir()

	bundle := `
graph: facts: [["Member", ["Concept", "a"], ["Concept", "b"]]]

queries: members: {
	vars: ["$x"]
	find: [["Member", "$x", ["Concept", "b"]]]
}
`
	bundlePath := filepath.Join(tmpDir, "bundle.cue")
	err := os.WriteFile(bundlePath, []byte(bundle), 0644)
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{bundlePath})

	err = cmd.Execute()
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)

	dataMap, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, dataMap["valid"])
}

func TestValidateNonGroundFact(t *testing.T) {
	tmpDir := t.TempDir()

	bundle := `
graph: facts: [["Member", "$x", ["Concept", "b"]]]

queries: members: {
	vars: ["$y"]
	find: [["Member", "$y", ["Concept", "b"]]]
}
`
	bundlePath := filepath.Join(tmpDir, "bundle.cue")
	err := os.WriteFile(bundlePath, []byte(bundle), 0644)
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{bundlePath})

	err = cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	output := buf.String()
	assert.Contains(t, output, "✗ Validation failed")
	assert.Contains(t, output, compiler.ErrFactNotGround)
	assert.Contains(t, output, "ground")
}

func TestValidateDuplicateVariable(t *testing.T) {
	tmpDir := t.TempDir()

	bundle := `
queries: members: {
	vars: ["$x", "$x"]
	find: [["Member", "$x", ["Concept", "b"]]]
}
`
	bundlePath := filepath.Join(tmpDir, "bundle.cue")
	err := os.WriteFile(bundlePath, []byte(bundle), 0644)
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{bundlePath})

	err = cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, buf.String(), compiler.ErrQueryDuplicateVariable)
	assert.Contains(t, buf.String(), "duplicate variable")
}

func TestValidateCollectsAllErrors(t *testing.T) {
	tmpDir := t.TempDir()

	// Two independent problems: a non-ground fact and an unused variable
	bundle := `
graph: facts: [["Member", "$x", ["Concept", "b"]]]

queries: members: {
	vars: ["$y", "$z"]
	find: [["Member", "$y", ["Concept", "b"]]]
}
`
	bundlePath := filepath.Join(tmpDir, "bundle.cue")
	err := os.WriteFile(bundlePath, []byte(bundle), 0644)
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{bundlePath})

	err = cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 error(s)")

	output := buf.String()
	assert.Contains(t, output, compiler.ErrFactNotGround)
	assert.Contains(t, output, compiler.ErrQueryUnusedVariable)
}

func TestValidateErrorsJSON(t *testing.T) {
	tmpDir := t.TempDir()

	bundle := `
graph: facts: [["Member", "$x", ["Concept", "b"]]]
`
	bundlePath := filepath.Join(tmpDir, "bundle.cue")
	err := os.WriteFile(bundlePath, []byte(bundle), 0644)
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{bundlePath})

	err = cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	jsonErr := json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, jsonErr)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, compiler.ErrFactNotGround, resp.Error.Code)

	dataMap, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, false, dataMap["valid"])
	errs, ok := dataMap["errors"].([]interface{})
	require.True(t, ok)
	assert.Len(t, errs, 1)
}

func TestValidateEmptyDocument(t *testing.T) {
	tmpDir := t.TempDir()

	bundlePath := filepath.Join(tmpDir, "bundle.cue")
	err := os.WriteFile(bundlePath, []byte("other: 1"), 0644)
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{bundlePath})

	err = cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "neither")
}

func TestValidateNonExistentPath(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"/nonexistent/bundle.cue"})

	err := cmd.Execute()
	require.Error(t, err)
	// A missing path is a command error, not a validation failure
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "E005")
}

func TestValidateReportsLineNumbers(t *testing.T) {
	tmpDir := t.TempDir()

	bundle := `queries: members: {
	vars: ["$x", "$unused"]
	find: [["Member", "$x", ["Concept", "b"]]]
}
`
	bundlePath := filepath.Join(tmpDir, "bundle.cue")
	err := os.WriteFile(bundlePath, []byte(bundle), 0644)
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{bundlePath})

	err = cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, buf.String(), "line ")
}

func TestValidateBundlePathHelper(t *testing.T) {
	tmpDir := t.TempDir()

	bundle := `
graph: facts: [["Member", "$x", ["Concept", "b"]]]
`
	bundlePath := filepath.Join(tmpDir, "bundle.cue")
	err := os.WriteFile(bundlePath, []byte(bundle), 0644)
	require.NoError(t, err)

	errs, err := ValidateBundlePath(bundlePath)
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, compiler.ErrFactNotGround, errs[0].Code)

	_, err = ValidateBundlePath("/nonexistent/bundle.cue")
	require.Error(t, err)
}
