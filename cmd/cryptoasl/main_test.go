package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_ShouldExit(t *testing.T) {
	out := &bytes.Buffer{}

	err := run(out, []string{"-h"})

	require.NoError(t, err)
	assert.Contains(t, out.String(), "Usage:")
}

func TestRun_ParseError(t *testing.T) {
	out := &bytes.Buffer{}

	err := run(out, []string{"--this-is-not-a-valid-flag"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "flag provided but not defined")
}

func TestRun_DefinitionPathMode_InterpretsAndPrintsResult(t *testing.T) {
	dir := t.TempDir()
	defPath := filepath.Join(dir, "definition.json")
	require.NoError(t, os.WriteFile(defPath, []byte(`{
		"StartAt": "Greet",
		"States": {
			"Greet": {
				"Type": "Pass",
				"Result": "hello crypto",
				"End": true
			}
		}
	}`), 0o600))

	storePath := filepath.Join(dir, "history.db")
	out := &bytes.Buffer{}

	err := run(out, []string{"-store-path", storePath, defPath})

	require.NoError(t, err)
	assert.Contains(t, out.String(), "hello crypto")
	assert.Contains(t, out.String(), "recorded outputs")
}
