package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_RequiresPathOrAsk(t *testing.T) {
	out := &bytes.Buffer{}
	cfg, shouldExit, err := Parse(nil, out)
	require.NoError(t, err)
	assert.True(t, shouldExit)
	assert.Nil(t, cfg)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParse_DefinitionPathMode(t *testing.T) {
	out := &bytes.Buffer{}
	cfg, shouldExit, err := Parse([]string{"definition.json"}, out)
	require.NoError(t, err)
	assert.False(t, shouldExit)
	require.NotNil(t, cfg)
	assert.Equal(t, "definition.json", cfg.DefinitionPath)
	assert.Empty(t, cfg.Ask)
}

func TestParse_AskModeSkipsDefinitionPath(t *testing.T) {
	out := &bytes.Buffer{}
	cfg, shouldExit, err := Parse([]string{"-ask", "how is bitcoin doing?"}, out)
	require.NoError(t, err)
	assert.False(t, shouldExit)
	require.NotNil(t, cfg)
	assert.Equal(t, "how is bitcoin doing?", cfg.Ask)
	assert.Empty(t, cfg.DefinitionPath)
}

func TestParse_InvalidLogFormat(t *testing.T) {
	out := &bytes.Buffer{}
	_, _, err := Parse([]string{"-log-format", "xml", "definition.json"}, out)
	require.Error(t, err)
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

func TestParse_UnknownFlag(t *testing.T) {
	out := &bytes.Buffer{}
	_, _, err := Parse([]string{"--not-a-flag"}, out)
	require.Error(t, err)
}

func TestParse_TelegramChatIDRequiresSecret(t *testing.T) {
	out := &bytes.Buffer{}
	_, _, err := Parse([]string{"-ask", "q", "-telegram-chat-id", "42"}, out)
	require.Error(t, err)
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
}

func TestParse_TelegramSessionFields(t *testing.T) {
	out := &bytes.Buffer{}
	cfg, shouldExit, err := Parse([]string{
		"-ask", "q",
		"-telegram-secret", "s3cr3t",
		"-telegram-chat-id", "42",
		"-telegram-session-ttl", "30s",
	}, out)
	require.NoError(t, err)
	assert.False(t, shouldExit)
	require.NotNil(t, cfg)
	assert.Equal(t, "s3cr3t", cfg.TelegramSecret)
	assert.Equal(t, int64(42), cfg.TelegramChatID)
	assert.Equal(t, 30*time.Second, cfg.TelegramSessionTTL)
}
