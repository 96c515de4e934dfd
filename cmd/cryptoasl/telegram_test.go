package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/cryptoasl/internal/appconfig"
)

func TestAuthenticateTelegramChat_NoSecretIsUnauthenticated(t *testing.T) {
	session, err := authenticateTelegramChat(&appconfig.Config{})
	require.NoError(t, err)
	assert.False(t, session.authenticated)
}

func TestAuthenticateTelegramChat_ChatIDIssuesAValidatableSession(t *testing.T) {
	cfg := &appconfig.Config{
		TelegramSecret:     "test-secret",
		TelegramChatID:     12345,
		TelegramSessionTTL: time.Minute,
	}
	session, err := authenticateTelegramChat(cfg)
	require.NoError(t, err)
	assert.True(t, session.authenticated)
	assert.Equal(t, int64(12345), session.chatID)
	require.NotEmpty(t, session.issuedToken)

	validated, err := authenticateTelegramChat(&appconfig.Config{
		TelegramSecret:  "test-secret",
		TelegramSession: session.issuedToken,
	})
	require.NoError(t, err)
	assert.True(t, validated.authenticated)
	assert.Equal(t, int64(12345), validated.chatID)
	assert.Empty(t, validated.issuedToken)
}

func TestAuthenticateTelegramChat_WrongSecretFailsValidation(t *testing.T) {
	cfg := &appconfig.Config{
		TelegramSecret: "secret-a",
		TelegramChatID: 1,
	}
	session, err := authenticateTelegramChat(cfg)
	require.NoError(t, err)

	_, err = authenticateTelegramChat(&appconfig.Config{
		TelegramSecret:  "secret-b",
		TelegramSession: session.issuedToken,
	})
	require.Error(t, err)
}
