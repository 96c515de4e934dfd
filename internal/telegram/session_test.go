package telegram

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndValidate_RoundTrips(t *testing.T) {
	m := NewSessionManager([]byte("test-secret"))

	token, err := m.Issue(12345, time.Minute)
	require.NoError(t, err)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.EqualValues(t, 12345, claims.ChatID)
}

func TestValidate_RejectsExpiredToken(t *testing.T) {
	m := NewSessionManager([]byte("test-secret"))

	token, err := m.Issue(1, -time.Minute)
	require.NoError(t, err)

	_, err = m.Validate(token)
	require.Error(t, err)
}

func TestValidate_RejectsWrongSecret(t *testing.T) {
	issuer := NewSessionManager([]byte("secret-a"))
	verifier := NewSessionManager([]byte("secret-b"))

	token, err := issuer.Issue(1, time.Minute)
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	require.Error(t, err)
}
