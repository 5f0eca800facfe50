package authentication

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestTokensRoundTrip(t *testing.T) {
	keyring.MockInit()

	_, err := GetTokens()
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	creds := &StoredCredentials{AccessToken: "a", RefreshToken: "r", Username: "alice", ExpiresAt: 42}
	require.NoError(t, StoreTokens(creds))

	got, err := GetTokens()
	require.NoError(t, err)
	assert.Equal(t, creds, got)

	require.NoError(t, DeleteTokens())
	require.NoError(t, DeleteTokens())
	_, err = GetTokens()
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestStoredCredentials_Expired(t *testing.T) {
	now := time.Unix(1000, 0)
	assert.False(t, (&StoredCredentials{}).Expired(now))
	assert.False(t, (&StoredCredentials{ExpiresAt: 1001}).Expired(now))
	assert.True(t, (&StoredCredentials{ExpiresAt: 1000}).Expired(now))
}
