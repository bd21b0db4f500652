package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("my-password")
	require.NoError(t, err)
	assert.NotEqual(t, "my-password", hash)

	assert.True(t, VerifyPassword("my-password", hash))
	assert.False(t, VerifyPassword("other-password", hash))
	assert.False(t, VerifyPassword("my-password", "not-a-hash"))
}

func TestNewQRToken(t *testing.T) {
	first, err := NewQRToken()
	require.NoError(t, err)
	second, err := NewQRToken()
	require.NoError(t, err)

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}

func TestAPIKeys(t *testing.T) {
	key, err := NewAPIKey()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "sts_"))

	// The stored hash is deterministic, the key is not recoverable from it.
	hash := HashAPIKey(key)
	assert.Equal(t, hash, HashAPIKey(key))
	assert.Len(t, hash, 64)
	assert.NotContains(t, hash, "sts_")
}
