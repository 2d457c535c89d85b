package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAPIKey(t *testing.T) {
	key, err := GenerateAPIKey()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(key.Raw, KeyPrefix))
	assert.Len(t, key.Raw, len(KeyPrefix)+32)
	assert.Len(t, key.Prefix, ClearPrefixLen)
	assert.Equal(t, key.Raw[:ClearPrefixLen], key.Prefix)
	assert.NotContains(t, key.Hash, key.Raw)

	assert.True(t, CheckAPIKey(key.Hash, key.Raw))
	assert.False(t, CheckAPIKey(key.Hash, key.Raw+"x"))

	other, err := GenerateAPIKey()
	require.NoError(t, err)
	assert.NotEqual(t, key.Raw, other.Raw)
}

func TestKeyLookupPrefix(t *testing.T) {
	key, err := GenerateAPIKey()
	require.NoError(t, err)

	prefix, ok := KeyLookupPrefix(key.Raw)
	assert.True(t, ok)
	assert.Equal(t, key.Prefix, prefix)

	_, ok = KeyLookupPrefix("sk_live_whatever")
	assert.False(t, ok)
	_, ok = KeyLookupPrefix(KeyPrefix + "short")
	assert.False(t, ok)
}
