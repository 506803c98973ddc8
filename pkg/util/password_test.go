package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("owner-password")
	require.NoError(t, err)
	assert.NotEqual(t, "owner-password", hash)

	assert.True(t, VerifyPassword(hash, "owner-password"))
	assert.False(t, VerifyPassword(hash, "other-password"))
	assert.False(t, VerifyPassword("not-a-hash", "owner-password"))
}
