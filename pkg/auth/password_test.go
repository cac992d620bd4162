package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPasswordHasherRejectsLowCost(t *testing.T) {
	_, err := NewPasswordHasher(4)
	assert.Error(t, err)

	_, err = NewPasswordHasher(MinBcryptCost)
	assert.NoError(t, err)
}

func TestHashAndVerify(t *testing.T) {
	hasher, err := NewPasswordHasher(MinBcryptCost)
	require.NoError(t, err)

	hash, err := hasher.Hash("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", hash)

	assert.True(t, hasher.Verify("hunter2", hash))
	assert.False(t, hasher.Verify("wrong", hash))
	assert.False(t, hasher.Verify("hunter2", "not-a-bcrypt-hash"))
}

func TestHashIsSalted(t *testing.T) {
	hasher, err := NewPasswordHasher(MinBcryptCost)
	require.NoError(t, err)

	first, err := hasher.Hash("hunter2")
	require.NoError(t, err)
	second, err := hasher.Hash("hunter2")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, hasher.Verify("hunter2", first))
	assert.True(t, hasher.Verify("hunter2", second))
}
