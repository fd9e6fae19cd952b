package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("pw123")
	require.NoError(t, err)

	assert.NotEqual(t, "pw123", hash)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, PasswordCost, cost)

	again, err := HashPassword("pw123")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "salt should differ per hash")
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("secret")
	require.NoError(t, err)

	assert.True(t, CheckPassword("secret", hash))
	assert.False(t, CheckPassword("Secret", hash))
	assert.False(t, CheckPassword("secret", ""))
	assert.False(t, CheckPassword("secret", "not-a-hash"))
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	assert.Len(t, a, 32)
	assert.NotContains(t, a, "-")
	assert.NotEqual(t, a, b)
}
