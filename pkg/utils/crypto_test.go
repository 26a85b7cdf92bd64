package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeAddress(t *testing.T) {
	raw, err := DecodeAddress("11111111111111111111111111111111")
	require.NoError(t, err)
	assert.Len(t, raw, PublicKeyLength)
	assert.Equal(t, make([]byte, 32), raw)

	assert.True(t, IsValidAddress("SysvarRent111111111111111111111111111111111"))
	assert.False(t, IsValidAddress("not-base58-0OIl"))
	assert.False(t, IsValidAddress("abc"))
}

func TestShortSignature(t *testing.T) {
	assert.Equal(t, "abc", ShortSignature("abc"))
	assert.Equal(t, "5xYzAb...9kLm", ShortSignature("5xYzAbCdEfGhIjK9kLm"))
}

func TestGenerateIDUnique(t *testing.T) {
	assert.NotEqual(t, GenerateID(), GenerateID())
}
