package utils

import (
	"testing"
	"time"

	"postboard/internal/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	config.GlobalConfig.JWT.Secret = "0123456789abcdef0123456789abcdef"
	config.GlobalConfig.JWT.Expire = 1

	token, expireAt, err := GenerateToken("user-1", "admin@example.com")
	require.NoError(t, err)
	require.NotNil(t, expireAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), *expireAt, 5*time.Second)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "admin@example.com", claims.Email)
	assert.NotEmpty(t, claims.ID)
}

func TestParseTokenRejectsForeignSecret(t *testing.T) {
	config.GlobalConfig.JWT.Secret = "0123456789abcdef0123456789abcdef"
	token, _, err := GenerateToken("user-1", "a@b.c")
	require.NoError(t, err)

	config.GlobalConfig.JWT.Secret = "fedcba9876543210fedcba9876543210"
	_, err = ParseToken(token)
	assert.Error(t, err)
}
