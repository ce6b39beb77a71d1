package services

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_CreateUser(t *testing.T) {
	svc := NewUserService("secret", 0)
	require.True(t, svc.Enabled())

	user, err := svc.CreateUser()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(user.ID, "user_"))

	userID, err := svc.ValidateJWT(user.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
}

func TestUserService_ValidateJWT(t *testing.T) {
	svc := NewUserService("secret", time.Hour)
	token, err := svc.GenerateJWT("user_1")
	require.NoError(t, err)

	_, err = NewUserService("other-secret", time.Hour).ValidateJWT(token)
	assert.Error(t, err)

	_, err = svc.ValidateJWT("not-a-token")
	assert.Error(t, err)

	expired := NewUserService("secret", time.Hour)
	expired.tokenTTL = -time.Hour
	stale, err := expired.GenerateJWT("user_1")
	require.NoError(t, err)
	_, err = svc.ValidateJWT(stale)
	assert.Error(t, err)
}

func TestUserService_Disabled(t *testing.T) {
	svc := NewUserService("", 0)
	assert.False(t, svc.Enabled())
	_, err := svc.CreateUser()
	assert.Error(t, err)
}
