package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRegister_RoundTrip(t *testing.T) {
	svc, _, _, _, _, _ := setupService(t)

	token, err := svc.Register("alice")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	username, expiry, err := svc.VerifyJWT(token)
	assert.NoError(t, err)
	assert.Equal(t, "alice", username)
	assert.True(t, expiry.After(time.Now()))
}

func TestRegister_InvalidUsernames(t *testing.T) {
	svc, _, _, _, _, _ := setupService(t)

	for _, username := range []string{"", "ab", "has space", "way-too-long-for-a-username-here", "emoji🎨"} {
		_, err := svc.Register(username)
		assert.Error(t, err, "expected rejection for %q", username)
	}
}

func TestRegister_ValidUsernames(t *testing.T) {
	svc, _, _, _, _, _ := setupService(t)

	for _, username := range []string{"bob", "alice_2", "User-Name", "abc"} {
		_, err := svc.Register(username)
		assert.NoError(t, err, "expected acceptance for %q", username)
	}
}

func TestVerifyJWT_WrongSecret(t *testing.T) {
	svc, _, _, _, _, _ := setupService(t)
	other, _, _, _, _, _ := setupService(t)
	other.JWTSecret = []byte("different")

	token, err := svc.CreateJWT("alice")
	assert.NoError(t, err)

	_, _, err = other.VerifyJWT(token)
	assert.Error(t, err)
}

func TestVerifyJWT_Garbage(t *testing.T) {
	svc, _, _, _, _, _ := setupService(t)

	_, _, err := svc.VerifyJWT("not.a.token")
	assert.Error(t, err)
}

func TestAuthenticateToken_Empty(t *testing.T) {
	svc, _, _, _, _, _ := setupService(t)

	_, err := svc.AuthenticateToken("")
	assert.Error(t, err)
}
