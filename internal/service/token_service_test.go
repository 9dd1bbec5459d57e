package service

import (
	"testing"
	"time"

	"casino-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTTokenService_GenerateAndValidate(t *testing.T) {
	svc := NewJWTTokenService("test-secret-key", time.Hour, "casino-ledger")
	userID := uuid.New()

	token, expiry, err := svc.Generate(userID, domain.RoleAdmin)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiry, 5*time.Second)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
}

func TestJWTTokenService_Validate_WrongSecret(t *testing.T) {
	svc := NewJWTTokenService("secret-a", time.Hour, "casino-ledger")
	other := NewJWTTokenService("secret-b", time.Hour, "casino-ledger")

	token, _, err := svc.Generate(uuid.New(), domain.RolePlayer)
	require.NoError(t, err)

	claims, err := other.Validate(token)
	assert.Nil(t, claims)
	assert.Error(t, err)
}

func TestJWTTokenService_Validate_Expired(t *testing.T) {
	svc := NewJWTTokenService("test-secret-key", -time.Minute, "casino-ledger")

	token, _, err := svc.Generate(uuid.New(), domain.RolePlayer)
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	assert.Nil(t, claims)
	assert.Error(t, err)
}

func TestJWTTokenService_Validate_Garbage(t *testing.T) {
	svc := NewJWTTokenService("test-secret-key", time.Hour, "casino-ledger")

	claims, err := svc.Validate("not.a.jwt")
	assert.Nil(t, claims)
	assert.Error(t, err)
}
