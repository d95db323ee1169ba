package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	hash, err := auth.HashPassword("secret1", 4)
	require.NoError(t, err)

	active := account("sam", acmeID, domain.RoleSupport)
	active.PasswordHash = hash
	retired := account("old", acmeID, domain.RoleUser)
	retired.PasswordHash = hash
	retired.IsActive = false

	svc := NewAuthService(config.AuthConfig{JWTSecret: "test-secret", Issuer: "helpdesk", AccessTokenTTLMinutes: 30}, newFakeUsers(active, retired), nil)

	result, err := svc.Login(ctx, " SAM@example.test ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "sam", result.Account.ID)
	assert.NotEmpty(t, result.Token)

	claims, err := svc.TokenManager().ParseToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, "sam", claims.Subject)
	assert.Equal(t, []string{"Support"}, claims.Roles)

	for name, creds := range map[string][2]string{
		"wrong password": {"sam@example.test", "nope"},
		"unknown email":  {"ghost@example.test", "secret1"},
		"inactive":       {"old@example.test", "secret1"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Login(ctx, creds[0], creds[1])
			requireCode(t, err, apperrors.CodeUnauthorized)
			assert.Contains(t, err.Error(), "invalid credentials")
		})
	}
}
