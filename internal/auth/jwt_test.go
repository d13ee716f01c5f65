package auth

import (
	"testing"
	"time"

	"lab-service/internal/domain/principal"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "k3J9xq2LmP0vR8sT4wY6zA1bC5dE7fG9"

func testPrincipal(role principal.Role) *principal.Principal {
	return &principal.Principal{
		ID:       uuid.New(),
		Email:    "user@lab.example",
		FullName: "User",
		Role:     role,
		IsActive: true,
	}
}

func TestJWTService_GenerateAndVerify(t *testing.T) {
	svc := NewJWTService(testSecret, time.Hour)
	p := testPrincipal(principal.RoleSupervisor)

	token, expiresAt, err := svc.Generate(p)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, p.ID, claims.PrincipalID)
	assert.Equal(t, p.Email, claims.Email)
	assert.Equal(t, principal.RoleSupervisor, claims.Role)
	assert.Equal(t, p.ID.String(), claims.Subject)
}

func TestJWTService_Verify_Rejects(t *testing.T) {
	svc := NewJWTService(testSecret, time.Hour)
	token, _, err := svc.Generate(testPrincipal(principal.RoleEngineer))
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTService("another-secret-of-sufficient-size!", time.Hour)
		_, err := other.Verify(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		expired := NewJWTService(testSecret, time.Minute)
		expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		old, _, err := expired.Generate(testPrincipal(principal.RoleEngineer))
		require.NoError(t, err)

		_, err = svc.Verify(old)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.Verify("not.a.token")
		assert.Error(t, err)
	})
}
