package service

import (
	"context"
	"testing"
	"time"

	"ascend/physique-app/internal/domain"
	"ascend/physique-app/internal/store"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret-not-for-production"

func newTestAuthService(t *testing.T) (AuthService, *store.Store) {
	t.Helper()
	kv := store.NewMemoryKeyValue()
	st := store.NewStore(kv, nil)
	users := store.NewMemoryUserRepository()
	return NewAuthService(users, st, testJWTSecret, time.Hour), st
}

func TestRegisterCreatesMemberWithSeededRecord(t *testing.T) {
	svc, st := newTestAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Alex", "alex@example.com", "hunter2secure")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleMember, user.Role)
	assert.Empty(t, user.PasswordHash)
	assert.False(t, user.ID.IsZero())

	// Registration seeds the record so the first load has the initial grant.
	data, err := st.Load(ctx, user.ID.Hex())
	require.NoError(t, err)
	require.NotNil(t, data)
	assert.Equal(t, domain.InitialCredits, data.Profile.Credits)
	assert.Equal(t, "Alex", data.Profile.Name)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Alex", "alex@example.com", "hunter2secure")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Other", "alex@example.com", "different-pass")
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestLoginReturnsValidToken(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "Alex", "alex@example.com", "hunter2secure")
	require.NoError(t, err)

	token, user, err := svc.Login(ctx, "alex@example.com", "hunter2secure")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.Empty(t, user.PasswordHash)

	claims := &jwtClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, registered.ID.Hex(), claims.UserID)
	assert.Equal(t, domain.RoleMember, claims.Role)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Alex", "alex@example.com", "hunter2secure")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "alex@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	_, _, err = svc.Login(ctx, "nobody@example.com", "hunter2secure")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}
