package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/canteen/internal/hash"
	"github.com/Skotchmaster/canteen/internal/models"
)

func TestUserService_Register(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u, err := env.users.Register(ctx, "  Asha ", " Asha@Example.com ", "s3cret")
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, u.ID)
	assert.Equal(t, "Asha", u.Name)
	assert.Equal(t, "asha@example.com", u.Email)
	assert.NotEqual(t, "s3cret", u.PasswordHash)
	assert.True(t, hash.CheckPassword(u.PasswordHash, "s3cret"))

	got, err := env.users.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)

	assert.Equal(t, []string{"user_registered"}, env.events.types())
}

func TestUserService_Register_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.users.Register(ctx, "Asha", "asha@example.com", "pw")
	require.NoError(t, err)

	_, err = env.users.Register(ctx, "Other", "ASHA@example.com", "pw2")
	assert.ErrorIs(t, err, ErrConflict)
	assert.EqualValues(t, 1, env.countRows(t, &models.User{}))
}

func TestUserService_Register_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name     string
		user     string
		email    string
		password string
	}{
		{name: "empty name", user: "  ", email: "a@example.com", password: "pw"},
		{name: "empty email", user: "A", email: "", password: "pw"},
		{name: "malformed email", user: "A", email: "not-an-email", password: "pw"},
		{name: "display name email", user: "A", email: "A <a@example.com>", password: "pw"},
		{name: "empty password", user: "A", email: "a@example.com", password: ""},
		{name: "password too long", user: "A", email: "a@example.com", password: strings.Repeat("x", 73)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.users.Register(context.Background(), tt.user, tt.email, tt.password)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
	assert.Zero(t, env.countRows(t, &models.User{}))
}

func TestUserService_GetUser_NotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.users.GetUser(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
