package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"task-tracker/config"
	"task-tracker/models"
	"task-tracker/repositories"
)

func newUserServiceForTests(t *testing.T) (*UserService, *repositories.MemoryRepository) {
	t.Helper()
	repo := repositories.NewMemoryRepository()
	svc := NewUserService(repo, NewJWTService("test-secret", time.Hour))
	svc.hashCost = bcrypt.MinCost
	return svc, repo
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("Secret1!"))
	assert.ErrorIs(t, ValidatePassword("Sh0rt!"), ErrValidation)
	assert.ErrorIs(t, ValidatePassword("lowercase1!"), ErrValidation)
	assert.ErrorIs(t, ValidatePassword("NoDigits!!"), ErrValidation)
	assert.ErrorIs(t, ValidatePassword("NoSpecial11"), ErrValidation)
}

func TestRegisterAndLogin(t *testing.T) {
	svc, repo := newUserServiceForTests(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Name: "Ana", Email: " Ana@Example.com ", Password: "Secret1!"})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.Empty(t, user.Password)

	stored, err := repo.FindUserByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "Secret1!", stored.Password)

	_, err = svc.Register(ctx, RegisterInput{Name: "Ana again", Email: "ana@example.com", Password: "Secret1!"})
	assert.ErrorIs(t, err, ErrConflict)

	session, err := svc.Login(ctx, "ANA@example.com", "Secret1!")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Empty(t, session.User.Password)

	actor, err := svc.JWTService.Authenticate(session.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, actor.ID)

	_, err = svc.Login(ctx, "ana@example.com", "Wrong1!!")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = svc.Login(ctx, "nobody@example.com", "Secret1!")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	me, err := svc.Me(ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, "Ana", me.Name)
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newUserServiceForTests(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Name: "", Email: "a@example.com", Password: "Secret1!"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Register(ctx, RegisterInput{Name: "A", Email: "not-an-email", Password: "Secret1!"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Register(ctx, RegisterInput{Name: "A", Email: "a@example.com", Password: "weak"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestEnsureSeedUsers(t *testing.T) {
	svc, repo := newUserServiceForTests(t)
	ctx := context.Background()
	seed := &config.Seed{Users: []config.SeedUser{
		{Name: "Boss", Email: "boss@example.com", Role: "manager", Password: "Manager1!"},
		{Name: "Worker", Email: "worker@example.com", Role: "user", Password: "Worker1!"},
	}}

	created, err := svc.EnsureSeedUsers(ctx, seed)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	created, err = svc.EnsureSeedUsers(ctx, seed)
	require.NoError(t, err)
	assert.Zero(t, created, "seeding twice is a no-op")

	boss, err := repo.FindUserByEmail(ctx, "boss@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleManager, boss.Role)

	_, err = svc.Login(ctx, "boss@example.com", "Manager1!")
	assert.NoError(t, err)
}
