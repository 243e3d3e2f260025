package service

import (
	"context"
	"testing"

	"taskdesk-api/internal/apperr"
	"taskdesk-api/internal/models"
	"taskdesk-api/internal/testutil"

	"github.com/stretchr/testify/require"
)

func TestUserService_RegisterLoginLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.users.Register(ctx, RegisterInput{Name: "Alice", Email: " Alice@Example.com ", Password: "secret1"})
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", sess.User.Email)
	require.Equal(t, models.RoleUser, sess.User.Role)
	require.NotEmpty(t, sess.Token)

	_, err = f.users.Register(ctx, RegisterInput{Name: "Alice", Email: "alice@example.com", Password: "secret1"})
	require.True(t, apperr.IsCode(err, apperr.AlreadyExists))

	login, err := f.users.Login(ctx, "ALICE@example.com", "secret1")
	require.NoError(t, err)

	p, claims, err := f.users.Authenticate(ctx, login.Token)
	require.NoError(t, err)
	require.Equal(t, sess.User.ID, p.ID)

	f.users.Logout(claims)
	_, _, err = f.users.Authenticate(ctx, login.Token)
	require.True(t, apperr.IsCode(err, apperr.Unauthenticated))

	// Other sessions stay valid.
	_, _, err = f.users.Authenticate(ctx, sess.Token)
	require.NoError(t, err)
}

func TestUserService_RegisterValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.users.Register(ctx, RegisterInput{Name: "A", Email: "a@example.com", Password: "12345"})
	require.True(t, apperr.IsCode(err, apperr.InvalidArgument))

	_, err = f.users.Register(ctx, RegisterInput{Name: "A", Email: "not-an-email", Password: "123456"})
	require.True(t, apperr.IsCode(err, apperr.InvalidArgument))

	_, err = f.users.Register(ctx, RegisterInput{Email: "a@example.com", Password: "123456"})
	require.True(t, apperr.IsCode(err, apperr.InvalidArgument))
}

func TestUserService_LoginRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess, err := f.users.Register(ctx, RegisterInput{Name: "Bob", Email: "bob@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = f.users.Login(ctx, "bob@example.com", "wrong-password")
	require.True(t, apperr.IsCode(err, apperr.Unauthenticated))

	_, err = f.users.Login(ctx, "nobody@example.com", "secret1")
	require.True(t, apperr.IsCode(err, apperr.Unauthenticated))

	require.NoError(t, f.db.Model(&models.User{}).Where("id = ?", sess.User.ID).Update("is_active", false).Error)
	_, err = f.users.Login(ctx, "bob@example.com", "secret1")
	require.True(t, apperr.IsCode(err, apperr.Unauthenticated))

	_, _, err = f.users.Authenticate(ctx, sess.Token)
	require.True(t, apperr.IsCode(err, apperr.Unauthenticated))
}

func TestUserService_AuthenticateUsesStoredRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess, err := f.users.Register(ctx, RegisterInput{Name: "Carol", Email: "carol@example.com", Password: "secret1"})
	require.NoError(t, err)

	require.NoError(t, f.stores.Users.UpdateRole(ctx, sess.User.ID, models.RoleAdmin))
	p, _, err := f.users.Authenticate(ctx, sess.Token)
	require.NoError(t, err)
	require.True(t, p.IsAdmin())

	_, _, err = f.users.Authenticate(ctx, "garbage")
	require.True(t, apperr.IsCode(err, apperr.Unauthenticated))
}

func TestUserService_ProfileAndPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess, err := f.users.Register(ctx, RegisterInput{Name: "Dan", Email: "dan@example.com", Password: "secret1"})
	require.NoError(t, err)
	other := testutil.SeedUser(t, f.db, "erin", models.RoleUser)
	p := sess.User.Principal()

	u, err := f.users.UpdateProfile(ctx, p, "Daniel", "DANIEL@example.com")
	require.NoError(t, err)
	require.Equal(t, "Daniel", u.Name)
	require.Equal(t, "daniel@example.com", u.Email)

	_, err = f.users.UpdateProfile(ctx, p, "Daniel", other.Email)
	require.True(t, apperr.IsCode(err, apperr.AlreadyExists))

	err = f.users.ChangePassword(ctx, p, "wrong", "another1")
	require.True(t, apperr.IsCode(err, apperr.InvalidArgument))
	require.NoError(t, f.users.ChangePassword(ctx, p, "secret1", "another1"))

	_, err = f.users.Login(ctx, "daniel@example.com", "another1")
	require.NoError(t, err)
}

func TestUserService_ListingsAreAdminOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1 := testutil.SeedUser(t, f.db, "u1", models.RoleUser)
	admin := testutil.SeedUser(t, f.db, "root", models.RoleAdmin)
	other := testutil.SeedUser(t, f.db, "staff", models.RoleAdmin)

	_, err := f.users.List(ctx, u1.Principal())
	require.True(t, apperr.IsCode(err, apperr.PermissionDenied))

	all, err := f.users.List(ctx, admin.Principal())
	require.NoError(t, err)
	require.Len(t, all, 3)

	admins, err := f.users.Assignable(ctx, admin.Principal(), models.RoleAdmin)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	require.Equal(t, other.ID, admins[0].ID)

	users, err := f.users.Assignable(ctx, admin.Principal(), models.RoleUser)
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, u1.ID, users[0].ID)
}

func TestUserService_EnsureAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, created, err := f.users.EnsureAdmin(ctx, RegisterInput{Name: "Ops", Email: "ops@example.com", Password: "secret1"})
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, models.RoleAdmin, u.Role)

	existing := testutil.SeedUser(t, f.db, "frank", models.RoleUser)
	u, created, err = f.users.EnsureAdmin(ctx, RegisterInput{Email: existing.Email})
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, existing.ID, u.ID)

	stored, err := f.stores.Users.Get(ctx, existing.ID)
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, stored.Role)
}
