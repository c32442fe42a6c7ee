package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/issue-tracker/internal/auth"
	"github.com/spec-kit/issue-tracker/internal/domain"
)

// bcrypt's minimum cost keeps the tests quick.
const testBcryptCost = 4

type userFixture struct {
	service *UserService
	users   *fakeUserRepo
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()
	users := newFakeUserRepo()
	return &userFixture{
		service: NewUserService(users, testBcryptCost, zap.NewNop()),
		users:   users,
	}
}

func TestRegisterForcesUserRole(t *testing.T) {
	f := newUserFixture(t)

	user, err := f.service.Register(context.Background(), RegisterInput{
		Name:     "Uma",
		Email:    "UMA@Example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.Equal(t, "uma@example.com", user.Email, "emails are stored lowercase")
	assert.NotEmpty(t, user.PasswordHash)
	assert.NoError(t, auth.ComparePassword(user.PasswordHash, "correct-horse"))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newUserFixture(t)

	_, err := f.service.Register(context.Background(), RegisterInput{
		Name: "Uma", Email: "uma@example.com", Password: "correct-horse",
	})
	require.NoError(t, err)

	_, err = f.service.Register(context.Background(), RegisterInput{
		Name: "Umatwo", Email: "Uma@Example.com", Password: "battery-staple",
	})
	requireDomainError(t, err, http.StatusConflict)
}

func TestRegisterValidation(t *testing.T) {
	f := newUserFixture(t)

	_, err := f.service.Register(context.Background(), RegisterInput{
		Name: "", Email: "a@b.com", Password: "long-enough",
	})
	requireDomainError(t, err, http.StatusBadRequest)

	_, err = f.service.Register(context.Background(), RegisterInput{
		Name: "A", Email: "a@b.com", Password: "short",
	})
	requireDomainError(t, err, http.StatusBadRequest)
}

func TestAdminCreateWithRole(t *testing.T) {
	f := newUserFixture(t)

	rep, err := f.service.Create(context.Background(), domain.RoleAdmin, CreateUserInput{
		Name: "Rita", Email: "rita@example.com", Password: "long-enough", Role: "representative",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleRep, rep.Role)

	_, err = f.service.Create(context.Background(), domain.RoleRep, CreateUserInput{
		Name: "X", Email: "x@example.com", Password: "long-enough", Role: "Admin",
	})
	requireDomainError(t, err, http.StatusForbidden)
}

func TestGetAccountVisibility(t *testing.T) {
	f := newUserFixture(t)
	f.users.seed("user-1", "Uma", "uma@example.com", domain.RoleUser)
	f.users.seed("user-2", "Ulf", "ulf@example.com", domain.RoleUser)

	_, err := f.service.Get(context.Background(), "user-1", domain.RoleUser, "user-1")
	require.NoError(t, err)

	_, err = f.service.Get(context.Background(), "user-1", domain.RoleUser, "user-2")
	requireDomainError(t, err, http.StatusForbidden)

	_, err = f.service.Get(context.Background(), "admin-1", domain.RoleAdmin, "user-2")
	require.NoError(t, err)
}

func TestUpdateRoleIsAdminOnly(t *testing.T) {
	f := newUserFixture(t)
	f.users.seed("user-1", "Uma", "uma@example.com", domain.RoleUser)

	_, err := f.service.Update(context.Background(), "user-1", domain.RoleUser, "user-1",
		UpdateUserInput{Role: "Admin"})
	requireDomainError(t, err, http.StatusForbidden)

	updated, err := f.service.Update(context.Background(), "admin-1", domain.RoleAdmin, "user-1",
		UpdateUserInput{Role: "Rep"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleRep, updated.Role)
}

func TestUpdateBlankPreserves(t *testing.T) {
	f := newUserFixture(t)
	f.users.seed("user-1", "Uma", "uma@example.com", domain.RoleUser)

	updated, err := f.service.Update(context.Background(), "user-1", domain.RoleUser, "user-1",
		UpdateUserInput{Name: "Uma Renamed"})
	require.NoError(t, err)
	assert.Equal(t, "Uma Renamed", updated.Name)
	assert.Equal(t, "uma@example.com", updated.Email)
}

func TestChangePasswordRequiresCurrent(t *testing.T) {
	f := newUserFixture(t)
	hash, err := auth.HashPassword("old-password", testBcryptCost)
	require.NoError(t, err)
	seeded := f.users.seed("user-1", "Uma", "uma@example.com", domain.RoleUser)
	seeded.PasswordHash = hash

	err = f.service.ChangePassword(context.Background(), "user-1", domain.RoleUser, "user-1",
		"wrong-password", "new-password")
	requireDomainError(t, err, http.StatusUnauthorized)

	err = f.service.ChangePassword(context.Background(), "user-1", domain.RoleUser, "user-1",
		"old-password", "new-password")
	require.NoError(t, err)

	stored, err := f.users.GetByID(context.Background(), "user-1")
	require.NoError(t, err)
	assert.NoError(t, auth.ComparePassword(stored.PasswordHash, "new-password"))
}

func TestAdminResetsPasswordWithoutCurrent(t *testing.T) {
	f := newUserFixture(t)
	f.users.seed("user-1", "Uma", "uma@example.com", domain.RoleUser)

	err := f.service.ChangePassword(context.Background(), "admin-1", domain.RoleAdmin, "user-1",
		"", "admin-set-password")
	require.NoError(t, err)
}

func TestDeleteRefusedWhileReferenced(t *testing.T) {
	f := newUserFixture(t)
	f.users.seed("user-1", "Uma", "uma@example.com", domain.RoleUser)
	f.users.refCounts["user-1"] = [2]int{2, 0}

	err := f.service.Delete(context.Background(), domain.RoleAdmin, "user-1")
	domainErr := requireDomainError(t, err, http.StatusBadRequest)
	assert.EqualValues(t, 2, domainErr.Details["created_tickets"])

	// Still present.
	_, err = f.users.GetByID(context.Background(), "user-1")
	require.NoError(t, err)

	f.users.refCounts["user-1"] = [2]int{0, 0}
	require.NoError(t, f.service.Delete(context.Background(), domain.RoleAdmin, "user-1"))

	err = f.service.Delete(context.Background(), domain.RoleAdmin, "user-1")
	requireDomainError(t, err, http.StatusNotFound)
}

func TestDeleteIsAdminOnly(t *testing.T) {
	f := newUserFixture(t)
	f.users.seed("user-1", "Uma", "uma@example.com", domain.RoleUser)

	err := f.service.Delete(context.Background(), domain.RoleRep, "user-1")
	requireDomainError(t, err, http.StatusForbidden)
}

func TestListRepresentatives(t *testing.T) {
	f := newUserFixture(t)
	f.users.seed("rep-1", "Rita", "rita@example.com", domain.RoleRep)
	f.users.seed("user-1", "Uma", "uma@example.com", domain.RoleUser)

	reps, err := f.service.ListRepresentatives(context.Background(), domain.RoleAdmin)
	require.NoError(t, err)
	require.Len(t, reps, 1)
	assert.Equal(t, "rep-1", reps[0].ID)

	_, err = f.service.ListRepresentatives(context.Background(), domain.RoleUser)
	requireDomainError(t, err, http.StatusForbidden)
}
