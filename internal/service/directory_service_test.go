package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maximo-portal/version-portal/internal/domain"
	"github.com/maximo-portal/version-portal/internal/events"
	apperrors "github.com/maximo-portal/version-portal/pkg/util/errorutil"
)

func TestSaveUser_CreateAndReplace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.directory.SaveUser(ctx, "usr-admin", UserInput{
		Name:           " Carla ",
		Email:          "Carla@Example.com",
		OrganizationID: "org-1",
		Active:         true,
	})
	require.NoError(t, err)
	assert.Regexp(t, `^usr-[0-9a-f]{8}$`, created.ID)
	assert.Equal(t, "Carla", created.Name)
	assert.Equal(t, "carla@example.com", created.Email)
	assert.Equal(t, domain.UserRoleClient, created.Role)
	assert.Equal(t, f.clock.Now(), created.CreatedAt)

	f.clock.Advance(time.Hour)
	replaced, err := f.directory.SaveUser(ctx, "usr-admin", UserInput{
		ID:     created.ID,
		Name:   "Carla Ruiz",
		Email:  "carla@example.com",
		Role:   domain.UserRoleConsultant,
		Active: true,
	})
	require.NoError(t, err)
	assert.Equal(t, created.CreatedAt, replaced.CreatedAt)
	assert.Equal(t, domain.UserRoleConsultant, replaced.Role)

	users, err := f.directory.ListUsers(ctx)
	require.NoError(t, err)
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.Name)
	}
	assert.Equal(t, []string{"Ana", "Carla Ruiz", "Diego", "Quique"}, names)
	assert.Contains(t, f.dispatcher.types(), events.EventUserSaved)
}

func TestSaveUser_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name    string
		input   UserInput
		message string
	}{
		{"blank name", UserInput{Email: "a@b.c"}, "name required"},
		{"bad email", UserInput{Name: "A", Email: "not-an-email"}, "invalid email"},
		{"bad role", UserInput{Name: "A", Email: "a@b.c", Role: "Root"}, "invalid role"},
		{"unknown org", UserInput{Name: "A", Email: "a@b.c", OrganizationID: "org-x"}, "organization not found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.directory.SaveUser(ctx, "usr-admin", tc.input)
			de := apperrors.ToDomainError(err)
			require.NotNil(t, de)
			assert.Equal(t, "VALIDATION_FAILED", de.Code)
			assert.Equal(t, tc.message, de.Message)
		})
	}

	_, err := f.directory.SaveUser(ctx, "usr-admin", UserInput{ID: "usr-ghost", Name: "A", Email: "a@b.c"})
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
}

func TestDeactivateUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.directory.DeactivateUser(ctx, "usr-admin", "usr-qa")
	require.NoError(t, err)
	assert.False(t, user.Active)

	stored, err := f.directory.GetUser(ctx, "usr-qa")
	require.NoError(t, err)
	assert.False(t, stored.Active)

	_, err = f.directory.DeactivateUser(ctx, "usr-admin", "usr-ghost")
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
}

func TestDeleteOrganization_RequiresNoActiveUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.directory.DeleteOrganization(ctx, "usr-admin", "org-1")
	assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)

	for _, id := range []string{"usr-admin", "usr-dev", "usr-qa"} {
		_, err := f.directory.DeactivateUser(ctx, "usr-admin", id)
		require.NoError(t, err)
	}
	require.NoError(t, f.directory.DeleteOrganization(ctx, "usr-admin", "org-1"))

	_, err = f.directory.GetOrganization(ctx, "org-1")
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
	assert.Contains(t, f.dispatcher.types(), events.EventOrganizationDeleted)
}

func TestSaveOrganization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.directory.SaveOrganization(ctx, "usr-admin", OrganizationInput{Name: " "})
	assert.Equal(t, "name required", apperrors.ToDomainError(err).Message)

	org, err := f.directory.SaveOrganization(ctx, "usr-admin", OrganizationInput{Name: "Beta Corp", Active: true})
	require.NoError(t, err)
	assert.Regexp(t, `^org-[0-9a-f]{8}$`, org.ID)

	orgs, err := f.directory.ListOrganizations(ctx)
	require.NoError(t, err)
	require.Len(t, orgs, 2)
	assert.Equal(t, "Acme", orgs[0].Name)
	assert.Equal(t, "Beta Corp", orgs[1].Name)
}
