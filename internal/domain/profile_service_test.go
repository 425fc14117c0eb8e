package domain_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetgrid/backend/internal/domain"
	"github.com/meetgrid/backend/internal/repository"
)

func intPtr(i int) *int { return &i }

func TestCreateProfile(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	svc := domain.NewProfileService(repo)

	user, err := repo.CreateUser(ctx, domain.CreateUserParams{Email: "alice@example.com", Name: "Alice"})
	require.NoError(t, err)

	profile, err := svc.CreateProfile(ctx, user.ID, domain.ProfileParams{
		JobTitle:            strPtr("Engineer"),
		Skills:              []string{"go", "sql"},
		IsOpenForConnection: true,
	})
	require.NoError(t, err)
	assert.Equal(t, user.ID, profile.UserID)
	assert.Equal(t, []string{"go", "sql"}, profile.Skills)

	_, err = svc.CreateProfile(ctx, user.ID, domain.ProfileParams{})
	assert.ErrorIs(t, err, domain.ErrProfileExists)
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	svc := domain.NewProfileService(repo)

	user := newMember(t, repo, "alice@example.com")

	updated, err := svc.UpdateProfile(ctx, user.ID, domain.ProfileUpdate{
		Company: strPtr("Acme"),
		Age:     intPtr(30),
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme", *updated.Company)
	assert.Equal(t, 30, *updated.Age)
	// Untouched fields survive partial updates.
	assert.Equal(t, "Engineer", *updated.JobTitle)

	_, err = svc.UpdateProfile(ctx, user.ID, domain.ProfileUpdate{Age: intPtr(12)})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = svc.UpdateProfile(ctx, user.ID, domain.ProfileUpdate{YearsExperience: intPtr(-1)})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestProfileLinkedinURLValidation(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	svc := domain.NewProfileService(repo)

	user, err := repo.CreateUser(ctx, domain.CreateUserParams{Email: "alice@example.com", Name: "Alice"})
	require.NoError(t, err)

	_, err = svc.CreateProfile(ctx, user.ID, domain.ProfileParams{
		LinkedinURL: strPtr("not a url"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = svc.CreateProfile(ctx, user.ID, domain.ProfileParams{
		LinkedinURL: strPtr("https://www.linkedin.com/in/alice"),
	})
	require.NoError(t, err)

	_, err = svc.UpdateProfile(ctx, user.ID, domain.ProfileUpdate{
		LinkedinURL: strPtr("ftp://linkedin.com/in/alice"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	// Empty string clears the field.
	updated, err := svc.UpdateProfile(ctx, user.ID, domain.ProfileUpdate{
		LinkedinURL: strPtr(""),
	})
	require.NoError(t, err)
	assert.Equal(t, "", *updated.LinkedinURL)
}

func TestBrowseExcludesSelfAndClosed(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	svc := domain.NewProfileService(repo)

	alice := newMember(t, repo, "alice@example.com")
	bob := newMember(t, repo, "bob@example.com")
	carol := newMember(t, repo, "carol@example.com")

	_, err := repo.UpdateProfile(ctx, carol.ID, domain.ProfileUpdate{
		IsOpenForConnection: boolPtr(false),
	})
	require.NoError(t, err)

	profiles, total, err := svc.Browse(ctx, alice.ID, domain.BrowseFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, profiles, 1)
	assert.Equal(t, bob.ID, profiles[0].UserID)
}

func TestBrowseExcludesActiveRequestCounterparts(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	svc := domain.NewProfileService(repo)

	alice := newMember(t, repo, "alice@example.com")
	bob := newMember(t, repo, "bob@example.com")
	carol := newMember(t, repo, "carol@example.com")

	req, err := repo.CreateRequest(ctx, alice.ID, bob.ID, "hi")
	require.NoError(t, err)

	// A pending request hides the counterpart from both sides.
	profiles, _, err := svc.Browse(ctx, alice.ID, domain.BrowseFilter{})
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, carol.ID, profiles[0].UserID)

	profiles, _, err = svc.Browse(ctx, bob.ID, domain.BrowseFilter{})
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, carol.ID, profiles[0].UserID)

	// Still hidden once accepted.
	_, _, err = repo.AcceptRequest(ctx, req.ID)
	require.NoError(t, err)
	profiles, _, err = svc.Browse(ctx, alice.ID, domain.BrowseFilter{})
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, carol.ID, profiles[0].UserID)

	// Visible again after the request goes terminal.
	_, err = repo.BlockRequest(ctx, req.ID)
	require.NoError(t, err)
	profiles, _, err = svc.Browse(ctx, alice.ID, domain.BrowseFilter{})
	require.NoError(t, err)
	assert.Len(t, profiles, 2)
}

func TestBrowseSearch(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	svc := domain.NewProfileService(repo)

	alice := newMember(t, repo, "alice@example.com")
	bob := newMember(t, repo, "bob@example.com")
	carol := newMember(t, repo, "carol@example.com")

	_, err := repo.UpdateProfile(ctx, bob.ID, domain.ProfileUpdate{
		JobTitle: strPtr("Data Scientist"),
		Location: strPtr("Berlin"),
		Skills:   &[]string{"python", "ml"},
	})
	require.NoError(t, err)
	_, err = repo.UpdateProfile(ctx, carol.ID, domain.ProfileUpdate{
		Company:  strPtr("Initech"),
		Location: strPtr("Amsterdam"),
	})
	require.NoError(t, err)

	profiles, _, err := svc.Browse(ctx, alice.ID, domain.BrowseFilter{Search: "scientist"})
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, bob.ID, profiles[0].UserID)

	// Skills are searched too.
	profiles, _, err = svc.Browse(ctx, alice.ID, domain.BrowseFilter{Search: "PYTHON"})
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, bob.ID, profiles[0].UserID)

	profiles, _, err = svc.Browse(ctx, alice.ID, domain.BrowseFilter{Location: "amsterdam"})
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, carol.ID, profiles[0].UserID)

	profiles, _, err = svc.Browse(ctx, alice.ID, domain.BrowseFilter{Company: "initech"})
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, carol.ID, profiles[0].UserID)

	profiles, total, err := svc.Browse(ctx, alice.ID, domain.BrowseFilter{Search: "no such thing"})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, profiles)
}

func TestGetMyProfileMissing(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	svc := domain.NewProfileService(repo)

	user, err := repo.CreateUser(ctx, domain.CreateUserParams{Email: "alice@example.com", Name: "Alice"})
	require.NoError(t, err)

	_, err = svc.GetMyProfile(ctx, user.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
