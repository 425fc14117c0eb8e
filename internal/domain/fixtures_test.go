package domain_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meetgrid/backend/internal/domain"
	"github.com/meetgrid/backend/internal/repository"
)

// newMember creates an onboarded user with a profile open for
// connections, the baseline for request and messaging tests.
func newMember(t *testing.T, repo *repository.MemoryRepository, email string) *domain.User {
	t.Helper()
	ctx := context.Background()

	user, err := repo.CreateUser(ctx, domain.CreateUserParams{
		Email: email,
		Name:  email,
	})
	require.NoError(t, err)

	user, err = repo.CompleteOnboarding(ctx, user.ID, user.Name, &domain.ProfileParams{
		JobTitle:            strPtr("Engineer"),
		IsOpenForConnection: true,
	})
	require.NoError(t, err)
	return user
}

// connect establishes an accepted connection between two members and
// returns the conversation it opened.
func connect(t *testing.T, repo *repository.MemoryRepository, a, b *domain.User) *domain.Conversation {
	t.Helper()
	ctx := context.Background()

	req, err := repo.CreateRequest(ctx, a.ID, b.ID, "let's talk")
	require.NoError(t, err)

	_, conv, err := repo.AcceptRequest(ctx, req.ID)
	require.NoError(t, err)
	return conv
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }
