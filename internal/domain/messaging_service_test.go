package domain_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetgrid/backend/internal/domain"
	"github.com/meetgrid/backend/internal/repository"
)

func newMessagingService(repo *repository.MemoryRepository) *domain.MessagingService {
	return domain.NewMessagingService(repo, repo)
}

func TestSendMessage(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	svc := newMessagingService(repo)

	alice := newMember(t, repo, "alice@example.com")
	bob := newMember(t, repo, "bob@example.com")
	conv := connect(t, repo, alice, bob)

	msg, err := svc.SendMessage(ctx, conv.ID, alice.ID, "  hello bob  ")
	require.NoError(t, err)
	assert.Equal(t, "hello bob", msg.Content)
	assert.Equal(t, alice.ID, msg.SenderID)
	assert.False(t, msg.IsRead)
}

func TestSendMessageValidation(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	svc := newMessagingService(repo)

	alice := newMember(t, repo, "alice@example.com")
	bob := newMember(t, repo, "bob@example.com")
	conv := connect(t, repo, alice, bob)

	_, err := svc.SendMessage(ctx, conv.ID, alice.ID, "   \n\t ")
	assert.ErrorIs(t, err, domain.ErrEmptyMessage)

	_, err = svc.SendMessage(ctx, conv.ID, alice.ID, strings.Repeat("x", 4001))
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = svc.SendMessage(ctx, uuid.New(), alice.ID, "hello")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSendMessageRequiresParticipation(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	svc := newMessagingService(repo)

	alice := newMember(t, repo, "alice@example.com")
	bob := newMember(t, repo, "bob@example.com")
	carol := newMember(t, repo, "carol@example.com")
	conv := connect(t, repo, alice, bob)

	_, err := svc.SendMessage(ctx, conv.ID, carol.ID, "let me in")
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
}

func TestSendMessageRequiresLiveConnection(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	svc := newMessagingService(repo)

	alice := newMember(t, repo, "alice@example.com")
	bob := newMember(t, repo, "bob@example.com")

	req, err := repo.CreateRequest(ctx, alice.ID, bob.ID, "hi")
	require.NoError(t, err)
	_, conv, err := repo.AcceptRequest(ctx, req.ID)
	require.NoError(t, err)

	_, err = svc.SendMessage(ctx, conv.ID, alice.ID, "first")
	require.NoError(t, err)

	// Once the connection is blocked the conversation goes read-only.
	_, err = repo.BlockRequest(ctx, req.ID)
	require.NoError(t, err)

	_, err = svc.SendMessage(ctx, conv.ID, alice.ID, "second")
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
}

func TestOpenConversation(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	svc := newMessagingService(repo)

	alice := newMember(t, repo, "alice@example.com")
	bob := newMember(t, repo, "bob@example.com")
	conv := connect(t, repo, alice, bob)

	_, err := svc.SendMessage(ctx, conv.ID, alice.ID, "one")
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, conv.ID, bob.ID, "two")
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, conv.ID, alice.ID, "three")
	require.NoError(t, err)

	history, err := svc.OpenConversation(ctx, conv.ID, bob.ID, domain.Page{})
	require.NoError(t, err)
	assert.Equal(t, 3, history.Total)
	require.Len(t, history.Messages, 3)

	// Oldest first.
	assert.Equal(t, "one", history.Messages[0].Content)
	assert.Equal(t, "two", history.Messages[1].Content)
	assert.Equal(t, "three", history.Messages[2].Content)
}

func TestOpenConversationMarksRead(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	svc := newMessagingService(repo)

	alice := newMember(t, repo, "alice@example.com")
	bob := newMember(t, repo, "bob@example.com")
	conv := connect(t, repo, alice, bob)

	_, err := svc.SendMessage(ctx, conv.ID, alice.ID, "one")
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, conv.ID, alice.ID, "two")
	require.NoError(t, err)

	summaries, _, err := svc.ListConversations(ctx, bob.ID, domain.Page{})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 2, summaries[0].UnreadCount)

	// Opening as bob clears his unread counter.
	_, err = svc.OpenConversation(ctx, conv.ID, bob.ID, domain.Page{})
	require.NoError(t, err)

	summaries, _, err = svc.ListConversations(ctx, bob.ID, domain.Page{})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Zero(t, summaries[0].UnreadCount)

	// Alice's own messages never counted against her.
	summaries, _, err = svc.ListConversations(ctx, alice.ID, domain.Page{})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Zero(t, summaries[0].UnreadCount)
}

func TestOpenConversationNonParticipant(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	svc := newMessagingService(repo)

	alice := newMember(t, repo, "alice@example.com")
	bob := newMember(t, repo, "bob@example.com")
	carol := newMember(t, repo, "carol@example.com")
	conv := connect(t, repo, alice, bob)

	_, err := svc.SendMessage(ctx, conv.ID, alice.ID, "secret")
	require.NoError(t, err)

	_, err = svc.OpenConversation(ctx, conv.ID, carol.ID, domain.Page{})
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	// The rejected open must not have touched read state.
	summaries, _, err := svc.ListConversations(ctx, bob.ID, domain.Page{})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 1, summaries[0].UnreadCount)
}

func TestListConversationsSummary(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	svc := newMessagingService(repo)

	alice := newMember(t, repo, "alice@example.com")
	bob := newMember(t, repo, "bob@example.com")
	conv := connect(t, repo, alice, bob)

	_, err := svc.SendMessage(ctx, conv.ID, alice.ID, "first")
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, conv.ID, bob.ID, "latest")
	require.NoError(t, err)

	summaries, total, err := svc.ListConversations(ctx, alice.ID, domain.Page{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, summaries, 1)

	s := summaries[0]
	assert.Equal(t, bob.ID, s.OtherUserID)
	assert.Equal(t, "bob@example.com", s.OtherUserEmail)
	require.NotNil(t, s.LastMessage)
	assert.Equal(t, "latest", *s.LastMessage)
	assert.Equal(t, 1, s.UnreadCount)
}

func TestNormalizePair(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	x1, y1 := domain.NormalizePair(a, b)
	x2, y2 := domain.NormalizePair(b, a)
	assert.Equal(t, x1, x2)
	assert.Equal(t, y1, y2)
	assert.True(t, x1.String() < y1.String())
}
