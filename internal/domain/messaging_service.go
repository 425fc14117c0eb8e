package domain

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// MessagingService owns the per-conversation message log and the
// derived unread counters.
type MessagingService struct {
	repo        MessagingRepository
	connections ConnectionRepository
}

func NewMessagingService(repo MessagingRepository, connections ConnectionRepository) *MessagingService {
	return &MessagingService{
		repo:        repo,
		connections: connections,
	}
}

const maxMessageLen = 4000

// ListConversations returns the viewer's conversations annotated with
// the other participant, the latest message and the unread count.
func (s *MessagingService) ListConversations(ctx context.Context, userID uuid.UUID, page Page) ([]*ConversationSummary, int, error) {
	return s.repo.ListConversations(ctx, userID, normalizePage(page))
}

// GetConversation loads a conversation the viewer participates in.
func (s *MessagingService) GetConversation(ctx context.Context, conversationID, viewerID uuid.UUID) (*Conversation, error) {
	conv, err := s.repo.GetConversationByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(viewerID) {
		return nil, fmt.Errorf("%w: not a participant", ErrNotAuthorized)
	}
	return conv, nil
}

// ConversationHistory is the result of opening a conversation.
type ConversationHistory struct {
	Conversation *Conversation `json:"conversation"`
	Messages     []*Message    `json:"messages"`
	Total        int           `json:"total"`
}

// OpenConversation loads the full history ascending by time and, as a
// side effect, marks everything from the other participant as read.
// Non-participants fail with ErrNotAuthorized before any state change.
func (s *MessagingService) OpenConversation(ctx context.Context, conversationID, viewerID uuid.UUID, page Page) (*ConversationHistory, error) {
	conv, err := s.repo.GetConversationByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(viewerID) {
		return nil, fmt.Errorf("%w: not a participant", ErrNotAuthorized)
	}

	page = normalizePage(page)
	if page.Limit < 50 {
		page.Limit = 50
	}
	messages, total, err := s.repo.ListMessages(ctx, conversationID, page)
	if err != nil {
		return nil, err
	}

	if err := s.repo.MarkMessagesRead(ctx, conversationID, viewerID); err != nil {
		return nil, err
	}

	return &ConversationHistory{
		Conversation: conv,
		Messages:     messages,
		Total:        total,
	}, nil
}

// SendMessage appends a message to the conversation. The sender must be
// a participant with a still-accepted connection to the other party,
// and the content must not trim to empty. The created message is
// returned so the sender's view includes it without a re-fetch; the
// other participant observes it on their next poll.
func (s *MessagingService) SendMessage(ctx context.Context, conversationID, senderID uuid.UUID, content string) (*Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}
	if len(content) > maxMessageLen {
		return nil, fmt.Errorf("%w: message too long", ErrInvalidRequest)
	}

	conv, err := s.repo.GetConversationByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(senderID) {
		return nil, fmt.Errorf("%w: not a participant", ErrNotAuthorized)
	}

	connected, err := s.connections.HasAcceptedConnection(ctx, senderID, conv.Other(senderID))
	if err != nil {
		return nil, err
	}
	if !connected {
		return nil, fmt.Errorf("%w: connection no longer established", ErrNotAuthorized)
	}

	return s.repo.CreateMessage(ctx, conversationID, senderID, content)
}
