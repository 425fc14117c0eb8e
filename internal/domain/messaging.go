package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Conversation is the messaging channel created when a connection
// request is accepted. Participants are stored in normalized order
// (user1 < user2) so the unordered pair is unique.
type Conversation struct {
	ID            uuid.UUID  `json:"id"`
	User1ID       uuid.UUID  `json:"user1_id"`
	User2ID       uuid.UUID  `json:"user2_id"`
	CreatedAt     time.Time  `json:"created_at"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	IsActive      bool       `json:"is_active"`
}

// HasParticipant reports whether userID is one of the two parties.
func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	return c.User1ID == userID || c.User2ID == userID
}

// Other returns the counterpart of userID in this conversation.
func (c *Conversation) Other(userID uuid.UUID) uuid.UUID {
	if c.User1ID == userID {
		return c.User2ID
	}
	return c.User1ID
}

// NormalizePair orders two user ids so (a,b) and (b,a) map to the same
// conversation key.
func NormalizePair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if a.String() > b.String() {
		return b, a
	}
	return a, b
}

// Message is an append-only entry in a conversation, ordered ascending
// by CreatedAt.
type Message struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	SenderID       uuid.UUID `json:"sender_id"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"timestamp"`
	IsRead         bool      `json:"is_read"`
}

// ConversationSummary annotates a conversation with the other
// participant's identity, the latest message preview and the viewer's
// unread count, for list display.
type ConversationSummary struct {
	Conversation
	OtherUserID      uuid.UUID `json:"other_user_id"`
	OtherUserName    string    `json:"other_user_name"`
	OtherUserEmail   string    `json:"other_user_email"`
	OtherUserPicture *string   `json:"other_user_picture,omitempty"`
	LastMessage      *string   `json:"last_message,omitempty"`
	UnreadCount      int       `json:"unread_count"`
}

// MessagingRepository defines data access for conversations and
// messages.
type MessagingRepository interface {
	GetConversationByID(ctx context.Context, id uuid.UUID) (*Conversation, error)
	ListConversations(ctx context.Context, userID uuid.UUID, page Page) ([]*ConversationSummary, int, error)

	// ListMessages returns messages ascending by creation time.
	ListMessages(ctx context.Context, conversationID uuid.UUID, page Page) ([]*Message, int, error)

	// MarkMessagesRead marks all messages not sent by viewerID as read.
	MarkMessagesRead(ctx context.Context, conversationID, viewerID uuid.UUID) error

	// CreateMessage appends a message and bumps the conversation's
	// last_message_at.
	CreateMessage(ctx context.Context, conversationID, senderID uuid.UUID, content string) (*Message, error)
}
