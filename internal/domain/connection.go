package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RequestStatus is the lifecycle state of a connection request.
// pending is the only non-terminal state: the receiver moves it to
// accepted or rejected exactly once. blocked is terminal and reachable
// from any state via moderation.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestRejected RequestStatus = "rejected"
	RequestBlocked  RequestStatus = "blocked"
)

// Active reports whether the request blocks a new request between the
// same pair. Pending and accepted requests are active.
func (s RequestStatus) Active() bool {
	return s == RequestPending || s == RequestAccepted
}

// Terminal reports whether the status admits no further transition.
func (s RequestStatus) Terminal() bool {
	return s == RequestAccepted || s == RequestRejected || s == RequestBlocked
}

// RequestDecision is the receiver's answer to a pending request.
type RequestDecision string

const (
	DecisionAccept RequestDecision = "accepted"
	DecisionReject RequestDecision = "rejected"
)

// ConnectionRequest is a directed request from sender to receiver.
// RespondedAt is set only on the transition out of pending.
type ConnectionRequest struct {
	ID          uuid.UUID     `json:"id"`
	SenderID    uuid.UUID     `json:"sender_id"`
	ReceiverID  uuid.UUID     `json:"receiver_id"`
	Message     string        `json:"message"`
	Status      RequestStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	RespondedAt *time.Time    `json:"responded_at,omitempty"`
}

// Other returns the counterpart of userID on this request.
func (r *ConnectionRequest) Other(userID uuid.UUID) uuid.UUID {
	if r.SenderID == userID {
		return r.ReceiverID
	}
	return r.SenderID
}

// Touches reports whether userID is a party to this request.
func (r *ConnectionRequest) Touches(userID uuid.UUID) bool {
	return r.SenderID == userID || r.ReceiverID == userID
}

// ConnectionRequestDetail annotates a request with both parties'
// public identity for list views.
type ConnectionRequestDetail struct {
	ConnectionRequest
	SenderName      string  `json:"sender_name"`
	SenderEmail     string  `json:"sender_email"`
	SenderPicture   *string `json:"sender_picture,omitempty"`
	ReceiverName    string  `json:"receiver_name"`
	ReceiverEmail   string  `json:"receiver_email"`
	ReceiverPicture *string `json:"receiver_picture,omitempty"`
}

// RequestBox selects which side of the request the lister is on.
type RequestBox string

const (
	BoxReceived RequestBox = "received"
	BoxSent     RequestBox = "sent"
)

// Page bounds list reads.
type Page struct {
	Limit  int
	Offset int
}

// ConnectionRepository defines data access for connection requests and
// their conversation side effects.
type ConnectionRepository interface {
	GetRequestByID(ctx context.Context, id uuid.UUID) (*ConnectionRequest, error)

	// HasActiveRequest reports whether a pending or accepted request
	// exists between the pair, in either direction.
	HasActiveRequest(ctx context.Context, a, b uuid.UUID) (bool, error)

	CreateRequest(ctx context.Context, senderID, receiverID uuid.UUID, message string) (*ConnectionRequest, error)

	// AcceptRequest atomically moves the request from pending to
	// accepted, stamps responded_at and ensures exactly one conversation
	// exists for the pair, all in one transaction. A request that is not
	// pending yields ErrInvalidTransition.
	AcceptRequest(ctx context.Context, id uuid.UUID) (*ConnectionRequest, *Conversation, error)

	// RejectRequest atomically moves the request from pending to
	// rejected and stamps responded_at. A request that is not pending
	// yields ErrInvalidTransition.
	RejectRequest(ctx context.Context, id uuid.UUID) (*ConnectionRequest, error)

	// BlockRequest moves the request to blocked from any state.
	BlockRequest(ctx context.Context, id uuid.UUID) (*ConnectionRequest, error)

	// HasAcceptedConnection reports whether the pair holds an accepted
	// request in either direction.
	HasAcceptedConnection(ctx context.Context, a, b uuid.UUID) (bool, error)

	ListRequests(ctx context.Context, userID uuid.UUID, box RequestBox, page Page) ([]*ConnectionRequestDetail, int, error)
	ListEstablished(ctx context.Context, userID uuid.UUID, page Page) ([]*ConnectionRequestDetail, int, error)
}
