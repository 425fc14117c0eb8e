package domain

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ConnectionService manages the lifecycle of connection requests and
// their fan-out into conversations.
type ConnectionService struct {
	repo     ConnectionRepository
	profiles ProfileRepository
}

func NewConnectionService(repo ConnectionRepository, profiles ProfileRepository) *ConnectionService {
	return &ConnectionService{
		repo:     repo,
		profiles: profiles,
	}
}

const maxRequestMessageLen = 1000

// SendRequest creates a pending request from sender to receiver. The
// receiver must have a profile and be open for connections, and no
// active request may exist between the pair in either direction.
func (s *ConnectionService) SendRequest(ctx context.Context, senderID, receiverID uuid.UUID, message string) (*ConnectionRequest, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("%w: message is required", ErrInvalidRequest)
	}
	if len(message) > maxRequestMessageLen {
		return nil, fmt.Errorf("%w: message too long", ErrInvalidRequest)
	}
	if senderID == receiverID {
		return nil, fmt.Errorf("%w: cannot connect with yourself", ErrInvalidRequest)
	}

	receiver, err := s.profiles.GetProfileByUserID(ctx, receiverID)
	if err != nil {
		return nil, err
	}
	if !receiver.IsOpenForConnection {
		return nil, ErrNotOpen
	}

	exists, err := s.repo.HasActiveRequest(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateRequest
	}

	return s.repo.CreateRequest(ctx, senderID, receiverID, message)
}

// RespondToRequest applies the receiver's accept/reject decision. Only
// the receiver may respond, and only while the request is pending. On
// accept, the status transition and conversation creation happen
// atomically; a concurrent second respond observes ErrInvalidTransition.
func (s *ConnectionService) RespondToRequest(ctx context.Context, requestID, responderID uuid.UUID, decision RequestDecision) (*ConnectionRequest, *Conversation, error) {
	req, err := s.repo.GetRequestByID(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	if req.ReceiverID != responderID {
		return nil, nil, fmt.Errorf("%w: only the receiver may respond", ErrNotAuthorized)
	}
	if req.Status != RequestPending {
		return nil, nil, fmt.Errorf("%w: request already %s", ErrInvalidTransition, req.Status)
	}

	switch decision {
	case DecisionAccept:
		return s.repo.AcceptRequest(ctx, requestID)
	case DecisionReject:
		req, err = s.repo.RejectRequest(ctx, requestID)
		return req, nil, err
	default:
		return nil, nil, fmt.Errorf("%w: unknown decision %q", ErrInvalidRequest, decision)
	}
}

// Block moves a request to the terminal blocked state. It is a
// moderation action, allowed from any state, without the
// pending-only guard of RespondToRequest.
func (s *ConnectionService) Block(ctx context.Context, requestID, callerID uuid.UUID) (*ConnectionRequest, error) {
	req, err := s.repo.GetRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !req.Touches(callerID) {
		return nil, fmt.Errorf("%w: not a participant of this request", ErrNotAuthorized)
	}
	return s.repo.BlockRequest(ctx, requestID)
}

// ListReceived returns requests addressed to userID, newest first.
func (s *ConnectionService) ListReceived(ctx context.Context, userID uuid.UUID, page Page) ([]*ConnectionRequestDetail, int, error) {
	return s.repo.ListRequests(ctx, userID, BoxReceived, normalizePage(page))
}

// ListSent returns requests authored by userID, newest first.
func (s *ConnectionService) ListSent(ctx context.Context, userID uuid.UUID, page Page) ([]*ConnectionRequestDetail, int, error) {
	return s.repo.ListRequests(ctx, userID, BoxSent, normalizePage(page))
}

// ListEstablished returns accepted requests touching userID.
func (s *ConnectionService) ListEstablished(ctx context.Context, userID uuid.UUID, page Page) ([]*ConnectionRequestDetail, int, error) {
	return s.repo.ListEstablished(ctx, userID, normalizePage(page))
}

func normalizePage(page Page) Page {
	if page.Limit <= 0 {
		page.Limit = 20
	}
	if page.Limit > 50 {
		page.Limit = 50
	}
	if page.Offset < 0 {
		page.Offset = 0
	}
	return page
}
