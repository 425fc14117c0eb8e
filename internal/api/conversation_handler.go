package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meetgrid/backend/internal/domain"
	"github.com/meetgrid/backend/internal/middleware"
	"github.com/meetgrid/backend/pkg/response"
)

type ConversationHandler struct {
	msgService *domain.MessagingService
	hub        *EventHub
	logger     *zap.Logger
}

func NewConversationHandler(msgService *domain.MessagingService, hub *EventHub, logger *zap.Logger) *ConversationHandler {
	return &ConversationHandler{
		msgService: msgService,
		hub:        hub,
		logger:     logger,
	}
}

// List handles GET /api/conversations
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	conversations, total, err := h.msgService.ListConversations(r.Context(), user.ID, pageFromQuery(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.OK(w, map[string]interface{}{
		"conversations": conversations,
		"total":         total,
	})
}

// Open handles GET /api/conversations/{id} and GET
// /api/conversations/{id}/messages. Opening marks the other party's
// messages as read.
func (h *ConversationHandler) Open(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	conversationID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid conversation id")
		return
	}

	history, err := h.msgService.OpenConversation(r.Context(), conversationID, user.ID, pageFromQuery(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.OK(w, history)
}

// SendMessage handles POST /api/conversations/{id}/messages
func (h *ConversationHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	conversationID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid conversation id")
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	msg, err := h.msgService.SendMessage(r.Context(), conversationID, user.ID, req.Content)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if conv, err := h.msgService.GetConversation(r.Context(), conversationID, user.ID); err == nil {
		h.hub.SendToUser(conv.Other(user.ID), Event{Type: EventNewMessage, Payload: msg})
	}

	response.Created(w, msg)
}
