package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meetgrid/backend/internal/domain"
	"github.com/meetgrid/backend/internal/middleware"
	"github.com/meetgrid/backend/pkg/response"
)

type ConnectionHandler struct {
	connService *domain.ConnectionService
	hub         *EventHub
	logger      *zap.Logger
}

func NewConnectionHandler(connService *domain.ConnectionService, hub *EventHub, logger *zap.Logger) *ConnectionHandler {
	return &ConnectionHandler{
		connService: connService,
		hub:         hub,
		logger:      logger,
	}
}

// SendRequest handles POST /api/connections/request
func (h *ConnectionHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	var req struct {
		ReceiverID string `json:"receiver_id"`
		Message    string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	receiverID, err := uuid.Parse(req.ReceiverID)
	if err != nil {
		response.BadRequest(w, "invalid receiver id")
		return
	}

	created, err := h.connService.SendRequest(r.Context(), user.ID, receiverID, req.Message)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.hub.SendToUser(receiverID, Event{Type: EventRequestReceived, Payload: created})
	response.Created(w, created)
}

// Respond handles PUT /api/connections/requests/{id}/respond
func (h *ConnectionHandler) Respond(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	requestID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid request id")
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	decision := domain.RequestDecision(req.Status)
	updated, conv, err := h.connService.RespondToRequest(r.Context(), requestID, user.ID, decision)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if updated.Status == domain.RequestAccepted {
		h.hub.SendToUser(updated.SenderID, Event{Type: EventRequestAccepted, Payload: updated})
	}

	payload := map[string]interface{}{"request": updated}
	if conv != nil {
		payload["conversation"] = conv
	}
	response.OK(w, payload)
}

// Block handles PUT /api/connections/requests/{id}/block
func (h *ConnectionHandler) Block(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	requestID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid request id")
		return
	}

	updated, err := h.connService.Block(r.Context(), requestID, user.ID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.OK(w, updated)
}

// ListReceived handles GET /api/connections/requests/received
func (h *ConnectionHandler) ListReceived(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, func(ctx *http.Request, userID uuid.UUID, page domain.Page) ([]*domain.ConnectionRequestDetail, int, error) {
		return h.connService.ListReceived(ctx.Context(), userID, page)
	})
}

// ListSent handles GET /api/connections/requests/sent
func (h *ConnectionHandler) ListSent(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, func(ctx *http.Request, userID uuid.UUID, page domain.Page) ([]*domain.ConnectionRequestDetail, int, error) {
		return h.connService.ListSent(ctx.Context(), userID, page)
	})
}

// ListEstablished handles GET /api/connections/established
func (h *ConnectionHandler) ListEstablished(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, func(ctx *http.Request, userID uuid.UUID, page domain.Page) ([]*domain.ConnectionRequestDetail, int, error) {
		return h.connService.ListEstablished(ctx.Context(), userID, page)
	})
}

func (h *ConnectionHandler) list(w http.ResponseWriter, r *http.Request, fetch func(*http.Request, uuid.UUID, domain.Page) ([]*domain.ConnectionRequestDetail, int, error)) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	requests, total, err := fetch(r, user.ID, pageFromQuery(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.OK(w, map[string]interface{}{
		"requests": requests,
		"total":    total,
	})
}

func pageFromQuery(r *http.Request) domain.Page {
	var page domain.Page
	page.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	page.Offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	return page
}
