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

type ProfileHandler struct {
	profileService *domain.ProfileService
	logger         *zap.Logger
}

func NewProfileHandler(profileService *domain.ProfileService, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		logger:         logger,
	}
}

// Create handles POST /api/profile
func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	var params domain.ProfileParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	profile, err := h.profileService.CreateProfile(r.Context(), user.ID, params)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.Created(w, profile)
}

// GetMine handles GET /api/profile
func (h *ProfileHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	profile, err := h.profileService.GetMyProfile(r.Context(), user.ID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.OK(w, profile)
}

// Get handles GET /api/profile/{userID}
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		response.BadRequest(w, "invalid user id")
		return
	}

	profile, err := h.profileService.GetProfile(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.OK(w, profile)
}

// Update handles PUT /api/profile
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	var update domain.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	profile, err := h.profileService.UpdateProfile(r.Context(), user.ID, update)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.OK(w, profile)
}

// Browse handles GET /api/profile/browse
func (h *ProfileHandler) Browse(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	q := r.URL.Query()
	filter := domain.BrowseFilter{
		Search:   q.Get("search"),
		Location: q.Get("location"),
		Company:  q.Get("company"),
	}
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	// "skip" is what the web client sends; "offset" is accepted as an alias.
	if skip := q.Get("skip"); skip != "" {
		filter.Offset, _ = strconv.Atoi(skip)
	} else {
		filter.Offset, _ = strconv.Atoi(q.Get("offset"))
	}

	profiles, total, err := h.profileService.Browse(r.Context(), user.ID, filter)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.OK(w, map[string]interface{}{
		"profiles": profiles,
		"total":    total,
	})
}
