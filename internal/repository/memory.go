package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/meetgrid/backend/internal/domain"
)

// MemoryRepository is an in-memory implementation of the domain
// repositories. It backs development mode when no DATABASE_URL is set
// and the unit tests. All mutation happens under one mutex after
// validation, so the same atomicity guarantees hold as in Postgres:
// the respond check-and-set is a single critical section and
// conversation creation is idempotent per normalized pair.
type MemoryRepository struct {
	mu sync.Mutex

	users         map[uuid.UUID]*domain.User
	usersByEmail  map[string]uuid.UUID
	sessions      map[uuid.UUID]*domain.Session
	profiles      map[uuid.UUID]*domain.Profile // keyed by user id
	requests      map[uuid.UUID]*domain.ConnectionRequest
	conversations map[uuid.UUID]*domain.Conversation
	convByPair    map[[2]uuid.UUID]uuid.UUID
	messages      map[uuid.UUID][]*domain.Message // keyed by conversation id
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:         make(map[uuid.UUID]*domain.User),
		usersByEmail:  make(map[string]uuid.UUID),
		sessions:      make(map[uuid.UUID]*domain.Session),
		profiles:      make(map[uuid.UUID]*domain.Profile),
		requests:      make(map[uuid.UUID]*domain.ConnectionRequest),
		conversations: make(map[uuid.UUID]*domain.Conversation),
		convByPair:    make(map[[2]uuid.UUID]uuid.UUID),
		messages:      make(map[uuid.UUID][]*domain.Message),
	}
}

// --- users and sessions ---

func (r *MemoryRepository) CreateUser(ctx context.Context, params domain.CreateUserParams) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user := &domain.User{
		ID:        uuid.New(),
		Email:     params.Email,
		Name:      params.Name,
		Picture:   params.Picture,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	r.users[user.ID] = user
	r.usersByEmail[params.Email] = user.ID
	return copyUser(user), nil
}

func (r *MemoryRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyUser(user), nil
}

func (r *MemoryRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.usersByEmail[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyUser(r.users[id]), nil
}

func (r *MemoryRepository) CompleteOnboarding(ctx context.Context, userID uuid.UUID, name string, profile *domain.ProfileParams) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}

	// Both writes happen inside one critical section, matching the
	// Postgres transaction.
	if profile != nil {
		if _, exists := r.profiles[userID]; exists {
			return nil, domain.ErrProfileExists
		}
		r.profiles[userID] = newProfile(userID, *profile)
	}

	if name != "" {
		user.Name = name
	}
	user.OnboardingCompleted = true
	return copyUser(user), nil
}

func (r *MemoryRepository) CreateSession(ctx context.Context, params domain.CreateSessionParams) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.sessions {
		if s.UserID == params.UserID {
			s.IsActive = false
		}
	}

	session := &domain.Session{
		ID:        params.ID,
		UserID:    params.UserID,
		TokenHash: params.TokenHash,
		IsActive:  true,
		CreatedAt: time.Now(),
		ExpiresAt: params.ExpiresAt,
	}
	r.sessions[session.ID] = session
	out := *session
	return &out, nil
}

func (r *MemoryRepository) GetSessionByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *session
	return &out, nil
}

func (r *MemoryRepository) DeactivateSession(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session, ok := r.sessions[id]; ok {
		session.IsActive = false
	}
	return nil
}

func (r *MemoryRepository) CleanupExpiredSessions(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for _, s := range r.sessions {
		if now.After(s.ExpiresAt) {
			s.IsActive = false
		}
	}
	return nil
}

// --- profiles ---

func (r *MemoryRepository) CreateProfile(ctx context.Context, userID uuid.UUID, params domain.ProfileParams) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[userID]; !ok {
		return nil, domain.ErrNotFound
	}
	if _, exists := r.profiles[userID]; exists {
		return nil, domain.ErrProfileExists
	}

	profile := newProfile(userID, params)
	r.profiles[userID] = profile
	out := *profile
	return &out, nil
}

func (r *MemoryRepository) GetProfileByUserID(ctx context.Context, userID uuid.UUID) (*domain.ProfileView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.profileViewLocked(userID)
}

func (r *MemoryRepository) profileViewLocked(userID uuid.UUID) (*domain.ProfileView, error) {
	profile, ok := r.profiles[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	user, ok := r.users[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.ProfileView{
		Profile:     *profile,
		UserName:    user.Name,
		UserEmail:   user.Email,
		UserPicture: user.Picture,
	}, nil
}

func (r *MemoryRepository) UpdateProfile(ctx context.Context, userID uuid.UUID, update domain.ProfileUpdate) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	profile, ok := r.profiles[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}

	if update.JobTitle != nil {
		profile.JobTitle = update.JobTitle
	}
	if update.Company != nil {
		profile.Company = update.Company
	}
	if update.Bio != nil {
		profile.Bio = update.Bio
	}
	if update.Location != nil {
		profile.Location = update.Location
	}
	if update.LinkedinURL != nil {
		profile.LinkedinURL = update.LinkedinURL
	}
	if update.Age != nil {
		profile.Age = update.Age
	}
	if update.YearsExperience != nil {
		profile.YearsExperience = update.YearsExperience
	}
	if update.Skills != nil {
		profile.Skills = *update.Skills
	}
	if update.Interests != nil {
		profile.Interests = *update.Interests
	}
	if update.MeetingPreferences != nil {
		profile.MeetingPreferences = *update.MeetingPreferences
	}
	if update.IsOpenForConnection != nil {
		profile.IsOpenForConnection = *update.IsOpenForConnection
	}
	if update.ContactPreferences != nil {
		profile.ContactPreferences = update.ContactPreferences
	}
	profile.UpdatedAt = time.Now()

	out := *profile
	return &out, nil
}

func (r *MemoryRepository) BrowseProfiles(ctx context.Context, viewerID uuid.UUID, filter domain.BrowseFilter) ([]*domain.ProfileView, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matches []*domain.ProfileView
	for userID, profile := range r.profiles {
		if userID == viewerID || !profile.IsOpenForConnection {
			continue
		}
		user, ok := r.users[userID]
		if !ok || !user.IsActive {
			continue
		}
		if r.hasRequestLocked(viewerID, userID, func(s domain.RequestStatus) bool { return s.Active() }) {
			continue
		}
		if !matchesFilter(profile, filter) {
			continue
		}
		matches = append(matches, &domain.ProfileView{
			Profile:     *profile,
			UserName:    user.Name,
			UserEmail:   user.Email,
			UserPicture: user.Picture,
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})

	total := len(matches)
	matches = paginate(matches, filter.Offset, filter.Limit)
	return matches, total, nil
}

func matchesFilter(p *domain.Profile, filter domain.BrowseFilter) bool {
	if filter.Location != "" && !containsFold(deref(p.Location), filter.Location) {
		return false
	}
	if filter.Company != "" && !containsFold(deref(p.Company), filter.Company) {
		return false
	}
	if filter.Search == "" {
		return true
	}
	haystack := strings.Join([]string{
		deref(p.JobTitle), deref(p.Company), deref(p.Bio),
		strings.Join(p.Skills, " "), strings.Join(p.Interests, " "),
	}, " ")
	return containsFold(haystack, filter.Search)
}

// --- connection requests ---

func (r *MemoryRepository) GetRequestByID(ctx context.Context, id uuid.UUID) (*domain.ConnectionRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.requests[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *req
	return &out, nil
}

func (r *MemoryRepository) HasActiveRequest(ctx context.Context, a, b uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hasRequestLocked(a, b, func(s domain.RequestStatus) bool { return s.Active() }), nil
}

func (r *MemoryRepository) HasAcceptedConnection(ctx context.Context, a, b uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hasRequestLocked(a, b, func(s domain.RequestStatus) bool { return s == domain.RequestAccepted }), nil
}

func (r *MemoryRepository) hasRequestLocked(a, b uuid.UUID, match func(domain.RequestStatus) bool) bool {
	for _, req := range r.requests {
		if !match(req.Status) {
			continue
		}
		if (req.SenderID == a && req.ReceiverID == b) || (req.SenderID == b && req.ReceiverID == a) {
			return true
		}
	}
	return false
}

func (r *MemoryRepository) CreateRequest(ctx context.Context, senderID, receiverID uuid.UUID, message string) (*domain.ConnectionRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Same invariant the partial unique index enforces in Postgres.
	if r.hasRequestLocked(senderID, receiverID, func(s domain.RequestStatus) bool { return s.Active() }) {
		return nil, domain.ErrDuplicateRequest
	}

	req := &domain.ConnectionRequest{
		ID:         uuid.New(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Message:    message,
		Status:     domain.RequestPending,
		CreatedAt:  time.Now(),
	}
	r.requests[req.ID] = req
	out := *req
	return &out, nil
}

func (r *MemoryRepository) AcceptRequest(ctx context.Context, id uuid.UUID) (*domain.ConnectionRequest, *domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.requests[id]
	if !ok {
		return nil, nil, domain.ErrNotFound
	}
	if req.Status != domain.RequestPending {
		return nil, nil, domain.ErrInvalidTransition
	}

	now := time.Now()
	req.Status = domain.RequestAccepted
	req.RespondedAt = &now

	conv := r.ensureConversationLocked(req.SenderID, req.ReceiverID)

	reqOut, convOut := *req, *conv
	return &reqOut, &convOut, nil
}

func (r *MemoryRepository) ensureConversationLocked(a, b uuid.UUID) *domain.Conversation {
	user1, user2 := domain.NormalizePair(a, b)
	key := [2]uuid.UUID{user1, user2}
	if id, ok := r.convByPair[key]; ok {
		return r.conversations[id]
	}

	conv := &domain.Conversation{
		ID:        uuid.New(),
		User1ID:   user1,
		User2ID:   user2,
		CreatedAt: time.Now(),
		IsActive:  true,
	}
	r.conversations[conv.ID] = conv
	r.convByPair[key] = conv.ID
	return conv
}

func (r *MemoryRepository) RejectRequest(ctx context.Context, id uuid.UUID) (*domain.ConnectionRequest, error) {
	return r.transition(id, domain.RequestRejected)
}

func (r *MemoryRepository) transition(id uuid.UUID, to domain.RequestStatus) (*domain.ConnectionRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.requests[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if req.Status != domain.RequestPending {
		return nil, domain.ErrInvalidTransition
	}

	now := time.Now()
	req.Status = to
	req.RespondedAt = &now
	out := *req
	return &out, nil
}

func (r *MemoryRepository) BlockRequest(ctx context.Context, id uuid.UUID) (*domain.ConnectionRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.requests[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if req.RespondedAt == nil {
		now := time.Now()
		req.RespondedAt = &now
	}
	req.Status = domain.RequestBlocked
	out := *req
	return &out, nil
}

func (r *MemoryRepository) ListRequests(ctx context.Context, userID uuid.UUID, box domain.RequestBox, page domain.Page) ([]*domain.ConnectionRequestDetail, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var details []*domain.ConnectionRequestDetail
	for _, req := range r.requests {
		if box == domain.BoxReceived && req.ReceiverID != userID {
			continue
		}
		if box == domain.BoxSent && req.SenderID != userID {
			continue
		}
		details = append(details, r.requestDetailLocked(req))
	}

	sort.Slice(details, func(i, j int) bool {
		return details[i].CreatedAt.After(details[j].CreatedAt)
	})

	total := len(details)
	return paginate(details, page.Offset, page.Limit), total, nil
}

func (r *MemoryRepository) ListEstablished(ctx context.Context, userID uuid.UUID, page domain.Page) ([]*domain.ConnectionRequestDetail, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var details []*domain.ConnectionRequestDetail
	for _, req := range r.requests {
		if req.Status != domain.RequestAccepted || !req.Touches(userID) {
			continue
		}
		details = append(details, r.requestDetailLocked(req))
	}

	sort.Slice(details, func(i, j int) bool {
		ri, rj := details[i].RespondedAt, details[j].RespondedAt
		if ri == nil || rj == nil {
			return rj == nil
		}
		return ri.After(*rj)
	})

	total := len(details)
	return paginate(details, page.Offset, page.Limit), total, nil
}

func (r *MemoryRepository) requestDetailLocked(req *domain.ConnectionRequest) *domain.ConnectionRequestDetail {
	detail := &domain.ConnectionRequestDetail{ConnectionRequest: *req}
	if sender, ok := r.users[req.SenderID]; ok {
		detail.SenderName = sender.Name
		detail.SenderEmail = sender.Email
		detail.SenderPicture = sender.Picture
	}
	if receiver, ok := r.users[req.ReceiverID]; ok {
		detail.ReceiverName = receiver.Name
		detail.ReceiverEmail = receiver.Email
		detail.ReceiverPicture = receiver.Picture
	}
	return detail
}

// --- conversations and messages ---

func (r *MemoryRepository) GetConversationByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.conversations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *conv
	return &out, nil
}

func (r *MemoryRepository) ListConversations(ctx context.Context, userID uuid.UUID, page domain.Page) ([]*domain.ConversationSummary, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var summaries []*domain.ConversationSummary
	for _, conv := range r.conversations {
		if !conv.IsActive || !conv.HasParticipant(userID) {
			continue
		}

		otherID := conv.Other(userID)
		summary := &domain.ConversationSummary{
			Conversation: *conv,
			OtherUserID:  otherID,
		}
		if other, ok := r.users[otherID]; ok {
			summary.OtherUserName = other.Name
			summary.OtherUserEmail = other.Email
			summary.OtherUserPicture = other.Picture
		}

		msgs := r.messages[conv.ID]
		if len(msgs) > 0 {
			content := msgs[len(msgs)-1].Content
			summary.LastMessage = &content
		}
		for _, m := range msgs {
			if m.SenderID != userID && !m.IsRead {
				summary.UnreadCount++
			}
		}
		summaries = append(summaries, summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return lastActivity(&summaries[i].Conversation).After(lastActivity(&summaries[j].Conversation))
	})

	total := len(summaries)
	return paginate(summaries, page.Offset, page.Limit), total, nil
}

func lastActivity(c *domain.Conversation) time.Time {
	if c.LastMessageAt != nil {
		return *c.LastMessageAt
	}
	return c.CreatedAt
}

func (r *MemoryRepository) ListMessages(ctx context.Context, conversationID uuid.UUID, page domain.Page) ([]*domain.Message, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	msgs := r.messages[conversationID]
	out := make([]*domain.Message, len(msgs))
	for i, m := range msgs {
		copied := *m
		out[i] = &copied
	}
	total := len(out)
	return paginate(out, page.Offset, page.Limit), total, nil
}

func (r *MemoryRepository) MarkMessagesRead(ctx context.Context, conversationID, viewerID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range r.messages[conversationID] {
		if m.SenderID != viewerID {
			m.IsRead = true
		}
	}
	return nil
}

func (r *MemoryRepository) CreateMessage(ctx context.Context, conversationID, senderID uuid.UUID, content string) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.conversations[conversationID]
	if !ok {
		return nil, domain.ErrNotFound
	}

	msg := &domain.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      time.Now(),
	}
	r.messages[conversationID] = append(r.messages[conversationID], msg)
	conv.LastMessageAt = &msg.CreatedAt

	out := *msg
	return &out, nil
}

// --- helpers ---

func newProfile(userID uuid.UUID, params domain.ProfileParams) *domain.Profile {
	now := time.Now()
	return &domain.Profile{
		ID:                  uuid.New(),
		UserID:              userID,
		JobTitle:            params.JobTitle,
		Company:             params.Company,
		Bio:                 params.Bio,
		Location:            params.Location,
		LinkedinURL:         params.LinkedinURL,
		Age:                 params.Age,
		YearsExperience:     params.YearsExperience,
		Skills:              stringSlice(params.Skills),
		Interests:           stringSlice(params.Interests),
		MeetingPreferences:  stringSlice(params.MeetingPreferences),
		IsOpenForConnection: params.IsOpenForConnection,
		ContactPreferences:  params.ContactPreferences,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

func copyUser(u *domain.User) *domain.User {
	out := *u
	return &out
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
