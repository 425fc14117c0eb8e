package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/meetgrid/backend/pkg/validator"
)

// ProfileService manages member profiles and the browse view.
type ProfileService struct {
	repo ProfileRepository
}

func NewProfileService(repo ProfileRepository) *ProfileService {
	return &ProfileService{repo: repo}
}

// CreateProfile creates the user's profile. A second create fails.
func (s *ProfileService) CreateProfile(ctx context.Context, userID uuid.UUID, params ProfileParams) (*Profile, error) {
	if err := validateProfileFields(params.LinkedinURL, params.Age, params.YearsExperience); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetProfileByUserID(ctx, userID); err == nil {
		return nil, ErrProfileExists
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return s.repo.CreateProfile(ctx, userID, params)
}

// GetMyProfile returns the caller's own profile. ErrNotFound is the
// "no profile yet" signal the onboarding gate relies on.
func (s *ProfileService) GetMyProfile(ctx context.Context, userID uuid.UUID) (*ProfileView, error) {
	return s.repo.GetProfileByUserID(ctx, userID)
}

// GetProfile returns another member's profile.
func (s *ProfileService) GetProfile(ctx context.Context, userID uuid.UUID) (*ProfileView, error) {
	return s.repo.GetProfileByUserID(ctx, userID)
}

// UpdateProfile applies a partial update to the caller's profile.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID uuid.UUID, update ProfileUpdate) (*Profile, error) {
	if err := validateProfileFields(update.LinkedinURL, update.Age, update.YearsExperience); err != nil {
		return nil, err
	}
	return s.repo.UpdateProfile(ctx, userID, update)
}

// validateProfileFields checks the fields shared by create and update.
// An empty linkedin URL clears the field and is always allowed.
func validateProfileFields(linkedinURL *string, age, yearsExperience *int) error {
	var errs validator.ValidationErrors
	if linkedinURL != nil && *linkedinURL != "" && !validator.ValidateURL(*linkedinURL) {
		errs.Add("linkedin_url", "must be an absolute http(s) URL")
	}
	if age != nil && (*age < 16 || *age > 120) {
		errs.Add("age", "out of range")
	}
	if yearsExperience != nil && *yearsExperience < 0 {
		errs.Add("years_experience", "must not be negative")
	}
	if errs.HasErrors() {
		return fmt.Errorf("%w: %s", ErrInvalidRequest, errs.Error())
	}
	return nil
}

// Browse lists open-for-connection members matching the filter. The
// viewer and anyone with an active request involving the viewer are
// excluded, so a member disappears from browse the moment a request is
// outstanding.
func (s *ProfileService) Browse(ctx context.Context, viewerID uuid.UUID, filter BrowseFilter) ([]*ProfileView, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = 10
	}
	if filter.Limit > 50 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.repo.BrowseProfiles(ctx, viewerID, filter)
}
