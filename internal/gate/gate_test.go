package gate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetgrid/backend/internal/domain"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name  string
		state State
		route RouteClass
		want  Decision
	}{
		{"public always renders", StateAnonymous, RoutePublic, Allow},
		{"public renders while loading", StateLoading, RoutePublic, Allow},
		{"loading holds gated routes", StateLoading, RouteRequiresOnboarded, Hold},
		{"loading holds auth routes", StateLoading, RouteRequiresAuth, Hold},
		{"anonymous lands on landing", StateAnonymous, RouteRequiresAuth, RedirectLanding},
		{"anonymous cannot reach onboarding", StateAnonymous, RouteOnboarding, RedirectLanding},
		{"onboarding may see auth routes", StateOnboarding, RouteRequiresAuth, Allow},
		{"onboarding redirected off gated routes", StateOnboarding, RouteRequiresOnboarded, RedirectOnboarding},
		{"onboarding route does not redirect to itself", StateOnboarding, RouteOnboarding, Allow},
		{"active renders everything", StateActive, RouteRequiresOnboarded, Allow},
		{"active renders onboarding route", StateActive, RouteOnboarding, Allow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.state, tt.route))
		})
	}
}

func TestForUser(t *testing.T) {
	assert.Equal(t, StateAnonymous, ForUser(nil, nil))
	assert.Equal(t, StateAnonymous, ForUser(nil, errors.New("network down")))

	incomplete := &domain.User{OnboardingCompleted: false}
	assert.Equal(t, StateOnboarding, ForUser(incomplete, nil))

	// Failure wins even with a stale user value.
	assert.Equal(t, StateAnonymous, ForUser(incomplete, errors.New("timeout")))

	complete := &domain.User{OnboardingCompleted: true}
	assert.Equal(t, StateActive, ForUser(complete, nil))
}

func TestGateLifecycle(t *testing.T) {
	g := New()
	assert.Equal(t, StateLoading, g.State())
	assert.Equal(t, Hold, g.Decide(RouteRequiresOnboarded))

	g.Resolve(&domain.User{OnboardingCompleted: false}, nil)
	assert.Equal(t, StateOnboarding, g.State())

	require.NoError(t, g.CompleteOnboarding())
	assert.Equal(t, StateActive, g.State())
	assert.Equal(t, Allow, g.Decide(RouteRequiresOnboarded))

	// Completing twice is a transition violation.
	err := g.CompleteOnboarding()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	g.Logout()
	assert.Equal(t, StateAnonymous, g.State())
}

func TestGateCompleteOnboardingRequiresOnboardingState(t *testing.T) {
	g := New()
	assert.ErrorIs(t, g.CompleteOnboarding(), domain.ErrInvalidTransition)

	g.Resolve(nil, nil)
	assert.ErrorIs(t, g.CompleteOnboarding(), domain.ErrInvalidTransition)
}

func TestGateResolveFailsClosed(t *testing.T) {
	g := New()
	g.Resolve(&domain.User{OnboardingCompleted: true}, nil)
	assert.Equal(t, StateActive, g.State())

	// A failed re-check degrades to anonymous, not to an error state.
	g.Resolve(nil, errors.New("status check failed"))
	assert.Equal(t, StateAnonymous, g.State())
	assert.Equal(t, RedirectLanding, g.Decide(RouteRequiresOnboarded))
}

func TestRequire(t *testing.T) {
	assert.NoError(t, Require(StateActive, RouteRequiresOnboarded))
	assert.NoError(t, Require(StateOnboarding, RouteRequiresAuth))
	assert.ErrorIs(t, Require(StateOnboarding, RouteRequiresOnboarded), domain.ErrOnboardingRequired)
	assert.ErrorIs(t, Require(StateAnonymous, RouteRequiresAuth), domain.ErrAuthRequired)
	assert.ErrorIs(t, Require(StateLoading, RouteRequiresAuth), domain.ErrAuthRequired)
}
