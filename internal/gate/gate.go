// Package gate holds the access-gate state machine: which experience a
// session is entitled to and where gated routes send everyone else. It
// has no HTTP or storage dependencies so the transition table is
// testable on its own; the auth middleware and the web client both
// follow the same table.
package gate

import (
	"fmt"

	"github.com/meetgrid/backend/internal/domain"
)

// State is the resolved access level of a session.
type State int

const (
	// StateLoading is the initial state, before the session is resolved.
	// Nothing gated renders while loading.
	StateLoading State = iota

	// StateAnonymous means no session. Also the landing state for any
	// resolution failure: the gate fails closed to the guest view, never
	// to an error state.
	StateAnonymous

	// StateOnboarding means authenticated but onboarding incomplete.
	StateOnboarding

	// StateActive means authenticated with onboarding completed.
	StateActive
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAnonymous:
		return "anonymous"
	case StateOnboarding:
		return "onboarding"
	case StateActive:
		return "active"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Authenticated reports whether the state carries a valid session.
func (s State) Authenticated() bool {
	return s == StateOnboarding || s == StateActive
}

// RouteClass tags what a route demands of the session.
type RouteClass int

const (
	// RoutePublic renders for everyone.
	RoutePublic RouteClass = iota

	// RouteRequiresAuth renders for any authenticated user.
	RouteRequiresAuth

	// RouteRequiresOnboarded renders only once onboarding is complete.
	RouteRequiresOnboarded

	// RouteOnboarding is the onboarding flow itself. It requires auth
	// but never redirects to itself.
	RouteOnboarding
)

// Decision is what the gate tells the caller to do with a route.
type Decision int

const (
	// Allow renders the route.
	Allow Decision = iota

	// Hold renders nothing yet: the session is still resolving.
	Hold

	// RedirectLanding sends the caller to the public landing page.
	RedirectLanding

	// RedirectOnboarding sends the caller into the onboarding flow.
	RedirectOnboarding
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Hold:
		return "hold"
	case RedirectLanding:
		return "redirect-landing"
	case RedirectOnboarding:
		return "redirect-onboarding"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// Decide is the routing contract: given a resolved state and a route
// class, what happens. Pure function of its inputs.
func Decide(state State, route RouteClass) Decision {
	if route == RoutePublic {
		return Allow
	}
	switch state {
	case StateLoading:
		return Hold
	case StateAnonymous:
		return RedirectLanding
	case StateOnboarding:
		if route == RouteOnboarding || route == RouteRequiresAuth {
			return Allow
		}
		return RedirectOnboarding
	case StateActive:
		return Allow
	default:
		return RedirectLanding
	}
}

// ForUser maps a resolution outcome to a state. A nil user or any error
// is anonymous: network failures during status checks degrade to the
// guest view rather than blocking.
func ForUser(user *domain.User, err error) State {
	if err != nil || user == nil {
		return StateAnonymous
	}
	if !user.OnboardingCompleted {
		return StateOnboarding
	}
	return StateActive
}

// Gate is the session-scoped state machine. It starts loading, resolves
// exactly the transitions the session lifecycle allows and rejects the
// rest.
type Gate struct {
	state State
}

func New() *Gate {
	return &Gate{state: StateLoading}
}

// State returns the current state.
func (g *Gate) State() State {
	return g.state
}

// Resolve applies the outcome of a session exchange or status check.
// Valid from any state: a re-check can always change the answer.
func (g *Gate) Resolve(user *domain.User, err error) State {
	g.state = ForUser(user, err)
	return g.state
}

// CompleteOnboarding moves onboarding to active. Any other origin state
// is a transition violation.
func (g *Gate) CompleteOnboarding() error {
	if g.state != StateOnboarding {
		return fmt.Errorf("%w: complete-onboarding from %s", domain.ErrInvalidTransition, g.state)
	}
	g.state = StateActive
	return nil
}

// Logout clears the session unconditionally, from any state. Local
// state always wins even when the server-side logout call failed.
func (g *Gate) Logout() {
	g.state = StateAnonymous
}

// Decide applies the routing contract to the gate's current state.
func (g *Gate) Decide(route RouteClass) Decision {
	return Decide(g.state, route)
}

// Require returns the domain error a state owes a route, or nil when
// the route is allowed. This is the server-side face of Decide.
func Require(state State, route RouteClass) error {
	switch Decide(state, route) {
	case Allow:
		return nil
	case RedirectOnboarding:
		return domain.ErrOnboardingRequired
	default:
		return domain.ErrAuthRequired
	}
}
