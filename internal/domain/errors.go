package domain

import "errors"

var (
	// ErrAuthRequired means no valid session accompanied the call.
	ErrAuthRequired = errors.New("authentication required")

	// ErrOnboardingRequired means the session is valid but the user has
	// not completed onboarding, which the target operation requires.
	ErrOnboardingRequired = errors.New("onboarding not completed")

	// ErrNotAuthorized means the actor is authenticated but lacks
	// permission for the target entity.
	ErrNotAuthorized = errors.New("not authorized for this resource")

	// ErrInvalidTransition means a state machine precondition was
	// violated, e.g. responding to a request that is no longer pending.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrDuplicateRequest means an active connection request already
	// exists between the pair, in either direction.
	ErrDuplicateRequest = errors.New("connection request already exists")

	// ErrInvalidRequest covers input validation failures on connection
	// requests (empty message, self-connection).
	ErrInvalidRequest = errors.New("invalid connection request")

	// ErrEmptyMessage means the message content trims to nothing.
	ErrEmptyMessage = errors.New("message content is empty")

	// ErrNotFound means the entity does not exist. For profile reads
	// this is a legitimate "no profile yet" signal, not a failure.
	ErrNotFound = errors.New("not found")

	// ErrNotOpen means the receiver has opted out of new connections.
	ErrNotOpen = errors.New("user is not open for connections")

	// ErrProfileExists means the user already has a profile.
	ErrProfileExists = errors.New("profile already exists")
)
