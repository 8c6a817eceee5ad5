package controller

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-predictform/internal/logging"
)

// Policy decides how a submit interacts with one already in flight.
type Policy string

const (
	// PolicyLatestWins lets older requests run but drops their completions.
	PolicyLatestWins Policy = "latest-wins"
	// PolicyCancelStale cancels the older request's context.
	PolicyCancelStale Policy = "cancel-stale"
	// PolicySingleFlight ignores submits while a request is in flight.
	PolicySingleFlight Policy = "single-flight"
)

// ParsePolicy maps a policy name onto a Policy. Empty means latest-wins.
func ParsePolicy(raw string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", PolicyLatestWins:
		return PolicyLatestWins, nil
	case PolicyCancelStale:
		return PolicyCancelStale, nil
	case PolicySingleFlight:
		return PolicySingleFlight, nil
	default:
		return "", fmt.Errorf("controller: unknown policy %q", raw)
	}
}

// Observer is notified with a fresh Snapshot after every state change.
type Observer func(Snapshot)

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the transition logger.
func WithLogger(logger logging.Logger) Option {
	return func(c *Controller) {
		c.logger = logging.OrNop(logger)
	}
}

// WithObserver registers an observer. Observers run outside the controller
// lock, on the goroutine that caused the change.
func WithObserver(observer Observer) Option {
	return func(c *Controller) {
		if observer != nil {
			c.observers = append(c.observers, observer)
		}
	}
}

// WithPolicy selects the in-flight policy.
func WithPolicy(policy Policy) Option {
	return func(c *Controller) {
		if policy != "" {
			c.policy = policy
		}
	}
}

// WithTokenSource overrides request token generation.
func WithTokenSource(next func() string) Option {
	return func(c *Controller) {
		if next != nil {
			c.nextToken = next
		}
	}
}

func defaultTokenSource() string {
	return uuid.NewString()
}
