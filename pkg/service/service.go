// Package service holds the TravelBuddy domain rules: identity, the trip
// registry, the join-request workflow, the participation roster and the
// messaging log. Handlers pass an authenticated caller id in; every rule
// violation comes back as an *Error.
package service

import (
	"time"

	"github.com/1mt4y/travelbuddy/pkg/db"
	"github.com/1mt4y/travelbuddy/pkg/log"
	"github.com/1mt4y/travelbuddy/pkg/utils"
)

// Services bundles the domain components around one repository.
type Services struct {
	Identity  *Identity
	Trips     *TripRegistry
	Requests  *JoinRequests
	Roster    *Roster
	Messaging *Messaging
}

type core struct {
	repo      *db.Repository
	validator *utils.Validator
	logger    *log.Logger
	now       func() time.Time
}

// Option customises New.
type Option func(*core)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *core) {
		c.now = now
	}
}

// New wires the components. The repository is shared; nothing here holds
// per-request state.
func New(repo *db.Repository, hasher *utils.PasswordHasher, logger *log.Logger, opts ...Option) *Services {
	c := &core{
		repo:      repo,
		validator: utils.NewValidator(),
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	return &Services{
		Identity:  &Identity{core: c, hasher: hasher},
		Trips:     &TripRegistry{core: c},
		Requests:  &JoinRequests{core: c},
		Roster:    &Roster{core: c},
		Messaging: &Messaging{core: c},
	}
}

func (c *core) clock() time.Time {
	return c.now().UTC()
}
