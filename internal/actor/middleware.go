// Package actor identifies who is acting on the portal. There is no
// authentication: the caller names itself and the name is only used for
// history attribution.
package actor

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/maximo-portal/version-portal/internal/domain"
	"github.com/maximo-portal/version-portal/internal/repository"
)

const (
	actorKey = "portal_actor"

	// HeaderName carries the acting user id on API calls.
	HeaderName = "X-Portal-User"
	// CookieName remembers the acting user picked in the page header.
	CookieName = "portal_user"
)

// Actor is the identified caller.
type Actor struct {
	ID string
	// User is nil when the id does not match a stored user.
	User *domain.User
}

// Name returns a display name for the actor.
func (a *Actor) Name() string {
	if a == nil {
		return ""
	}
	if a.User != nil && a.User.Name != "" {
		return a.User.Name
	}
	return a.ID
}

// Middleware resolves the acting user for every request.
type Middleware struct {
	users     repository.UserRepository
	defaultID string
	logger    *zap.Logger
}

// NewMiddleware constructs middleware. users may be nil, in which case actors
// are identified by id only.
func NewMiddleware(users repository.UserRepository, defaultID string, logger *zap.Logger) *Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Middleware{users: users, defaultID: defaultID, logger: logger}
}

// Handle picks the id from the header, then the cookie, then the default.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Get(HeaderName))
	if id == "" {
		id = strings.TrimSpace(c.Cookies(CookieName))
	}
	if id == "" {
		id = m.defaultID
	}

	current := &Actor{ID: id}
	if m.users != nil && id != "" {
		user, err := m.users.Get(c.UserContext(), id)
		switch {
		case err == nil:
			current.User = user
		case errors.Is(err, repository.ErrNotFound):
			m.logger.Debug("acting user not in directory", zap.String("user_id", id))
		default:
			m.logger.Warn("acting user lookup failed", zap.String("user_id", id), zap.Error(err))
		}
	}

	c.Locals(actorKey, current)
	return c.Next()
}

// FromContext retrieves the acting user.
func FromContext(c *fiber.Ctx) (*Actor, bool) {
	val := c.Locals(actorKey)
	if val == nil {
		return nil, false
	}
	current, ok := val.(*Actor)
	return current, ok
}

// ID returns the acting user id or an empty string.
func ID(c *fiber.Ctx) string {
	if current, ok := FromContext(c); ok {
		return current.ID
	}
	return ""
}
