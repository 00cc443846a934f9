package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/maximo-portal/version-portal/internal/actor"
	"github.com/maximo-portal/version-portal/internal/api/dto"
)

const actorCookieTTL = 30 * 24 * time.Hour

// SessionHandler lets page users pick who they act as. It only sets a cookie;
// nothing is verified.
type SessionHandler struct{}

// NewSessionHandler constructs handler.
func NewSessionHandler() *SessionHandler {
	return &SessionHandler{}
}

// SwitchUser POST /session/user.
func (h *SessionHandler) SwitchUser(c *fiber.Ctx) error {
	var req dto.SwitchUserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	cookie := &fiber.Cookie{
		Name:     actor.CookieName,
		Value:    strings.TrimSpace(req.UserID),
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(actorCookieTTL),
	}
	if cookie.Value == "" {
		cookie.Expires = time.Unix(0, 0)
	}
	c.Cookie(cookie)
	return c.Redirect(safeReturnPath(req.ReturnTo), fiber.StatusSeeOther)
}

// Me GET /api/me.
func (h *SessionHandler) Me(c *fiber.Ctx) error {
	current, ok := actor.FromContext(c)
	if !ok {
		return respond(c, http.StatusOK, dto.ActorResponse{})
	}
	return respond(c, http.StatusOK, dto.ActorResponse{
		ID:   current.ID,
		Name: current.Name(),
		User: current.User,
	})
}
