package handlers

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/maximo-portal/version-portal/internal/views"
	apperrors "github.com/maximo-portal/version-portal/pkg/util/errorutil"
)

// Flash is the outcome of the previous form post, carried in the query string.
type Flash struct {
	OK      bool
	Message string
}

func flashFrom(c *fiber.Ctx) *Flash {
	ok, msg := c.Query("ok"), c.Query("msg")
	if ok == "" && msg == "" {
		return nil
	}
	return &Flash{OK: ok == "1", Message: msg}
}

// render fills the layout bindings and renders a page.
func render(c *fiber.Ctx, view, title, nav string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	data["Title"] = title
	data["Nav"] = nav
	data["Path"] = c.Path()
	data["Flash"] = flashFrom(c)
	return c.Render(view, data, views.Layout)
}

// redirectWithResult sends the browser back after a form post. Failures are
// reported in the page, not as an error status.
func redirectWithResult(c *fiber.Ctx, logger *zap.Logger, target string, err error, success string) error {
	values := url.Values{}
	if err != nil {
		logger.Warn("form action failed",
			zap.String("path", c.Path()),
			zap.String("target", target),
			zap.Error(err))
		values.Set("ok", "0")
		values.Set("msg", apperrors.UserMessage(err))
	} else {
		values.Set("ok", "1")
		values.Set("msg", success)
	}
	return c.Redirect(target+"?"+values.Encode(), fiber.StatusSeeOther)
}

func respond(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(fiber.Map{"data": data})
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}

func splitList(val string) []string {
	if strings.TrimSpace(val) == "" {
		return nil
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func optional(val string) *string {
	val = strings.TrimSpace(val)
	if val == "" {
		return nil
	}
	return &val
}

// safeReturnPath accepts only local absolute paths.
func safeReturnPath(path string) string {
	if !strings.HasPrefix(path, "/") || strings.HasPrefix(path, "//") || strings.Contains(path, "\\") {
		return "/"
	}
	return path
}
