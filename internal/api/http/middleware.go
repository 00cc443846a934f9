package http

import (
	"context"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"github.com/maximo-portal/version-portal/internal/observability"
	"github.com/maximo-portal/version-portal/internal/views"
	apperrors "github.com/maximo-portal/version-portal/pkg/util/errorutil"
)

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	app.Use(requestid.New())
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(errorHandlingMiddleware(logger, metrics))
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := apperrors.ToDomainError(err)
				metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
				if domainErr.HTTPStatus >= 500 {
					logger.Error("request failed", zap.String("path", c.Path()), zap.Error(domainErr))
				}
				c.Status(domainErr.HTTPStatus)
				if wantsJSON(c) {
					_ = writeJSONError(c, domainErr)
				} else {
					writeHTMLError(c, logger, domainErr)
				}
				err = nil
			}
		}()
		return c.Next()
	}
}

func wantsJSON(c *fiber.Ctx) bool {
	path := c.Path()
	for _, prefix := range []string{"/api", "/health", "/metrics"} {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

func writeJSONError(c *fiber.Ctx, domainErr *apperrors.DomainError) error {
	body := fiber.Map{
		"code":    domainErr.Code,
		"message": domainErr.Message,
	}
	if len(domainErr.Details) > 0 {
		body["details"] = domainErr.Details
	}
	return c.JSON(fiber.Map{"error": body})
}

func writeHTMLError(c *fiber.Ctx, logger *zap.Logger, domainErr *apperrors.DomainError) {
	err := c.Render("error", fiber.Map{
		"Title":   "Error",
		"Nav":     "",
		"Path":    c.Path(),
		"Status":  domainErr.HTTPStatus,
		"Message": domainErr.Message,
	}, views.Layout)
	if err != nil {
		logger.Warn("error page render failed", zap.Error(err))
		c.Type("txt", "utf-8")
		_ = c.SendString(domainErr.Message)
	}
}
