package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/maximo-portal/version-portal/internal/observability"
)

// ServerOptions configures the Fiber application.
type ServerOptions struct {
	AppName        string
	Views          fiber.Views
	Logger         *zap.Logger
	Metrics        *observability.Metrics
	RequestTimeout time.Duration
}

// NewServer creates the Fiber app with global middlewares attached. Routes are
// registered separately through RegisterRoutes.
func NewServer(opts ServerOptions) *fiber.App {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	app := fiber.New(fiber.Config{
		AppName:               opts.AppName,
		Views:                 opts.Views,
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})
	RegisterMiddlewares(app, opts.Logger, opts.Metrics, opts.RequestTimeout)
	return app
}
