package rest

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"github.com/wazecore/wazecore/botkernel"
	"github.com/wazecore/wazecore/botmanager"
	"github.com/wazecore/wazecore/gateway"
	"github.com/wazecore/wazecore/scheduler"
	"github.com/wazecore/wazecore/store"
	"github.com/wazecore/wazecore/ui/rest/middleware"
)

// Deps bundles every component the REST handlers reach into.
type Deps struct {
	Store     *store.Store
	Registry  *botkernel.Registry
	Manager   *botmanager.Manager
	Gateway   *gateway.Client
	Scheduler *scheduler.Scheduler
	JWTSecret []byte
	TokenTTL  time.Duration
	Debug     bool
}

// NewApp assembles the fiber app: recovery and CORS first, then the
// unauthenticated routes, then every other route behind RequireAuth.
func NewApp(deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	app.Use(middleware.Recovery())
	if deps.Debug {
		app.Use(logger.New())
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	InitRestHealth(app)
	InitRestAuth(app, deps.Store, deps.JWTSecret, deps.TokenTTL)

	protected := app.Group("", middleware.RequireAuth(deps.JWTSecret))
	InitRestChat(protected, deps.Store, deps.Manager, deps.Gateway)
	InitRestBot(protected, deps.Registry, deps.Manager)
	InitRestAssignment(protected, deps.Store, deps.Manager)
	InitRestSchedule(protected, deps.Store, deps.Scheduler)

	return app
}
