package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jobtrackr/jobtrackr/app/controllers"
	"github.com/jobtrackr/jobtrackr/internal/pkg/middleware"
	"github.com/jobtrackr/jobtrackr/internal/pkg/session"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Billing webhooks authenticate via signature, never via session.
	app.Post("/subscription/webhook", controllers.HandleStripeWebhook)

	// Session-based auth endpoints.
	auth := app.Group("/auth")
	auth.Post("/register", controllers.HandleRegister)
	auth.Post("/login", controllers.HandleLogin)
	auth.Post("/logout", controllers.HandleLogout)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
