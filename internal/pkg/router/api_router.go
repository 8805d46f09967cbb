package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/jobtrackr/jobtrackr/app/controllers"
	"github.com/jobtrackr/jobtrackr/internal/pkg/middleware"
	"github.com/jobtrackr/jobtrackr/internal/pkg/usercontext"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "jobtrackr api",
		})
	})

	v1 := api.Group("/v1", sessionOrAPIKey())

	v1.Get("/me", controllers.HandleMe)
	v1.Post("/me/api-key", controllers.HandleIssueAPIKey)
	v1.Delete("/me/api-key", controllers.HandleRevokeAPIKey)

	jobs := v1.Group("/jobs")
	jobs.Post("/", controllers.HandleJobCreate)
	jobs.Get("/", controllers.HandleJobList)
	jobs.Get("/search", controllers.HandleJobSearch)
	jobs.Get("/:id", controllers.HandleJobGet)
	jobs.Patch("/:id", controllers.HandleJobUpdate)
	jobs.Delete("/:id", controllers.HandleJobDelete)

	apps := v1.Group("/applications")
	apps.Post("/", controllers.HandleApplicationCreate)
	apps.Get("/", controllers.HandleApplicationList)
	apps.Get("/stats", controllers.HandleApplicationStats)
	apps.Get("/:id", controllers.HandleApplicationGet)
	apps.Patch("/:id/status", controllers.HandleApplicationStatusUpdate)
	apps.Delete("/:id", controllers.HandleApplicationDelete)
	apps.Post("/:id/submit", controllers.HandleApplicationSubmit)
	apps.Post("/:id/ats-apply", controllers.HandleApplicationATSApply)
	apps.Post("/:id/generate-cover-letter", controllers.HandleGenerateCoverLetter)
	apps.Post("/:id/generate-resume-bullets", controllers.HandleGenerateResumeBullets)

	v1.Get("/analytics", controllers.HandleAnalyticsSummary)

	resumes := v1.Group("/resumes")
	resumes.Post("/", controllers.HandleResumeUpload)
	resumes.Get("/", controllers.HandleResumeList)
	resumes.Get("/:id/download", controllers.HandleResumeDownload)
	resumes.Post("/:id/master", controllers.HandleResumeSetMaster)
	resumes.Delete("/:id", controllers.HandleResumeDelete)

	subscription := v1.Group("/subscription")
	subscription.Get("/plans", controllers.HandlePlans)
	subscription.Get("/", controllers.HandleSubscriptionDetails)
	subscription.Post("/checkout", controllers.HandleCheckout)
	subscription.Post("/portal", controllers.HandleBillingPortal)
	subscription.Get("/payments", controllers.HandlePaymentHistory)
	subscription.Post("/cancel", controllers.HandleSubscriptionCancel)
}

// sessionOrAPIKey accepts either an established session or an API key
// header. Requests with neither are rejected with 401.
func sessionOrAPIKey() fiber.Handler {
	apiKeyAuth := middleware.APIKeyAuthMiddleware()
	return func(c *fiber.Ctx) error {
		if usercontext.IsLoggedIn(c) {
			return c.Next()
		}
		return apiKeyAuth(c)
	}
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
