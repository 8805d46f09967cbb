package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jobtrackr/jobtrackr/app/models"
	"github.com/jobtrackr/jobtrackr/app/repository"
	"github.com/jobtrackr/jobtrackr/internal/pkg/usercontext"
)

// HandleAnalyticsSummary returns 30-day metric counts plus the most recent
// raw metric rows for the user.
func HandleAnalyticsSummary(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	repos := repository.GetGlobalFactory().GetRepositories()

	since := time.Now().AddDate(0, 0, -30)
	metricTypes := []string{
		models.MetricApplicationSubmitted,
		models.MetricApplicationStatus,
		models.MetricInterviewScheduled,
		models.MetricOfferReceived,
		models.MetricAIGeneration,
		models.MetricATSSuccess,
	}
	counts := fiber.Map{}
	for _, metricType := range metricTypes {
		count, err := repos.Analytics.CountByUserAndType(userID, metricType, since)
		if err != nil {
			return internalError(c, "could not compute analytics")
		}
		counts[metricType] = count
	}

	recent, err := repos.Analytics.ListByUser(userID, 50)
	if err != nil {
		return internalError(c, "could not load analytics")
	}

	return c.JSON(fiber.Map{
		"since":  since.Format(time.RFC3339),
		"counts": counts,
		"recent": recent,
	})
}
