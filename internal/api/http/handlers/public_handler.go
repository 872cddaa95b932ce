package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/citycare/issue-service/internal/api/dto"
	"github.com/citycare/issue-service/internal/observability"
	"github.com/citycare/issue-service/internal/service"
)

// PublicHandler serves unauthenticated dashboard data.
type PublicHandler struct {
	issues *service.IssueService
}

// NewPublicHandler constructs handler.
func NewPublicHandler(issues *service.IssueService) *PublicHandler {
	return &PublicHandler{issues: issues}
}

// Stats GET /public/stats.
func (h *PublicHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.issues.PublicStats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}

// Leaderboard GET /public/leaderboard. Only names and points are exposed.
func (h *PublicHandler) Leaderboard(c *fiber.Ctx) error {
	top, err := h.issues.Leaderboard(c.UserContext(), parseInt(c.Query("limit"), 10))
	if err != nil {
		return err
	}
	entries := make([]dto.LeaderboardEntry, 0, len(top))
	for i, citizen := range top {
		entries = append(entries, dto.LeaderboardEntry{
			Rank:     i + 1,
			FullName: citizen.FullName,
			Points:   citizen.Points,
		})
	}
	return c.JSON(fiber.Map{"data": entries})
}

// MetricsHandler exposes in-memory request counters to admins.
type MetricsHandler struct {
	metrics *observability.Metrics
}

// NewMetricsHandler constructs handler.
func NewMetricsHandler(metrics *observability.Metrics) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

// Snapshot GET /admin/metrics.
func (h *MetricsHandler) Snapshot(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.metrics.Snapshot()})
}
