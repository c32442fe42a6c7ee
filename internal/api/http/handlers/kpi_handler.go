package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/issue-tracker/internal/service"
)

// KPIHandler exposes dashboard and performance reporting endpoints.
type KPIHandler struct {
	kpi *service.KPIService
}

// NewKPIHandler constructs handler.
func NewKPIHandler(kpi *service.KPIService) *KPIHandler {
	return &KPIHandler{kpi: kpi}
}

// DashboardStats handles GET /api/dashboard/stats.
func (h *KPIHandler) DashboardStats(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	stats, err := h.kpi.Dashboard(c.UserContext(), p.Role)
	if err != nil {
		return err
	}
	return dataResponse(c, http.StatusOK, stats)
}

// DashboardTrends handles GET /api/dashboard/trends?days=N.
func (h *KPIHandler) DashboardTrends(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	points, err := h.kpi.Trends(c.UserContext(), p.Role, c.QueryInt("days"))
	if err != nil {
		return err
	}
	return dataResponse(c, http.StatusOK, points)
}

// DashboardPerformance handles GET /api/dashboard/performance.
func (h *KPIHandler) DashboardPerformance(c *fiber.Ctx) error {
	return h.RepresentativeRanking(c)
}

// RepresentativeKPI handles GET /api/kpi/representative/:id.
func (h *KPIHandler) RepresentativeKPI(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	from, err := parseTimeParam(c.Query("from"), "from")
	if err != nil {
		return err
	}
	to, err := parseTimeParam(c.Query("to"), "to")
	if err != nil {
		return err
	}

	kpi, err := h.kpi.RepresentativeKPI(c.UserContext(), p.UserID, p.Role, c.Params("id"), from, to)
	if err != nil {
		return err
	}
	return dataResponse(c, http.StatusOK, kpi)
}

// RepresentativeRanking handles GET /api/kpi/representatives.
func (h *KPIHandler) RepresentativeRanking(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	from, err := parseTimeParam(c.Query("from"), "from")
	if err != nil {
		return err
	}
	to, err := parseTimeParam(c.Query("to"), "to")
	if err != nil {
		return err
	}

	ranking, err := h.kpi.RepresentativeRanking(c.UserContext(), p.Role, from, to)
	if err != nil {
		return err
	}
	return dataResponse(c, http.StatusOK, ranking)
}

// AverageResolutionTime handles GET /api/kpi/average-resolution-time.
func (h *KPIHandler) AverageResolutionTime(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	global, err := h.kpi.Global(c.UserContext(), p.Role)
	if err != nil {
		return err
	}
	return dataResponse(c, http.StatusOK, fiber.Map{
		"avg_resolution_hours": global.AvgResolutionHours,
	})
}

// TotalResolved handles GET /api/kpi/total-resolved.
func (h *KPIHandler) TotalResolved(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	global, err := h.kpi.Global(c.UserContext(), p.Role)
	if err != nil {
		return err
	}
	return dataResponse(c, http.StatusOK, fiber.Map{
		"total_resolved": global.ResolvedTickets,
	})
}
