package handlers

import (
	"net/http"

	"air_quality_monitor/internal/models"

	"github.com/gin-gonic/gin"
)

// @Summary      Dashboard snapshot
// @Description  Latest reading, the readings of the trailing window, two-decimal summaries and the air-quality status.
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  dashboardView
// @Router       /api/v1/dashboard [get]
func (h *Handler) getDashboard(c *gin.Context) {
	c.JSON(http.StatusOK, newDashboardView(h.services.Dashboard.Snapshot()))
}

// @Summary      Windowed readings
// @Description  Readings of the trailing window in arrival order.
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  readingsView
// @Router       /api/v1/readings [get]
func (h *Handler) getReadings(c *gin.Context) {
	win := h.services.Dashboard.Snapshot().Window
	if win == nil {
		win = models.ReadingSeries{}
	}
	c.JSON(http.StatusOK, readingsView{Count: len(win), Readings: win})
}

// @Summary      Metric summary
// @Tags         dashboard
// @Produce      json
// @Param        metric  query  string  true  "Metric"  Enums(temperature,humidity)
// @Success      200  {object}  summaryView
// @Failure      400  {object}  map[string]string
// @Router       /api/v1/summary [get]
func (h *Handler) getSummary(c *gin.Context) {
	m, err := models.ParseMetric(c.Query("metric"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	snap := h.services.Dashboard.Snapshot()
	s := snap.Temperature
	if m == models.MetricHumidity {
		s = snap.Humidity
	}
	c.JSON(http.StatusOK, newSummaryView(s))
}

// @Summary      Air-quality status
// @Description  Status of the latest reading in the window, or "N/A" when there is none.
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  statusView
// @Router       /api/v1/status [get]
func (h *Handler) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, newStatusView(h.services.Dashboard.Snapshot().Classification))
}
