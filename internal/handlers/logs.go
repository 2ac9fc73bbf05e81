package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"air_quality_monitor/internal/models"
	"air_quality_monitor/internal/service"

	"github.com/gin-gonic/gin"
)

// queryTimeLayouts are tried in order for the from/to bounds.
var queryTimeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", time.DateOnly}

type logsView struct {
	Count  int                  `json:"count"`
	Events []models.IngestEvent `json:"events"`
}

// @Summary      List ingestion events
// @Description  Events recorded by the engine, oldest first. A date-only 'to' covers that whole day.
// @Tags         logs
// @Produce      json
// @Param        from    query  string  false  "Lower bound (RFC3339, 'YYYY-MM-DD HH:MM:SS' or 'YYYY-MM-DD')"  example(2025-08-01)
// @Param        to      query  string  false  "Upper bound, inclusive"  example(2025-08-31)
// @Param        type    query  string  false  "Event type"  Enums(LOADED,SOURCE_UNAVAILABLE,RECORDS_REJECTED)
// @Param        source  query  string  false  "Adapter kind"  Enums(snapshot,stream)
// @Success      200  {object}  logsView
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/logs [get]
func (h *Handler) getLogs(c *gin.Context) {
	f, err := logFilterFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	events, err := h.services.EventLog.List(c.Request.Context(), f)
	switch {
	case errors.Is(err, service.ErrInvalidFilter):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case err != nil:
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load logs", "logs_list_failed", err,
			"from", f.From, "to", f.To, "type", f.Type, "source", f.Source)
	default:
		c.JSON(http.StatusOK, logsView{Count: len(events), Events: events})
	}
}

// logFilterFromQuery reads from, to, type and source. Type and source are
// passed through as given; the service validates them.
func logFilterFromQuery(c *gin.Context) (service.LogFilter, error) {
	f := service.LogFilter{
		Type:   c.Query("type"),
		Source: c.Query("source"),
	}
	if s := strings.TrimSpace(c.Query("from")); s != "" {
		from, _, err := parseQueryTime(s)
		if err != nil {
			return f, fmt.Errorf("from: %w", err)
		}
		f.From = from
	}
	if s := strings.TrimSpace(c.Query("to")); s != "" {
		to, dateOnly, err := parseQueryTime(s)
		if err != nil {
			return f, fmt.Errorf("to: %w", err)
		}
		if dateOnly {
			to = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		f.To = to
	}
	return f, nil
}

// parseQueryTime parses s in UTC and reports whether it carried no time of day.
func parseQueryTime(s string) (time.Time, bool, error) {
	for _, layout := range queryTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), layout == time.DateOnly, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("invalid time %q; use RFC3339, 'YYYY-MM-DD HH:MM:SS' or 'YYYY-MM-DD'", s)
}
