package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dpaiva-dev/frequencia-api/internal/models"
	"github.com/dpaiva-dev/frequencia-api/internal/service"
	appErrors "github.com/dpaiva-dev/frequencia-api/pkg/errors"
	"github.com/dpaiva-dev/frequencia-api/pkg/response"
)

const monthQueryLayout = "2006-01"

// AnalyticsHandler exposes dashboard-ready analytics endpoints.
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
}

// NewAnalyticsHandler constructs the analytics handler.
func NewAnalyticsHandler(analytics *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// PresenceRate returns the scoped presence ratio.
func (h *AnalyticsHandler) PresenceRate(c *gin.Context) {
	scope, err := parseScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	start := time.Now()
	result, cacheHit, err := h.analytics.PresenceRate(c.Request.Context(), scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondScoped(c, http.StatusOK, result, cacheHit, start)
}

// Ranking returns students or classes ordered by absence rate.
func (h *AnalyticsHandler) Ranking(c *gin.Context) {
	scope, err := parseScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	entity := models.RankEntity(c.DefaultQuery("entity", string(models.RankByStudent)))
	if entity != models.RankByStudent && entity != models.RankByClass {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "entity must be student or class"))
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit must be a non-negative integer"))
			return
		}
		limit = parsed
	}
	direction := models.RankDirection(c.DefaultQuery("direction", string(models.RankDescending)))

	start := time.Now()
	entries, cacheHit, err := h.analytics.AbsenceRanking(c.Request.Context(), entity, scope, limit, direction)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondScoped(c, http.StatusOK, entries, cacheHit, start)
}

// Justifications returns the absence justification breakdown.
func (h *AnalyticsHandler) Justifications(c *gin.Context) {
	scope, err := parseScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	start := time.Now()
	breakdown, cacheHit, err := h.analytics.JustificationBreakdown(c.Request.Context(), scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondScoped(c, http.StatusOK, breakdown, cacheHit, start)
}

// TeacherActivity summarises recording activity per teacher.
func (h *AnalyticsHandler) TeacherActivity(c *gin.Context) {
	scope, err := parseScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	start := time.Now()
	entries, cacheHit, err := h.analytics.TeacherActivity(c.Request.Context(), scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondScoped(c, http.StatusOK, entries, cacheHit, start)
}

// Trend returns monthly present/absent buckets.
func (h *AnalyticsHandler) Trend(c *gin.Context) {
	scope, err := parseScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	start := time.Now()
	points, cacheHit, err := h.analytics.MonthlyTrend(c.Request.Context(), scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondScoped(c, http.StatusOK, points, cacheHit, start)
}

// Coverage reports which dates of a month already carry records for a class.
func (h *AnalyticsHandler) Coverage(c *gin.Context) {
	classID := c.Query("class_id")
	if classID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "class_id is required"))
		return
	}
	month := c.DefaultQuery("month", time.Now().Format(monthQueryLayout))
	if _, err := time.Parse(monthQueryLayout, month); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "month must be formatted as YYYY-MM"))
		return
	}

	start := time.Now()
	coverage, cacheHit, err := h.analytics.CalendarCoverage(c.Request.Context(), classID, month)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondScoped(c, http.StatusOK, coverage, cacheHit, start)
}

// SystemMetrics returns the instrumentation snapshot.
func (h *AnalyticsHandler) SystemMetrics(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.analytics.SystemMetrics(), nil)
}
