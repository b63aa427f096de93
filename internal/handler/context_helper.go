package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dpaiva-dev/frequencia-api/internal/middleware"
	"github.com/dpaiva-dev/frequencia-api/internal/models"
	appErrors "github.com/dpaiva-dev/frequencia-api/pkg/errors"
	"github.com/dpaiva-dev/frequencia-api/pkg/response"
)

const dateLayout = "2006-01-02"

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// parseScope reads the shared analytics scope query parameters.
func parseScope(c *gin.Context) (models.AnalyticsScope, error) {
	scope := models.AnalyticsScope{
		ClassID:   c.Query("class_id"),
		StudentID: c.Query("student_id"),
		TeacherID: c.Query("teacher_id"),
	}
	if raw := c.Query("date_from"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			return scope, appErrors.Clone(appErrors.ErrValidation, "date_from must be formatted as YYYY-MM-DD")
		}
		scope.DateFrom = &parsed
	}
	if raw := c.Query("date_to"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			return scope, appErrors.Clone(appErrors.ErrValidation, "date_to must be formatted as YYYY-MM-DD")
		}
		scope.DateTo = &parsed
	}
	return scope, nil
}

func respondScoped(c *gin.Context, status int, data interface{}, cacheHit bool, start time.Time) {
	response.JSON(c, status, data, nil, map[string]interface{}{
		"cache_hit":          cacheHit,
		"processing_time_ms": time.Since(start).Milliseconds(),
	})
}
