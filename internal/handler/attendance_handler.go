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

// AttendanceHandler exposes sheet reads and sheet submissions.
type AttendanceHandler struct {
	attendance *service.AttendanceService
}

// NewAttendanceHandler constructs the attendance handler.
func NewAttendanceHandler(attendance *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

// Sheet returns the editable class sheet for one date.
func (h *AttendanceHandler) Sheet(c *gin.Context) {
	classID := c.Param("classID")
	date := c.Query("date")
	if date == "" {
		date = time.Now().Format(dateLayout)
	}

	sheet, err := h.attendance.GetSheet(c.Request.Context(), classID, date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheet, nil)
}

// Submit replaces the class sheet for one date with the submitted entries.
func (h *AttendanceHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.SubmitAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	req.ClassID = c.Param("classID")

	if err := h.attendance.Submit(c.Request.Context(), claims.UserID, req); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"saved": len(req.Entries)}, nil)
}

// Records lists joined attendance records matching the query filters.
func (h *AttendanceHandler) Records(c *gin.Context) {
	filter := models.AttendanceFilter{
		ClassID:   c.Query("class_id"),
		StudentID: c.Query("student_id"),
		TeacherID: c.Query("teacher_id"),
	}
	if raw := c.Query("status"); raw != "" {
		status := models.AttendanceStatus(raw)
		if !status.Valid() {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown status"))
			return
		}
		filter.Status = &status
	}
	if raw := c.Query("date_from"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date_from must be formatted as YYYY-MM-DD"))
			return
		}
		filter.DateFrom = &parsed
	}
	if raw := c.Query("date_to"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date_to must be formatted as YYYY-MM-DD"))
			return
		}
		filter.DateTo = &parsed
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))

	records, pagination, err := h.attendance.ListRecords(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, pagination)
}
