package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dpaiva-dev/frequencia-api/internal/service"
	appErrors "github.com/dpaiva-dev/frequencia-api/pkg/errors"
	"github.com/dpaiva-dev/frequencia-api/pkg/response"
)

// ExportHandler exposes file download endpoints.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs the export handler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// MonthlyCSV streams one class month as a CSV attachment.
func (h *ExportHandler) MonthlyCSV(c *gin.Context) {
	classID := c.Query("class_id")
	if classID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "class_id is required"))
		return
	}
	month := c.DefaultQuery("month", time.Now().Format(monthQueryLayout))

	file, err := h.exports.MonthlyClassCSV(c.Request.Context(), classID, month)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Data)
}

// AbsenceReportPDF streams the monthly absence report as a PDF attachment.
func (h *ExportHandler) AbsenceReportPDF(c *gin.Context) {
	month := c.DefaultQuery("month", time.Now().Format(monthQueryLayout))

	file, err := h.exports.MonthlyAbsencePDF(c.Request.Context(), c.Query("class_id"), month)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Data)
}
