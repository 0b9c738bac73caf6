package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"ergocare-backend/service"
	"ergocare-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const markdownType = "text/markdown; charset=utf-8"

// ReportHandler serves generated reports as Markdown downloads
type ReportHandler struct {
	assessmentService *service.AssessmentService
	storage           storage.Storage
}

// NewReportHandler creates a new report handler. Storage may be nil, in
// which case reports are served from the stored text only.
func NewReportHandler(assessmentService *service.AssessmentService, storage storage.Storage) *ReportHandler {
	return &ReportHandler{
		assessmentService: assessmentService,
		storage:           storage,
	}
}

// GetReport handles GET /api/assessments/:id/report
func (h *ReportHandler) GetReport(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_ID", "Invalid assessment ID format")
		return
	}

	assessment, err := h.assessmentService.GetAssessment(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("ergocare-report-%s.md", id)

	if assessment.ReportPath != nil && h.storage != nil {
		reader, err := h.storage.Download(c.Request.Context(), *assessment.ReportPath)
		if err == nil {
			defer reader.Close()
			c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
			c.DataFromReader(http.StatusOK, -1, markdownType, reader, nil)
			return
		}
		if !errors.Is(err, storage.ErrNotFound) || assessment.ReportText == nil {
			writeError(c, http.StatusInternalServerError, "DOWNLOAD_FAILED", fmt.Sprintf("Failed to download report: %v", err))
			return
		}
	}

	if assessment.ReportText == nil {
		writeError(c, http.StatusNotFound, "REPORT_NOT_FOUND", "No report has been generated for this assessment")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Data(http.StatusOK, markdownType, []byte(*assessment.ReportText))
}
