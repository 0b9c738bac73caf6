package handlers

import (
	"errors"
	"log"
	"net/http"

	"ergocare-backend/classifier"
	"ergocare-backend/models"
	"ergocare-backend/repository"
	"ergocare-backend/scoring"
	"ergocare-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AssessmentHandler handles HTTP requests for survey assessments
type AssessmentHandler struct {
	assessmentService *service.AssessmentService
}

// NewAssessmentHandler creates a new assessment handler
func NewAssessmentHandler(assessmentService *service.AssessmentService) *AssessmentHandler {
	return &AssessmentHandler{assessmentService: assessmentService}
}

// SurveyRequest represents the request body for predict and report
type SurveyRequest struct {
	Data models.SurveyResponse `json:"data" binding:"required"`
}

// FieldError is one rejected survey field in an error response
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Predict handles POST /api/predict
func (h *AssessmentHandler) Predict(c *gin.Context) {
	var req SurveyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	result, err := h.assessmentService.Predict(c.Request.Context(), service.PredictRequest{Survey: req.Data})
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result.Assessment,
	})
}

// Report handles POST /api/report
func (h *AssessmentHandler) Report(c *gin.Context) {
	var req SurveyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	result, err := h.assessmentService.Report(c.Request.Context(), service.ReportRequest{Survey: req.Data})
	if err != nil {
		writeServiceError(c, err)
		return
	}

	resp := gin.H{
		"success": true,
		"data":    result.Assessment,
		"cached":  result.Cached,
	}
	if len(result.Report.Warnings) > 0 {
		resp["warnings"] = result.Report.Warnings
	}
	c.JSON(http.StatusOK, resp)
}

// GetAssessment handles GET /api/assessments/:id
func (h *AssessmentHandler) GetAssessment(c *gin.Context) {
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

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    assessment,
	})
}

func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, scoring.ErrValidation):
		fields := scoring.FieldErrors(err)
		details := make([]FieldError, 0, len(fields))
		for _, f := range fields {
			details = append(details, FieldError{Field: f.Field, Message: f.Error()})
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_SURVEY",
				"message": "Survey response failed validation",
				"details": details,
			},
		})
	case errors.Is(err, service.ErrGenerationTimeout):
		writeError(c, http.StatusGatewayTimeout, "GENERATION_TIMEOUT", err.Error())
	case errors.Is(err, service.ErrGenerationFailed):
		writeError(c, http.StatusBadGateway, "GENERATION_FAILED", err.Error())
	case errors.Is(err, repository.ErrAssessmentNotFound):
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Assessment not found")
	case errors.Is(err, service.ErrAssessmentStoreNotSet),
		errors.Is(err, service.ErrClassifierNotSet),
		errors.Is(err, service.ErrReportGeneratorNotSet),
		errors.Is(err, service.ErrRetrieverNotSet),
		errors.Is(err, classifier.ErrModelUnavailable):
		writeError(c, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", err.Error())
	default:
		log.Printf("Error: Assessment request failed: %v", err)
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	}
}

func writeError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}
