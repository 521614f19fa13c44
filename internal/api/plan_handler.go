package api

import (
	"ascend/physique-app/internal/domain"
	"ascend/physique-app/internal/service"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// PlanHandler drives plan generation, injury adaptation, meal scans and
// progress reports.
type PlanHandler struct {
	planService   service.PlanService
	reportService service.ReportService
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(planService service.PlanService, reportService service.ReportService) *PlanHandler {
	return &PlanHandler{planService: planService, reportService: reportService}
}

// --- Request Structs ---

type GenerateRequest struct {
	Difficulty string `json:"difficulty" binding:"omitempty,oneof=easy balanced intense"`
}

type InjuryRequest struct {
	Injury domain.ActiveInjury `json:"injury" binding:"required"`
}

type ScanUploadRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

type ScanMealRequest struct {
	ObjectKey string `json:"objectKey" binding:"required"`
}

type ReportRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// --- Handler Methods ---

func (h *PlanHandler) planError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrInsufficientCredits):
		abortWithError(c, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, service.ErrNoUserData), errors.Is(err, service.ErrNoPlan):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrGenerationFailed):
		abortWithError(c, http.StatusBadGateway, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, fallback)
	}
}

// Generate creates a fresh plan for the caller.
func (h *PlanHandler) Generate(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	plan, err := h.planService.Generate(c.Request.Context(), userID, req.Difficulty)
	if err != nil {
		h.planError(c, err, "Failed to generate plan")
		return
	}

	c.JSON(http.StatusOK, plan)
}

// AdaptForInjury swaps in a one-week recovery protocol.
func (h *PlanHandler) AdaptForInjury(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req InjuryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	plan, err := h.planService.AdaptForInjury(c.Request.Context(), userID, req.Injury)
	if err != nil {
		h.planError(c, err, "Failed to adapt plan")
		return
	}

	c.JSON(http.StatusOK, plan)
}

// RestorePlan ends recovery mode and reinstates the parked plan.
func (h *PlanHandler) RestorePlan(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	plan, err := h.planService.RestorePlan(c.Request.Context(), userID)
	if err != nil {
		h.planError(c, err, "Failed to restore plan")
		return
	}

	c.JSON(http.StatusOK, plan)
}

// RequestScanUpload presigns an upload slot for a meal photo.
func (h *PlanHandler) RequestScanUpload(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req ScanUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	resp, err := h.planService.RequestScanUploadURL(c.Request.Context(), userID, req.ContentType)
	if err != nil {
		if errors.Is(err, service.ErrInvalidScanImage) {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to create upload URL")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ScanMeal analyzes a previously uploaded meal photo.
func (h *PlanHandler) ScanMeal(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req ScanMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	analysis, err := h.planService.ScanMeal(c.Request.Context(), userID, req.ObjectKey)
	if err != nil {
		if errors.Is(err, service.ErrInvalidScanImage) {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		h.planError(c, err, "Failed to analyze meal")
		return
	}

	c.JSON(http.StatusOK, analysis)
}

// SendReport emails a progress summary to the caller.
func (h *PlanHandler) SendReport(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	err = h.reportService.SendReport(c.Request.Context(), userID, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInsufficientCredits):
			abortWithError(c, http.StatusPaymentRequired, err.Error())
		case errors.Is(err, service.ErrNoUserData):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrReportDelivery):
			abortWithError(c, http.StatusBadGateway, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to send report")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Report sent"})
}
