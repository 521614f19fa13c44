package api

import (
	"ascend/physique-app/internal/domain"
	"ascend/physique-app/internal/service"
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ProfileHandler serves the member's own record: profile, body models,
// progress and resets.
type ProfileHandler struct {
	profileService service.ProfileService
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profileService service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// --- Request Structs ---

type SaveProfileRequest struct {
	Profile     domain.UserProfile    `json:"profile" binding:"required"`
	CurrentBody domain.BodyStats      `json:"currentBody"`
	TargetBody  domain.BodyStats      `json:"targetBody"`
	Plan        *domain.GeneratedPlan `json:"plan,omitempty"`
}

type SaveBodyRequest struct {
	Stats  domain.BodyStats `json:"stats" binding:"required"`
	Target bool             `json:"target"`
}

type ProgressRequest struct {
	Key       string `json:"key" binding:"required"`
	Completed bool   `json:"completed"`
}

// --- Handler Methods ---

// GetData returns the caller's full record, or 404 when none exists yet.
func (h *ProfileHandler) GetData(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	data, err := h.profileService.Get(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load record")
		return
	}
	if data == nil {
		abortWithError(c, http.StatusNotFound, "No record found")
		return
	}

	c.JSON(http.StatusOK, data)
}

// SaveProfile commits the full profile and both body models in one version.
func (h *ProfileHandler) SaveProfile(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req SaveProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	data, err := h.profileService.SaveFullProfile(c.Request.Context(), userID, req.Profile, req.CurrentBody, req.TargetBody, req.Plan)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to save profile")
		return
	}

	c.JSON(http.StatusOK, data)
}

// SaveBody commits one of the two body models, clamped into valid range.
func (h *ProfileHandler) SaveBody(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req SaveBodyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	data, err := h.profileService.SaveBodyStats(c.Request.Context(), userID, req.Stats, req.Target)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to save body stats")
		return
	}

	c.JSON(http.StatusOK, data)
}

// SetWorkoutProgress toggles completion of one workout slot.
func (h *ProfileHandler) SetWorkoutProgress(c *gin.Context) {
	h.setProgress(c, h.profileService.SetWorkoutProgress)
}

// SetNutritionProgress toggles completion of one meal slot.
func (h *ProfileHandler) SetNutritionProgress(c *gin.Context) {
	h.setProgress(c, h.profileService.SetNutritionProgress)
}

func (h *ProfileHandler) setProgress(
	c *gin.Context,
	apply func(ctx context.Context, userID, key string, completed bool) (*domain.UserData, error),
) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req ProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	data, err := apply(c.Request.Context(), userID, req.Key, req.Completed)
	if err != nil {
		if errors.Is(err, service.ErrNoUserData) {
			abortWithError(c, http.StatusNotFound, "No record found")
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to update progress")
		return
	}

	c.JSON(http.StatusOK, data)
}

// UnlockWeek spends credits to advance to the next plan week.
func (h *ProfileHandler) UnlockWeek(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	data, err := h.profileService.UnlockWeek(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInsufficientCredits):
			abortWithError(c, http.StatusPaymentRequired, err.Error())
		case errors.Is(err, service.ErrNoUserData), errors.Is(err, service.ErrNoPlan):
			abortWithError(c, http.StatusNotFound, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to unlock week")
		}
		return
	}

	c.JSON(http.StatusOK, data)
}

// ResetProgress returns progress to week 1 while keeping the plan.
func (h *ProfileHandler) ResetProgress(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	data, err := h.profileService.ResetProgress(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrNoUserData) {
			abortWithError(c, http.StatusNotFound, "No record found")
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to reset progress")
		return
	}

	c.JSON(http.StatusOK, data)
}

// Reset deletes the caller's record entirely. Irreversible.
func (h *ProfileHandler) Reset(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	if err := h.profileService.Reset(c.Request.Context(), userID); err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to reset record")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Record deleted"})
}
