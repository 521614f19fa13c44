package service

import (
	"ascend/physique-app/internal/ai"
	"ascend/physique-app/internal/domain"
	"ascend/physique-app/internal/storage"
	"ascend/physique-app/internal/store"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// --- Error Definitions ---
var (
	// ErrGenerationFailed is deliberately generic: the upstream failure
	// detail is logged but never surfaced to the end user.
	ErrGenerationFailed = errors.New("protocol synthesis failed")
	ErrInvalidScanImage = errors.New("invalid or missing scan image")
	ErrScanUploadURL    = errors.New("failed to generate scan upload URL")
)

// UploadURLResponse structure for returning URL and object key
type UploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"` // The key the client reports back when scanning
}

// PlanService owns the plan-generation workflow: entitlement check, delta
// assembly, the generator call, and committing the result wholesale.
type PlanService interface {
	// Generate produces and stores a new plan. Costs CostGeneratePlan
	// credits; the cost is refunded when the generator fails after its
	// retry budget.
	Generate(ctx context.Context, userID, difficulty string) (*domain.GeneratedPlan, error)

	// AdaptForInjury swaps in a one-week recovery protocol around the given
	// injury, parking the current plan and week on the profile.
	AdaptForInjury(ctx context.Context, userID string, injury domain.ActiveInjury) (*domain.GeneratedPlan, error)

	// RestorePlan ends recovery mode and reinstates the parked plan.
	RestorePlan(ctx context.Context, userID string) (*domain.GeneratedPlan, error)

	// RequestScanUploadURL presigns an upload slot for a meal photo.
	RequestScanUploadURL(ctx context.Context, userID, contentType string) (*UploadURLResponse, error)

	// ScanMeal fetches a previously uploaded photo and analyzes it against
	// the active nutrition plan. Costs CostMealScan credits.
	ScanMeal(ctx context.Context, userID, objectKey string) (*domain.MealAnalysis, error)
}

type planService struct {
	store       *store.Store
	credits     CreditService
	generator   ai.Generator
	fileStorage storage.FileStorage
	logger      *zap.Logger
}

// NewPlanService creates a new planService.
func NewPlanService(
	st *store.Store,
	credits CreditService,
	generator ai.Generator,
	fileStorage storage.FileStorage,
	logger *zap.Logger,
) PlanService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &planService{
		store:       st,
		credits:     credits,
		generator:   generator,
		fileStorage: fileStorage,
		logger:      logger,
	}
}

func (s *planService) Generate(ctx context.Context, userID, difficulty string) (*domain.GeneratedPlan, error) {
	data, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, ErrNoUserData
	}
	if difficulty == "" {
		difficulty = "balanced"
	}

	ok, err := s.credits.SpendCredits(ctx, userID, domain.CostGeneratePlan, "Generate Plan")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInsufficientCredits
	}

	plan, err := s.generator.GeneratePlan(ctx, ai.PlanRequest{
		Profile:     data.Profile,
		CurrentBody: data.CurrentBody,
		TargetBody:  data.TargetBody,
		Difficulty:  difficulty,
	})
	if err != nil {
		// Full detail for diagnostics, generic error for the user.
		s.logger.Error("plan generation failed", zap.String("userID", userID), zap.Error(err))
		if refundErr := s.credits.RefundCredits(ctx, userID, domain.CostGeneratePlan, "Generate Plan refund"); refundErr != nil {
			s.logger.Error("failed to refund generation cost", zap.String("userID", userID), zap.Error(refundErr))
		}
		return nil, ErrGenerationFailed
	}

	// Supersede the stored plan wholesale and restart progress at week 1.
	_, err = s.store.Commit(ctx, userID, domain.ActionGeneratePlan,
		domain.PlanGeneratedPayload{TimelineWeeks: plan.TimelineWeeks},
		func(d *domain.UserData) {
			d.Plan = plan
			d.Progress = domain.UserProgress{
				CurrentWeek:        1,
				CompletedWeeks:     []int{},
				CompletedExercises: map[string]bool{},
				CompletedNutrition: map[string]bool{},
			}
		})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *planService) AdaptForInjury(ctx context.Context, userID string, injury domain.ActiveInjury) (*domain.GeneratedPlan, error) {
	data, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, ErrNoUserData
	}
	if data.Plan == nil {
		return nil, ErrNoPlan
	}

	ok, err := s.credits.SpendCredits(ctx, userID, domain.CostCoachAnalysis, "Injury Adaptation")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInsufficientCredits
	}

	if injury.ID == "" {
		injury.ID = uuid.NewString()
	}

	profile := data.Profile
	profile.ActiveInjuries = append(append([]domain.ActiveInjury{}, profile.ActiveInjuries...), injury)

	plan, err := s.generator.GeneratePlan(ctx, ai.PlanRequest{
		Profile:      profile,
		CurrentBody:  data.CurrentBody,
		TargetBody:   data.TargetBody,
		Difficulty:   "easy",
		RecoveryMode: true,
	})
	if err != nil {
		s.logger.Error("injury adaptation failed", zap.String("userID", userID), zap.Error(err))
		if refundErr := s.credits.RefundCredits(ctx, userID, domain.CostCoachAnalysis, "Injury Adaptation refund"); refundErr != nil {
			s.logger.Error("failed to refund adaptation cost", zap.String("userID", userID), zap.Error(refundErr))
		}
		return nil, ErrGenerationFailed
	}

	_, err = s.store.Commit(ctx, userID, domain.ActionGeneratePlan,
		domain.PlanGeneratedPayload{TimelineWeeks: plan.TimelineWeeks, IsRecovery: true},
		func(d *domain.UserData) {
			d.Profile.ActiveInjuries = profile.ActiveInjuries
			d.Profile.IsRecoveryMode = true
			d.Profile.OriginalPlan = d.Plan
			d.Profile.OriginalWeek = d.Progress.CurrentWeek
			d.Plan = plan
			d.Progress.CurrentWeek = 1
		})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *planService) RestorePlan(ctx context.Context, userID string) (*domain.GeneratedPlan, error) {
	data, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, ErrNoUserData
	}
	if !data.Profile.IsRecoveryMode || data.Profile.OriginalPlan == nil {
		return nil, ErrNoPlan
	}

	restored := data.Profile.OriginalPlan
	week := data.Profile.OriginalWeek
	if week < 1 {
		week = 1
	}

	_, err = s.store.Commit(ctx, userID, domain.ActionGeneratePlan,
		domain.PlanGeneratedPayload{TimelineWeeks: restored.TimelineWeeks},
		func(d *domain.UserData) {
			d.Plan = restored
			d.Progress.CurrentWeek = week
			d.Profile.IsRecoveryMode = false
			d.Profile.OriginalPlan = nil
			d.Profile.OriginalWeek = 0
			d.Profile.ActiveInjuries = nil
		})
	if err != nil {
		return nil, err
	}
	return restored, nil
}

func (s *planService) RequestScanUploadURL(ctx context.Context, userID, contentType string) (*UploadURLResponse, error) {
	if contentType == "" || !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return nil, ErrInvalidScanImage
	}

	fileExtension := "bin"
	if parts := strings.Split(contentType, "/"); len(parts) == 2 {
		fileExtension = parts[1]
	}
	objectKey := path.Join("scans", userID, fmt.Sprintf("%s.%s", uuid.NewString(), fileExtension))

	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		s.logger.Error("failed to presign scan upload", zap.String("userID", userID), zap.Error(err))
		return nil, ErrScanUploadURL
	}

	return &UploadURLResponse{UploadURL: uploadURL, ObjectKey: objectKey}, nil
}

func (s *planService) ScanMeal(ctx context.Context, userID, objectKey string) (*domain.MealAnalysis, error) {
	// Keys are minted per user by RequestScanUploadURL; refuse keys outside
	// the caller's own prefix.
	if objectKey == "" || !strings.HasPrefix(objectKey, path.Join("scans", userID)+"/") {
		return nil, ErrInvalidScanImage
	}

	data, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}

	ok, err := s.credits.SpendCredits(ctx, userID, domain.CostMealScan, "Meal Analysis")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInsufficientCredits
	}

	imageBytes, contentType, err := s.fileStorage.GetObject(ctx, objectKey)
	if err != nil {
		s.logger.Error("failed to fetch scan image", zap.String("key", objectKey), zap.Error(err))
		return nil, ErrInvalidScanImage
	}

	var nutrition *domain.NutritionPlan
	if data != nil && data.Plan != nil {
		nutrition = &data.Plan.Nutrition
	}

	analysis, err := s.generator.AnalyzeMeal(ctx, base64.StdEncoding.EncodeToString(imageBytes), contentType, nutrition)
	if err != nil {
		s.logger.Error("meal analysis failed", zap.String("userID", userID), zap.Error(err))
		return nil, ErrGenerationFailed
	}

	// Scan images are transient; best-effort cleanup after analysis.
	if err := s.fileStorage.DeleteObject(ctx, objectKey); err != nil {
		s.logger.Warn("failed to delete scan image", zap.String("key", objectKey), zap.Error(err))
	}

	return analysis, nil
}
