package service

import (
	"ascend/physique-app/internal/domain"
	"ascend/physique-app/internal/store"
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// --- Error Definitions ---
var (
	ErrNoUserData = errors.New("no stored data for user")
	ErrNoPlan     = errors.New("no active plan")
)

// ProfileService exposes the higher-level helpers over the versioned profile
// store. Every write is a thin wrapper around store.Commit.
type ProfileService interface {
	Get(ctx context.Context, userID string) (*domain.UserData, error)

	// SaveFullProfile replaces the profile and both body models in one
	// commit, optionally together with a freshly generated plan.
	SaveFullProfile(ctx context.Context, userID string, profile domain.UserProfile, current, target domain.BodyStats, plan *domain.GeneratedPlan) (*domain.UserData, error)

	// SaveBodyStats updates one of the two body models, clamped into range.
	SaveBodyStats(ctx context.Context, userID string, stats domain.BodyStats, target bool) (*domain.UserData, error)

	SetWorkoutProgress(ctx context.Context, userID, workoutKey string, completed bool) (*domain.UserData, error)
	SetNutritionProgress(ctx context.Context, userID, mealKey string, completed bool) (*domain.UserData, error)
	UnlockWeek(ctx context.Context, userID string) (*domain.UserData, error)
	ResetProgress(ctx context.Context, userID string) (*domain.UserData, error)

	// Reset deletes the user's record entirely. Irreversible.
	Reset(ctx context.Context, userID string) error
}

type profileService struct {
	store   *store.Store
	credits CreditService
	logger  *zap.Logger
}

// NewProfileService creates a new profileService.
func NewProfileService(st *store.Store, credits CreditService, logger *zap.Logger) ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &profileService{store: st, credits: credits, logger: logger}
}

func (s *profileService) Get(ctx context.Context, userID string) (*domain.UserData, error) {
	return s.store.Load(ctx, userID)
}

// SaveFullProfile persists the onboarding/calibration result. The
// entitlement fields (credits, premium, redeemed codes, discount) are owned
// by the ledger, so whatever the client sent for them is discarded in favor
// of the stored values.
func (s *profileService) SaveFullProfile(ctx context.Context, userID string, profile domain.UserProfile, current, target domain.BodyStats, plan *domain.GeneratedPlan) (*domain.UserData, error) {
	current.Clamp()
	target.Clamp()

	return s.store.Commit(ctx, userID, domain.ActionUpdateProfile,
		domain.ProfileUpdatePayload{HasPlan: plan != nil},
		func(data *domain.UserData) {
			profile.Credits = data.Profile.Credits
			profile.IsPremium = data.Profile.IsPremium
			profile.RedeemedCodes = data.Profile.RedeemedCodes
			profile.ActiveDiscount = data.Profile.ActiveDiscount
			if profile.JoinDate == "" {
				profile.JoinDate = data.Profile.JoinDate
			}

			data.Profile = profile
			data.CurrentBody = current
			data.TargetBody = target
			if plan != nil {
				data.Plan = plan
			}
		})
}

func (s *profileService) SaveBodyStats(ctx context.Context, userID string, stats domain.BodyStats, target bool) (*domain.UserData, error) {
	stats.Clamp()
	return s.store.Commit(ctx, userID, domain.ActionUpdateBody,
		domain.BodyUpdatePayload{Target: target},
		func(data *domain.UserData) {
			if target {
				data.TargetBody = stats
			} else {
				data.CurrentBody = stats
			}
		})
}

func (s *profileService) SetWorkoutProgress(ctx context.Context, userID, workoutKey string, completed bool) (*domain.UserData, error) {
	return s.store.Commit(ctx, userID, domain.ActionCompleteWorkout,
		domain.WorkoutPayload{WorkoutKey: workoutKey, IsCompleted: completed},
		func(data *domain.UserData) {
			if data.Progress.CompletedExercises == nil {
				data.Progress.CompletedExercises = map[string]bool{}
			}
			if completed {
				data.Progress.CompletedExercises[workoutKey] = true
			} else {
				delete(data.Progress.CompletedExercises, workoutKey)
			}
		})
}

func (s *profileService) SetNutritionProgress(ctx context.Context, userID, mealKey string, completed bool) (*domain.UserData, error) {
	return s.store.Commit(ctx, userID, domain.ActionCompleteWorkout,
		domain.WorkoutPayload{WorkoutKey: mealKey, IsCompleted: completed},
		func(data *domain.UserData) {
			if data.Progress.CompletedNutrition == nil {
				data.Progress.CompletedNutrition = map[string]bool{}
			}
			if completed {
				data.Progress.CompletedNutrition[mealKey] = true
			} else {
				delete(data.Progress.CompletedNutrition, mealKey)
			}
		})
}

// UnlockWeek spends the unlock cost and advances the user to the next week of
// their plan. The finished week goes into completedWeeks.
func (s *profileService) UnlockWeek(ctx context.Context, userID string) (*domain.UserData, error) {
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

	ok, err := s.credits.SpendCredits(ctx, userID, domain.CostUnlockWeek, "Unlock Week")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInsufficientCredits
	}

	nextWeek := data.Progress.CurrentWeek + 1
	return s.store.Commit(ctx, userID, domain.ActionUnlockWeek,
		domain.WeekUnlockPayload{Week: nextWeek},
		func(d *domain.UserData) {
			d.Progress.CompletedWeeks = append(d.Progress.CompletedWeeks, d.Progress.CurrentWeek)
			d.Progress.CurrentWeek++
		})
}

func (s *profileService) ResetProgress(ctx context.Context, userID string) (*domain.UserData, error) {
	return s.store.Commit(ctx, userID, domain.ActionResetProgress,
		domain.ResetPayload{Reason: "user requested"},
		func(data *domain.UserData) {
			data.Progress = domain.UserProgress{
				CurrentWeek:        1,
				CompletedWeeks:     []int{},
				CompletedExercises: map[string]bool{},
				CompletedNutrition: map[string]bool{},
			}
		})
}

func (s *profileService) Reset(ctx context.Context, userID string) error {
	if err := s.store.Clear(ctx, userID); err != nil {
		return fmt.Errorf("reset user data: %w", err)
	}
	s.credits.DropSession(userID)
	return nil
}
