package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// ActionType enumerates every kind of mutation the profile store records.
type ActionType string

const (
	ActionUpdateProfile   ActionType = "UPDATE_PROFILE"
	ActionUpdateBody      ActionType = "UPDATE_BODY"
	ActionGeneratePlan    ActionType = "GENERATE_PLAN"
	ActionCompleteWorkout ActionType = "COMPLETE_WORKOUT"
	ActionResetProgress   ActionType = "RESET_PROGRESS"
	ActionRedeemPromo     ActionType = "REDEEM_PROMO"
	ActionSpendCredits    ActionType = "SPEND_CREDITS"
	ActionPurchaseCredits ActionType = "PURCHASE_CREDITS"
	ActionSubscribe       ActionType = "SUBSCRIBE"
	ActionUnlockWeek      ActionType = "UNLOCK_WEEK"
)

// Typed payload snapshots, one per action type. The log stores them as raw
// JSON so old entries survive schema drift; DecodePayload maps an entry back
// to its typed form for audit display or replay.
type (
	ProfileUpdatePayload struct {
		HasPlan bool `json:"hasPlan"`
	}
	BodyUpdatePayload struct {
		Target bool `json:"target"` // false = current body edited
	}
	PlanGeneratedPayload struct {
		TimelineWeeks int  `json:"timelineWeeks"`
		IsRecovery    bool `json:"isRecovery"`
	}
	WorkoutPayload struct {
		WorkoutKey  string `json:"workoutKey"`
		IsCompleted bool   `json:"isCompleted"`
	}
	ResetPayload struct {
		Reason string `json:"reason,omitempty"`
	}
	PromoPayload struct {
		Code string    `json:"code"`
		Type PromoType `json:"type"`
	}
	CreditsPayload struct {
		Amount int    `json:"amount"`
		Action string `json:"action,omitempty"`
	}
	SubscribePayload struct {
		Source string `json:"source,omitempty"` // "purchase" or "promo"
	}
	WeekUnlockPayload struct {
		Week int `json:"week"`
	}
)

// ActionLog is one append-only audit entry. History is never edited or
// reordered; current state is stored denormalized alongside it, so the log is
// for audit/replay only.
type ActionLog struct {
	ID        string          `bson:"id" json:"id"`
	Timestamp int64           `bson:"timestamp" json:"timestamp"` // unix ms
	Type      ActionType      `bson:"type" json:"type"`
	Payload   json.RawMessage `bson:"payload,omitempty" json:"payload,omitempty"`
}

// DecodePayload returns the typed payload for this entry based on its action
// type. Unknown types fall through as an error so callers notice drift.
func (a *ActionLog) DecodePayload() (any, error) {
	var (
		target any
	)
	switch a.Type {
	case ActionUpdateProfile:
		target = &ProfileUpdatePayload{}
	case ActionUpdateBody:
		target = &BodyUpdatePayload{}
	case ActionGeneratePlan:
		target = &PlanGeneratedPayload{}
	case ActionCompleteWorkout:
		target = &WorkoutPayload{}
	case ActionResetProgress:
		target = &ResetPayload{}
	case ActionRedeemPromo:
		target = &PromoPayload{}
	case ActionSpendCredits, ActionPurchaseCredits:
		target = &CreditsPayload{}
	case ActionSubscribe:
		target = &SubscribePayload{}
	case ActionUnlockWeek:
		target = &WeekUnlockPayload{}
	default:
		return nil, fmt.Errorf("unknown action type %q", a.Type)
	}
	if len(a.Payload) == 0 {
		return target, nil
	}
	if err := json.Unmarshal(a.Payload, target); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", a.Type, err)
	}
	return target, nil
}

// UserProgress tracks per-week and per-exercise completion.
type UserProgress struct {
	CurrentWeek         int             `bson:"currentWeek" json:"currentWeek"`
	CompletedWeeks      []int           `bson:"completedWeeks" json:"completedWeeks"`
	CompletedExercises  map[string]bool `bson:"completedExercises" json:"completedExercises"` // key: "w<week>-d<day>-e<exercise>"
	CompletedNutrition  map[string]bool `bson:"completedNutrition" json:"completedNutrition"`
}

// UserData is the root aggregate persisted per user: one record holding the
// profile, both body models, the active plan, progress, and the audit log.
// Version increments by exactly 1 per commit and history only ever grows.
type UserData struct {
	ID         string      `bson:"id" json:"id"`
	Version    int         `bson:"version" json:"version"`
	LastSynced string      `bson:"lastSynced" json:"lastSynced"`

	Profile     UserProfile    `bson:"profile" json:"profile"`
	CurrentBody BodyStats      `bson:"currentBody" json:"currentBody"`
	TargetBody  BodyStats      `bson:"targetBody" json:"targetBody"`
	Plan        *GeneratedPlan `bson:"plan" json:"plan"`
	Progress    UserProgress   `bson:"progress" json:"progress"`

	History []ActionLog `bson:"history" json:"history"`
}

// NewUserData builds the fresh default record used the first time a user id
// is committed to: empty profile with the initial credit grant, neutral body
// stats, no plan, week 1, empty history.
func NewUserData(userID string, now time.Time) *UserData {
	return &UserData{
		ID:         userID,
		Version:    1,
		LastSynced: now.UTC().Format(time.RFC3339),
		Profile: UserProfile{
			Credits:       InitialCredits,
			RedeemedCodes: []string{},
			JoinDate:      now.UTC().Format(time.RFC3339),
		},
		CurrentBody: DefaultBodyStats(),
		TargetBody:  DefaultBodyStats(),
		Progress: UserProgress{
			CurrentWeek:        1,
			CompletedWeeks:     []int{},
			CompletedExercises: map[string]bool{},
			CompletedNutrition: map[string]bool{},
		},
		History: []ActionLog{},
	}
}
