package ai

import (
	"ascend/physique-app/internal/domain"
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Generator is the external plan-generation collaborator. Implementations
// may reject with a rate-limit-classified error internally; by the time a
// call returns here the retry budget is already spent.
type Generator interface {
	GeneratePlan(ctx context.Context, req PlanRequest) (*domain.GeneratedPlan, error)
	AnalyzeMeal(ctx context.Context, imageBase64, mimeType string, plan *domain.NutritionPlan) (*domain.MealAnalysis, error)
}

// PlanRequest carries everything the model needs to derive a protocol.
type PlanRequest struct {
	Profile     domain.UserProfile
	CurrentBody domain.BodyStats
	TargetBody  domain.BodyStats
	Difficulty  string // easy|balanced|hard

	// Injury adaptation: when set, the model produces a one-week recovery
	// protocol around the reported injuries instead of a full program.
	RecoveryMode bool
}

const systemInstruction = `You are "ASCEND," the world's most advanced Elite Performance Architect.
Your primary directive is to avoid generic templates. Every protocol must be a mathematical derivation of the athlete's specific biometric data.

CRITICAL PROTOCOL DYNAMICS:
1. DYNAMIC TIMELINE CALCULATION: Do NOT default to standard durations. Calculate 'timelineWeeks' based on:
   - Fat Loss: Rate of 0.5kg - 1kg per week.
   - Muscle Gain: Rate of 0.1kg - 0.25kg per week.
   - Example: If an athlete needs to lose 10kg, the timeline MUST be 10-20 weeks, never 7.
2. VOLUME PARTITIONING: Assign sets/reps based on the 'Delta' provided. If 'Chest' has a delta of 0.6 and 'Back' has a delta of 0.1, the Chest MUST have 2x the weekly volume of the Back.
3. NUTRITION ARCHITECTURE: Use the athlete's weight and goal to set calories.
   - Cutting: TDEE - 500
   - Bulking: TDEE + 300
   - Use the provided 'Meal Inventory' as the primary food source.
4. EQUIPMENT RESTRICTION: You are physically unable to suggest equipment not listed in 'Equipment Access'.

Your 'coachAnalysis' must include the specific math you used to determine the calorie target and the program duration.`

var _ Generator = (*Client)(nil)

// GeneratePlan derives a full protocol from the athlete's biometrics and the
// current/target body deltas. The result is parsed straight into the domain
// plan shape; the model is instructed to answer in that JSON schema.
func (c *Client) GeneratePlan(ctx context.Context, req PlanRequest) (*domain.GeneratedPlan, error) {
	prompt := buildPlanPrompt(req)

	raw, err := c.generateJSON(ctx, systemInstruction, []part{{Text: prompt}})
	if err != nil {
		return nil, fmt.Errorf("generate plan: %w", err)
	}

	var plan domain.GeneratedPlan
	if err := json.Unmarshal(raw, &plan); err != nil {
		return nil, fmt.Errorf("generate plan: parse model output: %w", err)
	}
	if req.RecoveryMode {
		plan.IsRecoveryPlan = true
		plan.TimelineWeeks = 1
	}
	return &plan, nil
}

func buildPlanPrompt(req PlanRequest) string {
	deltas := domain.ComputeDeltas(req.CurrentBody, req.TargetBody)

	var deltaSync strings.Builder
	var focus []string
	for i, d := range deltas {
		fmt.Fprintf(&deltaSync, "%s: [Current: %.2f, Target: %.2f, Delta: %.2f]\n",
			d.Region, d.Current, d.Target, d.Delta)
		if i < 4 {
			focus = append(focus, strings.ToUpper(d.Region))
		}
	}

	inbody := "No InBody data available. Use standard anthropometric estimates."
	if req.Profile.InBodyData != nil {
		ib := req.Profile.InBodyData
		inbody = fmt.Sprintf("INBODY SCAN DATA: Weight %.1fkg, Body Fat %.1f%%, Muscle Mass %.1fkg, BMI %.1f",
			ib.Weight, ib.BodyFat, ib.SkeletalMuscleMass, ib.BMI)
	}

	injuries := "None reported."
	if len(req.Profile.ActiveInjuries) > 0 {
		var lines []string
		for _, inj := range req.Profile.ActiveInjuries {
			lines = append(lines, fmt.Sprintf("%s (%s, severity %s, pain %d/10, worsens with exercise: %t)",
				inj.Part, inj.Type, inj.Severity, inj.PainLevel, inj.WorsensWithExercise))
		}
		injuries = strings.Join(lines, "; ")
	}

	mode := "Produce the full protocol."
	if req.RecoveryMode {
		mode = "RECOVERY MODE: produce a one-week recovery protocol that works around the active injuries. Mark rehab work with isRehab and recovery days with isRecoveryDay."
	}

	return fmt.Sprintf(`ATHLETE PROFILE:
Age: %d | Gender: %s | Height: %.0fcm | Weight: %.1fkg
Goal: %s | Level: %s | Difficulty: %s
Equipment Access: %s
Available Days: %s
Meal Inventory: %s
Current Body Fat: %.1f%% | Target Body Fat: %.1f%%
%s

ANATOMICAL DELTA SYNC:
%s
PRIMARY FOCUS: %s

ACTIVE INJURIES: %s

%s

Return JSON with fields: workout (array of {day, focus, isRecoveryDay, exercises: [{name, sets, reps, note, isRehab}]}), nutrition ({calories, protein, carbs, fats, meals: [{name, options}]}), timelineWeeks, milestones (array of {week, description, expectedWeight}), coachAnalysis ({summary, volumeReasoning, nutritionReasoning, realismAdjustment, injuryAdjustment, mealInventoryFeedback}).`,
		req.Profile.Age, req.Profile.Gender, req.Profile.Height, req.Profile.Weight,
		req.Profile.Goal, req.Profile.Level, req.Difficulty,
		req.Profile.Equipment,
		strings.Join(req.Profile.AvailableDays, ", "),
		strings.Join(req.Profile.AvailableMeals, ", "),
		req.CurrentBody.BodyFat, req.TargetBody.BodyFat,
		inbody,
		deltaSync.String(), strings.Join(focus, ", "),
		injuries,
		mode,
	)
}

// AnalyzeMeal inspects a meal photo against the active nutrition plan. When
// the image is not recognizable food the model fills the analysis Error
// field instead of the nutrition fields.
func (c *Client) AnalyzeMeal(ctx context.Context, imageBase64, mimeType string, plan *domain.NutritionPlan) (*domain.MealAnalysis, error) {
	planMeals := "None"
	if plan != nil && len(plan.Meals) > 0 {
		names := make([]string, 0, len(plan.Meals))
		for _, m := range plan.Meals {
			names = append(names, m.Name)
		}
		planMeals = strings.Join(names, ", ")
	}

	prompt := fmt.Sprintf(`Analyze this image.
Step 1: Identify if this image is a valid food item or meal.
Step 2: If it is NOT a food item (e.g. it is a person, car, scenery, document, or blurry/unclear), return JSON with the 'error' field set to "Please upload a clear image of food." and do not populate other fields.
Step 3: If it IS food, analyze the meal. Context: %s. Populate all fields except 'error'.
Return JSON with fields: name, calories, protein, carbs, fats, summary, verdict (approved|caution|rejected), replacementSuggestion, harmReason, error.`, planMeals)

	raw, err := c.generateJSON(ctx, "", []part{
		{InlineData: &inlineData{MimeType: mimeType, Data: imageBase64}},
		{Text: prompt},
	})
	if err != nil {
		return nil, fmt.Errorf("analyze meal: %w", err)
	}

	var analysis domain.MealAnalysis
	if err := json.Unmarshal(raw, &analysis); err != nil {
		return nil, fmt.Errorf("analyze meal: parse model output: %w", err)
	}
	return &analysis, nil
}
