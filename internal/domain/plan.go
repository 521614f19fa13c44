package domain

// Exercise is a single prescribed movement within a workout day.
type Exercise struct {
	Name    string `bson:"name" json:"name"`
	Sets    int    `bson:"sets" json:"sets"`
	Reps    string `bson:"reps" json:"reps"` // e.g. "8-12", "AMRAP"
	Note    string `bson:"note,omitempty" json:"note,omitempty"`
	IsRehab bool   `bson:"isRehab,omitempty" json:"isRehab,omitempty"`
}

// WorkoutDay is one day of the recurring weekly split.
type WorkoutDay struct {
	Day           string     `bson:"day" json:"day"`
	Focus         string     `bson:"focus" json:"focus"`
	Exercises     []Exercise `bson:"exercises,omitempty" json:"exercises,omitempty"`
	IsRecoveryDay bool       `bson:"isRecoveryDay,omitempty" json:"isRecoveryDay,omitempty"`
}

// Meal is a named meal slot with interchangeable options.
type Meal struct {
	Name            string   `bson:"name" json:"name"`
	Options         []string `bson:"options" json:"options"`
	IsFromInventory bool     `bson:"isFromInventory,omitempty" json:"isFromInventory,omitempty"`
}

// NutritionPlan carries the daily macro targets and meal structure.
type NutritionPlan struct {
	Calories int    `bson:"calories" json:"calories"`
	Protein  int    `bson:"protein" json:"protein"`
	Carbs    int    `bson:"carbs" json:"carbs"`
	Fats     int    `bson:"fats" json:"fats"`
	Meals    []Meal `bson:"meals" json:"meals"`
}

// CoachAnalysis is the generator's reasoning about the produced protocol.
type CoachAnalysis struct {
	Summary             string `bson:"summary" json:"summary"`
	VolumeReasoning     string `bson:"volumeReasoning" json:"volumeReasoning"`
	NutritionReasoning  string `bson:"nutritionReasoning" json:"nutritionReasoning"`
	RealismAdjustment   string `bson:"realismAdjustment,omitempty" json:"realismAdjustment,omitempty"`
	InjuryAdjustment    string `bson:"injuryAdjustment,omitempty" json:"injuryAdjustment,omitempty"`
	MealInventoryFeedback string `bson:"mealInventoryFeedback,omitempty" json:"mealInventoryFeedback,omitempty"`
}

// Milestone is an expected checkpoint along the plan timeline.
type Milestone struct {
	Week           int     `bson:"week" json:"week"`
	Description    string  `bson:"description" json:"description"`
	ExpectedWeight float64 `bson:"expectedWeight" json:"expectedWeight"`
}

// GeneratedPlan is the structured result from the plan generator. It is
// treated as an immutable value once received and superseded wholesale on
// regeneration or injury adaptation, never merged field by field.
type GeneratedPlan struct {
	Workout        []WorkoutDay  `bson:"workout" json:"workout"`
	Nutrition      NutritionPlan `bson:"nutrition" json:"nutrition"`
	TimelineWeeks  int           `bson:"timelineWeeks" json:"timelineWeeks"`
	Milestones     []Milestone   `bson:"milestones,omitempty" json:"milestones,omitempty"`
	CoachAnalysis  CoachAnalysis `bson:"coachAnalysis" json:"coachAnalysis"`
	IsRecoveryPlan bool          `bson:"isRecoveryPlan,omitempty" json:"isRecoveryPlan,omitempty"`
}

// MealAnalysis is the result of scanning a meal photo against the active
// nutrition plan. When the uploaded image is not recognizable food, Error is
// set and the other fields are left empty.
type MealAnalysis struct {
	Name                  string `json:"name,omitempty"`
	Calories              int    `json:"calories,omitempty"`
	Protein               int    `json:"protein,omitempty"`
	Carbs                 int    `json:"carbs,omitempty"`
	Fats                  int    `json:"fats,omitempty"`
	Summary               string `json:"summary,omitempty"`
	Verdict               string `json:"verdict,omitempty"` // approved|caution|rejected
	ReplacementSuggestion string `json:"replacementSuggestion,omitempty"`
	HarmReason            string `json:"harmReason,omitempty"`
	Error                 string `json:"error,omitempty"`
}
