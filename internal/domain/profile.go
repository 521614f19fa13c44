package domain

// Enumerations mirrored by the mobile/web clients. Stored as plain strings so
// old records keep deserializing if a value is retired.
type (
	Gender    string
	Goal      string
	Level     string
	Equipment string
	Injury    string
)

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

const (
	GoalFatLoss    Goal = "fat_loss"
	GoalMuscleGain Goal = "muscle_gain"
	GoalRecomp     Goal = "recomp"
	GoalAthletic   Goal = "athletic"
)

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

const (
	EquipmentGymFull       Equipment = "gym_full"
	EquipmentDumbbellsOnly Equipment = "dumbbells_only"
	EquipmentBodyweight    Equipment = "bodyweight"
	EquipmentHomeGym       Equipment = "home_gym"
)

// --- Credit Economy ---

// InitialCredits is the balance granted to a user with no stored record.
const InitialCredits = 100

// Credit costs for AI-backed actions.
const (
	CostGeneratePlan     = 25
	CostUnlockWeek       = 15
	CostSendReport       = 5
	CostUpdateTargetBody = 5
	CostCoachAnalysis    = 5
	CostMealScan         = 5
)

// InBodyData holds values extracted from a body composition report scan.
type InBodyData struct {
	Weight             float64 `bson:"weight" json:"weight"`
	BodyFat            float64 `bson:"bodyFat" json:"bodyFat"`
	SkeletalMuscleMass float64 `bson:"skeletalMuscleMass,omitempty" json:"skeletalMuscleMass,omitempty"`
	BMI                float64 `bson:"bmi,omitempty" json:"bmi,omitempty"`
	Date               string  `bson:"date,omitempty" json:"date,omitempty"`
}

// ActiveInjury is a reported injury currently shaping the plan.
type ActiveInjury struct {
	ID                 string `bson:"id" json:"id"`
	Part               string `bson:"part" json:"part"` // e.g. "Knee", "Shoulder"
	Type               string `bson:"type" json:"type"` // pain|strain|sprain|tear|discomfort|stiffness
	PainLevel          int    `bson:"painLevel" json:"painLevel"` // 1-10
	DateOccurred       string `bson:"dateOccurred" json:"dateOccurred"`
	WorsensWithExercise bool  `bson:"worsensWithExercise" json:"worsensWithExercise"`
	Severity           string `bson:"severity" json:"severity"` // mild|moderate|severe
	Notes              string `bson:"notes,omitempty" json:"notes,omitempty"`
	RecoveryPhase      int    `bson:"recoveryPhase,omitempty" json:"recoveryPhase,omitempty"`
}

// UserProfile holds the biometric and account attributes of one user. It is
// owned by the versioned profile store and mutated only through commits.
type UserProfile struct {
	Age    int    `bson:"age" json:"age"`
	Gender Gender `bson:"gender" json:"gender"`
	Height float64 `bson:"height" json:"height"` // cm
	Weight float64 `bson:"weight" json:"weight"` // kg
	Goal   Goal   `bson:"goal" json:"goal"`
	Level  Level  `bson:"level" json:"level"`
	Name   string `bson:"name" json:"name"`
	Email  string `bson:"email,omitempty" json:"email,omitempty"`

	Equipment      Equipment      `bson:"equipment" json:"equipment"`
	Injuries       []Injury       `bson:"injuries,omitempty" json:"injuries,omitempty"`
	ActiveInjuries []ActiveInjury `bson:"activeInjuries,omitempty" json:"activeInjuries,omitempty"`
	AvailableDays  []string       `bson:"availableDays,omitempty" json:"availableDays,omitempty"`
	AvailableMeals []string       `bson:"availableMeals,omitempty" json:"availableMeals,omitempty"`
	InBodyData     *InBodyData    `bson:"inbodyData,omitempty" json:"inbodyData,omitempty"`

	// Entitlement state. Credits never go negative; premium bypasses all costs.
	Credits        int      `bson:"credits" json:"credits"`
	IsPremium      bool     `bson:"isPremium,omitempty" json:"isPremium,omitempty"`
	RedeemedCodes  []string `bson:"redeemedCodes" json:"redeemedCodes"`
	ActiveDiscount int      `bson:"activeDiscount,omitempty" json:"activeDiscount,omitempty"` // percent off future purchases

	JoinDate string `bson:"joinDate,omitempty" json:"joinDate,omitempty"`

	// Recovery-mode snapshot: when an injury swaps in a recovery plan, the
	// paused plan and week are parked here until restore.
	IsRecoveryMode bool           `bson:"isRecoveryMode,omitempty" json:"isRecoveryMode,omitempty"`
	OriginalPlan   *GeneratedPlan `bson:"originalPlan,omitempty" json:"originalPlan,omitempty"`
	OriginalWeek   int            `bson:"originalWeek,omitempty" json:"originalWeek,omitempty"`
}

// HasRedeemed reports whether this user already redeemed the given promo code.
// Codes are stored uppercased.
func (p *UserProfile) HasRedeemed(code string) bool {
	for _, c := range p.RedeemedCodes {
		if c == code {
			return true
		}
	}
	return false
}
