package domain

import "math"

// Body region scale factor bounds and body fat percentage bounds. Calibration
// sliders and scan imports are clamped into these ranges before storage.
const (
	MinRegionScale = 0.6
	MaxRegionScale = 1.6
	MinBodyFat     = 5.0
	MaxBodyFat     = 45.0
)

// Canonical body region keys used by the calibration sliders and the plan
// generator's volume partitioning.
var BodyRegions = []string{
	"traps", "shoulders", "chest", "arms", "forearms",
	"lats", "abs", "obliques", "waist", "glutes", "legs", "calves",
}

// BodyStats maps body-region keys to visual scale factors, plus an overall
// body fat percentage. Two instances exist per user: current and target.
type BodyStats struct {
	Regions map[string]float64 `bson:"regions" json:"regions"`
	BodyFat float64            `bson:"bodyFat" json:"bodyFat"`
}

// DefaultBodyStats returns a neutral physique: every region at 1.0 and a
// body fat of 20%.
func DefaultBodyStats() BodyStats {
	regions := make(map[string]float64, len(BodyRegions))
	for _, r := range BodyRegions {
		regions[r] = 1.0
	}
	return BodyStats{Regions: regions, BodyFat: 20}
}

// Clamp forces every region scale into [MinRegionScale, MaxRegionScale] and
// body fat into [MinBodyFat, MaxBodyFat]. Missing regions are backfilled at
// 1.0 so deltas against older records stay well defined.
func (b *BodyStats) Clamp() {
	if b.Regions == nil {
		b.Regions = make(map[string]float64, len(BodyRegions))
	}
	for _, r := range BodyRegions {
		v, ok := b.Regions[r]
		if !ok {
			v = 1.0
		}
		b.Regions[r] = math.Max(MinRegionScale, math.Min(MaxRegionScale, v))
	}
	b.BodyFat = math.Max(MinBodyFat, math.Min(MaxBodyFat, b.BodyFat))
}

// Clone returns a deep copy, so calibration edits never alias stored state.
func (b BodyStats) Clone() BodyStats {
	regions := make(map[string]float64, len(b.Regions))
	for k, v := range b.Regions {
		regions[k] = v
	}
	return BodyStats{Regions: regions, BodyFat: b.BodyFat}
}

// EstimateBodyStats seeds a current-body estimate from basic biometrics:
// a BMI-derived base scale for the torso regions and a gender-adjusted body
// fat guess. Used before any calibration has happened.
func EstimateBodyStats(profile *UserProfile) BodyStats {
	stats := DefaultBodyStats()
	if profile == nil || profile.Height <= 0 {
		return stats
	}

	heightM := profile.Height / 100
	bmi := profile.Weight / (heightM * heightM)

	baseScale := 1 + (bmi-22)*0.02
	baseScale = math.Max(0.7, math.Min(1.5, baseScale))

	fat := 23 + (bmi - 22)
	if profile.Gender == GenderMale {
		fat = 14 + (bmi - 22)
	}

	stats.Regions["chest"] = baseScale
	stats.Regions["waist"] = baseScale
	stats.Regions["abs"] = baseScale
	stats.BodyFat = math.Round(fat)
	stats.Clamp()
	return stats
}

// RegionDelta is the gap between target and current scale for one region,
// used by the generator to weight weekly training volume.
type RegionDelta struct {
	Region  string  `json:"region"`
	Current float64 `json:"current"`
	Target  float64 `json:"target"`
	Delta   float64 `json:"delta"`
}

// ComputeDeltas returns target-minus-current deltas for the trainable regions
// (waist excluded: it shrinks with body fat, not with volume), sorted largest
// delta first.
func ComputeDeltas(current, target BodyStats) []RegionDelta {
	deltas := make([]RegionDelta, 0, len(BodyRegions))
	for _, r := range BodyRegions {
		if r == "waist" {
			continue
		}
		cur, ok := current.Regions[r]
		if !ok {
			cur = 1.0
		}
		tgt, ok := target.Regions[r]
		if !ok {
			tgt = 1.0
		}
		deltas = append(deltas, RegionDelta{Region: r, Current: cur, Target: tgt, Delta: tgt - cur})
	}
	// Insertion sort: the slice is tiny and this keeps the ordering stable.
	for i := 1; i < len(deltas); i++ {
		for j := i; j > 0 && deltas[j].Delta > deltas[j-1].Delta; j-- {
			deltas[j], deltas[j-1] = deltas[j-1], deltas[j]
		}
	}
	return deltas
}
