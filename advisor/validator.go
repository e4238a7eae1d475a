package advisor

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// BreedClass is a growth category. Its code is the first model feature.
type BreedClass string

const (
	GrowingSteerHeifer BreedClass = "growing_steer_heiver"
	GrowingYearlings   BreedClass = "growing_yearlings"
	GrowingMatureBulls BreedClass = "growing_mature_bulls"
)

// ValidationRule bounds the inputs the model may be trusted with.
type ValidationRule struct {
	Code            int     `json:"code"`
	MaxTargetWeight float64 `json:"max_target_weight"`
}

var validationRules = map[BreedClass]ValidationRule{
	GrowingSteerHeifer: {Code: 0, MaxTargetWeight: 1400},
	GrowingYearlings:   {Code: 1, MaxTargetWeight: 1400},
	GrowingMatureBulls: {Code: 2, MaxTargetWeight: 2300},
}

// BreedClasses returns the valid class names, sorted.
func BreedClasses() []BreedClass {
	classes := make([]BreedClass, 0, len(validationRules))
	for class := range validationRules {
		classes = append(classes, class)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })
	return classes
}

func Rule(class BreedClass) (ValidationRule, bool) {
	rule, ok := validationRules[class]
	return rule, ok
}

// ValidationError carries the human readable rejection reason.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Validate checks the breed class and target weight cap. It must run before
// the model sees the input.
func Validate(breedClass string, targetWeight float64) (bool, string) {
	rule, ok := validationRules[BreedClass(breedClass)]
	if !ok {
		names := make([]string, 0, len(validationRules))
		for _, class := range BreedClasses() {
			names = append(names, string(class))
		}
		return false, fmt.Sprintf("Invalid cattle type. Must be one of: %s", strings.Join(names, ", "))
	}
	if math.IsNaN(targetWeight) || math.IsInf(targetWeight, 0) {
		return false, "Target weight must be a finite number."
	}
	if targetWeight > rule.MaxTargetWeight {
		return false, fmt.Sprintf("Target weight for %s should not exceed %s lbs. Please consult an expert for higher weights.",
			breedClass, formatNumber(rule.MaxTargetWeight))
	}
	return true, ""
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
