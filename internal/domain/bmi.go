// Package domain holds the BMI calculation and the entities and ports
// built around it.
package domain

import "math"

// Category is a WHO adult BMI band.
type Category string

// BMI categories.
const (
	CategoryUnknown     Category = "unknown"
	CategoryUnderweight Category = "underweight"
	CategoryNormal      Category = "normal"
	CategoryOverweight  Category = "overweight"
	CategoryObese       Category = "obese"
)

// CalculateBMI returns weightKg / heightM².
//
// Inputs are not validated: a zero height yields ±Inf, or NaN when the
// weight is zero too. Callers that need a meaningful value must check the
// inputs themselves.
func CalculateBMI(weightKg, heightM float64) float64 {
	return weightKg / (heightM * heightM)
}

// Classify maps a BMI value onto its category. Non-finite and negative
// values are CategoryUnknown.
func Classify(bmi float64) Category {
	switch {
	case math.IsNaN(bmi), math.IsInf(bmi, 0), bmi < 0:
		return CategoryUnknown
	case bmi < 18.5:
		return CategoryUnderweight
	case bmi < 25:
		return CategoryNormal
	case bmi < 30:
		return CategoryOverweight
	default:
		return CategoryObese
	}
}
