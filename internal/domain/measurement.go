package domain

import (
	"context"
	"time"
)

// DayLayout is the format of a local calendar day.
const DayLayout = "2006-01-02"

// Measurement is a recorded weight/height pair together with the BMI
// computed from it at record time.
type Measurement struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Day       string    `json:"day"`
	WeightKg  float64   `json:"weightKg"`
	HeightM   float64   `json:"heightM"`
	BMI       float64   `json:"bmi"`
	Category  Category  `json:"category"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewMeasurement builds a Measurement from metric values, filling in BMI and
// Category.
func NewMeasurement(userID int64, weightKg, heightM float64, createdAt time.Time) Measurement {
	bmi := CalculateBMI(weightKg, heightM)
	return Measurement{
		UserID:    userID,
		WeightKg:  weightKg,
		HeightM:   heightM,
		BMI:       bmi,
		Category:  Classify(bmi),
		CreatedAt: createdAt,
	}
}

// MeasurementRepository is the port for measurement persistence.
type MeasurementRepository interface {
	AddMeasurement(ctx context.Context, m Measurement) (int64, error)
	DeleteLatestMeasurement(ctx context.Context, userID int64) (bool, error)
	LatestMeasurementForLocalDay(ctx context.Context, userID int64, localDay string) (*Measurement, error)
	ListRecentMeasurements(ctx context.Context, userID int64, limit int) ([]Measurement, error)
}
