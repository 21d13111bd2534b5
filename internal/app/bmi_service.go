package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"bmi/internal/domain"
)

// ErrInvalidMeasurement is returned when a measurement is rejected before it
// reaches the repository.
var ErrInvalidMeasurement = errors.New("invalid measurement")

// Reading is the result of a stateless BMI calculation.
type Reading struct {
	WeightKg float64         `json:"weightKg"`
	HeightM  float64         `json:"heightM"`
	BMI      float64         `json:"bmi"`
	Category domain.Category `json:"category"`
}

// BMIService encapsulates BMI calculation and tracking use cases.
type BMIService struct {
	repo domain.MeasurementRepository
	now  func() time.Time
}

// NewBMIService creates a BMIService backed by the given repository.
func NewBMIService(repo domain.MeasurementRepository) *BMIService {
	return &BMIService{repo: repo, now: time.Now}
}

// Calculate computes the BMI for a weight in kilograms and a height in
// meters. Inputs are passed through unchecked.
func (s *BMIService) Calculate(weightKg, heightM float64) Reading {
	bmi := domain.CalculateBMI(weightKg, heightM)
	return Reading{WeightKg: weightKg, HeightM: heightM, BMI: bmi, Category: domain.Classify(bmi)}
}

// CalculateIn converts weight and height to metric units, validates them and
// computes the BMI.
func (s *BMIService) CalculateIn(weight float64, weightUnit string, height float64, heightUnit string) (Reading, error) {
	weightKg, heightM, err := normalize(weight, weightUnit, height, heightUnit)
	if err != nil {
		return Reading{}, err
	}
	return s.Calculate(weightKg, heightM), nil
}

// GetToday returns the latest measurement for the given local day.
func (s *BMIService) GetToday(ctx context.Context, userID int64, today string) (*domain.Measurement, error) {
	return s.repo.LatestMeasurementForLocalDay(ctx, userID, today)
}

// Record validates and stores a new measurement, returning the latest entry
// for today after the insert.
func (s *BMIService) Record(ctx context.Context, userID int64, weight float64, weightUnit string, height float64, heightUnit string) (*domain.Measurement, string, error) {
	now := s.now()
	today := now.In(time.Local).Format(domain.DayLayout)

	weightKg, heightM, err := normalize(weight, weightUnit, height, heightUnit)
	if err != nil {
		return nil, today, err
	}
	if _, err := s.repo.AddMeasurement(ctx, domain.NewMeasurement(userID, weightKg, heightM, now)); err != nil {
		return nil, today, fmt.Errorf("add measurement: %w", err)
	}
	entry, err := s.repo.LatestMeasurementForLocalDay(ctx, userID, today)
	return entry, today, err
}

// ListRecent returns the most recent measurements up to limit. A
// non-positive limit yields an empty list.
func (s *BMIService) ListRecent(ctx context.Context, userID int64, limit int) ([]domain.Measurement, error) {
	if limit <= 0 {
		return []domain.Measurement{}, nil
	}
	return s.repo.ListRecentMeasurements(ctx, userID, limit)
}

// UndoLast deletes the most recent measurement and returns the new latest
// entry for today.
func (s *BMIService) UndoLast(ctx context.Context, userID int64) (bool, *domain.Measurement, string, error) {
	today := s.now().In(time.Local).Format(domain.DayLayout)
	deleted, err := s.repo.DeleteLatestMeasurement(ctx, userID)
	if err != nil {
		return false, nil, today, err
	}
	entry, _ := s.repo.LatestMeasurementForLocalDay(ctx, userID, today)
	return deleted, entry, today, nil
}

func normalize(weight float64, weightUnit string, height float64, heightUnit string) (float64, float64, error) {
	if !domain.ValidWeightUnit(weightUnit) {
		return 0, 0, fmt.Errorf("%w: weight unit must be \"kg\" or \"lb\"", ErrInvalidMeasurement)
	}
	if !domain.ValidHeightUnit(heightUnit) {
		return 0, 0, fmt.Errorf("%w: height unit must be \"m\", \"cm\" or \"in\"", ErrInvalidMeasurement)
	}
	if !positive(weight) {
		return 0, 0, fmt.Errorf("%w: weight must be > 0", ErrInvalidMeasurement)
	}
	if !positive(height) {
		return 0, 0, fmt.Errorf("%w: height must be > 0", ErrInvalidMeasurement)
	}
	weightKg, heightM := domain.ConvertWeight(weight, weightUnit, "kg"), domain.ConvertHeight(height, heightUnit, "m")
	// Finite inputs can still overflow or underflow the division.
	if bmi := domain.CalculateBMI(weightKg, heightM); !positive(bmi) {
		return 0, 0, fmt.Errorf("%w: bmi out of range for weight %g and height %g", ErrInvalidMeasurement, weight, height)
	}
	return weightKg, heightM, nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}
