package app

import (
	"context"
	"errors"
	"time"

	"bmi/internal/domain"
)

const maxTrendDays = 366

// TrendService builds per-day BMI series for charts.
type TrendService struct {
	repo domain.MeasurementRepository
	now  func() time.Time
}

// NewTrendService creates a TrendService backed by the given repository.
func NewTrendService(repo domain.MeasurementRepository) *TrendService {
	return &TrendService{repo: repo, now: time.Now}
}

// DayPoint is a single data point returned by GetDaily.
type DayPoint struct {
	Day     string        `json:"day"`
	Reading *TrendReading `json:"reading"`
}

// TrendReading is the optional measurement summary within a DayPoint.
type TrendReading struct {
	BMI      float64         `json:"bmi"`
	Category domain.Category `json:"category"`
	Weight   float64         `json:"weight"`
	Unit     string          `json:"unit"`
}

// GetDaily returns per-day BMI data for the last days days, oldest first,
// with weights converted to the requested unit.
func (s *TrendService) GetDaily(ctx context.Context, userID int64, days int, unit string) ([]DayPoint, error) {
	if !domain.ValidWeightUnit(unit) {
		return nil, errors.New("unit must be \"kg\" or \"lb\"")
	}
	switch {
	case days <= 0:
		return []DayPoint{}, nil
	case days > maxTrendDays:
		days = maxTrendDays
	}

	today := s.now().In(time.Local)
	points := make([]DayPoint, 0, days)

	for i := days - 1; i >= 0; i-- {
		dayStr := today.AddDate(0, 0, -i).Format(domain.DayLayout)

		entry, err := s.repo.LatestMeasurementForLocalDay(ctx, userID, dayStr)
		if err != nil {
			return nil, err
		}

		var tr *TrendReading
		if entry != nil {
			tr = &TrendReading{
				BMI:      entry.BMI,
				Category: domain.Classify(entry.BMI),
				Weight:   domain.ConvertWeight(entry.WeightKg, "kg", unit),
				Unit:     unit,
			}
		}
		points = append(points, DayPoint{Day: dayStr, Reading: tr})
	}
	return points, nil
}
