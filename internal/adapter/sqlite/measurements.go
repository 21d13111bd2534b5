package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"bmi/internal/domain"
)

// AddMeasurement inserts a new measurement.
func (d *DB) AddMeasurement(ctx context.Context, m domain.Measurement) (int64, error) {
	res, err := d.sql.ExecContext(ctx,
		"INSERT INTO measurements(user_id, weight_kg, height_m, bmi, created_at) VALUES(?, ?, ?, ?, ?)",
		m.UserID, m.WeightKg, m.HeightM, m.BMI, m.CreatedAt.UnixNano(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// DeleteLatestMeasurement removes the user's most recent measurement.
func (d *DB) DeleteLatestMeasurement(ctx context.Context, userID int64) (bool, error) {
	res, err := d.sql.ExecContext(ctx,
		"DELETE FROM measurements WHERE id = (SELECT id FROM measurements WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT 1)",
		userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// LatestMeasurementForLocalDay returns the user's most recent measurement for
// a local calendar day.
func (d *DB) LatestMeasurementForLocalDay(ctx context.Context, userID int64, localDay string) (*domain.Measurement, error) {
	dayStart, err := time.ParseInLocation(domain.DayLayout, localDay, time.Local)
	if err != nil {
		return nil, err
	}
	dayEnd := dayStart.AddDate(0, 0, 1)

	row := d.sql.QueryRowContext(ctx,
		"SELECT id, user_id, weight_kg, height_m, bmi, created_at FROM measurements WHERE user_id = ? AND created_at >= ? AND created_at < ? ORDER BY created_at DESC, id DESC LIMIT 1",
		userID, dayStart.UnixNano(), dayEnd.UnixNano(),
	)
	m, err := scanMeasurement(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	m.Day = localDay
	return &m, nil
}

// ListRecentMeasurements returns the user's most recent measurements up to limit.
func (d *DB) ListRecentMeasurements(ctx context.Context, userID int64, limit int) ([]domain.Measurement, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT id, user_id, weight_kg, height_m, bmi, created_at FROM measurements WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?",
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Measurement, 0, limit)
	for rows.Next() {
		m, err := scanMeasurement(rows)
		if err != nil {
			return nil, err
		}
		m.Day = m.CreatedAt.In(time.Local).Format(domain.DayLayout)
		out = append(out, m)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMeasurement(s scanner) (domain.Measurement, error) {
	var (
		m         domain.Measurement
		createdAt int64
	)
	if err := s.Scan(&m.ID, &m.UserID, &m.WeightKg, &m.HeightM, &m.BMI, &createdAt); err != nil {
		return m, err
	}
	m.CreatedAt = time.Unix(0, createdAt).UTC()
	m.Category = domain.Classify(m.BMI)
	return m, nil
}
