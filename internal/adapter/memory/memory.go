// Package memory implements in-memory repositories for development and testing.
package memory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"bmi/internal/domain"
)

// DB implements an in-memory database storage.
type DB struct {
	mu           sync.Mutex
	measurements []domain.Measurement
	users        []*domain.User
	sessions     map[string]*domain.Session

	measurementIDCounter int64
	userIDCounter        int64
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		sessions: make(map[string]*domain.Session),
	}
}

var (
	_ domain.MeasurementRepository = (*DB)(nil)
	_ domain.UserRepository        = (*DB)(nil)
	_ domain.SessionRepository     = (*SessionRepo)(nil)
)

// --- MeasurementRepository ---

// AddMeasurement stores a measurement and returns its new ID.
func (db *DB) AddMeasurement(_ context.Context, m domain.Measurement) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.measurementIDCounter++
	m.ID = db.measurementIDCounter
	m.CreatedAt = m.CreatedAt.UTC()
	db.measurements = append(db.measurements, m)
	return m.ID, nil
}

// DeleteLatestMeasurement deletes the user's most recent measurement.
func (db *DB) DeleteLatestMeasurement(_ context.Context, userID int64) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	lastIdx := -1
	for i, m := range db.measurements {
		if m.UserID != userID {
			continue
		}
		if lastIdx == -1 || m.CreatedAt.After(db.measurements[lastIdx].CreatedAt) {
			lastIdx = i
		}
	}
	if lastIdx == -1 {
		return false, nil
	}
	db.measurements = append(db.measurements[:lastIdx], db.measurements[lastIdx+1:]...)
	return true, nil
}

// LatestMeasurementForLocalDay returns the user's latest measurement for the given day.
func (db *DB) LatestMeasurementForLocalDay(_ context.Context, userID int64, localDay string) (*domain.Measurement, error) {
	dayStart, err := time.ParseInLocation(domain.DayLayout, localDay, time.Local)
	if err != nil {
		return nil, err
	}
	dayEnd := dayStart.AddDate(0, 0, 1)

	db.mu.Lock()
	defer db.mu.Unlock()

	var latest *domain.Measurement
	for i := range db.measurements {
		m := &db.measurements[i]
		if m.UserID != userID {
			continue
		}
		if !m.CreatedAt.Before(dayStart) && m.CreatedAt.Before(dayEnd) {
			if latest == nil || m.CreatedAt.After(latest.CreatedAt) {
				latest = m
			}
		}
	}
	if latest == nil {
		return nil, nil
	}
	ret := *latest
	ret.Day = localDay
	ret.Category = domain.Classify(ret.BMI)
	return &ret, nil
}

// ListRecentMeasurements lists the user's most recent measurements, newest first.
func (db *DB) ListRecentMeasurements(_ context.Context, userID int64, limit int) ([]domain.Measurement, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	result := make([]domain.Measurement, 0, len(db.measurements))
	for _, m := range db.measurements {
		if m.UserID == userID {
			result = append(result, m)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit < 0 {
		limit = 0
	}
	if len(result) > limit {
		result = result[:limit]
	}
	for i := range result {
		result[i].Day = result[i].CreatedAt.In(time.Local).Format(domain.DayLayout)
		result[i].Category = domain.Classify(result[i].BMI)
	}
	return result, nil
}

// --- UserRepository ---

// GetByUsername retrieves a user by username. A missing user is (nil, nil).
func (db *DB) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

// GetByID retrieves a user by ID. A missing user is (nil, nil).
func (db *DB) GetByID(_ context.Context, id int64) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

// Create creates a new user.
func (db *DB) Create(_ context.Context, username, passwordHash string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			return nil, errors.New("user already exists")
		}
	}

	db.userIDCounter++
	u := &domain.User{
		ID:           db.userIDCounter,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	db.users = append(db.users, u)
	return u, nil
}

// Count returns the total number of users.
func (db *DB) Count(_ context.Context) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.users), nil
}

// Delete removes a user along with its measurements and sessions.
func (db *DB) Delete(_ context.Context, id int64) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	idx := slices.IndexFunc(db.users, func(u *domain.User) bool { return u.ID == id })
	if idx < 0 {
		return false, nil
	}
	db.users = slices.Delete(db.users, idx, idx+1)
	db.measurements = slices.DeleteFunc(db.measurements, func(m domain.Measurement) bool { return m.UserID == id })
	for token, s := range db.sessions {
		if s.UserID == id {
			delete(db.sessions, token)
		}
	}
	return true, nil
}

// --- SessionRepository ---

// SessionRepo implements session persistence on top of DB.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo creates a new session repository.
func (db *DB) NewSessionRepo() *SessionRepo {
	return &SessionRepo{db: db}
}

// Create stores s. The owning user must exist.
func (r *SessionRepo) Create(_ context.Context, s domain.Session) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if !slices.ContainsFunc(r.db.users, func(u *domain.User) bool { return u.ID == s.UserID }) {
		return fmt.Errorf("session for unknown user %d", s.UserID)
	}
	r.db.sessions[s.Token] = &s
	return nil
}

// GetByToken retrieves a session by token. Expiry is left to the caller.
func (r *SessionRepo) GetByToken(_ context.Context, token string) (*domain.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if s, ok := r.db.sessions[token]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

// Delete deletes a session.
func (r *SessionRepo) Delete(_ context.Context, token string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.sessions, token)
	return nil
}

// DeleteExpired deletes sessions expired at now.
func (r *SessionRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var n int64
	for token, s := range r.db.sessions {
		if s.Expired(now) {
			delete(r.db.sessions, token)
			n++
		}
	}
	return n, nil
}
