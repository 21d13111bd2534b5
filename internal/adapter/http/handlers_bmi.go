package adapthttp

import (
	"errors"
	"net/http"
	"time"

	"bmi/internal/app"
)

// handleCalculate is the stateless calculator. Non-positive inputs are
// rejected here since JSON cannot carry ±Inf or NaN.
func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	weight, err := floatQuery(r, "weight")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	height, err := floatQuery(r, "height")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	reading, err := s.bmi.CalculateIn(weight, stringQuery(r, "weightUnit", "kg"), height, stringQuery(r, "heightUnit", "m"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.metrics.observeCalculation(string(reading.Category))
	writeJSON(w, http.StatusOK, reading)
}

func (s *Server) handleBMIToday(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := userFromContext(r)
	today := localDayString(time.Now())

	switch r.Method {
	case http.MethodGet:
		entry, err := s.bmi.GetToday(ctx, user.ID, today)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"today": today, "entry": entry})

	case http.MethodPut:
		var body struct {
			Weight     float64 `json:"weight"`
			WeightUnit string  `json:"weightUnit"`
			Height     float64 `json:"height"`
			HeightUnit string  `json:"heightUnit"`
		}
		if err := parseJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if body.WeightUnit == "" {
			body.WeightUnit = "kg"
		}
		if body.HeightUnit == "" {
			body.HeightUnit = "m"
		}
		entry, today, err := s.bmi.Record(ctx, user.ID, body.Weight, body.WeightUnit, body.Height, body.HeightUnit)
		if errors.Is(err, app.ErrInvalidMeasurement) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if entry != nil {
			s.metrics.observeCalculation(string(entry.Category))
		}
		writeJSON(w, http.StatusOK, map[string]any{"today": today, "entry": entry})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleBMIRecent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	user := userFromContext(r)
	limit := intQuery(r, "limit", 14)
	items, err := s.bmi.ListRecent(r.Context(), user.ID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleBMIUndoLast(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	user := userFromContext(r)
	deleted, entry, today, err := s.bmi.UndoLast(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "deleted": deleted, "today": today, "entry": entry})
}
