package adapthttp_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	adapthttp "bmi/internal/adapter/http"
	"bmi/internal/adapter/memory"
	"bmi/internal/app"
	"bmi/internal/domain"
)

// ---------------------------------------------------------------------------
// Mock repository (function-fields pattern)
// ---------------------------------------------------------------------------

type mockMeasurementRepo struct {
	domain.MeasurementRepository
	latestFn func(ctx context.Context, userID int64, localDay string) (*domain.Measurement, error)
	listFn   func(ctx context.Context, userID int64, limit int) ([]domain.Measurement, error)
}

func (m *mockMeasurementRepo) LatestMeasurementForLocalDay(ctx context.Context, userID int64, localDay string) (*domain.Measurement, error) {
	if m.latestFn != nil {
		return m.latestFn(ctx, userID, localDay)
	}
	return m.MeasurementRepository.LatestMeasurementForLocalDay(ctx, userID, localDay)
}

func (m *mockMeasurementRepo) ListRecentMeasurements(ctx context.Context, userID int64, limit int) ([]domain.Measurement, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, limit)
	}
	return m.MeasurementRepository.ListRecentMeasurements(ctx, userID, limit)
}

// ---------------------------------------------------------------------------
// Test-server helpers
// ---------------------------------------------------------------------------

type testEnv struct {
	ts     *httptest.Server
	db     *memory.DB
	client *http.Client
}

func newTestServer(t *testing.T, repo domain.MeasurementRepository, withAuth bool) *testEnv {
	t.Helper()

	db := memory.New()
	if repo == nil {
		repo = db
	}

	webDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(webDir, "index.html"), []byte("<html></html>"), 0o600); err != nil {
		t.Fatal(err)
	}

	authSvc := app.NewAuthService(db, db.NewSessionRepo())
	srv := adapthttp.New(app.NewBMIService(repo), app.NewTrendService(repo), authSvc, webDir)
	if !withAuth {
		srv = srv.WithoutAuth()
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &testEnv{ts: ts, db: db, client: &http.Client{Jar: jar}}
}

func (e *testEnv) do(t *testing.T, method, path string, payload any) *http.Response {
	t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			t.Fatal(err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, e.ts.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return m
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected %d, got %d; body: %s", want, resp.StatusCode, b)
	}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestHealthEndpoint(t *testing.T) {
	env := newTestServer(t, nil, false)
	resp := env.do(t, http.MethodGet, "/api/health", nil)
	expectStatus(t, resp, http.StatusOK)

	if body := decodeBody(t, resp); body["ok"] != true {
		t.Fatalf("expected ok=true, got %v", body["ok"])
	}
	if resp.Header.Get("Cache-Control") != "no-store" {
		t.Error("expected no-store cache header")
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestCalculate(t *testing.T) {
	env := newTestServer(t, nil, true)

	resp := env.do(t, http.MethodGet, "/api/bmi?weight=65&height=1.53", nil)
	expectStatus(t, resp, http.StatusOK)
	body := decodeBody(t, resp)
	bmi, _ := body["bmi"].(float64)
	if math.Abs(bmi-27.77) > 0.01 {
		t.Fatalf("expected ~27.77, got %v", body["bmi"])
	}
	if body["category"] != "overweight" {
		t.Fatalf("expected overweight, got %v", body["category"])
	}
}

func TestCalculate_Units(t *testing.T) {
	env := newTestServer(t, nil, false)

	resp := env.do(t, http.MethodGet, "/api/bmi?weight=180&weightUnit=lb&height=70&heightUnit=in", nil)
	expectStatus(t, resp, http.StatusOK)
	body := decodeBody(t, resp)
	if h, _ := body["heightM"].(float64); math.Abs(h-1.778) > 1e-9 {
		t.Fatalf("expected heightM 1.778, got %v", body["heightM"])
	}
}

func TestCalculate_BadInput(t *testing.T) {
	env := newTestServer(t, nil, false)

	for _, q := range []string{
		"weight=70&height=0",
		"weight=0&height=1.8",
		"weight=70",
		"weight=abc&height=1.8",
		"weight=70&height=1.8&heightUnit=ft",
	} {
		t.Run(q, func(t *testing.T) {
			resp := env.do(t, http.MethodGet, "/api/bmi?"+q, nil)
			expectStatus(t, resp, http.StatusBadRequest)
			if body := decodeBody(t, resp); body["error"] == nil {
				t.Fatal("expected error field")
			}
		})
	}
}

func TestCalculate_OverflowIsRejected(t *testing.T) {
	env := newTestServer(t, nil, false)

	for _, q := range []string{
		"weight=70&height=1e-200",
		"weight=1e308&height=0.5",
	} {
		t.Run(q, func(t *testing.T) {
			resp := env.do(t, http.MethodGet, "/api/bmi?"+q, nil)
			expectStatus(t, resp, http.StatusBadRequest)
			if body := decodeBody(t, resp); body["error"] == nil {
				t.Fatal("expected error field")
			}
		})
	}
}

func TestBMITodayPut_OverflowIsNotStored(t *testing.T) {
	env := newTestServer(t, nil, false)

	for _, payload := range []map[string]any{
		{"weight": 1e308, "height": 0.5},
		{"weight": 70, "height": 1e-200},
	} {
		resp := env.do(t, http.MethodPut, "/api/bmi/today", payload)
		expectStatus(t, resp, http.StatusBadRequest)
		if body := decodeBody(t, resp); body["error"] == nil {
			t.Fatalf("expected error field for %v", payload)
		}
	}

	resp := env.do(t, http.MethodGet, "/api/bmi/recent", nil)
	expectStatus(t, resp, http.StatusOK)
	if items, _ := decodeBody(t, resp)["items"].([]any); len(items) != 0 {
		t.Fatalf("expected nothing stored, got %v", items)
	}

	resp = env.do(t, http.MethodGet, "/api/charts/daily?days=2", nil)
	expectStatus(t, resp, http.StatusOK)
	if items, _ := decodeBody(t, resp)["items"].([]any); len(items) != 2 {
		t.Fatalf("expected 2 chart points, got %v", items)
	}
}

func TestBMIRecent_UnencodableValue(t *testing.T) {
	repo := &mockMeasurementRepo{
		MeasurementRepository: memory.New(),
		listFn: func(_ context.Context, userID int64, _ int) ([]domain.Measurement, error) {
			m := domain.NewMeasurement(userID, 70, 0, time.Now())
			return []domain.Measurement{m}, nil
		},
	}
	env := newTestServer(t, repo, false)

	resp := env.do(t, http.MethodGet, "/api/bmi/recent", nil)
	expectStatus(t, resp, http.StatusInternalServerError)
	if body := decodeBody(t, resp); body["error"] == nil {
		t.Fatal("expected error field")
	}
}

func TestBMITodayPut(t *testing.T) {
	tests := []struct {
		name       string
		payload    map[string]any
		wantStatus int
	}{
		{"valid metric", map[string]any{"weight": 85.5, "height": 1.8}, http.StatusOK},
		{"valid imperial", map[string]any{"weight": 190.0, "weightUnit": "lb", "height": 71, "heightUnit": "in"}, http.StatusOK},
		{"weight zero", map[string]any{"weight": 0, "height": 1.8}, http.StatusBadRequest},
		{"height negative", map[string]any{"weight": 80, "height": -1.8}, http.StatusBadRequest},
		{"invalid unit", map[string]any{"weight": 80.0, "weightUnit": "stone", "height": 1.8}, http.StatusBadRequest},
		{"unknown field", map[string]any{"weight": 80.0, "height": 1.8, "age": 40}, http.StatusBadRequest},
	}

	env := newTestServer(t, nil, false)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := env.do(t, http.MethodPut, "/api/bmi/today", tc.payload)
			expectStatus(t, resp, tc.wantStatus)
			if tc.wantStatus == http.StatusOK {
				body := decodeBody(t, resp)
				entry, ok := body["entry"].(map[string]any)
				if !ok {
					t.Fatalf("response missing 'entry' object: %v", body)
				}
				if entry["bmi"] == nil || entry["category"] == nil {
					t.Fatalf("entry missing bmi fields: %v", entry)
				}
			}
		})
	}
}

func TestBMITodayGet(t *testing.T) {
	env := newTestServer(t, nil, false)

	resp := env.do(t, http.MethodGet, "/api/bmi/today", nil)
	expectStatus(t, resp, http.StatusOK)
	body := decodeBody(t, resp)
	if _, ok := body["today"]; !ok {
		t.Fatal("response missing 'today' field")
	}
	if body["entry"] != nil {
		t.Fatalf("expected null entry, got %v", body["entry"])
	}

	expectStatus(t, env.do(t, http.MethodPut, "/api/bmi/today", map[string]any{"weight": 65, "height": 1.53}), http.StatusOK)

	body = decodeBody(t, env.do(t, http.MethodGet, "/api/bmi/today", nil))
	entry, ok := body["entry"].(map[string]any)
	if !ok || entry["weightKg"] != 65.0 {
		t.Fatalf("expected recorded entry, got %v", body["entry"])
	}
}

func TestBMIRecentAndUndo(t *testing.T) {
	env := newTestServer(t, nil, false)

	for _, w := range []float64{80, 81} {
		expectStatus(t, env.do(t, http.MethodPut, "/api/bmi/today", map[string]any{"weight": w, "height": 1.8}), http.StatusOK)
	}

	body := decodeBody(t, env.do(t, http.MethodGet, "/api/bmi/recent?limit=5", nil))
	items, ok := body["items"].([]any)
	if !ok || len(items) != 2 {
		t.Fatalf("expected 2 items, got %v", body["items"])
	}

	resp := env.do(t, http.MethodPost, "/api/bmi/undo-last", nil)
	expectStatus(t, resp, http.StatusOK)
	body = decodeBody(t, resp)
	if body["deleted"] != true {
		t.Fatalf("expected deleted=true, got %v", body["deleted"])
	}

	body = decodeBody(t, env.do(t, http.MethodGet, "/api/bmi/recent", nil))
	if items, _ := body["items"].([]any); len(items) != 1 {
		t.Fatalf("expected 1 item after undo, got %v", body["items"])
	}
}

func TestBMIRecent_RepoError(t *testing.T) {
	repo := &mockMeasurementRepo{
		MeasurementRepository: memory.New(),
		listFn: func(_ context.Context, _ int64, _ int) ([]domain.Measurement, error) {
			return nil, errors.New("db down")
		},
	}
	env := newTestServer(t, repo, false)
	expectStatus(t, env.do(t, http.MethodGet, "/api/bmi/recent", nil), http.StatusInternalServerError)
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestServer(t, nil, false)
	expectStatus(t, env.do(t, http.MethodGet, "/api/bmi/undo-last", nil), http.StatusMethodNotAllowed)
	expectStatus(t, env.do(t, http.MethodDelete, "/api/bmi/today", nil), http.StatusMethodNotAllowed)
	expectStatus(t, env.do(t, http.MethodPost, "/api/bmi", nil), http.StatusMethodNotAllowed)
}

func TestChartsDaily(t *testing.T) {
	env := newTestServer(t, nil, false)
	expectStatus(t, env.do(t, http.MethodPut, "/api/bmi/today", map[string]any{"weight": 100, "height": 2}), http.StatusOK)

	resp := env.do(t, http.MethodGet, "/api/charts/daily?days=3&unit=lb", nil)
	expectStatus(t, resp, http.StatusOK)
	body := decodeBody(t, resp)
	items, ok := body["items"].([]any)
	if !ok || len(items) != 3 {
		t.Fatalf("expected 3 items, got %v", body["items"])
	}
	last, _ := items[2].(map[string]any)
	reading, ok := last["reading"].(map[string]any)
	if !ok {
		t.Fatalf("expected today's reading, got %v", last)
	}
	if reading["bmi"] != 25.0 || reading["unit"] != "lb" {
		t.Fatalf("unexpected reading: %v", reading)
	}
}

func TestChartsDaily_BadUnit(t *testing.T) {
	env := newTestServer(t, nil, false)
	expectStatus(t, env.do(t, http.MethodGet, "/api/charts/daily?unit=stone", nil), http.StatusBadRequest)
}

func TestAuth_RequiredForTracking(t *testing.T) {
	env := newTestServer(t, nil, true)
	expectStatus(t, env.do(t, http.MethodGet, "/api/bmi/today", nil), http.StatusUnauthorized)
	expectStatus(t, env.do(t, http.MethodGet, "/api/charts/daily", nil), http.StatusUnauthorized)
}

func TestAuth_SetupLoginLogout(t *testing.T) {
	env := newTestServer(t, nil, true)
	creds := map[string]any{"username": "admin", "password": "s3cret!"}

	expectStatus(t, env.do(t, http.MethodPost, "/api/auth/setup", creds), http.StatusOK)
	expectStatus(t, env.do(t, http.MethodPost, "/api/auth/setup", creds), http.StatusConflict)

	bad := map[string]any{"username": "admin", "password": "nope"}
	expectStatus(t, env.do(t, http.MethodPost, "/api/auth/login", bad), http.StatusUnauthorized)

	expectStatus(t, env.do(t, http.MethodPost, "/api/auth/login", creds), http.StatusOK)
	expectStatus(t, env.do(t, http.MethodPut, "/api/bmi/today", map[string]any{"weight": 70, "height": 1.75}), http.StatusOK)

	expectStatus(t, env.do(t, http.MethodPost, "/api/auth/logout", nil), http.StatusOK)
	expectStatus(t, env.do(t, http.MethodGet, "/api/bmi/today", nil), http.StatusUnauthorized)
}

func TestDeleteAccount(t *testing.T) {
	env := newTestServer(t, nil, true)
	creds := map[string]any{"username": "admin", "password": "s3cret!"}

	expectStatus(t, env.do(t, http.MethodPost, "/api/auth/setup", creds), http.StatusOK)
	expectStatus(t, env.do(t, http.MethodPost, "/api/auth/login", creds), http.StatusOK)
	expectStatus(t, env.do(t, http.MethodPut, "/api/bmi/today", map[string]any{"weight": 70, "height": 1.75}), http.StatusOK)

	user, _ := env.db.GetByUsername(context.Background(), "admin")
	if user == nil {
		t.Fatal("expected admin user")
	}

	expectStatus(t, env.do(t, http.MethodGet, "/api/account", nil), http.StatusMethodNotAllowed)
	resp := env.do(t, http.MethodDelete, "/api/account", nil)
	expectStatus(t, resp, http.StatusOK)
	if body := decodeBody(t, resp); body["deleted"] != true {
		t.Fatalf("expected deleted=true, got %v", body)
	}

	if items, _ := env.db.ListRecentMeasurements(context.Background(), user.ID, 10); len(items) != 0 {
		t.Fatalf("expected measurements removed, got %d", len(items))
	}
	expectStatus(t, env.do(t, http.MethodGet, "/api/bmi/today", nil), http.StatusUnauthorized)
	// With no users left, setup is open again.
	expectStatus(t, env.do(t, http.MethodPost, "/api/auth/setup", creds), http.StatusOK)
}

func TestAuth_ForwardAuthHeader(t *testing.T) {
	env := newTestServer(t, nil, true)

	req, _ := http.NewRequest(http.MethodGet, env.ts.URL+"/api/bmi/recent", nil)
	req.Header.Set("Remote-User", "proxyuser")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	expectStatus(t, resp, http.StatusOK)

	if u, _ := env.db.GetByUsername(context.Background(), "proxyuser"); u == nil {
		t.Fatal("expected forward-auth user to be provisioned")
	}
}

func TestConfigAndSSODisabled(t *testing.T) {
	env := newTestServer(t, nil, true)

	body := decodeBody(t, env.do(t, http.MethodGet, "/api/config", nil))
	if body["sso_enabled"] != false || body["auth_enabled"] != true {
		t.Fatalf("unexpected config: %v", body)
	}
	expectStatus(t, env.do(t, http.MethodGet, "/api/auth/sso/login", nil), http.StatusNotFound)
	expectStatus(t, env.do(t, http.MethodGet, "/api/auth/sso/callback", nil), http.StatusNotFound)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestServer(t, nil, false)
	expectStatus(t, env.do(t, http.MethodGet, "/api/bmi?weight=65&height=1.53", nil), http.StatusOK)

	resp := env.do(t, http.MethodGet, "/metrics", nil)
	expectStatus(t, resp, http.StatusOK)
	b, _ := io.ReadAll(resp.Body)
	out := string(b)
	if !strings.Contains(out, `bmi_calculations_total{category="overweight"} 1`) {
		t.Errorf("missing calculation counter:\n%s", out)
	}
	if !strings.Contains(out, `bmi_http_requests_total{code="200",method="GET",route="/bmi"} 1`) {
		t.Errorf("missing request counter:\n%s", out)
	}
}

func TestSPAFallback(t *testing.T) {
	env := newTestServer(t, nil, false)
	resp := env.do(t, http.MethodGet, "/some/client/route", nil)
	expectStatus(t, resp, http.StatusOK)
	b, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(b), "<html>") {
		t.Fatalf("expected index.html, got %q", b)
	}
}
