package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/nhle/cub-fuel-log/internal/logbook"
	"github.com/nhle/cub-fuel-log/internal/model"
	"github.com/nhle/cub-fuel-log/internal/offline"
	"github.com/nhle/cub-fuel-log/internal/shell"
	"github.com/nhle/cub-fuel-log/tests/testutil"
)

func setupServer(t *testing.T) (*Server, *logbook.Service) {
	t.Helper()
	svc := logbook.New(testutil.NewTestStore(t))
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return NewServer(svc), svc
}

func do(t *testing.T, h http.Handler, method, path string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func postRecord(t *testing.T, h http.Handler, date, odo, fuel string) {
	t.Helper()
	body, _ := json.Marshal(logbook.RecordInput{Date: date, Odometer: odo, Fuel: fuel})
	w := do(t, h, http.MethodPost, "/api/records", bytes.NewReader(body))
	if w.Code != http.StatusCreated {
		t.Fatalf("POST /api/records: %d %s", w.Code, w.Body.String())
	}
}

// ─── API ────────────────────────────────────────────────────────────────────

func TestHealth(t *testing.T) {
	s, _ := setupServer(t)
	w := do(t, s.Handler(), http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestRecordsLifecycle(t *testing.T) {
	s, _ := setupServer(t)
	h := s.Handler()

	postRecord(t, h, "2024-01-01", "1000", "")
	postRecord(t, h, "2024-01-15", "1200", "8")

	w := do(t, h, http.MethodGet, "/api/records", nil)
	var view []model.EnrichedRecord
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(view) != 2 || view[1].Efficiency != 25 {
		t.Fatalf("view = %+v, want two records with efficiency 25", view)
	}

	id := view[1].ID
	body := `{"date":"2024-01-15","odometer":"1300","fuel":"10","memo":"fixed"}`
	w = do(t, h, http.MethodPut, "/api/records/"+itoa(id), strings.NewReader(body))
	if w.Code != http.StatusOK {
		t.Fatalf("PUT: %d %s", w.Code, w.Body.String())
	}

	w = do(t, h, http.MethodGet, "/api/records/"+itoa(id), nil)
	var rec model.FuelRecord
	json.Unmarshal(w.Body.Bytes(), &rec)
	if rec.Odometer != 1300 || rec.Memo != "fixed" {
		t.Errorf("after PUT = %+v", rec)
	}

	w = do(t, h, http.MethodDelete, "/api/records/"+itoa(id), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("DELETE: %d", w.Code)
	}
	w = do(t, h, http.MethodGet, "/api/records/"+itoa(id), nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("GET deleted: %d, want 404", w.Code)
	}

	w = do(t, h, http.MethodDelete, "/api/records", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("DELETE all: %d", w.Code)
	}
	w = do(t, h, http.MethodGet, "/api/records/latest", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("latest on empty log: %d, want 404", w.Code)
	}
}

func TestCreateRecord_Invalid(t *testing.T) {
	s, _ := setupServer(t)
	h := s.Handler()

	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing date", `{"odometer":"100"}`, http.StatusBadRequest},
		{"negative fuel", `{"date":"2024-01-01","odometer":"100","fuel":"-1"}`, http.StatusBadRequest},
		{"bad json", `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/api/records", strings.NewReader(tt.body))
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestPreviewAndSummary(t *testing.T) {
	s, _ := setupServer(t)
	h := s.Handler()
	postRecord(t, h, "2024-01-01", "1000", "")
	postRecord(t, h, "2024-01-15", "1200", "8")

	w := do(t, h, http.MethodGet, "/api/records/preview?date=2024-02-01&odometer=1500&fuel=10", nil)
	var p previewResponse
	json.Unmarshal(w.Body.Bytes(), &p)
	if !p.OK || p.Distance != 300 || p.Efficiency != 30 {
		t.Errorf("preview = %+v", p)
	}

	w = do(t, h, http.MethodGet, "/api/summary?month=2024-01", nil)
	var sum map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &sum)
	if sum["total_distance"] != float64(200) || sum["has_average"] != true {
		t.Errorf("summary = %v", sum)
	}
}

func TestImportExport(t *testing.T) {
	s, _ := setupServer(t)
	h := s.Handler()

	w := do(t, h, http.MethodGet, "/api/export", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("export of empty log: %d, want 404", w.Code)
	}

	csv := "日付,距離,給油量\n2024/02/01,500,10\n2024/02/10,700,8\n"
	w = do(t, h, http.MethodPost, "/api/import", strings.NewReader(csv))
	if w.Code != http.StatusOK {
		t.Fatalf("import: %d %s", w.Code, w.Body.String())
	}
	var res importResponse
	json.Unmarshal(w.Body.Bytes(), &res)
	if res.Imported != 2 || res.Message == "" {
		t.Errorf("import result = %+v", res)
	}

	w = do(t, h, http.MethodGet, "/api/export", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export: %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "cub_log.csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	exported := w.Body.String()
	if !strings.Contains(exported, "2024-02-10,700,200,8.00,25.00") {
		t.Errorf("export = %q", exported)
	}

	// Re-importing the export adds nothing.
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "cub_log.csv")
	fw.Write([]byte(exported))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("re-import: %d %s, want 422", rec.Code, rec.Body.String())
	}
}

func TestStoreUnavailable(t *testing.T) {
	s := NewServer(logbook.New(nil))
	body := `{"date":"2024-01-01","odometer":"100"}`
	w := do(t, s.Handler(), http.MethodPost, "/api/records", strings.NewReader(body))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

// ─── Shell ──────────────────────────────────────────────────────────────────

func TestEmbeddedShell(t *testing.T) {
	s, _ := setupServer(t)
	w := do(t, s.Handler(), http.MethodGet, "/", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Cub Fuel Log") {
		t.Errorf("GET / = %d", w.Code)
	}
}

func TestGateway_ServesShellOffline(t *testing.T) {
	origin := httptest.NewServer(shell.Handler())
	originURL, _ := url.Parse(origin.URL + "/")

	reg := offline.NewRegistration(offline.Config{
		CacheName: "cub-cache-v1",
		Scope:     originURL.String(),
		Precache:  shell.Manifest(),
	}, offline.NewMemoryStorage(), nil)
	if err := reg.Register(context.Background()); err != nil {
		t.Fatalf("Register: %v", err)
	}

	s, _ := setupServer(t)
	s.SetShellOrigin(originURL, reg)
	gw := httptest.NewServer(s.Handler())
	defer gw.Close()

	get := func(path string) (*http.Response, string) {
		req, _ := http.NewRequest(http.MethodGet, gw.URL+path, nil)
		if path == "/" {
			req.Header.Set("Sec-Fetch-Mode", "navigate")
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return resp, string(body)
	}

	resp, body := get("/")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "Cub Fuel Log") {
		t.Fatalf("online GET / = %d", resp.StatusCode)
	}
	if len(resp.Cookies()) == 0 || resp.Cookies()[0].Name != ClientCookie {
		t.Error("client cookie not set")
	}
	if reg.Active().Clients() != 1 {
		t.Errorf("Clients = %d, want 1", reg.Active().Clients())
	}

	origin.Close()

	resp, body = get("/")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "Cub Fuel Log") {
		t.Errorf("offline GET / = %d", resp.StatusCode)
	}
	resp, _ = get("/cub.css")
	if resp.StatusCode != http.StatusOK || resp.Header.Get(offline.CacheHeader) != "hit" {
		t.Errorf("offline GET /cub.css = %d (cache %q)", resp.StatusCode, resp.Header.Get(offline.CacheHeader))
	}
	resp, _ = get("/never-cached.js")
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("offline uncached asset = %d, want 502", resp.StatusCode)
	}

	w := do(t, s.Handler(), http.MethodGet, "/api/offline", nil)
	var st offlineResponse
	json.Unmarshal(w.Body.Bytes(), &st)
	if !st.Enabled || !st.Active || st.State != "activated" {
		t.Errorf("offline status = %+v", st)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func TestListRecords_DateRange(t *testing.T) {
	s, _ := setupServer(t)
	h := s.Handler()

	postRecord(t, h, "2024-01-01", "1000", "")
	postRecord(t, h, "2024-02-01", "1200", "8")
	postRecord(t, h, "2024-03-01", "1500", "10")

	tests := []struct {
		query string
		want  int
	}{
		{"?from=2024-02-01", 2},
		{"?to=2024-01-31", 1},
		{"?from=2024-02-01&to=2024-02-28", 1},
		{"?from=2025-01-01", 0},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := do(t, h, http.MethodGet, "/api/records"+tt.query, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", w.Code)
			}
			var view []model.EnrichedRecord
			if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(view) != tt.want {
				t.Errorf("len = %d, want %d", len(view), tt.want)
			}
		})
	}
}
