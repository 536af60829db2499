package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yourusername/captchacache/core"
	"github.com/yourusername/captchacache/metrics"
	"github.com/yourusername/captchacache/pkg/captchacache"
	"github.com/yourusername/captchacache/store"
)

func newTestServer(t *testing.T) (*http.ServeMux, *metrics.Metrics) {
	t.Helper()
	m := metrics.NewMetrics()
	cache, err := captchacache.NewWithExecutor(context.Background(), store.NewMemoryExtension(), captchacache.WithRecorder(m))
	if err != nil {
		t.Fatalf("NewWithExecutor() failed: %v", err)
	}

	mux := http.NewServeMux()
	NewHandler(cache.Conn()).Routes(mux)
	mux.Handle("GET /metrics", NewMetricsHandler(m))
	return mux, m
}

func do(t *testing.T, mux *http.ServeMux, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func registerBody(id string) RegisterRequest {
	return RegisterRequest{
		ID:       id,
		Levels:   []core.Level{{VisitorThreshold: 1, DifficultyFactor: 10}, {VisitorThreshold: 5, DifficultyFactor: 100}},
		Duration: 30,
	}
}

func TestHandler_Lifecycle(t *testing.T) {
	mux, _ := newTestServer(t)

	w := do(t, mux, http.MethodPost, "/captcha", registerBody("site"))
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d, want %d: %s", w.Code, http.StatusCreated, w.Body)
	}

	for i, want := range []uint32{10, 100} {
		w = do(t, mux, http.MethodPost, "/captcha/site/visitor", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("visitor status = %d, want %d", w.Code, http.StatusOK)
		}
		var resp VisitorResponse
		json.NewDecoder(w.Body).Decode(&resp)
		if resp.DifficultyFactor != want {
			t.Errorf("visitor %d: difficulty = %d, want %d", i+1, resp.DifficultyFactor, want)
		}
	}

	w = do(t, mux, http.MethodGet, "/captcha/site", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp CaptchaResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if !resp.Exists || resp.Visitors != 2 {
		t.Errorf("get response = %+v, want exists with 2 visitors", resp)
	}

	w = do(t, mux, http.MethodDelete, "/captcha/site", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want %d", w.Code, http.StatusNoContent)
	}

	w = do(t, mux, http.MethodGet, "/captcha/site", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestHandler_RegisterGeneratesID(t *testing.T) {
	mux, _ := newTestServer(t)

	w := do(t, mux, http.MethodPost, "/captcha", registerBody(""))
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d, want %d", w.Code, http.StatusCreated)
	}

	var resp CaptchaResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if len(resp.ID) != 36 {
		t.Errorf("generated id = %q, want a uuid", resp.ID)
	}

	w = do(t, mux, http.MethodGet, "/captcha/"+resp.ID, nil)
	if w.Code != http.StatusOK {
		t.Errorf("get generated captcha status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestHandler_RegisterErrors(t *testing.T) {
	mux, _ := newTestServer(t)
	do(t, mux, http.MethodPost, "/captcha", registerBody("taken"))

	tests := []struct {
		name       string
		body       interface{}
		raw        string
		wantStatus int
		wantError  string
	}{
		{"invalid json", nil, "{", http.StatusBadRequest, "invalid_request"},
		{"invalid config", RegisterRequest{ID: "x", Duration: 30}, "", http.StatusBadRequest, "invalid_config"},
		{"duplicate", registerBody("taken"), "", http.StatusConflict, "captcha_exists"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var w *httptest.ResponseRecorder
			if tt.raw != "" {
				req := httptest.NewRequest(http.MethodPost, "/captcha", strings.NewReader(tt.raw))
				w = httptest.NewRecorder()
				mux.ServeHTTP(w, req)
			} else {
				w = do(t, mux, http.MethodPost, "/captcha", tt.body)
			}

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var resp ErrorResponse
			json.NewDecoder(w.Body).Decode(&resp)
			if resp.Error != tt.wantError {
				t.Errorf("error = %q, want %q", resp.Error, tt.wantError)
			}
		})
	}
}

func TestHandler_UnknownCaptcha(t *testing.T) {
	mux, _ := newTestServer(t)

	for _, req := range []struct{ method, path string }{
		{http.MethodGet, "/captcha/nope"},
		{http.MethodPost, "/captcha/nope/visitor"},
		{http.MethodDelete, "/captcha/nope"},
	} {
		w := do(t, mux, req.method, req.path, nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("%s %s status = %d, want %d", req.method, req.path, w.Code, http.StatusNotFound)
		}
	}
}

// failingStore reports every call with a fixed error
type failingStore struct {
	err error
}

func (s failingStore) Register(context.Context, core.RegisterRequest) error { return s.err }
func (s failingStore) AddVisitor(context.Context, core.AddVisitorRequest) (*core.AddVisitorResult, error) {
	return nil, s.err
}
func (s failingStore) Exists(context.Context, string) (bool, error)         { return false, s.err }
func (s failingStore) Delete(context.Context, string) error                 { return s.err }
func (s failingStore) VisitorCount(context.Context, string) (uint64, error) { return 0, s.err }

func TestHandler_StoreErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"protocol", captchacache.ErrExtensionProtocol, http.StatusBadGateway},
		{"deserialization", captchacache.ErrDeserialization, http.StatusBadGateway},
		{"transport", errors.Join(captchacache.ErrStore, context.DeadlineExceeded), http.StatusServiceUnavailable},
		{"invalid id", captchacache.ErrInvalidID, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			NewHandler(failingStore{err: tt.err}).Routes(mux)

			w := do(t, mux, http.MethodGet, "/captcha/site", nil)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestMetricsHandler(t *testing.T) {
	mux, _ := newTestServer(t)
	do(t, mux, http.MethodPost, "/captcha", registerBody("site"))

	w := do(t, mux, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), `captchacache_commands_total{command="MCAPTCHA_CACHE.ADD_CAPTCHA"} 1`) {
		t.Errorf("prometheus output missing ADD_CAPTCHA counter:\n%s", w.Body)
	}

	w = do(t, mux, http.MethodGet, "/metrics?format=json", nil)
	var snapshot metrics.Snapshot
	if err := json.NewDecoder(w.Body).Decode(&snapshot); err != nil {
		t.Fatalf("invalid JSON snapshot: %v", err)
	}
	// CAPTCHA_EXISTS then ADD_CAPTCHA
	if snapshot.TotalCommands != 2 {
		t.Errorf("TotalCommands = %d, want 2", snapshot.TotalCommands)
	}
}

func TestMetricsHandler_MethodNotAllowed(t *testing.T) {
	handler := NewMetricsHandler(metrics.NewMetrics())
	req := httptest.NewRequest(http.MethodPost, "/metrics", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}
}
