package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/RaghavAtRuntime/local-llm-tutor/internal/health"
)

func serve(t *testing.T, h *health.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	h.Routes(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealthz_AlwaysOK(t *testing.T) {
	t.Parallel()

	rec := serve(t, health.New(), "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /healthz = %d, want 200", rec.Code)
	}
}

func TestReadyz_NoChecks(t *testing.T) {
	t.Parallel()

	rec := serve(t, health.New(), "/readyz")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /readyz = %d, want 200", rec.Code)
	}
}

func TestReadyz_AllPass(t *testing.T) {
	t.Parallel()

	h := health.New()
	h.Register("store", func(context.Context) error { return nil })
	h.Register("tts", func(context.Context) error { return nil })

	rec := serve(t, h, "/readyz")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /readyz = %d, want 200", rec.Code)
	}

	var body struct {
		Status string `json:"status"`
		Checks map[string]struct {
			Status string `json:"status"`
		} `json:"checks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("status = %q, want ok", body.Status)
	}
	if body.Checks["store"].Status != "ok" || body.Checks["tts"].Status != "ok" {
		t.Errorf("checks = %+v, want all ok", body.Checks)
	}
}

func TestReadyz_OneFails(t *testing.T) {
	t.Parallel()

	h := health.New()
	h.Register("store", func(context.Context) error { return nil })
	h.Register("tts", func(context.Context) error { return errors.New("coqui unreachable") })

	rec := serve(t, h, "/readyz")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("GET /readyz = %d, want 503", rec.Code)
	}

	var body struct {
		Status string `json:"status"`
		Checks map[string]struct {
			Status string `json:"status"`
			Error  string `json:"error"`
		} `json:"checks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Status != "fail" {
		t.Errorf("status = %q, want fail", body.Status)
	}
	if body.Checks["tts"].Error != "coqui unreachable" {
		t.Errorf("tts error = %q, want coqui unreachable", body.Checks["tts"].Error)
	}
	if body.Checks["store"].Status != "ok" {
		t.Errorf("store status = %q, want ok", body.Checks["store"].Status)
	}
}

func TestRegister_ReplacesByName(t *testing.T) {
	t.Parallel()

	h := health.New()
	h.Register("store", func(context.Context) error { return errors.New("first") })
	h.Register("store", func(context.Context) error { return nil })

	rec := serve(t, h, "/readyz")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /readyz = %d, want 200 after replacement", rec.Code)
	}
}
