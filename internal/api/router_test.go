package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andremillet/prescreveai/internal/events"
	"github.com/andremillet/prescreveai/internal/render"
)

type stubRenderer struct{}

func (stubRenderer) Render(w io.Writer, t render.Template, _ render.Document) error {
	_, err := io.WriteString(w, "%PDF-"+string(t))
	return err
}

type downPublisher struct{ events.NopPublisher }

func (downPublisher) Ready(context.Context) error { return events.ErrUnavailable }

const prescribeBody = `{"medication_string":"!MED DIPIRONA 500MG SE DOR","emitter_data":{"nome":"Dra. Maria Souza","crm":"52-123456"}}`

func do(h http.Handler, method, path, body string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	h := NewRouter(Options{Renderer: stubRenderer{}})
	rec := do(h, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"healthy"`) {
		t.Errorf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing request id header")
	}
}

func TestReady(t *testing.T) {
	if rec := do(NewRouter(Options{}), http.MethodGet, "/ready", ""); rec.Code != http.StatusOK {
		t.Errorf("ready status = %d", rec.Code)
	}
	if rec := do(NewRouter(Options{Publisher: downPublisher{}}), http.MethodGet, "/ready", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("degraded status = %d", rec.Code)
	}
}

func TestPrescribeRoutes_NoAuth(t *testing.T) {
	h := NewRouter(Options{Renderer: stubRenderer{}})
	for _, path := range []string{"/prescribe", "/api/v1/prescriptions"} {
		rec := do(h, http.MethodPost, path, prescribeBody, "Accept", "application/pdf")
		if rec.Code != http.StatusOK || rec.Body.String() != "%PDF-memed" {
			t.Errorf("%s: status = %d, body = %q", path, rec.Code, rec.Body.String())
		}
	}
}

func TestPrescribeRoutes_APIKey(t *testing.T) {
	h := NewRouter(Options{Renderer: stubRenderer{}, APIKeys: []string{"clinic=s3cret"}})

	tests := []struct {
		name   string
		path   string
		header []string
		want   int
	}{
		{"prescribe without key", "/prescribe", nil, http.StatusUnauthorized},
		{"prescribe with key", "/prescribe", []string{"X-API-Key", "s3cret"}, http.StatusOK},
		{"parse without key", "/api/v1/prescriptions/parse", nil, http.StatusUnauthorized},
		{"parse with bearer", "/api/v1/prescriptions/parse", []string{"Authorization", "Bearer s3cret"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := do(h, http.MethodPost, tt.path, prescribeBody, tt.header...); rec.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}

	if rec := do(h, http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Errorf("health should stay open, got %d", rec.Code)
	}
}

func TestMetricsAndDocs(t *testing.T) {
	h := NewRouter(Options{Renderer: stubRenderer{}})
	do(h, http.MethodPost, "/api/v1/prescriptions/parse", `{"medication_string":"no marker"}`)

	rec := do(h, http.MethodGet, "/metrics", "")
	if !strings.Contains(rec.Body.String(), `prescreveai_parse_total{outcome="missing_marker"} 1`) {
		t.Errorf("metrics missing parse counter:\n%s", rec.Body.String())
	}

	rec = do(h, http.MethodGet, "/docs/doc.json", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"/prescribe"`) {
		t.Errorf("doc.json status = %d", rec.Code)
	}
}

func TestRecoverReturnsDetail(t *testing.T) {
	h := NewRouter(Options{Renderer: panicRenderer{}})
	rec := do(h, http.MethodPost, "/prescribe", prescribeBody)
	if rec.Code != http.StatusInternalServerError || rec.Body.String() != `{"detail":"internal server error"}` {
		t.Errorf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

type panicRenderer struct{}

func (panicRenderer) Render(io.Writer, render.Template, render.Document) error {
	panic(errors.New("renderer bug"))
}
