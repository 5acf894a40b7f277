package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/andremillet/prescreveai/internal/domain/prescription"
	fhir "github.com/andremillet/prescreveai/internal/fhir/r5"
	"github.com/andremillet/prescreveai/internal/observability/metrics"
	"github.com/andremillet/prescreveai/internal/render"
)

// echoRenderer writes the emitter name and the template instead of a PDF.
type echoRenderer struct {
	fail error
}

func (e echoRenderer) Render(w io.Writer, t render.Template, doc render.Document) error {
	if e.fail != nil {
		return e.fail
	}
	_, err := fmt.Fprintf(w, "%%PDF-%s|%s|%d", t, doc.Emitter.Name, len(doc.Medications))
	return err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*prescription.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e *prescription.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Ready(context.Context) error { return nil }
func (p *recordingPublisher) Close(context.Context) error { return nil }

var issuedAt = time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)

func newTestHandler(r render.Renderer, pub *recordingPublisher) (*PrescriptionHandler, *metrics.Metrics) {
	m := metrics.New(nil)
	h := NewPrescriptionHandler(r, pub, m, nil, WithClinic("Clínica Teste"), WithClock(func() time.Time { return issuedAt }))
	return h, m
}

func post(t *testing.T, h http.Handler, path string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func detail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var e ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &e); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return e.Detail
}

var emitter = &prescription.Emitter{Name: "Dra. Maria Souza", CRM: "52-123456"}

func TestPrescribe_JSON(t *testing.T) {
	pub := &recordingPublisher{}
	h, m := newTestHandler(echoRenderer{}, pub)

	rec := post(t, h.Routes(), "/", PrescribeRequest{
		MedicationString: "!MED DIPIRONA 500MG SE DOR; AMOXICILINA 500MG [APOS REFEICAO] 8/8H",
		EmitterData:      emitter,
		Template:         "Simple",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp PrescribeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Medications) != 2 || resp.Medications[1].Comment == nil || *resp.Medications[1].Comment != "APOS REFEICAO" {
		t.Errorf("medications = %+v", resp.Medications)
	}
	if resp.Template != "simple" || resp.PDFFilename != "prescricao_simple.pdf" {
		t.Errorf("template = %q, filename = %q", resp.Template, resp.PDFFilename)
	}
	if string(resp.PDF) != "%PDF-simple|Dra. Maria Souza|2" {
		t.Errorf("pdf = %q", resp.PDF)
	}
	if resp.DocumentID == "" || rec.Header().Get("X-Document-ID") != resp.DocumentID {
		t.Errorf("document id = %q, header = %q", resp.DocumentID, rec.Header().Get("X-Document-ID"))
	}

	if len(pub.events) != 1 {
		t.Fatalf("published %d events", len(pub.events))
	}
	data, err := pub.events[0].DecodeIssued()
	if err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if data.DocumentID != resp.DocumentID || data.EmitterCRM != "52-123456" || !data.IssuedAt.Equal(issuedAt) {
		t.Errorf("event data = %+v", data)
	}

	if got := testutil.ToFloat64(m.DocumentsRendered.WithLabelValues("simple")); got != 1 {
		t.Errorf("documents_rendered = %v", got)
	}
	if got := testutil.ToFloat64(m.ParseTotal.WithLabelValues("ok")); got != 1 {
		t.Errorf("parse ok = %v", got)
	}
}

func TestPrescribe_PDF(t *testing.T) {
	h, _ := newTestHandler(echoRenderer{}, &recordingPublisher{})

	rec := post(t, h.Routes(), "/", PrescribeRequest{
		MedicationString: "!MED DIPIRONA 500MG SE DOR",
		EmitterData:      emitter,
	}, "Accept", "text/html, application/pdf;q=0.9")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("content type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != "attachment; filename=prescricao_memed.pdf" {
		t.Errorf("content disposition = %q", cd)
	}
	if !strings.HasPrefix(rec.Body.String(), "%PDF-memed|") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestPrescribe_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		body   PrescribeRequest
		want   int
		detail string
	}{
		{
			name:   "missing emitter",
			body:   PrescribeRequest{MedicationString: "!MED DIPIRONA 500MG SE DOR"},
			want:   http.StatusBadRequest,
			detail: "emitter_data is required",
		},
		{
			name:   "incomplete emitter",
			body:   PrescribeRequest{MedicationString: "!MED DIPIRONA 500MG SE DOR", EmitterData: &prescription.Emitter{Name: "X"}},
			want:   http.StatusBadRequest,
			detail: prescription.ErrEmitterIncomplete.Error(),
		},
		{
			name:   "missing marker",
			body:   PrescribeRequest{MedicationString: "DIPIRONA 500MG SE DOR", EmitterData: emitter},
			want:   http.StatusBadRequest,
			detail: "Input must start with '!MED '",
		},
		{
			name:   "unparsable item",
			body:   PrescribeRequest{MedicationString: "!MED DIPIRONA SE DOR", EmitterData: emitter},
			want:   http.StatusBadRequest,
			detail: "Could not parse medication item: DIPIRONA SE DOR",
		},
		{
			name:   "unknown template",
			body:   PrescribeRequest{MedicationString: "!MED DIPIRONA 500MG SE DOR", EmitterData: emitter, Template: "fancy"},
			want:   http.StatusBadRequest,
			detail: "unknown template: fancy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &recordingPublisher{}
			h, _ := newTestHandler(echoRenderer{}, pub)
			rec := post(t, h.Routes(), "/", tt.body)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if got := detail(t, rec); got != tt.detail {
				t.Errorf("detail = %q, want %q", got, tt.detail)
			}
			if len(pub.events) != 0 {
				t.Error("rejected request published an event")
			}
		})
	}
}

func TestPrescribe_InvalidBody(t *testing.T) {
	h, _ := newTestHandler(echoRenderer{}, &recordingPublisher{})
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest || detail(t, rec) != "invalid request body" {
		t.Errorf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestPrescribe_RenderFailure(t *testing.T) {
	pub := &recordingPublisher{}
	h, _ := newTestHandler(echoRenderer{fail: errors.New("disk full")}, pub)

	rec := post(t, h.Routes(), "/", PrescribeRequest{MedicationString: "!MED DIPIRONA 500MG SE DOR", EmitterData: emitter})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := detail(t, rec); got != "failed to render document" {
		t.Errorf("detail = %q", got)
	}
	if len(pub.events) != 0 {
		t.Error("failed render published an event")
	}
}

// Concurrent requests must each render with their own emitter.
func TestPrescribe_ConcurrentEmitters(t *testing.T) {
	h, _ := newTestHandler(echoRenderer{}, &recordingPublisher{})
	routes := h.Routes()

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("Dr. Emitente %02d", i)
			raw, _ := json.Marshal(PrescribeRequest{
				MedicationString: "!MED DIPIRONA 500MG SE DOR",
				EmitterData:      &prescription.Emitter{Name: name, CRM: fmt.Sprintf("%d", i)},
			})
			req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(raw))
			rec := httptest.NewRecorder()
			routes.ServeHTTP(rec, req)

			var resp PrescribeResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				errs <- err.Error()
				return
			}
			if want := "%PDF-memed|" + name + "|1"; string(resp.PDF) != want {
				errs <- fmt.Sprintf("got %q, want %q", resp.PDF, want)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Error(e)
	}
}

func TestParse(t *testing.T) {
	h, m := newTestHandler(echoRenderer{}, &recordingPublisher{})

	rec := post(t, h.Routes(), "/parse", ParseRequest{MedicationString: "!MED AMITRIPTILINA 25MG NOITE"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp ParseResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Medications) != 1 || resp.Medications[0].Dosage != "25MG" || resp.Medications[0].Comment != nil {
		t.Errorf("medications = %+v", resp.Medications)
	}

	rec = post(t, h.Routes(), "/parse", ParseRequest{MedicationString: "!MED "})
	if rec.Code != http.StatusBadRequest || detail(t, rec) != "No valid medications found in input." {
		t.Errorf("empty input: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := testutil.ToFloat64(m.ParseTotal.WithLabelValues("empty_input")); got != 1 {
		t.Errorf("parse empty_input = %v", got)
	}
}

func TestFHIR(t *testing.T) {
	h, _ := newTestHandler(echoRenderer{}, &recordingPublisher{})

	rec := post(t, h.Routes(), "/fhir", FHIRRequest{
		MedicationString: "!MED DIPIRONA 500MG SE DOR; AMOXICILINA 500MG 8/8H",
		EmitterData:      emitter,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/fhir+json" {
		t.Errorf("content type = %q", ct)
	}

	var raw struct {
		ResourceType string `json:"resourceType"`
		Type         string `json:"type"`
		Entry        []struct {
			Resource struct {
				ResourceType string `json:"resourceType"`
			} `json:"resource"`
		} `json:"entry"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if raw.ResourceType != "Bundle" || raw.Type != fhir.BundleTypeCollection || len(raw.Entry) != 3 {
		t.Fatalf("bundle = %+v", raw)
	}
	if raw.Entry[0].Resource.ResourceType != "Practitioner" || raw.Entry[2].Resource.ResourceType != "MedicationRequest" {
		t.Errorf("entries = %+v", raw.Entry)
	}
}
