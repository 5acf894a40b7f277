// Package integration exercises the HTTP service end to end.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/andremillet/prescreveai/internal/api"
	"github.com/andremillet/prescreveai/internal/api/handlers"
	"github.com/andremillet/prescreveai/internal/domain/prescription"
	"github.com/andremillet/prescreveai/internal/events"
	"github.com/andremillet/prescreveai/internal/observability/metrics"
	"github.com/andremillet/prescreveai/internal/render"
)

type memorySink struct {
	mu     sync.Mutex
	topics []string
	events []*prescription.Event
}

func (s *memorySink) PublishEvent(_ context.Context, topic string, e *prescription.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topics = append(s.topics, topic)
	s.events = append(s.events, e)
	return nil
}

func (s *memorySink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

type env struct {
	server    *httptest.Server
	sink      *memorySink
	publisher *events.AsyncPublisher
}

func newEnv(t *testing.T, keys ...string) *env {
	t.Helper()
	m := metrics.New(nil)
	sink := &memorySink{}
	pub, err := events.NewAsyncPublisher(sink, events.PublisherConfig{
		Topic:     events.TopicPrescriptionsIssued,
		Workers:   2,
		QueueSize: 16,
	}, m, nil)
	require.NoError(t, err)

	srv := httptest.NewServer(api.NewRouter(api.Options{
		Renderer:   render.NewPDFRenderer(),
		Publisher:  pub,
		Metrics:    m,
		APIKeys:    keys,
		ClinicName: "Clínica Integração",
	}))
	t.Cleanup(func() {
		srv.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = pub.Close(ctx)
	})
	return &env{server: srv, sink: sink, publisher: pub}
}

func (e *env) post(t *testing.T, path string, body any, header ...string) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, e.server.URL+path, bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

var emitter = &prescription.Emitter{
	Name:      "Dra. Maria Souza",
	CRM:       "52-123456",
	Address:   "Rua das Flores, 100",
	Phone:     "(21) 99999-0000",
	CityState: "Rio de Janeiro/RJ",
}

func TestPrescribe_EndToEnd(t *testing.T) {
	e := newEnv(t)

	resp := e.post(t, "/prescribe", handlers.PrescribeRequest{
		MedicationString: "!MED AMITRIPTILINA 25MG NOITE; DIPIRONA 500MG [SE FEBRE] 6/6H",
		EmitterData:      emitter,
		Patient:          &prescription.Patient{Name: "JOSE DA SILVA"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body handlers.PrescribeResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Medications, 2)
	require.Equal(t, "AMITRIPTILINA", body.Medications[0].Name)
	require.Nil(t, body.Medications[0].Comment)
	require.Equal(t, "SE FEBRE", *body.Medications[1].Comment)
	require.Equal(t, "memed", body.Template)
	require.Equal(t, "prescricao_memed.pdf", body.PDFFilename)
	require.True(t, bytes.HasPrefix(body.PDF, []byte("%PDF-")), "response should carry a PDF")

	require.Eventually(t, func() bool { return e.sink.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	data, err := e.sink.events[0].DecodeIssued()
	require.NoError(t, err)
	require.Equal(t, body.DocumentID, data.DocumentID)
	require.Equal(t, "52-123456", data.EmitterCRM)
	require.Equal(t, events.TopicPrescriptionsIssued, e.sink.topics[0])
	require.Equal(t, resp.Header.Get("X-Request-ID"), e.sink.events[0].CorrelationID)
}

func TestPrescribe_RawPDFSimpleTemplate(t *testing.T) {
	e := newEnv(t)

	resp := e.post(t, "/api/v1/prescriptions", handlers.PrescribeRequest{
		MedicationString: "!MED DIPIRONA 500MG SE DOR",
		EmitterData:      emitter,
		Template:         "simple",
	}, "Accept", "application/pdf")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	require.Contains(t, resp.Header.Get("Content-Disposition"), "prescricao_simple.pdf")

	pdf, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
}

func TestPrescribe_ErrorsUseDetail(t *testing.T) {
	e := newEnv(t)

	cases := map[string]handlers.PrescribeRequest{
		"Input must start with '!MED '":               {MedicationString: "MED DIPIRONA 500MG SE DOR", EmitterData: emitter},
		"No valid medications found in input.":        {MedicationString: "!MED ; ;", EmitterData: emitter},
		"Could not parse medication item: DIPIRONA":   {MedicationString: "!MED DIPIRONA", EmitterData: emitter},
		"Posology cannot be empty in: DIPIRONA 500MG": {MedicationString: "!MED DIPIRONA 500MG", EmitterData: emitter},
		"emitter_data is required":                    {MedicationString: "!MED DIPIRONA 500MG SE DOR"},
		"unknown template: receituario-azul":          {MedicationString: "!MED DIPIRONA 500MG SE DOR", EmitterData: emitter, Template: "receituario-azul"},
	}
	for want, req := range cases {
		resp := e.post(t, "/prescribe", req)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode, want)

		var body handlers.ErrorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Equal(t, want, body.Detail)
	}
	require.Zero(t, e.sink.count())
}

func TestAPIKeys(t *testing.T) {
	e := newEnv(t, "clinica=chave-1")

	resp := e.post(t, "/api/v1/prescriptions/parse", handlers.ParseRequest{MedicationString: "!MED DIPIRONA 500MG SE DOR"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = e.post(t, "/api/v1/prescriptions/parse", handlers.ParseRequest{MedicationString: "!MED DIPIRONA 500MG SE DOR"}, "X-API-Key", "chave-1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestFHIRExport(t *testing.T) {
	e := newEnv(t)

	resp := e.post(t, "/api/v1/prescriptions/fhir", handlers.FHIRRequest{
		MedicationString: "!MED AMOXICILINA 500MG 8/8H",
		EmitterData:      emitter,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/fhir+json", resp.Header.Get("Content-Type"))

	var bundle map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&bundle))
	require.Equal(t, "Bundle", bundle["resourceType"])
	require.Len(t, bundle["entry"], 2)
}
