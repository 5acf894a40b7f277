// Package handlers provides HTTP handlers for the prescription API.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/andremillet/prescreveai/internal/api/middleware"
	"github.com/andremillet/prescreveai/internal/domain/prescription"
	"github.com/andremillet/prescreveai/internal/events"
	fhir "github.com/andremillet/prescreveai/internal/fhir/r5"
	"github.com/andremillet/prescreveai/internal/observability/metrics"
	"github.com/andremillet/prescreveai/internal/render"
	"github.com/andremillet/prescreveai/internal/shorthand"
)

const maxBodyBytes = 1 << 20

// PrescriptionHandler handles prescription endpoints
type PrescriptionHandler struct {
	renderer  render.Renderer
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *zap.Logger
	tracer    trace.Tracer
	clinic    string
	now       func() time.Time
}

// Option configures a PrescriptionHandler
type Option func(*PrescriptionHandler)

// WithClinic sets the clinic name printed in the document header.
func WithClinic(name string) Option {
	return func(h *PrescriptionHandler) { h.clinic = name }
}

// WithClock overrides the issue time source.
func WithClock(now func() time.Time) Option {
	return func(h *PrescriptionHandler) { h.now = now }
}

// NewPrescriptionHandler creates a new handler
func NewPrescriptionHandler(renderer render.Renderer, publisher events.Publisher, m *metrics.Metrics, logger *zap.Logger, opts ...Option) *PrescriptionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if m == nil {
		m = metrics.New(nil)
	}
	h := &PrescriptionHandler{
		renderer:  renderer,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		tracer:    otel.Tracer("prescription-handler"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the handler routes
func (h *PrescriptionHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Prescribe)
	r.Post("/parse", h.Parse)
	r.Post("/fhir", h.FHIR)
	return r
}

// PrescribeRequest is the request body for issuing a prescription document
type PrescribeRequest struct {
	MedicationString string                `json:"medication_string" example:"!MED DIPIRONA 500MG SE DOR; AMOXICILINA 500MG 8/8H"`
	EmitterData      *prescription.Emitter `json:"emitter_data"`
	Template         string                `json:"template,omitempty" example:"memed"`
	Patient          *prescription.Patient `json:"patient,omitempty"`
}

// PrescribeResponse carries the parsed records and the rendered document
type PrescribeResponse struct {
	Medications []shorthand.Record `json:"medicacoes"`
	DocumentID  string             `json:"document_id" example:"3f1c2a9e-6a55-4f0e-9a43-5d7b9b1f2c10"`
	Template    string             `json:"template" example:"memed"`
	PDFFilename string             `json:"pdf_filename" example:"prescricao_memed.pdf"`
	PDF         []byte             `json:"pdf" swaggertype:"string" format:"base64"`
}

// ParseRequest is the request body for parsing without rendering
type ParseRequest struct {
	MedicationString string `json:"medication_string" example:"!MED DIPIRONA 500MG SE DOR"`
}

// ParseResponse lists the parsed records in input order
type ParseResponse struct {
	Medications []shorthand.Record `json:"medicacoes"`
}

// FHIRRequest is the request body for the FHIR export
type FHIRRequest struct {
	MedicationString string                `json:"medication_string" example:"!MED DIPIRONA 500MG SE DOR"`
	EmitterData      *prescription.Emitter `json:"emitter_data,omitempty"`
	Patient          *prescription.Patient `json:"patient,omitempty"`
}

// ErrorResponse is returned with every 4xx and 5xx status
type ErrorResponse struct {
	Detail string `json:"detail" example:"Input must start with '!MED '"`
}

// Prescribe godoc
// @Summary Issue a prescription document
// @Description Parses a `!MED` line and renders it with the emitter data of this request. Responds with JSON (PDF base64 encoded) or, with `Accept: application/pdf`, the PDF itself.
// @Tags prescriptions
// @Accept json
// @Produce json,application/pdf
// @Param X-API-Key header string false "API key, when authentication is enabled"
// @Param payload body PrescribeRequest true "Shorthand line, emitter and layout"
// @Success 200 {object} PrescribeResponse
// @Failure 400 {object} ErrorResponse "parse error / unknown template / missing emitter_data"
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /prescribe [post]
// @Router /api/v1/prescriptions [post]
func (h *PrescriptionHandler) Prescribe(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "prescribe")
	defer span.End()

	var req PrescribeRequest
	if err := decode(w, r, &req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.EmitterData == nil {
		h.jsonError(w, "emitter_data is required", http.StatusBadRequest)
		return
	}
	if err := req.EmitterData.Validate(); err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	records, ok := h.parse(ctx, w, req.MedicationString)
	if !ok {
		return
	}

	tmpl, err := render.ParseTemplate(req.Template)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	doc := render.Document{
		Medications: records,
		Emitter:     *req.EmitterData,
		Patient:     req.Patient,
		Clinic:      h.clinic,
		IssuedAt:    h.now(),
	}

	_, renderSpan := h.tracer.Start(ctx, "render_document",
		trace.WithAttributes(
			attribute.String("template", string(tmpl)),
			attribute.Int("medications", len(records)),
		))
	start := time.Now()
	var buf bytes.Buffer
	err = h.renderer.Render(&buf, tmpl, doc)
	h.metrics.RenderDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		renderSpan.RecordError(err)
		renderSpan.End()
		h.logger.Error("render failed",
			zap.String("request_id", middleware.GetRequestID(ctx)),
			zap.String("template", string(tmpl)),
			zap.Error(err))
		h.jsonError(w, "failed to render document", http.StatusInternalServerError)
		return
	}
	renderSpan.End()

	documentID := uuid.New().String()
	span.SetAttributes(attribute.String("document_id", documentID))
	h.metrics.DocumentsRendered.WithLabelValues(string(tmpl)).Inc()

	h.publishIssued(ctx, documentID, tmpl, records, doc)

	h.logger.Info("prescription issued",
		zap.String("document_id", documentID),
		zap.String("request_id", middleware.GetRequestID(ctx)),
		zap.String("template", string(tmpl)),
		zap.Int("medications", len(records)),
	)

	filename := tmpl.Filename()
	w.Header().Set("X-Document-ID", documentID)
	if acceptsPDF(r) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
		return
	}

	h.writeJSON(w, http.StatusOK, PrescribeResponse{
		Medications: records,
		DocumentID:  documentID,
		Template:    string(tmpl),
		PDFFilename: filename,
		PDF:         buf.Bytes(),
	})
}

// Parse godoc
// @Summary Parse a shorthand line
// @Description Returns the structured records of a `!MED` line without rendering anything.
// @Tags prescriptions
// @Accept json
// @Produce json
// @Param X-API-Key header string false "API key, when authentication is enabled"
// @Param payload body ParseRequest true "Shorthand line"
// @Success 200 {object} ParseResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/prescriptions/parse [post]
func (h *PrescriptionHandler) Parse(w http.ResponseWriter, r *http.Request) {
	var req ParseRequest
	if err := decode(w, r, &req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	records, ok := h.parse(r.Context(), w, req.MedicationString)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, ParseResponse{Medications: records})
}

// FHIR godoc
// @Summary Export a shorthand line as FHIR R5
// @Description Returns a collection Bundle with one MedicationRequest per record, plus Practitioner and Patient when supplied.
// @Tags prescriptions
// @Accept json
// @Produce application/fhir+json
// @Param X-API-Key header string false "API key, when authentication is enabled"
// @Param payload body FHIRRequest true "Shorthand line and optional context"
// @Success 200 {object} r5.Bundle
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/prescriptions/fhir [post]
func (h *PrescriptionHandler) FHIR(w http.ResponseWriter, r *http.Request) {
	var req FHIRRequest
	if err := decode(w, r, &req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	records, ok := h.parse(r.Context(), w, req.MedicationString)
	if !ok {
		return
	}

	bundle := fhir.NewBundle(records, fhir.BundleOptions{
		Emitter:  req.EmitterData,
		Patient:  req.Patient,
		IssuedAt: h.now().UTC(),
	})
	w.Header().Set("Content-Type", "application/fhir+json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(bundle); err != nil {
		h.logger.Error("encode bundle failed", zap.Error(err))
	}
}

// parse runs the shorthand parser under a span and writes the 400
// response on failure.
func (h *PrescriptionHandler) parse(ctx context.Context, w http.ResponseWriter, input string) ([]shorthand.Record, bool) {
	_, span := h.tracer.Start(ctx, "parse_medications")
	defer span.End()

	records, err := shorthand.Parse(input)
	kind := shorthand.KindOf(err)
	h.metrics.ObserveParse(kind, len(records))
	span.SetAttributes(attribute.String("outcome", kind))

	if err != nil {
		h.logger.Info("parse rejected",
			zap.String("kind", kind),
			zap.String("request_id", middleware.GetRequestID(ctx)),
			zap.Error(err))
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	span.SetAttributes(attribute.Int("medications", len(records)))
	return records, true
}

func (h *PrescriptionHandler) publishIssued(ctx context.Context, documentID string, tmpl render.Template, records []shorthand.Record, doc render.Document) {
	event, err := prescription.NewIssuedEvent(&prescription.IssuedData{
		DocumentID:  documentID,
		Template:    string(tmpl),
		Medications: records,
		EmitterCRM:  doc.Emitter.CRM,
		IssuedAt:    doc.IssuedAt.UTC(),
	}, middleware.GetRequestID(ctx))
	if err != nil {
		h.logger.Error("build issued event failed", zap.Error(err))
		return
	}
	if err := h.publisher.Publish(ctx, event); err != nil && !errors.Is(err, events.ErrUnavailable) {
		h.logger.Warn("issued event not queued",
			zap.String("document_id", documentID),
			zap.Error(err))
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

func acceptsPDF(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err == nil && mt == "application/pdf" {
			return true
		}
	}
	return false
}

func (h *PrescriptionHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response failed", zap.Error(err))
	}
}

func (h *PrescriptionHandler) jsonError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, ErrorResponse{Detail: message})
}
