package labreport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"lab-report-ai/internal/health"
	"lab-report-ai/internal/i18n"
	"lab-report-ai/internal/platform/apperr"
	"lab-report-ai/internal/platform/auth"
)

// Exporter renders a report as PDF and hands it to the clinic.
type Exporter interface {
	RenderPDF(r LabReport, lang i18n.Language) ([]byte, error)
	Share(ctx context.Context, id string, r LabReport, lang i18n.Language) error
}

type Handler struct {
	svc      *Service
	exporter Exporter
}

func NewHandler(svc *Service, exporter Exporter) *Handler {
	return &Handler{svc: svc, exporter: exporter}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Post("/analyze", h.Analyze)
		r.Post("/synthesize", h.Synthesize)
		r.Get("/demo", h.Demo)
		r.Get("/{id}", h.Get)
		r.Get("/{id}/pdf", h.PDF)
		r.Post("/{id}/share", h.Share)
	})
}

type reportResponse struct {
	ID     string    `json:"id"`
	Source Source    `json:"source"`
	Report LabReport `json:"report"`
}

func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	// multipart overhead on top of the file itself
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(MaxUploadSize + 1<<20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, apperr.TooLarge(MaxUploadSize))
			return
		}
		writeError(w, apperr.BadRequest("expected multipart form with a 'report' file"))
		return
	}

	file, header, err := r.FormFile("report")
	if err != nil {
		writeError(w, apperr.BadRequest("missing 'report' file"))
		return
	}
	defer file.Close()

	if header.Size > MaxUploadSize {
		writeError(w, apperr.TooLarge(MaxUploadSize))
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, MaxUploadSize+1))
	if err != nil {
		writeError(w, apperr.BadRequest("failed to read upload"))
		return
	}

	rec, err := h.svc.Analyze(r.Context(), auth.UserID(r.Context()), r.FormValue("patientName"), header.Filename, data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reportResponse{ID: rec.ID.String(), Source: rec.Source, Report: rec.Report})
}

type synthesizeRequest struct {
	PatientName string         `json:"patientName"`
	Metrics     health.Metrics `json:"metrics"`
}

func (h *Handler) Synthesize(w http.ResponseWriter, r *http.Request) {
	var req synthesizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, apperr.BadRequest("invalid request body"))
		return
	}

	rec, err := h.svc.FromMetrics(r.Context(), auth.UserID(r.Context()), req.PatientName, req.Metrics)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reportResponse{ID: rec.ID.String(), Source: rec.Source, Report: rec.Report})
}

func (h *Handler) Demo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Demo())
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, reportResponse{ID: rec.ID.String(), Source: rec.Source, Report: rec.Report})
}

func (h *Handler) PDF(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.load(w, r)
	if !ok {
		return
	}
	data, err := h.exporter.RenderPDF(rec.Report, language(r))
	if err != nil {
		writeError(w, apperr.Wrap(err, "failed to render PDF"))
		return
	}
	w.Header().Set("Content-Type", pdfContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="lab_report_%s.pdf"`, rec.ID))
	w.Write(data)
}

func (h *Handler) Share(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := h.exporter.Share(r.Context(), rec.ID.String(), rec.Report, language(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (*Record, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperr.BadRequest("invalid report id"))
		return nil, false
	}
	rec, err := h.svc.Get(r.Context(), auth.UserID(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return rec, true
}

func language(r *http.Request) i18n.Language {
	if l, err := i18n.Parse(r.URL.Query().Get("lang")); err == nil {
		return l
	}
	return i18n.Default
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	appErr := apperr.As(err)
	writeJSON(w, appErr.HTTPStatus, map[string]any{
		"error":   appErr.Message,
		"code":    appErr.Code,
		"details": appErr.Details,
	})
}
