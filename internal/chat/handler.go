package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"lab-report-ai/internal/i18n"
	"lab-report-ai/internal/platform/apperr"
	"lab-report-ai/internal/platform/auth"
)

// Speaker synthesizes reply audio.
type Speaker interface {
	Synthesize(ctx context.Context, text string, lang i18n.Language) ([]byte, error)
}

const maxAudioSize = 10 << 20

type Handler struct {
	svc      *Service
	speaker  Speaker
	upgrader *websocket.Upgrader
	logger   zerolog.Logger
}

// NewHandler serves the chat API. origins limits which browser origins may
// open the event stream.
func NewHandler(svc *Service, speaker Speaker, origins []string, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, speaker: speaker, upgrader: newUpgrader(origins), logger: logger}
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/chat", func(r chi.Router) {
		r.Post("/sessions", h.CreateSession)
		r.Get("/appointments", h.ListAppointments)
		r.Post("/speech", h.Speech)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Post("/messages", h.SendMessage)
			r.Post("/voice", h.SendVoice)
			r.Put("/language", h.ChangeLanguage)
			r.Get("/flow", h.GetFlow)
			r.Post("/flow/select", h.SelectOption)
			r.Post("/flow/back", h.FlowBack)
			r.Get("/events", h.Events)
		})
	})
}

type languageRequest struct {
	Language string `json:"language"`
}

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req languageRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	lang := i18n.Default
	if req.Language != "" {
		l, err := i18n.Parse(req.Language)
		if err != nil {
			writeError(w, apperr.Validation(err.Error(), map[string]string{"language": req.Language}))
			return
		}
		lang = l
	}

	sess, err := h.svc.Start(r.Context(), auth.UserID(r.Context()), lang)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

type messageRequest struct {
	Text string `json:"text"`
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req messageRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	sess, err := h.svc.Submit(r.Context(), sess.ID, req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) SendVoice(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAudioSize)
	if err := r.ParseMultipartForm(maxAudioSize); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, apperr.TooLarge(maxAudioSize))
			return
		}
		writeError(w, apperr.BadRequest("expected multipart form with an 'audio' file"))
		return
	}
	file, _, err := r.FormFile("audio")
	if err != nil {
		writeError(w, apperr.BadRequest("missing 'audio' file"))
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		writeError(w, apperr.BadRequest("failed to read audio"))
		return
	}

	sess, err = h.svc.SubmitVoice(r.Context(), sess.ID, audio)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) ChangeLanguage(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req languageRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	lang, err := i18n.Parse(req.Language)
	if err != nil {
		writeError(w, apperr.Validation(err.Error(), map[string]string{"language": req.Language}))
		return
	}
	sess, err = h.svc.ChangeLanguage(r.Context(), sess.ID, lang)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) GetFlow(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	view, err := h.svc.Flow(r.Context(), sess.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type selectRequest struct {
	Value string `json:"value"`
}

func (h *Handler) SelectOption(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req selectRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	sess, err := h.svc.Select(r.Context(), sess.ID, req.Value)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) FlowBack(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	sess, err := h.svc.Back(r.Context(), sess.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	serveEvents(w, r, h.upgrader, h.svc.hub, sess.ID, h.logger)
}

func (h *Handler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Appointments(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type speechRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

func (h *Handler) Speech(w http.ResponseWriter, r *http.Request) {
	if h.speaker == nil {
		writeError(w, apperr.Unavailable("speech output is not configured"))
		return
	}
	var req speechRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Text == "" {
		writeError(w, apperr.Validation("text is required", nil))
		return
	}
	lang, err := i18n.Parse(req.Language)
	if err != nil {
		lang = i18n.Default
	}

	audio, err := h.speaker.Synthesize(r.Context(), req.Text, lang)
	if err != nil {
		h.logger.Warn().Err(err).Msg("speech synthesis failed")
		writeError(w, apperr.Unavailable("speech synthesis failed"))
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	w.Write(audio)
}

// session loads the path's session and hides other users' sessions.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperr.BadRequest("invalid session id"))
		return nil, false
	}
	sess, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	if sess.Owner != auth.UserID(r.Context()) {
		writeError(w, apperr.NotFound("session", id.String()))
		return nil, false
	}
	return sess, true
}

// --- Helpers ---

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return apperr.BadRequest("invalid request body")
	}
	return nil
}

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
