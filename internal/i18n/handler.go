package i18n

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type languageInfo struct {
	Code       Language `json:"code"`
	Name       string   `json:"name"`
	SpeechCode string   `json:"speechCode"`
}

// RegisterRoutes serves the language list and the resolved string tables.
func RegisterRoutes(r chi.Router) {
	r.Get("/i18n", func(w http.ResponseWriter, r *http.Request) {
		out := make([]languageInfo, 0, len(languages))
		for _, l := range Languages() {
			out = append(out, languageInfo{Code: l, Name: l.Name(), SpeechCode: l.SpeechCode()})
		}
		writeJSON(w, http.StatusOK, out)
	})
	r.Get("/i18n/{lang}", func(w http.ResponseWriter, r *http.Request) {
		lang, err := Parse(chi.URLParam(r, "lang"))
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error(), "code": "NOT_FOUND"})
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=3600")
		writeJSON(w, http.StatusOK, Table(lang))
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
