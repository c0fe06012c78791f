package labreport

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"lab-report-ai/internal/health"
	"lab-report-ai/internal/i18n"
)

type fakeExporter struct {
	shared   []string
	lastLang i18n.Language
}

func (f *fakeExporter) RenderPDF(r LabReport, lang i18n.Language) ([]byte, error) {
	f.lastLang = lang
	return []byte("%PDF-fake " + r.PatientName), nil
}

func (f *fakeExporter) Share(ctx context.Context, id string, r LabReport, lang i18n.Language) error {
	f.shared = append(f.shared, id)
	return nil
}

func newTestRouter(ex Extractor) (http.Handler, *fakeExporter) {
	svc, _ := newTestService(ex)
	exp := &fakeExporter{}
	r := chi.NewRouter()
	NewHandler(svc, exp).RegisterRoutes(r)
	return r, exp
}

func multipartBody(t *testing.T, field, name string, data []byte, extra map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range extra {
		mw.WriteField(k, v)
	}
	fw, err := mw.CreateFormFile(field, name)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(data)
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestHandlerAnalyze(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		data     []byte
		status   int
		code     string
		extracts int
	}{
		{"pdf", "report", samplePDF, http.StatusCreated, "", 1},
		{"text file", "report", []byte("just some notes"), http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA", 0},
		{"wrong field", "file", samplePDF, http.StatusBadRequest, "BAD_REQUEST", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := &fakeExtractor{metrics: health.Metrics{health.Hemoglobin: 11.8}}
			router, _ := newTestRouter(ex)

			body, ct := multipartBody(t, tt.field, "labs.pdf", tt.data, map[string]string{"patientName": "Ravi"})
			req := httptest.NewRequest(http.MethodPost, "/reports/analyze", body)
			req.Header.Set("Content-Type", ct)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
			if ex.calls != tt.extracts {
				t.Errorf("extractor calls = %d, want %d", ex.calls, tt.extracts)
			}
			if tt.code != "" {
				var resp map[string]any
				json.NewDecoder(rec.Body).Decode(&resp)
				if resp["code"] != tt.code {
					t.Errorf("code = %v, want %s", resp["code"], tt.code)
				}
				return
			}
			var resp reportResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatal(err)
			}
			if resp.Report.PatientName != "Ravi" || len(resp.Report.Tests) != 1 || resp.ID == "" {
				t.Errorf("response = %+v", resp)
			}
		})
	}
}

func TestHandlerSynthesizeThenFetch(t *testing.T) {
	router, exp := newTestRouter(&fakeExtractor{})

	req := httptest.NewRequest(http.MethodPost, "/reports/synthesize",
		strings.NewReader(`{"patientName":"Meera","metrics":{"ldl":150,"hdl":35}}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("synthesize status = %d: %s", rec.Code, rec.Body.String())
	}
	var created reportResponse
	json.NewDecoder(rec.Body).Decode(&created)
	if created.Source != SourceMetrics || len(created.Report.Tests) != 2 {
		t.Fatalf("created = %+v", created)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/"+created.ID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/"+created.ID+"/pdf?lang=te", nil))
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("pdf status = %d, type %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	if exp.lastLang != i18n.Telugu {
		t.Errorf("pdf language = %s, want te", exp.lastLang)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/reports/"+created.ID+"/share", nil))
	if rec.Code != http.StatusAccepted || len(exp.shared) != 1 || exp.shared[0] != created.ID {
		t.Errorf("share status = %d, shared = %v", rec.Code, exp.shared)
	}
}

func TestHandlerLookupErrors(t *testing.T) {
	router, _ := newTestRouter(&fakeExtractor{})
	tests := []struct {
		path   string
		status int
	}{
		{"/reports/not-a-uuid", http.StatusBadRequest},
		{"/reports/7d3e7c9a-4a51-4f8e-9d42-0c1f2a3b4c5d", http.StatusNotFound},
		{"/reports/7d3e7c9a-4a51-4f8e-9d42-0c1f2a3b4c5d/pdf", http.StatusNotFound},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if rec.Code != tt.status {
			t.Errorf("%s: status = %d, want %d", tt.path, rec.Code, tt.status)
		}
	}
}

func TestHandlerDemo(t *testing.T) {
	router, _ := newTestRouter(&fakeExtractor{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/demo", nil))

	var r LabReport
	if err := json.NewDecoder(rec.Body).Decode(&r); err != nil {
		t.Fatal(err)
	}
	if r.HealthScore != 82 || len(r.Patterns) != 3 {
		t.Errorf("demo = %+v", r)
	}
}
