package agent

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"lab-report-ai/internal/chat"
	"lab-report-ai/internal/health"
	"lab-report-ai/internal/i18n"
	"lab-report-ai/internal/platform/apperr"
)

// fakeAPI answers generateContent calls per model name.
type fakeAPI struct {
	mu       sync.Mutex
	calls    []string
	requests []geminiRequest
	reply    map[string]func(w http.ResponseWriter)
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	model := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/models/"), ":generateContent")
	var req geminiRequest
	json.NewDecoder(r.Body).Decode(&req)

	f.mu.Lock()
	f.calls = append(f.calls, model)
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if r.URL.Query().Get("key") != "test-key" {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	h, ok := f.reply[model]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	h(w)
}

func textReply(text string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{"role": "model", "parts": []any{map[string]any{"text": text}}},
			}},
		})
	}
}

func status(code int) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) { w.WriteHeader(code) }
}

func newTestGemini(t *testing.T, api *fakeAPI, models ...string) *Gemini {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return NewGemini(GeminiConfig{
		APIKey:       "test-key",
		BaseURL:      srv.URL + "/",
		ChatModels:   models,
		ExtractModel: "extract",
		Timeout:      2 * time.Second,
		RateLimit:    100,
		Burst:        10,
	}, zerolog.Nop())
}

func TestConverseFallsThroughModels(t *testing.T) {
	api := &fakeAPI{reply: map[string]func(http.ResponseWriter){
		"first":  status(http.StatusTooManyRequests),
		"second": textReply("  "),
		"third":  textReply("Namaste! SHOW_HOSPITAL_CARD"),
		"fourth": textReply("unreachable"),
	}}
	g := newTestGemini(t, api, "first", "second", "third", "fourth")

	history := []chat.Turn{
		{Role: chat.RoleUser, Text: "hi"},
		{Role: chat.RoleModel, Text: "Hello, I'm Lena"},
	}
	got, err := g.Converse(context.Background(), history, "[Language: hi] अस्पताल")
	if err != nil {
		t.Fatal(err)
	}
	if got != "Namaste! SHOW_HOSPITAL_CARD" {
		t.Errorf("reply = %q", got)
	}
	if strings.Join(api.calls, ",") != "first,second,third" {
		t.Errorf("calls = %v", api.calls)
	}

	contents := api.requests[2].Contents
	if len(contents) != 5 {
		t.Fatalf("contents = %d", len(contents))
	}
	if !strings.HasPrefix(contents[0].Parts[0].Text, "You are Lena") || contents[0].Role != "user" {
		t.Errorf("preamble = %+v", contents[0])
	}
	if contents[1].Role != "model" || contents[1].Parts[0].Text != greeting {
		t.Errorf("greeting = %+v", contents[1])
	}
	if contents[3].Role != "model" || contents[4].Parts[0].Text != "[Language: hi] अस्पताल" {
		t.Errorf("history/user turns = %+v", contents[3:])
	}
}

func TestConverseAllModelsFail(t *testing.T) {
	api := &fakeAPI{reply: map[string]func(http.ResponseWriter){
		"a": status(http.StatusInternalServerError),
		"b": func(w http.ResponseWriter) {
			io.WriteString(w, `{"error":{"code":400,"message":"bad key"}}`)
		},
	}}
	g := newTestGemini(t, api, "a", "b")

	_, err := g.Converse(context.Background(), nil, "hello")
	if !errors.Is(err, ErrNoUsableReply) {
		t.Fatalf("err = %v", err)
	}
	if len(api.calls) != 2 {
		t.Errorf("calls = %v", api.calls)
	}
}

func TestConverseStopsWhenContextEnds(t *testing.T) {
	api := &fakeAPI{reply: map[string]func(http.ResponseWriter){
		"slow": func(w http.ResponseWriter) {
			time.Sleep(200 * time.Millisecond)
			textReply("late")(w)
		},
		"next": textReply("never"),
	}}
	g := newTestGemini(t, api, "slow", "next")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := g.Converse(ctx, nil, "hi"); !errors.Is(err, ErrNoUsableReply) {
		t.Fatalf("err = %v", err)
	}
	api.mu.Lock()
	defer api.mu.Unlock()
	for _, c := range api.calls {
		if c == "next" {
			t.Error("tried another model after the deadline")
		}
	}
}

func TestExtractMetrics(t *testing.T) {
	tests := []struct {
		name  string
		reply func(http.ResponseWriter)
		want  health.Metrics
		code  string
	}{
		{
			name:  "numbers kept, nulls and strings dropped",
			reply: textReply(`{"hemoglobin": 13.5, "ldl": null, "hdl": "55", "tsh": 2.1, "unknownThing": 4}`),
			want:  health.Metrics{health.Hemoglobin: 13.5, health.TSH: 2.1},
		},
		{
			name:  "fenced reply",
			reply: textReply("```json\n{\"fastingGlucose\": 92}\n```"),
			want:  health.Metrics{health.FastingGlucose: 92},
		},
		{
			name:  "not a lab report",
			reply: textReply(`{"isLabReport": false, "heartRate": 70}`),
			code:  "UNRECOGNIZED_DOCUMENT",
		},
		{
			name:  "nothing found",
			reply: textReply(`{"hemoglobin": null}`),
			code:  "UNRECOGNIZED_DOCUMENT",
		},
		{
			name:  "wrong shape",
			reply: textReply(`{"hemoglobin": {"value": 13}}`),
			code:  "EXTRACTION_FAILED",
		},
		{
			name:  "not json",
			reply: textReply(`I could not read that file`),
			code:  "EXTRACTION_FAILED",
		},
		{
			name:  "upstream error",
			reply: status(http.StatusBadGateway),
			code:  "EXTRACTION_FAILED",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{reply: map[string]func(http.ResponseWriter){"extract": tt.reply}}
			g := newTestGemini(t, api)

			got, err := g.ExtractMetrics(context.Background(), []byte("%PDF-1.4 body"), "cbc.pdf")
			if tt.code != "" {
				if err == nil || apperr.As(err).Code != tt.code {
					t.Fatalf("err = %v, want %s", err, tt.code)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("metrics = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("%s = %v, want %v", k, got[k], v)
				}
			}
		})
	}
}

func TestExtractMetricsRequestShape(t *testing.T) {
	api := &fakeAPI{reply: map[string]func(http.ResponseWriter){"extract": textReply(`{"rbc": 4.8}`)}}
	g := newTestGemini(t, api)

	if _, err := g.ExtractMetrics(context.Background(), []byte("%PDF"), "report.pdf"); err != nil {
		t.Fatal(err)
	}
	req := api.requests[0]
	if req.GenerationConfig == nil || req.GenerationConfig.ResponseMimeType != "application/json" {
		t.Errorf("generation config = %+v", req.GenerationConfig)
	}
	parts := req.Contents[0].Parts
	if len(parts) != 3 {
		t.Fatalf("parts = %d", len(parts))
	}
	if !strings.Contains(parts[0].Text, "tsh (mIU/L)") || parts[1].Text != "Parse this lab report file: report.pdf" {
		t.Errorf("prompt parts = %q / %q", parts[0].Text, parts[1].Text)
	}
	if parts[2].InlineData == nil || parts[2].InlineData.MimeType != "application/pdf" || parts[2].InlineData.Data != "JVBERg==" {
		t.Errorf("inline data = %+v", parts[2].InlineData)
	}
}

func TestWhisperTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		audio, _ := io.ReadAll(f)
		json.NewEncoder(w).Encode(sttResponse{Text: " book a doctor (" + string(audio) + ") ", Language: r.FormValue("language")})
	}))
	defer srv.Close()

	got, err := NewWhisperClient(srv.URL).Transcribe(context.Background(), []byte("pcm"), i18n.Telugu)
	if err != nil {
		t.Fatal(err)
	}
	if got != "book a doctor (pcm)" {
		t.Errorf("text = %q", got)
	}

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status(http.StatusInternalServerError)(w)
	}))
	defer failing.Close()
	if _, err := NewWhisperClient(failing.URL).Transcribe(context.Background(), []byte("pcm"), i18n.English); err == nil {
		t.Error("expected error on 500")
	}
}

func TestElevenLabsSynthesize(t *testing.T) {
	var got ttsRequest
	var path, key string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path, key = r.URL.Path, r.Header.Get("xi-api-key")
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte("ID3mp3"))
	}))
	defer srv.Close()

	c := NewElevenLabsClient("eleven-key")
	c.baseURL = srv.URL
	audio, err := c.Synthesize(context.Background(), "నమస్తే", i18n.Telugu)
	if err != nil {
		t.Fatal(err)
	}
	if string(audio) != "ID3mp3" || path != "/"+defaultVoiceID || key != "eleven-key" {
		t.Errorf("audio %q path %q key %q", audio, path, key)
	}
	if got.LanguageCode != "te" || got.ModelID != multilingualModel || got.VoiceSettings.Stability != 0.5 {
		t.Errorf("request = %+v", got)
	}
}
