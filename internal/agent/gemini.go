package agent

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"lab-report-ai/internal/chat"
	"lab-report-ai/internal/health"
	"lab-report-ai/internal/platform/apperr"
	"lab-report-ai/internal/platform/metrics"
)

// ErrNoUsableReply is returned by Converse when every model failed.
var ErrNoUsableReply = errors.New("gemini: no model produced a reply")

const greeting = "Hi! I'm Lena, ready to help!"

const systemPrompt = `You are Lena, a warm, friendly, and highly knowledgeable personal health assistant for the "Health Hub Helper" app.

User's demo lab report:
- Hemoglobin: 11.8 g/dL (Low, normal 12.0-17.5)
- WBC: 7.2 x10^3/µL (Normal)
- Platelet Count: 250 x10^3/µL (Normal)
- Fasting Glucose: 95 mg/dL (Normal)
- Total Cholesterol: 215 mg/dL (High, normal <200)
- HDL: 55 mg/dL (Normal), LDL: 138 mg/dL (High)
- TSH: 2.8 mIU/L (Normal)
- Health Score: 82/100, Risk Level: Low

Your capabilities:
1. Answer health questions about lab reports
2. Help users book doctor appointments (use the booking UI)
3. Help users book lab tests like MRI, X-Ray, CT Scans, Ultrasound, Blood tests (use the lab booking UI)
4. Suggest nearby hospitals (use the hospital cards)

Guidelines:
- Your name is Lena. Always introduce yourself as Lena.
- Be warm, calm, and conversational.
- ALWAYS reply in the SAME LANGUAGE as the user's message. If they write in Hindi, reply in Hindi. If Telugu, reply in Telugu. If English, reply in English.
- Keep responses concise and friendly, with occasional emojis.
- When user asks to book appointment or see doctor, respond with: SHOW_BOOKING_CARD
- When user asks to book a lab test, MRI, X-Ray, CT scan, ultrasound, or blood test, respond with: SHOW_LAB_BOOKING_CARD
- When user asks for nearby hospitals or clinics, respond with: SHOW_HOSPITAL_CARD`

type GeminiConfig struct {
	APIKey       string
	BaseURL      string
	ChatModels   []string
	ExtractModel string
	Timeout      time.Duration
	RateLimit    float64
	Burst        int
}

// Gemini talks to the Generative Language REST API. It serves both the
// chat gateway and lab report extraction.
type Gemini struct {
	apiKey       string
	baseURL      string
	chatModels   []string
	extractModel string
	httpClient   *http.Client
	limiter      *rate.Limiter
	schema       *extractionSchema
	logger       zerolog.Logger
}

func NewGemini(cfg GeminiConfig, logger zerolog.Logger) *Gemini {
	if cfg.Timeout == 0 {
		cfg.Timeout = 12 * time.Second
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 2
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	return &Gemini{
		apiKey:       cfg.APIKey,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		chatModels:   cfg.ChatModels,
		extractModel: cfg.ExtractModel,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		limiter:      rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst),
		schema:       mustExtractionSchema(),
		logger:       logger.With().Str("component", "gemini").Logger(),
	}
}

type geminiRequest struct {
	Contents         []geminiContent  `json:"contents"`
	GenerationConfig *geminiGenConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *geminiBlob `json:"inline_data,omitempty"`
}

type geminiBlob struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiGenConfig struct {
	ResponseMimeType string `json:"response_mime_type,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// text returns the first part of the first candidate.
func (r *geminiResponse) text() string {
	if len(r.Candidates) == 0 || len(r.Candidates[0].Content.Parts) == 0 {
		return ""
	}
	return strings.TrimSpace(r.Candidates[0].Content.Parts[0].Text)
}

func userContent(text string) geminiContent {
	return geminiContent{Role: "user", Parts: []geminiPart{{Text: text}}}
}

// Converse sends the persona preamble, the dialogue history and the new user
// text, trying each configured model in order until one returns text.
func (g *Gemini) Converse(ctx context.Context, history []chat.Turn, userText string) (string, error) {
	contents := make([]geminiContent, 0, len(history)+3)
	contents = append(contents,
		userContent(systemPrompt),
		geminiContent{Role: "model", Parts: []geminiPart{{Text: greeting}}},
	)
	for _, t := range history {
		role := "user"
		if t.Role == chat.RoleModel {
			role = "model"
		}
		contents = append(contents, geminiContent{Role: role, Parts: []geminiPart{{Text: t.Text}}})
	}
	contents = append(contents, userContent(userText))
	req := geminiRequest{Contents: contents}

	for _, model := range g.chatModels {
		if err := g.limiter.Wait(ctx); err != nil {
			g.logger.Warn().Err(err).Msg("rate limiter gave up")
			break
		}
		start := time.Now()
		text, err := g.generate(ctx, model, req)
		if err == nil && text == "" {
			err = errors.New("empty reply")
		}
		if err != nil {
			metrics.RecordAIRequest("chat", model, "error", time.Since(start))
			g.logger.Warn().Err(err).Str("model", model).Msg("model failed, trying next")
			if ctx.Err() != nil {
				break
			}
			continue
		}
		metrics.RecordAIRequest("chat", model, "ok", time.Since(start))
		return text, nil
	}
	return "", ErrNoUsableReply
}

const extractionPrompt = `You are a medical lab report parser. Extract health metrics from the provided lab report PDF. Return ONLY a JSON object with these numeric fields (use null if not found):
- fastingGlucose (mg/dL)
- postMealGlucose (mg/dL)
- systolicBP (mmHg)
- diastolicBP (mmHg)
- totalCholesterol (mg/dL)
- hdl (mg/dL)
- ldl (mg/dL)
- heartRate (bpm)
- hemoglobin (g/dL)
- wbc (cells/µL)
- rbc (millions/µL)
- plateletCount (per µL)
- tsh (mIU/L)
Also include "isLabReport": false if the document is not a medical lab report.`

// ExtractMetrics asks the extraction model for the metric values found in a
// PDF. Non-numeric values are dropped.
func (g *Gemini) ExtractMetrics(ctx context.Context, pdf []byte, fileName string) (health.Metrics, error) {
	req := geminiRequest{
		Contents: []geminiContent{{
			Role: "user",
			Parts: []geminiPart{
				{Text: extractionPrompt},
				{Text: "Parse this lab report file: " + fileName},
				{InlineData: &geminiBlob{MimeType: "application/pdf", Data: base64.StdEncoding.EncodeToString(pdf)}},
			},
		}},
		GenerationConfig: &geminiGenConfig{ResponseMimeType: "application/json"},
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, apperr.ExtractionFailed(err)
	}
	start := time.Now()
	text, err := g.generate(ctx, g.extractModel, req)
	if err != nil {
		metrics.RecordAIRequest("extract", g.extractModel, "error", time.Since(start))
		return nil, apperr.ExtractionFailed(err)
	}
	metrics.RecordAIRequest("extract", g.extractModel, "ok", time.Since(start))

	raw := []byte(stripFences(text))
	if err := g.schema.validate(raw); err != nil {
		return nil, apperr.ExtractionFailed(err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, apperr.ExtractionFailed(fmt.Errorf("decode metrics: %w", err))
	}

	if isLab, ok := fields["isLabReport"].(bool); ok && !isLab {
		return nil, apperr.UnrecognizedDocument(fileName)
	}
	m := health.Metrics{}
	for _, key := range health.Keys {
		if v, ok := fields[key].(float64); ok {
			m[key] = v
		}
	}
	if len(m) == 0 {
		return nil, apperr.UnrecognizedDocument(fileName)
	}
	g.logger.Debug().Str("file", fileName).Int("metrics", len(m)).Msg("metrics extracted")
	return m, nil
}

// generate performs one generateContent call and returns the reply text.
func (g *Gemini) generate(ctx context.Context, model string, body geminiRequest) (string, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, model, g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer res.Body.Close()
	raw, _ := io.ReadAll(res.Body)

	if res.StatusCode == http.StatusTooManyRequests {
		return "", fmt.Errorf("%s: rate limited", model)
	}
	if res.StatusCode/100 != 2 {
		return "", fmt.Errorf("%s: status %d: %s", model, res.StatusCode, truncate(raw, 200))
	}

	var out geminiResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("%s: api error %d: %s", model, out.Error.Code, out.Error.Message)
	}
	return out.text(), nil
}

// stripFences removes a markdown code fence around a JSON reply.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
