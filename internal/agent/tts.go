package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"lab-report-ai/internal/i18n"
)

const (
	elevenLabsAPIURL  = "https://api.elevenlabs.io/v1/text-to-speech"
	defaultVoiceID    = "21m00Tcm4TlvDq8ikWAM"
	multilingualModel = "eleven_multilingual_v2"
)

// ElevenLabsClient reads chat replies aloud. One multilingual voice covers
// every supported language; the language code is passed as a hint.
type ElevenLabsClient struct {
	apiKey     string
	baseURL    string
	voiceID    string
	httpClient *http.Client
}

func NewElevenLabsClient(apiKey string) *ElevenLabsClient {
	return &ElevenLabsClient{
		apiKey:  apiKey,
		baseURL: elevenLabsAPIURL,
		voiceID: defaultVoiceID,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type ttsRequest struct {
	Text          string `json:"text"`
	ModelID       string `json:"model_id"`
	LanguageCode  string `json:"language_code,omitempty"`
	VoiceSettings struct {
		Stability       float64 `json:"stability"`
		SimilarityBoost float64 `json:"similarity_boost"`
	} `json:"voice_settings"`
}

// Synthesize returns MP3 audio for text.
func (c *ElevenLabsClient) Synthesize(ctx context.Context, text string, lang i18n.Language) ([]byte, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, c.voiceID)

	reqBody := ttsRequest{
		Text:         text,
		ModelID:      multilingualModel,
		LanguageCode: strings.SplitN(lang.SpeechCode(), "-", 2)[0],
	}
	reqBody.VoiceSettings.Stability = 0.5
	reqBody.VoiceSettings.SimilarityBoost = 0.75

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("TTS API error: %s - %s", resp.Status, string(body))
	}
	return io.ReadAll(resp.Body)
}
