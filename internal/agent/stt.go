package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"lab-report-ai/internal/i18n"
)

// WhisperClient posts recorded audio to the local speech-to-text service.
type WhisperClient struct {
	url        string
	httpClient *http.Client
}

func NewWhisperClient(url string) *WhisperClient {
	return &WhisperClient{
		url: url,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type sttResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// Transcribe sends the audio with the session language as a hint and
// returns the recognized text.
func (c *WhisperClient) Transcribe(ctx context.Context, audio []byte, lang i18n.Language) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "audio.webm")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(audio); err != nil {
		return "", err
	}
	if err := writer.WriteField("language", string(lang)); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("STT API error: %s - %s", resp.Status, string(respBody))
	}

	var result sttResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return strings.TrimSpace(result.Text), nil
}
