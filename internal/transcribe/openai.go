package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"whisperkey/internal/domain"
)

const (
	openaiEndpoint = "https://api.openai.com/v1/audio/transcriptions"
	openaiModel    = "whisper-1"
)

// OpenAIBackend transcribes audio through the OpenAI Whisper API. Each
// call is a single request; failures surface immediately without retry.
type OpenAIBackend struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewOpenAI constructs the cloud backend. An empty API key fails fast
// before any network activity.
func NewOpenAI(apiKey string, log zerolog.Logger) (*OpenAIBackend, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, &domain.ConfigError{Missing: []string{"openai_api_key"}}
	}
	return &OpenAIBackend{
		apiKey:     apiKey,
		endpoint:   openaiEndpoint,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		log:        log.With().Str("component", "transcribe-openai").Logger(),
	}, nil
}

// Transcribe uploads the artifact and returns the transcript text.
func (b *OpenAIBackend) Transcribe(ctx context.Context, artifactPath string, language string) (string, error) {
	file, err := os.Open(artifactPath)
	if err != nil {
		return "", &domain.TranscriptionError{Backend: "openai", Message: "cannot open artifact", Err: err}
	}
	defer file.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filepath.Base(artifactPath))
	if err != nil {
		return "", &domain.TranscriptionError{Backend: "openai", Message: "build upload", Err: err}
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", &domain.TranscriptionError{Backend: "openai", Message: "build upload", Err: err}
	}
	_ = writer.WriteField("model", openaiModel)
	if language != "" {
		_ = writer.WriteField("language", language)
	}
	if err := writer.Close(); err != nil {
		return "", &domain.TranscriptionError{Backend: "openai", Message: "build upload", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, body)
	if err != nil {
		return "", &domain.TranscriptionError{Backend: "openai", Message: "build request", Err: err}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+b.apiKey)

	start := time.Now()
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", &domain.TranscriptionError{Backend: "openai", Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &domain.TranscriptionError{Backend: "openai", Message: "read response", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &domain.TranscriptionError{
			Backend: "openai",
			Message: fmt.Sprintf("API error %d: %s", resp.StatusCode, truncate(string(respBody), 200)),
		}
	}

	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", &domain.TranscriptionError{Backend: "openai", Message: "decode response", Err: err}
	}

	b.log.Debug().Dur("elapsed", time.Since(start)).Msg("transcription request complete")
	return strings.TrimSpace(parsed.Text), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
