package transcribe

import (
	"fmt"

	"github.com/rs/zerolog"

	"whisperkey/internal/domain"
	"whisperkey/internal/ports"
)

// New builds the transcription backend selected by the settings. Every
// construction is independent: a backend swap builds the replacement
// first and keeps the old one if construction fails.
func New(settings domain.Settings, log zerolog.Logger) (ports.TranscriptionBackend, error) {
	switch settings.WhisperMode {
	case domain.WhisperModeOpenAI:
		return NewOpenAI(settings.OpenAIAPIKey, log)
	case domain.WhisperModeLocal:
		return NewLocal(settings.WhisperModel, log)
	default:
		return nil, &domain.ConfigError{Reason: fmt.Sprintf("unknown whisper mode %q", settings.WhisperMode)}
	}
}
