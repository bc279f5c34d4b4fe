package transcribe

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"whisperkey/internal/domain"
)

// commandRunner executes the whisper.cpp binary. Tests swap it out.
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

type modelState int

const (
	modelUnloaded modelState = iota
	modelLoaded
	modelFailed
)

// LocalBackend transcribes audio with a whisper.cpp binary and a local
// ggml model. The model is checked lazily on first use; a failed check
// is sticky so repeated cycles do not retry a broken install.
type LocalBackend struct {
	model    string
	binary   string
	modelDir string
	run      commandRunner
	log      zerolog.Logger

	mu      sync.Mutex
	state   modelState
	loadErr error
}

// NewLocal constructs the local backend. The model size is validated
// here; the model file itself is only checked on first Transcribe.
func NewLocal(model string, log zerolog.Logger) (*LocalBackend, error) {
	if !domain.IsValidWhisperModel(model) {
		return nil, &domain.ConfigError{Reason: fmt.Sprintf("unknown whisper model %q", model)}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, &domain.ConfigError{Reason: "cannot resolve home directory: " + err.Error()}
	}
	return &LocalBackend{
		model:    model,
		binary:   "whisper-cli",
		modelDir: filepath.Join(home, ".whisperkey", "models"),
		run:      runCommand,
		log:      log.With().Str("component", "transcribe-local").Str("model", model).Logger(),
	}, nil
}

func (b *LocalBackend) modelPath() string {
	return filepath.Join(b.modelDir, fmt.Sprintf("ggml-%s.bin", b.model))
}

// ensureModel verifies the model file exists. The result is cached: a
// successful check never repeats, and a failure stays failed until a new
// backend instance is built.
func (b *LocalBackend) ensureModel() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case modelLoaded:
		return nil
	case modelFailed:
		return b.loadErr
	}

	path := b.modelPath()
	info, err := os.Stat(path)
	if err != nil {
		b.state = modelFailed
		b.loadErr = &domain.TranscriptionError{
			Backend: "local",
			Message: fmt.Sprintf("model file not found at %s", path),
			Err:     err,
		}
		return b.loadErr
	}
	if info.Size() == 0 {
		b.state = modelFailed
		b.loadErr = &domain.TranscriptionError{
			Backend: "local",
			Message: fmt.Sprintf("model file at %s is empty", path),
		}
		return b.loadErr
	}

	b.state = modelLoaded
	b.log.Info().Str("path", path).Msg("whisper model ready")
	return nil
}

// Transcribe runs whisper.cpp over the artifact and returns the text
// from the generated transcript file.
func (b *LocalBackend) Transcribe(ctx context.Context, artifactPath string, language string) (string, error) {
	if err := b.ensureModel(); err != nil {
		return "", err
	}

	outBase := strings.TrimSuffix(artifactPath, filepath.Ext(artifactPath))
	args := []string{
		"-m", b.modelPath(),
		"-f", artifactPath,
		"-otxt",
		"-of", outBase,
	}
	if language != "" {
		args = append(args, "-l", language)
	}

	start := time.Now()
	output, err := b.run(ctx, b.binary, args...)
	if err != nil {
		return "", &domain.TranscriptionError{
			Backend: "local",
			Message: fmt.Sprintf("%s failed: %s", b.binary, truncate(string(output), 200)),
			Err:     err,
		}
	}

	transcriptPath := outBase + ".txt"
	defer os.Remove(transcriptPath)

	text, err := os.ReadFile(transcriptPath)
	if err != nil {
		return "", &domain.TranscriptionError{Backend: "local", Message: "read transcript", Err: err}
	}

	b.log.Debug().Dur("elapsed", time.Since(start)).Msg("local transcription complete")
	return strings.TrimSpace(string(text)), nil
}
