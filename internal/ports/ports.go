package ports

import (
	"context"

	"whisperkey/internal/domain"
)

// KeyEventKind distinguishes press and release events.
type KeyEventKind int

const (
	KeyPress KeyEventKind = iota
	KeyRelease
)

// KeyEvent is one normalized global keyboard event. Token is a canonical
// key name: letters and digits lowercased, modifiers collapsed to one of
// ctrl/alt/shift/cmd regardless of left/right variant.
type KeyEvent struct {
	Token string
	Kind  KeyEventKind
}

// KeySubscription is one active key-event listener registration.
type KeySubscription interface {
	Close() error
}

// KeyEventSource delivers global keyboard events. Handlers must not
// block; the source fans events out off the OS hook thread. Multiple
// independent subscribers are supported so a settings-time chord
// recorder can layer on the same source as the hotkey engine.
type KeyEventSource interface {
	Subscribe(handler func(KeyEvent)) (KeySubscription, error)
}

// Recorder captures microphone audio and persists it on stop.
type Recorder interface {
	// Start opens the input stream. Starting while already recording is
	// a logged no-op.
	Start() error
	// Stop halts the stream and writes the buffered audio to a fresh
	// temporary WAV artifact. It returns an empty path (not an error)
	// when nothing was recorded. The caller owns artifact deletion.
	Stop() (artifactPath string, err error)
	// SetDevice selects the input device for the next Start. Nil means
	// the system default.
	SetDevice(device *int)
}

// DeviceLister enumerates audio input devices for the settings dialog.
type DeviceLister interface {
	InputDevices() ([]domain.InputDevice, error)
	DefaultInputDevice() (int, error)
}

// TranscriptionBackend converts an audio artifact plus a language hint
// into text. Implementations fail with domain.TranscriptionError and
// never retry.
type TranscriptionBackend interface {
	Transcribe(ctx context.Context, artifactPath string, language string) (string, error)
}

// TextInjector types text into the focused window as synthetic
// keystrokes. Per-character failures are logged and typing continues.
type TextInjector interface {
	TypeText(text string) error
	TypeFast(text string) error
}

// Clipboard reads and writes the system clipboard.
type Clipboard interface {
	SetText(ctx context.Context, text string) error
	Text(ctx context.Context) (string, error)
}

// StatusDisplay is the overlay/tray surface. All calls are asynchronous,
// non-blocking, and safe from any goroutine.
type StatusDisplay interface {
	ShowRecording()
	ShowProcessing()
	ShowCopied()
	ShowError(message string)
	Hide()
}

// SettingsStore persists application settings.
type SettingsStore interface {
	Load() (domain.Settings, error)
	Save(domain.Settings) error
}

// RulesEngine applies deterministic substitutions to a transcription
// before it is typed or copied.
type RulesEngine interface {
	Apply(text string) (string, error)
}
