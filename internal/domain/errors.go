package domain

import (
	"fmt"
	"strings"
)

// DeviceError reports that the audio input device could not be used.
type DeviceError struct {
	Op  string
	Err error
}

func (e *DeviceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("audio device: %s failed", e.Op)
	}
	return fmt.Sprintf("audio device: %s failed: %v", e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }

// TranscriptionError wraps backend construction, model load, and
// network/API failures. Single attempt, never retried by the core.
type TranscriptionError struct {
	Backend string
	Message string
	Err     error
}

func (e *TranscriptionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s transcription: %s", e.Backend, e.Message)
	}
	return fmt.Sprintf("%s transcription: %s: %v", e.Backend, e.Message, e.Err)
}

func (e *TranscriptionError) Unwrap() error { return e.Err }

// ConfigError reports invalid or incomplete configuration, either at
// startup or during a backend mode switch.
type ConfigError struct {
	Missing []string
	Reason  string
}

func (e *ConfigError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("config: missing required fields: %s", strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("config: %s", e.Reason)
}

// InjectionError reports a typing or clipboard failure. Per-character
// injection failures are non-fatal and typing continues.
type InjectionError struct {
	Char rune
	Err  error
}

func (e *InjectionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("inject: cannot type %q", e.Char)
	}
	return fmt.Sprintf("inject: typing %q failed: %v", e.Char, e.Err)
}

func (e *InjectionError) Unwrap() error { return e.Err }
