package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/gen2brain/beeep"
	"github.com/rs/zerolog"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"whisperkey/internal/bootstrap"
	"whisperkey/internal/config"
	"whisperkey/internal/domain"
	"whisperkey/internal/hotkey"
	"whisperkey/internal/inject"
	"whisperkey/internal/usecase"
)

const (
	eventStatus = "whisperkey:status"
	eventError  = "whisperkey:error"
	eventChord  = "whisperkey:chord"
)

// App is the Wails application root. It implements ports.StatusDisplay
// by pushing overlay events to the frontend.
type App struct {
	opts config.Options
	log  zerolog.Logger

	mu         sync.Mutex
	ctx        context.Context
	services   bootstrap.Services
	controller *usecase.Controller
	capture    *hotkey.Capture
	bootErr    error
}

func NewApp(opts config.Options, log zerolog.Logger) *App {
	return &App{opts: opts, log: log.With().Str("component", "app").Logger()}
}

func (a *App) startup(ctx context.Context) {
	a.mu.Lock()
	a.ctx = ctx
	a.mu.Unlock()

	injector, err := inject.NewTyper(a.log)
	if err != nil {
		a.failStartup(err)
		return
	}

	services, err := bootstrap.Build(a.opts, a, inject.NewSystemClipboard(), injector, a.log)
	if err != nil {
		a.failStartup(err)
		return
	}

	a.mu.Lock()
	a.services = services
	a.controller = services.Controller
	a.mu.Unlock()

	if err := services.Engine.Start(); err != nil {
		// The app stays usable for configuration even when the global
		// hook cannot be installed.
		a.log.Error().Err(err).Msg("hotkey listener failed to start")
		a.emitError(domain.ErrorCodeStartup, "Global hotkeys unavailable: "+err.Error())
	}

	if !services.SettingsComplete {
		a.emitError(domain.ErrorCodeConfig, "Choose hotkeys and a transcription backend to start dictating")
	}
}

func (a *App) shutdown(_ context.Context) {
	a.mu.Lock()
	services := a.services
	capture := a.capture
	a.mu.Unlock()

	if capture != nil {
		capture.Stop()
	}
	if services.Engine != nil {
		services.Engine.Stop()
	}
}

func (a *App) failStartup(err error) {
	a.mu.Lock()
	a.bootErr = err
	a.mu.Unlock()

	a.log.Error().Err(err).Msg("startup failed")
	a.emitError(domain.ErrorCodeStartup, err.Error())
}

// GetSettings returns the persisted settings for the settings dialog.
func (a *App) GetSettings() (domain.Settings, error) {
	if err := a.requireReady(); err != nil {
		return domain.Settings{}, err
	}
	return a.services.Store.Load()
}

// SaveSettings validates, activates, and persists new settings. The
// hotkey engine picks up the new chords immediately.
func (a *App) SaveSettings(settings domain.Settings) (domain.Settings, error) {
	if err := a.requireReady(); err != nil {
		return domain.Settings{}, err
	}

	settings = settings.Normalized()
	if err := a.controller.ApplySettings(settings); err != nil {
		a.emitError(domain.ErrorCodeConfig, err.Error())
		return domain.Settings{}, err
	}
	if err := a.services.Store.Save(settings); err != nil {
		a.emitError(domain.ErrorCodeConfig, err.Error())
		return domain.Settings{}, err
	}

	engine := a.services.Engine
	engine.Register("record", settings.HotkeyRecord, a.controller.OnRecordHotkey)
	engine.Register("copy", settings.HotkeyCopy, a.controller.OnCopyHotkey)
	return settings, nil
}

// ListInputDevices enumerates selectable audio inputs.
func (a *App) ListInputDevices() ([]domain.InputDevice, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	devices, err := a.services.Devices.InputDevices()
	if err != nil {
		a.emitError(domain.ErrorCodeDevice, "Could not list audio inputs")
		return nil, err
	}
	return devices, nil
}

// GetStatus returns the current cycle status.
func (a *App) GetStatus() domain.Status {
	a.mu.Lock()
	controller, bootErr := a.controller, a.bootErr
	a.mu.Unlock()

	if controller == nil {
		status := domain.Status{State: domain.CycleStateIdle}
		if bootErr != nil {
			status.Message = bootErr.Error()
		}
		return status
	}
	return controller.Status()
}

// GetLastTranscription returns the text the copy hotkey would place on
// the clipboard.
func (a *App) GetLastTranscription() string {
	a.mu.Lock()
	controller := a.controller
	a.mu.Unlock()
	if controller == nil {
		return ""
	}
	return controller.LastTranscription()
}

// CopyLastTranscription mirrors the copy hotkey for the UI button.
func (a *App) CopyLastTranscription() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	a.controller.OnCopyHotkey()
	return nil
}

// StartHotkeyCapture records the next chord the user presses and pushes
// it to the frontend tagged with target ("record" or "copy"). Chord
// matching is suspended for the duration so the captured chord cannot
// trigger a dictation cycle.
func (a *App) StartHotkeyCapture(target string) error {
	if err := a.requireReady(); err != nil {
		return err
	}

	a.mu.Lock()
	if a.capture != nil {
		a.capture.Stop()
	}
	engine := a.services.Engine
	engine.Disable()

	capture := hotkey.NewCapture(a.services.KeySource, a.log, func(chord string) {
		engine.Enable()
		a.mu.Lock()
		a.capture = nil
		ctx := a.ctx
		a.mu.Unlock()
		if ctx != nil {
			runtime.EventsEmit(ctx, eventChord, map[string]string{"target": target, "chord": chord})
		}
	})
	a.capture = capture
	a.mu.Unlock()

	if err := capture.Start(); err != nil {
		engine.Enable()
		a.mu.Lock()
		a.capture = nil
		a.mu.Unlock()
		return err
	}
	return nil
}

// CancelHotkeyCapture aborts an in-progress chord capture.
func (a *App) CancelHotkeyCapture() {
	a.mu.Lock()
	capture := a.capture
	a.capture = nil
	engine := a.services.Engine
	a.mu.Unlock()

	if capture != nil {
		capture.Stop()
	}
	if engine != nil {
		engine.Enable()
	}
}

func (a *App) requireReady() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.controller == nil {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

// ShowRecording implements ports.StatusDisplay.
func (a *App) ShowRecording() { a.emitStatus(domain.StatusRecording, "Recording...") }

// ShowProcessing implements ports.StatusDisplay.
func (a *App) ShowProcessing() { a.emitStatus(domain.StatusProcessing, "Transcribing...") }

// ShowCopied implements ports.StatusDisplay.
func (a *App) ShowCopied() { a.emitStatus(domain.StatusCopied, "Copied to clipboard") }

// ShowError implements ports.StatusDisplay.
func (a *App) ShowError(message string) {
	a.emitStatus(domain.StatusError, message)
}

// Hide implements ports.StatusDisplay.
func (a *App) Hide() { a.emitStatus(domain.StatusHidden, "") }

func (a *App) emitStatus(kind domain.StatusKind, message string) {
	a.mu.Lock()
	ctx := a.ctx
	a.mu.Unlock()

	if ctx == nil {
		if kind == domain.StatusError {
			_ = beeep.Alert("WhisperKey", message, "")
		}
		return
	}
	runtime.EventsEmit(ctx, eventStatus, map[string]string{
		"kind":    string(kind),
		"message": message,
	})
}

func (a *App) emitError(code domain.ErrorCode, message string) {
	a.mu.Lock()
	ctx := a.ctx
	a.mu.Unlock()

	if ctx == nil {
		_ = beeep.Alert("WhisperKey", message, "")
		return
	}
	runtime.EventsEmit(ctx, eventError, map[string]string{
		"code":    string(code),
		"message": message,
	})
}
