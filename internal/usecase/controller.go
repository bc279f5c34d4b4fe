package usecase

import (
	"context"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"whisperkey/internal/domain"
	"whisperkey/internal/ports"
)

// BackendFactory builds a transcription backend for the given settings.
// ApplySettings constructs the replacement before touching the active
// one, so a failed build leaves the old backend in place.
type BackendFactory func(domain.Settings, zerolog.Logger) (ports.TranscriptionBackend, error)

// RulesFactory builds a rules engine from a rules file path.
type RulesFactory func(string, zerolog.Logger) (ports.RulesEngine, error)

// Controller drives the dictation cycle: the record hotkey toggles
// capture, stopped captures are transcribed off the hotkey goroutine,
// and the result is typed into the focused window. While a transcription
// is in flight the record hotkey is ignored, not queued.
type Controller struct {
	recorder       ports.Recorder
	display        ports.StatusDisplay
	clipboard      ports.Clipboard
	deliverer      *deliverer
	backendFactory BackendFactory
	rulesFactory   RulesFactory
	log            zerolog.Logger

	mu                sync.Mutex
	state             domain.CycleState
	lastTranscription string

	backendMu sync.RWMutex
	backend   ports.TranscriptionBackend
	language  string
}

func NewController(
	recorder ports.Recorder,
	backend ports.TranscriptionBackend,
	rules ports.RulesEngine,
	injector ports.TextInjector,
	clipboard ports.Clipboard,
	display ports.StatusDisplay,
	settings domain.Settings,
	backendFactory BackendFactory,
	rulesFactory RulesFactory,
	log zerolog.Logger,
) *Controller {
	return &Controller{
		recorder:       recorder,
		display:        display,
		clipboard:      clipboard,
		deliverer:      newDeliverer(rules, injector, display, log),
		backendFactory: backendFactory,
		rulesFactory:   rulesFactory,
		log:            log.With().Str("component", "controller").Logger(),
		state:          domain.CycleStateIdle,
		backend:        backend,
		language:       settings.Language,
	}
}

// OnRecordHotkey toggles between recording and idle. Presses during
// processing are dropped so a slow transcription cannot queue cycles.
func (c *Controller) OnRecordHotkey() {
	c.mu.Lock()
	state := c.state
	c.mu.Unlock()

	switch state {
	case domain.CycleStateProcessing:
		c.log.Debug().Msg("record hotkey ignored while processing")
	case domain.CycleStateRecording:
		c.stopRecording()
	default:
		c.startRecording()
	}
}

// OnCopyHotkey copies the last transcription to the clipboard. With no
// transcription yet it does nothing.
func (c *Controller) OnCopyHotkey() {
	c.mu.Lock()
	text := c.lastTranscription
	c.mu.Unlock()

	if text == "" {
		c.log.Debug().Msg("copy hotkey ignored, nothing transcribed yet")
		return
	}

	if err := c.clipboard.SetText(context.Background(), text); err != nil {
		c.log.Error().Err(err).Msg("clipboard write failed")
		c.display.ShowError("Clipboard write failed")
		return
	}
	c.display.ShowCopied()
}

func (c *Controller) startRecording() {
	c.backendMu.RLock()
	backend := c.backend
	c.backendMu.RUnlock()
	if backend == nil {
		c.log.Warn().Msg("no transcription backend configured")
		c.display.ShowError("Configure a transcription backend first")
		return
	}

	if err := c.recorder.Start(); err != nil {
		c.log.Error().Err(err).Msg("recording start failed")
		c.display.ShowError("Could not start recording")
		return
	}

	c.mu.Lock()
	c.state = domain.CycleStateRecording
	c.mu.Unlock()

	c.display.ShowRecording()
}

func (c *Controller) stopRecording() {
	c.mu.Lock()
	c.state = domain.CycleStateProcessing
	c.mu.Unlock()

	c.display.ShowProcessing()

	artifactPath, err := c.recorder.Stop()
	if err != nil {
		c.log.Error().Err(err).Msg("recording stop failed")
		c.finishCycle(func() { c.display.ShowError("Recording failed") })
		return
	}
	if artifactPath == "" {
		c.log.Debug().Msg("no audio captured")
		c.finishCycle(func() { c.display.Hide() })
		return
	}

	go c.process(artifactPath)
}

// process transcribes one artifact. The artifact is deleted exactly
// once per cycle, success or failure, before the cycle goes idle.
func (c *Controller) process(artifactPath string) {
	c.backendMu.RLock()
	backend, language := c.backend, c.language
	c.backendMu.RUnlock()

	text, err := backend.Transcribe(context.Background(), artifactPath, language)
	if removeErr := os.Remove(artifactPath); removeErr != nil {
		c.log.Warn().Err(removeErr).Str("artifact", artifactPath).Msg("artifact cleanup failed")
	}
	if err != nil {
		c.log.Error().Err(err).Msg("transcription failed")
		c.finishCycle(func() { c.display.ShowError("Transcription failed") })
		return
	}
	if text == "" {
		c.log.Debug().Msg("empty transcription, nothing to type")
		c.finishCycle(func() { c.display.ShowError("No speech detected") })
		return
	}

	final := c.deliverer.Deliver(text)

	c.mu.Lock()
	c.lastTranscription = final
	c.state = domain.CycleStateIdle
	c.mu.Unlock()
}

func (c *Controller) finishCycle(show func()) {
	c.mu.Lock()
	c.state = domain.CycleStateIdle
	c.mu.Unlock()
	show()
}

// ApplySettings validates and activates new settings. The replacement
// backend is built first; if that fails the active backend, language,
// and rules stay untouched. An in-flight transcription keeps the
// backend it started with.
func (c *Controller) ApplySettings(settings domain.Settings) error {
	settings = settings.Normalized()
	if err := settings.Validate(); err != nil {
		return err
	}

	backend, err := c.backendFactory(settings, c.log)
	if err != nil {
		return err
	}
	rules, err := c.rulesFactory(settings.RulesFile, c.log)
	if err != nil {
		return err
	}

	c.backendMu.Lock()
	c.backend = backend
	c.language = settings.Language
	c.backendMu.Unlock()

	c.deliverer.setRules(rules)
	c.recorder.SetDevice(settings.InputDevice)

	c.log.Info().Str("mode", settings.WhisperMode).Msg("settings applied")
	return nil
}

// LastTranscription returns the most recent non-empty transcription.
func (c *Controller) LastTranscription() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastTranscription
}

// State returns the current cycle state.
func (c *Controller) State() domain.CycleState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Status reports the cycle state for the frontend.
func (c *Controller) Status() domain.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.Status{
		State:                c.state,
		HasLastTranscription: c.lastTranscription != "",
	}
}
