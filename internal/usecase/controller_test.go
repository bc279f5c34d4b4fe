package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"whisperkey/internal/domain"
	"whisperkey/internal/ports"
)

func TestFullDictationCycle(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.backend.text = "hello world"

	h.controller.OnRecordHotkey()
	if got := h.controller.State(); got != domain.CycleStateRecording {
		t.Fatalf("expected recording state, got %s", got)
	}

	h.controller.OnRecordHotkey()
	h.waitIdle(t)

	if got := h.controller.LastTranscription(); got != "hello world" {
		t.Fatalf("unexpected last transcription %q", got)
	}
	if got := h.injector.typedText(); got != "hello world" {
		t.Fatalf("unexpected typed text %q", got)
	}
	if _, err := os.Stat(h.recorder.lastArtifact()); !os.IsNotExist(err) {
		t.Fatalf("artifact must be deleted after the cycle, stat err: %v", err)
	}

	h.display.assertSequence(t, "recording", "processing", "hidden")
}

func TestRecordHotkeyIgnoredWhileProcessing(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.backend.text = "slow result"
	h.backend.gate = make(chan struct{})

	h.controller.OnRecordHotkey()
	h.controller.OnRecordHotkey()
	h.waitState(t, domain.CycleStateProcessing)

	// Pressing record mid-transcription must not start a new capture.
	h.controller.OnRecordHotkey()
	if got := h.recorder.startCalls(); got != 1 {
		t.Fatalf("expected 1 recorder start, got %d", got)
	}

	close(h.backend.gate)
	h.waitIdle(t)

	if got := h.controller.LastTranscription(); got != "slow result" {
		t.Fatalf("unexpected last transcription %q", got)
	}
}

func TestEmptyTranscriptionKeepsLastResult(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.backend.text = "first take"
	h.runCycle(t)

	h.backend.text = ""
	h.runCycle(t)

	if got := h.controller.LastTranscription(); got != "first take" {
		t.Fatalf("empty result must not clobber the last transcription, got %q", got)
	}
	if got := h.injector.typedText(); got != "first take" {
		t.Fatalf("empty result must not be typed, got %q", got)
	}
	h.display.assertLast(t, "error")
}

func TestTranscriptionFailureShowsErrorAndDeletesArtifact(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.backend.err = &domain.TranscriptionError{Backend: "openai", Message: "API error 500"}

	h.controller.OnRecordHotkey()
	h.controller.OnRecordHotkey()
	h.waitIdle(t)

	if _, err := os.Stat(h.recorder.lastArtifact()); !os.IsNotExist(err) {
		t.Fatalf("artifact must be deleted on failure, stat err: %v", err)
	}
	if h.injector.typedText() != "" {
		t.Fatalf("nothing must be typed on failure")
	}
	h.display.assertSequence(t, "recording", "processing", "error")
}

func TestStopWithoutAudioHidesWithoutTranscribing(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.recorder.noArtifact = true

	h.controller.OnRecordHotkey()
	h.controller.OnRecordHotkey()
	h.waitIdle(t)

	if got := h.backend.calls(); got != 0 {
		t.Fatalf("backend must not run without an artifact, got %d calls", got)
	}
	h.display.assertSequence(t, "recording", "processing", "hidden")
}

func TestRecorderStartFailure(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.recorder.startErr = &domain.DeviceError{Op: "open input stream", Err: errors.New("busy")}

	h.controller.OnRecordHotkey()

	if got := h.controller.State(); got != domain.CycleStateIdle {
		t.Fatalf("failed start must stay idle, got %s", got)
	}
	h.display.assertSequence(t, "error")
}

func TestCopyHotkey(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	// Nothing transcribed yet: no clipboard write, no overlay change.
	h.controller.OnCopyHotkey()
	if h.clip.writes() != 0 {
		t.Fatalf("copy with no transcription must be a no-op")
	}

	h.backend.text = "copy me"
	h.runCycle(t)

	h.controller.OnCopyHotkey()
	if got, _ := h.clip.Text(context.Background()); got != "copy me" {
		t.Fatalf("unexpected clipboard content %q", got)
	}
	h.display.assertLast(t, "copied")
}

func TestCopyHotkeyClipboardFailure(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.backend.text = "copy me"
	h.runCycle(t)

	h.clip.err = errors.New("clipboard locked")
	h.controller.OnCopyHotkey()
	h.display.assertLast(t, "error")
}

func TestApplySettingsRejectsIncomplete(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	err := h.controller.ApplySettings(domain.Settings{WhisperMode: domain.WhisperModeOpenAI})

	var cfgErr *domain.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestApplySettingsKeepsBackendOnFactoryFailure(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.backend.text = "still the old backend"
	h.factoryErr = errors.New("model missing")

	if err := h.controller.ApplySettings(validSettings()); err == nil {
		t.Fatalf("expected factory failure to surface")
	}

	h.runCycle(t)
	if got := h.controller.LastTranscription(); got != "still the old backend" {
		t.Fatalf("old backend must keep serving, got %q", got)
	}
}

func TestApplySettingsSwapsBackendForNextCycle(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.backend.text = "old"
	h.replacement = &fakeBackend{text: "new"}

	if err := h.controller.ApplySettings(validSettings()); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	h.runCycle(t)
	if got := h.controller.LastTranscription(); got != "new" {
		t.Fatalf("expected the replacement backend, got %q", got)
	}
	if h.recorder.device == nil || *h.recorder.device != 3 {
		t.Fatalf("expected input device forwarded to the recorder")
	}
}

func TestInFlightTranscriptionFinishesOnOldBackend(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.backend.text = "old backend result"
	h.backend.gate = make(chan struct{})
	h.replacement = &fakeBackend{text: "new backend result"}

	h.controller.OnRecordHotkey()
	h.controller.OnRecordHotkey()
	h.waitState(t, domain.CycleStateProcessing)

	if err := h.controller.ApplySettings(validSettings()); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	close(h.backend.gate)
	h.waitIdle(t)

	if got := h.controller.LastTranscription(); got != "old backend result" {
		t.Fatalf("in-flight work must finish on the old backend, got %q", got)
	}

	h.runCycle(t)
	if got := h.controller.LastTranscription(); got != "new backend result" {
		t.Fatalf("next cycle must use the new backend, got %q", got)
	}
}

func TestRecordHotkeyWithoutBackendShowsError(t *testing.T) {
	t.Parallel()

	// First-launch wiring: hotkeys may exist before a backend does. A
	// record press must surface a config error, never start a capture.
	h := newHarnessWithBackend(t, nil)

	h.controller.OnRecordHotkey()

	if got := h.controller.State(); got != domain.CycleStateIdle {
		t.Fatalf("expected idle without a backend, got %s", got)
	}
	if got := h.recorder.startCalls(); got != 0 {
		t.Fatalf("recorder must not start without a backend, got %d starts", got)
	}
	h.display.assertSequence(t, "error")

	// Applying complete settings installs a backend and dictation works.
	h.replacement = &fakeBackend{text: "now configured"}
	if err := h.controller.ApplySettings(validSettings()); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	h.runCycle(t)
	if got := h.controller.LastTranscription(); got != "now configured" {
		t.Fatalf("unexpected transcription %q", got)
	}
}

func TestRulesRewriteDelivery(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.rules.apply = func(text string) (string, error) {
		return text + ".", nil
	}
	h.backend.text = "rewritten"
	h.runCycle(t)

	if got := h.injector.typedText(); got != "rewritten." {
		t.Fatalf("unexpected typed text %q", got)
	}
	if got := h.controller.LastTranscription(); got != "rewritten." {
		t.Fatalf("last transcription must hold the rewritten text, got %q", got)
	}
}

func TestRulesFailureFallsBackToRawText(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.rules.apply = func(string) (string, error) {
		return "", errors.New("bad rule")
	}
	h.backend.text = "raw text"
	h.runCycle(t)

	if got := h.injector.typedText(); got != "raw text" {
		t.Fatalf("expected raw fallback, got %q", got)
	}
}

// harness wires a controller with fakes for every port.
type harness struct {
	controller *Controller
	recorder   *fakeRecorder
	backend    *fakeBackend
	rules      *fakeRules
	injector   *fakeInjector
	clip       *fakeClipboard
	display    *fakeDisplay

	replacement ports.TranscriptionBackend
	factoryErr  error
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{backend: &fakeBackend{}}
	return buildHarness(t, h, h.backend)
}

// newHarnessWithBackend wires the controller with an explicit initial
// backend, which may be nil to mirror an unconfigured first launch.
func newHarnessWithBackend(t *testing.T, backend ports.TranscriptionBackend) *harness {
	t.Helper()
	h := &harness{backend: &fakeBackend{}}
	return buildHarness(t, h, backend)
}

func buildHarness(t *testing.T, h *harness, backend ports.TranscriptionBackend) *harness {
	t.Helper()

	h.recorder = &fakeRecorder{dir: t.TempDir()}
	h.rules = &fakeRules{}
	h.injector = &fakeInjector{}
	h.clip = &fakeClipboard{}
	h.display = &fakeDisplay{}

	factory := func(domain.Settings, zerolog.Logger) (ports.TranscriptionBackend, error) {
		if h.factoryErr != nil {
			return nil, h.factoryErr
		}
		if h.replacement != nil {
			return h.replacement, nil
		}
		return h.backend, nil
	}
	rulesFactory := func(string, zerolog.Logger) (ports.RulesEngine, error) {
		return h.rules, nil
	}

	h.controller = NewController(
		h.recorder, backend, h.rules, h.injector, h.clip, h.display,
		domain.Settings{Language: "en"}, factory, rulesFactory, zerolog.Nop(),
	)
	h.controller.deliverer.delay = 0
	return h
}

func (h *harness) runCycle(t *testing.T) {
	t.Helper()
	h.controller.OnRecordHotkey()
	h.controller.OnRecordHotkey()
	h.waitIdle(t)
}

func (h *harness) waitIdle(t *testing.T) {
	t.Helper()
	h.waitState(t, domain.CycleStateIdle)
}

func (h *harness) waitState(t *testing.T, want domain.CycleState) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.controller.State() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for state %s, still %s", want, h.controller.State())
}

func validSettings() domain.Settings {
	device := 3
	return domain.Settings{
		HotkeyRecord: "ctrl+shift+r",
		HotkeyCopy:   "ctrl+shift+c",
		InputDevice:  &device,
		WhisperMode:  domain.WhisperModeOpenAI,
		OpenAIAPIKey: "key",
	}
}

type fakeRecorder struct {
	mu         sync.Mutex
	dir        string
	starts     int
	artifacts  int
	artifact   string
	device     *int
	startErr   error
	noArtifact bool
}

func (f *fakeRecorder) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.starts++
	return nil
}

func (f *fakeRecorder) Stop() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.noArtifact {
		return "", nil
	}
	f.artifacts++
	path := filepath.Join(f.dir, "artifact-"+time.Now().Format("150405.000000000")+".wav")
	if err := os.WriteFile(path, []byte("wav"), 0o644); err != nil {
		return "", err
	}
	f.artifact = path
	return path, nil
}

func (f *fakeRecorder) SetDevice(device *int) {
	f.mu.Lock()
	f.device = device
	f.mu.Unlock()
}

func (f *fakeRecorder) startCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts
}

func (f *fakeRecorder) lastArtifact() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.artifact
}

type fakeBackend struct {
	mu    sync.Mutex
	text  string
	err   error
	count int
	gate  chan struct{}
}

func (f *fakeBackend) Transcribe(context.Context, string, string) (string, error) {
	f.mu.Lock()
	f.count++
	text, err, gate := f.text, f.err, f.gate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return text, err
}

func (f *fakeBackend) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}

type fakeRules struct {
	mu    sync.Mutex
	apply func(string) (string, error)
}

func (f *fakeRules) Apply(text string) (string, error) {
	f.mu.Lock()
	apply := f.apply
	f.mu.Unlock()
	if apply == nil {
		return text, nil
	}
	return apply(text)
}

type fakeInjector struct {
	mu    sync.Mutex
	typed string
}

func (f *fakeInjector) TypeText(text string) error {
	f.mu.Lock()
	f.typed = text
	f.mu.Unlock()
	return nil
}

func (f *fakeInjector) TypeFast(text string) error { return f.TypeText(text) }

func (f *fakeInjector) typedText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.typed
}

type fakeClipboard struct {
	mu      sync.Mutex
	text    string
	err     error
	written int
}

func (f *fakeClipboard) SetText(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.text = text
	f.written++
	return nil
}

func (f *fakeClipboard) Text(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.text, nil
}

func (f *fakeClipboard) writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.written
}

type fakeDisplay struct {
	mu     sync.Mutex
	events []string
}

func (f *fakeDisplay) record(event string) {
	f.mu.Lock()
	f.events = append(f.events, event)
	f.mu.Unlock()
}

func (f *fakeDisplay) ShowRecording() { f.record("recording") }
func (f *fakeDisplay) ShowProcessing() { f.record("processing") }
func (f *fakeDisplay) ShowCopied() { f.record("copied") }
func (f *fakeDisplay) ShowError(string) { f.record("error") }
func (f *fakeDisplay) Hide() { f.record("hidden") }

func (f *fakeDisplay) assertSequence(t *testing.T, want ...string) {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.events) != len(want) {
		t.Fatalf("display events %v, want %v", f.events, want)
	}
	for i, event := range want {
		if f.events[i] != event {
			t.Fatalf("display events %v, want %v", f.events, want)
		}
	}
}

func (f *fakeDisplay) assertLast(t *testing.T, want string) {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.events) == 0 || f.events[len(f.events)-1] != want {
		t.Fatalf("display events %v, want last %q", f.events, want)
	}
}
