package bootstrap

import (
	"github.com/rs/zerolog"

	"whisperkey/internal/audio"
	"whisperkey/internal/config"
	"whisperkey/internal/domain"
	"whisperkey/internal/hotkey"
	"whisperkey/internal/keysource"
	"whisperkey/internal/ports"
	"whisperkey/internal/rules"
	"whisperkey/internal/transcribe"
	"whisperkey/internal/usecase"
)

// Services is the assembled runtime graph.
type Services struct {
	Settings   domain.Settings
	Store      ports.SettingsStore
	Controller *usecase.Controller
	Engine     *hotkey.Engine
	KeySource  ports.KeyEventSource
	Devices    ports.DeviceLister

	// SettingsComplete is false until the user has chosen hotkeys and
	// credentials. The controller then runs without a transcription
	// backend and no hotkeys are registered until ApplySettings installs
	// a backend, so no cycle can start against an unconfigured graph.
	SettingsComplete bool
}

// Build wires all backend dependencies. The display, clipboard, and
// injector come from the caller so the desktop shell and tests can
// provide their own.
func Build(
	opts config.Options,
	display ports.StatusDisplay,
	clipboard ports.Clipboard,
	injector ports.TextInjector,
	log zerolog.Logger,
) (Services, error) {
	store := config.NewJSONStore(opts.ConfigPath)
	settings, err := store.Load()
	if err != nil {
		return Services{}, err
	}

	rulesEngine, err := rules.NewEngine(settings.RulesFile, log)
	if err != nil {
		return Services{}, err
	}

	settingsComplete := settings.Validate() == nil
	var backend ports.TranscriptionBackend
	if settingsComplete {
		backend, err = transcribe.New(settings, log)
		if err != nil {
			return Services{}, err
		}
	}

	recorder := audio.NewCapture(log)
	recorder.SetDevice(settings.InputDevice)

	controller := usecase.NewController(
		recorder,
		backend,
		rulesEngine,
		injector,
		clipboard,
		display,
		settings,
		backendFactory,
		rulesFactory,
		log,
	)

	source := keysource.New(log)
	engine := hotkey.NewEngine(source, log)
	if settingsComplete {
		engine.Register("record", settings.HotkeyRecord, controller.OnRecordHotkey)
		engine.Register("copy", settings.HotkeyCopy, controller.OnCopyHotkey)
	}

	return Services{
		Settings:         settings,
		Store:            store,
		Controller:       controller,
		Engine:           engine,
		KeySource:        source,
		Devices:          audio.NewDevices(log),
		SettingsComplete: settingsComplete,
	}, nil
}

func backendFactory(settings domain.Settings, log zerolog.Logger) (ports.TranscriptionBackend, error) {
	return transcribe.New(settings, log)
}

func rulesFactory(path string, log zerolog.Logger) (ports.RulesEngine, error) {
	return rules.NewEngine(path, log)
}
