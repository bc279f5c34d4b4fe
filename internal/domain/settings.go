package domain

// Transcription backend modes.
const (
	WhisperModeOpenAI = "openai"
	WhisperModeLocal  = "local"
)

// WhisperModels lists the supported local whisper model sizes.
var WhisperModels = []string{"tiny", "base", "small", "medium", "large"}

// Settings is the persisted application configuration. The core treats a
// Settings value as an immutable snapshot; changes arrive through an
// explicit apply call, never by observing live mutation.
type Settings struct {
	HotkeyRecord string `json:"hotkey_record"`
	HotkeyCopy   string `json:"hotkey_copy"`
	InputDevice  *int   `json:"input_device"`
	WhisperMode  string `json:"whisper_mode"`
	OpenAIAPIKey string `json:"openai_api_key"`
	WhisperModel string `json:"whisper_model"`
	Language     string `json:"language"`
	RulesFile    string `json:"rules_file,omitempty"`
}

// DefaultSettings returns baseline configuration for first launch. The
// hotkeys are intentionally unset: they are required fields the user must
// choose before dictation can start.
func DefaultSettings() Settings {
	return Settings{
		WhisperMode:  WhisperModeOpenAI,
		WhisperModel: "base",
		Language:     "en",
	}
}

// Normalized fills empty optional fields with defaults.
func (s Settings) Normalized() Settings {
	if s.WhisperMode == "" {
		s.WhisperMode = WhisperModeOpenAI
	}
	if s.WhisperModel == "" {
		s.WhisperModel = "base"
	}
	if s.Language == "" {
		s.Language = "en"
	}
	return s
}

// MissingFields returns the required fields that are unset, taking the
// backend mode into account.
func (s Settings) MissingFields() []string {
	var missing []string
	if s.HotkeyRecord == "" {
		missing = append(missing, "hotkey_record")
	}
	if s.HotkeyCopy == "" {
		missing = append(missing, "hotkey_copy")
	}
	if s.WhisperMode == WhisperModeOpenAI && s.OpenAIAPIKey == "" {
		missing = append(missing, "openai_api_key")
	}
	return missing
}

// Validate reports a ConfigError when required-by-mode fields are absent.
func (s Settings) Validate() error {
	if missing := s.MissingFields(); len(missing) > 0 {
		return &ConfigError{Missing: missing}
	}
	return nil
}

// IsValidWhisperModel reports whether size names a supported local model.
func IsValidWhisperModel(size string) bool {
	for _, m := range WhisperModels {
		if m == size {
			return true
		}
	}
	return false
}
