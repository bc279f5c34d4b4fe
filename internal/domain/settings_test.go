package domain

import (
	"errors"
	"reflect"
	"testing"
)

func TestSettingsMissingFieldsOpenAIMode(t *testing.T) {
	t.Parallel()

	s := DefaultSettings()
	got := s.MissingFields()
	want := []string{"hotkey_record", "hotkey_copy", "openai_api_key"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected missing fields: %v", got)
	}
}

func TestSettingsMissingFieldsLocalModeSkipsAPIKey(t *testing.T) {
	t.Parallel()

	s := Settings{
		HotkeyRecord: "ctrl+shift+r",
		HotkeyCopy:   "ctrl+shift+c",
		WhisperMode:  WhisperModeLocal,
	}
	if missing := s.MissingFields(); len(missing) != 0 {
		t.Fatalf("expected no missing fields, got %v", missing)
	}
}

func TestSettingsValidateReturnsConfigError(t *testing.T) {
	t.Parallel()

	err := Settings{WhisperMode: WhisperModeOpenAI}.Validate()
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if len(ce.Missing) != 3 {
		t.Fatalf("unexpected missing set: %v", ce.Missing)
	}
}

func TestSettingsNormalizedFillsDefaults(t *testing.T) {
	t.Parallel()

	s := Settings{}.Normalized()
	if s.WhisperMode != WhisperModeOpenAI || s.WhisperModel != "base" || s.Language != "en" {
		t.Fatalf("unexpected normalized settings: %+v", s)
	}

	s = Settings{WhisperMode: WhisperModeLocal, WhisperModel: "tiny", Language: "de"}.Normalized()
	if s.WhisperMode != WhisperModeLocal || s.WhisperModel != "tiny" || s.Language != "de" {
		t.Fatalf("normalization overwrote explicit values: %+v", s)
	}
}

func TestIsValidWhisperModel(t *testing.T) {
	t.Parallel()

	for _, size := range WhisperModels {
		if !IsValidWhisperModel(size) {
			t.Fatalf("expected %q to be valid", size)
		}
	}
	if IsValidWhisperModel("huge") {
		t.Fatalf("expected huge to be invalid")
	}
}
