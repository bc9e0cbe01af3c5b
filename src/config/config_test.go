package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"OLLAMA_URL", "MODEL", "PROVIDER", "HOTKEY", "DEFAULT_LANGUAGE", "REQUEST_TIMEOUT_SEC", "SPEECH_ENABLED"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("Expected BaseURL %q, got %q", DefaultBaseURL, cfg.BaseURL)
	}
	if cfg.Model != DefaultModel {
		t.Errorf("Expected Model %q, got %q", DefaultModel, cfg.Model)
	}
	if cfg.Provider != ProviderOllama {
		t.Errorf("Expected Provider %q, got %q", ProviderOllama, cfg.Provider)
	}
	if cfg.Hotkey != "F9" {
		t.Errorf("Expected Hotkey F9, got %q", cfg.Hotkey)
	}
	if cfg.RequestTimeoutSec != 30 || cfg.PopupTimeoutSec != 30 {
		t.Errorf("Expected 30s timeouts, got request=%d popup=%d", cfg.RequestTimeoutSec, cfg.PopupTimeoutSec)
	}
	if !cfg.SpeechEnabled || cfg.SpeechRate != 180 {
		t.Errorf("Expected speech enabled at 180, got enabled=%v rate=%d", cfg.SpeechEnabled, cfg.SpeechRate)
	}
	if cfg.CopyDelayMs != 100 {
		t.Errorf("Expected CopyDelayMs 100, got %d", cfg.CopyDelayMs)
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("OLLAMA_URL", "http://127.0.0.1:11434/")
	t.Setenv("MODEL", "llama3.2")
	t.Setenv("PROVIDER", "OpenAI")
	t.Setenv("HOTKEY", "Ctrl+Shift+E")
	t.Setenv("ENABLE_FILE_LOGGING", "true")
	t.Setenv("SPEECH_ENABLED", "false")
	t.Setenv("REQUEST_TIMEOUT_SEC", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.BaseURL != "http://127.0.0.1:11434" {
		t.Errorf("Expected trailing slash trimmed, got %q", cfg.BaseURL)
	}
	if cfg.Model != "llama3.2" {
		t.Errorf("Expected Model 'llama3.2', got %q", cfg.Model)
	}
	if cfg.Provider != ProviderOpenAI {
		t.Errorf("Expected Provider %q, got %q", ProviderOpenAI, cfg.Provider)
	}
	if cfg.Hotkey != "Ctrl+Shift+E" {
		t.Errorf("Expected Hotkey 'Ctrl+Shift+E', got %q", cfg.Hotkey)
	}
	if !cfg.EnableFileLogging {
		t.Errorf("Expected EnableFileLogging true")
	}
	if cfg.SpeechEnabled {
		t.Errorf("Expected SpeechEnabled false")
	}
	if cfg.RequestTimeoutSec != 30 {
		t.Errorf("Expected invalid timeout to fall back to 30, got %d", cfg.RequestTimeoutSec)
	}
}

func TestLoadWithOptionsOverrides(t *testing.T) {
	t.Setenv("MODEL", "from-env")

	cfg, err := LoadWithOptions(LoadOptions{
		BaseURLOverride:  "http://localhost:9999/",
		ModelOverride:    "from-flag",
		LanguageOverride: "French",
	})
	if err != nil {
		t.Fatalf("LoadWithOptions: %v", err)
	}
	if cfg.BaseURL != "http://localhost:9999" {
		t.Errorf("Expected BaseURL override, got %q", cfg.BaseURL)
	}
	if cfg.Model != "from-flag" {
		t.Errorf("Expected Model override, got %q", cfg.Model)
	}
	if cfg.DefaultLanguage != "French" {
		t.Errorf("Expected language override, got %q", cfg.DefaultLanguage)
	}
}

func TestLoadReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "offlinemind.env")
	if err := os.WriteFile(envFile, []byte("DEFAULT_LANGUAGE=German\nPOPUP_TIMEOUT_SEC=12\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv(EnvPathEnvVar, envFile)
	t.Setenv("DEFAULT_LANGUAGE", "")
	t.Setenv("POPUP_TIMEOUT_SEC", "")
	os.Unsetenv("DEFAULT_LANGUAGE")
	os.Unsetenv("POPUP_TIMEOUT_SEC")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DefaultLanguage != "German" {
		t.Errorf("Expected DEFAULT_LANGUAGE from env file, got %q", cfg.DefaultLanguage)
	}
	if cfg.PopupTimeoutSec != 12 {
		t.Errorf("Expected POPUP_TIMEOUT_SEC from env file, got %d", cfg.PopupTimeoutSec)
	}
}
