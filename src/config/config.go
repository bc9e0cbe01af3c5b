package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultBaseURL  = "http://localhost:3000"
	DefaultModel    = "gemma3n"
	DefaultHotkey   = "F9"
	DefaultLanguage = "English"

	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"

	EnvPathEnvVar = "OFFLINEMIND_ENV"
)

type LoadOptions struct {
	BaseURLOverride  string
	ModelOverride    string
	LanguageOverride string
}

type Config struct {
	BaseURL           string
	Model             string
	Provider          string
	APIKey            string
	Hotkey            string
	DefaultLanguage   string
	RequestTimeoutSec int
	PopupTimeoutSec   int
	SpeechEnabled     bool
	SpeechRate        int
	CopyDelayMs       int
	EnableFileLogging bool
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Sources in priority order:
	// 1) .env in the executable directory
	// 2) otherwise the file named by OFFLINEMIND_ENV
	// Variables already present in the environment win over the file.
	if envPath := resolveEnvPath(); envPath != "" {
		_ = godotenv.Load(envPath)
	}

	cfg := &Config{
		BaseURL:           strings.TrimRight(getEnvWithDefault("OLLAMA_URL", DefaultBaseURL), "/"),
		Model:             getEnvWithDefault("MODEL", DefaultModel),
		Provider:          resolveProvider(os.Getenv("PROVIDER")),
		APIKey:            os.Getenv("OPENAI_API_KEY"),
		Hotkey:            getEnvWithDefault("HOTKEY", DefaultHotkey),
		DefaultLanguage:   getEnvWithDefault("DEFAULT_LANGUAGE", DefaultLanguage),
		RequestTimeoutSec: getPositiveInt("REQUEST_TIMEOUT_SEC", 30),
		PopupTimeoutSec:   getPositiveInt("POPUP_TIMEOUT_SEC", 30),
		SpeechEnabled:     strings.ToLower(os.Getenv("SPEECH_ENABLED")) != "false",
		SpeechRate:        getPositiveInt("SPEECH_RATE", 180),
		CopyDelayMs:       getPositiveInt("COPY_DELAY_MS", 100),
		EnableFileLogging: strings.ToLower(os.Getenv("ENABLE_FILE_LOGGING")) == "true",
	}

	if v := strings.TrimSpace(opts.BaseURLOverride); v != "" {
		cfg.BaseURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(opts.ModelOverride); v != "" {
		cfg.Model = v
	}
	if v := strings.TrimSpace(opts.LanguageOverride); v != "" {
		cfg.DefaultLanguage = v
	}

	return cfg, nil
}

func resolveEnvPath() string {
	if execPath, err := os.Executable(); err == nil {
		exeEnv := filepath.Join(filepath.Dir(execPath), ".env")
		if _, err := os.Stat(exeEnv); err == nil {
			return exeEnv
		}
	}

	if alt := os.Getenv(EnvPathEnvVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func resolveProvider(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case ProviderOpenAI, "openai-compatible", "lmstudio":
		return ProviderOpenAI
	default:
		return ProviderOllama
	}
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getPositiveInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}
