package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"lingochat/internal/domain"
)

// Config is the root configuration for LingoChat.
type Config struct {
	General     GeneralConfig     `json:"general"`
	Chat        ChatConfig        `json:"chat"`
	LLM         LLMConfig         `json:"llm"`
	Translation TranslationConfig `json:"translation"`
	Language    LanguageConfig    `json:"language"`
	Store       StoreConfig       `json:"store"`
	Server      ServerConfig      `json:"server"`
}

type GeneralConfig struct {
	LogLevel string `json:"logLevel"`
	DataDir  string `json:"dataDir"`
}

type ChatConfig struct {
	// MaxContextMessages bounds the context window sent to the generator.
	MaxContextMessages int                 `json:"maxContextMessages"`
	DefaultLanguage    domain.LanguageCode `json:"defaultLanguage"`
}

// LLMConfig configures the completion provider. An empty APIKey means no
// provider: the generator answers with static fallbacks.
type LLMConfig struct {
	APIKey      string  `json:"apiKey,omitempty"`
	APIBase     string  `json:"apiBase,omitempty"`
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"maxTokens"`
}

// TranslationConfig selects the translation backend explicitly. "google"
// requires apiKey; "libre" uses baseUrl (default https://libretranslate.com).
type TranslationConfig struct {
	Provider string `json:"provider"`
	APIKey   string `json:"apiKey,omitempty"`
	BaseURL  string `json:"baseUrl,omitempty"`
}

type LanguageConfig struct {
	// RulesDir optionally holds YAML files with extra classifier rules,
	// appended after the built-in ones.
	RulesDir string `json:"rulesDir,omitempty"`
}

type StoreConfig struct {
	DBPath string `json:"dbPath"`
}

type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// DefaultConfigDir returns the default config directory (~/.lingochat).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".lingochat"
	}
	return filepath.Join(home, ".lingochat")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

func Load(path string) (*Config, error) {
	path = ExpandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	cfg.General.DataDir = ExpandPath(cfg.General.DataDir)
	cfg.Store.DBPath = ExpandPath(cfg.Store.DBPath)
	cfg.Language.RulesDir = ExpandPath(cfg.Language.RulesDir)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// ${VAR:-default} uses "default" when VAR is unset or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultVal := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match
		}
		return val
	})
}

func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// Validate checks that the config has valid values. Translation provider
// selection is validated here so a selected-but-misconfigured backend fails
// at startup instead of silently falling back.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.Chat.MaxContextMessages < 1 {
		errs = append(errs, "chat.maxContextMessages must be >= 1")
	}
	if cfg.Chat.DefaultLanguage == "" {
		errs = append(errs, "chat.defaultLanguage must not be empty")
	}

	if cfg.LLM.Temperature < 0 || cfg.LLM.Temperature > 2 {
		errs = append(errs, "llm.temperature must be between 0 and 2")
	}
	if cfg.LLM.MaxTokens < 1 {
		errs = append(errs, "llm.maxTokens must be >= 1")
	}

	switch cfg.Translation.Provider {
	case "google":
		if cfg.Translation.APIKey == "" {
			errs = append(errs, "translation.apiKey is required when translation.provider is google")
		}
	case "libre":
		// baseUrl has a default
	default:
		errs = append(errs, "translation.provider must be one of: google, libre")
	}

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 0 and 65535")
	}

	if cfg.Store.DBPath == "" {
		errs = append(errs, "store.dbPath must not be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ExpandPath resolves ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
