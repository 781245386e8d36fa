package config

import "lingochat/internal/domain"

func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel: "info",
			DataDir:  "~/.lingochat",
		},
		Chat: ChatConfig{
			MaxContextMessages: 10,
			DefaultLanguage:    domain.DefaultLanguage,
		},
		LLM: LLMConfig{
			Model:       "gpt-4-turbo-preview",
			Temperature: 0.7,
			MaxTokens:   500,
		},
		Translation: TranslationConfig{
			Provider: "libre",
			BaseURL:  "https://libretranslate.com",
		},
		Store: StoreConfig{
			DBPath: "~/.lingochat/lingochat.db",
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
	}
}
