// Package generate builds assistant replies from a bounded conversation
// context, calling an OpenAI-compatible completion provider when one is
// configured and degrading to static per-language fallbacks otherwise.
package generate

import (
	"context"
	"log/slog"

	"lingochat/internal/domain"
	"lingochat/internal/language"
	"lingochat/internal/metrics"

	openai "github.com/sashabaranov/go-openai"
)

// Confidence tiers attached to assistant messages. The three values are a
// contract: callers and tests distinguish provenance by exact score.
const (
	ConfidenceProvider = 0.9 // provider call succeeded
	ConfidenceFallback = 0.5 // no provider configured
	ConfidenceDegraded = 0.3 // provider configured but the call failed
)

const (
	defaultModel       = "gpt-4-turbo-preview"
	defaultTemperature = 0.7
	defaultMaxTokens   = 500
)

// Generator implements domain.Responder. A nil client (no API key) means
// every reply is the static fallback for the requested language.
type Generator struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	logger      *slog.Logger
}

type Config struct {
	APIKey  string
	APIBase string // override for OpenAI-compatible endpoints
	Model   string

	// Temperature nil means the default; zero is a valid setting.
	Temperature *float32
	MaxTokens   int
	Logger      *slog.Logger
}

func New(cfg Config) *Generator {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	temperature := float32(defaultTemperature)
	if cfg.Temperature != nil {
		temperature = *cfg.Temperature
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	var client *openai.Client
	if cfg.APIKey != "" {
		clientConfig := openai.DefaultConfig(cfg.APIKey)
		if cfg.APIBase != "" {
			clientConfig.BaseURL = cfg.APIBase
		}
		client = openai.NewClientWithConfig(clientConfig)
	}

	return &Generator{
		client:      client,
		model:       cfg.Model,
		temperature: temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      cfg.Logger,
	}
}

// Generate produces the assistant reply for the given context window. It
// never returns an error: provider failures are logged and converted into
// the language fallback with ConfidenceDegraded.
func (g *Generator) Generate(ctx context.Context, history []domain.ContextEntry, lang domain.LanguageCode) domain.Generation {
	if g.client == nil {
		metrics.Default.Counter("lingochat_generation_fallback_total", "Replies served from static fallback (no provider configured).").Inc()
		return domain.Generation{
			Content:    language.FallbackResponse(lang),
			Confidence: ConfidenceFallback,
		}
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: language.SystemPrompt(lang),
	})
	for _, entry := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    chatRole(entry.Role),
			Content: entry.Content,
		})
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    messages,
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	})
	if err != nil {
		g.logger.Warn("completion failed, using fallback", "lang", lang, "err", err)
		metrics.Default.Counter("lingochat_generation_degraded_total", "Replies served from fallback after a provider failure.").Inc()
		return domain.Generation{
			Content:    language.FallbackResponse(lang),
			Confidence: ConfidenceDegraded,
		}
	}
	if len(resp.Choices) == 0 {
		g.logger.Warn("completion returned no choices, using fallback", "lang", lang)
		metrics.Default.Counter("lingochat_generation_degraded_total", "Replies served from fallback after a provider failure.").Inc()
		return domain.Generation{
			Content:    language.FallbackResponse(lang),
			Confidence: ConfidenceDegraded,
		}
	}

	metrics.Default.Counter("lingochat_generation_provider_total", "Replies generated by the completion provider.").Inc()
	return domain.Generation{
		Content:    resp.Choices[0].Message.Content,
		Confidence: ConfidenceProvider,
	}
}

func chatRole(r domain.Role) string {
	switch r {
	case domain.RoleAssistant:
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}
