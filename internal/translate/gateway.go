// Package translate provides the translation gateway: a single Translator
// backed by either the Google Cloud Translation API or a LibreTranslate
// instance, selected explicitly by configuration.
package translate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"lingochat/internal/domain"
)

const defaultHTTPTimeout = 30 * time.Second

// Provider names accepted by the gateway.
const (
	ProviderGoogle = "google"
	ProviderLibre  = "libre"
)

// Gateway delegates to the configured backend. Backend selection is decided
// once at construction and misconfiguration fails here, not mid-request.
type Gateway struct {
	backend domain.Translator
	name    string
}

type GatewayConfig struct {
	Provider string
	APIKey   string // required for google
	BaseURL  string // libre instance or google API base override
	Logger   *slog.Logger
}

func NewGateway(cfg GatewayConfig) (*Gateway, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	switch cfg.Provider {
	case ProviderGoogle:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("translation provider google requires an API key")
		}
		return &Gateway{
			backend: NewGoogle(GoogleConfig{APIKey: cfg.APIKey, APIBase: cfg.BaseURL, Logger: cfg.Logger}),
			name:    ProviderGoogle,
		}, nil
	case ProviderLibre:
		return &Gateway{
			backend: NewLibre(LibreConfig{BaseURL: cfg.BaseURL, Logger: cfg.Logger}),
			name:    ProviderLibre,
		}, nil
	default:
		return nil, fmt.Errorf("unknown translation provider: %q", cfg.Provider)
	}
}

// Name returns the active backend name.
func (g *Gateway) Name() string { return g.name }

// Translate performs one round trip against the configured backend. Failures
// propagate with the backend's error message; there is no retry and no
// fallback to the other backend.
func (g *Gateway) Translate(ctx context.Context, text string, target, source domain.LanguageCode) (*domain.Translation, error) {
	return g.backend.Translate(ctx, text, target, source)
}

// detectedOrDefault resolves the reported source language: backend-detected
// code first, then the caller-supplied source, then the default code.
func detectedOrDefault(detected string, source domain.LanguageCode) domain.LanguageCode {
	if detected != "" {
		return domain.LanguageCode(detected)
	}
	if source != "" {
		return source
	}
	return domain.DefaultLanguage
}
