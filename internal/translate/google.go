package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"lingochat/internal/domain"
)

// Google implements domain.Translator against the Google Cloud Translation
// v2 REST API (API-key auth, query-string POST).
type Google struct {
	apiKey  string
	apiBase string
	client  *http.Client
	logger  *slog.Logger
}

type GoogleConfig struct {
	APIKey  string
	APIBase string
	Logger  *slog.Logger
}

func NewGoogle(cfg GoogleConfig) *Google {
	if cfg.APIBase == "" {
		cfg.APIBase = "https://translation.googleapis.com"
	}
	return &Google{
		apiKey:  cfg.APIKey,
		apiBase: cfg.APIBase,
		client:  &http.Client{Timeout: defaultHTTPTimeout},
		logger:  cfg.Logger,
	}
}

type googleResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText         string `json:"translatedText"`
			DetectedSourceLanguage string `json:"detectedSourceLanguage"`
		} `json:"translations"`
	} `json:"data"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (g *Google) Translate(ctx context.Context, text string, target, source domain.LanguageCode) (*domain.Translation, error) {
	u, err := url.Parse(g.apiBase + "/language/translate/v2")
	if err != nil {
		return nil, fmt.Errorf("google translate url: %w", err)
	}
	q := u.Query()
	q.Set("key", g.apiKey)
	q.Set("q", text)
	q.Set("target", string(target))
	if source != "" {
		q.Set("source", string(source))
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "POST", u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("google translate request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google translate: %w", err)
	}
	defer resp.Body.Close()

	var body googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("google translate decode: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := body.Error.Message
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("translation failed: %s", msg)
	}
	if len(body.Data.Translations) == 0 {
		return nil, fmt.Errorf("translation failed: empty response")
	}

	t := body.Data.Translations[0]
	return &domain.Translation{
		TranslatedText:   t.TranslatedText,
		DetectedLanguage: detectedOrDefault(t.DetectedSourceLanguage, source),
	}, nil
}
