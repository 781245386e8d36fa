package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"lingochat/internal/domain"
)

// Libre implements domain.Translator against a LibreTranslate instance
// (JSON POST, no credential).
type Libre struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

type LibreConfig struct {
	BaseURL string
	Logger  *slog.Logger
}

func NewLibre(cfg LibreConfig) *Libre {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://libretranslate.com"
	}
	return &Libre{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: defaultHTTPTimeout},
		logger:  cfg.Logger,
	}
}

type libreRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
}

type libreResponse struct {
	TranslatedText   string `json:"translatedText"`
	DetectedLanguage struct {
		Language   string  `json:"language"`
		Confidence float64 `json:"confidence"`
	} `json:"detectedLanguage"`
	Error string `json:"error"`
}

func (l *Libre) Translate(ctx context.Context, text string, target, source domain.LanguageCode) (*domain.Translation, error) {
	src := string(source)
	if src == "" {
		src = "auto"
	}

	payload, err := json.Marshal(libreRequest{Q: text, Source: src, Target: string(target)})
	if err != nil {
		return nil, fmt.Errorf("libre translate marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", l.baseURL+"/translate", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("libre translate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("libre translate: %w", err)
	}
	defer resp.Body.Close()

	var body libreResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("libre translate decode: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := body.Error
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("translation failed: %s", msg)
	}

	return &domain.Translation{
		TranslatedText:   body.TranslatedText,
		DetectedLanguage: detectedOrDefault(body.DetectedLanguage.Language, source),
	}, nil
}
