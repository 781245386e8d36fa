package domain

import "context"

// Translation is the result of a single translation round trip.
type Translation struct {
	TranslatedText   string       `json:"translatedText"`
	DetectedLanguage LanguageCode `json:"detectedLanguage"`
}

// Translator converts text between languages. source may be empty, in which
// case the backend auto-detects. A backend failure surfaces as an error
// carrying the backend's message; there is no fallback substitution.
type Translator interface {
	Translate(ctx context.Context, text string, target, source LanguageCode) (*Translation, error)
}
