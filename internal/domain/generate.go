package domain

import "context"

// Generation is the response generator output. Confidence encodes provenance:
// 0.9 provider-backed, 0.5 static fallback with no provider configured,
// 0.3 fallback after a provider failure.
type Generation struct {
	Content    string  `json:"content"`
	Confidence float64 `json:"confidence"`
}

// Responder produces an assistant reply from a bounded conversation context.
// It always succeeds; provider failures are absorbed into a lower-confidence
// fallback and never surface as errors.
type Responder interface {
	Generate(ctx context.Context, history []ContextEntry, lang LanguageCode) Generation
}
