package language

import (
	"fmt"

	"lingochat/internal/domain"
)

// Static lookup tables keyed by LanguageCode. Each table must carry the
// default entry; validateTables enforces that at package load and the tables
// are never mutated afterwards.

var systemPrompts = map[domain.LanguageCode]string{
	domain.LangEnglish: "You are a helpful, friendly multilingual assistant. Respond naturally and conversationally in English. Be concise but informative.",
	domain.LangHindi:   "आप एक सहायक, मित्रवत बहुभाषी सहायक हैं। हिंदी में स्वाभाविक और संवादात्मक तरीके से जवाब दें। संक्षिप्त लेकिन जानकारीपूर्ण रहें।",
	domain.LangSpanish: "Eres un asistente multilingüe útil y amigable. Responde de forma natural y conversacional en español. Sé conciso pero informativo.",
	domain.LangFrench:  "Vous êtes un assistant multilingue utile et amical. Répondez naturellement et de manière conversationnelle en français. Soyez concis mais informatif.",
	domain.LangTamil:   "நீங்கள் ஒரு உதவிகரமான, நட்பான பன்மொழி உதவியாளர். தமிழில் இயல்பாகவும் உரையாடல் முறையிலும் பதிலளிக்கவும். சுருக்கமாக ஆனால் தகவல் நிறைந்ததாக இருக்கவும்.",
	domain.LangGerman:  "Sie sind ein hilfreicher, freundlicher mehrsprachiger Assistent. Antworten Sie natürlich und gesprächig auf Deutsch. Seien Sie prägnant, aber informativ.",
}

var fallbackResponses = map[domain.LanguageCode]string{
	domain.LangEnglish: "I'm not sure I understand. Could you try rephrasing that?",
	domain.LangHindi:   "मुझे यकीन नहीं है कि मैं समझता हूं। क्या आप इसे दूसरे तरीके से कह सकते हैं?",
	domain.LangSpanish: "No estoy seguro de entender. ¿Podrías reformularlo?",
	domain.LangFrench:  "Je ne suis pas sûr de comprendre. Pourriez-vous reformuler cela?",
	domain.LangTamil:   "எனக்கு புரிகிறதா என்று தெரியவில்லை. அதை வேறு விதமாக சொல்ல முடியுமா?",
	domain.LangGerman:  "Ich bin nicht sicher, ob ich das verstehe. Könnten Sie das umformulieren?",
}

var names = map[domain.LanguageCode]string{
	domain.LangEnglish: "English",
	domain.LangHindi:   "हिन्दी (Hindi)",
	domain.LangSpanish: "Español (Spanish)",
	domain.LangFrench:  "Français (French)",
	domain.LangTamil:   "தமிழ் (Tamil)",
	domain.LangGerman:  "Deutsch (German)",
}

var flags = map[domain.LanguageCode]string{
	domain.LangEnglish: "🇬🇧",
	domain.LangHindi:   "🇮🇳",
	domain.LangSpanish: "🇪🇸",
	domain.LangFrench:  "🇫🇷",
	domain.LangTamil:   "🇮🇳",
	domain.LangGerman:  "🇩🇪",
}

func init() {
	if err := validateTables(systemPrompts, fallbackResponses, names, flags); err != nil {
		panic(err)
	}
}

// validateTables checks that every table carries the default entry.
func validateTables(tables ...map[domain.LanguageCode]string) error {
	for i, table := range tables {
		if _, ok := table[domain.DefaultLanguage]; !ok {
			return fmt.Errorf("language table %d is missing the %q entry", i, domain.DefaultLanguage)
		}
	}
	return nil
}

// SystemPrompt returns the persona prompt for lang, or the default persona
// when the language has no entry. Exact match only.
func SystemPrompt(lang domain.LanguageCode) string {
	if p, ok := systemPrompts[lang]; ok {
		return p
	}
	return systemPrompts[domain.DefaultLanguage]
}

// FallbackResponse returns the precomputed clarification string used when no
// generation provider is available or generation fails.
func FallbackResponse(lang domain.LanguageCode) string {
	if r, ok := fallbackResponses[lang]; ok {
		return r
	}
	return fallbackResponses[domain.DefaultLanguage]
}

// Name returns the display name for lang, empty when unknown.
func Name(lang domain.LanguageCode) string { return names[lang] }

// Flag returns the flag emoji for lang, empty when unknown.
func Flag(lang domain.LanguageCode) string { return flags[lang] }

// Supported returns the built-in language codes in classifier priority order.
func Supported() []domain.LanguageCode {
	codes := make([]domain.LanguageCode, 0, len(builtinRules))
	for _, r := range builtinRules {
		codes = append(codes, r.code)
	}
	return codes
}
