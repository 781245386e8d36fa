package domain

// LanguageCode is a short identifier (ISO 639-1 style) for a natural language.
// It has no internal structure and is used as a map key throughout.
type LanguageCode string

const (
	LangEnglish LanguageCode = "en"
	LangHindi   LanguageCode = "hi"
	LangSpanish LanguageCode = "es"
	LangFrench  LanguageCode = "fr"
	LangTamil   LanguageCode = "ta"
	LangGerman  LanguageCode = "de"
)

// DefaultLanguage is the code returned when detection finds nothing and the
// guaranteed entry in every static language table.
const DefaultLanguage = LangEnglish
