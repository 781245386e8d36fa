package language

import (
	"testing"

	"lingochat/internal/domain"
)

func TestValidateTables_MissingDefaultFails(t *testing.T) {
	good := map[domain.LanguageCode]string{"en": "x", "fr": "y"}
	bad := map[domain.LanguageCode]string{"fr": "y"}

	if err := validateTables(good); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := validateTables(good, bad); err == nil {
		t.Fatal("expected error for table without en entry")
	}
}

func TestSystemPrompt_ExactMatchWithDefault(t *testing.T) {
	if SystemPrompt("fr") == SystemPrompt("en") {
		t.Fatal("expected a distinct French persona prompt")
	}
	// Unknown codes get the default persona, not an empty prompt.
	if SystemPrompt("zz") != SystemPrompt(domain.DefaultLanguage) {
		t.Fatal("unknown language should fall back to the default persona")
	}
}

func TestFallbackResponse_AllSupported(t *testing.T) {
	for _, code := range Supported() {
		if FallbackResponse(code) == "" {
			t.Fatalf("empty fallback response for %q", code)
		}
	}
	if FallbackResponse("zz") != FallbackResponse(domain.DefaultLanguage) {
		t.Fatal("unknown language should fall back to the default response")
	}
}

func TestSupported_PriorityOrder(t *testing.T) {
	codes := Supported()
	if len(codes) == 0 || codes[0] != domain.LangEnglish {
		t.Fatalf("expected en first in priority order, got %v", codes)
	}
	for _, code := range codes {
		if Name(code) == "" || Flag(code) == "" {
			t.Fatalf("missing name or flag for %q", code)
		}
	}
}
