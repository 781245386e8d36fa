// Package language implements heuristic language detection and the static
// per-language tables (persona prompts, fallback responses, names, flags).
package language

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"lingochat/internal/domain"
)

// rule maps one language to its detection patterns. A rule matches when any
// of its patterns matches.
type rule struct {
	code     domain.LanguageCode
	patterns []*regexp.Regexp
}

// builtinRules is evaluated in order; the first matching language wins.
// Script ranges identify hi and ta outright. The Latin-script word and
// diacritic lists overlap across languages, so order is part of the contract
// and false positives are a documented imprecision, not a bug to fix here.
var builtinRules = []rule{
	{domain.LangEnglish, compile(
		`(?i)\b(the|is|are|was|were|have|has|will|would|can|could)\b`,
	)},
	{domain.LangHindi, compile(
		`[\x{0900}-\x{097F}]`, // Devanagari
	)},
	{domain.LangSpanish, compile(
		`(?i)\b(el|la|los|las|es|son|está|están|tiene|tienen)\b`,
		`(?i)[áéíóúñ]`,
	)},
	{domain.LangFrench, compile(
		`(?i)\b(le|la|les|est|sont|être|avoir|dans|pour)\b`,
		`(?i)[àâéèêëîïôùûüÿæœç]`,
	)},
	{domain.LangTamil, compile(
		`[\x{0B80}-\x{0BFF}]`, // Tamil
	)},
	{domain.LangGerman, compile(
		`(?i)\b(der|die|das|ist|sind|haben|wird|können)\b`,
		`(?i)[äöüß]`,
	)},
}

func compile(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile(e))
	}
	return out
}

// Classifier maps raw text to a best-guess language code. It is a pure
// function of the input and its rule table; no I/O, never fails.
type Classifier struct {
	rules []rule
	def   domain.LanguageCode
}

type ClassifierConfig struct {
	// DefaultLanguage is returned for empty input and when no rule matches.
	// It must have entries in the static tables.
	DefaultLanguage domain.LanguageCode

	// RulesDir optionally holds YAML rule files appended after the built-in
	// rules, so built-in priority is preserved.
	RulesDir string

	Logger *slog.Logger
}

func NewClassifier(cfg ClassifierConfig) (*Classifier, error) {
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = domain.DefaultLanguage
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if _, ok := fallbackResponses[cfg.DefaultLanguage]; !ok {
		return nil, fmt.Errorf("default language %q has no table entries", cfg.DefaultLanguage)
	}

	rules := make([]rule, len(builtinRules))
	copy(rules, builtinRules)

	if cfg.RulesDir != "" {
		extra, err := loadRules(cfg.RulesDir, cfg.Logger)
		if err != nil {
			return nil, fmt.Errorf("load rules from %s: %w", cfg.RulesDir, err)
		}
		rules = append(rules, extra...)
	}

	return &Classifier{rules: rules, def: cfg.DefaultLanguage}, nil
}

// Detect returns the best-guess language code for text. Empty or
// whitespace-only input and unmatched input both return the default code.
func (c *Classifier) Detect(text string) domain.LanguageCode {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return c.def
	}

	for _, r := range c.rules {
		for _, p := range r.patterns {
			if p.MatchString(trimmed) {
				return r.code
			}
		}
	}

	return c.def
}
