package language

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"lingochat/internal/domain"

	"gopkg.in/yaml.v3"
)

// ruleFile is the YAML schema for user-supplied classifier rules:
//
//	language: pt
//	patterns:
//	  - '(?i)\b(o|a|os|as|é|são|você)\b'
//	  - '(?i)[ãõç]'
type ruleFile struct {
	Language string   `yaml:"language"`
	Patterns []string `yaml:"patterns"`
}

// loadRules reads extra classifier rules from YAML files in dir. Malformed
// files and patterns are logged and skipped; only an unreadable directory is
// an error. A missing directory is treated as empty.
func loadRules(dir string, logger *slog.Logger) ([]rule, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		logger.Debug("language rules directory does not exist, skipping", "dir", dir)
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read rules dir: %w", err)
	}

	var rules []rule
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}

		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("cannot read rule file", "path", path, "err", err)
			continue
		}

		var rf ruleFile
		if err := yaml.Unmarshal(data, &rf); err != nil {
			logger.Warn("cannot parse rule file", "path", path, "err", err)
			continue
		}
		if rf.Language == "" || len(rf.Patterns) == 0 {
			logger.Warn("rule file missing language or patterns", "path", path)
			continue
		}

		var patterns []*regexp.Regexp
		for _, expr := range rf.Patterns {
			p, err := regexp.Compile(expr)
			if err != nil {
				logger.Warn("invalid rule pattern", "path", path, "pattern", expr, "err", err)
				continue
			}
			patterns = append(patterns, p)
		}
		if len(patterns) == 0 {
			continue
		}

		logger.Info("loaded language rule", "language", rf.Language, "path", path)
		rules = append(rules, rule{code: domain.LanguageCode(rf.Language), patterns: patterns})
	}

	return rules, nil
}
