package language

import (
	"fmt"
	"strings"

	xlanguage "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// words maps English language names to their ISO 639-1 code.
var words = map[string]string{
	"arabic":     "ar",
	"cantonese":  "yue",
	"chinese":    "zh",
	"english":    "en",
	"french":     "fr",
	"german":     "de",
	"hindi":      "hi",
	"indonesian": "id",
	"italian":    "it",
	"japanese":   "ja",
	"korean":     "ko",
	"malay":      "ms",
	"portuguese": "pt",
	"russian":    "ru",
	"spanish":    "es",
	"thai":       "th",
	"vietnamese": "vi",
}

// Parse resolves a language code or English name to a BCP 47 tag.
func Parse(code string) (xlanguage.Tag, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return xlanguage.Und, fmt.Errorf("language code is empty")
	}
	if mapped, ok := words[strings.ToLower(code)]; ok {
		code = mapped
	}
	tag, err := xlanguage.Parse(code)
	if err != nil {
		return xlanguage.Und, fmt.Errorf("parse language %q: %w", code, err)
	}
	return tag, nil
}

// Canonical returns the canonical BCP 47 form of code, or "" when it cannot
// be parsed.
func Canonical(code string) string {
	tag, err := Parse(code)
	if err != nil {
		return ""
	}
	return tag.String()
}

// DisplayName returns the English name for code. Returns "Unknown" for empty
// input and the uppercased input when it cannot be parsed.
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	tag, err := Parse(code)
	if err != nil {
		return strings.ToUpper(strings.TrimSpace(code))
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return tag.String()
}

// Base returns the ISO 639 base language of code ("zh" for "zh-Hant-TW").
func Base(code string) string {
	tag, err := Parse(code)
	if err != nil {
		return ""
	}
	base, _ := tag.Base()
	return base.String()
}
