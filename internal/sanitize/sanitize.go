package sanitize

import (
	"regexp"
	"strings"
)

var (
	leadingEnumeration = regexp.MustCompile(`^\s*\d+\s*[.)、]\s*`)
	whitespaceRun      = regexp.MustCompile(`\s+`)
	missingSpaceAfter  = regexp.MustCompile(`([,;:!?])(\S)`)
	spaceBefore        = regexp.MustCompile(`\s+([,;:!?.])`)
	htmlTag            = regexp.MustCompile(`(?i)</?(?:i|b|u|font)(?:\s[^>]*)?>`)
)

var quoteReplacer = strings.NewReplacer(
	"“", `"`,
	"”", `"`,
	"‘", "'",
	"’", "'",
)

// Sanitize strips a leading enumeration marker such as "1. ", "2)" or "10、",
// collapses whitespace runs, and trims the result.
func Sanitize(line string) string {
	line = leadingEnumeration.ReplaceAllString(line, "")
	return strings.Join(strings.Fields(line), " ")
}

// NormalizePunctuation collapses whitespace, straightens curly quotes, and
// enforces one space after , ; : ! ? and none before , ; : . ! ?
func NormalizePunctuation(line string) string {
	line = whitespaceRun.ReplaceAllString(line, " ")
	line = quoteReplacer.Replace(line)
	line = missingSpaceAfter.ReplaceAllString(line, "${1} ${2}")
	line = spaceBefore.ReplaceAllString(line, "${1}")
	return strings.TrimSpace(line)
}

// RemoveHTMLTags drops the inline styling tags common in subtitle files and
// replaces ASS hard line breaks with a space.
func RemoveHTMLTags(line string) string {
	line = htmlTag.ReplaceAllString(line, "")
	line = strings.ReplaceAll(line, `\N`, " ")
	return strings.TrimSpace(line)
}

// ProcessBatch applies Sanitize, then the name map (when non-empty), then
// NormalizePunctuation (when enabled) to each line. Order and count are kept.
func ProcessBatch(lines []string, names NameMap, normalize bool) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		line = Sanitize(line)
		if names.Len() > 0 {
			line = ApplyNameMap(line, names)
		}
		if normalize {
			line = NormalizePunctuation(line)
		}
		out[i] = line
	}
	return out
}
