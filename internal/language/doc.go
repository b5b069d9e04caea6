// Package language normalizes the source and target language settings.
//
// Codes are parsed as BCP 47 tags with golang.org/x/text/language, so ISO
// 639-1, ISO 639-2 and region or script subtags all work. English word forms
// such as "vietnamese" are accepted as a convenience. DisplayName produces the
// English name used in translation prompts.
package language
