package config

import "sublingo/internal/language"

// SourceLanguageName returns the English display name of the source language.
func (c *Config) SourceLanguageName() string {
	return language.DisplayName(c.Translation.SourceLanguage)
}

// TargetLanguageName returns the English display name of the target language.
func (c *Config) TargetLanguageName() string {
	return language.DisplayName(c.Translation.TargetLanguage)
}
