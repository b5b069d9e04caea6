package config

import (
	"fmt"
	"slices"
	"strings"

	"sublingo/internal/language"
	"sublingo/internal/services"
)

// Validate ensures the configuration is usable. Every error wraps
// services.ErrConfiguration.
func (c *Config) Validate() error {
	return c.validate(true)
}

func (c *Config) validate(requireProviders bool) error {
	if err := c.validateTranslation(); err != nil {
		return err
	}
	if requireProviders {
		if err := c.validateProviders(); err != nil {
			return err
		}
	}
	return c.validateLogging()
}

func (c *Config) validateTranslation() error {
	t := c.Translation
	if t.ChunkSize < 1 {
		return configError("translation.chunk_size must be >= 1")
	}
	if t.RetryRounds < 0 {
		return configError("translation.retry_rounds must be >= 0")
	}
	if t.TimeoutSeconds <= 0 {
		return configError("translation.timeout_seconds must be positive")
	}
	if _, err := language.Parse(t.SourceLanguage); err != nil {
		return configError(fmt.Sprintf("translation.source_language: %v", err))
	}
	if _, err := language.Parse(t.TargetLanguage); err != nil {
		return configError(fmt.Sprintf("translation.target_language: %v", err))
	}
	return nil
}

func (c *Config) validateProviders() error {
	if len(c.Providers) == 0 {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/sublingo/config.toml"
		}
		return configError(fmt.Sprintf("no providers configured. Add [[providers]] to %s (create with 'sublingo config init') or set GEMINI_PRIMARY_API1_KEY", defaultPath))
	}
	seen := make(map[string]struct{}, len(c.Providers))
	primaries := 0
	for _, p := range c.Providers {
		key := strings.ToLower(p.Name)
		if _, dup := seen[key]; dup {
			return configError(fmt.Sprintf("providers: duplicate name %q", p.Name))
		}
		seen[key] = struct{}{}
		switch p.Kind {
		case KindGemini, KindOpenAI:
		default:
			return configError(fmt.Sprintf("providers.%s.kind must be %q or %q", p.Name, KindGemini, KindOpenAI))
		}
		switch p.Role {
		case RolePrimary:
			primaries++
		case RoleFallback:
		default:
			return configError(fmt.Sprintf("providers.%s.role must be %q or %q", p.Name, RolePrimary, RoleFallback))
		}
		if p.MaxConcurrent < 1 {
			return configError(fmt.Sprintf("providers.%s.max_concurrent must be >= 1", p.Name))
		}
		if p.APIKey == "" {
			return configError(fmt.Sprintf("providers.%s: api key missing (set api_key or api_key_env)", p.Name))
		}
		if p.Kind == KindGemini && p.Endpoint == defaultGeminiEndpoint {
			if model := c.ProviderModel(p); !slices.Contains(KnownModels, model) {
				return configError(fmt.Sprintf("providers.%s: unknown model %q", p.Name, model))
			}
		}
	}
	if primaries == 0 {
		return configError("providers: at least one provider must have role \"primary\"")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return configError(fmt.Sprintf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
}

func configError(msg string) error {
	return services.Wrap(services.ErrConfiguration, "config", "validate", msg, nil)
}
