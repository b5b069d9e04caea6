package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"sublingo/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTranslation()
	if len(c.Providers) == 0 {
		c.Providers = legacyProviders()
	}
	c.normalizeProviders()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.ProjectDir) == "" {
		c.Paths.ProjectDir = defaultProjectDir
	}
	if c.Paths.ProjectDir, err = expandPath(c.Paths.ProjectDir); err != nil {
		return fmt.Errorf("paths.project_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.HistoryDB, err = expandPath(strings.TrimSpace(c.Paths.HistoryDB)); err != nil {
		return fmt.Errorf("paths.history_db: %w", err)
	}
	if c.Paths.NameMap, err = expandPath(strings.TrimSpace(c.Paths.NameMap)); err != nil {
		return fmt.Errorf("paths.name_map: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeTranslation() {
	t := &c.Translation
	t.Model = strings.TrimSpace(t.Model)
	if t.Model == "" {
		t.Model = legacyModel()
	}
	if t.Model == "" {
		t.Model = defaultModel
	}
	t.Tone = strings.TrimSpace(t.Tone)
	if t.Tone == "" {
		t.Tone = defaultTone
	}
	t.SourceLanguage = strings.TrimSpace(t.SourceLanguage)
	if t.SourceLanguage == "" {
		t.SourceLanguage = defaultSourceLanguage
	}
	t.TargetLanguage = strings.TrimSpace(t.TargetLanguage)
	if t.TargetLanguage == "" {
		t.TargetLanguage = defaultTargetLanguage
	}
	if canonical := language.Canonical(t.SourceLanguage); canonical != "" {
		t.SourceLanguage = canonical
	}
	if canonical := language.Canonical(t.TargetLanguage); canonical != "" {
		t.TargetLanguage = canonical
	}
	if t.RetryDelayMS < 0 {
		t.RetryDelayMS = 0
	}
	if t.TimeoutSeconds <= 0 {
		t.TimeoutSeconds = defaultTimeoutSeconds
	}
	t.InputEncoding = strings.ToLower(strings.TrimSpace(t.InputEncoding))
	if t.InputEncoding == "auto" {
		t.InputEncoding = ""
	}
}

func (c *Config) normalizeProviders() {
	for i := range c.Providers {
		p := &c.Providers[i]
		p.Name = strings.TrimSpace(p.Name)
		p.Kind = strings.ToLower(strings.TrimSpace(p.Kind))
		if p.Kind == "" {
			p.Kind = KindGemini
		}
		p.Role = strings.ToLower(strings.TrimSpace(p.Role))
		if p.Role == "" {
			p.Role = RolePrimary
		}
		if p.Name == "" {
			p.Name = fmt.Sprintf("%s-%d", p.Role, i+1)
		}
		p.Endpoint = strings.TrimSpace(p.Endpoint)
		if p.Endpoint == "" {
			switch p.Kind {
			case KindOpenAI:
				p.Endpoint = defaultOpenAIEndpoint
			default:
				p.Endpoint = defaultGeminiEndpoint
			}
		}
		p.Model = strings.TrimSpace(p.Model)
		p.APIKey = strings.TrimSpace(p.APIKey)
		p.APIKeyEnv = strings.TrimSpace(p.APIKeyEnv)
		if p.APIKey == "" && p.APIKeyEnv != "" {
			p.APIKey = strings.TrimSpace(os.Getenv(p.APIKeyEnv))
		}
		if p.MaxConcurrent == 0 {
			if p.Role == RoleFallback {
				p.MaxConcurrent = defaultFallbackConcurrency
			} else {
				p.MaxConcurrent = defaultPrimaryConcurrency
			}
		}
		if p.RequestsPerSecond < 0 {
			p.RequestsPerSecond = 0
		}
		if p.TimeoutSeconds <= 0 {
			p.TimeoutSeconds = defaultProviderTimeout
		}
	}
}

// legacyProviders builds Gemini providers from the GEMINI_* environment
// variables. Placeholder values copied from an example .env are ignored.
func legacyProviders() []Provider {
	endpoint := strings.TrimSpace(os.Getenv(legacyEndpointEnv))
	concurrency := 0
	if raw := strings.TrimSpace(os.Getenv(legacyConcurrencyEnv)); raw != "" {
		if value, err := strconv.ParseFloat(raw, 64); err == nil && value >= 1 {
			concurrency = int(value)
		}
	}
	var providers []Provider
	add := func(pattern, nameTemplate, role string, defaultConcurrency int) {
		for slot := 1; slot <= legacyKeySlots; slot++ {
			key := strings.TrimSpace(os.Getenv(fmt.Sprintf(pattern, slot)))
			if key == "" || strings.HasPrefix(key, legacyPlaceholderKeyPrefix) {
				continue
			}
			maxConcurrent := defaultConcurrency
			if concurrency > 0 {
				maxConcurrent = concurrency
			}
			providers = append(providers, Provider{
				Name:          fmt.Sprintf(nameTemplate, slot),
				Kind:          KindGemini,
				Endpoint:      endpoint,
				APIKey:        key,
				Role:          role,
				MaxConcurrent: maxConcurrent,
			})
		}
	}
	add(legacyPrimaryKeyEnvPattern, legacyPrimaryNameTemplate, RolePrimary, defaultPrimaryConcurrency)
	add(legacyFallbackKeyEnvPattern, legacyFallbackNameTemplate, RoleFallback, defaultFallbackConcurrency)
	return providers
}

// legacyModel returns DEFAULT_GEMINI_MODEL when it names a known model.
func legacyModel() string {
	model := strings.TrimSpace(os.Getenv(legacyModelEnv))
	for _, known := range KnownModels {
		if model == known {
			return model
		}
	}
	return ""
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
