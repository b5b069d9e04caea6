package dispatch

import (
	"fmt"
	"log/slog"

	"sublingo/internal/config"
	"sublingo/internal/services"
	"sublingo/internal/services/gemini"
	"sublingo/internal/services/llm"
)

// clientRetryAttempts caps in-client retries for chat completion providers.
// Rounds and fallbacks are driven by the dispatcher.
const clientRetryAttempts = 2

// ProvidersFromConfig builds primary and fallback providers from cfg in
// declared order.
func ProvidersFromConfig(cfg *config.Config) ([]Provider, []Provider, error) {
	if cfg == nil {
		return nil, nil, services.Wrap(services.ErrConfiguration, "dispatch", "providers", "config is nil", nil)
	}
	var primaries, fallbacks []Provider
	for _, pc := range cfg.Providers {
		client, err := NewClient(cfg, pc)
		if err != nil {
			return nil, nil, err
		}
		p := Provider{
			Name:              pc.Name,
			Client:            client,
			MaxConcurrent:     pc.MaxConcurrent,
			RequestsPerSecond: pc.RequestsPerSecond,
			Timeout:           pc.Timeout(),
		}
		if pc.Role == config.RoleFallback {
			fallbacks = append(fallbacks, p)
		} else {
			primaries = append(primaries, p)
		}
	}
	return primaries, fallbacks, nil
}

// NewClient constructs the wire client for one configured provider.
func NewClient(cfg *config.Config, pc config.Provider) (Completer, error) {
	model := cfg.ProviderModel(pc)
	switch pc.Kind {
	case config.KindGemini, "":
		return gemini.NewClient(gemini.Config{
			APIKey:         pc.APIKey,
			Endpoint:       pc.Endpoint,
			Model:          model,
			TimeoutSeconds: pc.TimeoutSeconds,
		}), nil
	case config.KindOpenAI:
		return llm.NewClient(llm.Config{
			APIKey:         pc.APIKey,
			BaseURL:        cfg.ResolvedEndpoint(pc),
			Model:          model,
			Title:          "sublingo",
			TimeoutSeconds: pc.TimeoutSeconds,
		}, llm.WithRetryMaxAttempts(clientRetryAttempts)), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "dispatch", "providers", fmt.Sprintf("provider %s: unsupported kind %q", pc.Name, pc.Kind), nil)
	}
}

// NewFromConfig builds a dispatcher using cfg for providers and tuning.
// Prompt, Sink, Observer and Logger come from opts; the rest is overwritten.
func NewFromConfig(cfg *config.Config, opts Options, logger *slog.Logger) (*Dispatcher, error) {
	primaries, fallbacks, err := ProvidersFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	opts.RetryRounds = cfg.Translation.RetryRounds
	opts.RetryDelay = cfg.RetryDelay()
	opts.RaceTimeout = cfg.RaceTimeout()
	opts.StrictScript = cfg.Translation.StrictScriptCheck
	opts.Normalize = cfg.Translation.NormalizePunctuation
	if opts.Prompt.SourceLanguage == "" {
		opts.Prompt.SourceLanguage = cfg.SourceLanguageName()
	}
	if opts.Prompt.TargetLanguage == "" {
		opts.Prompt.TargetLanguage = cfg.TargetLanguageName()
	}
	if opts.Prompt.Tone == "" {
		opts.Prompt.Tone = cfg.Translation.Tone
	}
	if logger != nil {
		opts.Logger = logger
	}
	return New(primaries, fallbacks, opts)
}
