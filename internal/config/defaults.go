package config

const (
	defaultProjectDir           = "~/.local/share/sublingo/projects"
	defaultLogDir               = "~/.local/share/sublingo/logs"
	defaultHistoryDB            = "~/.local/share/sublingo/history.db"
	defaultAPIBind              = "127.0.0.1:7490"
	defaultModel                = "gemini-2.5-flash"
	defaultChunkSize            = 10
	defaultRetryRounds          = 3
	defaultRetryDelayMS         = 500
	defaultTone                 = "conversational"
	defaultSourceLanguage       = "zh"
	defaultTargetLanguage       = "vi"
	defaultTimeoutSeconds       = 30
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogRetentionDays     = 30
	defaultPrimaryConcurrency   = 5
	defaultFallbackConcurrency  = 2
	defaultGeminiEndpoint       = "https://generativelanguage.googleapis.com/v1beta/models/{model}:generateContent"
	defaultOpenAIEndpoint       = "https://openrouter.ai/api/v1/chat/completions"
	defaultProviderTimeout      = 60
	legacyPlaceholderKeyPrefix  = "your_"
	legacyPrimaryNameTemplate   = "Primary-%d"
	legacyFallbackNameTemplate  = "Fallback-%d"
	legacyEndpointEnv           = "GEMINI_API_ENDPOINT"
	legacyModelEnv              = "DEFAULT_GEMINI_MODEL"
	legacyConcurrencyEnv        = "RATE_LIMIT_PER_API"
	legacyPrimaryKeyEnvPattern  = "GEMINI_PRIMARY_API%d_KEY"
	legacyFallbackKeyEnvPattern = "GEMINI_FALLBACK_API%d_KEY"
	legacyKeySlots              = 2
)

// Provider kinds.
const (
	KindGemini = "gemini"
	KindOpenAI = "openai"
)

// Provider roles.
const (
	RolePrimary  = "primary"
	RoleFallback = "fallback"
)

// KnownModels lists the Gemini models accepted when a provider uses the
// default Gemini endpoint.
var KnownModels = []string{
	"gemini-2.5-flash",
	"gemini-2.5-flash-lite",
	"gemini-2.0-flash",
	"gemini-2.0-flash-lite",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ProjectDir: defaultProjectDir,
			LogDir:     defaultLogDir,
			HistoryDB:  defaultHistoryDB,
			APIBind:    defaultAPIBind,
		},
		Translation: Translation{
			Model:                defaultModel,
			ChunkSize:            defaultChunkSize,
			RetryRounds:          defaultRetryRounds,
			RetryDelayMS:         defaultRetryDelayMS,
			Tone:                 defaultTone,
			SourceLanguage:       defaultSourceLanguage,
			TargetLanguage:       defaultTargetLanguage,
			StrictScriptCheck:    true,
			NormalizePunctuation: true,
			RemoveHTMLTags:       true,
			TimeoutSeconds:       defaultTimeoutSeconds,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
