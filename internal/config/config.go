package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains file locations and the status API bind address.
type Paths struct {
	ProjectDir string `toml:"project_dir"`
	LogDir     string `toml:"log_dir"`
	HistoryDB  string `toml:"history_db"`
	NameMap    string `toml:"name_map"`
	APIBind    string `toml:"api_bind"`
}

// Translation contains batch, retry, and post-processing settings.
type Translation struct {
	Model                string `toml:"model"`
	ChunkSize            int    `toml:"chunk_size"`
	RetryRounds          int    `toml:"retry_rounds"`
	RetryDelayMS         int    `toml:"retry_delay_ms"`
	Tone                 string `toml:"tone"`
	SourceLanguage       string `toml:"source_language"`
	TargetLanguage       string `toml:"target_language"`
	StrictScriptCheck    bool   `toml:"strict_script_check"`
	NormalizePunctuation bool   `toml:"normalize_punctuation"`
	RemoveHTMLTags       bool   `toml:"remove_html_tags"`
	// TimeoutSeconds bounds each fallback race.
	TimeoutSeconds int    `toml:"timeout_seconds"`
	InputEncoding  string `toml:"input_encoding"`
}

// Provider describes one remote translation endpoint.
type Provider struct {
	Name     string `toml:"name"`
	Kind     string `toml:"kind"`
	Endpoint string `toml:"endpoint"`
	// Model overrides translation.model for this provider.
	Model             string  `toml:"model"`
	APIKey            string  `toml:"api_key"`
	APIKeyEnv         string  `toml:"api_key_env"`
	Role              string  `toml:"role"`
	MaxConcurrent     int     `toml:"max_concurrent"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for sublingo.
type Config struct {
	Paths       Paths       `toml:"paths"`
	Translation Translation `toml:"translation"`
	Providers   []Provider  `toml:"providers"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/sublingo/config.toml")
}

// Load locates, parses, and validates a configuration file. A .env file next
// to the config file or in the working directory is loaded first; existing
// environment variables win.
func Load(path string) (*Config, string, bool, error) {
	return load(path, true)
}

// LoadLocal is Load without the provider checks, for commands that only
// read or edit project files.
func LoadLocal(path string) (*Config, string, bool, error) {
	return load(path, false)
}

func load(path string, requireProviders bool) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}
	loadDotEnv(resolvedPath)

	// An unset model falls back to DEFAULT_GEMINI_MODEL during normalize.
	cfg.Translation.Model = ""
	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.validate(requireProviders); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("sublingo.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func loadDotEnv(configPath string) {
	candidates := []string{".env"}
	if configPath != "" {
		candidates = append(candidates, filepath.Join(filepath.Dir(configPath), ".env"))
	}
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			_ = godotenv.Load(candidate)
		}
	}
}

// EnsureDirectories creates the project, log, and history directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.ProjectDir, c.Paths.LogDir}
	if c.Paths.HistoryDB != "" {
		dirs = append(dirs, filepath.Dir(c.Paths.HistoryDB))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// PrimaryProviders returns the primary providers in declared order.
func (c *Config) PrimaryProviders() []Provider {
	return c.providersByRole(RolePrimary)
}

// FallbackProviders returns the fallback providers in declared order.
func (c *Config) FallbackProviders() []Provider {
	return c.providersByRole(RoleFallback)
}

func (c *Config) providersByRole(role string) []Provider {
	var out []Provider
	for _, p := range c.Providers {
		if p.Role == role {
			out = append(out, p)
		}
	}
	return out
}

// ProviderModel returns the model a provider should request.
func (c *Config) ProviderModel(p Provider) string {
	if p.Model != "" {
		return p.Model
	}
	return c.Translation.Model
}

// ResolvedEndpoint substitutes {model} in the provider endpoint.
func (c *Config) ResolvedEndpoint(p Provider) string {
	return strings.ReplaceAll(p.Endpoint, "{model}", c.ProviderModel(p))
}

// RetryDelay returns the pause between fallback rounds.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Translation.RetryDelayMS) * time.Millisecond
}

// RaceTimeout returns the bound applied to each fallback race.
func (c *Config) RaceTimeout() time.Duration {
	return time.Duration(c.Translation.TimeoutSeconds) * time.Second
}

// Timeout returns the per-request HTTP timeout for a provider.
func (p Provider) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// Summary renders the effective settings in a short human readable block.
func (c *Config) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Model: %s\n", c.Translation.Model)
	fmt.Fprintf(&b, "Languages: %s -> %s\n", c.SourceLanguageName(), c.TargetLanguageName())
	fmt.Fprintf(&b, "Primary providers: %d\n", len(c.PrimaryProviders()))
	fmt.Fprintf(&b, "Fallback providers: %d\n", len(c.FallbackProviders()))
	fmt.Fprintf(&b, "Chunk size: %d\n", c.Translation.ChunkSize)
	fmt.Fprintf(&b, "Retry rounds: %d (delay %s)\n", c.Translation.RetryRounds, c.RetryDelay())
	fmt.Fprintf(&b, "Race timeout: %s\n", c.RaceTimeout())
	fmt.Fprintf(&b, "Tone: %s\n", c.Translation.Tone)
	fmt.Fprintf(&b, "Strict script check: %t\n", c.Translation.StrictScriptCheck)
	if c.Paths.NameMap != "" {
		fmt.Fprintf(&b, "Name map: %s\n", c.Paths.NameMap)
	}
	return b.String()
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
