package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"sublingo/internal/config"
	"sublingo/internal/logging"
	"sublingo/internal/project"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

// ensureConfig loads the configuration without provider checks; commands
// that dispatch call requireProviders.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.LoadLocal(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.ToLower(strings.TrimSpace(*c.logLevelFlag))
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) requireProviders() (*config.Config, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ensureLogger builds the logger once and prunes expired log files.
func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.loggerErr = fmt.Errorf("init logger: %w", err)
			return
		}
		current := logging.LogFilePath(cfg.Paths.LogDir, time.Now())
		logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, cfg.Paths.LogDir, logging.LogFilePattern, current)
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// resolveProjectPath accepts a path, a file name inside paths.project_dir, or
// a bare project name.
func (c *commandContext) resolveProjectPath(arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", errors.New("project path is required")
	}
	candidates := []string{arg}
	if cfg, err := c.ensureConfig(); err == nil && !filepath.IsAbs(arg) {
		candidates = append(candidates,
			filepath.Join(cfg.Paths.ProjectDir, arg),
			filepath.Join(cfg.Paths.ProjectDir, arg+project.FileSuffix),
		)
	}
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("check project path: %w", err)
		}
	}
	return "", fmt.Errorf("project %s not found", arg)
}

func (c *commandContext) loadProject(arg string) (*project.Project, string, error) {
	path, err := c.resolveProjectPath(arg)
	if err != nil {
		return nil, "", err
	}
	p, err := project.Load(path)
	if err != nil {
		return nil, "", fmt.Errorf("load project: %w", err)
	}
	return p, path, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if limit <= 0 || len(runes) <= limit {
		return value
	}
	if limit <= 1 {
		return string(runes[:limit])
	}
	return string(runes[:limit-1]) + "…"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
