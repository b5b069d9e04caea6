package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"sublingo/internal/config"
	"sublingo/internal/dispatch"
)

const pingTimeout = 20 * time.Second

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigShowCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !errors.Is(err, fs.ErrNotExist) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Set an api_key (or api_key_env) for each provider before translating.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	var ping bool

	cmd := &cobra.Command{
		Use:         "validate",
		Short:       "Validate the configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load(ctx.configPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", path)
			if !exists {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			fmt.Fprintln(out, "Configuration valid")
			if !ping {
				return nil
			}
			return pingProviders(cmd, cfg)
		},
	}

	cmd.Flags().BoolVar(&ping, "ping", false, "Send a health check request to every provider")
	return cmd
}

func pingProviders(cmd *cobra.Command, cfg *config.Config) error {
	rows := make([][]string, 0, len(cfg.Providers))
	failed := 0
	for _, pc := range cfg.Providers {
		client, err := dispatch.NewClient(cfg, pc)
		if err != nil {
			return err
		}
		result := "skipped"
		if checker, ok := client.(dispatch.HealthChecker); ok {
			pingCtx, cancel := context.WithTimeout(cmd.Context(), pingTimeout)
			err := checker.HealthCheck(pingCtx)
			cancel()
			if err != nil {
				failed++
				result = "error: " + truncate(err.Error(), 50)
			} else {
				result = "ok"
			}
		}
		rows = append(rows, []string{pc.Name, pc.Role, pc.Kind, result})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Provider", "Role", "Kind", "Health"}, rows, nil))
	if failed > 0 {
		return fmt.Errorf("%d of %d providers failed the health check", failed, len(cfg.Providers))
	}
	return nil
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, cfg.Summary())
			fmt.Fprintf(out, "Project dir: %s\n", cfg.Paths.ProjectDir)
			fmt.Fprintf(out, "History db: %s\n", cfg.Paths.HistoryDB)
			fmt.Fprintf(out, "Log dir: %s\n", cfg.Paths.LogDir)
			if len(cfg.Providers) == 0 {
				fmt.Fprintln(out, "No providers configured")
				return nil
			}
			rows := make([][]string, 0, len(cfg.Providers))
			for _, pc := range cfg.Providers {
				key := "missing"
				if strings.TrimSpace(pc.APIKey) != "" {
					key = "set"
				}
				rows = append(rows, []string{
					pc.Name,
					pc.Role,
					pc.Kind,
					cfg.ProviderModel(pc),
					strconv.Itoa(pc.MaxConcurrent),
					key,
					truncate(cfg.ResolvedEndpoint(pc), 48),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Name", "Role", "Kind", "Model", "Concurrency", "Key", "Endpoint"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}
}
