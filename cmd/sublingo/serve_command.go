package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sublingo/internal/api"
	"sublingo/internal/history"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve [project]",
		Short: "Serve the status API for a project and the run history",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			opts := api.Options{Runs: store, Logger: logger}
			if len(args) == 1 {
				proj, _, err := ctx.loadProject(args[0])
				if err != nil {
					return err
				}
				opts.Project = proj
			}

			addr := strings.TrimSpace(bind)
			if addr == "" {
				addr = cfg.Paths.APIBind
			}
			server := api.NewServer(addr, opts)
			if err := server.Start(cmd.Context()); err != nil {
				return fmt.Errorf("start status api: %w", err)
			}
			defer server.Stop()
			fmt.Fprintf(cmd.OutOrStdout(), "Status API listening on http://%s/api (Ctrl+C to stop)\n", server.Addr())

			<-cmd.Context().Done()
			return nil
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (default: paths.api_bind)")
	return cmd
}
