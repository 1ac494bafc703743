// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/scale-vision/runtime/internal/config"
	"github.com/scale-vision/runtime/internal/log"
	"github.com/scale-vision/runtime/internal/runtimeapp"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the ingestion/inference/decision pipeline and HTTP surface",
	RunE:  runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
	logger := log.WithComponent("cli")

	holder, err := config.NewConfigHolder(configPath)
	if err != nil {
		return err
	}

	app, err := runtimeapp.New(holder, "")
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info().Str("event", "run.starting").Str("config_path", configPath).Msg("starting scale-vision")
	return app.Run(ctx)
}
