// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package cmd implements the scale-vision CLI commands, grounded on
// original_source/.../cli.py's argparse surface (run/install-check/ui,
// --config, --version).
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scale-vision/runtime/internal/log"
	"github.com/scale-vision/runtime/internal/version"
)

// defaultConfigPath mirrors cli.py's argparse default.
const defaultConfigPath = "/etc/scale-vision/config.json"

const configEnvVar = "SCALE_VISION_CONFIG"

var configPath string
var showVersion bool

var rootCmd = &cobra.Command{
	Use:   "scale-vision",
	Short: "Retail-scale vision recognition runtime",
	Long: `scale-vision ingests camera/file/rtsp frames, runs inference,
evaluates a bounded observation window, maps the decided class to a
product code, and emits it to a POS-facing output backend.

Running with no subcommand is equivalent to "scale-vision run".`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			printVersion()
			return nil
		}
		return runRun(cmd, args)
	},
}

// Execute runs the root command, mapping returned errors to the
// process exit codes cli.py's sys.exit(...) calls encode.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if code, ok := exitCode(err); ok {
			os.Exit(code)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", resolveDefaultConfigPath(), "path to config file")
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "show version and exit")
}

// resolveDefaultConfigPath lets SCALE_VISION_CONFIG override the
// compiled-in default, so a packaged install can relocate the config
// file without every invocation needing --config.
func resolveDefaultConfigPath() string {
	if v := os.Getenv(configEnvVar); v != "" {
		return v
	}
	return defaultConfigPath
}

func printVersion() {
	build, err := version.BuildID(".")
	if err != nil {
		fmt.Printf("scale-vision %s\n", version.Version)
		return
	}
	fmt.Printf("scale-vision %s -> %s.%s\n", version.Version, version.Version, build)
}

func init() {
	log.Configure(log.Config{Level: "info", Service: "scale-vision", Version: version.Version})
}
