// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/scale-vision/runtime/internal/config"
)

var installCheckCmd = &cobra.Command{
	Use:   "install-check",
	Short: "Check that the configured hardware/model prerequisites are present",
	RunE:  runInstallCheck,
}

func init() {
	rootCmd.AddCommand(installCheckCmd)
}

// runInstallCheck mirrors cli.py's install_check(): a missing config file
// is reported as config_missing and an unparsable or invalid one as
// config_invalid (both exit 2); otherwise it reports which of the
// configured prerequisites are unmet.
func runInstallCheck(cmd *cobra.Command, _ []string) error {
	if _, err := os.Stat(configPath); err != nil {
		fmt.Printf("install-check: FAIL\n- config_missing:%s\n", configPath)
		return newExitError(2, "install-check failed")
	}

	holder, err := config.NewConfigHolder(configPath)
	if err != nil {
		fmt.Printf("install-check: FAIL\n- config_invalid:%s\n", err)
		return newExitError(2, "install-check failed")
	}
	cfg := holder.Get()

	var issues []string

	if cfg.Ingestion.Source == "camera" {
		matches, _ := filepath.Glob("/dev/video*")
		if len(matches) == 0 {
			issues = append(issues, "camera_device_missing")
		}
	}

	if cfg.Output.Backend == "serial" {
		usb, _ := filepath.Glob("/dev/ttyUSB*")
		acm, _ := filepath.Glob("/dev/ttyACM*")
		if len(usb)+len(acm) == 0 {
			issues = append(issues, "serial_device_missing")
		}
	}

	if cfg.Inference.Backend == "onnx" {
		if _, err := os.Stat(cfg.Inference.ModelPath); err != nil {
			issues = append(issues, "onnx_model_missing")
		}
		// No ONNX runtime is linked into this binary.
		issues = append(issues, "onnxruntime_missing")
	}

	if len(issues) == 0 {
		fmt.Println("install-check: OK")
		return nil
	}
	fmt.Println("install-check: FAIL")
	for _, issue := range issues {
		fmt.Printf("- %s\n", issue)
	}
	return newExitError(2, "install-check failed")
}
