// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scale-vision/runtime/internal/config"
)

var uiURL string

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Open the browser console in a desktop window",
	RunE:  runUI,
}

func init() {
	uiCmd.Flags().StringVar(&uiURL, "url", "", "override UI URL (default derived from config)")
	rootCmd.AddCommand(uiCmd)
}

// runUI re-implements desktop_app.py's launch_app. The original shells
// out to pywebview and requires a desktop session (DISPLAY or
// WAYLAND_DISPLAY); no cross-platform webview binding is wired
// anywhere in the pack (see DESIGN.md), so this writes the same
// wait-page HTML to a temp file and opens it with the platform's
// default URL handler instead of embedding a native webview.
func runUI(cmd *cobra.Command, _ []string) error {
	if runtime.GOOS == "linux" && os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == "" {
		fmt.Fprintln(os.Stderr, "scale-vision ui: no desktop session detected (DISPLAY/WAYLAND_DISPLAY missing)")
		return newExitError(2, "no desktop session")
	}

	target := uiURL
	if target == "" {
		holder, err := config.NewConfigHolder(configPath)
		if err != nil {
			return err
		}
		target = defaultUIURL(holder.Get())
	}

	page := waitPageHTML(target)
	tmp, err := os.CreateTemp("", "scale-vision-ui-*.html")
	if err != nil {
		return err
	}
	defer tmp.Close()
	if _, err := tmp.WriteString(page); err != nil {
		return err
	}

	return openInBrowser(tmp.Name())
}

// defaultUIURL mirrors desktop_app.py's _default_url: a wildcard bind
// address isn't a browsable host, so it's rewritten to loopback.
func defaultUIURL(cfg config.AppConfig) string {
	host := cfg.HTTP.Bind
	switch host {
	case "0.0.0.0", "::", "[::]":
		host = "127.0.0.1"
	}
	return fmt.Sprintf("http://%s:%d/", host, cfg.HTTP.Port)
}

func openInBrowser(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	fileURL := "file://" + abs

	var name string
	var args []string
	switch runtime.GOOS {
	case "darwin":
		name, args = "open", []string{fileURL}
	case "windows":
		name, args = "rundll32", []string{"url.dll,FileProtocolHandler", fileURL}
	default:
		name, args = "xdg-open", []string{fileURL}
	}
	return exec.Command(name, args...).Start()
}

// waitPageHTML ports desktop_app.py's _wait_page: a small page that
// polls targetURL/health and redirects once the service answers.
func waitPageHTML(targetURL string) string {
	base := strings.TrimSuffix(targetURL, "/")
	health := base + "/health"

	return `<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>scale-vision - starting</title>
    <style>
      body { font-family: "Ubuntu", "DejaVu Sans", sans-serif; background: #f7fbff; color: #0f172a;
             min-height: 100vh; display: grid; place-items: center; margin: 0; }
      .card { background: #fff; border: 1px solid rgba(15,23,42,.12); border-radius: 18px; padding: 28px;
              width: min(520px, 90vw); box-shadow: 0 16px 40px rgba(15,23,42,.12); }
      h1 { margin: 0 0 8px; font-size: 22px; }
      p { margin: 0; color: #4b5563; }
      .hint { margin-top: 14px; font-size: 12px; color: #4b5563; }
    </style>
  </head>
  <body>
    <div class="card">
      <h1>Launching scale-vision UI</h1>
      <p id="statusText">Waiting for the local service to respond...</p>
      <div class="hint" id="hint"></div>
    </div>
    <script>
      const baseUrl = "` + base + `";
      const healthUrl = "` + health + `";
      const statusText = document.getElementById("statusText");
      const hint = document.getElementById("hint");
      async function poll() {
        try {
          await fetch(healthUrl, { cache: "no-store", mode: "no-cors" });
          statusText.textContent = "Service ready. Loading UI...";
          window.location.href = baseUrl + "/";
          return;
        } catch (err) {
          statusText.textContent = "Service not ready";
          hint.textContent = "Make sure the daemon is running: " + healthUrl;
        }
        setTimeout(poll, 1500);
      }
      poll();
    </script>
  </body>
</html>`
}
