// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package httpapi

import (
	"net/http"
	"os/exec"

	"github.com/scale-vision/runtime/internal/log"
)

// restartCommand is the best-effort OS-level restart invocation (spec
// §6: "spawn system restart command (best-effort)"). No Go library in
// the corpus wraps systemd unit control, so this shells out directly;
// the handler responds 202 regardless of outcome, since the running
// process may not survive long enough to report the exec result.
var restartCommand = []string{"systemctl", "restart", "scale-vision"}

func (s *Server) handleUIServiceRestart(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponent("httpapi")
	cmd := exec.Command(restartCommand[0], restartCommand[1:]...)
	if err := cmd.Start(); err != nil {
		logger.Warn().Err(err).Str("event", "ui.restart_spawn_failed").Msg("failed to spawn restart command")
	} else {
		go func() { _ = cmd.Wait() }()
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "restart requested"})
}
