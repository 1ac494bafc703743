// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package httpapi

import (
	"net/http"
	"os"
)

// uiStatusResponse is the browser console's system summary (spec §6's
// "GET /ui/status → system summary (backends, counts, paths existence)").
type uiStatusResponse struct {
	Mode             string `json:"mode"`
	IngestionSource  string `json:"ingestion_source"`
	InferenceBackend string `json:"inference_backend"`
	OutputBackend    string `json:"output_backend"`
	MappingEntries   int    `json:"mapping_entries"`
	MappingChecksum  string `json:"mapping_checksum"`
	ConfigPath       string `json:"config_path"`

	ModelPathExists      bool `json:"model_path_exists"`
	CameraDeviceExists   bool `json:"camera_device_exists"`
	SerialDeviceExists   bool `json:"serial_device_exists"`
	KillSwitchFileExists bool `json:"kill_switch_file_exists"`
}

func pathExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func (s *Server) handleUIStatus(w http.ResponseWriter, r *http.Request) {
	cfg := s.holder.Get()
	mapping := s.state.Mapper().Entries()

	writeJSON(w, http.StatusOK, uiStatusResponse{
		Mode:                 cfg.Mode,
		IngestionSource:      cfg.Ingestion.Source,
		InferenceBackend:     s.state.Backend().Name(),
		OutputBackend:        cfg.Output.Backend,
		MappingEntries:       len(mapping),
		MappingChecksum:      s.state.Mapper().Checksum(),
		ConfigPath:           s.holder.Path(),
		ModelPathExists:      pathExists(cfg.Inference.ModelPath),
		CameraDeviceExists:   pathExists(cfg.Ingestion.Camera.Device),
		SerialDeviceExists:   pathExists(cfg.Output.Serial.Device),
		KillSwitchFileExists: pathExists(cfg.Safety.KillSwitchFile),
	})
}

func (s *Server) handleUIMapping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.state.Mapper().Entries())
}
