// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"

	"github.com/scale-vision/runtime/internal/config"
)

// handleUIConfigGet returns the structured "output" section only (spec
// §6's "structured output-section edit" — the only section the browser
// console edits field-by-field; everything else goes through the raw
// whole-file editor below).
func (s *Server) handleUIConfigGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.holder.Get().Output)
}

// handleUIConfigPost rewrites the output section in place, leaving every
// other top-level section's values unchanged (their whitespace is
// re-indented by the re-encode), then reloads through the
// same validated path WriteRaw uses. Note: re-encoding the surrounding
// document via encoding/json sorts top-level keys alphabetically, so this
// does not reproduce the original file's exact key order — only the
// raw whole-file editor (handleUIConfigRawPost) makes that literal
// byte-for-byte guarantee, since it writes the caller's bytes as-is.
func (s *Server) handleUIConfigPost(w http.ResponseWriter, r *http.Request) {
	var section config.OutputConfig
	if err := json.NewDecoder(r.Body).Decode(&section); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	path := s.holder.Path()
	raw, err := os.ReadFile(path)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	var doc map[string]json.RawMessage
	if err := json.NewDecoder(bytes.NewReader(raw)).Decode(&doc); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	sectionBytes, err := json.MarshalIndent(section, "", "  ")
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	doc["output"] = sectionBytes

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	out = append(out, '\n')

	if err := s.holder.WriteRaw(r.Context(), path, out); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, section)
}

// handleUIConfigRawGet returns the config file's exact bytes.
func (s *Server) handleUIConfigRawGet(w http.ResponseWriter, r *http.Request) {
	raw, err := os.ReadFile(s.holder.Path())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(raw)
}

// handleUIConfigRawPost validates-by-reparsing and writes the caller's
// bytes verbatim (spec §6: "whole-file edit; validates by re-parsing").
func (s *Server) handleUIConfigRawPost(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.holder.WriteRaw(r.Context(), s.holder.Path(), raw); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
