// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package mapper resolves a decided class-id to a product code via the
// configured mapping table and alias indirection (spec §4.5).
package mapper

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"sync"

	"github.com/scale-vision/runtime/internal/config"
	"github.com/scale-vision/runtime/internal/log"
	"github.com/scale-vision/runtime/internal/metrics"
	"github.com/scale-vision/runtime/internal/types"
)

// Mapper holds the current mapping table plus a derived alias→class-id
// lookup and a config checksum for change detection. Grounded 1:1 on
// original_source/mapping/mapper.py's Mapper.
type Mapper struct {
	mu       sync.RWMutex
	cfg      config.MappingConfig
	checksum string
	aliases  map[string]string
}

// New builds a Mapper from the initial mapping configuration.
func New(cfg config.MappingConfig) *Mapper {
	m := &Mapper{}
	m.Update(cfg)
	return m
}

// Update swaps in a new mapping configuration, recomputing the checksum
// and alias lookup. Safe to call concurrently with MapClass.
func (m *Mapper) Update(cfg config.MappingConfig) {
	checksum := computeChecksum(cfg)
	aliases := buildAliasLookup(cfg)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = cfg
	m.checksum = checksum
	m.aliases = aliases
}

// Checksum returns the sha256 hex digest of the current mapping config.
func (m *Mapper) Checksum() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.checksum
}

// MapClass resolves classID (following one alias indirection, if any)
// to a MapResult. A class with no table entry reports MAPPING_MISSING;
// a disabled entry reports MAPPING_DISABLED.
func (m *Mapper) MapClass(classID string) types.MapResult {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if canonical, ok := m.aliases[classID]; ok {
		classID = canonical
	}
	entry, ok := m.cfg.Classes[classID]
	if !ok {
		metrics.MappingMissesTotal.Inc()
		return types.MapResult{Reason: types.MappingMissing}
	}
	if entry.Disabled {
		return types.MapResult{Reason: types.MappingDisabled}
	}
	return types.MapResult{Code: entry.Code, Reason: types.MappingOK}
}

// Entry is a single mapping-table row, flattened for display (spec §6's
// GET /ui/mapping: "sorted list of mapping entries").
type Entry struct {
	ClassID  string   `json:"class_id"`
	CodeType string   `json:"code_type"`
	Code     string   `json:"code"`
	Aliases  []string `json:"aliases"`
	Disabled bool     `json:"disabled"`
}

// Entries returns the current mapping table as a slice sorted by class-id.
func (m *Mapper) Entries() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	classIDs := make([]string, 0, len(m.cfg.Classes))
	for id := range m.cfg.Classes {
		classIDs = append(classIDs, id)
	}
	sort.Strings(classIDs)

	entries := make([]Entry, 0, len(classIDs))
	for _, id := range classIDs {
		e := m.cfg.Classes[id]
		entries = append(entries, Entry{
			ClassID:  id,
			CodeType: e.CodeType,
			Code:     e.Code,
			Aliases:  e.Aliases,
			Disabled: e.Disabled,
		})
	}
	return entries
}

func computeChecksum(cfg config.MappingConfig) string {
	// encoding/json marshals map keys in sorted order, matching the
	// original's json.dumps(..., sort_keys=True).
	payload, err := json.Marshal(cfg)
	if err != nil {
		log.Base().Error().Err(err).Str("event", "mapper.checksum_failed").Msg("failed to marshal mapping config")
		return ""
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// buildAliasLookup builds the alias->class-id table. The original Python
// iterates a dict in insertion order with no documented tie-break for an
// alias claimed by more than one class; this implementation instead
// visits class-ids in sorted order, so the lexicographically-first
// class-id wins any conflict deterministically regardless of the
// config file's key order (spec's open question on alias-conflict
// policy, resolved explicitly here).
func buildAliasLookup(cfg config.MappingConfig) map[string]string {
	classIDs := make([]string, 0, len(cfg.Classes))
	for id := range cfg.Classes {
		classIDs = append(classIDs, id)
	}
	sort.Strings(classIDs)

	lookup := make(map[string]string)
	for _, classID := range classIDs {
		for _, alias := range cfg.Classes[classID].Aliases {
			if _, exists := lookup[alias]; !exists {
				lookup[alias] = classID
			}
		}
	}
	return lookup
}
