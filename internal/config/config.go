// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads, validates, and hot-reloads the pipeline's JSON
// configuration tree.
package config

import "fmt"

type NormalizeConfig struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	FPS    int `json:"fps"`
}

type BufferConfig struct {
	MaxMs      int    `json:"max_ms"`
	DropPolicy string `json:"drop_policy"`
	MaxFrames  int    `json:"max_frames"`
}

type CameraReconnectConfig struct {
	Enabled      bool `json:"enabled"`
	BackoffMs    int  `json:"backoff_ms"`
	MaxBackoffMs int  `json:"max_backoff_ms"`
}

type FreezeDetectionConfig struct {
	Enabled    bool `json:"enabled"`
	MaxStaleMs int  `json:"max_stale_ms"`
}

type CameraConfig struct {
	Device            string                `json:"device"`
	Backend           string                `json:"backend"`
	GstreamerPipeline string                `json:"gstreamer_pipeline"`
	Reconnect         CameraReconnectConfig `json:"reconnect"`
	FreezeDetection   FreezeDetectionConfig `json:"freeze_detection"`
}

type FileSourceConfig struct {
	Path         string `json:"path"`
	ReplayMode   string `json:"replay_mode"`
	Loop         bool   `json:"loop"`
	StartMs      int    `json:"start_ms"`
	DurationMs   int    `json:"duration_ms"`
	AllowMissing bool   `json:"allow_missing"`
}

type IngestionConfig struct {
	Source    string           `json:"source"`
	Normalize NormalizeConfig  `json:"normalize"`
	Buffer    BufferConfig     `json:"buffer"`
	Camera    CameraConfig     `json:"camera"`
	File      FileSourceConfig `json:"file"`
}

type ExternalExportConfig struct {
	Enabled        bool   `json:"enabled"`
	OutputOnnxPath string `json:"output_onnx_path"`
	InputSize      int    `json:"input_size"`
}

type ExternalModelConfig struct {
	Enabled    bool                 `json:"enabled"`
	Provider   string               `json:"provider"`
	RepoURL    string               `json:"repo_url"`
	Checkout   string               `json:"checkout"`
	InstallDir string               `json:"install_dir"`
	Export     ExternalExportConfig `json:"export"`
}

type InferenceConfig struct {
	Backend        string              `json:"backend"`
	ModelPath      string              `json:"model_path"`
	TopK           int                 `json:"top_k"`
	Device         string              `json:"device"`
	FallbackToStub bool                `json:"fallback_to_stub"`
	External       ExternalModelConfig `json:"external"`
	StubClasses    []string            `json:"stub_classes"`
}

type DecisionConfig struct {
	WindowMs                 int     `json:"window_ms"`
	MinConfidence            float64 `json:"min_confidence"`
	MinMargin                float64 `json:"min_margin"`
	CooldownMs               int     `json:"cooldown_ms"`
	RequireStableFrames      int     `json:"require_stable_frames"`
	SceneChangeThreshold     float64 `json:"scene_change_threshold"`
	BlockOnIngestionDegraded bool    `json:"block_on_ingestion_degraded"`
}

type MappingEntry struct {
	CodeType string   `json:"code_type"`
	Code     string   `json:"code"`
	Aliases  []string `json:"aliases"`
	Disabled bool     `json:"disabled"`
}

type MappingConfig struct {
	DefaultAction string                  `json:"default_action"`
	Classes       map[string]MappingEntry `json:"classes"`
}

type SerialConfig struct {
	Device      string `json:"device"`
	Baudrate    int    `json:"baudrate"`
	Parity      string `json:"parity"`
	Stopbits    int    `json:"stopbits"`
	Terminator  string `json:"terminator"`
	ReconnectMs int    `json:"reconnect_ms"`
}

type OutputConfig struct {
	Backend string       `json:"backend"`
	Suffix  string       `json:"suffix"`
	Serial  SerialConfig `json:"serial"`
}

type SafetyConfig struct {
	KillSwitchFile string `json:"kill_switch_file"`
}

type HTTPConfig struct {
	Enabled bool   `json:"enabled"`
	Bind    string `json:"bind"`
	Port    int    `json:"port"`
}

type LoggingConfig struct {
	Level       string `json:"level"`
	LogDir      string `json:"log_dir"`
	JSONLogFile string `json:"json_log_file"`
}

// AppConfig is the full, validated configuration tree (spec §6).
type AppConfig struct {
	Mode      string          `json:"mode"`
	Ingestion IngestionConfig `json:"ingestion"`
	Inference InferenceConfig `json:"inference"`
	Decision  DecisionConfig  `json:"decision"`
	Mapping   MappingConfig   `json:"mapping"`
	Output    OutputConfig    `json:"output"`
	Safety    SafetyConfig    `json:"safety"`
	HTTP      HTTPConfig      `json:"http"`
	Logging   LoggingConfig   `json:"logging"`
}

// Defaults returns an AppConfig populated with the spec's documented
// defaults (§3, `original_source/config/models.py`).
func Defaults() AppConfig {
	return AppConfig{
		Mode: "test",
		Ingestion: IngestionConfig{
			Source:    "file",
			Normalize: NormalizeConfig{Width: 640, Height: 640, FPS: 15},
			Buffer:    BufferConfig{MaxMs: 800, DropPolicy: "drop_oldest", MaxFrames: 30},
			Camera: CameraConfig{
				Device:          "/dev/video0",
				Backend:         "opencv",
				Reconnect:       CameraReconnectConfig{Enabled: true, BackoffMs: 1000, MaxBackoffMs: 10000},
				FreezeDetection: FreezeDetectionConfig{Enabled: true, MaxStaleMs: 1200},
			},
			File: FileSourceConfig{
				Path:         "/var/lib/scale-vision/samples/sample.ppm",
				ReplayMode:   "realtime",
				Loop:         true,
				AllowMissing: true,
			},
		},
		Inference: InferenceConfig{
			Backend:        "stub",
			ModelPath:      "/var/lib/scale-vision/models/model.onnx",
			TopK:           5,
			Device:         "cpu",
			FallbackToStub: true,
			External: ExternalModelConfig{
				Provider:   "kavan_patel",
				RepoURL:    "https://github.com/Kavan-Patel/Fruits-And-Vegetable-Detection-for-POS-with-Deep-Learning",
				Checkout:   "main",
				InstallDir: "/var/lib/scale-vision/models/external/kavan_patel",
				Export:     ExternalExportConfig{Enabled: true, OutputOnnxPath: "/var/lib/scale-vision/models/model_kavan_patel.onnx", InputSize: 640},
			},
			StubClasses: []string{},
		},
		Decision: DecisionConfig{
			WindowMs:                 800,
			MinConfidence:            0.78,
			MinMargin:                0.10,
			CooldownMs:               2500,
			RequireStableFrames:      8,
			SceneChangeThreshold:     0.40,
			BlockOnIngestionDegraded: true,
		},
		Mapping: MappingConfig{
			DefaultAction: "block",
			Classes:       map[string]MappingEntry{},
		},
		Output: OutputConfig{
			Backend: "test",
			Suffix:  "\n",
			Serial:  SerialConfig{Device: "/dev/ttyUSB0", Baudrate: 9600, Parity: "none", Stopbits: 1, Terminator: "\r\n", ReconnectMs: 1000},
		},
		Safety: SafetyConfig{KillSwitchFile: "/etc/scale-vision/disable_output"},
		HTTP:   HTTPConfig{Enabled: true, Bind: "127.0.0.1", Port: 8080},
		Logging: LoggingConfig{
			Level:       "INFO",
			LogDir:      "/var/log/scale-vision",
			JSONLogFile: "events.jsonl",
		},
	}
}

// Validate checks field ranges and enum membership. Unknown top-level or
// nested keys are rejected earlier, at decode time
// (json.Decoder.DisallowUnknownFields).
func Validate(cfg AppConfig) error {
	if cfg.Ingestion.Source != "file" && cfg.Ingestion.Source != "camera" && cfg.Ingestion.Source != "rtsp" {
		return fmt.Errorf("ingestion.source: invalid value %q", cfg.Ingestion.Source)
	}
	if cfg.Ingestion.Buffer.DropPolicy != "drop_oldest" && cfg.Ingestion.Buffer.DropPolicy != "drop_newest" {
		return fmt.Errorf("ingestion.buffer.drop_policy: invalid value %q", cfg.Ingestion.Buffer.DropPolicy)
	}
	if cfg.Ingestion.Buffer.MaxMs <= 0 {
		return fmt.Errorf("ingestion.buffer.max_ms: must be > 0")
	}
	if cfg.Ingestion.Normalize.Width <= 0 || cfg.Ingestion.Normalize.Height <= 0 {
		return fmt.Errorf("ingestion.normalize: width/height must be > 0")
	}
	if cfg.Inference.Backend != "stub" && cfg.Inference.Backend != "onnx" {
		return fmt.Errorf("inference.backend: invalid value %q", cfg.Inference.Backend)
	}
	if cfg.Inference.TopK <= 0 {
		return fmt.Errorf("inference.top_k: must be > 0")
	}
	if cfg.Decision.MinConfidence < 0 || cfg.Decision.MinConfidence > 1 {
		return fmt.Errorf("decision.min_confidence: must be in [0,1]")
	}
	if cfg.Decision.MinMargin < 0 || cfg.Decision.MinMargin > 1 {
		return fmt.Errorf("decision.min_margin: must be in [0,1]")
	}
	if cfg.Decision.WindowMs <= 0 {
		return fmt.Errorf("decision.window_ms: must be > 0")
	}
	if cfg.Decision.CooldownMs < 0 {
		return fmt.Errorf("decision.cooldown_ms: must be >= 0")
	}
	if cfg.Decision.RequireStableFrames <= 0 {
		return fmt.Errorf("decision.require_stable_frames: must be > 0")
	}
	if cfg.Mapping.DefaultAction != "block" && cfg.Mapping.DefaultAction != "allow" {
		return fmt.Errorf("mapping.default_action: invalid value %q", cfg.Mapping.DefaultAction)
	}
	if cfg.Output.Backend != "test" && cfg.Output.Backend != "serial" && cfg.Output.Backend != "hid" {
		return fmt.Errorf("output.backend: invalid value %q", cfg.Output.Backend)
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return fmt.Errorf("http.port: must be in (0,65535]")
	}
	return nil
}
