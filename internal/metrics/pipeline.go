// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package metrics provides Prometheus metrics collection for the
// ingestion, decision, and output stages of the vision pipeline.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion gauges, published by the IngestionRunner once per frame.
	FPSIn = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scalevision_ingestion_fps_in",
		Help: "Frames per second arriving from the configured source",
	})
	FPSProcessed = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scalevision_ingestion_fps_processed",
		Help: "Frames per second accepted into the frame buffer",
	})
	QueueMs = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scalevision_ingestion_queue_ms",
		Help: "Age in milliseconds of the oldest frame sitting in the buffer",
	})
	UsingSynthetic = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scalevision_ingestion_using_synthetic",
		Help: "1 if the ingestion source has fallen back to a synthetic frame generator",
	})

	FrameDropsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scalevision_frame_drops_total",
		Help: "Total number of frames dropped by the buffer, by reason",
	}, []string{"reason"}) // reason=buffer_full|stale|decode_error

	ReconnectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scalevision_ingestion_reconnects_total",
		Help: "Total number of source reconnection attempts",
	})
	StaleEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scalevision_ingestion_stale_events_total",
		Help: "Total number of stale-frame events raised by freeze detection",
	})

	// Inference.
	InferenceLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "scalevision_inference_latency_seconds",
		Help:    "Time spent in InferenceBackend.Predict",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms..~2s
	})
	InferenceErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scalevision_inference_errors_total",
		Help: "Total number of inference failures by kind",
	}, []string{"kind"}) // kind=load|runtime

	// Decision engine.
	DecisionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scalevision_decision_total",
		Help: "Total number of decision events by state and reason code",
	}, []string{"state", "reason"})

	EmitTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scalevision_emit_total",
		Help: "Total number of product-code emissions",
	})

	// Mapping and output.
	MappingMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scalevision_mapping_misses_total",
		Help: "Total number of decided classes with no mapping entry",
	})
	OutputFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scalevision_output_failures_total",
		Help: "Total number of output backend write failures by backend",
	}, []string{"backend"})

	// Build info, set once at startup.
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "scalevision_build_info",
		Help: "Build metadata; value is always 1",
	}, []string{"version", "build_id"})

	UptimeSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scalevision_uptime_seconds",
		Help: "Seconds since process start",
	})
)

// RecordFrameDrop increments the frame-drop counter for a normalized reason.
func RecordFrameDrop(reason string) {
	switch normalizeLabel(reason) {
	case "buffer_full", "stale", "decode_error":
		FrameDropsTotal.WithLabelValues(normalizeLabel(reason)).Inc()
	default:
		FrameDropsTotal.WithLabelValues("unknown").Inc()
	}
}

// RecordDecision records one DecisionEngine.Process outcome.
func RecordDecision(state, reason string) {
	DecisionTotal.WithLabelValues(normalizeLabel(state), normalizeLabel(reason)).Inc()
}

func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "unknown"
	}
	return s
}
