// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package pipeline implements the single-consumer control loop that
// ties frame ingestion, inference, decision, mapping, safety gates, and
// output together (spec §4.8).
package pipeline

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/scale-vision/runtime/internal/config"
	"github.com/scale-vision/runtime/internal/decision"
	"github.com/scale-vision/runtime/internal/inference"
	"github.com/scale-vision/runtime/internal/ingestion"
	"github.com/scale-vision/runtime/internal/log"
	"github.com/scale-vision/runtime/internal/metrics"
	"github.com/scale-vision/runtime/internal/output"
	"github.com/scale-vision/runtime/internal/state"
	"github.com/scale-vision/runtime/internal/types"
)

// Control is the single consumer of a FrameBuffer: it runs inference,
// evaluates the decision engine, maps the decided class to a product
// code, applies the kill-switch/health safety gates, and emits to the
// output backend. Grounded 1:1 on original_source/main.py's run() loop
// body (the per-iteration block from `frame = buffer.get(...)` onward).
type Control struct {
	buffer  *ingestion.FrameBuffer
	state   *state.RuntimeState
	outSink output.Backend
	cfg     config.AppConfig
}

// New constructs a Control loop over an already-started FrameBuffer.
// The decision engine is not held directly: it is fetched from state on
// every iteration via state.Engine(), so a config reload can hot-swap it
// (spec §9's reload_if_changed resets the observation window) without
// restarting the loop.
func New(buffer *ingestion.FrameBuffer, st *state.RuntimeState, outSink output.Backend, cfg config.AppConfig) *Control {
	return &Control{buffer: buffer, state: st, outSink: outSink, cfg: cfg}
}

// Run blocks, consuming frames until ctx is cancelled.
func (c *Control) Run(ctx context.Context) {
	logger := log.WithComponent("control")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		frame, ok := c.buffer.Get(time.Second)
		if !ok {
			c.state.Health.SetDegraded(types.ReasonIngestionTimeout)
			continue
		}
		c.state.Health.ClearReason(types.ReasonIngestionTimeout)
		c.state.UpdateLastFrame(frame)

		backend := c.state.Backend()
		result, err := backend.Predict(frame)
		if err != nil {
			c.state.Health.SetDegraded(types.ReasonInferenceRuntimeFailed)
			logger.Error().Err(err).Str("event", "control.inference_runtime_failed").Msg("inference predict failed")
			if c.cfg.Inference.FallbackToStub && backend.Name() != "stub" {
				stub := inference.NewStubBackend(c.cfg.Inference.StubClasses, c.cfg.Inference.TopK)
				_ = stub.Load()
				c.state.SetBackend(stub)
				c.state.Health.ClearReason(types.ReasonInferenceRuntimeFailed)
			}
			continue
		}
		c.state.Health.ClearReason(types.ReasonInferenceRuntimeFailed)

		qualityOK := decision.QualityGate(result, 0.5, 0.5)
		healthState := c.state.Health.Snapshot()
		ingestionDegraded := anyReasonHasPrefix(healthState.Reasons, "INGESTION")
		ingestionOK := !ingestionDegraded || !c.cfg.Decision.BlockOnIngestionDegraded

		ev := c.state.Engine().Process(result, ingestionOK, qualityOK, frame.FrameID, frame.Timestamp)

		if ev.Emitted && ev.ClassID != "" {
			mapResult := c.state.Mapper().MapClass(ev.ClassID)
			if mapResult.Code == "" {
				ev.Emitted = false
				ev.ReasonCode = types.ReasonCode(mapResult.Reason)
			} else {
				ev.Code = mapResult.Code
			}
		}

		if ev.Emitted && ev.Code != "" {
			switch {
			case killSwitchActive(c.cfg.Safety.KillSwitchFile):
				ev.Emitted = false
				ev.ReasonCode = types.ReasonKillSwitch
			case healthState.Degraded:
				ev.Emitted = false
				ev.ReasonCode = types.ReasonHealthDegraded
			default:
				cmd := types.OutputCommand{RequestID: ev.RequestID, Code: ev.Code, Terminator: c.cfg.Output.Suffix}
				if err := c.outSink.Send(cmd); err != nil {
					c.state.Health.SetDegraded(types.ReasonOutputFailedHealth)
					ev.Emitted = false
					ev.ReasonCode = types.ReasonOutputFailed
					metrics.OutputFailuresTotal.WithLabelValues(c.outSink.Name()).Inc()
					logger.Error().Err(err).Str("event", "control.output_failed").Msg("output backend send failed")
				} else {
					c.state.Health.ClearReason(types.ReasonOutputFailedHealth)
					metrics.EmitTotal.Inc()
				}
			}
		}

		c.state.UpdateLastDecision(ev)
		logger.Info().
			Str("event", "control.decision").
			Str(log.FieldRequestID, ev.RequestID).
			Str("state", string(ev.State)).
			Bool("emitted", ev.Emitted).
			Str(log.FieldReasonCode, string(ev.ReasonCode)).
			Str(log.FieldClassID, ev.ClassID).
			Float32(log.FieldConfidence, ev.Confidence).
			Float32(log.FieldMargin, ev.Margin).
			Str(log.FieldCode, ev.Code).
			Str(log.FieldSource, frame.Source).
			Uint64(log.FieldFrameID, frame.FrameID).
			Msg("decision event")
	}
}

func anyReasonHasPrefix(reasons []string, prefix string) bool {
	for _, r := range reasons {
		if strings.HasPrefix(r, prefix) {
			return true
		}
	}
	return false
}

func killSwitchActive(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
