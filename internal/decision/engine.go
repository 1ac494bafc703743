// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package decision

import (
	"fmt"
	"sync"

	"github.com/scale-vision/runtime/internal/config"
	"github.com/scale-vision/runtime/internal/metrics"
	"github.com/scale-vision/runtime/internal/types"
)

type observation struct {
	timestamp float64
	classID   string
	prob      float64
}

// internalState is the engine's persistent state. The LOCKED value the
// engine reports to callers on emission is transient: the stored state
// jumps straight from OBSERVING to COOLDOWN in the same Process call.
type internalState string

const (
	stateIdle      internalState = "IDLE"
	stateObserving internalState = "OBSERVING"
	stateCooldown  internalState = "COOLDOWN"
)

// Engine is the single-instance, not-concurrency-safe-by-design state
// machine described in spec §4.4 (guarded externally by the control
// loop's single-consumer ownership, mirroring the Python original's
// single-threaded GIL-bound loop). The mutex here exists only so status
// reads (e.g. from the HTTP surface) don't race the control loop.
type Engine struct {
	mu sync.Mutex

	cfg config.DecisionConfig

	state        internalState
	observations []observation
	lockedClass  string
	lastEmitTS   float64
}

// NewEngine constructs an Engine starting in IDLE.
func NewEngine(cfg config.DecisionConfig) *Engine {
	return &Engine{cfg: cfg, state: stateIdle}
}

func (e *Engine) reset() {
	e.state = stateIdle
	e.observations = nil
	e.lockedClass = ""
	e.lastEmitTS = 0
}

func (e *Engine) trimWindow(now float64) {
	windowS := float64(e.cfg.WindowMs) / 1000.0
	kept := e.observations[:0]
	for _, obs := range e.observations {
		if now-obs.timestamp <= windowS {
			kept = append(kept, obs)
		}
	}
	e.observations = kept
}

func (e *Engine) stableFrames(classID string) int {
	n := 0
	for _, obs := range e.observations {
		if obs.classID == classID {
			n++
		}
	}
	return n
}

// Process advances the engine by one inference result. ingestionOK and
// qualityOK gate entry into voting; a failure on either resets the
// engine to IDLE, matching the original's "any degradation clears
// accumulated observations" behavior. Grounded 1:1 on
// original_source/decision/state_machine.py's DecisionEngine.process.
func (e *Engine) Process(inference types.InferenceResult, ingestionOK, qualityOK bool, frameID uint64, timestamp float64) types.DecisionEvent {
	e.mu.Lock()
	defer e.mu.Unlock()

	requestID := fmt.Sprintf("%d-%d", int64(timestamp*1000), frameID)

	emit := func(state types.State, emitted bool, reason types.ReasonCode, classID string, confidence, margin float32, code string) types.DecisionEvent {
		metrics.RecordDecision(string(state), string(reason))
		return types.DecisionEvent{
			RequestID:  requestID,
			Timestamp:  timestamp,
			State:      state,
			Emitted:    emitted,
			ReasonCode: reason,
			ClassID:    classID,
			Confidence: confidence,
			Margin:     margin,
			Code:       code,
		}
	}

	if !ingestionOK {
		e.reset()
		return emit(types.State(e.state), false, types.ReasonIngestionDegraded, "", 0, 0, "")
	}
	if !qualityOK {
		e.reset()
		return emit(types.State(e.state), false, types.ReasonQualityGate, "", 0, 0, "")
	}
	if len(inference.TopK) == 0 {
		e.reset()
		return emit(types.State(e.state), false, types.ReasonNoPrediction, "", 0, 0, "")
	}

	top1 := inference.Top1()

	if e.state == stateIdle {
		e.state = stateObserving
		e.observations = nil
	}

	if e.state == stateObserving {
		e.observations = append(e.observations, observation{timestamp: timestamp, classID: top1.ClassID, prob: float64(top1.Prob)})
		e.trimWindow(timestamp)

		voteItems := make([]types.ClassProb, len(e.observations))
		for i, obs := range e.observations {
			voteItems[i] = types.ClassProb{ClassID: obs.classID, Prob: float32(obs.prob)}
		}
		topClass, topProb, margin := weightedVote(voteItems)
		stable := e.stableFrames(topClass)

		if topProb >= e.cfg.MinConfidence && margin >= e.cfg.MinMargin && stable >= e.cfg.RequireStableFrames {
			e.state = stateCooldown
			e.lockedClass = topClass
			e.lastEmitTS = timestamp
			return emit(types.StateLocked, true, types.ReasonEmit, topClass, float32(topProb), float32(margin), "")
		}

		if windowAge := timestamp - e.observations[0].timestamp; windowAge > float64(e.cfg.WindowMs)/1000.0 {
			e.reset()
			return emit(types.State(e.state), false, types.ReasonWindowExpired, topClass, float32(topProb), float32(margin), "")
		}

		return emit(types.StateObserving, false, types.ReasonObserving, topClass, float32(topProb), float32(margin), "")
	}

	if e.state == stateCooldown {
		cooldownS := float64(e.cfg.CooldownMs) / 1000.0
		elapsed := timestamp - e.lastEmitTS
		sceneChange := top1.ClassID != e.lockedClass
		lowConf := float64(top1.Prob) < e.cfg.SceneChangeThreshold

		if elapsed >= cooldownS && (sceneChange || lowConf) {
			e.reset()
			return emit(types.State(e.state), false, types.ReasonCooldownComplete, "", 0, 0, "")
		}
		return emit(types.StateCooldown, false, types.ReasonCooldown, "", 0, 0, "")
	}

	e.reset()
	return emit(types.State(e.state), false, types.ReasonReset, "", 0, 0, "")
}

// State returns the engine's current persistent state for diagnostics
// (the HTTP /ui/status endpoint; never reports the transient LOCKED
// value since that only ever appears on the Process return value).
func (e *Engine) State() types.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return types.State(e.state)
}
