// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ingestion

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/scale-vision/runtime/internal/health"
	"github.com/scale-vision/runtime/internal/log"
	"github.com/scale-vision/runtime/internal/metrics"
	"github.com/scale-vision/runtime/internal/types"
)

// Runner owns a Source, pulls frames from it in a dedicated goroutine,
// normalizes them, and pushes them into a FrameBuffer while publishing
// fps/drop/queue_ms gauges and health-reason transitions. Grounded on
// original_source/ingestion/base.py's IngestionRunner._run().
type Runner struct {
	source Source
	buffer *FrameBuffer
	width  int
	height int

	health      *health.Tracker
	freezeMaxMs int64
	freezeOn    bool
	stop        chan struct{}
	stopOnce    sync.Once
	done        chan struct{}

	mu       sync.Mutex
	status   types.IngestionStatus
	frameID  uint64
	lastTick time.Time
	inCount  int64
	outCount int64
}

// NewRunner constructs a Runner. freezeMaxMs and freezeOn come from
// config's ingestion.camera.freeze_detection block (spec §4.2).
func NewRunner(source Source, buffer *FrameBuffer, width, height int, tracker *health.Tracker, freezeMaxMs int, freezeOn bool) *Runner {
	return &Runner{
		source:      source,
		buffer:      buffer,
		width:       width,
		height:      height,
		health:      tracker,
		freezeMaxMs: int64(freezeMaxMs),
		freezeOn:    freezeOn,
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
		status:      types.IngestionStatus{Source: source.Name(), OK: true},
	}
}

// Start runs the ingestion loop in a new goroutine until Stop is called.
func (r *Runner) Start(ctx context.Context) {
	go r.run(ctx)
}

// Stop signals the loop to exit and closes the underlying source. It
// does not block; callers that need to wait should select on Done().
func (r *Runner) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
	r.source.Close()
}

// Done reports when the run loop has fully exited.
func (r *Runner) Done() <-chan struct{} { return r.done }

// Status returns the latest published snapshot.
func (r *Runner) Status() types.IngestionStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *Runner) run(ctx context.Context) {
	defer close(r.done)
	logger := log.WithComponent("ingestion")
	var previousTS float64

	for {
		select {
		case <-r.stop:
			return
		case <-ctx.Done():
			return
		default:
		}

		if !r.source.Open() {
			r.setOK(false)
			r.health.SetDegraded(types.ReasonIngestionOpenFailed)
			if !sleepOrStop(r.stop, time.Second) {
				return
			}
			continue
		}
		r.health.ClearReason(types.ReasonIngestionOpenFailed)

		img, ok := r.source.Read()
		if !ok || img == nil {
			r.setOK(false)
			r.health.SetDegraded(types.ReasonIngestionReadFailed)
			if !sleepOrStop(r.stop, 50*time.Millisecond) {
				return
			}
			continue
		}
		r.setOK(true)
		r.health.ClearReason(types.ReasonIngestionReadFailed)

		now := float64(time.Now().UnixNano()) / 1e9

		normalized, err := Normalize(img, r.width, r.height)
		if err != nil {
			logger.Error().Err(err).Str("event", "ingestion.normalize_failed").Msg("frame normalization failed")
			r.health.SetDegraded(types.ReasonIngestionNormalizeFailed)
			continue
		}
		r.health.ClearReason(types.ReasonIngestionNormalizeFailed)

		frame := types.Frame{
			FrameID:   atomic.AddUint64(&r.frameID, 1) - 1,
			Timestamp: now,
			Width:     r.width,
			Height:    r.height,
			Image:     normalized,
			Source:    r.source.Name(),
		}
		r.buffer.Put(frame)

		r.mu.Lock()
		r.inCount++
		r.outCount++
		r.status.LastFrameTS = now
		r.status.QueueMs = r.buffer.QueueMs(now)
		r.status.Drops = int(r.buffer.Drops())
		if rc, ok := r.source.(Reconnectable); ok {
			if total := rc.Reconnections(); total > r.status.Reconnections {
				metrics.ReconnectsTotal.Add(float64(total - r.status.Reconnections))
				r.status.Reconnections = total
			}
		}
		if sy, ok := r.source.(Synthetic); ok {
			r.status.UsingSynthetic = sy.UsingSynthetic()
		}
		r.mu.Unlock()

		metrics.QueueMs.Set(r.status.QueueMs)
		if r.status.UsingSynthetic {
			metrics.UsingSynthetic.Set(1)
		} else {
			metrics.UsingSynthetic.Set(0)
		}

		r.updateFPS()

		if r.freezeOn && previousTS != 0 {
			staleMs := (now - previousTS) * 1000
			if staleMs > float64(r.freezeMaxMs) {
				r.mu.Lock()
				r.status.StaleEvents++
				r.mu.Unlock()
				metrics.StaleEventsTotal.Inc()
				r.health.SetDegraded(types.ReasonIngestionStale)
			} else {
				r.health.ClearReason(types.ReasonIngestionStale)
			}
		}
		previousTS = now
	}
}

func (r *Runner) setOK(ok bool) {
	r.mu.Lock()
	r.status.OK = ok
	r.mu.Unlock()
}

func (r *Runner) updateFPS() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if r.lastTick.IsZero() {
		r.lastTick = now
		return
	}
	dt := now.Sub(r.lastTick).Seconds()
	if dt < 1.0 {
		return
	}
	r.status.FPSIn = float64(r.inCount) / dt
	r.status.FPSProcessed = float64(r.outCount) / dt
	metrics.FPSIn.Set(r.status.FPSIn)
	metrics.FPSProcessed.Set(r.status.FPSProcessed)
	r.inCount = 0
	r.outCount = 0
	r.lastTick = now
}

// sleepOrStop sleeps for d unless stop fires first, returning false in
// that case so callers can exit their loop promptly.
func sleepOrStop(stop <-chan struct{}, d time.Duration) bool {
	select {
	case <-stop:
		return false
	case <-time.After(d):
		return true
	}
}
