// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package ingestion implements frame sourcing, normalization, and the
// bounded time-windowed buffer handed off to the control pipeline.
package ingestion

import (
	"sync"
	"time"

	"github.com/scale-vision/runtime/internal/metrics"
	"github.com/scale-vision/runtime/internal/types"
)

// DropPolicy selects FrameBuffer's behavior once max_frames is reached.
type DropPolicy string

const (
	DropOldest DropPolicy = "drop_oldest"
	DropNewest DropPolicy = "drop_newest"
)

// FrameBuffer is a bounded, time-windowed FIFO queue of frames, written by
// exactly one IngestionRunner and read by exactly one ControlPipeline
// (spec §4.1, §5). Safe for that single-producer/single-consumer use.
type FrameBuffer struct {
	mu         sync.Mutex
	notEmpty   *sync.Cond
	queue      []types.Frame
	maxMs      int64
	maxFrames  int
	dropPolicy DropPolicy
	drops      int64
}

// NewFrameBuffer constructs a FrameBuffer with the given window and
// capacity. maxMs and maxFrames must be > 0.
func NewFrameBuffer(maxMs int, maxFrames int, dropPolicy DropPolicy) *FrameBuffer {
	b := &FrameBuffer{
		maxMs:      int64(maxMs),
		maxFrames:  maxFrames,
		dropPolicy: dropPolicy,
	}
	b.notEmpty = sync.NewCond(&b.mu)
	return b
}

func (b *FrameBuffer) dropOldestLocked(reason string) {
	if len(b.queue) == 0 {
		return
	}
	b.queue = b.queue[1:]
	b.drops++
	metrics.RecordFrameDrop(reason)
}

// Put inserts frame at the tail, first evicting every head element older
// than maxMs, then applying the configured drop policy if still at
// capacity (spec §4.1).
func (b *FrameBuffer) Put(frame types.Frame) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := frame.Timestamp
	for len(b.queue) > 0 && int64((now-b.queue[0].Timestamp)*1000) > b.maxMs {
		b.dropOldestLocked("buffer_full")
	}

	if len(b.queue) >= b.maxFrames {
		if b.dropPolicy == DropOldest {
			b.dropOldestLocked("buffer_full")
		} else {
			b.drops++
			metrics.RecordFrameDrop("buffer_full")
			return
		}
	}

	b.queue = append(b.queue, frame)
	b.notEmpty.Signal()
}

// Get blocks up to timeout for a frame to become available, returning
// (frame, true) if one was dequeued or (zero, false) on timeout.
func (b *FrameBuffer) Get(timeout time.Duration) (types.Frame, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.queue) == 0 {
		if !b.waitLocked(timeout) {
			return types.Frame{}, false
		}
	}
	if len(b.queue) == 0 {
		return types.Frame{}, false
	}
	frame := b.queue[0]
	b.queue = b.queue[1:]
	return frame, true
}

// waitLocked waits on notEmpty up to timeout, called with b.mu held.
// Returns false if the deadline elapsed without a signal.
func (b *FrameBuffer) waitLocked(timeout time.Duration) bool {
	done := make(chan struct{})
	timer := time.AfterFunc(timeout, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		close(done)
		b.notEmpty.Broadcast()
	})
	defer timer.Stop()

	for len(b.queue) == 0 {
		select {
		case <-done:
			return false
		default:
		}
		b.notEmpty.Wait()
	}
	return true
}

// QueueMs returns the age, in milliseconds, of the oldest queued frame
// relative to wall-clock now, or 0 if the buffer is empty.
func (b *FrameBuffer) QueueMs(now float64) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.queue) == 0 {
		return 0
	}
	ms := (now - b.queue[0].Timestamp) * 1000
	if ms < 0 {
		return 0
	}
	return ms
}

// Drops returns the cumulative number of frames dropped since creation.
func (b *FrameBuffer) Drops() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.drops
}

// Len returns the current number of buffered frames.
func (b *FrameBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}
