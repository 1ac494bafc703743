// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ingestion

import (
	"testing"
	"time"

	"github.com/scale-vision/runtime/internal/types"
)

func frameAt(ts float64) types.Frame {
	return types.Frame{Timestamp: ts}
}

func TestFrameBuffer_GetBlocksUntilPut(t *testing.T) {
	b := NewFrameBuffer(1000, 10, DropOldest)

	done := make(chan bool, 1)
	go func() {
		_, ok := b.Get(time.Second)
		done <- ok
	}()

	time.Sleep(20 * time.Millisecond)
	b.Put(frameAt(1.0))

	select {
	case ok := <-done:
		if !ok {
			t.Error("expected Get to return a frame once Put is called")
		}
	case <-time.After(time.Second):
		t.Fatal("Get did not unblock after Put")
	}
}

func TestFrameBuffer_GetTimesOutWhenEmpty(t *testing.T) {
	b := NewFrameBuffer(1000, 10, DropOldest)
	_, ok := b.Get(10 * time.Millisecond)
	if ok {
		t.Error("expected Get to time out on an empty buffer")
	}
}

func TestFrameBuffer_DropsOldestPastWindow(t *testing.T) {
	b := NewFrameBuffer(500, 10, DropOldest)
	b.Put(frameAt(1.0))
	b.Put(frameAt(1.6)) // 600ms later, past the 500ms window

	if b.Len() != 1 {
		t.Errorf("expected stale frame evicted, got len=%d", b.Len())
	}
	if b.Drops() != 1 {
		t.Errorf("expected 1 drop recorded, got %d", b.Drops())
	}
}

func TestFrameBuffer_DropOldestPolicyAtCapacity(t *testing.T) {
	b := NewFrameBuffer(100000, 2, DropOldest)
	b.Put(frameAt(1.0))
	b.Put(frameAt(1.01))
	b.Put(frameAt(1.02)) // over capacity, should evict the first

	if b.Len() != 2 {
		t.Fatalf("expected buffer capped at 2, got %d", b.Len())
	}
	frame, ok := b.Get(0)
	if !ok || frame.Timestamp != 1.01 {
		t.Errorf("expected oldest (1.0) to have been dropped, head is %v", frame.Timestamp)
	}
}

func TestFrameBuffer_DropNewestPolicyAtCapacity(t *testing.T) {
	b := NewFrameBuffer(100000, 2, DropNewest)
	b.Put(frameAt(1.0))
	b.Put(frameAt(1.01))
	b.Put(frameAt(1.02)) // over capacity, should be rejected

	if b.Len() != 2 {
		t.Fatalf("expected buffer capped at 2, got %d", b.Len())
	}
	if b.Drops() != 1 {
		t.Errorf("expected 1 drop recorded, got %d", b.Drops())
	}
	frame, ok := b.Get(0)
	if !ok || frame.Timestamp != 1.0 {
		t.Errorf("expected oldest frame retained as head, got %v", frame.Timestamp)
	}
}

func TestFrameBuffer_QueueMsAndLen(t *testing.T) {
	b := NewFrameBuffer(100000, 10, DropOldest)
	if b.QueueMs(100) != 0 {
		t.Error("expected QueueMs=0 on empty buffer")
	}
	b.Put(frameAt(10.0))
	if got := b.QueueMs(10.5); got != 500 {
		t.Errorf("expected QueueMs=500, got %v", got)
	}
	if b.Len() != 1 {
		t.Errorf("expected Len=1, got %d", b.Len())
	}
}
