package realtime

import (
	"testing"
	"time"

	"github.com/lawrns/foco/types"
)

func change(op types.ChangeOp) types.Change {
	return types.Change{Entity: types.EntityTask, Op: op}
}

func recvBatch(t *testing.T, ch <-chan []types.Change) []types.Change {
	t.Helper()
	select {
	case batch := <-ch:
		return batch
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a flush")
	}
	return nil
}

func assertNoFlush(t *testing.T, ch <-chan []types.Change, within time.Duration) {
	t.Helper()
	select {
	case batch := <-ch:
		t.Fatalf("unexpected flush of %d changes", len(batch))
	case <-time.After(within):
	}
}

func TestCoalescerBatchesBurst(t *testing.T) {
	flushes := make(chan []types.Change, 8)
	c := NewCoalescer(func(batch []types.Change) { flushes <- batch },
		WithDebounce(50*time.Millisecond))
	defer c.Stop()

	for i := 0; i < 5; i++ {
		c.Add(change(types.OpUpdated))
	}

	batch := recvBatch(t, flushes)
	if len(batch) != 5 {
		t.Errorf("flush carried %d changes, want 5", len(batch))
	}
	assertNoFlush(t, flushes, 150*time.Millisecond)
}

func TestCoalescerQuietGapSplitsBatches(t *testing.T) {
	flushes := make(chan []types.Change, 8)
	c := NewCoalescer(func(batch []types.Change) { flushes <- batch },
		WithDebounce(40*time.Millisecond))
	defer c.Stop()

	c.Add(change(types.OpCreated))
	c.Add(change(types.OpUpdated))
	first := recvBatch(t, flushes)

	c.Add(change(types.OpMoved))
	c.Add(change(types.OpMoved))
	c.Add(change(types.OpDeleted))
	second := recvBatch(t, flushes)

	if len(first) != 2 || len(second) != 3 {
		t.Errorf("batches carried %d then %d changes, want 2 then 3", len(first), len(second))
	}
}

func TestCoalescerMaxWaitBoundsContinuousBursts(t *testing.T) {
	flushes := make(chan []types.Change, 8)
	c := NewCoalescer(func(batch []types.Change) { flushes <- batch },
		WithDebounce(60*time.Millisecond),
		WithMaxWait(150*time.Millisecond))
	defer c.Stop()

	// Feed faster than the debounce window so the quiet timer alone
	// would never fire.
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(25 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				c.Add(change(types.OpUpdated))
			}
		}
	}()

	batch := recvBatch(t, flushes)
	close(stop)
	<-done

	if len(batch) < 2 {
		t.Errorf("mid-burst flush carried %d changes, want a batch", len(batch))
	}
}

func TestCoalescerFlush(t *testing.T) {
	flushes := make(chan []types.Change, 8)
	c := NewCoalescer(func(batch []types.Change) { flushes <- batch },
		WithDebounce(10*time.Second))
	defer c.Stop()

	c.Add(change(types.OpCreated))
	c.Flush()

	batch := recvBatch(t, flushes)
	if len(batch) != 1 {
		t.Errorf("flush carried %d changes, want 1", len(batch))
	}

	// Nothing pending, Flush must not call back.
	c.Flush()
	assertNoFlush(t, flushes, 100*time.Millisecond)
}

func TestCoalescerStop(t *testing.T) {
	flushes := make(chan []types.Change, 8)
	c := NewCoalescer(func(batch []types.Change) { flushes <- batch },
		WithDebounce(10*time.Second))

	c.Add(change(types.OpCreated))
	c.Add(change(types.OpUpdated))
	c.Stop()

	batch := recvBatch(t, flushes)
	if len(batch) != 2 {
		t.Errorf("stop flushed %d changes, want 2", len(batch))
	}

	c.Add(change(types.OpDeleted))
	c.Flush()
	assertNoFlush(t, flushes, 100*time.Millisecond)
}
