package runloop

import (
	"context"
	"sync"
	"testing"
	"time"
)

func startLoop(t *testing.T) *Loop {
	t.Helper()
	loop := New()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return loop
}

func TestLoop_OrderedExecution(t *testing.T) {
	loop := startLoop(t)

	var got []int
	for i := 0; i < 100; i++ {
		i := i
		loop.Post(func() { got = append(got, i) })
	}
	loop.Sync()

	if len(got) != 100 {
		t.Fatalf("ran %d tasks", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("task %d ran at position %d", v, i)
		}
	}
}

func TestLoop_PostFromManyGoroutines(t *testing.T) {
	loop := startLoop(t)

	var count int
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				loop.Post(func() { count++ })
			}
		}()
	}
	wg.Wait()
	loop.Sync()

	if count != 1000 {
		t.Fatalf("count=%d", count)
	}
}

func TestLoop_DrainsOnCancel(t *testing.T) {
	loop := New()
	ctx, cancel := context.WithCancel(context.Background())

	ran := false
	loop.Post(func() { ran = true })
	cancel()

	done := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
	}
	if !ran {
		t.Fatal("queued task dropped on shutdown")
	}

	// Posts after shutdown are dropped, not queued.
	loop.Post(func() { t.Error("task ran after shutdown") })
	time.Sleep(20 * time.Millisecond)
}

func TestTicker_DeliversAndStops(t *testing.T) {
	loop := startLoop(t)

	var ticks int
	ticker := loop.NewTicker(5*time.Millisecond, func() { ticks++ })

	time.Sleep(60 * time.Millisecond)
	loop.Sync()
	var seen int
	loop.Post(func() { seen = ticks })
	loop.Sync()
	if seen == 0 {
		t.Fatal("no ticks delivered")
	}

	ticker.Stop()
	ticker.Stop() // stopping twice is fine
	loop.Sync()
	loop.Post(func() { seen = ticks })
	loop.Sync()

	time.Sleep(30 * time.Millisecond)
	loop.Sync()
	var after int
	loop.Post(func() { after = ticks })
	loop.Sync()
	if after != seen {
		t.Fatalf("ticks after stop: %d -> %d", seen, after)
	}
}
