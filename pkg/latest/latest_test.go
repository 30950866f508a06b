package latest

import (
	"sync"
	"testing"
)

func TestRefreshEmpty(t *testing.T) {
	b := New[int]()
	if b.Refresh() {
		t.Fatal("Refresh reported data on an empty buffer")
	}
}

func TestPublishRefresh(t *testing.T) {
	b := New[int]()

	*b.StartWrite() = 42
	b.Publish()

	if !b.Refresh() {
		t.Fatal("Refresh missed a published value")
	}
	if got := *b.Current(); got != 42 {
		t.Fatalf("Current() = %d, want 42", got)
	}
	if b.Refresh() {
		t.Fatal("second Refresh reported stale data as new")
	}
	if got := *b.Current(); got != 42 {
		t.Fatalf("Current() after no-op Refresh = %d, want 42", got)
	}
}

func TestLatestWins(t *testing.T) {
	b := New[int]()

	for i := 1; i <= 5; i++ {
		*b.StartWrite() = i
		b.Publish()
	}

	if !b.Refresh() {
		t.Fatal("Refresh missed published values")
	}
	if got := *b.Current(); got != 5 {
		t.Fatalf("Current() = %d, want 5", got)
	}
}

func TestConcurrentProducerConsumer(t *testing.T) {
	const n = 100000
	b := New[int]()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= n; i++ {
			*b.StartWrite() = i
			b.Publish()
		}
	}()

	// Values must arrive in nondecreasing order, ending at n.
	last := 0
	for last < n {
		if b.Refresh() {
			v := *b.Current()
			if v < last {
				t.Fatalf("value went backwards: %d after %d", v, last)
			}
			last = v
		}
	}
	wg.Wait()
}
