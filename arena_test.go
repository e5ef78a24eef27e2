package profilez

import (
	"fmt"
	"sync"
	"testing"
)

func TestLabelArenaCopy(t *testing.T) {
	a := newLabelArena(32)

	src := []byte("hello")
	got := a.copyBytes(src)
	src[0] = 'J'

	if got != "hello" {
		t.Errorf("Expected copy to be independent of the source, got %q", got)
	}
	if a.Used() != 5 {
		t.Errorf("Expected 5 bytes used, got %d", a.Used())
	}
	if a.copyString("") != "" {
		t.Error("Expected empty input to return empty string")
	}
}

func TestLabelArenaFallback(t *testing.T) {
	a := newLabelArena(8)

	if got := a.copyString("123456789"); got != OutOfTagBufferSpace {
		t.Errorf("Expected oversized label to fall back, got %q", got)
	}
	if got := a.copyString("12345"); got != "12345" {
		t.Errorf("Expected label to fit, got %q", got)
	}
	if got := a.copyString("6789"); got != OutOfTagBufferSpace {
		t.Errorf("Expected label past the end to fall back, got %q", got)
	}
	if got := a.copyString("678"); got != "678" {
		t.Errorf("Expected smaller label to fit exactly, got %q", got)
	}
	if a.Fallbacks() != 2 {
		t.Errorf("Expected 2 fallbacks, got %d", a.Fallbacks())
	}
	if a.Used() != 8 {
		t.Errorf("Expected arena to be full, got %d", a.Used())
	}
}

func TestLabelArenaConcurrentCopies(t *testing.T) {
	a := newLabelArena(64 * 1024)

	const goroutines = 8
	results := make([][]string, goroutines)
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				results[g] = append(results[g], a.copyString(fmt.Sprintf("g%d-label-%03d", g, i)))
			}
		}()
	}
	wg.Wait()

	for g, labels := range results {
		for i, label := range labels {
			if want := fmt.Sprintf("g%d-label-%03d", g, i); label != want {
				t.Errorf("Expected %q, got %q (overlapping claims)", want, label)
			}
		}
	}
}
