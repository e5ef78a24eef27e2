package integration

import (
	"strings"
	"testing"

	"github.com/zoobzio/profilez"
)

func TestPanicInsideScopeStillCloses(t *testing.T) {
	rec := NewRecorder(t, 64)
	rec.Begin()

	func() {
		defer func() { _ = recover() }()
		defer rec.Scope("handler").End()
		panic("boom")
	}()

	tr := EndTrace(t, rec)
	tr.AssertBalanced()
	if tr.Count("E", "handler") != 1 {
		t.Error("Expected the deferred end to be recorded during the panic")
	}
}

func TestArenaExhaustionFallsBack(t *testing.T) {
	cfg := profilez.DefaultConfig()
	cfg.LabelArenaBytes = 32
	cfg.FormatLimit = 16
	rec, err := profilez.NewWithConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	rec.Begin()

	for i := 0; i < 8; i++ {
		rec.TagBeginCopy(strings.Repeat("x", 10))
		rec.TagEnd()
	}

	stats := rec.Stats()
	tr := EndTrace(t, rec)
	tr.AssertBalanced()

	if got := tr.Count("B", strings.Repeat("x", 10)); got != 3 {
		t.Errorf("Expected 3 labels to fit a 32-byte arena, got %d", got)
	}
	if got := tr.Count("B", profilez.OutOfTagBufferSpace); got != 5 {
		t.Errorf("Expected 5 fallback labels, got %d", got)
	}
	if stats.LabelFallbacks != 5 {
		t.Errorf("Expected 5 fallbacks in stats, got %d", stats.LabelFallbacks)
	}
}

func TestArenaResetsEachSession(t *testing.T) {
	cfg := profilez.DefaultConfig()
	cfg.LabelArenaBytes = 16
	cfg.FormatLimit = 16
	rec, err := profilez.NewWithConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}

	for session := 0; session < 3; session++ {
		rec.Begin()
		rec.TagValueCopy("sixteen-bytes-ok", int32(session))
		tr := EndTrace(t, rec)
		if got := tr.Count("O", "sixteen-bytes-ok"); got != 1 {
			t.Errorf("session %d: expected the copied label, got %d", session, got)
		}
	}
}

func TestFormatTagTruncatesOnRuneBoundary(t *testing.T) {
	cfg := profilez.DefaultConfig()
	cfg.FormatLimit = 5
	rec, err := profilez.NewWithConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	rec.Begin()
	defer rec.End()

	// "héllo": h(1) é(2) l l o, limit 5 keeps "héll".
	got := rec.FormatTag("%s!", "héllo")
	if got != "héll" {
		t.Errorf("Expected %q, got %q", "héll", got)
	}
}
