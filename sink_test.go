package profilez

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/zoobzio/clockz"
)

var errTestWrite = errors.New("write failed")

func TestEndString(t *testing.T) {
	r := New()

	if _, ok := r.EndString(); ok {
		t.Error("Expected EndString to fail when not recording")
	}

	r.Begin()
	r.TagBegin("Outer")
	r.TagValue("Marker", 42)
	r.TagEnd()
	out, ok := r.EndString()
	if !ok {
		t.Fatal("Expected EndString to succeed")
	}

	doc := decodeTrace(t, out)
	if len(doc.TraceEvents) != 4 {
		t.Errorf("Expected 4 records, got %d", len(doc.TraceEvents))
	}
	if meta := metadata(doc); len(meta) != 1 || meta[0].Pid != 0 {
		t.Errorf("Expected one metadata record for lane 0, got %+v", meta)
	}
}

func TestEndTo(t *testing.T) {
	r := New()
	r.Begin()
	r.TagBegin("x")
	r.TagEnd()

	var buf bytes.Buffer
	if !r.EndTo(&buf) {
		t.Fatal("Expected EndTo to succeed")
	}
	if got := steps(decodeTrace(t, buf.String())); len(got) != 2 {
		t.Errorf("Expected 2 events, got %d", len(got))
	}
}

func TestEndToWriteFailure(t *testing.T) {
	r := New()
	r.Begin()
	r.TagBegin("x")

	if r.EndTo(failingWriter{}) {
		t.Error("Expected EndTo to report a write failure")
	}
	if r.IsRecording() {
		t.Error("Expected the session to end even when the write fails")
	}
}

func TestEndFileWithDateSuffix(t *testing.T) {
	dir := t.TempDir()
	local := time.Date(2024, 3, 9, 14, 5, 6, 0, time.Local)
	r := New().WithClock(clockz.NewFakeClockAt(local))

	r.Begin()
	r.TagBegin("file")
	r.TagEnd()

	base := filepath.Join(dir, "trace")
	if !r.EndFile(base, true) {
		t.Fatal("Expected EndFile to succeed")
	}

	path := base + "_20240309-140506.json"
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected trace file at %s: %v", path, err)
	}
	if got := steps(decodeTrace(t, string(data))); len(got) != 2 {
		t.Errorf("Expected 2 events in file, got %d", len(got))
	}
}

func TestEndFileWithoutSuffix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exact.json")
	r := New()
	r.Begin()

	if !r.EndFile(path, false) {
		t.Fatal("Expected EndFile to succeed")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected file at exact path: %v", err)
	}
}

func TestEndFileOpenFailure(t *testing.T) {
	r := New()
	r.Begin()

	path := filepath.Join(t.TempDir(), "missing", "dir", "trace.json")
	if r.EndFile(path, false) {
		t.Error("Expected EndFile to fail for an unopenable path")
	}
	if !r.IsRecording() {
		t.Error("Expected the session to keep running after an open failure")
	}
	if _, ok := r.End(); !ok {
		t.Error("Expected End to still succeed")
	}
}

func TestEndFileNotRecording(t *testing.T) {
	path := filepath.Join(t.TempDir(), "never.json")
	if New().EndFile(path, false) {
		t.Error("Expected EndFile to fail when not recording")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Expected no file to be created")
	}
}

// endingClock ends rec the first time Now is read after it is armed.
type endingClock struct {
	clockz.Clock
	rec   *Recorder
	armed bool
}

func (c *endingClock) Now() time.Time {
	if c.armed {
		c.armed = false
		c.rec.End()
	}
	return c.Clock.Now()
}

func TestEndFileLosesRaceToEnd(t *testing.T) {
	clock := &endingClock{Clock: clockz.NewFakeClockAt(time.Date(2024, 3, 9, 14, 5, 6, 0, time.Local))}
	r := New().WithClock(clock)
	clock.rec = r
	r.Begin()

	base := filepath.Join(t.TempDir(), "raced")
	path := r.FileName(base)

	// FileName reads the clock after EndFile has checked the session, so
	// the session ends before the file is created.
	clock.armed = true
	if r.EndFile(base, true) {
		t.Fatal("Expected EndFile to fail once the session was ended elsewhere")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("Expected no file to be left behind, stat error: %v", err)
	}
}
