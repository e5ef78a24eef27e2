package integration

import (
	"encoding/json"
	"sort"
	"testing"

	"github.com/zoobzio/profilez"
)

// TraceEvent is one decoded trace-viewer record.
type TraceEvent struct {
	Args map[string]any `json:"args"`
	Name string         `json:"name"`
	Ph   string         `json:"ph"`
	ID   string         `json:"id"`
	Ts   int64          `json:"ts"`
	Pid  int            `json:"pid"`
}

// Trace wraps a decoded capture with query helpers.
type Trace struct {
	Events []TraceEvent
	t      *testing.T
}

// NewRecorder creates a recorder with a fixed slot capacity.
func NewRecorder(t *testing.T, maxEvents int) *profilez.Recorder {
	t.Helper()
	cfg := profilez.DefaultConfig()
	cfg.MaxEvents = maxEvents
	rec, err := profilez.NewWithConfig(cfg)
	if err != nil {
		t.Fatalf("NewWithConfig failed: %v", err)
	}
	return rec
}

// EndTrace ends the session and decodes the resulting document.
func EndTrace(t *testing.T, rec *profilez.Recorder) *Trace {
	t.Helper()
	out, ok := rec.EndString()
	if !ok {
		t.Fatal("EndString reported no active session")
	}
	var doc struct {
		TraceEvents []TraceEvent `json:"traceEvents"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("trace is not valid JSON: %v\n%s", err, out)
	}
	return &Trace{Events: doc.TraceEvents, t: t}
}

// Steps returns non-metadata events in document order.
func (tr *Trace) Steps() []TraceEvent {
	steps := make([]TraceEvent, 0, len(tr.Events))
	for _, ev := range tr.Events {
		if ev.Ph != "M" {
			steps = append(steps, ev)
		}
	}
	return steps
}

// Lane returns the steps recorded on one lane.
func (tr *Trace) Lane(pid int) []TraceEvent {
	var out []TraceEvent
	for _, ev := range tr.Steps() {
		if ev.Pid == pid {
			out = append(out, ev)
		}
	}
	return out
}

// Lanes returns the distinct lane numbers that carry steps, sorted.
func (tr *Trace) Lanes() []int {
	seen := make(map[int]bool)
	for _, ev := range tr.Steps() {
		seen[ev.Pid] = true
	}
	lanes := make([]int, 0, len(seen))
	for pid := range seen {
		lanes = append(lanes, pid)
	}
	sort.Ints(lanes)
	return lanes
}

// Count returns how many steps have the given phase and name.
func (tr *Trace) Count(ph, name string) int {
	n := 0
	for _, ev := range tr.Steps() {
		if ev.Ph == ph && ev.Name == name {
			n++
		}
	}
	return n
}

// ThreadNames maps lane numbers to their metadata names.
func (tr *Trace) ThreadNames() map[int]string {
	names := make(map[int]string)
	for _, ev := range tr.Events {
		if ev.Ph != "M" {
			continue
		}
		if name, ok := ev.Args["name"].(string); ok {
			names[ev.Pid] = name
		}
	}
	return names
}

// AssertBalanced fails the test if any lane has an End without a matching
// Begin, or leaves a region open.
func (tr *Trace) AssertBalanced() {
	tr.t.Helper()
	for _, pid := range tr.Lanes() {
		var stack []string
		for _, ev := range tr.Lane(pid) {
			switch ev.Ph {
			case "B":
				stack = append(stack, ev.Name)
			case "E":
				if len(stack) == 0 {
					tr.t.Errorf("lane %d: end %q with no open region", pid, ev.Name)
					continue
				}
				if top := stack[len(stack)-1]; top != ev.Name {
					tr.t.Errorf("lane %d: end %q closes %q", pid, ev.Name, top)
				}
				stack = stack[:len(stack)-1]
			}
		}
		if len(stack) > 0 {
			tr.t.Errorf("lane %d: %d region(s) left open: %v", pid, len(stack), stack)
		}
	}
}

// AssertMonotonic fails the test if timestamps go backwards within a lane.
func (tr *Trace) AssertMonotonic() {
	tr.t.Helper()
	for _, pid := range tr.Lanes() {
		var last int64
		for i, ev := range tr.Lane(pid) {
			if i > 0 && ev.Ts < last {
				tr.t.Errorf("lane %d: ts %d after %d", pid, ev.Ts, last)
			}
			last = ev.Ts
		}
	}
}
