// Package profilez provides a low-overhead, in-process tag profiler that
// writes traces loadable by chrome://tracing and Perfetto.
//
// profilez records begin/end/value tags from any number of goroutines into a
// fixed-size slot array without locks or allocations, then turns the capture
// into a trace-viewer JSON document once recording stops.
//
// Core Components:
//   - Recorder: owns one capture session and accepts tags concurrently.
//   - Capture: the drained, immutable result of a session.
//   - Scope: begin/end guard used with defer.
//
// Basic Usage:
//
//	rec := profilez.New()
//	rec.Begin()
//
//	func work() {
//		defer rec.Scope("work").End()
//		rec.TagValue("queue.depth", 12)
//	}
//
//	ok := rec.EndFile("trace", true) // trace_20260102-150405.json
//
// Thread Safety:
//
// Tag methods are safe for concurrent use by any number of goroutines and
// never block. Begin and End are serialized internally, so when several
// goroutines race to start a session exactly one Begin returns true.
//
// Capacity:
//
// Slots and label arena bytes are fixed per recorder. When they run out,
// events are dropped and copied labels become "OutOfTagBufferSpace". Use
// Recorder.Stats to observe how much was lost.
//
// Lanes:
//
// Each goroutine that recorded an event gets its own lane in the output.
// Lane 0 belongs to the goroutine that called End, other lanes are numbered
// in the order their goroutines first appear in the capture.
package profilez

// Label names a traced region or value.
type Label = string
