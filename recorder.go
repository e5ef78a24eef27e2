package profilez

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zoobzio/clockz"
)

// Recorder owns one capture session at a time.
// Tag methods are safe for concurrent use. Begin and End are serialized
// against each other, so concurrent callers see exactly one winner.
// A nil *Recorder is a valid recorder that never records.
//
//nolint:govet // Field order optimized for functionality over memory
type Recorder struct {
	buffer  *eventBuffer
	arena   atomic.Pointer[labelArena]
	clock   clockz.Clock
	logger  *slog.Logger
	config  Config
	start   time.Time
	enabled atomic.Bool
	control sync.Mutex

	// Cumulative statistics, folded in at End. Guarded by statsMu.
	statsMu  sync.Mutex
	open     bool
	sessions uint64
	recorded uint64
	dropped  uint64
	fallback uint64
}

// New creates a recorder with DefaultConfig and the real clock.
func New() *Recorder {
	r, err := NewWithConfig(DefaultConfig())
	if err != nil {
		// DefaultConfig is always valid.
		panic(err)
	}
	return r
}

// NewWithConfig creates a recorder with the given capacities.
// All slots are allocated here; recording never allocates afterwards.
func NewWithConfig(cfg Config) (*Recorder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Recorder{
		buffer: newEventBuffer(uint32(cfg.MaxEvents)),
		clock:  clockz.RealClock,
		logger: slog.New(slog.DiscardHandler),
		config: cfg,
	}
	r.arena.Store(newLabelArena(uint32(cfg.LabelArenaBytes)))
	return r, nil
}

// WithClock sets the clock used for timestamps and file names.
// Enables clock injection for deterministic testing. Must not be called
// while recording.
func (r *Recorder) WithClock(clock clockz.Clock) *Recorder {
	if clock == nil {
		clock = clockz.RealClock
	}
	r.clock = clock
	return r
}

// WithLogger sets the logger used for session lifecycle messages.
// The tag methods never log.
func (r *Recorder) WithLogger(logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r.logger = logger
	return r
}

// Config returns the capacities of the recorder.
func (r *Recorder) Config() Config {
	if r == nil {
		return Config{}
	}
	return r.config
}

// IsRecording reports whether a session is active.
func (r *Recorder) IsRecording() bool {
	return r != nil && r.enabled.Load()
}

// Begin starts a new capture session.
// Returns false if a session is already active.
func (r *Recorder) Begin() bool {
	if r == nil {
		return false
	}
	r.control.Lock()
	defer r.control.Unlock()
	if r.enabled.Load() {
		r.logger.Debug("profiler begin rejected: already recording")
		return false
	}

	r.statsMu.Lock()
	r.buffer.reset()
	r.arena.Store(newLabelArena(uint32(r.config.LabelArenaBytes)))
	r.open = true
	r.sessions++
	r.statsMu.Unlock()

	r.start = r.clock.Now()
	r.enabled.Store(true)
	r.logger.Debug("profiler recording started",
		slog.Int("max_events", r.config.MaxEvents),
		slog.Int("label_arena_bytes", r.config.LabelArenaBytes))
	return true
}

// End stops the session and returns everything that was recorded.
// Tags already in flight are waited for; tags arriving after End are dropped.
// Returns false if no session is active.
func (r *Recorder) End() (*Capture, bool) {
	if r == nil {
		return nil, false
	}
	r.control.Lock()
	defer r.control.Unlock()
	if !r.enabled.Load() {
		r.logger.Debug("profiler end rejected: not recording")
		return nil, false
	}
	r.enabled.Store(false)

	events := r.buffer.drain()
	arena := r.arena.Load()

	capture := &Capture{
		Start:        r.start,
		Events:       events,
		EndGoroutine: goroutineID(),
		Dropped:      r.buffer.DroppedCount(),
		Fallbacks:    arena.Fallbacks(),
		ArenaBytes:   arena.Used(),
	}

	r.statsMu.Lock()
	r.open = false
	r.recorded += uint64(len(events))
	r.dropped += capture.Dropped
	r.fallback += capture.Fallbacks
	r.statsMu.Unlock()

	attrs := []any{
		slog.Int("events", len(events)),
		slog.Uint64("dropped", capture.Dropped),
		slog.Uint64("label_fallbacks", capture.Fallbacks),
		slog.Any("arena_bytes", capture.ArenaBytes),
		slog.Duration("elapsed", r.clock.Since(r.start)),
	}
	if capture.Dropped > 0 || capture.Fallbacks > 0 {
		r.logger.Warn("profiler capture truncated", attrs...)
	} else {
		r.logger.Info("profiler capture finished", attrs...)
	}
	return capture, true
}

// record writes one tag into the next free slot.
// The timestamp is taken last so the recording cost is not attributed to
// the traced region.
func (r *Recorder) record(kind Kind, label Label, value int32) {
	if r == nil || !r.enabled.Load() {
		return
	}
	idx, ok := r.buffer.claim()
	if !ok {
		return
	}
	ev := &r.buffer.events[idx]
	ev.Kind = kind
	ev.Goroutine = goroutineID()
	ev.Label = label
	ev.Value = value
	ev.Time = r.clock.Now()
	r.buffer.publish()
}

// TagBegin opens a region named label on the calling goroutine.
// label is referenced, not copied; use TagBeginCopy or TagBeginf for
// labels built at runtime from reused buffers.
func (r *Recorder) TagBegin(label Label) {
	r.record(KindBegin, label, 0)
}

// TagEnd closes the most recent region opened on the calling goroutine.
func (r *Recorder) TagEnd() {
	r.record(KindEnd, "", 0)
}

// TagValue records value under label at the current time.
func (r *Recorder) TagValue(label Label, value int32) {
	r.record(KindValue, label, value)
}

// TagBeginCopy is TagBegin with label copied into the label arena.
func (r *Recorder) TagBeginCopy(label string) {
	if !r.IsRecording() {
		return
	}
	r.record(KindBegin, r.CopyTag(label), 0)
}

// TagValueCopy is TagValue with label copied into the label arena.
func (r *Recorder) TagValueCopy(label string, value int32) {
	if !r.IsRecording() {
		return
	}
	r.record(KindValue, r.CopyTag(label), value)
}

// TagBeginf is TagBegin with a label formatted into the label arena.
func (r *Recorder) TagBeginf(format string, args ...any) {
	if !r.IsRecording() {
		return
	}
	r.record(KindBegin, r.FormatTag(format, args...), 0)
}

// TagValuef is TagValue with a label formatted into the label arena.
func (r *Recorder) TagValuef(value int32, format string, args ...any) {
	if !r.IsRecording() {
		return
	}
	r.record(KindValue, r.FormatTag(format, args...), value)
}

// CopyTag copies text into the label arena and returns the copy.
// Returns OutOfTagBufferSpace when the arena is full.
func (r *Recorder) CopyTag(text string) string {
	if r == nil {
		return text
	}
	return r.arena.Load().copyString(text)
}

// formatBufSize bounds the stack buffer used by FormatTag.
const formatBufSize = 256

// FormatTag formats a label into the label arena, truncated to
// Config.FormatLimit bytes. Returns "" when not recording, since the
// formatting cost is only worth paying while a session is active.
func (r *Recorder) FormatTag(format string, args ...any) string {
	if !r.IsRecording() {
		return ""
	}
	var buf [formatBufSize]byte
	out := fmt.Appendf(buf[:0], format, args...)
	if limit := r.config.FormatLimit; len(out) > limit {
		out = truncateUTF8(out, limit)
	}
	return r.arena.Load().copyBytes(out)
}

// truncateUTF8 cuts b to at most n bytes without splitting a rune.
func truncateUTF8(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	for n > 0 && b[n]&0xC0 == 0x80 {
		n--
	}
	return b[:n]
}

// Stats reports cumulative counters across all sessions, including the
// active one.
type Stats struct {
	Sessions        uint64
	EventsRecorded  uint64
	EventsDropped   uint64
	LabelFallbacks  uint64
	LabelArenaBytes uint32
	Recording       bool
}

// Stats returns a snapshot of the recorder's counters.
func (r *Recorder) Stats() Stats {
	if r == nil {
		return Stats{}
	}
	r.statsMu.Lock()
	defer r.statsMu.Unlock()

	s := Stats{
		Sessions:       r.sessions,
		EventsRecorded: r.recorded,
		EventsDropped:  r.dropped,
		LabelFallbacks: r.fallback,
	}
	arena := r.arena.Load()
	if r.open {
		s.EventsRecorded += uint64(r.buffer.completed.Load())
		s.EventsDropped += r.buffer.DroppedCount()
		s.LabelFallbacks += arena.Fallbacks()
		s.Recording = r.enabled.Load()
	}
	s.LabelArenaBytes = arena.Used()
	return s
}
