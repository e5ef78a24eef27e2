package profilez

import "context"

// recorderKeyType is a private type for context keys to avoid collisions.
type recorderKeyType string

const (
	recorderKey recorderKeyType = "profilez"
)

// Scope closes a region opened by Recorder.Scope.
// It is a small value so opening a scope does not allocate.
type Scope struct {
	r *Recorder
}

// Scope opens a region named label and returns a guard whose End closes it.
//
//	defer rec.Scope("decode").End()
func (r *Recorder) Scope(label Label) Scope {
	if !r.IsRecording() {
		return Scope{}
	}
	r.TagBegin(label)
	return Scope{r: r}
}

// Scopef is Scope with a label formatted into the label arena.
func (r *Recorder) Scopef(format string, args ...any) Scope {
	if !r.IsRecording() {
		return Scope{}
	}
	r.TagBeginf(format, args...)
	return Scope{r: r}
}

// End closes the region. Call it once, on the goroutine that opened it.
// If the region was opened while not recording, End does nothing, so a
// session starting mid-scope never sees an unmatched End from it.
func (s Scope) End() {
	if s.r == nil {
		return
	}
	s.r.TagEnd()
}

// WithRecorder returns a context carrying r.
func WithRecorder(ctx context.Context, r *Recorder) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, recorderKey, r)
}

// FromContext extracts the recorder from a context.
// Returns nil if none is present; a nil recorder records nothing.
func FromContext(ctx context.Context) *Recorder {
	if ctx == nil {
		return nil
	}
	if r, ok := ctx.Value(recorderKey).(*Recorder); ok {
		return r
	}
	return nil
}

// Start opens a region on the context's recorder.
//
//	defer profilez.Start(ctx, "handler").End()
func Start(ctx context.Context, label Label) Scope {
	return FromContext(ctx).Scope(label)
}

// Value records a value on the context's recorder.
func Value(ctx context.Context, label Label, value int32) {
	FromContext(ctx).TagValue(label, value)
}
