package profilez

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/zoobzio/clockz"
)

// fileDateLayout is appended to file names as _YYYYMMDD-HHMMSS.
const fileDateLayout = "20060102-150405"

// EndTo stops the session and writes the trace to w.
// Returns false if no session was active or the write failed.
func (r *Recorder) EndTo(w io.Writer) bool {
	capture, ok := r.End()
	if !ok {
		return false
	}
	if _, err := capture.WriteTo(w); err != nil {
		r.logger.Error("profiler trace write failed", slog.Any("error", err))
		return false
	}
	return true
}

// EndString stops the session and returns the trace as a string.
func (r *Recorder) EndString() (string, bool) {
	capture, ok := r.End()
	if !ok {
		return "", false
	}
	return capture.String(), true
}

// EndFile stops the session and writes the trace to a file.
// With appendDate, name gets a _YYYYMMDD-HHMMSS local time suffix and the
// .json extension. Returns false if no session was active or the file could
// not be written; the session is left running when the file cannot be created.
func (r *Recorder) EndFile(name string, appendDate bool) bool {
	if !r.IsRecording() {
		return false
	}
	path := name
	if appendDate {
		path = r.FileName(name)
	}

	f, err := os.Create(path)
	if err != nil {
		r.logger.Error("profiler trace file open failed",
			slog.String("path", path), slog.Any("error", err))
		return false
	}

	capture, ok := r.End()
	if !ok {
		// Another goroutine ended the session first.
		_ = f.Close()
		_ = os.Remove(path)
		return false
	}
	if err := writeFile(f, capture); err != nil {
		r.logger.Error("profiler trace file write failed",
			slog.String("path", path), slog.Any("error", err))
		return false
	}
	r.logger.Info("profiler trace written",
		slog.String("path", path), slog.Int("events", len(capture.Events)))
	return true
}

// FileName returns name with the recorder clock's local time and .json appended.
func (r *Recorder) FileName(name string) string {
	var clock clockz.Clock = clockz.RealClock
	if r != nil {
		clock = r.clock
	}
	now := clock.Now().Local()
	return fmt.Sprintf("%s_%s.json", name, now.Format(fileDateLayout))
}

func writeFile(f *os.File, capture *Capture) error {
	_, werr := capture.WriteTo(f)
	cerr := f.Close()
	if err := errors.Join(werr, cerr); err != nil {
		return fmt.Errorf("failed to write %s: %w", f.Name(), err)
	}
	return nil
}
