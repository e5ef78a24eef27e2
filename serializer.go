package profilez

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"
)

// unknownLabel names an End with no open Begin on its goroutine.
const unknownLabel = "Unknown"

// Capture is the drained result of one recording session.
// Events are in claim order: each goroutine's own events keep their program
// order, but events of different goroutines interleave by claim.
//
//nolint:govet // Field order follows the End sequence
type Capture struct {
	Start        time.Time
	Events       []Event
	EndGoroutine uint64
	Dropped      uint64
	Fallbacks    uint64
	ArenaBytes   uint32
}

// lane is the serializer's per-goroutine state.
type lane struct {
	index int
	open  []Label
}

// WriteTo writes the capture as a trace-viewer JSON document.
func (c *Capture) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	bw := bufio.NewWriterSize(cw, 64*1024)

	s := serializer{
		w:     bw,
		start: c.Start,
		lanes: map[uint64]*lane{c.EndGoroutine: {index: 0}},
		next:  1,
	}
	s.writeEvents(c.Events)
	if len(c.Events) > 0 {
		s.writeThreadNames()
	}
	bw.WriteString("\n]\n}\n")

	if err := bw.Flush(); err != nil {
		return cw.n, fmt.Errorf("failed to write trace: %w", err)
	}
	return cw.n, nil
}

// String renders the capture as a JSON document.
func (c *Capture) String() string {
	var sb strings.Builder
	// strings.Builder never fails.
	_, _ = c.WriteTo(&sb)
	return sb.String()
}

// serializer rebuilds per-goroutine nesting while streaming JSON.
type serializer struct {
	w     *bufio.Writer
	start time.Time
	lanes map[uint64]*lane
	next  int
	num   []byte
}

// laneFor returns the lane of a goroutine, assigning the next index on first use.
func (s *serializer) laneFor(gid uint64) *lane {
	l, ok := s.lanes[gid]
	if !ok {
		l = &lane{index: s.next}
		s.next++
		s.lanes[gid] = l
	}
	return l
}

func (s *serializer) writeEvents(events []Event) {
	s.w.WriteString("{\"traceEvents\":[\n")
	for i := range events {
		ev := &events[i]
		l := s.laneFor(ev.Goroutine)

		label := ev.Label
		switch ev.Kind {
		case KindBegin:
			l.open = append(l.open, label)
		case KindEnd:
			label = unknownLabel
			if n := len(l.open); n > 0 {
				label = l.open[n-1]
				l.open = l.open[:n-1]
			}
		}

		if i != 0 {
			s.w.WriteString(",\n")
		}
		s.w.WriteString(`{"name":"`)
		writeEscaped(s.w, label)
		s.w.WriteString(`","ph":"`)
		s.w.WriteString(ev.Kind.phase())
		s.w.WriteString(`","ts":`)
		s.writeInt(ev.Time.Sub(s.start).Microseconds())
		s.w.WriteString(`,"pid":`)
		s.writeInt(int64(l.index))
		s.w.WriteString(`,"cat":"","tid":0,`)
		if ev.Kind == KindValue {
			s.w.WriteString(`"id":"`)
			writeEscaped(s.w, label)
			s.w.WriteString(`","args":{"snapshot":{"Value":`)
			s.writeInt(int64(ev.Value))
			s.w.WriteString("}}}")
		} else {
			s.w.WriteString(`"args":{}}`)
		}
	}
}

// writeThreadNames emits one thread_name metadata record per lane, in lane order.
func (s *serializer) writeThreadNames() {
	type named struct {
		gid   uint64
		index int
	}
	all := make([]named, 0, len(s.lanes))
	for gid, l := range s.lanes {
		all = append(all, named{gid: gid, index: l.index})
	}
	slices.SortFunc(all, func(a, b named) int { return a.index - b.index })

	for _, n := range all {
		s.w.WriteString(",\n{\"name\":\"thread_name\",\"ph\":\"M\",\"tid\":0,\"pid\":")
		s.writeInt(int64(n.index))
		s.w.WriteString(`,"args":{"name":"`)
		writeEscaped(s.w, threadName(n.index, n.gid))
		s.w.WriteString(`"}}`)
	}
}

func (s *serializer) writeInt(v int64) {
	s.num = strconv.AppendInt(s.num[:0], v, 10)
	s.w.Write(s.num)
}

// threadName sorts lanes by first appearance in viewers that order by name.
func threadName(index int, gid uint64) string {
	return fmt.Sprintf("Thread%02d_%d", index, gid)
}

const hexDigits = "0123456789abcdef"

// writeEscaped writes s with '"' and '\' prefixed by a backslash.
// Control bytes become \u00XX so the document stays valid JSON.
func writeEscaped(w *bufio.Writer, s string) {
	last := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '"' && c != '\\' && c >= 0x20 {
			continue
		}
		w.WriteString(s[last:i])
		if c < 0x20 {
			w.WriteString(`\u00`)
			w.WriteByte(hexDigits[c>>4])
			w.WriteByte(hexDigits[c&0xF])
		} else {
			w.WriteByte('\\')
			w.WriteByte(c)
		}
		last = i + 1
	}
	w.WriteString(s[last:])
}

// countingWriter tracks bytes written for io.WriterTo.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
