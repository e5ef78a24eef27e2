package profilez

import "time"

// Kind is the type of a recorded tag.
type Kind uint8

const (
	// KindBegin opens a region on the calling goroutine.
	KindBegin Kind = iota
	// KindEnd closes the most recently opened region on the calling goroutine.
	KindEnd
	// KindValue records a point-in-time integer value.
	KindValue
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindBegin:
		return "begin"
	case KindEnd:
		return "end"
	case KindValue:
		return "value"
	default:
		return "unknown"
	}
}

// phase returns the trace-viewer phase letter for the kind.
func (k Kind) phase() string {
	switch k {
	case KindEnd:
		return "E"
	case KindValue:
		return "O"
	default:
		return "B"
	}
}

// Event is a single recorded tag.
//
//nolint:govet // Field order follows the write order in Recorder.record
type Event struct {
	Label     Label
	Goroutine uint64
	Value     int32
	Kind      Kind
	Time      time.Time
}
