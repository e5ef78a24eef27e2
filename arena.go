package profilez

import (
	"sync/atomic"
	"unsafe"
)

// OutOfTagBufferSpace is the label returned when the label arena is full.
const OutOfTagBufferSpace = "OutOfTagBufferSpace"

// labelArena stores copied label text for one session.
// Ranges are claimed with an atomic offset and written exactly once; a new
// arena is allocated for every session, so returned strings stay immutable.
type labelArena struct {
	buf       []byte
	size      uint32
	used      atomic.Uint32
	fallbacks atomic.Uint64
}

func newLabelArena(size uint32) *labelArena {
	return &labelArena{
		buf:  make([]byte, size),
		size: size,
	}
}

// copyBytes copies text into the arena and returns it as a string that
// aliases the arena. Returns OutOfTagBufferSpace when there is no room.
func (a *labelArena) copyBytes(text []byte) string {
	if len(text) == 0 {
		return ""
	}
	if len(text) > int(a.size) {
		a.fallbacks.Add(1)
		return OutOfTagBufferSpace
	}
	n := uint32(len(text))
	end := a.used.Add(n)
	if end > a.size || end < n {
		// Undo so a smaller label may still fit.
		a.used.Add(-n)
		a.fallbacks.Add(1)
		return OutOfTagBufferSpace
	}
	start := end - n
	dst := a.buf[start:end:end]
	copy(dst, text)
	return unsafe.String(&dst[0], len(dst))
}

// copyString is copyBytes for string input.
func (a *labelArena) copyString(text string) string {
	return a.copyBytes(unsafe.Slice(unsafe.StringData(text), len(text)))
}

// Used returns the number of arena bytes handed out, clamped to the size.
func (a *labelArena) Used() uint32 {
	n := a.used.Load()
	if n > a.size {
		return a.size
	}
	return n
}

// Fallbacks returns the number of labels that did not fit.
func (a *labelArena) Fallbacks() uint64 {
	return a.fallbacks.Load()
}
