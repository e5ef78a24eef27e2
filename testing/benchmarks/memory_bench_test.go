package benchmarks

import (
	"testing"
)

// BenchmarkLabelCopy measures the label arena paths.
func BenchmarkLabelCopy(b *testing.B) {
	b.Run("copy", func(b *testing.B) {
		rec := recorder(b, 1<<22)
		rec.Begin()
		defer rec.End()
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			rec.TagBeginCopy("copied-label")
			rec.TagEnd()
		}
	})

	b.Run("format", func(b *testing.B) {
		rec := recorder(b, 1<<22)
		rec.Begin()
		defer rec.End()
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			rec.TagBeginf("request-%d", i)
			rec.TagEnd()
		}
	})

	b.Run("format-idle", func(b *testing.B) {
		rec := recorder(b, 1024)
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			rec.TagBeginf("request-%d", i)
			rec.TagEnd()
		}
	})
}

// BenchmarkSessionCycle measures Begin/End with a small capture, which is
// dominated by the per-session arena and the drain copy.
func BenchmarkSessionCycle(b *testing.B) {
	rec := recorder(b, 4096)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		rec.Begin()
		for j := 0; j < 64; j++ {
			rec.TagValue("v", int32(j))
		}
		rec.End()
	}
}
