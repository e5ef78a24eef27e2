package integration

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/zoobzio/profilez"
)

// TestContextCarriesRecorder checks that goroutines started from a request
// context record into the same session.
func TestContextCarriesRecorder(t *testing.T) {
	rec := NewRecorder(t, 1024)
	rec.Begin()

	ctx := profilez.WithRecorder(context.Background(), rec)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < 3; i++ {
		g.Go(func() error {
			defer profilez.Start(gctx, "fanout").End()
			profilez.Value(gctx, "shard", int32(i))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tr := EndTrace(t, rec)
	tr.AssertBalanced()
	if got := tr.Count("B", "fanout"); got != 3 {
		t.Errorf("Expected 3 fanout regions, got %d", got)
	}
	if got := tr.Count("O", "shard"); got != 3 {
		t.Errorf("Expected 3 shard values, got %d", got)
	}
	if got := len(tr.Lanes()); got != 3 {
		t.Errorf("Expected one lane per goroutine, got %d", got)
	}
}

// TestContextWithoutRecorder checks that helpers are inert when nothing is
// attached.
func TestContextWithoutRecorder(t *testing.T) {
	ctx := context.Background()
	if profilez.FromContext(ctx) != nil {
		t.Fatal("Expected no recorder in a bare context")
	}
	profilez.Start(ctx, "nothing").End()
	profilez.Value(ctx, "nothing", 1)
}

// TestCancelledGroupStillBalances stops a group early and checks that
// deferred scope ends still close every region.
func TestCancelledGroupStillBalances(t *testing.T) {
	rec := NewRecorder(t, 4096)
	rec.Begin()

	errStop := errors.New("stop")
	ctx := profilez.WithRecorder(context.Background(), rec)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer profilez.Start(gctx, "failing").End()
		return errStop
	})
	for i := 0; i < 4; i++ {
		g.Go(func() error {
			defer profilez.Start(gctx, "waiting").End()
			<-gctx.Done()
			return gctx.Err()
		})
	}
	if err := g.Wait(); !errors.Is(err, errStop) {
		t.Fatalf("Expected errStop, got %v", err)
	}

	tr := EndTrace(t, rec)
	tr.AssertBalanced()
	if got := tr.Count("E", "waiting"); got != 4 {
		t.Errorf("Expected 4 closed waiting regions, got %d", got)
	}
}
