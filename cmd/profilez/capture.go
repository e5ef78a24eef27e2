package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/zoobzio/profilez"
	"github.com/zoobzio/profilez/metrics"
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Record a synthetic concurrent workload and write the trace",
	Args:  cobra.NoArgs,
	RunE:  runCapture,
}

func init() {
	captureCmd.Flags().String("config", "", "TOML file with recorder capacities")
	captureCmd.Flags().Int("goroutines", 4, "number of concurrent workers")
	captureCmd.Flags().Int("depth", 3, "nesting depth of scopes per iteration")
	captureCmd.Flags().Int("iterations", 100, "iterations per worker")
	captureCmd.Flags().StringP("out", "o", "trace", "output file name, or - for stdout")
	captureCmd.Flags().Bool("date-suffix", true, "append _YYYYMMDD-HHMMSS.json to the output name")
}

// workload describes the synthetic capture.
type workload struct {
	goroutines int
	depth      int
	iterations int
}

func runCapture(cmd *cobra.Command, _ []string) error {
	if err := applyColorMode(cmd); err != nil {
		return err
	}
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	configPath, _ := flags.GetString("config")
	out, _ := flags.GetString("out")
	dateSuffix, _ := flags.GetBool("date-suffix")
	var wl workload
	wl.goroutines, _ = flags.GetInt("goroutines")
	wl.depth, _ = flags.GetInt("depth")
	wl.iterations, _ = flags.GetInt("iterations")
	if wl.goroutines <= 0 || wl.depth <= 0 || wl.iterations <= 0 {
		return errors.New("goroutines, depth and iterations must be > 0")
	}

	cfg := profilez.ConfigFromEnv(profilez.DefaultConfig())
	if configPath != "" {
		if cfg, err = profilez.LoadConfig(configPath); err != nil {
			return err
		}
	}
	rec, err := profilez.NewWithConfig(cfg)
	if err != nil {
		return err
	}
	rec.WithLogger(logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(metrics.NewCollector(rec, ""))

	if !rec.Begin() {
		return errors.New("failed to start recording")
	}
	ctx := profilez.WithRecorder(cmd.Context(), rec)
	if err := runWorkload(ctx, wl); err != nil {
		rec.End()
		return err
	}

	summary := cmd.OutOrStdout()
	if out == "-" {
		if !rec.EndTo(cmd.OutOrStdout()) {
			return errors.New("failed to write trace to stdout")
		}
		summary = cmd.ErrOrStderr()
	} else {
		path := out
		if dateSuffix {
			path = rec.FileName(out)
		}
		if !rec.EndFile(path, false) {
			return fmt.Errorf("failed to write trace file %s", path)
		}
		printHeader(summary, "Trace written")
		printField(summary, "file", path)
	}

	return printCaptureSummary(summary, rec.Stats(), reg)
}

// runWorkload fans nested scopes and value tags out over wl.goroutines workers.
func runWorkload(ctx context.Context, wl workload) error {
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < wl.goroutines; w++ {
		g.Go(func() error {
			rec := profilez.FromContext(ctx)
			defer rec.Scopef("worker%02d", w).End()
			for i := 0; i < wl.iterations; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				nest(ctx, wl.depth)
				profilez.Value(ctx, "iteration", int32(i))
			}
			return nil
		})
	}
	return g.Wait()
}

func nest(ctx context.Context, depth int) {
	if depth == 0 {
		return
	}
	defer profilez.Start(ctx, levelLabels[depth%len(levelLabels)]).End()
	nest(ctx, depth-1)
}

var levelLabels = []string{"parse", "resolve", "check", "lower", "emit"}

func printCaptureSummary(w io.Writer, stats profilez.Stats, reg *prometheus.Registry) error {
	printHeader(w, "Recorder")
	printField(w, "events recorded", humanize.Comma(int64(stats.EventsRecorded)))
	printField(w, "events dropped", humanize.Comma(int64(stats.EventsDropped)))
	printField(w, "label arena", humanize.Bytes(uint64(stats.LabelArenaBytes)))
	if stats.EventsDropped > 0 {
		printWarning(w, "slot array full: raise max_events to keep every event")
	}
	if stats.LabelFallbacks > 0 {
		printWarning(w, "%s labels replaced by %s", humanize.Comma(int64(stats.LabelFallbacks)), profilez.OutOfTagBufferSpace)
	}

	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	printHeader(w, "Metrics")
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			value := m.GetGauge().GetValue()
			if c := m.GetCounter(); c != nil {
				value = c.GetValue()
			}
			printField(w, strings.TrimPrefix(mf.GetName(), "profilez_recorder_"), humanize.Ftoa(value))
		}
	}
	return nil
}
