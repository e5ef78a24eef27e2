package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect FILE",
	Short: "Summarize a trace file per lane",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

// traceFile is the subset of the trace-viewer schema profilez writes.
type traceFile struct {
	TraceEvents []traceEvent `json:"traceEvents"`
}

type traceEvent struct {
	Name string          `json:"name"`
	Ph   string          `json:"ph"`
	Ts   int64           `json:"ts"`
	Pid  int             `json:"pid"`
	Args json.RawMessage `json:"args"`
}

// laneSummary accumulates per-lane counts.
type laneSummary struct {
	name     string
	begins   int
	ends     int
	values   int
	depth    int
	maxDepth int
	seen     bool
	firstTs  int64
	lastTs   int64
}

func runInspect(cmd *cobra.Command, args []string) error {
	if err := applyColorMode(cmd); err != nil {
		return err
	}
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open trace: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat trace: %w", err)
	}
	lanes, total, err := summarize(f)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	printHeader(w, args[0])
	printField(w, "size", humanize.Bytes(uint64(info.Size())))
	printField(w, "events", humanize.Comma(int64(total)))
	printField(w, "lanes", humanize.Comma(int64(len(lanes))))
	printLanes(w, lanes)
	return nil
}

// summarize decodes a trace and groups its events by lane.
func summarize(r io.Reader) (map[int]*laneSummary, int, error) {
	var tf traceFile
	if err := json.NewDecoder(r).Decode(&tf); err != nil {
		return nil, 0, fmt.Errorf("failed to decode trace: %w", err)
	}

	lanes := make(map[int]*laneSummary)
	get := func(pid int) *laneSummary {
		l, ok := lanes[pid]
		if !ok {
			l = &laneSummary{}
			lanes[pid] = l
		}
		return l
	}

	total := 0
	for _, ev := range tf.TraceEvents {
		l := get(ev.Pid)
		switch ev.Ph {
		case "B":
			l.begins++
			l.depth++
			l.maxDepth = max(l.maxDepth, l.depth)
		case "E":
			l.ends++
			if l.depth > 0 {
				l.depth--
			}
		case "O":
			l.values++
		case "M":
			var meta struct {
				Name string `json:"name"`
			}
			if err := json.Unmarshal(ev.Args, &meta); err == nil {
				l.name = meta.Name
			}
			continue
		}
		total++
		if !l.seen {
			l.seen = true
			l.firstTs = ev.Ts
		}
		l.lastTs = ev.Ts
	}
	return lanes, total, nil
}

func printLanes(w io.Writer, lanes map[int]*laneSummary) {
	pids := make([]int, 0, len(lanes))
	for pid := range lanes {
		pids = append(pids, pid)
	}
	slices.Sort(pids)

	for _, pid := range pids {
		l := lanes[pid]
		name := l.name
		if name == "" {
			name = fmt.Sprintf("lane %d", pid)
		}
		printHeader(w, name)
		printField(w, "begin/end", fmt.Sprintf("%s/%s", humanize.Comma(int64(l.begins)), humanize.Comma(int64(l.ends))))
		printField(w, "values", humanize.Comma(int64(l.values)))
		printField(w, "max depth", fmt.Sprint(l.maxDepth))
		printField(w, "active", fmt.Sprintf("%sµs", humanize.Comma(l.lastTs-l.firstTs)))
		if l.depth > 0 {
			printWarning(w, "%d begin(s) never ended", l.depth)
		}
		if l.ends > l.begins {
			printWarning(w, "%d end(s) without a begin", l.ends-l.begins)
		}
	}
}
