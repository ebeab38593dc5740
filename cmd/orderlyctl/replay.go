package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/orderly/alloc"
	"github.com/joshuapare/orderly/trace"
)

var (
	replayDump bool
)

func init() {
	cmd := newReplayCmd()
	cmd.Flags().BoolVar(&replayDump, "dump", false, "Print the free regions after the replay")
	rootCmd.AddCommand(cmd)
}

func newReplayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay <trace.yaml>",
		Short: "Replay an allocation trace",
		Long: `The replay command runs a YAML allocation trace against a fresh
allocator, printing the outcome of each step. It fails at the first step
whose outcome contradicts the trace.

Example:
  orderlyctl replay testdata/coalesce.yaml
  orderlyctl replay workload.yaml --dump
  orderlyctl replay workload.yaml --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), args)
		},
	}
}

type replayOutput struct {
	Trace       string         `json:"trace"`
	Capacity    uint32         `json:"capacity"`
	Records     []trace.Record `json:"records"`
	FreeRegions []alloc.Region `json:"free_regions,omitempty"`
	Error       string         `json:"error,omitempty"`
}

func runReplay(ctx context.Context, args []string) error {
	path := args[0]

	printVerbose("Loading trace: %s\n", path)
	tr, err := trace.Load(path)
	if err != nil {
		return err
	}

	res, replayErr := trace.Replay(ctx, tr, trace.WithLogger(newLogger()))
	if res == nil {
		return replayErr
	}

	out := replayOutput{
		Trace:    path,
		Capacity: res.Allocator.Capacity(),
		Records:  res.Records,
	}
	if replayDump {
		for r := range res.Allocator.FreeRegionsByLocation() {
			out.FreeRegions = append(out.FreeRegions, r)
		}
	}
	if replayErr != nil {
		out.Error = replayErr.Error()
	}

	if jsonOut {
		if err := printJSON(out); err != nil {
			return err
		}
		return replayErr
	}

	for _, rec := range out.Records {
		printInfo("%s\n", formatRecord(rec))
	}
	if replayDump {
		printInfo("\nFree regions (%d):\n", len(out.FreeRegions))
		for _, r := range out.FreeRegions {
			printInfo("  [%d, %d) size %d\n", r.Location, r.End(), r.Size)
		}
	}
	if replayErr != nil {
		return replayErr
	}
	printInfo("\n%d steps replayed, %d of %d units free\n",
		len(out.Records), res.Allocator.TotalAvailable(), res.Allocator.Capacity())
	return nil
}

func formatRecord(rec trace.Record) string {
	status := "ok"
	if !rec.OK {
		status = "failed"
	}
	line := fmt.Sprintf("%4d %-8s", rec.Index, rec.Op)
	if rec.Name != "" {
		line += fmt.Sprintf(" %-10s", rec.Name)
	}
	switch rec.Op {
	case trace.OpAlloc, trace.OpFree, trace.OpRealloc:
		if rec.OK {
			line += fmt.Sprintf(" %s", rec.Allocation)
		}
	}
	line += fmt.Sprintf(" %s (available %d, largest %d)", status, rec.Available, rec.Largest)
	if rec.Err != "" {
		line += ": " + rec.Err
	}
	return line
}
