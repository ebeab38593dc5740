package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshuapare/orderly/alloc"
	"github.com/joshuapare/orderly/internal/workload"
)

var (
	benchWorkload string
	benchCapacity uint32
	benchCount    int
	benchSeed     uint64
	benchRounds   int
)

func init() {
	cmd := newBenchCmd()
	cmd.Flags().StringVar(&benchWorkload, "workload", "all", "Workload to run: fill-free, random or all")
	cmd.Flags().Uint32Var(&benchCapacity, "capacity", cfg.Capacity, "Pool capacity for the random workload")
	cmd.Flags().IntVar(&benchCount, "count", cfg.FillCount, "Allocations made by the fill-free workload")
	cmd.Flags().Uint64Var(&benchSeed, "seed", cfg.Seed, "Seed for the random workload")
	cmd.Flags().IntVar(&benchRounds, "rounds", cfg.Rounds, "Rounds of churn for the random workload")
	rootCmd.AddCommand(cmd)
}

func newBenchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bench",
		Short: "Run throughput workloads",
		Long: `The bench command runs synthetic allocation workloads and reports
how many operations per second the allocator sustained.

  fill-free  allocate N one-unit blocks, then free them in order
  random     rounds of 1-9 random-size allocations and frees

Example:
  orderlyctl bench
  orderlyctl bench --workload random --seed 7 --rounds 50000
  orderlyctl bench --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench()
		},
	}
}

// benchResult is a workload report plus the allocator's end state.
type benchResult struct {
	workload.Report
	Rate     float64     `json:"ops_per_second"`
	Capacity uint32      `json:"capacity"`
	Stats    alloc.Stats `json:"stats"`
}

func runBench() error {
	var names []string
	switch benchWorkload {
	case "fill-free", "random":
		names = []string{benchWorkload}
	case "all":
		names = []string{"fill-free", "random"}
	default:
		return fmt.Errorf("unknown workload %q (want fill-free, random or all)", benchWorkload)
	}
	if benchWorkload != "random" && (benchCount <= 0 || benchCount > workload.MaxFillCount) {
		return fmt.Errorf("--count must be between 1 and %d, got %d", workload.MaxFillCount, benchCount)
	}
	if benchRounds < 0 {
		return fmt.Errorf("--rounds must not be negative, got %d", benchRounds)
	}

	logger := newLogger()
	results := make([]benchResult, 0, len(names))
	for _, name := range names {
		printVerbose("Running %s\n", name)
		res, err := runWorkload(name, alloc.WithLogger(logger))
		if err != nil {
			return err
		}
		results = append(results, res)
	}

	if jsonOut {
		return printJSON(results)
	}

	for _, r := range results {
		printInfo("%-10s %9d allocs %9d frees %12s %14.0f ops/s\n",
			r.Name, r.Allocs, r.Frees, r.Elapsed.Round(time.Microsecond), r.Rate)
		printVerbose("           capacity %d, %d splits, %d coalesces\n",
			r.Capacity, r.Stats.Splits, r.Stats.CoalesceBackward+r.Stats.CoalesceForward)
	}
	return nil
}

func runWorkload(name string, opts ...alloc.Option) (benchResult, error) {
	var (
		o   *workload.Orderly
		rep workload.Report
		err error
	)
	switch name {
	case "fill-free":
		if o, err = workload.NewOrderly(workload.FillFreeCapacity(benchCount), opts...); err != nil {
			return benchResult{}, err
		}
		rep, err = workload.FillFree(o, benchCount)
	case "random":
		if o, err = workload.NewOrderly(benchCapacity, opts...); err != nil {
			return benchResult{}, err
		}
		rep, err = workload.Random(o, benchSeed, benchRounds)
	}
	if err != nil {
		return benchResult{}, fmt.Errorf("%s: %w", name, err)
	}
	return benchResult{
		Report:   rep,
		Rate:     rep.OpsPerSecond(),
		Capacity: o.Capacity(),
		Stats:    o.Stats(),
	}, nil
}
