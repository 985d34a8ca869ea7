package main

import (
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/joshuapare/tagalloc/pkg/workload"
	"github.com/joshuapare/tagalloc/pool"
	"github.com/joshuapare/tagalloc/pool/metrics"
)

var (
	simOps     int
	simSeed    int64
	simMaxSize int
	simMetrics bool
	simEmit    string
)

func init() {
	cmd := newSimulateCmd()
	cmd.Flags().IntVar(&simOps, "ops", 10000, "Number of ops to generate")
	cmd.Flags().Int64Var(&simSeed, "seed", 0, "Random seed (0 picks one from the clock)")
	cmd.Flags().IntVar(&simMaxSize, "max-size", 4096, "Largest request size in bytes")
	cmd.Flags().BoolVar(&simMetrics, "metrics", false, "Print pool metrics in Prometheus text format after the run")
	cmd.Flags().StringVar(&simEmit, "emit", "", "Also write the generated workload as a script to this file")
	rootCmd.AddCommand(cmd)
}

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a random workload",
		Long: `The simulate command generates a reproducible random mix of allocations,
frees and checks, replays it against a fresh pool and reports the result.

Example:
  poolctl simulate --ops 100000 --seed 42
  poolctl simulate --size 16MiB --max-size 65536 --metrics
  poolctl simulate --seed 7 --emit failing.txt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate()
		},
	}
	return cmd
}

func runSimulate() error {
	if simOps < 0 {
		return fmt.Errorf("--ops must not be negative, got %d", simOps)
	}
	seed := simSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	printVerbose("Seed: %d\n", seed)

	ops := workload.Random(seed, simOps, simMaxSize)
	if simEmit != "" {
		if err := emitScript(simEmit, seed, ops); err != nil {
			return err
		}
	}

	p, err := openPool()
	if err != nil {
		return err
	}
	shared := pool.Wrap(p)
	defer shared.Close()

	runner := workload.NewRunner(shared)
	runner.Logger = newLogger()
	rep, runErr := runner.Run(ops)

	if !simMetrics {
		if err := printReport(rep, runErr); err != nil {
			return err
		}
		return runErr
	}

	if err := writeMetrics(shared); err != nil {
		return err
	}
	if runErr != nil {
		printError("%v\n", runErr)
	}
	return runErr
}

func emitScript(path string, seed int64, ops []workload.Op) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create script: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "# poolctl simulate --seed %d --ops %d --max-size %d\n", seed, len(ops), simMaxSize); err != nil {
		return err
	}
	if err := workload.Format(f, ops); err != nil {
		return fmt.Errorf("failed to write script: %w", err)
	}
	printVerbose("Wrote %d ops to %s\n", len(ops), path)
	return f.Close()
}

// writeMetrics gathers the pool collector and prints it in the text
// exposition format.
func writeMetrics(src metrics.StatsSource) error {
	reg := prometheus.NewRegistry()
	if err := reg.Register(metrics.NewCollector(src, nil)); err != nil {
		return err
	}
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	enc := expfmt.NewEncoder(stdout, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
