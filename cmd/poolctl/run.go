package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/tagalloc/pkg/workload"
)

var runCheckEach bool

func init() {
	cmd := newRunCmd()
	cmd.Flags().BoolVar(&runCheckEach, "check-each", false, "Run a consistency check after every op and record failures")
	rootCmd.AddCommand(cmd)
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <script>",
		Short: "Replay a workload script",
		Long: `The run command replays a workload script against a fresh pool.

Scripts hold one op per line; '#' starts a comment:

  alloc <name> <size>
  free <name>
  check

Pass - to read the script from stdin.

Example:
  poolctl run workload.txt
  poolctl run --size 64KiB --threshold 200 workload.txt
  poolctl run --json - < workload.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(cmd.InOrStdin(), args)
		},
	}
	return cmd
}

func runScript(stdin io.Reader, args []string) error {
	path := args[0]

	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open script: %w", err)
		}
		defer f.Close()
		r = f
	}

	ops, err := workload.Parse(r)
	if err != nil {
		return err
	}
	printVerbose("Loaded %d ops from %s\n", len(ops), path)

	return replay(ops, runCheckEach)
}

// replay runs ops against a pool built from the pool flags and prints the
// report. Corruption is returned as the command error.
func replay(ops []workload.Op, checkEach bool) error {
	p, err := openPool()
	if err != nil {
		return err
	}
	defer p.Close()

	runner := workload.NewRunner(p)
	runner.CheckEach = checkEach
	runner.Logger = newLogger()

	rep, runErr := runner.Run(ops)
	if err := printReport(rep, runErr); err != nil {
		return err
	}
	return runErr
}
