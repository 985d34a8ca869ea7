package main

import (
	"github.com/dustin/go-humanize"

	"github.com/joshuapare/tagalloc/pkg/workload"
	"github.com/joshuapare/tagalloc/pool"
)

// ReportJSON is the --json form of a workload report.
type ReportJSON struct {
	Ops             int           `json:"ops"`
	Allocs          int           `json:"allocs"`
	Frees           int           `json:"frees"`
	Checks          int           `json:"checks"`
	OutOfSpace      int           `json:"out_of_space"`
	DoubleFrees     int           `json:"double_frees"`
	InvalidRefs     int           `json:"invalid_refs"`
	UnknownNames    int           `json:"unknown_names"`
	CorruptPayloads int           `json:"corrupt_payloads"`
	Failures        []FailureJSON `json:"failures,omitempty"`
	Stats           pool.Stats    `json:"stats"`
	Error           string        `json:"error,omitempty"`
}

// FailureJSON is one failed op.
type FailureJSON struct {
	Line  int    `json:"line,omitempty"`
	Op    string `json:"op"`
	Error string `json:"error"`
}

func toJSON(rep *workload.Report, runErr error) ReportJSON {
	out := ReportJSON{
		Ops:             len(rep.Results),
		Allocs:          rep.Allocs,
		Frees:           rep.Frees,
		Checks:          rep.Checks,
		OutOfSpace:      rep.OutOfSpace,
		DoubleFrees:     rep.DoubleFrees,
		InvalidRefs:     rep.InvalidRefs,
		UnknownNames:    rep.UnknownNames,
		CorruptPayloads: rep.CorruptPayloads,
		Stats:           rep.Stats,
	}
	for _, res := range rep.Failed() {
		out.Failures = append(out.Failures, FailureJSON{Line: res.Op.Line, Op: res.Op.String(), Error: res.Err.Error()})
	}
	if runErr != nil {
		out.Error = runErr.Error()
	}
	return out
}

// printReport renders rep for humans, or as JSON with --json.
func printReport(rep *workload.Report, runErr error) error {
	if jsonOut {
		return printJSON(toJSON(rep, runErr))
	}

	for _, res := range rep.Results {
		switch {
		case res.Err != nil && res.Op.Line > 0:
			printInfo("line %d: %s: %v\n", res.Op.Line, res.Op, res.Err)
		case res.Err != nil:
			printInfo("%s: %v\n", res.Op, res.Err)
		default:
			printVerbose("%-24s ref=%d\n", res.Op, res.Ref)
		}
	}

	s := rep.Stats
	printInfo("\nWorkload:\n")
	printInfo("  Ops:              %s\n", humanize.Comma(int64(len(rep.Results))))
	printInfo("  Allocs:           %s\n", humanize.Comma(int64(rep.Allocs)))
	printInfo("  Frees:            %s\n", humanize.Comma(int64(rep.Frees)))
	printInfo("  Checks passed:    %d\n", rep.Checks)
	printInfo("  Out of space:     %d\n", rep.OutOfSpace)
	printInfo("  Double frees:     %d\n", rep.DoubleFrees)
	if rep.InvalidRefs > 0 {
		printInfo("  Invalid refs:     %d\n", rep.InvalidRefs)
	}
	if rep.UnknownNames > 0 {
		printInfo("  Unknown names:    %d\n", rep.UnknownNames)
	}
	if rep.CorruptPayloads > 0 {
		printInfo("  Corrupt payloads: %d\n", rep.CorruptPayloads)
	}

	printInfo("\nPool:\n")
	printInfo("  Capacity:         %s\n", humanize.IBytes(uint64(s.Capacity)))
	printInfo("  In use:           %s in %d blocks\n", humanize.IBytes(uint64(s.InUseBytes)), s.AllocatedBlocks)
	printInfo("  Free:             %s in %d blocks (largest %s)\n",
		humanize.IBytes(uint64(s.FreeBytes)), s.FreeBlocks, humanize.IBytes(uint64(s.LargestFree)))
	printInfo("  Tag overhead:     %s\n", humanize.IBytes(uint64(s.OverheadBytes)))
	printInfo("  Splits:           %d\n", s.Splits)
	printInfo("  Coalesces:        %d forward, %d backward\n", s.CoalesceForward, s.CoalesceBackward)
	if s.CorruptionReports > 0 {
		printInfo("  Corruption:       %d reports\n", s.CorruptionReports)
	}
	if runErr != nil {
		printError("%v\n", runErr)
	}
	return nil
}
