package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/joshuapare/tagalloc/pool"
)

// resetFlags restores every flag variable to its default so commands can be
// executed repeatedly in one test binary.
func resetFlags() {
	verbose, quiet, jsonOut = false, false, false
	poolSize = "1MiB"
	poolThreshold = pool.DefaultOptions.SplitThreshold
	poolAlign = pool.DefaultOptions.Alignment
	poolBacking = pool.DefaultOptions.Backing.String()
	poolVerify = false
	runCheckEach = false
	simOps, simSeed, simMaxSize, simMetrics, simEmit = 10000, 0, 4096, false, ""
}

// execCommand runs poolctl with args and returns what it wrote to stdout and stderr.
func execCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags()

	var out, errOut bytes.Buffer
	stdout, stderr = &out, &errOut
	t.Cleanup(func() {
		stdout, stderr = os.Stdout, os.Stderr
		resetFlags()
	})

	rootCmd.SetArgs(args)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

// writeScript writes a workload script into a temp dir and returns its path.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "workload.txt")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return path
}

// assertJSON checks that output is valid JSON
func assertJSON(t *testing.T, output string) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Fatalf("output is not valid JSON: %v\nOutput: %s", err, output)
	}
	return result
}
