package main

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/joshuapare/tagalloc/pool"
)

var (
	poolSize      string
	poolThreshold int
	poolAlign     int
	poolBacking   string
	poolVerify    bool
)

func addPoolFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVar(&poolSize, "size", "1MiB", "Pool size (e.g. 65536, 64KiB, 4MB)")
	f.IntVar(&poolThreshold, "threshold", pool.DefaultOptions.SplitThreshold,
		"Split a free block only when it exceeds the request by more than this many bytes")
	f.IntVar(&poolAlign, "align", pool.DefaultOptions.Alignment, "Round requests up to this power of two (1-8)")
	f.StringVar(&poolBacking, "backing", pool.DefaultOptions.Backing.String(), "Arena backing: heap or mmap")
	f.BoolVar(&poolVerify, "verify", false, "Check pool consistency after every allocation and free")
}

// openPool builds a pool from the pool flags.
func openPool() (*pool.Pool, error) {
	size, err := humanize.ParseBytes(poolSize)
	if err != nil {
		return nil, fmt.Errorf("invalid --size %q: %w", poolSize, err)
	}
	if size > math.MaxInt {
		return nil, fmt.Errorf("invalid --size %q: too large", poolSize)
	}
	backing, err := pool.ParseBacking(poolBacking)
	if err != nil {
		return nil, err
	}
	opts := pool.Options{
		SplitThreshold: poolThreshold,
		Alignment:      poolAlign,
		Backing:        backing,
		Verify:         poolVerify,
		Logger:         newLogger(),
	}
	p, err := pool.New(int(size), &opts)
	if err != nil {
		return nil, err
	}
	printVerbose("Pool: %s (%s backing, threshold %d, align %d)\n",
		humanize.IBytes(size), backing, poolThreshold, poolAlign)
	return p, nil
}
