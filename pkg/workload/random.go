package workload

import (
	"math/rand"
	"strconv"
)

// Random generates a reproducible workload of n ops with request sizes in
// [1, maxSize]. It allocates a little more often than it frees, frees a
// random live block, and inserts a check every 64 ops. Every free names a
// live block, so replaying it never double-frees.
func Random(seed int64, n, maxSize int) []Op {
	if maxSize < 1 {
		maxSize = 1
	}
	rng := rand.New(rand.NewSource(seed))

	ops := make([]Op, 0, n)
	var live []string
	next := 0
	for len(ops) < n {
		switch {
		case len(ops) > 0 && len(ops)%64 == 63:
			ops = append(ops, Op{Kind: OpCheck})
		case len(live) == 0 || rng.Intn(100) < 60:
			name := "b" + strconv.Itoa(next)
			next++
			live = append(live, name)
			ops = append(ops, Op{Kind: OpAlloc, Name: name, Size: 1 + rng.Intn(maxSize)})
		default:
			i := rng.Intn(len(live))
			ops = append(ops, Op{Kind: OpFree, Name: live[i]})
			live[i] = live[len(live)-1]
			live = live[:len(live)-1]
		}
	}
	return ops
}
