package pool

import (
	"math/rand"
	"testing"
)

// Benchmark_AllocFree_SameSize benchmarks the split/coalesce round trip on an
// otherwise empty pool.
func Benchmark_AllocFree_SameSize(b *testing.B) {
	p, err := New(1<<20, nil)
	if err != nil {
		b.Fatal(err)
	}
	defer p.Close()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		ref, _, allocErr := p.Alloc(128)
		if allocErr != nil {
			b.Fatal(allocErr)
		}
		if freeErr := p.Free(ref); freeErr != nil {
			b.Fatal(freeErr)
		}
	}
}

// Benchmark_AllocFree_Fragmented benchmarks best-fit search over a free list
// of roughly a thousand holes.
func Benchmark_AllocFree_Fragmented(b *testing.B) {
	p, err := New(4<<20, nil)
	if err != nil {
		b.Fatal(err)
	}
	defer p.Close()

	rng := rand.New(rand.NewSource(1))
	var refs []Ref
	for i := 0; i < 2000; i++ {
		ref, _, allocErr := p.Alloc(16 + rng.Intn(512))
		if allocErr != nil {
			b.Fatal(allocErr)
		}
		refs = append(refs, ref)
	}
	for i := 0; i < len(refs); i += 2 {
		if freeErr := p.Free(refs[i]); freeErr != nil {
			b.Fatal(freeErr)
		}
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		ref, _, allocErr := p.Alloc(16 + (i%32)*8)
		if allocErr != nil {
			b.Fatal(allocErr)
		}
		if freeErr := p.Free(ref); freeErr != nil {
			b.Fatal(freeErr)
		}
	}
}

// Benchmark_Check benchmarks a full consistency walk.
func Benchmark_Check(b *testing.B) {
	p, err := New(4<<20, nil)
	if err != nil {
		b.Fatal(err)
	}
	defer p.Close()
	for i := 0; i < 1000; i++ {
		if _, _, allocErr := p.Alloc(256); allocErr != nil {
			b.Fatal(allocErr)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if checkErr := p.Check(); checkErr != nil {
			b.Fatal(checkErr)
		}
	}
}
