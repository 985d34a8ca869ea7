//go:build !unix

package reserve

// reserveMmap falls back to the heap when mmap is not available.
func reserveMmap(n int) (*Region, error) {
	return reserveHeap(n)
}
