//go:build unix

package reserve

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

func reserveMmap(n int) (*Region, error) {
	data, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("reserve: mmap %d bytes: %w", n, err)
	}
	return &Region{data: data, backing: Mmap, release: munmap}, nil
}

func munmap(data []byte) error {
	err := unix.Munmap(data)
	if errors.Is(err, unix.EINVAL) {
		// Treat double-unmap as no-op for callers.
		return nil
	}
	return err
}
