//go:build unix

package datasource

import (
	"os"
	"syscall"
)

func mmapFile(f *os.File, size int64) ([]byte, error) {
	return syscall.Mmap(
		int(f.Fd()), //nolint:gosec // G115: file descriptor fits in int
		0,
		int(size), //nolint:gosec // G115: size comes from Stat
		syscall.PROT_READ,
		syscall.MAP_SHARED,
	)
}

func munmapFile(data []byte) error {
	return syscall.Munmap(data)
}
