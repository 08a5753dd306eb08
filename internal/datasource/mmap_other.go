//go:build !unix && !windows

package datasource

import (
	"io"
	"os"
)

func mmapFile(f *os.File, size int64) ([]byte, error) {
	buf := make([]byte, size)
	_, err := io.ReadFull(f, buf)
	return buf, err
}

func munmapFile([]byte) error { return nil }
