package datasource

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ManifestReader serves records stored one per binary file.
//
// The manifest lists one file path per line; line i (0-based, blank lines
// skipped) is record i. Each file holds a raw array of T in native byte
// order and is read in full on every Read. Relative paths resolve against
// the manifest's directory.
type ManifestReader[T Numeric] struct {
	paths []string
}

// NewManifestReader parses the manifest at path. Referenced files are not
// opened until read.
func NewManifestReader[T Numeric](path string) (*ManifestReader[T], error) {
	//nolint:gosec // G304: the path is the caller's manifest
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer func() { _ = f.Close() }()

	dir := filepath.Dir(path)
	r := &ManifestReader[T]{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		entry := strings.TrimSpace(sc.Text())
		if entry == "" {
			continue
		}
		if !filepath.IsAbs(entry) {
			entry = filepath.Join(dir, entry)
		}
		r.paths = append(r.paths, entry)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrIO, path, err)
	}
	return r, nil
}

// Read decodes the file of record index into dst.
func (r *ManifestReader[T]) Read(index int, dst []T) (int, error) {
	if err := checkIndex(index, len(r.paths)); err != nil {
		return 0, err
	}
	path := r.paths[index]

	m, err := mapFile(path)
	if err != nil {
		return 0, fmt.Errorf("record %d: %w", index, err)
	}
	defer func() { _ = m.Close() }()

	var zero T
	size := binary.Size(zero)
	if len(m.data)%size != 0 {
		return 0, fmt.Errorf("%w: record %d: %s holds %d bytes, not a multiple of %d",
			ErrIO, index, path, len(m.data), size)
	}
	n := len(m.data) / size
	k := min(n, len(dst))
	if k > 0 {
		if _, err := binary.Decode(m.data[:k*size], binary.NativeEndian, dst[:k]); err != nil {
			return 0, fmt.Errorf("%w: record %d: %s: %w", ErrIO, index, path, err)
		}
	}
	return n, nil
}

// Len returns the number of manifest entries.
func (r *ManifestReader[T]) Len() int {
	return len(r.paths)
}

// Path returns the file backing record index.
func (r *ManifestReader[T]) Path(index int) string {
	return r.paths[index]
}
