package datasource

import (
	"fmt"
	"os"
)

// mappedFile is a read-only view of a whole file.
type mappedFile struct {
	file *os.File
	data []byte
}

// mapFile opens path and maps its contents. Empty files are not mapped.
func mapFile(path string) (*mappedFile, error) {
	//nolint:gosec // G304: manifest entries name the caller's data files
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: stat %s: %w", ErrIO, path, err)
	}

	m := &mappedFile{file: f}
	if stat.Size() == 0 {
		return m, nil
	}
	m.data, err = mmapFile(f, stat.Size())
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: mmap %s: %w", ErrIO, path, err)
	}
	return m, nil
}

// Close unmaps and closes the file.
func (m *mappedFile) Close() error {
	var err error
	if m.data != nil {
		err = munmapFile(m.data)
		m.data = nil
	}
	if closeErr := m.file.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}
