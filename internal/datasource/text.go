package datasource

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// TextReader serves records parsed from a text file, one per line.
// Line i (0-based) is record i; an empty line is a record of length 0.
type TextReader[T Numeric] struct {
	records [][]T
}

// NewTextReader loads and parses the file at path.
func NewTextReader[T Numeric](path string) (*TextReader[T], error) {
	//nolint:gosec // G304: the path is the caller's data file
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer func() { _ = f.Close() }()

	r, err := ParseText[T](f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// ParseText reads records from src until EOF.
func ParseText[T Numeric](src io.Reader) (*TextReader[T], error) {
	r := &TextReader[T]{}
	sc := bufio.NewScanner(src)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	for line := 1; sc.Scan(); line++ {
		fields := strings.Fields(sc.Text())
		rec := make([]T, len(fields))
		for i, field := range fields {
			v, err := parseField[T](field)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d field %d: %w", ErrFormat, line, i+1, err)
			}
			rec[i] = v
		}
		r.records = append(r.records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	return r, nil
}

func parseField[T Numeric](s string) (T, error) {
	var zero T
	bits := 8 * binary.Size(zero)
	half := 0.5
	switch {
	case T(half) != 0:
		v, err := strconv.ParseFloat(s, bits)
		return T(v), err
	case zero-1 > 0:
		v, err := strconv.ParseUint(s, 10, bits)
		return T(v), err
	default:
		v, err := strconv.ParseInt(s, 10, bits)
		return T(v), err
	}
}

// Read copies record index into dst.
func (r *TextReader[T]) Read(index int, dst []T) (int, error) {
	if err := checkIndex(index, len(r.records)); err != nil {
		return 0, err
	}
	rec := r.records[index]
	copy(dst, rec)
	return len(rec), nil
}

// Len returns the number of lines.
func (r *TextReader[T]) Len() int {
	return len(r.records)
}
