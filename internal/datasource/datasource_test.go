package datasource

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, data, 0o600))
}

func writeFloats(t *testing.T, path string, values []float32) {
	t.Helper()
	buf, err := binary.Append(nil, binary.NativeEndian, values)
	require.NoError(t, err)
	writeFile(t, path, buf)
}

// sliceReader serves in-memory records.
type sliceReader[T Numeric] struct {
	records [][]T
}

func (r *sliceReader[T]) Read(index int, dst []T) (int, error) {
	if err := checkIndex(index, len(r.records)); err != nil {
		return 0, err
	}
	copy(dst, r.records[index])
	return len(r.records[index]), nil
}

func TestTextReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.txt")
	writeFile(t, path, []byte("1 2.5 -3\n\n4\t5  6e-1\n"))

	r, err := NewTextReader[float32](path)
	require.NoError(t, err)
	require.Equal(t, 3, r.Len())

	buf := make([]float32, 3)
	n, err := r.Read(0, buf)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []float32{1, 2.5, -3}, buf)

	n, err = r.Read(1, buf)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// Truncated read reports the full record length.
	small := make([]float32, 2)
	n, err = r.Read(2, small)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []float32{4, 5}, small)

	n, err = r.Read(2, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = r.Read(3, buf)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = r.Read(-1, buf)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestParseText_ElementTypes(t *testing.T) {
	ints, err := ParseText[int16](strings.NewReader("-3 7\n"))
	require.NoError(t, err)
	buf := make([]int16, 2)
	_, err = ints.Read(0, buf)
	require.NoError(t, err)
	assert.Equal(t, []int16{-3, 7}, buf)

	_, err = ParseText[uint8](strings.NewReader("1 -1\n"))
	assert.ErrorIs(t, err, ErrFormat)

	_, err = ParseText[int32](strings.NewReader("1.5\n"))
	assert.ErrorIs(t, err, ErrFormat)

	_, err = ParseText[float64](strings.NewReader("1 x\n"))
	assert.ErrorIs(t, err, ErrFormat)
}

func TestTextReader_MissingFile(t *testing.T) {
	_, err := NewTextReader[float32](filepath.Join(t.TempDir(), "nope.txt"))
	assert.ErrorIs(t, err, ErrIO)
}

// TestManifestReader_SecondFile reads index 1 of a two-file manifest.
func TestManifestReader_SecondFile(t *testing.T) {
	dir := t.TempDir()
	writeFloats(t, filepath.Join(dir, "a.bin"), []float32{1, 2, 3, 4})
	writeFloats(t, filepath.Join(dir, "b.bin"), []float32{5, 6, 7, 8})
	manifest := filepath.Join(dir, "manifest.txt")
	writeFile(t, manifest, []byte("a.bin\nb.bin\n"))

	r, err := NewManifestReader[float32](manifest)
	require.NoError(t, err)
	require.Equal(t, 2, r.Len())
	assert.Equal(t, filepath.Join(dir, "b.bin"), r.Path(1))

	buf := make([]float32, 4)
	n, err := r.Read(1, buf)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []float32{5, 6, 7, 8}, buf)

	// Repeated reads return identical values.
	again := make([]float32, 4)
	_, err = r.Read(1, again)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(buf, again))
}

func TestManifestReader_Errors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "odd.bin"), []byte{1, 2, 3, 4, 5, 6})
	writeFile(t, filepath.Join(dir, "empty.bin"), nil)
	manifest := filepath.Join(dir, "manifest.txt")
	writeFile(t, manifest, []byte("odd.bin\nmissing.bin\n\nempty.bin\n"))

	r, err := NewManifestReader[float32](manifest)
	require.NoError(t, err)
	require.Equal(t, 3, r.Len())

	_, err = r.Read(0, make([]float32, 2))
	assert.ErrorIs(t, err, ErrIO)

	_, err = r.Read(1, make([]float32, 2))
	assert.ErrorIs(t, err, ErrIO)

	n, err := r.Read(2, make([]float32, 2))
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = r.Read(5, nil)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	_, err = NewManifestReader[float32](filepath.Join(dir, "absent.txt"))
	assert.ErrorIs(t, err, ErrIO)
}

func TestCachedReader_MatchesWrapped(t *testing.T) {
	dir := t.TempDir()
	var lines []string
	for i := range 6 {
		name := filepath.Join(dir, "r"+string(rune('0'+i))+".bin")
		writeFloats(t, name, []float32{float32(i), float32(i) * 10, -1})
		lines = append(lines, name)
	}
	manifest := filepath.Join(dir, "manifest.txt")
	writeFile(t, manifest, []byte(strings.Join(lines, "\n")))

	src, err := NewManifestReader[float32](manifest)
	require.NoError(t, err)
	cached, err := NewCachedReader[float32](src, -1)
	require.NoError(t, err)
	assert.Equal(t, 6, cached.Len())
	assert.Equal(t, 3, cached.RecordLen())

	for i := range 6 {
		want := make([]float32, 3)
		_, err := src.Read(i, want)
		require.NoError(t, err)
		for range 2 {
			got := make([]float32, 3)
			n, err := cached.Read(i, got)
			require.NoError(t, err)
			assert.Equal(t, 3, n)
			assert.Empty(t, cmp.Diff(want, got), "record %d", i)
		}
	}
}

func TestCachedReader_ConcurrentReads(t *testing.T) {
	src := &sliceReader[int32]{records: [][]int32{{1, 2}, {3, 4}, {5, 6}}}
	cached, err := NewCachedReader[int32](src, 3)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			buf := make([]int32, 2)
			idx := g % 3
			_, err := cached.Read(idx, buf)
			assert.NoError(t, err)
			assert.Equal(t, src.records[idx], buf)
		}()
	}
	wg.Wait()
}

func TestCachedReader_Refuses(t *testing.T) {
	t.Run("non-uniform", func(t *testing.T) {
		src := &sliceReader[float32]{records: [][]float32{{1, 2}, {3}, {4, 5}}}
		_, err := NewCachedReader[float32](src, 3)
		assert.ErrorIs(t, err, ErrInvalidCache)
	})
	t.Run("longer record", func(t *testing.T) {
		src := &sliceReader[float32]{records: [][]float32{{1}, {2, 3}}}
		_, err := NewCachedReader[float32](src, 2)
		assert.ErrorIs(t, err, ErrInvalidCache)
	})
	t.Run("gap", func(t *testing.T) {
		src := &sliceReader[float32]{records: [][]float32{{1}, {2}}}
		_, err := NewCachedReader[float32](src, 4)
		assert.ErrorIs(t, err, ErrInvalidCache)
	})
	t.Run("unsized", func(t *testing.T) {
		src := &sliceReader[float32]{records: [][]float32{{1}}}
		_, err := NewCachedReader[float32](src, -1)
		assert.ErrorIs(t, err, ErrInvalidCache)
	})
}

func TestCachedReader_Empty(t *testing.T) {
	cached, err := NewCachedReader[float32](&sliceReader[float32]{}, 0)
	require.NoError(t, err)
	_, err = cached.Read(0, nil)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}
