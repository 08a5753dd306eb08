package tensor

import "sync/atomic"

// storage is a reference-counted float32 buffer.
//
// A storage is owned by the tensor that allocated it and borrowed by every
// tensor that shares it. Writes through any holder are visible to all of
// them. When a holder is reshaped to a different element count it releases
// the storage and allocates a fresh one, which severs the alias for that
// holder only.
type storage struct {
	data     []float32
	refCount atomic.Int32
}

// newStorage creates a zeroed buffer with refCount = 1.
func newStorage(size int) *storage {
	s := &storage{
		data: make([]float32, size),
	}
	s.refCount.Store(1)
	return s
}

// addRef registers one more holder.
func (s *storage) addRef() {
	s.refCount.Add(1)
}

// release drops one holder.
func (s *storage) release() {
	s.refCount.Add(-1)
}

// isUnique returns true if only one tensor holds this buffer.
func (s *storage) isUnique() bool {
	return s.refCount.Load() == 1
}
