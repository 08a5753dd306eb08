// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package datasource provides indexed record readers for data-feeding layers.
//
// Reads are stateless with respect to the index. Backends:
//   - NewTextReader: one record per line of whitespace-separated numbers
//   - NewManifestReader: one record per raw binary file listed in a manifest
//   - NewCachedReader: holds a whole reader in one contiguous slab
package datasource

import (
	"io"

	"github.com/born-ml/strata/internal/datasource"
)

// Numeric is the set of element types a record can hold.
type Numeric = datasource.Numeric

// Reader reads indexed records. Read copies up to len(dst) values and
// returns the full record length.
type Reader[T Numeric] = datasource.Reader[T]

// Sized is implemented by readers that know their record count.
type Sized = datasource.Sized

// Errors.
var (
	ErrIO              = datasource.ErrIO
	ErrFormat          = datasource.ErrFormat
	ErrIndexOutOfRange = datasource.ErrIndexOutOfRange
	ErrInvalidCache    = datasource.ErrInvalidCache
)

// NewTextReader loads a text file with one record per line.
func NewTextReader[T Numeric](path string) (*datasource.TextReader[T], error) {
	return datasource.NewTextReader[T](path)
}

// ParseText reads text records from src.
func ParseText[T Numeric](src io.Reader) (*datasource.TextReader[T], error) {
	return datasource.ParseText[T](src)
}

// Len returns r's record count, or -1 when r does not implement Sized.
func Len[T Numeric](r Reader[T]) int {
	return datasource.Len(r)
}

// NewManifestReader parses a manifest of binary record files.
func NewManifestReader[T Numeric](path string) (*datasource.ManifestReader[T], error) {
	return datasource.NewManifestReader[T](path)
}

// NewCachedReader loads records 0..n-1 of r into memory; n < 0 means all of
// them.
func NewCachedReader[T Numeric](r Reader[T], n int) (*datasource.CachedReader[T], error) {
	return datasource.NewCachedReader(r, n)
}
