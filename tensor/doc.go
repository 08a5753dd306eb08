// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the 4-D blob type of the Strata layer engine.
//
// # Overview
//
// A Tensor holds a shape (N, C, H, W), a data buffer and a gradient
// ("diff") buffer of the same element count. Layers read bottom data and
// write top data in Forward, and read top diffs and write bottom diffs in
// Backward.
//
// # Buffer Sharing
//
// Buffers are reference counted and can be borrowed by other tensors:
//
//	flat := tensor.New(2, 12, 1, 1)
//	flat.ShareData(x) // flat and x now read and write the same values
//
// Writes through either tensor are visible through both while the borrow
// holds. Reshaping either tensor to a different element count gives it
// fresh storage and ends the borrow; a reshape that keeps the element count
// keeps it.
//
// # Basic Usage
//
//	x, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.NewShape(1, 6, 1, 1))
//	if err != nil {
//	    return err
//	}
//	fmt.Println(x.DataAt(0, 2, 0, 0)) // 3
package tensor
