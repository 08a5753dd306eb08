// Package datasource provides indexed record readers for data-feeding layers.
//
// A Reader maps an integer index to a record of numeric values. Reads are
// stateless with respect to the index: two reads of the same index return the
// same values as long as the backing storage is unchanged.
//
// Backends:
//   - Text: one record per line, whitespace-separated numeric fields
//   - Manifest: one record per line naming a raw binary file in native byte order
//   - Cached: decorator loading a whole reader into one contiguous slab
//
// Example:
//
//	src, err := datasource.NewManifestReader[float32]("train/manifest.txt")
//	if err != nil {
//	    return err
//	}
//	cached, err := datasource.NewCachedReader[float32](src, -1)
//	if err != nil {
//	    return err
//	}
//	buf := make([]float32, 784)
//	n, err := cached.Read(42, buf)
package datasource
