// Package imaging provides the raster plumbing shared by the proposal pipeline.
//
// Sonar frames and window crops are handled as 8-bit grayscale (*image.Gray).
// This package converts decoded images to grayscale, caches them by path,
// crops search windows and resizes them to an evaluator's input size, and
// encodes results as PNG for transport.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner:
//   - X: horizontal position (0 = leftmost column, one column per beam)
//   - Y: vertical position (0 = topmost row, one row per range bin)
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Cached images are shared
// between callers and must be treated as read-only. All other functions are
// stateless and allocate their outputs.
package imaging
