// Package sonar decodes ARIS DDF version 5 forward-looking sonar recordings.
//
// # File Layout
//
// A recording is a little-endian, byte-packed container:
//
//	+---------------------------+  offset 0
//	| file header (1024 bytes)  |
//	+---------------------------+  offset 1024
//	| frame 0 header (1024)     |
//	| frame 0 pixels            |  beams(pingMode) * samplesPerBeam bytes
//	+---------------------------+  offset 1024 + 1 * stride
//	| frame 1 ...               |
//
// where stride = 1024 + fileHeader.Beams * fileHeader.SamplesPerBeam.
//
// Only the leading 336 bytes of the file header and the leading 724 bytes of
// each frame header carry fields; the rest is padding.
//
// # Random Access
//
// File reads frames with io.ReaderAt at computed offsets, so Frame may be
// called in any order and from several goroutines. Nothing is cached: every
// Frame call returns freshly decoded data.
//
// # Per-Frame Geometry
//
// The pixel layout of a frame is taken from that frame's own header. The beam
// count follows from the ping mode (see BeamsForPingMode) and may differ
// between frames, as may the acquisition window.
//
// # Projection
//
// Frame.Image is the raw samples x beams raster. PolarImage scan-converts a
// frame into the fan the sonar actually images, leaving the background outside
// the field of view black. ExportFrames writes the fan by default.
//
// # Errors
//
// Every failure is a *DecodeError wrapping one of ErrIndexOutOfRange,
// ErrUnsupportedVersion, ErrUnsupportedPingMode or ErrTruncated. Bulk readers
// such as ExportFrames record per-frame failures and keep going.
package sonar
