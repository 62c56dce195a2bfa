// Package polar restricts window search to the fan-shaped field of view of a
// forward-looking sonar image.
//
// Sonar frames rendered from polar scan data leave a contiguous black
// background outside the sensor footprint. ExtractMask separates that
// background from the imaged interior with a flood fill from the top-left
// corner, and SlidingWindows enumerates only the windows whose corners and
// center fall inside the footprint.
//
// Masks are *image.Gray values holding 0 (outside) or 255 (inside). A mask
// produced for one resolution can be reused at another via ResampleMask.
package polar
