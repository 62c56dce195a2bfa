// Package geometry provides the axis-aligned integer rectangle used for
// search windows, proposals and ground-truth labels.
//
// # Coordinate System
//
// Coordinates follow the standard image convention:
//   - Origin (0, 0) at the top-left corner
//   - X increases rightward (columns), Y increases downward (rows)
//   - A rectangle spans [Left, Right] x [Top, Bottom] where Right = Left + Width
//     and Bottom = Top + Height
//
// # Degenerate Rectangles
//
// A rectangle with zero width or zero height is constructible but "invalid"
// (IsValid reports false). It is returned by Intersection when two rectangles
// do not overlap, so that IoU is always well defined:
//
//	a, _ := geometry.New(geometry.Point{X: 0, Y: 0}, 10, 10)
//	b, _ := geometry.New(geometry.Point{X: 50, Y: 50}, 10, 10)
//	a.IoU(b) // 0
//
// Negative extents are rejected with ErrInvalidGeometry.
package geometry
