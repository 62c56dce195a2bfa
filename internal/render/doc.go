// Package render draws proposals and ground truth over sonar frames for
// visual inspection.
//
// Proposal outlines are colored by score on a ramp blended in CIE L*a*b*
// space, from LowColor at score 0 to HighColor at score 1. Ground-truth boxes
// use a single color. Scores can be printed next to each box with a small
// built-in bitmap font.
package render
